package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"poupa/internal/interfaces/scheduler"
	"poupa/internal/shared/config"
	"poupa/internal/shared/telemetry"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.FromConfig(cfg.Telemetry))
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	deps, err := NewDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	deps.Listener.Start(ctx)

	var sched *scheduler.Scheduler
	if cfg.Sync.SchedulerEnabled {
		sched, err = scheduler.New(scheduler.Config{
			InitialDelay: cfg.Sync.InitialDelay,
			Interval:     cfg.Sync.Interval,
			WorkerCount:  cfg.Sync.WorkerCount,
			JobTimeout:   cfg.Sync.JobTimeout,
			QueueSize:    cfg.Sync.QueueSize,
			JobProvider:  scheduler.UserSyncJobs(deps.ConnectionService, deps.Trigger, deps.Sessions),
		})
		if err != nil {
			return err
		}
		sched.Start()
	} else {
		log.Println("Scheduler is disabled")
	}

	srv := StartServer(cfg.Server.Host+":"+cfg.Server.Port, SetupRoutes(deps, cfg))

	<-ctx.Done()
	stop()

	GracefulShutdown(srv, sched, deps.Listener, 30*time.Second)
	return nil
}
