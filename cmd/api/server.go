package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"poupa/internal/infrastructure/postgres/listener"
	"poupa/internal/interfaces/scheduler"
)

// StartServer creates and starts the HTTP server in the background.
func StartServer(addr string, handler http.Handler) *http.Server {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		// Sync passes run inside the request, so writes get a longer deadline.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("HTTP server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	return srv
}

// GracefulShutdown stops the HTTP server, then the background workers.
func GracefulShutdown(srv *http.Server, sched *scheduler.Scheduler, l *listener.TransactionListener, timeout time.Duration) {
	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	if sched != nil {
		sched.Shutdown(timeout)
	}

	if l != nil {
		l.Stop()
	}

	log.Println("Server stopped")
}
