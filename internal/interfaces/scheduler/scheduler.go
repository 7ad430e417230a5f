package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Scheduler enqueues jobs once after an initial delay and then at a fixed
// interval.
type Scheduler struct {
	workerPool   *WorkerPool
	initialDelay time.Duration
	interval     time.Duration
	jobProvider  func(context.Context) ([]Job, error)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Config holds configuration for the scheduler.
type Config struct {
	InitialDelay time.Duration
	Interval     time.Duration
	WorkerCount  int
	JobDelay     time.Duration
	JobTimeout   time.Duration
	QueueSize    int
	JobProvider  func(context.Context) ([]Job, error)
}

// New creates a scheduler and its worker pool.
func New(config Config) (*Scheduler, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive, got %v", config.Interval)
	}
	if config.InitialDelay < 0 {
		return nil, fmt.Errorf("scheduler initial delay must not be negative, got %v", config.InitialDelay)
	}
	if config.JobProvider == nil {
		return nil, fmt.Errorf("scheduler requires a job provider")
	}

	workerPool := NewWorkerPool(config.WorkerCount, config.JobDelay, config.JobTimeout, config.QueueSize)
	ctx, cancel := context.WithCancel(context.Background())

	log.Printf("Scheduler initialized: first run after %v, then every %v", config.InitialDelay, config.Interval)
	log.Printf("Worker pool: %d workers, %v delay between jobs", config.WorkerCount, config.JobDelay)

	return &Scheduler{
		workerPool:   workerPool,
		initialDelay: config.InitialDelay,
		interval:     config.Interval,
		jobProvider:  config.JobProvider,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Start launches the worker pool and the schedule loop.
func (s *Scheduler) Start() {
	log.Println("Starting scheduler...")

	s.workerPool.Start()

	s.wg.Add(1)
	go s.scheduleLoop()

	log.Println("Scheduler started")
}

func (s *Scheduler) scheduleLoop() {
	defer s.wg.Done()

	initial := time.NewTimer(s.initialDelay)
	defer initial.Stop()

	select {
	case <-s.ctx.Done():
		return
	case <-initial.C:
		log.Println("Scheduler: Running initial job batch")
		s.runJobs()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			log.Println("Scheduler loop: Context cancelled, shutting down")
			return

		case now := <-ticker.C:
			log.Printf("Scheduler: Triggered at %s", now.Format(time.TimeOnly))
			s.runJobs()
		}
	}
}

// runJobs asks the provider for jobs and submits them to the worker pool.
func (s *Scheduler) runJobs() int {
	ctx, cancel := context.WithTimeout(s.ctx, time.Minute)
	defer cancel()

	jobs, err := s.jobProvider(ctx)
	if err != nil {
		log.Printf("Scheduler: Failed to fetch jobs: %v", err)
		return 0
	}

	if len(jobs) == 0 {
		log.Println("Scheduler: No jobs to process")
		return 0
	}

	log.Printf("Scheduler: Submitting %d jobs to worker pool", len(jobs))
	return s.workerPool.SubmitBatch(jobs)
}

// Shutdown stops the schedule loop, then drains the worker pool.
func (s *Scheduler) Shutdown(timeout time.Duration) {
	log.Println("Scheduler: Initiating graceful shutdown...")

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Scheduler: Scheduler loop stopped gracefully")
	case <-time.After(timeout):
		log.Println("Scheduler: Timeout waiting for scheduler loop to stop")
	}

	s.workerPool.ShutdownWithTimeout(timeout)

	log.Println("Scheduler: Shutdown complete")
}

// TriggerNow enqueues a job batch immediately.
func (s *Scheduler) TriggerNow() {
	log.Println("Scheduler: Manual trigger")
	go s.runJobs()
}

// UserLister returns the ids of users that own at least one connection.
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
}

// UserSyncJobs builds a job provider yielding one UserSyncJob per user.
func UserSyncJobs(users UserLister, trigger *Trigger, sessions *Sessions) func(context.Context) ([]Job, error) {
	return func(ctx context.Context) ([]Job, error) {
		ids, err := users.ListUserIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list users with connections: %w", err)
		}

		jobs := make([]Job, 0, len(ids))
		for _, id := range ids {
			jobs = append(jobs, NewUserSyncJob(trigger, sessions.Get(id)))
		}
		return jobs, nil
	}
}
