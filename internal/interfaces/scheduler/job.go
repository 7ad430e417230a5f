package scheduler

import "context"

// Job is a unit of work run by the worker pool.
type Job interface {
	// Execute runs the job. The context carries the per-job timeout.
	Execute(ctx context.Context) error

	// UserID identifies the user the job works for, for logs and spans.
	UserID() string

	// Description returns a human-readable description of the job.
	Description() string
}
