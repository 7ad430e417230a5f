package connection

import (
	"context"
	"time"
)

// Repository defines the interface for connection data access
type Repository interface {
	// Create inserts a connection, or returns the existing row for the same (user, item) pair.
	Create(ctx context.Context, params CreateParams) (*Connection, error)

	// GetByID returns ErrNotFound when no row exists.
	GetByID(ctx context.Context, id string) (*Connection, error)

	ListByUserID(ctx context.Context, userID int64) ([]*Connection, error)

	// ListUserIDs returns every user that owns at least one connection.
	ListUserIDs(ctx context.Context) ([]int64, error)

	// MarkSynced records a finished pass. An empty status leaves the column untouched.
	MarkSynced(ctx context.Context, id, status string, at time.Time) error

	// Delete removes the connection; accounts and transactions cascade.
	Delete(ctx context.Context, id string) error
}
