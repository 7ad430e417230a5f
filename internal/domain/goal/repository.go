package goal

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for goal data access
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Goal, error)

	// ListByUserID returns goals ordered by deadline, nulls last.
	ListByUserID(ctx context.Context, userID int64) ([]*Goal, error)

	// AddProgress atomically adds amount to a goal's progress, capped at its
	// target, and returns the updated goal. It returns ErrGoalNotFound when
	// the goal does not exist or is already complete.
	AddProgress(ctx context.Context, id string, amount decimal.Decimal) (*Goal, error)
}
