package account

import "context"

// Repository defines the interface for account data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// Create inserts a new account row
	Create(ctx context.Context, params CreateParams) (*Account, error)

	// Update overwrites the mutable fields of the account with the given local ID
	Update(ctx context.Context, id string, params UpdateParams) (*Account, error)

	// GetByID returns ErrAccountNotFound when no row exists
	GetByID(ctx context.Context, id string) (*Account, error)

	// GetByExternalID looks an account up by the aggregator's account id.
	// Returns ErrAccountNotFound when no row exists.
	GetByExternalID(ctx context.Context, externalID string) (*Account, error)

	// ListByConnectionID retrieves all accounts under a connection
	ListByConnectionID(ctx context.Context, connectionID string) ([]*Account, error)
}
