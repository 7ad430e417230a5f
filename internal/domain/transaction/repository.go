package transaction

import "context"

// Repository defines the interface for transaction data access
type Repository interface {
	// ExistsByExternalID reports whether a transaction with the aggregator id is stored.
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)

	// Insert stores the transaction unless its external id is already present.
	// It reports whether a row was written.
	Insert(ctx context.Context, params InsertParams) (bool, error)

	// ListByAccountID lists an account's transactions, newest first.
	ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*Transaction, error)
}
