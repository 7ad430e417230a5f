package banksync

import (
	"errors"
	"fmt"

	"poupa/internal/infrastructure/pluggy"
)

// Failure classes of a sync pass. Ownership failures are reported with
// connection.ErrForbidden and connection.ErrNotFound.
var (
	ErrAuthentication = errors.New("aggregator authentication failed")
	ErrUpstream       = errors.New("aggregator request failed")
	ErrStorage        = errors.New("storage operation failed")

	// ErrAccountConflict means an aggregator account id is already stored
	// under a different connection.
	ErrAccountConflict = errors.New("account belongs to another connection")
)

// classifyAggregatorErr re-tags an aggregator client error into the sync taxonomy.
func classifyAggregatorErr(op string, err error) error {
	if errors.Is(err, pluggy.ErrAuthentication) {
		return fmt.Errorf("%w: %s: %w", ErrAuthentication, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
