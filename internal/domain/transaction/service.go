package transaction

import (
	"context"
	"errors"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Service contains the business logic for transaction reads
type Service struct {
	repo Repository
}

// NewService creates a new transaction service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListByAccountID lists an account's transactions. Callers verify account
// ownership first. limit is clamped to [1, 500], defaulting to 50.
func (s *Service) ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*Transaction, error) {
	if accountID == "" {
		return nil, errors.New("account ID is required")
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByAccountID(ctx, accountID, limit, offset)
}
