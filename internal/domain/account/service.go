package account

import (
	"context"
	"errors"
)

// Service contains the business logic for account reads
type Service struct {
	repo Repository
}

// NewService creates a new account service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetAccount retrieves an account by ID and verifies user ownership
func (s *Service) GetAccount(ctx context.Context, accountID string, userID int64) (*Account, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	// Business rule: verify ownership
	if account.UserID != userID {
		return nil, ErrForbidden
	}

	return account, nil
}

// ListByConnectionID lists the accounts of a connection. Callers verify
// connection ownership first.
func (s *Service) ListByConnectionID(ctx context.Context, connectionID string) ([]*Account, error) {
	if connectionID == "" {
		return nil, errors.New("connection ID is required")
	}
	return s.repo.ListByConnectionID(ctx, connectionID)
}
