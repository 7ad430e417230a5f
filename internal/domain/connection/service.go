package connection

import (
	"context"
	"errors"
)

// Service contains the business logic for connection operations
type Service struct {
	repo Repository
}

// NewService creates a new connection service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// VerifyOwnership loads the connection and checks that callerID owns it.
// callerID must come from a verified session, never from request input.
func (s *Service) VerifyOwnership(ctx context.Context, connectionID string, callerID int64) (*Connection, error) {
	if connectionID == "" {
		return nil, ErrNotFound
	}

	conn, err := s.repo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	if callerID <= 0 || conn.UserID != callerID {
		return nil, ErrForbidden
	}

	return conn, nil
}

// Create registers a linked item for the user. Linking the same item twice
// returns the existing connection.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Connection, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidInput, err)
	}
	if params.Status == "" {
		params.Status = StatusActive
	}
	return s.repo.Create(ctx, params)
}

// ListByUserID retrieves all connections for a specific user
func (s *Service) ListByUserID(ctx context.Context, userID int64) ([]*Connection, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}
	return s.repo.ListByUserID(ctx, userID)
}

// ListUserIDs returns the users that have something to sync.
func (s *Service) ListUserIDs(ctx context.Context) ([]int64, error) {
	return s.repo.ListUserIDs(ctx)
}

// Delete removes a connection after verifying ownership
func (s *Service) Delete(ctx context.Context, connectionID string, callerID int64) error {
	if _, err := s.VerifyOwnership(ctx, connectionID, callerID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, connectionID)
}
