package user

import (
	"context"
	"errors"

	"poupa/internal/shared/auth"
)

// Service handles registration and password login
type Service struct {
	repo Repository
}

// NewService creates a new user service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a password user
func (s *Service) Register(ctx context.Context, email, name, password string) (*User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, CreateUserParams{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	})
}

// Authenticate checks the credentials and returns the user. Unknown emails
// and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if u.PasswordHash == "" || auth.VerifyPassword(u.PasswordHash, password) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetByID retrieves a user
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}
