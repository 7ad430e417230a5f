package goal

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"poupa/internal/domain/transaction"
)

const maxApplyAttempts = 3

// DefaultIncomeShare is the fraction of each income moved into the active goal.
var DefaultIncomeShare = decimal.RequireFromString("0.10")

// Service contains the business logic for goals
type Service struct {
	repo  Repository
	share decimal.Decimal
}

// NewService creates a goal service that contributes share of each income.
// A zero share falls back to DefaultIncomeShare.
func NewService(repo Repository, share decimal.Decimal) *Service {
	if share.IsZero() {
		share = DefaultIncomeShare
	}
	return &Service{repo: repo, share: share}
}

// Create validates and stores a new goal
func (s *Service) Create(ctx context.Context, params CreateParams) (*Goal, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidInput, err)
	}
	return s.repo.Create(ctx, params)
}

// ListByUserID lists a user's goals
func (s *Service) ListByUserID(ctx context.Context, userID int64) ([]*Goal, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}
	return s.repo.ListByUserID(ctx, userID)
}

// ApplyIncome moves share × |amount| into the user's first incomplete goal,
// never beyond its target. Non-income events and users without an
// incomplete goal are no-ops. It returns the updated goal, or nil when
// nothing changed.
func (s *Service) ApplyIncome(ctx context.Context, event transaction.Created) (*Goal, error) {
	if !event.IsIncome() || event.UserID <= 0 {
		return nil, nil
	}

	contribution := event.Amount.Abs().Mul(s.share)
	if !contribution.IsPositive() {
		return nil, nil
	}

	// A goal can be completed between selection and update; pick again.
	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		goals, err := s.repo.ListByUserID(ctx, event.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load goals: %w", err)
		}
		target := NextTarget(goals)
		if target == nil {
			return nil, nil
		}

		updated, err := s.repo.AddProgress(ctx, target.ID, contribution)
		if errors.Is(err, ErrGoalNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update goal %s: %w", target.ID, err)
		}

		log.Printf("User %d: goal %s progressed by %s to %s (transaction %s)",
			event.UserID, updated.ID, contribution.StringFixed(2), updated.CurrentAmount.StringFixed(2), event.TransactionID)
		return updated, nil
	}
	return nil, fmt.Errorf("user %d: no goal accepted income from transaction %s after %d attempts",
		event.UserID, event.TransactionID, maxApplyAttempts)
}

// OnTransactionCreated implements transaction.Observer.
func (s *Service) OnTransactionCreated(ctx context.Context, event transaction.Created) error {
	_, err := s.ApplyIncome(ctx, event)
	return err
}
