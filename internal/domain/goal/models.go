// Package goal tracks savings goals and moves them forward when income arrives.
package goal

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrGoalNotFound = errors.New("goal not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Goal is a user's savings target.
type Goal struct {
	ID            string          `json:"id"`
	UserID        int64           `json:"userId"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Deadline      *time.Time      `json:"deadline"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Complete reports whether the goal has reached its target.
func (g *Goal) Complete() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// NextTarget picks the goal that receives income: the incomplete goal with
// the earliest deadline, goals without a deadline last, ties by creation time.
// It returns nil when every goal is complete.
func NextTarget(goals []*Goal) *Goal {
	var open []*Goal
	for _, g := range goals {
		if !g.Complete() {
			open = append(open, g)
		}
	}
	if len(open) == 0 {
		return nil
	}

	sort.SliceStable(open, func(i, j int) bool {
		a, b := open[i], open[j]
		switch {
		case a.Deadline == nil && b.Deadline == nil:
		case a.Deadline == nil:
			return false
		case b.Deadline == nil:
			return true
		case !a.Deadline.Equal(*b.Deadline):
			return a.Deadline.Before(*b.Deadline)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return open[0]
}

// CreateParams contains parameters for creating a goal
type CreateParams struct {
	UserID       int64
	Name         string
	TargetAmount decimal.Decimal
	Deadline     *time.Time
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.Name == "" {
		return errors.New("goal name is required")
	}
	if !p.TargetAmount.IsPositive() {
		return errors.New("target amount must be positive")
	}
	return nil
}
