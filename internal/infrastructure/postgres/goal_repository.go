package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"poupa/internal/domain/goal"
)

// GoalRepository implements goal.Repository for PostgreSQL
type GoalRepository struct {
	db *DB
}

func NewGoalRepository(db *DB) *GoalRepository {
	return &GoalRepository{db: db}
}

const goalColumns = `id, user_id, name, target_amount, current_amount, deadline, created_at, updated_at`

func (r *GoalRepository) Create(ctx context.Context, params goal.CreateParams) (*goal.Goal, error) {
	query := `
		INSERT INTO goals (id, user_id, name, target_amount, deadline)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + goalColumns

	g, err := scanGoal(r.db.QueryRowContext(ctx, query,
		uuid.NewString(), params.UserID, params.Name, params.TargetAmount, nullTime(params.Deadline),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	return g, nil
}

func (r *GoalRepository) ListByUserID(ctx context.Context, userID int64) ([]*goal.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = $1 ORDER BY deadline ASC NULLS LAST, created_at ASC, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var goals []*goal.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// addProgressQuery increments in place so concurrent contributions add up
// instead of overwriting each other.
const addProgressQuery = `
	UPDATE goals
	SET current_amount = LEAST(current_amount + $2, target_amount), updated_at = NOW()
	WHERE id = $1 AND current_amount < target_amount
	RETURNING ` + goalColumns

// AddProgress adds amount to a goal's progress, never above its target
func (r *GoalRepository) AddProgress(ctx context.Context, id string, amount decimal.Decimal) (*goal.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx, addProgressQuery, id, amount))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goal.ErrGoalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	return g, nil
}

func scanGoal(s scanner) (*goal.Goal, error) {
	var g goal.Goal
	var deadline sql.NullTime

	if err := s.Scan(
		&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount,
		&deadline, &g.CreatedAt, &g.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if deadline.Valid {
		g.Deadline = &deadline.Time
	}
	return &g, nil
}
