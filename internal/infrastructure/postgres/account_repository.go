package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"poupa/internal/domain/account"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// accountSelect joins the owning connection so every read carries the owner id.
const accountSelect = `
	SELECT a.id, a.connection_id, c.user_id, a.external_id, a.name, a.type, a.subtype,
	       a.balance, a.currency, a.raw, a.created_at, a.updated_at
	FROM bank_accounts a
	JOIN bank_connections c ON c.id = a.connection_id
`

// Create creates a new account
func (r *AccountRepository) Create(ctx context.Context, params account.CreateParams) (*account.Account, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Join(account.ErrInvalidInput, err)
	}

	query := `
		WITH a AS (
			INSERT INTO bank_accounts (id, connection_id, external_id, name, type, subtype, balance, currency, raw)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING *
		)
		SELECT a.id, a.connection_id, c.user_id, a.external_id, a.name, a.type, a.subtype,
		       a.balance, a.currency, a.raw, a.created_at, a.updated_at
		FROM a
		JOIN bank_connections c ON c.id = a.connection_id
	`

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query,
		params.ID, params.ConnectionID, params.ExternalID, params.Name, params.Type, params.Subtype,
		params.Balance, params.Currency, rawJSON(params.Raw),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return acc, nil
}

// Update overwrites the aggregator-controlled fields
func (r *AccountRepository) Update(ctx context.Context, id string, params account.UpdateParams) (*account.Account, error) {
	query := `
		WITH a AS (
			UPDATE bank_accounts
			SET name = $2, type = $3, subtype = $4, balance = $5, currency = $6, raw = $7, updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)
		SELECT a.id, a.connection_id, c.user_id, a.external_id, a.name, a.type, a.subtype,
		       a.balance, a.currency, a.raw, a.created_at, a.updated_at
		FROM a
		JOIN bank_connections c ON c.id = a.connection_id
	`

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query,
		id, params.Name, params.Type, params.Subtype, params.Balance, params.Currency, rawJSON(params.Raw),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	return acc, nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, account.ErrAccountNotFound
	}

	acc, err := scanAccount(r.db.QueryRowContext(ctx, accountSelect+` WHERE a.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

// GetByExternalID retrieves an account by the aggregator's id
func (r *AccountRepository) GetByExternalID(ctx context.Context, externalID string) (*account.Account, error) {
	acc, err := scanAccount(r.db.QueryRowContext(ctx, accountSelect+` WHERE a.external_id = $1`, externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by external id: %w", err)
	}
	return acc, nil
}

// ListByConnectionID retrieves all accounts under a connection
func (r *AccountRepository) ListByConnectionID(ctx context.Context, connectionID string) ([]*account.Account, error) {
	rows, err := r.db.QueryContext(ctx, accountSelect+` WHERE a.connection_id = $1 ORDER BY a.created_at, a.id`, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func scanAccount(s scanner) (*account.Account, error) {
	var a account.Account
	err := s.Scan(
		&a.ID, &a.ConnectionID, &a.UserID, &a.ExternalID, &a.Name, &a.Type, &a.Subtype,
		&a.Balance, &a.Currency, &a.Raw, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
