package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"poupa/internal/domain/transaction"
)

// TransactionCreatedChannel is the NOTIFY channel fired for every inserted bank transaction.
const TransactionCreatedChannel = "bank_transaction_created"

// TransactionRepository implements transaction.Repository for PostgreSQL
type TransactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// ExistsByExternalID reports whether the aggregator transaction is stored
func (r *TransactionRepository) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM bank_transactions WHERE external_id = $1)`, externalID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check transaction: %w", err)
	}
	return exists, nil
}

// Insert stores the transaction. A row with the same external id wins and
// is left untouched; in that case inserted is false.
func (r *TransactionRepository) Insert(ctx context.Context, params transaction.InsertParams) (bool, error) {
	if err := params.Validate(); err != nil {
		return false, err
	}

	query := `
		INSERT INTO bank_transactions (id, account_id, external_id, description, amount, date, category, type, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (external_id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		params.ID, params.AccountID, params.ExternalID, nullString(params.Description), params.Amount,
		transaction.DateOf(params.Date), nullString(params.Category), params.Type, rawJSON(params.Raw),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert transaction: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return n == 1, nil
}

// ListByAccountID lists an account's transactions, newest first
func (r *TransactionRepository) ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*transaction.Transaction, error) {
	query := `
		SELECT id, account_id, external_id, description, amount, date, category, type, raw, created_at
		FROM bank_transactions
		WHERE account_id = $1
		ORDER BY date DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction
	for rows.Next() {
		var tx transaction.Transaction
		var description, category sql.NullString
		if err := rows.Scan(
			&tx.ID, &tx.AccountID, &tx.ExternalID, &description, &tx.Amount,
			&tx.Date, &category, &tx.Type, &tx.Raw, &tx.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if description.Valid {
			tx.Description = &description.String
		}
		if category.Valid {
			tx.Category = &category.String
		}
		tx.Date = transaction.DateOf(tx.Date)
		txs = append(txs, &tx)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return txs, nil
}
