package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"poupa/internal/domain/connection"
)

// ConnectionRepository implements connection.Repository for PostgreSQL
type ConnectionRepository struct {
	db *DB
}

// NewConnectionRepository creates a new PostgreSQL connection repository
func NewConnectionRepository(db *DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

const connectionColumns = `id, user_id, item_id, institution_name, institution_logo, status, last_sync_at, created_at, updated_at`

// Create inserts the connection or returns the existing row for (user_id, item_id),
// refreshing its institution details when new ones are provided.
func (r *ConnectionRepository) Create(ctx context.Context, params connection.CreateParams) (*connection.Connection, error) {
	query := `
		INSERT INTO bank_connections (id, user_id, item_id, institution_name, institution_logo, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, item_id) DO UPDATE
			SET institution_name = COALESCE(NULLIF(EXCLUDED.institution_name, ''), bank_connections.institution_name),
			    institution_logo = COALESCE(NULLIF(EXCLUDED.institution_logo, ''), bank_connections.institution_logo),
			    updated_at = NOW()
		RETURNING ` + connectionColumns

	conn, err := scanConnection(r.db.QueryRowContext(ctx, query,
		uuid.NewString(), params.UserID, params.ItemID, params.InstitutionName, params.InstitutionLogo, params.Status,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}
	return conn, nil
}

// GetByID retrieves a connection by its ID
func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*connection.Connection, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, connection.ErrNotFound
	}

	query := `SELECT ` + connectionColumns + ` FROM bank_connections WHERE id = $1`

	conn, err := scanConnection(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, connection.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return conn, nil
}

// ListByUserID retrieves a user's connections, oldest first
func (r *ConnectionRepository) ListByUserID(ctx context.Context, userID int64) ([]*connection.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM bank_connections WHERE user_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var conns []*connection.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		conns = append(conns, conn)
	}
	return conns, rows.Err()
}

// ListUserIDs returns every user that owns at least one connection
func (r *ConnectionRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM bank_connections ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list connection owners: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkSynced writes the pass timestamp and, when non-empty, the status
func (r *ConnectionRepository) MarkSynced(ctx context.Context, id, status string, at time.Time) error {
	query := `
		UPDATE bank_connections
		SET last_sync_at = $2,
		    status = COALESCE(NULLIF($3, ''), status),
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, at, status)
	if err != nil {
		return fmt.Errorf("failed to mark connection synced: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return connection.ErrNotFound
	}
	return nil
}

// Delete removes a connection; accounts and transactions cascade
func (r *ConnectionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bank_connections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return connection.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConnection(s scanner) (*connection.Connection, error) {
	var c connection.Connection
	var lastSync sql.NullTime

	err := s.Scan(
		&c.ID, &c.UserID, &c.ItemID, &c.InstitutionName, &c.InstitutionLogo,
		&c.Status, &lastSync, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastSync.Valid {
		c.LastSyncAt = &lastSync.Time
	}
	return &c, nil
}
