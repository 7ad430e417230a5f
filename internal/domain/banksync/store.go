package banksync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"poupa/internal/domain/account"
	"poupa/internal/domain/connection"
	"poupa/internal/domain/transaction"
	"poupa/internal/infrastructure/pluggy"
)

// Store writes aggregator data into local storage keyed by external ids.
// Accounts are upserted; transactions are insert-only.
type Store struct {
	connections  connection.Repository
	accounts     account.Repository
	transactions transaction.Repository
	newID        func() string
}

// NewStore creates a store over the given repositories
func NewStore(connections connection.Repository, accounts account.Repository, transactions transaction.Repository) *Store {
	return &Store{
		connections:  connections,
		accounts:     accounts,
		transactions: transactions,
		newID:        uuid.NewString,
	}
}

// UpsertAccount overwrites the stored account with the same external id, or
// inserts a new one under conn. It reports whether a row was created. An
// account stored under another connection is never touched.
func (s *Store) UpsertAccount(ctx context.Context, conn *connection.Connection, a pluggy.Account) (*account.Account, bool, error) {
	existing, err := s.accounts.GetByExternalID(ctx, a.ID)
	switch {
	case err == nil && existing.ConnectionID != conn.ID:
		log.Printf("Connection %s: account %s is stored under connection %s, refusing to overwrite",
			conn.ID, a.ID, existing.ConnectionID)
		return nil, false, fmt.Errorf("%w: account %s", ErrAccountConflict, a.ID)

	case err == nil:
		updated, err := s.accounts.Update(ctx, existing.ID, account.UpdateParams{
			Name:     a.Name,
			Type:     a.Type,
			Subtype:  a.Subtype,
			Balance:  a.Balance,
			Currency: account.NormalizeCurrency(a.CurrencyCode),
			Raw:      datatypes.JSON(a.Raw),
		})
		if err != nil {
			return nil, false, storageErr("update account "+a.ID, err)
		}
		return updated, false, nil

	case errors.Is(err, account.ErrAccountNotFound):
		created, err := s.accounts.Create(ctx, account.CreateParams{
			ID:           s.newID(),
			ConnectionID: conn.ID,
			ExternalID:   a.ID,
			Name:         a.Name,
			Type:         a.Type,
			Subtype:      a.Subtype,
			Balance:      a.Balance,
			Currency:     account.NormalizeCurrency(a.CurrencyCode),
			Raw:          datatypes.JSON(a.Raw),
		})
		if err != nil {
			return nil, false, storageErr("create account "+a.ID, err)
		}
		return created, true, nil

	default:
		return nil, false, storageErr("look up account "+a.ID, err)
	}
}

// InsertTransactionIfAbsent stores t under acc unless a transaction with the
// same external id exists. Stored transactions are never modified.
func (s *Store) InsertTransactionIfAbsent(ctx context.Context, acc *account.Account, t pluggy.Transaction) (bool, error) {
	exists, err := s.transactions.ExistsByExternalID(ctx, t.ID)
	if err != nil {
		return false, storageErr("check transaction "+t.ID, err)
	}
	if exists {
		return false, nil
	}

	// Insert is conflict-safe, so a concurrent pass that wins the race
	// between the check and the write yields inserted=false.
	inserted, err := s.transactions.Insert(ctx, transaction.InsertParams{
		ID:          s.newID(),
		AccountID:   acc.ID,
		ExternalID:  t.ID,
		Description: t.Description,
		Amount:      t.Amount,
		Date:        transaction.DateOf(t.Date),
		Category:    t.Category,
		Type:        t.Type,
		Raw:         datatypes.JSON(t.Raw),
	})
	if err != nil {
		return false, storageErr("insert transaction "+t.ID, err)
	}
	return inserted, nil
}

// MarkSynced stamps the connection with the pass time and, if non-empty, its status.
func (s *Store) MarkSynced(ctx context.Context, connectionID, status string, at time.Time) error {
	if err := s.connections.MarkSynced(ctx, connectionID, status, at); err != nil {
		return storageErr("mark connection synced", err)
	}
	return nil
}
