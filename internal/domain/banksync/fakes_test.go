package banksync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"poupa/internal/domain/account"
	"poupa/internal/domain/connection"
	"poupa/internal/domain/transaction"
	"poupa/internal/infrastructure/pluggy"
)

// memStore is an in-memory implementation of the three repositories a pass writes to.
type memStore struct {
	mu           sync.Mutex
	connections  map[string]*connection.Connection
	accounts     map[string]*account.Account // by local id
	transactions map[string]*transaction.Transaction // by external id
	writes       int

	failInsertFor string
}

func newMemStore() *memStore {
	return &memStore{
		connections:  make(map[string]*connection.Connection),
		accounts:     make(map[string]*account.Account),
		transactions: make(map[string]*transaction.Transaction),
	}
}

// connection.Repository

func (m *memStore) Create(ctx context.Context, p connection.CreateParams) (*connection.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &connection.Connection{ID: fmt.Sprintf("conn-%d", len(m.connections)+1), UserID: p.UserID, ItemID: p.ItemID, Status: p.Status}
	m.connections[c.ID] = c
	return c, nil
}

func (m *memStore) GetByID(ctx context.Context, id string) (*connection.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.connections[id]
	if !ok {
		return nil, connection.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) ListByUserID(ctx context.Context, userID int64) ([]*connection.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*connection.Connection
	for _, id := range sortedKeys(m.connections) {
		if c := m.connections[id]; c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) ListUserIDs(ctx context.Context) ([]int64, error) { return nil, nil }

func (m *memStore) MarkSynced(ctx context.Context, id, status string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.connections[id]
	if !ok {
		return connection.ErrNotFound
	}
	m.writes++
	c.LastSyncAt = &at
	if status != "" {
		c.Status = status
	}
	return nil
}

func (m *memStore) Delete(ctx context.Context, id string) error { return nil }

func sortedKeys(m map[string]*connection.Connection) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// account.Repository, reached through accountRepo to avoid method clashes.

type accountRepo struct{ *memStore }

func (r accountRepo) Create(ctx context.Context, p account.CreateParams) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.ExternalID == p.ExternalID {
			return nil, errors.New("duplicate external_id")
		}
	}
	r.writes++
	a := &account.Account{
		ID: p.ID, ConnectionID: p.ConnectionID, ExternalID: p.ExternalID, Name: p.Name,
		Type: p.Type, Subtype: p.Subtype, Balance: p.Balance, Currency: p.Currency, Raw: p.Raw,
	}
	r.accounts[a.ID] = a
	cp := *a
	return &cp, nil
}

func (r accountRepo) Update(ctx context.Context, id string, p account.UpdateParams) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	r.writes++
	a.Name, a.Type, a.Subtype, a.Balance, a.Currency, a.Raw = p.Name, p.Type, p.Subtype, p.Balance, p.Currency, p.Raw
	cp := *a
	return &cp, nil
}

func (r accountRepo) GetByID(ctx context.Context, id string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, account.ErrAccountNotFound
}

func (r accountRepo) GetByExternalID(ctx context.Context, externalID string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.ExternalID == externalID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, account.ErrAccountNotFound
}

func (r accountRepo) ListByConnectionID(ctx context.Context, connectionID string) ([]*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*account.Account
	for _, a := range r.accounts {
		if a.ConnectionID == connectionID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// transaction.Repository

type transactionRepo struct{ *memStore }

func (r transactionRepo) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.transactions[externalID]
	return ok, nil
}

func (r transactionRepo) Insert(ctx context.Context, p transaction.InsertParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ExternalID == r.failInsertFor {
		return false, errors.New("disk full")
	}
	if _, ok := r.transactions[p.ExternalID]; ok {
		return false, nil
	}
	r.writes++
	r.transactions[p.ExternalID] = &transaction.Transaction{
		ID: p.ID, AccountID: p.AccountID, ExternalID: p.ExternalID, Description: p.Description,
		Amount: p.Amount, Date: p.Date, Category: p.Category, Type: p.Type, Raw: p.Raw,
	}
	return true, nil
}

func (r transactionRepo) ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*transaction.Transaction, error) {
	return nil, nil
}

// fakeAggregator serves canned accounts and transactions.
type fakeAggregator struct {
	authErr      error
	accounts     []pluggy.Account
	transactions map[string][]pluggy.Transaction // by external account id
	txErr        map[string]error
	item         *pluggy.Item

	authCalls   int
	txRequested []string
	since       []*time.Time
}

func (f *fakeAggregator) Authenticate(ctx context.Context) (string, error) {
	f.authCalls++
	if f.authErr != nil {
		return "", f.authErr
	}
	return "api-key", nil
}

func (f *fakeAggregator) ListAccounts(ctx context.Context, apiKey, itemID string) ([]pluggy.Account, error) {
	return f.accounts, nil
}

func (f *fakeAggregator) ListTransactions(ctx context.Context, apiKey, accountID string, since *time.Time) ([]pluggy.Transaction, error) {
	f.txRequested = append(f.txRequested, accountID)
	f.since = append(f.since, since)
	if err := f.txErr[accountID]; err != nil {
		return nil, err
	}
	return f.transactions[accountID], nil
}

func (f *fakeAggregator) GetItem(ctx context.Context, apiKey, itemID string) (*pluggy.Item, error) {
	if f.item == nil {
		return nil, &pluggy.APIError{StatusCode: 404, Path: "/items/"}
	}
	return f.item, nil
}
