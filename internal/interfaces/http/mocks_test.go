package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"poupa/internal/domain/account"
	"poupa/internal/domain/banksync"
	"poupa/internal/domain/connection"
	"poupa/internal/domain/goal"
	"poupa/internal/domain/transaction"
	"poupa/internal/domain/user"
	"poupa/internal/infrastructure/pluggy"
	"poupa/internal/shared/middleware"
)

func withUser(r *http.Request, userID int64) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.UserIDKey, userID))
}

// MockConnectionRepo implements connection.Repository for testing
type MockConnectionRepo struct {
	CreateFunc       func(ctx context.Context, params connection.CreateParams) (*connection.Connection, error)
	GetByIDFunc      func(ctx context.Context, id string) (*connection.Connection, error)
	ListByUserIDFunc func(ctx context.Context, userID int64) ([]*connection.Connection, error)
	DeleteFunc       func(ctx context.Context, id string) error
}

func (m *MockConnectionRepo) Create(ctx context.Context, params connection.CreateParams) (*connection.Connection, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockConnectionRepo) GetByID(ctx context.Context, id string) (*connection.Connection, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, connection.ErrNotFound
}

func (m *MockConnectionRepo) ListByUserID(ctx context.Context, userID int64) ([]*connection.Connection, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockConnectionRepo) ListUserIDs(ctx context.Context) ([]int64, error) {
	return nil, nil
}

func (m *MockConnectionRepo) MarkSynced(ctx context.Context, id, status string, at time.Time) error {
	return nil
}

func (m *MockConnectionRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// ownedConnections serves a fixed set of connections by id.
func ownedConnections(conns ...*connection.Connection) *MockConnectionRepo {
	return &MockConnectionRepo{
		GetByIDFunc: func(_ context.Context, id string) (*connection.Connection, error) {
			for _, c := range conns {
				if c.ID == id {
					return c, nil
				}
			}
			return nil, connection.ErrNotFound
		},
	}
}

// MockAccountRepo implements account.Repository for testing
type MockAccountRepo struct {
	GetByIDFunc            func(ctx context.Context, id string) (*account.Account, error)
	ListByConnectionIDFunc func(ctx context.Context, connectionID string) ([]*account.Account, error)
}

func (m *MockAccountRepo) Create(ctx context.Context, params account.CreateParams) (*account.Account, error) {
	return nil, nil
}

func (m *MockAccountRepo) Update(ctx context.Context, id string, params account.UpdateParams) (*account.Account, error) {
	return nil, nil
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id string) (*account.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, account.ErrAccountNotFound
}

func (m *MockAccountRepo) GetByExternalID(ctx context.Context, externalID string) (*account.Account, error) {
	return nil, account.ErrAccountNotFound
}

func (m *MockAccountRepo) ListByConnectionID(ctx context.Context, connectionID string) ([]*account.Account, error) {
	if m.ListByConnectionIDFunc != nil {
		return m.ListByConnectionIDFunc(ctx, connectionID)
	}
	return nil, nil
}

// MockTransactionRepo implements transaction.Repository for testing
type MockTransactionRepo struct {
	ListByAccountIDFunc func(ctx context.Context, accountID string, limit, offset int) ([]*transaction.Transaction, error)
}

func (m *MockTransactionRepo) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	return false, nil
}

func (m *MockTransactionRepo) Insert(ctx context.Context, params transaction.InsertParams) (bool, error) {
	return false, nil
}

func (m *MockTransactionRepo) ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*transaction.Transaction, error) {
	if m.ListByAccountIDFunc != nil {
		return m.ListByAccountIDFunc(ctx, accountID, limit, offset)
	}
	return nil, nil
}

// MockGoalRepo implements goal.Repository for testing
type MockGoalRepo struct {
	CreateFunc       func(ctx context.Context, params goal.CreateParams) (*goal.Goal, error)
	ListByUserIDFunc func(ctx context.Context, userID int64) ([]*goal.Goal, error)
}

func (m *MockGoalRepo) Create(ctx context.Context, params goal.CreateParams) (*goal.Goal, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockGoalRepo) ListByUserID(ctx context.Context, userID int64) ([]*goal.Goal, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockGoalRepo) AddProgress(ctx context.Context, id string, amount decimal.Decimal) (*goal.Goal, error) {
	return nil, goal.ErrGoalNotFound
}

// MockUserRepo implements user.Repository for testing
type MockUserRepo struct {
	CreateFunc     func(ctx context.Context, params user.CreateUserParams) (*user.User, error)
	GetByIDFunc    func(ctx context.Context, id int64) (*user.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*user.User, error)
}

func (m *MockUserRepo) Create(ctx context.Context, params user.CreateUserParams) (*user.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, user.ErrUserNotFound
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, user.ErrUserNotFound
}

// MockAggregator implements Aggregator for testing
type MockAggregator struct {
	AuthCalls int

	AuthenticateFunc       func(ctx context.Context) (string, error)
	ListAccountsFunc       func(ctx context.Context, apiKey, itemID string) ([]pluggy.Account, error)
	ListTransactionsFunc   func(ctx context.Context, apiKey, accountID string, since *time.Time) ([]pluggy.Transaction, error)
	CreateConnectTokenFunc func(ctx context.Context, apiKey, itemID string) (string, error)
	GetItemFunc            func(ctx context.Context, apiKey, itemID string) (*pluggy.Item, error)
}

func (m *MockAggregator) Authenticate(ctx context.Context) (string, error) {
	m.AuthCalls++
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx)
	}
	return "api-key", nil
}

func (m *MockAggregator) ListAccounts(ctx context.Context, apiKey, itemID string) ([]pluggy.Account, error) {
	if m.ListAccountsFunc != nil {
		return m.ListAccountsFunc(ctx, apiKey, itemID)
	}
	return nil, nil
}

func (m *MockAggregator) ListTransactions(ctx context.Context, apiKey, accountID string, since *time.Time) ([]pluggy.Transaction, error) {
	if m.ListTransactionsFunc != nil {
		return m.ListTransactionsFunc(ctx, apiKey, accountID, since)
	}
	return nil, nil
}

func (m *MockAggregator) CreateConnectToken(ctx context.Context, apiKey, itemID string) (string, error) {
	if m.CreateConnectTokenFunc != nil {
		return m.CreateConnectTokenFunc(ctx, apiKey, itemID)
	}
	return "", nil
}

func (m *MockAggregator) GetItem(ctx context.Context, apiKey, itemID string) (*pluggy.Item, error) {
	if m.GetItemFunc != nil {
		return m.GetItemFunc(ctx, apiKey, itemID)
	}
	return &pluggy.Item{ID: itemID}, nil
}

// MockSyncer implements Syncer for testing
type MockSyncer struct {
	SyncFunc func(ctx context.Context, connectionID, itemID string, callerID int64) (*banksync.Result, error)
}

func (m *MockSyncer) Sync(ctx context.Context, connectionID, itemID string, callerID int64) (*banksync.Result, error) {
	return m.SyncFunc(ctx, connectionID, itemID, callerID)
}
