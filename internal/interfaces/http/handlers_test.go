package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"poupa/internal/domain/account"
	"poupa/internal/domain/connection"
	"poupa/internal/domain/goal"
	"poupa/internal/domain/transaction"
	"poupa/internal/domain/user"
	"poupa/internal/shared/auth"
)

func TestConnectionHandler_List(t *testing.T) {
	repo := &MockConnectionRepo{ListByUserIDFunc: func(_ context.Context, userID int64) ([]*connection.Connection, error) {
		if userID == 2 {
			return nil, nil
		}
		return []*connection.Connection{{ID: "c1", UserID: userID}}, nil
	}}
	h := NewConnectionHandler(connection.NewService(repo), account.NewService(&MockAccountRepo{}))

	tests := []struct {
		name      string
		userID    int64
		wantCount int
	}{
		{"with connections", 1, 1},
		{"empty list is an array", 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.HandleListConnections(rr, withUser(httptest.NewRequest(http.MethodGet, "/api/connections", nil), tt.userID))

			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rr.Code)
			}
			var got []connection.Connection
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got == nil || len(got) != tt.wantCount {
				t.Errorf("got %v, want %d connections", got, tt.wantCount)
			}
		})
	}
}

func TestConnectionHandler_Delete(t *testing.T) {
	tests := []struct {
		name           string
		userID         int64
		connectionID   string
		expectedStatus int
		wantDelete     bool
	}{
		{"owner", 1, "c1", http.StatusNoContent, true},
		{"not owner", 2, "c1", http.StatusUnauthorized, false},
		{"missing", 1, "c9", http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deleted := false
			repo := ownedConnections(&connection.Connection{ID: "c1", UserID: 1})
			repo.DeleteFunc = func(context.Context, string) error {
				deleted = true
				return nil
			}
			h := NewConnectionHandler(connection.NewService(repo), account.NewService(&MockAccountRepo{}))

			req := httptest.NewRequest(http.MethodDelete, "/api/connections/"+tt.connectionID, nil)
			req.SetPathValue("id", tt.connectionID)
			rr := httptest.NewRecorder()
			h.HandleDeleteConnection(rr, withUser(req, tt.userID))

			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
			if deleted != tt.wantDelete {
				t.Errorf("deleted = %v, want %v", deleted, tt.wantDelete)
			}
		})
	}
}

func TestConnectionHandler_ListAccounts(t *testing.T) {
	connRepo := ownedConnections(&connection.Connection{ID: "c1", UserID: 1})
	accRepo := &MockAccountRepo{ListByConnectionIDFunc: func(_ context.Context, connectionID string) ([]*account.Account, error) {
		return []*account.Account{{ID: "a1", ConnectionID: connectionID, Balance: decimal.RequireFromString("85.50")}}, nil
	}}
	h := NewConnectionHandler(connection.NewService(connRepo), account.NewService(accRepo))

	req := httptest.NewRequest(http.MethodGet, "/api/connections/c1/accounts", nil)
	req.SetPathValue("id", "c1")
	rr := httptest.NewRecorder()
	h.HandleListAccounts(rr, withUser(req, 1))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var got []account.Account
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || !got[0].Balance.Equal(decimal.RequireFromString("85.5")) {
		t.Errorf("got %+v", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/connections/c1/accounts", nil)
	req.SetPathValue("id", "c1")
	rr = httptest.NewRecorder()
	h.HandleListAccounts(rr, withUser(req, 2))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("non-owner status = %d, want 401", rr.Code)
	}
}

func TestAccountHandler_ListTransactions(t *testing.T) {
	accRepo := &MockAccountRepo{GetByIDFunc: func(_ context.Context, id string) (*account.Account, error) {
		if id != "a1" {
			return nil, account.ErrAccountNotFound
		}
		return &account.Account{ID: "a1", UserID: 1}, nil
	}}

	var gotLimit, gotOffset int
	txRepo := &MockTransactionRepo{ListByAccountIDFunc: func(_ context.Context, accountID string, limit, offset int) ([]*transaction.Transaction, error) {
		gotLimit, gotOffset = limit, offset
		return []*transaction.Transaction{{ID: "t1", AccountID: accountID}}, nil
	}}
	h := NewAccountHandler(account.NewService(accRepo), transaction.NewService(txRepo))

	tests := []struct {
		name           string
		userID         int64
		accountID      string
		query          string
		expectedStatus int
		wantLimit      int
		wantOffset     int
	}{
		{"defaults", 1, "a1", "", http.StatusOK, 50, 0},
		{"paged", 1, "a1", "?limit=10&offset=20", http.StatusOK, 10, 20},
		{"garbage falls back", 1, "a1", "?limit=abc&offset=-3", http.StatusOK, 50, 0},
		{"not owner", 2, "a1", "", http.StatusUnauthorized, 0, 0},
		{"unknown", 1, "a2", "", http.StatusNotFound, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotLimit, gotOffset = 0, 0
			req := httptest.NewRequest(http.MethodGet, "/api/accounts/"+tt.accountID+"/transactions"+tt.query, nil)
			req.SetPathValue("id", tt.accountID)
			rr := httptest.NewRecorder()
			h.HandleListTransactions(rr, withUser(req, tt.userID))

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
			if gotLimit != tt.wantLimit || gotOffset != tt.wantOffset {
				t.Errorf("limit/offset = %d/%d, want %d/%d", gotLimit, gotOffset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestGoalHandler(t *testing.T) {
	var created goal.CreateParams
	repo := &MockGoalRepo{
		CreateFunc: func(_ context.Context, params goal.CreateParams) (*goal.Goal, error) {
			created = params
			return &goal.Goal{ID: "g1", UserID: params.UserID, Name: params.Name, TargetAmount: params.TargetAmount, Deadline: params.Deadline}, nil
		},
		ListByUserIDFunc: func(_ context.Context, userID int64) ([]*goal.Goal, error) {
			return nil, nil
		},
	}
	h := NewGoalHandler(goal.NewService(repo, decimal.Zero))

	tests := []struct {
		name           string
		method         string
		body           string
		expectedStatus int
	}{
		{"list", http.MethodGet, "", http.StatusOK},
		{"create", http.MethodPost, `{"name":"Trip","targetAmount":"1000","deadline":"2026-12-31"}`, http.StatusCreated},
		{"create without deadline", http.MethodPost, `{"name":"Car","targetAmount":5000}`, http.StatusCreated},
		{"bad deadline", http.MethodPost, `{"name":"Trip","targetAmount":"1000","deadline":"soon"}`, http.StatusBadRequest},
		{"zero target", http.MethodPost, `{"name":"Trip","targetAmount":"0"}`, http.StatusBadRequest},
		{"wrong method", http.MethodDelete, "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/goals", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.HandleGoals(rr, withUser(req, 4))

			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d; body %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}
		})
	}

	if created.UserID != 4 || created.Deadline != nil {
		t.Errorf("last create = %+v, want user 4 without deadline", created)
	}
}

func TestAuthHandler_RegisterAndLogin(t *testing.T) {
	stored := map[string]*user.User{}
	repo := &MockUserRepo{
		CreateFunc: func(_ context.Context, params user.CreateUserParams) (*user.User, error) {
			if _, ok := stored[params.Email]; ok {
				return nil, user.ErrEmailTaken
			}
			u := &user.User{ID: int64(len(stored) + 1), Email: params.Email, Name: params.Name, PasswordHash: params.PasswordHash}
			stored[params.Email] = u
			return u, nil
		},
		GetByEmailFunc: func(_ context.Context, email string) (*user.User, error) {
			if u, ok := stored[email]; ok {
				return u, nil
			}
			return nil, user.ErrUserNotFound
		},
	}
	jwt := auth.NewJWT("test-secret")
	h := NewAuthHandler(user.NewService(repo), jwt, time.Hour)

	post := func(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		handler(rr, httptest.NewRequest(http.MethodPost, "/api/auth", strings.NewReader(body)))
		return rr
	}

	rr := post(h.HandleRegister, `{"email":"ana@example.com","password":"correct-horse","name":"Ana"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want 201; body %s", rr.Code, rr.Body.String())
	}
	var resp AuthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := jwt.Validate(resp.Token)
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if claims.UserID != 1 {
		t.Errorf("token user = %d, want 1", claims.UserID)
	}
	if strings.Contains(rr.Body.String(), "correct-horse") || strings.Contains(rr.Body.String(), "$2a$") {
		t.Error("response leaks password material")
	}

	tests := []struct {
		name           string
		handler        http.HandlerFunc
		body           string
		expectedStatus int
	}{
		{"duplicate email", h.HandleRegister, `{"email":"ana@example.com","password":"another-pass","name":"Ana"}`, http.StatusConflict},
		{"short password", h.HandleRegister, `{"email":"bia@example.com","password":"short","name":"Bia"}`, http.StatusBadRequest},
		{"missing fields", h.HandleRegister, `{"email":"bia@example.com"}`, http.StatusBadRequest},
		{"login ok", h.HandleLogin, `{"email":"ana@example.com","password":"correct-horse"}`, http.StatusOK},
		{"login wrong password", h.HandleLogin, `{"email":"ana@example.com","password":"wrong-horse"}`, http.StatusUnauthorized},
		{"login unknown email", h.HandleLogin, `{"email":"zoe@example.com","password":"correct-horse"}`, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := post(tt.handler, tt.body); rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d; body %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}
		})
	}
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		db             Pinger
		expectedStatus int
	}{
		{"no database", nil, http.StatusOK},
		{"database up", fakePinger{}, http.StatusOK},
		{"database down", fakePinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			NewHealthHandler(tt.db).HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
		})
	}
}
