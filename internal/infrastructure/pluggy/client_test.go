package pluggy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, ClientID: "id", ClientSecret: "secret"})
}

func TestAuthenticate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req authRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.ClientID != "id" || req.ClientSecret != "secret" {
			t.Errorf("credentials = %+v", req)
		}
		w.Write([]byte(`{"apiKey":"key-123"}`))
	})

	key, err := c.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if key != "key-123" {
		t.Errorf("Authenticate() = %q, want key-123", key)
	}
}

func TestAuthenticate_Errors(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
		defer srv.Close()

		c := NewClient(Config{BaseURL: srv.URL})
		_, err := c.Authenticate(context.Background())
		if !errors.Is(err, ErrAuthentication) {
			t.Errorf("Authenticate() error = %v, want ErrAuthentication", err)
		}
		if called {
			t.Error("Authenticate() made a request without credentials")
		}
	})

	t.Run("rejected credentials", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"code":401,"message":"invalid client"}`))
		})

		_, err := c.Authenticate(context.Background())
		if !errors.Is(err, ErrAuthentication) {
			t.Fatalf("Authenticate() error = %v, want ErrAuthentication", err)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
			t.Errorf("Authenticate() error = %v, want APIError 401", err)
		}
		if apiErr.Message != "invalid client" {
			t.Errorf("APIError.Message = %q", apiErr.Message)
		}
	})
}

func TestListAccounts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "key" {
			t.Errorf("X-API-KEY = %q", r.Header.Get("X-API-KEY"))
		}
		if r.URL.Query().Get("itemId") != "item-1" {
			t.Errorf("itemId = %q", r.URL.Query().Get("itemId"))
		}
		w.Write([]byte(`{"total":1,"totalPages":1,"page":1,"results":[
			{"id":"A1","itemId":"item-1","type":"BANK","subtype":"CHECKING_ACCOUNT","name":"Conta","balance":200.5,"currencyCode":"BRL","number":"123"}
		]}`))
	})

	accounts, err := c.ListAccounts(context.Background(), "key", "item-1")
	if err != nil {
		t.Fatalf("ListAccounts() error = %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("ListAccounts() returned %d accounts, want 1", len(accounts))
	}
	a := accounts[0]
	if a.ID != "A1" || a.Name != "Conta" || a.CurrencyCode != "BRL" {
		t.Errorf("account = %+v", a)
	}
	if !a.Balance.Equal(decimal.RequireFromString("200.5")) {
		t.Errorf("Balance = %s, want 200.5", a.Balance)
	}

	var raw map[string]any
	if err := json.Unmarshal(a.Raw, &raw); err != nil {
		t.Fatalf("Raw is not valid JSON: %v", err)
	}
	if raw["number"] != "123" {
		t.Errorf("Raw dropped unknown fields: %s", a.Raw)
	}
}

func TestListTransactions_Paginates(t *testing.T) {
	since := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
	var pages []string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("accountId") != "A1" {
			t.Errorf("accountId = %q", q.Get("accountId"))
		}
		if q.Get("from") != "2023-10-01" {
			t.Errorf("from = %q, want 2023-10-01", q.Get("from"))
		}
		if q.Get("pageSize") != "500" {
			t.Errorf("pageSize = %q", q.Get("pageSize"))
		}
		pageNum, _ := strconv.Atoi(q.Get("page"))
		pages = append(pages, q.Get("page"))
		fmt.Fprintf(w, `{"totalPages":2,"page":%d,"results":[
			{"id":"T%d","accountId":"A1","description":"tx","amount":-50,"date":"2024-01-05T00:00:00.000Z","type":"DEBIT"}
		]}`, pageNum, pageNum)
	})

	txs, err := c.ListTransactions(context.Background(), "key", "A1", &since)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("ListTransactions() returned %d transactions, want 2", len(txs))
	}
	if len(pages) != 2 || pages[0] != "1" || pages[1] != "2" {
		t.Errorf("requested pages %v, want [1 2]", pages)
	}
	if txs[0].ID != "T1" || txs[1].ID != "T2" {
		t.Errorf("transaction ids = %s, %s", txs[0].ID, txs[1].ID)
	}
	if !txs[0].Amount.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("Amount = %s, want -50", txs[0].Amount)
	}
	if !txs[0].Date.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", txs[0].Date)
	}
	if len(txs[0].Raw) == 0 {
		t.Error("Raw payload not captured")
	}
}

func TestListTransactions_NoLowerBound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["from"]; ok {
			t.Error("from sent for unbounded history")
		}
		w.Write([]byte(`{"totalPages":0,"page":1,"results":[]}`))
	})

	txs, err := c.ListTransactions(context.Background(), "key", "A1", nil)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("ListTransactions() returned %d transactions, want 0", len(txs))
	}
}

func TestUpstreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"code":500,"message":"boom"}`},
		{"not found", http.StatusNotFound, `not json`},
		{"malformed success body", http.StatusOK, `{"results": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.ListAccounts(context.Background(), "key", "item-1")
			if !errors.Is(err, ErrUpstream) {
				t.Errorf("ListAccounts() error = %v, want ErrUpstream", err)
			}
			if errors.Is(err, ErrAuthentication) {
				t.Errorf("ListAccounts() error classified as authentication: %v", err)
			}
		})
	}
}

func TestUpstreamErrors_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: url, ClientID: "id", ClientSecret: "secret"})
	_, err := c.ListAccounts(context.Background(), "key", "item-1")
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("ListAccounts() error = %v, want ErrUpstream", err)
	}
}

func TestCreateConnectToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/connect_token" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req connectTokenRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.ItemID != "item-1" {
			t.Errorf("itemId = %q", req.ItemID)
		}
		w.Write([]byte(`{"accessToken":"tok"}`))
	})

	tok, err := c.CreateConnectToken(context.Background(), "key", "item-1")
	if err != nil {
		t.Fatalf("CreateConnectToken() error = %v", err)
	}
	if tok != "tok" {
		t.Errorf("CreateConnectToken() = %q, want tok", tok)
	}
}

func TestGetItem(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/items/item-1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"id":"item-1","status":"UPDATED","connector":{"id":1,"name":"Nubank","imageUrl":"https://cdn/nu.png"}}`))
	})

	item, err := c.GetItem(context.Background(), "key", "item-1")
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if item.Status != "UPDATED" || item.Connector.Name != "Nubank" || item.Connector.ImageURL != "https://cdn/nu.png" {
		t.Errorf("item = %+v", item)
	}
}
