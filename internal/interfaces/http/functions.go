package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"poupa/internal/domain/account"
	"poupa/internal/domain/banksync"
	"poupa/internal/domain/connection"
	"poupa/internal/infrastructure/pluggy"
)

// Actions accepted by POST /functions/pluggy
const (
	ActionSync               = "sync"
	ActionCreateConnectToken = "create-connect-token"
	ActionGetAccounts        = "get-accounts"
	ActionGetTransactions    = "get-transactions"
	ActionCreateConnection   = "create-connection"
)

// Aggregator is the aggregator surface the functions endpoint passes through to.
type Aggregator interface {
	Authenticate(ctx context.Context) (string, error)
	ListAccounts(ctx context.Context, apiKey, itemID string) ([]pluggy.Account, error)
	ListTransactions(ctx context.Context, apiKey, accountID string, since *time.Time) ([]pluggy.Transaction, error)
	CreateConnectToken(ctx context.Context, apiKey, itemID string) (string, error)
	GetItem(ctx context.Context, apiKey, itemID string) (*pluggy.Item, error)
}

// Syncer runs one sync pass on behalf of a caller.
type Syncer interface {
	Sync(ctx context.Context, connectionID, itemID string, callerID int64) (*banksync.Result, error)
}

// FunctionsHandler serves the aggregator actions the web and mobile clients call.
type FunctionsHandler struct {
	aggregator  Aggregator
	syncer      Syncer
	connections *connection.Service
	accounts    *account.Service
}

func NewFunctionsHandler(aggregator Aggregator, syncer Syncer, connections *connection.Service, accounts *account.Service) *FunctionsHandler {
	return &FunctionsHandler{
		aggregator:  aggregator,
		syncer:      syncer,
		connections: connections,
		accounts:    accounts,
	}
}

// FunctionRequest is the body of POST /functions/pluggy. Only the fields the
// action needs are read; the caller's identity never comes from the body.
type FunctionRequest struct {
	Action       string `json:"action"`
	ItemID       string `json:"itemId"`
	ConnectionID string `json:"connectionId"`
	AccountID    string `json:"accountId"`
	From         string `json:"from"`
}

type connectTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type passthroughResponse struct {
	Results []json.RawMessage `json:"results"`
}

// HandlePluggy dispatches POST /functions/pluggy by action.
func (h *FunctionsHandler) HandlePluggy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req FunctionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch req.Action {
	case ActionSync:
		h.sync(w, r, userID, req)
	case ActionCreateConnectToken:
		h.createConnectToken(w, r, userID, req)
	case ActionGetAccounts:
		h.getAccounts(w, r, userID, req)
	case ActionGetTransactions:
		h.getTransactions(w, r, userID, req)
	case ActionCreateConnection:
		h.createConnection(w, r, userID, req)
	case "":
		writeError(w, http.StatusBadRequest, "action is required")
	default:
		writeError(w, http.StatusBadRequest, "Unknown action: "+req.Action)
	}
}

func (h *FunctionsHandler) sync(w http.ResponseWriter, r *http.Request, userID int64, req FunctionRequest) {
	if req.ConnectionID == "" {
		writeError(w, http.StatusBadRequest, "connectionId is required")
		return
	}

	result, err := h.syncer.Sync(r.Context(), req.ConnectionID, req.ItemID, userID)
	if err != nil {
		writeDomainError(w, err, "sync connection")
		return
	}

	log.Printf("User %d: connection %s synced (%d accounts, %d new transactions)",
		userID, req.ConnectionID, result.Accounts, result.Transactions)
	writeJSON(w, http.StatusOK, result)
}

// createConnectToken issues a widget token. With a connectionId the token is
// scoped to that connection's item, for re-authenticating an existing link.
func (h *FunctionsHandler) createConnectToken(w http.ResponseWriter, r *http.Request, userID int64, req FunctionRequest) {
	ctx := r.Context()

	var itemID string
	if req.ConnectionID != "" {
		conn, err := h.connections.VerifyOwnership(ctx, req.ConnectionID, userID)
		if err != nil {
			writeDomainError(w, err, "create connect token")
			return
		}
		itemID = conn.ItemID
	}

	apiKey, err := h.aggregator.Authenticate(ctx)
	if err != nil {
		writeDomainError(w, err, "create connect token")
		return
	}

	token, err := h.aggregator.CreateConnectToken(ctx, apiKey, itemID)
	if err != nil {
		writeDomainError(w, err, "create connect token")
		return
	}

	writeJSON(w, http.StatusOK, connectTokenResponse{AccessToken: token})
}

// getAccounts returns the aggregator's current view of a connection's accounts.
func (h *FunctionsHandler) getAccounts(w http.ResponseWriter, r *http.Request, userID int64, req FunctionRequest) {
	ctx := r.Context()

	conn, err := h.connections.VerifyOwnership(ctx, req.ConnectionID, userID)
	if err != nil {
		writeDomainError(w, err, "get accounts")
		return
	}

	apiKey, err := h.aggregator.Authenticate(ctx)
	if err != nil {
		writeDomainError(w, err, "get accounts")
		return
	}

	accounts, err := h.aggregator.ListAccounts(ctx, apiKey, conn.ItemID)
	if err != nil {
		writeDomainError(w, err, "get accounts")
		return
	}

	results := make([]json.RawMessage, 0, len(accounts))
	for _, a := range accounts {
		results = append(results, a.Raw)
	}
	writeJSON(w, http.StatusOK, passthroughResponse{Results: results})
}

// getTransactions returns the aggregator's transactions for a stored account.
// from is an optional YYYY-MM-DD lower bound.
func (h *FunctionsHandler) getTransactions(w http.ResponseWriter, r *http.Request, userID int64, req FunctionRequest) {
	ctx := r.Context()

	if req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "accountId is required")
		return
	}

	var since *time.Time
	if req.From != "" {
		from, err := time.Parse(time.DateOnly, req.From)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from must be a YYYY-MM-DD date")
			return
		}
		since = &from
	}

	acc, err := h.accounts.GetAccount(ctx, req.AccountID, userID)
	if err != nil {
		writeDomainError(w, err, "get transactions")
		return
	}

	apiKey, err := h.aggregator.Authenticate(ctx)
	if err != nil {
		writeDomainError(w, err, "get transactions")
		return
	}

	txs, err := h.aggregator.ListTransactions(ctx, apiKey, acc.ExternalID, since)
	if err != nil {
		writeDomainError(w, err, "get transactions")
		return
	}

	results := make([]json.RawMessage, 0, len(txs))
	for _, tx := range txs {
		results = append(results, tx.Raw)
	}
	writeJSON(w, http.StatusOK, passthroughResponse{Results: results})
}

// createConnection records an item the user just linked through the widget.
// Linking the same item twice returns the existing connection.
func (h *FunctionsHandler) createConnection(w http.ResponseWriter, r *http.Request, userID int64, req FunctionRequest) {
	ctx := r.Context()

	if req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "itemId is required")
		return
	}

	apiKey, err := h.aggregator.Authenticate(ctx)
	if err != nil {
		writeDomainError(w, err, "create connection")
		return
	}

	item, err := h.aggregator.GetItem(ctx, apiKey, req.ItemID)
	if err != nil {
		var apiErr *pluggy.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			writeError(w, http.StatusBadRequest, "Unknown itemId")
			return
		}
		writeDomainError(w, err, "create connection")
		return
	}

	conn, err := h.connections.Create(ctx, connection.CreateParams{
		UserID:          userID,
		ItemID:          req.ItemID,
		InstitutionName: item.Connector.Name,
		InstitutionLogo: item.Connector.ImageURL,
		Status:          banksync.StatusFromItem(item.Status),
	})
	if err != nil {
		writeDomainError(w, err, "create connection")
		return
	}

	log.Printf("User %d: connection %s linked to item %s", userID, conn.ID, conn.ItemID)
	writeJSON(w, http.StatusCreated, conn)
}
