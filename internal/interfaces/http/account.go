package http

import (
	"net/http"
	"strconv"

	"poupa/internal/domain/account"
	"poupa/internal/domain/transaction"
)

// AccountHandler serves stored bank accounts and their imported transactions.
type AccountHandler struct {
	accounts     *account.Service
	transactions *transaction.Service
}

func NewAccountHandler(accounts *account.Service, transactions *transaction.Service) *AccountHandler {
	return &AccountHandler{accounts: accounts, transactions: transactions}
}

// HandleGetAccount handles GET /api/accounts/{id}
func (h *AccountHandler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	acc, err := h.accounts.GetAccount(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeDomainError(w, err, "get account")
		return
	}

	writeJSON(w, http.StatusOK, acc)
}

// HandleListTransactions handles GET /api/accounts/{id}/transactions?limit=&offset=
func (h *AccountHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	acc, err := h.accounts.GetAccount(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeDomainError(w, err, "list transactions")
		return
	}

	// Invalid values fall back to the service defaults.
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	txs, err := h.transactions.ListByAccountID(r.Context(), acc.ID, limit, offset)
	if err != nil {
		writeDomainError(w, err, "list transactions")
		return
	}
	if txs == nil {
		txs = []*transaction.Transaction{}
	}

	writeJSON(w, http.StatusOK, txs)
}
