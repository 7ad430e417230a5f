package http

import (
	"log"
	"net/http"

	"poupa/internal/domain/account"
	"poupa/internal/domain/connection"
)

type ConnectionHandler struct {
	connections *connection.Service
	accounts    *account.Service
}

func NewConnectionHandler(connections *connection.Service, accounts *account.Service) *ConnectionHandler {
	return &ConnectionHandler{connections: connections, accounts: accounts}
}

// HandleListConnections handles GET /api/connections
func (h *ConnectionHandler) HandleListConnections(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	conns, err := h.connections.ListByUserID(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing connections for user %d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to list connections")
		return
	}
	if conns == nil {
		conns = []*connection.Connection{}
	}

	writeJSON(w, http.StatusOK, conns)
}

// HandleDeleteConnection handles DELETE /api/connections/{id}. Accounts and
// transactions under the connection go with it.
func (h *ConnectionHandler) HandleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	connectionID := r.PathValue("id")
	if err := h.connections.Delete(r.Context(), connectionID, userID); err != nil {
		writeDomainError(w, err, "delete connection")
		return
	}

	log.Printf("User %d: connection %s deleted", userID, connectionID)
	w.WriteHeader(http.StatusNoContent)
}

// HandleListAccounts handles GET /api/connections/{id}/accounts
func (h *ConnectionHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	conn, err := h.connections.VerifyOwnership(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeDomainError(w, err, "list accounts")
		return
	}

	accounts, err := h.accounts.ListByConnectionID(r.Context(), conn.ID)
	if err != nil {
		writeDomainError(w, err, "list accounts")
		return
	}
	if accounts == nil {
		accounts = []*account.Account{}
	}

	writeJSON(w, http.StatusOK, accounts)
}
