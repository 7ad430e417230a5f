package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"poupa/internal/domain/account"
	"poupa/internal/domain/banksync"
	"poupa/internal/domain/connection"
	"poupa/internal/domain/goal"
	"poupa/internal/infrastructure/pluggy"
	"poupa/internal/shared/middleware"
)

const maxBodySize = 1 << 20 // 1 MiB

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeBody reads a JSON request body. An empty body decodes to the zero value.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// callerID returns the verified user id placed in the context by the auth
// middleware, writing a 401 when it is missing.
func callerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return userID, ok
}

// writeDomainError maps domain and sync errors onto HTTP statuses. Ownership
// failures are reported as 401 so a caller cannot tell someone else's
// connection from a rejected session.
func writeDomainError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, connection.ErrForbidden), errors.Is(err, account.ErrForbidden):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, connection.ErrNotFound):
		writeError(w, http.StatusNotFound, "Connection not found")
	case errors.Is(err, account.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "Account not found")
	case errors.Is(err, connection.ErrInvalidInput),
		errors.Is(err, account.ErrInvalidInput),
		errors.Is(err, goal.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, banksync.ErrAuthentication), errors.Is(err, pluggy.ErrAuthentication):
		log.Printf("Error during %s: %v", action, err)
		writeError(w, http.StatusInternalServerError, "Aggregator authentication failed")
	case errors.Is(err, banksync.ErrUpstream), errors.Is(err, pluggy.ErrUpstream):
		log.Printf("Error during %s: %v", action, err)
		writeError(w, http.StatusInternalServerError, "Aggregator request failed")
	case errors.Is(err, banksync.ErrAccountConflict):
		log.Printf("Error during %s: %v", action, err)
		writeError(w, http.StatusConflict, "Account is linked to another connection")
	case errors.Is(err, banksync.ErrStorage):
		log.Printf("Error during %s: %v", action, err)
		writeError(w, http.StatusInternalServerError, "Storage failure")
	default:
		log.Printf("Error during %s: %v", action, err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to %s", action))
	}
}
