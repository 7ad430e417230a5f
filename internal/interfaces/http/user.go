package http

import (
	"errors"
	"net/http"

	"poupa/internal/domain/user"
)

type UserHandler struct {
	users *user.Service
}

func NewUserHandler(users *user.Service) *UserHandler {
	return &UserHandler{users: users}
}

// HandleMe handles GET /api/users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if errors.Is(err, user.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		writeDomainError(w, err, "get user")
		return
	}

	writeJSON(w, http.StatusOK, u)
}
