package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"poupa/internal/domain/user"
	"poupa/internal/shared/auth"
)

type AuthHandler struct {
	users    *user.Service
	jwt      *auth.JWT
	tokenTTL time.Duration
}

func NewAuthHandler(users *user.Service, jwt *auth.JWT, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt, tokenTTL: tokenTTL}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// HandleRegister creates a new user with password authentication
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req RegisterRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Email, password, and name are required")
		return
	}

	u, err := h.users.Register(r.Context(), req.Email, req.Name, req.Password)
	switch {
	case errors.Is(err, user.ErrEmailTaken):
		writeError(w, http.StatusConflict, "User with this email already exists")
		return
	case errors.Is(err, user.ErrInvalidEmail),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrPasswordTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Printf("Error registering user: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	h.issueToken(w, r, u, http.StatusCreated)
}

// HandleLogin authenticates a user with email and password
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, user.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		log.Printf("Error during login: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	h.issueToken(w, r, u, http.StatusOK)
}

// HandleLogout clears the auth cookie
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) issueToken(w http.ResponseWriter, r *http.Request, u *user.User, status int) {
	token, err := h.jwt.Generate(u.ID, u.Email)
	if err != nil {
		log.Printf("Error generating JWT for user %d: %v", u.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.tokenTTL.Seconds()),
	})
	writeJSON(w, status, AuthResponse{Token: token, User: u})
}

// isSecure reports whether the request reached us over HTTPS, directly or
// through a proxy.
func isSecure(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
