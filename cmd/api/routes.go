package main

import (
	"net/http"

	"poupa/internal/shared/config"
	"poupa/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", deps.HealthHandler.HandleHealth)

	// Public auth routes
	mux.HandleFunc("/api/auth/register", deps.AuthHandler.HandleRegister)
	mux.HandleFunc("/api/auth/login", deps.AuthHandler.HandleLogin)
	mux.HandleFunc("/api/auth/logout", deps.AuthHandler.HandleLogout)

	// Protected routes
	authMiddleware := middleware.Auth(deps.JWT)
	protect := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authMiddleware(h))
	}

	protect("/functions/pluggy", deps.FunctionsHandler.HandlePluggy)

	protect("GET /api/users/me", deps.UserHandler.HandleMe)
	protect("GET /api/connections", deps.ConnectionHandler.HandleListConnections)
	protect("DELETE /api/connections/{id}", deps.ConnectionHandler.HandleDeleteConnection)
	protect("GET /api/connections/{id}/accounts", deps.ConnectionHandler.HandleListAccounts)
	protect("GET /api/accounts/{id}", deps.AccountHandler.HandleGetAccount)
	protect("GET /api/accounts/{id}/transactions", deps.AccountHandler.HandleListTransactions)
	protect("/api/goals", deps.GoalHandler.HandleGoals)
	protect("POST /api/notifications/register-device", deps.NotificationHandler.HandleRegisterDevice)
	protect("POST /api/notifications/unregister-device", deps.NotificationHandler.HandleUnregisterDevice)

	// Apply global middleware
	return middleware.Tracing(middleware.Logging(middleware.SecurityHeaders(middleware.CORS(cfg.Server.AllowedHosts)(mux))))
}
