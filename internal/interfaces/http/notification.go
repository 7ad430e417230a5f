package http

import (
	"errors"
	"log"
	"net/http"

	"poupa/internal/domain/notification"
)

type NotificationHandler struct {
	notificationService *notification.Service
}

func NewNotificationHandler(notificationService *notification.Service) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

type RegisterDeviceRequest struct {
	Token      string `json:"token"`
	DeviceType string `json:"device_type"`
}

type UnregisterDeviceRequest struct {
	Token string `json:"token"`
}

// HandleRegisterDevice handles POST /api/notifications/register-device
func (h *NotificationHandler) HandleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req RegisterDeviceRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.notificationService.RegisterDevice(r.Context(), notification.CreateDeviceTokenParams{
		UserID:     userID,
		Token:      req.Token,
		DeviceType: req.DeviceType,
	})
	if err != nil {
		if errors.Is(err, notification.ErrInvalidToken) || errors.Is(err, notification.ErrInvalidDeviceType) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("Error registering device for user %d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to register device")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"token":   token.Token,
	})
}

// HandleUnregisterDevice handles POST /api/notifications/unregister-device
func (h *NotificationHandler) HandleUnregisterDevice(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req UnregisterDeviceRequest
	if err := decodeBody(w, r, &req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	if err := h.notificationService.DeactivateToken(r.Context(), req.Token); err != nil && !errors.Is(err, notification.ErrDeviceTokenNotFound) {
		log.Printf("Error unregistering device for user %d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to unregister device")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
