// Package connection models linked aggregator items and guards access to them.
package connection

import (
	"errors"
	"time"
)

// Connection statuses reported by the aggregator. The column is free-form;
// these are the values the service itself writes.
const (
	StatusActive     = "active"
	StatusUpdating   = "updating"
	StatusLoginError = "login_error"
)

// Domain errors
var (
	ErrNotFound     = errors.New("connection not found")
	ErrForbidden    = errors.New("access forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

// Connection is one linked aggregator item (one institution login) owned by a user.
type Connection struct {
	ID              string     `json:"id"`
	UserID          int64      `json:"userId"`
	ItemID          string     `json:"itemId"`
	InstitutionName string     `json:"institutionName"`
	InstitutionLogo string     `json:"institutionLogo"`
	Status          string     `json:"status"`
	LastSyncAt      *time.Time `json:"lastSyncAt"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// CreateParams contains parameters for registering a freshly linked item
type CreateParams struct {
	UserID          int64
	ItemID          string
	InstitutionName string
	InstitutionLogo string
	Status          string
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.ItemID == "" {
		return errors.New("item ID is required")
	}
	return nil
}
