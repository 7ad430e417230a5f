package account

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DefaultCurrency is applied when the aggregator omits a currency code.
const DefaultCurrency = "BRL"

// Domain errors
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrForbidden       = errors.New("access forbidden")
	ErrInvalidInput    = errors.New("invalid input")
)

// Account is a bank account mirrored from the aggregator under one connection.
type Account struct {
	ID           string          `json:"id"`
	ConnectionID string          `json:"connectionId"`
	UserID       int64           `json:"userId"` // owner of the parent connection
	ExternalID   string          `json:"externalId"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Subtype      string          `json:"subtype"`
	Balance      decimal.Decimal `json:"balance"`
	Currency     string          `json:"currency"`
	Raw          datatypes.JSON  `json:"raw,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// CreateParams contains parameters for creating a new account
type CreateParams struct {
	ID           string
	ConnectionID string
	ExternalID   string
	Name         string
	Type         string
	Subtype      string
	Balance      decimal.Decimal
	Currency     string
	Raw          datatypes.JSON
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.ID == "" {
		return errors.New("account ID is required")
	}
	if p.ConnectionID == "" {
		return errors.New("connection ID is required")
	}
	if p.ExternalID == "" {
		return errors.New("external account ID is required")
	}
	return nil
}

// UpdateParams overwrites the aggregator-controlled fields of an existing account.
type UpdateParams struct {
	Name     string
	Type     string
	Subtype  string
	Balance  decimal.Decimal
	Currency string
	Raw      datatypes.JSON
}

// NormalizeCurrency upper-cases a currency code, falling back to DefaultCurrency.
func NormalizeCurrency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return DefaultCurrency
	}
	return c
}
