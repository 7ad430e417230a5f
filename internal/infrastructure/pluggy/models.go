package pluggy

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Account is a bank account as reported by the aggregator.
type Account struct {
	ID           string          `json:"id"`
	ItemID       string          `json:"itemId"`
	Type         string          `json:"type"`
	Subtype      string          `json:"subtype"`
	Name         string          `json:"name"`
	Balance      decimal.Decimal `json:"balance"`
	CurrencyCode string          `json:"currencyCode"`

	// Raw is the account object exactly as received.
	Raw json.RawMessage `json:"-"`
}

// Transaction is a single account movement as reported by the aggregator.
type Transaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"accountId"`
	Description *string         `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Category    *string         `json:"category"`
	Type        string          `json:"type"`

	// Raw is the transaction object exactly as received.
	Raw json.RawMessage `json:"-"`
}

// Item is a linked institution login.
type Item struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Connector Connector `json:"connector"`
}

// Connector describes the institution behind an item.
type Connector struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

type authRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

type authResponse struct {
	APIKey string `json:"apiKey"`
}

type connectTokenRequest struct {
	ItemID string `json:"itemId,omitempty"`
}

type connectTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// page is the envelope of every list endpoint.
type page struct {
	Results    []json.RawMessage `json:"results"`
	Total      int               `json:"total"`
	TotalPages int               `json:"totalPages"`
	Page       int               `json:"page"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
