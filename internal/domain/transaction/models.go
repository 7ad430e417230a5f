package transaction

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Type labels reported by the aggregator.
const (
	TypeCredit = "CREDIT"
	TypeDebit  = "DEBIT"
)

// Domain errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Transaction is a single posted movement on a bank account. Rows are
// insert-only: once stored, the aggregator never overwrites them.
type Transaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"accountId"`
	ExternalID  string          `json:"externalId"`
	Description *string         `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Category    *string         `json:"category,omitempty"`
	Type        string          `json:"type"`
	Raw         datatypes.JSON  `json:"raw,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// InsertParams contains the fields of a newly observed transaction
type InsertParams struct {
	ID          string
	AccountID   string
	ExternalID  string
	Description *string
	Amount      decimal.Decimal
	// Date is a calendar day; see DateOf.
	Date        time.Time
	Category    *string
	Type        string
	Raw         datatypes.JSON
}

// Validate validates the insert parameters
func (p InsertParams) Validate() error {
	if p.ID == "" {
		return errors.New("transaction ID is required")
	}
	if p.AccountID == "" {
		return errors.New("account ID is required")
	}
	if p.ExternalID == "" {
		return errors.New("external transaction ID is required")
	}
	return nil
}

// DateOf returns the calendar day of t in UTC, at midnight UTC. The
// aggregator reports booking days as instants in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Created is published once per newly stored transaction.
type Created struct {
	TransactionID string          `json:"id"`
	AccountID     string          `json:"account_id"`
	UserID        int64           `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	Date          time.Time       `json:"date"`
}

// IsIncome reports whether the event represents money coming in. An explicit
// CREDIT or DEBIT label wins; otherwise the sign of the amount decides.
func (e Created) IsIncome() bool {
	return IsIncome(e.Type, e.Amount)
}

// IsIncome classifies a transaction by its type label and signed amount.
func IsIncome(txType string, amount decimal.Decimal) bool {
	switch strings.ToUpper(txType) {
	case TypeCredit:
		return true
	case TypeDebit:
		return false
	default:
		return amount.IsPositive()
	}
}
