// Package banksync mirrors a linked connection's accounts and transactions
// from the aggregator into local storage.
package banksync

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"poupa/internal/domain/connection"
	"poupa/internal/infrastructure/pluggy"
)

// DefaultLookbackMonths is the trailing transaction window used when none is configured.
const DefaultLookbackMonths = 3

// Aggregator is the subset of the aggregator client a pass needs.
type Aggregator interface {
	Authenticate(ctx context.Context) (string, error)
	ListAccounts(ctx context.Context, apiKey, itemID string) ([]pluggy.Account, error)
	ListTransactions(ctx context.Context, apiKey, accountID string, since *time.Time) ([]pluggy.Transaction, error)
	GetItem(ctx context.Context, apiKey, itemID string) (*pluggy.Item, error)
}

// Result summarizes one sync pass.
type Result struct {
	ConnectionID string `json:"-"`
	Accounts     int    `json:"accounts"`
	Transactions int    `json:"transactions"`
}

// Outcome is the result of one connection within a multi-connection run.
type Outcome struct {
	Connection *connection.Connection
	Result     *Result
	Err        error
}

// Service runs sync passes
type Service struct {
	aggregator     Aggregator
	connections    *connection.Service
	store          *Store
	lookbackMonths int
	now            func() time.Time
	tracer         trace.Tracer
}

// Option configures a Service
type Option func(*Service)

// WithLookbackMonths sets the trailing transaction window. 0 fetches the
// full history.
func WithLookbackMonths(months int) Option {
	return func(s *Service) { s.lookbackMonths = months }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a sync service
func NewService(aggregator Aggregator, connections *connection.Service, store *Store, opts ...Option) *Service {
	s := &Service{
		aggregator:     aggregator,
		connections:    connections,
		store:          store,
		lookbackMonths: DefaultLookbackMonths,
		now:            time.Now,
		tracer:         otel.Tracer("poupa/banksync"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync runs one pass for the connection on behalf of callerID. Ownership is
// checked before anything else; a failing step aborts the rest of the pass
// and keeps whatever was already written.
//
// itemID is optional. When given it must match the connection's stored item.
func (s *Service) Sync(ctx context.Context, connectionID, itemID string, callerID int64) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "banksync.Sync", trace.WithAttributes(
		attribute.String("connection.id", connectionID),
		attribute.Int64("user.id", callerID),
	))
	defer span.End()

	conn, err := s.connections.VerifyOwnership(ctx, connectionID, callerID)
	if err == nil && itemID != "" && itemID != conn.ItemID {
		err = connection.ErrForbidden
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ownership check failed")
		return nil, err
	}

	result, err := s.syncConnection(ctx, conn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Printf("Connection %s: sync failed: %v", conn.ID, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("sync.accounts", result.Accounts),
		attribute.Int("sync.transactions", result.Transactions),
	)
	return result, nil
}

// SyncAllForUser runs a pass for each of the user's connections in order.
// A failing connection is recorded and the remaining ones are still attempted.
func (s *Service) SyncAllForUser(ctx context.Context, userID int64) ([]Outcome, error) {
	conns, err := s.connections.ListByUserID(ctx, userID)
	if err != nil {
		return nil, storageErr("list connections", err)
	}

	outcomes := make([]Outcome, 0, len(conns))
	for _, conn := range conns {
		if ctx.Err() != nil {
			outcomes = append(outcomes, Outcome{Connection: conn, Err: ctx.Err()})
			continue
		}
		res, err := s.Sync(ctx, conn.ID, "", userID)
		outcomes = append(outcomes, Outcome{Connection: conn, Result: res, Err: err})
	}
	return outcomes, nil
}

func (s *Service) syncConnection(ctx context.Context, conn *connection.Connection) (*Result, error) {
	apiKey, err := s.aggregator.Authenticate(ctx)
	if err != nil {
		return nil, classifyAggregatorErr("authenticate", err)
	}

	accounts, err := s.aggregator.ListAccounts(ctx, apiKey, conn.ItemID)
	if err != nil {
		return nil, classifyAggregatorErr("list accounts", err)
	}

	since := s.windowStart()
	result := &Result{ConnectionID: conn.ID}

	for _, remote := range accounts {
		acc, created, err := s.store.UpsertAccount(ctx, conn, remote)
		if err != nil {
			return nil, err
		}
		if created {
			log.Printf("Connection %s: new account %s (%s)", conn.ID, acc.ID, remote.Name)
		}
		result.Accounts++

		txs, err := s.aggregator.ListTransactions(ctx, apiKey, remote.ID, since)
		if err != nil {
			return nil, classifyAggregatorErr(fmt.Sprintf("list transactions for account %s", remote.ID), err)
		}

		for _, tx := range txs {
			inserted, err := s.store.InsertTransactionIfAbsent(ctx, acc, tx)
			if err != nil {
				return nil, err
			}
			if inserted {
				result.Transactions++
			}
		}
	}

	if err := s.store.MarkSynced(ctx, conn.ID, s.itemStatus(ctx, apiKey, conn), s.now()); err != nil {
		return nil, err
	}

	log.Printf("Connection %s: sync complete - accounts: %d, new transactions: %d",
		conn.ID, result.Accounts, result.Transactions)
	return result, nil
}

// windowStart returns the lower bound of the transaction fetch, or nil for
// the full history.
func (s *Service) windowStart() *time.Time {
	if s.lookbackMonths <= 0 {
		return nil
	}
	since := s.now().AddDate(0, -s.lookbackMonths, 0)
	return &since
}

// itemStatus reads the item's current status. Failures leave the stored
// status untouched.
func (s *Service) itemStatus(ctx context.Context, apiKey string, conn *connection.Connection) string {
	item, err := s.aggregator.GetItem(ctx, apiKey, conn.ItemID)
	if err != nil {
		log.Printf("Connection %s: could not refresh item status: %v", conn.ID, err)
		return ""
	}
	return StatusFromItem(item.Status)
}

// StatusFromItem maps an aggregator item status to a connection status.
func StatusFromItem(status string) string {
	switch strings.ToUpper(status) {
	case "":
		return ""
	case "UPDATED":
		return connection.StatusActive
	case "UPDATING":
		return connection.StatusUpdating
	case "LOGIN_ERROR":
		return connection.StatusLoginError
	default:
		return strings.ToLower(status)
	}
}
