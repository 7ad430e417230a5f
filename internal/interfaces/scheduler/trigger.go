package scheduler

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"poupa/internal/domain/banksync"
	"poupa/internal/domain/connection"
)

// Session holds one user's in-flight state. Only one pass runs per session
// at a time; a tick that finds the session busy is skipped.
type Session struct {
	UserID   int64
	inFlight atomic.Bool
}

// NewSession creates an idle session for a user.
func NewSession(userID int64) *Session {
	return &Session{UserID: userID}
}

// InFlight reports whether a pass is currently running for the session.
func (s *Session) InFlight() bool {
	return s.inFlight.Load()
}

func (s *Session) begin() bool {
	return s.inFlight.CompareAndSwap(false, true)
}

func (s *Session) end() {
	s.inFlight.Store(false)
}

// Sessions hands out one Session per user and keeps it across ticks.
type Sessions struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[int64]*Session)}
}

// Get returns the user's session, creating it on first use.
func (s *Sessions) Get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		sess = NewSession(userID)
		s.sessions[userID] = sess
	}
	return sess
}

// InFlightGuard is a user-level flag shared beyond a single session, e.g.
// across API instances.
type InFlightGuard interface {
	Acquire(ctx context.Context, userID int64) (bool, error)
	Release(ctx context.Context, userID int64) error
}

// MemoryGuard is an InFlightGuard for a single process.
type MemoryGuard struct {
	mu    sync.Mutex
	users map[int64]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{users: make(map[int64]struct{})}
}

func (g *MemoryGuard) Acquire(_ context.Context, userID int64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.users[userID]; busy {
		return false, nil
	}
	g.users[userID] = struct{}{}
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, userID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.users, userID)
	return nil
}

// ConnectionLister lists the connections a user owns.
type ConnectionLister interface {
	ListByUserID(ctx context.Context, userID int64) ([]*connection.Connection, error)
}

// Syncer runs one pass for one connection.
type Syncer interface {
	Sync(ctx context.Context, connectionID, itemID string, callerID int64) (*banksync.Result, error)
}

// Notifier tells a user about newly imported transactions.
type Notifier interface {
	NotifyNewTransactions(ctx context.Context, userID int64, institution string, count int) error
}

// RunSummary reports what one Trigger.Run did.
type RunSummary struct {
	Skipped         bool
	Connections     int
	Failed          int
	NewTransactions int
}

// Trigger runs a sync pass over every connection a user owns.
type Trigger struct {
	connections ConnectionLister
	syncer      Syncer
	notifier    Notifier
	guard       InFlightGuard
}

// NewTrigger creates a trigger. notifier may be nil. A nil guard uses a
// MemoryGuard.
func NewTrigger(connections ConnectionLister, syncer Syncer, notifier Notifier, guard InFlightGuard) *Trigger {
	if guard == nil {
		guard = NewMemoryGuard()
	}
	return &Trigger{
		connections: connections,
		syncer:      syncer,
		notifier:    notifier,
		guard:       guard,
	}
}

// Run syncs the session user's connections one after another. It is skipped
// when the session or guard already has a pass running, or when the user has
// no connections. A failing connection is logged and the rest still run.
func (t *Trigger) Run(ctx context.Context, session *Session) RunSummary {
	userID := session.UserID

	if !session.begin() {
		log.Printf("User %d: sync already in flight, skipping", userID)
		return RunSummary{Skipped: true}
	}
	defer session.end()

	conns, err := t.connections.ListByUserID(ctx, userID)
	if err != nil {
		log.Printf("User %d: failed to list connections: %v", userID, err)
		return RunSummary{Skipped: true}
	}
	if len(conns) == 0 {
		return RunSummary{Skipped: true}
	}

	acquired, err := t.guard.Acquire(ctx, userID)
	if err != nil {
		log.Printf("User %d: in-flight guard unavailable: %v", userID, err)
		return RunSummary{Skipped: true}
	}
	if !acquired {
		log.Printf("User %d: sync already in flight elsewhere, skipping", userID)
		return RunSummary{Skipped: true}
	}
	defer func() {
		// Released on a fresh context so a cancelled pass still clears the flag.
		if err := t.guard.Release(context.WithoutCancel(ctx), userID); err != nil {
			log.Printf("User %d: %v", userID, err)
		}
	}()

	summary := RunSummary{Connections: len(conns)}
	for _, conn := range conns {
		result, err := t.syncer.Sync(ctx, conn.ID, "", userID)
		if err != nil {
			summary.Failed++
			log.Printf("User %d: connection %s sync failed: %v", userID, conn.ID, err)
			continue
		}

		summary.NewTransactions += result.Transactions
		log.Printf("User %d: connection %s synced (%d accounts, %d new transactions)",
			userID, conn.ID, result.Accounts, result.Transactions)

		if result.Transactions > 0 && t.notifier != nil {
			if err := t.notifier.NotifyNewTransactions(ctx, userID, conn.InstitutionName, result.Transactions); err != nil {
				log.Printf("User %d: failed to send sync notification: %v", userID, err)
			}
		}
	}

	return summary
}
