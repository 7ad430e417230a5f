package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"

	"poupa/internal/domain/transaction"
	"poupa/internal/infrastructure/postgres"
)

const (
	reconnectInterval = 5 * time.Second
	pingInterval      = 90 * time.Second
	handlerTimeout    = 30 * time.Second
	eventBuffer       = 256
)

// Dispatcher delivers a decoded event to its observers.
type Dispatcher interface {
	Dispatch(ctx context.Context, event transaction.Created) int
}

// TransactionListener turns bank_transactions INSERT notifications into
// transaction.Created events. It runs outside any sync pass. Events are
// handed to observers one at a time, in notification order.
type TransactionListener struct {
	connStr    string
	dispatcher Dispatcher
	events     chan transaction.Created
	shutdownCh chan struct{}
	done       chan struct{}
	drained    chan struct{}
}

// NewTransactionListener creates a listener on the transaction-created channel
func NewTransactionListener(connStr string, dispatcher Dispatcher) *TransactionListener {
	return &TransactionListener{
		connStr:    connStr,
		dispatcher: dispatcher,
		events:     make(chan transaction.Created, eventBuffer),
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
		drained:    make(chan struct{}),
	}
}

// Start begins listening for notifications in a background goroutine
func (l *TransactionListener) Start(ctx context.Context) {
	go l.consume()
	go l.listen(ctx)
	log.Println("Transaction notification listener started")
}

// Stop gracefully shuts down the listener
func (l *TransactionListener) Stop() {
	close(l.shutdownCh)
	<-l.done
	// listen has returned, so nothing sends on events any more
	close(l.events)
	<-l.drained
	log.Println("Transaction notification listener stopped")
}

func (l *TransactionListener) listen(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		default:
			l.connectAndListen(ctx)
		}

		// Wait before reconnecting
		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(reconnectInterval):
			log.Println("Reconnecting to PostgreSQL for transaction notifications...")
		}
	}
}

func (l *TransactionListener) connectAndListen(ctx context.Context) {
	listener := pq.NewListener(l.connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			log.Println("Connected to PostgreSQL notification channel")
		case pq.ListenerEventDisconnected:
			log.Printf("Disconnected from PostgreSQL notification channel: %v", err)
		case pq.ListenerEventReconnected:
			log.Println("Reconnected to PostgreSQL notification channel")
		case pq.ListenerEventConnectionAttemptFailed:
			log.Printf("Connection attempt failed: %v", err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(postgres.TransactionCreatedChannel); err != nil {
		log.Printf("Failed to listen on channel %s: %v", postgres.TransactionCreatedChannel, err)
		return
	}

	log.Printf("Listening on channel: %s", postgres.TransactionCreatedChannel)

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		case n := <-listener.Notify:
			if n == nil {
				// Connection lost; pq re-establishes it and we may have missed events
				log.Println("Notification connection reset, events may have been missed")
				continue
			}
			l.handleNotification(n)
		case <-ping.C:
			go func() {
				if err := listener.Ping(); err != nil {
					log.Printf("Listener ping failed: %v", err)
				}
			}()
		}
	}
}

func (l *TransactionListener) handleNotification(n *pq.Notification) {
	event, err := decodeNotification(n.Extra)
	if err != nil {
		log.Printf("Failed to parse notification payload: %v", err)
		return
	}

	l.events <- event
}

// consume delivers queued events until the queue is closed. Observers read
// and update shared rows, so a single consumer keeps them from interleaving.
func (l *TransactionListener) consume() {
	defer close(l.drained)

	for event := range l.events {
		// Observers outlive the listener's context during shutdown.
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		l.dispatcher.Dispatch(ctx, event)
		cancel()
	}
}

// notificationPayload mirrors the trigger's JSON; date is a YYYY-MM-DD day.
type notificationPayload struct {
	transaction.Created
	Date string `json:"date"`
}

func decodeNotification(payload string) (transaction.Created, error) {
	var p notificationPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return transaction.Created{}, fmt.Errorf("decode %s payload: %w", postgres.TransactionCreatedChannel, err)
	}
	event := p.Created
	if event.TransactionID == "" {
		return event, errors.New("notification payload has no transaction id")
	}
	if p.Date != "" {
		day, err := time.Parse(time.DateOnly, p.Date)
		if err != nil {
			return event, fmt.Errorf("transaction %s: invalid date %q: %w", event.TransactionID, p.Date, err)
		}
		event.Date = day
	}
	return event, nil
}
