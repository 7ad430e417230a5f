package transaction

import (
	"context"
	"log"
)

// Observer reacts to newly stored transactions. Observers run outside any
// sync pass and must not assume they see every event exactly once.
type Observer interface {
	OnTransactionCreated(ctx context.Context, event Created) error
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, event Created) error

// OnTransactionCreated calls f(ctx, event).
func (f ObserverFunc) OnTransactionCreated(ctx context.Context, event Created) error {
	return f(ctx, event)
}

// Dispatcher fans one event out to every registered observer. A failing
// observer is logged and does not stop the others.
type Dispatcher struct {
	observers []Observer
}

// NewDispatcher creates a dispatcher for the given observers
func NewDispatcher(observers ...Observer) *Dispatcher {
	return &Dispatcher{observers: observers}
}

// Register adds an observer
func (d *Dispatcher) Register(o Observer) {
	d.observers = append(d.observers, o)
}

// Dispatch delivers the event to all observers and returns how many failed.
func (d *Dispatcher) Dispatch(ctx context.Context, event Created) int {
	failed := 0
	for _, o := range d.observers {
		if err := o.OnTransactionCreated(ctx, event); err != nil {
			log.Printf("Transaction %s: observer failed: %v", event.TransactionID, err)
			failed++
		}
	}
	return failed
}
