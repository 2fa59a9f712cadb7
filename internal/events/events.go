// Package events publishes ledger changes to downstream consumers after they
// have been committed.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	AssetCreated       = "asset.created"
	AssetMoved         = "asset.moved"
	AssetRestocked     = "asset.restocked"
	AssignmentCreated  = "assignment.created"
	AssignmentReturned = "assignment.returned"
	AssignmentDeleted  = "assignment.deleted"
	StockLow           = "stock.low"
)

// Event is one committed ledger change.
type Event struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	AssetID      int64     `json:"asset_id"`
	AssignmentID int64     `json:"assignment_id,omitempty"`
	MovementID   int64     `json:"movement_id,omitempty"`
	Actor        string    `json:"actor"`
	Quantity     int       `json:"quantity,omitempty"`
	StockLevel   *int      `json:"stock_level,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// New returns an event with a fresh ID and timestamp.
func New(eventType string, assetID int64, actor string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		AssetID:   assetID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, ...Event) error { return nil }
func (Nop) Close() error                            { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, events ...Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Close implements Publisher.
func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the types of everything published so far, in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}
