// Package events defines the event-sink contract the orchestrator emits
// to after a successful commit (spec §6), plus an in-memory Recorder
// adapter. The real external broadcast implementation is deliberately out
// of scope (spec §1); Recorder exists so the core and its tests have
// something to emit to.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type enumerates the domain events the core emits.
type Type string

const (
	AuctionCreated Type = "AuctionCreated"
	AuctionStarted Type = "AuctionStarted"
	AuctionEnded   Type = "AuctionEnded"
	BidPlaced      Type = "BidPlaced"
)

// Event is the wire shape named in spec §6: EventId is unique per emission
// (consumers dedupe on it), AuctionId is the partition key that preserves
// per-auction order downstream.
type Event struct {
	EventID   uuid.UUID
	EventType Type
	AuctionID uuid.UUID
	Timestamp time.Time
	Payload   any
}

// Sink is the external collaborator the orchestrator emits events to.
// Delivery is at-least-once; Emit failures must not invalidate an
// already-committed transaction (spec §4.5, §7) — callers log and move on,
// they never roll back on a Sink error.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// New builds an Event ready to hand to a Sink.
func New(eventType Type, auctionID uuid.UUID, payload any) Event {
	return Event{
		EventID:   uuid.New(),
		EventType: eventType,
		AuctionID: auctionID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// Recorder is a guarded in-memory Sink: it never fails and never blocks,
// making it suitable both for cmd/demo and for the orchestrator's own
// tests that assert on emitted events.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder constructs an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a snapshot of everything emitted so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ByAuction returns the subset of recorded events for auctionID, in
// emission order — this is the ordering guarantee spec §5 describes for
// events partitioned on AuctionId.
func (r *Recorder) ByAuction(auctionID uuid.UUID) []Event {
	all := r.Events()
	out := make([]Event, 0, len(all))
	for _, e := range all {
		if e.AuctionID == auctionID {
			out = append(out, e)
		}
	}
	return out
}
