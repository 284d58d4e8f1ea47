package auction

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the auction lifecycle state (spec §3): Created -> Active -> Ended,
// and no other transition.
type State string

const (
	StateCreated State = "created"
	StateActive  State = "active"
	StateEnded   State = "ended"
)

// Auction owns its Lots by value (spec §9's cyclic-structure note): each
// Lot additionally carries AuctionID rather than a back-reference, and is
// persisted independently through the transaction scope.
type Auction struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt *time.Time
	Version   uint32

	Title       string
	Description string
	State       State
	StartTime   *time.Time
	EndTime     *time.Time
	Lots        []Lot
}

func (a Auction) EntityID() uuid.UUID   { return a.ID }
func (a Auction) EntityVersion() uint32 { return a.Version }

// New constructs an Auction in state Created. Title must be non-empty;
// Description may be empty.
func New(title, description string) (Auction, error) {
	if title == "" {
		return Auction{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	return Auction{
		ID:          uuid.New(),
		CreatedAt:   time.Now().UTC(),
		Version:     1,
		Title:       title,
		Description: description,
		State:       StateCreated,
	}, nil
}

func (a *Auction) publish() {
	now := time.Now().UTC()
	a.UpdatedAt = &now
	a.Version++
}

// CanAcceptBids reports whether the auction is in a state where its lots
// may receive bids: spec §3 defines this as State == Active.
func (a Auction) CanAcceptBids() bool {
	return a.State == StateActive
}

// AddLot appends lot to the auction. Legal only while Created (spec §3/§4.1).
func (a *Auction) AddLot(lot Lot) error {
	if a.State != StateCreated {
		return fmt.Errorf("%w: lots may only be added while the auction is Created, current state %q", ErrStateViolation, a.State)
	}
	a.Lots = append(a.Lots, lot)
	a.publish()
	return nil
}

// Start transitions Created -> Active. Requires at least one lot (spec §4.1).
func (a *Auction) Start() error {
	if a.State != StateCreated {
		return fmt.Errorf("%w: can only start an auction from Created, current state %q", ErrStateViolation, a.State)
	}
	if len(a.Lots) < 1 {
		return fmt.Errorf("%w: an auction needs at least one lot to start", ErrStateViolation)
	}
	now := time.Now().UTC()
	a.StartTime = &now
	a.State = StateActive
	a.publish()
	return nil
}

// Close transitions Active -> Ended (spec §4.1).
func (a *Auction) Close() error {
	if a.State != StateActive {
		return fmt.Errorf("%w: can only close an auction from Active, current state %q", ErrStateViolation, a.State)
	}
	now := time.Now().UTC()
	a.EndTime = &now
	a.State = StateEnded
	a.publish()
	return nil
}
