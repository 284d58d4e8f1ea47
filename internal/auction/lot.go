package auction

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lot is a single vehicle offered within an auction, carrying all bids
// placed on it (spec §3). Once created, AuctionID, VehicleID, and
// StartingBid are immutable; only the Bids list and the versioning fields
// change.
type Lot struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt *time.Time
	Version   uint32

	AuctionID    uuid.UUID
	VehicleID    uuid.UUID
	StartingBid  decimal.Decimal
	ReservePrice *decimal.Decimal

	Bids []Bid

	// localSequence backs PlaceBid's sequence argument only when the
	// caller has no external sequence.Source to consult (spec §4.1). It
	// is touched only while the orchestrator already holds this lot's
	// per-entity lock, so a plain counter (not atomic) is sufficient.
	localSequence int64
}

func (l Lot) EntityID() uuid.UUID   { return l.ID }
func (l Lot) EntityVersion() uint32 { return l.Version }

// NewLot constructs a Lot for auctionID/vehicleID. startingBid must be
// strictly positive; reservePrice, if supplied, is stored as-is (no
// relation to startingBid is enforced — spec is silent on that bound).
func NewLot(auctionID, vehicleID uuid.UUID, startingBid decimal.Decimal, reservePrice *decimal.Decimal) (Lot, error) {
	if auctionID == uuid.Nil {
		return Lot{}, fmt.Errorf("%w: auction id is required", ErrInvalidInput)
	}
	if !startingBid.IsPositive() {
		return Lot{}, fmt.Errorf("%w: starting bid must be strictly positive", ErrInvalidInput)
	}

	return Lot{
		ID:           uuid.New(),
		CreatedAt:    time.Now().UTC(),
		Version:      1,
		AuctionID:    auctionID,
		VehicleID:    vehicleID,
		StartingBid:  startingBid,
		ReservePrice: reservePrice,
		Bids:         nil,
	}, nil
}

// NextLocalSequence returns the next value of the lot's local monotonic
// counter. Used only by callers that have no sequence.Source.
func (l *Lot) NextLocalSequence() int64 {
	l.localSequence++
	return l.localSequence
}

// publish marks the lot as mutated: bumps UpdatedAt and increments Version.
// Every mutating operation below calls this exactly once.
func (l *Lot) publish() {
	now := time.Now().UTC()
	l.UpdatedAt = &now
	l.Version++
}

// PlaceBid appends a bid unconditionally (AP ingestion, spec §4.1): there
// is no amount-vs-current-high check here. amount and sequence must be
// strictly positive preconditions; everything else about validity is
// resolved later by GetValidBids.
func (l *Lot) PlaceBid(bidderID uuid.UUID, amount decimal.Decimal, sequence int64) (Bid, error) {
	if !amount.IsPositive() {
		return Bid{}, fmt.Errorf("%w: bid amount must be strictly positive", ErrInvalidInput)
	}
	if sequence <= 0 {
		return Bid{}, fmt.Errorf("%w: sequence must be strictly positive", ErrInvalidInput)
	}

	bid := Bid{
		ID:       uuid.New(),
		BidderID: bidderID,
		LotID:    l.ID,
		Amount:   amount,
		BidTime:  time.Now().UTC(),
		Sequence: sequence,
	}
	l.Bids = append(l.Bids, bid)
	l.publish()
	return bid, nil
}

// GetValidBids projects the bid list into ascending-Sequence order and
// sweeps it with a running high-water mark seeded at StartingBid: a bid is
// valid iff its amount strictly exceeds every earlier valid bid. This is
// the single source of truth for "valid bids" (spec §4.1) — ingestion
// never rejects a bid; this read path is where validity is decided.
func (l Lot) GetValidBids() []Bid {
	ordered := make([]Bid, len(l.Bids))
	copy(ordered, l.Bids)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Sequence < ordered[j].Sequence })

	valid := make([]Bid, 0, len(ordered))
	currentHigh := l.StartingBid
	for _, b := range ordered {
		if b.Amount.GreaterThan(currentHigh) {
			valid = append(valid, b)
			currentHigh = b.Amount
		}
	}
	return valid
}

// GetHighestBidAmount returns the last valid bid's amount, or StartingBid
// if there are no valid bids yet.
func (l Lot) GetHighestBidAmount() decimal.Decimal {
	valid := l.GetValidBids()
	if len(valid) == 0 {
		return l.StartingBid
	}
	return valid[len(valid)-1].Amount
}

// GetHighestBid returns the last valid bid, if any.
func (l Lot) GetHighestBid() (Bid, bool) {
	valid := l.GetValidBids()
	if len(valid) == 0 {
		return Bid{}, false
	}
	return valid[len(valid)-1], true
}

// GetWinningBidderID returns the highest bid's bidder iff that bid meets
// the reserve price (when one is set). No reserve means any highest bid
// wins.
func (l Lot) GetWinningBidderID() (uuid.UUID, bool) {
	highest, ok := l.GetHighestBid()
	if !ok {
		return uuid.Nil, false
	}
	if l.ReservePrice != nil && highest.Amount.LessThan(*l.ReservePrice) {
		return uuid.Nil, false
	}
	return highest.BidderID, true
}

// WouldBidBeValid reports whether amount would be accepted as the new
// highest bid right now. Advisory only — it is never enforced on append.
func (l Lot) WouldBidBeValid(amount decimal.Decimal) bool {
	return amount.GreaterThan(l.GetHighestBidAmount())
}
