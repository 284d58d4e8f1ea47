// Package txscope implements the unit-of-work transaction boundary (C4): a
// scope collects pending repository writes and applies them in order on
// Commit (not atomically; see Commit), or discards them on Rollback or
// Discard.
package txscope

import (
	"github.com/redgavel/auction/internal/auction"
	"github.com/redgavel/auction/internal/store"
	"github.com/redgavel/auction/internal/vehicle"
)

type pendingChange struct {
	apply func() error
}

// Scope is a client-local transaction object over up to three stores.
// Not safe for concurrent use — a scope is owned by a single caller
// (spec §4.4).
type Scope struct {
	pending []pendingChange
	done    bool

	Auctions *AuctionRepo
	Lots     *LotRepo
	Vehicles *VehicleRepo
}

// New opens a fresh scope over the three backing stores.
func New(
	auctions *store.Store[auction.Auction],
	lots *store.Store[auction.Lot],
	vehicles *store.Store[vehicle.Vehicle],
) *Scope {
	s := &Scope{}
	s.Auctions = &AuctionRepo{scope: s, backing: auctions}
	s.Lots = &LotRepo{scope: s, backing: lots}
	s.Vehicles = &VehicleRepo{scope: s, backing: vehicles}
	return s
}

func (s *Scope) defer_(apply func() error) {
	s.pending = append(s.pending, pendingChange{apply: apply})
}

// HasPendingChanges reports whether any Add/Update has been recorded and
// not yet committed or discarded.
func (s *Scope) HasPendingChanges() bool {
	return len(s.pending) > 0
}

// Commit applies pending changes in recorded order, stopping at (and
// propagating) the first error. It returns the count actually applied.
//
// Atomicity caveat (spec §4.4): because changes are replayed one at a time
// against independent stores, a later failure can leave earlier changes
// committed. Callers must discard the scope and retry the whole logical
// operation — this is exactly what internal/orchestrator does on
// VersionConflict.
func (s *Scope) Commit() (int, error) {
	applied := 0
	for _, change := range s.pending {
		if err := change.apply(); err != nil {
			s.pending = nil
			s.done = true
			return applied, err
		}
		applied++
	}
	s.pending = nil
	s.done = true
	return applied, nil
}

// Rollback discards pending changes without applying any of them.
func (s *Scope) Rollback() {
	s.pending = nil
	s.done = true
}

// Discard rolls back the scope if it wasn't already committed or rolled
// back. Callers should `defer scope.Discard()` immediately after New, the
// same way the teacher defers tx.Rollback(ctx) right after BeginTx —
// committing first makes this a no-op.
func (s *Scope) Discard() {
	if !s.done {
		s.Rollback()
	}
}
