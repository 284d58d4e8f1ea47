package txscope

import (
	"github.com/google/uuid"

	"github.com/redgavel/auction/internal/auction"
	"github.com/redgavel/auction/internal/store"
	"github.com/redgavel/auction/internal/vehicle"
)

// AuctionRepo is the scope's repository view over the Auction store. Add
// and Update defer writes to Commit; Get and GetAll pass through
// immediately (read-committed, spec §4.4).
type AuctionRepo struct {
	scope   *Scope
	backing *store.Store[auction.Auction]
}

func (r *AuctionRepo) Add(a auction.Auction) {
	r.scope.defer_(func() error { return r.backing.Add(a) })
}

func (r *AuctionRepo) Update(a auction.Auction) {
	r.scope.defer_(func() error { return r.backing.Update(a) })
}

func (r *AuctionRepo) Get(id uuid.UUID) (auction.Auction, error) {
	return r.backing.Get(id)
}

func (r *AuctionRepo) GetAll() []auction.Auction {
	return r.backing.GetAll()
}

// LotRepo is the scope's repository view over the Lot store.
type LotRepo struct {
	scope   *Scope
	backing *store.Store[auction.Lot]
}

func (r *LotRepo) Add(l auction.Lot) {
	r.scope.defer_(func() error { return r.backing.Add(l) })
}

func (r *LotRepo) Update(l auction.Lot) {
	r.scope.defer_(func() error { return r.backing.Update(l) })
}

func (r *LotRepo) Get(id uuid.UUID) (auction.Lot, error) {
	return r.backing.Get(id)
}

func (r *LotRepo) GetAll() []auction.Lot {
	return r.backing.GetAll()
}

// GetByAuctionID returns the lots belonging to auctionID.
func (r *LotRepo) GetByAuctionID(auctionID uuid.UUID) []auction.Lot {
	return store.Filter(r.backing.GetAll(), func(l auction.Lot) bool {
		return l.AuctionID == auctionID
	})
}

// VehicleRepo is the scope's repository view over the Vehicle store.
// Vehicles are insert-only (spec §4.2) — there is no Update.
type VehicleRepo struct {
	scope   *Scope
	backing *store.Store[vehicle.Vehicle]
}

func (r *VehicleRepo) Add(v vehicle.Vehicle) {
	r.scope.defer_(func() error { return r.backing.Add(v) })
}

func (r *VehicleRepo) Get(id uuid.UUID) (vehicle.Vehicle, error) {
	return r.backing.Get(id)
}

func (r *VehicleRepo) GetAll() []vehicle.Vehicle {
	return r.backing.GetAll()
}
