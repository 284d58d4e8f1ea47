// Package orchestrator implements the serialization + retry orchestrator
// (C5): the application-level command surface, per-entity mutual
// exclusion, and optimistic-concurrency retry loop described in spec §4.5.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/redgavel/auction/internal/auction"
	"github.com/redgavel/auction/internal/events"
	"github.com/redgavel/auction/internal/metrics"
	"github.com/redgavel/auction/internal/sequence"
	"github.com/redgavel/auction/internal/store"
	"github.com/redgavel/auction/internal/txscope"
	"github.com/redgavel/auction/internal/vehicle"
)

// MaxAttempts and BaseDelay are the spec-mandated retry defaults (§4.5),
// used when a Service is constructed with zero values for either.
const (
	MaxAttempts = 3
	BaseDelay   = 50 * time.Millisecond
)

// Service is the C5 orchestrator: it owns the three C2 stores, a C3
// sequence source, opens a C4 scope per attempt, and emits to an event
// sink after every successful commit.
type Service struct {
	auctions *store.Store[auction.Auction]
	lots     *store.Store[auction.Lot]
	vehicles *store.Store[vehicle.Vehicle]

	sequences sequence.Source
	sink      events.Sink
	logger    *slog.Logger

	auctionLocks keyedMutex
	lotLocks     keyedMutex

	maxAttempts int
	baseDelay   time.Duration
}

// NewService wires a Service over the given stores. seq may be nil, in
// which case each Lot's own local sequence counter is used (spec §4.1).
// sink may be nil, in which case events are silently dropped (useful for
// tests that don't care about them); logger may be nil, in which case
// slog.Default() is used.
func NewService(
	auctions *store.Store[auction.Auction],
	lots *store.Store[auction.Lot],
	vehicles *store.Store[vehicle.Vehicle],
	seq sequence.Source,
	sink events.Sink,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		auctions:    auctions,
		lots:        lots,
		vehicles:    vehicles,
		sequences:   seq,
		sink:        sink,
		logger:      logger,
		maxAttempts: MaxAttempts,
		baseDelay:   BaseDelay,
	}
}

// WithRetryPolicy overrides MaxAttempts/BaseDelay — used by cmd/demo's
// config knobs and by tests. Non-positive arguments leave the current
// value unchanged.
func (s *Service) WithRetryPolicy(maxAttempts int, baseDelay time.Duration) *Service {
	if maxAttempts > 0 {
		s.maxAttempts = maxAttempts
	}
	if baseDelay > 0 {
		s.baseDelay = baseDelay
	}
	return s
}

func (s *Service) newBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.baseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// sleepBackoff waits out b's next interval, honoring ctx cancellation at
// the suspension point (spec §5).
func (s *Service) sleepBackoff(ctx context.Context, b backoff.BackOff) error {
	d := b.NextBackOff()
	if d == backoff.Stop {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// emit hands ev to the sink, if any. Emission failures never invalidate an
// already-committed transaction (spec §4.5, §7) — they are logged and
// swallowed, the store remains the source of truth.
func (s *Service) emit(ctx context.Context, ev events.Event) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Emit(ctx, ev); err != nil {
		s.logger.Warn("event emission failed", "event_type", ev.EventType, "auction_id", ev.AuctionID, "error", err)
	}
}

// nextSequence consults the external sequence source if one is
// configured, falling back to the lot's own local counter otherwise
// (spec §4.1, §4.3).
func (s *Service) nextSequence(lot *auction.Lot) (int64, error) {
	if s.sequences != nil {
		return s.sequences.Next(lot.ID)
	}
	return lot.NextLocalSequence(), nil
}

// runWithRetry drives attempt up to s.maxAttempts times. attempt must
// return nil on success, a *store.VersionConflictError to trigger a
// backoff-and-retry, or any other error to abort immediately without
// retrying (spec §4.5, §7).
func (s *Service) runWithRetry(ctx context.Context, attempt func(attemptN int) error) error {
	b := s.newBackoff()
	start := time.Now()
	defer func() { metrics.CommitDuration.Observe(time.Since(start).Seconds()) }()

	var lastErr error
	for n := 1; n <= s.maxAttempts; n++ {
		err := attempt(n)
		if err == nil {
			metrics.RetryAttempts.Observe(float64(n))
			return nil
		}
		if !store.IsVersionConflict(err) {
			return err
		}
		metrics.VersionConflictsTotal.Inc()
		lastErr = err
		if n < s.maxAttempts {
			if sleepErr := s.sleepBackoff(ctx, b); sleepErr != nil {
				return sleepErr
			}
		}
	}
	metrics.RetryAttempts.Observe(float64(s.maxAttempts))
	metrics.UnrecoverableTotal.Inc()
	return fmt.Errorf("%w: %v", ErrUnrecoverable, lastErr)
}

// ---- Vehicle ----

// CreateVehicle constructs and persists a Vehicle. Vehicles are insert-only
// (spec §4.2): there is no version conflict to retry.
func (s *Service) CreateVehicle(_ context.Context, req vehicle.CreateRequest) (vehicle.Vehicle, error) {
	v, err := vehicle.New(req)
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	if err := s.vehicles.Add(v); err != nil {
		return vehicle.Vehicle{}, err
	}
	return v, nil
}

// ---- Auction ----

// CreateAuction constructs a new Auction and persists it, emitting
// AuctionCreated on success.
func (s *Service) CreateAuction(ctx context.Context, title, description string) (auction.Auction, error) {
	a, err := auction.New(title, description)
	if err != nil {
		return auction.Auction{}, err
	}
	if err := s.auctions.Add(a); err != nil {
		return auction.Auction{}, err
	}
	s.emit(ctx, events.New(events.AuctionCreated, a.ID, a))
	return a, nil
}

// StartAuction transitions Created -> Active under auctionLocks[id], with
// the standard retry-on-version-conflict shape.
func (s *Service) StartAuction(ctx context.Context, auctionID uuid.UUID) (auction.Auction, error) {
	unlock := s.auctionLocks.Lock(auctionID)
	defer unlock()

	var result auction.Auction
	err := s.runWithRetry(ctx, func(int) error {
		scope := txscope.New(s.auctions, s.lots, s.vehicles)
		defer scope.Discard()

		a, err := scope.Auctions.Get(auctionID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAuctionNotFound, err)
		}
		if err := a.Start(); err != nil {
			return err
		}
		scope.Auctions.Update(a)
		if _, err := scope.Commit(); err != nil {
			return err
		}
		result = a
		return nil
	})
	if err != nil {
		return auction.Auction{}, err
	}

	s.emit(ctx, events.New(events.AuctionStarted, result.ID, result))
	return result, nil
}

// CloseAuction transitions Active -> Ended under auctionLocks[id].
func (s *Service) CloseAuction(ctx context.Context, auctionID uuid.UUID) (auction.Auction, error) {
	unlock := s.auctionLocks.Lock(auctionID)
	defer unlock()

	var result auction.Auction
	err := s.runWithRetry(ctx, func(int) error {
		scope := txscope.New(s.auctions, s.lots, s.vehicles)
		defer scope.Discard()

		a, err := scope.Auctions.Get(auctionID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAuctionNotFound, err)
		}
		if err := a.Close(); err != nil {
			return err
		}
		scope.Auctions.Update(a)
		if _, err := scope.Commit(); err != nil {
			return err
		}
		result = a
		return nil
	})
	if err != nil {
		return auction.Auction{}, err
	}

	s.emit(ctx, events.New(events.AuctionEnded, result.ID, result))
	return result, nil
}

// CreateLot resolves the vehicle, attaches a new Lot to the auction, and
// persists both through one scope commit, under auctionLocks[auctionID]
// (spec §4.5). The commit applies the auction update and then the lot
// insert one after the other; it is not atomic.
func (s *Service) CreateLot(ctx context.Context, auctionID, vehicleID uuid.UUID, startingBid decimal.Decimal, reservePrice *decimal.Decimal) (auction.Lot, error) {
	unlock := s.auctionLocks.Lock(auctionID)
	defer unlock()

	var result auction.Lot
	err := s.runWithRetry(ctx, func(int) error {
		scope := txscope.New(s.auctions, s.lots, s.vehicles)
		defer scope.Discard()

		if _, err := scope.Vehicles.Get(vehicleID); err != nil {
			return fmt.Errorf("%w: %v", ErrVehicleNotFound, err)
		}

		a, err := scope.Auctions.Get(auctionID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAuctionNotFound, err)
		}

		lot, err := auction.NewLot(auctionID, vehicleID, startingBid, reservePrice)
		if err != nil {
			return err
		}

		// AddLot enforces State == Created (spec §4.1) — this is how an
		// attempt to add a lot to a non-Created auction surfaces.
		if err := a.AddLot(lot); err != nil {
			return err
		}

		scope.Auctions.Update(a)
		scope.Lots.Add(lot)
		if _, err := scope.Commit(); err != nil {
			return err
		}
		result = lot
		return nil
	})
	if err != nil {
		return auction.Lot{}, err
	}
	return result, nil
}

// ---- Bidding ----

// PlaceBid implements the full algorithm in spec §4.5: a fast-path
// pre-check outside any lock, then the retry loop under lotLocks[lotID].
// All failures except a missing lot are returned as a structured
// PlaceBidResult rather than an error (spec §7).
func (s *Service) PlaceBid(ctx context.Context, lotID, bidderID uuid.UUID, amount decimal.Decimal) (PlaceBidResult, error) {
	// Step 1: fast-path pre-check, outside the lock, with a transient read.
	if _, err := s.lots.Get(lotID); err != nil {
		return PlaceBidResult{}, fmt.Errorf("%w: %v", ErrLotNotFound, err)
	}
	if fast, ok := s.checkAuctionAcceptsBids(lotID); !ok {
		return failedBid(fast), nil
	}

	// Step 2: acquire the per-lot lock and enter the retry loop.
	unlock := s.lotLocks.Lock(lotID)
	unlockOnce := sync.OnceFunc(unlock)
	defer unlockOnce()

	var (
		result     PlaceBidResult
		earlyExit  bool
		auctionID  uuid.UUID
		commitDone bool
	)

	err := s.runWithRetry(ctx, func(int) error {
		scope := txscope.New(s.auctions, s.lots, s.vehicles)
		defer scope.Discard()

		// Step 3: reload lot and auction inside the scope.
		lot, err := scope.Lots.Get(lotID)
		if err != nil {
			earlyExit = true
			result = PlaceBidResult{}
			return &lotGoneError{cause: err}
		}

		auc, err := scope.Auctions.Get(lot.AuctionID)
		if err != nil || !auc.CanAcceptBids() {
			earlyExit = true
			result = failedBid("auction is not accepting bids")
			return errNonRetryable
		}

		// Step 4: advisory pre-append check.
		isCurrentlyHighest := lot.WouldBidBeValid(amount)

		// Step 5: obtain the sequence number.
		seq, err := s.nextSequence(&lot)
		if err != nil {
			earlyExit = true
			result = failedBid(err.Error())
			return errNonRetryable
		}

		// Step 6: append the bid (AP ingestion, no validity check here).
		bid, err := lot.PlaceBid(bidderID, amount, seq)
		if err != nil {
			earlyExit = true
			result = failedBid(err.Error())
			return errNonRetryable
		}

		// Step 7: record the update and commit.
		scope.Lots.Update(lot)
		if _, err := scope.Commit(); err != nil {
			if store.IsVersionConflict(err) {
				return err // triggers backoff + retry (step 8)
			}
			earlyExit = true
			result = failedBid(err.Error())
			return errNonRetryable
		}

		auctionID = lot.AuctionID
		commitDone = true
		result = PlaceBidResult{
			Success:            true,
			BidID:              bid.ID,
			CurrentHighest:     lot.GetHighestBidAmount(),
			IsCurrentlyHighest: isCurrentlyHighest,
		}
		return nil
	})

	if earlyExit {
		var gone *lotGoneError
		if asLotGone(err, &gone) {
			return PlaceBidResult{}, fmt.Errorf("%w: %v", ErrLotNotFound, gone.cause)
		}
		return result, nil
	}

	if err != nil {
		return failedBid("bid could not be committed after retrying"), nil
	}

	// Step 9: release the lock, then emit (outside the lock).
	unlockOnce()

	if commitDone {
		metrics.BidsPlacedTotal.Inc()
		s.emit(ctx, events.New(events.BidPlaced, auctionID, result))
	}

	// Step 10: return the result (AP ingestion accepts the bid even when
	// it isn't currently the highest).
	return result, nil
}

// errNonRetryable marks an attempt failure the retry loop must not retry,
// distinct from a version conflict, when the caller has already populated
// `result`/`earlyExit` itself.
var errNonRetryable = fmt.Errorf("non-retryable place-bid failure")

// lotGoneError distinguishes "the lot vanished mid-retry" (which must
// raise, per spec §7) from every other non-retryable PlaceBid failure
// (which must return a structured result).
type lotGoneError struct{ cause error }

func (e *lotGoneError) Error() string { return fmt.Sprintf("lot not found: %v", e.cause) }

func asLotGone(err error, target **lotGoneError) bool {
	if le, ok := err.(*lotGoneError); ok {
		*target = le
		return true
	}
	return false
}

// checkAuctionAcceptsBids is the fast-path pre-check's auction lookup: it
// reports ("", true) when bidding may proceed, or a failure message and
// false otherwise.
func (s *Service) checkAuctionAcceptsBids(lotID uuid.UUID) (string, bool) {
	lot, err := s.lots.Get(lotID)
	if err != nil {
		return "lot not found", false
	}
	auc, err := s.auctions.Get(lot.AuctionID)
	if err != nil || !auc.CanAcceptBids() {
		return "auction is not accepting bids", false
	}
	return "", true
}

// ---- Reads ----

func (s *Service) GetAuction(_ context.Context, id uuid.UUID) (auction.Auction, error) {
	a, err := s.auctions.Get(id)
	if err != nil {
		return auction.Auction{}, fmt.Errorf("%w: %v", ErrAuctionNotFound, err)
	}
	return a, nil
}

func (s *Service) ListAuctions(_ context.Context) []auction.Auction {
	return s.auctions.GetAll()
}

func (s *Service) GetLot(_ context.Context, id uuid.UUID) (auction.Lot, error) {
	l, err := s.lots.Get(id)
	if err != nil {
		return auction.Lot{}, fmt.Errorf("%w: %v", ErrLotNotFound, err)
	}
	return l, nil
}

func (s *Service) GetLotsByAuction(_ context.Context, auctionID uuid.UUID) []auction.Lot {
	return store.Filter(s.lots.GetAll(), func(l auction.Lot) bool { return l.AuctionID == auctionID })
}

func (s *Service) GetHighestBid(ctx context.Context, lotID uuid.UUID) (auction.Bid, bool, error) {
	l, err := s.GetLot(ctx, lotID)
	if err != nil {
		return auction.Bid{}, false, err
	}
	bid, ok := l.GetHighestBid()
	return bid, ok, nil
}

func (s *Service) GetWinner(ctx context.Context, lotID uuid.UUID) (uuid.UUID, bool, error) {
	l, err := s.GetLot(ctx, lotID)
	if err != nil {
		return uuid.Nil, false, err
	}
	winner, ok := l.GetWinningBidderID()
	return winner, ok, nil
}

// SearchVehiclesFilter narrows SearchVehicles' results. Zero-valued fields
// are ignored. This supplements spec §6's read-op table, which names
// SearchVehicles but leaves its filter shape undesigned.
type SearchVehiclesFilter struct {
	Kind  vehicle.Kind
	Make  string
	Model string

	YearMin int
	YearMax int
}

func (f SearchVehiclesFilter) matches(v vehicle.Vehicle) bool {
	if f.Kind != "" && v.Kind != f.Kind {
		return false
	}
	if f.Make != "" && v.Make != f.Make {
		return false
	}
	if f.Model != "" && v.Model != f.Model {
		return false
	}
	if f.YearMin != 0 && v.Year < f.YearMin {
		return false
	}
	if f.YearMax != 0 && v.Year > f.YearMax {
		return false
	}
	return true
}

func (s *Service) SearchVehicles(_ context.Context, filter SearchVehiclesFilter) []vehicle.Vehicle {
	return store.Filter(s.vehicles.GetAll(), filter.matches)
}
