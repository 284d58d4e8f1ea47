package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/redgavel/auction/internal/auction"
	"github.com/redgavel/auction/internal/config"
	"github.com/redgavel/auction/internal/events"
	"github.com/redgavel/auction/internal/orchestrator"
	"github.com/redgavel/auction/internal/sequence"
	"github.com/redgavel/auction/internal/store"
	"github.com/redgavel/auction/internal/vehicle"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	ctx := context.Background()

	auctions := store.New[auction.Auction]()
	lots := store.New[auction.Lot]()
	vehicles := store.New[vehicle.Vehicle]()

	var seq sequence.Source
	if cfg.RedisURL != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, falling back to in-process sequence", "error", err)
		} else {
			logger.Info("redis connected, using cross-instance sequence source")
			seq = sequence.NewRedisSource(ctx, rdb)
		}
	}
	if seq == nil {
		seq = sequence.NewInMemorySource()
	}

	sink := events.NewRecorder()

	svc := orchestrator.NewService(auctions, lots, vehicles, seq, sink, logger)
	svc.WithRetryPolicy(cfg.MaxAttempts, cfg.BaseDelay)

	if err := runDemo(ctx, svc, logger); err != nil {
		logger.Error("demo failed", "error", err)
		os.Exit(1)
	}
}

// runDemo wires up and drives the scenario sequence an operator would use
// to sanity-check a fresh deployment: create a vehicle, auction, and lot;
// start the auction; place a string of bids, two under the reserve and
// one below the running high; close the auction; and read back the
// winner.
func runDemo(ctx context.Context, svc *orchestrator.Service, logger *slog.Logger) error {
	v, err := svc.CreateVehicle(ctx, vehicle.CreateRequest{
		Kind:    vehicle.Sedan,
		Make:    "Toyota",
		Model:   "Camry",
		Year:    2021,
		VIN:     "4T1BF1FK5CU123456",
		Mileage: decimal.NewFromInt(8000),
		Color:   "silver",
	})
	if err != nil {
		return err
	}
	logger.Info("vehicle created", "vehicle_id", v.ID)

	a, err := svc.CreateAuction(ctx, "Weekend Consignment Sale", "Single-lot demo auction")
	if err != nil {
		return err
	}
	logger.Info("auction created", "auction_id", a.ID)

	reserve := decimal.NewFromInt(18000)
	lot, err := svc.CreateLot(ctx, a.ID, v.ID, decimal.NewFromInt(15000), &reserve)
	if err != nil {
		return err
	}
	logger.Info("lot created", "lot_id", lot.ID)

	if _, err := svc.StartAuction(ctx, a.ID); err != nil {
		return err
	}
	logger.Info("auction started", "auction_id", a.ID)

	bidders := []struct {
		id     string
		amount int64
	}{
		{"bidder-1", 16000},
		{"bidder-2", 17000},
		{"bidder-3", 19000},
		{"bidder-1", 18000}, // below the running high; accepted, not leading
	}

	for _, b := range bidders {
		result, err := svc.PlaceBid(ctx, lot.ID, demoBidderID(b.id), decimal.NewFromInt(b.amount))
		if err != nil {
			return err
		}
		logger.Info("bid placed",
			"bidder", b.id,
			"amount", b.amount,
			"success", result.Success,
			"is_currently_highest", result.IsCurrentlyHighest,
			"current_highest", result.CurrentHighest.String(),
		)
	}

	if _, err := svc.CloseAuction(ctx, a.ID); err != nil {
		return err
	}
	logger.Info("auction closed", "auction_id", a.ID)

	winner, ok, err := svc.GetWinner(ctx, lot.ID)
	if err != nil {
		return err
	}
	if !ok {
		logger.Info("lot closed with no qualifying winner")
	} else {
		logger.Info("lot winner determined", "bidder_id", winner)
	}

	return nil
}

// demoBidderID maps a readable label to a stable UUID, so repeated runs
// of the demo produce the same bidder identities.
func demoBidderID(label string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(label))
}
