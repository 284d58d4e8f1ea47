package orchestrator_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"

	"github.com/redgavel/auction/internal/auction"
	"github.com/redgavel/auction/internal/events"
	"github.com/redgavel/auction/internal/orchestrator"
	"github.com/redgavel/auction/internal/sequence"
	"github.com/redgavel/auction/internal/store"
	"github.com/redgavel/auction/internal/vehicle"
)

func newTestService(t *testing.T) (*orchestrator.Service, *events.Recorder) {
	t.Helper()
	auctions := store.New[auction.Auction]()
	lots := store.New[auction.Lot]()
	vehicles := store.New[vehicle.Vehicle]()
	recorder := events.NewRecorder()
	svc := orchestrator.NewService(auctions, lots, vehicles, sequence.NewInMemorySource(), recorder, nil)
	return svc, recorder
}

func mustVehicle(t *testing.T, svc *orchestrator.Service) vehicle.Vehicle {
	t.Helper()
	v, err := svc.CreateVehicle(context.Background(), vehicle.CreateRequest{
		Kind:    vehicle.Sedan,
		Make:    "Honda",
		Model:   "Accord",
		Year:    2022,
		VIN:     "1HGCV1F34NA123456",
		Mileage: decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	return v
}

func TestCreateAuction_EmitsAuctionCreated(t *testing.T) {
	svc, recorder := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateAuction(ctx, "Spring Sale", "")
	require.NoError(t, err)
	assert.Equal(t, auction.StateCreated, a.State)

	recorded := recorder.ByAuction(a.ID)
	require.Len(t, recorded, 1)
	assert.Equal(t, "AuctionCreated", string(recorded[0].EventType))
}

func TestStartAuction_RequiresALot(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateAuction(ctx, "No Lots Yet", "")
	require.NoError(t, err)

	_, err = svc.StartAuction(ctx, a.ID)
	assert.ErrorIs(t, err, auction.ErrStateViolation)
}

func TestCreateLot_ThenStartAndClose(t *testing.T) {
	svc, recorder := newTestService(t)
	ctx := context.Background()

	v := mustVehicle(t, svc)
	a, err := svc.CreateAuction(ctx, "Lot Sale", "")
	require.NoError(t, err)

	reserve := decimal.NewFromInt(5000)
	lot, err := svc.CreateLot(ctx, a.ID, v.ID, decimal.NewFromInt(1000), &reserve)
	require.NoError(t, err)
	assert.Equal(t, a.ID, lot.AuctionID)

	started, err := svc.StartAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, auction.StateActive, started.State)

	closed, err := svc.CloseAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, auction.StateEnded, closed.State)

	assert.Len(t, recorder.ByAuction(a.ID), 3) // Created, Started, Ended
}

func TestCreateLot_UnknownVehicle_Errors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateAuction(ctx, "Sale", "")
	require.NoError(t, err)

	_, err = svc.CreateLot(ctx, a.ID, uuid.New(), decimal.NewFromInt(100), nil)
	assert.ErrorIs(t, err, orchestrator.ErrVehicleNotFound)
}

// TestS1_EndToEndScenario drives scenario S1 at the orchestrator layer:
// three bids that each raise the running high; a re-bid by an earlier
// bidder that doesn't retake the lead; reserve cleared; winner is the
// final highest bidder.
func TestS1_EndToEndScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	v := mustVehicle(t, svc)
	a, err := svc.CreateAuction(ctx, "S1", "")
	require.NoError(t, err)

	reserve := decimal.NewFromInt(18000)
	lot, err := svc.CreateLot(ctx, a.ID, v.ID, decimal.NewFromInt(15000), &reserve)
	require.NoError(t, err)

	_, err = svc.StartAuction(ctx, a.ID)
	require.NoError(t, err)

	b1, b2, b3 := uuid.New(), uuid.New(), uuid.New()

	r1, err := svc.PlaceBid(ctx, lot.ID, b1, decimal.NewFromInt(16000))
	require.NoError(t, err)
	assert.True(t, r1.Success)
	assert.True(t, r1.IsCurrentlyHighest)

	r2, err := svc.PlaceBid(ctx, lot.ID, b2, decimal.NewFromInt(17000))
	require.NoError(t, err)
	assert.True(t, r2.IsCurrentlyHighest)

	r3, err := svc.PlaceBid(ctx, lot.ID, b3, decimal.NewFromInt(19000))
	require.NoError(t, err)
	assert.True(t, r3.IsCurrentlyHighest)

	r4, err := svc.PlaceBid(ctx, lot.ID, b1, decimal.NewFromInt(18000))
	require.NoError(t, err)
	assert.True(t, r4.Success)
	assert.False(t, r4.IsCurrentlyHighest)
	assert.True(t, r4.CurrentHighest.Equal(decimal.NewFromInt(19000)))

	_, err = svc.CloseAuction(ctx, a.ID)
	require.NoError(t, err)

	winner, ok, err := svc.GetWinner(ctx, lot.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, b3, winner)
}

func TestPlaceBid_AuctionNotActive_FailsWithoutError(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	v := mustVehicle(t, svc)
	a, err := svc.CreateAuction(ctx, "Not Started", "")
	require.NoError(t, err)
	lot, err := svc.CreateLot(ctx, a.ID, v.ID, decimal.NewFromInt(100), nil)
	require.NoError(t, err)

	result, err := svc.PlaceBid(ctx, lot.ID, uuid.New(), decimal.NewFromInt(200))
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestPlaceBid_UnknownLot_Errors(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.PlaceBid(context.Background(), uuid.New(), uuid.New(), decimal.NewFromInt(100))
	assert.ErrorIs(t, err, orchestrator.ErrLotNotFound)
}

func TestWithRetryPolicy_TighterPolicy_StillServesCommands(t *testing.T) {
	svc, _ := newTestService(t)
	svc.WithRetryPolicy(1, time.Millisecond)
	// Sanity: the service still functions correctly with a tighter policy.
	ctx := context.Background()
	a, err := svc.CreateAuction(ctx, "Tight Retry", "")
	require.NoError(t, err)
	assert.Equal(t, auction.StateCreated, a.State)
}
