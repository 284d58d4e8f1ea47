package orchestrator

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlaceBidResult is the structured outcome of PlaceBid (spec §6). Every
// failure except a missing lot is reported this way rather than as an
// error (spec §7): the caller is expected to translate Success=false into
// a 400-class response.
type PlaceBidResult struct {
	Success            bool
	Message            string
	BidID              uuid.UUID
	CurrentHighest     decimal.Decimal
	IsCurrentlyHighest bool
}

func failedBid(message string) PlaceBidResult {
	return PlaceBidResult{Success: false, Message: message}
}
