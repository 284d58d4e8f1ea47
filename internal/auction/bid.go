package auction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid is owned by its Lot (spec §3). Identity is ID; equal Amounts are
// allowed and ordered by Sequence.
type Bid struct {
	ID       uuid.UUID
	BidderID uuid.UUID
	LotID    uuid.UUID
	Amount   decimal.Decimal
	BidTime  time.Time
	Sequence int64
}
