package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntry is the immutable posting of one movement against one location.
// Delta is the effective signed change, so summing deltas per item always
// matches the stock records, clamped adjustments included.
type LedgerEntry struct {
	ID            uuid.UUID
	MovementID    uuid.UUID
	ItemID        uuid.UUID
	LocationID    uuid.UUID
	MovementType  MovementType
	Delta         decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	UnitCost      decimal.Decimal
	TotalCost     decimal.Decimal
	Estimated     bool
	PostedAt      time.Time
}

func newLedgerEntry(m *Movement, locationID uuid.UUID, before, after, unitCost, totalCost decimal.Decimal, estimated bool, postedAt time.Time) *LedgerEntry {
	return &LedgerEntry{
		ID:            uuid.New(),
		MovementID:    m.ID,
		ItemID:        m.ItemID,
		LocationID:    locationID,
		MovementType:  m.Type,
		Delta:         after.Sub(before),
		BalanceBefore: before,
		BalanceAfter:  after,
		UnitCost:      unitCost,
		TotalCost:     totalCost,
		Estimated:     estimated,
		PostedAt:      postedAt,
	}
}

// IsCOGS returns true if the entry counts toward cost of goods sold
func (e *LedgerEntry) IsCOGS() bool {
	return e.MovementType.IsOutgoing()
}
