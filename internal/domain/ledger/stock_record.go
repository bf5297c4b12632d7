package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockKey identifies a stock record by its composite key
type StockKey struct {
	ItemID     uuid.UUID
	LocationID uuid.UUID
}

// String returns a stable textual form of the key, used for lock ordering
func (k StockKey) String() string {
	return k.ItemID.String() + "/" + k.LocationID.String()
}

// Less reports whether k sorts before other in lock order
func (k StockKey) Less(other StockKey) bool {
	return k.String() < other.String()
}

// StockRecord is the on-hand quantity of one item at one location.
// Quantity is never negative.
type StockRecord struct {
	ItemID     uuid.UUID
	LocationID uuid.UUID
	Quantity   decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewStockRecord creates an empty stock record for the pair
func NewStockRecord(itemID, locationID uuid.UUID) *StockRecord {
	now := time.Now()
	return &StockRecord{
		ItemID:     itemID,
		LocationID: locationID,
		Quantity:   decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Key returns the record's composite key
func (s *StockRecord) Key() StockKey {
	return StockKey{ItemID: s.ItemID, LocationID: s.LocationID}
}

// CanDecrease returns true if quantity can be removed without going negative
func (s *StockRecord) CanDecrease(quantity decimal.Decimal) bool {
	return s.Quantity.GreaterThanOrEqual(quantity)
}

// Increment applies delta strictly: a result below zero is rejected and the record is left unchanged.
func (s *StockRecord) Increment(delta decimal.Decimal) error {
	next := s.Quantity.Add(delta)
	if next.IsNegative() {
		return NewNegativeStockError(s.ItemID, s.LocationID, s.Quantity, delta)
	}
	s.Quantity = next
	s.UpdatedAt = time.Now()
	return nil
}

// IncrementClamped applies delta, clamping the result at zero.
// It returns the delta that was actually applied.
func (s *StockRecord) IncrementClamped(delta decimal.Decimal) decimal.Decimal {
	next := s.Quantity.Add(delta)
	if next.IsNegative() {
		next = decimal.Zero
	}
	effective := next.Sub(s.Quantity)
	s.Quantity = next
	s.UpdatedAt = time.Now()
	return effective
}
