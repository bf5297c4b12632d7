package ledger

import (
	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeItem is the aggregate type for ledger item events
const AggregateTypeItem = "LedgerItem"

// Event type constants
const (
	EventTypeStockBelowThreshold = "ledger.stock_below_threshold"
)

// StockBelowThresholdEvent is raised after a movement leaves an item's aggregate
// on-hand quantity below its low-stock threshold
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	ItemID       uuid.UUID       `json:"item_id"`
	SKU          string          `json:"sku"`
	MovementID   uuid.UUID       `json:"movement_id"`
	CurrentTotal decimal.Decimal `json:"current_total"`
	Threshold    decimal.Decimal `json:"threshold"`
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(item *Item, movementID uuid.UUID, currentTotal decimal.Decimal) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, AggregateTypeItem, item.ID),
		ItemID:          item.ID,
		SKU:             item.SKU,
		MovementID:      movementID,
		CurrentTotal:    currentTotal,
		Threshold:       *item.LowStockThreshold,
	}
}

// EventType returns the event type name
func (e *StockBelowThresholdEvent) EventType() string {
	return EventTypeStockBelowThreshold
}

// IsOutOfStock returns true if nothing is left across all locations
func (e *StockBelowThresholdEvent) IsOutOfStock() bool {
	return !e.CurrentTotal.IsPositive()
}

// ThresholdEvent returns the event to publish for total. It returns nil when
// tracking is off or total is at or above the threshold.
func (i *Item) ThresholdEvent(movementID uuid.UUID, total decimal.Decimal) *StockBelowThresholdEvent {
	if !i.IsBelowThreshold(total) {
		return nil
	}
	return NewStockBelowThresholdEvent(i, movementID, total)
}
