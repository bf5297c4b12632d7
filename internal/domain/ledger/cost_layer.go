package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/Duran117/kibray-sub001/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostLayer is the unconsumed remainder of one receipt. Layers belong to the
// item as a whole; LocationID only records where the receipt landed.
type CostLayer struct {
	ID               uuid.UUID
	ItemID           uuid.UUID
	LocationID       uuid.UUID
	SourceMovementID uuid.UUID
	UnitCost         decimal.Decimal
	OriginalQty      decimal.Decimal
	RemainingQty     decimal.Decimal
	ReceivedAt       time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewCostLayer creates a full layer
func NewCostLayer(itemID, locationID, movementID uuid.UUID, quantity, unitCost decimal.Decimal, receivedAt time.Time) *CostLayer {
	now := time.Now()
	return &CostLayer{
		ID:               uuid.New(),
		ItemID:           itemID,
		LocationID:       locationID,
		SourceMovementID: movementID,
		UnitCost:         unitCost,
		OriginalQty:      quantity,
		RemainingQty:     quantity,
		ReceivedAt:       receivedAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// IsOpen returns true if the layer still holds stock
func (l *CostLayer) IsOpen() bool {
	return l.RemainingQty.IsPositive()
}

// Consume removes quantity from the layer
func (l *CostLayer) Consume(quantity decimal.Decimal) error {
	if quantity.GreaterThan(l.RemainingQty) {
		return fmt.Errorf("cost layer %s: consume %s exceeds remaining %s", l.ID, quantity, l.RemainingQty)
	}
	l.RemainingQty = l.RemainingQty.Sub(quantity)
	l.UpdatedAt = time.Now()
	return nil
}

// StrategyLayer converts the layer into the costing strategy's view
func (l *CostLayer) StrategyLayer() strategy.CostLayer {
	return strategy.CostLayer{
		ID:         l.ID.String(),
		Quantity:   l.RemainingQty,
		UnitCost:   l.UnitCost,
		ReceivedAt: l.ReceivedAt,
	}
}

// SortLayers orders layers by receipt time, oldest first, breaking ties by ID
func SortLayers(layers []*CostLayer) {
	sort.SliceStable(layers, func(i, j int) bool {
		if !layers[i].ReceivedAt.Equal(layers[j].ReceivedAt) {
			return layers[i].ReceivedAt.Before(layers[j].ReceivedAt)
		}
		return layers[i].ID.String() < layers[j].ID.String()
	})
}

// StrategyLayers converts the open layers for a costing strategy
func StrategyLayers(layers []*CostLayer) []strategy.CostLayer {
	out := make([]strategy.CostLayer, 0, len(layers))
	for _, l := range layers {
		if l.IsOpen() {
			out = append(out, l.StrategyLayer())
		}
	}
	return out
}

// ConsumeDraws applies a costing result to the layers it was computed from.
// Shortfall draws are skipped. It returns the layers that changed.
func ConsumeDraws(layers []*CostLayer, draws []strategy.LayerDraw) ([]*CostLayer, error) {
	byID := make(map[string]*CostLayer, len(layers))
	for _, l := range layers {
		byID[l.ID.String()] = l
	}
	changed := make([]*CostLayer, 0, len(draws))
	for _, d := range draws {
		if d.IsShortfall() {
			continue
		}
		l, ok := byID[d.LayerID]
		if !ok {
			return nil, fmt.Errorf("cost layer %s not found", d.LayerID)
		}
		if err := l.Consume(d.Quantity); err != nil {
			return nil, err
		}
		changed = append(changed, l)
	}
	return changed, nil
}

// OpenLayers filters out exhausted layers
func OpenLayers(layers []*CostLayer) []*CostLayer {
	out := layers[:0:0]
	for _, l := range layers {
		if l.IsOpen() {
			out = append(out, l)
		}
	}
	return out
}
