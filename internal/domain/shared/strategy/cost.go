package strategy

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CostMethod represents the inventory costing method
type CostMethod string

const (
	CostMethodFIFO    CostMethod = "FIFO"
	CostMethodLIFO    CostMethod = "LIFO"
	CostMethodAverage CostMethod = "AVG"
)

// String returns the string representation of the cost method
func (m CostMethod) String() string {
	return string(m)
}

// CostLayer is an open receipt layer available for consumption
type CostLayer struct {
	ID         string
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
	ReceivedAt time.Time
}

// LayerDraw is the portion of one layer taken by a consumption.
// A draw with an empty LayerID covers a shortfall and is priced at the fallback cost.
type LayerDraw struct {
	LayerID    string
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
	ReceivedAt time.Time
}

// IsShortfall returns true if the draw is not backed by a layer
func (d LayerDraw) IsShortfall() bool {
	return d.LayerID == ""
}

// Total returns the cost of the draw
func (d LayerDraw) Total() decimal.Decimal {
	return d.Quantity.Mul(d.UnitCost)
}

// CostContext provides context for cost calculation
type CostContext struct {
	ItemID      string
	Quantity    decimal.Decimal
	AverageCost decimal.Decimal
	Date        time.Time
}

// CostResult contains the result of cost calculation
type CostResult struct {
	UnitCost     decimal.Decimal
	TotalCost    decimal.Decimal
	Method       CostMethod
	Draws        []LayerDraw
	ShortfallQty decimal.Decimal
	Estimated    bool
}

// ValuationResult is the value of an on-hand quantity at one point in time
type ValuationResult struct {
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	TotalCost decimal.Decimal
	Method    CostMethod
	Estimated bool
}

// CostCalculationStrategy defines the interface for inventory cost calculation
type CostCalculationStrategy interface {
	Name() string
	Description() string
	Method() CostMethod
	UsesLayers() bool
	// CalculateCost prices the consumption of costCtx.Quantity from the given open layers.
	// It never fails on a shortfall: the remainder is priced at the fallback cost and
	// the result is marked estimated.
	CalculateCost(ctx context.Context, costCtx CostContext, layers []CostLayer) (CostResult, error)
	// CalculateValue values onHand units against the layers that survive consumption
	CalculateValue(ctx context.Context, onHand, averageCost decimal.Decimal, layers []CostLayer) (ValuationResult, error)
}
