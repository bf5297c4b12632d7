package cost

import (
	"context"

	"github.com/Duran117/kibray-sub001/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// FIFOCostStrategy implements First-In-First-Out cost calculation
type FIFOCostStrategy struct {
	strategy.Descriptor
}

// NewFIFOCostStrategy creates a new FIFO cost strategy
func NewFIFOCostStrategy() *FIFOCostStrategy {
	return &FIFOCostStrategy{
		Descriptor: strategy.NewDescriptor("fifo", strategy.CostMethodFIFO, true, "First-In-First-Out cost calculation"),
	}
}

// CalculateCost consumes the oldest layers first. A shortfall is priced at the oldest layer.
func (s *FIFOCostStrategy) CalculateCost(
	ctx context.Context,
	costCtx strategy.CostContext,
	layers []strategy.CostLayer,
) (strategy.CostResult, error) {
	return consume(costCtx, layers, oldestFirst, strategy.CostMethodFIFO)
}

// CalculateValue values on-hand stock at the newest layers, which FIFO consumes last
func (s *FIFOCostStrategy) CalculateValue(
	ctx context.Context,
	onHand, averageCost decimal.Decimal,
	layers []strategy.CostLayer,
) (strategy.ValuationResult, error) {
	return survivors(onHand, averageCost, layers, oldestFirst, strategy.CostMethodFIFO)
}
