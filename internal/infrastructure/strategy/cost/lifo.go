package cost

import (
	"context"

	"github.com/Duran117/kibray-sub001/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// LIFOCostStrategy implements Last-In-First-Out cost calculation
type LIFOCostStrategy struct {
	strategy.Descriptor
}

// NewLIFOCostStrategy creates a new LIFO cost strategy
func NewLIFOCostStrategy() *LIFOCostStrategy {
	return &LIFOCostStrategy{
		Descriptor: strategy.NewDescriptor("lifo", strategy.CostMethodLIFO, true, "Last-In-First-Out cost calculation"),
	}
}

// CalculateCost consumes the newest layers first. A shortfall is priced at the newest layer.
func (s *LIFOCostStrategy) CalculateCost(
	ctx context.Context,
	costCtx strategy.CostContext,
	layers []strategy.CostLayer,
) (strategy.CostResult, error) {
	return consume(costCtx, layers, newestFirst, strategy.CostMethodLIFO)
}

// CalculateValue values on-hand stock at the oldest layers
func (s *LIFOCostStrategy) CalculateValue(
	ctx context.Context,
	onHand, averageCost decimal.Decimal,
	layers []strategy.CostLayer,
) (strategy.ValuationResult, error) {
	return survivors(onHand, averageCost, layers, newestFirst, strategy.CostMethodLIFO)
}
