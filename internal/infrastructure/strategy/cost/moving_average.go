package cost

import (
	"context"

	"github.com/Duran117/kibray-sub001/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// MovingAverageCostStrategy implements weighted average cost calculation.
// The average itself is maintained on the item at receipt time, so this
// strategy never needs receipt layers.
type MovingAverageCostStrategy struct {
	strategy.Descriptor
}

// NewMovingAverageCostStrategy creates a new moving average cost strategy
func NewMovingAverageCostStrategy() *MovingAverageCostStrategy {
	return &MovingAverageCostStrategy{
		Descriptor: strategy.NewDescriptor("moving_average", strategy.CostMethodAverage, false, "Weighted moving average cost calculation"),
	}
}

// CalculateCost prices the quantity at the current average cost
func (s *MovingAverageCostStrategy) CalculateCost(
	ctx context.Context,
	costCtx strategy.CostContext,
	layers []strategy.CostLayer,
) (strategy.CostResult, error) {
	if costCtx.Quantity.IsNegative() {
		return strategy.CostResult{}, errNegativeQuantity
	}
	return strategy.CostResult{
		UnitCost:     costCtx.AverageCost,
		TotalCost:    costCtx.AverageCost.Mul(costCtx.Quantity),
		Method:       strategy.CostMethodAverage,
		ShortfallQty: decimal.Zero,
	}, nil
}

// CalculateValue values on-hand stock at the average cost
func (s *MovingAverageCostStrategy) CalculateValue(
	ctx context.Context,
	onHand, averageCost decimal.Decimal,
	layers []strategy.CostLayer,
) (strategy.ValuationResult, error) {
	if onHand.IsNegative() {
		return strategy.ValuationResult{}, errNegativeQuantity
	}
	return strategy.ValuationResult{
		Quantity:  onHand,
		UnitCost:  averageCost,
		TotalCost: onHand.Mul(averageCost),
		Method:    strategy.CostMethodAverage,
	}, nil
}
