package cost

import (
	"errors"
	"sort"

	"github.com/Duran117/kibray-sub001/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// unitCostPrecision is the number of decimal places kept on derived unit costs
const unitCostPrecision = 6

var errNegativeQuantity = errors.New("quantity cannot be negative")

// layerOrder describes which end of the receipt history a layered method consumes first
type layerOrder int

const (
	oldestFirst layerOrder = iota
	newestFirst
)

// sortLayers returns a copy of layers in consumption order
func sortLayers(layers []strategy.CostLayer, order layerOrder) []strategy.CostLayer {
	sorted := make([]strategy.CostLayer, 0, len(layers))
	for _, l := range layers {
		if l.Quantity.IsPositive() {
			sorted = append(sorted, l)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.ReceivedAt.Equal(b.ReceivedAt) {
			if order == oldestFirst {
				return a.ID < b.ID
			}
			return a.ID > b.ID
		}
		if order == oldestFirst {
			return a.ReceivedAt.Before(b.ReceivedAt)
		}
		return a.ReceivedAt.After(b.ReceivedAt)
	})
	return sorted
}

// fallbackCost prices a shortfall: the first layer in the given order, or the average cost
func fallbackCost(sorted []strategy.CostLayer, averageCost decimal.Decimal) decimal.Decimal {
	if len(sorted) > 0 {
		return sorted[0].UnitCost
	}
	return averageCost
}

// consume draws quantity from layers taken in order. Any remainder becomes a shortfall
// draw priced at the fallback layer for that order.
func consume(costCtx strategy.CostContext, layers []strategy.CostLayer, order layerOrder, method strategy.CostMethod) (strategy.CostResult, error) {
	if costCtx.Quantity.IsNegative() {
		return strategy.CostResult{}, errNegativeQuantity
	}

	sorted := sortLayers(layers, order)
	remaining := costCtx.Quantity
	totalCost := decimal.Zero
	draws := make([]strategy.LayerDraw, 0)

	for _, layer := range sorted {
		if remaining.IsZero() {
			break
		}
		used := decimal.Min(remaining, layer.Quantity)
		totalCost = totalCost.Add(used.Mul(layer.UnitCost))
		remaining = remaining.Sub(used)
		draws = append(draws, strategy.LayerDraw{
			LayerID:    layer.ID,
			Quantity:   used,
			UnitCost:   layer.UnitCost,
			ReceivedAt: layer.ReceivedAt,
		})
	}

	result := strategy.CostResult{
		Method:       method,
		ShortfallQty: remaining,
	}
	if remaining.IsPositive() {
		unitCost := fallbackCost(sorted, costCtx.AverageCost)
		totalCost = totalCost.Add(remaining.Mul(unitCost))
		draws = append(draws, strategy.LayerDraw{
			Quantity:   remaining,
			UnitCost:   unitCost,
			ReceivedAt: costCtx.Date,
		})
		result.Estimated = true
	}

	result.Draws = draws
	result.TotalCost = totalCost
	if costCtx.Quantity.IsPositive() {
		result.UnitCost = totalCost.Div(costCtx.Quantity).Round(unitCostPrecision)
	}
	return result, nil
}

// survivors values onHand units from the layers that would be left after consumption:
// the layers taken in survivor order, which is the reverse of the consumption order.
func survivors(onHand, averageCost decimal.Decimal, layers []strategy.CostLayer, consumption layerOrder, method strategy.CostMethod) (strategy.ValuationResult, error) {
	if onHand.IsNegative() {
		return strategy.ValuationResult{}, errNegativeQuantity
	}

	survivorOrder := newestFirst
	if consumption == newestFirst {
		survivorOrder = oldestFirst
	}
	sorted := sortLayers(layers, survivorOrder)

	remaining := onHand
	total := decimal.Zero
	for _, layer := range sorted {
		if remaining.IsZero() {
			break
		}
		used := decimal.Min(remaining, layer.Quantity)
		total = total.Add(used.Mul(layer.UnitCost))
		remaining = remaining.Sub(used)
	}

	result := strategy.ValuationResult{
		Quantity: onHand,
		Method:   method,
	}
	if remaining.IsPositive() {
		unitCost := fallbackCost(sortLayers(layers, consumption), averageCost)
		total = total.Add(remaining.Mul(unitCost))
		result.Estimated = true
	}
	result.TotalCost = total
	if onHand.IsPositive() {
		result.UnitCost = total.Div(onHand).Round(unitCostPrecision)
	}
	return result, nil
}
