package ledger

import (
	"strings"
	"time"

	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AverageCostPrecision is the number of decimal places kept on the moving average
const AverageCostPrecision = 6

// Item is a trackable material or tool in the catalog.
// The movement engine only ever mutates AverageCost.
type Item struct {
	shared.BaseAggregateRoot
	SKU               string
	Name              string
	ValuationMethod   ValuationMethod
	AverageCost       decimal.Decimal
	LowStockThreshold *decimal.Decimal
	ThresholdTracking bool
}

// NewItem creates a new catalog item
func NewItem(sku, name string, method ValuationMethod) (*Item, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "SKU cannot be empty")
	}
	if len(sku) > 64 {
		return nil, shared.NewDomainError(shared.CodeValidation, "SKU cannot exceed 64 characters")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeValidation, "Unknown valuation method %q", method)
	}

	return &Item{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              strings.TrimSpace(name),
		ValuationMethod:   method,
		AverageCost:       decimal.Zero,
	}, nil
}

// SetLowStockThreshold configures threshold tracking. A nil threshold disables tracking.
func (i *Item) SetLowStockThreshold(threshold *decimal.Decimal) error {
	if threshold == nil {
		i.LowStockThreshold = nil
		i.ThresholdTracking = false
		i.touch()
		return nil
	}
	if threshold.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Low stock threshold cannot be negative")
	}
	t := *threshold
	i.LowStockThreshold = &t
	i.ThresholdTracking = true
	i.touch()
	return nil
}

// ApplyReceiptCost folds a receipt into the moving average.
// oldTotal is the on-hand quantity across all locations before the receipt.
func (i *Item) ApplyReceiptCost(oldTotal, quantity, unitCost decimal.Decimal) {
	i.AverageCost = MovingAverage(i.AverageCost, oldTotal, quantity, unitCost)
	i.touch()
}

// IsBelowThreshold reports whether total is under the configured low-stock threshold
func (i *Item) IsBelowThreshold(total decimal.Decimal) bool {
	if !i.ThresholdTracking || i.LowStockThreshold == nil {
		return false
	}
	return total.LessThan(*i.LowStockThreshold)
}

func (i *Item) touch() {
	i.Bump(time.Now())
}

// MovingAverage returns the weighted average after receiving quantity at unitCost
// on top of oldTotal units valued at oldAverage.
func MovingAverage(oldAverage, oldTotal, quantity, unitCost decimal.Decimal) decimal.Decimal {
	if oldTotal.IsZero() {
		return unitCost
	}
	totalValue := oldAverage.Mul(oldTotal).Add(unitCost.Mul(quantity))
	totalQuantity := oldTotal.Add(quantity)
	return totalValue.Div(totalQuantity).Round(AverageCostPrecision)
}
