package ledger

import (
	"time"

	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/Duran117/kibray-sub001/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemValuation is a point-in-time valuation snapshot of one item
type ItemValuation struct {
	ItemID        uuid.UUID
	SKU           string
	OnHandQty     decimal.Decimal
	UnitValuation decimal.Decimal
	TotalValue    decimal.Decimal
	MethodUsed    ValuationMethod
	Estimated     bool
	AsOf          time.Time
}

// NewItemValuation builds a snapshot from a strategy result
func NewItemValuation(item *Item, result strategy.ValuationResult, asOf time.Time) ItemValuation {
	return ItemValuation{
		ItemID:        item.ID,
		SKU:           item.SKU,
		OnHandQty:     result.Quantity,
		UnitValuation: result.UnitCost,
		TotalValue:    result.TotalCost,
		MethodUsed:    item.ValuationMethod,
		Estimated:     result.Estimated,
		AsOf:          asOf,
	}
}

// DateRange is a half-open time window [From, To)
type DateRange struct {
	From time.Time
	To   time.Time
}

// Validate checks that the window is not inverted
func (r DateRange) Validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return shared.NewDomainError(shared.CodeValidation, "Date range requires both from and to")
	}
	if !r.From.Before(r.To) {
		return shared.NewDomainError(shared.CodeValidation, "Date range from must be before to")
	}
	return nil
}

// Contains reports whether t falls inside the window
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}

// COGSReport is the cost of goods consumed by one item within a window
type COGSReport struct {
	ItemID      uuid.UUID
	QtyConsumed decimal.Decimal
	TotalCost   decimal.Decimal
	MethodUsed  ValuationMethod
	Estimated   bool
	Range       DateRange
}

// NewCOGSReport sums the outgoing entries that fall inside the window
func NewCOGSReport(item *Item, window DateRange, entries []*LedgerEntry) COGSReport {
	report := COGSReport{
		ItemID:      item.ID,
		QtyConsumed: decimal.Zero,
		TotalCost:   decimal.Zero,
		MethodUsed:  item.ValuationMethod,
		Range:       window,
	}
	for _, e := range entries {
		if e.ItemID != item.ID || !e.IsCOGS() || !window.Contains(e.PostedAt) {
			continue
		}
		report.QtyConsumed = report.QtyConsumed.Add(e.Delta.Abs())
		report.TotalCost = report.TotalCost.Add(e.TotalCost)
		report.Estimated = report.Estimated || e.Estimated
	}
	return report
}
