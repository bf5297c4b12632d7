package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/Duran117/kibray-sub001/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostingState is the slice of ledger state a movement is posted against.
// Records are keyed by location and must cover every location the movement
// touches. Layers holds the item's open cost layers across all locations,
// oldest first, and must be loaded whenever the movement consumes stock.
type PostingState struct {
	Item      *Item
	ItemTotal decimal.Decimal
	Records   map[uuid.UUID]*StockRecord
	Layers    []*CostLayer
}

// NewPostingState creates an empty state for item
func NewPostingState(item *Item, itemTotal decimal.Decimal) *PostingState {
	return &PostingState{
		Item:      item,
		ItemTotal: itemTotal,
		Records:   make(map[uuid.UUID]*StockRecord),
	}
}

// Record returns the stock record for location, creating an empty one on first use
func (s *PostingState) Record(locationID uuid.UUID) *StockRecord {
	rec, ok := s.Records[locationID]
	if !ok {
		rec = NewStockRecord(s.Item.ID, locationID)
		s.Records[locationID] = rec
	}
	return rec
}

// OnHand returns the quantity at location without creating a record
func (s *PostingState) OnHand(locationID uuid.UUID) decimal.Decimal {
	if rec, ok := s.Records[locationID]; ok {
		return rec.Quantity
	}
	return decimal.Zero
}

// Posting is the outcome of posting one movement
type Posting struct {
	Entries       []*LedgerEntry
	NewLayers     []*CostLayer
	ChangedLayers []*CostLayer
	Records       []*StockRecord
	ItemChanged   bool
	ItemTotal     decimal.Decimal
}

// COGS returns the cost attributed to an outgoing movement
func (p *Posting) COGS() decimal.Decimal {
	total := decimal.Zero
	for _, e := range p.Entries {
		if e.IsCOGS() {
			total = total.Add(e.TotalCost)
		}
	}
	return total
}

// Estimated returns true if any entry was priced at a fallback cost
func (p *Posting) Estimated() bool {
	for _, e := range p.Entries {
		if e.Estimated {
			return true
		}
	}
	return false
}

// Post applies m to state. Every precondition is checked before state is touched,
// so a returned validation or insufficient-stock error leaves state unchanged.
// Post does not flip the movement's applied flag.
func Post(ctx context.Context, cost strategy.CostCalculationStrategy, state *PostingState, m *Movement, at time.Time) (*Posting, error) {
	if m.ItemID != state.Item.ID {
		return nil, fmt.Errorf("movement %s belongs to item %s, state holds %s", m.ID, m.ItemID, state.Item.ID)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.Type.RequiresSource() {
		available := state.OnHand(*m.FromLocationID)
		if available.LessThan(m.Quantity) {
			return nil, NewInsufficientStockError(m.ItemID, *m.FromLocationID, available, m.Quantity)
		}
	}

	p := &Posting{}
	var err error
	switch m.Type {
	case MovementTypeReceive:
		err = postReceive(cost, state, m, at, p)
	case MovementTypeIssue, MovementTypeConsume:
		err = postOutgoing(ctx, cost, state, m, at, p)
	case MovementTypeTransfer:
		err = postTransfer(state, m, at, p)
	case MovementTypeAdjust:
		postAdjust(state, m, at, p)
	}
	if err != nil {
		return nil, err
	}

	for _, e := range p.Entries {
		state.ItemTotal = state.ItemTotal.Add(e.Delta)
	}
	p.ItemTotal = state.ItemTotal
	return p, nil
}

func postReceive(cost strategy.CostCalculationStrategy, state *PostingState, m *Movement, at time.Time, p *Posting) error {
	to := state.Record(*m.ToLocationID)
	before := to.Quantity
	if err := to.Increment(m.Quantity); err != nil {
		return err
	}
	unitCost := *m.UnitCost
	if state.Item.ValuationMethod == ValuationAverage {
		state.Item.ApplyReceiptCost(state.ItemTotal, m.Quantity, unitCost)
		p.ItemChanged = true
	}
	if cost.UsesLayers() {
		layer := NewCostLayer(m.ItemID, to.LocationID, m.ID, m.Quantity, unitCost, m.CreatedAt)
		state.Layers = append(state.Layers, layer)
		p.NewLayers = append(p.NewLayers, layer)
	}
	p.Records = append(p.Records, to)
	p.Entries = append(p.Entries, newLedgerEntry(m, to.LocationID, before, to.Quantity, unitCost, m.Quantity.Mul(unitCost), false, at))
	return nil
}

func postOutgoing(ctx context.Context, cost strategy.CostCalculationStrategy, state *PostingState, m *Movement, at time.Time, p *Posting) error {
	from := state.Record(*m.FromLocationID)
	result, err := consumeLayers(ctx, cost, state, m, p)
	if err != nil {
		return err
	}
	before := from.Quantity
	if err := from.Increment(m.Quantity.Neg()); err != nil {
		return err
	}
	p.Records = append(p.Records, from)
	p.Entries = append(p.Entries, newLedgerEntry(m, from.LocationID, before, from.Quantity, result.UnitCost, result.TotalCost, result.Estimated, at))
	return nil
}

// postTransfer moves stock between locations. Cost layers belong to the item,
// not to a location, so they are left as they are and the entries carry no cost.
func postTransfer(state *PostingState, m *Movement, at time.Time, p *Posting) error {
	from := state.Record(*m.FromLocationID)
	to := state.Record(*m.ToLocationID)

	fromBefore := from.Quantity
	if err := from.Increment(m.Quantity.Neg()); err != nil {
		return err
	}
	toBefore := to.Quantity
	if err := to.Increment(m.Quantity); err != nil {
		return err
	}

	p.Records = append(p.Records, from, to)
	p.Entries = append(p.Entries,
		newLedgerEntry(m, from.LocationID, fromBefore, from.Quantity, decimal.Zero, decimal.Zero, false, at),
		newLedgerEntry(m, to.LocationID, toBefore, to.Quantity, decimal.Zero, decimal.Zero, false, at),
	)
	return nil
}

func postAdjust(state *PostingState, m *Movement, at time.Time, p *Posting) {
	rec := state.Record(m.AdjustLocation())
	before := rec.Quantity
	effective := rec.IncrementClamped(m.Quantity)
	unitCost := state.Item.AverageCost
	p.Records = append(p.Records, rec)
	p.Entries = append(p.Entries, newLedgerEntry(m, rec.LocationID, before, rec.Quantity, unitCost, effective.Abs().Mul(unitCost), false, at))
}

// consumeLayers prices an outgoing movement against the item's open layers and
// consumes the draws. Which location the stock leaves from does not matter.
func consumeLayers(ctx context.Context, cost strategy.CostCalculationStrategy, state *PostingState, m *Movement, p *Posting) (strategy.CostResult, error) {
	result, err := cost.CalculateCost(ctx, strategy.CostContext{
		ItemID:      m.ItemID.String(),
		Quantity:    m.Quantity,
		AverageCost: state.Item.AverageCost,
		Date:        m.CreatedAt,
	}, StrategyLayers(state.Layers))
	if err != nil {
		return strategy.CostResult{}, fmt.Errorf("calculate %s cost: %w", cost.Method(), err)
	}
	changed, err := ConsumeDraws(state.Layers, result.Draws)
	if err != nil {
		return strategy.CostResult{}, err
	}
	state.Layers = OpenLayers(state.Layers)
	p.ChangedLayers = append(p.ChangedLayers, changed...)
	return result, nil
}
