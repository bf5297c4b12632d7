package ledger

import (
	"context"
	"fmt"

	"github.com/Duran117/kibray-sub001/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// LayerBook rebuilds an item's ledger state in memory by replaying its applied
// movements through Post. It backs point-in-time valuation.
type LayerBook struct {
	cost  strategy.CostCalculationStrategy
	state *PostingState
	cogs  decimal.Decimal
}

// NewLayerBook creates an empty book for item
func NewLayerBook(item *Item, cost strategy.CostCalculationStrategy) *LayerBook {
	replayItem := &Item{
		BaseAggregateRoot: item.BaseAggregateRoot,
		SKU:               item.SKU,
		Name:              item.Name,
		ValuationMethod:   item.ValuationMethod,
		AverageCost:       decimal.Zero,
	}
	return &LayerBook{
		cost:  cost,
		state: NewPostingState(replayItem, decimal.Zero),
		cogs:  decimal.Zero,
	}
}

// Replay posts movements in the order given. Movements must already be applied
// and sorted by application time.
func (b *LayerBook) Replay(ctx context.Context, movements []*Movement) error {
	for _, m := range movements {
		if !m.Applied || m.AppliedAt == nil {
			return fmt.Errorf("replay movement %s: not applied", m.ID)
		}
		p, err := Post(ctx, b.cost, b.state, m, *m.AppliedAt)
		if err != nil {
			return fmt.Errorf("replay movement %s: %w", m.ID, err)
		}
		b.cogs = b.cogs.Add(p.COGS())
	}
	return nil
}

// OnHand returns the replayed aggregate quantity
func (b *LayerBook) OnHand() decimal.Decimal {
	return b.state.ItemTotal
}

// AverageCost returns the replayed moving average
func (b *LayerBook) AverageCost() decimal.Decimal {
	return b.state.Item.AverageCost
}

// COGS returns the cost of every outgoing movement replayed so far
func (b *LayerBook) COGS() decimal.Decimal {
	return b.cogs
}

// Layers returns the item's open layers, oldest first
func (b *LayerBook) Layers() []*CostLayer {
	open := OpenLayers(b.state.Layers)
	SortLayers(open)
	return open
}

// Value values the replayed on-hand quantity
func (b *LayerBook) Value(ctx context.Context) (strategy.ValuationResult, error) {
	return b.cost.CalculateValue(ctx, b.OnHand(), b.AverageCost(), StrategyLayers(b.Layers()))
}
