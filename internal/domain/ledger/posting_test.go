package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/Duran117/kibray-sub001/internal/domain/shared/strategy"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/strategy/cost"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postingFixture struct {
	t         *testing.T
	item      *Item
	cost      strategy.CostCalculationStrategy
	state     *PostingState
	warehouse uuid.UUID
	site      uuid.UUID
	clock     time.Time
}

func newPostingFixture(t *testing.T, method ValuationMethod) *postingFixture {
	item, err := NewItem("REBAR-12", "Rebar 12mm", method)
	require.NoError(t, err)

	var s strategy.CostCalculationStrategy
	switch method {
	case ValuationFIFO:
		s = cost.NewFIFOCostStrategy()
	case ValuationLIFO:
		s = cost.NewLIFOCostStrategy()
	default:
		s = cost.NewMovingAverageCostStrategy()
	}

	return &postingFixture{
		t:         t,
		item:      item,
		cost:      s,
		state:     NewPostingState(item, decimal.Zero),
		warehouse: uuid.New(),
		site:      uuid.New(),
		clock:     time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC),
	}
}

func (f *postingFixture) movement(params MovementParams) *Movement {
	f.t.Helper()
	params.ItemID = f.item.ID
	m, err := NewMovement(params)
	require.NoError(f.t, err)
	f.clock = f.clock.Add(time.Minute)
	m.CreatedAt = f.clock
	return m
}

func (f *postingFixture) post(m *Movement) (*Posting, error) {
	return Post(context.Background(), f.cost, f.state, m, f.clock)
}

func (f *postingFixture) mustPost(m *Movement) *Posting {
	f.t.Helper()
	p, err := f.post(m)
	require.NoError(f.t, err)
	return p
}

func (f *postingFixture) receive(qty, unitCost int64) *Posting {
	return f.receiveAt(f.warehouse, qty, unitCost)
}

func (f *postingFixture) receiveAt(loc uuid.UUID, qty, unitCost int64) *Posting {
	return f.mustPost(f.movement(MovementParams{
		Type: MovementTypeReceive, Quantity: decimal.NewFromInt(qty), UnitCost: decPtr(unitCost), ToLocationID: &loc,
	}))
}

func (f *postingFixture) issue(qty int64) (*Posting, error) {
	return f.issueFrom(f.warehouse, qty)
}

func (f *postingFixture) issueFrom(loc uuid.UUID, qty int64) (*Posting, error) {
	return f.post(f.movement(MovementParams{
		Type: MovementTypeIssue, Quantity: decimal.NewFromInt(qty), FromLocationID: &loc,
	}))
}

func (f *postingFixture) transfer(qty int64, from, to uuid.UUID) *Posting {
	return f.mustPost(f.movement(MovementParams{
		Type: MovementTypeTransfer, Quantity: decimal.NewFromInt(qty), FromLocationID: &from, ToLocationID: &to,
	}))
}

func (f *postingFixture) onHand(loc uuid.UUID) decimal.Decimal {
	return f.state.OnHand(loc)
}

func (f *postingFixture) value() strategy.ValuationResult {
	f.t.Helper()
	v, err := f.cost.CalculateValue(context.Background(), f.state.ItemTotal, f.item.AverageCost, StrategyLayers(f.state.Layers))
	require.NoError(f.t, err)
	return v
}

func TestPost_ReceiveUpdatesAverage(t *testing.T) {
	f := newPostingFixture(t, ValuationAverage)

	p := f.receive(10, 20)
	assert.True(t, p.ItemChanged)
	assert.Empty(t, p.NewLayers, "average items keep no layers")
	f.receive(10, 30)

	assert.True(t, f.item.AverageCost.Equal(decimal.NewFromInt(25)), "got %s", f.item.AverageCost)
	assert.True(t, f.onHand(f.warehouse).Equal(decimal.NewFromInt(20)))
	assert.True(t, f.state.ItemTotal.Equal(decimal.NewFromInt(20)))

	out, err := f.issue(4)
	require.NoError(t, err)
	assert.True(t, out.COGS().Equal(decimal.NewFromInt(100)))
	assert.True(t, f.value().TotalCost.Equal(decimal.NewFromInt(400)))
}

func TestPost_FIFO(t *testing.T) {
	f := newPostingFixture(t, ValuationFIFO)
	f.receive(10, 20)
	f.receive(10, 30)

	p, err := f.issue(15)
	require.NoError(t, err)

	assert.True(t, p.COGS().Equal(decimal.NewFromInt(350)), "got %s", p.COGS())
	assert.False(t, p.Estimated())
	assert.Len(t, p.ChangedLayers, 2)
	assert.True(t, f.value().TotalCost.Equal(decimal.NewFromInt(150)))
	assert.True(t, f.item.AverageCost.IsZero(), "layered items do not maintain the moving average")
}

func TestPost_LIFO(t *testing.T) {
	f := newPostingFixture(t, ValuationLIFO)
	f.receive(10, 20)
	f.receive(10, 30)

	p, err := f.issue(15)
	require.NoError(t, err)

	assert.True(t, p.COGS().Equal(decimal.NewFromInt(400)), "got %s", p.COGS())
	assert.True(t, f.value().TotalCost.Equal(decimal.NewFromInt(100)))
}

func TestPost_InsufficientStockLeavesStateUnchanged(t *testing.T) {
	f := newPostingFixture(t, ValuationFIFO)
	f.receive(5, 10)
	layersBefore := len(f.state.Layers)
	remainingBefore := f.state.Layers[0].RemainingQty

	_, err := f.issue(6)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	assert.True(t, f.onHand(f.warehouse).Equal(decimal.NewFromInt(5)))
	assert.True(t, f.state.ItemTotal.Equal(decimal.NewFromInt(5)))
	assert.Len(t, f.state.Layers, layersBefore)
	assert.True(t, f.state.Layers[0].RemainingQty.Equal(remainingBefore))
}

func TestPost_IssueFromUnknownLocation(t *testing.T) {
	f := newPostingFixture(t, ValuationAverage)
	_, err := f.post(f.movement(MovementParams{Type: MovementTypeConsume, Quantity: decimal.NewFromInt(1), FromLocationID: &f.site}))

	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	_, created := f.state.Records[f.site]
	assert.False(t, created)
}

func TestPost_ValidationError(t *testing.T) {
	f := newPostingFixture(t, ValuationAverage)
	_, err := f.post(f.movement(MovementParams{Type: MovementTypeReceive, Quantity: decimal.NewFromInt(1), ToLocationID: &f.warehouse}))
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, f.state.Records)
}

func TestPost_TransferConservesQuantityAndValue(t *testing.T) {
	f := newPostingFixture(t, ValuationFIFO)
	f.receive(10, 20)
	f.receive(10, 30)
	before := f.value().TotalCost

	p := f.transfer(12, f.warehouse, f.site)

	assert.True(t, f.onHand(f.warehouse).Equal(decimal.NewFromInt(8)))
	assert.True(t, f.onHand(f.site).Equal(decimal.NewFromInt(12)))
	assert.True(t, f.state.ItemTotal.Equal(decimal.NewFromInt(20)))
	assert.True(t, p.COGS().IsZero(), "transfers are not cost of goods sold")
	require.Len(t, p.Entries, 2)
	assert.True(t, p.Entries[0].Delta.Add(p.Entries[1].Delta).IsZero())
	assert.True(t, f.value().TotalCost.Equal(before))
	assert.Empty(t, p.NewLayers)
	assert.Empty(t, p.ChangedLayers)
	require.Len(t, f.state.Layers, 2)
	assert.True(t, f.state.Layers[0].RemainingQty.Equal(decimal.NewFromInt(10)))

	// The item's layers still drive the cost, whichever location the stock leaves from.
	out, err := f.issueFrom(f.site, 11)
	require.NoError(t, err)
	assert.True(t, out.COGS().Equal(decimal.NewFromInt(230)), "got %s", out.COGS())
}

func TestPost_LayersSpanLocations(t *testing.T) {
	tests := []struct {
		name      string
		method    ValuationMethod
		wantCOGS  int64
		wantValue int64
	}{
		{name: "FIFO takes the oldest receipt", method: ValuationFIFO, wantCOGS: 200, wantValue: 300},
		{name: "LIFO takes the newest receipt", method: ValuationLIFO, wantCOGS: 300, wantValue: 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPostingFixture(t, tt.method)
			f.receiveAt(f.warehouse, 10, 20)
			f.receiveAt(f.site, 10, 30)

			p, err := f.issueFrom(f.site, 10)
			require.NoError(t, err)

			assert.True(t, p.COGS().Equal(decimal.NewFromInt(tt.wantCOGS)), "got %s", p.COGS())
			assert.False(t, p.Estimated())
			assert.True(t, f.onHand(f.site).IsZero())
			assert.True(t, f.onHand(f.warehouse).Equal(decimal.NewFromInt(10)))
			v := f.value()
			assert.True(t, v.TotalCost.Equal(decimal.NewFromInt(tt.wantValue)), "got %s", v.TotalCost)
			assert.False(t, v.Estimated)
		})
	}
}

func TestPost_IssueDrawsOnLayersReceivedElsewhere(t *testing.T) {
	f := newPostingFixture(t, ValuationFIFO)
	f.mustPost(f.movement(MovementParams{Type: MovementTypeAdjust, Quantity: decimal.NewFromInt(4), ToLocationID: &f.site}))
	f.receiveAt(f.warehouse, 10, 20)

	p, err := f.issueFrom(f.site, 4)
	require.NoError(t, err)

	// Layers received elsewhere still back the issue, so nothing is estimated.
	assert.True(t, p.COGS().Equal(decimal.NewFromInt(80)), "got %s", p.COGS())
	assert.False(t, p.Estimated())
}

func TestPost_UnbackedStockStaysEstimatedThroughTransfer(t *testing.T) {
	f := newPostingFixture(t, ValuationFIFO)
	f.mustPost(f.movement(MovementParams{Type: MovementTypeAdjust, Quantity: decimal.NewFromInt(10), ToLocationID: &f.warehouse}))
	require.True(t, f.value().Estimated)

	p := f.transfer(10, f.warehouse, f.site)

	assert.Empty(t, p.NewLayers)
	assert.Empty(t, f.state.Layers)
	v := f.value()
	assert.True(t, v.Estimated, "stock without a receipt behind it is still estimated after moving")
	assert.True(t, v.Quantity.Equal(decimal.NewFromInt(10)))
}

func TestPost_AdjustClampsAndSkipsLayers(t *testing.T) {
	f := newPostingFixture(t, ValuationFIFO)
	f.receive(3, 10)

	p := f.mustPost(f.movement(MovementParams{
		Type: MovementTypeAdjust, Quantity: decimal.NewFromInt(-1000), FromLocationID: &f.warehouse,
	}))

	assert.True(t, f.onHand(f.warehouse).IsZero())
	require.Len(t, p.Entries, 1)
	assert.True(t, p.Entries[0].Delta.Equal(decimal.NewFromInt(-3)), "entry records the effective delta")
	assert.True(t, f.state.ItemTotal.IsZero())
	assert.Empty(t, p.ChangedLayers)
	assert.True(t, f.state.Layers[0].RemainingQty.Equal(decimal.NewFromInt(3)))
}

func TestPost_ShortfallIsEstimated(t *testing.T) {
	f := newPostingFixture(t, ValuationFIFO)

	// Opening balance not backed by any receipt.
	f.mustPost(f.movement(MovementParams{Type: MovementTypeAdjust, Quantity: decimal.NewFromInt(5), ToLocationID: &f.warehouse}))
	f.receive(2, 10)

	p, err := f.issue(6)
	require.NoError(t, err)

	assert.True(t, p.Estimated())
	// 2@10 from the layer, 4 more at the oldest layer cost.
	assert.True(t, p.COGS().Equal(decimal.NewFromInt(60)), "got %s", p.COGS())
	assert.True(t, f.onHand(f.warehouse).Equal(decimal.NewFromInt(1)))

	v := f.value()
	assert.True(t, v.Estimated, "remaining stock has no layers behind it")
}

func TestPost_SumOfDeltasMatchesRecords(t *testing.T) {
	f := newPostingFixture(t, ValuationLIFO)
	var entries []*LedgerEntry
	collect := func(p *Posting) { entries = append(entries, p.Entries...) }

	collect(f.receive(8, 4))
	collect(f.receive(6, 5))
	collect(f.mustPost(f.movement(MovementParams{Type: MovementTypeTransfer, Quantity: decimal.NewFromInt(9), FromLocationID: &f.warehouse, ToLocationID: &f.site})))
	collect(f.mustPost(f.movement(MovementParams{Type: MovementTypeAdjust, Quantity: decimal.NewFromInt(-50), FromLocationID: &f.site})))
	p, err := f.issue(2)
	require.NoError(t, err)
	collect(p)

	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Delta)
		assert.False(t, e.BalanceAfter.IsNegative())
	}
	records := decimal.Zero
	for _, r := range f.state.Records {
		assert.False(t, r.Quantity.IsNegative())
		records = records.Add(r.Quantity)
	}
	assert.True(t, sum.Equal(records), "deltas %s records %s", sum, records)
	assert.True(t, records.Equal(decimal.NewFromInt(3)))
}

func TestPost_WrongItem(t *testing.T) {
	f := newPostingFixture(t, ValuationAverage)
	m, err := NewMovement(MovementParams{ItemID: uuid.New(), Type: MovementTypeReceive, Quantity: decimal.NewFromInt(1), UnitCost: decPtr(1), ToLocationID: &f.warehouse})
	require.NoError(t, err)

	_, err = f.post(m)
	assert.Error(t, err)
}
