package models

import (
	"testing"
	"time"

	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableNames(t *testing.T) {
	assert.Equal(t, "ledger_items", LedgerItemModel{}.TableName())
	assert.Equal(t, "locations", LocationModel{}.TableName())
	assert.Equal(t, "stock_records", StockRecordModel{}.TableName())
	assert.Equal(t, "movements", MovementModel{}.TableName())
	assert.Equal(t, "cost_layers", CostLayerModel{}.TableName())
	assert.Equal(t, "ledger_entries", LedgerEntryModel{}.TableName())
	assert.Len(t, AllModels(), 6)
}

func TestLedgerItemModel_RoundTrip(t *testing.T) {
	item, err := ledger.NewItem("PAINT-01", "Primer", ledger.ValuationFIFO)
	require.NoError(t, err)
	threshold := decimal.NewFromInt(5)
	require.NoError(t, item.SetLowStockThreshold(&threshold))
	item.AverageCost = decimal.RequireFromString("12.345678")

	model := LedgerItemModelFromDomain(item)
	assert.Equal(t, "FIFO", model.ValuationMethod)
	assert.True(t, model.ThresholdTracking)
	assert.Equal(t, item.Version, model.Version)

	back := model.ToDomain()
	assert.Equal(t, item.ID, back.ID)
	assert.Equal(t, item.SKU, back.SKU)
	assert.Equal(t, ledger.ValuationFIFO, back.ValuationMethod)
	assert.True(t, back.AverageCost.Equal(item.AverageCost))
	require.NotNil(t, back.LowStockThreshold)
	assert.True(t, back.LowStockThreshold.Equal(threshold))

	// the domain copy must not alias the model
	*model.LowStockThreshold = decimal.NewFromInt(99)
	assert.True(t, back.LowStockThreshold.Equal(threshold))
}

func TestLedgerItemModel_ClearsThreshold(t *testing.T) {
	item, err := ledger.NewItem("NAILS", "Nails", ledger.ValuationAverage)
	require.NoError(t, err)

	model := &LedgerItemModel{LowStockThreshold: &decimal.Zero, ThresholdTracking: true}
	model.FromDomain(item)

	assert.Nil(t, model.LowStockThreshold)
	assert.False(t, model.ThresholdTracking)
}

func TestLocationModel_Site(t *testing.T) {
	project := uuid.New()
	loc, err := ledger.NewSiteLocation("Lot 7", project)
	require.NoError(t, err)

	back := LocationModelFromDomain(loc).ToDomain()
	assert.False(t, back.IsStorage)
	require.NotNil(t, back.ProjectID)
	assert.Equal(t, project, *back.ProjectID)
	assert.True(t, back.IsSite())
}

func TestMovementModel_RoundTrip(t *testing.T) {
	from, to := uuid.New(), uuid.New()
	cost := decimal.NewFromInt(4)
	mv, err := ledger.NewMovement(ledger.MovementParams{
		ItemID:         uuid.New(),
		Type:           ledger.MovementTypeTransfer,
		Quantity:       decimal.NewFromInt(3),
		UnitCost:       &cost,
		FromLocationID: &from,
		ToLocationID:   &to,
		CreatedBy:      "crew-lead",
		Reason:         "restock site",
	})
	require.NoError(t, err)
	require.NoError(t, mv.MarkApplied(time.Now()))

	model := MovementModelFromDomain(mv)
	assert.Equal(t, "TRANSFER", model.Type)
	assert.True(t, model.Applied)
	require.NotNil(t, model.AppliedAt)

	back := model.ToDomain()
	assert.Equal(t, mv.ID, back.ID)
	assert.Equal(t, ledger.MovementTypeTransfer, back.Type)
	assert.Equal(t, from, *back.FromLocationID)
	assert.Equal(t, to, *back.ToLocationID)
	assert.True(t, back.UnitCost.Equal(cost))
	assert.True(t, back.Applied)
	assert.Equal(t, "restock site", back.Reason)
}

func TestCostLayerModel_RoundTrip(t *testing.T) {
	received := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	layer := ledger.NewCostLayer(uuid.New(), uuid.New(), uuid.New(), decimal.NewFromInt(10), decimal.NewFromInt(7), received)
	require.NoError(t, layer.Consume(decimal.NewFromInt(4)))

	back := CostLayerModelFromDomain(layer).ToDomain()
	assert.Equal(t, layer.ID, back.ID)
	assert.True(t, back.OriginalQty.Equal(decimal.NewFromInt(10)))
	assert.True(t, back.RemainingQty.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, received, back.ReceivedAt)
}
