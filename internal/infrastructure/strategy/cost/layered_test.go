package cost

import (
	"context"
	"testing"
	"time"

	"github.com/Duran117/kibray-sub001/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func twoLayers() []strategy.CostLayer {
	return []strategy.CostLayer{
		// Deliberately out of order: strategies must sort by receipt time.
		{ID: "b", Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(30), ReceivedAt: baseTime.Add(time.Hour)},
		{ID: "a", Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(20), ReceivedAt: baseTime},
	}
}

func TestNewCostStrategies(t *testing.T) {
	tests := []struct {
		name       string
		s          strategy.CostCalculationStrategy
		wantName   string
		wantMethod strategy.CostMethod
		wantLayers bool
	}{
		{"fifo", NewFIFOCostStrategy(), "fifo", strategy.CostMethodFIFO, true},
		{"lifo", NewLIFOCostStrategy(), "lifo", strategy.CostMethodLIFO, true},
		{"moving average", NewMovingAverageCostStrategy(), "moving_average", strategy.CostMethodAverage, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantName, tt.s.Name())
			assert.Equal(t, tt.wantMethod, tt.s.Method())
			assert.Equal(t, tt.wantLayers, tt.s.UsesLayers())
			assert.NotEmpty(t, tt.s.Description())
		})
	}
}

func TestFIFOCostStrategy_CalculateCost(t *testing.T) {
	s := NewFIFOCostStrategy()

	result, err := s.CalculateCost(context.Background(), strategy.CostContext{
		Quantity: decimal.NewFromInt(15),
		Date:     baseTime.Add(2 * time.Hour),
	}, twoLayers())
	require.NoError(t, err)

	assert.True(t, result.TotalCost.Equal(decimal.NewFromInt(350)), "got %s", result.TotalCost)
	assert.True(t, result.UnitCost.Equal(decimal.RequireFromString("23.333333")), "got %s", result.UnitCost)
	assert.False(t, result.Estimated)
	assert.True(t, result.ShortfallQty.IsZero())
	require.Len(t, result.Draws, 2)
	assert.Equal(t, "a", result.Draws[0].LayerID)
	assert.True(t, result.Draws[0].Quantity.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "b", result.Draws[1].LayerID)
	assert.True(t, result.Draws[1].Quantity.Equal(decimal.NewFromInt(5)))
}

func TestLIFOCostStrategy_CalculateCost(t *testing.T) {
	s := NewLIFOCostStrategy()

	result, err := s.CalculateCost(context.Background(), strategy.CostContext{
		Quantity: decimal.NewFromInt(15),
	}, twoLayers())
	require.NoError(t, err)

	assert.True(t, result.TotalCost.Equal(decimal.NewFromInt(400)), "got %s", result.TotalCost)
	assert.False(t, result.Estimated)
	require.Len(t, result.Draws, 2)
	assert.Equal(t, "b", result.Draws[0].LayerID)
	assert.Equal(t, "a", result.Draws[1].LayerID)
	assert.True(t, result.Draws[1].Quantity.Equal(decimal.NewFromInt(5)))
}

func TestLayeredCostStrategies_Shortfall(t *testing.T) {
	ctx := context.Background()
	costCtx := strategy.CostContext{
		Quantity:    decimal.NewFromInt(25),
		AverageCost: decimal.NewFromInt(99),
		Date:        baseTime.Add(3 * time.Hour),
	}

	t.Run("fifo prices remainder at oldest layer", func(t *testing.T) {
		result, err := NewFIFOCostStrategy().CalculateCost(ctx, costCtx, twoLayers())
		require.NoError(t, err)
		// 10*20 + 10*30 + 5*20
		assert.True(t, result.TotalCost.Equal(decimal.NewFromInt(600)), "got %s", result.TotalCost)
		assert.True(t, result.Estimated)
		assert.True(t, result.ShortfallQty.Equal(decimal.NewFromInt(5)))
		last := result.Draws[len(result.Draws)-1]
		assert.True(t, last.IsShortfall())
		assert.Equal(t, costCtx.Date, last.ReceivedAt)
	})

	t.Run("lifo prices remainder at newest layer", func(t *testing.T) {
		result, err := NewLIFOCostStrategy().CalculateCost(ctx, costCtx, twoLayers())
		require.NoError(t, err)
		// 10*30 + 10*20 + 5*30
		assert.True(t, result.TotalCost.Equal(decimal.NewFromInt(650)), "got %s", result.TotalCost)
		assert.True(t, result.Estimated)
	})

	t.Run("no layers falls back to average cost", func(t *testing.T) {
		result, err := NewFIFOCostStrategy().CalculateCost(ctx, costCtx, nil)
		require.NoError(t, err)
		assert.True(t, result.TotalCost.Equal(decimal.NewFromInt(25*99)))
		assert.True(t, result.UnitCost.Equal(decimal.NewFromInt(99)))
		assert.True(t, result.Estimated)
	})

	t.Run("exhausted layers are ignored", func(t *testing.T) {
		layers := []strategy.CostLayer{{ID: "x", Quantity: decimal.Zero, UnitCost: decimal.NewFromInt(1), ReceivedAt: baseTime}}
		result, err := NewLIFOCostStrategy().CalculateCost(ctx, costCtx, layers)
		require.NoError(t, err)
		assert.True(t, result.UnitCost.Equal(decimal.NewFromInt(99)))
	})
}

func TestLayeredCostStrategies_NegativeQuantity(t *testing.T) {
	_, err := NewFIFOCostStrategy().CalculateCost(context.Background(), strategy.CostContext{Quantity: decimal.NewFromInt(-1)}, nil)
	assert.ErrorIs(t, err, errNegativeQuantity)

	_, err = NewLIFOCostStrategy().CalculateValue(context.Background(), decimal.NewFromInt(-1), decimal.Zero, nil)
	assert.ErrorIs(t, err, errNegativeQuantity)
}

func TestCostStrategies_CalculateValue(t *testing.T) {
	ctx := context.Background()
	remaining := []strategy.CostLayer{
		{ID: "a", Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(20), ReceivedAt: baseTime},
		{ID: "b", Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(30), ReceivedAt: baseTime.Add(time.Hour)},
	}

	tests := []struct {
		name          string
		s             strategy.CostCalculationStrategy
		onHand        int64
		average       decimal.Decimal
		wantTotal     decimal.Decimal
		wantEstimated bool
	}{
		{"fifo keeps newest", NewFIFOCostStrategy(), 5, decimal.Zero, decimal.NewFromInt(150), false},
		{"lifo keeps oldest", NewLIFOCostStrategy(), 5, decimal.Zero, decimal.NewFromInt(100), false},
		{"fifo full book", NewFIFOCostStrategy(), 20, decimal.Zero, decimal.NewFromInt(500), false},
		{"fifo unbacked at oldest", NewFIFOCostStrategy(), 22, decimal.Zero, decimal.NewFromInt(540), true},
		{"lifo unbacked at newest", NewLIFOCostStrategy(), 22, decimal.Zero, decimal.NewFromInt(560), true},
		{"average", NewMovingAverageCostStrategy(), 4, decimal.NewFromInt(25), decimal.NewFromInt(100), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.s.CalculateValue(ctx, decimal.NewFromInt(tt.onHand), tt.average, remaining)
			require.NoError(t, err)
			assert.True(t, result.TotalCost.Equal(tt.wantTotal), "got %s want %s", result.TotalCost, tt.wantTotal)
			assert.Equal(t, tt.wantEstimated, result.Estimated)
			assert.True(t, result.Quantity.Equal(decimal.NewFromInt(tt.onHand)))
		})
	}
}

func TestCostStrategies_CalculateValue_Empty(t *testing.T) {
	result, err := NewFIFOCostStrategy().CalculateValue(context.Background(), decimal.Zero, decimal.NewFromInt(7), nil)
	require.NoError(t, err)
	assert.True(t, result.TotalCost.IsZero())
	assert.True(t, result.UnitCost.IsZero())
	assert.False(t, result.Estimated)
}

func TestMovingAverageCostStrategy_CalculateCost(t *testing.T) {
	result, err := NewMovingAverageCostStrategy().CalculateCost(context.Background(), strategy.CostContext{
		Quantity:    decimal.NewFromInt(4),
		AverageCost: decimal.NewFromInt(25),
	}, nil)
	require.NoError(t, err)
	assert.True(t, result.TotalCost.Equal(decimal.NewFromInt(100)))
	assert.True(t, result.UnitCost.Equal(decimal.NewFromInt(25)))
	assert.False(t, result.Estimated)
	assert.Empty(t, result.Draws)
}
