package ledger

import (
	"testing"

	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockRecord_Increment(t *testing.T) {
	rec := NewStockRecord(uuid.New(), uuid.New())

	require.NoError(t, rec.Increment(decimal.NewFromInt(5)))
	require.NoError(t, rec.Increment(decimal.NewFromInt(-5)))
	assert.True(t, rec.Quantity.IsZero())

	err := rec.Increment(decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, shared.ErrNegativeStock)
	assert.True(t, rec.Quantity.IsZero(), "rejected increment must not change the record")
}

func TestStockRecord_IncrementClamped(t *testing.T) {
	tests := []struct {
		name          string
		start         int64
		delta         int64
		wantQuantity  int64
		wantEffective int64
	}{
		{"clamps large negative adjustment", 3, -1000, 0, -3},
		{"partial decrease", 10, -4, 6, -4},
		{"increase", 2, 8, 10, 8},
		{"already empty", 0, -5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewStockRecord(uuid.New(), uuid.New())
			rec.Quantity = decimal.NewFromInt(tt.start)

			effective := rec.IncrementClamped(decimal.NewFromInt(tt.delta))

			assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(tt.wantQuantity)), "quantity %s", rec.Quantity)
			assert.True(t, effective.Equal(decimal.NewFromInt(tt.wantEffective)), "effective %s", effective)
			assert.False(t, rec.Quantity.IsNegative())
		})
	}
}

func TestStockKey_Less(t *testing.T) {
	item := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	a := StockKey{ItemID: item, LocationID: uuid.MustParse("00000000-0000-0000-0000-00000000000a")}
	b := StockKey{ItemID: item, LocationID: uuid.MustParse("00000000-0000-0000-0000-00000000000b")}

	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.False(t, a.Less(a))
}
