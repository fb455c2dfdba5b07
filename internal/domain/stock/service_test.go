package stock

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func testLevels() map[string]Level {
	return map[string]Level{
		"JBL Charge 4":    {Available: 10, UnitWeight: d("0.96")},
		"Sony WH-1000XM4": {Available: 0, UnitWeight: d("0.25")},
		"LG OLED55CX":     {Available: 3, UnitWeight: d("23.0")},
	}
}

func TestService_CheckAvailability(t *testing.T) {
	tests := []struct {
		name       string
		items      map[string]int
		wantWeight decimal.Decimal
		wantErr    func(t *testing.T, err error)
	}{
		{
			name:       "single product in stock",
			items:      map[string]int{"JBL Charge 4": 3},
			wantWeight: d("2.88"),
		},
		{
			name:       "several products accumulate weight",
			items:      map[string]int{"JBL Charge 4": 1, "LG OLED55CX": 2},
			wantWeight: d("46.96"),
		},
		{
			name:       "exact available quantity is enough",
			items:      map[string]int{"LG OLED55CX": 3},
			wantWeight: d("69"),
		},
		{
			name:       "empty request weighs nothing",
			items:      map[string]int{},
			wantWeight: decimal.Zero,
		},
		{
			name:  "out of stock product fails the whole check",
			items: map[string]int{"JBL Charge 4": 1, "Sony WH-1000XM4": 1},
			wantErr: func(t *testing.T, err error) {
				var sErr *ShortfallError
				require.ErrorAs(t, err, &sErr)
				assert.Equal(t, "Sony WH-1000XM4", sErr.Product)
				assert.Equal(t, 1, sErr.Required)
				assert.Equal(t, 0, sErr.Available)
			},
		},
		{
			name:  "quantity above available fails",
			items: map[string]int{"LG OLED55CX": 4},
			wantErr: func(t *testing.T, err error) {
				var sErr *ShortfallError
				require.ErrorAs(t, err, &sErr)
				assert.Equal(t, 3, sErr.Available)
			},
		},
		{
			name:  "zero quantity is rejected",
			items: map[string]int{"JBL Charge 4": 0},
			wantErr: func(t *testing.T, err error) {
				var qErr *InvalidQuantityError
				require.ErrorAs(t, err, &qErr)
				assert.Equal(t, "JBL Charge 4", qErr.Product)
				assert.Equal(t, 0, qErr.Quantity)
			},
		},
		{
			// Would otherwise pass against an empty shelf and subtract weight.
			name:  "negative quantity is rejected",
			items: map[string]int{"LG OLED55CX": 1, "Sony WH-1000XM4": -2},
			wantErr: func(t *testing.T, err error) {
				var qErr *InvalidQuantityError
				require.ErrorAs(t, err, &qErr)
				assert.Equal(t, "Sony WH-1000XM4", qErr.Product)
				assert.Equal(t, -2, qErr.Quantity)
			},
		},
		{
			name:  "unknown product fails closed",
			items: map[string]int{"JBL Charge 4": 1, "Nokia 3310": 1},
			wantErr: func(t *testing.T, err error) {
				var uErr *UnknownProductError
				require.ErrorAs(t, err, &uErr)
				assert.Equal(t, "Nokia 3310", uErr.Product)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(testLevels())

			weight, err := svc.CheckAvailability(context.Background(), tt.items)
			if tt.wantErr != nil {
				require.Error(t, err)
				tt.wantErr(t, err)
				assert.True(t, weight.IsZero(), "weight must be zero on failure, got %s", weight)
				return
			}

			require.NoError(t, err)
			assert.True(t, tt.wantWeight.Equal(weight), "want %s, got %s", tt.wantWeight, weight)
		})
	}
}

func TestService_CopiesLevels(t *testing.T) {
	levels := testLevels()
	svc := NewService(levels)

	levels["JBL Charge 4"] = Level{Available: 0}

	_, err := svc.CheckAvailability(context.Background(), map[string]int{"JBL Charge 4": 1})
	require.NoError(t, err)
}

func TestService_DoesNotReserve(t *testing.T) {
	svc := NewService(testLevels())
	items := map[string]int{"LG OLED55CX": 3}

	for range 3 {
		_, err := svc.CheckAvailability(context.Background(), items)
		require.NoError(t, err)
	}

	lvl, ok := svc.Level("LG OLED55CX")
	require.True(t, ok)
	assert.Equal(t, 3, lvl.Available)
}

func TestService_CancelledContext(t *testing.T) {
	svc := NewService(testLevels())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.CheckAvailability(ctx, map[string]int{"JBL Charge 4": 1})
	require.ErrorIs(t, err, context.Canceled)
}
