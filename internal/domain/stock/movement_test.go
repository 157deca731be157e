package stock

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovementType_AllowsDelta(t *testing.T) {
	tests := []struct {
		movementType MovementType
		delta        int
		want         bool
	}{
		{MovementTypeReceipt, 5, true},
		{MovementTypeReceipt, -5, false},
		{MovementTypeReturn, 1, true},
		{MovementTypeTransferIn, -1, false},
		{MovementTypeSale, -2, true},
		{MovementTypeSale, 2, false},
		{MovementTypeLoss, -1, true},
		{MovementTypeTransferOut, 3, false},
		{MovementTypeAdjustment, 3, true},
		{MovementTypeAdjustment, -3, true},
		{MovementTypeCorrection, -1, true},
		{MovementTypeCorrection, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.movementType.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.movementType.AllowsDelta(tt.delta))
		})
	}
}

func TestMovementType_IsTransfer(t *testing.T) {
	assert.True(t, MovementTypeTransferIn.IsTransfer())
	assert.True(t, MovementTypeTransferOut.IsTransfer())
	assert.False(t, MovementTypeReceipt.IsTransfer())
}

func TestNewStockMovement(t *testing.T) {
	item := createTestStockItem(t, 10)

	t.Run("computes balance after", func(t *testing.T) {
		m, err := NewStockMovement(item, MovementTypeTransferOut, -4, 10, decimal.NewFromInt(2), " rebalance ", " TR-1 ")
		require.NoError(t, err)
		assert.Equal(t, 6, m.BalanceAfter)
		assert.Equal(t, "rebalance", m.Reason)
		assert.Equal(t, "TR-1", m.Reference)
		assert.Equal(t, item.VariantID, m.VariantID)
		assert.Equal(t, item.LocationID, m.LocationID)
		assert.True(t, m.TotalCost().Equal(decimal.NewFromInt(8)))
	})

	t.Run("negative balance rejected", func(t *testing.T) {
		_, err := NewStockMovement(item, MovementTypeLoss, -11, 10, decimal.Zero, "", "")
		assert.ErrorIs(t, err, ErrInvalidMovement)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		_, err := NewStockMovement(item, MovementType("GIFT"), 1, 10, decimal.Zero, "", "")
		assert.ErrorIs(t, err, ErrInvalidMovement)
	})

	t.Run("nil item rejected", func(t *testing.T) {
		_, err := NewStockMovement(nil, MovementTypeReceipt, 1, 0, decimal.Zero, "", "")
		assert.ErrorIs(t, err, ErrInvalidMovement)
	})
}
