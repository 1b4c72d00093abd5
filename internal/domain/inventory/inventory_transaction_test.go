package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInventoryTransaction(t *testing.T) {
	item := newTestItem(t)

	t.Run("tracks running balance", func(t *testing.T) {
		tx, err := NewInventoryTransaction(item, TransactionTypeReceipt, decimal.NewFromInt(50), decimal.NewFromInt(100), ReferenceGoodsReceipt, uuid.New())
		require.NoError(t, err)

		assert.True(t, tx.BalanceBefore.Equal(decimal.NewFromInt(100)))
		assert.True(t, tx.BalanceAfter.Equal(decimal.NewFromInt(150)))
		assert.True(t, tx.IsInbound())
	})

	t.Run("rejects sign mismatches", func(t *testing.T) {
		_, err := NewInventoryTransaction(item, TransactionTypeReceipt, decimal.NewFromInt(-5), decimal.Zero, ReferenceGoodsReceipt, uuid.New())
		assert.Error(t, err)

		_, err = NewInventoryTransaction(item, TransactionTypeDistribution, decimal.NewFromInt(5), decimal.NewFromInt(10), ReferenceDistributionOrder, uuid.New())
		assert.Error(t, err)

		_, err = NewInventoryTransaction(item, TransactionTypeReceipt, decimal.Zero, decimal.Zero, ReferenceGoodsReceipt, uuid.New())
		assert.Error(t, err)
	})

	t.Run("rejects invalid reference", func(t *testing.T) {
		_, err := NewInventoryTransaction(item, TransactionTypeReceipt, decimal.NewFromInt(5), decimal.Zero, TransactionReferenceType("BOGUS"), uuid.New())
		assert.Error(t, err)

		_, err = NewInventoryTransaction(item, TransactionTypeReceipt, decimal.NewFromInt(5), decimal.Zero, ReferenceGoodsReceipt, uuid.Nil)
		assert.Error(t, err)
	})
}

func TestCreateDistributionTransaction(t *testing.T) {
	item := newTestItem(t)

	tx, err := CreateDistributionTransaction(item, decimal.NewFromInt(30), decimal.NewFromInt(2), decimal.NewFromInt(100), ReferenceDistributionOrder, uuid.New())
	require.NoError(t, err)

	assert.True(t, tx.Quantity.Equal(decimal.NewFromInt(-30)))
	assert.True(t, tx.BalanceAfter.Equal(decimal.NewFromInt(70)))
	assert.True(t, tx.IsOutbound())
	require.NotNil(t, tx.UnitCost)
	assert.True(t, tx.TotalCost().Equal(decimal.NewFromInt(60)))
}

func TestCreateReceiptTransaction(t *testing.T) {
	item := newTestItem(t)

	tx, err := CreateReceiptTransaction(item, decimal.NewFromInt(50), decimal.NewFromInt(16), decimal.NewFromInt(100), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, TransactionTypeReceipt, tx.TransactionType)
	assert.Equal(t, ReferenceGoodsReceipt, tx.ReferenceType)
	assert.True(t, tx.BalanceAfter.Equal(decimal.NewFromInt(150)))
	assert.True(t, tx.TotalCost().Equal(decimal.NewFromInt(800)))
}
