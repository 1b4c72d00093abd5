package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeLot(t *testing.T, lotNumber string, quantity int64, received time.Time, expiry *time.Time) DrugLot {
	t.Helper()
	lot, err := NewDrugLot(uuid.New(), uuid.New(), lotNumber, expiry, decimal.NewFromInt(quantity), decimal.NewFromFloat(1.25))
	require.NoError(t, err)
	lot.ReceivedDate = received
	return *lot
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestSelectLots_FIFO(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	oldest := makeLot(t, "A", 10, now.AddDate(0, -3, 0), nil)
	middle := makeLot(t, "B", 20, now.AddDate(0, -2, 0), nil)
	newest := makeLot(t, "C", 30, now.AddDate(0, -1, 0), nil)

	t.Run("consumes oldest received first", func(t *testing.T) {
		result, err := SelectLots(decimal.NewFromInt(15), []DrugLot{newest, oldest, middle}, SelectionPolicyFIFO, now)
		require.NoError(t, err)

		require.Len(t, result.Allocations, 2)
		assert.Equal(t, "A", result.Allocations[0].LotNumber)
		assert.True(t, result.Allocations[0].QuantityToUse.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, "B", result.Allocations[1].LotNumber)
		assert.True(t, result.Allocations[1].QuantityToUse.Equal(decimal.NewFromInt(5)))
		assert.True(t, result.FullyAllocated)
		assert.True(t, result.Shortfall.IsZero())
	})

	t.Run("includes expired lots", func(t *testing.T) {
		expired := makeLot(t, "X", 10, now.AddDate(0, -6, 0), datePtr(2024, 1, 1))
		result, err := SelectLots(decimal.NewFromInt(10), []DrugLot{oldest, expired}, SelectionPolicyFIFO, now)
		require.NoError(t, err)

		require.Len(t, result.Allocations, 1)
		assert.Equal(t, "X", result.Allocations[0].LotNumber)
	})

	t.Run("returns partial allocation when stock insufficient", func(t *testing.T) {
		result, err := SelectLots(decimal.NewFromInt(100), []DrugLot{oldest, middle}, SelectionPolicyFIFO, now)
		require.NoError(t, err)

		assert.False(t, result.FullyAllocated)
		assert.True(t, result.TotalAllocated.Equal(decimal.NewFromInt(30)))
		assert.True(t, result.Shortfall.Equal(decimal.NewFromInt(70)))
	})
}

func TestSelectLots_FEFO(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("consumes soonest expiry first", func(t *testing.T) {
		first := makeLot(t, "A", 10, now.AddDate(0, -1, 0), datePtr(2025, 1, 1))
		second := makeLot(t, "B", 20, now.AddDate(0, -2, 0), datePtr(2025, 6, 1))

		result, err := SelectLots(decimal.NewFromInt(15), []DrugLot{second, first}, SelectionPolicyFEFO, now)
		require.NoError(t, err)

		require.Len(t, result.Allocations, 2)
		assert.Equal(t, "A", result.Allocations[0].LotNumber)
		assert.True(t, result.Allocations[0].QuantityToUse.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, "B", result.Allocations[1].LotNumber)
		assert.True(t, result.Allocations[1].QuantityToUse.Equal(decimal.NewFromInt(5)))
	})

	t.Run("never touches expired lots", func(t *testing.T) {
		expired := makeLot(t, "X", 50, now.AddDate(0, -6, 0), datePtr(2024, 5, 1))
		valid := makeLot(t, "V", 10, now.AddDate(0, -1, 0), datePtr(2025, 1, 1))

		result, err := SelectLots(decimal.NewFromInt(30), []DrugLot{expired, valid}, SelectionPolicyFEFO, now)
		require.NoError(t, err)

		require.Len(t, result.Allocations, 1)
		assert.Equal(t, "V", result.Allocations[0].LotNumber)
		assert.True(t, result.Shortfall.Equal(decimal.NewFromInt(20)))
	})

	t.Run("lots without expiry sort last", func(t *testing.T) {
		noExpiry := makeLot(t, "N", 10, now.AddDate(0, -3, 0), nil)
		expiring := makeLot(t, "E", 10, now.AddDate(0, -1, 0), datePtr(2025, 1, 1))

		result, err := SelectLots(decimal.NewFromInt(15), []DrugLot{noExpiry, expiring}, SelectionPolicyFEFO, now)
		require.NoError(t, err)

		require.Len(t, result.Allocations, 2)
		assert.Equal(t, "E", result.Allocations[0].LotNumber)
		assert.Equal(t, "N", result.Allocations[1].LotNumber)
	})
}

func TestSelectLots_Validation(t *testing.T) {
	now := time.Now()

	_, err := SelectLots(decimal.Zero, nil, SelectionPolicyFIFO, now)
	assert.Error(t, err)

	_, err = SelectLots(decimal.NewFromInt(1), nil, SelectionPolicy("LIFO"), now)
	assert.Error(t, err)

	result, err := SelectLots(decimal.NewFromInt(5), nil, SelectionPolicyFIFO, now)
	require.NoError(t, err)
	assert.Empty(t, result.Allocations)
	assert.True(t, result.Shortfall.Equal(decimal.NewFromInt(5)))
}

func TestSelectLots_AllocationNeverExceedsRequestedOrAvailable(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	lots := []DrugLot{
		makeLot(t, "A", 7, now.AddDate(0, -3, 0), datePtr(2025, 1, 1)),
		makeLot(t, "B", 13, now.AddDate(0, -2, 0), datePtr(2025, 2, 1)),
		makeLot(t, "C", 5, now.AddDate(0, -1, 0), datePtr(2025, 3, 1)),
	}
	available := decimal.NewFromInt(25)

	for _, requested := range []int64{1, 12, 25, 40} {
		result, err := SelectLots(decimal.NewFromInt(requested), lots, SelectionPolicyFEFO, now)
		require.NoError(t, err)

		sum := decimal.Zero
		for _, a := range result.Allocations {
			sum = sum.Add(a.QuantityToUse)
		}
		assert.True(t, sum.Equal(result.TotalAllocated))
		expected := decimal.Min(decimal.NewFromInt(requested), available)
		assert.True(t, result.TotalAllocated.Equal(expected), "requested %d, allocated %s", requested, result.TotalAllocated)
	}
}

func TestSelectLots_WeightedAverageCost(t *testing.T) {
	now := time.Now()
	cheap := makeLot(t, "A", 10, now.AddDate(0, -2, 0), nil)
	cheap.UnitCost = decimal.NewFromInt(10)
	dear := makeLot(t, "B", 10, now.AddDate(0, -1, 0), nil)
	dear.UnitCost = decimal.NewFromInt(20)

	result, err := SelectLots(decimal.NewFromInt(20), []DrugLot{cheap, dear}, SelectionPolicyFIFO, now)
	require.NoError(t, err)

	assert.True(t, result.TotalCost.Equal(decimal.NewFromInt(300)))
	assert.True(t, result.WeightedAverageCost.Equal(decimal.NewFromInt(15)))
}

func TestTotalAvailable(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	expired := makeLot(t, "X", 50, now.AddDate(0, -6, 0), datePtr(2024, 5, 1))
	valid := makeLot(t, "V", 10, now.AddDate(0, -1, 0), datePtr(2025, 1, 1))
	lots := []DrugLot{expired, valid}

	assert.True(t, TotalAvailable(lots, SelectionPolicyFIFO, now).Equal(decimal.NewFromInt(60)))
	assert.True(t, TotalAvailable(lots, SelectionPolicyFEFO, now).Equal(decimal.NewFromInt(10)))
}
