package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	budgetapp "github.com/pharmstock/backend/internal/application/budget"
	"github.com/pharmstock/backend/internal/application/retry"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/pharmstock/backend/internal/infrastructure/persistence"
)

func newBudgetService(tdb *TestDB) *budgetapp.BudgetService {
	allocationRepo := persistence.NewGormBudgetAllocationRepository(tdb.DB)
	reservationRepo := persistence.NewGormBudgetReservationRepository(tdb.DB)
	scope := persistence.NewGormBudgetTransactionScope(tdb.DB)

	svc := budgetapp.NewBudgetService(allocationRepo, reservationRepo, scope)
	svc.SetClock(func() time.Time {
		return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	})
	return svc
}

func TestBudget_ConcurrentReserves_OnlyOneWins(t *testing.T) {
	tdb := NewTestDB(t)
	svc := newBudgetService(tdb)
	ctx := context.Background()

	budgetID := uuid.New()
	_, err := svc.CreateAllocation(ctx, budgetapp.CreateAllocationRequest{
		BudgetID:    budgetID,
		FiscalYear:  2026,
		TotalBudget: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	// Each reserve asks for more than half the budget, so at most one can win
	const workers = 8
	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = retry.OnConflict(ctx, retry.DefaultOptions(), func(ctx context.Context) error {
				_, err := svc.Reserve(ctx, budgetapp.ReserveBudgetRequest{
					BudgetID:      budgetID,
					Amount:        decimal.NewFromInt(60),
					ReferenceType: "PURCHASE_ORDER",
					ReferenceID:   uuid.New(),
				})
				return err
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, shared.ErrInsufficientBudget, "losers must fail the budget check, not corrupt state")
	}
	require.Equal(t, 1, successes)

	alloc, err := svc.GetAllocationByBudget(ctx, budgetID)
	require.NoError(t, err)
	assert.True(t, alloc.RemainingBudget.Equal(decimal.NewFromInt(40)),
		"remaining should reflect exactly one reservation, got %s", alloc.RemainingBudget)
}

func TestBudget_CommitMovesReservedToSpent(t *testing.T) {
	tdb := NewTestDB(t)
	svc := newBudgetService(tdb)
	ctx := context.Background()

	budgetID := uuid.New()
	_, err := svc.CreateAllocation(ctx, budgetapp.CreateAllocationRequest{
		BudgetID:    budgetID,
		FiscalYear:  2026,
		TotalBudget: decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	reserved, err := svc.Reserve(ctx, budgetapp.ReserveBudgetRequest{
		BudgetID:      budgetID,
		Amount:        decimal.NewFromInt(120),
		ReferenceType: "GOODS_RECEIPT",
		ReferenceID:   uuid.New(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Commit(ctx, reserved.ReservationID))

	alloc, err := svc.GetAllocationByBudget(ctx, budgetID)
	require.NoError(t, err)
	assert.True(t, alloc.TotalSpent.Equal(decimal.NewFromInt(120)))
	assert.True(t, alloc.RemainingBudget.Equal(decimal.NewFromInt(380)))

	// Terminal state: a second commit must fail without touching the ledger
	err = svc.Commit(ctx, reserved.ReservationID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	alloc, err = svc.GetAllocationByBudget(ctx, budgetID)
	require.NoError(t, err)
	assert.True(t, alloc.TotalSpent.Equal(decimal.NewFromInt(120)))
}

func TestBudget_ReleaseRestoresFunds(t *testing.T) {
	tdb := NewTestDB(t)
	svc := newBudgetService(tdb)
	ctx := context.Background()

	budgetID := uuid.New()
	_, err := svc.CreateAllocation(ctx, budgetapp.CreateAllocationRequest{
		BudgetID:    budgetID,
		FiscalYear:  2026,
		TotalBudget: decimal.NewFromInt(200),
	})
	require.NoError(t, err)

	reserved, err := svc.Reserve(ctx, budgetapp.ReserveBudgetRequest{
		BudgetID:      budgetID,
		Amount:        decimal.NewFromInt(150),
		ReferenceType: "DISTRIBUTION",
		ReferenceID:   uuid.New(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Release(ctx, reserved.ReservationID))

	alloc, err := svc.GetAllocationByBudget(ctx, budgetID)
	require.NoError(t, err)
	assert.True(t, alloc.RemainingBudget.Equal(decimal.NewFromInt(200)))
	assert.True(t, alloc.TotalSpent.IsZero())

	// Released funds are reservable again
	_, err = svc.Reserve(ctx, budgetapp.ReserveBudgetRequest{
		BudgetID:      budgetID,
		Amount:        decimal.NewFromInt(180),
		ReferenceType: "PURCHASE_ORDER",
		ReferenceID:   uuid.New(),
	})
	require.NoError(t, err)
}
