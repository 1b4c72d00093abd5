package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inventoryapp "github.com/pharmstock/backend/internal/application/inventory"
	procurementapp "github.com/pharmstock/backend/internal/application/procurement"
	"github.com/pharmstock/backend/internal/application/retry"
	"github.com/pharmstock/backend/internal/domain/inventory"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/pharmstock/backend/internal/infrastructure/persistence"
)

type inventoryFixture struct {
	inventoryService *inventoryapp.InventoryService
	receiptService   *procurementapp.ReceiptService
	ctx              context.Context
	t                *testing.T
	drugID           uuid.UUID
	locationID       uuid.UUID
}

func newInventoryFixture(t *testing.T) *inventoryFixture {
	tdb := NewTestDB(t)

	inventoryRepo := persistence.NewGormInventoryRepository(tdb.DB)
	lotRepo := persistence.NewGormDrugLotRepository(tdb.DB)
	transactionRepo := persistence.NewGormInventoryTransactionRepository(tdb.DB)
	receiptRepo := persistence.NewGormGoodsReceiptRepository(tdb.DB)
	scope := persistence.NewGormInventoryTransactionScope(tdb.DB)

	svc := inventoryapp.NewInventoryService(inventoryRepo, lotRepo, transactionRepo, scope)
	svc.SetClock(func() time.Time {
		return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	})

	return &inventoryFixture{
		inventoryService: svc,
		receiptService:   procurementapp.NewReceiptService(receiptRepo),
		ctx:              context.Background(),
		t:                t,
		drugID:           uuid.New(),
		locationID:       uuid.New(),
	}
}

// receiveLot drives a receipt through its lifecycle and into stock
func (f *inventoryFixture) receiveLot(receiptNumber, lotNumber string, qty, unitCost int64, expiry *time.Time) {
	f.t.Helper()

	created, err := f.receiptService.Create(f.ctx, procurementapp.CreateReceiptRequest{
		ReceiptNumber: receiptNumber,
		SupplierID:    uuid.New(),
		LocationID:    f.locationID,
	})
	require.NoError(f.t, err)

	quantity := decimal.NewFromInt(qty)
	_, err = f.receiptService.AddLine(f.ctx, created.ID, procurementapp.AddLineRequest{
		DrugID:           f.drugID,
		LotNumber:        lotNumber,
		ExpiryDate:       expiry,
		ReceivedQuantity: quantity,
		AcceptedQuantity: quantity,
		UnitCost:         decimal.NewFromInt(unitCost),
	})
	require.NoError(f.t, err)

	_, err = f.receiptService.Submit(f.ctx, created.ID)
	require.NoError(f.t, err)
	_, err = f.receiptService.Approve(f.ctx, created.ID, uuid.New())
	require.NoError(f.t, err)

	applied, err := f.inventoryService.ApplyReceipt(f.ctx, inventoryapp.ApplyReceiptRequest{ReceiptID: created.ID})
	require.NoError(f.t, err)
	require.Equal(f.t, 1, applied.LotsCreated)
}

// applyNewReceipt is receiveLot for goroutines: it returns the first error
// instead of failing the test
func (f *inventoryFixture) applyNewReceipt(receiptNumber, lotNumber string, qty, unitCost int64) error {
	created, err := f.receiptService.Create(f.ctx, procurementapp.CreateReceiptRequest{
		ReceiptNumber: receiptNumber,
		SupplierID:    uuid.New(),
		LocationID:    f.locationID,
	})
	if err != nil {
		return err
	}

	quantity := decimal.NewFromInt(qty)
	if _, err := f.receiptService.AddLine(f.ctx, created.ID, procurementapp.AddLineRequest{
		DrugID:           f.drugID,
		LotNumber:        lotNumber,
		ReceivedQuantity: quantity,
		AcceptedQuantity: quantity,
		UnitCost:         decimal.NewFromInt(unitCost),
	}); err != nil {
		return err
	}
	if _, err := f.receiptService.Submit(f.ctx, created.ID); err != nil {
		return err
	}
	if _, err := f.receiptService.Approve(f.ctx, created.ID, uuid.New()); err != nil {
		return err
	}

	return retry.OnConflict(f.ctx, retry.DefaultOptions(), func(ctx context.Context) error {
		_, err := f.inventoryService.ApplyReceipt(ctx, inventoryapp.ApplyReceiptRequest{ReceiptID: created.ID})
		return err
	})
}

func datePtr(t time.Time) *time.Time { return &t }

func TestInventory_ReceiptUpdatesWeightedAverageCost(t *testing.T) {
	f := newInventoryFixture(t)

	f.receiveLot("GR-001", "LOT-A", 100, 10, nil)
	f.receiveLot("GR-002", "LOT-B", 100, 20, nil)

	item, err := f.inventoryService.GetByDrugAndLocation(f.ctx, f.drugID, f.locationID)
	require.NoError(t, err)
	assert.True(t, item.QuantityOnHand.Equal(decimal.NewFromInt(200)))
	assert.True(t, item.LastCost.Equal(decimal.NewFromInt(20)))
	// (100*10 + 100*20) / 200
	assert.True(t, item.AverageCost.Equal(decimal.NewFromInt(15)),
		"expected weighted average 15, got %s", item.AverageCost)
}

func TestInventory_FefoDeductsEarliestExpiryFirst(t *testing.T) {
	f := newInventoryFixture(t)

	late := datePtr(time.Date(2027, 12, 1, 0, 0, 0, 0, time.UTC))
	soon := datePtr(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	f.receiveLot("GR-001", "LOT-LATE", 100, 10, late)
	f.receiveLot("GR-002", "LOT-SOON", 100, 12, soon)

	resp, err := f.inventoryService.Deduct(f.ctx, inventoryapp.DeductRequest{
		DrugID:        f.drugID,
		LocationID:    f.locationID,
		Quantity:      decimal.NewFromInt(120),
		ReferenceType: string(inventory.ReferenceDistributionOrder),
		ReferenceID:   uuid.New(),
		Policy:        string(inventory.SelectionPolicyFEFO),
	})
	require.NoError(t, err)

	require.Len(t, resp.LotsUsed, 2)
	assert.Equal(t, "LOT-SOON", resp.LotsUsed[0].LotNumber)
	assert.True(t, resp.LotsUsed[0].Quantity.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "LOT-LATE", resp.LotsUsed[1].LotNumber)
	assert.True(t, resp.LotsUsed[1].Quantity.Equal(decimal.NewFromInt(20)))

	item, err := f.inventoryService.GetByDrugAndLocation(f.ctx, f.drugID, f.locationID)
	require.NoError(t, err)
	assert.True(t, item.QuantityOnHand.Equal(decimal.NewFromInt(80)))
}

func TestInventory_OversellRollsBackEverything(t *testing.T) {
	f := newInventoryFixture(t)

	f.receiveLot("GR-001", "LOT-A", 50, 10, nil)

	_, err := f.inventoryService.Deduct(f.ctx, inventoryapp.DeductRequest{
		DrugID:        f.drugID,
		LocationID:    f.locationID,
		Quantity:      decimal.NewFromInt(80),
		ReferenceType: string(inventory.ReferenceDistributionOrder),
		ReferenceID:   uuid.New(),
		Policy:        string(inventory.SelectionPolicyFIFO),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	// Nothing may have moved: no partial lot drain, no log entry
	item, err := f.inventoryService.GetByDrugAndLocation(f.ctx, f.drugID, f.locationID)
	require.NoError(t, err)
	assert.True(t, item.QuantityOnHand.Equal(decimal.NewFromInt(50)))

	txs, err := f.inventoryService.ListTransactions(f.ctx, inventory.TransactionFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), txs.Total, "only the receipt transaction should exist")
	assert.Equal(t, string(inventory.TransactionTypeReceipt), txs.Items[0].TransactionType)
}

func TestInventory_ConcurrentReceiptsAndDeductsStayConsistent(t *testing.T) {
	f := newInventoryFixture(t)

	f.receiveLot("GR-000", "LOT-SEED", 100, 10, nil)

	// Receipts and deductions race for the same aggregate row; both sides
	// take its lock, so no update may be lost in either direction
	const pairs = 4
	var wg sync.WaitGroup
	receiptErrs := make([]error, pairs)
	deductErrs := make([]error, pairs)
	for i := 0; i < pairs; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			receiptErrs[i] = f.applyNewReceipt(fmt.Sprintf("GR-%03d", i+1), fmt.Sprintf("LOT-%03d", i+1), 20, 10)
		}(i)
		go func(i int) {
			defer wg.Done()
			deductErrs[i] = retry.OnConflict(f.ctx, retry.DefaultOptions(), func(ctx context.Context) error {
				_, err := f.inventoryService.Deduct(ctx, inventoryapp.DeductRequest{
					DrugID:        f.drugID,
					LocationID:    f.locationID,
					Quantity:      decimal.NewFromInt(10),
					ReferenceType: string(inventory.ReferenceDistributionOrder),
					ReferenceID:   uuid.New(),
					Policy:        string(inventory.SelectionPolicyFIFO),
				})
				return err
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < pairs; i++ {
		require.NoError(t, receiptErrs[i], "receipt %d", i)
		require.NoError(t, deductErrs[i], "deduct %d", i)
	}

	item, err := f.inventoryService.GetByDrugAndLocation(f.ctx, f.drugID, f.locationID)
	require.NoError(t, err)
	assert.True(t, item.QuantityOnHand.Equal(decimal.NewFromInt(140)),
		"100 + 4*20 - 4*10 expected, got %s", item.QuantityOnHand)

	// The aggregate must still equal the sum of its active lots
	lots, err := f.inventoryService.GetFifoLots(f.ctx, inventoryapp.SelectLotsRequest{
		DrugID:         f.drugID,
		LocationID:     f.locationID,
		QuantityNeeded: decimal.NewFromInt(100000),
	})
	require.NoError(t, err)
	assert.True(t, item.QuantityOnHand.Equal(lots.TotalAllocated),
		"aggregate %s diverged from lot total %s", item.QuantityOnHand, lots.TotalAllocated)
}

func TestInventory_ConcurrentDeductsNeverOversell(t *testing.T) {
	f := newInventoryFixture(t)

	f.receiveLot("GR-001", "LOT-A", 100, 10, nil)

	// 8 workers each want 30; only 3 can be satisfied from 100
	const workers = 8
	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = retry.OnConflict(f.ctx, retry.DefaultOptions(), func(ctx context.Context) error {
				_, err := f.inventoryService.Deduct(ctx, inventoryapp.DeductRequest{
					DrugID:        f.drugID,
					LocationID:    f.locationID,
					Quantity:      decimal.NewFromInt(30),
					ReferenceType: string(inventory.ReferenceDistributionOrder),
					ReferenceID:   uuid.New(),
					Policy:        string(inventory.SelectionPolicyFIFO),
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
		} else {
			assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		}
	}
	require.Equal(t, 3, successes)

	item, err := f.inventoryService.GetByDrugAndLocation(f.ctx, f.drugID, f.locationID)
	require.NoError(t, err)
	assert.True(t, item.QuantityOnHand.Equal(decimal.NewFromInt(10)),
		"100 - 3*30 must remain, got %s", item.QuantityOnHand)
}
