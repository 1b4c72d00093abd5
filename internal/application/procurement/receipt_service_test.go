package procurement

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/procurement"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReceiptRepo struct {
	receipts map[uuid.UUID]*procurement.GoodsReceipt
}

func newFakeReceiptRepo() *fakeReceiptRepo {
	return &fakeReceiptRepo{receipts: make(map[uuid.UUID]*procurement.GoodsReceipt)}
}

func (r *fakeReceiptRepo) FindByID(_ context.Context, id uuid.UUID) (*procurement.GoodsReceipt, error) {
	if gr, ok := r.receipts[id]; ok {
		cp := *gr
		return &cp, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeReceiptRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*procurement.GoodsReceipt, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeReceiptRepo) FindByNumber(_ context.Context, receiptNumber string) (*procurement.GoodsReceipt, error) {
	for _, gr := range r.receipts {
		if gr.ReceiptNumber == receiptNumber {
			cp := *gr
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeReceiptRepo) FindAll(_ context.Context, _ procurement.ReceiptFilter) (shared.Paginated[procurement.GoodsReceipt], error) {
	out := make([]procurement.GoodsReceipt, 0, len(r.receipts))
	for _, gr := range r.receipts {
		out = append(out, *gr)
	}
	return shared.NewPaginated(out, int64(len(out)), 1, 20), nil
}

func (r *fakeReceiptRepo) Save(_ context.Context, receipt *procurement.GoodsReceipt) error {
	cp := *receipt
	r.receipts[receipt.ID] = &cp
	return nil
}

func TestReceiptService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewReceiptService(newFakeReceiptRepo())

	created, err := svc.Create(ctx, CreateReceiptRequest{
		ReceiptNumber: "GR-2026-0100",
		SupplierID:    uuid.New(),
		LocationID:    uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, "DRAFT", created.Status)

	_, err = svc.AddLine(ctx, created.ID, AddLineRequest{
		DrugID:           uuid.New(),
		LotNumber:        "LOT-A",
		ReceivedQuantity: decimal.NewFromInt(100),
		AcceptedQuantity: decimal.NewFromInt(95),
		UnitCost:         decimal.NewFromFloat(2.5),
	})
	require.NoError(t, err)

	submitted, err := svc.Submit(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "SUBMITTED", submitted.Status)

	approved, err := svc.Approve(ctx, created.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", approved.Status)
	assert.NotNil(t, approved.ApprovedAt)
	assert.True(t, approved.TotalValue.Equal(decimal.NewFromFloat(237.5)))
}

func TestReceiptService_Create_DuplicateNumber(t *testing.T) {
	ctx := context.Background()
	svc := NewReceiptService(newFakeReceiptRepo())

	req := CreateReceiptRequest{ReceiptNumber: "GR-2026-0200", SupplierID: uuid.New(), LocationID: uuid.New()}
	_, err := svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = svc.Create(ctx, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrAlreadyExists))
}

func TestReceiptService_Cancel(t *testing.T) {
	ctx := context.Background()
	svc := NewReceiptService(newFakeReceiptRepo())

	created, err := svc.Create(ctx, CreateReceiptRequest{ReceiptNumber: "GR-2026-0300", SupplierID: uuid.New(), LocationID: uuid.New()})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, created.ID, CancelReceiptRequest{Reason: "supplier recalled shipment"})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.Equal(t, "supplier recalled shipment", cancelled.CancelReason)

	// Terminal receipts cannot move again
	_, err = svc.Submit(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestReceiptService_Submit_RequiresLines(t *testing.T) {
	ctx := context.Background()
	svc := NewReceiptService(newFakeReceiptRepo())

	created, err := svc.Create(ctx, CreateReceiptRequest{ReceiptNumber: "GR-2026-0400", SupplierID: uuid.New(), LocationID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, created.ID)
	assert.Error(t, err)
}
