package procurement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDraftReceipt(t *testing.T) *GoodsReceipt {
	t.Helper()
	gr, err := NewGoodsReceipt("GR-2026-0001", uuid.New(), uuid.New())
	require.NoError(t, err)
	gr.ClearDomainEvents()
	return gr
}

func addTestLine(t *testing.T, gr *GoodsReceipt) {
	t.Helper()
	expiry := time.Now().AddDate(2, 0, 0)
	err := gr.AddLine(uuid.New(), "LOT-A", &expiry, decimal.NewFromInt(100), decimal.NewFromInt(95), decimal.NewFromFloat(4.50))
	require.NoError(t, err)
}

func TestNewGoodsReceipt(t *testing.T) {
	t.Run("creates draft", func(t *testing.T) {
		gr, err := NewGoodsReceipt("GR-1", uuid.New(), uuid.New())
		require.NoError(t, err)
		assert.Equal(t, ReceiptStatusDraft, gr.Status)
		assert.Empty(t, gr.Lines)
	})

	t.Run("rejects invalid inputs", func(t *testing.T) {
		_, err := NewGoodsReceipt("", uuid.New(), uuid.New())
		assert.Error(t, err)
		_, err = NewGoodsReceipt("GR-1", uuid.Nil, uuid.New())
		assert.Error(t, err)
		_, err = NewGoodsReceipt("GR-1", uuid.New(), uuid.Nil)
		assert.Error(t, err)
	})
}

func TestGoodsReceipt_AddLine(t *testing.T) {
	t.Run("adds line to draft", func(t *testing.T) {
		gr := newDraftReceipt(t)
		addTestLine(t, gr)

		require.Len(t, gr.Lines, 1)
		assert.True(t, gr.Lines[0].LineTotal().Equal(decimal.NewFromFloat(427.5)))
	})

	t.Run("rejects accepted quantity above received", func(t *testing.T) {
		gr := newDraftReceipt(t)
		err := gr.AddLine(uuid.New(), "LOT-A", nil, decimal.NewFromInt(10), decimal.NewFromInt(11), decimal.NewFromInt(1))
		assert.Error(t, err)
	})

	t.Run("rejects lines once submitted", func(t *testing.T) {
		gr := newDraftReceipt(t)
		addTestLine(t, gr)
		require.NoError(t, gr.Submit())

		err := gr.AddLine(uuid.New(), "LOT-B", nil, decimal.NewFromInt(10), decimal.NewFromInt(10), decimal.NewFromInt(1))
		assert.Error(t, err)
	})
}

func TestGoodsReceipt_Lifecycle(t *testing.T) {
	t.Run("draft to completed", func(t *testing.T) {
		gr := newDraftReceipt(t)
		addTestLine(t, gr)

		require.NoError(t, gr.Submit())
		assert.Equal(t, ReceiptStatusSubmitted, gr.Status)

		require.NoError(t, gr.Approve(uuid.New()))
		assert.Equal(t, ReceiptStatusApproved, gr.Status)
		assert.True(t, gr.IsApproved())

		require.NoError(t, gr.Complete())
		assert.Equal(t, ReceiptStatusCompleted, gr.Status)
		assert.NotNil(t, gr.CompletedAt)
	})

	t.Run("cannot submit an empty receipt", func(t *testing.T) {
		gr := newDraftReceipt(t)
		assert.Error(t, gr.Submit())
	})

	t.Run("cannot approve a draft", func(t *testing.T) {
		gr := newDraftReceipt(t)
		addTestLine(t, gr)
		assert.Error(t, gr.Approve(uuid.New()))
	})

	t.Run("cannot complete without approval", func(t *testing.T) {
		gr := newDraftReceipt(t)
		addTestLine(t, gr)
		require.NoError(t, gr.Submit())
		assert.Error(t, gr.Complete())
	})

	t.Run("cannot complete twice", func(t *testing.T) {
		gr := newDraftReceipt(t)
		addTestLine(t, gr)
		require.NoError(t, gr.Submit())
		require.NoError(t, gr.Approve(uuid.New()))
		require.NoError(t, gr.Complete())
		assert.Error(t, gr.Complete())
	})

	t.Run("cancel blocked in terminal states", func(t *testing.T) {
		gr := newDraftReceipt(t)
		addTestLine(t, gr)
		require.NoError(t, gr.Submit())
		require.NoError(t, gr.Approve(uuid.New()))
		require.NoError(t, gr.Complete())
		assert.Error(t, gr.Cancel("too late"))
	})

	t.Run("cancel requires reason", func(t *testing.T) {
		gr := newDraftReceipt(t)
		assert.Error(t, gr.Cancel(""))
		require.NoError(t, gr.Cancel("duplicate entry"))
		assert.Equal(t, ReceiptStatusCancelled, gr.Status)
	})
}

func TestGoodsReceipt_AcceptedLines(t *testing.T) {
	gr := newDraftReceipt(t)
	addTestLine(t, gr)
	// Fully rejected line does not produce a lot
	require.NoError(t, gr.AddLine(uuid.New(), "LOT-B", nil, decimal.NewFromInt(10), decimal.Zero, decimal.NewFromInt(1)))

	accepted := gr.AcceptedLines()
	require.Len(t, accepted, 1)
	assert.Equal(t, "LOT-A", accepted[0].LotNumber)
}
