package procurement

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/shared"
)

// ReceiptFilter defines filtering options for receipt queries
type ReceiptFilter struct {
	shared.Filter
	SupplierID *uuid.UUID
	LocationID *uuid.UUID
	Status     *ReceiptStatus
}

// GoodsReceiptRepository defines the interface for receipt persistence
type GoodsReceiptRepository interface {
	// FindByID finds a receipt with its lines by ID
	FindByID(ctx context.Context, id uuid.UUID) (*GoodsReceipt, error)

	// FindByIDForUpdate finds a receipt with a row-level lock so concurrent
	// processing attempts are serialized. Must be called inside a transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*GoodsReceipt, error)

	// FindByNumber finds a receipt by its receipt number
	FindByNumber(ctx context.Context, receiptNumber string) (*GoodsReceipt, error)

	// FindAll lists receipts with filtering and pagination
	FindAll(ctx context.Context, filter ReceiptFilter) (shared.Paginated[GoodsReceipt], error)

	// Save creates or updates a receipt and its lines
	Save(ctx context.Context, receipt *GoodsReceipt) error
}
