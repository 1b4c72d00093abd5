package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/shared"
)

// TransactionFilter defines filtering options for transaction log queries
type TransactionFilter struct {
	shared.Filter
	InventoryItemID *uuid.UUID
	DrugID          *uuid.UUID
	LocationID      *uuid.UUID
	TransactionType *TransactionType
	ReferenceType   *TransactionReferenceType
	ReferenceID     *uuid.UUID
	FromDate        *time.Time
	ToDate          *time.Time
}

// InventoryRepository defines the interface for inventory aggregate persistence
type InventoryRepository interface {
	// FindByID finds an inventory aggregate by ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryItem, error)

	// FindByDrugAndLocation finds the aggregate for a (drug, location) pair
	FindByDrugAndLocation(ctx context.Context, drugID, locationID uuid.UUID) (*InventoryItem, error)

	// FindByDrugAndLocationForUpdate finds the aggregate and acquires a
	// row-level exclusive lock, serializing concurrent deductions.
	// Must be called inside a transaction.
	FindByDrugAndLocationForUpdate(ctx context.Context, drugID, locationID uuid.UUID) (*InventoryItem, error)

	// GetOrCreate returns the aggregate for a (drug, location) pair,
	// creating an empty one if none exists. Safe under concurrent creation
	// of the same pair.
	GetOrCreate(ctx context.Context, drugID, locationID uuid.UUID) (*InventoryItem, error)

	// GetOrCreateForUpdate is GetOrCreate with the row-level exclusive lock
	// acquired on the returned aggregate. Must be called inside a
	// transaction; mutations go through this variant.
	GetOrCreateForUpdate(ctx context.Context, drugID, locationID uuid.UUID) (*InventoryItem, error)

	// FindByLocation lists aggregates at a location
	FindByLocation(ctx context.Context, locationID uuid.UUID, filter shared.Filter) (shared.Paginated[InventoryItem], error)

	// FindBelowThreshold lists aggregates whose on-hand quantity fell under
	// their configured minimum
	FindBelowThreshold(ctx context.Context, locationID *uuid.UUID) ([]InventoryItem, error)

	// Save creates or updates an aggregate
	Save(ctx context.Context, item *InventoryItem) error
}

// DrugLotRepository defines the interface for lot persistence. Lots are
// saved explicitly, never through the aggregate's association.
type DrugLotRepository interface {
	// FindByID finds a lot by ID
	FindByID(ctx context.Context, id uuid.UUID) (*DrugLot, error)

	// FindActiveByItem lists the active lots with remaining quantity for an
	// inventory aggregate, ordered by received date
	FindActiveByItem(ctx context.Context, inventoryItemID uuid.UUID) ([]DrugLot, error)

	// FindByReceipt lists the lots created by a goods receipt
	FindByReceipt(ctx context.Context, receiptID uuid.UUID) ([]DrugLot, error)

	// FindExpiringBefore lists active lots with stock expiring before the
	// deadline, optionally scoped to a location
	FindExpiringBefore(ctx context.Context, deadline time.Time, locationID *uuid.UUID) ([]DrugLot, error)

	// Save creates or updates a lot
	Save(ctx context.Context, lot *DrugLot) error

	// SaveAll creates or updates multiple lots in one round trip
	SaveAll(ctx context.Context, lots []*DrugLot) error
}

// InventoryTransactionRepository defines the interface for the append-only
// transaction log
type InventoryTransactionRepository interface {
	// Create appends a transaction row. Rows are never updated or deleted.
	Create(ctx context.Context, tx *InventoryTransaction) error

	// CreateAll appends multiple transaction rows in one round trip
	CreateAll(ctx context.Context, txs []*InventoryTransaction) error

	// FindByID finds a transaction by ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryTransaction, error)

	// FindAll lists transactions with filtering and pagination
	FindAll(ctx context.Context, filter TransactionFilter) (shared.Paginated[InventoryTransaction], error)

	// FindByReference lists the transactions triggered by a document
	FindByReference(ctx context.Context, referenceType TransactionReferenceType, referenceID uuid.UUID) ([]InventoryTransaction, error)
}
