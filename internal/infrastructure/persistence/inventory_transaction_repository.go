package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/inventory"
	"github.com/pharmstock/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormInventoryTransactionRepository implements the append-only transaction
// log using GORM. Rows are inserted with Create and never updated, so the log
// stays a faithful history of every stock movement.
type GormInventoryTransactionRepository struct {
	db *gorm.DB
}

// NewGormInventoryTransactionRepository creates a new GormInventoryTransactionRepository
func NewGormInventoryTransactionRepository(db *gorm.DB) *GormInventoryTransactionRepository {
	return &GormInventoryTransactionRepository{db: db}
}

// Create appends a transaction row
func (r *GormInventoryTransactionRepository) Create(ctx context.Context, tx *inventory.InventoryTransaction) error {
	return translateError(r.db.WithContext(ctx).Create(tx).Error)
}

// CreateAll appends multiple transaction rows in one insert
func (r *GormInventoryTransactionRepository) CreateAll(ctx context.Context, txs []*inventory.InventoryTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Create(txs).Error)
}

// FindByID finds a transaction by its ID
func (r *GormInventoryTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryTransaction, error) {
	var tx inventory.InventoryTransaction
	if err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &tx, nil
}

// FindAll lists transactions with filtering and pagination
func (r *GormInventoryTransactionRepository) FindAll(ctx context.Context, filter inventory.TransactionFilter) (shared.Paginated[inventory.InventoryTransaction], error) {
	query := r.db.WithContext(ctx).Model(&inventory.InventoryTransaction{})

	if filter.InventoryItemID != nil {
		query = query.Where("inventory_item_id = ?", *filter.InventoryItemID)
	}
	if filter.DrugID != nil {
		query = query.Where("drug_id = ?", *filter.DrugID)
	}
	if filter.LocationID != nil {
		query = query.Where("location_id = ?", *filter.LocationID)
	}
	if filter.TransactionType != nil {
		query = query.Where("transaction_type = ?", *filter.TransactionType)
	}
	if filter.ReferenceType != nil {
		query = query.Where("reference_type = ?", *filter.ReferenceType)
	}
	if filter.ReferenceID != nil {
		query = query.Where("reference_id = ?", *filter.ReferenceID)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at < ?", *filter.ToDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[inventory.InventoryTransaction]{}, translateError(err)
	}

	var txs []inventory.InventoryTransaction
	if err := applyPagination(query, filter.Filter).Find(&txs).Error; err != nil {
		return shared.Paginated[inventory.InventoryTransaction]{}, translateError(err)
	}

	page, pageSize := normalizePage(filter.Filter)
	return shared.NewPaginated(txs, total, page, pageSize), nil
}

// FindByReference lists the transactions triggered by a document
func (r *GormInventoryTransactionRepository) FindByReference(ctx context.Context, referenceType inventory.TransactionReferenceType, referenceID uuid.UUID) ([]inventory.InventoryTransaction, error) {
	var txs []inventory.InventoryTransaction
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", referenceType, referenceID).
		Order("created_at").
		Find(&txs).Error; err != nil {
		return nil, translateError(err)
	}
	return txs, nil
}

var _ inventory.InventoryTransactionRepository = (*GormInventoryTransactionRepository)(nil)
