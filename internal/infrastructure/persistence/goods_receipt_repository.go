package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/procurement"
	"github.com/pharmstock/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormGoodsReceiptRepository implements GoodsReceiptRepository using GORM
type GormGoodsReceiptRepository struct {
	db *gorm.DB
}

// NewGormGoodsReceiptRepository creates a new GormGoodsReceiptRepository
func NewGormGoodsReceiptRepository(db *gorm.DB) *GormGoodsReceiptRepository {
	return &GormGoodsReceiptRepository{db: db}
}

// FindByID finds a receipt with its lines by ID
func (r *GormGoodsReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.GoodsReceipt, error) {
	var receipt procurement.GoodsReceipt
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&receipt, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &receipt, nil
}

// FindByIDForUpdate finds a receipt with a row-level exclusive lock. Two
// workers trying to process the same receipt serialize here; the loser sees
// COMPLETED and is rejected.
func (r *GormGoodsReceiptRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*procurement.GoodsReceipt, error) {
	var receipt procurement.GoodsReceipt
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&receipt, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	// Preload cannot ride along with FOR UPDATE on the root row
	if err := r.db.WithContext(ctx).
		Where("receipt_id = ?", id).
		Order("created_at").
		Find(&receipt.Lines).Error; err != nil {
		return nil, translateError(err)
	}
	return &receipt, nil
}

// FindByNumber finds a receipt by its receipt number
func (r *GormGoodsReceiptRepository) FindByNumber(ctx context.Context, receiptNumber string) (*procurement.GoodsReceipt, error) {
	var receipt procurement.GoodsReceipt
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("receipt_number = ?", receiptNumber).
		First(&receipt).Error; err != nil {
		return nil, translateError(err)
	}
	return &receipt, nil
}

// FindAll lists receipts with filtering and pagination
func (r *GormGoodsReceiptRepository) FindAll(ctx context.Context, filter procurement.ReceiptFilter) (shared.Paginated[procurement.GoodsReceipt], error) {
	query := r.db.WithContext(ctx).Model(&procurement.GoodsReceipt{})

	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.LocationID != nil {
		query = query.Where("location_id = ?", *filter.LocationID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[procurement.GoodsReceipt]{}, translateError(err)
	}

	var receipts []procurement.GoodsReceipt
	if err := applyPagination(query.Preload("Lines"), filter.Filter).Find(&receipts).Error; err != nil {
		return shared.Paginated[procurement.GoodsReceipt]{}, translateError(err)
	}

	page, pageSize := normalizePage(filter.Filter)
	return shared.NewPaginated(receipts, total, page, pageSize), nil
}

// Save creates or updates a receipt and its lines
func (r *GormGoodsReceiptRepository) Save(ctx context.Context, receipt *procurement.GoodsReceipt) error {
	return translateError(r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(receipt).Error)
}

var _ procurement.GoodsReceiptRepository = (*GormGoodsReceiptRepository)(nil)
