package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormDrugLotRepository implements DrugLotRepository using GORM
type GormDrugLotRepository struct {
	db *gorm.DB
}

// NewGormDrugLotRepository creates a new GormDrugLotRepository
func NewGormDrugLotRepository(db *gorm.DB) *GormDrugLotRepository {
	return &GormDrugLotRepository{db: db}
}

// FindByID finds a lot by its ID
func (r *GormDrugLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.DrugLot, error) {
	var lot inventory.DrugLot
	if err := r.db.WithContext(ctx).First(&lot, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &lot, nil
}

// FindActiveByItem lists the active lots with remaining quantity for an
// aggregate. No row locks are taken here; callers mutate lots only while
// holding the owning aggregate's lock.
func (r *GormDrugLotRepository) FindActiveByItem(ctx context.Context, inventoryItemID uuid.UUID) ([]inventory.DrugLot, error) {
	var lots []inventory.DrugLot
	if err := r.db.WithContext(ctx).
		Where("inventory_item_id = ? AND is_active = ? AND quantity_available > 0", inventoryItemID, true).
		Order("received_date").
		Find(&lots).Error; err != nil {
		return nil, translateError(err)
	}
	return lots, nil
}

// FindByReceipt lists the lots created by a goods receipt
func (r *GormDrugLotRepository) FindByReceipt(ctx context.Context, receiptID uuid.UUID) ([]inventory.DrugLot, error) {
	var lots []inventory.DrugLot
	if err := r.db.WithContext(ctx).
		Where("receipt_id = ?", receiptID).
		Order("created_at").
		Find(&lots).Error; err != nil {
		return nil, translateError(err)
	}
	return lots, nil
}

// FindExpiringBefore lists active lots with stock expiring before the
// deadline, optionally scoped to a location via the owning aggregate
func (r *GormDrugLotRepository) FindExpiringBefore(ctx context.Context, deadline time.Time, locationID *uuid.UUID) ([]inventory.DrugLot, error) {
	query := r.db.WithContext(ctx).Model(&inventory.DrugLot{}).
		Where("drug_lots.is_active = ? AND drug_lots.quantity_available > 0", true).
		Where("drug_lots.expiry_date IS NOT NULL AND drug_lots.expiry_date < ?", deadline)

	if locationID != nil {
		query = query.
			Joins("JOIN inventory ON inventory.id = drug_lots.inventory_item_id").
			Where("inventory.location_id = ?", *locationID)
	}

	var lots []inventory.DrugLot
	if err := query.Order("drug_lots.expiry_date").Find(&lots).Error; err != nil {
		return nil, translateError(err)
	}
	return lots, nil
}

// Save creates or updates a lot
func (r *GormDrugLotRepository) Save(ctx context.Context, lot *inventory.DrugLot) error {
	return translateError(r.db.WithContext(ctx).Save(lot).Error)
}

// SaveAll creates or updates multiple lots in one round trip
func (r *GormDrugLotRepository) SaveAll(ctx context.Context, lots []*inventory.DrugLot) error {
	if len(lots) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Save(lots).Error)
}

var _ inventory.DrugLotRepository = (*GormDrugLotRepository)(nil)
