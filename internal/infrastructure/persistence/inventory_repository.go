package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/inventory"
	"github.com/pharmstock/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInventoryRepository implements InventoryRepository using GORM
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewGormInventoryRepository creates a new GormInventoryRepository
func NewGormInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

// FindByID finds an inventory aggregate by its ID
func (r *GormInventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryItem, error) {
	var item inventory.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

// FindByDrugAndLocation finds the aggregate for a (drug, location) pair
func (r *GormInventoryRepository) FindByDrugAndLocation(ctx context.Context, drugID, locationID uuid.UUID) (*inventory.InventoryItem, error) {
	var item inventory.InventoryItem
	if err := r.db.WithContext(ctx).
		Where("drug_id = ? AND location_id = ?", drugID, locationID).
		First(&item).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

// FindByDrugAndLocationForUpdate finds the aggregate with a row-level
// exclusive lock. The lock covers the aggregate's lots: lot rows are only
// mutated while this lock is held.
func (r *GormInventoryRepository) FindByDrugAndLocationForUpdate(ctx context.Context, drugID, locationID uuid.UUID) (*inventory.InventoryItem, error) {
	var item inventory.InventoryItem
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("drug_id = ? AND location_id = ?", drugID, locationID).
		First(&item).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

// GetOrCreate gets the existing aggregate or creates an empty one. ON
// CONFLICT DO NOTHING absorbs the race when two receipts create the same
// (drug, location) pair at once.
func (r *GormInventoryRepository) GetOrCreate(ctx context.Context, drugID, locationID uuid.UUID) (*inventory.InventoryItem, error) {
	item, err := r.FindByDrugAndLocation(ctx, drugID, locationID)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	item, err = inventory.NewInventoryItem(drugID, locationID)
	if err != nil {
		return nil, err
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "drug_id"}, {Name: "location_id"}},
			DoNothing: true,
		}).
		Create(item)
	if res.Error != nil {
		return nil, translateError(res.Error)
	}

	// Conflict means someone else created the row, fetch theirs
	if res.RowsAffected == 0 {
		return r.FindByDrugAndLocation(ctx, drugID, locationID)
	}

	return item, nil
}

// GetOrCreateForUpdate gets or creates the aggregate and returns it under the
// row-level exclusive lock. The first receipt for a pair inserts the empty
// row and then locks it; the re-read also resolves a lost creation race.
func (r *GormInventoryRepository) GetOrCreateForUpdate(ctx context.Context, drugID, locationID uuid.UUID) (*inventory.InventoryItem, error) {
	item, err := r.FindByDrugAndLocationForUpdate(ctx, drugID, locationID)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	item, err = inventory.NewInventoryItem(drugID, locationID)
	if err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "drug_id"}, {Name: "location_id"}},
			DoNothing: true,
		}).
		Create(item).Error; err != nil {
		return nil, translateError(err)
	}

	return r.FindByDrugAndLocationForUpdate(ctx, drugID, locationID)
}

// FindByLocation lists aggregates at a location
func (r *GormInventoryRepository) FindByLocation(ctx context.Context, locationID uuid.UUID, filter shared.Filter) (shared.Paginated[inventory.InventoryItem], error) {
	query := r.db.WithContext(ctx).Model(&inventory.InventoryItem{}).
		Where("location_id = ?", locationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[inventory.InventoryItem]{}, translateError(err)
	}

	var items []inventory.InventoryItem
	if err := applyPagination(query, filter).Find(&items).Error; err != nil {
		return shared.Paginated[inventory.InventoryItem]{}, translateError(err)
	}

	page, pageSize := normalizePage(filter)
	return shared.NewPaginated(items, total, page, pageSize), nil
}

// FindBelowThreshold lists aggregates under their configured minimum
func (r *GormInventoryRepository) FindBelowThreshold(ctx context.Context, locationID *uuid.UUID) ([]inventory.InventoryItem, error) {
	query := r.db.WithContext(ctx).Model(&inventory.InventoryItem{}).
		Where("min_quantity > 0 AND quantity_on_hand < min_quantity")
	if locationID != nil {
		query = query.Where("location_id = ?", *locationID)
	}

	var items []inventory.InventoryItem
	if err := query.Order("quantity_on_hand").Find(&items).Error; err != nil {
		return nil, translateError(err)
	}
	return items, nil
}

// Save creates or updates an aggregate
func (r *GormInventoryRepository) Save(ctx context.Context, item *inventory.InventoryItem) error {
	return translateError(r.db.WithContext(ctx).Omit("Lots").Save(item).Error)
}

var _ inventory.InventoryRepository = (*GormInventoryRepository)(nil)
