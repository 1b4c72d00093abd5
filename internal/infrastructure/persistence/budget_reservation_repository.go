package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/budget"
	"github.com/pharmstock/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBudgetReservationRepository implements BudgetReservationRepository using GORM
type GormBudgetReservationRepository struct {
	db *gorm.DB
}

// NewGormBudgetReservationRepository creates a new GormBudgetReservationRepository
func NewGormBudgetReservationRepository(db *gorm.DB) *GormBudgetReservationRepository {
	return &GormBudgetReservationRepository{db: db}
}

// FindByID finds a reservation by its ID
func (r *GormBudgetReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*budget.BudgetReservation, error) {
	var reservation budget.BudgetReservation
	if err := r.db.WithContext(ctx).First(&reservation, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &reservation, nil
}

// FindByIDForUpdate finds a reservation with a row-level exclusive lock so a
// commit and a release racing on the same reservation are serialized
func (r *GormBudgetReservationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*budget.BudgetReservation, error) {
	var reservation budget.BudgetReservation
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&reservation, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &reservation, nil
}

// FindByReference lists the reservations held for a document
func (r *GormBudgetReservationRepository) FindByReference(ctx context.Context, refType budget.ReferenceType, refID uuid.UUID) ([]budget.BudgetReservation, error) {
	var reservations []budget.BudgetReservation
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Order("reserved_at").
		Find(&reservations).Error; err != nil {
		return nil, translateError(err)
	}
	return reservations, nil
}

// FindAll lists reservations with filtering and pagination
func (r *GormBudgetReservationRepository) FindAll(ctx context.Context, filter budget.ReservationFilter) (shared.Paginated[budget.BudgetReservation], error) {
	query := r.db.WithContext(ctx).Model(&budget.BudgetReservation{})

	if filter.AllocationID != nil {
		query = query.Where("allocation_id = ?", *filter.AllocationID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ReferenceType != nil {
		query = query.Where("reference_type = ?", *filter.ReferenceType)
	}
	if filter.ReferenceID != nil {
		query = query.Where("reference_id = ?", *filter.ReferenceID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[budget.BudgetReservation]{}, translateError(err)
	}

	var reservations []budget.BudgetReservation
	if err := applyPagination(query, filter.Filter).Find(&reservations).Error; err != nil {
		return shared.Paginated[budget.BudgetReservation]{}, translateError(err)
	}

	page, pageSize := normalizePage(filter.Filter)
	return shared.NewPaginated(reservations, total, page, pageSize), nil
}

// Save creates or updates a reservation
func (r *GormBudgetReservationRepository) Save(ctx context.Context, reservation *budget.BudgetReservation) error {
	return translateError(r.db.WithContext(ctx).Save(reservation).Error)
}

var _ budget.BudgetReservationRepository = (*GormBudgetReservationRepository)(nil)
