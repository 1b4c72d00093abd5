package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/budget"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBudgetAllocationRepository implements BudgetAllocationRepository using GORM
type GormBudgetAllocationRepository struct {
	db *gorm.DB
}

// NewGormBudgetAllocationRepository creates a new GormBudgetAllocationRepository
func NewGormBudgetAllocationRepository(db *gorm.DB) *GormBudgetAllocationRepository {
	return &GormBudgetAllocationRepository{db: db}
}

// FindByID finds an allocation by its ID
func (r *GormBudgetAllocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*budget.BudgetAllocation, error) {
	var allocation budget.BudgetAllocation
	if err := r.db.WithContext(ctx).First(&allocation, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &allocation, nil
}

// FindByBudgetAndYear finds the allocation for a budget and fiscal year
func (r *GormBudgetAllocationRepository) FindByBudgetAndYear(ctx context.Context, budgetID uuid.UUID, fiscalYear int) (*budget.BudgetAllocation, error) {
	var allocation budget.BudgetAllocation
	if err := r.db.WithContext(ctx).
		Where("budget_id = ? AND fiscal_year = ?", budgetID, fiscalYear).
		First(&allocation).Error; err != nil {
		return nil, translateError(err)
	}
	return &allocation, nil
}

// FindByBudgetAndYearForUpdate finds the allocation and takes a row-level
// exclusive lock. Racing reservations queue on this lock, so the
// check-and-decrement that follows is atomic.
func (r *GormBudgetAllocationRepository) FindByBudgetAndYearForUpdate(ctx context.Context, budgetID uuid.UUID, fiscalYear int) (*budget.BudgetAllocation, error) {
	var allocation budget.BudgetAllocation
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("budget_id = ? AND fiscal_year = ?", budgetID, fiscalYear).
		First(&allocation).Error; err != nil {
		return nil, translateError(err)
	}
	return &allocation, nil
}

// FindByIDForUpdate finds an allocation by ID with a row-level exclusive lock
func (r *GormBudgetAllocationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*budget.BudgetAllocation, error) {
	var allocation budget.BudgetAllocation
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&allocation, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &allocation, nil
}

// FindByFiscalYear lists all allocations for a fiscal year
func (r *GormBudgetAllocationRepository) FindByFiscalYear(ctx context.Context, fiscalYear int) ([]budget.BudgetAllocation, error) {
	var allocations []budget.BudgetAllocation
	if err := r.db.WithContext(ctx).
		Where("fiscal_year = ?", fiscalYear).
		Order("created_at").
		Find(&allocations).Error; err != nil {
		return nil, translateError(err)
	}
	return allocations, nil
}

// Save creates or updates an allocation
func (r *GormBudgetAllocationRepository) Save(ctx context.Context, allocation *budget.BudgetAllocation) error {
	return translateError(r.db.WithContext(ctx).Save(allocation).Error)
}

var _ budget.BudgetAllocationRepository = (*GormBudgetAllocationRepository)(nil)
