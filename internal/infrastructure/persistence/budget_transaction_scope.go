package persistence

import (
	"context"

	appbudget "github.com/pharmstock/backend/internal/application/budget"
	"github.com/pharmstock/backend/internal/domain/budget"
	"gorm.io/gorm"
)

// GormBudgetTransactionScope implements the budget TransactionScope using
// GORM transactions. Repositories handed to the callback share one
// transaction, so a locked allocation row stays locked until the reservation
// write commits with it.
type GormBudgetTransactionScope struct {
	db *gorm.DB
}

// NewGormBudgetTransactionScope creates a new GormBudgetTransactionScope
func NewGormBudgetTransactionScope(db *gorm.DB) *GormBudgetTransactionScope {
	return &GormBudgetTransactionScope{db: db}
}

// Execute runs the given function within a database transaction. A returned
// error rolls everything back; errors are translated so lock conflicts
// surface as the retryable domain sentinel.
func (s *GormBudgetTransactionScope) Execute(ctx context.Context, fn func(repos appbudget.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormBudgetRepositories{tx: tx})
	})
	return translateError(err)
}

type gormBudgetRepositories struct {
	tx *gorm.DB
}

func (r *gormBudgetRepositories) AllocationRepo() budget.BudgetAllocationRepository {
	return NewGormBudgetAllocationRepository(r.tx)
}

func (r *gormBudgetRepositories) ReservationRepo() budget.BudgetReservationRepository {
	return NewGormBudgetReservationRepository(r.tx)
}

var _ appbudget.TransactionScope = (*GormBudgetTransactionScope)(nil)
var _ appbudget.TransactionalRepositories = (*gormBudgetRepositories)(nil)
