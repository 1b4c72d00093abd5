package budget

import (
	"context"

	"github.com/pharmstock/backend/internal/domain/budget"
)

// TransactionScope provides transactional access to budget repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the budget repositories within
// a transaction. All repositories returned share the same underlying database
// transaction, so a locked allocation row stays locked while its reservation
// is written.
type TransactionalRepositories interface {
	// AllocationRepo returns the allocation repository scoped to the current transaction
	AllocationRepo() budget.BudgetAllocationRepository
	// ReservationRepo returns the reservation repository scoped to the current transaction
	ReservationRepo() budget.BudgetReservationRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests.
type NoOpTransactionScope struct {
	allocationRepo  budget.BudgetAllocationRepository
	reservationRepo budget.BudgetReservationRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	allocationRepo budget.BudgetAllocationRepository,
	reservationRepo budget.BudgetReservationRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		allocationRepo:  allocationRepo,
		reservationRepo: reservationRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// AllocationRepo returns the allocation repository
func (s *NoOpTransactionScope) AllocationRepo() budget.BudgetAllocationRepository {
	return s.allocationRepo
}

// ReservationRepo returns the reservation repository
func (s *NoOpTransactionScope) ReservationRepo() budget.BudgetReservationRepository {
	return s.reservationRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
