package budget

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/shared"
)

// ReservationFilter defines filtering options for reservation queries
type ReservationFilter struct {
	shared.Filter
	AllocationID  *uuid.UUID
	Status        *ReservationStatus
	ReferenceType *ReferenceType
	ReferenceID   *uuid.UUID
}

// BudgetAllocationRepository defines the interface for allocation persistence
type BudgetAllocationRepository interface {
	// FindByID finds an allocation by ID
	FindByID(ctx context.Context, id uuid.UUID) (*BudgetAllocation, error)

	// FindByBudgetAndYear finds the allocation for a budget and fiscal year
	FindByBudgetAndYear(ctx context.Context, budgetID uuid.UUID, fiscalYear int) (*BudgetAllocation, error)

	// FindByBudgetAndYearForUpdate finds the allocation and acquires a
	// row-level exclusive lock, serializing concurrent reservations.
	// Must be called inside a transaction.
	FindByBudgetAndYearForUpdate(ctx context.Context, budgetID uuid.UUID, fiscalYear int) (*BudgetAllocation, error)

	// FindByIDForUpdate finds an allocation by ID with a row-level lock
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*BudgetAllocation, error)

	// FindByFiscalYear lists all allocations for a fiscal year
	FindByFiscalYear(ctx context.Context, fiscalYear int) ([]BudgetAllocation, error)

	// Save creates or updates an allocation
	Save(ctx context.Context, allocation *BudgetAllocation) error
}

// BudgetReservationRepository defines the interface for reservation persistence
type BudgetReservationRepository interface {
	// FindByID finds a reservation by ID
	FindByID(ctx context.Context, id uuid.UUID) (*BudgetReservation, error)

	// FindByIDForUpdate finds a reservation by ID with a row-level lock,
	// serializing concurrent commit/release attempts.
	// Must be called inside a transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*BudgetReservation, error)

	// FindByReference finds reservations backing an external document
	FindByReference(ctx context.Context, referenceType ReferenceType, referenceID uuid.UUID) ([]BudgetReservation, error)

	// FindAll lists reservations with filtering and pagination
	FindAll(ctx context.Context, filter ReservationFilter) (shared.Paginated[BudgetReservation], error)

	// Save creates or updates a reservation
	Save(ctx context.Context, reservation *BudgetReservation) error
}
