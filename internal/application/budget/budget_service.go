package budget

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/budget"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/pharmstock/backend/internal/domain/shared/valueobject"
	"github.com/pharmstock/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
)

// BudgetService is the budget ledger. Reservations are pessimistic: reserve
// removes funds from the remaining budget inside one locked transaction, so
// racing callers can never double-spend an allocation.
type BudgetService struct {
	allocationRepo  budget.BudgetAllocationRepository
	reservationRepo budget.BudgetReservationRepository
	scope           TransactionScope
	eventPublisher  shared.EventPublisher
	clock           func() time.Time
}

// NewBudgetService creates a new BudgetService. The direct repositories serve
// reads; every mutation goes through the transaction scope.
func NewBudgetService(
	allocationRepo budget.BudgetAllocationRepository,
	reservationRepo budget.BudgetReservationRepository,
	scope TransactionScope,
) *BudgetService {
	return &BudgetService{
		allocationRepo:  allocationRepo,
		reservationRepo: reservationRepo,
		scope:           scope,
		clock:           time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *BudgetService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock overrides the time source, used to pin the fiscal year in tests
func (s *BudgetService) SetClock(clock func() time.Time) {
	s.clock = clock
}

// CurrentFiscalYear returns the fiscal year reservations are checked against
func (s *BudgetService) CurrentFiscalYear() int {
	return s.clock().Year()
}

func (s *BudgetService) publishEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	for _, agg := range aggregates {
		events := agg.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		_ = s.eventPublisher.Publish(ctx, events...)
		agg.ClearDomainEvents()
	}
}

// CreateAllocation creates the allocation row for a budget and fiscal year
func (s *BudgetService) CreateAllocation(ctx context.Context, req CreateAllocationRequest) (*AllocationResponse, error) {
	existing, err := s.allocationRepo.FindByBudgetAndYear(ctx, req.BudgetID, req.FiscalYear)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Allocation already exists for this budget and fiscal year")
	}

	total, err := valueobject.NewMoney(req.TotalBudget, valueobject.DefaultCurrency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", err.Error())
	}

	allocation, err := budget.NewBudgetAllocation(req.BudgetID, req.FiscalYear, total)
	if err != nil {
		return nil, err
	}
	if err := s.allocationRepo.Save(ctx, allocation); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, allocation)
	response := ToAllocationResponse(allocation)
	return &response, nil
}

// AdjustAllocation changes the total budget of an existing allocation
func (s *BudgetService) AdjustAllocation(ctx context.Context, allocationID uuid.UUID, req AdjustAllocationRequest) (*AllocationResponse, error) {
	var updated *budget.BudgetAllocation
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		allocation, err := repos.AllocationRepo().FindByIDForUpdate(ctx, allocationID)
		if err != nil {
			return err
		}

		total, err := valueobject.NewMoney(req.TotalBudget, valueobject.DefaultCurrency)
		if err != nil {
			return shared.NewDomainError("INVALID_AMOUNT", err.Error())
		}
		if err := allocation.AdjustTotalBudget(total); err != nil {
			return err
		}
		if err := repos.AllocationRepo().Save(ctx, allocation); err != nil {
			return err
		}

		updated = allocation
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, updated)
	response := ToAllocationResponse(updated)
	return &response, nil
}

// CheckAvailability reports whether the current fiscal year's allocation can
// cover the amount. Read-only; a favorable answer can still race with other
// reservations, only Reserve gives a guarantee.
func (s *BudgetService) CheckAvailability(ctx context.Context, req CheckAvailabilityRequest) (*CheckAvailabilityResponse, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}

	allocation, err := s.allocationRepo.FindByBudgetAndYear(ctx, req.BudgetID, s.CurrentFiscalYear())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &CheckAvailabilityResponse{
				Available: false,
				Remaining: decimal.Zero,
				Reason:    "no allocation for current fiscal year",
			}, nil
		}
		return nil, err
	}

	if !allocation.CanReserve(req.Amount) {
		return &CheckAvailabilityResponse{
			Available: false,
			Remaining: allocation.RemainingBudget,
			Reason:    "insufficient remaining budget",
		}, nil
	}

	return &CheckAvailabilityResponse{
		Available: true,
		Remaining: allocation.RemainingBudget,
	}, nil
}

// Reserve places a hold against the current fiscal year's allocation. The
// allocation row is locked for the duration of the transaction, making the
// check-and-decrement atomic: of two racing reservations that together exceed
// the remaining budget, exactly one succeeds.
func (s *BudgetService) Reserve(ctx context.Context, req ReserveBudgetRequest) (resp *ReserveBudgetResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "budget", "reserve",
		telemetry.WithAttribute(telemetry.SpanAttrBudgetID, req.BudgetID),
		telemetry.WithAttribute(telemetry.SpanAttrAmount, req.Amount),
		telemetry.WithAttribute(telemetry.SpanAttrReferenceType, req.ReferenceType),
	)
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.SetOK(span)
		}
		span.End()
	}()

	referenceType := budget.ReferenceType(req.ReferenceType)
	if !referenceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_REFERENCE_TYPE", "Invalid reference type")
	}
	amount, err := valueobject.NewMoney(req.Amount, valueobject.DefaultCurrency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", err.Error())
	}

	var (
		allocation  *budget.BudgetAllocation
		reservation *budget.BudgetReservation
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		allocation, err = repos.AllocationRepo().FindByBudgetAndYearForUpdate(ctx, req.BudgetID, s.CurrentFiscalYear())
		if err != nil {
			return err
		}

		if err := allocation.Reserve(amount.Amount()); err != nil {
			return err
		}

		reservation, err = budget.NewBudgetReservation(allocation.ID, amount, referenceType, req.ReferenceID, req.Description)
		if err != nil {
			return err
		}

		if err := repos.AllocationRepo().Save(ctx, allocation); err != nil {
			return err
		}
		return repos.ReservationRepo().Save(ctx, reservation)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, allocation, reservation)

	return &ReserveBudgetResponse{
		ReservationID: reservation.ID,
		Remaining:     allocation.RemainingBudget,
	}, nil
}

// Commit turns an ACTIVE reservation into spend. The reserved amount moves
// into the allocation's TotalSpent; RemainingBudget stays as it was, having
// been decremented at reservation time.
func (s *BudgetService) Commit(ctx context.Context, reservationID uuid.UUID) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "budget", "commit",
		telemetry.WithAttribute(telemetry.SpanAttrReservationID, reservationID),
	)
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.SetOK(span)
		}
		span.End()
	}()

	var (
		allocation  *budget.BudgetAllocation
		reservation *budget.BudgetReservation
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		reservation, err = repos.ReservationRepo().FindByIDForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if err := reservation.Commit(); err != nil {
			return err
		}

		allocation, err = repos.AllocationRepo().FindByIDForUpdate(ctx, reservation.AllocationID)
		if err != nil {
			return err
		}
		if err := allocation.RecordSpend(reservation.ReservedAmount); err != nil {
			return err
		}

		if err := repos.ReservationRepo().Save(ctx, reservation); err != nil {
			return err
		}
		return repos.AllocationRepo().Save(ctx, allocation)
	})
	if err != nil {
		return err
	}

	s.publishEvents(ctx, allocation, reservation)
	return nil
}

// Release returns an ACTIVE reservation's funds to the allocation
func (s *BudgetService) Release(ctx context.Context, reservationID uuid.UUID) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "budget", "release",
		telemetry.WithAttribute(telemetry.SpanAttrReservationID, reservationID),
	)
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.SetOK(span)
		}
		span.End()
	}()

	var (
		allocation  *budget.BudgetAllocation
		reservation *budget.BudgetReservation
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		reservation, err = repos.ReservationRepo().FindByIDForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if err := reservation.Release(); err != nil {
			return err
		}

		allocation, err = repos.AllocationRepo().FindByIDForUpdate(ctx, reservation.AllocationID)
		if err != nil {
			return err
		}
		if err := allocation.RestoreBudget(reservation.ReservedAmount); err != nil {
			return err
		}

		if err := repos.ReservationRepo().Save(ctx, reservation); err != nil {
			return err
		}
		return repos.AllocationRepo().Save(ctx, allocation)
	})
	if err != nil {
		return err
	}

	s.publishEvents(ctx, allocation, reservation)
	return nil
}

// GetAllocation retrieves an allocation by ID
func (s *BudgetService) GetAllocation(ctx context.Context, id uuid.UUID) (*AllocationResponse, error) {
	allocation, err := s.allocationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToAllocationResponse(allocation)
	return &response, nil
}

// GetAllocationByBudget retrieves the current fiscal year's allocation for a budget
func (s *BudgetService) GetAllocationByBudget(ctx context.Context, budgetID uuid.UUID) (*AllocationResponse, error) {
	allocation, err := s.allocationRepo.FindByBudgetAndYear(ctx, budgetID, s.CurrentFiscalYear())
	if err != nil {
		return nil, err
	}
	response := ToAllocationResponse(allocation)
	return &response, nil
}

// GetReservation retrieves a reservation by ID
func (s *BudgetService) GetReservation(ctx context.Context, id uuid.UUID) (*ReservationResponse, error) {
	reservation, err := s.reservationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToReservationResponse(reservation)
	return &response, nil
}

// ListReservations lists reservations with filtering and pagination
func (s *BudgetService) ListReservations(ctx context.Context, filter budget.ReservationFilter) (shared.Paginated[ReservationResponse], error) {
	page, err := s.reservationRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[ReservationResponse]{}, err
	}
	return shared.Paginated[ReservationResponse]{
		Items:      ToReservationResponses(page.Items),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}
