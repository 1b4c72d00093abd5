package budget

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BudgetAllocationCreatedEvent is raised when a fiscal year allocation is created
type BudgetAllocationCreatedEvent struct {
	shared.BaseDomainEvent
	AllocationID uuid.UUID       `json:"allocation_id"`
	BudgetID     uuid.UUID       `json:"budget_id"`
	FiscalYear   int             `json:"fiscal_year"`
	TotalBudget  decimal.Decimal `json:"total_budget"`
}

// EventType returns the event type name
func (e *BudgetAllocationCreatedEvent) EventType() string {
	return "BudgetAllocationCreated"
}

// NewBudgetAllocationCreatedEvent creates a new BudgetAllocationCreatedEvent
func NewBudgetAllocationCreatedEvent(ba *BudgetAllocation) *BudgetAllocationCreatedEvent {
	return &BudgetAllocationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BudgetAllocationCreated", "BudgetAllocation", ba.ID),
		AllocationID:    ba.ID,
		BudgetID:        ba.BudgetID,
		FiscalYear:      ba.FiscalYear,
		TotalBudget:     ba.TotalBudget,
	}
}

// BudgetAllocationAdjustedEvent is raised when an allocation's total budget changes
type BudgetAllocationAdjustedEvent struct {
	shared.BaseDomainEvent
	AllocationID  uuid.UUID       `json:"allocation_id"`
	BudgetID      uuid.UUID       `json:"budget_id"`
	FiscalYear    int             `json:"fiscal_year"`
	PreviousTotal decimal.Decimal `json:"previous_total"`
	NewTotal      decimal.Decimal `json:"new_total"`
	Remaining     decimal.Decimal `json:"remaining"`
}

// EventType returns the event type name
func (e *BudgetAllocationAdjustedEvent) EventType() string {
	return "BudgetAllocationAdjusted"
}

// NewBudgetAllocationAdjustedEvent creates a new BudgetAllocationAdjustedEvent
func NewBudgetAllocationAdjustedEvent(ba *BudgetAllocation, previousTotal decimal.Decimal) *BudgetAllocationAdjustedEvent {
	return &BudgetAllocationAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BudgetAllocationAdjusted", "BudgetAllocation", ba.ID),
		AllocationID:    ba.ID,
		BudgetID:        ba.BudgetID,
		FiscalYear:      ba.FiscalYear,
		PreviousTotal:   previousTotal,
		NewTotal:        ba.TotalBudget,
		Remaining:       ba.RemainingBudget,
	}
}

// BudgetReservedEvent is raised when funds are held against an allocation
type BudgetReservedEvent struct {
	shared.BaseDomainEvent
	ReservationID uuid.UUID       `json:"reservation_id"`
	AllocationID  uuid.UUID       `json:"allocation_id"`
	Amount        decimal.Decimal `json:"amount"`
	ReferenceType ReferenceType   `json:"reference_type"`
	ReferenceID   uuid.UUID       `json:"reference_id"`
	ReservedAt    time.Time       `json:"reserved_at"`
}

// EventType returns the event type name
func (e *BudgetReservedEvent) EventType() string {
	return "BudgetReserved"
}

// NewBudgetReservedEvent creates a new BudgetReservedEvent
func NewBudgetReservedEvent(br *BudgetReservation) *BudgetReservedEvent {
	return &BudgetReservedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BudgetReserved", "BudgetReservation", br.ID),
		ReservationID:   br.ID,
		AllocationID:    br.AllocationID,
		Amount:          br.ReservedAmount,
		ReferenceType:   br.ReferenceType,
		ReferenceID:     br.ReferenceID,
		ReservedAt:      br.ReservedAt,
	}
}

// BudgetCommittedEvent is raised when a reservation is committed as spend
type BudgetCommittedEvent struct {
	shared.BaseDomainEvent
	ReservationID uuid.UUID       `json:"reservation_id"`
	AllocationID  uuid.UUID       `json:"allocation_id"`
	Amount        decimal.Decimal `json:"amount"`
	CommittedAt   time.Time       `json:"committed_at"`
}

// EventType returns the event type name
func (e *BudgetCommittedEvent) EventType() string {
	return "BudgetCommitted"
}

// NewBudgetCommittedEvent creates a new BudgetCommittedEvent
func NewBudgetCommittedEvent(br *BudgetReservation) *BudgetCommittedEvent {
	committedAt := time.Now()
	if br.CommittedAt != nil {
		committedAt = *br.CommittedAt
	}
	return &BudgetCommittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BudgetCommitted", "BudgetReservation", br.ID),
		ReservationID:   br.ID,
		AllocationID:    br.AllocationID,
		Amount:          br.ReservedAmount,
		CommittedAt:     committedAt,
	}
}

// BudgetReleasedEvent is raised when a reservation's funds are returned
type BudgetReleasedEvent struct {
	shared.BaseDomainEvent
	ReservationID uuid.UUID       `json:"reservation_id"`
	AllocationID  uuid.UUID       `json:"allocation_id"`
	Amount        decimal.Decimal `json:"amount"`
	ReleasedAt    time.Time       `json:"released_at"`
}

// EventType returns the event type name
func (e *BudgetReleasedEvent) EventType() string {
	return "BudgetReleased"
}

// NewBudgetReleasedEvent creates a new BudgetReleasedEvent
func NewBudgetReleasedEvent(br *BudgetReservation) *BudgetReleasedEvent {
	releasedAt := time.Now()
	if br.ReleasedAt != nil {
		releasedAt = *br.ReleasedAt
	}
	return &BudgetReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BudgetReleased", "BudgetReservation", br.ID),
		ReservationID:   br.ID,
		AllocationID:    br.AllocationID,
		Amount:          br.ReservedAmount,
		ReleasedAt:      releasedAt,
	}
}
