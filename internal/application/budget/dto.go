package budget

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/budget"
	"github.com/shopspring/decimal"
)

// CreateAllocationRequest creates a fiscal year allocation for a budget
type CreateAllocationRequest struct {
	BudgetID    uuid.UUID       `json:"budget_id" binding:"required"`
	FiscalYear  int             `json:"fiscal_year" binding:"required,min=2000,max=2200"`
	TotalBudget decimal.Decimal `json:"total_budget" binding:"required,positivedec"`
}

// AdjustAllocationRequest changes an allocation's total budget
type AdjustAllocationRequest struct {
	TotalBudget decimal.Decimal `json:"total_budget" binding:"required,positivedec"`
}

// CheckAvailabilityRequest asks whether the current fiscal year's allocation
// can cover an amount
type CheckAvailabilityRequest struct {
	BudgetID uuid.UUID       `json:"budget_id" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required,positivedec"`
}

// CheckAvailabilityResponse reports whether funds are available
type CheckAvailabilityResponse struct {
	Available bool            `json:"available"`
	Remaining decimal.Decimal `json:"remaining"`
	Reason    string          `json:"reason,omitempty"`
}

// ReserveBudgetRequest places a pessimistic hold against the current fiscal
// year's allocation
type ReserveBudgetRequest struct {
	BudgetID      uuid.UUID       `json:"budget_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required,positivedec"`
	ReferenceType string          `json:"reference_type" binding:"required"`
	ReferenceID   uuid.UUID       `json:"reference_id" binding:"required"`
	Description   string          `json:"description"`
}

// ReserveBudgetResponse returns the created reservation
type ReserveBudgetResponse struct {
	ReservationID uuid.UUID       `json:"reservation_id"`
	Remaining     decimal.Decimal `json:"remaining"`
}

// AllocationResponse is the read model for a budget allocation
type AllocationResponse struct {
	ID              uuid.UUID       `json:"id"`
	BudgetID        uuid.UUID       `json:"budget_id"`
	FiscalYear      int             `json:"fiscal_year"`
	TotalBudget     decimal.Decimal `json:"total_budget"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
	RemainingBudget decimal.Decimal `json:"remaining_budget"`
	ReservedAmount  decimal.Decimal `json:"reserved_amount"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ReservationResponse is the read model for a budget reservation
type ReservationResponse struct {
	ID             uuid.UUID       `json:"id"`
	AllocationID   uuid.UUID       `json:"allocation_id"`
	ReservedAmount decimal.Decimal `json:"reserved_amount"`
	ReferenceType  string          `json:"reference_type"`
	ReferenceID    uuid.UUID       `json:"reference_id"`
	Status         string          `json:"status"`
	Description    string          `json:"description,omitempty"`
	ReservedAt     time.Time       `json:"reserved_at"`
	CommittedAt    *time.Time      `json:"committed_at,omitempty"`
	ReleasedAt     *time.Time      `json:"released_at,omitempty"`
}

// ToAllocationResponse converts a domain allocation to its read model
func ToAllocationResponse(ba *budget.BudgetAllocation) AllocationResponse {
	return AllocationResponse{
		ID:              ba.ID,
		BudgetID:        ba.BudgetID,
		FiscalYear:      ba.FiscalYear,
		TotalBudget:     ba.TotalBudget,
		TotalSpent:      ba.TotalSpent,
		RemainingBudget: ba.RemainingBudget,
		ReservedAmount:  ba.ReservedAmount(),
		UpdatedAt:       ba.UpdatedAt,
	}
}

// ToReservationResponse converts a domain reservation to its read model
func ToReservationResponse(br *budget.BudgetReservation) ReservationResponse {
	return ReservationResponse{
		ID:             br.ID,
		AllocationID:   br.AllocationID,
		ReservedAmount: br.ReservedAmount,
		ReferenceType:  string(br.ReferenceType),
		ReferenceID:    br.ReferenceID,
		Status:         string(br.Status),
		Description:    br.Description,
		ReservedAt:     br.ReservedAt,
		CommittedAt:    br.CommittedAt,
		ReleasedAt:     br.ReleasedAt,
	}
}

// ToReservationResponses converts a slice of reservations
func ToReservationResponses(items []budget.BudgetReservation) []ReservationResponse {
	responses := make([]ReservationResponse, len(items))
	for i := range items {
		responses[i] = ToReservationResponse(&items[i])
	}
	return responses
}
