package budget

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/pharmstock/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ReservationStatus represents the lifecycle state of a budget reservation
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "ACTIVE"    // Funds held, awaiting commit or release
	ReservationStatusCommitted ReservationStatus = "COMMITTED" // Funds spent (terminal)
	ReservationStatusReleased  ReservationStatus = "RELEASED"  // Funds returned (terminal)
)

// IsValid checks if the status is a valid ReservationStatus
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusActive, ReservationStatusCommitted, ReservationStatusReleased:
		return true
	}
	return false
}

// String returns the string representation of ReservationStatus
func (s ReservationStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the reservation can no longer transition
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusCommitted || s == ReservationStatusReleased
}

// ReferenceType identifies the kind of external document a reservation backs
type ReferenceType string

const (
	ReferenceTypePurchaseOrder ReferenceType = "PURCHASE_ORDER"
	ReferenceTypeGoodsReceipt  ReferenceType = "GOODS_RECEIPT"
	ReferenceTypeDistribution  ReferenceType = "DISTRIBUTION"
	ReferenceTypeManual        ReferenceType = "MANUAL"
)

// IsValid checks if the reference type is valid
func (r ReferenceType) IsValid() bool {
	switch r {
	case ReferenceTypePurchaseOrder, ReferenceTypeGoodsReceipt, ReferenceTypeDistribution, ReferenceTypeManual:
		return true
	}
	return false
}

// BudgetReservation is a pessimistic hold against a budget allocation, tied to
// an external document. It may leave ACTIVE exactly once, to COMMITTED or
// RELEASED.
type BudgetReservation struct {
	shared.BaseAggregateRoot
	AllocationID   uuid.UUID         `json:"allocation_id" gorm:"type:uuid;not null;index"`
	ReservedAmount decimal.Decimal   `json:"reserved_amount" gorm:"type:decimal(18,4);not null"`
	ReferenceType  ReferenceType     `json:"reference_type" gorm:"type:varchar(32);not null;index:idx_reservation_reference"`
	ReferenceID    uuid.UUID         `json:"reference_id" gorm:"type:uuid;not null;index:idx_reservation_reference"`
	Status         ReservationStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	Description    string            `json:"description" gorm:"type:text"`
	ReservedAt     time.Time         `json:"reserved_at" gorm:"not null"`
	CommittedAt    *time.Time        `json:"committed_at,omitempty"`
	ReleasedAt     *time.Time        `json:"released_at,omitempty"`
}

// TableName returns the database table name
func (BudgetReservation) TableName() string {
	return "budget_reservations"
}

// NewBudgetReservation creates an ACTIVE reservation against an allocation
func NewBudgetReservation(
	allocationID uuid.UUID,
	amount valueobject.Money,
	referenceType ReferenceType,
	referenceID uuid.UUID,
	description string,
) (*BudgetReservation, error) {
	if allocationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ALLOCATION", "Allocation ID cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Reservation amount must be positive")
	}
	if !referenceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_REFERENCE_TYPE", "Reference type is not valid")
	}
	if referenceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference ID cannot be empty")
	}

	br := &BudgetReservation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AllocationID:      allocationID,
		ReservedAmount:    amount.Amount(),
		ReferenceType:     referenceType,
		ReferenceID:       referenceID,
		Status:            ReservationStatusActive,
		Description:       description,
		ReservedAt:        time.Now(),
	}

	br.AddDomainEvent(NewBudgetReservedEvent(br))

	return br, nil
}

// Commit marks the reservation as spent. Only an ACTIVE reservation may
// commit; the caller records the spend on the allocation in the same
// transaction.
func (br *BudgetReservation) Commit() error {
	if br.Status != ReservationStatusActive {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot commit reservation in %s status", br.Status))
	}

	now := time.Now()
	br.Status = ReservationStatusCommitted
	br.CommittedAt = &now
	br.UpdatedAt = now
	br.IncrementVersion()

	br.AddDomainEvent(NewBudgetCommittedEvent(br))

	return nil
}

// Release returns the reserved funds. Only an ACTIVE reservation may release;
// the caller restores the allocation's remaining budget in the same
// transaction.
func (br *BudgetReservation) Release() error {
	if br.Status != ReservationStatusActive {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot release reservation in %s status", br.Status))
	}

	now := time.Now()
	br.Status = ReservationStatusReleased
	br.ReleasedAt = &now
	br.UpdatedAt = now
	br.IncrementVersion()

	br.AddDomainEvent(NewBudgetReleasedEvent(br))

	return nil
}

// IsActive returns true if the reservation still holds funds
func (br *BudgetReservation) IsActive() bool {
	return br.Status == ReservationStatusActive
}

// IsCommitted returns true if the reservation was committed
func (br *BudgetReservation) IsCommitted() bool {
	return br.Status == ReservationStatusCommitted
}

// IsReleased returns true if the reservation was released
func (br *BudgetReservation) IsReleased() bool {
	return br.Status == ReservationStatusReleased
}

// GetReservedAmountMoney returns the reserved amount as Money
func (br *BudgetReservation) GetReservedAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(br.ReservedAmount)
}
