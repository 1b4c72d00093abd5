package budget

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/pharmstock/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BudgetAllocation represents the budget ledger row for a (budget, fiscal year)
// pair. It is an aggregate root mutated only through reserve/commit/release:
// RemainingBudget is decremented pessimistically when a reservation is created,
// added back on release, and left untouched on commit (TotalSpent absorbs the
// committed amount instead).
type BudgetAllocation struct {
	shared.BaseAggregateRoot
	BudgetID        uuid.UUID       `json:"budget_id" gorm:"type:uuid;not null;uniqueIndex:idx_budget_fiscal_year"`
	FiscalYear      int             `json:"fiscal_year" gorm:"not null;uniqueIndex:idx_budget_fiscal_year"`
	TotalBudget     decimal.Decimal `json:"total_budget" gorm:"type:decimal(18,4);not null"`
	TotalSpent      decimal.Decimal `json:"total_spent" gorm:"type:decimal(18,4);not null"`
	RemainingBudget decimal.Decimal `json:"remaining_budget" gorm:"type:decimal(18,4);not null"`
}

// TableName returns the database table name
func (BudgetAllocation) TableName() string {
	return "budget_allocations"
}

// NewBudgetAllocation creates a new allocation for a fiscal year with the
// full amount available
func NewBudgetAllocation(budgetID uuid.UUID, fiscalYear int, totalBudget valueobject.Money) (*BudgetAllocation, error) {
	if budgetID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BUDGET", "Budget ID cannot be empty")
	}
	if fiscalYear < 2000 || fiscalYear > 2200 {
		return nil, shared.NewDomainError("INVALID_FISCAL_YEAR", fmt.Sprintf("Fiscal year %d is out of range", fiscalYear))
	}
	if totalBudget.Amount().LessThan(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total budget cannot be negative")
	}

	ba := &BudgetAllocation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BudgetID:          budgetID,
		FiscalYear:        fiscalYear,
		TotalBudget:       totalBudget.Amount(),
		TotalSpent:        decimal.Zero,
		RemainingBudget:   totalBudget.Amount(),
	}

	ba.AddDomainEvent(NewBudgetAllocationCreatedEvent(ba))

	return ba, nil
}

// CanReserve returns true if the remaining budget covers the amount
func (ba *BudgetAllocation) CanReserve(amount decimal.Decimal) bool {
	return ba.RemainingBudget.GreaterThanOrEqual(amount)
}

// Reserve removes amount from the remaining budget. The caller must hold the
// allocation row lock so the check-and-decrement is atomic against concurrent
// reservations.
func (ba *BudgetAllocation) Reserve(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Reservation amount must be positive")
	}
	if !ba.CanReserve(amount) {
		return shared.NewDomainError("INSUFFICIENT_BUDGET",
			fmt.Sprintf("Insufficient budget: requested %s, remaining %s", amount.StringFixed(2), ba.RemainingBudget.StringFixed(2)))
	}

	ba.RemainingBudget = ba.RemainingBudget.Sub(amount)
	ba.UpdatedAt = time.Now()
	ba.IncrementVersion()

	return nil
}

// RecordSpend moves a committed reservation's amount into TotalSpent.
// RemainingBudget is not adjusted here: it was already decremented when the
// reservation was created.
func (ba *BudgetAllocation) RecordSpend(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Spend amount must be positive")
	}

	ba.TotalSpent = ba.TotalSpent.Add(amount)
	ba.UpdatedAt = time.Now()
	ba.IncrementVersion()

	return nil
}

// RestoreBudget adds a released reservation's amount back to RemainingBudget
func (ba *BudgetAllocation) RestoreBudget(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Restore amount must be positive")
	}

	ba.RemainingBudget = ba.RemainingBudget.Add(amount)
	ba.UpdatedAt = time.Now()
	ba.IncrementVersion()

	return nil
}

// AdjustTotalBudget changes the total budget for the fiscal year, moving the
// delta into RemainingBudget. Rejects adjustments that would push the
// remaining budget below zero.
func (ba *BudgetAllocation) AdjustTotalBudget(newTotal valueobject.Money) error {
	if newTotal.Amount().LessThan(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Total budget cannot be negative")
	}

	delta := newTotal.Amount().Sub(ba.TotalBudget)
	newRemaining := ba.RemainingBudget.Add(delta)
	if newRemaining.LessThan(decimal.Zero) {
		return shared.NewDomainError("INSUFFICIENT_BUDGET",
			fmt.Sprintf("Cannot reduce total budget below reserved amount: remaining would be %s", newRemaining.StringFixed(2)))
	}

	previousTotal := ba.TotalBudget
	ba.TotalBudget = newTotal.Amount()
	ba.RemainingBudget = newRemaining
	ba.UpdatedAt = time.Now()
	ba.IncrementVersion()

	ba.AddDomainEvent(NewBudgetAllocationAdjustedEvent(ba, previousTotal))

	return nil
}

// GetTotalBudgetMoney returns the total budget as Money
func (ba *BudgetAllocation) GetTotalBudgetMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(ba.TotalBudget)
}

// GetRemainingBudgetMoney returns the remaining budget as Money
func (ba *BudgetAllocation) GetRemainingBudgetMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(ba.RemainingBudget)
}

// GetTotalSpentMoney returns the total spent as Money
func (ba *BudgetAllocation) GetTotalSpentMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(ba.TotalSpent)
}

// ReservedAmount returns the amount currently held by active reservations,
// derived as total - spent - remaining
func (ba *BudgetAllocation) ReservedAmount() decimal.Decimal {
	return ba.TotalBudget.Sub(ba.TotalSpent).Sub(ba.RemainingBudget)
}
