package inventory

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SelectionPolicy defines the order in which lots are consumed
type SelectionPolicy string

const (
	// SelectionPolicyFIFO consumes lots in order of received date, oldest first
	SelectionPolicyFIFO SelectionPolicy = "FIFO"
	// SelectionPolicyFEFO consumes lots in order of soonest expiry, skipping
	// lots that have already expired
	SelectionPolicyFEFO SelectionPolicy = "FEFO"
)

// IsValid checks if the policy is valid
func (p SelectionPolicy) IsValid() bool {
	return p == SelectionPolicyFIFO || p == SelectionPolicyFEFO
}

// String returns the string representation of SelectionPolicy
func (p SelectionPolicy) String() string {
	return string(p)
}

// LotAllocation is one lot's share of a selection result
type LotAllocation struct {
	LotID         uuid.UUID       `json:"lot_id"`
	LotNumber     string          `json:"lot_number"`
	ExpiryDate    *time.Time      `json:"expiry_date,omitempty"`
	QuantityToUse decimal.Decimal `json:"quantity_to_use"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
}

// LotSelectionResult is the outcome of walking the candidate lots. It may be
// partial: TotalAllocated is the requested quantity when stock suffices,
// otherwise everything that was available. Callers must check Shortfall
// before applying the result as a deduction.
type LotSelectionResult struct {
	Allocations         []LotAllocation `json:"allocations"`
	TotalAllocated      decimal.Decimal `json:"total_allocated"`
	TotalCost           decimal.Decimal `json:"total_cost"`
	WeightedAverageCost decimal.Decimal `json:"weighted_average_cost"`
	Shortfall           decimal.Decimal `json:"shortfall"`
	FullyAllocated      bool            `json:"fully_allocated"`
}

// SelectLots chooses which lots satisfy quantityNeeded under the given
// policy. Pure function: the input lots are not mutated. Candidates are the
// active lots with remaining quantity; FEFO additionally excludes lots whose
// expiry date is not strictly after asOf. The sorted candidates are walked
// greedily, taking min(available, remaining) from each.
func SelectLots(quantityNeeded decimal.Decimal, lots []DrugLot, policy SelectionPolicy, asOf time.Time) (*LotSelectionResult, error) {
	if quantityNeeded.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}
	if !policy.IsValid() {
		return nil, shared.NewDomainError("INVALID_POLICY", "Unknown lot selection policy: "+string(policy))
	}

	candidates := make([]DrugLot, 0, len(lots))
	for _, lot := range lots {
		if !lot.HasStock() {
			continue
		}
		if policy == SelectionPolicyFEFO && lot.IsExpiredAt(asOf) {
			continue
		}
		candidates = append(candidates, lot)
	}

	switch policy {
	case SelectionPolicyFIFO:
		sort.Slice(candidates, func(i, j int) bool {
			if !candidates[i].ReceivedDate.Equal(candidates[j].ReceivedDate) {
				return candidates[i].ReceivedDate.Before(candidates[j].ReceivedDate)
			}
			return lessByID(candidates[i], candidates[j])
		})
	case SelectionPolicyFEFO:
		sort.Slice(candidates, func(i, j int) bool {
			ei, ej := candidates[i].ExpiryDate, candidates[j].ExpiryDate
			switch {
			case ei != nil && ej != nil && !ei.Equal(*ej):
				return ei.Before(*ej)
			case ei != nil && ej == nil:
				return true
			case ei == nil && ej != nil:
				return false
			}
			if !candidates[i].ReceivedDate.Equal(candidates[j].ReceivedDate) {
				return candidates[i].ReceivedDate.Before(candidates[j].ReceivedDate)
			}
			return lessByID(candidates[i], candidates[j])
		})
	}

	allocations := make([]LotAllocation, 0, len(candidates))
	remaining := quantityNeeded
	totalAllocated := decimal.Zero
	totalCost := decimal.Zero

	for _, lot := range candidates {
		if remaining.IsZero() {
			break
		}

		take := decimal.Min(remaining, lot.QuantityAvailable)
		allocations = append(allocations, LotAllocation{
			LotID:         lot.ID,
			LotNumber:     lot.LotNumber,
			ExpiryDate:    lot.ExpiryDate,
			QuantityToUse: take,
			UnitCost:      lot.UnitCost,
		})

		totalAllocated = totalAllocated.Add(take)
		totalCost = totalCost.Add(take.Mul(lot.UnitCost))
		remaining = remaining.Sub(take)
	}

	var weightedAvg decimal.Decimal
	if totalAllocated.GreaterThan(decimal.Zero) {
		weightedAvg = totalCost.Div(totalAllocated).Round(4)
	}

	return &LotSelectionResult{
		Allocations:         allocations,
		TotalAllocated:      totalAllocated,
		TotalCost:           totalCost,
		WeightedAverageCost: weightedAvg,
		Shortfall:           remaining,
		FullyAllocated:      remaining.IsZero(),
	}, nil
}

// lessByID is the final tie-break so selection order is deterministic when
// dates collide
func lessByID(a, b DrugLot) bool {
	return a.ID.String() < b.ID.String()
}

// TotalAvailable sums the remaining quantity across usable lots. Under FEFO
// expired lots do not count.
func TotalAvailable(lots []DrugLot, policy SelectionPolicy, asOf time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range lots {
		if !lot.HasStock() {
			continue
		}
		if policy == SelectionPolicyFEFO && lot.IsExpiredAt(asOf) {
			continue
		}
		total = total.Add(lot.QuantityAvailable)
	}
	return total
}

// ExpiringLots returns active lots with stock that expire within the window
func ExpiringLots(lots []DrugLot, window time.Duration, asOf time.Time) []DrugLot {
	deadline := asOf.Add(window)
	expiring := make([]DrugLot, 0)
	for _, lot := range lots {
		if lot.HasStock() && lot.ExpiryDate != nil && lot.ExpiryDate.Before(deadline) {
			expiring = append(expiring, lot)
		}
	}
	return expiring
}
