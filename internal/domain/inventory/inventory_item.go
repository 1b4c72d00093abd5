package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/pharmstock/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InventoryItem is the stock aggregate for a (drug, location) pair. It tracks
// the total quantity on hand and the moving weighted-average cost; the
// physical detail lives in the DrugLots belonging to this aggregate.
// Invariant: QuantityOnHand equals the sum of QuantityAvailable across the
// pair's active lots.
type InventoryItem struct {
	shared.BaseAggregateRoot
	DrugID         uuid.UUID       `json:"drug_id" gorm:"type:uuid;not null;uniqueIndex:idx_inventory_drug_location,priority:1"`
	LocationID     uuid.UUID       `json:"location_id" gorm:"type:uuid;not null;uniqueIndex:idx_inventory_drug_location,priority:2"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand" gorm:"type:decimal(18,4);not null;default:0"`
	LastCost       decimal.Decimal `json:"last_cost" gorm:"type:decimal(18,4);not null;default:0"`
	AverageCost    decimal.Decimal `json:"average_cost" gorm:"type:decimal(18,4);not null;default:0"`
	MinQuantity    decimal.Decimal `json:"min_quantity" gorm:"type:decimal(18,4);not null;default:0"`

	// Lots are loaded explicitly via DrugLotRepository, never saved through
	// the association.
	Lots []DrugLot `json:"lots,omitempty" gorm:"foreignKey:InventoryItemID;references:ID;->"`
}

// TableName returns the database table name
func (InventoryItem) TableName() string {
	return "inventory"
}

// NewInventoryItem creates an empty inventory aggregate for a drug at a
// location. Aggregates are created lazily on first receipt.
func NewInventoryItem(drugID, locationID uuid.UUID) (*InventoryItem, error) {
	if drugID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DRUG", "Drug ID cannot be empty")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Location ID cannot be empty")
	}

	return &InventoryItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DrugID:            drugID,
		LocationID:        locationID,
		QuantityOnHand:    decimal.Zero,
		LastCost:          decimal.Zero,
		AverageCost:       decimal.Zero,
		MinQuantity:       decimal.Zero,
	}, nil
}

// ReceiveStock increases quantity on hand and recomputes the weighted-average
// cost from the incoming quantity and unit cost. The corresponding DrugLot is
// created by the caller in the same transaction.
func (i *InventoryItem) ReceiveStock(quantity decimal.Decimal, unitCost valueobject.Money) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Received quantity must be positive")
	}
	if unitCost.Amount().IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	oldQuantity := i.QuantityOnHand
	oldAverage := i.AverageCost

	// averageCost = (oldAvg*oldQty + unitCost*qty) / (oldQty + qty),
	// collapsing to the incoming cost when nothing was on hand
	if oldQuantity.IsZero() {
		i.AverageCost = unitCost.Amount()
	} else {
		totalValue := oldQuantity.Mul(oldAverage).Add(quantity.Mul(unitCost.Amount()))
		i.AverageCost = totalValue.Div(oldQuantity.Add(quantity)).Round(4)
	}

	i.QuantityOnHand = i.QuantityOnHand.Add(quantity)
	i.LastCost = unitCost.Amount()
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewStockReceivedEvent(i, quantity, unitCost.Amount()))

	return nil
}

// DeductStock decreases quantity on hand. The caller is responsible for
// having already allotted the quantity across lots; this only maintains the
// aggregate total and the reorder alert.
func (i *InventoryItem) DeductStock(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Deducted quantity must be positive")
	}
	if i.QuantityOnHand.LessThan(quantity) {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Insufficient stock: requested %s, on hand %s", quantity.StringFixed(2), i.QuantityOnHand.StringFixed(2)))
	}

	i.QuantityOnHand = i.QuantityOnHand.Sub(quantity)
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewStockDeductedEvent(i, quantity))

	if i.MinQuantity.GreaterThan(decimal.Zero) && i.QuantityOnHand.LessThan(i.MinQuantity) {
		i.AddDomainEvent(NewStockBelowThresholdEvent(i))
	}

	return nil
}

// SetMinQuantity updates the reorder alert threshold
func (i *InventoryItem) SetMinQuantity(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Minimum quantity cannot be negative")
	}

	i.MinQuantity = quantity
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return nil
}

// HasStock returns true if any quantity is on hand
func (i *InventoryItem) HasStock() bool {
	return i.QuantityOnHand.GreaterThan(decimal.Zero)
}

// IsBelowThreshold returns true if the on-hand quantity fell under the
// configured minimum
func (i *InventoryItem) IsBelowThreshold() bool {
	return i.MinQuantity.GreaterThan(decimal.Zero) && i.QuantityOnHand.LessThan(i.MinQuantity)
}

// StockValue returns the value of the stock on hand at average cost
func (i *InventoryItem) StockValue() decimal.Decimal {
	return i.QuantityOnHand.Mul(i.AverageCost)
}
