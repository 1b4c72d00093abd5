package inventory

import (
	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StockReceivedEvent is raised when stock enters an inventory aggregate
type StockReceivedEvent struct {
	shared.BaseDomainEvent
	InventoryItemID uuid.UUID       `json:"inventory_item_id"`
	DrugID          uuid.UUID       `json:"drug_id"`
	LocationID      uuid.UUID       `json:"location_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	QuantityOnHand  decimal.Decimal `json:"quantity_on_hand"`
	AverageCost     decimal.Decimal `json:"average_cost"`
}

// EventType returns the event type name
func (e *StockReceivedEvent) EventType() string {
	return "StockReceived"
}

// NewStockReceivedEvent creates a new StockReceivedEvent
func NewStockReceivedEvent(item *InventoryItem, quantity, unitCost decimal.Decimal) *StockReceivedEvent {
	return &StockReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("StockReceived", "InventoryItem", item.ID),
		InventoryItemID: item.ID,
		DrugID:          item.DrugID,
		LocationID:      item.LocationID,
		Quantity:        quantity,
		UnitCost:        unitCost,
		QuantityOnHand:  item.QuantityOnHand,
		AverageCost:     item.AverageCost,
	}
}

// StockDeductedEvent is raised when stock leaves an inventory aggregate
type StockDeductedEvent struct {
	shared.BaseDomainEvent
	InventoryItemID uuid.UUID       `json:"inventory_item_id"`
	DrugID          uuid.UUID       `json:"drug_id"`
	LocationID      uuid.UUID       `json:"location_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	QuantityOnHand  decimal.Decimal `json:"quantity_on_hand"`
}

// EventType returns the event type name
func (e *StockDeductedEvent) EventType() string {
	return "StockDeducted"
}

// NewStockDeductedEvent creates a new StockDeductedEvent
func NewStockDeductedEvent(item *InventoryItem, quantity decimal.Decimal) *StockDeductedEvent {
	return &StockDeductedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("StockDeducted", "InventoryItem", item.ID),
		InventoryItemID: item.ID,
		DrugID:          item.DrugID,
		LocationID:      item.LocationID,
		Quantity:        quantity,
		QuantityOnHand:  item.QuantityOnHand,
	}
}

// StockBelowThresholdEvent is raised when a deduction pushes the on-hand
// quantity under the configured minimum
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	InventoryItemID uuid.UUID       `json:"inventory_item_id"`
	DrugID          uuid.UUID       `json:"drug_id"`
	LocationID      uuid.UUID       `json:"location_id"`
	QuantityOnHand  decimal.Decimal `json:"quantity_on_hand"`
	MinQuantity     decimal.Decimal `json:"min_quantity"`
}

// EventType returns the event type name
func (e *StockBelowThresholdEvent) EventType() string {
	return "StockBelowThreshold"
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(item *InventoryItem) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("StockBelowThreshold", "InventoryItem", item.ID),
		InventoryItemID: item.ID,
		DrugID:          item.DrugID,
		LocationID:      item.LocationID,
		QuantityOnHand:  item.QuantityOnHand,
		MinQuantity:     item.MinQuantity,
	}
}
