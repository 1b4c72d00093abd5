package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// SelectLotsRequest asks which lots would satisfy a quantity
type SelectLotsRequest struct {
	DrugID         uuid.UUID       `json:"drug_id" binding:"required"`
	LocationID     uuid.UUID       `json:"location_id" binding:"required"`
	QuantityNeeded decimal.Decimal `json:"quantity_needed" binding:"required,positivedec"`
}

// LotAllocationResponse is one lot's share of a selection
type LotAllocationResponse struct {
	LotID         uuid.UUID       `json:"lot_id"`
	LotNumber     string          `json:"lot_number"`
	ExpiryDate    *time.Time      `json:"expiry_date,omitempty"`
	QuantityToUse decimal.Decimal `json:"quantity_to_use"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
}

// SelectLotsResponse is a possibly-partial lot allocation. Callers must check
// Shortfall before treating it as a deduction plan.
type SelectLotsResponse struct {
	Allocations    []LotAllocationResponse `json:"allocations"`
	TotalAllocated decimal.Decimal         `json:"total_allocated"`
	Shortfall      decimal.Decimal         `json:"shortfall"`
	FullyAllocated bool                    `json:"fully_allocated"`
}

// ApplyReceiptRequest processes an approved goods receipt into stock
type ApplyReceiptRequest struct {
	ReceiptID uuid.UUID  `json:"receipt_id" binding:"required"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
}

// ApplyReceiptResponse summarizes the stock created by a receipt
type ApplyReceiptResponse struct {
	ReceiptID            uuid.UUID `json:"receipt_id"`
	LotsCreated          int       `json:"lots_created"`
	InventoryRowsUpdated int       `json:"inventory_rows_updated"`
}

// DeductRequest consumes stock from a (drug, location) pair
type DeductRequest struct {
	DrugID        uuid.UUID       `json:"drug_id" binding:"required"`
	LocationID    uuid.UUID       `json:"location_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required,positivedec"`
	ReferenceType string          `json:"reference_type" binding:"required"`
	ReferenceID   uuid.UUID       `json:"reference_id" binding:"required"`
	Policy        string          `json:"policy" binding:"required,oneof=FIFO FEFO"`
	UserID        *uuid.UUID      `json:"user_id,omitempty"`
	Notes         string          `json:"notes"`
}

// LotUsage reports what was actually consumed from one lot
type LotUsage struct {
	LotID     uuid.UUID       `json:"lot_id"`
	LotNumber string          `json:"lot_number"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// DeductResponse lists the lots consumed, for downstream costing
type DeductResponse struct {
	LotsUsed            []LotUsage      `json:"lots_used"`
	TotalDeducted       decimal.Decimal `json:"total_deducted"`
	WeightedAverageCost decimal.Decimal `json:"weighted_average_cost"`
}

// InventoryItemResponse is the read model for an inventory aggregate
type InventoryItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	DrugID         uuid.UUID       `json:"drug_id"`
	LocationID     uuid.UUID       `json:"location_id"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	LastCost       decimal.Decimal `json:"last_cost"`
	AverageCost    decimal.Decimal `json:"average_cost"`
	MinQuantity    decimal.Decimal `json:"min_quantity"`
	StockValue     decimal.Decimal `json:"stock_value"`
	BelowThreshold bool            `json:"below_threshold"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// LotResponse is the read model for a drug lot
type LotResponse struct {
	ID                uuid.UUID       `json:"id"`
	InventoryItemID   uuid.UUID       `json:"inventory_item_id"`
	ReceiptID         uuid.UUID       `json:"receipt_id"`
	LotNumber         string          `json:"lot_number"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
	QuantityAvailable decimal.Decimal `json:"quantity_available"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	ReceivedDate      time.Time       `json:"received_date"`
	IsActive          bool            `json:"is_active"`
	DaysUntilExpiry   int             `json:"days_until_expiry"`
}

// TransactionResponse is the read model for a transaction log row
type TransactionResponse struct {
	ID              uuid.UUID        `json:"id"`
	InventoryItemID uuid.UUID        `json:"inventory_item_id"`
	DrugID          uuid.UUID        `json:"drug_id"`
	LocationID      uuid.UUID        `json:"location_id"`
	LotID           *uuid.UUID       `json:"lot_id,omitempty"`
	TransactionType string           `json:"transaction_type"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	BalanceBefore   decimal.Decimal  `json:"balance_before"`
	BalanceAfter    decimal.Decimal  `json:"balance_after"`
	ReferenceType   string           `json:"reference_type"`
	ReferenceID     uuid.UUID        `json:"reference_id"`
	Notes           string           `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// ToSelectLotsResponse converts a selection result to its read model
func ToSelectLotsResponse(result *inventory.LotSelectionResult) SelectLotsResponse {
	allocations := make([]LotAllocationResponse, len(result.Allocations))
	for i, a := range result.Allocations {
		allocations[i] = LotAllocationResponse{
			LotID:         a.LotID,
			LotNumber:     a.LotNumber,
			ExpiryDate:    a.ExpiryDate,
			QuantityToUse: a.QuantityToUse,
			UnitCost:      a.UnitCost,
		}
	}
	return SelectLotsResponse{
		Allocations:    allocations,
		TotalAllocated: result.TotalAllocated,
		Shortfall:      result.Shortfall,
		FullyAllocated: result.FullyAllocated,
	}
}

// ToInventoryItemResponse converts an aggregate to its read model
func ToInventoryItemResponse(item *inventory.InventoryItem) InventoryItemResponse {
	return InventoryItemResponse{
		ID:             item.ID,
		DrugID:         item.DrugID,
		LocationID:     item.LocationID,
		QuantityOnHand: item.QuantityOnHand,
		LastCost:       item.LastCost,
		AverageCost:    item.AverageCost,
		MinQuantity:    item.MinQuantity,
		StockValue:     item.StockValue(),
		BelowThreshold: item.IsBelowThreshold(),
		UpdatedAt:      item.UpdatedAt,
	}
}

// ToInventoryItemResponses converts a slice of aggregates
func ToInventoryItemResponses(items []inventory.InventoryItem) []InventoryItemResponse {
	responses := make([]InventoryItemResponse, len(items))
	for i := range items {
		responses[i] = ToInventoryItemResponse(&items[i])
	}
	return responses
}

// ToLotResponse converts a lot to its read model
func ToLotResponse(lot *inventory.DrugLot) LotResponse {
	return LotResponse{
		ID:                lot.ID,
		InventoryItemID:   lot.InventoryItemID,
		ReceiptID:         lot.ReceiptID,
		LotNumber:         lot.LotNumber,
		ExpiryDate:        lot.ExpiryDate,
		QuantityAvailable: lot.QuantityAvailable,
		UnitCost:          lot.UnitCost,
		ReceivedDate:      lot.ReceivedDate,
		IsActive:          lot.IsActive,
		DaysUntilExpiry:   lot.DaysUntilExpiry(),
	}
}

// ToLotResponses converts a slice of lots
func ToLotResponses(lots []inventory.DrugLot) []LotResponse {
	responses := make([]LotResponse, len(lots))
	for i := range lots {
		responses[i] = ToLotResponse(&lots[i])
	}
	return responses
}

// ToTransactionResponse converts a transaction row to its read model
func ToTransactionResponse(tx *inventory.InventoryTransaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		InventoryItemID: tx.InventoryItemID,
		DrugID:          tx.DrugID,
		LocationID:      tx.LocationID,
		LotID:           tx.LotID,
		TransactionType: string(tx.TransactionType),
		Quantity:        tx.Quantity,
		UnitCost:        tx.UnitCost,
		BalanceBefore:   tx.BalanceBefore,
		BalanceAfter:    tx.BalanceAfter,
		ReferenceType:   string(tx.ReferenceType),
		ReferenceID:     tx.ReferenceID,
		Notes:           tx.Notes,
		CreatedAt:       tx.CreatedAt,
	}
}

// ToTransactionResponses converts a slice of transaction rows
func ToTransactionResponses(txs []inventory.InventoryTransaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txs))
	for i := range txs {
		responses[i] = ToTransactionResponse(&txs[i])
	}
	return responses
}
