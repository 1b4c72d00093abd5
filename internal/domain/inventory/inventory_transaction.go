package inventory

import (
	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionType represents the type of inventory transaction
type TransactionType string

const (
	// TransactionTypeReceipt represents stock entering inventory from an
	// approved goods receipt
	TransactionTypeReceipt TransactionType = "RECEIPT"
	// TransactionTypeDistribution represents stock leaving inventory to
	// satisfy a distribution
	TransactionTypeDistribution TransactionType = "DISTRIBUTION"
	// TransactionTypeAdjustment represents a manual correction
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
	// TransactionTypeReturn represents stock coming back from a distribution
	TransactionTypeReturn TransactionType = "RETURN"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeReceipt, TransactionTypeDistribution, TransactionTypeAdjustment, TransactionTypeReturn:
		return true
	}
	return false
}

// TransactionReferenceType identifies the document that triggered a movement
type TransactionReferenceType string

const (
	ReferenceGoodsReceipt      TransactionReferenceType = "GOODS_RECEIPT"
	ReferenceDistributionOrder TransactionReferenceType = "DISTRIBUTION_ORDER"
	ReferenceManualAdjustment  TransactionReferenceType = "MANUAL_ADJUSTMENT"
	ReferenceReturnOrder       TransactionReferenceType = "RETURN_ORDER"
)

// IsValid returns true if the reference type is valid
func (r TransactionReferenceType) IsValid() bool {
	switch r {
	case ReferenceGoodsReceipt, ReferenceDistributionOrder, ReferenceManualAdjustment, ReferenceReturnOrder:
		return true
	}
	return false
}

// InventoryTransaction is an immutable, append-only record of a stock
// movement. Quantity is signed: positive for stock entering, negative for
// stock leaving. Corrections are made with new rows, never by editing.
type InventoryTransaction struct {
	shared.BaseEntity
	InventoryItemID uuid.UUID                `json:"inventory_item_id" gorm:"type:uuid;not null;index:idx_inv_tx_item"`
	DrugID          uuid.UUID                `json:"drug_id" gorm:"type:uuid;not null;index:idx_inv_tx_drug"`
	LocationID      uuid.UUID                `json:"location_id" gorm:"type:uuid;not null;index:idx_inv_tx_location"`
	LotID           *uuid.UUID               `json:"lot_id,omitempty" gorm:"type:uuid;index"`
	TransactionType TransactionType          `json:"transaction_type" gorm:"type:varchar(20);not null;index:idx_inv_tx_type"`
	Quantity        decimal.Decimal          `json:"quantity" gorm:"type:decimal(18,4);not null"`
	UnitCost        *decimal.Decimal         `json:"unit_cost,omitempty" gorm:"type:decimal(18,4)"`
	BalanceBefore   decimal.Decimal          `json:"balance_before" gorm:"type:decimal(18,4);not null"`
	BalanceAfter    decimal.Decimal          `json:"balance_after" gorm:"type:decimal(18,4);not null"`
	ReferenceType   TransactionReferenceType `json:"reference_type" gorm:"type:varchar(30);not null;index:idx_inv_tx_reference"`
	ReferenceID     uuid.UUID                `json:"reference_id" gorm:"type:uuid;not null;index:idx_inv_tx_reference"`
	Notes           string                   `json:"notes" gorm:"type:text"`
	CreatedBy       *uuid.UUID               `json:"created_by,omitempty" gorm:"type:uuid"`
}

// TableName returns the database table name
func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}

// NewInventoryTransaction creates a transaction row. The sign of quantity
// must agree with the transaction type: receipts and returns are positive,
// distributions negative.
func NewInventoryTransaction(
	item *InventoryItem,
	txType TransactionType,
	quantity decimal.Decimal,
	balanceBefore decimal.Decimal,
	referenceType TransactionReferenceType,
	referenceID uuid.UUID,
) (*InventoryTransaction, error) {
	if item == nil {
		return nil, shared.NewDomainError("INVALID_INVENTORY_ITEM", "Inventory item cannot be nil")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid transaction type")
	}
	if quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Transaction quantity cannot be zero")
	}
	switch txType {
	case TransactionTypeReceipt, TransactionTypeReturn:
		if quantity.IsNegative() {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Inbound transaction quantity must be positive")
		}
	case TransactionTypeDistribution:
		if quantity.IsPositive() {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Distribution transaction quantity must be negative")
		}
	}
	if !referenceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_REFERENCE_TYPE", "Invalid reference type")
	}
	if referenceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference ID cannot be empty")
	}

	return &InventoryTransaction{
		BaseEntity:      shared.NewBaseEntity(),
		InventoryItemID: item.ID,
		DrugID:          item.DrugID,
		LocationID:      item.LocationID,
		TransactionType: txType,
		Quantity:        quantity,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    balanceBefore.Add(quantity),
		ReferenceType:   referenceType,
		ReferenceID:     referenceID,
	}, nil
}

// WithUnitCost records the cost per unit at the time of the movement
func (t *InventoryTransaction) WithUnitCost(unitCost decimal.Decimal) *InventoryTransaction {
	t.UnitCost = &unitCost
	return t
}

// WithLotID links the movement to a specific lot
func (t *InventoryTransaction) WithLotID(lotID uuid.UUID) *InventoryTransaction {
	t.LotID = &lotID
	return t
}

// WithNotes attaches free-form notes
func (t *InventoryTransaction) WithNotes(notes string) *InventoryTransaction {
	t.Notes = notes
	return t
}

// WithCreatedBy records the operator
func (t *InventoryTransaction) WithCreatedBy(userID uuid.UUID) *InventoryTransaction {
	t.CreatedBy = &userID
	return t
}

// IsInbound returns true if the movement increased stock
func (t *InventoryTransaction) IsInbound() bool {
	return t.Quantity.IsPositive()
}

// IsOutbound returns true if the movement decreased stock
func (t *InventoryTransaction) IsOutbound() bool {
	return t.Quantity.IsNegative()
}

// TotalCost returns the absolute cost of the movement, zero when no unit
// cost was recorded
func (t *InventoryTransaction) TotalCost() decimal.Decimal {
	if t.UnitCost == nil {
		return decimal.Zero
	}
	return t.Quantity.Abs().Mul(*t.UnitCost)
}

// CreateReceiptTransaction is a helper for stock entering from a receipt
func CreateReceiptTransaction(
	item *InventoryItem,
	quantity decimal.Decimal,
	unitCost decimal.Decimal,
	balanceBefore decimal.Decimal,
	receiptID uuid.UUID,
) (*InventoryTransaction, error) {
	tx, err := NewInventoryTransaction(item, TransactionTypeReceipt, quantity, balanceBefore, ReferenceGoodsReceipt, receiptID)
	if err != nil {
		return nil, err
	}
	return tx.WithUnitCost(unitCost), nil
}

// CreateDistributionTransaction is a helper for stock leaving to a
// distribution. The positive quantity is negated for the log row.
func CreateDistributionTransaction(
	item *InventoryItem,
	quantity decimal.Decimal,
	unitCost decimal.Decimal,
	balanceBefore decimal.Decimal,
	referenceType TransactionReferenceType,
	referenceID uuid.UUID,
) (*InventoryTransaction, error) {
	tx, err := NewInventoryTransaction(item, TransactionTypeDistribution, quantity.Neg(), balanceBefore, referenceType, referenceID)
	if err != nil {
		return nil, err
	}
	return tx.WithUnitCost(unitCost), nil
}
