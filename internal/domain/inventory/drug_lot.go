package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DrugLot is a traceable physical batch belonging to an InventoryItem. Lots
// are created by receipt processing and only ever decremented afterwards;
// exhausted lots are deactivated rather than deleted so the audit trail stays
// intact.
type DrugLot struct {
	shared.BaseEntity
	InventoryItemID   uuid.UUID       `json:"inventory_item_id" gorm:"type:uuid;not null;index:idx_drug_lot_item"`
	ReceiptID         uuid.UUID       `json:"receipt_id" gorm:"type:uuid;not null;index:idx_drug_lot_receipt"`
	LotNumber         string          `json:"lot_number" gorm:"type:varchar(50);not null"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty" gorm:"index"`
	QuantityAvailable decimal.Decimal `json:"quantity_available" gorm:"type:decimal(18,4);not null"`
	UnitCost          decimal.Decimal `json:"unit_cost" gorm:"type:decimal(18,4);not null"`
	ReceivedDate      time.Time       `json:"received_date" gorm:"not null;index"`
	IsActive          bool            `json:"is_active" gorm:"not null;default:true;index"`
}

// TableName returns the database table name
func (DrugLot) TableName() string {
	return "drug_lots"
}

// NewDrugLot creates an active lot from an accepted receipt line
func NewDrugLot(
	inventoryItemID uuid.UUID,
	receiptID uuid.UUID,
	lotNumber string,
	expiryDate *time.Time,
	quantity decimal.Decimal,
	unitCost decimal.Decimal,
) (*DrugLot, error) {
	if inventoryItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVENTORY_ITEM", "Inventory item ID cannot be empty")
	}
	if receiptID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECEIPT", "Receipt ID cannot be empty")
	}
	if lotNumber == "" {
		return nil, shared.NewDomainError("INVALID_LOT_NUMBER", "Lot number cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Lot quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	return &DrugLot{
		BaseEntity:        shared.NewBaseEntity(),
		InventoryItemID:   inventoryItemID,
		ReceiptID:         receiptID,
		LotNumber:         lotNumber,
		ExpiryDate:        expiryDate,
		QuantityAvailable: quantity,
		UnitCost:          unitCost,
		ReceivedDate:      time.Now(),
		IsActive:          true,
	}, nil
}

// IsExpiredAt returns true if the lot's expiry date is not strictly after
// the given instant. Lots without an expiry date never expire.
func (l *DrugLot) IsExpiredAt(asOf time.Time) bool {
	if l.ExpiryDate == nil {
		return false
	}
	return !l.ExpiryDate.After(asOf)
}

// IsExpired returns true if the lot has expired
func (l *DrugLot) IsExpired() bool {
	return l.IsExpiredAt(time.Now())
}

// HasStock returns true if the lot is active with remaining quantity
func (l *DrugLot) HasStock() bool {
	return l.IsActive && l.QuantityAvailable.GreaterThan(decimal.Zero)
}

// Deduct removes exactly quantity from the lot and deactivates it when it
// reaches zero. Unlike a best-effort take, asking for more than is available
// is an error: the selector already capped the amount at the lot's quantity.
func (l *DrugLot) Deduct(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Deducted quantity must be positive")
	}
	if quantity.GreaterThan(l.QuantityAvailable) {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Lot %s has %s available, cannot deduct %s", l.LotNumber, l.QuantityAvailable.StringFixed(2), quantity.StringFixed(2)))
	}

	l.QuantityAvailable = l.QuantityAvailable.Sub(quantity)
	if l.QuantityAvailable.IsZero() {
		l.IsActive = false
	}
	l.UpdatedAt = time.Now()

	return nil
}

// DaysUntilExpiry returns the number of days until expiry, -1 if the lot has
// no expiry date
func (l *DrugLot) DaysUntilExpiry() int {
	if l.ExpiryDate == nil {
		return -1
	}
	return int(time.Until(*l.ExpiryDate).Hours() / 24)
}

// TotalValue returns the value of the remaining quantity at the lot's cost
func (l *DrugLot) TotalValue() decimal.Decimal {
	return l.QuantityAvailable.Mul(l.UnitCost)
}
