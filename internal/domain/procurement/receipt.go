package procurement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReceiptStatus represents the lifecycle state of a goods receipt
type ReceiptStatus string

const (
	ReceiptStatusDraft     ReceiptStatus = "DRAFT"     // Being edited, lines may change
	ReceiptStatusSubmitted ReceiptStatus = "SUBMITTED" // Awaiting approval
	ReceiptStatusApproved  ReceiptStatus = "APPROVED"  // Ready for stock processing
	ReceiptStatusCompleted ReceiptStatus = "COMPLETED" // Lots created, inventory updated (terminal)
	ReceiptStatusCancelled ReceiptStatus = "CANCELLED" // Abandoned before processing (terminal)
)

// IsValid checks if the status is a valid ReceiptStatus
func (s ReceiptStatus) IsValid() bool {
	switch s {
	case ReceiptStatusDraft, ReceiptStatusSubmitted, ReceiptStatusApproved,
		ReceiptStatusCompleted, ReceiptStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ReceiptStatus
func (s ReceiptStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the receipt can no longer transition
func (s ReceiptStatus) IsTerminal() bool {
	return s == ReceiptStatusCompleted || s == ReceiptStatusCancelled
}

// CanEdit returns true if lines may still be added or changed
func (s ReceiptStatus) CanEdit() bool {
	return s == ReceiptStatusDraft
}

// ReceiptLine is one incoming shipment line. AcceptedQuantity is what passed
// inspection and becomes a lot; the difference against ReceivedQuantity is
// the rejected portion.
type ReceiptLine struct {
	ID               uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	ReceiptID        uuid.UUID       `json:"receipt_id" gorm:"type:uuid;not null;index"`
	DrugID           uuid.UUID       `json:"drug_id" gorm:"type:uuid;not null"`
	LotNumber        string          `json:"lot_number" gorm:"type:varchar(50);not null"`
	ExpiryDate       *time.Time      `json:"expiry_date,omitempty"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity" gorm:"type:decimal(18,4);not null"`
	AcceptedQuantity decimal.Decimal `json:"accepted_quantity" gorm:"type:decimal(18,4);not null"`
	UnitCost         decimal.Decimal `json:"unit_cost" gorm:"type:decimal(18,4);not null"`
	CreatedAt        time.Time       `json:"created_at"`
}

// TableName returns the database table name
func (ReceiptLine) TableName() string {
	return "goods_receipt_lines"
}

// LineTotal returns the accepted value of the line
func (l *ReceiptLine) LineTotal() decimal.Decimal {
	return l.AcceptedQuantity.Mul(l.UnitCost)
}

// GoodsReceipt is an incoming shipment for a location. Only an APPROVED
// receipt may be processed into lots; processing marks it COMPLETED.
type GoodsReceipt struct {
	shared.BaseAggregateRoot
	ReceiptNumber string        `json:"receipt_number" gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID    uuid.UUID     `json:"supplier_id" gorm:"type:uuid;not null;index"`
	LocationID    uuid.UUID     `json:"location_id" gorm:"type:uuid;not null;index"`
	Status        ReceiptStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	Lines         []ReceiptLine `json:"lines" gorm:"foreignKey:ReceiptID;references:ID"`
	Notes         string        `json:"notes" gorm:"type:text"`
	SubmittedAt   *time.Time    `json:"submitted_at,omitempty"`
	ApprovedAt    *time.Time    `json:"approved_at,omitempty"`
	ApprovedBy    *uuid.UUID    `json:"approved_by,omitempty" gorm:"type:uuid"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	CancelledAt   *time.Time    `json:"cancelled_at,omitempty"`
	CancelReason  string        `json:"cancel_reason" gorm:"type:varchar(255)"`
}

// TableName returns the database table name
func (GoodsReceipt) TableName() string {
	return "goods_receipts"
}

// NewGoodsReceipt creates a DRAFT receipt
func NewGoodsReceipt(receiptNumber string, supplierID, locationID uuid.UUID) (*GoodsReceipt, error) {
	if receiptNumber == "" {
		return nil, shared.NewDomainError("INVALID_RECEIPT_NUMBER", "Receipt number cannot be empty")
	}
	if len(receiptNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_RECEIPT_NUMBER", "Receipt number cannot exceed 50 characters")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Location ID cannot be empty")
	}

	gr := &GoodsReceipt{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReceiptNumber:     receiptNumber,
		SupplierID:        supplierID,
		LocationID:        locationID,
		Status:            ReceiptStatusDraft,
		Lines:             make([]ReceiptLine, 0),
	}

	gr.AddDomainEvent(NewReceiptCreatedEvent(gr))

	return gr, nil
}

// AddLine appends a shipment line to a DRAFT receipt
func (gr *GoodsReceipt) AddLine(
	drugID uuid.UUID,
	lotNumber string,
	expiryDate *time.Time,
	receivedQuantity decimal.Decimal,
	acceptedQuantity decimal.Decimal,
	unitCost decimal.Decimal,
) error {
	if !gr.Status.CanEdit() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot add lines to receipt in %s status", gr.Status))
	}
	if drugID == uuid.Nil {
		return shared.NewDomainError("INVALID_DRUG", "Drug ID cannot be empty")
	}
	if lotNumber == "" {
		return shared.NewDomainError("INVALID_LOT_NUMBER", "Lot number cannot be empty")
	}
	if receivedQuantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Received quantity must be positive")
	}
	if acceptedQuantity.IsNegative() || acceptedQuantity.GreaterThan(receivedQuantity) {
		return shared.NewDomainError("INVALID_QUANTITY", "Accepted quantity must be between zero and received quantity")
	}
	if unitCost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	gr.Lines = append(gr.Lines, ReceiptLine{
		ID:               uuid.New(),
		ReceiptID:        gr.ID,
		DrugID:           drugID,
		LotNumber:        lotNumber,
		ExpiryDate:       expiryDate,
		ReceivedQuantity: receivedQuantity,
		AcceptedQuantity: acceptedQuantity,
		UnitCost:         unitCost,
		CreatedAt:        time.Now(),
	})
	gr.UpdatedAt = time.Now()
	gr.IncrementVersion()

	return nil
}

// Submit moves a DRAFT receipt with at least one line to SUBMITTED
func (gr *GoodsReceipt) Submit() error {
	if gr.Status != ReceiptStatusDraft {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot submit receipt in %s status", gr.Status))
	}
	if len(gr.Lines) == 0 {
		return shared.NewDomainError("NO_LINES", "Receipt must have at least one line")
	}

	now := time.Now()
	gr.Status = ReceiptStatusSubmitted
	gr.SubmittedAt = &now
	gr.UpdatedAt = now
	gr.IncrementVersion()

	return nil
}

// Approve moves a SUBMITTED receipt to APPROVED, making it eligible for
// stock processing
func (gr *GoodsReceipt) Approve(approverID uuid.UUID) error {
	if gr.Status != ReceiptStatusSubmitted {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot approve receipt in %s status", gr.Status))
	}
	if approverID == uuid.Nil {
		return shared.NewDomainError("INVALID_APPROVER", "Approver ID cannot be empty")
	}

	now := time.Now()
	gr.Status = ReceiptStatusApproved
	gr.ApprovedAt = &now
	gr.ApprovedBy = &approverID
	gr.UpdatedAt = now
	gr.IncrementVersion()

	gr.AddDomainEvent(NewReceiptApprovedEvent(gr))

	return nil
}

// Complete marks an APPROVED receipt as processed into stock
func (gr *GoodsReceipt) Complete() error {
	if gr.Status != ReceiptStatusApproved {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot complete receipt in %s status", gr.Status))
	}

	now := time.Now()
	gr.Status = ReceiptStatusCompleted
	gr.CompletedAt = &now
	gr.UpdatedAt = now
	gr.IncrementVersion()

	gr.AddDomainEvent(NewReceiptCompletedEvent(gr))

	return nil
}

// Cancel abandons a receipt that has not been processed
func (gr *GoodsReceipt) Cancel(reason string) error {
	if gr.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel receipt in %s status", gr.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	gr.Status = ReceiptStatusCancelled
	gr.CancelledAt = &now
	gr.CancelReason = reason
	gr.UpdatedAt = now
	gr.IncrementVersion()

	gr.AddDomainEvent(NewReceiptCancelledEvent(gr))

	return nil
}

// IsApproved returns true if the receipt is ready for stock processing
func (gr *GoodsReceipt) IsApproved() bool {
	return gr.Status == ReceiptStatusApproved
}

// AcceptedLines returns the lines with a positive accepted quantity
func (gr *GoodsReceipt) AcceptedLines() []ReceiptLine {
	accepted := make([]ReceiptLine, 0, len(gr.Lines))
	for _, line := range gr.Lines {
		if line.AcceptedQuantity.GreaterThan(decimal.Zero) {
			accepted = append(accepted, line)
		}
	}
	return accepted
}

// TotalValue returns the accepted value across all lines
func (gr *GoodsReceipt) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, line := range gr.Lines {
		total = total.Add(line.LineTotal())
	}
	return total
}
