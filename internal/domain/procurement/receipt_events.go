package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReceiptCreatedEvent is raised when a goods receipt draft is created
type ReceiptCreatedEvent struct {
	shared.BaseDomainEvent
	ReceiptID     uuid.UUID `json:"receipt_id"`
	ReceiptNumber string    `json:"receipt_number"`
	SupplierID    uuid.UUID `json:"supplier_id"`
	LocationID    uuid.UUID `json:"location_id"`
}

// EventType returns the event type name
func (e *ReceiptCreatedEvent) EventType() string {
	return "GoodsReceiptCreated"
}

// NewReceiptCreatedEvent creates a new ReceiptCreatedEvent
func NewReceiptCreatedEvent(gr *GoodsReceipt) *ReceiptCreatedEvent {
	return &ReceiptCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("GoodsReceiptCreated", "GoodsReceipt", gr.ID),
		ReceiptID:       gr.ID,
		ReceiptNumber:   gr.ReceiptNumber,
		SupplierID:      gr.SupplierID,
		LocationID:      gr.LocationID,
	}
}

// ReceiptApprovedEvent is raised when a receipt is approved for processing
type ReceiptApprovedEvent struct {
	shared.BaseDomainEvent
	ReceiptID     uuid.UUID       `json:"receipt_id"`
	ReceiptNumber string          `json:"receipt_number"`
	LocationID    uuid.UUID       `json:"location_id"`
	TotalValue    decimal.Decimal `json:"total_value"`
	ApprovedBy    *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt    time.Time       `json:"approved_at"`
}

// EventType returns the event type name
func (e *ReceiptApprovedEvent) EventType() string {
	return "GoodsReceiptApproved"
}

// NewReceiptApprovedEvent creates a new ReceiptApprovedEvent
func NewReceiptApprovedEvent(gr *GoodsReceipt) *ReceiptApprovedEvent {
	approvedAt := time.Now()
	if gr.ApprovedAt != nil {
		approvedAt = *gr.ApprovedAt
	}
	return &ReceiptApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("GoodsReceiptApproved", "GoodsReceipt", gr.ID),
		ReceiptID:       gr.ID,
		ReceiptNumber:   gr.ReceiptNumber,
		LocationID:      gr.LocationID,
		TotalValue:      gr.TotalValue(),
		ApprovedBy:      gr.ApprovedBy,
		ApprovedAt:      approvedAt,
	}
}

// ReceiptCompletedEvent is raised when a receipt's stock has been processed
type ReceiptCompletedEvent struct {
	shared.BaseDomainEvent
	ReceiptID     uuid.UUID       `json:"receipt_id"`
	ReceiptNumber string          `json:"receipt_number"`
	LocationID    uuid.UUID       `json:"location_id"`
	LineCount     int             `json:"line_count"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// EventType returns the event type name
func (e *ReceiptCompletedEvent) EventType() string {
	return "GoodsReceiptCompleted"
}

// NewReceiptCompletedEvent creates a new ReceiptCompletedEvent
func NewReceiptCompletedEvent(gr *GoodsReceipt) *ReceiptCompletedEvent {
	return &ReceiptCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("GoodsReceiptCompleted", "GoodsReceipt", gr.ID),
		ReceiptID:       gr.ID,
		ReceiptNumber:   gr.ReceiptNumber,
		LocationID:      gr.LocationID,
		LineCount:       len(gr.Lines),
		TotalValue:      gr.TotalValue(),
	}
}

// ReceiptCancelledEvent is raised when a receipt is abandoned
type ReceiptCancelledEvent struct {
	shared.BaseDomainEvent
	ReceiptID     uuid.UUID `json:"receipt_id"`
	ReceiptNumber string    `json:"receipt_number"`
	Reason        string    `json:"reason"`
}

// EventType returns the event type name
func (e *ReceiptCancelledEvent) EventType() string {
	return "GoodsReceiptCancelled"
}

// NewReceiptCancelledEvent creates a new ReceiptCancelledEvent
func NewReceiptCancelledEvent(gr *GoodsReceipt) *ReceiptCancelledEvent {
	return &ReceiptCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("GoodsReceiptCancelled", "GoodsReceipt", gr.ID),
		ReceiptID:       gr.ID,
		ReceiptNumber:   gr.ReceiptNumber,
		Reason:          gr.CancelReason,
	}
}
