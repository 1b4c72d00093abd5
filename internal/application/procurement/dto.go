package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/procurement"
	"github.com/shopspring/decimal"
)

// CreateReceiptRequest opens a goods receipt draft
type CreateReceiptRequest struct {
	ReceiptNumber string    `json:"receipt_number" binding:"required,max=50"`
	SupplierID    uuid.UUID `json:"supplier_id" binding:"required"`
	LocationID    uuid.UUID `json:"location_id" binding:"required"`
	Notes         string    `json:"notes"`
}

// AddLineRequest appends a shipment line to a draft receipt
type AddLineRequest struct {
	DrugID           uuid.UUID       `json:"drug_id" binding:"required"`
	LotNumber        string          `json:"lot_number" binding:"required,max=50"`
	ExpiryDate       *time.Time      `json:"expiry_date,omitempty"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity" binding:"required"`
	AcceptedQuantity decimal.Decimal `json:"accepted_quantity" binding:"required"`
	UnitCost         decimal.Decimal `json:"unit_cost" binding:"required"`
}

// CancelReceiptRequest abandons a receipt
type CancelReceiptRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

// ReceiptLineResponse is the read model for a receipt line
type ReceiptLineResponse struct {
	ID               uuid.UUID       `json:"id"`
	DrugID           uuid.UUID       `json:"drug_id"`
	LotNumber        string          `json:"lot_number"`
	ExpiryDate       *time.Time      `json:"expiry_date,omitempty"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity"`
	AcceptedQuantity decimal.Decimal `json:"accepted_quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	LineTotal        decimal.Decimal `json:"line_total"`
}

// ReceiptResponse is the read model for a goods receipt
type ReceiptResponse struct {
	ID            uuid.UUID             `json:"id"`
	ReceiptNumber string                `json:"receipt_number"`
	SupplierID    uuid.UUID             `json:"supplier_id"`
	LocationID    uuid.UUID             `json:"location_id"`
	Status        string                `json:"status"`
	Lines         []ReceiptLineResponse `json:"lines"`
	TotalValue    decimal.Decimal       `json:"total_value"`
	Notes         string                `json:"notes,omitempty"`
	SubmittedAt   *time.Time            `json:"submitted_at,omitempty"`
	ApprovedAt    *time.Time            `json:"approved_at,omitempty"`
	CompletedAt   *time.Time            `json:"completed_at,omitempty"`
	CancelledAt   *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason  string                `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// ToReceiptResponse converts a domain receipt to its read model
func ToReceiptResponse(gr *procurement.GoodsReceipt) ReceiptResponse {
	lines := make([]ReceiptLineResponse, len(gr.Lines))
	for i, line := range gr.Lines {
		lines[i] = ReceiptLineResponse{
			ID:               line.ID,
			DrugID:           line.DrugID,
			LotNumber:        line.LotNumber,
			ExpiryDate:       line.ExpiryDate,
			ReceivedQuantity: line.ReceivedQuantity,
			AcceptedQuantity: line.AcceptedQuantity,
			UnitCost:         line.UnitCost,
			LineTotal:        line.LineTotal(),
		}
	}
	return ReceiptResponse{
		ID:            gr.ID,
		ReceiptNumber: gr.ReceiptNumber,
		SupplierID:    gr.SupplierID,
		LocationID:    gr.LocationID,
		Status:        string(gr.Status),
		Lines:         lines,
		TotalValue:    gr.TotalValue(),
		Notes:         gr.Notes,
		SubmittedAt:   gr.SubmittedAt,
		ApprovedAt:    gr.ApprovedAt,
		CompletedAt:   gr.CompletedAt,
		CancelledAt:   gr.CancelledAt,
		CancelReason:  gr.CancelReason,
		CreatedAt:     gr.CreatedAt,
	}
}

// ToReceiptResponses converts a slice of receipts
func ToReceiptResponses(items []procurement.GoodsReceipt) []ReceiptResponse {
	responses := make([]ReceiptResponse, len(items))
	for i := range items {
		responses[i] = ToReceiptResponse(&items[i])
	}
	return responses
}
