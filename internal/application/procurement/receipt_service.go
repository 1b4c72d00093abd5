package procurement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/procurement"
	"github.com/pharmstock/backend/internal/domain/shared"
)

// ReceiptService manages the goods receipt lifecycle up to approval. The
// stock side effects of a completed receipt live in the inventory service;
// this one only moves receipts through DRAFT, SUBMITTED, APPROVED and
// CANCELLED.
type ReceiptService struct {
	receiptRepo    procurement.GoodsReceiptRepository
	eventPublisher shared.EventPublisher
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(receiptRepo procurement.GoodsReceiptRepository) *ReceiptService {
	return &ReceiptService{receiptRepo: receiptRepo}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ReceiptService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *ReceiptService) publishEvents(ctx context.Context, gr *procurement.GoodsReceipt) {
	if s.eventPublisher == nil {
		return
	}
	events := gr.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	gr.ClearDomainEvents()
}

// Create opens a new receipt draft
func (s *ReceiptService) Create(ctx context.Context, req CreateReceiptRequest) (*ReceiptResponse, error) {
	existing, err := s.receiptRepo.FindByNumber(ctx, req.ReceiptNumber)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Receipt number already in use")
	}

	receipt, err := procurement.NewGoodsReceipt(req.ReceiptNumber, req.SupplierID, req.LocationID)
	if err != nil {
		return nil, err
	}
	receipt.Notes = req.Notes

	if err := s.receiptRepo.Save(ctx, receipt); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, receipt)
	response := ToReceiptResponse(receipt)
	return &response, nil
}

// AddLine appends a shipment line to a draft receipt
func (s *ReceiptService) AddLine(ctx context.Context, receiptID uuid.UUID, req AddLineRequest) (*ReceiptResponse, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}

	if err := receipt.AddLine(req.DrugID, req.LotNumber, req.ExpiryDate, req.ReceivedQuantity, req.AcceptedQuantity, req.UnitCost); err != nil {
		return nil, err
	}
	if err := s.receiptRepo.Save(ctx, receipt); err != nil {
		return nil, err
	}

	response := ToReceiptResponse(receipt)
	return &response, nil
}

// Submit moves a draft receipt to SUBMITTED
func (s *ReceiptService) Submit(ctx context.Context, receiptID uuid.UUID) (*ReceiptResponse, error) {
	return s.transition(ctx, receiptID, func(gr *procurement.GoodsReceipt) error {
		return gr.Submit()
	})
}

// Approve moves a submitted receipt to APPROVED, making it eligible for
// stock processing
func (s *ReceiptService) Approve(ctx context.Context, receiptID, approverID uuid.UUID) (*ReceiptResponse, error) {
	return s.transition(ctx, receiptID, func(gr *procurement.GoodsReceipt) error {
		return gr.Approve(approverID)
	})
}

// Cancel abandons a receipt that has not been processed
func (s *ReceiptService) Cancel(ctx context.Context, receiptID uuid.UUID, req CancelReceiptRequest) (*ReceiptResponse, error) {
	return s.transition(ctx, receiptID, func(gr *procurement.GoodsReceipt) error {
		return gr.Cancel(req.Reason)
	})
}

func (s *ReceiptService) transition(ctx context.Context, receiptID uuid.UUID, fn func(*procurement.GoodsReceipt) error) (*ReceiptResponse, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if err := fn(receipt); err != nil {
		return nil, err
	}
	if err := s.receiptRepo.Save(ctx, receipt); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, receipt)
	response := ToReceiptResponse(receipt)
	return &response, nil
}

// Get retrieves a receipt by ID
func (s *ReceiptService) Get(ctx context.Context, receiptID uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	response := ToReceiptResponse(receipt)
	return &response, nil
}

// List lists receipts with filtering and pagination
func (s *ReceiptService) List(ctx context.Context, filter procurement.ReceiptFilter) (shared.Paginated[ReceiptResponse], error) {
	page, err := s.receiptRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[ReceiptResponse]{}, err
	}
	return shared.Paginated[ReceiptResponse]{
		Items:      ToReceiptResponses(page.Items),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}
