package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/inventory"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/pharmstock/backend/internal/domain/shared/valueobject"
	"github.com/pharmstock/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
)

// InventoryService handles stock operations: lot selection, receipt
// processing, and distribution deduction. Every mutation runs inside one
// transaction holding the inventory aggregate's row lock, so racing receipts
// and deductions against the same (drug, location) pair are serialized.
type InventoryService struct {
	inventoryRepo   inventory.InventoryRepository
	lotRepo         inventory.DrugLotRepository
	transactionRepo inventory.InventoryTransactionRepository
	scope           TransactionScope
	eventPublisher  shared.EventPublisher
	clock           func() time.Time
}

// NewInventoryService creates a new InventoryService. The direct repositories
// serve reads; every mutation goes through the transaction scope.
func NewInventoryService(
	inventoryRepo inventory.InventoryRepository,
	lotRepo inventory.DrugLotRepository,
	transactionRepo inventory.InventoryTransactionRepository,
	scope TransactionScope,
) *InventoryService {
	return &InventoryService{
		inventoryRepo:   inventoryRepo,
		lotRepo:         lotRepo,
		transactionRepo: transactionRepo,
		scope:           scope,
		clock:           time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InventoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock overrides the time source, used to pin expiry checks in tests
func (s *InventoryService) SetClock(clock func() time.Time) {
	s.clock = clock
}

func (s *InventoryService) publishEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	for _, agg := range aggregates {
		events := agg.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		_ = s.eventPublisher.Publish(ctx, events...)
		agg.ClearDomainEvents()
	}
}

// GetFifoLots returns the lots a FIFO deduction of the quantity would
// consume. The allocation may be partial; no stock yields an empty list.
func (s *InventoryService) GetFifoLots(ctx context.Context, req SelectLotsRequest) (*SelectLotsResponse, error) {
	return s.selectLots(ctx, req, inventory.SelectionPolicyFIFO)
}

// GetFefoLots returns the lots a FEFO deduction of the quantity would
// consume, never including expired lots.
func (s *InventoryService) GetFefoLots(ctx context.Context, req SelectLotsRequest) (*SelectLotsResponse, error) {
	return s.selectLots(ctx, req, inventory.SelectionPolicyFEFO)
}

func (s *InventoryService) selectLots(ctx context.Context, req SelectLotsRequest, policy inventory.SelectionPolicy) (*SelectLotsResponse, error) {
	item, err := s.inventoryRepo.FindByDrugAndLocation(ctx, req.DrugID, req.LocationID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &SelectLotsResponse{
				Allocations:    make([]LotAllocationResponse, 0),
				TotalAllocated: decimal.Zero,
				Shortfall:      req.QuantityNeeded,
				FullyAllocated: false,
			}, nil
		}
		return nil, err
	}

	lots, err := s.lotRepo.FindActiveByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}

	result, err := inventory.SelectLots(req.QuantityNeeded, lots, policy, s.clock())
	if err != nil {
		return nil, err
	}

	response := ToSelectLotsResponse(result)
	return &response, nil
}

// ApplyReceipt processes an approved goods receipt: for each accepted line it
// finds or creates the (drug, location) aggregate, creates a lot, folds the
// line into the weighted-average cost, and appends a RECEIPT transaction.
// One transaction covers the whole receipt; a failing line persists nothing.
func (s *InventoryService) ApplyReceipt(ctx context.Context, req ApplyReceiptRequest) (_ *ApplyReceiptResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "apply_receipt",
		telemetry.WithAttribute(telemetry.SpanAttrReceiptID, req.ReceiptID),
	)
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.SetOK(span)
		}
		span.End()
	}()

	var (
		response ApplyReceiptResponse
		updated  []shared.AggregateRoot
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		receipt, err := repos.ReceiptRepo().FindByIDForUpdate(ctx, req.ReceiptID)
		if err != nil {
			return err
		}
		if !receipt.IsApproved() {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Receipt %s is %s, only approved receipts can be processed", receipt.ReceiptNumber, receipt.Status))
		}

		touched := make(map[uuid.UUID]*inventory.InventoryItem)
		lotsCreated := 0

		for _, line := range receipt.AcceptedLines() {
			item, ok := touched[line.DrugID]
			if !ok {
				item, err = repos.InventoryRepo().GetOrCreateForUpdate(ctx, line.DrugID, receipt.LocationID)
				if err != nil {
					return err
				}
				touched[line.DrugID] = item
			}

			balanceBefore := item.QuantityOnHand
			unitCost := valueobject.NewMoneyUSD(line.UnitCost)
			if err := item.ReceiveStock(line.AcceptedQuantity, unitCost); err != nil {
				return err
			}

			lot, err := inventory.NewDrugLot(item.ID, receipt.ID, line.LotNumber, line.ExpiryDate, line.AcceptedQuantity, line.UnitCost)
			if err != nil {
				return err
			}
			if err := repos.LotRepo().Save(ctx, lot); err != nil {
				return err
			}
			lotsCreated++

			tx, err := inventory.CreateReceiptTransaction(item, line.AcceptedQuantity, line.UnitCost, balanceBefore, receipt.ID)
			if err != nil {
				return err
			}
			tx.WithLotID(lot.ID)
			if req.UserID != nil {
				tx.WithCreatedBy(*req.UserID)
			}
			if err := repos.TransactionRepo().Create(ctx, tx); err != nil {
				return err
			}
		}

		for _, item := range touched {
			if err := repos.InventoryRepo().Save(ctx, item); err != nil {
				return err
			}
			updated = append(updated, item)
		}

		if err := receipt.Complete(); err != nil {
			return err
		}
		if err := repos.ReceiptRepo().Save(ctx, receipt); err != nil {
			return err
		}
		updated = append(updated, receipt)

		response = ApplyReceiptResponse{
			ReceiptID:            receipt.ID,
			LotsCreated:          lotsCreated,
			InventoryRowsUpdated: len(touched),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, updated...)
	return &response, nil
}

// Deduct consumes stock to satisfy an outgoing request. All-or-nothing: if
// the usable lots cannot cover the quantity the transaction rolls back with
// the shortfall reported, leaving every lot and the aggregate untouched.
func (s *InventoryService) Deduct(ctx context.Context, req DeductRequest) (_ *DeductResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "deduct",
		telemetry.WithAttribute(telemetry.SpanAttrDrugID, req.DrugID),
		telemetry.WithAttribute(telemetry.SpanAttrLocationID, req.LocationID),
		telemetry.WithAttribute(telemetry.SpanAttrQuantity, req.Quantity),
		telemetry.WithAttribute(telemetry.SpanAttrPolicy, req.Policy),
	)
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.SetOK(span)
		}
		span.End()
	}()

	policy := inventory.SelectionPolicy(req.Policy)
	if !policy.IsValid() {
		return nil, shared.NewDomainError("INVALID_POLICY", "Policy must be FIFO or FEFO")
	}
	referenceType := inventory.TransactionReferenceType(req.ReferenceType)
	if !referenceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_REFERENCE_TYPE", "Invalid reference type")
	}
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	var (
		response DeductResponse
		item     *inventory.InventoryItem
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		item, err = repos.InventoryRepo().FindByDrugAndLocationForUpdate(ctx, req.DrugID, req.LocationID)
		if err != nil {
			return err
		}

		lots, err := repos.LotRepo().FindActiveByItem(ctx, item.ID)
		if err != nil {
			return err
		}

		result, err := inventory.SelectLots(req.Quantity, lots, policy, s.clock())
		if err != nil {
			return err
		}
		if !result.FullyAllocated {
			return shared.NewDomainError("INSUFFICIENT_STOCK",
				fmt.Sprintf("Insufficient stock: requested %s, available %s, short %s",
					req.Quantity.StringFixed(2), result.TotalAllocated.StringFixed(2), result.Shortfall.StringFixed(2)))
		}

		lotByID := make(map[uuid.UUID]*inventory.DrugLot, len(lots))
		for i := range lots {
			lotByID[lots[i].ID] = &lots[i]
		}

		lotsUsed := make([]LotUsage, 0, len(result.Allocations))
		for _, alloc := range result.Allocations {
			lot, ok := lotByID[alloc.LotID]
			if !ok {
				return shared.NewDomainError("NOT_FOUND", "Selected lot not found: "+alloc.LotID.String())
			}
			if err := lot.Deduct(alloc.QuantityToUse); err != nil {
				return err
			}
			if err := repos.LotRepo().Save(ctx, lot); err != nil {
				return err
			}
			lotsUsed = append(lotsUsed, LotUsage{
				LotID:     lot.ID,
				LotNumber: lot.LotNumber,
				Quantity:  alloc.QuantityToUse,
				UnitCost:  alloc.UnitCost,
				TotalCost: alloc.QuantityToUse.Mul(alloc.UnitCost),
			})
		}

		balanceBefore := item.QuantityOnHand
		if err := item.DeductStock(req.Quantity); err != nil {
			return err
		}
		if err := repos.InventoryRepo().Save(ctx, item); err != nil {
			return err
		}

		tx, err := inventory.CreateDistributionTransaction(item, req.Quantity, result.WeightedAverageCost, balanceBefore, referenceType, req.ReferenceID)
		if err != nil {
			return err
		}
		if req.Notes != "" {
			tx.WithNotes(req.Notes)
		}
		if req.UserID != nil {
			tx.WithCreatedBy(*req.UserID)
		}
		if err := repos.TransactionRepo().Create(ctx, tx); err != nil {
			return err
		}

		response = DeductResponse{
			LotsUsed:            lotsUsed,
			TotalDeducted:       result.TotalAllocated,
			WeightedAverageCost: result.WeightedAverageCost,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, item)
	return &response, nil
}

// GetByDrugAndLocation retrieves the aggregate for a (drug, location) pair
func (s *InventoryService) GetByDrugAndLocation(ctx context.Context, drugID, locationID uuid.UUID) (*InventoryItemResponse, error) {
	item, err := s.inventoryRepo.FindByDrugAndLocation(ctx, drugID, locationID)
	if err != nil {
		return nil, err
	}
	response := ToInventoryItemResponse(item)
	return &response, nil
}

// ListByLocation lists inventory aggregates at a location
func (s *InventoryService) ListByLocation(ctx context.Context, locationID uuid.UUID, filter shared.Filter) (shared.Paginated[InventoryItemResponse], error) {
	page, err := s.inventoryRepo.FindByLocation(ctx, locationID, filter)
	if err != nil {
		return shared.Paginated[InventoryItemResponse]{}, err
	}
	return shared.Paginated[InventoryItemResponse]{
		Items:      ToInventoryItemResponses(page.Items),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

// ListBelowThreshold lists aggregates under their reorder threshold
func (s *InventoryService) ListBelowThreshold(ctx context.Context, locationID *uuid.UUID) ([]InventoryItemResponse, error) {
	items, err := s.inventoryRepo.FindBelowThreshold(ctx, locationID)
	if err != nil {
		return nil, err
	}
	return ToInventoryItemResponses(items), nil
}

// SetMinQuantity updates an aggregate's reorder threshold
func (s *InventoryService) SetMinQuantity(ctx context.Context, drugID, locationID uuid.UUID, minQuantity decimal.Decimal) (*InventoryItemResponse, error) {
	item, err := s.inventoryRepo.FindByDrugAndLocation(ctx, drugID, locationID)
	if err != nil {
		return nil, err
	}
	if err := item.SetMinQuantity(minQuantity); err != nil {
		return nil, err
	}
	if err := s.inventoryRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	response := ToInventoryItemResponse(item)
	return &response, nil
}

// ListExpiringLots lists active lots expiring within the window
func (s *InventoryService) ListExpiringLots(ctx context.Context, window time.Duration, locationID *uuid.UUID) ([]LotResponse, error) {
	lots, err := s.lotRepo.FindExpiringBefore(ctx, s.clock().Add(window), locationID)
	if err != nil {
		return nil, err
	}
	return ToLotResponses(lots), nil
}

// ListTransactions lists transaction log rows with filtering and pagination
func (s *InventoryService) ListTransactions(ctx context.Context, filter inventory.TransactionFilter) (shared.Paginated[TransactionResponse], error) {
	page, err := s.transactionRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[TransactionResponse]{}, err
	}
	return shared.Paginated[TransactionResponse]{
		Items:      ToTransactionResponses(page.Items),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}
