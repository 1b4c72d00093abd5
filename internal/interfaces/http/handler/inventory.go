package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	inventoryapp "github.com/pharmstock/backend/internal/application/inventory"
	"github.com/pharmstock/backend/internal/application/retry"
	"github.com/pharmstock/backend/internal/domain/inventory"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/pharmstock/backend/internal/interfaces/http/dto"
)

// InventoryHandler handles stock, lot and transaction log endpoints. Deductions
// and receipt application retry on concurrency conflicts before surfacing a 409.
type InventoryHandler struct {
	BaseHandler
	inventoryService *inventoryapp.InventoryService
	retryOpts        retry.Options
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService *inventoryapp.InventoryService) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		retryOpts:        retry.DefaultOptions(),
	}
}

// SetRetryOptions overrides the conflict retry policy
func (h *InventoryHandler) SetRetryOptions(opts retry.Options) {
	h.retryOpts = opts
}

// RegisterRoutes registers inventory routes on the given group
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	inv := rg.Group("/inventory")
	{
		inv.POST("/select-lots", h.SelectLots)
		inv.POST("/deductions", h.Deduct)
		inv.POST("/receipts/:id/apply", h.ApplyReceipt)
		inv.GET("/items", h.GetItem)
		inv.PUT("/items/min-quantity", h.SetMinQuantity)
		inv.GET("/locations/:locationId/items", h.ListByLocation)
		inv.GET("/below-threshold", h.ListBelowThreshold)
		inv.GET("/lots/expiring", h.ListExpiringLots)
		inv.GET("/transactions", h.ListTransactions)
	}
}

// SelectLots previews which lots a deduction would draw from. The policy
// query parameter picks FIFO or FEFO; FEFO is the default.
func (h *InventoryHandler) SelectLots(c *gin.Context) {
	var req inventoryapp.SelectLotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var (
		resp *inventoryapp.SelectLotsResponse
		err  error
	)
	switch c.DefaultQuery("policy", string(inventory.SelectionPolicyFEFO)) {
	case string(inventory.SelectionPolicyFIFO):
		resp, err = h.inventoryService.GetFifoLots(c.Request.Context(), req)
	case string(inventory.SelectionPolicyFEFO):
		resp, err = h.inventoryService.GetFefoLots(c.Request.Context(), req)
	default:
		h.BadRequest(c, "policy must be FIFO or FEFO")
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Deduct consumes stock from a (drug, location) pair
func (h *InventoryHandler) Deduct(c *gin.Context) {
	var req inventoryapp.DeductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var resp *inventoryapp.DeductResponse
	err := retry.OnConflict(c.Request.Context(), h.retryOpts, func(ctx context.Context) error {
		var err error
		resp, err = h.inventoryService.Deduct(ctx, req)
		return err
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ApplyReceipt processes an approved goods receipt into stock
func (h *InventoryHandler) ApplyReceipt(c *gin.Context) {
	receiptID, ok := h.parseID(c)
	if !ok {
		return
	}

	var resp *inventoryapp.ApplyReceiptResponse
	err := retry.OnConflict(c.Request.Context(), h.retryOpts, func(ctx context.Context) error {
		var err error
		resp, err = h.inventoryService.ApplyReceipt(ctx, inventoryapp.ApplyReceiptRequest{
			ReceiptID: receiptID,
		})
		return err
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetItem returns the inventory aggregate for a drug at a location
func (h *InventoryHandler) GetItem(c *gin.Context) {
	drugID, ok := h.parseUUIDQuery(c, "drug_id")
	if !ok {
		return
	}
	locationID, ok := h.parseUUIDQuery(c, "location_id")
	if !ok {
		return
	}

	resp, err := h.inventoryService.GetByDrugAndLocation(c.Request.Context(), drugID, locationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetMinQuantityRequest sets the reorder threshold for a drug at a location
type SetMinQuantityRequest struct {
	DrugID      uuid.UUID       `json:"drug_id" binding:"required"`
	LocationID  uuid.UUID       `json:"location_id" binding:"required"`
	MinQuantity decimal.Decimal `json:"min_quantity" binding:"required"`
}

// SetMinQuantity sets the reorder threshold for an inventory item
func (h *InventoryHandler) SetMinQuantity(c *gin.Context) {
	var req SetMinQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.inventoryService.SetMinQuantity(c.Request.Context(), req.DrugID, req.LocationID, req.MinQuantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListByLocation lists inventory items at a location
func (h *InventoryHandler) ListByLocation(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("locationId"))
	if err != nil {
		h.BadRequest(c, "invalid locationId")
		return
	}

	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	list.Normalize()

	filter := shared.Filter{
		Page:     list.Page,
		PageSize: list.PageSize,
		OrderBy:  list.OrderBy,
		OrderDir: list.OrderDir,
	}

	result, err := h.inventoryService.ListByLocation(c.Request.Context(), locationID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, list.Page, list.PageSize)
}

// ListBelowThreshold lists items whose stock dropped under their reorder point
func (h *InventoryHandler) ListBelowThreshold(c *gin.Context) {
	var locationID *uuid.UUID
	if v := c.Query("location_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "invalid location_id")
			return
		}
		locationID = &id
	}

	items, err := h.inventoryService.ListBelowThreshold(c.Request.Context(), locationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// ListExpiringLots lists active lots expiring within a window of days
func (h *InventoryHandler) ListExpiringLots(c *gin.Context) {
	days := 90
	if v := c.Query("window_days"); v != "" {
		// window_days=0 reports lots that have already expired
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			h.BadRequest(c, "window_days must be a non-negative integer")
			return
		}
		days = parsed
	}

	var locationID *uuid.UUID
	if v := c.Query("location_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "invalid location_id")
			return
		}
		locationID = &id
	}

	lots, err := h.inventoryService.ListExpiringLots(c.Request.Context(), time.Duration(days)*24*time.Hour, locationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lots)
}

// ListTransactions lists transaction log rows with optional filters
func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	list.Normalize()

	filter := inventory.TransactionFilter{}
	filter.Page = list.Page
	filter.PageSize = list.PageSize
	filter.OrderBy = list.OrderBy
	filter.OrderDir = list.OrderDir

	if v := c.Query("drug_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "invalid drug_id")
			return
		}
		filter.DrugID = &id
	}
	if v := c.Query("location_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "invalid location_id")
			return
		}
		filter.LocationID = &id
	}
	if v := c.Query("transaction_type"); v != "" {
		txType := inventory.TransactionType(v)
		filter.TransactionType = &txType
	}
	if v := c.Query("reference_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "invalid reference_id")
			return
		}
		filter.ReferenceID = &id
	}

	result, err := h.inventoryService.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, list.Page, list.PageSize)
}


// parseUUIDQuery parses a required UUID query parameter
func (h *InventoryHandler) parseUUIDQuery(c *gin.Context, name string) (uuid.UUID, bool) {
	v := c.Query(name)
	if v == "" {
		h.BadRequest(c, name+" is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(v)
	if err != nil {
		h.BadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
