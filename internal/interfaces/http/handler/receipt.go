package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	procurementapp "github.com/pharmstock/backend/internal/application/procurement"
	"github.com/pharmstock/backend/internal/domain/procurement"
	"github.com/pharmstock/backend/internal/interfaces/http/dto"
)

// ReceiptHandler handles goods receipt lifecycle endpoints
type ReceiptHandler struct {
	BaseHandler
	receiptService *procurementapp.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receiptService *procurementapp.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// RegisterRoutes registers receipt routes on the given group
func (h *ReceiptHandler) RegisterRoutes(rg *gin.RouterGroup) {
	receipts := rg.Group("/receipts")
	{
		receipts.POST("", h.Create)
		receipts.GET("", h.List)
		receipts.GET("/:id", h.Get)
		receipts.POST("/:id/lines", h.AddLine)
		receipts.POST("/:id/submit", h.Submit)
		receipts.POST("/:id/approve", h.Approve)
		receipts.POST("/:id/cancel", h.Cancel)
	}
}

// Create opens a goods receipt draft
func (h *ReceiptHandler) Create(c *gin.Context) {
	var req procurementapp.CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.receiptService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// AddLine appends a shipment line to a draft receipt
func (h *ReceiptHandler) AddLine(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req procurementapp.AddLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.receiptService.AddLine(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Submit moves a draft receipt into review
func (h *ReceiptHandler) Submit(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.receiptService.Submit(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ApproveReceiptRequest identifies who approved the receipt
type ApproveReceiptRequest struct {
	ApproverID uuid.UUID `json:"approver_id" binding:"required"`
}

// Approve marks a submitted receipt as approved for stock processing
func (h *ReceiptHandler) Approve(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req ApproveReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.receiptService.Approve(c.Request.Context(), id, req.ApproverID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel abandons a receipt
func (h *ReceiptHandler) Cancel(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req procurementapp.CancelReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.receiptService.Cancel(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get returns a receipt with its lines
func (h *ReceiptHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.receiptService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List lists receipts with optional filters
func (h *ReceiptHandler) List(c *gin.Context) {
	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	list.Normalize()

	filter := procurement.ReceiptFilter{}
	filter.Page = list.Page
	filter.PageSize = list.PageSize
	filter.OrderBy = list.OrderBy
	filter.OrderDir = list.OrderDir

	if v := c.Query("supplier_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "invalid supplier_id")
			return
		}
		filter.SupplierID = &id
	}
	if v := c.Query("location_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "invalid location_id")
			return
		}
		filter.LocationID = &id
	}
	if v := c.Query("status"); v != "" {
		status := procurement.ReceiptStatus(v)
		filter.Status = &status
	}

	result, err := h.receiptService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, list.Page, list.PageSize)
}

