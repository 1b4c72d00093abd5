package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	budgetapp "github.com/pharmstock/backend/internal/application/budget"
	"github.com/pharmstock/backend/internal/application/retry"
	"github.com/pharmstock/backend/internal/domain/budget"
	"github.com/pharmstock/backend/internal/interfaces/http/dto"
)

// BudgetHandler handles budget allocation and reservation endpoints. Mutations
// that take row locks retry on concurrency conflicts before surfacing a 409.
type BudgetHandler struct {
	BaseHandler
	budgetService *budgetapp.BudgetService
	retryOpts     retry.Options
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *budgetapp.BudgetService) *BudgetHandler {
	return &BudgetHandler{
		budgetService: budgetService,
		retryOpts:     retry.DefaultOptions(),
	}
}

// SetRetryOptions overrides the conflict retry policy
func (h *BudgetHandler) SetRetryOptions(opts retry.Options) {
	h.retryOpts = opts
}

// RegisterRoutes registers budget routes on the given group
func (h *BudgetHandler) RegisterRoutes(rg *gin.RouterGroup) {
	allocations := rg.Group("/budget/allocations")
	{
		allocations.POST("", h.CreateAllocation)
		allocations.GET("/:id", h.GetAllocation)
		allocations.PUT("/:id", h.AdjustAllocation)
	}

	rg.POST("/budget/check-availability", h.CheckAvailability)

	reservations := rg.Group("/budget/reservations")
	{
		reservations.POST("", h.Reserve)
		reservations.GET("", h.ListReservations)
		reservations.GET("/:id", h.GetReservation)
		reservations.POST("/:id/commit", h.Commit)
		reservations.POST("/:id/release", h.Release)
	}
}

// CreateAllocation creates a fiscal year allocation
func (h *BudgetHandler) CreateAllocation(c *gin.Context) {
	var req budgetapp.CreateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.budgetService.CreateAllocation(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetAllocation returns an allocation by ID
func (h *BudgetHandler) GetAllocation(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.budgetService.GetAllocation(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AdjustAllocation changes an allocation's total budget
func (h *BudgetHandler) AdjustAllocation(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req budgetapp.AdjustAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.budgetService.AdjustAllocation(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CheckAvailability reports whether the current fiscal year allocation can
// cover an amount. A negative answer is a 200 with available=false, not an
// error.
func (h *BudgetHandler) CheckAvailability(c *gin.Context) {
	var req budgetapp.CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.budgetService.CheckAvailability(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reserve places a pessimistic hold against the current fiscal year allocation
func (h *BudgetHandler) Reserve(c *gin.Context) {
	var req budgetapp.ReserveBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var resp *budgetapp.ReserveBudgetResponse
	err := retry.OnConflict(c.Request.Context(), h.retryOpts, func(ctx context.Context) error {
		var err error
		resp, err = h.budgetService.Reserve(ctx, req)
		return err
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Commit finalizes a reservation as actual spending
func (h *BudgetHandler) Commit(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	err := retry.OnConflict(c.Request.Context(), h.retryOpts, func(ctx context.Context) error {
		return h.budgetService.Commit(ctx, id)
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Release cancels a reservation and restores the held funds
func (h *BudgetHandler) Release(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	err := retry.OnConflict(c.Request.Context(), h.retryOpts, func(ctx context.Context) error {
		return h.budgetService.Release(ctx, id)
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GetReservation returns a reservation by ID
func (h *BudgetHandler) GetReservation(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.budgetService.GetReservation(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListReservations lists reservations with optional filters
func (h *BudgetHandler) ListReservations(c *gin.Context) {
	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	list.Normalize()

	filter := budget.ReservationFilter{}
	filter.Page = list.Page
	filter.PageSize = list.PageSize
	filter.OrderBy = list.OrderBy
	filter.OrderDir = list.OrderDir

	if v := c.Query("allocation_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "invalid allocation_id")
			return
		}
		filter.AllocationID = &id
	}
	if v := c.Query("status"); v != "" {
		status := budget.ReservationStatus(v)
		filter.Status = &status
	}
	if v := c.Query("reference_type"); v != "" {
		refType := budget.ReferenceType(v)
		filter.ReferenceType = &refType
	}
	if v := c.Query("reference_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "invalid reference_id")
			return
		}
		filter.ReferenceID = &id
	}

	result, err := h.budgetService.ListReservations(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, list.Page, list.PageSize)
}

