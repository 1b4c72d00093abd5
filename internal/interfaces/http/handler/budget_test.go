package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	budgetapp "github.com/pharmstock/backend/internal/application/budget"
	"github.com/pharmstock/backend/internal/domain/budget"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/pharmstock/backend/internal/domain/shared/valueobject"
	"github.com/pharmstock/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAllocationRepo struct {
	items map[uuid.UUID]*budget.BudgetAllocation
}

func newMemAllocationRepo() *memAllocationRepo {
	return &memAllocationRepo{items: make(map[uuid.UUID]*budget.BudgetAllocation)}
}

func (r *memAllocationRepo) FindByID(_ context.Context, id uuid.UUID) (*budget.BudgetAllocation, error) {
	if a, ok := r.items[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memAllocationRepo) FindByBudgetAndYear(_ context.Context, budgetID uuid.UUID, fiscalYear int) (*budget.BudgetAllocation, error) {
	for _, a := range r.items {
		if a.BudgetID == budgetID && a.FiscalYear == fiscalYear {
			copied := *a
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memAllocationRepo) FindByBudgetAndYearForUpdate(ctx context.Context, budgetID uuid.UUID, fiscalYear int) (*budget.BudgetAllocation, error) {
	return r.FindByBudgetAndYear(ctx, budgetID, fiscalYear)
}

func (r *memAllocationRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*budget.BudgetAllocation, error) {
	return r.FindByID(ctx, id)
}

func (r *memAllocationRepo) FindByFiscalYear(_ context.Context, fiscalYear int) ([]budget.BudgetAllocation, error) {
	var out []budget.BudgetAllocation
	for _, a := range r.items {
		if a.FiscalYear == fiscalYear {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memAllocationRepo) Save(_ context.Context, allocation *budget.BudgetAllocation) error {
	copied := *allocation
	r.items[allocation.ID] = &copied
	return nil
}

type memReservationRepo struct {
	items map[uuid.UUID]*budget.BudgetReservation
}

func newMemReservationRepo() *memReservationRepo {
	return &memReservationRepo{items: make(map[uuid.UUID]*budget.BudgetReservation)}
}

func (r *memReservationRepo) FindByID(_ context.Context, id uuid.UUID) (*budget.BudgetReservation, error) {
	if br, ok := r.items[id]; ok {
		copied := *br
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memReservationRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*budget.BudgetReservation, error) {
	return r.FindByID(ctx, id)
}

func (r *memReservationRepo) FindByReference(_ context.Context, referenceType budget.ReferenceType, referenceID uuid.UUID) ([]budget.BudgetReservation, error) {
	var out []budget.BudgetReservation
	for _, br := range r.items {
		if br.ReferenceType == referenceType && br.ReferenceID == referenceID {
			out = append(out, *br)
		}
	}
	return out, nil
}

func (r *memReservationRepo) FindAll(_ context.Context, filter budget.ReservationFilter) (shared.Paginated[budget.BudgetReservation], error) {
	var out []budget.BudgetReservation
	for _, br := range r.items {
		if filter.AllocationID != nil && br.AllocationID != *filter.AllocationID {
			continue
		}
		if filter.Status != nil && br.Status != *filter.Status {
			continue
		}
		out = append(out, *br)
	}
	return shared.NewPaginated(out, int64(len(out)), filter.Page, filter.PageSize), nil
}

func (r *memReservationRepo) Save(_ context.Context, reservation *budget.BudgetReservation) error {
	copied := *reservation
	r.items[reservation.ID] = &copied
	return nil
}

type budgetFixture struct {
	engine      *gin.Engine
	allocations *memAllocationRepo
}

func newBudgetFixture(t *testing.T) *budgetFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	allocations := newMemAllocationRepo()
	reservations := newMemReservationRepo()
	svc := budgetapp.NewBudgetService(allocations, reservations,
		budgetapp.NewNoOpTransactionScope(allocations, reservations))
	svc.SetClock(func() time.Time {
		return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	})

	engine := gin.New()
	api := engine.Group("/api/v1")
	NewBudgetHandler(svc).RegisterRoutes(api)

	return &budgetFixture{engine: engine, allocations: allocations}
}

func (f *budgetFixture) seedAllocation(t *testing.T, budgetID uuid.UUID, total int64) *budget.BudgetAllocation {
	t.Helper()
	allocation, err := budget.NewBudgetAllocation(budgetID, 2026, valueobject.NewMoneyUSD(decimal.NewFromInt(total)))
	require.NoError(t, err)
	allocation.ClearDomainEvents()
	require.NoError(t, f.allocations.Save(context.Background(), allocation))
	return allocation
}

func (f *budgetFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) (code string) {
	t.Helper()
	var resp struct {
		Success bool `json:"success"`
		Error   *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.False(t, resp.Success)
	return resp.Error.Code
}

func TestBudgetHandler_CreateAndGetAllocation(t *testing.T) {
	f := newBudgetFixture(t)
	budgetID := uuid.New()

	w := f.do(http.MethodPost, "/api/v1/budget/allocations", gin.H{
		"budget_id":    budgetID,
		"fiscal_year":  2026,
		"total_budget": "1000",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = f.do(http.MethodGet, "/api/v1/budget/allocations/"+created.Data.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBudgetHandler_GetAllocation_NotFound(t *testing.T) {
	f := newBudgetFixture(t)

	w := f.do(http.MethodGet, "/api/v1/budget/allocations/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ERR_NOT_FOUND", decodeError(t, w))
}

func TestBudgetHandler_GetAllocation_InvalidID(t *testing.T) {
	f := newBudgetFixture(t)

	w := f.do(http.MethodGet, "/api/v1/budget/allocations/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBudgetHandler_Reserve_InsufficientBudgetIs422(t *testing.T) {
	f := newBudgetFixture(t)
	budgetID := uuid.New()
	f.seedAllocation(t, budgetID, 50)

	w := f.do(http.MethodPost, "/api/v1/budget/reservations", gin.H{
		"budget_id":      budgetID,
		"amount":         "80",
		"reference_type": "PURCHASE_ORDER",
		"reference_id":   uuid.New(),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, "ERR_INSUFFICIENT_BUDGET", decodeError(t, w))
}

func TestBudgetHandler_ReserveCommitFlow(t *testing.T) {
	f := newBudgetFixture(t)
	budgetID := uuid.New()
	f.seedAllocation(t, budgetID, 100)

	w := f.do(http.MethodPost, "/api/v1/budget/reservations", gin.H{
		"budget_id":      budgetID,
		"amount":         "60",
		"reference_type": "PURCHASE_ORDER",
		"reference_id":   uuid.New(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data struct {
			ReservationID uuid.UUID       `json:"reservation_id"`
			Remaining     decimal.Decimal `json:"remaining"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.Data.Remaining.Equal(decimal.NewFromInt(40)))

	commitPath := fmt.Sprintf("/api/v1/budget/reservations/%s/commit", created.Data.ReservationID)
	w = f.do(http.MethodPost, commitPath, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// A second commit hits the terminal-state guard
	w = f.do(http.MethodPost, commitPath, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ERR_INVALID_STATE", decodeError(t, w))
}

func TestBudgetHandler_Reserve_NonPositiveAmountIs400(t *testing.T) {
	f := newBudgetFixture(t)

	w := f.do(http.MethodPost, "/api/v1/budget/reservations", gin.H{
		"budget_id":      uuid.New(),
		"amount":         "-5",
		"reference_type": "PURCHASE_ORDER",
		"reference_id":   uuid.New(),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestBudgetHandler_CheckAvailability_NegativeIsNotAnError(t *testing.T) {
	f := newBudgetFixture(t)
	budgetID := uuid.New()
	f.seedAllocation(t, budgetID, 30)

	w := f.do(http.MethodPost, "/api/v1/budget/check-availability", gin.H{
		"budget_id": budgetID,
		"amount":    "45",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Available bool   `json:"available"`
			Reason    string `json:"reason"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Data.Available)
	assert.NotEmpty(t, resp.Data.Reason)
}
