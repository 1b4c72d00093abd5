package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	mu     sync.Mutex
	types  []string
	seen   []shared.DomainEvent
	err    error
	panics bool
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func (h *recordingHandler) events() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.seen...)
}

func newEvent(eventType string) shared.DomainEvent {
	e := shared.NewBaseDomainEvent(eventType, "BudgetAllocation", uuid.New())
	return &e
}

func TestInMemoryEventBus_PublishRoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	reserved := &recordingHandler{types: []string{"BudgetReserved"}}
	released := &recordingHandler{types: []string{"BudgetReleased"}}
	bus.Subscribe(reserved)
	bus.Subscribe(released)

	err := bus.Publish(context.Background(), newEvent("BudgetReserved"))
	require.NoError(t, err)

	assert.Len(t, reserved.events(), 1)
	assert.Empty(t, released.events())
}

func TestInMemoryEventBus_WildcardReceivesEverything(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	all := &recordingHandler{}
	bus.Subscribe(all)

	err := bus.Publish(context.Background(),
		newEvent("BudgetReserved"),
		newEvent("StockDeducted"),
	)
	require.NoError(t, err)
	assert.Len(t, all.events(), 2)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := &recordingHandler{types: []string{"BudgetCommitted"}, err: errors.New("boom")}
	healthy := &recordingHandler{types: []string{"BudgetCommitted"}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newEvent("BudgetCommitted"))
	require.NoError(t, err)
	assert.Len(t, healthy.events(), 1)
}

func TestInMemoryEventBus_PanickingHandlerIsContained(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	panicking := &recordingHandler{types: []string{"GoodsReceiptCompleted"}, panics: true}
	healthy := &recordingHandler{types: []string{"GoodsReceiptCompleted"}}
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), newEvent("GoodsReceiptCompleted"))
	})
	assert.Len(t, healthy.events(), 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := &recordingHandler{types: []string{"BudgetReserved"}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newEvent("BudgetReserved")))
	assert.Empty(t, handler.events())
}

func TestAuditLogHandler_AcceptsAnyEvent(t *testing.T) {
	handler := NewAuditLogHandler(zap.NewNop())
	assert.Empty(t, handler.EventTypes())
	assert.NoError(t, handler.Handle(context.Background(), newEvent("BudgetReserved")))
}
