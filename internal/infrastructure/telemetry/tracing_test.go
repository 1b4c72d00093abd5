package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

// setupRecorder installs a recording tracer provider for the duration of the test.
func setupRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestStartServiceSpan_NamingAndAttributes(t *testing.T) {
	recorder := setupRecorder(t)

	ctx, span := StartServiceSpan(context.Background(), "budget", "reserve",
		WithAttribute(SpanAttrFiscalYear, 2026),
		WithAttribute(SpanAttrAmount, "150.00"),
	)
	assert.NotEmpty(t, GetTraceID(ctx))
	assert.NotEmpty(t, GetSpanID(ctx))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "budget.reserve", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Int(SpanAttrFiscalYear, 2026))
	assert.Contains(t, spans[0].Attributes(), attribute.String(SpanAttrAmount, "150.00"))
}

func TestRecordError_SetsErrorStatus(t *testing.T) {
	recorder := setupRecorder(t)

	_, span := StartSpan(context.Background(), "inventory.deduct")
	RecordError(span, errors.New("insufficient stock"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "insufficient stock", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
}

func TestSetAttributes_IgnoresMalformedPairs(t *testing.T) {
	recorder := setupRecorder(t)

	_, span := StartSpan(context.Background(), "inventory.select_lots")
	SetAttributes(span,
		SpanAttrDrugID, "d-1",
		42, "not-a-key",
		SpanAttrQuantity, 30,
	)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := spans[0].Attributes()
	assert.Contains(t, attrs, attribute.String(SpanAttrDrugID, "d-1"))
	assert.Contains(t, attrs, attribute.Int(SpanAttrQuantity, 30))
}

func TestToAttribute_TypeCoverage(t *testing.T) {
	assert.Equal(t, attribute.String("k", "v"), toAttribute("k", "v"))
	assert.Equal(t, attribute.Int("k", 7), toAttribute("k", 7))
	assert.Equal(t, attribute.Int64("k", int64(7)), toAttribute("k", int64(7)))
	assert.Equal(t, attribute.Float64("k", 1.5), toAttribute("k", 1.5))
	assert.Equal(t, attribute.Bool("k", true), toAttribute("k", true))
	assert.Equal(t, attribute.String("k", "2s"), toAttribute("k", 2*time.Second))
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetSpanID(context.Background()))
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NoError(t, tp.Shutdown(context.Background()))
	assert.NoError(t, tp.ForceFlush(context.Background()))
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}
