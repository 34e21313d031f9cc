package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/weld/internal/adapters/telemetry"
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/weld/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestOTelTracer_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := telemetry.NewOTelTracer("test", sdktrace.WithSpanProcessor(recorder))

	ctx, parent := tracer.Start(context.Background(), "weave", ports.WithAttribute("module", "app.wmod"))
	_, child := tracer.Start(ctx, "embed")
	child.SetAttribute("count", 2)
	child.SetAttribute("skipped", true)
	child.SetAttribute("names", []string{"liba"})
	child.RecordError(errors.New("boom"))
	n, err := child.Write([]byte("test log"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	child.End()
	parent.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "embed", spans[0].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
	assert.Contains(t, spans[0].Attributes(), attribute.Int("count", 2))
	assert.Contains(t, spans[0].Attributes(), attribute.Bool("skipped", true))
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[1].Attributes(), attribute.String("module", "app.wmod"))

	require.NoError(t, tracer.Shutdown(context.Background()))
}

func TestNoOpTracer_Start(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()

	ctx := context.Background()
	got, span := tracer.Start(ctx, "test-span")
	assert.Equal(t, ctx, got)

	span.SetAttribute("key", "value")
	span.RecordError(errors.New("ignored"))
	n, err := span.Write([]byte("test log"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	span.End()

	assert.NoError(t, tracer.Shutdown(ctx))
}

func TestLogBridge_LogsEndedSpans(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug("classify", gomock.Any()).Times(1)

	tracer := telemetry.NewOTelTracer("test", sdktrace.WithSyncer(noopExporter{}), sdktrace.WithSpanProcessor(telemetry.NewLogBridge(log)))
	_, span := tracer.Start(context.Background(), "classify")
	span.SetAttribute("dependencies", 3)
	span.End()
}

type noopExporter struct{}

func (noopExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }
func (noopExporter) Shutdown(context.Context) error                             { return nil }
