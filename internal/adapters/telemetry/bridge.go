package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/weld/internal/core/ports"
)

var _ sdktrace.SpanProcessor = (*LogBridge)(nil)

// LogBridge implements sdktrace.SpanProcessor and reports finished spans
// through a ports.Logger at debug level.
type LogBridge struct {
	logger ports.Logger
}

// NewLogBridge returns a new LogBridge.
func NewLogBridge(logger ports.Logger) *LogBridge {
	return &LogBridge{logger: logger}
}

// OnStart does nothing.
func (b *LogBridge) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd logs the span name, duration and attributes.
func (b *LogBridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if !s.SpanContext().IsValid() {
		return
	}

	args := []any{"duration", s.EndTime().Sub(s.StartTime())}
	for _, kv := range s.Attributes() {
		args = append(args, string(kv.Key), kv.Value.Emit())
	}
	if s.Status().Code == codes.Error {
		args = append(args, "error", s.Status().Description)
	}
	b.logger.Debug(s.Name(), args...)
}

// ForceFlush does nothing.
func (b *LogBridge) ForceFlush(context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *LogBridge) Shutdown(context.Context) error {
	return nil
}
