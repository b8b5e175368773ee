package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/chainload/internal/core/ports"
)

var _ sdktrace.SpanProcessor = (*SpanLogger)(nil)

// SpanLogger implements sdktrace.SpanProcessor by reporting each finished span to a logger
// at debug level.
type SpanLogger struct {
	logger ports.Logger
}

// NewSpanLogger returns a SpanLogger writing to logger.
func NewSpanLogger(logger ports.Logger) *SpanLogger {
	return &SpanLogger{logger: logger}
}

// OnStart does nothing; spans are reported once they end.
func (p *SpanLogger) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd logs the span name and duration, and the failure description of failed spans.
func (p *SpanLogger) OnEnd(s sdktrace.ReadOnlySpan) {
	if p.logger == nil || !s.SpanContext().IsValid() {
		return
	}

	msg := fmt.Sprintf("%s took %s", s.Name(), s.EndTime().Sub(s.StartTime()))
	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "span failed"
		}
		msg += " (" + desc + ")"
	}
	p.logger.Debug(msg)
}

// ForceFlush does nothing.
func (p *SpanLogger) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (p *SpanLogger) Shutdown(_ context.Context) error {
	return nil
}

// NewProvider creates a tracer provider whose spans are reported through logger.
func NewProvider(logger ports.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewSpanLogger(logger)),
	)
}
