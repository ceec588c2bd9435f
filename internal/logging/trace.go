package logging

import (
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// WithSpan returns logger with the trace and span ids of sc attached.
// An invalid span context leaves logger unchanged.
func WithSpan(logger zerolog.Logger, sc trace.SpanContext) zerolog.Logger {
	if !sc.IsValid() {
		return logger
	}
	return logger.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
}
