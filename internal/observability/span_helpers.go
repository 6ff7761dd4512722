package observability

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FinishSpan ends a pipeline span, recording the named error return when it
// is set: `defer observability.FinishSpan(span, &err)`. A nil span (tracing
// disabled) is a no-op.
func FinishSpan(span trace.Span, errPtr *error) {
	if span == nil {
		return
	}
	if errPtr == nil || *errPtr == nil {
		span.End()
		return
	}
	span.RecordError(*errPtr, trace.WithStackTrace(true))
	span.SetStatus(codes.Error, (*errPtr).Error())
	span.End()
}
