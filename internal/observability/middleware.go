package observability

import (
	"errors"

	contextutils "tutorapp/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// GinMiddlewareWithErrorHandling wraps otelgin's middleware and enriches the
// request span with error details for failed responses
func GinMiddlewareWithErrorHandling(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		otelgin.Middleware(serviceName)(c)

		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if span == nil {
			return
		}

		statusCode := c.Writer.Status()
		if statusCode < 400 {
			return
		}

		errorMsg := "client error"
		if statusCode >= 500 {
			errorMsg = "server error"
		}
		severity := string(contextutils.SeverityWarn)
		if statusCode >= 500 {
			severity = string(contextutils.SeverityError)
		}

		for _, ginErr := range c.Errors {
			if appErr, ok := ginErr.Err.(*contextutils.AppError); ok {
				errorMsg = appErr.Message
				severity = string(appErr.Severity)
				break
			}
			errorMsg = ginErr.Error()
		}

		span.RecordError(errors.New(errorMsg), trace.WithStackTrace(true))
		span.SetStatus(codes.Error, errorMsg)
		span.SetAttributes(
			attribute.Int("http.status_code", statusCode),
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", c.FullPath()),
			attribute.String("error.severity", severity),
		)
	}
}
