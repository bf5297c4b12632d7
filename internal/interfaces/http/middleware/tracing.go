package middleware

import (
	"net/http"

	"github.com/Duran117/kibray-sub001/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing wraps otelgin, tags the span with the request ID and marks
// 5xx responses as errors. Span names follow "METHOD /route/:param".
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return otelgin.Middleware(cfg.ServiceName)
}

// SpanAttributes must run after Tracing and RequestID. It copies the
// request ID and actor onto the active span and records the outcome.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}
		if id := GetRequestID(c); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}

		c.Next()

		if actor := logger.GetActor(c.Request.Context()); actor != "" {
			span.SetAttributes(attribute.String("ledger.actor", actor))
		}
		if code := c.GetString(ErrorCodeContextKey); code != "" {
			span.SetAttributes(attribute.String("error.code", code))
		}
		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

// ErrorCodeContextKey is where handlers leave the error code they answered with
const ErrorCodeContextKey = "error_code"
