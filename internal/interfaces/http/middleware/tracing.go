// Package middleware provides the gin middleware of the bundle API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength is the maximum length for request IDs recorded on spans.
const MaxRequestIDLength = 128

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "kits-and-bundles",
		Enabled:     true,
	}
}

// Tracing returns OpenTelemetry tracing middleware with default configuration.
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig returns the otelgin middleware, or a pass-through when
// tracing is disabled. Spans are named after the route pattern.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

func enrichSpanWithAttributes(c *gin.Context, span trace.Span) {
	if requestID := getRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if tenant := GetTenant(c); tenant != "" {
		span.SetAttributes(attribute.String("tenant", tenant))
	}
}

// getRequestID retrieves the request ID set by RequestID, falling back to the
// header truncated to MaxRequestIDLength.
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	headerID := c.GetHeader(RequestIDHeader)
	if len(headerID) > MaxRequestIDLength {
		return headerID[:MaxRequestIDLength]
	}
	return headerID
}

// SpanErrorMarker adds request_id and tenant to the server span and marks it with
// error status for 4xx and 5xx responses. It must run inside the tracing
// middleware; the tenant is only known once TenantResolver has run.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		enrichSpanWithAttributes(c, span)

		statusCode := c.Writer.Status()
		if statusCode < http.StatusBadRequest {
			return
		}
		msg := "Client Error"
		switch {
		case statusCode >= http.StatusInternalServerError:
			msg = "Internal Server Error"
		case statusCode == http.StatusNotFound:
			msg = "Not Found"
		case statusCode == http.StatusRequestEntityTooLarge:
			msg = "Request Entity Too Large"
		}
		span.SetStatus(codes.Error, msg)
		span.SetAttributes(attribute.Int("http.status_code", statusCode))
	}
}
