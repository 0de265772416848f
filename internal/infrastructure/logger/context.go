package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey     contextKey = "logger"
	requestIDKey  contextKey = "request_id"
	tenantKey     contextKey = "tenant"
	checkoutIDKey contextKey = "checkout_id"
)

// WithContext returns a copy of ctx carrying logger.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// Lookup returns the logger stored in ctx and whether there was one.
func Lookup(ctx context.Context) (*zap.Logger, bool) {
	logger, ok := ctx.Value(loggerKey).(*zap.Logger)
	return logger, ok
}

// WithRequestID stores the request id and returns the enriched logger alongside the context.
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	enriched := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enriched), enriched
}

// WithTenant stores the Saleor API URL the request is acting on.
func WithTenant(ctx context.Context, logger *zap.Logger, tenant string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, tenantKey, tenant)
	enriched := logger.With(zap.String("tenant", tenant))
	return WithContext(ctx, enriched), enriched
}

// WithCheckoutID stores the checkout being reconciled.
func WithCheckoutID(ctx context.Context, checkoutID string) context.Context {
	return context.WithValue(ctx, checkoutIDKey, checkoutID)
}

func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

func GetTenant(ctx context.Context) string {
	v, _ := ctx.Value(tenantKey).(string)
	return v
}

func GetCheckoutID(ctx context.Context) string {
	v, _ := ctx.Value(checkoutIDKey).(string)
	return v
}

// GetTraceID returns the active span's trace id, or "" when there is none.
func GetTraceID(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}

// ContextLogger injects trace_id, span_id and checkout_id from a context into every entry.
// request_id and tenant are already attached to the stored logger by WithRequestID and WithTenant.
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
}

// L returns a ContextLogger for ctx.
//
//	logger.L(ctx).Info("checkout created", zap.String("checkout_id", id))
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: FromContext(ctx)}
}

func (cl *ContextLogger) enriched() *zap.Logger {
	l := cl.logger
	if l == nil {
		l = zap.NewNop()
	}
	if spanCtx := trace.SpanContextFromContext(cl.ctx); spanCtx.IsValid() {
		l = l.With(
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}
	if checkoutID := GetCheckoutID(cl.ctx); checkoutID != "" {
		l = l.With(zap.String("checkout_id", checkoutID))
	}
	return l
}

// With returns a child ContextLogger carrying extra fields.
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	return &ContextLogger{ctx: cl.ctx, logger: cl.logger.With(fields...)}
}

func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) { cl.enriched().Debug(msg, fields...) }
func (cl *ContextLogger) Info(msg string, fields ...zap.Field)  { cl.enriched().Info(msg, fields...) }
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field)  { cl.enriched().Warn(msg, fields...) }
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) { cl.enriched().Error(msg, fields...) }

// Zap returns the enriched *zap.Logger.
func (cl *ContextLogger) Zap() *zap.Logger {
	return cl.enriched()
}
