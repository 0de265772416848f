package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ginLoggerKey is the gin.Context key holding the request-scoped logger.
const ginLoggerKey = "logger"

// GinMiddleware logs one entry per request and makes a request-scoped logger available
// both on the gin context and on the request's context.Context.
func GinMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		requestID := c.GetString("request_id")
		ctx, reqLogger := WithRequestID(c.Request.Context(), logger, requestID)
		reqLogger = reqLogger.With(
			zap.String("method", c.Request.Method),
			zap.String("path", path),
		)
		ctx = WithContext(ctx, reqLogger)
		c.Request = c.Request.WithContext(ctx)
		c.Set(ginLoggerKey, reqLogger)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		// the tenant middleware may have replaced the logger further down the chain
		final := GetGinLogger(c)
		msg := "HTTP Request"
		switch {
		case status >= 500:
			final.Error(msg, fields...)
		case status >= 400:
			final.Warn(msg, fields...)
		default:
			final.Info(msg, fields...)
		}
	}
}

// Recovery recovers from panics, logs them and answers with the generic error body.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered",
					zap.String("request_id", c.GetString("request_id")),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", err),
					zap.Stack("stacktrace"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"errorMessage": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// SetGinLogger replaces the request-scoped logger on both the gin and request contexts.
func SetGinLogger(c *gin.Context, logger *zap.Logger) {
	c.Set(ginLoggerKey, logger)
	c.Request = c.Request.WithContext(WithContext(c.Request.Context(), logger))
}

// GetGinLogger retrieves the logger from gin context
func GetGinLogger(c *gin.Context) *zap.Logger {
	if logger, exists := c.Get(ginLoggerKey); exists {
		if l, ok := logger.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}
