package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kitsbundles/backend/internal/infrastructure/logger"
)

// ReadinessChecker reports whether a dependency can serve requests.
type ReadinessChecker interface {
	IsReady(ctx context.Context) error
}

// SystemHandler serves liveness, readiness and build information.
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	checker   ReadinessChecker
	startTime time.Time
	timeout   time.Duration
}

// NewSystemHandler creates a new SystemHandler. checker is usually the credential
// store; nil means always ready.
func NewSystemHandler(name, version string, checker ReadinessChecker) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		checker:   checker,
		startTime: time.Now(),
		timeout:   2 * time.Second,
	}
}

// HealthResponse is the body of the health and readiness endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Go      string `json:"go_version,omitempty"`
}

func (h *SystemHandler) status(status string) HealthResponse {
	return HealthResponse{
		Status:  status,
		Name:    h.name,
		Version: h.version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Go:      runtime.Version(),
	}
}

// Health reports that the process is up.
//
//	GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, h.status("ok"))
}

// Ready reports whether credentials can be read.
//
//	GET /ready
func (h *SystemHandler) Ready(c *gin.Context) {
	if h.checker != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()
		if err := h.checker.IsReady(ctx); err != nil {
			logger.GetGinLogger(c).Warn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, h.status("unavailable"))
			return
		}
	}
	h.Success(c, h.status("ready"))
}
