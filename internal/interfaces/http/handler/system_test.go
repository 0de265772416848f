package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) IsReady(ctx context.Context) error { return f(ctx) }

func serveSystem(h *SystemHandler, path string) (*httptest.ResponseRecorder, HealthResponse) {
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var resp HealthResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestNewSystemHandler(t *testing.T) {
	h := NewSystemHandler("kits-and-bundles", "1.0.0", nil)
	assert.False(t, h.startTime.IsZero())
}

func TestSystemHandler_Health(t *testing.T) {
	h := NewSystemHandler("kits-and-bundles", "1.0.0", checkerFunc(func(context.Context) error {
		return assert.AnError
	}))

	w, resp := serveSystem(h, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "kits-and-bundles", resp.Name)
	assert.Equal(t, "1.0.0", resp.Version)
	assert.NotEmpty(t, resp.Uptime)
	assert.NotEmpty(t, resp.Go)
}

func TestSystemHandler_Ready(t *testing.T) {
	tests := []struct {
		name       string
		checker    ReadinessChecker
		wantStatus int
		wantBody   string
	}{
		{name: "no checker", checker: nil, wantStatus: http.StatusOK, wantBody: "ready"},
		{
			name:       "store reachable",
			checker:    checkerFunc(func(context.Context) error { return nil }),
			wantStatus: http.StatusOK,
			wantBody:   "ready",
		},
		{
			name:       "store down",
			checker:    checkerFunc(func(context.Context) error { return assert.AnError }),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler("kits-and-bundles", "dev", tt.checker)

			w, resp := serveSystem(h, "/ready")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, resp.Status)
		})
	}
}

func TestSystemHandler_ReadyUsesDeadline(t *testing.T) {
	var hadDeadline bool
	h := NewSystemHandler("kits-and-bundles", "dev", checkerFunc(func(ctx context.Context) error {
		_, hadDeadline = ctx.Deadline()
		return nil
	}))

	w, _ := serveSystem(h, "/ready")

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, hadDeadline)
}
