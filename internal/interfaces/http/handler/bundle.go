package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	appbundle "github.com/kitsbundles/backend/internal/application/bundle"
	"github.com/kitsbundles/backend/internal/domain/bundle"
	"github.com/kitsbundles/backend/internal/domain/credential"
	"github.com/kitsbundles/backend/internal/interfaces/http/dto"
)

// BundleService is the application service behind the bundle endpoints.
type BundleService interface {
	AddBundle(ctx context.Context, auth *credential.AuthData, req bundle.Request) (*appbundle.AddBundleResult, error)
	InspectBundle(ctx context.Context, auth *credential.AuthData, req bundle.Request) (*appbundle.InspectResult, error)
}

// BundleHandler serves add-bundle and inspect-bundle.
type BundleHandler struct {
	BaseHandler
	service BundleService
}

// NewBundleHandler creates a new BundleHandler
func NewBundleHandler(service BundleService) *BundleHandler {
	return &BundleHandler{service: service}
}

// AddBundle prices the bundle and adds its lines to a new or existing checkout.
//
//	POST /api/add-bundle
func (h *BundleHandler) AddBundle(c *gin.Context) {
	auth, ok := h.authData(c)
	if !ok {
		return
	}
	var req dto.AddBundleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.AddBundle(c.Request.Context(), auth, req.ToDomain())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.AddBundleResponse{
		Message:  dto.MsgBundleProcessed,
		Checkout: dto.NewCheckout(result.Checkout),
	})
}

// InspectBundle returns the bundle product and its variants without touching any
// checkout.
//
//	POST /api/inspect-bundle
func (h *BundleHandler) InspectBundle(c *gin.Context) {
	auth, ok := h.authData(c)
	if !ok {
		return
	}
	var req dto.AddBundleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.InspectBundle(c.Request.Context(), auth, req.ToDomain())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.InspectBundleResponse{
		Message:        dto.MsgBundleProcessed,
		ProductData:    dto.NewProduct(result.Product),
		VariantDetails: dto.NewVariants(result.Variants),
	})
}

// Preflight answers CORS preflight requests. The CORS middleware has already set
// the headers.
func (h *BundleHandler) Preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}
