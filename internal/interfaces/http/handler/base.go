package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kitsbundles/backend/internal/domain/bundle"
	"github.com/kitsbundles/backend/internal/domain/credential"
	"github.com/kitsbundles/backend/internal/interfaces/http/dto"
	"github.com/kitsbundles/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 response with body.
func (h *BaseHandler) Success(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

// Error sends an error response with the given status.
func (h *BaseHandler) Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(message))
}

// BindJSON decodes the body into obj and writes the error response on failure.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		middleware.HandleBindError(c, err)
		return false
	}
	return true
}

// authData returns the credentials resolved by the tenant middleware. Handlers
// mounted without it answer 500.
func (h *BaseHandler) authData(c *gin.Context) (*credential.AuthData, bool) {
	auth, ok := middleware.GetAuthData(c)
	if !ok {
		h.Error(c, http.StatusInternalServerError, dto.MsgInternal)
		return nil, false
	}
	return auth, true
}

// HandleError renders bundle errors with their status and detail lists. Anything
// else becomes a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var bundleErr *bundle.Error
	if errors.As(err, &bundleErr) {
		c.JSON(bundleErr.HTTPStatus(), dto.NewBundleErrorResponse(bundleErr))
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.MsgInternal))
}
