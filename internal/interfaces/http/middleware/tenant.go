package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kitsbundles/backend/internal/domain/credential"
	"github.com/kitsbundles/backend/internal/domain/shared"
	"github.com/kitsbundles/backend/internal/infrastructure/logger"
	"github.com/kitsbundles/backend/internal/interfaces/http/dto"
)

// Keys used to store tenant information in gin.Context
const (
	TenantKey       = "tenant"
	AuthDataKey     = "auth_data"
	TenantHeaderKey = "Saleor-Domain"
)

// MaxTenantLength bounds the header value before it reaches the credential store.
const MaxTenantLength = 512

// TenantResolver resolves the Saleor-Domain header to the app's stored credentials.
// The header carries the tenant's Saleor API URL, which is the credential key.
func TenantResolver(store credential.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := strings.TrimSpace(c.GetHeader(TenantHeaderKey))
		if tenant == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(dto.MsgTenantHeaderRequired))
			return
		}
		if len(tenant) > MaxTenantLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(dto.MsgTenantNotInstalled(tenant[:MaxTenantLength])))
			return
		}

		ctx, log := logger.WithTenant(c.Request.Context(), logger.GetGinLogger(c), tenant)
		c.Request = c.Request.WithContext(ctx)
		logger.SetGinLogger(c, log)
		c.Set(TenantKey, tenant)

		auth, err := store.Get(ctx, tenant)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				log.Warn("No credentials stored for tenant")
				c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(dto.MsgTenantNotInstalled(tenant)))
				return
			}
			log.Error("Failed to read tenant credentials", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.MsgInternal))
			return
		}

		log.Debug("Tenant resolved", zap.Bool("token_present", auth.Token != ""))
		c.Set(AuthDataKey, auth)
		c.Next()
	}
}

// GetAuthData returns the credentials resolved by TenantResolver.
func GetAuthData(c *gin.Context) (*credential.AuthData, bool) {
	v, exists := c.Get(AuthDataKey)
	if !exists {
		return nil, false
	}
	auth, ok := v.(*credential.AuthData)
	return auth, ok && auth != nil
}

// GetTenant returns the Saleor API URL of the current request.
func GetTenant(c *gin.Context) string {
	return c.GetString(TenantKey)
}
