package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tindahan/backend/internal/interfaces/http/dto"
)

// Tenant context keys
const (
	TenantIDKey     = "tenant_id"
	TenantHeaderKey = "X-Tenant-ID"
)

// DevelopmentTenantID is the fallback tenant for unauthenticated local
// development requests.
var DevelopmentTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// TenantMiddlewareConfig holds configuration for tenant resolution
type TenantMiddlewareConfig struct {
	// HeaderEnabled enables X-Tenant-ID header extraction
	HeaderEnabled bool
	// DevFallbackEnabled resolves to DevelopmentTenantID when nothing else
	// matches. Must be off in production.
	DevFallbackEnabled bool
	// SkipPaths are paths that don't require tenant context
	SkipPaths []string
}

// DefaultTenantConfig returns default tenant middleware configuration
func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		HeaderEnabled:      true,
		DevFallbackEnabled: false,
		SkipPaths:          []string{"/health", "/healthz", "/api/v1/health"},
	}
}

// TenantMiddleware resolves the tenant with default configuration
func TenantMiddleware() gin.HandlerFunc {
	return TenantMiddlewareWithConfig(DefaultTenantConfig())
}

// TenantMiddlewareWithConfig resolves the request tenant.
// Resolution order: JWT claims, then the X-Tenant-ID header, then the
// development fallback if enabled. Requests without a resolvable tenant
// are rejected.
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}

		tenantIDStr := GetJWTTenantID(c)
		if tenantIDStr == "" && cfg.HeaderEnabled {
			tenantIDStr = c.GetHeader(TenantHeaderKey)
		}

		if tenantIDStr == "" {
			if !cfg.DevFallbackEnabled {
				abortTenantRequired(c, "Tenant could not be resolved from the request")
				return
			}
			c.Set(TenantIDKey, DevelopmentTenantID)
			c.Next()
			return
		}

		tenantID, err := uuid.Parse(tenantIDStr)
		if err != nil {
			abortTenantRequired(c, "Invalid tenant identifier")
			return
		}

		c.Set(TenantIDKey, tenantID)
		c.Next()
	}
}

func abortTenantRequired(c *gin.Context, message string) {
	requestID := c.GetString(RequestIDKey)
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, message, requestID))
}

// GetTenantID returns the resolved tenant ID for the request
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(TenantIDKey)
	if !exists {
		return uuid.Nil, false
	}
	tenantID, ok := value.(uuid.UUID)
	return tenantID, ok
}
