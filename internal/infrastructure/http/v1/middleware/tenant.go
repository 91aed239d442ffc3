package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fabriq/internal/core/apperror"
	"fabriq/internal/core/tenant"
	"fabriq/pkg/logger"
)

// TenantHeader is the HTTP header for tenant identification.
const TenantHeader = "X-Tenant-ID"

// Tenant middleware resolves the tenant from the X-Tenant-ID header and
// injects it into the request context. It MUST run before any handler that
// touches tenant-scoped data: repositories fail hard without a tenant.
func Tenant(registry tenant.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		rawTenantID := c.GetHeader(TenantHeader)
		if rawTenantID == "" {
			_ = c.Error(
				apperror.NewValidation("tenant is required").
					WithDetail("header", TenantHeader),
			)
			c.Abort()
			return
		}

		tenantUUID, err := uuid.Parse(rawTenantID)
		if err != nil {
			_ = c.Error(
				apperror.NewValidation("invalid tenant id").
					WithDetail("header", TenantHeader).
					WithDetail("value", rawTenantID),
			)
			c.Abort()
			return
		}

		t, err := registry.GetByID(ctx, tenantUUID.String())
		if err != nil {
			if errors.Is(err, tenant.ErrTenantNotFound) {
				_ = c.Error(apperror.NewNotFound("tenant", rawTenantID))
			} else {
				logger.Warn(ctx, "tenant lookup failed", "tenant_id", rawTenantID, "error", err)
				_ = c.Error(apperror.NewInternal(err).WithDetail("tenant_id", rawTenantID))
			}
			c.Abort()
			return
		}

		if !t.IsActive() {
			_ = c.Error(apperror.NewForbidden("tenant is not active").
				WithDetail("tenant_id", t.ID).
				WithDetail("status", string(t.Status)))
			c.Abort()
			return
		}

		ctx = tenant.WithTenant(ctx, t)
		c.Request = c.Request.WithContext(ctx)

		c.Set("tenant_id", t.ID)

		c.Next()
	}
}
