package tenant

import (
	"context"
)

type ctxKey int

const tenantKey ctxKey = iota

// WithTenant stores tenant info in context.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, t)
}

// GetTenant retrieves tenant from context, or nil.
func GetTenant(ctx context.Context) *Tenant {
	t, _ := ctx.Value(tenantKey).(*Tenant)
	return t
}

// GetTenantID returns tenant ID or empty string.
func GetTenantID(ctx context.Context) string {
	if t := GetTenant(ctx); t != nil {
		return t.ID
	}
	return ""
}

// RequireTenant returns the tenant from context or an error.
// Use in domain services where an unscoped request is a programming error.
func RequireTenant(ctx context.Context) (*Tenant, error) {
	t := GetTenant(ctx)
	if t == nil {
		return nil, ErrNoTenantInContext
	}
	return t, nil
}
