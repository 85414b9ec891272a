package auth

import (
	"context"

	"github.com/google/uuid"
)

// RoleSuperuser is the distinguished role granting cross-tenant access.
const RoleSuperuser = "superuser"

// TenantContext is the resolved identity of one authenticated request.
// It is immutable for the request's lifetime and never persisted.
type TenantContext struct {
	UserID      uuid.UUID
	TenantID    uuid.UUID // uuid.Nil when the user has no tenant
	TenantName  string
	Role        string
	IsSuperuser bool
}

type contextKey string

const tenantContextKey contextKey = "tenant_context"

// WithTenantContext stores a TenantContext in the request context.
func WithTenantContext(ctx context.Context, tc TenantContext) context.Context {
	return context.WithValue(ctx, tenantContextKey, tc)
}

// TenantContextFrom retrieves the TenantContext from the request context.
// The second return is false when no authenticated identity is present.
func TenantContextFrom(ctx context.Context) (TenantContext, bool) {
	tc, ok := ctx.Value(tenantContextKey).(TenantContext)
	return tc, ok
}
