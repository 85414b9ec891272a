package auth

import (
	"github.com/google/uuid"

	"github.com/seojin/crm-dispatch/internal/storage"
)

// Action is a capability checked against a TenantContext.
type Action string

const (
	// ActionViewAnyTenant allows reading data owned by any tenant.
	ActionViewAnyTenant Action = "view_any_tenant"
	// ActionDispatch allows running bulk dispatches within the caller's tenant.
	ActionDispatch Action = "dispatch"
)

// Policy decides whether a TenantContext may perform an Action. Authorization
// decisions go through Can rather than testing role strings at call sites.
type Policy struct{}

// DefaultPolicy is the process-wide policy instance.
var DefaultPolicy = Policy{}

// Can reports whether tc is allowed to perform action.
func (Policy) Can(tc TenantContext, action Action) bool {
	switch action {
	case ActionViewAnyTenant:
		return tc.IsSuperuser
	case ActionDispatch:
		return tc.IsSuperuser || tc.TenantID != uuid.Nil
	default:
		return false
	}
}

// ScopeFor translates a TenantContext into a storage.Scope: superusers see
// everything, tenant members see their tenant, and a context with no tenant
// matches nothing (fail closed).
func ScopeFor(tc TenantContext) storage.Scope {
	if DefaultPolicy.Can(tc, ActionViewAnyTenant) {
		return storage.Unfiltered()
	}
	if tc.TenantID == uuid.Nil {
		return storage.MatchNone()
	}
	return storage.TenantScoped(tc.TenantID)
}
