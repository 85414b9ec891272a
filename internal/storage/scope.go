package storage

import (
	"fmt"

	"github.com/google/uuid"
)

// scopeKind discriminates the tenant-scoping variants.
type scopeKind int

const (
	scopeMatchNone scopeKind = iota // zero value: fail closed
	scopeUnfiltered
	scopeTenant
)

// Scope restricts a query to rows visible to one tenant. It is a tagged
// variant rather than ad hoc string surgery at call sites:
//
//   - Unfiltered: the query is returned unchanged (elevated access).
//   - TenantScoped: an equality predicate on the tenant column is appended
//     using the next positional parameter slot.
//   - MatchNone: a predicate that matches zero rows is appended. This is the
//     zero value, so an unset Scope never widens access.
//
// The base query must already join whatever table exposes the tenant column
// and must end inside its WHERE clause; Apply only appends the final
// predicate and never synthesizes joins. Callers append ORDER BY / LIMIT
// after applying the scope.
type Scope struct {
	kind     scopeKind
	tenantID uuid.UUID
}

// Unfiltered returns a Scope that leaves queries untouched.
func Unfiltered() Scope {
	return Scope{kind: scopeUnfiltered}
}

// TenantScoped returns a Scope restricting rows to the given tenant.
func TenantScoped(tenantID uuid.UUID) Scope {
	return Scope{kind: scopeTenant, tenantID: tenantID}
}

// MatchNone returns a Scope whose queries match zero rows.
func MatchNone() Scope {
	return Scope{kind: scopeMatchNone}
}

// IsUnfiltered reports whether the scope bypasses tenant filtering.
func (s Scope) IsUnfiltered() bool {
	return s.kind == scopeUnfiltered
}

// Apply appends the scope's predicate for the given tenant column to query,
// binding the tenant ID at the next positional slot. The returned args slice
// must be used in place of the input.
func (s Scope) Apply(query, tenantColumn string, args []any) (string, []any) {
	switch s.kind {
	case scopeUnfiltered:
		return query, args
	case scopeTenant:
		query = fmt.Sprintf("%s AND %s = $%d", query, tenantColumn, len(args)+1)
		return query, append(args, s.tenantID)
	default:
		return query + " AND false", args
	}
}
