// Package audience expands named audience groups into tenant-scoped,
// deduplicated recipient sets.
package audience

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/seojin/crm-dispatch/internal/auth"
	"github.com/seojin/crm-dispatch/internal/storage"
)

// ErrNoRecipients indicates the requested groups resolved to an empty set,
// either because they are empty, unknown, or owned by another tenant.
var ErrNoRecipients = errors.New("no recipients resolved for requested groups")

// Recipient is one deliverable member of the resolved audience.
type Recipient struct {
	LeadID      uuid.UUID
	Address     string
	DisplayName string
	GroupID     uuid.UUID
	GroupLabel  string
}

// Resolver expands audience group IDs into recipients.
type Resolver struct {
	queries storage.Querier
}

// NewResolver creates a Resolver backed by the given query surface.
func NewResolver(queries storage.Querier) *Resolver {
	return &Resolver{queries: queries}
}

// Resolve fetches all members of all requested groups in one query, scoped
// to the caller's tenant, deduplicated by lead identity. Groups owned by
// other tenants are invisible rather than an error, so unauthorized and
// nonexistent groups are indistinguishable. Members without a deliverable
// address are excluded silently by the query.
func (r *Resolver) Resolve(ctx context.Context, tc auth.TenantContext, groupIDs []uuid.UUID) ([]Recipient, error) {
	if len(groupIDs) == 0 {
		return nil, ErrNoRecipients
	}

	rows, err := r.queries.ListLeadsByGroupIDs(ctx, storage.ListLeadsByGroupIDsParams{
		GroupIDs: groupIDs,
		Scope:    auth.ScopeFor(tc),
	})
	if err != nil {
		return nil, fmt.Errorf("resolve audience groups: %w", err)
	}

	if len(rows) == 0 {
		return nil, ErrNoRecipients
	}

	recipients := make([]Recipient, len(rows))
	for i, row := range rows {
		recipients[i] = Recipient{
			LeadID:      row.LeadID,
			Address:     row.Email,
			DisplayName: row.Name,
			GroupID:     row.GroupID,
			GroupLabel:  row.GroupName,
		}
	}

	return recipients, nil
}
