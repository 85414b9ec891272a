package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/seojin/crm-dispatch/internal/storage"
)

// Predefined errors for session resolution.
var (
	ErrUnauthenticated = errors.New("no valid session credential")
	ErrSessionExpired  = errors.New("session expired or revoked")
)

// Resolver maps an opaque session token to a TenantContext.
type Resolver struct {
	queries storage.Querier
	log     zerolog.Logger
	now     func() time.Time
}

// NewResolver creates a Resolver backed by the given query surface.
func NewResolver(queries storage.Querier, log zerolog.Logger) *Resolver {
	return &Resolver{
		queries: queries,
		log:     log,
		now:     time.Now,
	}
}

// Resolve looks up the session record for token and builds the request's
// TenantContext. A missing token or unknown session yields
// ErrUnauthenticated; a session past its validity window, revoked, or
// belonging to a deactivated user yields ErrSessionExpired. On success the
// session's last-seen timestamp is updated; a failure to do so is logged,
// not surfaced.
func (r *Resolver) Resolve(ctx context.Context, token string) (TenantContext, error) {
	if token == "" {
		return TenantContext{}, ErrUnauthenticated
	}

	row, err := r.queries.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TenantContext{}, ErrUnauthenticated
		}
		return TenantContext{}, fmt.Errorf("lookup session: %w", err)
	}

	if row.RevokedAt.Valid {
		return TenantContext{}, ErrSessionExpired
	}
	if !row.ExpiresAt.Valid || !row.ExpiresAt.Time.After(r.now()) {
		return TenantContext{}, ErrSessionExpired
	}
	if row.UserStatus != "active" {
		return TenantContext{}, ErrSessionExpired
	}

	if err := r.queries.TouchSession(ctx, row.SessionID); err != nil {
		r.log.Warn().Err(err).
			Stringer("session_id", row.SessionID).
			Msg("failed to update session last seen")
	}

	tc := TenantContext{
		UserID:      row.UserID,
		Role:        row.Role,
		IsSuperuser: row.Role == RoleSuperuser,
	}
	if row.TenantID.Valid {
		tc.TenantID = uuid.UUID(row.TenantID.Bytes)
	}
	if row.TenantName.Valid {
		tc.TenantName = row.TenantName.String
	}

	return tc, nil
}
