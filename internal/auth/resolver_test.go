package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/seojin/crm-dispatch/internal/storage"
)

// stubQuerier overrides only the session methods; any other call panics via
// the embedded nil interface.
type stubQuerier struct {
	storage.Querier
	getSessionFn func(ctx context.Context, token string) (storage.GetSessionByTokenRow, error)
	touchFn      func(ctx context.Context, sessionID uuid.UUID) error
}

func (s *stubQuerier) GetSessionByToken(ctx context.Context, token string) (storage.GetSessionByTokenRow, error) {
	return s.getSessionFn(ctx, token)
}

func (s *stubQuerier) TouchSession(ctx context.Context, sessionID uuid.UUID) error {
	if s.touchFn != nil {
		return s.touchFn(ctx, sessionID)
	}
	return nil
}

func validRow() storage.GetSessionByTokenRow {
	tenantID := uuid.New()
	return storage.GetSessionByTokenRow{
		SessionID:  uuid.New(),
		UserID:     uuid.New(),
		ExpiresAt:  pgtype.Timestamptz{Time: time.Now().Add(time.Hour), Valid: true},
		UserStatus: "active",
		Role:       "member",
		TenantID:   pgtype.UUID{Bytes: tenantID, Valid: true},
		TenantName: pgtype.Text{String: "acme", Valid: true},
	}
}

func newTestResolver(q storage.Querier) *Resolver {
	return NewResolver(q, zerolog.Nop())
}

func TestResolve_EmptyToken(t *testing.T) {
	r := newTestResolver(&stubQuerier{})

	_, err := r.Resolve(context.Background(), "")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestResolve_UnknownToken(t *testing.T) {
	r := newTestResolver(&stubQuerier{
		getSessionFn: func(ctx context.Context, token string) (storage.GetSessionByTokenRow, error) {
			return storage.GetSessionByTokenRow{}, pgx.ErrNoRows
		},
	})

	_, err := r.Resolve(context.Background(), "nope")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestResolve_ExpiredSession(t *testing.T) {
	row := validRow()
	row.ExpiresAt = pgtype.Timestamptz{Time: time.Now().Add(-time.Minute), Valid: true}

	r := newTestResolver(&stubQuerier{
		getSessionFn: func(ctx context.Context, token string) (storage.GetSessionByTokenRow, error) {
			return row, nil
		},
	})

	_, err := r.Resolve(context.Background(), "tok")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestResolve_RevokedSession(t *testing.T) {
	row := validRow()
	row.RevokedAt = pgtype.Timestamptz{Time: time.Now().Add(-time.Minute), Valid: true}

	r := newTestResolver(&stubQuerier{
		getSessionFn: func(ctx context.Context, token string) (storage.GetSessionByTokenRow, error) {
			return row, nil
		},
	})

	_, err := r.Resolve(context.Background(), "tok")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestResolve_DeactivatedUser(t *testing.T) {
	row := validRow()
	row.UserStatus = "disabled"

	r := newTestResolver(&stubQuerier{
		getSessionFn: func(ctx context.Context, token string) (storage.GetSessionByTokenRow, error) {
			return row, nil
		},
	})

	_, err := r.Resolve(context.Background(), "tok")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestResolve_Success_TouchesSession(t *testing.T) {
	row := validRow()
	touched := false

	r := newTestResolver(&stubQuerier{
		getSessionFn: func(ctx context.Context, token string) (storage.GetSessionByTokenRow, error) {
			if token != "tok" {
				t.Errorf("expected token tok, got %s", token)
			}
			return row, nil
		},
		touchFn: func(ctx context.Context, sessionID uuid.UUID) error {
			touched = true
			if sessionID != row.SessionID {
				t.Errorf("expected session %s touched, got %s", row.SessionID, sessionID)
			}
			return nil
		},
	})

	tc, err := r.Resolve(context.Background(), "tok")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !touched {
		t.Error("expected session last seen to be touched")
	}
	if tc.UserID != row.UserID {
		t.Errorf("expected user %s, got %s", row.UserID, tc.UserID)
	}
	if tc.TenantID != uuid.UUID(row.TenantID.Bytes) {
		t.Errorf("expected tenant %s, got %s", uuid.UUID(row.TenantID.Bytes), tc.TenantID)
	}
	if tc.TenantName != "acme" {
		t.Errorf("expected tenant name acme, got %s", tc.TenantName)
	}
	if tc.IsSuperuser {
		t.Error("member must not be superuser")
	}
}

func TestResolve_TouchFailureIsNotFatal(t *testing.T) {
	row := validRow()

	r := newTestResolver(&stubQuerier{
		getSessionFn: func(ctx context.Context, token string) (storage.GetSessionByTokenRow, error) {
			return row, nil
		},
		touchFn: func(ctx context.Context, sessionID uuid.UUID) error {
			return errors.New("write failed")
		},
	})

	if _, err := r.Resolve(context.Background(), "tok"); err != nil {
		t.Fatalf("touch failure must not fail resolution, got %v", err)
	}
}

func TestResolve_SuperuserRole(t *testing.T) {
	row := validRow()
	row.Role = RoleSuperuser
	row.TenantID = pgtype.UUID{}
	row.TenantName = pgtype.Text{}

	r := newTestResolver(&stubQuerier{
		getSessionFn: func(ctx context.Context, token string) (storage.GetSessionByTokenRow, error) {
			return row, nil
		},
	})

	tc, err := r.Resolve(context.Background(), "tok")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !tc.IsSuperuser {
		t.Error("expected superuser flag")
	}
	if tc.TenantID != uuid.Nil {
		t.Errorf("expected nil tenant, got %s", tc.TenantID)
	}
}
