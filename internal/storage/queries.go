package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries implements Querier against a pgx connection pool.
type Queries struct {
	pool *pgxpool.Pool
}

// New creates a Queries instance backed by the given pool.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

const getSessionByToken = `
SELECT s.id, s.user_id, s.expires_at, s.revoked_at, u.status, u.role, u.tenant_id, t.name
FROM sessions s
JOIN users u ON u.id = s.user_id
LEFT JOIN tenants t ON t.id = u.tenant_id
WHERE s.token = $1`

func (q *Queries) GetSessionByToken(ctx context.Context, token string) (GetSessionByTokenRow, error) {
	var row GetSessionByTokenRow
	err := q.pool.QueryRow(ctx, getSessionByToken, token).Scan(
		&row.SessionID,
		&row.UserID,
		&row.ExpiresAt,
		&row.RevokedAt,
		&row.UserStatus,
		&row.Role,
		&row.TenantID,
		&row.TenantName,
	)
	return row, err
}

func (q *Queries) TouchSession(ctx context.Context, sessionID uuid.UUID) error {
	_, err := q.pool.Exec(ctx, `UPDATE sessions SET last_seen_at = now() WHERE id = $1`, sessionID)
	return err
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	var s Session
	err := q.pool.QueryRow(ctx, `
INSERT INTO sessions (user_id, token, expires_at)
VALUES ($1, $2, $3)
RETURNING id, user_id, token, expires_at, revoked_at, last_seen_at, created_at`,
		arg.UserID, arg.Token, arg.ExpiresAt,
	).Scan(&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.RevokedAt, &s.LastSeenAt, &s.CreatedAt)
	return s, err
}

func (q *Queries) CreateTenant(ctx context.Context, arg CreateTenantParams) (Tenant, error) {
	var t Tenant
	err := q.pool.QueryRow(ctx, `
INSERT INTO tenants (name) VALUES ($1)
RETURNING id, name, status, created_at, updated_at`,
		arg.Name,
	).Scan(&t.ID, &t.Name, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	var u User
	err := q.pool.QueryRow(ctx, `
INSERT INTO users (tenant_id, email, name, role)
VALUES ($1, $2, $3, $4)
RETURNING id, tenant_id, email, name, role, status, created_at`,
		arg.TenantID, arg.Email, arg.Name, arg.Role,
	).Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.Role, &u.Status, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := q.pool.QueryRow(ctx, `
SELECT id, tenant_id, email, name, role, status, created_at
FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.Role, &u.Status, &u.CreatedAt)
	return u, err
}

func (q *Queries) CreateAudienceGroup(ctx context.Context, arg CreateAudienceGroupParams) (AudienceGroup, error) {
	var g AudienceGroup
	err := q.pool.QueryRow(ctx, `
INSERT INTO audience_groups (tenant_id, name)
VALUES ($1, $2)
RETURNING id, tenant_id, name, created_at`,
		arg.TenantID, arg.Name,
	).Scan(&g.ID, &g.TenantID, &g.Name, &g.CreatedAt)
	return g, err
}

func (q *Queries) CreateLead(ctx context.Context, arg CreateLeadParams) (Lead, error) {
	var l Lead
	err := q.pool.QueryRow(ctx, `
INSERT INTO leads (tenant_id, email, name)
VALUES ($1, $2, $3)
RETURNING id, tenant_id, email, name, status, created_at`,
		arg.TenantID, arg.Email, arg.Name,
	).Scan(&l.ID, &l.TenantID, &l.Email, &l.Name, &l.Status, &l.CreatedAt)
	return l, err
}

func (q *Queries) AddLeadToGroup(ctx context.Context, arg AddLeadToGroupParams) error {
	_, err := q.pool.Exec(ctx, `
INSERT INTO audience_group_members (group_id, lead_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`,
		arg.GroupID, arg.LeadID)
	return err
}

// ListLeadsByGroupIDs expands the requested groups into one deduplicated
// member set in a single query. DISTINCT ON (l.id) with the secondary order
// on (g.name, g.id) keeps the display group deterministic for leads that
// belong to several requested groups. Leads without a deliverable address
// are excluded here rather than surfaced as an error.
func (q *Queries) ListLeadsByGroupIDs(ctx context.Context, arg ListLeadsByGroupIDsParams) ([]ListLeadsByGroupIDsRow, error) {
	query := `
SELECT DISTINCT ON (l.id) l.id, l.email, l.name, g.id, g.name
FROM audience_group_members m
JOIN leads l ON l.id = m.lead_id
JOIN audience_groups g ON g.id = m.group_id
WHERE m.group_id = ANY($1) AND l.email <> ''`
	args := []any{arg.GroupIDs}
	query, args = arg.Scope.Apply(query, "g.tenant_id", args)
	query += `
ORDER BY l.id, g.name, g.id`

	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads by group ids: %w", err)
	}
	defer rows.Close()

	var out []ListLeadsByGroupIDsRow
	for rows.Next() {
		var r ListLeadsByGroupIDsRow
		if err := rows.Scan(&r.LeadID, &r.Email, &r.Name, &r.GroupID, &r.GroupName); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *Queries) CreateTemplate(ctx context.Context, arg CreateTemplateParams) (Template, error) {
	var t Template
	err := q.pool.QueryRow(ctx, `
INSERT INTO templates (tenant_id, name, subject, body)
VALUES ($1, $2, $3, $4)
RETURNING id, tenant_id, name, subject, body, created_at`,
		arg.TenantID, arg.Name, arg.Subject, arg.Body,
	).Scan(&t.ID, &t.TenantID, &t.Name, &t.Subject, &t.Body, &t.CreatedAt)
	return t, err
}

func (q *Queries) GetTemplate(ctx context.Context, arg GetTemplateParams) (Template, error) {
	query := `
SELECT t.id, t.tenant_id, t.name, t.subject, t.body, t.created_at
FROM templates t
WHERE t.id = $1`
	args := []any{arg.ID}
	query, args = arg.Scope.Apply(query, "t.tenant_id", args)

	var t Template
	err := q.pool.QueryRow(ctx, query, args...).Scan(
		&t.ID, &t.TenantID, &t.Name, &t.Subject, &t.Body, &t.CreatedAt)
	return t, err
}

func (q *Queries) CreateCampaign(ctx context.Context, arg CreateCampaignParams) (Campaign, error) {
	var c Campaign
	err := q.pool.QueryRow(ctx, `
INSERT INTO campaigns (tenant_id, name, template_id)
VALUES ($1, $2, $3)
RETURNING id, tenant_id, name, template_id, status, created_at`,
		arg.TenantID, arg.Name, arg.TemplateID,
	).Scan(&c.ID, &c.TenantID, &c.Name, &c.TemplateID, &c.Status, &c.CreatedAt)
	return c, err
}

func (q *Queries) GetCampaign(ctx context.Context, arg GetCampaignParams) (Campaign, error) {
	query := `
SELECT c.id, c.tenant_id, c.name, c.template_id, c.status, c.created_at
FROM campaigns c
WHERE c.id = $1`
	args := []any{arg.ID}
	query, args = arg.Scope.Apply(query, "c.tenant_id", args)

	var c Campaign
	err := q.pool.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.TenantID, &c.Name, &c.TemplateID, &c.Status, &c.CreatedAt)
	return c, err
}

const interactionColumns = `id, tenant_id, lead_id, campaign_id, template_id, attempt_id, kind, status, provider_message_id, error_message, created_at, updated_at`

func scanInteraction(row pgx.Row) (Interaction, error) {
	var i Interaction
	err := row.Scan(
		&i.ID, &i.TenantID, &i.LeadID, &i.CampaignID, &i.TemplateID, &i.AttemptID,
		&i.Kind, &i.Status, &i.ProviderMessageID, &i.ErrorMessage, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

func (q *Queries) CreateInteraction(ctx context.Context, arg CreateInteractionParams) (Interaction, error) {
	return scanInteraction(q.pool.QueryRow(ctx, `
INSERT INTO interactions (id, tenant_id, lead_id, campaign_id, template_id, kind, status)
VALUES ($1, $2, $3, $4, $5, $6, 'pending')
RETURNING `+interactionColumns,
		arg.ID, arg.TenantID, arg.LeadID, arg.CampaignID, arg.TemplateID, arg.Kind))
}

func (q *Queries) MarkInteractionSent(ctx context.Context, arg MarkInteractionSentParams) error {
	_, err := q.pool.Exec(ctx, `
UPDATE interactions
SET status = 'sent', provider_message_id = $2, error_message = NULL, updated_at = now()
WHERE id = $1`,
		arg.ID, arg.ProviderMessageID)
	return err
}

func (q *Queries) MarkInteractionFailed(ctx context.Context, arg MarkInteractionFailedParams) error {
	_, err := q.pool.Exec(ctx, `
UPDATE interactions
SET status = 'failed', error_message = $2, provider_message_id = NULL, updated_at = now()
WHERE id = $1`,
		arg.ID, arg.ErrorMessage)
	return err
}

// CreateInteractionEvent records a downstream open/click against an existing
// attempt, inheriting the attempt's tenant, lead, campaign, and template.
func (q *Queries) CreateInteractionEvent(ctx context.Context, arg CreateInteractionEventParams) (Interaction, error) {
	return scanInteraction(q.pool.QueryRow(ctx, `
INSERT INTO interactions (id, tenant_id, lead_id, campaign_id, template_id, attempt_id, kind, status)
SELECT $1, tenant_id, lead_id, campaign_id, template_id, id, $3, 'recorded'
FROM interactions
WHERE id = $2
RETURNING `+interactionColumns,
		arg.ID, arg.AttemptID, arg.Kind))
}

func (q *Queries) GetInteraction(ctx context.Context, arg GetInteractionParams) (Interaction, error) {
	query := `SELECT ` + interactionColumns + ` FROM interactions i WHERE i.id = $1`
	args := []any{arg.ID}
	query, args = arg.Scope.Apply(query, "i.tenant_id", args)

	return scanInteraction(q.pool.QueryRow(ctx, query, args...))
}

func (q *Queries) ListInteractions(ctx context.Context, arg ListInteractionsParams) ([]Interaction, error) {
	query := `SELECT ` + interactionColumns + ` FROM interactions i WHERE true`
	var args []any

	if arg.LeadID.Valid {
		args = append(args, arg.LeadID)
		query = fmt.Sprintf("%s AND i.lead_id = $%d", query, len(args))
	}
	if arg.CampaignID.Valid {
		args = append(args, arg.CampaignID)
		query = fmt.Sprintf("%s AND i.campaign_id = $%d", query, len(args))
	}
	if arg.Kind.Valid {
		args = append(args, arg.Kind.String)
		query = fmt.Sprintf("%s AND i.kind = $%d", query, len(args))
	}

	query, args = arg.Scope.Apply(query, "i.tenant_id", args)

	limit := arg.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query = fmt.Sprintf("%s ORDER BY created_at DESC LIMIT $%d", query, len(args))
	args = append(args, arg.Offset)
	query = fmt.Sprintf("%s OFFSET $%d", query, len(args))

	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var i Interaction
		if err := rows.Scan(
			&i.ID, &i.TenantID, &i.LeadID, &i.CampaignID, &i.TemplateID, &i.AttemptID,
			&i.Kind, &i.Status, &i.ProviderMessageID, &i.ErrorMessage, &i.CreatedAt, &i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

