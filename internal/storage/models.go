package storage

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Interaction kinds recorded in the interactions table.
const (
	InteractionKindEmailSent  = "email_sent"
	InteractionKindEmailOpen  = "email_open"
	InteractionKindEmailClick = "email_click"
)

// InteractionStatus is the lifecycle state of a dispatch attempt.
type InteractionStatus string

const (
	InteractionStatusPending  InteractionStatus = "pending"
	InteractionStatusSent     InteractionStatus = "sent"
	InteractionStatusFailed   InteractionStatus = "failed"
	InteractionStatusRecorded InteractionStatus = "recorded" // open/click events
)

// Tenant is an isolated organizational scope.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	Status    string
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// User is a tenant member. Superusers carry role "superuser" and may have
// no tenant of their own.
type User struct {
	ID        uuid.UUID
	TenantID  pgtype.UUID
	Email     string
	Name      string
	Role      string
	Status    string
	CreatedAt pgtype.Timestamptz
}

// Session is an opaque-token login session.
type Session struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Token      string
	ExpiresAt  pgtype.Timestamptz
	RevokedAt  pgtype.Timestamptz
	LastSeenAt pgtype.Timestamptz
	CreatedAt  pgtype.Timestamptz
}

// AudienceGroup is a named, tenant-owned collection of leads.
type AudienceGroup struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	CreatedAt pgtype.Timestamptz
}

// Lead is a marketing contact.
type Lead struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Email     string
	Name      string
	Status    string
	CreatedAt pgtype.Timestamptz
}

// Template is a reusable message template.
type Template struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	Subject   string
	Body      string
	CreatedAt pgtype.Timestamptz
}

// Campaign groups dispatches under a marketing initiative.
type Campaign struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Name       string
	TemplateID pgtype.UUID
	Status     string
	CreatedAt  pgtype.Timestamptz
}

// Interaction is one row of the append/update interaction log. Rows with
// kind email_sent are dispatch attempts (status pending -> sent|failed);
// open/click rows reference their attempt via AttemptID.
type Interaction struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	LeadID            uuid.UUID
	CampaignID        pgtype.UUID
	TemplateID        pgtype.UUID
	AttemptID         pgtype.UUID
	Kind              string
	Status            InteractionStatus
	ProviderMessageID pgtype.Text
	ErrorMessage      pgtype.Text
	CreatedAt         pgtype.Timestamptz
	UpdatedAt         pgtype.Timestamptz
}

// GetSessionByTokenRow joins a session with its user and tenant.
type GetSessionByTokenRow struct {
	SessionID  uuid.UUID
	UserID     uuid.UUID
	ExpiresAt  pgtype.Timestamptz
	RevokedAt  pgtype.Timestamptz
	UserStatus string
	Role       string
	TenantID   pgtype.UUID
	TenantName pgtype.Text
}

// ListLeadsByGroupIDsRow is one deduplicated audience member. GroupID and
// GroupName identify the member's display group (first by group name, id).
type ListLeadsByGroupIDsRow struct {
	LeadID    uuid.UUID
	Email     string
	Name      string
	GroupID   uuid.UUID
	GroupName string
}
