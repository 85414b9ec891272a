package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// CreateTenantParams are the inputs for CreateTenant.
type CreateTenantParams struct {
	Name string
}

// CreateUserParams are the inputs for CreateUser.
type CreateUserParams struct {
	TenantID pgtype.UUID
	Email    string
	Name     string
	Role     string
}

// CreateSessionParams are the inputs for CreateSession.
type CreateSessionParams struct {
	UserID    uuid.UUID
	Token     string
	ExpiresAt pgtype.Timestamptz
}

// CreateAudienceGroupParams are the inputs for CreateAudienceGroup.
type CreateAudienceGroupParams struct {
	TenantID uuid.UUID
	Name     string
}

// CreateLeadParams are the inputs for CreateLead.
type CreateLeadParams struct {
	TenantID uuid.UUID
	Email    string
	Name     string
}

// AddLeadToGroupParams are the inputs for AddLeadToGroup.
type AddLeadToGroupParams struct {
	GroupID uuid.UUID
	LeadID  uuid.UUID
}

// CreateTemplateParams are the inputs for CreateTemplate.
type CreateTemplateParams struct {
	TenantID uuid.UUID
	Name     string
	Subject  string
	Body     string
}

// CreateCampaignParams are the inputs for CreateCampaign.
type CreateCampaignParams struct {
	TenantID   uuid.UUID
	Name       string
	TemplateID pgtype.UUID
}

// GetTemplateParams are the inputs for GetTemplate.
type GetTemplateParams struct {
	ID    uuid.UUID
	Scope Scope
}

// GetCampaignParams are the inputs for GetCampaign.
type GetCampaignParams struct {
	ID    uuid.UUID
	Scope Scope
}

// ListLeadsByGroupIDsParams are the inputs for ListLeadsByGroupIDs.
type ListLeadsByGroupIDsParams struct {
	GroupIDs []uuid.UUID
	Scope    Scope
}

// CreateInteractionParams are the inputs for CreateInteraction.
type CreateInteractionParams struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	LeadID     uuid.UUID
	CampaignID pgtype.UUID
	TemplateID pgtype.UUID
	Kind       string
}

// MarkInteractionSentParams are the inputs for MarkInteractionSent.
type MarkInteractionSentParams struct {
	ID                uuid.UUID
	ProviderMessageID string
}

// MarkInteractionFailedParams are the inputs for MarkInteractionFailed.
type MarkInteractionFailedParams struct {
	ID           uuid.UUID
	ErrorMessage string
}

// CreateInteractionEventParams are the inputs for CreateInteractionEvent.
// The new row inherits tenant, lead, campaign, and template from the attempt.
type CreateInteractionEventParams struct {
	ID        uuid.UUID
	AttemptID uuid.UUID
	Kind      string
}

// GetInteractionParams are the inputs for GetInteraction.
type GetInteractionParams struct {
	ID    uuid.UUID
	Scope Scope
}

// ListInteractionsParams are the inputs for ListInteractions. LeadID,
// CampaignID, and Kind are optional filters.
type ListInteractionsParams struct {
	Scope      Scope
	LeadID     pgtype.UUID
	CampaignID pgtype.UUID
	Kind       pgtype.Text
	Limit      int32
	Offset     int32
}

// Querier is the database access surface. *Queries implements it against a
// pgx pool; tests substitute function-field mocks.
type Querier interface {
	// Sessions
	GetSessionByToken(ctx context.Context, token string) (GetSessionByTokenRow, error)
	TouchSession(ctx context.Context, sessionID uuid.UUID) error
	CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error)

	// Tenants and users
	CreateTenant(ctx context.Context, arg CreateTenantParams) (Tenant, error)
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)

	// Audiences
	CreateAudienceGroup(ctx context.Context, arg CreateAudienceGroupParams) (AudienceGroup, error)
	CreateLead(ctx context.Context, arg CreateLeadParams) (Lead, error)
	AddLeadToGroup(ctx context.Context, arg AddLeadToGroupParams) error
	ListLeadsByGroupIDs(ctx context.Context, arg ListLeadsByGroupIDsParams) ([]ListLeadsByGroupIDsRow, error)

	// Templates and campaigns
	CreateTemplate(ctx context.Context, arg CreateTemplateParams) (Template, error)
	GetTemplate(ctx context.Context, arg GetTemplateParams) (Template, error)
	CreateCampaign(ctx context.Context, arg CreateCampaignParams) (Campaign, error)
	GetCampaign(ctx context.Context, arg GetCampaignParams) (Campaign, error)

	// Interaction log
	CreateInteraction(ctx context.Context, arg CreateInteractionParams) (Interaction, error)
	MarkInteractionSent(ctx context.Context, arg MarkInteractionSentParams) error
	MarkInteractionFailed(ctx context.Context, arg MarkInteractionFailedParams) error
	CreateInteractionEvent(ctx context.Context, arg CreateInteractionEventParams) (Interaction, error)
	GetInteraction(ctx context.Context, arg GetInteractionParams) (Interaction, error)
	ListInteractions(ctx context.Context, arg ListInteractionsParams) ([]Interaction, error)
}
