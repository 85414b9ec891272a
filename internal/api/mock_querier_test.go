package api

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/seojin/crm-dispatch/internal/storage"
)

// mockQuerier is a function-field mock of storage.Querier. Unset methods
// return zero values. Every call is recorded in calls for order and
// absence assertions.
type mockQuerier struct {
	mu    sync.Mutex
	calls []string

	getSessionByTokenFn      func(ctx context.Context, token string) (storage.GetSessionByTokenRow, error)
	touchSessionFn           func(ctx context.Context, sessionID uuid.UUID) error
	createSessionFn          func(ctx context.Context, arg storage.CreateSessionParams) (storage.Session, error)
	createTenantFn           func(ctx context.Context, arg storage.CreateTenantParams) (storage.Tenant, error)
	createUserFn             func(ctx context.Context, arg storage.CreateUserParams) (storage.User, error)
	getUserByEmailFn         func(ctx context.Context, email string) (storage.User, error)
	createAudienceGroupFn    func(ctx context.Context, arg storage.CreateAudienceGroupParams) (storage.AudienceGroup, error)
	createLeadFn             func(ctx context.Context, arg storage.CreateLeadParams) (storage.Lead, error)
	addLeadToGroupFn         func(ctx context.Context, arg storage.AddLeadToGroupParams) error
	listLeadsByGroupIDsFn    func(ctx context.Context, arg storage.ListLeadsByGroupIDsParams) ([]storage.ListLeadsByGroupIDsRow, error)
	createTemplateFn         func(ctx context.Context, arg storage.CreateTemplateParams) (storage.Template, error)
	getTemplateFn            func(ctx context.Context, arg storage.GetTemplateParams) (storage.Template, error)
	createCampaignFn         func(ctx context.Context, arg storage.CreateCampaignParams) (storage.Campaign, error)
	getCampaignFn            func(ctx context.Context, arg storage.GetCampaignParams) (storage.Campaign, error)
	createInteractionFn      func(ctx context.Context, arg storage.CreateInteractionParams) (storage.Interaction, error)
	markInteractionSentFn    func(ctx context.Context, arg storage.MarkInteractionSentParams) error
	markInteractionFailedFn  func(ctx context.Context, arg storage.MarkInteractionFailedParams) error
	createInteractionEventFn func(ctx context.Context, arg storage.CreateInteractionEventParams) (storage.Interaction, error)
	getInteractionFn         func(ctx context.Context, arg storage.GetInteractionParams) (storage.Interaction, error)
	listInteractionsFn       func(ctx context.Context, arg storage.ListInteractionsParams) ([]storage.Interaction, error)
}

func (m *mockQuerier) record(name string) {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()
}

func (m *mockQuerier) called(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calls {
		if c == name {
			return true
		}
	}
	return false
}

func (m *mockQuerier) GetSessionByToken(ctx context.Context, token string) (storage.GetSessionByTokenRow, error) {
	m.record("GetSessionByToken")
	if m.getSessionByTokenFn != nil {
		return m.getSessionByTokenFn(ctx, token)
	}
	return storage.GetSessionByTokenRow{}, nil
}

func (m *mockQuerier) TouchSession(ctx context.Context, sessionID uuid.UUID) error {
	m.record("TouchSession")
	if m.touchSessionFn != nil {
		return m.touchSessionFn(ctx, sessionID)
	}
	return nil
}

func (m *mockQuerier) CreateSession(ctx context.Context, arg storage.CreateSessionParams) (storage.Session, error) {
	m.record("CreateSession")
	if m.createSessionFn != nil {
		return m.createSessionFn(ctx, arg)
	}
	return storage.Session{}, nil
}

func (m *mockQuerier) CreateTenant(ctx context.Context, arg storage.CreateTenantParams) (storage.Tenant, error) {
	m.record("CreateTenant")
	if m.createTenantFn != nil {
		return m.createTenantFn(ctx, arg)
	}
	return storage.Tenant{}, nil
}

func (m *mockQuerier) CreateUser(ctx context.Context, arg storage.CreateUserParams) (storage.User, error) {
	m.record("CreateUser")
	if m.createUserFn != nil {
		return m.createUserFn(ctx, arg)
	}
	return storage.User{}, nil
}

func (m *mockQuerier) GetUserByEmail(ctx context.Context, email string) (storage.User, error) {
	m.record("GetUserByEmail")
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(ctx, email)
	}
	return storage.User{}, nil
}

func (m *mockQuerier) CreateAudienceGroup(ctx context.Context, arg storage.CreateAudienceGroupParams) (storage.AudienceGroup, error) {
	m.record("CreateAudienceGroup")
	if m.createAudienceGroupFn != nil {
		return m.createAudienceGroupFn(ctx, arg)
	}
	return storage.AudienceGroup{}, nil
}

func (m *mockQuerier) CreateLead(ctx context.Context, arg storage.CreateLeadParams) (storage.Lead, error) {
	m.record("CreateLead")
	if m.createLeadFn != nil {
		return m.createLeadFn(ctx, arg)
	}
	return storage.Lead{}, nil
}

func (m *mockQuerier) AddLeadToGroup(ctx context.Context, arg storage.AddLeadToGroupParams) error {
	m.record("AddLeadToGroup")
	if m.addLeadToGroupFn != nil {
		return m.addLeadToGroupFn(ctx, arg)
	}
	return nil
}

func (m *mockQuerier) ListLeadsByGroupIDs(ctx context.Context, arg storage.ListLeadsByGroupIDsParams) ([]storage.ListLeadsByGroupIDsRow, error) {
	m.record("ListLeadsByGroupIDs")
	if m.listLeadsByGroupIDsFn != nil {
		return m.listLeadsByGroupIDsFn(ctx, arg)
	}
	return nil, nil
}

func (m *mockQuerier) CreateTemplate(ctx context.Context, arg storage.CreateTemplateParams) (storage.Template, error) {
	m.record("CreateTemplate")
	if m.createTemplateFn != nil {
		return m.createTemplateFn(ctx, arg)
	}
	return storage.Template{}, nil
}

func (m *mockQuerier) GetTemplate(ctx context.Context, arg storage.GetTemplateParams) (storage.Template, error) {
	m.record("GetTemplate")
	if m.getTemplateFn != nil {
		return m.getTemplateFn(ctx, arg)
	}
	return storage.Template{}, nil
}

func (m *mockQuerier) CreateCampaign(ctx context.Context, arg storage.CreateCampaignParams) (storage.Campaign, error) {
	m.record("CreateCampaign")
	if m.createCampaignFn != nil {
		return m.createCampaignFn(ctx, arg)
	}
	return storage.Campaign{}, nil
}

func (m *mockQuerier) GetCampaign(ctx context.Context, arg storage.GetCampaignParams) (storage.Campaign, error) {
	m.record("GetCampaign")
	if m.getCampaignFn != nil {
		return m.getCampaignFn(ctx, arg)
	}
	return storage.Campaign{}, nil
}

func (m *mockQuerier) CreateInteraction(ctx context.Context, arg storage.CreateInteractionParams) (storage.Interaction, error) {
	m.record("CreateInteraction")
	if m.createInteractionFn != nil {
		return m.createInteractionFn(ctx, arg)
	}
	return storage.Interaction{ID: arg.ID}, nil
}

func (m *mockQuerier) MarkInteractionSent(ctx context.Context, arg storage.MarkInteractionSentParams) error {
	m.record("MarkInteractionSent")
	if m.markInteractionSentFn != nil {
		return m.markInteractionSentFn(ctx, arg)
	}
	return nil
}

func (m *mockQuerier) MarkInteractionFailed(ctx context.Context, arg storage.MarkInteractionFailedParams) error {
	m.record("MarkInteractionFailed")
	if m.markInteractionFailedFn != nil {
		return m.markInteractionFailedFn(ctx, arg)
	}
	return nil
}

func (m *mockQuerier) CreateInteractionEvent(ctx context.Context, arg storage.CreateInteractionEventParams) (storage.Interaction, error) {
	m.record("CreateInteractionEvent")
	if m.createInteractionEventFn != nil {
		return m.createInteractionEventFn(ctx, arg)
	}
	return storage.Interaction{ID: arg.ID}, nil
}

func (m *mockQuerier) GetInteraction(ctx context.Context, arg storage.GetInteractionParams) (storage.Interaction, error) {
	m.record("GetInteraction")
	if m.getInteractionFn != nil {
		return m.getInteractionFn(ctx, arg)
	}
	return storage.Interaction{}, nil
}

func (m *mockQuerier) ListInteractions(ctx context.Context, arg storage.ListInteractionsParams) ([]storage.Interaction, error) {
	m.record("ListInteractions")
	if m.listInteractionsFn != nil {
		return m.listInteractionsFn(ctx, arg)
	}
	return nil, nil
}
