// Package dispatch coordinates bulk sends: audience resolution, template
// personalization, attempt recording, gateway transmission, and live
// progress publication.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/seojin/crm-dispatch/internal/audience"
	"github.com/seojin/crm-dispatch/internal/auth"
	"github.com/seojin/crm-dispatch/internal/config"
	"github.com/seojin/crm-dispatch/internal/gateway"
	"github.com/seojin/crm-dispatch/internal/metrics"
	"github.com/seojin/crm-dispatch/internal/progress"
	"github.com/seojin/crm-dispatch/internal/storage"
	"github.com/seojin/crm-dispatch/internal/tracking"
)

var (
	// ErrTemplateNotFound indicates the template does not exist or is not
	// visible to the caller's tenant.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrCampaignNotFound indicates the campaign does not exist or is not
	// visible to the caller's tenant.
	ErrCampaignNotFound = errors.New("campaign not found")
)

// Request describes one bulk dispatch.
type Request struct {
	// SessionID keys the progress stream. Empty disables progress events.
	SessionID  string
	TemplateID uuid.UUID
	// CampaignID optionally attributes attempts to a campaign.
	CampaignID *uuid.UUID
	GroupIDs   []uuid.UUID
	// SubjectOverride replaces the template subject when non-empty.
	SubjectOverride string
	// Sender overrides the configured default sender address.
	Sender string
}

// RecipientResult is the per-recipient outcome of a dispatch.
type RecipientResult struct {
	LeadID    uuid.UUID `json:"leadId"`
	Address   string    `json:"address"`
	Group     string    `json:"group"`
	Status    string    `json:"status"` // sent, failed
	AttemptID string    `json:"attemptId,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// GroupCount tallies outcomes for one audience group.
type GroupCount struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Summary is the aggregate outcome of a completed dispatch. A dispatch with
// recipient failures still completes; failures are reported here, not as a
// request error.
type Summary struct {
	Total           int                   `json:"total"`
	Sent            int                   `json:"sent"`
	Failed          int                   `json:"failed"`
	TemplateName    string                `json:"-"`
	CampaignID      *uuid.UUID            `json:"-"`
	GroupsProcessed int                   `json:"-"`
	PerGroupCounts  map[string]GroupCount `json:"-"`
	Results         []RecipientResult     `json:"-"`
}

// Orchestrator runs the dispatch pipeline end to end.
type Orchestrator struct {
	queries   storage.Querier
	audiences *audience.Resolver
	gateway   gateway.Gateway
	broker    progress.Broker
	injector  *tracking.Injector
	cfg       config.DispatchConfig
	log       zerolog.Logger
}

// NewOrchestrator wires the dispatch pipeline.
func NewOrchestrator(
	queries storage.Querier,
	audiences *audience.Resolver,
	gw gateway.Gateway,
	broker progress.Broker,
	injector *tracking.Injector,
	cfg config.DispatchConfig,
	log zerolog.Logger,
) *Orchestrator {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	return &Orchestrator{
		queries:   queries,
		audiences: audiences,
		gateway:   gw,
		broker:    broker,
		injector:  injector,
		cfg:       cfg,
		log:       log,
	}
}

// Dispatch resolves the audience and sends one personalized message per
// recipient through a bounded worker pool. Every attempt is recorded before
// its progress event is published, and the session's stream always ends
// with a terminal event. Pre-send failures (unknown template or campaign,
// empty audience) abort the whole dispatch; per-recipient send failures do
// not.
func (o *Orchestrator) Dispatch(ctx context.Context, tc auth.TenantContext, req Request) (*Summary, error) {
	log := o.log.With().
		Str("session_id", req.SessionID).
		Stringer("template_id", req.TemplateID).
		Logger()

	tpl, campaignID, recipients, err := o.prepare(ctx, tc, req)
	if err != nil {
		o.publishError(ctx, req.SessionID, err)
		metrics.DispatchesTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if req.SubjectOverride != "" {
		tpl.Subject = req.SubjectOverride
	}

	metrics.DispatchActive.Inc()
	defer metrics.DispatchActive.Dec()
	started := time.Now()

	total := len(recipients)
	o.publish(ctx, progress.Event{
		SessionID: req.SessionID,
		Type:      progress.TypeStart,
		Total:     total,
		Message:   fmt.Sprintf("dispatching %q to %d recipients", tpl.Name, total),
		Timestamp: time.Now(),
	})

	sender := req.Sender
	if sender == "" {
		sender = o.cfg.DefaultSender
	}

	type job struct {
		idx  int
		rcpt audience.Recipient
	}
	type outcome struct {
		idx    int
		result RecipientResult
	}

	jobs := make(chan job)
	outcomes := make(chan outcome)

	workers := o.cfg.WorkerCount
	if workers > total {
		workers = total
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				outcomes <- outcome{idx: j.idx, result: o.sendOne(ctx, log, tpl, campaignID, sender, j.rcpt)}
			}
		}()
	}
	go func() {
		for i, r := range recipients {
			jobs <- job{idx: i, rcpt: r}
		}
		close(jobs)
		wg.Wait()
		close(outcomes)
	}()

	// Single aggregation loop: counters and progress events stay ordered
	// per session even though sends complete concurrently.
	summary := &Summary{
		Total:           total,
		TemplateName:    tpl.Name,
		CampaignID:      campaignID,
		GroupsProcessed: len(req.GroupIDs),
		PerGroupCounts:  make(map[string]GroupCount),
		Results:         make([]RecipientResult, total),
	}
	for out := range outcomes {
		summary.Results[out.idx] = out.result

		counts := summary.PerGroupCounts[out.result.Group]
		status := progress.RecipientStatus{
			LeadID:  out.result.LeadID,
			Address: out.result.Address,
			Status:  out.result.Status,
			Error:   out.result.Error,
		}
		if out.result.Status == "sent" {
			summary.Sent++
			counts.Sent++
		} else {
			summary.Failed++
			counts.Failed++
		}
		summary.PerGroupCounts[out.result.Group] = counts
		metrics.DispatchRecipientsTotal.WithLabelValues(out.result.Status).Inc()

		o.publish(ctx, progress.Event{
			SessionID: req.SessionID,
			Type:      progress.TypeProgress,
			Sent:      summary.Sent,
			Failed:    summary.Failed,
			Total:     total,
			Current:   &status,
			Timestamp: time.Now(),
		})
	}

	o.publish(ctx, progress.Event{
		SessionID: req.SessionID,
		Type:      progress.TypeComplete,
		Sent:      summary.Sent,
		Failed:    summary.Failed,
		Total:     total,
		Message:   fmt.Sprintf("dispatch complete: %d sent, %d failed", summary.Sent, summary.Failed),
		Timestamp: time.Now(),
	})

	metrics.DispatchesTotal.WithLabelValues("completed").Inc()
	metrics.DispatchDuration.Observe(time.Since(started).Seconds())
	log.Info().
		Int("total", total).
		Int("sent", summary.Sent).
		Int("failed", summary.Failed).
		Dur("elapsed", time.Since(started)).
		Msg("dispatch completed")

	return summary, nil
}

// prepare resolves everything the send loop needs. All lookups are scoped
// to the caller's tenant, so cross-tenant IDs surface as not-found.
func (o *Orchestrator) prepare(ctx context.Context, tc auth.TenantContext, req Request) (storage.Template, *uuid.UUID, []audience.Recipient, error) {
	scope := auth.ScopeFor(tc)

	tpl, err := o.queries.GetTemplate(ctx, storage.GetTemplateParams{ID: req.TemplateID, Scope: scope})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Template{}, nil, nil, ErrTemplateNotFound
		}
		return storage.Template{}, nil, nil, fmt.Errorf("load template: %w", err)
	}

	var campaignID *uuid.UUID
	if req.CampaignID != nil {
		campaign, err := o.queries.GetCampaign(ctx, storage.GetCampaignParams{ID: *req.CampaignID, Scope: scope})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return storage.Template{}, nil, nil, ErrCampaignNotFound
			}
			return storage.Template{}, nil, nil, fmt.Errorf("load campaign: %w", err)
		}
		campaignID = &campaign.ID
	}

	recipients, err := o.audiences.Resolve(ctx, tc, req.GroupIDs)
	if err != nil {
		return storage.Template{}, nil, nil, err
	}

	return tpl, campaignID, recipients, nil
}

// sendOne runs the per-recipient pipeline. The attempt row is written (and
// its terminal status recorded) before the result is handed back, so no
// progress event can precede its attempt.
func (o *Orchestrator) sendOne(ctx context.Context, log zerolog.Logger, tpl storage.Template, campaignID *uuid.UUID, sender string, rcpt audience.Recipient) RecipientResult {
	result := RecipientResult{
		LeadID:  rcpt.LeadID,
		Address: rcpt.Address,
		Group:   rcpt.GroupLabel,
	}

	attemptID := uuid.New()
	subject := personalize(tpl.Subject, rcpt)
	body := o.injector.Inject(personalize(tpl.Body, rcpt), attemptID.String())

	var campaign pgtype.UUID
	if campaignID != nil {
		campaign = pgtype.UUID{Bytes: *campaignID, Valid: true}
	}

	if _, err := o.queries.CreateInteraction(ctx, storage.CreateInteractionParams{
		ID:         attemptID,
		TenantID:   tpl.TenantID,
		LeadID:     rcpt.LeadID,
		CampaignID: campaign,
		TemplateID: pgtype.UUID{Bytes: tpl.ID, Valid: true},
		Kind:       storage.InteractionKindEmailSent,
	}); err != nil {
		log.Error().Err(err).Str("address", rcpt.Address).Msg("recording attempt failed")
		result.Status = "failed"
		result.Error = fmt.Sprintf("record attempt: %v", err)
		return result
	}
	result.AttemptID = attemptID.String()

	sendResult, err := o.gateway.Send(ctx, &gateway.Message{
		AttemptID: attemptID.String(),
		From:      sender,
		To:        rcpt.Address,
		ToName:    rcpt.DisplayName,
		Subject:   subject,
		HTMLBody:  body,
	})
	if err != nil {
		if markErr := o.queries.MarkInteractionFailed(ctx, storage.MarkInteractionFailedParams{
			ID:           attemptID,
			ErrorMessage: err.Error(),
		}); markErr != nil {
			log.Error().Err(markErr).Stringer("attempt_id", attemptID).Msg("marking attempt failed errored")
		}
		log.Warn().Err(err).Str("address", rcpt.Address).Msg("send failed")
		result.Status = "failed"
		result.Error = err.Error()
		return result
	}

	if markErr := o.queries.MarkInteractionSent(ctx, storage.MarkInteractionSentParams{
		ID:                attemptID,
		ProviderMessageID: sendResult.ProviderMessageID,
	}); markErr != nil {
		log.Error().Err(markErr).Stringer("attempt_id", attemptID).Msg("marking attempt sent errored")
	}
	result.Status = "sent"
	return result
}

func (o *Orchestrator) publish(ctx context.Context, ev progress.Event) {
	if ev.SessionID == "" {
		return
	}
	o.broker.Publish(ctx, ev)
}

func (o *Orchestrator) publishError(ctx context.Context, sessionID string, err error) {
	// Expected rejections carry their message verbatim; anything else is a
	// system fault whose detail stays in the logs, matching the HTTP 500
	// envelope.
	msg := "internal server error"
	if errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrCampaignNotFound) ||
		errors.Is(err, audience.ErrNoRecipients) {
		msg = err.Error()
	}

	o.publish(ctx, progress.Event{
		SessionID: sessionID,
		Type:      progress.TypeError,
		Message:   msg,
		Timestamp: time.Now(),
	})
}
