package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/seojin/crm-dispatch/internal/audience"
	"github.com/seojin/crm-dispatch/internal/auth"
	"github.com/seojin/crm-dispatch/internal/dispatch"
	"github.com/seojin/crm-dispatch/internal/logger"
)

// dispatchRequest is the JSON body for POST /api/v1/dispatch.
type dispatchRequest struct {
	TemplateID       string   `json:"templateId"`
	AudienceGroupIDs []string `json:"audienceGroupIds"`
	CampaignID       string   `json:"campaignId,omitempty"`
	SubjectOverride  string   `json:"subjectOverride,omitempty"`
	SenderAddress    string   `json:"senderAddress,omitempty"`
	SessionID        string   `json:"sessionId,omitempty"`
}

// dispatchResponse is the envelope for a completed dispatch. Success refers
// to the dispatch as a whole; individual recipient failures are reported in
// results and summary without failing the request.
type dispatchResponse struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message"`
	Results []dispatch.RecipientResult `json:"results"`
	Summary dispatchSummary            `json:"summary"`
	Data    dispatchData               `json:"data"`
}

type dispatchSummary struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

type dispatchData struct {
	TemplateUsed    string                         `json:"templateUsed"`
	CampaignID      *uuid.UUID                     `json:"campaignId,omitempty"`
	GroupsProcessed int                            `json:"groupsProcessed"`
	PerGroupCounts  map[string]dispatch.GroupCount `json:"perGroupCounts"`
}

// DispatchHandler handles POST /api/v1/dispatch.
func DispatchHandler(orchestrator *dispatch.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, ok := auth.TenantContextFrom(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req dispatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if req.TemplateID == "" {
			respondError(w, http.StatusBadRequest, "templateId is required")
			return
		}
		if len(req.AudienceGroupIDs) == 0 {
			respondError(w, http.StatusBadRequest, "audienceGroupIds is required")
			return
		}

		templateID, err := uuid.Parse(req.TemplateID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid templateId format")
			return
		}

		groupIDs := make([]uuid.UUID, len(req.AudienceGroupIDs))
		for i, raw := range req.AudienceGroupIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				respondError(w, http.StatusBadRequest, "invalid audienceGroupIds format")
				return
			}
			groupIDs[i] = id
		}

		var campaignID *uuid.UUID
		if req.CampaignID != "" {
			id, err := uuid.Parse(req.CampaignID)
			if err != nil {
				respondError(w, http.StatusBadRequest, "invalid campaignId format")
				return
			}
			campaignID = &id
		}

		// A dropped client connection must not abandon in-flight sends;
		// attempts are always written.
		ctx := context.WithoutCancel(r.Context())

		summary, err := orchestrator.Dispatch(ctx, tc, dispatch.Request{
			SessionID:       req.SessionID,
			TemplateID:      templateID,
			CampaignID:      campaignID,
			GroupIDs:        groupIDs,
			SubjectOverride: req.SubjectOverride,
			Sender:          req.SenderAddress,
		})
		if err != nil {
			switch {
			case errors.Is(err, dispatch.ErrTemplateNotFound):
				respondError(w, http.StatusNotFound, "template not found")
			case errors.Is(err, dispatch.ErrCampaignNotFound):
				respondError(w, http.StatusNotFound, "campaign not found")
			case errors.Is(err, audience.ErrNoRecipients):
				respondError(w, http.StatusNotFound, "no recipients found for requested groups")
			default:
				log := logger.FromContext(r.Context())
				log.Error().Err(err).Msg("dispatch failed")
				respondError(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}

		respondJSON(w, http.StatusOK, dispatchResponse{
			Success: true,
			Message: "dispatch completed",
			Results: summary.Results,
			Summary: dispatchSummary{
				Total:  summary.Total,
				Sent:   summary.Sent,
				Failed: summary.Failed,
			},
			Data: dispatchData{
				TemplateUsed:    summary.TemplateName,
				CampaignID:      summary.CampaignID,
				GroupsProcessed: summary.GroupsProcessed,
				PerGroupCounts:  summary.PerGroupCounts,
			},
		})
	}
}
