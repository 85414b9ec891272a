package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/seojin/crm-dispatch/internal/auth"
	"github.com/seojin/crm-dispatch/internal/logger"
	"github.com/seojin/crm-dispatch/internal/storage"
)

// interactionResponse is the JSON shape of one interaction row.
type interactionResponse struct {
	ID                uuid.UUID  `json:"id"`
	LeadID            uuid.UUID  `json:"leadId"`
	CampaignID        *uuid.UUID `json:"campaignId,omitempty"`
	TemplateID        *uuid.UUID `json:"templateId,omitempty"`
	AttemptID         *uuid.UUID `json:"attemptId,omitempty"`
	Kind              string     `json:"kind"`
	Status            string     `json:"status"`
	ProviderMessageID string     `json:"providerMessageId,omitempty"`
	Error             string     `json:"error,omitempty"`
	CreatedAt         string     `json:"createdAt"`
	UpdatedAt         string     `json:"updatedAt"`
}

func toInteractionResponse(i storage.Interaction) interactionResponse {
	resp := interactionResponse{
		ID:        i.ID,
		LeadID:    i.LeadID,
		Kind:      i.Kind,
		Status:    string(i.Status),
		CreatedAt: i.CreatedAt.Time.Format(time.RFC3339),
		UpdatedAt: i.UpdatedAt.Time.Format(time.RFC3339),
	}
	if i.CampaignID.Valid {
		id := uuid.UUID(i.CampaignID.Bytes)
		resp.CampaignID = &id
	}
	if i.TemplateID.Valid {
		id := uuid.UUID(i.TemplateID.Bytes)
		resp.TemplateID = &id
	}
	if i.AttemptID.Valid {
		id := uuid.UUID(i.AttemptID.Bytes)
		resp.AttemptID = &id
	}
	if i.ProviderMessageID.Valid {
		resp.ProviderMessageID = i.ProviderMessageID.String
	}
	if i.ErrorMessage.Valid {
		resp.Error = i.ErrorMessage.String
	}
	return resp
}

// ListInteractionsHandler handles GET /api/v1/interactions.
// Optional filters: leadId, campaignId, kind, limit, offset. Results are
// scoped to the caller's tenant; superusers see all tenants.
func ListInteractionsHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, ok := auth.TenantContextFrom(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		params := storage.ListInteractionsParams{Scope: auth.ScopeFor(tc)}
		q := r.URL.Query()

		if raw := q.Get("leadId"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				respondError(w, http.StatusBadRequest, "invalid leadId format")
				return
			}
			params.LeadID = pgtype.UUID{Bytes: id, Valid: true}
		}
		if raw := q.Get("campaignId"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				respondError(w, http.StatusBadRequest, "invalid campaignId format")
				return
			}
			params.CampaignID = pgtype.UUID{Bytes: id, Valid: true}
		}
		if kind := q.Get("kind"); kind != "" {
			params.Kind = pgtype.Text{String: kind, Valid: true}
		}
		if raw := q.Get("limit"); raw != "" {
			limit, err := strconv.ParseInt(raw, 10, 32)
			if err != nil || limit < 1 {
				respondError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			params.Limit = int32(limit)
		}
		if raw := q.Get("offset"); raw != "" {
			offset, err := strconv.ParseInt(raw, 10, 32)
			if err != nil || offset < 0 {
				respondError(w, http.StatusBadRequest, "invalid offset")
				return
			}
			params.Offset = int32(offset)
		}

		interactions, err := queries.ListInteractions(r.Context(), params)
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Msg("listing interactions failed")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		result := make([]interactionResponse, len(interactions))
		for i, interaction := range interactions {
			result[i] = toInteractionResponse(interaction)
		}

		respondJSON(w, http.StatusOK, result)
	}
}

// GetInteractionHandler handles GET /api/v1/interactions/{interactionID}.
// An interaction outside the caller's scope is reported as not found.
func GetInteractionHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, ok := auth.TenantContextFrom(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "interactionID"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid interaction id")
			return
		}

		interaction, err := queries.GetInteraction(r.Context(), storage.GetInteractionParams{
			ID:    id,
			Scope: auth.ScopeFor(tc),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				respondError(w, http.StatusNotFound, "interaction not found")
				return
			}
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Msg("loading interaction failed")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		respondJSON(w, http.StatusOK, toInteractionResponse(interaction))
	}
}
