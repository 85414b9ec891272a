package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/seojin/crm-dispatch/internal/logger"
	"github.com/seojin/crm-dispatch/internal/storage"
)

// transparent 1x1 GIF
var trackingPixel = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// OpenTrackingHandler handles GET /t/o/{attemptID}. It records an
// email_open interaction against the attempt and always serves the pixel;
// recording failures are logged, never surfaced to the mail client.
func OpenTrackingHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recordEvent(r, queries, storage.InteractionKindEmailOpen)

		w.Header().Set("Content-Type", "image/gif")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(trackingPixel)
	}
}

// ClickTrackingHandler handles GET /t/c/{attemptID}?u=. It records an
// email_click interaction and redirects to the original URL. Only absolute
// http(s) targets are honored.
func ClickTrackingHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.Query().Get("u")
		parsed, err := url.Parse(target)
		if err != nil || !parsed.IsAbs() || !strings.HasPrefix(parsed.Scheme, "http") {
			respondError(w, http.StatusBadRequest, "invalid target url")
			return
		}

		recordEvent(r, queries, storage.InteractionKindEmailClick)

		http.Redirect(w, r, parsed.String(), http.StatusFound)
	}
}

// recordEvent writes an open/click interaction inheriting tenant, lead,
// campaign, and template from the referenced attempt. A malformed or
// unknown attempt ID is logged and dropped.
func recordEvent(r *http.Request, queries storage.Querier, kind string) {
	log := logger.FromContext(r.Context())

	attemptID, err := uuid.Parse(chi.URLParam(r, "attemptID"))
	if err != nil {
		log.Debug().Str("kind", kind).Msg("tracking request with malformed attempt id")
		return
	}

	if _, err := queries.CreateInteractionEvent(r.Context(), storage.CreateInteractionEventParams{
		ID:        uuid.New(),
		AttemptID: attemptID,
		Kind:      kind,
	}); err != nil {
		log.Warn().Err(err).
			Stringer("attempt_id", attemptID).
			Str("kind", kind).
			Msg("recording tracking event failed")
	}
}
