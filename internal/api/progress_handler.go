package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/seojin/crm-dispatch/internal/logger"
	"github.com/seojin/crm-dispatch/internal/progress"
)

// ProgressHandler handles GET /api/v1/dispatch/progress?sessionId= as a
// Server-Sent Events stream. The stream opens with a connected frame,
// relays the session's progress events in order, and closes after the
// terminal complete or error frame. Keep-alive comments are written while
// the dispatch is idle so proxies do not sever the connection.
func ProgressHandler(broker progress.Broker, keepalive time.Duration) http.HandlerFunc {
	if keepalive <= 0 {
		keepalive = 30 * time.Second
	}
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			respondError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		sessionID := r.URL.Query().Get("sessionId")
		if sessionID == "" {
			writeFrame(w, progress.Event{
				Type:      progress.TypeError,
				Message:   "sessionId is required",
				Timestamp: time.Now(),
			})
			flusher.Flush()
			return
		}

		// Subscribe before acknowledging so no event published after the
		// connected frame can be missed.
		sub := broker.Subscribe(sessionID)
		defer sub.Close()

		writeFrame(w, progress.Event{
			SessionID: sessionID,
			Type:      progress.TypeConnected,
			Message:   "listening for dispatch progress",
			Timestamp: time.Now(),
		})
		flusher.Flush()

		ticker := time.NewTicker(keepalive)
		defer ticker.Stop()

		log := logger.FromContext(r.Context())
		for {
			select {
			case <-r.Context().Done():
				// The dispatch keeps running; only this observer leaves.
				log.Debug().Str("session_id", sessionID).Msg("progress stream client disconnected")
				return
			case <-ticker.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				flusher.Flush()
			case ev, open := <-sub.C:
				if !open {
					return
				}
				writeFrame(w, ev)
				flusher.Flush()
				if ev.Terminal() {
					return
				}
			}
		}
	}
}

// writeFrame serializes one event as an SSE data frame.
func writeFrame(w http.ResponseWriter, ev progress.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
