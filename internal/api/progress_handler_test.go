package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/seojin/crm-dispatch/internal/progress"
)

// readFrames consumes SSE data frames from the stream until it closes,
// skipping keep-alive comments.
func readFrames(t *testing.T, r *bufio.Scanner) []progress.Event {
	t.Helper()
	var events []progress.Event
	for r.Scan() {
		line := r.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev progress.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("bad frame %q: %v", line, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestProgressHandler_MissingSessionID(t *testing.T) {
	handler := ProgressHandler(progress.NewMemoryBroker(zerolog.Nop()), time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dispatch/progress", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	events := readFrames(t, bufio.NewScanner(rec.Body))
	if len(events) != 1 || events[0].Type != progress.TypeError {
		t.Fatalf("events = %+v, want single error frame", events)
	}
}

func TestProgressHandler_StreamsUntilTerminal(t *testing.T) {
	broker := progress.NewMemoryBroker(zerolog.Nop())
	srv := httptest.NewServer(ProgressHandler(broker, time.Hour))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "?sessionId=sess-live")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)

	// First frame acknowledges the subscription.
	var first progress.Event
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &first); err != nil {
				t.Fatalf("bad frame: %v", err)
			}
			break
		}
	}
	if first.Type != progress.TypeConnected {
		t.Fatalf("first frame = %+v, want connected", first)
	}

	ctx := context.Background()
	broker.Publish(ctx, progress.Event{SessionID: "sess-live", Type: progress.TypeStart, Total: 2, Timestamp: time.Now()})
	broker.Publish(ctx, progress.Event{SessionID: "sess-live", Type: progress.TypeProgress, Sent: 1, Total: 2, Timestamp: time.Now()})
	broker.Publish(ctx, progress.Event{SessionID: "sess-live", Type: progress.TypeComplete, Sent: 2, Total: 2, Timestamp: time.Now()})

	events := readFrames(t, scanner)
	if len(events) != 3 {
		t.Fatalf("got %d events after connected, want 3: %+v", len(events), events)
	}
	if events[0].Type != progress.TypeStart || events[2].Type != progress.TypeComplete {
		t.Errorf("event order wrong: %+v", events)
	}
}

func TestProgressHandler_LateSubscriberGetsTerminal(t *testing.T) {
	broker := progress.NewMemoryBroker(zerolog.Nop())
	ctx := context.Background()
	broker.Publish(ctx, progress.Event{SessionID: "sess-done", Type: progress.TypeStart, Total: 1, Timestamp: time.Now()})
	broker.Publish(ctx, progress.Event{SessionID: "sess-done", Type: progress.TypeComplete, Sent: 1, Total: 1, Timestamp: time.Now()})

	handler := ProgressHandler(broker, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dispatch/progress?sessionId=sess-done", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	events := readFrames(t, bufio.NewScanner(rec.Body))
	if len(events) != 2 {
		t.Fatalf("events = %+v, want connected + terminal", events)
	}
	if events[0].Type != progress.TypeConnected {
		t.Errorf("first frame = %+v", events[0])
	}
	if events[1].Type != progress.TypeComplete || events[1].Sent != 1 {
		t.Errorf("terminal frame = %+v", events[1])
	}
}

func TestProgressHandler_ClientDisconnect(t *testing.T) {
	broker := progress.NewMemoryBroker(zerolog.Nop())
	handler := ProgressHandler(broker, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dispatch/progress?sessionId=sess-gone", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.ServeHTTP(rec, req)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after client disconnect")
	}
}
