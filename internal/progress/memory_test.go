package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestBroker() *MemoryBroker {
	return NewMemoryBroker(zerolog.Nop())
}

func progressEvent(sessionID string, sent, failed, total int) Event {
	return Event{
		SessionID: sessionID,
		Type:      TypeProgress,
		Sent:      sent,
		Failed:    failed,
		Total:     total,
		Timestamp: time.Now(),
	}
}

func collect(t *testing.T, sub *Subscription, want int) []Event {
	t.Helper()
	var got []Event
	timeout := time.After(2 * time.Second)
	for len(got) < want {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out after %d of %d events", len(got), want)
		}
	}
	return got
}

func TestMemoryBroker_FIFOPerSession(t *testing.T) {
	b := newTestBroker()
	sub := b.Subscribe("s1")
	defer sub.Close()

	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		b.Publish(ctx, progressEvent("s1", i, 0, 5))
	}

	got := collect(t, sub, 5)
	for i, ev := range got {
		if ev.Sent != i+1 {
			t.Errorf("event %d: expected sent=%d, got %d", i, i+1, ev.Sent)
		}
	}
}

func TestMemoryBroker_SessionIsolation(t *testing.T) {
	b := newTestBroker()
	sub1 := b.Subscribe("s1")
	sub2 := b.Subscribe("s2")
	defer sub1.Close()
	defer sub2.Close()

	b.Publish(context.Background(), progressEvent("s1", 1, 0, 1))

	select {
	case ev := <-sub1.C:
		if ev.SessionID != "s1" {
			t.Errorf("expected session s1, got %s", ev.SessionID)
		}
	case <-time.After(time.Second):
		t.Fatal("sub1 did not receive its event")
	}

	select {
	case ev := <-sub2.C:
		t.Errorf("sub2 received foreign event %+v", ev)
	default:
	}
}

func TestMemoryBroker_TerminalClosesStream(t *testing.T) {
	b := newTestBroker()
	sub := b.Subscribe("s1")

	ctx := context.Background()
	b.Publish(ctx, progressEvent("s1", 1, 0, 1))
	b.Publish(ctx, Event{SessionID: "s1", Type: TypeComplete, Sent: 1, Total: 1})

	got := collect(t, sub, 2)
	if got[len(got)-1].Type != TypeComplete {
		t.Errorf("expected complete last, got %s", got[len(got)-1].Type)
	}

	// Channel must be closed after the terminal event.
	select {
	case _, ok := <-sub.C:
		if ok {
			t.Error("expected closed channel after terminal event")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after terminal event")
	}
}

func TestMemoryBroker_LatePublishDropped(t *testing.T) {
	b := newTestBroker()
	ctx := context.Background()

	b.Publish(ctx, Event{SessionID: "s1", Type: TypeComplete})
	// Must not panic or resurrect the stream.
	b.Publish(ctx, progressEvent("s1", 9, 0, 9))

	sub := b.Subscribe("s1")
	got := collect(t, sub, 1)
	if got[0].Type != TypeComplete {
		t.Errorf("late subscriber should only see the terminal event, got %s", got[0].Type)
	}
}

func TestMemoryBroker_LateSubscriberGetsTerminalOnly(t *testing.T) {
	b := newTestBroker()
	ctx := context.Background()

	b.Publish(ctx, progressEvent("s1", 1, 0, 2))
	b.Publish(ctx, progressEvent("s1", 2, 0, 2))
	b.Publish(ctx, Event{SessionID: "s1", Type: TypeComplete, Sent: 2, Total: 2})

	sub := b.Subscribe("s1")
	got := collect(t, sub, 1)
	if len(got) != 1 || got[0].Type != TypeComplete {
		t.Fatalf("expected exactly the terminal event, got %+v", got)
	}
	if got[0].Sent != 2 {
		t.Errorf("expected terminal sent=2, got %d", got[0].Sent)
	}
}

func TestMemoryBroker_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	b := newTestBroker()
	slow := b.Subscribe("s1") // never drained
	fast := b.Subscribe("s1")
	defer slow.Close()
	defer fast.Close()

	ctx := context.Background()
	// Overflow the slow subscriber's buffer.
	for i := 0; i < subscriberBuffer+10; i++ {
		b.Publish(ctx, progressEvent("s1", i, 0, subscriberBuffer+10))
	}

	// The fast subscriber still receives events up to its own buffer.
	got := collect(t, fast, subscriberBuffer)
	if len(got) != subscriberBuffer {
		t.Fatalf("expected %d events, got %d", subscriberBuffer, len(got))
	}
}

func TestSubscription_CloseIdempotent(t *testing.T) {
	b := newTestBroker()
	sub := b.Subscribe("s1")

	sub.Close()
	sub.Close() // must not panic

	// Publishing after all subscribers left must not panic either.
	b.Publish(context.Background(), progressEvent("s1", 1, 0, 1))
}

func TestMemoryBroker_PublishRacesClose(t *testing.T) {
	b := newTestBroker()
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		sub := b.Subscribe("s1")
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Publish(ctx, progressEvent("s1", j, 0, 100))
			}
		}()
		sub.Close()
		wg.Wait()
	}
}

func TestMemoryBroker_CountsNonDecreasing(t *testing.T) {
	b := newTestBroker()
	sub := b.Subscribe("s1")
	defer sub.Close()

	ctx := context.Background()
	b.Publish(ctx, progressEvent("s1", 1, 0, 3))
	b.Publish(ctx, progressEvent("s1", 1, 1, 3))
	b.Publish(ctx, progressEvent("s1", 2, 1, 3))
	b.Publish(ctx, Event{SessionID: "s1", Type: TypeComplete, Sent: 2, Failed: 1, Total: 3})

	got := collect(t, sub, 4)
	prev := -1
	for _, ev := range got {
		if ev.Sent+ev.Failed < prev {
			t.Errorf("processed count decreased: %d -> %d", prev, ev.Sent+ev.Failed)
		}
		prev = ev.Sent + ev.Failed
	}
	if got[len(got)-1].Type != TypeComplete {
		t.Errorf("expected terminal last, got %s", got[len(got)-1].Type)
	}
}
