package progress

import (
	"context"
	"sync"
	"time"
)

// terminalRetention is how long a finished session's terminal event is kept
// for subscribers that connect after completion.
const terminalRetention = 10 * time.Minute

// subscriberBuffer is the per-subscriber event channel capacity. A
// subscriber that falls this far behind starts losing events rather than
// blocking the publisher.
const subscriberBuffer = 64

// Broker delivers progress events to session subscribers. Implementations:
// MemoryBroker (single process) and RedisBroker (multi-instance).
type Broker interface {
	// Publish delivers the event to every subscriber of its session.
	// Publishing to a finished session is a silent no-op.
	Publish(ctx context.Context, ev Event)
	// Subscribe registers an observer for the session. If the session has
	// already finished, the returned subscription yields only the retained
	// terminal event before closing.
	Subscribe(sessionID string) *Subscription
}

// Subscription is one observer's handle on a session stream. Events arrive
// on C; the channel is closed after a terminal event or Close. Close is
// idempotent and safe to call concurrently with delivery: brokers deliver
// through send, which shares a mutex with closeChan.
type Subscription struct {
	C <-chan Event

	mu     sync.Mutex
	closed bool
	ch     chan Event
	unsub  func()
}

func newSubscription(unsub func()) *Subscription {
	ch := make(chan Event, subscriberBuffer)
	s := &Subscription{C: ch, ch: ch}
	s.unsub = unsub
	return s
}

// Close detaches the subscription from its broker and closes the event
// channel. Called automatically on terminal events and by disconnecting
// clients; both paths may race with in-flight delivery.
func (s *Subscription) Close() {
	if s.unsub != nil {
		s.unsub()
	}
	s.closeChan()
}

// send delivers ev to the subscriber without blocking. Returns false if the
// subscription is closed or the buffer is full.
func (s *Subscription) send(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

func (s *Subscription) closeChan() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
