package progress

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seojin/crm-dispatch/internal/metrics"
)

// MemoryBroker is the in-process Broker. The registry is an explicitly owned
// component injected where needed, not ambient global state; it holds all
// sessions of one process and is safe for concurrent subscribe, unsubscribe,
// and publish.
type MemoryBroker struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	log      zerolog.Logger
}

type memorySession struct {
	subs     map[*Subscription]struct{}
	terminal *Event
}

// NewMemoryBroker creates an empty broker.
func NewMemoryBroker(log zerolog.Logger) *MemoryBroker {
	return &MemoryBroker{
		sessions: make(map[string]*memorySession),
		log:      log,
	}
}

// Publish delivers ev to all subscribers of its session, in publish order.
// Delivery to one subscriber never blocks on another: a subscriber whose
// buffer is full loses the event instead of stalling the dispatch loop.
// A terminal event closes every subscription and finishes the session.
func (b *MemoryBroker) Publish(_ context.Context, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sess, ok := b.sessions[ev.SessionID]
	if !ok {
		sess = &memorySession{subs: make(map[*Subscription]struct{})}
		b.sessions[ev.SessionID] = sess
	}

	if sess.terminal != nil {
		// Session already finished; late publishes are dropped.
		metrics.ProgressEventsDropped.Inc()
		b.log.Debug().
			Str("session_id", ev.SessionID).
			Str("type", string(ev.Type)).
			Msg("dropping event published after terminal")
		return
	}

	metrics.ProgressEventsPublished.WithLabelValues(string(ev.Type)).Inc()

	for sub := range sess.subs {
		if !sub.send(ev) {
			metrics.ProgressEventsDropped.Inc()
			b.log.Warn().
				Str("session_id", ev.SessionID).
				Msg("subscriber buffer full, dropping event")
		}
	}

	if ev.Terminal() {
		terminal := ev
		sess.terminal = &terminal
		for sub := range sess.subs {
			sub.closeChan()
			metrics.ProgressSubscribers.Dec()
		}
		sess.subs = make(map[*Subscription]struct{})

		// Retain the terminal event for late subscribers, then forget the
		// session entirely.
		time.AfterFunc(terminalRetention, func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if s, ok := b.sessions[ev.SessionID]; ok && s.terminal != nil {
				delete(b.sessions, ev.SessionID)
			}
		})
	}
}

// Subscribe registers an observer for sessionID. For a finished session the
// subscription carries only the retained terminal event and is already
// closed.
func (b *MemoryBroker) Subscribe(sessionID string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sess, ok := b.sessions[sessionID]
	if !ok {
		sess = &memorySession{subs: make(map[*Subscription]struct{})}
		b.sessions[sessionID] = sess
	}

	if sess.terminal != nil {
		sub := newSubscription(nil)
		sub.ch <- *sess.terminal
		sub.closeChan()
		return sub
	}

	var sub *Subscription
	sub = newSubscription(func() { b.unsubscribe(sessionID, sub) })
	sess.subs[sub] = struct{}{}
	metrics.ProgressSubscribers.Inc()
	return sub
}

// unsubscribe removes sub from the session registry. Idempotent: a terminal
// event may already have detached the subscription.
func (b *MemoryBroker) unsubscribe(sessionID string, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sess, ok := b.sessions[sessionID]
	if !ok {
		return
	}
	if _, ok := sess.subs[sub]; ok {
		delete(sess.subs, sub)
		metrics.ProgressSubscribers.Dec()
	}
	if len(sess.subs) == 0 && sess.terminal == nil {
		delete(b.sessions, sessionID)
	}
}
