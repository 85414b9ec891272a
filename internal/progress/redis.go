package progress

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/seojin/crm-dispatch/internal/metrics"
)

// RedisBroker implements Broker over Redis pub/sub, keyed by session ID, so
// a progress subscriber can be served by a different instance than the one
// running the dispatch. The terminal event is additionally stored with a
// TTL so late subscribers still learn the outcome.
type RedisBroker struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewRedisBroker creates a RedisBroker on an existing client.
func NewRedisBroker(client *redis.Client, log zerolog.Logger) *RedisBroker {
	return &RedisBroker{client: client, log: log}
}

func channelKey(sessionID string) string {
	return "progress:" + sessionID
}

func terminalKey(sessionID string) string {
	return "progress:terminal:" + sessionID
}

// Publish broadcasts ev on the session's channel. Terminal events are also
// written under a TTL key for subscribers that connect after completion.
func (b *RedisBroker) Publish(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		b.log.Error().Err(err).Str("session_id", ev.SessionID).Msg("failed to marshal progress event")
		return
	}

	metrics.ProgressEventsPublished.WithLabelValues(string(ev.Type)).Inc()

	if err := b.client.Publish(ctx, channelKey(ev.SessionID), data).Err(); err != nil {
		metrics.ProgressEventsDropped.Inc()
		b.log.Error().Err(err).Str("session_id", ev.SessionID).Msg("failed to publish progress event")
	}

	if ev.Terminal() {
		if err := b.client.Set(ctx, terminalKey(ev.SessionID), data, terminalRetention).Err(); err != nil {
			b.log.Error().Err(err).Str("session_id", ev.SessionID).Msg("failed to retain terminal event")
		}
	}
}

// Subscribe attaches to the session's channel. If the session has already
// finished, the subscription yields the retained terminal event and closes.
func (b *RedisBroker) Subscribe(sessionID string) *Subscription {
	ctx := context.Background()

	if data, err := b.client.Get(ctx, terminalKey(sessionID)).Bytes(); err == nil {
		sub := newSubscription(nil)
		var ev Event
		if err := json.Unmarshal(data, &ev); err == nil {
			sub.ch <- ev
		}
		sub.closeChan()
		return sub
	}

	pubsub := b.client.Subscribe(ctx, channelKey(sessionID))
	sub := newSubscription(func() { _ = pubsub.Close() })
	metrics.ProgressSubscribers.Inc()

	go func() {
		defer func() {
			metrics.ProgressSubscribers.Dec()
			sub.closeChan()
		}()
		for msg := range pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to unmarshal progress event")
				continue
			}
			if !sub.send(ev) {
				metrics.ProgressEventsDropped.Inc()
				b.log.Warn().Str("session_id", sessionID).Msg("subscriber buffer full, dropping event")
			}
			if ev.Terminal() {
				_ = pubsub.Close()
				return
			}
		}
	}()

	return sub
}
