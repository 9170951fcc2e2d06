package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

type invalidationEvent struct {
	Source string    `json:"source"`
	Keys   []string  `json:"keys"`
	SentAt time.Time `json:"sent_at"`
}

// Broadcaster wraps a Store and mirrors every invalidation to the other API
// nodes over NATS. Events published by this node are ignored on receipt.
type Broadcaster struct {
	store   Store
	nats    *nats.Conn
	subject string
	nodeID  string
	logger  zerolog.Logger
}

// NewBroadcaster builds a broadcaster. With a nil connection it only
// delegates to store.
func NewBroadcaster(store Store, conn *nats.Conn, channel string, logger zerolog.Logger) *Broadcaster {
	subject := ""
	if channel != "" {
		subject = strings.ReplaceAll(channel, ":", ".") + ".invalidate"
	}

	return &Broadcaster{
		store:   store,
		nats:    conn,
		subject: subject,
		nodeID:  uuid.NewString(),
		logger:  logger.With().Str("component", "cache_broadcaster").Logger(),
	}
}

// Start subscribes to invalidations from other nodes until ctx is done.
// Every node must see every event, so no queue group is used.
func (b *Broadcaster) Start(ctx context.Context) error {
	if b.nats == nil || b.subject == "" {
		return nil
	}

	sub, err := b.nats.Subscribe(b.subject, func(msg *nats.Msg) {
		b.handleEvent(ctx, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.subject, err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			b.logger.Warn().Err(err).Msg("failed to drain invalidation subscription")
		}
	}()

	return nil
}

func (b *Broadcaster) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return b.store.Get(ctx, key, dest)
}

func (b *Broadcaster) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return b.store.Set(ctx, key, value, ttl)
}

// Invalidate drops keys locally, then tells the other nodes. A failed
// publish is logged; the local invalidation still stands.
func (b *Broadcaster) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := b.store.Invalidate(ctx, keys...); err != nil {
		return err
	}

	if b.nats == nil || b.subject == "" {
		return nil
	}

	payload, err := json.Marshal(invalidationEvent{
		Source: b.nodeID,
		Keys:   keys,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode invalidation event: %w", err)
	}

	if err := b.nats.Publish(b.subject, payload); err != nil {
		b.logger.Warn().Err(err).Strs("keys", keys).Msg("failed to publish cache invalidation")
	}
	return nil
}

func (b *Broadcaster) handleEvent(ctx context.Context, payload []byte) {
	var event invalidationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		b.logger.Warn().Err(err).Msg("invalid cache invalidation payload")
		return
	}

	if event.Source == b.nodeID || len(event.Keys) == 0 {
		return
	}

	if err := b.store.Invalidate(ctx, event.Keys...); err != nil {
		b.logger.Warn().Err(err).Strs("keys", event.Keys).Msg("failed to apply remote invalidation")
	}
}
