// Package relay carries panic alerts between service instances over Redis
// pub/sub so observers connected to any instance see every alert.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"tourguard/internal/alert"
	"tourguard/internal/alert/metrics"
	"tourguard/pkg/platform/sentinel"
)

const DefaultChannel = "tourguard:alerts"

// Local is the in-process fan-out the relay feeds.
type Local interface {
	Publish(ctx context.Context, ev alert.Event) error
}

type Relay struct {
	client  redis.UniversalClient
	channel string
	local   Local
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

func New(client redis.UniversalClient, channel string, local Local, opts ...Option) *Relay {
	if channel == "" {
		channel = DefaultChannel
	}
	r := &Relay{
		client:  client,
		channel: channel,
		local:   local,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Publish sends ev to every instance, this one included, through Redis.
// When Redis rejects the message the event is delivered locally so
// observers on this instance still receive it.
func (r *Relay) Publish(ctx context.Context, ev alert.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode alert event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.metrics.IncRelay("publish", "error")
		r.logger.WarnContext(ctx, "alert relay publish failed, delivering locally",
			"channel", r.channel,
			"alert_id", ev.Data.ID,
			"error", err,
		)
		return r.local.Publish(ctx, ev)
	}
	r.metrics.IncRelay("publish", "ok")
	return nil
}

// Run subscribes to the channel and feeds received events into the local
// hub until ctx is cancelled. The subscription is confirmed before ready is
// closed; ready may be nil.
func (r *Relay) Run(ctx context.Context, ready chan<- struct{}) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	if ready != nil {
		close(ready)
	}
	r.logger.Info("alert relay subscribed", "channel", r.channel)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var ev alert.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.metrics.IncRelay("receive", "malformed")
				r.logger.Warn("discarding malformed relay message",
					"channel", r.channel,
					"error", err,
				)
				continue
			}
			r.metrics.IncRelay("receive", "ok")
			if err := r.local.Publish(ctx, ev); err != nil {
				if errors.Is(err, sentinel.ErrClosed) {
					return nil
				}
				return err
			}
		}
	}
}
