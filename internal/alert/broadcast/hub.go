// Package broadcast fans panic alerts out to connected observers. Delivery is
// best effort: there is no history, and a subscriber whose buffer is full
// misses the event rather than slowing the publisher down.
package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tourguard/internal/alert"
	"tourguard/internal/alert/metrics"
	"tourguard/pkg/platform/sentinel"
	"tourguard/pkg/requestcontext"
)

const DefaultBuffer = 16

// Subscription is one observer's view of the stream.
type Subscription struct {
	id         uint64
	observerID string
	since      time.Time
	ch         chan alert.Event
}

// Events yields alerts published after Subscribe. It is closed by
// Unsubscribe or Hub.Close.
func (s *Subscription) Events() <-chan alert.Event {
	return s.ch
}

func (s *Subscription) ID() uint64 {
	return s.id
}

type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool

	buffer  int
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Hub)

func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) { h.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

func New(opts ...Option) *Hub {
	h := &Hub{
		subs:   make(map[uint64]*Subscription),
		buffer: DefaultBuffer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers an observer. The observer id is taken from ctx when
// the stream is authenticated.
func (h *Hub) Subscribe(ctx context.Context) (*Subscription, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, sentinel.ErrClosed
	}
	h.nextID++
	sub := &Subscription{
		id:         h.nextID,
		observerID: requestcontext.ObserverID(ctx),
		since:      time.Now(),
		ch:         make(chan alert.Event, h.buffer),
	}
	h.subs[sub.id] = sub
	n := len(h.subs)
	h.mu.Unlock()

	h.metrics.SetSubscribers(n)
	h.logger.InfoContext(ctx, "observer subscribed",
		"request_id", requestcontext.RequestID(ctx),
		"subscription_id", sub.id,
		"observer_id", sub.observerID,
		"subscribers", n,
	)
	return sub, nil
}

// Unsubscribe removes sub and closes its channel. Safe to call twice.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	if _, ok := h.subs[sub.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.subs, sub.id)
	close(sub.ch)
	n := len(h.subs)
	h.mu.Unlock()

	h.metrics.SetSubscribers(n)
	h.logger.Info("observer unsubscribed",
		"subscription_id", sub.id,
		"observer_id", sub.observerID,
		"connected_for", time.Since(sub.since).String(),
		"subscribers", n,
	)
}

// Publish delivers ev to every current subscriber without blocking.
// Publishing with no subscribers succeeds.
func (h *Hub) Publish(ctx context.Context, ev alert.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return sentinel.ErrClosed
	}

	delivered, dropped := 0, 0
	for _, sub := range h.subs {
		select {
		case sub.ch <- ev:
			delivered++
		default:
			dropped++
			h.logger.WarnContext(ctx, "observer buffer full, alert dropped",
				"subscription_id", sub.id,
				"observer_id", sub.observerID,
				"alert_id", ev.Data.ID,
			)
		}
	}
	h.metrics.AddDeliveries(delivered, dropped)
	return nil
}

// Len returns the number of current subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber. Later calls to Publish and Subscribe
// return sentinel.ErrClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		close(sub.ch)
		delete(h.subs, id)
	}
	h.metrics.SetSubscribers(0)
}
