package relay

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourguard/internal/alert"
	"tourguard/internal/alert/broadcast"
	"tourguard/internal/alert/metrics"
	"tourguard/pkg/geo"
)

type relayFixture struct {
	mr      *miniredis.Miniredis
	hub     *broadcast.Hub
	relay   *Relay
	metrics *metrics.Metrics
	sub     *broadcast.Subscription
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	m := metrics.New(prometheus.NewRegistry())
	hub := broadcast.New(broadcast.WithLogger(logger))
	sub, err := hub.Subscribe(context.Background())
	require.NoError(t, err)

	return &relayFixture{
		mr:      mr,
		hub:     hub,
		relay:   New(client, "", hub, WithLogger(logger), WithMetrics(m)),
		metrics: m,
		sub:     sub,
	}
}

func (f *relayFixture) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- f.relay.Run(ctx, ready) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("relay did not stop")
		}
	})

	select {
	case <-ready:
	case err := <-done:
		t.Fatalf("relay stopped early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay never subscribed")
	}
}

func (f *relayFixture) next(t *testing.T) alert.Event {
	t.Helper()
	select {
	case ev := <-f.sub.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
		return alert.Event{}
	}
}

func testEvent(t *testing.T, touristID string) alert.Event {
	t.Helper()
	a, err := alert.NewPanicAlert(touristID, geo.Point{Latitude: 1, Longitude: 1}, time.Now())
	require.NoError(t, err)
	return alert.NewAlertEvent(*a)
}

func TestRelay_RoundTrip(t *testing.T) {
	f := newRelayFixture(t)
	f.start(t)

	sent := testEvent(t, "T1")
	require.NoError(t, f.relay.Publish(context.Background(), sent))

	got := f.next(t)
	assert.Equal(t, sent.Name, got.Name)
	assert.Equal(t, sent.Data.ID, got.Data.ID)
	assert.Equal(t, "T1", got.Data.TouristID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RelayOps.WithLabelValues("publish", "ok")))
}

func TestRelay_SkipsMalformedMessages(t *testing.T) {
	f := newRelayFixture(t)
	f.start(t)

	f.mr.Publish(DefaultChannel, "not json")
	require.NoError(t, f.relay.Publish(context.Background(), testEvent(t, "T2")))

	assert.Equal(t, "T2", f.next(t).Data.TouristID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RelayOps.WithLabelValues("receive", "malformed")))
}

func TestRelay_PublishFallsBackToLocal(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	m := metrics.New(prometheus.NewRegistry())
	hub := broadcast.New(broadcast.WithLogger(logger))
	sub, err := hub.Subscribe(context.Background())
	require.NoError(t, err)
	r := New(client, "", hub, WithLogger(logger), WithMetrics(m))

	require.NoError(t, r.Publish(context.Background(), testEvent(t, "T3")))

	select {
	case ev := <-sub.Events():
		assert.Equal(t, "T3", ev.Data.TouristID)
	default:
		t.Fatal("event not delivered locally")
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RelayOps.WithLabelValues("publish", "error")))
}

func TestRelay_StopsWhenHubCloses(t *testing.T) {
	f := newRelayFixture(t)
	f.start(t)
	f.hub.Close()

	require.NoError(t, f.relay.Publish(context.Background(), testEvent(t, "T4")))
}
