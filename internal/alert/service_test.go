package alert

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "tourguard/pkg/domain-errors"
	"tourguard/pkg/geo"
	"tourguard/pkg/requestcontext"
)

type recordingPublisher struct {
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev Event) error {
	p.events = append(p.events, ev)
	return p.err
}

func newTestService(pub Publisher) *Service {
	return NewService(pub, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestRaisePanic(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(pub)
	now := time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	a, err := svc.RaisePanic(ctx, PanicReport{
		TouristID: " T1 ",
		Location:  geo.Point{Latitude: 1, Longitude: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, "T1", a.TouristID)
	assert.Equal(t, SeverityHigh, a.Severity)
	assert.Equal(t, StatusActive, a.Status)
	assert.Equal(t, now, a.CreatedAt)
	id, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	require.Len(t, pub.events, 1)
	assert.Equal(t, EventNewAlert, pub.events[0].Name)
	assert.Equal(t, *a, pub.events[0].Data)
}

func TestRaisePanic_AcknowledgesWhenFanOutFails(t *testing.T) {
	svc := newTestService(&recordingPublisher{err: errors.New("hub closed")})

	a, err := svc.RaisePanic(context.Background(), PanicReport{TouristID: "T1"})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, a.Status)
}

func TestRaisePanic_Validation(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(pub)

	_, err := svc.RaisePanic(context.Background(), PanicReport{TouristID: ""})
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))

	_, err = svc.RaisePanic(context.Background(), PanicReport{TouristID: "T1", Location: geo.Point{Latitude: -91}})
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))

	assert.Empty(t, pub.events)
}

func TestAlertIDsSortByCreation(t *testing.T) {
	first, err := NewPanicAlert("T1", geo.Point{}, time.Now())
	require.NoError(t, err)
	second, err := NewPanicAlert("T1", geo.Point{}, time.Now())
	require.NoError(t, err)
	assert.Less(t, first.ID, second.ID)
}
