package alert

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"tourguard/pkg/geo"
)

type Severity string

const SeverityHigh Severity = "HIGH"

type Status string

const StatusActive Status = "ACTIVE"

// PanicAlert is an emergency raised by a subject. Alerts are not persisted.
type PanicAlert struct {
	ID        string    `json:"id"`
	TouristID string    `json:"touristId"`
	Location  geo.Point `json:"location"`
	Severity  Severity  `json:"severity"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewPanicAlert stamps a new alert. Ids are UUIDv7 so they sort by creation.
func NewPanicAlert(touristID string, location geo.Point, now time.Time) (*PanicAlert, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate alert id: %w", err)
	}
	return &PanicAlert{
		ID:        id.String(),
		TouristID: touristID,
		Location:  location,
		Severity:  SeverityHigh,
		Status:    StatusActive,
		CreatedAt: now.UTC(),
	}, nil
}

// EventNewAlert names the push event carrying a PanicAlert.
const EventNewAlert = "new-alert"

// Event is the frame pushed to observers.
type Event struct {
	Name string     `json:"event"`
	Data PanicAlert `json:"data"`
}

func NewAlertEvent(a PanicAlert) Event {
	return Event{Name: EventNewAlert, Data: a}
}

// PanicReport is the inbound emergency signal.
type PanicReport struct {
	TouristID string
	Location  geo.Point
}
