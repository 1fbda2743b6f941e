package geofence

import (
	"fmt"

	"tourguard/pkg/geo"
)

// Zone is a circular restricted area. Zones are immutable once loaded.
type Zone struct {
	ID     string
	Name   string
	Center geo.Point
	Radius float64 // meters
}

// Entry reports one zone that contains a point.
type Entry struct {
	ZoneID   string `json:"zoneId"`
	ZoneName string `json:"zoneName"`
	Message  string `json:"message"`
}

// ContainmentResult lists every containing zone in registry order.
type ContainmentResult []Entry

func newEntry(z Zone) Entry {
	return Entry{
		ZoneID:   z.ID,
		ZoneName: z.Name,
		Message:  fmt.Sprintf("Entered %s", z.Name),
	}
}

// ZoneIDs returns the ids of the containing zones.
func (r ContainmentResult) ZoneIDs() []string {
	ids := make([]string, len(r))
	for i, e := range r {
		ids[i] = e.ZoneID
	}
	return ids
}

// SafetyScore is a coarse 0-100 indicator; higher is safer.
type SafetyScore int

// LocationReport is a transient position fix for one subject.
type LocationReport struct {
	SubjectID string
	Location  geo.Point
}

// LocationResult is the outcome of evaluating a LocationReport.
type LocationResult struct {
	SubjectID   string
	Location    geo.Point
	Alerts      ContainmentResult
	SafetyScore SafetyScore
}
