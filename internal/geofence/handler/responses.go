package handler

import (
	"tourguard/internal/geofence"
	"tourguard/pkg/geo"
)

type LocationResponse struct {
	TouristID   string           `json:"touristId"`
	Location    geo.Point        `json:"location"`
	Alerts      []geofence.Entry `json:"alerts"`
	SafetyScore int              `json:"safetyScore"`
}

func FromResult(res *geofence.LocationResult) LocationResponse {
	alerts := []geofence.Entry(res.Alerts)
	if alerts == nil {
		alerts = []geofence.Entry{}
	}
	return LocationResponse{
		TouristID:   res.SubjectID,
		Location:    res.Location,
		Alerts:      alerts,
		SafetyScore: int(res.SafetyScore),
	}
}
