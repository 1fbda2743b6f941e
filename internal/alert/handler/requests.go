package handler

import (
	"strings"

	dErrors "tourguard/pkg/domain-errors"
	"tourguard/pkg/geo"
)

// PanicRequest is the HTTP request body for POST /api/panic.
type PanicRequest struct {
	TouristID string         `json:"touristId"`
	Latitude  geo.Coordinate `json:"latitude"`
	Longitude geo.Coordinate `json:"longitude"`

	point geo.Point
}

// Validate implements httputil.Validatable.
func (r *PanicRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.TouristID = strings.TrimSpace(r.TouristID)
	if r.TouristID == "" {
		return dErrors.New(dErrors.CodeValidation, "touristId is required")
	}
	p, err := geo.NewPoint(r.Latitude, r.Longitude)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "Invalid or missing coordinates")
	}
	r.point = p
	return nil
}
