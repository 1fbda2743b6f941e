package handler

import (
	"strings"

	dErrors "tourguard/pkg/domain-errors"
)

// GenerateIDRequest is the HTTP request body for POST /api/generate-id.
// Values are kept as sent so proofs stay reproducible by third parties.
type GenerateIDRequest struct {
	TouristID string `json:"touristId"`
	Name      string `json:"name"`
	TripStart string `json:"tripStart"`
	TripEnd   string `json:"tripEnd"`
}

// Validate implements httputil.Validatable.
func (r *GenerateIDRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.TouristID) == "" || strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "touristId and name are required")
	}
	return nil
}
