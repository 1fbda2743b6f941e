package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tourguard/internal/geofence"
	"tourguard/pkg/platform/httputil"
	"tourguard/pkg/requestcontext"
)

// Service defines the geofence operations the handler needs.
type Service interface {
	CheckLocation(ctx context.Context, report geofence.LocationReport) (*geofence.LocationResult, error)
}

// Handler serves location reports.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts geofence endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/location", h.HandleLocation)
}

// HandleLocation handles POST /api/location.
func (h *Handler) HandleLocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LocationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.CheckLocation(ctx, geofence.LocationReport{
		SubjectID: req.TouristID,
		Location:  req.Point(),
	})
	if err != nil {
		h.logger.InfoContext(ctx, "location check rejected",
			"request_id", requestID,
			"tourist_id", req.TouristID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}
