package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tourguard/internal/itinerary"
	dErrors "tourguard/pkg/domain-errors"
	"tourguard/pkg/platform/httputil"
	"tourguard/pkg/requestcontext"
)

// Service defines the itinerary operations the handler needs.
type Service interface {
	GenerateID(ctx context.Context, req itinerary.GenerateRequest) (*itinerary.Registration, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts itinerary endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/generate-id", h.HandleGenerateID)
}

// HandleGenerateID handles POST /api/generate-id. A FALLBACK registration is
// still a 200. With ?qr=png the response also carries a rendered QR code.
func (h *Handler) HandleGenerateID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[GenerateIDRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rec, err := h.service.GenerateID(ctx, itinerary.GenerateRequest{
		SubjectID:   req.TouristID,
		DisplayName: req.Name,
		TripStart:   req.TripStart,
		TripEnd:     req.TripEnd,
	})
	if err != nil {
		h.logger.InfoContext(ctx, "generate id rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp, err := FromRegistration(rec)
	if err != nil {
		h.logger.ErrorContext(ctx, "encode qr payload",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build response"))
		return
	}
	if r.URL.Query().Get("qr") == "png" {
		code, err := renderQR(resp.QRPayload)
		if err != nil {
			h.logger.ErrorContext(ctx, "render qr code",
				"request_id", requestID,
				"error", err,
			)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render QR code"))
			return
		}
		resp.QRCode = code
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
