package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	"tourguard/internal/alert"
	"tourguard/internal/alert/broadcast"
	dErrors "tourguard/pkg/domain-errors"
	"tourguard/pkg/platform/httputil"
	"tourguard/pkg/requestcontext"
)

const streamWriteTimeout = 5 * time.Second

// Service defines the alert operations the handler needs.
type Service interface {
	RaisePanic(ctx context.Context, report alert.PanicReport) (*alert.PanicAlert, error)
}

// Subscriber is the observer side of the broadcaster.
type Subscriber interface {
	Subscribe(ctx context.Context) (*broadcast.Subscription, error)
	Unsubscribe(sub *broadcast.Subscription)
}

// Handler serves panic reports and the observer stream.
type Handler struct {
	service        Service
	subscriber     Subscriber
	logger         *slog.Logger
	originPatterns []string
}

func New(service Service, subscriber Subscriber, logger *slog.Logger, originPatterns []string) *Handler {
	return &Handler{
		service:        service,
		subscriber:     subscriber,
		logger:         logger,
		originPatterns: originPatterns,
	}
}

// Register mounts the panic endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/panic", h.HandlePanic)
}

// RegisterStream mounts the observer stream. It is separate from Register so
// the router can put it behind observer authentication.
func (h *Handler) RegisterStream(r chi.Router) {
	r.Get("/api/alerts/stream", h.HandleStream)
}

// HandlePanic handles POST /api/panic.
func (h *Handler) HandlePanic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[PanicRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	a, err := h.service.RaisePanic(ctx, alert.PanicReport{
		TouristID: req.TouristID,
		Location:  req.point,
	})
	if err != nil {
		level := slog.LevelInfo
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			level = slog.LevelError
		}
		h.logger.Log(ctx, level, "panic alert rejected",
			"request_id", requestID,
			"tourist_id", req.TouristID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromAlert(a))
}

// HandleStream upgrades to a websocket and pushes every alert published
// while the observer stays connected. Client messages are ignored.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.logger.InfoContext(ctx, "alert stream upgrade failed",
			"request_id", requestID,
			"error", err,
		)
		return
	}
	defer conn.CloseNow()

	sub, err := h.subscriber.Subscribe(ctx)
	if err != nil {
		_ = conn.Close(websocket.StatusTryAgainLater, "alert stream unavailable")
		return
	}
	defer h.subscriber.Unsubscribe(sub)

	ctx = conn.CloseRead(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
			err := wsjson.Write(writeCtx, conn, ev)
			cancel()
			if err != nil {
				h.logger.InfoContext(ctx, "alert stream write failed",
					"request_id", requestID,
					"subscription_id", sub.ID(),
					"error", err,
				)
				_ = conn.Close(websocket.StatusPolicyViolation, "write failed")
				return
			}
		}
	}
}
