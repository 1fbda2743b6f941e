package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	alerthandler "tourguard/internal/alert/handler"
	geofencehandler "tourguard/internal/geofence/handler"
	itineraryhandler "tourguard/internal/itinerary/handler"
	"tourguard/internal/platform/config"
	authmw "tourguard/pkg/platform/middleware/auth"
	"tourguard/pkg/platform/middleware/request"
	"tourguard/pkg/platform/httputil"
)

// Dependencies are the module handlers and shared infrastructure the router
// mounts. A nil StreamAuth leaves the alert stream open.
type Dependencies struct {
	Logger         *slog.Logger
	Metrics        http.Handler
	AllowedOrigins []string
	StartedAt      time.Time

	Geofence   *geofencehandler.Handler
	Alerts     *alerthandler.Handler
	Itinerary  *itineraryhandler.Handler
	StreamAuth authmw.TokenValidator
}

type healthResponse struct {
	Status  string  `json:"status"`
	Service string  `json:"service"`
	Uptime  float64 `json:"uptime"`
}

// NewRouter wires all public endpoints. Handlers stay thin and delegate to
// their module services.
func NewRouter(d Dependencies) http.Handler {
	r := newMux(d)

	d.Geofence.Register(r)
	d.Alerts.Register(r)
	d.Itinerary.Register(r)

	r.Group(func(r chi.Router) {
		if d.StreamAuth != nil {
			r.Use(authmw.RequireObserver(d.StreamAuth, d.Logger))
		}
		d.Alerts.RegisterStream(r)
	})

	return r
}

// newMux installs the shared middleware stack, health and metrics.
// AccessLog sits outside Recover so recovered panics still get a log line.
func newMux(d Dependencies) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(request.Context)
	r.Use(request.AccessLog(d.Logger))
	r.Use(request.Recover(d.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", request.HeaderRequestID},
		ExposedHeaders: []string{request.HeaderRequestID},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Service: config.ServiceName,
			Uptime:  time.Since(d.StartedAt).Seconds(),
		})
	})
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}
	return r
}
