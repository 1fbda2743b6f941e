package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tourguard/internal/alert"
	alerthandler "tourguard/internal/alert/handler"
	"tourguard/internal/alert/broadcast"
	alertmetrics "tourguard/internal/alert/metrics"
	"tourguard/internal/alert/relay"
	"tourguard/internal/geofence"
	geofencehandler "tourguard/internal/geofence/handler"
	geofencemetrics "tourguard/internal/geofence/metrics"
	"tourguard/internal/itinerary"
	itineraryhandler "tourguard/internal/itinerary/handler"
	"tourguard/internal/itinerary/ledger"
	"tourguard/internal/itinerary/ledger/evm"
	itinerarymetrics "tourguard/internal/itinerary/metrics"
	"tourguard/internal/itinerary/ports"
	"tourguard/internal/itinerary/proof"
	"tourguard/internal/itinerary/registrar"
	jwttoken "tourguard/internal/jwt_token"
	"tourguard/internal/platform/config"
	"tourguard/internal/platform/httpserver"
	"tourguard/internal/platform/logger"
	"tourguard/internal/platform/metrics"
	platformredis "tourguard/internal/platform/redis"
	httptransport "tourguard/internal/transport/http"
	"tourguard/pkg/platform/circuit"
	authmw "tourguard/pkg/platform/middleware/auth"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startedAt := time.Now()
	reg := metrics.New()

	geofenceHandler, err := buildGeofence(cfg, log, reg)
	if err != nil {
		return err
	}

	alertMetrics := alertmetrics.New(reg.Registerer())
	hub := broadcast.New(
		broadcast.WithBuffer(cfg.Alerts.SubscriberBuffer),
		broadcast.WithLogger(log),
		broadcast.WithMetrics(alertMetrics),
	)

	g, gctx := errgroup.WithContext(ctx)

	var publisher alert.Publisher = hub
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		rl := relay.New(redisClient, cfg.Alerts.RedisChannel, hub,
			relay.WithLogger(log),
			relay.WithMetrics(alertMetrics),
		)
		ready := make(chan struct{})
		g.Go(func() error { return rl.Run(gctx, ready) })
		select {
		case <-ready:
		case <-gctx.Done():
			return g.Wait()
		}
		publisher = rl
		log.Info("alert relay subscribed", "channel", cfg.Alerts.RedisChannel)
	}

	alertService := alert.NewService(publisher,
		alert.WithLogger(log),
		alert.WithMetrics(alertMetrics),
	)

	var streamAuth authmw.TokenValidator
	if cfg.Alerts.StreamSecret != "" {
		jwtService := jwttoken.NewJWTService(cfg.Alerts.StreamSecret, cfg.Alerts.StreamIssuer, cfg.Alerts.StreamAudience)
		streamAuth = jwttoken.NewJWTServiceAdapter(jwtService)
	} else {
		log.Warn("alert stream is unauthenticated; set ALERT_STREAM_SECRET to require observer tokens")
	}

	itineraryHandler, closeLedger, err := buildItinerary(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer closeLedger()

	router := httptransport.NewRouter(httptransport.Dependencies{
		Logger:         log,
		Metrics:        reg.Handler(),
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		StartedAt:      startedAt,
		Geofence:       geofenceHandler,
		Alerts:         alerthandler.New(alertService, hub, log, cfg.Server.CORSAllowedOrigins),
		Itinerary:      itineraryHandler,
		StreamAuth:     streamAuth,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g.Go(func() error {
		log.Info("starting tourguard", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		// Closing the hub ends every open stream before Shutdown waits on them.
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func buildGeofence(cfg config.Config, log *slog.Logger, reg *metrics.Registry) (*geofencehandler.Handler, error) {
	var (
		registry   *geofence.Registry
		rejections []geofence.Rejection
		err        error
	)
	if cfg.Zones.File != "" {
		registry, rejections, err = geofence.LoadFile(cfg.Zones.File, log)
	} else {
		registry, rejections, err = geofence.LoadDefault(log)
	}
	if err != nil {
		return nil, fmt.Errorf("load zones: %w", err)
	}

	m := geofencemetrics.New(reg.Registerer())
	m.SetCatalog(registry.Len(), len(rejections))
	log.Info("zone catalog loaded", "zones", registry.Len(), "skipped", len(rejections))

	service := geofence.NewService(registry,
		geofence.WithLogger(log),
		geofence.WithMetrics(m),
	)
	return geofencehandler.New(service, log), nil
}

func buildItinerary(ctx context.Context, cfg config.Config, log *slog.Logger, reg *metrics.Registry) (*itineraryhandler.Handler, func(), error) {
	encoding, err := proof.ParseEncoding(cfg.Proof.Encoding)
	if err != nil {
		return nil, nil, err
	}
	algorithm, err := proof.ParseAlgorithm(cfg.Proof.Algorithm)
	if err != nil {
		return nil, nil, err
	}
	hasher, err := proof.NewHasher(encoding, algorithm)
	if err != nil {
		return nil, nil, err
	}

	var (
		l       ports.Ledger = ledger.Disabled{}
		closeFn          = func() {}
	)
	if cfg.Ledger.RPCURL != "" {
		chain, err := evm.Dial(ctx, evm.Config{
			RPCURL:          cfg.Ledger.RPCURL,
			PrivateKey:      cfg.Ledger.PrivateKey,
			ContractAddress: cfg.Ledger.ContractAddress,
			ChainID:         cfg.Ledger.ChainID,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect ledger: %w", err)
		}
		l, closeFn = chain, chain.Close
		log.Info("ledger connected", "account", chain.Account())
	} else {
		log.Warn("ledger not configured; registrations will use FALLBACK mode")
	}

	m := itinerarymetrics.New(reg.Registerer())
	breaker := circuit.New("ledger",
		circuit.WithFailureThreshold(cfg.Ledger.BreakerThreshold),
		circuit.WithCooldown(cfg.Ledger.BreakerCooldown),
	)
	r := registrar.New(l,
		registrar.WithFeeMultiplier(cfg.Ledger.FeeMultiplier),
		registrar.WithSequencing(cfg.Ledger.Sequencing),
		registrar.WithTimeout(cfg.Ledger.Timeout),
		registrar.WithMaxAttempts(cfg.Ledger.MaxAttempts),
		registrar.WithBreaker(breaker),
		registrar.WithExplorerURL(cfg.Ledger.ExplorerURL),
		registrar.WithLogger(log),
		registrar.WithMetrics(m),
	)

	service := itinerary.NewService(hasher, r, itinerary.WithLogger(log))
	return itineraryhandler.New(service, log), closeFn, nil
}
