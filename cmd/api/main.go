// Package main provides the entrypoint for the CurbCycle API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/curbcycle/curbcycle/internal/api"
	"github.com/curbcycle/curbcycle/internal/api/middleware"
	"github.com/curbcycle/curbcycle/internal/auth"
	"github.com/curbcycle/curbcycle/internal/database"
	"github.com/curbcycle/curbcycle/internal/hauler"
	"github.com/curbcycle/curbcycle/internal/pickup"
	"github.com/curbcycle/curbcycle/internal/region"
	"github.com/curbcycle/curbcycle/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "curbcycle-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting CurbCycle API")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	zipCode := os.Getenv("PICKUP_ZIP")
	if zipCode == "" {
		log.Fatal().Msg("PICKUP_ZIP is required")
	}
	serviceDay := os.Getenv("PICKUP_SERVICE_DAY")
	if serviceDay == "" {
		log.Fatal().Msg("PICKUP_SERVICE_DAY is required")
	}

	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Zip-to-county resolution prefers the database dataset and falls back
	// to the built-in table. The database is optional.
	var regions region.Lookup = region.NewStaticLookup()
	if os.Getenv("DB_ENABLED") == "true" {
		dbConfig := database.ConfigFromEnv()
		pool, dbErr := database.Connect(ctx, dbConfig)
		if dbErr != nil {
			log.Fatal().Err(dbErr).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")

		regions = region.NewChainLookup(log, region.NewPostgresLookup(pool), region.NewStaticLookup())
	}

	haulerClient := hauler.NewClient(hauler.ClientConfig{
		BaseURL: os.Getenv("HAULER_BASE_URL"),
	})

	pickupService := pickup.NewService(ctx, pickup.ServiceConfig{
		ZipCode:    zipCode,
		ServiceDay: serviceDay,
		Fetcher:    haulerClient,
		Regions:    regions,
		Logger:     log,
	})

	// Background refresh loop; readers serve the last good snapshot.
	runCtx, stopRefresh := context.WithCancel(ctx)
	defer stopRefresh()
	go pickupService.Run(runCtx)

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	verifier := auth.NewTokenVerifier(auth.VerifierConfig{
		SigningKey: jwtSigningKey,
		Issuer:     os.Getenv("JWT_ISSUER"),
		Audience:   os.Getenv("JWT_AUDIENCE"),
	})

	router := api.NewRouter(api.RouterConfig{
		Version:       Version,
		BuildTime:     BuildTime,
		Logger:        log,
		Metrics:       metrics,
		TokenVerifier: verifier,
		PickupService: pickupService,
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("zip", zipCode).
			Str("service_day", serviceDay).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	stopRefresh()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
