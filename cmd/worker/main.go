// Package main provides the entrypoint for the CurbCycle schedule refresh
// worker.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/curbcycle/curbcycle/internal/database"
	"github.com/curbcycle/curbcycle/internal/hauler"
	"github.com/curbcycle/curbcycle/internal/pickup"
	"github.com/curbcycle/curbcycle/internal/region"
	"github.com/curbcycle/curbcycle/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "curbcycle-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting CurbCycle worker")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	refreshConfig := worker.DefaultRefreshConfig()
	if raw := os.Getenv("REFRESH_TARGETS"); raw != "" {
		targets, err := worker.ParseTargets(raw)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REFRESH_TARGETS")
		}
		refreshConfig.Targets = targets
	}

	interval := pickup.DefaultRefreshInterval
	if raw := os.Getenv("REFRESH_INTERVAL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REFRESH_INTERVAL")
		}
		interval = parsed
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var regions region.Lookup = region.NewStaticLookup()
	if os.Getenv("DB_ENABLED") == "true" {
		pool, err := database.Connect(ctx, database.ConfigFromEnv())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		regions = region.NewChainLookup(log, region.NewPostgresLookup(pool), region.NewStaticLookup())
	}

	haulerClient := hauler.NewClient(hauler.ClientConfig{
		BaseURL: os.Getenv("HAULER_BASE_URL"),
	})

	services := make([]*pickup.Service, 0, len(refreshConfig.Targets))
	for _, target := range refreshConfig.Targets {
		svc := pickup.NewService(ctx, pickup.ServiceConfig{
			ZipCode:    target.ZipCode,
			ServiceDay: target.ServiceDay,
			Fetcher:    haulerClient,
			Regions:    regions,
			Logger:     log.With().Str("household", target.Name).Logger(),
		})
		services = append(services, svc)
	}
	log.Info().Int("households", len(services)).Msg("pickup services initialized")

	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:   refreshConfig,
		Logger:   log,
		Services: services,
	})

	// Health and status endpoints for the orchestrator.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"version": Version,
		})
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(refreshJob.MetricsSnapshot())
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Interval-driven refresh loop. Pub/Sub, when configured, triggers
	// additional runs between ticks.
	go func() {
		refreshJob.Run(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refreshJob.Run(ctx)
			}
		}
	}()

	if projectID := os.Getenv("PUBSUB_PROJECT_ID"); projectID != "" {
		subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
		if subscription == "" {
			subscription = "curbcycle-worker-jobs"
		}

		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			RefreshJob:       refreshJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
