package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seojin/crm-dispatch/internal/api"
	"github.com/seojin/crm-dispatch/internal/audience"
	"github.com/seojin/crm-dispatch/internal/auth"
	"github.com/seojin/crm-dispatch/internal/bootstrap"
	"github.com/seojin/crm-dispatch/internal/config"
	"github.com/seojin/crm-dispatch/internal/dispatch"
	"github.com/seojin/crm-dispatch/internal/gateway"
	"github.com/seojin/crm-dispatch/internal/logger"
	"github.com/seojin/crm-dispatch/internal/progress"
	"github.com/seojin/crm-dispatch/internal/storage"
	"github.com/seojin/crm-dispatch/internal/tracking"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewFromConfig(logger.LoggingConfig{
		Level:     cfg.Logging.Level,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})
	log.Info().Msg("starting API server")

	// Connect to database
	ctx := context.Background()
	db, err := storage.NewDB(
		ctx,
		cfg.Database.URL,
		cfg.Database.PoolMin,
		cfg.Database.PoolMax,
		cfg.Database.ConnectTimeout,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	log.Info().Msg("database connection established")

	queries := storage.New(db.Pool)

	// Seed the superuser account on first boot (idempotent).
	if err := bootstrap.SeedSuperuser(ctx, queries, log, cfg.Auth.SuperuserEmail); err != nil {
		log.Fatal().Err(err).Msg("failed to seed superuser")
	}

	// Select the progress broker: Redis pub/sub when configured, so multiple
	// instances share progress streams; in-memory otherwise.
	var broker progress.Broker
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer redisClient.Close()
		broker = progress.NewRedisBroker(redisClient, log)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("progress broker: redis")
	} else {
		broker = progress.NewMemoryBroker(log)
		log.Info().Msg("progress broker: in-memory")
	}

	// Select the outbound gateway.
	var gw gateway.Gateway
	if cfg.Dispatch.GatewayURL != "" {
		gw = gateway.NewHTTPGateway(
			cfg.Dispatch.GatewayURL,
			cfg.Dispatch.GatewayAPIKey,
			gateway.NewHTTPClient(cfg.Dispatch.GatewayTimeout),
		)
	} else {
		gw = gateway.NewStdout()
	}
	log.Info().Str("gateway", gw.Name()).Msg("outbound gateway initialized")

	resolver := auth.NewResolver(queries, log)
	orchestrator := dispatch.NewOrchestrator(
		queries,
		audience.NewResolver(queries),
		gw,
		broker,
		tracking.NewInjector(cfg.Dispatch.TrackingBaseURL),
		cfg.Dispatch,
		log,
	)

	router := api.NewRouter(api.RouterDeps{
		DB:            db,
		Queries:       queries,
		Resolver:      resolver,
		Orchestrator:  orchestrator,
		Broker:        broker,
		SessionCookie: cfg.Auth.SessionCookie,
		Keepalive:     cfg.Dispatch.KeepaliveInterval,
		Log:           log,
	})

	// Report pool gauges periodically.
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			db.ReportPoolMetrics()
		}
	}()

	// Configure HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("API server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down server")

	// Graceful shutdown with 30-second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
