package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gamerit/application"
	"gamerit/config"
	"gamerit/database"
	"gamerit/infrastructure"
	"gamerit/infrastructure/observability"
	"gamerit/web"

	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

// Run initializes and starts the service, blocking until ctx is cancelled
func Run(ctx context.Context) error {
	cfg := config.Get()
	configureLogging(cfg)

	log.WithField("environment", cfg.Environment).Info("Starting gamerit")

	// Metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Database
	log.Info("Running database migrations...")
	if err := database.MigrateUp(cfg.GetDatabaseURL()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL(), database.PoolOptions{MaxConns: cfg.DatabaseMaxConns})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	// Event publishing. Without NATS the in-process handlers still run.
	var natsClient *infrastructure.NATSClient
	if cfg.NATSServers != "" {
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsClient.Close()
	} else {
		log.Warn("NATS_SERVERS not set, domain events stay in-process")
	}

	eventPublisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
	if err := eventPublisher.EnsureDomainEventStream(ctx); err != nil {
		return fmt.Errorf("failed to ensure event stream: %w", err)
	}

	hub := infrastructure.NewWSHub()
	go hub.Run(ctx)
	web.RegisterClientGauge(hub.ClientCount)

	eventPublisher.RegisterGlobalHandler(observability.GetMetrics().HandleEvent)
	eventPublisher.RegisterGlobalHandler(hub.HandleEvent)

	// Application
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)
	content := infrastructure.NewRedditContentSource(cfg.RedditBaseURL, cfg.RedditUserAgent, cfg.Subreddits, cfg.ContentTimeout)
	lifecycle := application.NewRoundLifecycleHandler(uowFactory, content)

	queries := application.NewQueryHandler(uowFactory)
	if cfg.RedisURL != "" {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()

		cache := infrastructure.NewRedisQueryCache(queries, rdb, cfg.CacheTTL)
		for _, eventType := range cache.InvalidatedEventTypes() {
			eventPublisher.RegisterLocalHandler(eventType, cache.HandleEvent)
		}
		queries = cache
		log.WithField("ttl", cfg.CacheTTL).Info("Redis query cache enabled")
	}

	// Scheduler
	var scheduler *application.Scheduler
	if cfg.SchedulerEnabled {
		scheduler, err = application.NewScheduler(lifecycle, observability.GetMetrics(), cfg.SchedulerInterval)
		if err != nil {
			return err
		}
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
	} else {
		log.Info("In-process scheduler disabled, lifecycle runs through the internal endpoints")
	}

	// HTTP
	router := web.NewRouter(web.Dependencies{
		Players:      application.NewPlayerHandler(uowFactory),
		Wagers:       application.NewWagerHandler(uowFactory),
		Trading:      application.NewTradingHandler(uowFactory),
		Market:       application.NewMarketHandler(uowFactory),
		Lifecycle:    lifecycle,
		Queries:      queries,
		WebSocket:    hub.HandleWS,
		GatewayToken: cfg.GatewayToken,
		HealthCheck:  db.Ping,
	})
	if cfg.GatewayToken == "" {
		log.Warn("GATEWAY_TOKEN not set, internal endpoints are disabled")
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}
	if scheduler != nil {
		if err := scheduler.Shutdown(); err != nil {
			log.WithError(err).Error("Error shutting down scheduler")
		}
	}
	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	log.Info("Shutdown completed")
	return nil
}

func configureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
