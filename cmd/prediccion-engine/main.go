package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gestion-dotacion/prediccion-engine/internal/api"
	"github.com/gestion-dotacion/prediccion-engine/internal/cache"
	"github.com/gestion-dotacion/prediccion-engine/internal/config"
	"github.com/gestion-dotacion/prediccion-engine/internal/engine"
	"github.com/gestion-dotacion/prediccion-engine/internal/metrics"
	"github.com/gestion-dotacion/prediccion-engine/internal/repo"
	"github.com/gestion-dotacion/prediccion-engine/internal/services"
	"github.com/gestion-dotacion/prediccion-engine/internal/store"
	"github.com/gestion-dotacion/prediccion-engine/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting prediccion-engine", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.Database.DSN == "" {
		logger.Error("database DSN is required (PREDICCION_DATABASE_DSN)")
		os.Exit(1)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	defer db.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(pingCtx)
	cancelPing()
	if err != nil {
		logger.Error("database unreachable", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewRedisProvider(cache.RedisConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
		})
		if err != nil {
			logger.Warn("redis cache unavailable, caching disabled", slog.Any("error", err))
		} else {
			cacheProvider = provider
		}
	}
	defer cacheProvider.Close()

	productionRepo := repo.NewProductionRepo(db)
	modelRepo := repo.NewModelRepo(db)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	err = modelRepo.EnsureSchema(startupCtx)
	if err != nil {
		cancelStartup()
		logger.Error("failed to ensure schema", slog.Any("error", err))
		os.Exit(1)
	}

	policy := engine.FilterPolicy{
		NoJustification: cfg.Training.NoJustification,
		MinOutput:       cfg.Training.MinRecordOutput,
	}
	aggregator := engine.NewAggregator(policy)
	capacity := engine.NewCapacityEstimator()
	capacity.MinValidOutput = cfg.Training.MinValidWorkerSum
	capacity.DefaultCapacity = cfg.Training.DefaultCapacity
	capacity.AssumedHeadcount = cfg.Training.AssumedHeadcount

	seeds := cfg.Training.SeasonalSeeds
	if len(seeds) == 0 {
		seeds = engine.DefaultSeasonalSeeds()
	}
	trainer := engine.NewTrainer(logger, aggregator, capacity, seeds)

	modelStore := store.NewModelStore(logger, trainer, productionRepo, modelRepo)
	if err := modelStore.Bootstrap(startupCtx); err != nil {
		cancelStartup()
		logger.Error("failed to load persisted model", slog.Any("error", err))
		os.Exit(1)
	}
	cancelStartup()

	projector := engine.NewProjector()
	projector.OverstaffTolerance = cfg.Training.OverstaffTolerance

	forecastService := services.NewForecastService(
		logger,
		modelStore,
		productionRepo,
		modelRepo,
		projector,
		aggregator,
		cacheProvider,
		cfg.Cache.ProjectionTTL,
		cfg.Training.NoJustification,
	)

	handlers := api.NewHandlers(logger, forecastService)
	server, err := api.NewServer(cfg.Server, handlers)
	if err != nil {
		logger.Error("failed to create HTTP server", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poller := store.NewChangePoller(logger, modelStore, productionRepo, cfg.Training.PollInterval)
	if err := poller.Start(ctx); err != nil {
		logger.Error("failed to start change poller", slog.Any("error", err))
		os.Exit(1)
	}

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("HTTP server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	poller.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("prediccion-engine stopped")
}
