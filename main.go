package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	database "github.com/weathervane/weathervane/app/db"
	appLogger "github.com/weathervane/weathervane/app/logger"
	appMiddleware "github.com/weathervane/weathervane/app/middleware"
	"github.com/weathervane/weathervane/app/observability/metrics"
	"github.com/weathervane/weathervane/app/tracer"
	"github.com/weathervane/weathervane/internal/api/collectorcfg"
	"github.com/weathervane/weathervane/internal/api/insights"
	"github.com/weathervane/weathervane/internal/api/locations"
	"github.com/weathervane/weathervane/internal/api/weather"
	"github.com/weathervane/weathervane/internal/collector"
	api "github.com/weathervane/weathervane/internal/router"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/weathervane/weathervane/config"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	// --- Logger Setup ---
	logger := setupLogger(cfg.Mode)
	slog.SetDefault(logger)

	// --- Application Context & Shutdown ---
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Observability ---
	tracer.InitTracingAndMetrics(cfg.Handlers.Prometheus.Port)
	metrics.InitAppMetrics()

	// --- Database Setup ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	// Run migrations *before* initializing the main pool
	err = database.RunMigrations(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- Dependency Injection ---
	locationRepo := locations.NewLocationRepository(pool, logger)
	locationService := locations.NewLocationService(locationRepo, logger)
	locationHandler := locations.NewLocationHandler(locationService, logger)

	configRepo := collectorcfg.NewConfigRepository(pool, logger)
	configService := collectorcfg.NewConfigService(configRepo, cfg.Collector.DefaultIntervalMinutes, logger)
	configHandler := collectorcfg.NewConfigHandler(configService, logger)

	sampleRepo := weather.NewSampleRepository(pool, logger)
	sampleService := weather.NewSampleService(sampleRepo, logger)
	sampleHandler := weather.NewSampleHandler(sampleService, logger)

	insightRepo := insights.NewInsightRepository(pool, logger)
	summarizer := insights.NewGeminiSummarizer()
	insightService := insights.NewInsightService(sampleRepo, insightRepo, summarizer, cfg.AI.Model, logger)
	insightHandler := insights.NewInsightHandler(insightService, logger)

	// Seed the singleton collector config so the first cycle has an interval.
	if _, err := configService.EnsureDefault(ctx); err != nil {
		logger.Error("Failed to ensure collector config", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Collector ---
	provider := collector.NewProviderClient()
	sched := collector.NewScheduler(
		locationService,
		configService,
		sampleService,
		provider,
		cfg.Collector.DefaultIntervalMinutes,
		time.Duration(cfg.Collector.TickSeconds)*time.Second,
		logger,
	)
	if err := sched.Start(); err != nil {
		logger.Error("Failed to start collection scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer sched.Stop()

	// --- Router Setup ---
	routerConfig := &api.Config{
		LocationHandler:        locationHandler,
		ConfigHandler:          configHandler,
		SampleHandler:          sampleHandler,
		InsightHandler:         insightHandler,
		AuthenticateMiddleware: appMiddleware.Authenticate,
	}
	mainRouter := api.SetupRouter(routerConfig)

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(appLogger.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middleware.Compress(5, "application/json"))
	router.Mount("/", mainRouter)

	// --- HTTP Server Setup ---
	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	// --- Graceful Shutdown ---
	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger(mode string) *slog.Logger {
	var logger *slog.Logger

	if mode == "development" || mode == "" {
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
