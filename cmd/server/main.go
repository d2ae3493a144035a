// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Haffner32/hackathon-restock-ai/internal/api"
	"github.com/Haffner32/hackathon-restock-ai/internal/cache"
	"github.com/Haffner32/hackathon-restock-ai/internal/config"
	"github.com/Haffner32/hackathon-restock-ai/internal/engine"
	"github.com/Haffner32/hackathon-restock-ai/internal/forecast"
	"github.com/Haffner32/hackathon-restock-ai/internal/repository/postgres"
	"github.com/Haffner32/hackathon-restock-ai/internal/service"
	"github.com/Haffner32/hackathon-restock-ai/internal/storage"
	"github.com/Haffner32/hackathon-restock-ai/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Initialize analysis cache (noop when disabled)
	analysisCache, err := cache.NewAnalysisCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("cache unavailable, continuing without it")
		analysisCache = cache.NewNoopAnalysisCache()
	}

	// Initialize snapshot archive when configured
	var archive storage.SnapshotArchive
	if cfg.Archive.Enabled {
		minioArchive, err := storage.NewMinioArchive(cfg.Archive)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to initialize snapshot archive")
		}
		if err := minioArchive.EnsureBucket(context.Background()); err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to ensure archive bucket")
		}
		archive = minioArchive
	}

	// Initialize the decision engine
	eng := engine.New(forecast.NewAdditive, engine.Config{
		Forecaster: engine.ForecasterConfig{
			HorizonDays:    cfg.Forecast.HorizonDays,
			ReactiveWindow: cfg.Forecast.ReactiveWindow,
			SeasonalFlex:   cfg.Forecast.SeasonalFlex,
			ReactiveFlex:   cfg.Forecast.ReactiveFlex,
		},
		FitTimeout: time.Duration(cfg.Forecast.FitTimeoutSeconds) * time.Second,
		Workers:    cfg.Forecast.BatchWorkers,
	})

	// Initialize services
	restockService := service.NewRestockService(
		postgres.NewObservationRepository(db),
		postgres.NewDecisionRepository(db),
		analysisCache,
		eng,
		archive,
	)

	// Initialize HTTP server
	router := api.NewRouter(restockService, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
