// backend-go/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/anomaly"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/api"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/cache"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/confidence"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/config"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/forecast"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/prep"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/repository/postgres"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/service"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/transfer"
	"github.com/shelfwatch/shelfwatch/backend-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	if cfg.Server.Mode == "debug" {
		logger.SetLevel("debug")
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
		logger.UseJSON()
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	services, err := buildServices(db, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to build services")
	}

	// Initialize HTTP server
	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

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

// buildServices wires the repositories, analytical components and services.
func buildServices(db *postgres.DB, cfg *config.Config) (*api.Services, error) {
	inventory := postgres.NewInventoryRepository(db)
	sales := postgres.NewSalesRepository(db)
	receipts := postgres.NewReceiptRepository(db)
	transfers := postgres.NewTransferRepository(db)
	distances := postgres.NewDistanceRepository(db)
	counts := postgres.NewCycleCountRepository(db)
	skus := postgres.NewSKURepository(db)
	stores := postgres.NewStoreRepository(db)
	events := postgres.NewAnomalyRepository(db)
	recommendations := postgres.NewRecommendationRepository(db)
	prepRepo := postgres.NewPrepRepository(db)

	// Redis-backed forecast cache when enabled; the forecaster falls back
	// to its in-process cache otherwise.
	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	forecaster := forecast.NewForecaster(sales, cfg.Engine.Forecast)
	hourly := forecast.NewHourlyForecaster(sales, forecastCache, cfg.Engine.Hourly)
	detector := anomaly.NewDetector(inventory, sales, receipts, transfers, events, cfg.Engine.Anomaly)
	scorer := confidence.NewScorer(events, counts, skus, detector, cfg.Engine.Confidence)
	optimizer := transfer.NewOptimizer(stores, skus, inventory, distances, forecaster, cfg.Engine.Transfer)
	generator := prep.NewGenerator(skus, inventory, hourly, cfg.Engine.Prep)

	return &api.Services{
		Insight:    service.NewInsightService(forecaster, hourly, inventory, skus, cfg.Engine.Prep.CriticalCategories),
		Anomaly:    service.NewAnomalyService(detector, events),
		Confidence: service.NewConfidenceService(scorer, skus, inventory),
		Transfer:   service.NewTransferService(optimizer, recommendations, transfers),
		Prep:       service.NewPrepService(generator, prepRepo),
	}, nil
}
