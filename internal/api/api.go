// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/api/handlers"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/api/middleware"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/service"
)

type Services struct {
	Insight    *service.InsightService
	Anomaly    *service.AnomalyService
	Confidence *service.ConfidenceService
	Transfer   *service.TransferService
	Prep       *service.PrepService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.Insight != nil {
			insightHandler := handlers.NewInsightHandler(services.Insight)
			storeGroup := apiGroup.Group("/stores/:store_id")
			{
				storeGroup.GET("/skus/:sku_id/health", insightHandler.GetItemHealth)
				storeGroup.GET("/skus/:sku_id/hourly", insightHandler.GetHourlyCurve)
				storeGroup.GET("/skus/:sku_id/stockout", insightHandler.GetStockout)
				storeGroup.GET("/peaks", insightHandler.GetPeakStatus)
			}
		}

		if services.Anomaly != nil {
			anomalyHandler := handlers.NewAnomalyHandler(services.Anomaly)
			anomalyGroup := apiGroup.Group("/anomalies")
			{
				anomalyGroup.POST("/scan", anomalyHandler.RunScan)
				anomalyGroup.GET("/stores/:store_id/skus/:sku_id", anomalyHandler.GetHistory)
				anomalyGroup.GET("/stores/:store_id/skus/:sku_id/investigate", anomalyHandler.Investigate)
			}
		}

		if services.Confidence != nil {
			confidenceHandler := handlers.NewConfidenceHandler(services.Confidence)
			confidenceGroup := apiGroup.Group("/confidence")
			{
				confidenceGroup.GET("/stores/:store_id/skus/:sku_id", confidenceHandler.GetScore)
				confidenceGroup.GET("/stores/:store_id/count_priorities", confidenceHandler.GetCountPriorities)
				confidenceGroup.GET("/stores/:store_id/low_confidence", confidenceHandler.GetLowConfidence)
			}
		}

		if services.Transfer != nil {
			transferHandler := handlers.NewTransferHandler(services.Transfer)
			transferGroup := apiGroup.Group("/transfers")
			{
				transferGroup.POST("/optimize", transferHandler.RunPass)
				transferGroup.POST("/recommendations/:id/accept", transferHandler.Accept)
				transferGroup.POST("/recommendations/:id/reject", transferHandler.Reject)
			}
		}

		if services.Prep != nil {
			prepHandler := handlers.NewPrepHandler(services.Prep)
			apiGroup.POST("/stores/:store_id/prep_schedule", prepHandler.Generate)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
