// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Haffner32/hackathon-restock-ai/internal/api/handlers"
	"github.com/Haffner32/hackathon-restock-ai/internal/api/middleware"
	"github.com/Haffner32/hackathon-restock-ai/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(restockService *service.RestockService, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
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

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		restockHandler := handlers.NewRestockHandler(restockService)
		v1.POST("/upload", restockHandler.Upload)
		v1.GET("/items", restockHandler.ListItems)
		v1.GET("/items/:item/recommendation", restockHandler.GetRecommendation)
		v1.GET("/items/:item/analysis", restockHandler.GetAnalysis)
		v1.GET("/items/:item/decision", restockHandler.GetLatestDecision)
		v1.GET("/items/:item/history", restockHandler.GetDecisionHistory)
		v1.POST("/analyze", restockHandler.AnalyzeAll)
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
