// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mizanhq/reports-backend/internal/api/handlers"
	"github.com/mizanhq/reports-backend/internal/api/middleware"
	"github.com/mizanhq/reports-backend/internal/service"
	"github.com/mizanhq/reports-backend/internal/storage"
)

type Services struct {
	ReportService     *service.ReportService
	ConnectionService *service.ConnectionService
}

type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
	Archive        storage.ObjectStorage // nil disables export archiving
}

func NewRouter(services *Services, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(cfg.AllowedOrigins)
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

	apiGroup := router.Group("/api/v1")
	apiGroup.Use(middleware.Auth(cfg.JWTSecret))

	if services != nil {
		if services.ConnectionService != nil {
			connectionsHandler := handlers.NewConnectionsHandler(services.ConnectionService)
			connectionsGroup := apiGroup.Group("/connections")
			{
				connectionsGroup.POST("", connectionsHandler.Save)
				connectionsGroup.GET("/active", connectionsHandler.GetActive)
				connectionsGroup.POST("/test", connectionsHandler.Test)
			}
		}

		if services.ReportService != nil {
			reportsHandler := handlers.NewReportsHandler(services.ReportService, cfg.Archive)
			reportsGroup := apiGroup.Group("/reports")
			{
				reportsGroup.POST("/required-items", reportsHandler.RequiredItems)
				reportsGroup.POST("/low-stock", reportsHandler.LowStock)
				reportsGroup.POST("/debts", reportsHandler.Debts)
				reportsGroup.GET("/:report/export", reportsHandler.Export)
			}
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
