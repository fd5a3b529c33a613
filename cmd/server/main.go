// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mizanhq/reports-backend/internal/api"
	"github.com/mizanhq/reports-backend/internal/cache"
	"github.com/mizanhq/reports-backend/internal/config"
	"github.com/mizanhq/reports-backend/internal/repository"
	"github.com/mizanhq/reports-backend/internal/repository/postgres"
	"github.com/mizanhq/reports-backend/internal/service"
	"github.com/mizanhq/reports-backend/internal/storage"
	"github.com/mizanhq/reports-backend/internal/tenant"
	"github.com/mizanhq/reports-backend/pkg/logger"
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

	// Report cache is optional; a cache failure never blocks startup
	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Report cache unavailable, continuing without caching")
		reportCache = cache.NewNoopReportCache()
	}

	// Tenant connection pools
	tenants := tenant.NewManager(tenant.Options{
		ConnectTimeout: time.Duration(cfg.Tenant.ConnectTimeoutSeconds) * time.Second,
		RequestTimeout: time.Duration(cfg.Tenant.RequestTimeoutSeconds) * time.Second,
		MaxOpenConns:   cfg.Tenant.MaxOpenConns,
	}, int64(cfg.Tenant.MaxConcurrentQueries))
	defer tenants.Close()

	var archive storage.ObjectStorage
	if cfg.Archive.Enabled {
		archive, err = storage.NewMinioClient(storage.MinioConfig{
			Endpoint:  cfg.Archive.Endpoint,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			UseSSL:    cfg.Archive.UseSSL,
		})
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to initialize export archive")
		}
	}

	// Initialize services
	connections := repository.NewConnectionRepository(db)
	reportService := service.NewReportService(connections, tenants, reportCache, cfg.Report)
	connectionService := service.NewConnectionService(connections, tenants, reportCache)

	router := api.NewRouter(&api.Services{
		ReportService:     reportService,
		ConnectionService: connectionService,
	}, api.RouterConfig{
		JWTSecret:      cfg.Auth.JWTSecret,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Archive:        archive,
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
