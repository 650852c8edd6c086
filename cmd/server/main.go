package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"valuator/internal/config"
	"valuator/internal/handler"
	"valuator/internal/metrics"
	"valuator/internal/repository"
	"valuator/internal/service"
	"valuator/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Infof("Property Valuator %s (built %s, commit %s)", Version, BuildTime, GitCommit)

	if cfg.Metrics.Enabled {
		metrics.Init()
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Price estimator, trained lazily on first use
	estimator := service.NewEstimator(service.NewTrainingConfig(&cfg.Model), logger.Get())
	if cfg.Model.WarmupOnStart {
		go func() {
			if err := estimator.Warmup(context.Background()); err != nil {
				logger.Errorf("Model warmup failed, will retry on first request: %v", err)
			}
		}()
	}
	pricingService := service.NewPricingService(estimator)

	// Valuation history is optional
	var store service.ValuationStore
	if cfg.PostgreSQL.Enabled {
		repo, err := repository.NewPostgresRepository(
			cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
		)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer repo.Close()

		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = repo.Migrate(migrateCtx)
		cancel()
		if err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}

		logger.Info("Connected to PostgreSQL, valuation history enabled")
		store = repo
	} else {
		logger.Warn("PostgreSQL is disabled, valuation history endpoints will return 503")
	}

	valuationService := service.NewValuationService(pricingService, store, logger.Get())
	valuationHandler := handler.NewValuationHandler(valuationService)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.GinMode != gin.ReleaseMode {
		router.Use(gin.Logger())
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitList(cfg.Server.AllowedOrigins)
	corsConfig.AllowMethods = splitList(cfg.Server.AllowedMethods)
	corsConfig.AllowHeaders = splitList(cfg.Server.AllowedHeaders)
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "healthy",
			"service":       "property-valuator",
			"version":       Version,
			"model_trained": estimator.Trained(),
			"history":       store != nil,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	// API routes
	valuationHandler.Register(router.Group("/api/v1"))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	logger.Info("Server stopped")
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
