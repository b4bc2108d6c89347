package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/SscSPs/issue_tracker/internal/adapters/blobstore"
	"github.com/SscSPs/issue_tracker/internal/core/services"
	"github.com/SscSPs/issue_tracker/internal/handlers"
	"github.com/SscSPs/issue_tracker/internal/middleware"
	"github.com/SscSPs/issue_tracker/internal/platform/config"
	"github.com/SscSPs/issue_tracker/internal/repositories/database/pgsql"
	"github.com/SscSPs/issue_tracker/internal/utils"
	"github.com/SscSPs/issue_tracker/pkg/database"
	"github.com/gin-gonic/gin"
)

// @title Issue Tracker API
// @version 1.0
// @description Expense reimbursement issues: submission, treasurer review and receipt evidence.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.DBConnectTimeout, logger)
	if err != nil {
		return err
	}
	defer database.ClosePgxPool(dbPool, logger)

	logger.Info("Running database migrations...")
	if _, err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, database.MigrateUp, logger); err != nil {
		return err
	}

	blobStore, err := blobstore.NewOsStore(cfg.BlobRoot, cfg.BlobPublicBaseURL, logger)
	if err != nil {
		return err
	}

	analytics := utils.InitializePosthogClient(cfg.PosthogAPIKey, cfg.PosthogEndpoint, logger)
	defer analytics.Close()

	repos := pgsql.NewRepositoryProvider(dbPool)
	serviceContainer := services.NewServiceContainer(cfg, repos, blobStore, analytics)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}

	if err := handlers.RegisterRoutes(r, cfg, serviceContainer, blobStore.FileSystem(), analytics); err != nil {
		return err
	}

	logger.Info("Server starting", slog.String("port", cfg.Port))
	return r.Run(":" + cfg.Port)
}
