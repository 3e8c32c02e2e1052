package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Manojkumar-smk/ocr-in-sap/internal/api"
	"github.com/Manojkumar-smk/ocr-in-sap/internal/api/handler"
	"github.com/Manojkumar-smk/ocr-in-sap/internal/config"
	"github.com/Manojkumar-smk/ocr-in-sap/internal/dox"
	"github.com/Manojkumar-smk/ocr-in-sap/internal/logger"
	"github.com/Manojkumar-smk/ocr-in-sap/internal/repository"
	"github.com/Manojkumar-smk/ocr-in-sap/internal/service"
	"github.com/Manojkumar-smk/ocr-in-sap/internal/storage"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	logger.SetDefaultLogger(logger.NewDefault())
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}
	invoiceRepo := repository.NewInvoiceRepository(db)

	ctx := context.Background()

	// Optional PDF archival storage
	var archive storage.ObjectStorage
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewS3Storage(&storage.S3Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
		})
		if err != nil {
			logger.Fatal("Failed to initialize archive storage: %v", err)
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			logger.Fatal("Failed to ensure archive bucket: %v", err)
		}
		archive = s3Store
	}

	// Document AI client with its shared token cache
	tokens := dox.NewTokenSource(dox.TokenConfig{
		UAAURL:       cfg.DocumentAI.UAAURL,
		ClientID:     cfg.DocumentAI.ClientID,
		ClientSecret: cfg.DocumentAI.ClientSecret,
	})
	doxClient := dox.NewClient(dox.ClientConfig{
		BaseURL:         cfg.DocumentAI.BaseURL,
		APIPath:         cfg.DocumentAI.APIPath,
		PollInterval:    cfg.DocumentAI.PollInterval,
		MaxPollAttempts: cfg.DocumentAI.MaxPollAttempts,
	}, tokens)

	invoiceService := service.NewInvoiceService(invoiceRepo, doxClient, archive, cfg.Upload.TempDir)

	// Startup checks are informational; a degraded dependency is reported
	// by the health endpoint, not a crash loop.
	runStartupChecks(ctx, cfg, invoiceRepo, tokens)

	invoiceHandler := handler.NewInvoiceHandler(invoiceService, invoiceRepo, archive, cfg.Upload.MaxFileSizeMB)
	healthHandler := handler.NewHealthHandler(invoiceRepo, cfg.DocumentAI.Configured())

	router := api.SetupRouter(invoiceHandler, healthHandler, &cfg.Server)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting API server on port %d (mode=%s)", cfg.Server.Port, cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// runStartupChecks probes the database, the Document AI configuration, and
// the identity endpoint, logging each outcome.
func runStartupChecks(ctx context.Context, cfg *config.Config, repo *repository.InvoiceRepository, tokens *dox.TokenSource) {
	if err := repo.Ping(ctx); err != nil {
		logger.Warn("Database not reachable at startup: %v", err)
	} else {
		logger.Info("Database connected (driver=%s)", cfg.Database.Driver)
	}

	if !cfg.DocumentAI.Configured() {
		logger.Warn("Document AI credentials not configured; uploads will fail until they are")
		return
	}
	logger.Info("Document AI configured: %s", cfg.DocumentAI.BaseURL)

	probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := tokens.Token(probeCtx); err != nil {
		logger.Warn("UAA authentication failed at startup: %v", err)
	} else {
		logger.Info("UAA authentication successful")
	}
}
