package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/buildmart/marketplace-api/docs"
	"github.com/buildmart/marketplace-api/internal/auth"
	"github.com/buildmart/marketplace-api/internal/config"
	"github.com/buildmart/marketplace-api/internal/database"
	"github.com/buildmart/marketplace-api/internal/events"
	"github.com/buildmart/marketplace-api/internal/http/handler"
	"github.com/buildmart/marketplace-api/internal/http/middleware"
	"github.com/buildmart/marketplace-api/internal/http/router"
	"github.com/buildmart/marketplace-api/internal/jobs"
	"github.com/buildmart/marketplace-api/internal/logger"
	"github.com/buildmart/marketplace-api/internal/repository"
	"github.com/buildmart/marketplace-api/internal/service"
	"go.uber.org/zap"
)

// @title Marketplace Quote API
// @version 1.0
// @description Quote requests, supplier quote responses and the orders placed from accepted quotes.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Basic configuration first, for logging setup
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if basicCfg.App.Environment == "development" || basicCfg.App.Environment == "local" {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Development reads secrets from the environment, staging/production from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
		log.Info("Database schema auto-migrated")
	}

	publisher, err := events.NewPublisher(&cfg.Messaging, log)
	if err != nil {
		return fmt.Errorf("failed to initialize event publisher: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("Error closing event publisher", zap.Error(err))
		}
	}()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	quoteRequestRepo := repository.NewQuoteRequestRepository(db)
	quoteResponseRepo := repository.NewQuoteResponseRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)

	// Services
	numberSequenceService := service.NewNumberSequenceService(numberSequenceRepo, cfg.Quotes, log)
	notificationService := service.NewNotificationService(notificationRepo, cfg.Quotes.NotificationTTL(), log)
	quoteService := service.NewQuoteService(
		quoteRequestRepo,
		quoteResponseRepo,
		orderRepo,
		productRepo,
		userRepo,
		numberSequenceService,
		notificationService,
		publisher,
		log,
		db,
	)
	orderService := service.NewOrderService(orderRepo, productRepo, notificationService, publisher, log, db)

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	rt := router.NewRouter(cfg, log, authMiddleware, rateLimiter, router.Handlers{
		Health:        handler.NewHealthHandler(db, log),
		Auth:          handler.NewAuthHandler(userRepo, log),
		QuoteRequest:  handler.NewQuoteRequestHandler(quoteService, log),
		QuoteResponse: handler.NewQuoteResponseHandler(quoteService, log),
		Order:         handler.NewOrderHandler(orderService, log),
		Notification:  handler.NewNotificationHandler(notificationService, log),
	})

	// Background jobs
	scheduler := jobs.NewScheduler(log)
	if err := jobs.Register(
		scheduler,
		&cfg.Jobs,
		jobs.NewExpirySweepJob(quoteRequestRepo, publisher, log),
		jobs.NewNotificationCleanupJob(notificationRepo, log),
	); err != nil {
		return fmt.Errorf("failed to register jobs: %w", err)
	}
	scheduler.Start()

	var h http.Handler = rt.Setup()
	if timeout := cfg.Server.RequestTimeoutDuration(); timeout > 0 {
		h = http.TimeoutHandler(h, timeout, `{"success":false,"code":"timeout","message":"request timed out"}`)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		<-scheduler.Stop().Done()
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		<-scheduler.Stop().Done()
		log.Info("Scheduler stopped")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
