package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "bravework-rental-backend/internal/api/http"
	"bravework-rental-backend/internal/config"
	"bravework-rental-backend/internal/logger"
	"bravework-rental-backend/internal/repository/postgres"
	"bravework-rental-backend/internal/security"
	"bravework-rental-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	migrate := flag.Bool("migrate", false, "Apply database migrations before serving")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	if cfg.Log.File != "" {
		file := logger.NewRotatingFile(logger.FileOptions{
			Path:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		})
		defer file.Close()
		logger.Initialize(cfg.Log.Level, cfg.Log.Format, file)
	} else {
		logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	}
	logger.Info("Starting Bravework Rental Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Email configuration", "provider", cfg.Email.Provider, "smtp_host", cfg.SMTP.Host)

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	ctx := context.Background()
	db, err := postgres.Open(ctx, cfg.GetDatabaseConnectionString(), postgres.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetimeMinutes) * time.Minute,
	})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if *migrate || cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			logger.Error("Failed to apply migrations", "error", err)
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	}

	// Initialize Repositories
	store := postgres.NewStore(db, cfg.TxTimeout())

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer)

	// Initialize Integrations
	emailSvc := service.NewEmailServiceFromConfig(cfg)
	payments := service.NewNoopPaymentGateway()
	if cfg.Payments.Provider == "razorpay" {
		payments = service.NewRazorpayGateway(cfg.Payments.RazorpayKeyID, cfg.Payments.RazorpayKeySecret, cfg.Payments.Currency)
	}

	// Initialize Services
	relay := service.NewRelay(
		store.OutboxRepository,
		store.NotificationRepository,
		store.UserRepository,
		emailSvc,
		service.RelayConfigFrom(cfg),
	)
	bookingSvc := service.NewBookingService(store, store.BookingRepository, relay, payments, nil)
	escrowSvc := service.NewEscrowService(store, store.BookingRepository, store.SettlementRepository, relay, nil)
	noteSvc := service.NewNotificationService(store.NotificationRepository)

	// Initialize HTTP handlers
	handlers := httpapi.Handlers{
		Bookings:      httpapi.NewBookingHandler(bookingSvc),
		Escrow:        httpapi.NewEscrowHandler(escrowSvc),
		Notifications: httpapi.NewNotificationHandler(noteSvc),
		Auth:          httpapi.NewAuthMiddleware(tokenManager),
		Health:        store,
	}

	if cfg.RateLimit.Enabled {
		var redisClient redis.UniversalClient
		if cfg.Redis.URL != "" {
			opts, err := redis.ParseURL(cfg.Redis.URL)
			if err != nil {
				log.Fatalf("Invalid redis url: %v", err)
			}
			client := redis.NewClient(opts)
			defer client.Close()
			redisClient = client
			logger.Info("Rate limiter using redis store")
		}
		limiter, err := httpapi.NewRateLimiter(cfg.RateLimit.CreateBooking, redisClient)
		if err != nil {
			log.Fatalf("Failed to configure rate limiter: %v", err)
		}
		handlers.CreateLimiter = limiter.Handler
	}

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      httpapi.NewRouter(handlers),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	relay.Wait()
	logger.Info("Server stopped. Goodbye!")
}
