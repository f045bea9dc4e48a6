package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "osld-portal/docs" // This is for Swagger
	"osld-portal/internal/appeal"
	"osld-portal/internal/auth"
	"osld-portal/internal/config"
	"osld-portal/internal/database"
	"osld-portal/internal/deadline"
	"osld-portal/internal/email"
	"osld-portal/internal/handlers"
	"osld-portal/internal/logger"
	"osld-portal/internal/middleware"
	"osld-portal/internal/repository"
	"osld-portal/internal/scheduler"
	"osld-portal/internal/service"
	"osld-portal/internal/storage"
	"osld-portal/internal/vault"
	"osld-portal/migrations"
)

// @title OSLD Portal API
// @version 1.0
// @description Report deadlines, letters of appeal and deadline overrides for student organizations

// @contact.name API Support

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Vault.Enabled {
		if err := loadVaultSecrets(cfg); err != nil {
			log.Fatalf("Failed to load secrets from Vault: %v", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Setup(logger.Config{Level: cfg.Log.Level})
	loc := cfg.Portal.Location()

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	slog.Info("Database connection established")

	// Run database migrations
	migrator := database.NewMigrationExecutor(db.DB)
	if err := migrator.RunMigrations(migrations.FS); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database migrations completed")

	policy := deadline.DefaultPolicy()
	if cfg.Portal.DeadlinePolicyFile != "" {
		policy, err = deadline.LoadPolicy(cfg.Portal.DeadlinePolicyFile)
		if err != nil {
			log.Fatalf("Failed to load deadline policy: %v", err)
		}
		slog.Info("Deadline policy loaded", "file", cfg.Portal.DeadlinePolicyFile)
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db.DB)
	auditRepo := repository.NewAuditRepository(db.DB)
	eventRepo := repository.NewEventRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)
	orgRepo := repository.NewOrganizationRepository(db.DB)
	submissionRepo := repository.NewSubmissionRepository(db.DB)

	var documents service.DocumentStore
	if store, err := storage.NewDocumentStore(&cfg.Storage); err != nil {
		slog.Warn("Document storage unavailable, uploads are disabled", "error", err)
	} else {
		documents = store
	}

	emailService := email.NewService(&cfg.Email)
	if !emailService.Enabled() {
		slog.Warn("SMTP is not configured, emails are disabled")
	}

	// Initialize services
	authService := auth.NewService(&cfg.JWT)
	resolver := appeal.NewResolver(submissionRepo, notificationRepo, orgRepo).
		WithClock(func() time.Time { return time.Now().In(loc) })

	auditSvc := service.NewAuditService(auditRepo)
	deadlineSvc := service.NewDeadlineService(eventRepo, orgRepo, deadline.NewProjector(policy), resolver, cfg.Portal.ReviewingOffice)
	notifierSvc := service.NewNotifierService(deadlineSvc, submissionRepo, notificationRepo, orgRepo, documents, emailService)

	services := handlers.Services{
		Auth:          service.NewAuthService(accountRepo, orgRepo, authService),
		Audit:         auditSvc,
		Deadlines:     deadlineSvc,
		Notifier:      notifierSvc,
		Overrides:     service.NewOverrideService(eventRepo, submissionRepo, notificationRepo, orgRepo, auditSvc, emailService),
		Events:        service.NewEventService(eventRepo, orgRepo, auditSvc),
		Submissions:   service.NewSubmissionService(deadlineSvc, submissionRepo, notificationRepo, documents, auditSvc),
		Notifications: service.NewNotificationService(notificationRepo),
	}

	// Initialize middleware
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit)
	defer rateLimiter.Close()

	router := handlers.NewRouter(services, handlers.Middleware{
		Auth:        middleware.NewAuthMiddleware(authService),
		CORS:        middleware.NewCORSMiddleware(&cfg.CORS),
		RateLimiter: rateLimiter,
	}, db.HealthCheck, cfg.App.Version)

	sched := scheduler.NewScheduler(notifierSvc, &cfg.Scheduler, loc)
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	go func() {
		slog.Info("Starting server", "addr", server.Addr, "env", cfg.App.Env, "version", cfg.App.Version)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

func loadVaultSecrets(cfg *config.Config) error {
	client, err := vault.NewClient(&vault.Config{
		Address: cfg.Vault.Address,
		Token:   cfg.Vault.Token,
		KVMount: cfg.Vault.KVMount,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	secrets, err := client.ReadSecrets(ctx, cfg.Vault.SecretPath)
	if err != nil {
		return err
	}

	cfg.ApplySecrets(secrets)
	return nil
}
