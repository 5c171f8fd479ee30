package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/litverse/server/internal/auth"
	"github.com/litverse/server/internal/cache"
	"github.com/litverse/server/internal/config"
	"github.com/litverse/server/internal/db"
	httphandler "github.com/litverse/server/internal/http"
	"github.com/litverse/server/internal/http/handlers"
	"github.com/litverse/server/internal/notify"
	"github.com/litverse/server/internal/repo"
	"github.com/pressly/goose/v3"
)

func main() {
	// Load .env from CWD so it works in local development (env vars override)
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context for startup operations
	ctx := context.Background()

	// Open database connection
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := runMigrations(database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	userRepo := repo.NewUserRepo(database)
	adminRepo := repo.NewAdminRepo(database)
	bookRepo := repo.NewBookRepo(database)
	testRepo := repo.NewMockTestRepo(database)
	purchaseRepo := repo.NewPurchaseRepo(database)
	resultRepo := repo.NewTestResultRepo(database)
	dashboardRepo := repo.NewDashboardRepo(database)

	// Seed the bootstrap admin so the panel is reachable on a fresh install.
	if err := bootstrapAdmin(ctx, adminRepo, cfg); err != nil {
		log.Fatalf("Failed to bootstrap admin: %v", err)
	}

	// Select the cache backend: Redis when configured, in-memory otherwise.
	var store cache.Store
	if cfg.RedisURL != "" {
		redisStore, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisStore.Close()
		store = redisStore
		log.Println("Using redis cache")
	} else {
		store = cache.NewMemory()
		log.Println("Using in-memory cache")
	}

	// Initialize auth services
	otpEngine := auth.NewOTPEngine(store)
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	dispatcher := notify.NewSMTPDispatcher(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	verifiers := map[string]auth.FederatedVerifier{
		auth.ProviderGoogle:   auth.NewGoogleVerifier(),
		auth.ProviderFacebook: auth.NewFacebookVerifier(),
	}
	authService := auth.NewService(
		userRepo, adminRepo, store, otpEngine, jwtService, dispatcher,
		verifiers, cfg.LinkFederatedID, cfg.ResetBaseURL,
	)

	if cfg.InsecureOTPDisclosure {
		log.Println("WARNING: INSECURE_OTP_DISCLOSURE is enabled; undelivered OTP codes will be echoed in responses")
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userRepo, cfg.InsecureOTPDisclosure)
	adminHandler := handlers.NewAdminHandler(authService, userRepo, dashboardRepo, purchaseRepo)
	catalogHandler := handlers.NewCatalogHandler(bookRepo, testRepo)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseRepo, resultRepo, bookRepo, testRepo)

	// Create router
	router := httphandler.NewRouter(authHandler, adminHandler, catalogHandler, purchaseHandler, jwtService)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// bootstrapAdmin inserts the default admin account if none exists yet.
func bootstrapAdmin(ctx context.Context, admins repo.AdminRepo, cfg *config.Config) error {
	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	return admins.EnsureDefault(ctx, cfg.AdminEmail, hash)
}

// runMigrations runs database migrations using goose
func runMigrations(database *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	migrationDir := "internal/db/migrations"
	if info, err := os.Stat(migrationDir); err != nil || !info.IsDir() {
		return fmt.Errorf("migrations directory not found (run from the repo root)")
	}

	if err := goose.Up(database, migrationDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
