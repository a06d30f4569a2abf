package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"pasarela/internal/app"
	"pasarela/internal/config"
	"pasarela/internal/handler"
	"pasarela/internal/metrics"
	internalRedis "pasarela/internal/redis"
	"pasarela/internal/repository/postgres"
	"pasarela/internal/service"
	"pasarela/internal/tilopay"
)

func main() {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	if err := app.RunMigrations(db, cfg.Database.MigrationsPath); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	log.Println("Migrations applied")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, err := wireServer(db, redisClient, nrApp, cfg)
	if err != nil {
		log.Fatalf("failed to wire server: %v", err)
	}

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, error) {
	// Initialize Redis stores.
	tokenStore, err := internalRedis.NewResultTokenStore(redisClient)
	if err != nil {
		return nil, err
	}
	lockStore := internalRedis.NewOrderLockStore(redisClient)

	// Initialize repositories.
	store := postgres.NewStore(db)
	customerRepo := postgres.NewCustomerRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)

	// Initialize metrics and the gateway client.
	paymentMetrics := metrics.NewPaymentMetrics()
	tilopayClient := tilopay.NewClient(tilopay.Config{
		APIUser:     cfg.Tilopay.APIUser,
		APIPassword: cfg.Tilopay.APIPassword,
		APIKey:      cfg.Tilopay.APIKey,
		SDKTokenURL: cfg.Tilopay.SDKTokenURL,
		Timeout:     cfg.Tilopay.Timeout,
	})

	// Initialize services.
	transactionService := service.NewTransactionService(store, paymentRepo, lockStore, paymentMetrics)
	preparationService := service.NewPreparationService(store, tokenStore, paymentMetrics)
	reconciliationService := service.NewReconciliationService(tokenStore, transactionService, customerRepo)

	// Initialize handlers.
	transactionHandler := handler.NewTransactionHandler(preparationService, transactionService, reconciliationService)
	tilopayHandler := handler.NewTilopayHandler(tilopayClient, paymentMetrics)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		TransactionHandler: transactionHandler,
		TilopayHandler:     tilopayHandler,
		RedisClient:        redisClient,
		NewRelicApp:        nrApp,
		AllowedOrigins:     cfg.Server.AllowedOrigins,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, nil
}
