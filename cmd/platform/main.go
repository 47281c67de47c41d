package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"

	cfg "github.com/zalmanollech/Tangent-Platform-sub001/config"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/documents"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/handlers"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/ledger"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/risk"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/usecases"
	repository "github.com/zalmanollech/Tangent-Platform-sub001/internal/usecases/repository"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/workers"
	"github.com/zalmanollech/Tangent-Platform-sub001/pkg/database"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Server timeout constants.
const (
	readTimeoutSeconds     = 15
	writeTimeoutSeconds    = 15
	idleTimeoutSeconds     = 60
	shutdownTimeoutSeconds = 5
)

func main() {
	time.Local = time.UTC

	// Parse configuration
	config, err := cfg.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	// Setup logging
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if config.App.Debug {
		opts.Level = slog.LevelDebug
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Locate the migrations directory relative to the working directory.
	migrationsPath := "./migrations"
	if workDir, err := os.Getwd(); err == nil {
		if _, err := os.Stat(filepath.Join(workDir, "migrations")); !os.IsNotExist(err) {
			migrationsPath = filepath.Join(workDir, "migrations")
		} else if _, err := os.Stat(filepath.Join(workDir, "..", "migrations")); !os.IsNotExist(err) {
			migrationsPath = filepath.Join(workDir, "..", "migrations")
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, opts))
	logger.Warn("Starting platform with configuration",
		"debug", config.App.Debug,
		"rpc_url", config.Ledger.RPCURL,
		"escrow_contract", config.Ledger.EscrowContract,
		"server_port", config.HTTP.Port,
		"database_url", config.DB.DatabaseURL)

	// Connect to Database
	pg, err := database.New(config.DB.DatabaseURL,
		database.MaxPoolSize(config.DB.PoolMax),
		database.ConnTimeout(config.DB.ConnectTimeout),
		database.HealthCheckPeriod(config.DB.HealthCheckPeriod),
		database.Isolation(pgx.ReadCommitted),
	)
	if err != nil {
		logger.Error("postgres connection failed", "error", err)
		return
	}
	defer pg.Close()

	// Run database migrations
	logger.Info("Running database migrations", "path", migrationsPath)
	if err = database.RunMigrations(logger, config.DB.DatabaseURL, migrationsPath); err != nil {
		logger.Error("Failed to run database migrations", "error", err)
		log.Fatal(err)
	}
	logger.Info("Database migrations completed successfully")

	// Create repositories
	tradesRepository := repository.NewTradesRepository(logger, pg)

	// Document registry backed by the local content store
	store := documents.NewFileStore(config.Docs.StorePath)
	registry := documents.NewRegistry(logger, store)

	// Escrow ledger client
	escrowClient, err := ledger.NewEVMEscrowClient(ctx, logger, config.Ledger)
	if err != nil {
		logger.Error("Failed to create escrow client", "error", err)
		log.Fatal(err)
	}
	defer escrowClient.Close()

	assessor := risk.NewAssessor(config.Risk.HighRiskCommodities)

	// WebSocket manager doubles as the event notifier
	websocketManager := handlers.NewWebSocketManager(logger)

	tradeService := usecases.NewTradeService(logger, tradesRepository, registry, escrowClient, websocketManager, assessor)

	// Run background workers
	ledgerWatcher := workers.NewLedgerWatcher(logger, escrowClient, tradeService)
	go ledgerWatcher.Start(ctx)

	recoveryInterval := time.Duration(config.Workers.RecoveryInterval) * time.Minute
	paymentRecovery := workers.NewPaymentRecovery(logger, tradesRepository, escrowClient, tradeService, recoveryInterval)
	go paymentRecovery.Start(ctx)

	// Create handlers
	httpHandler := handlers.NewHTTPHandler(logger, tradeService)
	wsHandler := handlers.NewWebSocketHandler(logger, tradeService, websocketManager)

	// Create router
	router := mux.NewRouter()

	// Register WebSocket routes before HTTP routes
	wsHandler.RegisterRoutes(router)
	httpHandler.RegisterRoutes(router)

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Actor-Id", "X-Actor-Role"},
		AllowCredentials: true,
	})

	// Wrap router in CORS middleware
	handler := c.Handler(router)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + config.HTTP.Port,
		Handler:      handler,
		ReadTimeout:  readTimeoutSeconds * time.Second,
		WriteTimeout: writeTimeoutSeconds * time.Second,
		IdleTimeout:  idleTimeoutSeconds * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "address", server.Addr)
		if err = server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			log.Fatal(err)
		}
	}()

	// Wait for shutdown signal, then stop workers and drain requests
	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeoutSeconds*time.Second)
	defer cancel()

	if err = server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		return
	}

	logger.Info("Server exited properly")
}
