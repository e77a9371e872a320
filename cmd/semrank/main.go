package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/localrivet/semrank/internal/catalog"
	"github.com/localrivet/semrank/internal/config"
	"github.com/localrivet/semrank/internal/embedding"
	"github.com/localrivet/semrank/internal/embedding/providers"
	"github.com/localrivet/semrank/internal/logger"
	"github.com/localrivet/semrank/internal/server"
	"github.com/localrivet/semrank/internal/telemetry"
)

func main() {
	// Initialize logging first thing
	appLogger := setupLogging()

	appLogger.Info("SemRank MCP Server - Starting...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.LogError(err)
		appLogger.Fatal("Failed to load configuration")
	}

	// Configure logging based on config
	if cfg.Logging.Level != "" {
		appLogger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
		appLogger.Info("Log level set to %s", cfg.Logging.Level)
	}

	if cfg.Logging.Format == "json" {
		appLogger.SetFormat(logger.JSON)
		appLogger.Info("Log format set to JSON")
	}

	// Initialize the catalog store
	store := catalog.NewSQLiteStore()
	storeLogger := appLogger.WithContext("catalog")

	err = store.Initialize(cfg.Store.SQLitePath)
	if err != nil {
		err = logger.DatabaseError(err, "Failed to initialize SQLite catalog store")
		logger.LogError(err)
		appLogger.Fatal("Failed to initialize SQLite catalog store")
	}
	defer store.Close()
	storeLogger.Info("SQLite catalog store initialized")

	// Initialize the embedding provider
	embLogger := appLogger.WithContext("embedder")
	factory := providers.NewProviderFactory(map[string]providers.Config{
		cfg.Embedder.Provider: {
			APIKey:     cfg.Embedder.ApiKey,
			ModelID:    cfg.Embedder.Model,
			Dimensions: cfg.Embedder.Dimensions,
		},
	})

	provider, err := factory.GetProvider(cfg.Embedder.Provider)
	if err != nil {
		err = logger.ConfigError(err, "Failed to initialize embedding provider")
		logger.LogError(err)
		appLogger.Fatal("Failed to initialize embedding provider")
	}
	embLogger.Info("Embedding provider initialized: %s", provider.Name())

	// Build the resolver with its cache and metrics
	metrics := telemetry.NewMetricsCollector()
	cache := embedding.NewCache(cfg.Embedder.CacheCapacity)
	resolver := embedding.NewResolver(provider, cache, metrics)
	embLogger.Info("Embedding resolver initialized")

	// Initialize the MCP server
	srv := server.NewRankToolServer(store, resolver, metrics)
	srvLogger := appLogger.WithContext("server")

	err = srv.Initialize()
	if err != nil {
		err = logger.ConfigError(err, "Failed to initialize MCP server")
		logger.LogError(err)
		appLogger.Fatal("Failed to initialize MCP server")
	}
	srvLogger.Info("MCP server initialized")

	// Handle graceful shutdown
	setupSignalHandler(store, appLogger)

	// Start the MCP server (this will block until server is terminated)
	srvLogger.Info("Starting MCP server...")
	if err := srv.Start(); err != nil {
		err = logger.ProviderError(err, "MCP server failed")
		logger.LogError(err)
		appLogger.Fatal("Failed to start MCP server")
	}
}

// setupLogging configures and returns the application logger
func setupLogging() *logger.Logger {
	// Create default configuration
	cfg := logger.DefaultConfig()

	// Try to get log level from environment variable
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		cfg.Level = logger.ParseLevel(levelStr)
	}

	// Create and return logger
	appLogger := logger.New(cfg)
	logger.SetDefaultLogger(appLogger)

	return appLogger
}

// setupSignalHandler sets up a signal handler for graceful shutdown.
func setupSignalHandler(store catalog.Store, log *logger.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("Received shutdown signal, terminating gracefully...")

		// Close the store to ensure all data is saved
		if err := store.Close(); err != nil {
			err = logger.DatabaseError(err, "Error closing store during shutdown")
			logger.LogError(err)
		} else {
			log.Info("Database closed successfully")
		}

		log.Info("Shutdown complete")
		os.Exit(0)
	}()
}
