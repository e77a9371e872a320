// Package semrank provides embedding-based semantic search and community
// recommendation over a catalog of indexed candidates, exposed both as a Go
// library and as an MCP tool server.
package semrank

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/localrivet/semrank/internal/catalog"
	"github.com/localrivet/semrank/internal/config"
	"github.com/localrivet/semrank/internal/embedding"
	"github.com/localrivet/semrank/internal/embedding/providers"
	"github.com/localrivet/semrank/internal/errortypes"
	"github.com/localrivet/semrank/internal/ranker"
	"github.com/localrivet/semrank/internal/server"
	"github.com/localrivet/semrank/internal/telemetry"
	"github.com/localrivet/semrank/internal/util"
)

// Config represents the configuration for the SemRank service.
type Config = config.Config

// Candidate is an item that can be indexed, searched, and recommended.
type Candidate = ranker.Candidate

// Scored is a candidate paired with its similarity score.
type Scored = ranker.Scored

// Server represents the SemRank service.
type Server struct {
	config     *config.Config
	store      catalog.Store
	resolver   *embedding.Resolver
	service    *ranker.Service
	metrics    *telemetry.MetricsCollector
	toolServer server.RankToolServer
	logger     *slog.Logger // Logger for this Server instance
}

// ServerOptions defines the options for creating a new Server.
type ServerOptions struct {
	Config     *Config      // Pre-filled config. If nil, ConfigPath is used.
	ConfigPath string       // Path to config file. Used if Config is nil. If both are empty, DefaultConfig() is used.
	Logger     *slog.Logger // External logger. If nil, slog.Default() is used.
}

// NewServer creates a new SemRank Server with the given options.
// If opts.Config is provided, it will be used directly.
// Otherwise, if opts.ConfigPath is provided, configuration will be loaded from that path.
// If neither is provided, DefaultConfig() will be used.
// If opts.Logger is nil, slog.Default() will be used.
func NewServer(opts ServerOptions) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var cfg *Config
	var err error

	if opts.Config != nil {
		cfg = opts.Config
		logger.Info("Using provided Config object for server initialization")
	} else if opts.ConfigPath != "" {
		logger.Info("Loading configuration for server initialization", "path", opts.ConfigPath)
		cfg, err = config.LoadConfigWithPath(opts.ConfigPath)
		if err != nil {
			logger.Error("Failed to load configuration from path", "path", opts.ConfigPath, "error", err)
			return nil, errortypes.ConfigError(err, "Failed to load configuration from path: "+opts.ConfigPath)
		}
	} else {
		logger.Warn("No Config object or ConfigPath provided, using default configuration for server initialization")
		cfg = DefaultConfig()
	}

	store, resolver, metrics, err := CreateComponents(cfg, logger)
	if err != nil {
		// CreateComponents already logs the specific error
		logger.Error("Failed to create components during server initialization", "error", err)
		return nil, err
	}

	logger.Info("Initializing rank tool server component")
	mcpServer := server.NewRankToolServer(store, resolver, metrics)
	err = mcpServer.Initialize()
	if err != nil {
		logger.Error("Failed to initialize MCP rank tool server component", "error", err)
		return nil, errortypes.ConfigError(err, "Failed to initialize MCP rank tool server component")
	}

	logger.Info("SemRank server successfully initialized")
	return &Server{
		config:     cfg,
		store:      store,
		resolver:   resolver,
		service:    ranker.NewService(resolver, metrics),
		metrics:    metrics,
		toolServer: mcpServer,
		logger:     logger,
	}, nil
}

// DefaultConfig returns the default configuration for the SemRank service.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Store.SQLitePath = config.DefaultSQLitePath
	cfg.Embedder.Provider = providers.ProviderMock
	cfg.Embedder.Dimensions = providers.DefaultEmbeddingDimensions
	cfg.Embedder.CacheCapacity = embedding.DefaultCacheCapacity
	cfg.Logging.Level = config.DefaultLogLevel
	cfg.Logging.Format = config.DefaultLogFormat
	return cfg
}

// SaveConfig saves the configuration to a file and returns the JSON content.
func SaveConfig(cfg *Config, path string) ([]byte, error) {
	// Pretty-print the JSON for better readability
	content, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, errortypes.ConfigError(err, "failed to marshal configuration")
	}

	return content, nil
}

// loadConfig loads the configuration from the given path.
func loadConfig(configPath string) (*Config, error) {
	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errortypes.ConfigError(err, "failed to read config file")
	}

	// Parse the config file
	cfg := &Config{}
	err = json.Unmarshal(data, cfg)
	if err != nil {
		return nil, errortypes.ConfigError(err, "failed to parse config file")
	}

	return cfg, nil
}

// Start starts the SemRank service.
func (s *Server) Start() error {
	s.logger.Info("Starting SemRank service")
	return s.toolServer.Start()
}

// Stop stops the SemRank service.
func (s *Server) Stop() error {
	s.logger.Info("Stopping SemRank service")
	err := s.toolServer.Stop()
	if err != nil {
		s.logger.Error("Error stopping tool server", "error", err)
		return err
	}

	// Close the store
	s.logger.Info("Closing store")
	err = s.store.Close()
	if err != nil {
		s.logger.Error("Failed to close store", "error", err)
		return err
	}

	s.logger.Info("SemRank service stopped")
	return nil
}

// IndexCandidate embeds the candidate text and stores it in the catalog.
// When candidate.ID is empty an ID is derived from the text.
func (s *Server) IndexCandidate(ctx context.Context, candidate Candidate) (string, error) {
	// Create embedding
	s.logger.Debug("Creating embedding for candidate", "kind", candidate.Kind, "length", len(candidate.Text))
	emb, err := s.resolver.Resolve(ctx, candidate.Text)
	if err != nil {
		s.logger.Error("Failed to create embedding", "error", err)
		return "", err
	}

	// Generate ID when not supplied
	timestamp := time.Now()
	if candidate.ID == "" {
		candidate.ID = GenerateHash(candidate.Text, timestamp.UnixNano())
	}

	// Store in catalog
	s.logger.Debug("Storing candidate", "id", candidate.ID)
	err = s.store.Put(candidate, emb, timestamp)
	if err != nil {
		s.logger.Error("Failed to store candidate", "id", candidate.ID, "error", err)
		return "", err
	}

	s.logger.Info("Successfully indexed candidate", "id", candidate.ID)
	return candidate.ID, nil
}

// Search ranks the given candidates against a free-text query and returns
// the best matches. The candidates are embedded on the fly, so this works
// for ad-hoc sets that were never indexed.
func (s *Server) Search(ctx context.Context, query string, candidates []Candidate) ([]Scored, error) {
	s.logger.Debug("Searching candidates", "query", query, "count", len(candidates))
	results, err := s.service.Search(ctx, query, candidates)
	if err != nil {
		s.logger.Error("Failed to search candidates", "query", query, "error", err)
		return nil, err
	}

	s.logger.Info("Ranked search results", "count", len(results))
	return results, nil
}

// Recommend ranks the given candidates against an interest profile built
// from the interaction texts and returns the best matches.
func (s *Server) Recommend(ctx context.Context, interactions []string, candidates []Candidate) ([]Scored, error) {
	s.logger.Debug("Recommending candidates", "interactions", len(interactions), "count", len(candidates))
	results, err := s.service.Recommend(ctx, interactions, candidates)
	if err != nil {
		s.logger.Error("Failed to recommend candidates", "error", err)
		return nil, err
	}

	s.logger.Info("Ranked recommendations", "count", len(results))
	return results, nil
}

// GetStore returns the catalog store instance used by the server.
func (s *Server) GetStore() catalog.Store {
	return s.store
}

// GetResolver returns the embedding resolver instance used by the server.
func (s *Server) GetResolver() *embedding.Resolver {
	return s.resolver
}

// GetMetrics returns the metrics collector used by the server.
func (s *Server) GetMetrics() *telemetry.MetricsCollector {
	return s.metrics
}

// CreateComponents creates and initializes the components of the SemRank
// service without creating a server instance. This is useful for components
// that need direct access to the store and resolver.
func CreateComponents(cfg *Config, logger *slog.Logger) (catalog.Store, *embedding.Resolver, *telemetry.MetricsCollector, error) {
	if logger == nil {
		// This case should ideally not be hit if NewServer always provides one,
		// but as a public function, it's safer to have a fallback.
		logger = slog.Default()
		logger.Debug("CreateComponents called with nil logger, defaulting to slog.Default()")
	}

	// Initialize SQLite catalog store
	logger.Info("Initializing SQLite catalog store for CreateComponents", "path", cfg.Store.SQLitePath)
	store := catalog.NewSQLiteStore()
	err := store.Initialize(cfg.Store.SQLitePath)
	if err != nil {
		logger.Error("Failed to initialize SQLite catalog store in CreateComponents", "path", cfg.Store.SQLitePath, "error", err)
		return nil, nil, nil, errortypes.DatabaseError(err, "Failed to initialize SQLite catalog store")
	}

	// Initialize embedding provider
	logger.Info("Initializing embedding provider for CreateComponents", "provider", cfg.Embedder.Provider, "dimensions", cfg.Embedder.Dimensions)
	providerName := cfg.Embedder.Provider
	if providerName == "" {
		providerName = providers.ProviderMock
	}

	factory := providers.NewProviderFactory(map[string]providers.Config{
		providerName: {
			APIKey:     cfg.Embedder.ApiKey,
			ModelID:    cfg.Embedder.Model,
			Dimensions: cfg.Embedder.Dimensions,
		},
	})

	provider, err := factory.GetProvider(providerName)
	if err != nil {
		logger.Error("Failed to initialize embedding provider in CreateComponents", "provider", providerName, "error", err)
		return nil, nil, nil, errortypes.ConfigError(err, "Failed to initialize embedding provider")
	}

	// Build the resolver with its cache and metrics
	metrics := telemetry.NewMetricsCollector()
	cache := embedding.NewCache(cfg.Embedder.CacheCapacity)
	resolver := embedding.NewResolver(provider, cache, metrics)

	logger.Info("Components successfully initialized via CreateComponents")
	return store, resolver, metrics, nil
}

// GenerateHash creates a candidate ID from its text and a timestamp.
// This is a convenience wrapper around the internal util.GenerateHash function.
func GenerateHash(text string, timestamp int64) string {
	return util.GenerateHash(text, timestamp)
}
