package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/localrivet/gomcp/server"
	"github.com/localrivet/semrank/internal/catalog"
	"github.com/localrivet/semrank/internal/embedding"
	"github.com/localrivet/semrank/internal/errortypes"
	"github.com/localrivet/semrank/internal/ranker"
	"github.com/localrivet/semrank/internal/telemetry"
	"github.com/localrivet/semrank/internal/tools"
	"github.com/localrivet/semrank/internal/util"
	"github.com/localrivet/semrank/internal/vector"
)

// Common server error types
var (
	ErrServerNotInitialized = errors.New("server not initialized")
	ErrMissingDependencies  = errors.New("one or more required dependencies are nil")
)

// MCPRankToolServer implements the RankToolServer interface
// for handling MCP tool calls related to indexing and ranking.
type MCPRankToolServer struct {
	store     catalog.Store
	resolver  *embedding.Resolver
	metrics   *telemetry.MetricsCollector
	mcpServer server.Server
}

// NewRankToolServer creates a new MCPRankToolServer instance.
func NewRankToolServer(store catalog.Store, resolver *embedding.Resolver, metrics *telemetry.MetricsCollector) *MCPRankToolServer {
	return &MCPRankToolServer{
		store:    store,
		resolver: resolver,
		metrics:  metrics,
	}
}

// Initialize initializes the server with dependencies and configurations.
func (s *MCPRankToolServer) Initialize() error {
	slog.Info("Initializing MCP Rank Tool Server")

	if s.store == nil || s.resolver == nil {
		return errortypes.ConfigError(ErrMissingDependencies, "server initialization failed")
	}
	if s.metrics == nil {
		s.metrics = telemetry.NewMetricsCollector()
	}

	// Create the MCP server
	srv := server.NewServer("semrank")

	// Register index_candidate tool
	srv = srv.Tool(tools.ToolIndexCandidate, "Index a candidate so it can be searched and recommended",
		s.handleIndexCandidate)

	// Register semantic_search tool
	srv = srv.Tool(tools.ToolSemanticSearch, "Search indexed candidates by semantic similarity to a query",
		s.handleSemanticSearch)

	// Register recommend_communities tool
	srv = srv.Tool(tools.ToolRecommendCommunities, "Recommend communities based on recent user interactions",
		s.handleRecommendCommunities)

	// Register delete_candidate tool
	srv = srv.Tool(tools.ToolDeleteCandidate, "Delete a specific candidate by ID",
		s.handleDeleteCandidate)

	// Register clear_candidates tool
	srv = srv.Tool(tools.ToolClearCandidates, "Clear all candidates from the catalog",
		s.handleClearCandidates)

	s.mcpServer = srv
	slog.Info("MCP Rank Tool Server initialized successfully", "tool_count", 5)
	return nil
}

// Start starts the MCP server on the specified transport.
func (s *MCPRankToolServer) Start() error {
	if s.mcpServer == nil {
		return errortypes.ConfigError(ErrServerNotInitialized, "cannot start server")
	}

	slog.Info("Starting MCP Rank Tool Server")

	// Start the server using stdio transport
	stdioServer := s.mcpServer.AsStdio()
	return stdioServer.Run()
}

// Stop gracefully shuts down the MCP server.
func (s *MCPRankToolServer) Stop() error {
	slog.Info("Stopping MCP Rank Tool Server")
	// The server will exit when stdin is closed
	return nil
}

// handleIndexCandidate handles the index_candidate MCP tool call.
func (s *MCPRankToolServer) handleIndexCandidate(ctx *server.Context, req tools.IndexCandidateRequest) (tools.IndexCandidateResponse, error) {
	slog.Info("Processing index_candidate request", "kind", req.Kind, "text_length", len(req.Text))

	response := tools.IndexCandidateResponse{
		Status: "success",
	}

	// Validate text
	if req.Text == "" {
		err := errortypes.ValidationError(errors.New("text cannot be empty for index_candidate"), "invalid index_candidate request")
		errortypes.LogError(nil, err)
		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	// Default the kind to post when not specified
	kind := req.Kind
	if kind == "" {
		kind = tools.KindPost
	}

	// Create embedding
	slog.Debug("Creating embedding for index_candidate")
	emb, err := s.resolver.Resolve(context.Background(), req.Text)
	if err != nil {
		err = errortypes.ProviderError(err, "failed to create embedding").
			WithField("text_length", len(req.Text))
		errortypes.LogError(nil, err)

		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	// Generate ID when the caller did not supply one
	timestamp := time.Now()
	id := req.ID
	if id == "" {
		id = util.GenerateHash(req.Text, timestamp.UnixNano())
	}

	// Store in catalog
	slog.Debug("Storing candidate for index_candidate", "id", id)
	candidate := ranker.Candidate{
		ID:    id,
		Kind:  kind,
		Text:  req.Text,
		Attrs: req.Attrs,
	}
	err = s.store.Put(candidate, emb, timestamp)
	if err != nil {
		err = errortypes.DatabaseError(err, "failed to store candidate").
			WithField("candidate_id", id)
		errortypes.LogError(nil, err)

		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	// Set response
	response.ID = id
	slog.Info("Successfully indexed candidate", "id", id, "kind", kind)

	// Return response
	return response, nil
}

// handleSemanticSearch handles the semantic_search MCP tool call.
func (s *MCPRankToolServer) handleSemanticSearch(ctx *server.Context, req tools.SemanticSearchRequest) (tools.SemanticSearchResponse, error) {
	slog.Info("Processing semantic_search request", "query", req.Query, "kind", req.Kind)

	response := tools.SemanticSearchResponse{
		Status:  "success",
		Results: []ranker.Scored{},
	}

	// Validate query
	if req.Query == "" {
		err := errortypes.ValidationError(errors.New("query cannot be empty for semantic_search"), "invalid semantic_search request")
		errortypes.LogError(nil, err)
		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	// Default the kind to post when not specified
	kind := req.Kind
	if kind == "" {
		kind = tools.KindPost
	}

	s.metrics.IncrementCounter(telemetry.MetricSearchRequests, 1)

	// Load candidates from the catalog
	entries, err := s.store.List(kind)
	if err != nil {
		err = errortypes.DatabaseError(err, "failed to list candidates").
			WithField("kind", kind)
		errortypes.LogError(nil, err)

		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	// Nothing indexed yet, return an empty result without touching the provider
	if len(entries) == 0 {
		slog.Info("No candidates indexed for semantic_search", "kind", kind)
		return response, nil
	}

	// Create embedding for query
	slog.Debug("Creating embedding for query in semantic_search")
	queryEmbedding, err := s.resolver.Resolve(context.Background(), req.Query)
	if err != nil {
		err = errortypes.ProviderError(err, "failed to create embedding for query").
			WithField("query", req.Query)
		errortypes.LogError(nil, err)

		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	// Rank against stored embeddings
	results, err := s.rankEntries(queryEmbedding, entries, ranker.SearchLimit)
	if err != nil {
		err = errortypes.InternalError(err, "failed to rank candidates").
			WithField("candidate_count", len(entries))
		errortypes.LogError(nil, err)

		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	// Set response
	response.Results = results
	slog.Info("Successfully ranked search results", "count", len(results))

	// Return response
	return response, nil
}

// handleRecommendCommunities handles the recommend_communities MCP tool call.
func (s *MCPRankToolServer) handleRecommendCommunities(ctx *server.Context, req tools.RecommendCommunitiesRequest) (tools.RecommendCommunitiesResponse, error) {
	slog.Info("Processing recommend_communities request", "interaction_count", len(req.Interactions))

	response := tools.RecommendCommunitiesResponse{
		Status:  "success",
		Results: []ranker.Scored{},
	}

	s.metrics.IncrementCounter(telemetry.MetricRecommendRequests, 1)

	// Load communities from the catalog
	entries, err := s.store.List(tools.KindCommunity)
	if err != nil {
		err = errortypes.DatabaseError(err, "failed to list communities")
		errortypes.LogError(nil, err)

		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	// Without interactions or communities there is no interest profile to
	// rank by. Return the first communities unranked instead.
	if len(req.Interactions) == 0 || len(entries) == 0 {
		s.metrics.IncrementCounter(telemetry.MetricRecommendFallback, 1)
		candidates := make([]ranker.Candidate, len(entries))
		for i, entry := range entries {
			candidates[i] = entry.Candidate
		}
		response.Results = ranker.Fallback(candidates, ranker.RecommendLimit)
		slog.Info("Returning fallback recommendations", "count", len(response.Results))
		return response, nil
	}

	// Embed the interactions concurrently
	slog.Debug("Creating embeddings for interactions in recommend_communities")
	interactionEmbeddings, err := s.resolver.ResolveBatch(context.Background(), req.Interactions)
	if err != nil {
		err = errortypes.ProviderError(err, "failed to create embeddings for interactions").
			WithField("interaction_count", len(req.Interactions))
		errortypes.LogError(nil, err)

		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	// Build the interest profile
	profile, err := vector.MeanVector(interactionEmbeddings)
	if err != nil {
		err = errortypes.InternalError(err, "failed to build interest profile").
			WithField("interaction_count", len(req.Interactions))
		errortypes.LogError(nil, err)

		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	// Rank communities against the profile
	results, err := s.rankEntries(profile, entries, ranker.RecommendLimit)
	if err != nil {
		err = errortypes.InternalError(err, "failed to rank communities").
			WithField("community_count", len(entries))
		errortypes.LogError(nil, err)

		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	// Set response
	response.Results = results
	slog.Info("Successfully ranked recommendations", "count", len(results))

	// Return response
	return response, nil
}

// handleDeleteCandidate handles the delete_candidate MCP tool call.
func (s *MCPRankToolServer) handleDeleteCandidate(ctx *server.Context, req tools.DeleteCandidateRequest) (tools.DeleteCandidateResponse, error) {
	slog.Info("Processing delete_candidate request", "id", req.ID)

	response := tools.DeleteCandidateResponse{
		Status: "success",
	}

	// Validate ID
	if req.ID == "" {
		err := errortypes.ValidationError(errors.New("id cannot be empty for delete_candidate"), "invalid delete_candidate request")
		errortypes.LogError(nil, err)
		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	// Delete candidate entry
	err := s.store.Delete(req.ID)
	if err != nil {
		err = errortypes.DatabaseError(err, "failed to delete candidate").
			WithField("candidate_id", req.ID)
		errortypes.LogError(nil, err)

		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	slog.Info("Successfully deleted candidate", "id", req.ID)

	// Return response
	return response, nil
}

// handleClearCandidates handles the clear_candidates MCP tool call.
func (s *MCPRankToolServer) handleClearCandidates(ctx *server.Context, req tools.ClearCandidatesRequest) (tools.ClearCandidatesResponse, error) {
	slog.Info("Processing clear_candidates request")

	response := tools.ClearCandidatesResponse{
		Status: "success",
	}

	// Check confirmation string
	if req.Confirmation != "confirm" {
		response.Status = "error"
		response.Error = "Confirmation required. Set confirmation to 'confirm' to proceed with clearing all candidates"
		slog.Warn("Clear candidates operation rejected: missing confirmation")
		return response, nil
	}

	// Clear all entries from the catalog
	err := s.store.Clear()
	if err != nil {
		err = errortypes.DatabaseError(err, "failed to clear catalog")
		errortypes.LogError(nil, err)

		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	slog.Info("Successfully cleared candidates")

	// Return response
	return response, nil
}

// rankEntries scores stored entries against a query vector and returns the
// top results, timing the pass.
func (s *MCPRankToolServer) rankEntries(query []float32, entries []catalog.Entry, topK int) ([]ranker.Scored, error) {
	start := time.Now()

	embedded := make([]ranker.Embedded, len(entries))
	for i, entry := range entries {
		embedded[i] = ranker.Embedded{
			Candidate: entry.Candidate,
			Vector:    entry.Embedding,
		}
	}

	results, err := ranker.Rank(query, embedded, topK)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTimer(telemetry.MetricRankTime, time.Since(start))
	return results, nil
}
