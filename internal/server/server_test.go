package server

import (
	"errors"
	"testing"
	"time"

	"github.com/localrivet/semrank/internal/catalog"
	"github.com/localrivet/semrank/internal/embedding"
	"github.com/localrivet/semrank/internal/embedding/providers"
	"github.com/localrivet/semrank/internal/ranker"
	"github.com/localrivet/semrank/internal/telemetry"
	"github.com/localrivet/semrank/internal/tools"
)

var testError = errors.New("test error")

// MockCatalog implements the catalog.Store interface for testing
type MockCatalog struct {
	Entries     []catalog.Entry
	PutIDs      []string
	DeletedIDs  []string
	ClearedAll  bool
	ReturnError bool
}

func (m *MockCatalog) Initialize(dbPath string) error {
	if m.ReturnError {
		return testError
	}
	return nil
}

func (m *MockCatalog) Close() error {
	if m.ReturnError {
		return testError
	}
	return nil
}

func (m *MockCatalog) Put(candidate ranker.Candidate, embeddingVec []float32, indexedAt time.Time) error {
	if m.ReturnError {
		return testError
	}
	m.PutIDs = append(m.PutIDs, candidate.ID)
	m.Entries = append(m.Entries, catalog.Entry{
		Candidate: candidate,
		Embedding: embeddingVec,
		IndexedAt: indexedAt,
	})
	return nil
}

func (m *MockCatalog) Get(id string) (*catalog.Entry, error) {
	if m.ReturnError {
		return nil, testError
	}
	for i := range m.Entries {
		if m.Entries[i].Candidate.ID == id {
			return &m.Entries[i], nil
		}
	}
	return nil, nil
}

func (m *MockCatalog) Delete(id string) error {
	if m.ReturnError {
		return testError
	}
	m.DeletedIDs = append(m.DeletedIDs, id)
	return nil
}

func (m *MockCatalog) Clear() error {
	if m.ReturnError {
		return testError
	}
	m.ClearedAll = true
	m.Entries = nil
	return nil
}

func (m *MockCatalog) List(kind string) ([]catalog.Entry, error) {
	if m.ReturnError {
		return nil, testError
	}
	if kind == "" {
		return m.Entries, nil
	}
	var filtered []catalog.Entry
	for _, entry := range m.Entries {
		if entry.Candidate.Kind == kind {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}

func newTestServer(t *testing.T, store catalog.Store, provider providers.Provider) *MCPRankToolServer {
	t.Helper()

	resolver := embedding.NewResolver(provider, embedding.NewCache(0), nil)
	srv := NewRankToolServer(store, resolver, telemetry.NewMetricsCollector())
	if err := srv.Initialize(); err != nil {
		t.Fatalf("Failed to initialize server: %v", err)
	}
	return srv
}

func communityEntry(id, text string, embeddingVec []float32) catalog.Entry {
	return catalog.Entry{
		Candidate: ranker.Candidate{ID: id, Kind: tools.KindCommunity, Text: text},
		Embedding: embeddingVec,
	}
}

func postEntry(id, text string, embeddingVec []float32) catalog.Entry {
	return catalog.Entry{
		Candidate: ranker.Candidate{ID: id, Kind: tools.KindPost, Text: text},
		Embedding: embeddingVec,
	}
}

// TestIndexCandidate tests the index_candidate tool handler
func TestIndexCandidate(t *testing.T) {
	mockStore := &MockCatalog{}
	provider := providers.NewTestProvider("test", []float32{0.1, 0.2, 0.3}, nil)

	srv := newTestServer(t, mockStore, provider)

	req := tools.IndexCandidateRequest{
		Kind: tools.KindPost,
		Text: "F1 visa interview guide",
		Attrs: map[string]string{
			"title": "Visa Guide",
		},
	}

	response, err := srv.handleIndexCandidate(nil, req)
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}

	if response.Status != "success" {
		t.Errorf("Expected status 'success', got '%s'", response.Status)
	}
	if response.ID == "" {
		t.Error("Expected non-empty ID")
	}

	if len(mockStore.PutIDs) != 1 {
		t.Fatalf("Expected 1 stored candidate, got %d", len(mockStore.PutIDs))
	}
	if mockStore.Entries[0].Candidate.Text != req.Text {
		t.Errorf("Expected text '%s', got '%s'", req.Text, mockStore.Entries[0].Candidate.Text)
	}
	if mockStore.Entries[0].Candidate.Attrs["title"] != "Visa Guide" {
		t.Errorf("Attrs not stored: %v", mockStore.Entries[0].Candidate.Attrs)
	}
}

// TestIndexCandidateKeepsCallerID tests that a caller-supplied ID is preserved
func TestIndexCandidateKeepsCallerID(t *testing.T) {
	mockStore := &MockCatalog{}
	provider := providers.NewTestProvider("test", []float32{1, 0}, nil)

	srv := newTestServer(t, mockStore, provider)

	req := tools.IndexCandidateRequest{
		ID:   "post-42",
		Kind: tools.KindPost,
		Text: "campus parking rules",
	}

	response, err := srv.handleIndexCandidate(nil, req)
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}
	if response.ID != "post-42" {
		t.Errorf("Expected caller-supplied ID to be kept, got '%s'", response.ID)
	}
}

// TestIndexCandidateEmptyText tests validation of the text field
func TestIndexCandidateEmptyText(t *testing.T) {
	mockStore := &MockCatalog{}
	provider := providers.NewTestProvider("test", []float32{1, 0}, nil)

	srv := newTestServer(t, mockStore, provider)

	response, err := srv.handleIndexCandidate(nil, tools.IndexCandidateRequest{Kind: tools.KindPost})
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}
	if response.Status != "error" {
		t.Errorf("Expected status 'error', got '%s'", response.Status)
	}
	if provider.CallCount() != 0 {
		t.Errorf("Expected no provider calls for invalid request, got %d", provider.CallCount())
	}
}

// TestSemanticSearch tests the semantic_search tool handler
func TestSemanticSearch(t *testing.T) {
	mockStore := &MockCatalog{
		Entries: []catalog.Entry{
			postEntry("p1", "F1 visa interview guide", []float32{0.9, 0.1, 0}),
			postEntry("p2", "best pizza near campus", []float32{0, 0.1, 0.95}),
		},
	}

	provider := providers.NewTestProvider("test", nil, nil)
	provider.SetVector("visa tips", []float32{0.85, 0.2, 0})

	srv := newTestServer(t, mockStore, provider)

	req := tools.SemanticSearchRequest{Query: "visa tips"}

	response, err := srv.handleSemanticSearch(nil, req)
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}

	if response.Status != "success" {
		t.Errorf("Expected status 'success', got '%s'", response.Status)
	}
	if len(response.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(response.Results))
	}
	if response.Results[0].ID != "p1" {
		t.Errorf("Expected p1 ranked first, got '%s'", response.Results[0].ID)
	}
	if response.Results[0].Score <= response.Results[1].Score {
		t.Errorf("Expected descending scores: %f vs %f",
			response.Results[0].Score, response.Results[1].Score)
	}
}

// TestSemanticSearchEmptyCatalog tests search with nothing indexed
func TestSemanticSearchEmptyCatalog(t *testing.T) {
	mockStore := &MockCatalog{}
	provider := providers.NewTestProvider("test", []float32{1, 0}, nil)

	srv := newTestServer(t, mockStore, provider)

	response, err := srv.handleSemanticSearch(nil, tools.SemanticSearchRequest{Query: "anything"})
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}

	if response.Status != "success" {
		t.Errorf("Expected status 'success', got '%s'", response.Status)
	}
	if len(response.Results) != 0 {
		t.Errorf("Expected empty results, got %d", len(response.Results))
	}
	if provider.CallCount() != 0 {
		t.Errorf("Expected no provider calls for empty catalog, got %d", provider.CallCount())
	}
}

// TestRecommendCommunities tests the recommend_communities tool handler
func TestRecommendCommunities(t *testing.T) {
	mockStore := &MockCatalog{
		Entries: []catalog.Entry{
			communityEntry("food", "Campus Food community", []float32{0, 1}),
			communityEntry("study", "Study Hall community", []float32{0.9, 0.1}),
		},
	}

	provider := providers.NewTestProvider("test", nil, nil)
	provider.SetVector("posted about exams", []float32{1, 0})
	provider.SetVector("joined study group", []float32{0.8, 0.2})

	srv := newTestServer(t, mockStore, provider)

	req := tools.RecommendCommunitiesRequest{
		Interactions: []string{"posted about exams", "joined study group"},
	}

	response, err := srv.handleRecommendCommunities(nil, req)
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}

	if response.Status != "success" {
		t.Errorf("Expected status 'success', got '%s'", response.Status)
	}
	if len(response.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(response.Results))
	}
	if response.Results[0].ID != "study" {
		t.Errorf("Expected study community first, got '%s'", response.Results[0].ID)
	}
}

// TestRecommendCommunitiesFallback tests the cold-start path
func TestRecommendCommunitiesFallback(t *testing.T) {
	mockStore := &MockCatalog{
		Entries: []catalog.Entry{
			communityEntry("a", "A", []float32{1, 0}),
			communityEntry("b", "B", []float32{0, 1}),
			communityEntry("c", "C", []float32{1, 1}),
			communityEntry("d", "D", []float32{0, 0}),
		},
	}
	provider := providers.NewTestProvider("test", []float32{1, 0}, nil)

	srv := newTestServer(t, mockStore, provider)

	response, err := srv.handleRecommendCommunities(nil, tools.RecommendCommunitiesRequest{})
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}

	if response.Status != "success" {
		t.Errorf("Expected status 'success', got '%s'", response.Status)
	}
	if len(response.Results) != ranker.RecommendLimit {
		t.Fatalf("Expected %d fallback results, got %d", ranker.RecommendLimit, len(response.Results))
	}
	for i, want := range []string{"a", "b", "c"} {
		if response.Results[i].ID != want || response.Results[i].Score != 0 {
			t.Errorf("Expected %s with score 0 at %d, got %s score %f",
				want, i, response.Results[i].ID, response.Results[i].Score)
		}
	}
	if provider.CallCount() != 0 {
		t.Errorf("Fallback must not call the provider, got %d calls", provider.CallCount())
	}
	if got := srv.metrics.GetCounter(telemetry.MetricRecommendFallback); got != 1 {
		t.Errorf("Expected 1 fallback counted, got %d", got)
	}
}

// TestDeleteCandidate tests the delete_candidate tool handler
func TestDeleteCandidate(t *testing.T) {
	mockStore := &MockCatalog{}
	provider := providers.NewTestProvider("test", []float32{1, 0}, nil)

	srv := newTestServer(t, mockStore, provider)

	response, err := srv.handleDeleteCandidate(nil, tools.DeleteCandidateRequest{ID: "p1"})
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}

	if response.Status != "success" {
		t.Errorf("Expected status 'success', got '%s'", response.Status)
	}
	if len(mockStore.DeletedIDs) != 1 || mockStore.DeletedIDs[0] != "p1" {
		t.Errorf("Expected p1 deleted, got %v", mockStore.DeletedIDs)
	}

	// Missing ID is rejected
	response, err = srv.handleDeleteCandidate(nil, tools.DeleteCandidateRequest{})
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}
	if response.Status != "error" {
		t.Errorf("Expected status 'error' for empty ID, got '%s'", response.Status)
	}
}

// TestClearCandidates tests the clear_candidates tool handler
func TestClearCandidates(t *testing.T) {
	mockStore := &MockCatalog{
		Entries: []catalog.Entry{postEntry("p1", "a", []float32{1})},
	}
	provider := providers.NewTestProvider("test", []float32{1, 0}, nil)

	srv := newTestServer(t, mockStore, provider)

	// Without confirmation the catalog is untouched
	response, err := srv.handleClearCandidates(nil, tools.ClearCandidatesRequest{})
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}
	if response.Status != "error" {
		t.Errorf("Expected status 'error' without confirmation, got '%s'", response.Status)
	}
	if mockStore.ClearedAll {
		t.Error("Catalog should not be cleared without confirmation")
	}

	// With confirmation everything goes
	response, err = srv.handleClearCandidates(nil, tools.ClearCandidatesRequest{Confirmation: "confirm"})
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}
	if response.Status != "success" {
		t.Errorf("Expected status 'success', got '%s'", response.Status)
	}
	if !mockStore.ClearedAll {
		t.Error("Expected catalog to be cleared")
	}
}

// TestErrorHandling tests error handling in the tool handlers
func TestErrorHandling(t *testing.T) {
	testCases := []struct {
		name          string
		storeError    bool
		providerError bool
		tool          string
	}{
		{"Store Error Index", true, false, "index"},
		{"Provider Error Index", false, true, "index"},
		{"Store Error Search", true, false, "search"},
		{"Provider Error Search", false, true, "search"},
		{"Store Error Recommend", true, false, "recommend"},
		{"Provider Error Recommend", false, true, "recommend"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockStore := &MockCatalog{
				Entries: []catalog.Entry{
					postEntry("p1", "a", []float32{1, 0}),
					communityEntry("c1", "b", []float32{0, 1}),
				},
				ReturnError: tc.storeError,
			}

			var providerErr error
			if tc.providerError {
				providerErr = testError
			}
			provider := providers.NewTestProvider("test", []float32{1, 0}, providerErr)

			srv := newTestServer(t, mockStore, provider)

			var status, errMsg string
			switch tc.tool {
			case "index":
				response, err := srv.handleIndexCandidate(nil, tools.IndexCandidateRequest{
					Kind: tools.KindPost,
					Text: "error test candidate",
				})
				if err != nil {
					t.Fatalf("Handler should not return error: %v", err)
				}
				status, errMsg = response.Status, response.Error
			case "search":
				response, err := srv.handleSemanticSearch(nil, tools.SemanticSearchRequest{
					Query: "error test query",
				})
				if err != nil {
					t.Fatalf("Handler should not return error: %v", err)
				}
				status, errMsg = response.Status, response.Error
			case "recommend":
				response, err := srv.handleRecommendCommunities(nil, tools.RecommendCommunitiesRequest{
					Interactions: []string{"error test interaction"},
				})
				if err != nil {
					t.Fatalf("Handler should not return error: %v", err)
				}
				status, errMsg = response.Status, response.Error
			}

			if status != "error" {
				t.Errorf("Expected status 'error', got '%s'", status)
			}
			if errMsg == "" {
				t.Error("Expected non-empty error message")
			}
		})
	}
}
