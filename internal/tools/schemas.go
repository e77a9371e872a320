// Package tools defines the interfaces and data structures
// for the SemRank service.
package tools

import (
	"github.com/localrivet/semrank/internal/ranker"
)

const (
	// ToolIndexCandidate is the name of the index_candidate MCP tool
	ToolIndexCandidate = "index_candidate"

	// ToolSemanticSearch is the name of the semantic_search MCP tool
	ToolSemanticSearch = "semantic_search"

	// ToolRecommendCommunities is the name of the recommend_communities MCP tool
	ToolRecommendCommunities = "recommend_communities"

	// ToolDeleteCandidate is the name of the delete_candidate MCP tool
	ToolDeleteCandidate = "delete_candidate"

	// ToolClearCandidates is the name of the clear_candidates MCP tool
	ToolClearCandidates = "clear_candidates"

	// KindPost is the candidate kind used for searchable posts
	KindPost = "post"

	// KindCommunity is the candidate kind used for recommendable communities
	KindCommunity = "community"
)

// IndexCandidateRequest defines the input schema for index_candidate tool
type IndexCandidateRequest struct {
	// ID is an optional identifier for the candidate. When empty, the
	// server derives one from the candidate text.
	ID string `json:"id,omitempty"`

	// Kind classifies the candidate ("post" or "community")
	Kind string `json:"kind"`

	// Text is the content the candidate is embedded and ranked by
	Text string `json:"text"`

	// Attrs carries display attributes returned untouched with results
	Attrs map[string]string `json:"attrs,omitempty"`
}

// IndexCandidateResponse defines the output schema for index_candidate tool
type IndexCandidateResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// ID is the identifier the candidate was stored under
	ID string `json:"id"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// SemanticSearchRequest defines the input schema for semantic_search tool
type SemanticSearchRequest struct {
	// Query is the free-text search query
	Query string `json:"query"`

	// Kind restricts the search to candidates of this kind.
	// If not specified, KindPost is used.
	Kind string `json:"kind,omitempty"`
}

// SemanticSearchResponse defines the output schema for semantic_search tool
type SemanticSearchResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Results contains the matching candidates, best first
	Results []ranker.Scored `json:"results"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// RecommendCommunitiesRequest defines the input schema for
// recommend_communities tool
type RecommendCommunitiesRequest struct {
	// Interactions are texts describing the user's recent activity
	Interactions []string `json:"interactions"`
}

// RecommendCommunitiesResponse defines the output schema for
// recommend_communities tool
type RecommendCommunitiesResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Results contains the recommended communities, best first
	Results []ranker.Scored `json:"results"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// DeleteCandidateRequest defines the input schema for delete_candidate tool
type DeleteCandidateRequest struct {
	// ID is the unique identifier of the candidate to delete
	ID string `json:"id"`
}

// DeleteCandidateResponse defines the output schema for delete_candidate tool
type DeleteCandidateResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// ClearCandidatesRequest defines the input schema for clear_candidates tool
type ClearCandidatesRequest struct {
	// Confirmation is a required field to confirm the operation
	// Must be set to "confirm" to prevent accidental clearing
	Confirmation string `json:"confirmation"`
}

// ClearCandidatesResponse defines the output schema for clear_candidates tool
type ClearCandidatesResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}
