package tools

import (
	"encoding/json"
	"testing"

	"github.com/localrivet/semrank/internal/ranker"
)

func TestIndexCandidateRequestMarshaling(t *testing.T) {
	req := IndexCandidateRequest{
		Kind: KindPost,
		Text: "F1 visa interview guide",
		Attrs: map[string]string{
			"title": "Visa Guide",
		},
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Failed to marshal IndexCandidateRequest: %v", err)
	}

	var jsonMap map[string]interface{}
	if err := json.Unmarshal(data, &jsonMap); err != nil {
		t.Fatalf("Failed to unmarshal JSON into map: %v", err)
	}

	if kind, ok := jsonMap["kind"].(string); !ok || kind != req.Kind {
		t.Errorf("Expected kind='%s', got '%v'", req.Kind, jsonMap["kind"])
	}
	if text, ok := jsonMap["text"].(string); !ok || text != req.Text {
		t.Errorf("Expected text='%s', got '%v'", req.Text, jsonMap["text"])
	}

	// Optional ID is omitted when empty
	if _, exists := jsonMap["id"]; exists {
		t.Errorf("Expected 'id' field to be omitted when empty")
	}

	var unmarshaledReq IndexCandidateRequest
	if err := json.Unmarshal(data, &unmarshaledReq); err != nil {
		t.Fatalf("Failed to unmarshal IndexCandidateRequest: %v", err)
	}
	if unmarshaledReq.Text != req.Text || unmarshaledReq.Attrs["title"] != "Visa Guide" {
		t.Errorf("Unmarshaled request doesn't match original: %+v vs %+v", unmarshaledReq, req)
	}
}

func TestSemanticSearchResponseMarshaling(t *testing.T) {
	resp := SemanticSearchResponse{
		Status: "success",
		Results: []ranker.Scored{
			{
				Candidate: ranker.Candidate{ID: "p1", Kind: KindPost, Text: "guide"},
				Score:     0.91,
			},
			{
				Candidate: ranker.Candidate{ID: "p2", Kind: KindPost, Text: "notes"},
				Score:     0.42,
			},
		},
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal SemanticSearchResponse: %v", err)
	}

	var jsonMap map[string]interface{}
	if err := json.Unmarshal(data, &jsonMap); err != nil {
		t.Fatalf("Failed to unmarshal JSON into map: %v", err)
	}

	if status, ok := jsonMap["status"].(string); !ok || status != resp.Status {
		t.Errorf("Expected status='%s', got '%v'", resp.Status, jsonMap["status"])
	}

	results, ok := jsonMap["results"].([]interface{})
	if !ok {
		t.Fatalf("Expected 'results' to be an array, got %T", jsonMap["results"])
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	first, ok := results[0].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected result object, got %T", results[0])
	}
	if id, ok := first["id"].(string); !ok || id != "p1" {
		t.Errorf("Expected id='p1', got '%v'", first["id"])
	}
	if score, ok := first["score"].(float64); !ok || score != 0.91 {
		t.Errorf("Expected score=0.91, got '%v'", first["score"])
	}

	// Results carry no embedding data
	for _, key := range []string{"embedding", "vector"} {
		if _, exists := first[key]; exists {
			t.Errorf("Expected '%s' to be absent from results", key)
		}
	}

	// Verify error field is omitted when empty
	if _, exists := jsonMap["error"]; exists {
		t.Errorf("Expected 'error' field to be omitted when empty")
	}
}

func TestRecommendCommunitiesRequestMarshaling(t *testing.T) {
	req := RecommendCommunitiesRequest{
		Interactions: []string{"posted about exams", "joined study group"},
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Failed to marshal RecommendCommunitiesRequest: %v", err)
	}

	var unmarshaledReq RecommendCommunitiesRequest
	if err := json.Unmarshal(data, &unmarshaledReq); err != nil {
		t.Fatalf("Failed to unmarshal RecommendCommunitiesRequest: %v", err)
	}
	if len(unmarshaledReq.Interactions) != 2 || unmarshaledReq.Interactions[0] != req.Interactions[0] {
		t.Errorf("Unmarshaled request doesn't match original: %+v vs %+v", unmarshaledReq, req)
	}
}

func TestDeleteCandidateResponseMarshaling(t *testing.T) {
	respWithError := DeleteCandidateResponse{
		Status: "error",
		Error:  "Failed to delete candidate",
	}

	data, err := json.Marshal(respWithError)
	if err != nil {
		t.Fatalf("Failed to marshal DeleteCandidateResponse: %v", err)
	}

	var jsonMap map[string]interface{}
	if err := json.Unmarshal(data, &jsonMap); err != nil {
		t.Fatalf("Failed to unmarshal JSON into map: %v", err)
	}

	if errMsg, ok := jsonMap["error"].(string); !ok || errMsg != respWithError.Error {
		t.Errorf("Expected error='%s', got '%v'", respWithError.Error, jsonMap["error"])
	}
}
