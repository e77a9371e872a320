package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	voyageAPIURL = "https://api.voyageai.com/v1"
)

// VoyageProvider implements the Provider interface for Voyage AI's
// embedding models.
type VoyageProvider struct {
	Config
	httpClient *http.Client
}

// VoyageRequest represents a request to Voyage AI's embeddings API
type VoyageRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// VoyageResponse represents a response from Voyage AI's embeddings API
type VoyageResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Detail string `json:"detail,omitempty"`
}

// NewVoyageProvider creates a new instance of the Voyage AI provider
func NewVoyageProvider(config Config) *VoyageProvider {
	return &VoyageProvider{
		Config: config,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Name returns the provider name
func (p *VoyageProvider) Name() string {
	return ProviderVoyage
}

// Embed implements the Provider interface for Voyage AI
func (p *VoyageProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("Voyage API key not provided")
	}

	// Default to voyage-2 if no model specified
	model := p.ModelID
	if model == "" {
		model = "voyage-2"
	}

	baseURL := p.BaseURL
	if baseURL == "" {
		baseURL = voyageAPIURL
	}

	reqBody := VoyageRequest{
		Model: model,
		Input: []string{text},
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %v", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		baseURL+"/embeddings",
		strings.NewReader(string(reqJSON)),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.APIKey))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request to Voyage API: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %v", err)
	}

	var voyageResponse VoyageResponse
	if err := json.Unmarshal(respBody, &voyageResponse); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Voyage API error (status %d): %s", resp.StatusCode, voyageResponse.Detail)
	}

	if len(voyageResponse.Data) == 0 || len(voyageResponse.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding in Voyage API response")
	}

	return voyageResponse.Data[0].Embedding, nil
}
