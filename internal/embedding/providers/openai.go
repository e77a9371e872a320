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
	openaiAPIURL = "https://api.openai.com/v1"
)

// OpenAIProvider implements the Provider interface for OpenAI's
// embedding models.
type OpenAIProvider struct {
	Config
	httpClient *http.Client
}

// OpenAIRequest represents a request to OpenAI's embeddings API
type OpenAIRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// OpenAIResponse represents a response from OpenAI's embeddings API
type OpenAIResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIProvider creates a new instance of the OpenAI provider
func NewOpenAIProvider(config Config) *OpenAIProvider {
	return &OpenAIProvider{
		Config: config,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

// Embed implements the Provider interface for OpenAI
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not provided")
	}

	// Default to text-embedding-3-small if no model specified
	model := p.ModelID
	if model == "" {
		model = "text-embedding-3-small"
	}

	baseURL := p.BaseURL
	if baseURL == "" {
		baseURL = openaiAPIURL
	}

	reqBody := OpenAIRequest{
		Model: model,
		Input: text,
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
		return nil, fmt.Errorf("error sending request to OpenAI API: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %v", err)
	}

	var openaiResponse OpenAIResponse
	if err := json.Unmarshal(respBody, &openaiResponse); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %v", err)
	}

	// Check for API error
	if openaiResponse.Error != nil {
		return nil, fmt.Errorf("OpenAI API error: %s: %s",
			openaiResponse.Error.Type, openaiResponse.Error.Message)
	}

	if len(openaiResponse.Data) == 0 || len(openaiResponse.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding in OpenAI API response")
	}

	return openaiResponse.Data[0].Embedding, nil
}
