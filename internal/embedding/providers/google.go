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
	googleAPIURL = "https://generativelanguage.googleapis.com/v1beta/models"
)

// GoogleProvider implements the Provider interface for Google's Gemini
// embedding models.
type GoogleProvider struct {
	Config
	httpClient *http.Client
}

// GoogleRequest represents a request to Google's embedContent API
type GoogleRequest struct {
	Model   string `json:"model"`
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

// GoogleResponse represents a response from Google's embedContent API
type GoogleResponse struct {
	Embedding *struct {
		Values []float32 `json:"values"`
	} `json:"embedding,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// NewGoogleProvider creates a new instance of the Google provider
func NewGoogleProvider(config Config) *GoogleProvider {
	return &GoogleProvider{
		Config: config,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Name returns the provider name
func (p *GoogleProvider) Name() string {
	return ProviderGoogle
}

// Embed implements the Provider interface for Google
func (p *GoogleProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("Google API key not provided")
	}

	// Default to text-embedding-004 if no model specified
	model := p.ModelID
	if model == "" {
		model = "text-embedding-004"
	}

	baseURL := p.BaseURL
	if baseURL == "" {
		baseURL = googleAPIURL
	}

	reqBody := GoogleRequest{
		Model: "models/" + model,
	}
	reqBody.Content.Parts = []struct {
		Text string `json:"text"`
	}{
		{Text: text},
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %v", err)
	}

	url := fmt.Sprintf("%s/%s:embedContent?key=%s", baseURL, model, p.APIKey)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		url,
		strings.NewReader(string(reqJSON)),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request to Google API: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %v", err)
	}

	var googleResponse GoogleResponse
	if err := json.Unmarshal(respBody, &googleResponse); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %v", err)
	}

	// Check for API error
	if googleResponse.Error != nil {
		return nil, fmt.Errorf("Google API error: %s: %s",
			googleResponse.Error.Status, googleResponse.Error.Message)
	}

	if googleResponse.Embedding == nil || len(googleResponse.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding in Google API response")
	}

	return googleResponse.Embedding.Values, nil
}
