package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// MockResponseConfig holds configuration for mock API responses
type MockResponseConfig struct {
	StatusCode   int
	ResponseBody interface{}
	Headers      map[string]string
}

// MockServer creates a test server that returns the configured response
func MockServer(t *testing.T, config MockResponseConfig) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Set headers
		for k, v := range config.Headers {
			w.Header().Set(k, v)
		}

		// Always set content type if not explicitly set
		if _, exists := config.Headers["Content-Type"]; !exists {
			w.Header().Set("Content-Type", "application/json")
		}

		// Set status code
		w.WriteHeader(config.StatusCode)

		// Write response body
		if config.ResponseBody != nil {
			var respBytes []byte
			var err error

			switch body := config.ResponseBody.(type) {
			case string:
				respBytes = []byte(body)
			case []byte:
				respBytes = body
			default:
				respBytes, err = json.Marshal(body)
				if err != nil {
					t.Fatalf("Failed to marshal mock response: %v", err)
				}
			}

			if _, err := w.Write(respBytes); err != nil {
				t.Fatalf("Failed to write response body: %v", err)
			}
		}
	}))
}

// TestProvider is a simple implementation of Provider for testing. It
// returns a fixed vector per text (falling back to a default vector) and
// counts how many times Embed was called, so tests can assert on cache
// behavior deterministically.
type TestProvider struct {
	name          string
	returnError   error
	defaultVector []float32
	vectors       map[string][]float32
	mu            sync.Mutex
	callCount     int
	callsByText   map[string]int
}

// NewTestProvider creates a new TestProvider returning the given default
// vector for every text.
func NewTestProvider(name string, defaultVector []float32, returnError error) *TestProvider {
	return &TestProvider{
		name:          name,
		defaultVector: defaultVector,
		returnError:   returnError,
		vectors:       make(map[string][]float32),
		callsByText:   make(map[string]int),
	}
}

// SetVector configures the vector returned for a specific text.
func (p *TestProvider) SetVector(text string, vector []float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vectors[text] = vector
}

// Name returns the provider name
func (p *TestProvider) Name() string {
	return p.name
}

// Embed returns the configured vector or error, counting the call
func (p *TestProvider) Embed(_ context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.callCount++
	p.callsByText[text]++

	if p.returnError != nil {
		return nil, p.returnError
	}

	if v, ok := p.vectors[text]; ok {
		return v, nil
	}
	return p.defaultVector, nil
}

// CallCount returns the total number of Embed calls
func (p *TestProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.callCount
}

// CallsFor returns the number of Embed calls made for a specific text
func (p *TestProvider) CallsFor(text string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.callsByText[text]
}
