// Package providers contains implementations of the embedding providers
// that SemRank can resolve text embeddings from.
package providers

import (
	"context"
	"time"
)

const (
	// Provider constants
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
	ProviderVoyage = "voyage"
	ProviderMock   = "mock"

	// Default settings
	DefaultTimeout = 30 * time.Second

	// DefaultEmbeddingDimensions defines the standard size of embedding
	// vectors. 1536 is a common size for modern embedding models.
	DefaultEmbeddingDimensions = 1536
)

// Provider defines the interface for external embedding services.
type Provider interface {
	// Embed converts text into its vector representation.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Name returns the provider name
	Name() string
}

// Config holds common configuration for embedding providers
type Config struct {
	APIKey  string
	ModelID string

	// BaseURL overrides the provider endpoint, primarily for tests.
	BaseURL string

	// Dimensions is only honored by providers that generate vectors
	// locally (mock); remote providers report model-defined sizes.
	Dimensions int
}
