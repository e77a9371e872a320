package providers

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"math"
)

// MockProvider is a local implementation of the Provider interface.
// It creates deterministic but simplistic embeddings, useful for tests
// and for running the service without an API key.
type MockProvider struct {
	dimensions int
}

// NewMockProvider creates a new MockProvider with the specified dimensions.
func NewMockProvider(dimensions int) *MockProvider {
	if dimensions <= 0 {
		dimensions = 128 // Default dimension
	}
	return &MockProvider{
		dimensions: dimensions,
	}
}

// Name returns the provider name
func (p *MockProvider) Name() string {
	return ProviderMock
}

// Embed generates a mock embedding for the given text. It uses a
// deterministic algorithm based on MD5 hashing so that the same text
// always produces the same embedding.
func (p *MockProvider) Embed(_ context.Context, text string) ([]float32, error) {
	embedding := make([]float32, p.dimensions)

	// Use MD5 hash of the text as a seed for the embedding
	hash := md5.Sum([]byte(text))

	for i := 0; i < p.dimensions; i++ {
		// Use 4 bytes from the hash as a seed for each dimension,
		// wrapping around the hash if needed
		hashIdx := (i * 4) % len(hash)
		seed := binary.LittleEndian.Uint32(append(hash[hashIdx:], hash[:4]...))

		// Generate a value between -1 and 1 based on the seed
		embedding[i] = float32(seed%1000)/500.0 - 1.0
	}

	normalize(embedding)

	return embedding, nil
}

// normalize scales the embedding to unit length.
func normalize(embedding []float32) {
	var sumSquares float32
	for _, val := range embedding {
		sumSquares += val * val
	}

	magnitude := float32(math.Sqrt(float64(sumSquares)))
	if magnitude == 0 {
		return
	}

	for i := range embedding {
		embedding[i] /= magnitude
	}
}
