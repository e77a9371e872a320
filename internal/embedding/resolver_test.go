package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/localrivet/semrank/internal/embedding/providers"
	"github.com/localrivet/semrank/internal/errortypes"
	"github.com/localrivet/semrank/internal/telemetry"
)

func TestResolverCachesByExactText(t *testing.T) {
	provider := providers.NewTestProvider("test", []float32{1, 2, 3}, nil)
	resolver := NewResolver(provider, NewCache(0), nil)

	ctx := context.Background()

	// First call misses the cache and hits the provider
	first, err := resolver.Resolve(ctx, "hello")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	// Second call for the same text must be a cache hit
	second, err := resolver.Resolve(ctx, "hello")
	if err != nil {
		t.Fatalf("Resolve() 2nd call error = %v", err)
	}

	if provider.CallCount() != 1 {
		t.Errorf("Expected exactly 1 provider call, got %d", provider.CallCount())
	}
	if len(first) != 3 || len(second) != 3 {
		t.Errorf("Unexpected vector lengths: %d, %d", len(first), len(second))
	}

	// Different text, even differing only in case, is a distinct key
	if _, err := resolver.Resolve(ctx, "Hello"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if provider.CallCount() != 2 {
		t.Errorf("Expected 2 provider calls after case-variant text, got %d", provider.CallCount())
	}
}

func TestResolverCacheMetrics(t *testing.T) {
	provider := providers.NewTestProvider("test", []float32{1, 0}, nil)
	metrics := telemetry.NewMetricsCollector()
	resolver := NewResolver(provider, NewCache(0), metrics)

	ctx := context.Background()
	if _, err := resolver.Resolve(ctx, "a"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if _, err := resolver.Resolve(ctx, "a"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if got := metrics.GetCounter(telemetry.MetricCacheMisses); got != 1 {
		t.Errorf("Expected 1 cache miss, got %d", got)
	}
	if got := metrics.GetCounter(telemetry.MetricCacheHits); got != 1 {
		t.Errorf("Expected 1 cache hit, got %d", got)
	}
}

func TestResolverProviderError(t *testing.T) {
	providerErr := errors.New("rate limited")
	provider := providers.NewTestProvider("test", nil, providerErr)
	resolver := NewResolver(provider, NewCache(0), nil)

	_, err := resolver.Resolve(context.Background(), "hello")
	if err == nil {
		t.Fatal("Expected error from failing provider, got nil")
	}
	if !errortypes.IsProviderError(err) {
		t.Errorf("Expected a provider error, got %v", err)
	}
	if !errors.Is(err, providerErr) {
		t.Errorf("Expected wrapped provider error, got %v", err)
	}
}

func TestResolveBatchPlacesResultsByIndex(t *testing.T) {
	provider := providers.NewTestProvider("test", nil, nil)
	provider.SetVector("first", []float32{1, 0, 0})
	provider.SetVector("second", []float32{0, 1, 0})
	provider.SetVector("third", []float32{0, 0, 1})

	resolver := NewResolver(provider, NewCache(0), nil)

	vectors, err := resolver.ResolveBatch(context.Background(), []string{"first", "second", "third"})
	if err != nil {
		t.Fatalf("ResolveBatch() error = %v", err)
	}

	if len(vectors) != 3 {
		t.Fatalf("Expected 3 vectors, got %d", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 || vectors[2][2] != 1 {
		t.Errorf("Vectors not placed by input index: %v", vectors)
	}
}

func TestResolveBatchAggregateFailure(t *testing.T) {
	provider := providers.NewTestProvider("test", nil, errors.New("boom"))
	resolver := NewResolver(provider, NewCache(0), nil)

	_, err := resolver.ResolveBatch(context.Background(), []string{"a", "b", "c"})
	if err == nil {
		t.Fatal("Expected aggregate error when a fetch fails, got nil")
	}
}

func TestResolveBatchEmpty(t *testing.T) {
	provider := providers.NewTestProvider("test", []float32{1}, nil)
	resolver := NewResolver(provider, NewCache(0), nil)

	vectors, err := resolver.ResolveBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("ResolveBatch() error = %v", err)
	}
	if len(vectors) != 0 {
		t.Errorf("Expected no vectors, got %d", len(vectors))
	}
	if provider.CallCount() != 0 {
		t.Errorf("Expected no provider calls, got %d", provider.CallCount())
	}
}
