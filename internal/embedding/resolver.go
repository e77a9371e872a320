package embedding

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/localrivet/semrank/internal/embedding/providers"
	"github.com/localrivet/semrank/internal/errortypes"
	"github.com/localrivet/semrank/internal/telemetry"
)

// Resolver obtains embedding vectors for text, consulting its cache
// before calling the configured provider. The cache is injected rather
// than process-global so tests can supply isolated instances and assert
// on provider call counts.
type Resolver struct {
	provider providers.Provider
	cache    *Cache
	metrics  *telemetry.MetricsCollector
}

// NewResolver creates a Resolver using the given provider and cache.
// A nil cache gets an unbounded one; a nil metrics collector gets a
// private one.
func NewResolver(provider providers.Provider, cache *Cache, metrics *telemetry.MetricsCollector) *Resolver {
	if cache == nil {
		cache = NewCache(0)
	}
	if metrics == nil {
		metrics = telemetry.NewMetricsCollector()
	}
	return &Resolver{
		provider: provider,
		cache:    cache,
		metrics:  metrics,
	}
}

// Provider returns the resolver's underlying provider.
func (r *Resolver) Provider() providers.Provider {
	return r.provider
}

// Metrics returns the metrics collector for this resolver.
func (r *Resolver) Metrics() *telemetry.MetricsCollector {
	return r.metrics
}

// Resolve returns the embedding for the given text. A cache hit returns
// the stored vector without touching the provider; a miss calls the
// provider exactly once and caches the result. Provider failures are
// wrapped as provider errors and are not retried here.
func (r *Resolver) Resolve(ctx context.Context, text string) ([]float32, error) {
	if vector, ok := r.cache.Get(text); ok {
		r.metrics.IncrementCounter(telemetry.MetricCacheHits, 1)
		return vector, nil
	}
	r.metrics.IncrementCounter(telemetry.MetricCacheMisses, 1)

	r.countProviderCall()

	start := time.Now()
	vector, err := r.provider.Embed(ctx, text)
	if err != nil {
		r.metrics.IncrementCounter(telemetry.MetricAPICallsFailure, 1)
		return nil, errortypes.ProviderError(err, "failed to create embedding").
			WithField("provider", r.provider.Name()).
			WithField("text_length", len(text))
	}
	r.metrics.IncrementCounter(telemetry.MetricAPICallsSuccess, 1)
	r.recordResponseTime(time.Since(start))

	r.cache.Put(text, vector)
	r.metrics.SetGauge(telemetry.MetricCacheSize, float64(r.cache.Len()))

	return vector, nil
}

// ResolveBatch resolves embeddings for all texts concurrently: every
// request is issued up front, then awaited, so the wall-clock cost of a
// batch is roughly one round trip rather than one per text. Results are
// placed by input index, which keeps the output order independent of
// response-arrival order. If any resolution fails, the whole batch fails
// with that error.
func (r *Resolver) ResolveBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	for i, text := range texts {
		g.Go(func() error {
			vector, err := r.Resolve(ctx, text)
			if err != nil {
				return err
			}
			vectors[i] = vector
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return vectors, nil
}

func (r *Resolver) countProviderCall() {
	switch r.provider.Name() {
	case providers.ProviderOpenAI:
		r.metrics.IncrementCounter(telemetry.MetricAPICallsOpenAI, 1)
	case providers.ProviderGoogle:
		r.metrics.IncrementCounter(telemetry.MetricAPICallsGoogle, 1)
	case providers.ProviderVoyage:
		r.metrics.IncrementCounter(telemetry.MetricAPICallsVoyage, 1)
	case providers.ProviderMock:
		r.metrics.IncrementCounter(telemetry.MetricAPICallsMock, 1)
	}
}

func (r *Resolver) recordResponseTime(elapsed time.Duration) {
	switch r.provider.Name() {
	case providers.ProviderOpenAI:
		r.metrics.RecordTimer(telemetry.MetricResponseTimeOpenAI, elapsed)
	case providers.ProviderGoogle:
		r.metrics.RecordTimer(telemetry.MetricResponseTimeGoogle, elapsed)
	case providers.ProviderVoyage:
		r.metrics.RecordTimer(telemetry.MetricResponseTimeVoyage, elapsed)
	}
}
