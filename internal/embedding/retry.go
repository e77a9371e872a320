package embedding

import (
	"context"
	"errors"
	"time"

	"github.com/localrivet/semrank/internal/embedding/providers"
	"github.com/localrivet/semrank/internal/telemetry"
)

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 2 * time.Second
)

// ErrContextCanceled is returned when a retry loop is abandoned because
// the caller's context ended.
var ErrContextCanceled = errors.New("context canceled")

// RetryProvider wraps a provider with a bounded retry loop. Retries are
// strictly opt-in: the resolver never retries on its own, and nothing in
// the service constructs a RetryProvider unless explicitly configured.
type RetryProvider struct {
	provider   providers.Provider
	maxRetries int
	retryDelay time.Duration
	metrics    *telemetry.MetricsCollector
}

// NewRetryProvider wraps the given provider. maxRetries is the number of
// additional attempts after the first; non-positive values take the
// defaults.
func NewRetryProvider(provider providers.Provider, maxRetries int, retryDelay time.Duration, metrics *telemetry.MetricsCollector) *RetryProvider {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	if metrics == nil {
		metrics = telemetry.NewMetricsCollector()
	}
	return &RetryProvider{
		provider:   provider,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		metrics:    metrics,
	}
}

// Name returns the wrapped provider's name
func (p *RetryProvider) Name() string {
	return p.provider.Name()
}

// Embed attempts the wrapped provider, retrying with linear backoff on
// failure up to maxRetries additional attempts.
func (p *RetryProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		// Check if context is canceled before making the attempt
		select {
		case <-ctx.Done():
			return nil, ErrContextCanceled
		default:
		}

		if attempt > 0 {
			p.metrics.IncrementCounter(telemetry.MetricRetryAttempts, 1)

			// Wait before retry, backing off with each attempt
			select {
			case <-ctx.Done():
				return nil, ErrContextCanceled
			case <-time.After(p.retryDelay * time.Duration(attempt)):
			}
		}

		vector, err := p.provider.Embed(ctx, text)
		if err == nil {
			if attempt > 0 {
				p.metrics.IncrementCounter(telemetry.MetricRetrySuccess, 1)
			}
			return vector, nil
		}

		lastErr = err
	}

	return nil, lastErr
}
