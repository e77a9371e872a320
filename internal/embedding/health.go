package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/localrivet/semrank/internal/embedding/providers"
	"github.com/localrivet/semrank/internal/telemetry"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	// StatusHealthy indicates a component is fully operational
	StatusHealthy HealthStatus = "healthy"

	// StatusDegraded indicates a component is operational but with reduced capability
	StatusDegraded HealthStatus = "degraded"

	// StatusUnhealthy indicates a component is not operational
	StatusUnhealthy HealthStatus = "unhealthy"
)

const healthProbeText = "This is a brief health check for the embedding provider."

// HealthReport contains information about the current health of the
// embedding resolver and its providers.
type HealthReport struct {
	Status        HealthStatus       `json:"status"`
	Timestamp     time.Time          `json:"timestamp"`
	Providers     map[string]bool    `json:"providers"`
	ResponseTimes map[string]float64 `json:"response_times_ms"`
	CacheStats    map[string]int64   `json:"cache_stats"`
	SuccessRate   float64            `json:"success_rate"`
	TotalRequests int64              `json:"total_requests"`
}

// CheckProviderHealth probes each provider with a short embedding
// request and records the result as a health gauge.
func CheckProviderHealth(ctx context.Context, checked []providers.Provider, metrics *telemetry.MetricsCollector) map[string]bool {
	results := make(map[string]bool)

	for _, provider := range checked {
		providerName := provider.Name()
		if _, alreadyChecked := results[providerName]; alreadyChecked {
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := provider.Embed(probeCtx, healthProbeText)
		cancel()

		results[providerName] = (err == nil)

		if metrics != nil {
			switch providerName {
			case providers.ProviderOpenAI:
				metrics.SetGauge(telemetry.MetricProviderHealthOpenAI, boolToFloat64(results[providerName]))
			case providers.ProviderGoogle:
				metrics.SetGauge(telemetry.MetricProviderHealthGoogle, boolToFloat64(results[providerName]))
			case providers.ProviderVoyage:
				metrics.SetGauge(telemetry.MetricProviderHealthVoyage, boolToFloat64(results[providerName]))
			}
		}
	}

	return results
}

// CreateHealthReport generates a health report for the given resolver.
func CreateHealthReport(ctx context.Context, resolver *Resolver) (*HealthReport, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver is nil")
	}

	m := resolver.Metrics()

	providerHealth := CheckProviderHealth(ctx, []providers.Provider{resolver.Provider()}, m)

	// Determine overall status
	status := StatusHealthy
	workingProviders := 0
	for _, isHealthy := range providerHealth {
		if isHealthy {
			workingProviders++
		}
	}

	if workingProviders == 0 {
		status = StatusUnhealthy
	} else if workingProviders < len(providerHealth) {
		status = StatusDegraded
	}

	// Calculate success rate
	totalSuccess := m.GetCounter(telemetry.MetricAPICallsSuccess)
	totalFailure := m.GetCounter(telemetry.MetricAPICallsFailure)
	totalRequests := totalSuccess + totalFailure

	var successRate float64
	if totalRequests > 0 {
		successRate = float64(totalSuccess) / float64(totalRequests) * 100.0
	}

	responseTimes := map[string]float64{
		"openai": float64(m.GetTimerAverage(telemetry.MetricResponseTimeOpenAI)) / float64(time.Millisecond),
		"google": float64(m.GetTimerAverage(telemetry.MetricResponseTimeGoogle)) / float64(time.Millisecond),
		"voyage": float64(m.GetTimerAverage(telemetry.MetricResponseTimeVoyage)) / float64(time.Millisecond),
	}

	cacheStats := map[string]int64{
		"hits":   m.GetCounter(telemetry.MetricCacheHits),
		"misses": m.GetCounter(telemetry.MetricCacheMisses),
		"size":   int64(m.GetGauge(telemetry.MetricCacheSize)),
	}

	return &HealthReport{
		Status:        status,
		Timestamp:     time.Now(),
		Providers:     providerHealth,
		ResponseTimes: responseTimes,
		CacheStats:    cacheStats,
		SuccessRate:   successRate,
		TotalRequests: totalRequests,
	}, nil
}

// CreateHealthReportJSON generates a JSON health report for the resolver.
func CreateHealthReportJSON(ctx context.Context, resolver *Resolver) (string, error) {
	report, err := CreateHealthReport(ctx, resolver)
	if err != nil {
		return "", err
	}

	reportJSON, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal health report: %w", err)
	}

	return string(reportJSON), nil
}

// boolToFloat64 converts a boolean to a float64 (1.0 for true, 0.0 for false)
func boolToFloat64(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
