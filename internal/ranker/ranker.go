// Package ranker scores candidate items against a query or interest
// profile by embedding similarity and returns the best matches.
package ranker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/localrivet/semrank/internal/embedding"
	"github.com/localrivet/semrank/internal/telemetry"
	"github.com/localrivet/semrank/internal/vector"
)

// Result-size policy. These are product decisions fixed at the call
// sites, not caller-tunable knobs.
const (
	// SearchLimit is the number of results a semantic search returns.
	SearchLimit = 5

	// RecommendLimit is the number of communities a recommendation returns.
	RecommendLimit = 3
)

// Candidate is an item that can be scored against a query. Attrs carries
// arbitrary display attributes that pass through ranking unchanged; the
// candidate's embedding is derived from Text and never appears in output.
type Candidate struct {
	ID    string            `json:"id"`
	Kind  string            `json:"kind,omitempty"`
	Text  string            `json:"text"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// Scored is a candidate annotated with its similarity score.
type Scored struct {
	Candidate
	Score float64 `json:"score"`
}

// Embedded pairs a candidate with its resolved embedding for ranking.
type Embedded struct {
	Candidate
	Vector []float32
}

// Rank scores every candidate against the query embedding, sorts by
// score descending and returns at most topK results. The sort is stable:
// candidates with equal scores keep their input order. A candidate whose
// vector has zero magnitude is unrankable and scores 0 rather than
// failing the call; a dimension mismatch is a caller error and fails the
// whole call.
func Rank(query []float32, candidates []Embedded, topK int) ([]Scored, error) {
	if len(candidates) == 0 {
		return []Scored{}, nil
	}

	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		score, err := vector.CosineSimilarity(query, c.Vector)
		if err != nil {
			if errors.Is(err, vector.ErrZeroMagnitude) {
				score = 0
			} else {
				return nil, fmt.Errorf("failed to score candidate %s: %w", c.ID, err)
			}
		}
		scored = append(scored, Scored{Candidate: c.Candidate, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], nil
}

// Fallback returns the first topK candidates each annotated with score
// 0. It is the degenerate-input answer used when ranking is meaningless,
// and issues no embedding calls.
func Fallback(candidates []Candidate, topK int) []Scored {
	if topK > len(candidates) {
		topK = len(candidates)
	}

	results := make([]Scored, 0, topK)
	for _, c := range candidates[:topK] {
		results = append(results, Scored{Candidate: c, Score: 0})
	}
	return results
}

// Service ties the embedding resolver to the two ranking surfaces:
// semantic search and community recommendation.
type Service struct {
	resolver *embedding.Resolver
	metrics  *telemetry.MetricsCollector
}

// NewService creates a ranking service on top of the given resolver.
func NewService(resolver *embedding.Resolver, metrics *telemetry.MetricsCollector) *Service {
	if metrics == nil {
		metrics = telemetry.NewMetricsCollector()
	}
	return &Service{
		resolver: resolver,
		metrics:  metrics,
	}
}

// Search ranks candidates against a free-text query and returns the top
// SearchLimit matches. An empty candidate list returns an empty result
// without resolving anything.
func (s *Service) Search(ctx context.Context, query string, candidates []Candidate) ([]Scored, error) {
	s.metrics.IncrementCounter(telemetry.MetricSearchRequests, 1)

	if len(candidates) == 0 {
		return []Scored{}, nil
	}

	start := time.Now()
	defer func() {
		s.metrics.RecordTimer(telemetry.MetricRankTime, time.Since(start))
	}()

	queryVector, err := s.resolver.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}

	embedded, err := s.embedCandidates(ctx, candidates)
	if err != nil {
		return nil, err
	}

	return Rank(queryVector, embedded, SearchLimit)
}

// Recommend ranks candidate communities against an interest profile
// derived from the user's recent interactions, returning the top
// RecommendLimit matches. With no interactions or no candidates there is
// no signal to rank on, so the first RecommendLimit candidates come back
// with score 0 and no embedding calls are made.
func (s *Service) Recommend(ctx context.Context, interactions []string, candidates []Candidate) ([]Scored, error) {
	s.metrics.IncrementCounter(telemetry.MetricRecommendRequests, 1)

	if len(interactions) == 0 || len(candidates) == 0 {
		s.metrics.IncrementCounter(telemetry.MetricRecommendFallback, 1)
		return Fallback(candidates, RecommendLimit), nil
	}

	start := time.Now()
	defer func() {
		s.metrics.RecordTimer(telemetry.MetricRankTime, time.Since(start))
	}()

	interactionVectors, err := s.resolver.ResolveBatch(ctx, interactions)
	if err != nil {
		return nil, err
	}

	profile, err := vector.MeanVector(interactionVectors)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate interest profile: %w", err)
	}

	embedded, err := s.embedCandidates(ctx, candidates)
	if err != nil {
		return nil, err
	}

	return Rank(profile, embedded, RecommendLimit)
}

// embedCandidates resolves embeddings for all candidate texts with a
// single concurrent fan-out.
func (s *Service) embedCandidates(ctx context.Context, candidates []Candidate) ([]Embedded, error) {
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}

	vectors, err := s.resolver.ResolveBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	embedded := make([]Embedded, len(candidates))
	for i, c := range candidates {
		embedded[i] = Embedded{Candidate: c, Vector: vectors[i]}
	}
	return embedded, nil
}
