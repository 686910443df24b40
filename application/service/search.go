package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/techvault/skoop/domain/repository"
	"github.com/techvault/skoop/domain/resource"
	domainservice "github.com/techvault/skoop/domain/service"
	"github.com/techvault/skoop/domain/vector"
	"github.com/techvault/skoop/internal/config"
)

// SearchResult is a resource with its relevance score.
type SearchResult struct {
	resource resource.Resource
	score    float64
}

// Resource returns the matching resource.
func (r SearchResult) Resource() resource.Resource { return r.resource }

// Score returns the similarity or keyword relevance.
func (r SearchResult) Score() float64 { return r.score }

// SearchOption configures a Search service.
type SearchOption func(*Search)

// WithSearchLimit sets the default number of results.
func WithSearchLimit(n int) SearchOption {
	return func(s *Search) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithSimilarityThreshold sets the minimum cosine similarity for semantic results.
func WithSimilarityThreshold(t float64) SearchOption {
	return func(s *Search) { s.threshold = t }
}

// Search finds a user's resources by meaning or by keyword.
type Search struct {
	store     resource.Store
	embedding *domainservice.EmbeddingService
	index     domainservice.KeywordIndex
	limit     int
	threshold float64
}

// NewSearch creates a Search service. embedding and index may be nil, which
// disables the corresponding mode.
func NewSearch(
	store resource.Store,
	embedding *domainservice.EmbeddingService,
	index domainservice.KeywordIndex,
	opts ...SearchOption,
) *Search {
	s := &Search{
		store:     store,
		embedding: embedding,
		index:     index,
		limit:     config.DefaultSearchLimit,
		threshold: config.DefaultSearchThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Semantic ranks userID's embedded resources by cosine similarity to query,
// keeping those at or above the threshold.
func (s *Search) Semantic(ctx context.Context, userID, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domainservice.ErrEmptyQuery
	}
	if s.embedding == nil {
		return nil, domainservice.ErrNoEmbedder
	}
	if limit <= 0 {
		limit = s.limit
	}

	queryVector, err := s.embedding.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	options := []repository.Option{
		resource.WithUserID(userID),
		resource.WithEmbedded(),
		resource.WithEmbeddingModel(s.embedding.Model()),
	}
	candidates, err := s.store.Find(ctx, append(options, resource.WithOldestFirst()...)...)
	if err != nil {
		return nil, fmt.Errorf("load resources: %w", err)
	}

	byID := make(map[string]resource.Resource, len(candidates))
	stored := make([]vector.Stored, len(candidates))
	for i, r := range candidates {
		byID[r.ID()] = r
		stored[i] = vector.NewStored(r.ID(), r.Embedding())
	}

	matches := vector.TopKSimilar(queryVector, stored, limit, s.threshold)
	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{resource: byID[m.ID()], score: m.Similarity()}
	}
	return results, nil
}

// Keyword runs a full-text search over userID's resources.
func (s *Search) Keyword(ctx context.Context, userID, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domainservice.ErrEmptyQuery
	}
	if s.index == nil {
		return nil, fmt.Errorf("keyword search: index not configured")
	}
	if limit <= 0 {
		limit = s.limit
	}

	hits, err := s.index.Search(ctx, userID, query, limit)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return []SearchResult{}, nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID()
	}
	found, err := s.store.Find(ctx, resource.WithUserID(userID), resource.WithResourceIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("load resources: %w", err)
	}
	byID := make(map[string]resource.Resource, len(found))
	for _, r := range found {
		byID[r.ID()] = r
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		r, ok := byID[h.ID()]
		if !ok {
			continue
		}
		results = append(results, SearchResult{resource: r, score: h.Score()})
	}
	return results, nil
}

// NewSearchResult creates a SearchResult.
func NewSearchResult(r resource.Resource, score float64) SearchResult {
	return SearchResult{resource: r, score: score}
}
