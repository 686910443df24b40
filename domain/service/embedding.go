package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/techvault/skoop/domain/repository"
	"github.com/techvault/skoop/domain/resource"
)

// DefaultEmbeddingBatchSize is how many texts go to the embedder per call.
const DefaultEmbeddingBatchSize = 16

// EmbeddingOption configures an EmbeddingService.
type EmbeddingOption func(*EmbeddingService)

// WithBatchSize sets how many texts are embedded per provider call.
func WithBatchSize(n int) EmbeddingOption {
	return func(s *EmbeddingService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// EmbeddingService attaches embeddings to resources.
type EmbeddingService struct {
	store     resource.Store
	embedder  Embedder
	model     string
	batchSize int
}

// NewEmbedding creates an EmbeddingService. model names the embeddings the
// embedder produces so vectors from different models are never compared.
func NewEmbedding(store resource.Store, embedder Embedder, model string, opts ...EmbeddingOption) (*EmbeddingService, error) {
	if store == nil {
		return nil, fmt.Errorf("NewEmbedding: nil store")
	}
	if embedder == nil {
		return nil, fmt.Errorf("NewEmbedding: %w", ErrNoEmbedder)
	}
	s := &EmbeddingService{
		store:     store,
		embedder:  embedder,
		model:     model,
		batchSize: DefaultEmbeddingBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Model returns the embedding model name.
func (s *EmbeddingService) Model() string { return s.model }

// EmbedResources embeds resources in batches and stores each vector on its
// row. A failed batch leaves its resources without embeddings; the remaining
// batches still run. Resources deleted while their batch was in flight are
// skipped. It returns the resources that were embedded and a joined error
// for the batches that failed.
func (s *EmbeddingService) EmbedResources(ctx context.Context, resources []resource.Resource) ([]resource.Resource, error) {
	pending := make([]resource.Resource, 0, len(resources))
	for _, r := range resources {
		if r.EmbeddingText() != "" {
			pending = append(pending, r)
		}
	}

	var (
		embedded []resource.Resource
		errs     []error
	)
	for start := 0; start < len(pending); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return embedded, err
		}
		end := min(start+s.batchSize, len(pending))
		batch := pending[start:end]

		saved, err := s.embedBatch(ctx, batch)
		embedded = append(embedded, saved...)
		if err != nil {
			errs = append(errs, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err))
		}
	}

	if len(errs) > 0 {
		return embedded, errors.Join(errs...)
	}
	return embedded, nil
}

func (s *EmbeddingService) embedBatch(ctx context.Context, batch []resource.Resource) ([]resource.Resource, error) {
	texts := make([]string, len(batch))
	for i, r := range batch {
		texts[i] = r.EmbeddingText()
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(batch) {
		return nil, fmt.Errorf("count mismatch: got %d, expected %d", len(vectors), len(batch))
	}

	saved := make([]resource.Resource, 0, len(batch))
	for i, r := range batch {
		if len(vectors[i]) == 0 {
			return saved, fmt.Errorf("empty embedding for resource %s", r.ID())
		}
		out, err := s.store.UpdateEmbedding(ctx, r.ID(), vectors[i], s.model)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return saved, fmt.Errorf("save resource %s: %w", r.ID(), err)
		}
		saved = append(saved, out)
	}
	return saved, nil
}

// EmbedQuery embeds a search query.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("embed query: provider returned %d embeddings", len(vectors))
	}
	return vectors[0], nil
}
