package resource

import (
	"context"

	"github.com/techvault/skoop/domain/repository"
)

// Store persists resources and their tags.
//
// Save is an upsert and is meant for new resources. Writes that follow a slow
// model call go through UpdateEmbedding and UpdateSummary, which touch only
// their own columns and report repository.ErrNotFound when the row is gone.
type Store interface {
	Save(ctx context.Context, r Resource) (Resource, error)
	Update(ctx context.Context, r Resource) (Resource, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float64, model string) (Resource, error)
	UpdateSummary(ctx context.Context, id, summary string) (Resource, error)
	Find(ctx context.Context, options ...repository.Option) ([]Resource, error)
	FindOne(ctx context.Context, options ...repository.Option) (Resource, error)
	Count(ctx context.Context, options ...repository.Option) (int64, error)
	DeleteBy(ctx context.Context, options ...repository.Option) (int64, error)
}

// WithUserID restricts to one user's resources.
func WithUserID(userID string) repository.Option {
	return repository.WithCondition("user_id", userID)
}

// WithEmbedded restricts to resources that have an embedding.
func WithEmbedded() repository.Option {
	return repository.WithNotNull("embedding")
}

// WithoutEmbedding restricts to resources still waiting for an embedding.
func WithoutEmbedding() repository.Option {
	return repository.WithNull("embedding")
}

// WithEmbeddingModel restricts to embeddings produced by model.
func WithEmbeddingModel(model string) repository.Option {
	return repository.WithCondition("embedding_model", model)
}

// WithStaleEmbedding restricts to resources embedded by a model other than model.
func WithStaleEmbedding(model string) repository.Option {
	return repository.WithWhere("(embedding IS NOT NULL AND embedding_model <> ?)", model)
}

// WithoutSummary restricts to resources still waiting for a summary.
func WithoutSummary() repository.Option {
	return repository.WithWhere("(summary IS NULL OR summary = '')")
}

// WithResourceID selects a single resource.
func WithResourceID(id string) repository.Option {
	return repository.WithID(id)
}

// WithResourceIDs selects several resources.
func WithResourceIDs(ids []string) repository.Option {
	return repository.WithIDIn(ids)
}

// WithOldestFirst orders by creation time, then ID, ascending.
func WithOldestFirst() []repository.Option {
	return []repository.Option{repository.WithOrderAsc("created_at"), repository.WithOrderAsc("id")}
}

// WithNewestFirst orders by creation time, then ID, descending.
func WithNewestFirst() []repository.Option {
	return []repository.Option{repository.WithOrderDesc("created_at"), repository.WithOrderDesc("id")}
}

// WithCollection restricts to resources filed in collection collectionID.
func WithCollection(collectionID string) repository.Option {
	return repository.WithWhere("id IN (SELECT resource_id FROM resource_collections WHERE collection_id = ?)", collectionID)
}
