package collection

import (
	"context"

	"github.com/techvault/skoop/domain/repository"
)

// Store persists collections and their membership links. Reads fill in
// ResourceCount.
type Store interface {
	Save(ctx context.Context, c Collection) (Collection, error)
	Update(ctx context.Context, c Collection) (Collection, error)
	Find(ctx context.Context, options ...repository.Option) ([]Collection, error)
	FindOne(ctx context.Context, options ...repository.Option) (Collection, error)
	DeleteBy(ctx context.Context, options ...repository.Option) (int64, error)
	AddResource(ctx context.Context, collectionID, resourceID string) error
	RemoveResource(ctx context.Context, collectionID, resourceID string) (bool, error)
}

// WithUserID restricts to one user's collections.
func WithUserID(userID string) repository.Option {
	return repository.WithCondition("user_id", userID)
}

// WithCollectionID selects a single collection.
func WithCollectionID(id string) repository.Option {
	return repository.WithID(id)
}

// WithNewestFirst orders by creation time, then ID, descending.
func WithNewestFirst() []repository.Option {
	return []repository.Option{repository.WithOrderDesc("created_at"), repository.WithOrderDesc("id")}
}
