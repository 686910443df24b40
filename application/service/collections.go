package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/techvault/skoop/domain/collection"
	"github.com/techvault/skoop/domain/repository"
	"github.com/techvault/skoop/domain/resource"
)

// CollectionParams holds the fields of a new collection.
type CollectionParams struct {
	Name        string
	Description string
	Public      bool
}

// CollectionUpdateParams holds the fields of a collection edit. Nil fields
// are left as they are.
type CollectionUpdateParams struct {
	Name        *string
	Description *string
	Public      *bool
}

// Collections manages the groups users file their resources into. Every
// operation is scoped to the calling user: another user's collection or
// resource is reported as not found.
type Collections struct {
	store     collection.Store
	resources resource.Store
	logger    *slog.Logger
}

// NewCollections creates a Collections service.
func NewCollections(store collection.Store, resources resource.Store, logger *slog.Logger) *Collections {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collections{store: store, resources: resources, logger: logger}
}

// List returns userID's collections, newest first.
func (s *Collections) List(ctx context.Context, userID string) ([]collection.Collection, error) {
	options := append([]repository.Option{collection.WithUserID(userID)}, collection.WithNewestFirst()...)
	return s.store.Find(ctx, options...)
}

// Get returns one of userID's collections.
func (s *Collections) Get(ctx context.Context, userID, id string) (collection.Collection, error) {
	return s.store.FindOne(ctx, collection.WithUserID(userID), collection.WithCollectionID(id))
}

// Create stores a new collection for userID.
func (s *Collections) Create(ctx context.Context, userID string, params CollectionParams) (collection.Collection, error) {
	c := collection.New(uuid.NewString(), userID, params.Name, params.Description, params.Public)
	if err := c.Validate(); err != nil {
		return collection.Collection{}, err
	}
	saved, err := s.store.Save(ctx, c)
	if err != nil {
		return collection.Collection{}, err
	}
	s.logger.Info("collection created", slog.String("collection_id", saved.ID()), slog.String("user_id", userID))
	return saved, nil
}

// Update applies params to one of userID's collections.
func (s *Collections) Update(ctx context.Context, userID, id string, params CollectionUpdateParams) (collection.Collection, error) {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return collection.Collection{}, err
	}
	edited := current.WithEdit(collection.Edit{
		Name:        params.Name,
		Description: params.Description,
		Public:      params.Public,
	})
	if err := edited.Validate(); err != nil {
		return collection.Collection{}, err
	}
	return s.store.Update(ctx, edited)
}

// Delete removes one of userID's collections. Its resources are kept.
func (s *Collections) Delete(ctx context.Context, userID, id string) error {
	n, err := s.store.DeleteBy(ctx, collection.WithUserID(userID), collection.WithCollectionID(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: collection %s", repository.ErrNotFound, id)
	}
	s.logger.Info("collection deleted", slog.String("collection_id", id), slog.String("user_id", userID))
	return nil
}

// AddResource files one of userID's resources into one of their collections.
func (s *Collections) AddResource(ctx context.Context, userID, collectionID, resourceID string) error {
	if _, err := s.Get(ctx, userID, collectionID); err != nil {
		return err
	}
	if _, err := s.resources.FindOne(ctx, resource.WithUserID(userID), resource.WithResourceID(resourceID)); err != nil {
		return err
	}
	return s.store.AddResource(ctx, collectionID, resourceID)
}

// RemoveResource takes a resource out of one of userID's collections. A
// resource that was not in the collection is reported as not found.
func (s *Collections) RemoveResource(ctx context.Context, userID, collectionID, resourceID string) error {
	if _, err := s.Get(ctx, userID, collectionID); err != nil {
		return err
	}
	removed, err := s.store.RemoveResource(ctx, collectionID, resourceID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: resource %s in collection %s", repository.ErrNotFound, resourceID, collectionID)
	}
	return nil
}

// Resources returns a page of the resources in one of userID's collections,
// newest first, with the collection's total.
func (s *Collections) Resources(ctx context.Context, userID, collectionID string, limit, offset int) ([]resource.Resource, int64, error) {
	if _, err := s.Get(ctx, userID, collectionID); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	offset = max(offset, 0)

	filter := []repository.Option{resource.WithUserID(userID), resource.WithCollection(collectionID)}
	total, err := s.resources.Count(ctx, filter...)
	if err != nil {
		return nil, 0, err
	}

	options := append(filter, resource.WithNewestFirst()...)
	options = append(options, repository.WithPagination(limit, offset)...)
	page, err := s.resources.Find(ctx, options...)
	if err != nil {
		return nil, 0, err
	}
	return page, total, nil
}
