package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/techvault/skoop/domain/collection"
	"github.com/techvault/skoop/domain/repository"
	"github.com/techvault/skoop/internal/database"
)

// CollectionStore implements collection.Store using GORM.
type CollectionStore struct {
	database.Repository[collection.Collection, CollectionModel]
}

// NewCollectionStore creates a CollectionStore.
func NewCollectionStore(db database.Database) CollectionStore {
	return CollectionStore{
		Repository: database.NewRepository[collection.Collection, CollectionModel](db, CollectionMapper{}, "collection"),
	}
}

// Save inserts or replaces a collection.
func (s CollectionStore) Save(ctx context.Context, c collection.Collection) (collection.Collection, error) {
	if err := c.Validate(); err != nil {
		return collection.Collection{}, fmt.Errorf("save collection: %w", err)
	}
	model := s.Mapper().ToModel(c)
	if err := s.DB(ctx).Save(&model).Error; err != nil {
		return collection.Collection{}, fmt.Errorf("save collection: %w", err)
	}
	return s.FindOne(ctx, collection.WithCollectionID(model.ID))
}

// Update writes the editable fields of an existing collection. A missing
// collection is reported as repository.ErrNotFound.
func (s CollectionStore) Update(ctx context.Context, c collection.Collection) (collection.Collection, error) {
	if err := c.Validate(); err != nil {
		return collection.Collection{}, fmt.Errorf("update collection: %w", err)
	}
	result := s.DB(ctx).Model(&CollectionModel{}).Where("id = ?", c.ID()).Updates(map[string]any{
		"name":        c.Name(),
		"description": c.Description(),
		"is_public":   c.Public(),
		"updated_at":  time.Now().UTC(),
	})
	if result.Error != nil {
		return collection.Collection{}, fmt.Errorf("update collection: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return collection.Collection{}, fmt.Errorf("%w: collection %s", repository.ErrNotFound, c.ID())
	}
	return s.FindOne(ctx, collection.WithCollectionID(c.ID()))
}

// Find returns matching collections with their resource counts.
func (s CollectionStore) Find(ctx context.Context, options ...repository.Option) ([]collection.Collection, error) {
	var models []CollectionModel
	if err := database.ApplyOptions(s.DB(ctx).Model(&CollectionModel{}), options...).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find collection: %w", err)
	}
	if len(models) == 0 {
		return []collection.Collection{}, nil
	}

	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}
	counts, err := s.resourceCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]collection.Collection, len(models))
	for i, m := range models {
		out[i] = collectionFromModel(m, counts[m.ID])
	}
	return out, nil
}

// FindOne returns the first matching collection with its resource count.
func (s CollectionStore) FindOne(ctx context.Context, options ...repository.Option) (collection.Collection, error) {
	found, err := s.Find(ctx, append(options, repository.WithLimit(1))...)
	if err != nil {
		return collection.Collection{}, err
	}
	if len(found) == 0 {
		return collection.Collection{}, fmt.Errorf("%w: collection", repository.ErrNotFound)
	}
	return found[0], nil
}

type collectionCount struct {
	CollectionID string
	Resources    int
}

func (s CollectionStore) resourceCounts(ctx context.Context, ids []string) (map[string]int, error) {
	var rows []collectionCount
	err := s.DB(ctx).Model(&CollectionResourceModel{}).
		Select("collection_id, COUNT(*) AS resources").
		Where("collection_id IN ?", ids).
		Group("collection_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count collection resources: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.CollectionID] = r.Resources
	}
	return counts, nil
}

// DeleteBy removes matching collections and their membership links. The
// resources themselves are kept.
func (s CollectionStore) DeleteBy(ctx context.Context, options ...repository.Option) (int64, error) {
	var ids []string
	query := database.ApplyConditions(s.DB(ctx).Model(&CollectionModel{}), options...)
	if err := query.Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("delete collection: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int64
	err := database.WithTransaction(ctx, s.Database(), func(tx *gorm.DB) error {
		if err := tx.Where("collection_id IN ?", ids).Delete(&CollectionResourceModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&CollectionModel{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete collection: %w", err)
	}
	return deleted, nil
}

// AddResource files a resource into a collection. Adding it twice is a no-op.
func (s CollectionStore) AddResource(ctx context.Context, collectionID, resourceID string) error {
	link := CollectionResourceModel{CollectionID: collectionID, ResourceID: resourceID}
	err := s.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
	if err != nil {
		return fmt.Errorf("add resource to collection: %w", err)
	}
	return nil
}

// RemoveResource takes a resource out of a collection and reports whether it
// was there.
func (s CollectionStore) RemoveResource(ctx context.Context, collectionID, resourceID string) (bool, error) {
	result := s.DB(ctx).
		Where("collection_id = ? AND resource_id = ?", collectionID, resourceID).
		Delete(&CollectionResourceModel{})
	if result.Error != nil {
		return false, fmt.Errorf("remove resource from collection: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

var _ collection.Store = CollectionStore{}
