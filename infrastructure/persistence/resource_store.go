package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/techvault/skoop/domain/repository"
	"github.com/techvault/skoop/domain/resource"
	"github.com/techvault/skoop/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResourceStore implements resource.Store using GORM.
type ResourceStore struct {
	database.Repository[resource.Resource, ResourceModel]
}

// NewResourceStore creates a ResourceStore.
func NewResourceStore(db database.Database) ResourceStore {
	return ResourceStore{
		Repository: database.NewRepository[resource.Resource, ResourceModel](db, ResourceMapper{}, "resource", "Tags"),
	}
}

// Save inserts or updates a resource and replaces its tags.
func (s ResourceStore) Save(ctx context.Context, r resource.Resource) (resource.Resource, error) {
	if err := r.Validate(); err != nil {
		return resource.Resource{}, fmt.Errorf("save resource: %w", err)
	}

	model := s.Mapper().ToModel(r)
	names := model.Tags
	model.Tags = nil

	err := database.WithTransaction(ctx, s.Database(), func(tx *gorm.DB) error {
		tags, err := ensureTags(tx, names)
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(&model).Error; err != nil {
			return err
		}
		assoc := tx.Model(&model).Association("Tags")
		if len(tags) == 0 {
			if err := assoc.Clear(); err != nil {
				return err
			}
		} else if err := assoc.Replace(tags); err != nil {
			return err
		}
		model.Tags = tags
		return nil
	})
	if err != nil {
		return resource.Resource{}, fmt.Errorf("save resource: %w", err)
	}
	return s.Mapper().ToDomain(model), nil
}

// Update writes the editable fields, summary and embedding of an existing
// resource and replaces its tags. Unlike Save it never inserts: a resource
// that no longer exists is reported as repository.ErrNotFound.
func (s ResourceStore) Update(ctx context.Context, r resource.Resource) (resource.Resource, error) {
	if err := r.Validate(); err != nil {
		return resource.Resource{}, fmt.Errorf("update resource: %w", err)
	}

	model := s.Mapper().ToModel(r)
	err := database.WithTransaction(ctx, s.Database(), func(tx *gorm.DB) error {
		result := tx.Model(&ResourceModel{}).Where("id = ?", model.ID).Updates(map[string]any{
			"title":           model.Title,
			"description":     model.Description,
			"url":             model.URL,
			"type":            model.Type,
			"summary":         model.Summary,
			"embedding":       model.Embedding,
			"embedding_model": model.EmbeddingModel,
			"updated_at":      time.Now().UTC(),
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: resource %s", repository.ErrNotFound, model.ID)
		}

		tags, err := ensureTags(tx, model.Tags)
		if err != nil {
			return err
		}
		target := ResourceModel{ID: model.ID}
		assoc := tx.Model(&target).Association("Tags")
		if len(tags) == 0 {
			return assoc.Clear()
		}
		return assoc.Replace(tags)
	})
	if err != nil {
		return resource.Resource{}, fmt.Errorf("update resource: %w", err)
	}
	return s.FindOne(ctx, resource.WithResourceID(model.ID))
}

// UpdateEmbedding sets the embedding of an existing resource and leaves every
// other column alone.
func (s ResourceStore) UpdateEmbedding(ctx context.Context, id string, embedding []float64, model string) (resource.Resource, error) {
	if len(embedding) == 0 {
		return resource.Resource{}, fmt.Errorf("update embedding %s: empty vector", id)
	}
	return s.updateColumns(ctx, id, map[string]any{
		"embedding":       database.Vector(embedding),
		"embedding_model": model,
	})
}

// UpdateSummary sets the summary of an existing resource and leaves every
// other column alone.
func (s ResourceStore) UpdateSummary(ctx context.Context, id, summary string) (resource.Resource, error) {
	return s.updateColumns(ctx, id, map[string]any{
		"summary": strings.TrimSpace(summary),
	})
}

// updateColumns writes columns onto row id and reloads it. Zero rows
// affected means the resource was deleted.
func (s ResourceStore) updateColumns(ctx context.Context, id string, columns map[string]any) (resource.Resource, error) {
	columns["updated_at"] = time.Now().UTC()
	result := s.DB(ctx).Model(&ResourceModel{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		return resource.Resource{}, fmt.Errorf("update resource %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return resource.Resource{}, fmt.Errorf("%w: resource %s", repository.ErrNotFound, id)
	}
	return s.FindOne(ctx, resource.WithResourceID(id))
}

func ensureTags(tx *gorm.DB, tags []TagModel) ([]TagModel, error) {
	out := make([]TagModel, 0, len(tags))
	for _, t := range tags {
		tag := TagModel{}
		if err := tx.Where(TagModel{Name: t.Name}).FirstOrCreate(&tag).Error; err != nil {
			return nil, fmt.Errorf("ensure tag %q: %w", t.Name, err)
		}
		out = append(out, tag)
	}
	return out, nil
}

// DeleteBy removes matching resources together with their tag and
// collection links.
func (s ResourceStore) DeleteBy(ctx context.Context, options ...repository.Option) (int64, error) {
	var ids []string
	query := database.ApplyConditions(s.DB(ctx).Model(&ResourceModel{}), options...)
	if err := query.Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("delete resource: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int64
	err := database.WithTransaction(ctx, s.Database(), func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM resource_tags WHERE resource_id IN ?", ids).Error; err != nil {
			return err
		}
		if err := tx.Where("resource_id IN ?", ids).Delete(&CollectionResourceModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&ResourceModel{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete resource: %w", err)
	}
	return deleted, nil
}

var _ resource.Store = ResourceStore{}
