package persistence

import (
	"slices"

	"github.com/techvault/skoop/domain/collection"
	"github.com/techvault/skoop/domain/resource"
	"github.com/techvault/skoop/internal/database"
)

// ResourceMapper maps between resource.Resource and ResourceModel.
type ResourceMapper struct{}

// ToDomain converts a row to a Resource. Tags come back sorted by name.
func (ResourceMapper) ToDomain(m ResourceModel) resource.Resource {
	tags := make([]string, len(m.Tags))
	for i, t := range m.Tags {
		tags[i] = t.Name
	}
	slices.Sort(tags)

	kind, err := resource.ParseType(m.Type)
	if err != nil {
		kind = resource.TypeOther
	}

	return resource.Reconstruct(
		m.ID, m.UserID, m.Title, m.Description, m.URL,
		kind, tags, m.Summary,
		m.Embedding.Floats(), m.EmbeddingModel,
		m.CreatedAt, m.UpdatedAt,
	)
}

// ToModel converts a Resource to a row. Tag IDs are resolved on save.
func (ResourceMapper) ToModel(r resource.Resource) ResourceModel {
	var embedding database.Vector
	if r.HasEmbedding() {
		embedding = database.Vector(r.Embedding())
	}

	kind := r.Type()
	if kind == "" {
		kind = resource.TypeOther
	}

	tags := make([]TagModel, 0, len(r.Tags()))
	for _, name := range r.Tags() {
		tags = append(tags, TagModel{Name: name})
	}

	return ResourceModel{
		ID:             r.ID(),
		UserID:         r.UserID(),
		Title:          r.Title(),
		Description:    r.Description(),
		URL:            r.URL(),
		Type:           string(kind),
		Summary:        r.Summary(),
		Embedding:      embedding,
		EmbeddingModel: r.EmbeddingModel(),
		Tags:           tags,
		CreatedAt:      r.CreatedAt(),
		UpdatedAt:      r.UpdatedAt(),
	}
}

// CollectionMapper maps between collection.Collection and CollectionModel.
type CollectionMapper struct{}

// ToDomain converts a row to a Collection without a resource count.
func (CollectionMapper) ToDomain(m CollectionModel) collection.Collection {
	return collectionFromModel(m, 0)
}

// ToModel converts a Collection to a row.
func (CollectionMapper) ToModel(c collection.Collection) CollectionModel {
	return CollectionModel{
		ID:          c.ID(),
		UserID:      c.UserID(),
		Name:        c.Name(),
		Description: c.Description(),
		IsPublic:    c.Public(),
		CreatedAt:   c.CreatedAt(),
		UpdatedAt:   c.UpdatedAt(),
	}
}

func collectionFromModel(m CollectionModel, resources int) collection.Collection {
	return collection.Reconstruct(m.ID, m.UserID, m.Name, m.Description, m.IsPublic, resources, m.CreatedAt, m.UpdatedAt)
}
