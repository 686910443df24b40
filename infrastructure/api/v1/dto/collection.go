package dto

import (
	"time"

	"github.com/techvault/skoop/domain/collection"
)

// CreateCollectionRequest is the body of POST /api/v1/collections.
type CreateCollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"isPublic"`
}

// UpdateCollectionRequest is the body of PATCH /api/v1/collections/{id}.
type UpdateCollectionRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"isPublic"`
}

// CollectionResponse is a collection with its resource count.
type CollectionResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	IsPublic      bool      `json:"isPublic"`
	ResourceCount int       `json:"resourceCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CollectionsResponse is the body of GET /api/v1/collections.
type CollectionsResponse struct {
	Collections []CollectionResponse `json:"collections"`
}

// NewCollectionResponse converts a collection.
func NewCollectionResponse(c collection.Collection) CollectionResponse {
	return CollectionResponse{
		ID:            c.ID(),
		Name:          c.Name(),
		Description:   c.Description(),
		IsPublic:      c.Public(),
		ResourceCount: c.ResourceCount(),
		CreatedAt:     c.CreatedAt(),
		UpdatedAt:     c.UpdatedAt(),
	}
}

// NewCollectionsResponse converts collections, always producing a non-nil list.
func NewCollectionsResponse(collections []collection.Collection) CollectionsResponse {
	out := make([]CollectionResponse, len(collections))
	for i, c := range collections {
		out[i] = NewCollectionResponse(c)
	}
	return CollectionsResponse{Collections: out}
}
