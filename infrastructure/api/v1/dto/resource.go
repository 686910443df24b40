package dto

import (
	"time"

	"github.com/techvault/skoop/domain/resource"
)

// CreateResourceRequest is the body of POST /api/v1/resources.
type CreateResourceRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Type        string   `json:"type"`
	Tags        []string `json:"tags"`
}

// UpdateResourceRequest is the body of PATCH /api/v1/resources/{id}.
// Omitted fields are left unchanged; "tags": [] clears the tags.
type UpdateResourceRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	URL         *string  `json:"url"`
	Type        *string  `json:"type"`
	Tags        []string `json:"tags"`
}

// ResourceResponse is a saved resource.
type ResourceResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	URL          string    `json:"url"`
	Type         string    `json:"type"`
	Tags         []string  `json:"tags"`
	Summary      string    `json:"summary,omitempty"`
	HasEmbedding bool      `json:"hasEmbedding"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ResourcesResponse is a page of resources.
type ResourcesResponse struct {
	Resources []ResourceResponse `json:"resources"`
	Total     int64              `json:"total"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

// NewResourceResponse converts a resource.
func NewResourceResponse(r resource.Resource) ResourceResponse {
	tags := r.Tags()
	if tags == nil {
		tags = []string{}
	}
	return ResourceResponse{
		ID:           r.ID(),
		Title:        r.Title(),
		Description:  r.Description(),
		URL:          r.URL(),
		Type:         string(r.Type()),
		Tags:         tags,
		Summary:      r.Summary(),
		HasEmbedding: r.HasEmbedding(),
		CreatedAt:    r.CreatedAt(),
		UpdatedAt:    r.UpdatedAt(),
	}
}

// NewResourceResponses converts a list of resources.
func NewResourceResponses(resources []resource.Resource) []ResourceResponse {
	out := make([]ResourceResponse, len(resources))
	for i, r := range resources {
		out[i] = NewResourceResponse(r)
	}
	return out
}
