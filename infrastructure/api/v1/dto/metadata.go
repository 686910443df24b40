package dto

import domainservice "github.com/techvault/skoop/domain/service"

// MetadataResponse is the body of GET /api/v1/metadata.
type MetadataResponse struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

// NewMetadataResponse converts page metadata. A missing image is null.
func NewMetadataResponse(m domainservice.PageMetadata) MetadataResponse {
	resp := MetadataResponse{Title: m.Title(), Description: m.Description()}
	if img := m.Image(); img != "" {
		resp.Image = &img
	}
	return resp
}
