package dto

// SearchResultResponse is a resource with its relevance score.
type SearchResultResponse struct {
	ResourceResponse
	Score float64 `json:"score"`
}

// SearchResponse is the body of GET /api/v1/search.
type SearchResponse struct {
	Mode    string                 `json:"mode"`
	Results []SearchResultResponse `json:"results"`
}
