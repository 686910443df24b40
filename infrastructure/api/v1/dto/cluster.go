// Package dto holds the JSON shapes of the v1 API.
package dto

import "github.com/techvault/skoop/domain/cluster"

// ClusterResponse is one suggested cluster.
type ClusterResponse struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Count       int      `json:"count"`
	ResourceIDs []string `json:"resourceIds"`
	Icon        string   `json:"icon"`
	Color       string   `json:"color"`
}

// ClustersResponse is the body of GET /api/v1/clusters.
type ClustersResponse struct {
	Clusters []ClusterResponse `json:"clusters"`
}

// NewClustersResponse converts clusters, always producing a non-nil list.
func NewClustersResponse(clusters []cluster.Cluster) ClustersResponse {
	out := make([]ClusterResponse, len(clusters))
	for i, c := range clusters {
		ids := c.ResourceIDs()
		if ids == nil {
			ids = []string{}
		}
		out[i] = ClusterResponse{
			ID:          c.ID(),
			Title:       c.Title(),
			Description: c.Description(),
			Count:       c.Count(),
			ResourceIDs: ids,
			Icon:        c.Icon(),
			Color:       c.Color(),
		}
	}
	return ClustersResponse{Clusters: out}
}
