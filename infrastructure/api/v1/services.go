// Package v1 implements the version 1 HTTP API.
package v1

import (
	"context"

	"github.com/techvault/skoop/application/service"
	"github.com/techvault/skoop/domain/cluster"
	"github.com/techvault/skoop/domain/collection"
	"github.com/techvault/skoop/domain/resource"
	domainservice "github.com/techvault/skoop/domain/service"
)

// ClusterSuggester computes a user's suggested clusters.
type ClusterSuggester interface {
	Suggest(ctx context.Context, userID string) ([]cluster.Cluster, error)
}

// ResourceService manages a user's resources.
type ResourceService interface {
	Save(ctx context.Context, userID string, params service.SaveParams) (resource.Resource, error)
	List(ctx context.Context, userID string, limit, offset int) ([]resource.Resource, error)
	Count(ctx context.Context, userID string) (int64, error)
	Get(ctx context.Context, userID, id string) (resource.Resource, error)
	Update(ctx context.Context, userID, id string, params service.UpdateParams) (resource.Resource, error)
	Delete(ctx context.Context, userID, id string) error
}

// CollectionService manages a user's collections.
type CollectionService interface {
	List(ctx context.Context, userID string) ([]collection.Collection, error)
	Get(ctx context.Context, userID, id string) (collection.Collection, error)
	Create(ctx context.Context, userID string, params service.CollectionParams) (collection.Collection, error)
	Update(ctx context.Context, userID, id string, params service.CollectionUpdateParams) (collection.Collection, error)
	Delete(ctx context.Context, userID, id string) error
	AddResource(ctx context.Context, userID, collectionID, resourceID string) error
	RemoveResource(ctx context.Context, userID, collectionID, resourceID string) error
	Resources(ctx context.Context, userID, collectionID string, limit, offset int) ([]resource.Resource, int64, error)
}

// MetadataFetcher reads a web page's title, description and preview image.
type MetadataFetcher = domainservice.MetadataFetcher

// Searcher finds a user's resources by meaning or by keyword.
type Searcher interface {
	Semantic(ctx context.Context, userID, query string, limit int) ([]service.SearchResult, error)
	Keyword(ctx context.Context, userID, query string, limit int) ([]service.SearchResult, error)
}

var (
	_ ClusterSuggester  = (*service.Clusters)(nil)
	_ ResourceService   = (*service.Resources)(nil)
	_ CollectionService = (*service.Collections)(nil)
	_ Searcher          = (*service.Search)(nil)
)
