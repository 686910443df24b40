// Package service provides application layer services that orchestrate domain operations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/techvault/skoop/domain/cluster"
	"github.com/techvault/skoop/domain/repository"
	"github.com/techvault/skoop/domain/resource"
	domainservice "github.com/techvault/skoop/domain/service"
	"github.com/techvault/skoop/internal/config"
)

// topTagCount is how many common tags accompany a labeling request.
const topTagCount = 3

// ClustersOption configures a Clusters service.
type ClustersOption func(*Clusters)

// WithEmbeddingModel restricts clustering to embeddings from model.
// An empty model clusters every embedded resource.
func WithEmbeddingModel(model string) ClustersOption {
	return func(c *Clusters) { c.model = model }
}

// WithClusteringConfig applies cluster count, iteration cap, metric and
// labeling parallelism from cfg.
func WithClusteringConfig(cfg config.ClusteringConfig) ClustersOption {
	return func(c *Clusters) {
		if cfg.MaxClusters() > 0 {
			c.maxClusters = cfg.MaxClusters()
		}
		if cfg.MaxIterations() > 0 {
			c.maxIterations = cfg.MaxIterations()
		}
		if cfg.LabelParallelism() > 0 {
			c.parallelism = cfg.LabelParallelism()
		}
		if m, err := cluster.ParseMetric(cfg.Metric()); err == nil {
			c.metric = m
		}
	}
}

// WithClusterProfile applies the palette and cluster count from a profile.
func WithClusterProfile(p config.ClusterProfile) ClustersOption {
	return func(c *Clusters) {
		if p.MaxClusters > 0 {
			c.maxClusters = p.MaxClusters
		}
		c.palette = cluster.NewPalette(p.Icons, p.Colors)
	}
}

// WithMetric sets the distance metric.
func WithMetric(m cluster.Metric) ClustersOption {
	return func(c *Clusters) { c.metric = m }
}

// Clusters groups a user's resources into labeled topics.
type Clusters struct {
	store         resource.Store
	labeler       domainservice.Labeler
	logger        *slog.Logger
	model         string
	maxClusters   int
	maxIterations int
	metric        cluster.Metric
	parallelism   int
	palette       cluster.Palette
}

// NewClusters creates a Clusters service. A nil labeler is allowed; Suggest
// then fails with ErrNoLabeler for users who have embedded resources.
func NewClusters(store resource.Store, labeler domainservice.Labeler, logger *slog.Logger, opts ...ClustersOption) *Clusters {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Clusters{
		store:         store,
		labeler:       labeler,
		logger:        logger,
		maxClusters:   config.DefaultMaxClusters,
		maxIterations: config.DefaultMaxIterations,
		metric:        cluster.Cosine,
		parallelism:   config.DefaultLabelParallelism,
		palette:       cluster.DefaultPalette(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Suggest clusters userID's embedded resources and labels each non-empty
// cluster. Clusters are returned in ascending index order. Any labeling
// failure fails the whole call.
func (c *Clusters) Suggest(ctx context.Context, userID string) ([]cluster.Cluster, error) {
	start := time.Now()

	options := []repository.Option{resource.WithUserID(userID), resource.WithEmbedded()}
	if c.model != "" {
		options = append(options, resource.WithEmbeddingModel(c.model))
	}
	resources, err := c.store.Find(ctx, append(options, resource.WithOldestFirst()...)...)
	if err != nil {
		return nil, fmt.Errorf("load resources: %w", err)
	}
	if len(resources) == 0 {
		return []cluster.Cluster{}, nil
	}
	if c.labeler == nil {
		return nil, domainservice.ErrNoLabeler
	}

	vectors := make([][]float64, len(resources))
	for i, r := range resources {
		vectors[i] = r.Embedding()
	}

	k := min(c.maxClusters, len(resources))
	result, err := cluster.KMeans(vectors, k,
		cluster.WithMaxIterations(c.maxIterations),
		cluster.WithMetric(c.metric),
	)
	if err != nil {
		return nil, fmt.Errorf("cluster resources: %w", err)
	}

	groups := result.Clusters()
	labels, err := c.label(ctx, resources, groups)
	if err != nil {
		return nil, err
	}

	out := make([]cluster.Cluster, 0, len(groups))
	for i, members := range groups {
		if len(members) == 0 {
			continue
		}
		ids := make([]string, len(members))
		for j, idx := range members {
			ids[j] = resources[idx].ID()
		}
		out = append(out, cluster.New(i, labels[i], ids, c.palette.Icon(i), c.palette.Color(i)))
	}

	c.logger.Info("clusters suggested",
		slog.String("user_id", userID),
		slog.Int("resources", len(resources)),
		slog.Int("clusters", len(out)),
		slog.Int("iterations", result.Iterations()),
		slog.Bool("converged", result.Converged()),
		slog.Duration("duration", time.Since(start)),
	)
	return out, nil
}

// label names every non-empty group concurrently. Each goroutine writes only
// its own slot of the returned slice.
func (c *Clusters) label(ctx context.Context, resources []resource.Resource, groups [][]int) ([]cluster.Label, error) {
	labels := make([]cluster.Label, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.parallelism, 1))
	for i, members := range groups {
		if len(members) == 0 {
			continue
		}
		g.Go(func() error {
			titles := make([]string, len(members))
			tagSets := make([][]string, len(members))
			for j, idx := range members {
				titles[j] = resources[idx].Title()
				tagSets[j] = resources[idx].Tags()
			}
			req := domainservice.NewLabelRequest(titles, cluster.TopTags(tagSets, topTagCount))
			label, err := c.labeler.Label(gctx, req)
			if err != nil {
				return fmt.Errorf("label cluster %d: %w", i, err)
			}
			labels[i] = label
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return labels, nil
}
