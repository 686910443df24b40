// Package skoop groups a user's saved resources into labeled topic clusters.
//
// Resources are embedded with an OpenAI-compatible or local model, grouped
// with k-means and named by a chat model. Keyword and semantic search run over
// the same store.
//
// Basic usage:
//
//	client, err := skoop.New(
//	    skoop.WithSQLite(".skoop/skoop.db"),
//	    skoop.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	saved, err := client.Resources.Save(ctx, "user-1", service.SaveParams{
//	    Title: "Raft explained",
//	    URL:   "https://raft.github.io",
//	})
//
//	clusters, err := client.Clusters.Suggest(ctx, "user-1")
//	for _, c := range clusters {
//	    fmt.Println(c.Title(), c.Count())
//	}
package skoop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/techvault/skoop/application/service"
	domainservice "github.com/techvault/skoop/domain/service"
	"github.com/techvault/skoop/infrastructure/keyword"
	"github.com/techvault/skoop/infrastructure/labeler"
	"github.com/techvault/skoop/infrastructure/metadata"
	"github.com/techvault/skoop/infrastructure/persistence"
	"github.com/techvault/skoop/infrastructure/provider"
	"github.com/techvault/skoop/internal/config"
	"github.com/techvault/skoop/internal/database"
)

// Client is the main entry point for the skoop library.
//
// The backfill worker is created but not started; call
// client.Backfill.Start to run it in the background. Metadata is nil unless
// page metadata fetching is enabled.
type Client struct {
	Clusters    *service.Clusters
	Resources   *service.Resources
	Collections *service.Collections
	Search      *service.Search
	Backfill    *service.Backfill
	Metadata    domainservice.MetadataFetcher

	db             database.Database
	index          *keyword.BleveIndex
	closers        []io.Closer
	logger         *slog.Logger
	embeddingModel string
	closed         atomic.Bool
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.dbURL == "" {
		return nil, ErrNoDatabase
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	dataDir, err := config.PrepareDataDir(cfg.dataDir)
	if err != nil {
		return nil, err
	}

	if cfg.embeddingProvider == nil && !cfg.skipLocalEmbedding {
		modelDir := cfg.modelDir
		if modelDir == "" {
			modelDir = filepath.Join(dataDir, "models")
		}
		local := provider.NewLocalEmbedding(modelDir)
		if local.Available() {
			cfg.embeddingProvider = local
			cfg.embeddingModel = local.Model()
			cfg.closers = append(cfg.closers, local)
			logger.Info("built-in embedding provider enabled", slog.String("model_dir", modelDir))
		} else {
			logger.Warn("no embedding provider configured, resources will not be clustered",
				slog.String("model_dir", modelDir))
		}
	}
	if cfg.textProvider == nil {
		logger.Warn("no text provider configured, cluster suggestions will fail")
	}

	// Closers registered so far are owned by New until the client exists.
	cleanup := func(errs ...error) error {
		for _, c := range cfg.closers {
			errs = append(errs, c.Close())
		}
		return errors.Join(errs...)
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, cfg.dbURL)
	if err != nil {
		return nil, cleanup(fmt.Errorf("open database: %w", err))
	}

	if err := persistence.AutoMigrate(db); err != nil {
		return nil, cleanup(fmt.Errorf("auto migrate: %w", err), db.Close())
	}

	store := persistence.NewResourceStore(db)

	var embedding *domainservice.EmbeddingService
	if cfg.embeddingProvider != nil {
		embedding, err = domainservice.NewEmbedding(store, provider.NewEmbedderAdapter(cfg.embeddingProvider), cfg.embeddingModel)
		if err != nil {
			return nil, cleanup(fmt.Errorf("embedding service: %w", err), db.Close())
		}
	}

	var (
		lab        domainservice.Labeler
		summarizer domainservice.Summarizer
	)
	if cfg.textProvider != nil {
		l := labeler.NewProviderLabeler(cfg.textProvider, logger)
		lab, summarizer = l, l
	}

	index, err := openIndex(cfg, dataDir)
	if err != nil {
		return nil, cleanup(fmt.Errorf("open keyword index: %w", err), db.Close())
	}

	clusterOpts := []service.ClustersOption{
		service.WithClusteringConfig(cfg.clustering),
		service.WithEmbeddingModel(cfg.embeddingModel),
	}
	if path := cfg.clustering.ProfilePath(); path != "" {
		profile, err := config.LoadClusterProfile(path)
		if err != nil {
			return nil, cleanup(fmt.Errorf("load cluster profile: %w", err), index.Close(), db.Close())
		}
		clusterOpts = append(clusterOpts, service.WithClusterProfile(profile))
	}

	var (
		fetcher      domainservice.MetadataFetcher
		resourceOpts []service.ResourcesOption
	)
	if cfg.metadata.Enabled() {
		fetcher = metadata.NewFetcher(
			metadata.WithTimeout(cfg.metadata.Timeout()),
			metadata.WithMaxBytes(cfg.metadata.MaxBytes()),
		)
		resourceOpts = append(resourceOpts, service.WithMetadataFetcher(fetcher))
	}

	resources := service.NewResources(store, index, embedding, logger, resourceOpts...)
	client := &Client{
		Clusters:    service.NewClusters(store, lab, logger, clusterOpts...),
		Resources:   resources,
		Collections: service.NewCollections(persistence.NewCollectionStore(db), store, logger),
		Search: service.NewSearch(store, embedding, index,
			service.WithSearchLimit(cfg.searchLimit),
			service.WithSimilarityThreshold(cfg.searchThreshold),
		),
		Backfill:       service.NewBackfill(cfg.backfill, store, embedding, summarizer, index, logger),
		Metadata:       fetcher,
		db:             db,
		index:          index,
		closers:        cfg.closers,
		logger:         logger,
		embeddingModel: cfg.embeddingModel,
	}

	if err := client.syncIndex(ctx, store); err != nil {
		return nil, cleanup(fmt.Errorf("sync keyword index: %w", err), index.Close(), db.Close())
	}

	return client, nil
}

func openIndex(cfg *clientConfig, dataDir string) (*keyword.BleveIndex, error) {
	if cfg.memoryIndex {
		return keyword.NewMemoryIndex()
	}
	path := cfg.indexPath
	if path == "" {
		path = filepath.Join(dataDir, "index.bleve")
	}
	return keyword.NewIndex(path)
}

// syncIndex rebuilds the keyword index when its document count has drifted
// from the database, for example after a restore or a fresh index directory.
func (c *Client) syncIndex(ctx context.Context, store persistence.ResourceStore) error {
	stored, err := store.Count(ctx)
	if err != nil {
		return err
	}
	indexed, err := c.index.DocCount()
	if err != nil {
		return err
	}
	if int64(indexed) == stored {
		return nil
	}
	return c.Resources.RebuildIndex(ctx)
}

// EmbeddingModel returns the name of the active embedding model, or "" when
// no embedding provider is configured.
func (c *Client) EmbeddingModel() string {
	return c.embeddingModel
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// Close stops the backfill worker and releases the index, providers and
// database.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.Backfill.Stop()

	var errs []error
	if err := c.index.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close keyword index: %w", err))
	}
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}

	c.logger.Info("skoop client closed")
	return errors.Join(errs...)
}
