package skoop

import (
	"io"
	"log/slog"

	"github.com/techvault/skoop/infrastructure/provider"
	"github.com/techvault/skoop/internal/config"
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	dbURL              string
	dataDir            string
	modelDir           string
	indexPath          string
	memoryIndex        bool
	skipLocalEmbedding bool
	textProvider       provider.TextGenerator
	embeddingProvider  provider.Embedder
	embeddingModel     string
	logger             *slog.Logger
	clustering         config.ClusteringConfig
	backfill           config.BackfillConfig
	searchLimit        int
	searchThreshold    float64
	metadata           config.MetadataConfig
	closers            []io.Closer
}

func newClientConfig() *clientConfig {
	return &clientConfig{
		dataDir:         config.DefaultDataDir(),
		clustering:      config.NewClusteringConfig(),
		backfill:        config.NewBackfillConfig(),
		searchLimit:     config.DefaultSearchLimit,
		searchThreshold: config.DefaultSearchThreshold,
		metadata:        config.NewMetadataConfig().WithEnabled(false),
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithDatabaseURL configures the database from a sqlite:/// or postgres:// URL.
func WithDatabaseURL(url string) Option {
	return func(c *clientConfig) {
		c.dbURL = url
	}
}

// WithSQLite configures a SQLite database file. Use ":memory:" for an
// in-memory database.
func WithSQLite(path string) Option {
	return WithDatabaseURL("sqlite:///" + path)
}

// WithPostgres configures a PostgreSQL database.
func WithPostgres(dsn string) Option {
	return WithDatabaseURL(dsn)
}

// WithOpenAI sets OpenAI as the text and embedding provider with default models.
func WithOpenAI(apiKey string) Option {
	return WithOpenAIConfig(provider.OpenAIConfig{APIKey: apiKey})
}

// WithOpenAIConfig sets an OpenAI-compatible provider. Each capability is
// enabled only when the provider has a model for it.
func WithOpenAIConfig(cfg provider.OpenAIConfig) Option {
	return func(c *clientConfig) {
		p := provider.NewOpenAIProvider(cfg)
		if p.ChatModel() != "" {
			c.textProvider = p
		}
		if p.EmbeddingModel() != "" {
			c.embeddingProvider = p
			c.embeddingModel = p.EmbeddingModel()
		}
	}
}

// WithTextProvider sets a custom text generation provider used for cluster
// labels and summaries.
func WithTextProvider(p provider.TextGenerator) Option {
	return func(c *clientConfig) {
		c.textProvider = p
	}
}

// WithEmbeddingProvider sets a custom embedding provider. model is stored
// alongside each vector so embeddings from different models never mix.
func WithEmbeddingProvider(p provider.Embedder, model string) Option {
	return func(c *clientConfig) {
		c.embeddingProvider = p
		c.embeddingModel = model
	}
}

// WithoutLocalEmbedding stops New from falling back to the built-in model
// when no embedding provider is set.
func WithoutLocalEmbedding() Option {
	return func(c *clientConfig) {
		c.skipLocalEmbedding = true
	}
}

// WithDataDir sets the directory for the database, keyword index and models.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithModelDir sets the directory where built-in model files are stored.
// Defaults to {dataDir}/models if not specified.
func WithModelDir(dir string) Option {
	return func(c *clientConfig) {
		c.modelDir = dir
	}
}

// WithKeywordIndexPath sets where the keyword index is stored.
// Defaults to {dataDir}/index.bleve.
func WithKeywordIndexPath(path string) Option {
	return func(c *clientConfig) {
		c.indexPath = path
	}
}

// WithMemoryKeywordIndex keeps the keyword index in memory. It is rebuilt
// from the database on every start.
func WithMemoryKeywordIndex() Option {
	return func(c *clientConfig) {
		c.memoryIndex = true
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithClusteringConfig sets cluster count, iteration cap, distance metric,
// labeling parallelism and the optional presentation profile.
func WithClusteringConfig(cfg config.ClusteringConfig) Option {
	return func(c *clientConfig) {
		c.clustering = cfg
	}
}

// WithBackfillConfig sets the backfill worker configuration.
func WithBackfillConfig(cfg config.BackfillConfig) Option {
	return func(c *clientConfig) {
		c.backfill = cfg
	}
}

// WithSearchLimit sets the default number of search results.
// Values <= 0 are ignored.
func WithSearchLimit(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.searchLimit = n
		}
	}
}

// WithSimilarityThreshold sets the minimum cosine similarity for semantic
// search results.
func WithSimilarityThreshold(t float64) Option {
	return func(c *clientConfig) {
		c.searchThreshold = t
	}
}

// WithMetadataConfig configures fetching page metadata for saved URLs.
// Fetching is off unless cfg is enabled.
func WithMetadataConfig(cfg config.MetadataConfig) Option {
	return func(c *clientConfig) {
		c.metadata = cfg
	}
}

// WithCloser registers a resource to be closed when the Client shuts down.
func WithCloser(c io.Closer) Option {
	return func(cfg *clientConfig) {
		cfg.closers = append(cfg.closers, c)
	}
}
