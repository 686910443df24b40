package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds configuration loaded from environment variables.
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory.
	// Env: DATA_DIR (default: ~/.skoop)
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL (default: sqlite:///{data_dir}/skoop.db)
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// APIKeys is a comma-separated list of key:user pairs.
	// Env: API_KEYS
	APIKeys string `envconfig:"API_KEYS"`

	// CORSAllowedOrigins is a comma-separated list of origins.
	// Env: CORS_ALLOWED_ORIGINS
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS"`

	// EmbeddingEndpoint configures the embedding service.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`

	// EnrichmentEndpoint configures the chat completion service used for labels and summaries.
	EnrichmentEndpoint EndpointEnv `envconfig:"ENRICHMENT_ENDPOINT"`

	// ModelDir holds local embedding models.
	// Env: MODEL_DIR (default: {data_dir}/models)
	ModelDir string `envconfig:"MODEL_DIR"`

	// Clustering configures suggested clusters.
	Clustering ClusteringEnv `envconfig:"CLUSTERING"`

	// Backfill configures the background worker.
	Backfill BackfillEnv `envconfig:"BACKFILL"`

	// Metadata configures page metadata fetching.
	Metadata MetadataEnv `envconfig:"METADATA"`

	// SearchLimit is the default result limit.
	// Env: SEARCH_LIMIT (default: 10)
	SearchLimit int `envconfig:"SEARCH_LIMIT" default:"10"`

	// SearchThreshold is the minimum cosine similarity for semantic matches.
	// Env: SEARCH_THRESHOLD (default: 0.7)
	SearchThreshold float64 `envconfig:"SEARCH_THRESHOLD" default:"0.7"`
}

// EndpointEnv holds environment configuration for an OpenAI-compatible endpoint.
type EndpointEnv struct {
	// Env: *_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Env: *_MODEL
	Model string `envconfig:"MODEL"`

	// Env: *_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the request timeout in seconds.
	// Env: *_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// Env: *_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelay is the first retry delay in seconds.
	// Env: *_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// Env: *_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`
}

// ClusteringEnv holds environment configuration for clustering.
type ClusteringEnv struct {
	// Env: CLUSTERING_MAX_CLUSTERS (default: 4)
	MaxClusters int `envconfig:"MAX_CLUSTERS" default:"4"`

	// Env: CLUSTERING_MAX_ITERATIONS (default: 100)
	MaxIterations int `envconfig:"MAX_ITERATIONS" default:"100"`

	// Metric is cosine or euclidean.
	// Env: CLUSTERING_METRIC (default: cosine)
	Metric string `envconfig:"METRIC" default:"cosine"`

	// Env: CLUSTERING_LABEL_PARALLELISM (default: 4)
	LabelParallelism int `envconfig:"LABEL_PARALLELISM" default:"4"`

	// Profile is a YAML file overriding the presentation palette.
	// Env: CLUSTERING_PROFILE
	Profile string `envconfig:"PROFILE"`
}

// BackfillEnv holds environment configuration for the backfill worker.
type BackfillEnv struct {
	// Env: BACKFILL_ENABLED (default: true)
	Enabled bool `envconfig:"ENABLED" default:"true"`

	// Env: BACKFILL_INTERVAL_SECONDS (default: 30)
	IntervalSeconds float64 `envconfig:"INTERVAL_SECONDS" default:"30"`

	// Env: BACKFILL_BATCH_SIZE (default: 10)
	BatchSize int `envconfig:"BATCH_SIZE" default:"10"`

	// Env: BACKFILL_REQUESTS_PER_SECOND (default: 2)
	RequestsPerSecond float64 `envconfig:"REQUESTS_PER_SECOND" default:"2"`
}

// MetadataEnv holds environment configuration for page metadata fetching.
type MetadataEnv struct {
	// Env: METADATA_ENABLED (default: true)
	Enabled bool `envconfig:"ENABLED" default:"true"`

	// Env: METADATA_TIMEOUT_SECONDS (default: 10)
	TimeoutSeconds float64 `envconfig:"TIMEOUT_SECONDS" default:"10"`

	// Env: METADATA_MAX_BYTES (default: 2097152)
	MaxBytes int64 `envconfig:"MAX_BYTES" default:"2097152"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// Normalize trims whitespace from string values.
func (e EnvConfig) Normalize() EnvConfig {
	e.Host = strings.TrimSpace(e.Host)
	e.DataDir = strings.TrimSpace(e.DataDir)
	e.DBURL = strings.TrimSpace(e.DBURL)
	e.LogLevel = strings.TrimSpace(e.LogLevel)
	e.LogFormat = strings.TrimSpace(e.LogFormat)
	e.EmbeddingEndpoint = e.EmbeddingEndpoint.normalize()
	e.EnrichmentEndpoint = e.EnrichmentEndpoint.normalize()
	e.Clustering.Metric = strings.TrimSpace(e.Clustering.Metric)
	e.Clustering.Profile = strings.TrimSpace(e.Clustering.Profile)
	return e
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg = applyOption(cfg, WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = applyOption(cfg, WithPort(e.Port))
	}
	if e.DataDir != "" {
		cfg = applyOption(cfg, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		cfg = applyOption(cfg, WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		cfg = applyOption(cfg, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = applyOption(cfg, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.APIKeys != "" {
		cfg = applyOption(cfg, WithAPIKeys(ParseAPIKeys(e.APIKeys)))
	}
	if e.CORSAllowedOrigins != "" {
		cfg = applyOption(cfg, WithCORSOrigins(ParseList(e.CORSAllowedOrigins)))
	}

	if e.EmbeddingEndpoint.IsConfigured() {
		cfg = applyOption(cfg, WithEmbeddingEndpoint(e.EmbeddingEndpoint.ToEndpoint(DefaultEmbeddingModel)))
	}
	if e.EnrichmentEndpoint.IsConfigured() {
		cfg = applyOption(cfg, WithEnrichmentEndpoint(e.EnrichmentEndpoint.ToEndpoint(DefaultChatModel)))
	}
	if e.ModelDir != "" {
		cfg = applyOption(cfg, WithModelDir(e.ModelDir))
	}

	cfg = applyOption(cfg, WithClusteringConfig(e.Clustering.ToClusteringConfig()))
	cfg = applyOption(cfg, WithBackfillConfig(e.Backfill.ToBackfillConfig()))
	cfg = applyOption(cfg, WithMetadataConfig(e.Metadata.ToMetadataConfig()))
	cfg = applyOption(cfg, WithSearchLimit(e.SearchLimit))
	cfg = applyOption(cfg, WithSearchThreshold(e.SearchThreshold))

	return cfg
}

func applyOption(cfg AppConfig, opt AppConfigOption) AppConfig {
	opt(&cfg)
	return cfg
}

func (e EndpointEnv) normalize() EndpointEnv {
	e.BaseURL = strings.TrimSpace(e.BaseURL)
	e.Model = strings.TrimSpace(e.Model)
	e.APIKey = strings.TrimSpace(e.APIKey)
	return e
}

// IsConfigured returns true if the endpoint has credentials or a base URL.
func (e EndpointEnv) IsConfigured() bool {
	return e.APIKey != "" || e.BaseURL != ""
}

// ToEndpoint converts EndpointEnv to Endpoint, using defaultModel when no model is set.
func (e EndpointEnv) ToEndpoint(defaultModel string) Endpoint {
	model := e.Model
	if model == "" {
		model = defaultModel
	}
	opts := []EndpointOption{
		WithModel(model),
		WithTimeout(time.Duration(e.Timeout * float64(time.Second))),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(time.Duration(e.InitialDelay * float64(time.Second))),
		WithBackoffFactor(e.BackoffFactor),
	}
	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}
	return NewEndpointWithOptions(opts...)
}

// ToClusteringConfig converts ClusteringEnv to ClusteringConfig.
func (c ClusteringEnv) ToClusteringConfig() ClusteringConfig {
	return NewClusteringConfig().
		WithMaxClusters(c.MaxClusters).
		WithMaxIterations(c.MaxIterations).
		WithMetric(c.Metric).
		WithLabelParallelism(c.LabelParallelism).
		WithProfilePath(c.Profile)
}

// ToBackfillConfig converts BackfillEnv to BackfillConfig.
func (b BackfillEnv) ToBackfillConfig() BackfillConfig {
	return NewBackfillConfig().
		WithEnabled(b.Enabled).
		WithIntervalSeconds(b.IntervalSeconds).
		WithBatchSize(b.BatchSize).
		WithRate(b.RequestsPerSecond)
}

// ToMetadataConfig converts MetadataEnv to MetadataConfig.
func (m MetadataEnv) ToMetadataConfig() MetadataConfig {
	return NewMetadataConfig().
		WithEnabled(m.Enabled).
		WithTimeoutSeconds(m.TimeoutSeconds).
		WithMaxBytes(m.MaxBytes)
}

func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
