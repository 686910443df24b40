// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost                  = "0.0.0.0"
	DefaultPort                  = 8080
	DefaultLogLevel              = "INFO"
	DefaultSearchLimit           = 10
	DefaultSearchThreshold       = 0.7
	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 5
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoffFactor = 2.0
	DefaultEmbeddingModel        = "text-embedding-3-small"
	DefaultChatModel             = "gpt-3.5-turbo"
	DefaultMaxClusters           = 4
	DefaultMaxIterations         = 100
	DefaultMetric                = "cosine"
	DefaultLabelParallelism      = 4
	DefaultBackfillInterval      = 30 * time.Second
	DefaultBackfillBatchSize     = 10
	DefaultBackfillRate          = 2.0 // requests per second
	DefaultMetadataTimeout       = 10 * time.Second
	DefaultMetadataMaxBytes      = 2 << 20
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures an OpenAI-compatible service endpoint.
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialDelay,
		backoffFactor: DefaultEndpointBackoffFactor,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum number of retries.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the first retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// IsConfigured reports whether the endpoint can be called.
func (e Endpoint) IsConfigured() bool {
	return e.apiKey != "" || e.baseURL != ""
}

// EndpointOption configures an Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the first retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// NewEndpointWithOptions creates an Endpoint with options applied over the defaults.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// ClusteringConfig configures suggested-cluster computation.
type ClusteringConfig struct {
	maxClusters      int
	maxIterations    int
	metric           string
	labelParallelism int
	profilePath      string
}

// NewClusteringConfig creates a ClusteringConfig with defaults.
func NewClusteringConfig() ClusteringConfig {
	return ClusteringConfig{
		maxClusters:      DefaultMaxClusters,
		maxIterations:    DefaultMaxIterations,
		metric:           DefaultMetric,
		labelParallelism: DefaultLabelParallelism,
	}
}

// MaxClusters returns the upper bound on k.
func (c ClusteringConfig) MaxClusters() int { return c.maxClusters }

// MaxIterations returns the k-means iteration cap.
func (c ClusteringConfig) MaxIterations() int { return c.maxIterations }

// Metric returns the distance metric name.
func (c ClusteringConfig) Metric() string { return c.metric }

// LabelParallelism returns how many labeling calls may run at once.
func (c ClusteringConfig) LabelParallelism() int { return c.labelParallelism }

// ProfilePath returns the path of the YAML presentation profile, if any.
func (c ClusteringConfig) ProfilePath() string { return c.profilePath }

// WithMaxClusters returns a copy with the given cluster bound.
func (c ClusteringConfig) WithMaxClusters(n int) ClusteringConfig {
	if n > 0 {
		c.maxClusters = n
	}
	return c
}

// WithMaxIterations returns a copy with the given iteration cap.
func (c ClusteringConfig) WithMaxIterations(n int) ClusteringConfig {
	if n > 0 {
		c.maxIterations = n
	}
	return c
}

// WithMetric returns a copy with the given metric name.
func (c ClusteringConfig) WithMetric(metric string) ClusteringConfig {
	if metric != "" {
		c.metric = strings.ToLower(metric)
	}
	return c
}

// WithLabelParallelism returns a copy with the given labeling parallelism.
func (c ClusteringConfig) WithLabelParallelism(n int) ClusteringConfig {
	if n > 0 {
		c.labelParallelism = n
	}
	return c
}

// WithProfilePath returns a copy with the given profile path.
func (c ClusteringConfig) WithProfilePath(path string) ClusteringConfig {
	c.profilePath = path
	return c
}

// BackfillConfig configures the background embedding and summary worker.
type BackfillConfig struct {
	enabled   bool
	interval  time.Duration
	batchSize int
	rate      float64
}

// NewBackfillConfig creates a BackfillConfig with defaults.
func NewBackfillConfig() BackfillConfig {
	return BackfillConfig{
		enabled:   true,
		interval:  DefaultBackfillInterval,
		batchSize: DefaultBackfillBatchSize,
		rate:      DefaultBackfillRate,
	}
}

// Enabled reports whether the worker runs with the server.
func (b BackfillConfig) Enabled() bool { return b.enabled }

// Interval returns the time between passes.
func (b BackfillConfig) Interval() time.Duration { return b.interval }

// BatchSize returns how many resources a pass handles per kind.
func (b BackfillConfig) BatchSize() int { return b.batchSize }

// Rate returns the provider request rate in requests per second.
func (b BackfillConfig) Rate() float64 { return b.rate }

// WithEnabled returns a copy with enabled set.
func (b BackfillConfig) WithEnabled(enabled bool) BackfillConfig {
	b.enabled = enabled
	return b
}

// WithIntervalSeconds returns a copy with the interval in seconds.
func (b BackfillConfig) WithIntervalSeconds(seconds float64) BackfillConfig {
	if seconds > 0 {
		b.interval = time.Duration(seconds * float64(time.Second))
	}
	return b
}

// WithBatchSize returns a copy with the batch size.
func (b BackfillConfig) WithBatchSize(n int) BackfillConfig {
	if n > 0 {
		b.batchSize = n
	}
	return b
}

// WithRate returns a copy with the request rate. Zero disables pacing;
// negative values are ignored.
func (b BackfillConfig) WithRate(rps float64) BackfillConfig {
	if rps >= 0 {
		b.rate = rps
	}
	return b
}

// MetadataConfig configures fetching title, description and preview image
// from a saved URL.
type MetadataConfig struct {
	enabled  bool
	timeout  time.Duration
	maxBytes int64
}

// NewMetadataConfig creates a MetadataConfig with defaults.
func NewMetadataConfig() MetadataConfig {
	return MetadataConfig{
		enabled:  true,
		timeout:  DefaultMetadataTimeout,
		maxBytes: DefaultMetadataMaxBytes,
	}
}

// Enabled reports whether pages may be fetched.
func (m MetadataConfig) Enabled() bool { return m.enabled }

// Timeout returns the per-page fetch timeout.
func (m MetadataConfig) Timeout() time.Duration { return m.timeout }

// MaxBytes returns how much of a page body is read.
func (m MetadataConfig) MaxBytes() int64 { return m.maxBytes }

// WithEnabled returns a copy with enabled set.
func (m MetadataConfig) WithEnabled(enabled bool) MetadataConfig {
	m.enabled = enabled
	return m
}

// WithTimeoutSeconds returns a copy with the fetch timeout in seconds.
func (m MetadataConfig) WithTimeoutSeconds(seconds float64) MetadataConfig {
	if seconds > 0 {
		m.timeout = time.Duration(seconds * float64(time.Second))
	}
	return m
}

// WithMaxBytes returns a copy with the body limit.
func (m MetadataConfig) WithMaxBytes(n int64) MetadataConfig {
	if n > 0 {
		m.maxBytes = n
	}
	return m
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host               string
	port               int
	dataDir            string
	dbURL              string
	logLevel           string
	logFormat          LogFormat
	apiKeys            map[string]string
	corsOrigins        []string
	embeddingEndpoint  *Endpoint
	enrichmentEndpoint *Endpoint
	modelDir           string
	clustering         ClusteringConfig
	backfill           BackfillConfig
	metadata           MetadataConfig
	searchLimit        int
	searchThreshold    float64
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".skoop"
	}
	return filepath.Join(home, ".skoop")
}

// PrepareDataDir creates the data directory if it does not exist and returns it.
func PrepareDataDir(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dataDir, nil
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:            DefaultHost,
		port:            DefaultPort,
		dataDir:         dataDir,
		dbURL:           "sqlite:///" + filepath.Join(dataDir, "skoop.db"),
		logLevel:        DefaultLogLevel,
		logFormat:       LogFormatPretty,
		apiKeys:         map[string]string{},
		corsOrigins:     []string{},
		clustering:      NewClusteringConfig(),
		backfill:        NewBackfillConfig(),
		metadata:        NewMetadataConfig(),
		searchLimit:     DefaultSearchLimit,
		searchThreshold: DefaultSearchThreshold,
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// APIKeys returns a copy of the API key to user ID mapping.
func (c AppConfig) APIKeys() map[string]string {
	keys := make(map[string]string, len(c.apiKeys))
	for k, v := range c.apiKeys {
		keys[k] = v
	}
	return keys
}

// CORSOrigins returns the allowed CORS origins.
func (c AppConfig) CORSOrigins() []string {
	origins := make([]string, len(c.corsOrigins))
	copy(origins, c.corsOrigins)
	return origins
}

// EmbeddingEndpoint returns the embedding endpoint, or nil if not configured.
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// EnrichmentEndpoint returns the chat completion endpoint, or nil if not configured.
func (c AppConfig) EnrichmentEndpoint() *Endpoint { return c.enrichmentEndpoint }

// ModelDir returns the directory holding local embedding models.
func (c AppConfig) ModelDir() string {
	if c.modelDir != "" {
		return c.modelDir
	}
	return filepath.Join(c.dataDir, "models")
}

// Clustering returns the clustering configuration.
func (c AppConfig) Clustering() ClusteringConfig { return c.clustering }

// Backfill returns the backfill worker configuration.
func (c AppConfig) Backfill() BackfillConfig { return c.backfill }

// Metadata returns the page metadata configuration.
func (c AppConfig) Metadata() MetadataConfig { return c.metadata }

// SearchLimit returns the default search result limit.
func (c AppConfig) SearchLimit() int { return c.searchLimit }

// SearchThreshold returns the minimum semantic similarity for a match.
func (c AppConfig) SearchThreshold() float64 { return c.searchThreshold }

// EnsureDataDir creates the data directory if it does not exist.
func (c AppConfig) EnsureDataDir() error {
	_, err := PrepareDataDir(c.dataDir)
	return err
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory and moves the default SQLite file with it.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		defaultURL := "sqlite:///" + filepath.Join(c.dataDir, "skoop.db")
		c.dataDir = dir
		if c.dbURL == defaultURL {
			c.dbURL = "sqlite:///" + filepath.Join(dir, "skoop.db")
		}
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithAPIKeys sets the API key to user ID mapping.
func WithAPIKeys(keys map[string]string) AppConfigOption {
	return func(c *AppConfig) {
		c.apiKeys = make(map[string]string, len(keys))
		for k, v := range keys {
			c.apiKeys[k] = v
		}
	}
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) AppConfigOption {
	return func(c *AppConfig) {
		c.corsOrigins = make([]string, len(origins))
		copy(c.corsOrigins, origins)
	}
}

// WithEmbeddingEndpoint sets the embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}

// WithEnrichmentEndpoint sets the chat completion endpoint.
func WithEnrichmentEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.enrichmentEndpoint = &e }
}

// WithModelDir sets the local model directory.
func WithModelDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.modelDir = dir }
}

// WithClusteringConfig sets the clustering configuration.
func WithClusteringConfig(cc ClusteringConfig) AppConfigOption {
	return func(c *AppConfig) { c.clustering = cc }
}

// WithBackfillConfig sets the backfill worker configuration.
func WithBackfillConfig(b BackfillConfig) AppConfigOption {
	return func(c *AppConfig) { c.backfill = b }
}

// WithMetadataConfig sets the page metadata configuration.
func WithMetadataConfig(m MetadataConfig) AppConfigOption {
	return func(c *AppConfig) { c.metadata = m }
}

// WithSearchLimit sets the default search limit.
func WithSearchLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.searchLimit = n
		}
	}
}

// WithSearchThreshold sets the semantic similarity threshold.
func WithSearchThreshold(t float64) AppConfigOption {
	return func(c *AppConfig) {
		if t > 0 && t <= 1 {
			c.searchThreshold = t
		}
	}
}

// NewAppConfigWithOptions creates an AppConfig with options applied over the defaults.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	return NewAppConfig().Apply(opts...)
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// API keys are shown as a count.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("log_level", c.logLevel),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("embedding_base_url", c.endpointBaseURL(c.embeddingEndpoint)),
		slog.String("embedding_model", c.endpointModel(c.embeddingEndpoint)),
		slog.String("enrichment_base_url", c.endpointBaseURL(c.enrichmentEndpoint)),
		slog.String("enrichment_model", c.endpointModel(c.enrichmentEndpoint)),
		slog.Int("api_keys_count", len(c.apiKeys)),
		slog.Int("max_clusters", c.clustering.MaxClusters()),
		slog.String("metric", c.clustering.Metric()),
		slog.Bool("backfill_enabled", c.backfill.Enabled()),
		slog.Duration("backfill_interval", c.backfill.Interval()),
		slog.Bool("metadata_enabled", c.metadata.Enabled()),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

func (c AppConfig) endpointBaseURL(e *Endpoint) string {
	if e == nil {
		return "(not configured)"
	}
	if e.BaseURL() == "" {
		return "(openai)"
	}
	return e.BaseURL()
}

func (c AppConfig) endpointModel(e *Endpoint) string {
	if e == nil {
		return "(not configured)"
	}
	return e.Model()
}

// ParseAPIKeys parses a comma-separated list of key:user pairs.
// A bare key without a user maps to a user of the same name.
func ParseAPIKeys(s string) map[string]string {
	keys := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, user, found := strings.Cut(part, ":")
		key = strings.TrimSpace(key)
		user = strings.TrimSpace(user)
		if key == "" {
			continue
		}
		if !found || user == "" {
			user = key
		}
		keys[key] = user
	}
	return keys
}

// ParseList parses a comma-separated list, dropping blanks.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
