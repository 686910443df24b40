package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "pretty", cfg.LogFormat)
	assert.Equal(t, 10, cfg.SearchLimit)
	assert.Equal(t, 0.7, cfg.SearchThreshold)
	assert.Equal(t, 4, cfg.Clustering.MaxClusters)
	assert.Equal(t, 100, cfg.Clustering.MaxIterations)
	assert.Equal(t, "cosine", cfg.Clustering.Metric)
	assert.True(t, cfg.Backfill.Enabled)
	assert.Equal(t, 30.0, cfg.Backfill.IntervalSeconds)
	assert.Equal(t, 10, cfg.Backfill.BatchSize)
	assert.True(t, cfg.Metadata.Enabled)
	assert.Equal(t, 10.0, cfg.Metadata.TimeoutSeconds)
	assert.Equal(t, int64(2<<20), cfg.Metadata.MaxBytes)
}

func TestLoadFromEnv_OverrideValues(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("PORT", "9090")
	t.Setenv("API_KEYS", "abc:alice,def:bob")
	t.Setenv("CLUSTERING_MAX_CLUSTERS", "6")
	t.Setenv("CLUSTERING_METRIC", "euclidean")
	t.Setenv("BACKFILL_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://skoop.app")
	t.Setenv("METADATA_ENABLED", "false")
	t.Setenv("METADATA_TIMEOUT_SECONDS", "2.5")

	env, err := LoadFromEnv()
	require.NoError(t, err)
	cfg := env.Normalize().ToAppConfig()

	assert.Equal(t, 9090, cfg.Port())
	assert.Equal(t, map[string]string{"abc": "alice", "def": "bob"}, cfg.APIKeys())
	assert.Equal(t, 6, cfg.Clustering().MaxClusters())
	assert.Equal(t, "euclidean", cfg.Clustering().Metric())
	assert.False(t, cfg.Backfill().Enabled())
	assert.Equal(t, []string{"http://localhost:3000", "https://skoop.app"}, cfg.CORSOrigins())
	assert.False(t, cfg.Metadata().Enabled())
	assert.Equal(t, 2500*time.Millisecond, cfg.Metadata().Timeout())
	assert.Equal(t, int64(DefaultMetadataMaxBytes), cfg.Metadata().MaxBytes())
}

func TestLoadFromEnv_Endpoints(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("EMBEDDING_ENDPOINT_API_KEY", "sk-embed")
	t.Setenv("ENRICHMENT_ENDPOINT_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("ENRICHMENT_ENDPOINT_MODEL", "llama3")
	t.Setenv("ENRICHMENT_ENDPOINT_TIMEOUT", "12.5")

	env, err := LoadFromEnv()
	require.NoError(t, err)
	cfg := env.ToAppConfig()

	require.NotNil(t, cfg.EmbeddingEndpoint())
	assert.Equal(t, DefaultEmbeddingModel, cfg.EmbeddingEndpoint().Model())
	assert.Equal(t, "sk-embed", cfg.EmbeddingEndpoint().APIKey())

	require.NotNil(t, cfg.EnrichmentEndpoint())
	assert.Equal(t, "llama3", cfg.EnrichmentEndpoint().Model())
	assert.Equal(t, 12500*time.Millisecond, cfg.EnrichmentEndpoint().Timeout())
}

func TestLoadFromEnv_UnconfiguredEndpoints(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("EMBEDDING_ENDPOINT_MODEL", "only-a-model")

	env, err := LoadFromEnv()
	require.NoError(t, err)
	cfg := env.ToAppConfig()

	assert.Nil(t, cfg.EmbeddingEndpoint())
	assert.Nil(t, cfg.EnrichmentEndpoint())
}

func TestParseLogFormat(t *testing.T) {
	assert.Equal(t, LogFormatJSON, parseLogFormat("JSON"))
	assert.Equal(t, LogFormatPretty, parseLogFormat("pretty"))
	assert.Equal(t, LogFormatPretty, parseLogFormat("anything"))
}

func TestLoadDotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `DATA_DIR=/from/dotenv
LOG_LEVEL=DEBUG
API_KEYS=key1:alice
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	clearEnvVars(t)

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "/from/dotenv", os.Getenv("DATA_DIR"))
	assert.Equal(t, "DEBUG", os.Getenv("LOG_LEVEL"))
	assert.Equal(t, "key1:alice", os.Getenv("API_KEYS"))
}

func TestLoadDotEnv_NonExistent(t *testing.T) {
	clearEnvVars(t)
	assert.NoError(t, LoadDotEnv("/nonexistent/.env"))
}

func TestLoadConfig(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `DATA_DIR=/config/data
LOG_LEVEL=WARN
EMBEDDING_ENDPOINT_API_KEY=sk-test
EMBEDDING_ENDPOINT_MODEL=test-embedding
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	clearEnvVars(t)

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, "/config/data", cfg.DataDir())
	assert.Equal(t, "WARN", cfg.LogLevel())
	require.NotNil(t, cfg.EmbeddingEndpoint())
	assert.Equal(t, "test-embedding", cfg.EmbeddingEndpoint().Model())
}

func clearEnvVars(t *testing.T) {
	t.Helper()

	vars := []string{
		"HOST", "PORT", "DATA_DIR", "DB_URL", "LOG_LEVEL", "LOG_FORMAT",
		"API_KEYS", "CORS_ALLOWED_ORIGINS", "MODEL_DIR",
		"SEARCH_LIMIT", "SEARCH_THRESHOLD",
		"CLUSTERING_MAX_CLUSTERS", "CLUSTERING_MAX_ITERATIONS", "CLUSTERING_METRIC",
		"CLUSTERING_LABEL_PARALLELISM", "CLUSTERING_PROFILE",
		"BACKFILL_ENABLED", "BACKFILL_INTERVAL_SECONDS", "BACKFILL_BATCH_SIZE",
		"BACKFILL_REQUESTS_PER_SECOND",
		"METADATA_ENABLED", "METADATA_TIMEOUT_SECONDS", "METADATA_MAX_BYTES",
	}
	for _, prefix := range []string{"EMBEDDING_ENDPOINT_", "ENRICHMENT_ENDPOINT_"} {
		for _, suffix := range []string{"BASE_URL", "MODEL", "API_KEY", "TIMEOUT", "MAX_RETRIES", "INITIAL_DELAY", "BACKOFF_FACTOR"} {
			vars = append(vars, prefix+suffix)
		}
	}

	for _, v := range vars {
		t.Setenv(v, "")
		require.NoError(t, os.Unsetenv(v))
	}
}
