package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techvault/skoop/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "skoop version dev")
}

func TestClusterCmd_RequiresUser(t *testing.T) {
	t.Setenv(userEnv, "")
	_, err := execute(t, "cluster")
	assert.ErrorContains(t, err, "a user is required")
}

func TestClusterCmd_EmptyUser(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("DB_URL", "")

	out, err := execute(t, "cluster", "--user", "alice")
	require.NoError(t, err)
	assert.JSONEq(t, `{"clusters":[]}`, out)
}

func TestBackfillCmd_NothingToDo(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("DB_URL", "")

	out, err := execute(t, "backfill", "--all")
	require.NoError(t, err)
	assert.Equal(t, "embedded: 0\nsummarized: 0\nfailed: 0\n", out)
}

func TestApplyServeOverrides(t *testing.T) {
	cfg := applyServeOverrides(config.NewAppConfig(), "127.0.0.1", 9090)
	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())

	cfg = applyServeOverrides(config.NewAppConfig(), "", 0)
	assert.Equal(t, config.DefaultHost, cfg.Host())
	assert.Equal(t, config.DefaultPort, cfg.Port())
}

func TestClientOptions_Endpoints(t *testing.T) {
	cfg := config.NewAppConfigWithOptions(
		config.WithEmbeddingEndpoint(config.NewEndpointWithOptions(
			config.WithBaseURL("http://localhost:11434/v1"),
			config.WithModel("nomic-embed-text"),
		)),
	)
	assert.Len(t, embeddingOptions(cfg), 1)
	assert.Empty(t, textOptions(cfg))
	assert.Len(t, clientOptions(cfg, nil), 10)
}
