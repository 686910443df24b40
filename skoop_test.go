package skoop_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techvault/skoop"
	"github.com/techvault/skoop/application/service"
	"github.com/techvault/skoop/infrastructure/provider"
	"github.com/techvault/skoop/internal/config"
)

// topicEmbedder places database texts on one axis and everything else on
// the other.
type topicEmbedder struct{}

func (topicEmbedder) Embed(_ context.Context, req provider.EmbeddingRequest) (provider.EmbeddingResponse, error) {
	texts := req.Texts()
	out := make([][]float64, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		if strings.Contains(lower, "sql") || strings.Contains(lower, "database") {
			out[i] = []float64{1, 0.1}
		} else {
			out[i] = []float64{0.1, 1}
		}
	}
	return provider.NewEmbeddingResponse(out, provider.NewUsage(0, 0, 0)), nil
}

type cannedGenerator struct{}

func (cannedGenerator) ChatCompletion(_ context.Context, req provider.ChatCompletionRequest) (provider.ChatCompletionResponse, error) {
	content := "A short summary."
	if req.JSONOutput() {
		content = `{"title":"Reading list","description":"Saved links on one theme"}`
	}
	return provider.NewChatCompletionResponse(content, "stop", provider.NewUsage(0, 0, 0)), nil
}

func newClient(t *testing.T, opts ...skoop.Option) *skoop.Client {
	t.Helper()
	dir := t.TempDir()
	base := []skoop.Option{
		skoop.WithSQLite(filepath.Join(dir, "skoop.db")),
		skoop.WithDataDir(dir),
		skoop.WithMemoryKeywordIndex(),
		skoop.WithoutLocalEmbedding(),
	}
	client, err := skoop.New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func saveAll(t *testing.T, client *skoop.Client, userID string, titles ...string) {
	t.Helper()
	for _, title := range titles {
		_, err := client.Resources.Save(context.Background(), userID, service.SaveParams{
			Title: title,
			URL:   "https://example.com/" + strings.ReplaceAll(strings.ToLower(title), " ", "-"),
		})
		require.NoError(t, err)
	}
}

func TestNew_RequiresDatabase(t *testing.T) {
	_, err := skoop.New(skoop.WithDataDir(t.TempDir()))
	assert.ErrorIs(t, err, skoop.ErrNoDatabase)
}

func TestNew_UnsupportedDatabase(t *testing.T) {
	_, err := skoop.New(skoop.WithDatabaseURL("mysql://localhost/skoop"), skoop.WithDataDir(t.TempDir()))
	assert.Error(t, err)
}

func TestClient_ClustersAndSearch(t *testing.T) {
	ctx := context.Background()
	client := newClient(t,
		skoop.WithEmbeddingProvider(topicEmbedder{}, "topic-v1"),
		skoop.WithTextProvider(cannedGenerator{}),
		skoop.WithClusteringConfig(config.NewClusteringConfig().WithMaxClusters(2)),
	)
	assert.Equal(t, "topic-v1", client.EmbeddingModel())

	saveAll(t, client, "alice", "Postgres indexing", "SQL window functions", "CSS grid guide", "React hooks")
	saveAll(t, client, "bob", "Database sharding")

	clusters, err := client.Clusters.Suggest(ctx, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, clusters)

	total := 0
	for _, c := range clusters {
		assert.Equal(t, "Reading list", c.Title())
		assert.NotEmpty(t, c.Icon())
		assert.NotEmpty(t, c.Color())
		total += c.Count()
	}
	assert.Equal(t, 4, total)

	semantic, err := client.Search.Semantic(ctx, "alice", "database", 10)
	require.NoError(t, err)
	require.Len(t, semantic, 2)
	for _, r := range semantic {
		assert.Equal(t, "alice", r.Resource().UserID())
	}

	keyword, err := client.Search.Keyword(ctx, "alice", "react", 10)
	require.NoError(t, err)
	require.Len(t, keyword, 1)
	assert.Equal(t, "React hooks", keyword[0].Resource().Title())
}

func TestClient_BackfillSummarizes(t *testing.T) {
	ctx := context.Background()
	client := newClient(t, skoop.WithTextProvider(cannedGenerator{}))

	saveAll(t, client, "alice", "Postgres indexing")

	report, err := client.Backfill.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summarized)

	list, err := client.Resources.List(ctx, "alice", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "A short summary.", list[0].Summary())
}

func TestClient_WithoutProviders(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)
	assert.Empty(t, client.EmbeddingModel())

	saveAll(t, client, "alice", "Postgres indexing")

	clusters, err := client.Clusters.Suggest(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestClient_RebuildsMissingIndex(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	opts := []skoop.Option{
		skoop.WithSQLite(filepath.Join(dir, "skoop.db")),
		skoop.WithDataDir(dir),
		skoop.WithKeywordIndexPath(filepath.Join(dir, "index.bleve")),
		skoop.WithoutLocalEmbedding(),
	}

	client, err := skoop.New(opts...)
	require.NoError(t, err)
	saveAll(t, client, "alice", "Raft consensus")
	require.NoError(t, client.Close())

	require.NoError(t, os.RemoveAll(filepath.Join(dir, "index.bleve")))

	client, err = skoop.New(opts...)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	hits, err := client.Search.Keyword(ctx, "alice", "raft", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Raft consensus", hits[0].Resource().Title())
}

func TestClient_CloseTwice(t *testing.T) {
	dir := t.TempDir()
	client, err := skoop.New(
		skoop.WithSQLite(filepath.Join(dir, "skoop.db")),
		skoop.WithDataDir(dir),
		skoop.WithMemoryKeywordIndex(),
		skoop.WithoutLocalEmbedding(),
	)
	require.NoError(t, err)

	require.NoError(t, client.Close())
	assert.ErrorIs(t, client.Close(), skoop.ErrClientClosed)
}

type recordingCloser struct{ closed bool }

func (c *recordingCloser) Close() error {
	c.closed = true
	return nil
}

func TestNew_ClosesRegisteredClosersOnError(t *testing.T) {
	dir := t.TempDir()
	closer := &recordingCloser{}
	_, err := skoop.New(
		skoop.WithSQLite(filepath.Join(dir, "skoop.db")),
		skoop.WithDataDir(dir),
		skoop.WithMemoryKeywordIndex(),
		skoop.WithoutLocalEmbedding(),
		skoop.WithCloser(closer),
		skoop.WithClusteringConfig(config.NewClusteringConfig().WithProfilePath(filepath.Join(dir, "missing.yaml"))),
	)
	require.Error(t, err)
	assert.True(t, closer.closed)
}

func TestClient_Collections(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)

	saveAll(t, client, "alice", "Postgres indexing", "React hooks")
	list, err := client.Resources.List(ctx, "alice", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)

	c, err := client.Collections.Create(ctx, "alice", service.CollectionParams{Name: "Databases"})
	require.NoError(t, err)
	require.NoError(t, client.Collections.AddResource(ctx, "alice", c.ID(), list[0].ID()))

	members, total, err := client.Collections.Resources(ctx, "alice", c.ID(), 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, members, 1)
	assert.Equal(t, list[0].ID(), members[0].ID())

	require.NoError(t, client.Resources.Delete(ctx, "alice", list[0].ID()))
	got, err := client.Collections.Get(ctx, "alice", c.ID())
	require.NoError(t, err)
	assert.Zero(t, got.ResourceCount())
}

func TestClient_MetadataOptIn(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><meta property="og:title" content="Raft explained"><meta property="og:description" content="Consensus, visualised"></head></html>`))
	}))
	t.Cleanup(page.Close)

	off := newClient(t)
	assert.Nil(t, off.Metadata)

	client := newClient(t, skoop.WithMetadataConfig(config.NewMetadataConfig()))
	require.NotNil(t, client.Metadata)

	saved, err := client.Resources.Save(context.Background(), "alice", service.SaveParams{URL: page.URL})
	require.NoError(t, err)
	assert.Equal(t, "Raft explained", saved.Title())
	assert.Equal(t, "Consensus, visualised", saved.Description())
}
