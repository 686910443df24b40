package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techvault/skoop/application/service"
	"github.com/techvault/skoop/domain/resource"
	"github.com/techvault/skoop/infrastructure/api"
	"github.com/techvault/skoop/infrastructure/api/v1/dto"
	"github.com/techvault/skoop/infrastructure/keyword"
	"github.com/techvault/skoop/infrastructure/labeler"
	"github.com/techvault/skoop/infrastructure/persistence"
	"github.com/techvault/skoop/infrastructure/provider"
	mcpinternal "github.com/techvault/skoop/internal/mcp"
	"github.com/techvault/skoop/internal/testdb"
)

const model = "test-embedding"

// chatServer answers every chat completion with a label naming the first
// resource title in the prompt.
func chatServer(t *testing.T, calls *atomic.Int64, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
			return
		}
		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		prompt := body.Messages[len(body.Messages)-1].Content
		_, rest, _ := strings.Cut(prompt, "these resources: ")
		first, _, _ := strings.Cut(rest, ",")
		first, _, _ = strings.Cut(first, ".")

		content, err := json.Marshal(map[string]string{"title": "About " + first, "description": "Resources like " + first})
		require.NoError(t, err)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": string(content)}, "finish_reason": "stop"}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

type fixture struct {
	handler http.Handler
	store   persistence.ResourceStore
	calls   *atomic.Int64
}

func newFixture(t *testing.T, status int) fixture {
	t.Helper()
	db := testdb.New(t)
	store := persistence.NewResourceStore(db)

	calls := &atomic.Int64{}
	chat := provider.NewOpenAIProvider(provider.OpenAIConfig{
		APIKey:     "test",
		BaseURL:    chatServer(t, calls, status).URL,
		ChatModel:  provider.DefaultChatModel,
		MaxRetries: -1,
	})

	index, err := keyword.NewMemoryIndex()
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	clusters := service.NewClusters(store, labeler.NewProviderLabeler(chat, nil), nil, service.WithEmbeddingModel(model))
	resources := service.NewResources(store, index, nil, nil)
	search := service.NewSearch(store, nil, index)

	collections := service.NewCollections(persistence.NewCollectionStore(db), store, nil)

	services := api.Services{Clusters: clusters, Resources: resources, Search: search, Collections: collections}
	mcpSrv := mcpinternal.NewServer(clusters, search, "", "test", nil)
	srv := api.NewAPIServer(services, map[string]string{"alice-key": "alice", "bob-key": "bob"},
		api.WithCORSOrigins([]string{"https://app.example.com"}),
		api.WithMCP(mcpSrv),
		api.WithVersion("1.2.3"),
	)
	return fixture{handler: srv.Handler(), store: store, calls: calls}
}

func (f fixture) seed(t *testing.T, i int, id, user, title string, tags []string, embedding []float64) {
	t.Helper()
	at := time.Date(2026, 5, 1, 0, i, 0, 0, time.UTC)
	_, err := f.store.Save(context.Background(),
		resource.Reconstruct(id, user, title, "", "", resource.TypeArticle, tags, "", embedding, model, at, at))
	require.NoError(t, err)
}

func (f fixture) get(t *testing.T, path, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func (f fixture) send(t *testing.T, method, path, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-API-KEY", key)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func TestAPIServer_HealthAndInfo(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	for _, path := range []string{"/health", "/healthz"} {
		w := f.get(t, path, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
	}

	w := f.get(t, "/", "")
	assert.JSONEq(t, `{"name":"skoop","version":"1.2.3"}`, w.Body.String())
}

func TestAPIServer_ClustersEndToEnd(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	f.seed(t, 0, "r1", "alice", "Go channels", []string{"go", "concurrency"}, []float64{1, 0.1})
	f.seed(t, 1, "r2", "alice", "Sourdough starter", []string{"baking"}, []float64{-1, 0.1})
	f.seed(t, 2, "r3", "alice", "Go mutexes", []string{"go"}, []float64{0.9, 0.2})
	f.seed(t, 3, "r4", "alice", "Rye bread", []string{"baking"}, []float64{-0.9, 0.2})
	f.seed(t, 4, "r9", "bob", "Not alice's", nil, []float64{1, 0})
	f.seed(t, 5, "r5", "alice", "No embedding", nil, nil)

	w := f.get(t, "/api/v1/clusters", "alice-key")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got dto.ClustersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Clusters, 4, "k = min(4, N) with N = 4")

	seen := map[string]bool{}
	total := 0
	for i, c := range got.Clusters {
		assert.Equal(t, c.Count, len(c.ResourceIDs))
		assert.True(t, strings.HasPrefix(c.Title, "About "), c.Title)
		assert.NotEmpty(t, c.Icon)
		assert.NotEmpty(t, c.Color)
		if i > 0 {
			assert.Greater(t, c.ID, got.Clusters[i-1].ID)
		}
		for _, id := range c.ResourceIDs {
			assert.False(t, seen[id])
			seen[id] = true
		}
		total += c.Count
	}
	assert.Equal(t, 4, total)
	assert.NotContains(t, seen, "r9")
	assert.NotContains(t, seen, "r5")
	assert.EqualValues(t, 4, f.calls.Load())
}

func TestAPIServer_ClustersEmptyUser(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	w := f.get(t, "/api/v1/clusters", "bob-key")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"clusters":[]}`, w.Body.String())
	assert.Zero(t, f.calls.Load(), "no LLM calls without resources")
}

func TestAPIServer_ClustersLabelFailure(t *testing.T) {
	f := newFixture(t, http.StatusUnauthorized)
	f.seed(t, 0, "r1", "alice", "Go channels", []string{"go"}, []float64{1, 0})

	w := f.get(t, "/api/v1/clusters", "alice-key")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
	assert.NotContains(t, w.Body.String(), "bad key")
}

func TestAPIServer_Unauthorized(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	for _, path := range []string{"/api/v1/clusters", "/api/v1/resources", "/api/v1/search?q=go", "/mcp"} {
		w := f.get(t, path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		w = f.get(t, path, "wrong")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestAPIServer_ResourcesAndKeywordSearch(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resources",
		strings.NewReader(`{"title":"Understanding Raft","description":"Consensus made simple","tags":["distributed"]}`))
	req.Header.Set("X-API-KEY", "alice-key")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created dto.ResourceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "other", created.Type)

	w = f.get(t, "/api/v1/search?q=raft&mode=keyword", "alice-key")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var results dto.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results.Results, 1)
	assert.Equal(t, created.ID, results.Results[0].ID)

	w = f.get(t, "/api/v1/search?q=raft&mode=keyword", "bob-key")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Empty(t, results.Results)

	w = f.get(t, "/api/v1/resources", "alice-key")
	var page dto.ResourcesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.EqualValues(t, 1, page.Total)
}

func TestAPIServer_CORS(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/clusters", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "X-API-KEY")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/clusters", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w = httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPIServer_PatchAndCollections(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	f.seed(t, 0, "r1", "alice", "Go channels", []string{"go"}, []float64{1, 0})

	w := f.send(t, http.MethodPatch, "/api/v1/resources/r1", "alice-key", `{"title":"Go channels in depth"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var patched dto.ResourceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &patched))
	assert.Equal(t, "Go channels in depth", patched.Title)
	assert.False(t, patched.HasEmbedding)

	w = f.send(t, http.MethodPost, "/api/v1/collections", "alice-key", `{"name":"Concurrency"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created dto.CollectionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "/api/v1/collections/"+created.ID, w.Header().Get("Location"))

	w = f.send(t, http.MethodPut, "/api/v1/collections/"+created.ID+"/resources/r1", "alice-key", "")
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	w = f.send(t, http.MethodPut, "/api/v1/collections/"+created.ID+"/resources/r1", "bob-key", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.get(t, "/api/v1/collections/"+created.ID, "alice-key")
	require.Equal(t, http.StatusOK, w.Code)
	var got dto.CollectionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 1, got.ResourceCount)

	w = f.get(t, "/api/v1/metadata?url=https%3A%2F%2Fgo.dev", "alice-key")
	assert.Equal(t, http.StatusNotFound, w.Code, "metadata is only mounted when a fetcher is set")
}
