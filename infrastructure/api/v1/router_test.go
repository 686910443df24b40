package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techvault/skoop/application/service"
	"github.com/techvault/skoop/domain/cluster"
	"github.com/techvault/skoop/domain/collection"
	"github.com/techvault/skoop/domain/repository"
	"github.com/techvault/skoop/domain/resource"
	domainservice "github.com/techvault/skoop/domain/service"
	"github.com/techvault/skoop/infrastructure/api/middleware"
	v1 "github.com/techvault/skoop/infrastructure/api/v1"
	"github.com/techvault/skoop/infrastructure/api/v1/dto"
)

var created = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sample(id, user, title string) resource.Resource {
	return resource.Reconstruct(id, user, title, "", "https://example.com/"+id, resource.TypeArticle,
		[]string{"go"}, "", []float64{1, 0}, "test-model", created, created)
}

type fakeClusters struct {
	clusters []cluster.Cluster
	err      error
	user     string
}

func (f *fakeClusters) Suggest(_ context.Context, userID string) ([]cluster.Cluster, error) {
	f.user = userID
	return f.clusters, f.err
}

type fakeResources struct {
	items  map[string]resource.Resource
	saved  service.SaveParams
	limit  int
	offset int
	err    error
}

func newFakeResources(items ...resource.Resource) *fakeResources {
	f := &fakeResources{items: map[string]resource.Resource{}}
	for _, r := range items {
		f.items[r.ID()] = r
	}
	return f
}

func (f *fakeResources) Save(_ context.Context, userID string, p service.SaveParams) (resource.Resource, error) {
	f.saved = p
	if f.err != nil {
		return resource.Resource{}, f.err
	}
	kind, err := resource.ParseType(p.Type)
	if err != nil {
		return resource.Resource{}, err
	}
	r := resource.New("new-id", userID, p.Title, p.Description, p.URL, kind, p.Tags)
	if err := r.Validate(); err != nil {
		return resource.Resource{}, err
	}
	f.items[r.ID()] = r
	return r, nil
}

func (f *fakeResources) List(_ context.Context, userID string, limit, offset int) ([]resource.Resource, error) {
	f.limit, f.offset = limit, offset
	var out []resource.Resource
	for _, r := range f.items {
		if r.UserID() == userID {
			out = append(out, r)
		}
	}
	return out, f.err
}

func (f *fakeResources) Count(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, r := range f.items {
		if r.UserID() == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeResources) Get(_ context.Context, userID, id string) (resource.Resource, error) {
	r, ok := f.items[id]
	if !ok || r.UserID() != userID {
		return resource.Resource{}, repository.ErrNotFound
	}
	return r, nil
}

func (f *fakeResources) Update(ctx context.Context, userID, id string, p service.UpdateParams) (resource.Resource, error) {
	r, err := f.Get(ctx, userID, id)
	if err != nil {
		return resource.Resource{}, err
	}
	edit := resource.Edit{Title: p.Title, Description: p.Description, URL: p.URL, Tags: p.Tags}
	if p.Type != nil {
		kind, err := resource.ParseType(*p.Type)
		if err != nil {
			return resource.Resource{}, err
		}
		edit.Type = &kind
	}
	r = r.WithEdit(edit)
	if err := r.Validate(); err != nil {
		return resource.Resource{}, err
	}
	f.items[id] = r
	return r, nil
}

func (f *fakeResources) Delete(ctx context.Context, userID, id string) error {
	if _, err := f.Get(ctx, userID, id); err != nil {
		return err
	}
	delete(f.items, id)
	return nil
}

type fakeSearch struct {
	results []service.SearchResult
	err     error
	mode    string
	limit   int
}

func (f *fakeSearch) Semantic(_ context.Context, _, query string, limit int) ([]service.SearchResult, error) {
	f.mode, f.limit = "semantic", limit
	return f.results, f.err
}

func (f *fakeSearch) Keyword(_ context.Context, _, query string, limit int) ([]service.SearchResult, error) {
	f.mode, f.limit = "keyword", limit
	return f.results, f.err
}

type fakeCollections struct {
	items   map[string]collection.Collection
	members map[string][]string
	limit   int
}

func newFakeCollections(items ...collection.Collection) *fakeCollections {
	f := &fakeCollections{items: map[string]collection.Collection{}, members: map[string][]string{}}
	for _, c := range items {
		f.items[c.ID()] = c
	}
	return f
}

func (f *fakeCollections) List(_ context.Context, userID string) ([]collection.Collection, error) {
	var out []collection.Collection
	for _, c := range f.items {
		if c.UserID() == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCollections) Get(_ context.Context, userID, id string) (collection.Collection, error) {
	c, ok := f.items[id]
	if !ok || c.UserID() != userID {
		return collection.Collection{}, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeCollections) Create(_ context.Context, userID string, p service.CollectionParams) (collection.Collection, error) {
	c := collection.New("col-1", userID, p.Name, p.Description, p.Public)
	if err := c.Validate(); err != nil {
		return collection.Collection{}, err
	}
	f.items[c.ID()] = c
	return c, nil
}

func (f *fakeCollections) Update(ctx context.Context, userID, id string, p service.CollectionUpdateParams) (collection.Collection, error) {
	c, err := f.Get(ctx, userID, id)
	if err != nil {
		return collection.Collection{}, err
	}
	c = c.WithEdit(collection.Edit{Name: p.Name, Description: p.Description, Public: p.Public})
	if err := c.Validate(); err != nil {
		return collection.Collection{}, err
	}
	f.items[id] = c
	return c, nil
}

func (f *fakeCollections) Delete(ctx context.Context, userID, id string) error {
	if _, err := f.Get(ctx, userID, id); err != nil {
		return err
	}
	delete(f.items, id)
	return nil
}

func (f *fakeCollections) AddResource(ctx context.Context, userID, collectionID, resourceID string) error {
	if _, err := f.Get(ctx, userID, collectionID); err != nil {
		return err
	}
	f.members[collectionID] = append(f.members[collectionID], resourceID)
	return nil
}

func (f *fakeCollections) RemoveResource(ctx context.Context, userID, collectionID, resourceID string) error {
	if _, err := f.Get(ctx, userID, collectionID); err != nil {
		return err
	}
	ids := f.members[collectionID]
	for i, id := range ids {
		if id == resourceID {
			f.members[collectionID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeCollections) Resources(ctx context.Context, userID, collectionID string, limit, _ int) ([]resource.Resource, int64, error) {
	f.limit = limit
	if _, err := f.Get(ctx, userID, collectionID); err != nil {
		return nil, 0, err
	}
	var out []resource.Resource
	for _, id := range f.members[collectionID] {
		out = append(out, sample(id, userID, "Member "+id))
	}
	return out, int64(len(out)), nil
}

type fakeMetadata struct {
	page domainservice.PageMetadata
	err  error
	url  string
}

func (f *fakeMetadata) Fetch(_ context.Context, url string) (domainservice.PageMetadata, error) {
	f.url = url
	return f.page, f.err
}

func newRouter(c v1.ClusterSuggester, r v1.ResourceService, s v1.Searcher) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequireUser(middleware.NewAuthConfig(map[string]string{"key-a": "alice", "key-b": "bob"})))
	router.Mount("/clusters", v1.NewClustersRouter(c, nil).Routes())
	router.Mount("/resources", v1.NewResourcesRouter(r, nil).Routes())
	router.Mount("/search", v1.NewSearchRouter(s, nil).Routes())
	return router
}

func newCollectionsRouter(c v1.CollectionService, m v1.MetadataFetcher) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequireUser(middleware.NewAuthConfig(map[string]string{"key-a": "alice", "key-b": "bob"})))
	router.Mount("/collections", v1.NewCollectionsRouter(c, nil).Routes())
	router.Mount("/metadata", v1.NewMetadataRouter(m, nil).Routes())
	return router
}

func do(t *testing.T, h http.Handler, method, target, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if key != "" {
		req.Header.Set("X-API-KEY", key)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestClusters_List(t *testing.T) {
	label, err := cluster.NewLabel("Go Concurrency", "Goroutines and channels")
	require.NoError(t, err)
	fake := &fakeClusters{clusters: []cluster.Cluster{
		cluster.New(0, label, []string{"r1", "r2"}, "BookOpen", "#3b82f6"),
	}}
	h := newRouter(fake, newFakeResources(), &fakeSearch{})

	w := do(t, h, http.MethodGet, "/clusters", "key-a", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", fake.user)
	assert.JSONEq(t, `{"clusters":[{"id":0,"title":"Go Concurrency","description":"Goroutines and channels",
		"count":2,"resourceIds":["r1","r2"],"icon":"BookOpen","color":"#3b82f6"}]}`, w.Body.String())
}

func TestClusters_EmptyIsEmptyList(t *testing.T) {
	h := newRouter(&fakeClusters{}, newFakeResources(), &fakeSearch{})

	w := do(t, h, http.MethodGet, "/clusters", "key-a", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"clusters":[]}`, w.Body.String())
}

func TestClusters_Unauthorized(t *testing.T) {
	fake := &fakeClusters{}
	h := newRouter(fake, newFakeResources(), &fakeSearch{})

	w := do(t, h, http.MethodGet, "/clusters", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", errorOf(t, w))
	assert.Empty(t, fake.user, "service must not be called")
}

func TestClusters_FailuresAre500(t *testing.T) {
	for _, cause := range []error{
		errors.New("database is locked"),
		domainservice.ErrNoLabeler,
		cluster.ErrDimensionMismatch,
	} {
		h := newRouter(&fakeClusters{err: cause}, newFakeResources(), &fakeSearch{})
		w := do(t, h, http.MethodGet, "/clusters", "key-a", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code, cause.Error())
		assert.NotEmpty(t, errorOf(t, w))
	}
}

func TestResources_CreateGetDelete(t *testing.T) {
	store := newFakeResources()
	h := newRouter(&fakeClusters{}, store, &fakeSearch{})

	w := do(t, h, http.MethodPost, "/resources", "key-a",
		`{"title":"Effective Go","url":"https://go.dev/doc/effective_go","type":"article","tags":["Go","go"]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/resources/new-id", w.Header().Get("Location"))

	var got dto.ResourceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Effective Go", got.Title)
	assert.Equal(t, "article", got.Type)
	assert.Equal(t, []string{"go"}, got.Tags)
	assert.False(t, got.HasEmbedding)

	w = do(t, h, http.MethodGet, "/resources/new-id", "key-a", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/resources/new-id", "key-b", "")
	assert.Equal(t, http.StatusNotFound, w.Code, "other users see nothing")

	w = do(t, h, http.MethodDelete, "/resources/new-id", "key-a", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodDelete, "/resources/new-id", "key-a", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResources_CreateValidation(t *testing.T) {
	h := newRouter(&fakeClusters{}, newFakeResources(), &fakeSearch{})

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"title":"  "}`},
		{"unknown type", `{"title":"x","type":"podcast"}`},
		{"malformed json", `{"title":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/resources", "key-a", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, errorOf(t, w))
		})
	}
}

func TestResources_List(t *testing.T) {
	store := newFakeResources(sample("r1", "alice", "A"), sample("r2", "bob", "B"))
	h := newRouter(&fakeClusters{}, store, &fakeSearch{})

	w := do(t, h, http.MethodGet, "/resources?limit=500&offset=3", "key-a", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got dto.ResourcesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Resources, 1)
	assert.Equal(t, "r1", got.Resources[0].ID)
	assert.EqualValues(t, 1, got.Total)
	assert.Equal(t, v1.MaxLimit, store.limit)
	assert.Equal(t, 3, store.offset)

	w = do(t, h, http.MethodGet, "/resources?limit=abc", "key-a", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/resources?offset=-1", "key-a", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearch(t *testing.T) {
	fake := &fakeSearch{results: []service.SearchResult{service.NewSearchResult(sample("r1", "alice", "Goroutines"), 0.91)}}
	h := newRouter(&fakeClusters{}, newFakeResources(), fake)

	w := do(t, h, http.MethodGet, "/search?q=concurrency&limit=5", "key-a", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "semantic", fake.mode)
	assert.Equal(t, 5, fake.limit)

	var got dto.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "semantic", got.Mode)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "r1", got.Results[0].ID)
	assert.InDelta(t, 0.91, got.Results[0].Score, 1e-9)

	w = do(t, h, http.MethodGet, "/search?q=concurrency&mode=KEYWORD", "key-a", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "keyword", fake.mode)
}

func TestSearch_BadRequests(t *testing.T) {
	h := newRouter(&fakeClusters{}, newFakeResources(), &fakeSearch{})

	for _, target := range []string{
		"/search",
		"/search?q=%20%20",
		"/search?q=go&mode=fuzzy",
		"/search?q=go&limit=ten",
	} {
		w := do(t, h, http.MethodGet, target, "key-a", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestSearch_EmptyResultsAreList(t *testing.T) {
	h := newRouter(&fakeClusters{}, newFakeResources(), &fakeSearch{results: []service.SearchResult{}})

	w := do(t, h, http.MethodGet, "/search?q=nothing", "key-a", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"mode":"semantic","results":[]}`, w.Body.String())
}

func TestSearch_NoEmbedderIs500(t *testing.T) {
	h := newRouter(&fakeClusters{}, newFakeResources(), &fakeSearch{err: domainservice.ErrNoEmbedder})

	w := do(t, h, http.MethodGet, "/search?q=go", "key-a", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestResources_Patch(t *testing.T) {
	store := newFakeResources(sample("r1", "alice", "Effective Go"))
	h := newRouter(&fakeClusters{}, store, &fakeSearch{})

	w := do(t, h, http.MethodPatch, "/resources/r1", "key-a", `{"title":"Effective Go, revised","tags":[]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got dto.ResourceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Effective Go, revised", got.Title)
	assert.Equal(t, "article", got.Type)
	assert.Empty(t, got.Tags)
	assert.False(t, got.HasEmbedding, "a new title needs a new embedding")

	w = do(t, h, http.MethodPatch, "/resources/r1", "key-a", `{"description":"Idioms"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Effective Go, revised", got.Title, "omitted fields are unchanged")
	assert.Equal(t, "Idioms", got.Description)
}

func TestResources_PatchErrors(t *testing.T) {
	store := newFakeResources(sample("r1", "alice", "Effective Go"))
	h := newRouter(&fakeClusters{}, store, &fakeSearch{})

	tests := []struct {
		name   string
		target string
		key    string
		body   string
		status int
	}{
		{"malformed json", "/resources/r1", "key-a", `{"title":`, http.StatusBadRequest},
		{"blank title", "/resources/r1", "key-a", `{"title":" "}`, http.StatusBadRequest},
		{"unknown type", "/resources/r1", "key-a", `{"type":"podcast"}`, http.StatusBadRequest},
		{"missing", "/resources/nope", "key-a", `{"title":"x"}`, http.StatusNotFound},
		{"other user", "/resources/r1", "key-b", `{"title":"x"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPatch, tt.target, tt.key, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, errorOf(t, w))
		})
	}
	assert.Equal(t, "Effective Go", store.items["r1"].Title())
}

func TestCollections_Lifecycle(t *testing.T) {
	fake := newFakeCollections()
	h := newCollectionsRouter(fake, &fakeMetadata{})

	w := do(t, h, http.MethodPost, "/collections", "key-a", `{"name":"Reading","description":"Later","isPublic":true}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/collections/col-1", w.Header().Get("Location"))

	var got dto.CollectionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Reading", got.Name)
	assert.True(t, got.IsPublic)

	w = do(t, h, http.MethodPatch, "/collections/col-1", "key-a", `{"isPublic":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.False(t, got.IsPublic)
	assert.Equal(t, "Reading", got.Name)

	w = do(t, h, http.MethodGet, "/collections", "key-a", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list dto.CollectionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Collections, 1)

	w = do(t, h, http.MethodGet, "/collections", "key-b", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"collections":[]}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/collections/col-1", "key-b", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodDelete, "/collections/col-1", "key-a", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodDelete, "/collections/col-1", "key-a", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCollections_Validation(t *testing.T) {
	h := newCollectionsRouter(newFakeCollections(collection.New("c1", "alice", "Reading", "", false)), &fakeMetadata{})

	for _, tc := range []struct{ method, target, body string }{
		{http.MethodPost, "/collections", `{"name":"  "}`},
		{http.MethodPost, "/collections", `{"name":`},
		{http.MethodPatch, "/collections/c1", `{"name":""}`},
	} {
		w := do(t, h, tc.method, tc.target, "key-a", tc.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.body)
	}
}

func TestCollections_Membership(t *testing.T) {
	fake := newFakeCollections(collection.New("c1", "alice", "Reading", "", false))
	h := newCollectionsRouter(fake, &fakeMetadata{})

	w := do(t, h, http.MethodPut, "/collections/c1/resources/r1", "key-a", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/collections/c1/resources?limit=500", "key-a", "")
	require.Equal(t, http.StatusOK, w.Code)
	var page dto.ResourcesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Resources, 1)
	assert.Equal(t, "r1", page.Resources[0].ID)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, v1.MaxLimit, fake.limit)

	w = do(t, h, http.MethodPut, "/collections/c1/resources/r1", "key-b", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodDelete, "/collections/c1/resources/r1", "key-a", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodDelete, "/collections/c1/resources/r1", "key-a", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetadata(t *testing.T) {
	fake := &fakeMetadata{page: domainservice.NewPageMetadata("Raft", "Consensus made simple", "")}
	h := newCollectionsRouter(newFakeCollections(), fake)

	w := do(t, h, http.MethodGet, "/metadata?url=https%3A%2F%2Fraft.github.io", "key-a", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://raft.github.io", fake.url)
	assert.JSONEq(t, `{"title":"Raft","description":"Consensus made simple","image":null}`, w.Body.String())

	fake.page = domainservice.NewPageMetadata("Raft", "", "https://raft.github.io/logo.png")
	w = do(t, h, http.MethodGet, "/metadata?url=https%3A%2F%2Fraft.github.io", "key-a", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"title":"Raft","description":"","image":"https://raft.github.io/logo.png"}`, w.Body.String())
}

func TestMetadata_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		status int
	}{
		{"missing url", "/metadata", nil, http.StatusBadRequest},
		{"invalid url", "/metadata?url=ftp%3A%2F%2Fhost", domainservice.ErrInvalidURL, http.StatusBadRequest},
		{"upstream status", "/metadata?url=https%3A%2F%2Fgone.example", &domainservice.FetchError{URL: "https://gone.example", StatusCode: http.StatusNotFound}, http.StatusBadGateway},
		{"upstream unreachable", "/metadata?url=https%3A%2F%2Fdown.example", &domainservice.FetchError{URL: "https://down.example", Err: errors.New("connection refused")}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newCollectionsRouter(newFakeCollections(), &fakeMetadata{err: tt.err})
			w := do(t, h, http.MethodGet, tt.target, "key-a", "")
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, errorOf(t, w))
		})
	}
}
