package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/techvault/skoop/domain/cluster"
	"github.com/techvault/skoop/domain/resource"
	domainservice "github.com/techvault/skoop/domain/service"
	"github.com/techvault/skoop/infrastructure/persistence"
	"github.com/techvault/skoop/internal/testdb"
)

const testModel = "test-model"

var errFake = errors.New("fake failure")

func newStore(t *testing.T) persistence.ResourceStore {
	t.Helper()
	return persistence.NewResourceStore(testdb.New(t))
}

var fixtureTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// seed stores a resource created i minutes after fixtureTime.
func seed(t *testing.T, store resource.Store, i int, id, userID, title string, tags []string, embedding []float64) resource.Resource {
	t.Helper()
	model := ""
	if embedding != nil {
		model = testModel
	}
	at := fixtureTime.Add(time.Duration(i) * time.Minute)
	r := resource.Reconstruct(id, userID, title, "", "", resource.TypeArticle, tags, "", embedding, model, at, at)
	saved, err := store.Save(context.Background(), r)
	require.NoError(t, err)
	return saved
}

// fakeEmbedder returns a fixed vector per text, or vectorFor(text) when set.
type fakeEmbedder struct {
	mu        sync.Mutex
	calls     int
	err       error
	vectorFor func(text string) []float64
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if f.vectorFor != nil {
			out[i] = f.vectorFor(text)
			continue
		}
		out[i] = []float64{1, 0, 0}
	}
	return out, nil
}

func newEmbedding(t *testing.T, store resource.Store, embedder domainservice.Embedder) *domainservice.EmbeddingService {
	t.Helper()
	svc, err := domainservice.NewEmbedding(store, embedder, testModel)
	require.NoError(t, err)
	return svc
}

// fakeLabeler names a cluster after its first member and records requests.
type fakeLabeler struct {
	mu          sync.Mutex
	requests    []domainservice.LabelRequest
	failOn      string
	delay       time.Duration
	inFlight    int
	maxInFlight int
}

func (f *fakeLabeler) Label(ctx context.Context, req domainservice.LabelRequest) (cluster.Label, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return cluster.Label{}, ctx.Err()
		}
	}

	titles := req.Titles()
	for _, title := range titles {
		if title == f.failOn {
			return cluster.Label{}, errFake
		}
	}
	return cluster.NewLabel("Topic "+titles[0], "About "+titles[0])
}

func (f *fakeLabeler) requestFor(firstTitle string) (domainservice.LabelRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if titles := r.Titles(); len(titles) > 0 && titles[0] == firstTitle {
			return r, true
		}
	}
	return domainservice.LabelRequest{}, false
}

// fakeSummarizer returns "summary of <first line>" or fails on failOn.
type fakeSummarizer struct {
	mu     sync.Mutex
	calls  int
	failOn string
}

func (f *fakeSummarizer) Summarize(_ context.Context, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failOn != "" && len(text) >= len(f.failOn) && text[:len(f.failOn)] == f.failOn {
		return "", errFake
	}
	return "summary: " + text, nil
}

// memoryIndex is a minimal keyword index that matches on exact title.
type memoryIndex struct {
	mu      sync.Mutex
	docs    map[string]resource.Resource
	failing bool
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{docs: map[string]resource.Resource{}}
}

func (m *memoryIndex) Index(_ context.Context, r resource.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errFake
	}
	m.docs[r.ID()] = r
	return nil
}

func (m *memoryIndex) IndexAll(ctx context.Context, rs []resource.Resource) error {
	for _, r := range rs {
		if err := m.Index(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryIndex) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func (m *memoryIndex) Search(_ context.Context, userID, query string, limit int) ([]domainservice.KeywordHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var hits []domainservice.KeywordHit
	for id, r := range m.docs {
		if r.UserID() == userID && r.Title() == query && len(hits) < limit {
			hits = append(hits, domainservice.NewKeywordHit(id, 1))
		}
	}
	return hits, nil
}

func (m *memoryIndex) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[id]
	return ok
}

// fakeMetadata serves canned page metadata per URL.
type fakeMetadata struct {
	mu    sync.Mutex
	pages map[string]domainservice.PageMetadata
	calls int
}

func (f *fakeMetadata) Fetch(_ context.Context, url string) (domainservice.PageMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	page, ok := f.pages[url]
	if !ok {
		return domainservice.PageMetadata{}, &domainservice.FetchError{URL: url, StatusCode: 404}
	}
	return page, nil
}
