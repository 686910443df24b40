// Package keyword provides full-text search over resources with Bleve.
package keyword

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"
	keywordanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/techvault/skoop/domain/resource"
	"github.com/techvault/skoop/domain/service"
)

const (
	fieldUserID      = "user_id"
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldSummary     = "summary"
	fieldTags        = "tags"

	titleBoost = 2.0
)

// ErrClosed indicates use of a closed index.
var ErrClosed = errors.New("keyword index is closed")

// BleveIndex indexes resources for keyword search, scoped per user.
type BleveIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	closed bool
}

// NewMemoryIndex creates an index held in memory.
func NewMemoryIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("create keyword index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewIndex opens the index at path, creating it when missing. Changing the
// mapping requires removing the directory.
func NewIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, err := bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open keyword index: %w", err)
		}
		return &BleveIndex{index: index}, nil
	}
	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("create keyword index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func newMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	// Standard analyzer lowercases and tokenizes without stemming.
	text.Analyzer = standard.Name

	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keywordanalyzer.Name

	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false
	doc.AddFieldMappingsAt(fieldUserID, exact)
	doc.AddFieldMappingsAt(fieldTitle, text)
	doc.AddFieldMappingsAt(fieldDescription, text)
	doc.AddFieldMappingsAt(fieldSummary, text)
	doc.AddFieldMappingsAt(fieldTags, text)

	im := bleve.NewIndexMapping()
	im.AddDocumentMapping("resource", doc)
	im.DefaultType = "resource"
	im.DefaultMapping = doc
	return im
}

func document(r resource.Resource) map[string]any {
	return map[string]any{
		fieldUserID:      r.UserID(),
		fieldTitle:       r.Title(),
		fieldDescription: r.Description(),
		fieldSummary:     r.Summary(),
		fieldTags:        r.Tags(),
	}
}

// Index adds or replaces a resource.
func (b *BleveIndex) Index(_ context.Context, r resource.Resource) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	if err := b.index.Index(r.ID(), document(r)); err != nil {
		return fmt.Errorf("index resource %s: %w", r.ID(), err)
	}
	return nil
}

// IndexAll adds or replaces resources in one batch.
func (b *BleveIndex) IndexAll(ctx context.Context, resources []resource.Resource) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	batch := b.index.NewBatch()
	for _, r := range resources {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(r.ID(), document(r)); err != nil {
			return fmt.Errorf("index resource %s: %w", r.ID(), err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("index batch: %w", err)
	}
	return nil
}

// Delete removes a resource. Deleting an unknown ID is not an error.
func (b *BleveIndex) Delete(_ context.Context, id string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	if err := b.index.Delete(id); err != nil {
		return fmt.Errorf("delete resource %s: %w", id, err)
	}
	return nil
}

// Search returns up to limit of userID's resources matching query, best first.
func (b *BleveIndex) Search(ctx context.Context, userID, query string, limit int) ([]service.KeywordHit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}

	owner := bleve.NewTermQuery(userID)
	owner.SetField(fieldUserID)

	fields := []blevequery.Query{}
	for _, f := range []string{fieldTitle, fieldDescription, fieldSummary, fieldTags} {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(f)
		if f == fieldTitle {
			mq.SetBoost(titleBoost)
		}
		fields = append(fields, mq)
	}

	req := bleve.NewSearchRequest(bleve.NewConjunctionQuery(owner, bleve.NewDisjunctionQuery(fields...)))
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	hits := make([]service.KeywordHit, len(results.Hits))
	for i, h := range results.Hits {
		hits[i] = service.NewKeywordHit(h.ID, h.Score)
	}
	return hits, nil
}

// DocCount returns the number of indexed resources.
func (b *BleveIndex) DocCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0, ErrClosed
	}
	return b.index.DocCount()
}

// Close releases the index. Later calls return ErrClosed.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}

var _ service.KeywordIndex = (*BleveIndex)(nil)
