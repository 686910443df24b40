package service

import (
	"context"

	"github.com/techvault/skoop/domain/resource"
)

// KeywordHit is one full-text match.
type KeywordHit struct {
	id    string
	score float64
}

// NewKeywordHit creates a KeywordHit.
func NewKeywordHit(id string, score float64) KeywordHit {
	return KeywordHit{id: id, score: score}
}

// ID returns the matching resource ID.
func (h KeywordHit) ID() string { return h.id }

// Score returns the relevance score.
func (h KeywordHit) Score() float64 { return h.score }

// KeywordIndex is a full-text index of resources, searchable per user.
type KeywordIndex interface {
	Index(ctx context.Context, r resource.Resource) error
	IndexAll(ctx context.Context, resources []resource.Resource) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, userID, query string, limit int) ([]KeywordHit, error)
}
