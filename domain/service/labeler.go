package service

import (
	"context"
	"errors"
	"slices"

	"github.com/techvault/skoop/domain/cluster"
)

// ErrNoLabeler indicates clustering was requested without a language model.
var ErrNoLabeler = errors.New("no cluster labeler configured")

// LabelRequest describes one cluster to be named.
type LabelRequest struct {
	titles []string
	tags   []string
}

// NewLabelRequest creates a LabelRequest from member titles and common tags.
func NewLabelRequest(titles, tags []string) LabelRequest {
	return LabelRequest{titles: slices.Clone(titles), tags: slices.Clone(tags)}
}

// Titles returns the member resource titles.
func (r LabelRequest) Titles() []string { return slices.Clone(r.titles) }

// Tags returns the most common member tags.
func (r LabelRequest) Tags() []string { return slices.Clone(r.tags) }

// Labeler names a cluster from its members.
type Labeler interface {
	Label(ctx context.Context, request LabelRequest) (cluster.Label, error)
}

// Summarizer condenses resource content into a short summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}
