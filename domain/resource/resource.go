// Package resource models the bookmarks users save.
package resource

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// Errors for invalid resources.
var (
	ErrTitleRequired = errors.New("resource title is required")
	ErrInvalidType   = errors.New("invalid resource type")
)

// Type classifies a saved resource.
type Type string

// Type values.
const (
	TypeArticle   Type = "article"
	TypeVideo     Type = "video"
	TypeBook      Type = "book"
	TypeCourse    Type = "course"
	TypeTweet     Type = "tweet"
	TypeInstagram Type = "instagram"
	TypeOther     Type = "other"
)

// ParseType converts a string to a Type. An empty string means TypeOther.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case "":
		return TypeOther, nil
	case TypeArticle, TypeVideo, TypeBook, TypeCourse, TypeTweet, TypeInstagram, TypeOther:
		return t, nil
	default:
		return "", ErrInvalidType
	}
}

// Resource is a saved bookmark. Values are immutable; With* methods return copies.
type Resource struct {
	id             string
	userID         string
	title          string
	description    string
	url            string
	kind           Type
	tags           []string
	summary        string
	embedding      []float64
	embeddingModel string
	createdAt      time.Time
	updatedAt      time.Time
}

// New creates a Resource with normalised tags.
func New(id, userID, title, description, url string, kind Type, tags []string) Resource {
	now := time.Now().UTC()
	return Resource{
		id:          id,
		userID:      userID,
		title:       strings.TrimSpace(title),
		description: strings.TrimSpace(description),
		url:         strings.TrimSpace(url),
		kind:        kind,
		tags:        NormalizeTags(tags),
		createdAt:   now,
		updatedAt:   now,
	}
}

// Reconstruct rebuilds a Resource from persisted fields without normalising.
func Reconstruct(
	id, userID, title, description, url string,
	kind Type,
	tags []string,
	summary string,
	embedding []float64,
	embeddingModel string,
	createdAt, updatedAt time.Time,
) Resource {
	return Resource{
		id:             id,
		userID:         userID,
		title:          title,
		description:    description,
		url:            url,
		kind:           kind,
		tags:           slices.Clone(tags),
		summary:        summary,
		embedding:      slices.Clone(embedding),
		embeddingModel: embeddingModel,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// ID returns the resource UUID.
func (r Resource) ID() string { return r.id }

// UserID returns the owning user.
func (r Resource) UserID() string { return r.userID }

// Title returns the title.
func (r Resource) Title() string { return r.title }

// Description returns the description.
func (r Resource) Description() string { return r.description }

// URL returns the source URL.
func (r Resource) URL() string { return r.url }

// Type returns the resource type.
func (r Resource) Type() Type { return r.kind }

// Tags returns the tag names.
func (r Resource) Tags() []string { return slices.Clone(r.tags) }

// Summary returns the LLM summary, empty until generated.
func (r Resource) Summary() string { return r.summary }

// Embedding returns a copy of the embedding, nil when absent.
func (r Resource) Embedding() []float64 { return slices.Clone(r.embedding) }

// EmbeddingModel returns the model that produced the embedding.
func (r Resource) EmbeddingModel() string { return r.embeddingModel }

// HasEmbedding reports whether an embedding is present.
func (r Resource) HasEmbedding() bool { return len(r.embedding) > 0 }

// CreatedAt returns the creation time.
func (r Resource) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last update time.
func (r Resource) UpdatedAt() time.Time { return r.updatedAt }

// EmbeddingText is the text sent to the embedding model.
func (r Resource) EmbeddingText() string {
	return strings.TrimSpace(r.title + " " + r.description)
}

// SummaryText is the content sent to the summarizer.
func (r Resource) SummaryText() string {
	parts := []string{r.title}
	if r.description != "" {
		parts = append(parts, r.description)
	}
	if r.url != "" {
		parts = append(parts, "Source: "+r.url)
	}
	return strings.Join(parts, "\n\n")
}

// Validate checks required fields.
func (r Resource) Validate() error {
	if r.title == "" {
		return ErrTitleRequired
	}
	if _, err := ParseType(string(r.kind)); err != nil {
		return err
	}
	return nil
}

// WithEmbedding returns a copy carrying embedding from model.
func (r Resource) WithEmbedding(embedding []float64, model string) Resource {
	r.embedding = slices.Clone(embedding)
	r.embeddingModel = model
	r.updatedAt = time.Now().UTC()
	return r
}

// WithSummary returns a copy carrying summary.
func (r Resource) WithSummary(summary string) Resource {
	r.summary = strings.TrimSpace(summary)
	r.updatedAt = time.Now().UTC()
	return r
}

// Edit holds the user-editable fields of a resource. Nil fields are left as
// they are; a non-nil empty Tags clears the tags.
type Edit struct {
	Title       *string
	Description *string
	URL         *string
	Type        *Type
	Tags        []string
}

// WithEdit returns a copy with edit applied. A changed title or description
// drops the embedding, and any change to the summarised text drops the
// summary, so the backfill regenerates both.
func (r Resource) WithEdit(edit Edit) Resource {
	before, beforeSummary := r.EmbeddingText(), r.SummaryText()
	if edit.Title != nil {
		r.title = strings.TrimSpace(*edit.Title)
	}
	if edit.Description != nil {
		r.description = strings.TrimSpace(*edit.Description)
	}
	if edit.URL != nil {
		r.url = strings.TrimSpace(*edit.URL)
	}
	if edit.Type != nil {
		r.kind = *edit.Type
	}
	if edit.Tags != nil {
		r.tags = NormalizeTags(edit.Tags)
	}
	if r.EmbeddingText() != before {
		r.embedding = nil
		r.embeddingModel = ""
	}
	if r.SummaryText() != beforeSummary {
		r.summary = ""
	}
	r.updatedAt = time.Now().UTC()
	return r
}

// WithTags returns a copy with normalised tags.
func (r Resource) WithTags(tags []string) Resource {
	r.tags = NormalizeTags(tags)
	r.updatedAt = time.Now().UTC()
	return r
}

// NormalizeTags trims, lowercases and de-duplicates tags, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#")))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
