package service

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidURL is returned for a URL that cannot be fetched.
var ErrInvalidURL = errors.New("url must be an absolute http or https address")

// PageMetadata is what a web page says about itself in its head.
type PageMetadata struct {
	title       string
	description string
	image       string
}

// NewPageMetadata creates a PageMetadata.
func NewPageMetadata(title, description, image string) PageMetadata {
	return PageMetadata{title: title, description: description, image: image}
}

// Title returns the page title.
func (m PageMetadata) Title() string { return m.title }

// Description returns the page description.
func (m PageMetadata) Description() string { return m.description }

// Image returns the preview image URL, empty when the page has none.
func (m PageMetadata) Image() string { return m.image }

// FetchError reports a page that could not be downloaded: either the request
// failed (Err is set) or the page answered with a non-success StatusCode.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

// Unwrap returns the transport error, if any.
func (e *FetchError) Unwrap() error { return e.Err }

// MetadataFetcher reads the metadata of the page at a URL.
type MetadataFetcher interface {
	Fetch(ctx context.Context, url string) (PageMetadata, error)
}
