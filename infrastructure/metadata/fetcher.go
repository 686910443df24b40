// Package metadata reads titles, descriptions and preview images from web
// pages.
package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	domainservice "github.com/techvault/skoop/domain/service"
)

// Fetch defaults.
const (
	DefaultTimeout   = 10 * time.Second
	DefaultMaxBytes  = 2 << 20
	DefaultUserAgent = "Mozilla/5.0 (compatible; skoop/1.0)"

	maxDescriptionRunes = 300
)

// Selectors are tried in order; the first non-empty value wins.
var (
	titleSelectors = []string{
		`meta[property="og:title"]`,
		`meta[name="twitter:title"]`,
	}
	descriptionSelectors = []string{
		`meta[property="og:description"]`,
		`meta[name="twitter:description"]`,
		`meta[name="description"]`,
	}
	imageSelectors = []string{
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[name="twitter:image:src"]`,
	}
)

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithTimeout sets the per-page timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithMaxBytes limits how much of a page body is parsed.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// Fetcher downloads pages and extracts their metadata.
type Fetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: DefaultTimeout},
		maxBytes:  DefaultMaxBytes,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads the page at rawURL and extracts its metadata.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (domainservice.PageMetadata, error) {
	target, err := parseURL(rawURL)
	if err != nil {
		return domainservice.PageMetadata{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return domainservice.PageMetadata{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return domainservice.PageMetadata{}, &domainservice.FetchError{URL: target.String(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domainservice.PageMetadata{}, &domainservice.FetchError{URL: target.String(), StatusCode: resp.StatusCode}
	}

	base := target
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}
	return Extract(io.LimitReader(resp.Body, f.maxBytes), base)
}

// Extract reads metadata from an HTML document. Open Graph tags win over
// Twitter card tags, which win over the plain title and description. When no
// description is declared the first paragraph of body text is used. Relative
// image URLs are resolved against base.
func Extract(r io.Reader, base *url.URL) (domainservice.PageMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return domainservice.PageMetadata{}, fmt.Errorf("parse html: %w", err)
	}

	title := firstContent(doc, titleSelectors)
	if title == "" {
		title = doc.Find("title").First().Text()
	}

	description := firstContent(doc, descriptionSelectors)
	if description == "" {
		description = firstParagraph(doc)
	}

	image := firstContent(doc, imageSelectors)
	if image != "" && base != nil {
		if ref, err := url.Parse(image); err == nil {
			image = base.ResolveReference(ref).String()
		}
	}

	return domainservice.NewPageMetadata(
		collapse(title),
		truncate(collapse(description), maxDescriptionRunes),
		image,
	), nil
}

func firstContent(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if v := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", "")); v != "" {
			return v
		}
	}
	return ""
}

func firstParagraph(doc *goquery.Document) string {
	var text string
	doc.Find("article p, main p, body p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text = strings.TrimSpace(s.Text())
		return text == ""
	})
	return text
}

func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", domainservice.ErrInvalidURL, raw)
	}
	return u, nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

var _ domainservice.MetadataFetcher = (*Fetcher)(nil)
