package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/techvault/skoop/domain/repository"
	"github.com/techvault/skoop/domain/resource"
	domainservice "github.com/techvault/skoop/domain/service"
)

// Listing limits.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// SaveParams holds the user-supplied fields of a new resource.
type SaveParams struct {
	Title       string
	Description string
	URL         string
	Type        string
	Tags        []string
}

// UpdateParams holds the fields of a resource edit. Nil fields are left as
// they are; a non-nil empty Tags clears the tags.
type UpdateParams struct {
	Title       *string
	Description *string
	URL         *string
	Type        *string
	Tags        []string
}

// ResourcesOption configures a Resources service.
type ResourcesOption func(*Resources)

// WithMetadataFetcher lets Save fill a missing title or description from the
// resource's page.
func WithMetadataFetcher(f domainservice.MetadataFetcher) ResourcesOption {
	return func(s *Resources) {
		s.metadata = f
	}
}

// Resources manages a user's saved resources.
type Resources struct {
	store     resource.Store
	index     domainservice.KeywordIndex
	embedding *domainservice.EmbeddingService
	metadata  domainservice.MetadataFetcher
	logger    *slog.Logger
}

// NewResources creates a Resources service. index and embedding may be nil.
func NewResources(
	store resource.Store,
	index domainservice.KeywordIndex,
	embedding *domainservice.EmbeddingService,
	logger *slog.Logger,
	opts ...ResourcesOption,
) *Resources {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Resources{store: store, index: index, embedding: embedding, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save validates and stores a new resource for userID. When the title or
// description is blank and a metadata fetcher is set, they are filled from
// the page at URL. Page fetching, keyword indexing and embedding are
// best-effort: failures are logged and the saved resource is still returned.
func (s *Resources) Save(ctx context.Context, userID string, params SaveParams) (resource.Resource, error) {
	kind, err := resource.ParseType(params.Type)
	if err != nil {
		return resource.Resource{}, err
	}
	params = s.fillFromPage(ctx, params)

	r := resource.New(uuid.NewString(), userID, params.Title, params.Description, params.URL, kind, params.Tags)
	if err := r.Validate(); err != nil {
		return resource.Resource{}, err
	}

	saved, err := s.store.Save(ctx, r)
	if err != nil {
		return resource.Resource{}, err
	}

	s.reindex(ctx, saved)
	saved = s.embedNow(ctx, saved)

	s.logger.Info("resource saved", slog.String("resource_id", saved.ID()), slog.String("user_id", userID))
	return saved, nil
}

func (s *Resources) fillFromPage(ctx context.Context, params SaveParams) SaveParams {
	if s.metadata == nil || strings.TrimSpace(params.URL) == "" {
		return params
	}
	if strings.TrimSpace(params.Title) != "" && strings.TrimSpace(params.Description) != "" {
		return params
	}

	page, err := s.metadata.Fetch(ctx, params.URL)
	if err != nil {
		s.logger.Warn("failed to fetch page metadata", slog.String("url", params.URL), slog.String("error", err.Error()))
		return params
	}
	if strings.TrimSpace(params.Title) == "" {
		params.Title = page.Title()
	}
	if strings.TrimSpace(params.Description) == "" {
		params.Description = page.Description()
	}
	return params
}

// Update applies params to one of userID's resources. Changing the title or
// description drops the stored embedding; it is recomputed inline when an
// embedding service is configured and by the backfill otherwise.
func (s *Resources) Update(ctx context.Context, userID, id string, params UpdateParams) (resource.Resource, error) {
	edit := resource.Edit{
		Title:       params.Title,
		Description: params.Description,
		URL:         params.URL,
		Tags:        params.Tags,
	}
	if params.Type != nil {
		kind, err := resource.ParseType(*params.Type)
		if err != nil {
			return resource.Resource{}, err
		}
		edit.Type = &kind
	}

	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return resource.Resource{}, err
	}
	edited := current.WithEdit(edit)
	if err := edited.Validate(); err != nil {
		return resource.Resource{}, err
	}

	updated, err := s.store.Update(ctx, edited)
	if err != nil {
		return resource.Resource{}, err
	}

	s.reindex(ctx, updated)
	if current.HasEmbedding() && !updated.HasEmbedding() {
		s.logger.Info("resource text changed, embedding cleared", slog.String("resource_id", id))
	}
	updated = s.embedNow(ctx, updated)

	s.logger.Info("resource updated", slog.String("resource_id", id), slog.String("user_id", userID))
	return updated, nil
}

func (s *Resources) reindex(ctx context.Context, r resource.Resource) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(ctx, r); err != nil {
		s.logger.Warn("failed to index resource", slog.String("resource_id", r.ID()), slog.String("error", err.Error()))
	}
}

// embedNow embeds r when it has no embedding yet. Failures leave it for the
// backfill.
func (s *Resources) embedNow(ctx context.Context, r resource.Resource) resource.Resource {
	if s.embedding == nil || r.HasEmbedding() {
		return r
	}
	embedded, err := s.embedding.EmbedResources(ctx, []resource.Resource{r})
	switch {
	case err != nil:
		s.logger.Warn("failed to embed resource, backfill will retry",
			slog.String("resource_id", r.ID()), slog.String("error", err.Error()))
	case len(embedded) == 1:
		return embedded[0]
	}
	return r
}

// List returns userID's resources, newest first.
func (s *Resources) List(ctx context.Context, userID string, limit, offset int) ([]resource.Resource, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	offset = max(offset, 0)

	options := []repository.Option{resource.WithUserID(userID)}
	options = append(options, resource.WithNewestFirst()...)
	options = append(options, repository.WithPagination(limit, offset)...)
	return s.store.Find(ctx, options...)
}

// Count returns how many resources userID has.
func (s *Resources) Count(ctx context.Context, userID string) (int64, error) {
	return s.store.Count(ctx, resource.WithUserID(userID))
}

// Get returns one of userID's resources. Another user's resource is
// reported as not found.
func (s *Resources) Get(ctx context.Context, userID, id string) (resource.Resource, error) {
	return s.store.FindOne(ctx, resource.WithUserID(userID), resource.WithResourceID(id))
}

// Delete removes one of userID's resources.
func (s *Resources) Delete(ctx context.Context, userID, id string) error {
	n, err := s.store.DeleteBy(ctx, resource.WithUserID(userID), resource.WithResourceID(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: resource %s", repository.ErrNotFound, id)
	}
	if s.index != nil {
		if err := s.index.Delete(ctx, id); err != nil {
			s.logger.Warn("failed to remove resource from index", slog.String("resource_id", id), slog.String("error", err.Error()))
		}
	}
	return nil
}

// RebuildIndex loads every stored resource into the keyword index.
func (s *Resources) RebuildIndex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	all, err := s.store.Find(ctx, resource.WithOldestFirst()...)
	if err != nil {
		return fmt.Errorf("load resources: %w", err)
	}
	if err := s.index.IndexAll(ctx, all); err != nil {
		return err
	}
	s.logger.Info("keyword index rebuilt", slog.Int("resources", len(all)))
	return nil
}
