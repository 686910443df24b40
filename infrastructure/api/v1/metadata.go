package v1

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/techvault/skoop/infrastructure/api/middleware"
	"github.com/techvault/skoop/infrastructure/api/v1/dto"
)

// MetadataRouter handles page metadata lookups.
type MetadataRouter struct {
	fetcher MetadataFetcher
	logger  *slog.Logger
}

// NewMetadataRouter creates a MetadataRouter.
func NewMetadataRouter(fetcher MetadataFetcher, logger *slog.Logger) *MetadataRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetadataRouter{fetcher: fetcher, logger: logger}
}

// Routes returns the chi router for metadata endpoints.
func (r *MetadataRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", r.Get)
	return router
}

// Get handles GET /api/v1/metadata?url=.
//
//	@Summary	Read a page's title, description and preview image
//	@Tags		metadata
//	@Produce	json
//	@Param		url	query		string	true	"Page URL"
//	@Success	200	{object}	dto.MetadataResponse
//	@Failure	400	{object}	middleware.ErrorResponse
//	@Failure	502	{object}	middleware.ErrorResponse
//	@Security	APIKeyAuth
//	@Router		/metadata [get]
func (r *MetadataRouter) Get(w http.ResponseWriter, req *http.Request) {
	target := strings.TrimSpace(req.URL.Query().Get("url"))
	if target == "" {
		middleware.WriteError(w, req, middleware.BadRequest("url is required"), r.logger)
		return
	}

	page, err := r.fetcher.Fetch(req.Context(), target)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dto.NewMetadataResponse(page))
}
