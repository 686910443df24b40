package v1

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/techvault/skoop/application/service"
	"github.com/techvault/skoop/infrastructure/api/middleware"
	"github.com/techvault/skoop/infrastructure/api/v1/dto"
)

// Search modes.
const (
	ModeSemantic = "semantic"
	ModeKeyword  = "keyword"
)

// SearchRouter handles search API endpoints.
type SearchRouter struct {
	search Searcher
	logger *slog.Logger
}

// NewSearchRouter creates a new SearchRouter.
func NewSearchRouter(search Searcher, logger *slog.Logger) *SearchRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchRouter{search: search, logger: logger}
}

// Routes returns the chi router for search endpoints.
func (r *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", r.Search)
	return router
}

// Search handles GET /api/v1/search.
//
//	@Summary		Search resources
//	@Description	Semantic (embedding similarity) or keyword search over the caller's resources
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Query"
//	@Param			mode	query		string	false	"semantic (default) or keyword"
//	@Param			limit	query		int		false	"Maximum results"
//	@Success		200		{object}	dto.SearchResponse
//	@Failure		400		{object}	middleware.ErrorResponse
//	@Security		APIKeyAuth
//	@Router			/search [get]
func (r *SearchRouter) Search(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	userID := middleware.UserID(req)

	query := strings.TrimSpace(req.URL.Query().Get("q"))
	if query == "" {
		middleware.WriteError(w, req, middleware.BadRequest("query parameter q is required"), r.logger)
		return
	}
	limit, err := intParam(req, "limit")
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	mode := strings.ToLower(req.URL.Query().Get("mode"))
	var results []service.SearchResult
	switch mode {
	case "", ModeSemantic:
		mode = ModeSemantic
		results, err = r.search.Semantic(ctx, userID, query, limit)
	case ModeKeyword:
		results, err = r.search.Keyword(ctx, userID, query, limit)
	default:
		err = middleware.BadRequest("mode must be semantic or keyword")
	}
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	out := make([]dto.SearchResultResponse, len(results))
	for i, res := range results {
		out[i] = dto.SearchResultResponse{
			ResourceResponse: dto.NewResourceResponse(res.Resource()),
			Score:            res.Score(),
		}
	}
	middleware.WriteJSON(w, http.StatusOK, dto.SearchResponse{Mode: mode, Results: out})
}
