package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/techvault/skoop/infrastructure/api/middleware"
	"github.com/techvault/skoop/infrastructure/api/v1/dto"
)

// ClustersRouter serves suggested clusters.
type ClustersRouter struct {
	clusters ClusterSuggester
	logger   *slog.Logger
}

// NewClustersRouter creates a ClustersRouter.
func NewClustersRouter(clusters ClusterSuggester, logger *slog.Logger) *ClustersRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClustersRouter{clusters: clusters, logger: logger}
}

// Routes returns the chi router for cluster endpoints.
func (r *ClustersRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", r.List)
	return router
}

// List handles GET /api/v1/clusters.
//
//	@Summary		Suggested clusters
//	@Description	Groups the caller's embedded resources and labels each group
//	@Tags			clusters
//	@Produce		json
//	@Success		200	{object}	dto.ClustersResponse
//	@Failure		401	{object}	middleware.ErrorResponse
//	@Failure		500	{object}	middleware.ErrorResponse
//	@Security		APIKeyAuth
//	@Router			/clusters [get]
func (r *ClustersRouter) List(w http.ResponseWriter, req *http.Request) {
	clusters, err := r.clusters.Suggest(req.Context(), middleware.UserID(req))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dto.NewClustersResponse(clusters))
}
