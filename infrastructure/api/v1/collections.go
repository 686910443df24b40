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

// CollectionsRouter handles collection endpoints.
type CollectionsRouter struct {
	collections CollectionService
	logger      *slog.Logger
}

// NewCollectionsRouter creates a CollectionsRouter.
func NewCollectionsRouter(collections CollectionService, logger *slog.Logger) *CollectionsRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CollectionsRouter{collections: collections, logger: logger}
}

// Routes returns the chi router for collection endpoints.
func (r *CollectionsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Create)
	router.Get("/{id}", r.Get)
	router.Patch("/{id}", r.Update)
	router.Delete("/{id}", r.Delete)
	router.Get("/{id}/resources", r.ListResources)
	router.Put("/{id}/resources/{resourceID}", r.AddResource)
	router.Delete("/{id}/resources/{resourceID}", r.RemoveResource)

	return router
}

// List handles GET /api/v1/collections.
//
//	@Summary	List collections
//	@Tags		collections
//	@Produce	json
//	@Success	200	{object}	dto.CollectionsResponse
//	@Security	APIKeyAuth
//	@Router		/collections [get]
func (r *CollectionsRouter) List(w http.ResponseWriter, req *http.Request) {
	list, err := r.collections.List(req.Context(), middleware.UserID(req))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dto.NewCollectionsResponse(list))
}

// Create handles POST /api/v1/collections.
//
//	@Summary	Create a collection
//	@Tags		collections
//	@Accept		json
//	@Produce	json
//	@Param		body	body		dto.CreateCollectionRequest	true	"Collection"
//	@Success	201		{object}	dto.CollectionResponse
//	@Failure	400		{object}	middleware.ErrorResponse
//	@Security	APIKeyAuth
//	@Router		/collections [post]
func (r *CollectionsRouter) Create(w http.ResponseWriter, req *http.Request) {
	var body dto.CreateCollectionRequest
	if err := decodeBody(w, req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	created, err := r.collections.Create(req.Context(), middleware.UserID(req), service.CollectionParams{
		Name:        body.Name,
		Description: body.Description,
		Public:      body.IsPublic,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.Header().Set("Location", strings.TrimSuffix(req.URL.Path, "/")+"/"+created.ID())
	middleware.WriteJSON(w, http.StatusCreated, dto.NewCollectionResponse(created))
}

// Get handles GET /api/v1/collections/{id}.
//
//	@Summary	Get a collection
//	@Tags		collections
//	@Produce	json
//	@Param		id	path		string	true	"Collection ID"
//	@Success	200	{object}	dto.CollectionResponse
//	@Failure	404	{object}	middleware.ErrorResponse
//	@Security	APIKeyAuth
//	@Router		/collections/{id} [get]
func (r *CollectionsRouter) Get(w http.ResponseWriter, req *http.Request) {
	found, err := r.collections.Get(req.Context(), middleware.UserID(req), chi.URLParam(req, "id"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dto.NewCollectionResponse(found))
}

// Update handles PATCH /api/v1/collections/{id}.
//
//	@Summary	Edit a collection
//	@Tags		collections
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string						true	"Collection ID"
//	@Param		body	body		dto.UpdateCollectionRequest	true	"Fields to change"
//	@Success	200		{object}	dto.CollectionResponse
//	@Failure	400		{object}	middleware.ErrorResponse
//	@Failure	404		{object}	middleware.ErrorResponse
//	@Security	APIKeyAuth
//	@Router		/collections/{id} [patch]
func (r *CollectionsRouter) Update(w http.ResponseWriter, req *http.Request) {
	var body dto.UpdateCollectionRequest
	if err := decodeBody(w, req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	updated, err := r.collections.Update(req.Context(), middleware.UserID(req), chi.URLParam(req, "id"), service.CollectionUpdateParams{
		Name:        body.Name,
		Description: body.Description,
		Public:      body.IsPublic,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dto.NewCollectionResponse(updated))
}

// Delete handles DELETE /api/v1/collections/{id}. The resources in it are kept.
//
//	@Summary	Delete a collection
//	@Tags		collections
//	@Param		id	path	string	true	"Collection ID"
//	@Success	204
//	@Failure	404	{object}	middleware.ErrorResponse
//	@Security	APIKeyAuth
//	@Router		/collections/{id} [delete]
func (r *CollectionsRouter) Delete(w http.ResponseWriter, req *http.Request) {
	if err := r.collections.Delete(req.Context(), middleware.UserID(req), chi.URLParam(req, "id")); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListResources handles GET /api/v1/collections/{id}/resources.
//
//	@Summary	List the resources in a collection
//	@Tags		collections
//	@Produce	json
//	@Param		id		path		string	true	"Collection ID"
//	@Param		limit	query		int		false	"Page size (default 50, max 200)"
//	@Param		offset	query		int		false	"Rows to skip"
//	@Success	200		{object}	dto.ResourcesResponse
//	@Failure	404		{object}	middleware.ErrorResponse
//	@Security	APIKeyAuth
//	@Router		/collections/{id}/resources [get]
func (r *CollectionsRouter) ListResources(w http.ResponseWriter, req *http.Request) {
	page, err := ParsePagination(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	resources, total, err := r.collections.Resources(req.Context(), middleware.UserID(req), chi.URLParam(req, "id"), page.Limit(), page.Offset())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.ResourcesResponse{
		Resources: dto.NewResourceResponses(resources),
		Total:     total,
		Limit:     page.Limit(),
		Offset:    page.Offset(),
	})
}

// AddResource handles PUT /api/v1/collections/{id}/resources/{resourceID}.
//
//	@Summary	Add a resource to a collection
//	@Tags		collections
//	@Param		id			path	string	true	"Collection ID"
//	@Param		resourceID	path	string	true	"Resource ID"
//	@Success	204
//	@Failure	404	{object}	middleware.ErrorResponse
//	@Security	APIKeyAuth
//	@Router		/collections/{id}/resources/{resourceID} [put]
func (r *CollectionsRouter) AddResource(w http.ResponseWriter, req *http.Request) {
	err := r.collections.AddResource(req.Context(), middleware.UserID(req), chi.URLParam(req, "id"), chi.URLParam(req, "resourceID"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveResource handles DELETE /api/v1/collections/{id}/resources/{resourceID}.
//
//	@Summary	Remove a resource from a collection
//	@Tags		collections
//	@Param		id			path	string	true	"Collection ID"
//	@Param		resourceID	path	string	true	"Resource ID"
//	@Success	204
//	@Failure	404	{object}	middleware.ErrorResponse
//	@Security	APIKeyAuth
//	@Router		/collections/{id}/resources/{resourceID} [delete]
func (r *CollectionsRouter) RemoveResource(w http.ResponseWriter, req *http.Request) {
	err := r.collections.RemoveResource(req.Context(), middleware.UserID(req), chi.URLParam(req, "id"), chi.URLParam(req, "resourceID"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
