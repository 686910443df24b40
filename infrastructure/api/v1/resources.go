package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/techvault/skoop/application/service"
	"github.com/techvault/skoop/infrastructure/api/middleware"
	"github.com/techvault/skoop/infrastructure/api/v1/dto"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// decodeBody reads a bounded JSON request body into v.
func decodeBody(w http.ResponseWriter, req *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes)).Decode(v); err != nil {
		return middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err)
	}
	return nil
}

// ResourcesRouter handles resource endpoints.
type ResourcesRouter struct {
	resources ResourceService
	logger    *slog.Logger
}

// NewResourcesRouter creates a ResourcesRouter.
func NewResourcesRouter(resources ResourceService, logger *slog.Logger) *ResourcesRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResourcesRouter{resources: resources, logger: logger}
}

// Routes returns the chi router for resource endpoints.
func (r *ResourcesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Create)
	router.Get("/{id}", r.Get)
	router.Patch("/{id}", r.Update)
	router.Delete("/{id}", r.Delete)

	return router
}

// List handles GET /api/v1/resources.
//
//	@Summary	List resources
//	@Tags		resources
//	@Produce	json
//	@Param		limit	query		int	false	"Page size (default 50, max 200)"
//	@Param		offset	query		int	false	"Rows to skip"
//	@Success	200		{object}	dto.ResourcesResponse
//	@Security	APIKeyAuth
//	@Router		/resources [get]
func (r *ResourcesRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	userID := middleware.UserID(req)

	page, err := ParsePagination(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	resources, err := r.resources.List(ctx, userID, page.Limit(), page.Offset())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	total, err := r.resources.Count(ctx, userID)
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

// Create handles POST /api/v1/resources.
//
//	@Summary	Save a resource
//	@Tags		resources
//	@Accept		json
//	@Produce	json
//	@Param		body	body		dto.CreateResourceRequest	true	"Resource"
//	@Success	201		{object}	dto.ResourceResponse
//	@Failure	400		{object}	middleware.ErrorResponse
//	@Security	APIKeyAuth
//	@Router		/resources [post]
func (r *ResourcesRouter) Create(w http.ResponseWriter, req *http.Request) {
	var body dto.CreateResourceRequest
	if err := decodeBody(w, req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	saved, err := r.resources.Save(req.Context(), middleware.UserID(req), service.SaveParams{
		Title:       body.Title,
		Description: body.Description,
		URL:         body.URL,
		Type:        body.Type,
		Tags:        body.Tags,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.Header().Set("Location", strings.TrimSuffix(req.URL.Path, "/")+"/"+saved.ID())
	middleware.WriteJSON(w, http.StatusCreated, dto.NewResourceResponse(saved))
}

// Get handles GET /api/v1/resources/{id}.
//
//	@Summary	Get a resource
//	@Tags		resources
//	@Produce	json
//	@Param		id	path		string	true	"Resource ID"
//	@Success	200	{object}	dto.ResourceResponse
//	@Failure	404	{object}	middleware.ErrorResponse
//	@Security	APIKeyAuth
//	@Router		/resources/{id} [get]
func (r *ResourcesRouter) Get(w http.ResponseWriter, req *http.Request) {
	found, err := r.resources.Get(req.Context(), middleware.UserID(req), chi.URLParam(req, "id"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dto.NewResourceResponse(found))
}

// Update handles PATCH /api/v1/resources/{id}. Changing the title or
// description clears the stored embedding.
//
//	@Summary	Edit a resource
//	@Tags		resources
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string						true	"Resource ID"
//	@Param		body	body		dto.UpdateResourceRequest	true	"Fields to change"
//	@Success	200		{object}	dto.ResourceResponse
//	@Failure	400		{object}	middleware.ErrorResponse
//	@Failure	404		{object}	middleware.ErrorResponse
//	@Security	APIKeyAuth
//	@Router		/resources/{id} [patch]
func (r *ResourcesRouter) Update(w http.ResponseWriter, req *http.Request) {
	var body dto.UpdateResourceRequest
	if err := decodeBody(w, req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	updated, err := r.resources.Update(req.Context(), middleware.UserID(req), chi.URLParam(req, "id"), service.UpdateParams{
		Title:       body.Title,
		Description: body.Description,
		URL:         body.URL,
		Type:        body.Type,
		Tags:        body.Tags,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dto.NewResourceResponse(updated))
}

// Delete handles DELETE /api/v1/resources/{id}.
//
//	@Summary	Delete a resource
//	@Tags		resources
//	@Param		id	path	string	true	"Resource ID"
//	@Success	204
//	@Failure	404	{object}	middleware.ErrorResponse
//	@Security	APIKeyAuth
//	@Router		/resources/{id} [delete]
func (r *ResourcesRouter) Delete(w http.ResponseWriter, req *http.Request) {
	if err := r.resources.Delete(req.Context(), middleware.UserID(req), chi.URLParam(req, "id")); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
