package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	apimiddleware "github.com/techvault/skoop/infrastructure/api/middleware"
	v1 "github.com/techvault/skoop/infrastructure/api/v1"
	mcpinternal "github.com/techvault/skoop/internal/mcp"
)

// RouteTimeout bounds every /api/v1 request, including LLM labeling.
const RouteTimeout = 60 * time.Second

// Services are the application services behind the API. Collections and
// Metadata are optional; their routes are mounted only when set.
type Services struct {
	Clusters    v1.ClusterSuggester
	Resources   v1.ResourceService
	Search      v1.Searcher
	Collections v1.CollectionService
	Metadata    v1.MetadataFetcher
}

// Option configures an APIServer.
type Option func(*APIServer)

// WithCORSOrigins allows browser requests from origins. "*" allows any.
func WithCORSOrigins(origins []string) Option {
	return func(a *APIServer) { a.corsOrigins = origins }
}

// WithMCP mounts the MCP tools at /mcp, behind the same API key auth.
func WithMCP(srv *mcpinternal.Server) Option {
	return func(a *APIServer) { a.mcp = srv }
}

// WithVersion sets the version reported by GET /.
func WithVersion(version string) Option {
	return func(a *APIServer) { a.version = version }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *APIServer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// APIServer wires the v1 routes, health checks and MCP endpoint.
type APIServer struct {
	services    Services
	auth        apimiddleware.AuthConfig
	corsOrigins []string
	mcp         *mcpinternal.Server
	version     string
	logger      *slog.Logger
	server      *Server
}

// NewAPIServer creates an APIServer. apiKeys maps each accepted API key to
// the user it authenticates; with no keys every /api/v1 request is rejected.
func NewAPIServer(services Services, apiKeys map[string]string, opts ...Option) *APIServer {
	a := &APIServer{
		services: services,
		auth:     apimiddleware.NewAuthConfig(apiKeys),
		version:  "dev",
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.auth.Len() == 0 {
		a.logger.Warn("no API keys configured, all API requests will be rejected")
	}
	return a
}

// MountRoutes registers every route on router. It installs middleware, so
// call it before adding other routes.
func (a *APIServer) MountRoutes(router chi.Router) {
	if len(a.corsOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   a.corsOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-KEY", apimiddleware.CorrelationIDHeader},
			ExposedHeaders:   []string{apimiddleware.CorrelationIDHeader, "Location"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	router.Get("/health", healthHandler)
	router.Get("/healthz", healthHandler)
	router.Get("/", a.infoHandler)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(RouteTimeout))
		r.Use(apimiddleware.RequireUser(a.auth))

		r.Mount("/clusters", v1.NewClustersRouter(a.services.Clusters, a.logger).Routes())
		r.Mount("/resources", v1.NewResourcesRouter(a.services.Resources, a.logger).Routes())
		r.Mount("/search", v1.NewSearchRouter(a.services.Search, a.logger).Routes())
		if a.services.Collections != nil {
			r.Mount("/collections", v1.NewCollectionsRouter(a.services.Collections, a.logger).Routes())
		}
		if a.services.Metadata != nil {
			r.Mount("/metadata", v1.NewMetadataRouter(a.services.Metadata, a.logger).Routes())
		}
	})

	// No timeout: MCP streams responses.
	if a.mcp != nil {
		router.With(apimiddleware.RequireUser(a.auth)).Mount("/mcp", a.mcp.HTTPHandler())
	}
}

// Handler returns the full middleware chain and routes as an http.Handler.
func (a *APIServer) Handler() http.Handler {
	srv := NewServer("", a.logger)
	a.MountRoutes(srv.Router())
	return srv.Router()
}

// ListenAndServe serves the API on addr until Shutdown.
func (a *APIServer) ListenAndServe(addr string) error {
	a.server = NewServer(addr, a.logger)
	a.MountRoutes(a.server.Router())
	return a.server.Start()
}

// Shutdown gracefully stops a server started with ListenAndServe.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

func (a *APIServer) infoHandler(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{
		"name":    "skoop",
		"version": a.version,
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
