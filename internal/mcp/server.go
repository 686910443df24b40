// Package mcp exposes suggested clusters and resource search as Model
// Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/techvault/skoop/application/service"
	"github.com/techvault/skoop/domain/cluster"
	"github.com/techvault/skoop/internal/log"
)

// ClusterSuggester computes a user's suggested clusters.
type ClusterSuggester interface {
	Suggest(ctx context.Context, userID string) ([]cluster.Cluster, error)
}

// Searcher finds a user's resources.
type Searcher interface {
	Semantic(ctx context.Context, userID, query string, limit int) ([]service.SearchResult, error)
	Keyword(ctx context.Context, userID, query string, limit int) ([]service.SearchResult, error)
}

const defaultLimit = 10

// Server wraps the MCP server with skoop tools. Tools act for the user
// authenticated on the request context, or for defaultUser when the
// transport carries no identity (stdio).
type Server struct {
	mcpServer   *server.MCPServer
	clusters    ClusterSuggester
	search      Searcher
	defaultUser string
	logger      *slog.Logger
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(clusters ClusterSuggester, search Searcher, defaultUser, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		clusters:    clusters,
		search:      search,
		defaultUser: defaultUser,
		logger:      logger,
	}

	mcpServer := server.NewMCPServer("skoop", version, server.WithToolCapabilities(true))
	s.registerTools(mcpServer)
	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(mcp.NewTool("list_clusters",
		mcp.WithDescription("Group the user's saved resources into topic clusters with a title and description each"),
	), s.handleListClusters)

	mcpServer.AddTool(mcp.NewTool("search_resources",
		mcp.WithDescription("Search the user's saved resources by meaning or by keyword"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The search query"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Number of results to return (default: 10)"),
		),
		mcp.WithString("mode",
			mcp.Description("semantic (default) or keyword"),
			mcp.Enum("semantic", "keyword"),
		),
	), s.handleSearch)
}

func (s *Server) userID(ctx context.Context) string {
	if id := log.UserID(ctx); id != "" {
		return id
	}
	return s.defaultUser
}

type clusterResult struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Count       int      `json:"count"`
	ResourceIDs []string `json:"resourceIds"`
}

func (s *Server) handleListClusters(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := s.userID(ctx)
	if user == "" {
		return mcp.NewToolResultError("no user configured"), nil
	}

	clusters, err := s.clusters.Suggest(ctx, user)
	if err != nil {
		s.logger.Error("list clusters failed", slog.String("user_id", user), slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("list clusters failed: %v", err)), nil
	}

	results := make([]clusterResult, len(clusters))
	for i, c := range clusters {
		results[i] = clusterResult{
			ID:          c.ID(),
			Title:       c.Title(),
			Description: c.Description(),
			Count:       c.Count(),
			ResourceIDs: c.ResourceIDs(),
		}
	}
	return jsonResult(results)
}

type searchResult struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Score       float64  `json:"score"`
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil || query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	user := s.userID(ctx)
	if user == "" {
		return mcp.NewToolResultError("no user configured"), nil
	}
	limit := request.GetInt("limit", defaultLimit)

	var found []service.SearchResult
	switch mode := request.GetString("mode", "semantic"); mode {
	case "semantic":
		found, err = s.search.Semantic(ctx, user, query, limit)
	case "keyword":
		found, err = s.search.Keyword(ctx, user, query, limit)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown mode %q", mode)), nil
	}
	if err != nil {
		s.logger.Error("search failed", slog.String("user_id", user), slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	results := make([]searchResult, len(found))
	for i, f := range found {
		r := f.Resource()
		results[i] = searchResult{
			ID:          r.ID(),
			Title:       r.Title(),
			Description: r.Description(),
			URL:         r.URL(),
			Tags:        r.Tags(),
			Summary:     r.Summary(),
			Score:       f.Score(),
		}
	}
	return jsonResult(results)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// HTTPHandler serves the tools over streamable HTTP. The authenticated user
// on each request's context is carried into tool calls.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcpServer,
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if id := log.UserID(r.Context()); id != "" {
				return log.WithUserID(ctx, id)
			}
			return ctx
		}),
	)
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
