package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/techvault/skoop/infrastructure/api"
	"github.com/techvault/skoop/internal/config"
	"github.com/techvault/skoop/internal/log"
	"github.com/techvault/skoop/internal/mcp"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server and the background backfill worker.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8080)
  DATA_DIR                     Data directory (default: ~/.skoop)
  DB_URL                       Database URL (default: sqlite:///{data_dir}/skoop.db)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  API_KEYS                     Comma-separated key:user pairs
  CORS_ALLOWED_ORIGINS         Comma-separated list of allowed origins
  MODEL_DIR                    Local embedding model directory (default: {data_dir}/models)

  EMBEDDING_ENDPOINT_*         Embedding service configuration
    BASE_URL                   Base URL (e.g., https://api.openai.com/v1)
    MODEL                      Model identifier (e.g., text-embedding-3-small)
    API_KEY                    API key for authentication
    TIMEOUT                    Request timeout in seconds (default: 60)
    MAX_RETRIES                Retry attempts (default: 5)
    INITIAL_DELAY              First retry delay in seconds (default: 2)
    BACKOFF_FACTOR             Retry delay multiplier (default: 2)

  ENRICHMENT_ENDPOINT_*        Chat service for cluster labels and summaries
    (same fields as EMBEDDING_ENDPOINT)

  CLUSTERING_MAX_CLUSTERS      Upper bound on clusters per user (default: 4)
  CLUSTERING_MAX_ITERATIONS    k-means iteration cap (default: 100)
  CLUSTERING_METRIC            cosine or euclidean (default: cosine)
  CLUSTERING_LABEL_PARALLELISM Concurrent label requests (default: 4)
  CLUSTERING_PROFILE           YAML file with icons and colors

  BACKFILL_ENABLED             Run the backfill worker (default: true)
  BACKFILL_INTERVAL_SECONDS    Seconds between passes (default: 30)
  BACKFILL_BATCH_SIZE          Resources per pass (default: 10)
  BACKFILL_REQUESTS_PER_SECOND Provider request rate, 0 for unlimited (default: 2)

  SEARCH_LIMIT                 Default search result count (default: 10)
  SEARCH_THRESHOLD             Minimum semantic similarity (default: 0.7)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)

	slogger := log.NewLogger(cfg).Slog()

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	slogger.LogAttrs(context.Background(), slog.LevelInfo, "starting skoop", attrs...)

	client, err := newClient(cfg, slogger)
	if err != nil {
		return fmt.Errorf("create skoop client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close skoop client", slog.Any("error", err))
		}
	}()

	mcpServer := mcp.NewServer(client.Clusters, client.Search, "", version, slogger)
	apiServer := api.NewAPIServer(
		api.Services{
			Clusters:    client.Clusters,
			Resources:   client.Resources,
			Search:      client.Search,
			Collections: client.Collections,
			Metadata:    client.Metadata,
		},
		cfg.APIKeys(),
		api.WithCORSOrigins(cfg.CORSOrigins()),
		api.WithMCP(mcpServer),
		api.WithVersion(version),
		api.WithLogger(slogger),
	)

	server := api.NewServer(cfg.Addr(), slogger)
	apiServer.MountRoutes(server.Router())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client.Backfill.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slogger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
