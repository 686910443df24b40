package main

import (
	"log/slog"

	"github.com/techvault/skoop"
	"github.com/techvault/skoop/infrastructure/provider"
	"github.com/techvault/skoop/internal/config"
)

// clientOptions returns the skoop.Option slice derived from AppConfig.
// Callers append entrypoint-specific options before passing the full slice
// to skoop.New.
func clientOptions(cfg config.AppConfig, logger *slog.Logger) []skoop.Option {
	opts := []skoop.Option{
		skoop.WithDatabaseURL(cfg.DBURL()),
		skoop.WithDataDir(cfg.DataDir()),
		skoop.WithModelDir(cfg.ModelDir()),
		skoop.WithLogger(logger),
		skoop.WithClusteringConfig(cfg.Clustering()),
		skoop.WithBackfillConfig(cfg.Backfill()),
		skoop.WithSearchLimit(cfg.SearchLimit()),
		skoop.WithSimilarityThreshold(cfg.SearchThreshold()),
		skoop.WithMetadataConfig(cfg.Metadata()),
	}
	opts = append(opts, embeddingOptions(cfg)...)
	opts = append(opts, textOptions(cfg)...)
	return opts
}

// embeddingOptions returns the embedding provider option when the embedding
// endpoint is configured. Otherwise the client falls back to a local model.
func embeddingOptions(cfg config.AppConfig) []skoop.Option {
	endpoint := cfg.EmbeddingEndpoint()
	if endpoint == nil || !endpoint.IsConfigured() {
		return nil
	}
	openaiCfg := openAIConfig(*endpoint)
	openaiCfg.EmbeddingModel = endpoint.Model()
	p := provider.NewOpenAIProvider(openaiCfg)
	return []skoop.Option{skoop.WithEmbeddingProvider(p, p.EmbeddingModel())}
}

// textOptions returns the text provider option when the enrichment endpoint
// is configured.
func textOptions(cfg config.AppConfig) []skoop.Option {
	endpoint := cfg.EnrichmentEndpoint()
	if endpoint == nil || !endpoint.IsConfigured() {
		return nil
	}
	openaiCfg := openAIConfig(*endpoint)
	openaiCfg.ChatModel = endpoint.Model()
	return []skoop.Option{skoop.WithTextProvider(provider.NewOpenAIProvider(openaiCfg))}
}

func openAIConfig(endpoint config.Endpoint) provider.OpenAIConfig {
	return provider.OpenAIConfig{
		APIKey:        endpoint.APIKey(),
		BaseURL:       endpoint.BaseURL(),
		Timeout:       endpoint.Timeout(),
		MaxRetries:    endpoint.MaxRetries(),
		InitialDelay:  endpoint.InitialDelay(),
		BackoffFactor: endpoint.BackoffFactor(),
	}
}

// newClient loads the shared client options and opens a client.
func newClient(cfg config.AppConfig, logger *slog.Logger, extra ...skoop.Option) (*skoop.Client, error) {
	return skoop.New(append(clientOptions(cfg, logger), extra...)...)
}
