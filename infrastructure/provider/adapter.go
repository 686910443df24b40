package provider

import (
	"context"

	"github.com/techvault/skoop/domain/service"
)

// EmbedderAdapter exposes a provider Embedder as a domain embedder.
type EmbedderAdapter struct {
	inner Embedder
}

// NewEmbedderAdapter wraps inner.
func NewEmbedderAdapter(inner Embedder) *EmbedderAdapter {
	return &EmbedderAdapter{inner: inner}
}

// Embed returns one vector per text, in order.
func (a *EmbedderAdapter) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := a.inner.Embed(ctx, NewEmbeddingRequest(texts))
	if err != nil {
		return nil, err
	}
	return resp.Embeddings(), nil
}

var _ service.Embedder = (*EmbedderAdapter)(nil)
