package service

import (
	"context"
	"errors"
)

// ErrEmptyQuery indicates an empty search query.
var ErrEmptyQuery = errors.New("search query cannot be empty")

// ErrNoEmbedder indicates an operation that needs embeddings when none are configured.
var ErrNoEmbedder = errors.New("no embedding provider configured")

// Embedder converts text into embedding vectors, one per input in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
