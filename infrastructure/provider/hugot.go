package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

// LocalModelName identifies embeddings produced by LocalEmbedding.
const LocalModelName = "local"

const localBatchMax = 16

// ErrNoLocalModel indicates that no model directory was found.
var ErrNoLocalModel = errors.New("no local embedding model found")

// The ONNX runtime allows one session per process, so every LocalEmbedding
// shares this pipeline. mu also serializes inference.
var localRuntime struct {
	mu       sync.Mutex
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	modelDir string
}

// LocalEmbedding embeds text in-process with a sentence-transformer model
// stored under modelDir. Any subdirectory containing tokenizer.json is
// treated as the model.
type LocalEmbedding struct {
	modelDir string
}

// NewLocalEmbedding creates a LocalEmbedding reading models from modelDir.
func NewLocalEmbedding(modelDir string) *LocalEmbedding {
	return &LocalEmbedding{modelDir: modelDir}
}

// Available reports whether a model is present on disk.
func (e *LocalEmbedding) Available() bool {
	_, err := findModel(e.modelDir)
	return err == nil
}

// Model returns the name stored alongside local embeddings.
func (e *LocalEmbedding) Model() string { return LocalModelName }

func findModel(dir string) (string, error) {
	if _, err := os.Stat(filepath.Join(dir, "tokenizer.json")); err == nil {
		return dir, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w in %s: %w", ErrNoLocalModel, dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(filepath.Join(candidate, "tokenizer.json")); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNoLocalModel, dir)
}

// load must be called with localRuntime.mu held.
func (e *LocalEmbedding) load() error {
	if localRuntime.pipeline != nil {
		return nil
	}
	modelPath, err := findModel(e.modelDir)
	if err != nil {
		return err
	}
	session, err := newHugotSession()
	if err != nil {
		return fmt.Errorf("create hugot session: %w", err)
	}
	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "skoop-embeddings",
		Options:   []hugot.FeatureExtractionOption{pipelines.WithNormalization()},
	})
	if err != nil {
		_ = session.Destroy()
		return fmt.Errorf("create feature extraction pipeline: %w", err)
	}
	localRuntime.session = session
	localRuntime.pipeline = pipeline
	localRuntime.modelDir = modelPath
	return nil
}

// Embed embeds texts in chunks the pipeline can handle at once.
func (e *LocalEmbedding) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float64{}, Usage{}), nil
	}

	localRuntime.mu.Lock()
	defer localRuntime.mu.Unlock()

	if err := e.load(); err != nil {
		return EmbeddingResponse{}, fmt.Errorf("load local model: %w", err)
	}

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += localBatchMax {
		if err := ctx.Err(); err != nil {
			return EmbeddingResponse{}, err
		}
		end := min(start+localBatchMax, len(texts))
		result, err := localRuntime.pipeline.RunPipeline(texts[start:end])
		if err != nil {
			return EmbeddingResponse{}, fmt.Errorf("run embedding pipeline: %w", err)
		}
		for _, vec32 := range result.Embeddings {
			vec := make([]float64, len(vec32))
			for j, v := range vec32 {
				vec[j] = float64(v)
			}
			out = append(out, vec)
		}
	}
	if len(out) != len(texts) {
		return EmbeddingResponse{}, fmt.Errorf("%w: got %d vectors for %d texts", errShortEmbeddingResponse, len(out), len(texts))
	}
	return NewEmbeddingResponse(out, Usage{}), nil
}

// Close is a no-op; the shared session lives for the process.
func (e *LocalEmbedding) Close() error { return nil }

var _ Embedder = (*LocalEmbedding)(nil)
