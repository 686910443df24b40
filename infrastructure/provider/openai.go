package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Defaults for OpenAI-compatible endpoints.
const (
	DefaultChatModel      = "gpt-3.5-turbo"
	DefaultEmbeddingModel = "text-embedding-3-small"
	defaultMaxRetries     = 5
	defaultInitialDelay   = 2 * time.Second
	defaultBackoffFactor  = 2.0
)

// errShortEmbeddingResponse marks a response with fewer vectors than inputs.
// Gateways sometimes return these under load, so it is retried.
var errShortEmbeddingResponse = errors.New("embedding response count mismatch")

// errEmptyUpstream marks a 200 response with no data, no model and no usage,
// which routing gateways send when every upstream failed. It is not retried.
var errEmptyUpstream = errors.New("upstream provider returned an empty response")

// OpenAIConfig configures an OpenAIProvider. Zero values take defaults.
// An empty ChatModel or EmbeddingModel leaves that capability disabled
// unless the other is also empty.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
	MaxRetries     int
	InitialDelay   time.Duration
	BackoffFactor  float64
	HTTPClient     *http.Client
}

// OpenAIProvider calls an OpenAI-compatible API for chat and embeddings.
type OpenAIProvider struct {
	client         *openai.Client
	chatModel      string
	embeddingModel string
	maxRetries     int
	initialDelay   time.Duration
	backoffFactor  float64
}

// NewOpenAIProvider creates a provider from cfg.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	switch {
	case cfg.HTTPClient != nil:
		clientCfg.HTTPClient = cfg.HTTPClient
	case cfg.Timeout > 0:
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	p := &OpenAIProvider{
		client:         openai.NewClientWithConfig(clientCfg),
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
		maxRetries:     cfg.MaxRetries,
		initialDelay:   cfg.InitialDelay,
		backoffFactor:  cfg.BackoffFactor,
	}
	if p.chatModel == "" && p.embeddingModel == "" {
		p.chatModel = DefaultChatModel
		p.embeddingModel = DefaultEmbeddingModel
	}
	if p.maxRetries < 0 {
		p.maxRetries = 0
	}
	if cfg.MaxRetries == 0 {
		p.maxRetries = defaultMaxRetries
	}
	if p.initialDelay <= 0 {
		p.initialDelay = defaultInitialDelay
	}
	if p.backoffFactor < 1 {
		p.backoffFactor = defaultBackoffFactor
	}
	return p
}

// ChatModel returns the chat model name, or "" when chat is disabled.
func (p *OpenAIProvider) ChatModel() string { return p.chatModel }

// EmbeddingModel returns the embedding model name, or "" when embeddings are disabled.
func (p *OpenAIProvider) EmbeddingModel() string { return p.embeddingModel }

// Close is a no-op.
func (p *OpenAIProvider) Close() error { return nil }

// ChatCompletion generates a chat completion and returns its first choice.
func (p *OpenAIProvider) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error) {
	if p.chatModel == "" {
		return ChatCompletionResponse{}, ErrUnsupportedOperation
	}

	msgs := req.Messages()
	apiReq := openai.ChatCompletionRequest{
		Model:    p.chatModel,
		Messages: make([]openai.ChatCompletionMessage, len(msgs)),
	}
	for i, m := range msgs {
		apiReq.Messages[i] = openai.ChatCompletionMessage{Role: m.Role(), Content: m.Content()}
	}
	if req.MaxTokens() > 0 {
		apiReq.MaxTokens = req.MaxTokens()
	}
	if req.Temperature() > 0 {
		apiReq.Temperature = float32(req.Temperature())
	}
	if req.JSONOutput() {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var resp openai.ChatCompletionResponse
	err := p.withRetry(ctx, func() error {
		var callErr error
		resp, callErr = p.client.CreateChatCompletion(ctx, apiReq)
		return callErr
	})
	if err != nil {
		return ChatCompletionResponse{}, wrapError("chat_completion", err)
	}
	if len(resp.Choices) == 0 {
		return ChatCompletionResponse{}, NewProviderError("chat_completion", 0, "no choices in response", nil)
	}

	choice := resp.Choices[0]
	usage := NewUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	return NewChatCompletionResponse(choice.Message.Content, string(choice.FinishReason), usage), nil
}

// Embed embeds all texts in a single API call.
func (p *OpenAIProvider) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	if p.embeddingModel == "" {
		return EmbeddingResponse{}, ErrUnsupportedOperation
	}
	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float64{}, Usage{}), nil
	}

	apiReq := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.embeddingModel),
		Input: texts,
	}

	var resp openai.EmbeddingResponse
	err := p.withRetry(ctx, func() error {
		var callErr error
		resp, callErr = p.client.CreateEmbeddings(ctx, apiReq)
		if callErr != nil {
			return callErr
		}
		if len(resp.Data) == 0 && string(resp.Model) == "" && resp.Usage.TotalTokens == 0 {
			return errEmptyUpstream
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("%w: got %d vectors for %d texts", errShortEmbeddingResponse, len(resp.Data), len(texts))
		}
		return nil
	})
	if err != nil {
		return EmbeddingResponse{}, wrapError("embedding", err)
	}

	out := make([][]float64, len(texts))
	for _, d := range resp.Data {
		idx := d.Index
		if idx < 0 || idx >= len(out) {
			return EmbeddingResponse{}, NewProviderError("embedding", 0, fmt.Sprintf("embedding index %d out of range", idx), nil)
		}
		vec := make([]float64, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float64(v)
		}
		out[idx] = vec
	}
	return NewEmbeddingResponse(out, NewUsage(resp.Usage.PromptTokens, 0, resp.Usage.TotalTokens)), nil
}

// withRetry runs fn with exponential backoff while its error is retryable.
func (p *OpenAIProvider) withRetry(ctx context.Context, fn func() error) error {
	delay := p.initialDelay
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
		if attempt == p.maxRetries {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * p.backoffFactor)
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	if errors.Is(err, errShortEmbeddingResponse) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var reqErr *openai.RequestError
	return errors.As(err, &reqErr)
}

func wrapError(operation string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError(operation, apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError(operation, reqErr.HTTPStatusCode, reqErr.Error(), err)
	}
	return NewProviderError(operation, 0, err.Error(), err)
}

var _ FullProvider = (*OpenAIProvider)(nil)
