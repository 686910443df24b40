// Package provider talks to language model and embedding backends.
package provider

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// ErrUnsupportedOperation is returned when a provider was not configured
// for the requested capability.
var ErrUnsupportedOperation = errors.New("operation not supported by provider")

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	role    string
	content string
}

// NewMessage creates a Message.
func NewMessage(role, content string) Message {
	return Message{role: role, content: content}
}

// SystemMessage creates a system Message.
func SystemMessage(content string) Message { return NewMessage(RoleSystem, content) }

// UserMessage creates a user Message.
func UserMessage(content string) Message { return NewMessage(RoleUser, content) }

// Role returns the message role.
func (m Message) Role() string { return m.role }

// Content returns the message text.
func (m Message) Content() string { return m.content }

// ChatCompletionRequest is a request for a single chat completion.
type ChatCompletionRequest struct {
	messages    []Message
	maxTokens   int
	temperature float64
	jsonOutput  bool
}

// NewChatCompletionRequest creates a request from messages.
func NewChatCompletionRequest(messages ...Message) ChatCompletionRequest {
	return ChatCompletionRequest{messages: slices.Clone(messages)}
}

// WithMaxTokens returns a copy limited to n completion tokens.
func (r ChatCompletionRequest) WithMaxTokens(n int) ChatCompletionRequest {
	r.maxTokens = n
	return r
}

// WithTemperature returns a copy with the sampling temperature set.
func (r ChatCompletionRequest) WithTemperature(t float64) ChatCompletionRequest {
	r.temperature = t
	return r
}

// WithJSONOutput returns a copy that asks the model for a JSON object.
func (r ChatCompletionRequest) WithJSONOutput() ChatCompletionRequest {
	r.jsonOutput = true
	return r
}

// Messages returns the conversation.
func (r ChatCompletionRequest) Messages() []Message { return slices.Clone(r.messages) }

// MaxTokens returns the completion token limit, or 0 for the provider default.
func (r ChatCompletionRequest) MaxTokens() int { return r.maxTokens }

// Temperature returns the sampling temperature, or 0 for the provider default.
func (r ChatCompletionRequest) Temperature() float64 { return r.temperature }

// JSONOutput reports whether a JSON object response was requested.
func (r ChatCompletionRequest) JSONOutput() bool { return r.jsonOutput }

// Usage counts tokens consumed by a call.
type Usage struct {
	promptTokens     int
	completionTokens int
	totalTokens      int
}

// NewUsage creates a Usage.
func NewUsage(prompt, completion, total int) Usage {
	return Usage{promptTokens: prompt, completionTokens: completion, totalTokens: total}
}

// PromptTokens returns the input token count.
func (u Usage) PromptTokens() int { return u.promptTokens }

// CompletionTokens returns the output token count.
func (u Usage) CompletionTokens() int { return u.completionTokens }

// TotalTokens returns the total token count.
func (u Usage) TotalTokens() int { return u.totalTokens }

// ChatCompletionResponse is the first choice of a chat completion.
type ChatCompletionResponse struct {
	content      string
	finishReason string
	usage        Usage
}

// NewChatCompletionResponse creates a ChatCompletionResponse.
func NewChatCompletionResponse(content, finishReason string, usage Usage) ChatCompletionResponse {
	return ChatCompletionResponse{content: content, finishReason: finishReason, usage: usage}
}

// Content returns the generated text.
func (r ChatCompletionResponse) Content() string { return r.content }

// FinishReason returns why generation stopped.
func (r ChatCompletionResponse) FinishReason() string { return r.finishReason }

// Usage returns token usage.
func (r ChatCompletionResponse) Usage() Usage { return r.usage }

// EmbeddingRequest asks for one embedding per text.
type EmbeddingRequest struct {
	texts []string
}

// NewEmbeddingRequest creates an EmbeddingRequest.
func NewEmbeddingRequest(texts []string) EmbeddingRequest {
	return EmbeddingRequest{texts: slices.Clone(texts)}
}

// Texts returns the inputs.
func (r EmbeddingRequest) Texts() []string { return slices.Clone(r.texts) }

// EmbeddingResponse holds embeddings in request order.
type EmbeddingResponse struct {
	embeddings [][]float64
	usage      Usage
}

// NewEmbeddingResponse creates an EmbeddingResponse.
func NewEmbeddingResponse(embeddings [][]float64, usage Usage) EmbeddingResponse {
	return EmbeddingResponse{embeddings: embeddings, usage: usage}
}

// Embeddings returns the vectors.
func (r EmbeddingResponse) Embeddings() [][]float64 { return r.embeddings }

// Usage returns token usage.
func (r EmbeddingResponse) Usage() Usage { return r.usage }

// ProviderError describes a failed provider call.
type ProviderError struct {
	operation  string
	statusCode int
	message    string
	cause      error
}

// NewProviderError creates a ProviderError.
func NewProviderError(operation string, statusCode int, message string, cause error) *ProviderError {
	return &ProviderError{operation: operation, statusCode: statusCode, message: message, cause: cause}
}

// Error implements error.
func (e *ProviderError) Error() string {
	if e.statusCode > 0 {
		return fmt.Sprintf("%s failed (status %d): %s", e.operation, e.statusCode, e.message)
	}
	return fmt.Sprintf("%s failed: %s", e.operation, e.message)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error { return e.cause }

// Operation returns the failed operation name.
func (e *ProviderError) Operation() string { return e.operation }

// StatusCode returns the HTTP status, or 0 when there was no response.
func (e *ProviderError) StatusCode() int { return e.statusCode }

// TextGenerator produces chat completions.
type TextGenerator interface {
	ChatCompletion(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error)
}

// Embedder produces embeddings.
type Embedder interface {
	Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error)
}

// FullProvider supports both chat and embeddings.
type FullProvider interface {
	TextGenerator
	Embedder
	Close() error
}
