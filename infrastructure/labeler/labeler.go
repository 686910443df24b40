// Package labeler names clusters and summarizes resources with a language model.
package labeler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/techvault/skoop/domain/cluster"
	"github.com/techvault/skoop/domain/service"
	"github.com/techvault/skoop/infrastructure/provider"
)

const (
	labelSystemPrompt = "You are a helpful assistant that generates concise titles and descriptions for clusters of resources. Keep titles under 5 words and descriptions under 15 words."

	summarySystemPrompt = "You are a helpful assistant that creates concise summaries of web content. Create a 2-3 sentence summary that captures the main points."

	summaryMaxTokens   = 150
	summaryTemperature = 0.3

	// maxSummaryInput bounds the content sent for summarization, in bytes.
	maxSummaryInput = 4000
)

// ErrEmptySummary indicates the model returned no summary text.
var ErrEmptySummary = errors.New("model returned an empty summary")

// ProviderLabeler implements cluster labeling and summarization on top of
// a chat completion provider.
type ProviderLabeler struct {
	generator provider.TextGenerator
	logger    *slog.Logger
}

// NewProviderLabeler creates a ProviderLabeler.
func NewProviderLabeler(generator provider.TextGenerator, logger *slog.Logger) *ProviderLabeler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProviderLabeler{generator: generator, logger: logger}
}

// Label asks the model for a title and description of one cluster.
func (l *ProviderLabeler) Label(ctx context.Context, req service.LabelRequest) (cluster.Label, error) {
	chatReq := provider.NewChatCompletionRequest(
		provider.SystemMessage(labelSystemPrompt),
		provider.UserMessage(labelPrompt(req.Titles(), req.Tags())),
	).WithJSONOutput()

	resp, err := l.generator.ChatCompletion(ctx, chatReq)
	if err != nil {
		return cluster.Label{}, fmt.Errorf("label cluster: %w", err)
	}

	label, err := parseLabel(resp.Content())
	if err != nil {
		l.logger.Warn("unusable cluster label", "content", truncate(resp.Content(), 200), "error", err)
		return cluster.Label{}, err
	}
	return label, nil
}

// Summarize condenses text into a short summary.
func (l *ProviderLabeler) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("summarize: %w", ErrEmptySummary)
	}

	chatReq := provider.NewChatCompletionRequest(
		provider.SystemMessage(summarySystemPrompt),
		provider.UserMessage("Please summarize this content: "+truncate(text, maxSummaryInput)),
	).WithMaxTokens(summaryMaxTokens).WithTemperature(summaryTemperature)

	resp, err := l.generator.ChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	summary := strings.TrimSpace(cleanThinkingTags(resp.Content()))
	if summary == "" {
		return "", fmt.Errorf("summarize: %w", ErrEmptySummary)
	}
	return summary, nil
}

func labelPrompt(titles, tags []string) string {
	return fmt.Sprintf(
		"Generate a title and description for a cluster containing these resources: %s. Common tags: %s. Format as JSON: {\"title\": \"title\", \"description\": \"description\"}",
		strings.Join(titles, ", "),
		strings.Join(tags, ", "),
	)
}

type labelPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func parseLabel(content string) (cluster.Label, error) {
	body := stripCodeFence(cleanThinkingTags(content))
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		body = body[start : end+1]
	}

	var payload labelPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return cluster.Label{}, fmt.Errorf("%w: %w", cluster.ErrInvalidLabel, err)
	}
	label, err := cluster.NewLabel(payload.Title, payload.Description)
	if err != nil {
		return cluster.Label{}, fmt.Errorf("%w: missing title", err)
	}
	return label, nil
}

// cleanThinkingTags removes <think>...</think> blocks that reasoning models
// emit before their answer. An unclosed block drops everything after it.
func cleanThinkingTags(text string) string {
	for {
		start := strings.Index(text, "<think>")
		if start == -1 {
			return strings.TrimSpace(text)
		}
		end := strings.Index(text[start:], "</think>")
		if end == -1 {
			return strings.TrimSpace(text[:start])
		}
		text = text[:start] + text[start+end+len("</think>"):]
	}
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Back off to a rune boundary.
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

var (
	_ service.Labeler    = (*ProviderLabeler)(nil)
	_ service.Summarizer = (*ProviderLabeler)(nil)
)
