// Package llm wraps chat-completion access to an OpenAI-compatible provider
// (OpenRouter, OpenAI, or a local gateway).
package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Message roles for composed prompts.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one role-tagged entry of a composed prompt.
type Message struct {
	Role    string
	Content string
}

// Options are per-request generation knobs.
type Options struct {
	Temperature     float32
	MaxTokens       int
	ReasoningEffort string
}

// ErrEmptyCompletion is returned when the provider responds without any
// choice; the caller treats it as an upstream failure, not a parse failure.
var ErrEmptyCompletion = errors.New("model returned no completion choices")

// ChatAPI is the completion surface consumed by Client, kept narrow so tests
// can substitute it.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client sends composed prompts to a chat-completion provider and returns
// the raw text of the first choice. The raw text is untrusted and fully
// unstructured; extraction happens downstream.
type Client struct {
	api ChatAPI
}

// Config holds provider connection settings.
type Config struct {
	APIKey  string
	BaseURL string
}

// NewClient creates a chat client. BaseURL may point at any
// OpenAI-compatible endpoint; empty means the default OpenAI API.
func NewClient(cfg Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{api: openai.NewClientWithConfig(clientCfg)}
}

// NewClientWithAPI creates a Client over an explicit API implementation.
func NewClientWithAPI(api ChatAPI) *Client {
	return &Client{api: api}
}

// Complete sends messages to the named model and returns the raw response
// text. A single attempt is made; retry policy belongs to the caller's
// transport configuration.
func (c *Client) Complete(ctx context.Context, messages []Message, model string, opts Options) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	if opts.ReasoningEffort != "" {
		req.ReasoningEffort = opts.ReasoningEffort
	}

	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}
