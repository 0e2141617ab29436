// Package openai provides embedding generation against an OpenAI-compatible
// provider. The knowledge base is embedded offline with the same model, so
// vectors produced here are comparable with the stored ones.
package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrNoEmbedding is returned when the provider returns no usable vector
	ErrNoEmbedding = errors.New("provider returned no embedding data")
	// ErrWrongDimensions is returned when an embedding does not match the
	// configured dimension for its model
	ErrWrongDimensions = errors.New("embedding has unexpected dimensions")
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, model, text string) ([]float32, error)
}

// Client wraps an embedding provider for a single embedding model.
// Vectors from different models are not comparable, so each Client is bound
// to exactly one model name.
type Client struct {
	api        EmbeddingAPI
	model      string
	dimensions int
}

type APIAdapter struct {
	client *openai.Client
}

// NewAPIAdapter creates an adapter over the go-openai client. BaseURL may
// point at any OpenAI-compatible embedding endpoint (e.g. Ollama's /v1).
func NewAPIAdapter(apiKey, baseURL string) *APIAdapter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &APIAdapter{client: openai.NewClientWithConfig(cfg)}
}

// CreateEmbeddings calls the provider to embed a single input text.
func (a *APIAdapter) CreateEmbeddings(ctx context.Context, model, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, ErrNoEmbedding
	}

	return resp.Data[0].Embedding, nil
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Dimensions enables a strict dimension check when > 0.
	Dimensions int
}

// NewClient creates an embedding client with explicit configuration.
func NewClient(cfg Config) *Client {
	return &Client{
		api:        NewAPIAdapter(cfg.APIKey, cfg.BaseURL),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// NewClientWithAPI creates a Client over an explicit API implementation.
func NewClientWithAPI(api EmbeddingAPI, model string, dimensions int) *Client {
	return &Client{api: api, model: model, dimensions: dimensions}
}

// Model returns the embedding model this client is bound to.
func (c *Client) Model() string {
	return c.model
}

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := c.api.CreateEmbeddings(ctx, c.model, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(embedding) == 0 {
		return nil, ErrNoEmbedding
	}

	if c.dimensions > 0 && len(embedding) != c.dimensions {
		return nil, ErrWrongDimensions
	}

	return embedding, nil
}
