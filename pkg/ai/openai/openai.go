package openai

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ntria/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Client talks to any OpenAI-compatible chat completions API. In production
// it fronts Groq (the primary generation provider) and, separately
// configured, the embeddings endpoint used by the pgvector index adapter.
//
// A Client should be created using NewClient.
type Client struct {
	name           string
	chatModel      string
	embeddingModel string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// ClientParams defines the configuration for creating a Client.
//
// ChatURL/ChatKey configure the chat completions endpoint; for Groq the URL
// is https://api.groq.com/openai/v1. EmbeddingURL/EmbeddingKey configure the
// embeddings endpoint and may be left empty when no pgvector adapter runs.
type ClientParams struct {
	Name           string
	ChatModel      string
	EmbeddingModel string

	ChatURL      string
	ChatKey      string
	EmbeddingURL string
	EmbeddingKey string
}

// NewClient creates a Client for an OpenAI-compatible API.
//
// Example:
//
//	client := openai.NewClient(openai.ClientParams{
//		Name:      "groq",
//		ChatModel: "llama-3.3-70b-versatile",
//		ChatURL:   "https://api.groq.com/openai/v1",
//		ChatKey:   os.Getenv("GROQ_API_KEY"),
//	})
func NewClient(params ClientParams) *Client {
	name := params.Name
	if name == "" {
		name = "openai"
	}

	return &Client{
		name:           name,
		chatModel:      params.ChatModel,
		embeddingModel: params.EmbeddingModel,

		metricsLock: sync.Mutex{},

		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey),
		EmbeddingClient: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
	}
}

// Name returns the configured provider name used in response envelopes.
func (c *Client) Name() string {
	return c.name
}

// GetMetrics returns accumulated token usage for this client.
func (c *Client) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *Client) modifyMetrics(delta ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics.InputTokens += delta.InputTokens
	c.metrics.OutputTokens += delta.OutputTokens
	c.metrics.TotalTokens += delta.TotalTokens
	c.metrics.DurationMs += delta.DurationMs
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

// classify maps SDK errors onto the shared provider error kinds so the
// chain can branch on cause.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ai.ErrTimeout, err)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 401, 403:
			return fmt.Errorf("%w: %v", ai.ErrAuth, err)
		case 429:
			return fmt.Errorf("%w: %v", ai.ErrRateLimited, err)
		}
	}

	return err
}
