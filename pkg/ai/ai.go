package ai

import (
	"context"
	"errors"
	"time"
)

// Provider failure kinds. Every client maps its transport errors onto one of
// these so the fallback chain can branch on the cause instead of parsing
// provider-specific messages.
var (
	// ErrNotConfigured indicates the provider has no API key or endpoint set.
	ErrNotConfigured = errors.New("provider not configured")
	// ErrAuth indicates the provider rejected the configured credentials.
	ErrAuth = errors.New("provider authentication failed")
	// ErrRateLimited indicates the provider refused the request due to quota.
	ErrRateLimited = errors.New("provider rate limit exceeded")
	// ErrTimeout indicates the request exceeded its deadline.
	ErrTimeout = errors.New("provider request timed out")
	// ErrMalformed indicates the provider returned a payload that could not
	// be interpreted as a completion.
	ErrMalformed = errors.New("unexpected provider response format")
)

// GenerateOptions holds configuration for a single generation request.
type GenerateOptions struct {
	Model         string        // Model identifier to use for generation
	SystemPrompts []string      // System prompts prepended to the request
	Temperature   float64       // Sampling temperature (0.0-2.0)
	MaxTokens     int           // Upper bound on generated tokens
	Timeout       time.Duration // Per-call deadline applied by the caller
}

// GenerateOption is a functional option for configuring generation requests.
type GenerateOption func(*GenerateOptions)

// WithModel returns a GenerateOption that sets the model to use.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts returns a GenerateOption that sets the system prompts
// to prepend to the generation request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature returns a GenerateOption that sets the sampling
// temperature. Lower values (e.g., 0.1) make outputs more deterministic,
// which the analyzer and verifier rely on.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithMaxTokens returns a GenerateOption that caps the response length.
func WithMaxTokens(n int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = n
	}
}

// WithTimeout returns a GenerateOption that sets the per-call deadline.
func WithTimeout(d time.Duration) GenerateOption {
	return func(o *GenerateOptions) {
		o.Timeout = d
	}
}

// ApplyOptions merges opts over the given defaults. Clients call this at the
// top of every request so option handling stays uniform across backends.
func ApplyOptions(defaults GenerateOptions, opts ...GenerateOption) GenerateOptions {
	for _, o := range opts {
		o(&defaults)
	}
	return defaults
}

// ModelMetrics contains token accounting from completed requests.
type ModelMetrics struct {
	InputTokens  int   `json:"input_tokens"`
	OutputTokens int   `json:"output_tokens"`
	TotalTokens  int   `json:"total_tokens"`
	DurationMs   int64 `json:"duration_ms"`
}

// Provider is a single hosted or local language-model backend.
//
// Generate sends a single-turn prompt and returns the completion text.
// GenerateWithFormat requests structured output and unmarshals it into out;
// backends without native schema support fall back to tolerant JSON parsing
// of the raw completion.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error)
	GenerateWithFormat(ctx context.Context, name string, description string, prompt string, out any, opts ...GenerateOption) error
}

// Embedder produces vector embeddings for text. Only the pgvector index
// adapter needs one; the other adapters search on raw text.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)
}
