package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ntria/backend/pkg/ai"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1"

// Client implements the ai.Provider interface against the Google
// generativelanguage REST API. It serves as the secondary provider in the
// generation chain when Groq is unavailable.
type Client struct {
	model   string
	baseURL string
	apiKey  string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	httpClient *http.Client
}

// ClientParams contains configuration for creating a Client.
type ClientParams struct {
	Model   string
	BaseURL string
	APIKey  string
}

// NewClient creates a Gemini-backed provider. An empty APIKey yields a
// client that reports ai.ErrNotConfigured on every call, which the chain
// skips over.
func NewClient(params ClientParams) *Client {
	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		model:   params.Model,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  params.APIKey,

		metricsLock: sync.Mutex{},

		httpClient: &http.Client{},
	}
}

// Name returns the provider name used in response envelopes.
func (c *Client) Name() string {
	return "gemini"
}

// GetMetrics returns accumulated token usage for this client.
func (c *Client) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

type generateRequest struct {
	Contents         []content       `json:"contents"`
	GenerationConfig *generateConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Generate sends a single-turn prompt and returns the completion text.
// The API has no separate system role on this endpoint, so system prompts
// are prepended to the user prompt.
func (c *Client) Generate(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	if c.apiKey == "" {
		return "", ai.ErrNotConfigured
	}

	options := ai.ApplyOptions(ai.GenerateOptions{
		Model:       c.model,
		Temperature: 0.3,
		MaxTokens:   800,
	}, opts...)

	full := prompt
	if len(options.SystemPrompts) > 0 {
		full = strings.Join(options.SystemPrompts, "\n\n") + "\n\n" + prompt
	}

	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: full}}}},
		GenerationConfig: &generateConfig{
			MaxOutputTokens: options.MaxTokens,
			Temperature:     options.Temperature,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, options.Model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ai.ErrTimeout, err)
		}
		return "", err
	}
	defer resp.Body.Close()
	duration := time.Since(start).Milliseconds()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w: status %d", ai.ErrAuth, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: status %d", ai.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("gemini api error: status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ai.ErrMalformed, err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidates", ai.ErrMalformed)
	}

	c.metricsLock.Lock()
	c.metrics.InputTokens += out.UsageMetadata.PromptTokenCount
	c.metrics.OutputTokens += out.UsageMetadata.CandidatesTokenCount
	c.metrics.TotalTokens += out.UsageMetadata.TotalTokenCount
	c.metrics.DurationMs += duration
	c.metricsLock.Unlock()

	return out.Candidates[0].Content.Parts[0].Text, nil
}

// GenerateWithFormat requests JSON output by instruction and parses the
// completion tolerantly. This endpoint lacks the schema enforcement the
// OpenAI-compatible APIs offer, so malformed output surfaces as
// ai.ErrMalformed after repair attempts.
func (c *Client) GenerateWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	text, err := c.Generate(ctx, prompt, opts...)
	if err != nil {
		return err
	}

	if err := ai.UnmarshalFlexible(text, out); err != nil {
		return fmt.Errorf("%w: %v", ai.ErrMalformed, err)
	}

	return nil
}
