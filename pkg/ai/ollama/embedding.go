package ollama

import (
	"context"
	"strings"

	"github.com/ntria/backend/pkg/ai"

	"github.com/ollama/ollama/api"
)

const defaultDimensions = 1024

// GenerateEmbedding creates a vector embedding for the given input text
// using the configured embedding model on Ollama. Empty input yields a
// zero vector of the configured dimensionality.
func (c *Client) GenerateEmbedding(
	ctx context.Context,
	input []byte,
) ([]float32, error) {
	if c.embeddingModel == "" {
		return nil, ai.ErrNotConfigured
	}

	if len(strings.TrimSpace(string(input))) == 0 {
		return make([]float32, c.embedDimensions), nil
	}

	req := &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: string(input),
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	res, err := c.Client.Embed(ctx, req)
	if err != nil {
		return nil, classify(err)
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens: res.PromptEvalCount,
		TotalTokens: res.PromptEvalCount,
		DurationMs:  res.TotalDuration.Milliseconds(),
	})

	out := make([]float32, 0, c.embedDimensions)
	for _, v := range res.Embeddings {
		for _, val := range v {
			if len(out) >= c.embedDimensions {
				break
			}
			out = append(out, float32(val))
		}
	}
	return out, nil
}
