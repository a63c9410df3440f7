package openai

import (
	"context"
	"fmt"

	"github.com/ntria/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
)

// GenerateEmbedding creates a vector embedding for the given input text
// using the configured embedding model. The pgvector index adapter embeds
// each search query through this before querying the similarity index.
func (c *Client) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	client := c.EmbeddingClient
	if client == nil {
		return nil, ai.ErrNotConfigured
	}

	response, err := client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.embeddingModel),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(string(input)),
		},
	})
	if err != nil {
		return nil, classify(err)
	}

	if len(response.Data) != 1 {
		return nil, fmt.Errorf("%w: got %d embeddings, want 1", ai.ErrMalformed, len(response.Data))
	}

	embedding := make([]float32, len(response.Data[0].Embedding))
	for i, v := range response.Data[0].Embedding {
		embedding[i] = float32(v)
	}

	return embedding, nil
}
