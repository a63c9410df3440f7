package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ntria/backend/pkg/ai"
)

// Pinecone queries a hosted Pinecone index over its REST API. The query
// text is embedded through the configured ai.Embedder before searching.
type Pinecone struct {
	host     string
	apiKey   string
	embedder ai.Embedder

	httpClient *http.Client
}

// PineconeParams contains configuration for creating a Pinecone index
// adapter. Host is the index-specific endpoint from the Pinecone console.
type PineconeParams struct {
	Host     string
	APIKey   string
	Embedder ai.Embedder
}

// NewPinecone creates a Pinecone-backed index adapter.
func NewPinecone(params PineconeParams) *Pinecone {
	host := strings.TrimSuffix(params.Host, "/")
	if host != "" && !strings.HasPrefix(host, "http") {
		host = "https://" + host
	}

	return &Pinecone{
		host:     host,
		apiKey:   params.APIKey,
		embedder: params.Embedder,

		httpClient: &http.Client{},
	}
}

func (p *Pinecone) Name() string {
	return BackendPinecone
}

type pineconeQuery struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type pineconeResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

// Search embeds the query and runs a similarity lookup against the index.
// Scores are cosine similarities as reported by Pinecone.
func (p *Pinecone) Search(ctx context.Context, query string, topK int) ([]Document, error) {
	if p.host == "" || p.apiKey == "" {
		return nil, fmt.Errorf("pinecone index not configured")
	}
	if p.embedder == nil {
		return nil, fmt.Errorf("pinecone index requires an embedder")
	}

	embedding, err := p.embedder.GenerateEmbedding(ctx, []byte(query))
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	payload, err := json.Marshal(pineconeQuery{
		Vector:          embedding,
		TopK:            topK,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/query", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Api-Key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pinecone query failed: status %d", resp.StatusCode)
	}

	var out pineconeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse pinecone response: %w", err)
	}

	docs := make([]Document, 0, len(out.Matches))
	for _, m := range out.Matches {
		docs = append(docs, Document{
			ID:       m.ID,
			Score:    m.Score,
			Text:     metaString(m.Metadata, "text"),
			Metadata: metaFields(m.Metadata),
		})
	}
	return docs, nil
}

func metaString(meta map[string]any, key string) string {
	if s, ok := meta[key].(string); ok {
		return s
	}
	return ""
}

func metaFields(meta map[string]any) Metadata {
	out := Metadata{
		Source:  metaString(meta, "source"),
		Title:   metaString(meta, "title"),
		Section: metaString(meta, "section"),
	}
	if page, ok := meta["page"].(float64); ok {
		out.Page = int(page)
	}
	return out
}
