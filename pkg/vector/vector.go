package vector

import (
	"context"
	"fmt"

	"github.com/ntria/backend/pkg/ai"
)

// Metadata describes where a stored passage came from.
type Metadata struct {
	Source  string `json:"source"`
	Title   string `json:"title,omitempty"`
	Page    int    `json:"page,omitempty"`
	Section string `json:"section,omitempty"`
}

// Document is a single passage returned from a similarity search. Score is
// the adapter's native relevance value and is not normalized across
// backends.
type Document struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Index is a read-only similarity index over document passages.
type Index interface {
	Name() string
	Search(ctx context.Context, query string, topK int) ([]Document, error)
}

// Backend identifiers accepted by Open. The set is closed: an unknown
// value is a startup error, never a silent fallback.
const (
	BackendLocal    = "local"
	BackendPinecone = "pinecone"
	BackendPgvector = "pgvector"
)

// OpenParams configures index construction. Only the fields for the chosen
// backend need to be set.
type OpenParams struct {
	Backend string

	// local
	ChunksPath string

	// pinecone
	PineconeHost   string
	PineconeAPIKey string

	// pgvector
	DatabaseURL string

	// pinecone and pgvector embed the query before searching
	Embedder ai.Embedder
}

// Open constructs the configured index adapter. The backend is fixed for
// the lifetime of the process.
func Open(ctx context.Context, params OpenParams) (Index, error) {
	switch params.Backend {
	case BackendLocal, "":
		return OpenLocal(params.ChunksPath)
	case BackendPinecone:
		return NewPinecone(PineconeParams{
			Host:     params.PineconeHost,
			APIKey:   params.PineconeAPIKey,
			Embedder: params.Embedder,
		}), nil
	case BackendPgvector:
		return OpenPgvector(ctx, PgvectorParams{
			DatabaseURL: params.DatabaseURL,
			Embedder:    params.Embedder,
		})
	default:
		return nil, fmt.Errorf("unknown vector backend: %q", params.Backend)
	}
}
