package vector

import (
	"context"
	"fmt"

	"github.com/ntria/backend/pkg/ai"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Pgvector queries a Postgres table with a pgvector embedding column. The
// query text is embedded through the configured ai.Embedder and ranked by
// cosine distance, reported as 1-distance so higher is better.
type Pgvector struct {
	pool     *pgxpool.Pool
	embedder ai.Embedder
}

// PgvectorParams contains configuration for creating a Pgvector index
// adapter.
type PgvectorParams struct {
	DatabaseURL string
	Embedder    ai.Embedder
}

// OpenPgvector creates a connection pool against the documents table.
//
// Expected schema:
//
//	CREATE TABLE documents (
//		id TEXT PRIMARY KEY,
//		text TEXT NOT NULL,
//		source TEXT,
//		title TEXT,
//		page INTEGER,
//		section TEXT,
//		embedding VECTOR NOT NULL
//	);
func OpenPgvector(ctx context.Context, params PgvectorParams) (*Pgvector, error) {
	if params.Embedder == nil {
		return nil, fmt.Errorf("pgvector index requires an embedder")
	}

	pool, err := pgxpool.New(ctx, params.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	return &Pgvector{
		pool:     pool,
		embedder: params.Embedder,
	}, nil
}

func (p *Pgvector) Name() string {
	return BackendPgvector
}

// Close releases the underlying connection pool.
func (p *Pgvector) Close() {
	p.pool.Close()
}

// Search embeds the query and returns the topK nearest passages.
func (p *Pgvector) Search(ctx context.Context, query string, topK int) ([]Document, error) {
	embedding, err := p.embedder.GenerateEmbedding(ctx, []byte(query))
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, text,
			COALESCE(source, ''), COALESCE(title, ''),
			COALESCE(page, 0), COALESCE(section, ''),
			1 - (embedding <=> $1) AS score
		FROM documents
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("pgvector query failed: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(
			&d.ID, &d.Text,
			&d.Metadata.Source, &d.Metadata.Title,
			&d.Metadata.Page, &d.Metadata.Section,
			&d.Score,
		); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
