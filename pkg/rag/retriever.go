package rag

import (
	"context"

	"github.com/ntria/backend/pkg/graph"
	"github.com/ntria/backend/pkg/logger"
	"github.com/ntria/backend/pkg/vector"
)

const (
	// DefaultTopK bounds both the vector search and the fused list.
	DefaultTopK = 5
	// DefaultMaxDepth bounds the graph neighborhood traversal.
	DefaultMaxDepth = 2
)

// Retriever runs the graph and vector channels for one query. Either
// channel failing yields an empty sequence for that channel, never an
// error, so generation can proceed on whatever succeeded.
type Retriever struct {
	graph    *graph.Store
	index    vector.Index
	maxDepth int
}

// NewRetriever creates a Retriever over the given stores. Either store
// may be nil, which disables that channel.
func NewRetriever(g *graph.Store, index vector.Index) *Retriever {
	return &Retriever{
		graph:    g,
		index:    index,
		maxDepth: DefaultMaxDepth,
	}
}

// Retrieve runs both channels and returns their raw results. Entities
// drive the graph channel; the standalone query drives the vector channel.
func (r *Retriever) Retrieve(
	ctx context.Context,
	standaloneQuery string,
	entities []Entity,
	topK int,
) ([]GraphHit, []vector.Document) {
	var graphResults []GraphHit
	for _, entity := range entities {
		graphResults = append(graphResults, r.searchByEntity(entity.Name)...)
	}

	var vectorResults []vector.Document
	if r.index != nil {
		docs, err := r.index.Search(ctx, standaloneQuery, topK)
		if err != nil {
			logger.Warn("Vector search failed", "index", r.index.Name(), "err", err)
		} else {
			vectorResults = docs
		}
	}

	return graphResults, vectorResults
}

// searchByEntity finds a seed node matching the entity name and walks its
// neighborhood. No match yields an empty result, not an error.
func (r *Retriever) searchByEntity(name string) []GraphHit {
	if r.graph == nil || name == "" {
		return nil
	}

	nodes := r.graph.Search(name)
	if len(nodes) == 0 {
		return nil
	}

	seed := nodes[0]
	hits := []GraphHit{{Node: seed}}

	for _, related := range r.graph.RelatedEntities(seed.ID, r.maxDepth) {
		rel := related.Relationship
		hits = append(hits, GraphHit{
			Node:         related.Node,
			Relationship: &rel,
			Depth:        related.Depth,
		})
	}
	return hits
}
