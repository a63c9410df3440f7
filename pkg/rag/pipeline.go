package rag

import (
	"context"
	"sync"
	"time"

	"github.com/ntria/backend/pkg/ai"
	"github.com/ntria/backend/pkg/graph"
	"github.com/ntria/backend/pkg/logger"
	"github.com/ntria/backend/pkg/vector"
)

// warmupDelay postpones the background graph load slightly so process
// startup (port binding, health checks) is not slowed by disk IO.
const warmupDelay = 100 * time.Millisecond

// Pipeline orchestrates one full question-answering pass: analyze,
// retrieve, fuse, fall back to web search on a knowledge gap, generate,
// and optionally verify. Every component failure is contained; Answer
// always returns a well-formed envelope.
//
// A Pipeline should be created using NewPipeline and is safe for
// concurrent use.
type Pipeline struct {
	analyzer  *Analyzer
	generator *Generator
	verifier  *Verifier
	searcher  *WebSearcher

	index vector.Index
	topK  int

	graphPath string
	graphOnce sync.Once
	graph     *graph.Store
}

// PipelineParams contains the dependencies for creating a Pipeline.
type PipelineParams struct {
	Chain     *ai.Chain
	GraphPath string
	Index     vector.Index
	Searcher  *WebSearcher

	// TopK bounds the vector search and the fused evidence list.
	// Defaults to DefaultTopK.
	TopK int
}

// NewPipeline wires the pipeline components around one provider chain.
// The knowledge graph is loaded lazily; call Warmup to start loading it in
// the background.
func NewPipeline(params PipelineParams) *Pipeline {
	topK := params.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	searcher := params.Searcher
	if searcher == nil {
		searcher = NewWebSearcher(WebSearcherParams{})
	}

	return &Pipeline{
		analyzer:  NewAnalyzer(params.Chain),
		generator: NewGenerator(params.Chain),
		verifier:  NewVerifier(params.Chain),
		searcher:  searcher,

		index: params.Index,
		topK:  topK,

		graphPath: params.GraphPath,
	}
}

// Warmup loads the knowledge graph on a background goroutine after a
// short delay. A request arriving before the load finishes triggers or
// waits for the same single load.
func (p *Pipeline) Warmup() {
	go func() {
		time.Sleep(warmupDelay)
		p.ensureGraph()
	}()
}

// ensureGraph loads the graph exactly once, however many goroutines race
// here. Load failures log and leave an empty graph so requests proceed
// vector-only.
func (p *Pipeline) ensureGraph() *graph.Store {
	p.graphOnce.Do(func() {
		store, err := graph.Load(p.graphPath)
		if err != nil {
			logger.Error("Failed to load knowledge graph, continuing without it", "path", p.graphPath, "err", err)
			store, _ = graph.Load("")
		}
		p.graph = store

		stats := store.Stats()
		logger.Info("Knowledge graph loaded",
			"nodes", stats.TotalNodes,
			"relationships", stats.TotalRelationships,
		)
	})
	return p.graph
}

// Graph exposes the knowledge graph for the entity and status endpoints,
// loading it if needed.
func (p *Pipeline) Graph() *graph.Store {
	return p.ensureGraph()
}

// Providers returns the generation chain's provider names in order.
func (p *Pipeline) Providers() []string {
	return p.analyzer.chain.Providers()
}

// IndexName returns the configured vector backend name, or "" when no
// index is configured.
func (p *Pipeline) IndexName() string {
	if p.index == nil {
		return ""
	}
	return p.index.Name()
}

// SearchConfigured reports whether a fallback web-search provider has
// credentials.
func (p *Pipeline) SearchConfigured() bool {
	return p.searcher.Configured()
}

// Answer runs the full pipeline for one query. When verify is set, the
// generated answer is additionally fact-checked against the retrieved
// context.
func (p *Pipeline) Answer(
	ctx context.Context,
	query string,
	history []ConversationTurn,
	verify bool,
) *Response {
	analysis := p.analyzer.Analyze(ctx, query, history)

	// Greetings skip retrieval, fallback search and citations entirely.
	if analysis.IsGreeting {
		result := p.generator.GenerateGreeting(ctx, query)
		return &Response{
			Answer:     result.Answer,
			Sources:    result.Sources,
			Confidence: result.Confidence,
			ModelUsed:  result.ModelUsed,
		}
	}

	retriever := NewRetriever(p.ensureGraph(), p.index)
	graphResults, vectorResults := retriever.Retrieve(ctx, analysis.StandaloneQuery, analysis.Entities, p.topK)

	rctx := &RetrievalContext{
		Query:           query,
		StandaloneQuery: analysis.StandaloneQuery,
		GraphResults:    graphResults,
		VectorResults:   vectorResults,
	}

	// Knowledge gap: both channels empty. One fallback search attempt,
	// with the original query.
	externalSearch := false
	if len(graphResults) == 0 && len(vectorResults) == 0 {
		logger.Info("No local context found, attempting external search", "query", query)
		externalSearch = true
		rctx.ExternalKnowledge = p.searcher.Search(ctx, query)
	}

	rctx.FusedResults = Fuse(graphResults, vectorResults, p.topK)

	result := p.generator.Generate(ctx, query, rctx, history)

	response := &Response{
		Answer:     result.Answer,
		Sources:    result.Sources,
		Confidence: result.Confidence,
		ModelUsed:  result.ModelUsed,
		RetrievalStats: RetrievalStats{
			GraphResults:   len(graphResults),
			VectorResults:  len(vectorResults),
			FusedResults:   len(rctx.FusedResults),
			ExternalSearch: externalSearch,
		},
	}

	if verify {
		verification := p.verifier.Verify(ctx, result.Answer, query, rctx)
		response.Verification = &verification
	}

	return response
}
