// Package rag implements the hybrid retrieval-augmented generation
// pipeline: query analysis, dual graph and vector retrieval, fusion,
// web-search fallback, answer generation with calculation substitution,
// and optional verification.
package rag

import (
	"github.com/ntria/backend/pkg/graph"
	"github.com/ntria/backend/pkg/vector"
)

// ConversationTurn is one prior message in the session. The pipeline never
// persists turns; the HTTP layer passes them in per request.
type ConversationTurn struct {
	Role    string `json:"role" validate:"oneof=user assistant"`
	Content string `json:"content"`
}

// Entity is a tax-related mention extracted from the query.
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Analysis is the query analyzer's output.
type Analysis struct {
	StandaloneQuery string   `json:"standalone_query"`
	Entities        []Entity `json:"entities"`
	IsGreeting      bool     `json:"-"`
}

// GraphHit is one record from the graph channel: a seed node, or a node
// reached from the seed with the edge and depth that reached it.
type GraphHit struct {
	Node         *graph.Node `json:"node"`
	Relationship *graph.Edge `json:"relationship,omitempty"`
	Depth        int         `json:"depth,omitempty"`
}

// FusedResult is one entry in the merged, ranked evidence list. Source is
// "graph" or "vector"; scores are the channel-native values and are not
// comparable across sources.
type FusedResult struct {
	Source   string          `json:"source"`
	Score    float64         `json:"score"`
	Content  string          `json:"content"`
	Metadata vector.Metadata `json:"metadata"`
}

// RetrievalContext carries everything gathered for one request. Built once
// by the orchestrator, then only read.
type RetrievalContext struct {
	Query             string            `json:"query"`
	StandaloneQuery   string            `json:"search_query"`
	GraphResults      []GraphHit        `json:"graph_results"`
	VectorResults     []vector.Document `json:"vector_results"`
	FusedResults      []FusedResult     `json:"fused_results"`
	ExternalKnowledge string            `json:"external_knowledge,omitempty"`
}

// Source is one citation in the response envelope.
type Source struct {
	Title   string `json:"title"`
	Page    int    `json:"page,omitempty"`
	Section string `json:"section,omitempty"`
	Type    string `json:"type"`
}

// GenerationResult is the answer generator's output.
type GenerationResult struct {
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	Confidence float64  `json:"confidence"`
	ModelUsed  string   `json:"model_used"`
}

// VerificationResult is the structured accuracy judgment from the
// second-pass model call. Accurate always equals Score >= 0.7.
type VerificationResult struct {
	Score    float64  `json:"score"`
	Accurate bool     `json:"accurate"`
	Reason   string   `json:"confidence_reason"`
	Issues   []string `json:"issues"`
}

// RetrievalStats summarizes what each channel contributed.
type RetrievalStats struct {
	GraphResults   int  `json:"graph_results"`
	VectorResults  int  `json:"vector_results"`
	FusedResults   int  `json:"fused_results"`
	ExternalSearch bool `json:"external_search"`
}

// Response is the complete envelope returned to the HTTP layer.
type Response struct {
	Answer         string              `json:"answer"`
	Sources        []Source            `json:"sources"`
	Confidence     float64             `json:"confidence"`
	ModelUsed      string              `json:"model_used,omitempty"`
	Verification   *VerificationResult `json:"verification,omitempty"`
	RetrievalStats RetrievalStats      `json:"retrieval_stats"`
}
