package rag

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/ntria/backend/pkg/ai"
	"github.com/ntria/backend/pkg/vector"
)

// stubModel is an in-memory ai.Provider for pipeline tests. Structured
// responses are keyed by format name so one stub can serve the analyzer
// and the verifier in the same request.
type stubModel struct {
	name string

	generateText string
	generateErr  error
	genCalls     int32

	structured    map[string]string
	structuredErr error
	formatCalls   int32
}

func (s *stubModel) Name() string {
	if s.name == "" {
		return "stub"
	}
	return s.name
}

func (s *stubModel) Generate(_ context.Context, _ string, _ ...ai.GenerateOption) (string, error) {
	atomic.AddInt32(&s.genCalls, 1)
	if s.generateErr != nil {
		return "", s.generateErr
	}
	return s.generateText, nil
}

func (s *stubModel) GenerateWithFormat(_ context.Context, name, _, _ string, out any, _ ...ai.GenerateOption) error {
	atomic.AddInt32(&s.formatCalls, 1)
	if s.structuredErr != nil {
		return s.structuredErr
	}
	payload, ok := s.structured[name]
	if !ok {
		return ai.ErrMalformed
	}
	return ai.UnmarshalFlexible(payload, out)
}

// stubIndex is an in-memory vector.Index returning fixed documents.
type stubIndex struct {
	docs []vector.Document
	err  error
}

func (s *stubIndex) Name() string { return "stub" }

func (s *stubIndex) Search(_ context.Context, _ string, _ int) ([]vector.Document, error) {
	return s.docs, s.err
}

func writeGraphFixture(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "knowledge_graph.json")
	data := `{
	  "nodes": {
	    "vat": {"type": "Tax", "properties": {"name": "Value Added Tax", "rate": "7.5%"}},
	    "firs": {"type": "Agency", "properties": {"name": "Federal Inland Revenue Service"}}
	  },
	  "relationships": [
	    {"source": "firs", "target": "vat", "type": "ADMINISTERS", "properties": {}}
	  ]
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("writing graph fixture: %v", err)
	}
	return path
}

func TestPipelineAnswer_Greeting(t *testing.T) {
	model := &stubModel{generateText: "Hello! How can I help with the tax reform?"}
	pipeline := NewPipeline(PipelineParams{
		Chain:     ai.NewChain(model),
		GraphPath: filepath.Join(t.TempDir(), "absent.json"),
		Index:     &stubIndex{},
	})

	response := pipeline.Answer(context.Background(), "hello", nil, false)

	if response.Confidence != 1.0 {
		t.Fatalf("Confidence = %v, want 1.0 for greetings", response.Confidence)
	}
	if len(response.Sources) != 0 {
		t.Fatalf("Sources = %+v, want none for greetings", response.Sources)
	}
	if response.Answer != "Hello! How can I help with the tax reform?" {
		t.Fatalf("Answer = %q", response.Answer)
	}
	if response.RetrievalStats.ExternalSearch {
		t.Fatalf("greeting must never trigger the fallback search")
	}
	if response.RetrievalStats.GraphResults != 0 || response.RetrievalStats.VectorResults != 0 {
		t.Fatalf("greeting must skip retrieval: %+v", response.RetrievalStats)
	}
}

func TestPipelineAnswer_KnowledgeGapTriggersOneSearch(t *testing.T) {
	var searchCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&searchCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"organic": []}`))
	}))
	defer server.Close()

	searcher := NewWebSearcher(WebSearcherParams{SerperKey: "test-key"})
	searcher.serperURL = server.URL

	model := &stubModel{structuredErr: ai.ErrRateLimited, generateErr: ai.ErrRateLimited}
	pipeline := NewPipeline(PipelineParams{
		Chain:     ai.NewChain(model),
		GraphPath: filepath.Join(t.TempDir(), "absent.json"),
		Index:     &stubIndex{},
		Searcher:  searcher,
	})

	response := pipeline.Answer(context.Background(), "tell me about maritime shipping levies", nil, false)

	if got := atomic.LoadInt32(&searchCalls); got != 1 {
		t.Fatalf("fallback search called %d times, want exactly 1", got)
	}
	if !response.RetrievalStats.ExternalSearch {
		t.Fatalf("ExternalSearch = false, want true on a knowledge gap")
	}
	if response.Answer != noContextAnswer {
		t.Fatalf("Answer = %q, want the no-context answer", response.Answer)
	}
	if response.Confidence > 0.3 {
		t.Fatalf("Confidence = %v, want <= 0.3 without evidence", response.Confidence)
	}
	if response.ModelUsed != "none" {
		t.Fatalf("ModelUsed = %q, want none", response.ModelUsed)
	}
}

func TestPipelineAnswer_EndToEnd(t *testing.T) {
	model := &stubModel{
		name:         "groq",
		generateText: "The VAT rate under the reform is 7.5%.",
		structured: map[string]string{
			"query_analysis": `{"standalone_query":"current VAT rate Nigeria","entities":[{"name":"Value Added Tax","type":"Tax"}]}`,
		},
	}
	index := &stubIndex{docs: []vector.Document{
		{
			ID:       "c1",
			Score:    0.92,
			Text:     "VAT is 7.5%",
			Metadata: vector.Metadata{Source: "Act", Page: 1},
		},
	}}

	pipeline := NewPipeline(PipelineParams{
		Chain:     ai.NewChain(model),
		GraphPath: writeGraphFixture(t),
		Index:     index,
	})

	response := pipeline.Answer(context.Background(), "what is the current rate of VAT", nil, false)

	if response.Answer != "The VAT rate under the reform is 7.5%." {
		t.Fatalf("Answer = %q", response.Answer)
	}
	if len(response.Sources) != 1 {
		t.Fatalf("Sources = %+v, want exactly one", response.Sources)
	}
	if response.Sources[0].Title != "Act" || response.Sources[0].Page != 1 {
		t.Fatalf("Sources[0] = %+v, want Act page 1", response.Sources[0])
	}
	if response.ModelUsed != "groq" {
		t.Fatalf("ModelUsed = %q, want groq", response.ModelUsed)
	}

	// Graph contributed and the vector average caps at +0.3.
	if response.Confidence != 1.0 {
		t.Fatalf("Confidence = %v, want 1.0", response.Confidence)
	}

	stats := response.RetrievalStats
	if stats.GraphResults == 0 {
		t.Fatalf("GraphResults = 0, want entity hits from the graph")
	}
	if stats.VectorResults != 1 {
		t.Fatalf("VectorResults = %d, want 1", stats.VectorResults)
	}
	if stats.FusedResults == 0 {
		t.Fatalf("FusedResults = 0, want fused evidence")
	}
	if stats.ExternalSearch {
		t.Fatalf("ExternalSearch = true, want false when retrieval found context")
	}
}

func TestPipelineAnswer_Verified(t *testing.T) {
	model := &stubModel{
		generateText: "The VAT rate is 7.5%.",
		structured: map[string]string{
			"query_analysis": `{"standalone_query":"VAT rate","entities":[]}`,
			"verification":   `{"score":0.9,"accurate":false,"confidence_reason":"matches the cited passage","issues":[]}`,
		},
	}
	index := &stubIndex{docs: []vector.Document{
		{Score: 0.9, Text: "VAT is 7.5%", Metadata: vector.Metadata{Source: "Act", Page: 1}},
	}}

	pipeline := NewPipeline(PipelineParams{
		Chain:     ai.NewChain(model),
		GraphPath: filepath.Join(t.TempDir(), "absent.json"),
		Index:     index,
	})

	response := pipeline.Answer(context.Background(), "what is the current rate of VAT", nil, true)

	if response.Verification == nil {
		t.Fatalf("Verification = nil, want result when verify is requested")
	}
	if response.Verification.Score != 0.9 {
		t.Fatalf("Verification.Score = %v, want 0.9", response.Verification.Score)
	}
	// Accurate is recomputed from the score, whatever the model claimed.
	if !response.Verification.Accurate {
		t.Fatalf("Verification.Accurate = false, want true at score 0.9")
	}
}

func TestPipelineAnswer_VectorErrorDegrades(t *testing.T) {
	model := &stubModel{
		generateText:  "answer",
		structuredErr: ai.ErrRateLimited,
		generateErr:   ai.ErrRateLimited,
	}
	pipeline := NewPipeline(PipelineParams{
		Chain:     ai.NewChain(model),
		GraphPath: filepath.Join(t.TempDir(), "absent.json"),
		Index:     &stubIndex{err: context.DeadlineExceeded},
	})

	response := pipeline.Answer(context.Background(), "does this survive an index outage", nil, false)

	if response == nil {
		t.Fatalf("Answer() = nil, want a well-formed envelope")
	}
	if response.Answer != noContextAnswer {
		t.Fatalf("Answer = %q, want the no-context answer", response.Answer)
	}
}
