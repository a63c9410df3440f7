package rag

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebSearcher_Configured(t *testing.T) {
	tests := []struct {
		name   string
		params WebSearcherParams
		want   bool
	}{
		{name: "no keys", params: WebSearcherParams{}, want: false},
		{name: "serper", params: WebSearcherParams{SerperKey: "k"}, want: true},
		{name: "tavily", params: WebSearcherParams{TavilyKey: "k"}, want: true},
		{name: "google complete", params: WebSearcherParams{GoogleCSEKey: "k", GoogleCSEID: "cx"}, want: true},
		{name: "google key without engine id", params: WebSearcherParams{GoogleCSEKey: "k"}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NewWebSearcher(tc.params).Configured(); got != tc.want {
				t.Fatalf("Configured() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestWebSearcher_NoProviderReturnsEmpty(t *testing.T) {
	searcher := NewWebSearcher(WebSearcherParams{})
	if got := searcher.Search(context.Background(), "vat rate"); got != "" {
		t.Fatalf("Search() = %q, want empty without providers", got)
	}
}

func TestWebSearcher_Serper(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "serper-key" {
			t.Errorf("X-API-KEY = %q", r.Header.Get("X-API-KEY"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"organic": [
			{"snippet": "first"},
			{"snippet": "second"},
			{"snippet": "third"},
			{"snippet": "fourth"}
		]}`))
	}))
	defer server.Close()

	searcher := NewWebSearcher(WebSearcherParams{SerperKey: "serper-key"})
	searcher.serperURL = server.URL

	got := searcher.Search(context.Background(), "vat rate")
	want := "first\nsecond\nthird"
	if got != want {
		t.Fatalf("Search() = %q, want first three snippets", got)
	}
}

func TestWebSearcher_TavilyPrefersAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer": "VAT is 7.5%.", "results": [{"content": "ignored"}]}`))
	}))
	defer server.Close()

	searcher := NewWebSearcher(WebSearcherParams{TavilyKey: "tavily-key"})
	searcher.tavilyURL = server.URL

	if got := searcher.Search(context.Background(), "vat rate"); got != "VAT is 7.5%." {
		t.Fatalf("Search() = %q, want the direct answer", got)
	}
}

func TestWebSearcher_TavilyFallsBackToResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer": "", "results": [{"content": "first result"}]}`))
	}))
	defer server.Close()

	searcher := NewWebSearcher(WebSearcherParams{TavilyKey: "tavily-key"})
	searcher.tavilyURL = server.URL

	if got := searcher.Search(context.Background(), "vat rate"); got != "first result" {
		t.Fatalf("Search() = %q, want the first result content", got)
	}
}

func TestWebSearcher_Google(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "g-key" || q.Get("cx") != "engine-id" || q.Get("q") != "vat rate" {
			t.Errorf("query params = %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items": [{"snippet": "google snippet"}]}`))
	}))
	defer server.Close()

	searcher := NewWebSearcher(WebSearcherParams{GoogleCSEKey: "g-key", GoogleCSEID: "engine-id"})
	searcher.googleURL = server.URL

	if got := searcher.Search(context.Background(), "vat rate"); got != "google snippet" {
		t.Fatalf("Search() = %q, want the first snippet", got)
	}
}

func TestWebSearcher_ProviderPriority(t *testing.T) {
	serper := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"organic": [{"snippet": "from serper"}]}`))
	}))
	defer serper.Close()
	tavily := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("tavily should not be called when serper is configured")
	}))
	defer tavily.Close()

	searcher := NewWebSearcher(WebSearcherParams{SerperKey: "k1", TavilyKey: "k2"})
	searcher.serperURL = serper.URL
	searcher.tavilyURL = tavily.URL

	if got := searcher.Search(context.Background(), "vat rate"); got != "from serper" {
		t.Fatalf("Search() = %q, want serper to win", got)
	}
}

func TestWebSearcher_FailureSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	searcher := NewWebSearcher(WebSearcherParams{SerperKey: "k"})
	searcher.serperURL = server.URL

	if got := searcher.Search(context.Background(), "vat rate"); got != "" {
		t.Fatalf("Search() = %q, want empty on provider failure", got)
	}
}
