package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ntria/backend/pkg/logger"
)

const searchTimeout = 10 * time.Second

// WebSearcher fills knowledge gaps when both retrieval channels come back
// empty. The first provider with a configured key is used; every failure
// is swallowed and reported as no result, never an error.
type WebSearcher struct {
	serperKey    string
	tavilyKey    string
	googleCSEKey string
	googleCSEID  string

	serperURL string
	tavilyURL string
	googleURL string

	httpClient *http.Client
}

// WebSearcherParams contains the provider credentials. All fields are
// optional; with none set, Search always returns empty.
type WebSearcherParams struct {
	SerperKey    string
	TavilyKey    string
	GoogleCSEKey string
	GoogleCSEID  string
}

// NewWebSearcher creates a fallback web searcher.
func NewWebSearcher(params WebSearcherParams) *WebSearcher {
	return &WebSearcher{
		serperKey:    params.SerperKey,
		tavilyKey:    params.TavilyKey,
		googleCSEKey: params.GoogleCSEKey,
		googleCSEID:  params.GoogleCSEID,

		serperURL: "https://google.serper.dev/search",
		tavilyURL: "https://api.tavily.com/search",
		googleURL: "https://www.googleapis.com/customsearch/v1",

		httpClient: &http.Client{Timeout: searchTimeout},
	}
}

// Configured reports whether any provider key is set.
func (w *WebSearcher) Configured() bool {
	return w.serperKey != "" || w.tavilyKey != "" || (w.googleCSEKey != "" && w.googleCSEID != "")
}

// Search queries the first configured provider and returns a short text
// snippet, or "" when nothing was found or no provider is configured.
func (w *WebSearcher) Search(ctx context.Context, query string) string {
	switch {
	case w.serperKey != "":
		return w.searchSerper(ctx, query)
	case w.tavilyKey != "":
		return w.searchTavily(ctx, query)
	case w.googleCSEKey != "" && w.googleCSEID != "":
		return w.searchGoogle(ctx, query)
	default:
		return ""
	}
}

func (w *WebSearcher) searchSerper(ctx context.Context, query string) string {
	payload, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.serperURL, bytes.NewReader(payload))
	if err != nil {
		return ""
	}
	req.Header.Set("X-API-KEY", w.serperKey)
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Organic []struct {
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if !w.do(req, &out) {
		return ""
	}

	var snippets []string
	for i, item := range out.Organic {
		if i >= 3 {
			break
		}
		if item.Snippet != "" {
			snippets = append(snippets, item.Snippet)
		}
	}
	return strings.Join(snippets, "\n")
}

func (w *WebSearcher) searchTavily(ctx context.Context, query string) string {
	payload, err := json.Marshal(map[string]any{
		"api_key":        w.tavilyKey,
		"query":          query,
		"search_depth":   "advanced",
		"include_answer": true,
	})
	if err != nil {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.tavilyURL, bytes.NewReader(payload))
	if err != nil {
		return ""
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Answer  string `json:"answer"`
		Results []struct {
			Content string `json:"content"`
		} `json:"results"`
	}
	if !w.do(req, &out) {
		return ""
	}

	if out.Answer != "" {
		return out.Answer
	}
	if len(out.Results) > 0 {
		return out.Results[0].Content
	}
	return ""
}

func (w *WebSearcher) searchGoogle(ctx context.Context, query string) string {
	endpoint := fmt.Sprintf(
		"%s?key=%s&cx=%s&q=%s",
		w.googleURL, url.QueryEscape(w.googleCSEKey), url.QueryEscape(w.googleCSEID), url.QueryEscape(query),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ""
	}

	var out struct {
		Items []struct {
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if !w.do(req, &out) {
		return ""
	}

	if len(out.Items) > 0 {
		return out.Items[0].Snippet
	}
	return ""
}

func (w *WebSearcher) do(req *http.Request, out any) bool {
	resp, err := w.httpClient.Do(req)
	if err != nil {
		logger.Warn("Fallback web search failed", "err", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("Fallback web search failed", "status", resp.StatusCode)
		return false
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		logger.Warn("Fallback web search returned malformed payload", "err", err)
		return false
	}
	return true
}
