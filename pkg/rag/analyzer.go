package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/ntria/backend/pkg/ai"
	"github.com/ntria/backend/pkg/logger"
)

// greetingVocab is the fixed vocabulary used for greeting detection. A
// query is a greeting only when it is at most three words and one of them
// appears here.
var greetingVocab = map[string]bool{
	"hi":        true,
	"hello":     true,
	"hey":       true,
	"yo":        true,
	"good":      true,
	"morning":   true,
	"afternoon": true,
	"evening":   true,
	"greetings": true,
	"howdy":     true,
}

// Analyzer classifies queries and rewrites follow-ups into standalone
// search queries with extracted entities, using a single model call for
// both to keep request counts down.
type Analyzer struct {
	chain *ai.Chain
}

// NewAnalyzer creates an Analyzer backed by the given provider chain.
func NewAnalyzer(chain *ai.Chain) *Analyzer {
	return &Analyzer{chain: chain}
}

// IsGreeting reports whether the query is a short conversational greeting
// rather than a substantive question.
func IsGreeting(query string) bool {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 || len(words) > 3 {
		return false
	}

	for _, w := range words {
		if greetingVocab[strings.Trim(w, ".,!?")] {
			return true
		}
	}
	return false
}

// Analyze produces the standalone search query and entity list for a user
// query. Short queries with no history skip the model call entirely; any
// model failure degrades to the original query with no entities.
func (a *Analyzer) Analyze(ctx context.Context, query string, history []ConversationTurn) Analysis {
	if IsGreeting(query) {
		return Analysis{StandaloneQuery: query, Entities: []Entity{}, IsGreeting: true}
	}

	// Skip refinement for very short standalone queries to save quota.
	if len(strings.Fields(strings.TrimSpace(query))) <= 3 && len(history) == 0 {
		return Analysis{StandaloneQuery: query, Entities: []Entity{}}
	}

	prompt := fmt.Sprintf(ai.AnalyzeTemplate, formatTurns(history, 3), query)

	var result Analysis
	err := a.chain.GenerateWithFormat(
		ctx,
		"query_analysis",
		"Standalone search query and extracted tax entities",
		prompt,
		&result,
		ai.WithTemperature(0.1),
	)
	if err != nil || result.StandaloneQuery == "" {
		if err != nil {
			logger.Warn("Query analysis failed, using raw query", "err", err)
		}
		return Analysis{StandaloneQuery: query, Entities: []Entity{}}
	}

	if result.Entities == nil {
		result.Entities = []Entity{}
	}
	return result
}

// formatTurns renders the last n history turns as "Role: content" lines.
func formatTurns(history []ConversationTurn, n int) string {
	if len(history) > n {
		history = history[len(history)-n:]
	}

	var b strings.Builder
	for _, turn := range history {
		role := "Assistant"
		if turn.Role == "user" {
			role = "User"
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	return b.String()
}
