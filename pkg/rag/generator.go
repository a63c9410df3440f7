package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ntria/backend/pkg/ai"
	"github.com/ntria/backend/pkg/calc"
	"github.com/ntria/backend/pkg/logger"
)

const (
	// maxGraphExcerpts caps the graph hits rendered into the prompt.
	maxGraphExcerpts = 5
	// maxVectorExcerpts caps the passages rendered into the prompt.
	maxVectorExcerpts = 6
	// maxPassageChars truncates each passage. Wide enough that tax-band
	// tables survive intact.
	maxPassageChars = 1500
	// maxHistoryTurns caps how much session history enters the prompt.
	maxHistoryTurns = 10

	// noContextAnswer is returned when no evidence of any kind was found.
	noContextAnswer = "I couldn't find relevant information to answer your question. " +
		"Please try rephrasing or ask about a different topic."
	// noContextConfidence keeps the no-evidence answer clearly below the
	// base confidence of an evidence-backed one.
	noContextConfidence = 0.2
	// degradedAnswer is returned when retrieval succeeded but the whole
	// provider chain failed.
	degradedAnswer = "I found relevant documents but couldn't generate a complete answer. " +
		"Please try again in a moment."
)

var calcTag = regexp.MustCompile(`\[\[CALC:\s*(.*?)\s*\]\]`)

// Generator assembles prompts from fused context and produces the final
// answer through the provider chain.
type Generator struct {
	chain *ai.Chain
}

// NewGenerator creates a Generator backed by the given provider chain.
func NewGenerator(chain *ai.Chain) *Generator {
	return &Generator{chain: chain}
}

// Generate produces the answer for a substantive question. Greetings take
// a separate path through GenerateGreeting.
func (g *Generator) Generate(
	ctx context.Context,
	query string,
	rctx *RetrievalContext,
	history []ConversationTurn,
) GenerationResult {
	noEvidence := len(rctx.GraphResults) == 0 &&
		len(rctx.VectorResults) == 0 &&
		rctx.ExternalKnowledge == ""
	if noEvidence {
		return GenerationResult{
			Answer:     noContextAnswer,
			Sources:    []Source{},
			Confidence: noContextConfidence,
			ModelUsed:  "none",
		}
	}

	prompt := fmt.Sprintf(ai.ResponseTemplate,
		formatContext(rctx),
		formatHistory(history),
		query,
	)

	sources := extractSources(rctx)
	confidence := Confidence(rctx)

	answer, model, err := g.chain.Generate(ctx, prompt,
		ai.WithSystemPrompts(ai.SystemPrompt),
		ai.WithTemperature(0.5),
		ai.WithMaxTokens(1500),
	)
	if err != nil {
		logger.Error("Answer generation failed on every provider", "err", err)
		return GenerationResult{
			Answer:     degradedAnswer,
			Sources:    sources,
			Confidence: noContextConfidence,
			ModelUsed:  "none",
		}
	}

	return GenerationResult{
		Answer:     SubstituteCalculations(answer),
		Sources:    sources,
		Confidence: confidence,
		ModelUsed:  model,
	}
}

// GenerateGreeting produces the short, citation-free reply for greetings.
// Greetings carry confidence 1.0 by policy.
func (g *Generator) GenerateGreeting(ctx context.Context, query string) GenerationResult {
	answer, model, err := g.chain.Generate(ctx,
		fmt.Sprintf(ai.GreetingTemplate, query),
		ai.WithTemperature(0.5),
		ai.WithMaxTokens(120),
	)
	if err != nil {
		answer = "Hello! I'm NTRIA, your assistant for the 2025 Nigerian Tax Reform. What would you like to know?"
		model = "none"
	}

	return GenerationResult{
		Answer:     answer,
		Sources:    []Source{},
		Confidence: 1.0,
		ModelUsed:  model,
	}
}

// SubstituteCalculations replaces every [[CALC: expr]] directive with the
// evaluated, thousands-separated result. A malformed expression yields an
// inline error marker for that tag only.
func SubstituteCalculations(answer string) string {
	return calcTag.ReplaceAllStringFunc(answer, func(tag string) string {
		expr := calcTag.FindStringSubmatch(tag)[1]

		result, err := calc.Eval(expr)
		if err != nil {
			return fmt.Sprintf("Error in calculation: %v", err)
		}
		return calc.Format(result)
	})
}

// Confidence scores answer reliability from the retrieval outcome: base
// 0.5, +0.2 when the graph contributed, plus the mean vector score capped
// at +0.3, clamped to [0, 1].
func Confidence(rctx *RetrievalContext) float64 {
	confidence := 0.5

	if len(rctx.GraphResults) > 0 {
		confidence += 0.2
	}

	if len(rctx.VectorResults) > 0 {
		sum := 0.0
		for _, d := range rctx.VectorResults {
			sum += d.Score
		}
		avg := sum / float64(len(rctx.VectorResults))
		if avg > 0.3 {
			avg = 0.3
		}
		confidence += avg
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

// extractSources collects citations from the vector results, deduplicated
// by (source, page) in first-seen order.
func extractSources(rctx *RetrievalContext) []Source {
	sources := []Source{}
	seen := map[string]bool{}

	for _, d := range rctx.VectorResults {
		if d.Metadata.Source == "" {
			continue
		}

		key := fmt.Sprintf("%s_%d", d.Metadata.Source, d.Metadata.Page)
		if seen[key] {
			continue
		}
		seen[key] = true

		sources = append(sources, Source{
			Title:   d.Metadata.Source,
			Page:    d.Metadata.Page,
			Section: d.Metadata.Section,
			Type:    "document",
		})
	}

	return sources
}

// formatContext renders the retrieval context for the prompt: graph hits
// first, then document passages with citation headers, then any external
// knowledge from the fallback search.
func formatContext(rctx *RetrievalContext) string {
	var parts []string

	if len(rctx.GraphResults) > 0 {
		parts = append(parts, "=== Graph Knowledge ===")
		for i, hit := range rctx.GraphResults {
			if i >= maxGraphExcerpts {
				break
			}
			parts = append(parts, renderGraphHit(hit))
		}
	}

	if len(rctx.VectorResults) > 0 {
		parts = append(parts, "=== Detailed Tax Documents ===")
		for i, d := range rctx.VectorResults {
			if i >= maxVectorExcerpts {
				break
			}
			if d.Text == "" {
				continue
			}

			text := d.Text
			if len(text) > maxPassageChars {
				text = text[:maxPassageChars]
			}

			source := d.Metadata.Source
			if source == "" {
				source = "Unknown Document"
			}
			parts = append(parts, fmt.Sprintf("[Document %d: %s (Page %d)]\n%s", i+1, source, d.Metadata.Page, text))
		}
	}

	if rctx.ExternalKnowledge != "" {
		parts = append(parts, "=== External Knowledge (Web Search) ===\n"+rctx.ExternalKnowledge)
	}

	if len(parts) == 0 {
		return "No specific tax documents found for this query."
	}
	return strings.Join(parts, "\n\n")
}

func renderGraphHit(hit GraphHit) string {
	out, err := json.MarshalIndent(hit, "", "  ")
	if err != nil {
		return ""
	}
	return string(out)
}

// formatHistory renders the last turns of the session as dialogue lines.
func formatHistory(history []ConversationTurn) string {
	if len(history) == 0 {
		return "No previous history."
	}
	return formatTurns(history, maxHistoryTurns)
}
