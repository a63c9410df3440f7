package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/ntria/backend/pkg/ai"
	"github.com/ntria/backend/pkg/vector"
)

func verifyContext() *RetrievalContext {
	return &RetrievalContext{
		VectorResults: []vector.Document{
			{Score: 0.9, Text: "VAT is 7.5%", Metadata: vector.Metadata{Source: "Act", Page: 1}},
		},
	}
}

func TestVerify_AccurateRecomputedFromScore(t *testing.T) {
	tests := []struct {
		name         string
		payload      string
		wantScore    float64
		wantAccurate bool
	}{
		{
			name:         "at threshold",
			payload:      `{"score":0.7,"accurate":false,"confidence_reason":"ok","issues":[]}`,
			wantScore:    0.7,
			wantAccurate: true,
		},
		{
			name:         "below threshold",
			payload:      `{"score":0.69,"accurate":true,"confidence_reason":"ok","issues":[]}`,
			wantScore:    0.69,
			wantAccurate: false,
		},
		{
			name:         "score above one clamps",
			payload:      `{"score":1.4,"accurate":false,"confidence_reason":"ok","issues":[]}`,
			wantScore:    1.0,
			wantAccurate: true,
		},
		{
			name:         "negative score clamps",
			payload:      `{"score":-0.2,"accurate":true,"confidence_reason":"ok","issues":[]}`,
			wantScore:    0,
			wantAccurate: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			model := &stubModel{structured: map[string]string{"verification": tc.payload}}
			verifier := NewVerifier(ai.NewChain(model))

			result := verifier.Verify(context.Background(), "The VAT rate is 7.5%.", "what is VAT", verifyContext())

			if result.Score != tc.wantScore {
				t.Fatalf("Score = %v, want %v", result.Score, tc.wantScore)
			}
			if result.Accurate != tc.wantAccurate {
				t.Fatalf("Accurate = %v, want %v at score %v", result.Accurate, tc.wantAccurate, result.Score)
			}
		})
	}
}

func TestVerify_NilIssuesNormalized(t *testing.T) {
	model := &stubModel{structured: map[string]string{
		"verification": `{"score":0.8,"accurate":true,"confidence_reason":"ok"}`,
	}}
	verifier := NewVerifier(ai.NewChain(model))

	result := verifier.Verify(context.Background(), "answer", "query", verifyContext())

	if result.Issues == nil {
		t.Fatalf("Issues = nil, want empty slice")
	}
	if len(result.Issues) != 0 {
		t.Fatalf("Issues = %+v, want empty", result.Issues)
	}
}

func TestVerify_MalformedResponse(t *testing.T) {
	model := &stubModel{structuredErr: ai.ErrMalformed}
	verifier := NewVerifier(ai.NewChain(model))

	result := verifier.Verify(context.Background(), "answer", "query", verifyContext())

	if result.Score != 0.5 {
		t.Fatalf("Score = %v, want 0.5 for an unparseable verdict", result.Score)
	}
	if result.Accurate {
		t.Fatalf("Accurate = true, want false")
	}
	if result.Reason != "Verification response could not be parsed" {
		t.Fatalf("Reason = %q", result.Reason)
	}
	if len(result.Issues) != 1 || result.Issues[0] != "Verification format error" {
		t.Fatalf("Issues = %+v", result.Issues)
	}
}

func TestVerify_ServiceUnavailable(t *testing.T) {
	model := &stubModel{structuredErr: ai.ErrRateLimited}
	verifier := NewVerifier(ai.NewChain(model))

	result := verifier.Verify(context.Background(), "answer", "query", verifyContext())

	if result.Score != 0 {
		t.Fatalf("Score = %v, want 0 when verification is unavailable", result.Score)
	}
	if result.Accurate {
		t.Fatalf("Accurate = true, want false")
	}
	if !strings.HasPrefix(result.Reason, "Verification unavailable:") {
		t.Fatalf("Reason = %q", result.Reason)
	}
	if len(result.Issues) != 1 || result.Issues[0] != "Verification service unavailable" {
		t.Fatalf("Issues = %+v", result.Issues)
	}
}
