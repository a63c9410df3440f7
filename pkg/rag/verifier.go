package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/ntria/backend/pkg/ai"
	"github.com/ntria/backend/pkg/logger"
)

// accurateThreshold is the score at and above which an answer counts as
// accurate.
const accurateThreshold = 0.7

// Verifier runs the second-pass fact check against the retrieved context.
// It never fails the parent request; every failure mode degrades to a
// low-confidence result.
type Verifier struct {
	chain *ai.Chain
}

// NewVerifier creates a Verifier backed by the given provider chain.
func NewVerifier(chain *ai.Chain) *Verifier {
	return &Verifier{chain: chain}
}

// Verify scores the answer against the context. Accurate is recomputed
// from the score so the two can never disagree, whatever the model says.
func (v *Verifier) Verify(ctx context.Context, answer, query string, rctx *RetrievalContext) VerificationResult {
	prompt := fmt.Sprintf(ai.VerifyTemplate, formatContext(rctx), query, answer)

	var result VerificationResult
	err := v.chain.GenerateWithFormat(
		ctx,
		"verification",
		"Accuracy judgment for a generated tax answer",
		prompt,
		&result,
		ai.WithSystemPrompts(ai.VerifySystemPrompt),
		ai.WithTemperature(0.1),
	)
	if err != nil {
		if errors.Is(err, ai.ErrMalformed) {
			logger.Warn("Verification response could not be parsed", "err", err)
			return VerificationResult{
				Score:    0.5,
				Accurate: false,
				Reason:   "Verification response could not be parsed",
				Issues:   []string{"Verification format error"},
			}
		}

		logger.Warn("Verification unavailable", "err", err)
		return VerificationResult{
			Score:    0,
			Accurate: false,
			Reason:   fmt.Sprintf("Verification unavailable: %v", err),
			Issues:   []string{"Verification service unavailable"},
		}
	}

	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > 1 {
		result.Score = 1
	}
	result.Accurate = result.Score >= accurateThreshold
	if result.Issues == nil {
		result.Issues = []string{}
	}

	return result
}
