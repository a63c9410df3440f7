package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ntria/backend/pkg/logger"
)

// DefaultTimeout bounds a single provider call when no explicit timeout is
// configured. Timed-out calls are not retried; the chain falls through to
// the next provider.
const DefaultTimeout = 25 * time.Second

// Chain tries a prioritized list of providers until one returns a
// completion. Fallback is an explicit branch on the returned error, never
// an automatic retry: a provider gets exactly one attempt per request.
type Chain struct {
	providers []Provider
}

// NewChain creates a provider chain. Providers are tried in the given
// order; unconfigured providers are skipped.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Providers returns the names of the configured providers in chain order.
func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

func callTimeout(opts ...GenerateOption) time.Duration {
	options := ApplyOptions(GenerateOptions{Timeout: DefaultTimeout}, opts...)
	if options.Timeout <= 0 {
		return DefaultTimeout
	}
	return options.Timeout
}

// Generate runs the prompt through the chain and returns the completion
// text along with the name of the provider that produced it. It returns an
// error only when every provider in the chain failed.
func (c *Chain) Generate(
	ctx context.Context,
	prompt string,
	opts ...GenerateOption,
) (string, string, error) {
	if len(c.providers) == 0 {
		return "", "", ErrNotConfigured
	}

	timeout := callTimeout(opts...)
	var errs []error

	for _, p := range c.providers {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		text, err := p.Generate(callCtx, prompt, opts...)
		cancel()

		if err == nil {
			return text, p.Name(), nil
		}

		if !errors.Is(err, ErrNotConfigured) {
			logger.Warn("Provider call failed, falling through", "provider", p.Name(), "err", err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}

	return "", "", fmt.Errorf("all providers failed: %w", errors.Join(errs...))
}

// GenerateWithFormat runs a structured-output request through the chain,
// unmarshaling the first successful response into out.
func (c *Chain) GenerateWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...GenerateOption,
) error {
	if len(c.providers) == 0 {
		return ErrNotConfigured
	}

	timeout := callTimeout(opts...)
	var errs []error

	for _, p := range c.providers {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		err := p.GenerateWithFormat(callCtx, name, description, prompt, out, opts...)
		cancel()

		if err == nil {
			return nil
		}

		if !errors.Is(err, ErrNotConfigured) {
			logger.Warn("Structured provider call failed, falling through", "provider", p.Name(), "err", err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}

	return fmt.Errorf("all providers failed: %w", errors.Join(errs...))
}
