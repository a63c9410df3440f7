package ai

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	name       string
	text       string
	structured string
	err        error
	calls      int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Generate(_ context.Context, _ string, _ ...GenerateOption) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func (s *stubProvider) GenerateWithFormat(_ context.Context, _, _, _ string, out any, _ ...GenerateOption) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	return UnmarshalFlexible(s.structured, out)
}

func TestChainGenerate_FirstProviderWins(t *testing.T) {
	first := &stubProvider{name: "first", text: "answer"}
	second := &stubProvider{name: "second", text: "unused"}
	chain := NewChain(first, second)

	text, model, err := chain.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "answer" {
		t.Fatalf("Generate() text = %q, want %q", text, "answer")
	}
	if model != "first" {
		t.Fatalf("Generate() model = %q, want %q", model, "first")
	}
	if second.calls != 0 {
		t.Fatalf("second provider was called %d times, want 0", second.calls)
	}
}

func TestChainGenerate_FallsThroughToNext(t *testing.T) {
	tests := []struct {
		name     string
		firstErr error
	}{
		{name: "not configured", firstErr: ErrNotConfigured},
		{name: "rate limited", firstErr: ErrRateLimited},
		{name: "auth failure", firstErr: ErrAuth},
		{name: "timeout", firstErr: ErrTimeout},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			first := &stubProvider{name: "first", err: tc.firstErr}
			second := &stubProvider{name: "second", text: "fallback answer"}
			chain := NewChain(first, second)

			text, model, err := chain.Generate(context.Background(), "prompt")
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if text != "fallback answer" || model != "second" {
				t.Fatalf("Generate() = (%q, %q), want fallback from second", text, model)
			}
			if first.calls != 1 {
				t.Fatalf("first provider was called %d times, want exactly 1", first.calls)
			}
		})
	}
}

func TestChainGenerate_AllProvidersFail(t *testing.T) {
	first := &stubProvider{name: "first", err: ErrRateLimited}
	second := &stubProvider{name: "second", err: ErrTimeout}
	chain := NewChain(first, second)

	_, _, err := chain.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatalf("Generate() expected error when every provider fails")
	}
	if !errors.Is(err, ErrRateLimited) || !errors.Is(err, ErrTimeout) {
		t.Fatalf("Generate() error = %v, want both provider errors preserved", err)
	}
}

func TestChainGenerate_EmptyChain(t *testing.T) {
	chain := NewChain()

	_, _, err := chain.Generate(context.Background(), "prompt")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Generate() error = %v, want ErrNotConfigured", err)
	}
}

func TestChainGenerateWithFormat_FallsThrough(t *testing.T) {
	type payload struct {
		Value string `json:"value"`
	}

	first := &stubProvider{name: "first", err: ErrNotConfigured}
	second := &stubProvider{name: "second", structured: `{"value":"ok"}`}
	chain := NewChain(first, second)

	var got payload
	err := chain.GenerateWithFormat(context.Background(), "test", "test payload", "prompt", &got)
	if err != nil {
		t.Fatalf("GenerateWithFormat() error = %v", err)
	}
	if got.Value != "ok" {
		t.Fatalf("GenerateWithFormat() value = %q, want %q", got.Value, "ok")
	}
}

func TestChainProviders(t *testing.T) {
	chain := NewChain(
		&stubProvider{name: "groq"},
		&stubProvider{name: "gemini"},
		&stubProvider{name: "ollama"},
	)

	names := chain.Providers()
	want := []string{"groq", "gemini", "ollama"}
	if len(names) != len(want) {
		t.Fatalf("Providers() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Providers()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
