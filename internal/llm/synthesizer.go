package llm

import (
	"context"
	"fmt"
)

// Synthesizer turns a prompt into Python test source. The survivor
// killer depends on this interface rather than a concrete provider so
// test synthesis can be stubbed out.
type Synthesizer interface {
	Synthesize(ctx context.Context, prompt string) (string, error)
}

// RouterSynthesizer backs Synthesizer with a completion router.
type RouterSynthesizer struct {
	completer Completer
	tier      Tier
}

// NewSynthesizer wraps a completer at the given tier. Tier3 is the
// usual choice for killer test synthesis.
func NewSynthesizer(completer Completer, tier Tier) *RouterSynthesizer {
	if tier == 0 {
		tier = Tier3
	}
	return &RouterSynthesizer{completer: completer, tier: tier}
}

// Synthesize sends the prompt and returns the cleaned Python source.
func (s *RouterSynthesizer) Synthesize(ctx context.Context, prompt string) (string, error) {
	resp, err := s.completer.Complete(ctx, &Request{
		Tier:   s.tier,
		System: systemKillerTests,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("synthesis request failed: %w", err)
	}

	code := CleanTestCode(resp.Content)
	if code == "" {
		return "", fmt.Errorf("synthesis returned empty response")
	}
	return code, nil
}
