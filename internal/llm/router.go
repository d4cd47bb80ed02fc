package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/testgen-hq/pymute/internal/config"
)

// Retry configuration
const (
	defaultMaxRetries = 3
	initialBackoff    = 2 * time.Second
	maxBackoff        = 30 * time.Second
	backoffMultiplier = 2.0
)

// Router routes requests to providers based on tier and availability.
type Router struct {
	defaultProvider Provider
	clients         map[Provider]Client
	tierProviders   map[Tier][]Provider
	fallbacks       []Provider
}

// NewRouter creates a router from the LLM section of the app config.
func NewRouter(cfg *config.LLMConfig) (*Router, error) {
	r := &Router{
		defaultProvider: Provider(cfg.DefaultProvider),
		clients:         make(map[Provider]Client),
		tierProviders:   make(map[Tier][]Provider),
		fallbacks:       []Provider{ProviderOllama, ProviderAnthropic},
	}

	if cfg.OllamaURL != "" {
		r.clients[ProviderOllama] = NewOllamaClient(cfg.OllamaURL, map[Tier]string{
			Tier1: cfg.OllamaTier1,
			Tier2: cfg.OllamaTier2,
		})
		r.tierProviders[Tier1] = append(r.tierProviders[Tier1], ProviderOllama)
		r.tierProviders[Tier2] = append(r.tierProviders[Tier2], ProviderOllama)
	}

	if cfg.AnthropicKey != "" {
		r.clients[ProviderAnthropic] = NewAnthropicClient(cfg.AnthropicKey, map[Tier]string{
			Tier1: "claude-3-haiku-20240307",
			Tier2: "claude-3-5-sonnet-20241022",
			Tier3: cfg.AnthropicTier3,
		})
		r.tierProviders[Tier3] = append(r.tierProviders[Tier3], ProviderAnthropic)
	}

	if len(r.clients) == 0 {
		return nil, fmt.Errorf("no LLM providers configured")
	}

	return r, nil
}

// Complete routes a completion request, falling through providers and
// retrying transient failures with exponential backoff.
func (r *Router) Complete(ctx context.Context, req *Request) (*Response, error) {
	providers := r.providersForTier(req.Tier)
	if len(providers) == 0 {
		return nil, fmt.Errorf("no providers available for tier %d", req.Tier)
	}

	var lastErr error
	for _, provider := range providers {
		client, ok := r.clients[provider]
		if !ok {
			continue
		}
		if !client.Available() {
			log.Debug().Str("provider", string(provider)).Msg("provider not available, trying next")
			continue
		}

		log.Debug().
			Str("provider", string(provider)).
			Int("tier", int(req.Tier)).
			Msg("routing request to provider")

		resp, err := r.completeWithRetry(ctx, client, provider, req)
		if err != nil {
			log.Warn().
				Err(err).
				Str("provider", string(provider)).
				Msg("provider failed after retries, trying next")
			lastErr = err
			continue
		}
		return resp, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all providers failed, last error: %w", lastErr)
	}
	return nil, fmt.Errorf("no available providers for tier %d", req.Tier)
}

func (r *Router) completeWithRetry(ctx context.Context, client Client, provider Provider, req *Request) (*Response, error) {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= defaultMaxRetries; attempt++ {
		if attempt > 0 {
			log.Debug().
				Str("provider", string(provider)).
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Msg("retrying after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}

			backoff = time.Duration(float64(backoff) * backoffMultiplier)
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		resp, err := client.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			log.Debug().
				Err(err).
				Str("provider", string(provider)).
				Msg("non-retryable error, stopping retries")
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryableError determines if an error warrants a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := err.Error()

	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "EOF") {
		return true
	}

	// 5xx server errors and rate limiting are retryable
	if strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "server error") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") {
		return true
	}

	// Remaining 4xx client errors are not
	if strings.Contains(errStr, "400") ||
		strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "404") {
		return false
	}

	return true
}

// providersForTier returns clients for a tier in priority order, with
// the default provider first and remaining clients as fallbacks.
func (r *Router) providersForTier(tier Tier) []Provider {
	providers := make([]Provider, 0)

	if tierProviders, ok := r.tierProviders[tier]; ok {
		for _, p := range tierProviders {
			if p == r.defaultProvider {
				providers = append([]Provider{p}, providers...)
			} else {
				providers = append(providers, p)
			}
		}
	}

	for _, fallback := range r.fallbacks {
		seen := false
		for _, p := range providers {
			if p == fallback {
				seen = true
				break
			}
		}
		if !seen && r.clients[fallback] != nil {
			providers = append(providers, fallback)
		}
	}

	return providers
}

// HealthCheck verifies at least one provider is available
func (r *Router) HealthCheck() error {
	for provider, client := range r.clients {
		if client.Available() {
			log.Debug().Str("provider", string(provider)).Msg("provider available")
			return nil
		}
	}
	return fmt.Errorf("no LLM providers available")
}
