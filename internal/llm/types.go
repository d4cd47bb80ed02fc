// Package llm routes completion requests to language model providers
// and exposes the synthesis operations the survivor killer needs.
package llm

import "context"

// Provider represents an LLM provider
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
)

// Tier represents the LLM tier for routing
type Tier int

const (
	Tier1 Tier = 1 // Fast, cheap - summaries, cleanups
	Tier2 Tier = 2 // Balanced - test repair
	Tier3 Tier = 3 // Thorough - killer test synthesis, merging
)

// Request represents an LLM completion request
type Request struct {
	Tier        Tier
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	Stop        []string
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response represents an LLM completion response
type Response struct {
	Content      string
	Model        string
	Provider     Provider
	InputTokens  int
	OutputTokens int
	FinishReason string
	Cached       bool
}

// Client is the interface for LLM providers
type Client interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
	Name() Provider
	Available() bool
}

// Completer is anything that can serve completion requests, with or
// without routing and caching in front.
type Completer interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}
