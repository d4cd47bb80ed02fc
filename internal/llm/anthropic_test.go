package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnthropicServer(t *testing.T, handler http.HandlerFunc) *AnthropicClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewAnthropicClient("test-key", map[Tier]string{
		Tier3: "claude-3-5-sonnet-20241022",
	})
	client.baseURL = srv.URL
	return client
}

func TestAnthropicComplete(t *testing.T) {
	client := newAnthropicServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-3-5-sonnet-20241022", req.Model)

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": "def test_kill(): pass"},
			},
			"model":       req.Model,
			"stop_reason": "end_turn",
			"usage":       map[string]int{"input_tokens": 10, "output_tokens": 5},
		})
	})

	resp, err := client.Complete(context.Background(), &Request{
		Tier:     Tier3,
		Messages: []Message{{Role: "user", Content: "generate killer tests"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "def test_kill(): pass", resp.Content)
	assert.Equal(t, ProviderAnthropic, resp.Provider)
	assert.Equal(t, 10, resp.InputTokens)
	assert.Equal(t, "end_turn", resp.FinishReason)
}

func TestAnthropicCompleteAPIError(t *testing.T) {
	client := newAnthropicServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	})

	_, err := client.Complete(context.Background(), &Request{
		Tier:     Tier3,
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestAnthropicCompleteUnknownTier(t *testing.T) {
	client := NewAnthropicClient("key", map[Tier]string{})
	_, err := client.Complete(context.Background(), &Request{Tier: Tier1})
	assert.Error(t, err)
}

func TestAnthropicAvailable(t *testing.T) {
	assert.True(t, NewAnthropicClient("key", nil).Available())
	assert.False(t, NewAnthropicClient("", nil).Available())
}
