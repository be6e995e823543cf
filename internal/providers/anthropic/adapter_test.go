package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jordanhubbard/llm-router/internal/providers"
	"github.com/stretchr/testify/require"
)

func TestComplete_SendsFixedMaxTokensAndHeaders(t *testing.T) {
	var received map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"content":[{"text":"hi there"}],"usage":{"input_tokens":5,"output_tokens":2}}`))
	}))
	defer ts.Close()

	a := New("test-key", ts.URL)
	result, err := a.Complete(context.Background(), "hello", "claude-3-5-sonnet-20241022")
	require.NoError(t, err)
	require.Equal(t, float64(8096), received["max_tokens"])

	var parsed providers.ChatResponse
	require.NoError(t, json.Unmarshal(result.Data, &parsed))
	require.Equal(t, "hi there", parsed.Content())
	require.Equal(t, 5, parsed.Usage.PromptTokens)
	require.Equal(t, 2, parsed.Usage.CompletionTokens)
}

func TestComplete_EmptyContentBlock_NormalisesToEmptyString(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"content":[],"usage":{"input_tokens":1,"output_tokens":0}}`))
	}))
	defer ts.Close()

	a := New("test-key", ts.URL)
	result, err := a.Complete(context.Background(), "hello", "claude-3-5-haiku-20241022")
	require.NoError(t, err)

	var parsed providers.ChatResponse
	require.NoError(t, json.Unmarshal(result.Data, &parsed))
	require.Equal(t, "", parsed.Content())
}

func TestComplete_NonOKStatus_ReturnsProviderError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`overloaded`))
	}))
	defer ts.Close()

	a := New("test-key", ts.URL)
	_, err := a.Complete(context.Background(), "hello", "claude-3-opus-20240229")
	require.Error(t, err)
	var pe *providers.ProviderError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, http.StatusServiceUnavailable, pe.StatusCode)
}
