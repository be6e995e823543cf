// Package openai implements the OpenAI-compatible chat completion wire
// format shared by openai, openrouter, google, and deepseek.
package openai

import (
	"context"
	"net/http"
	"time"

	"github.com/jordanhubbard/llm-router/internal/providers"
)

// Adapter is a generic OpenAI-compatible chat completion client. One
// instance is constructed per configured provider, parameterised by base URL
// and API key; only Anthropic's different wire format needs its own
// adapter.
type Adapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns an Adapter pointed at baseURL, authenticating with apiKey via
// a Bearer token.
func New(apiKey, baseURL string) *Adapter {
	return &Adapter{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Complete sends a single-turn chat completion request for modelID and
// returns the raw response body plus measured latency.
func (a *Adapter) Complete(ctx context.Context, prompt string, modelID string) (providers.Result, error) {
	payload := map[string]any{
		"model": modelID,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + a.apiKey}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	body, err := providers.DoRequest(ctx, a.client, a.baseURL+"/v1/chat/completions", payload, headers)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return providers.Result{}, classify(err)
	}
	return providers.Result{Data: body, LatencyMs: latency}, nil
}

func classify(err error) error {
	se, ok := err.(*providers.StatusError)
	if !ok {
		return err
	}
	return &providers.ProviderError{StatusCode: se.StatusCode, Err: se}
}
