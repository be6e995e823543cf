// Package anthropic implements the Anthropic Messages API wire format,
// normalised into the common providers.ChatResponse shape.
package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jordanhubbard/llm-router/internal/providers"
)

// maxTokens is the fixed completion budget sent with every request.
const maxTokens = 8096

// Adapter is an Anthropic Messages API client.
type Adapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns an Adapter pointed at baseURL, authenticating with apiKey via
// the x-api-key header.
func New(apiKey, baseURL string) *Adapter {
	return &Adapter{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Complete sends a single-turn message request for modelID and returns the
// response normalised into providers.ChatResponse, re-encoded as the raw
// response body so callers can decode it uniformly regardless of provider.
func (a *Adapter) Complete(ctx context.Context, prompt string, modelID string) (providers.Result, error) {
	payload := map[string]any{
		"model": modelID,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens": maxTokens,
	}
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": "2023-06-01",
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	body, err := providers.DoRequest(ctx, a.client, a.baseURL+"/v1/messages", payload, headers)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		if se, ok := err.(*providers.StatusError); ok {
			return providers.Result{}, &providers.ProviderError{StatusCode: se.StatusCode, Err: se}
		}
		return providers.Result{}, err
	}

	normalised, err := normalise(body)
	if err != nil {
		return providers.Result{}, err
	}
	return providers.Result{Data: normalised, LatencyMs: latency}, nil
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// normalise translates an Anthropic Messages response into the common
// {choices: [{message: {content}}], usage: {prompt_tokens, completion_tokens}}
// shape every provider response is consumed through.
func normalise(body []byte) (json.RawMessage, error) {
	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}

	var text string
	if len(parsed.Content) > 0 {
		text = parsed.Content[0].Text
	}

	out := providers.ChatResponse{
		Usage: providers.Usage{
			PromptTokens:     parsed.Usage.InputTokens,
			CompletionTokens: parsed.Usage.OutputTokens,
		},
	}
	out.Choices = []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}{{}}
	out.Choices[0].Message.Content = text

	return json.Marshal(out)
}
