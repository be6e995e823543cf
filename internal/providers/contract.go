package providers

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Result is the normalised outcome of one Complete call: the raw provider
// response body plus the latency measured around the request.
type Result struct {
	Data      json.RawMessage
	LatencyMs int64
}

// Usage is the normalised token usage extracted from a provider response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// ChatResponse is the common shape every adapter normalises its response
// into: OpenAI-compatible bodies already match it; the Anthropic adapter
// translates into it.
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// Content returns the first choice's message content, or "" if the provider
// returned no choices.
func (r ChatResponse) Content() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// StatusError captures a non-2xx HTTP status from a provider response. It is
// retryable and counts as a breaker failure.
type StatusError struct {
	StatusCode     int
	Body           string
	RetryAfterSecs int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider: status %d: %s", e.StatusCode, e.Body)
}

// ParseRetryAfter sets RetryAfterSecs from a Retry-After header value, if
// present and numeric. A malformed or absent header leaves it at 0.
func (e *StatusError) ParseRetryAfter(header string) {
	if header == "" {
		return
	}
	if secs, err := strconv.Atoi(header); err == nil {
		e.RetryAfterSecs = secs
	}
}

// TimeoutError wraps a context cancellation or deadline exceeded while
// waiting on a provider. Retryable.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("provider: timeout: %v", e.Err) }
func (e *TimeoutError) Unwrap() error { return e.Err }

// TransportError wraps a network-level failure (DNS, connection refused,
// reset). Retryable.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("provider: transport: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// ProviderError is the general retryable failure raised when a non-2xx
// status does not fit a more specific case.
type ProviderError struct {
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider: status %d: %v", e.StatusCode, e.Err)
}
func (e *ProviderError) Unwrap() error { return e.Err }
