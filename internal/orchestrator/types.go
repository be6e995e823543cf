package orchestrator

import (
	"fmt"

	"github.com/jordanhubbard/llm-router/internal/catalogue"
	"github.com/jordanhubbard/llm-router/internal/classifier"
	"github.com/jordanhubbard/llm-router/internal/strategy"
)

// RoutingOptions are the caller-supplied knobs for one Complete call. Every
// field is optional; WithDefaults fills the gaps.
type RoutingOptions struct {
	Strategy             strategy.RoutingStrategy
	Sensitivity          catalogue.PrivacySensitivity
	RequireContextWindow int
	MaxCostPer1MTokens   *float64
	ForceCategory        classifier.TaskCategory
	ForceModel           string
}

// WithDefaults returns a copy of opts with Strategy defaulted to "balanced"
// and Sensitivity defaulted to "public". It is the single place that
// supplies these defaults: Orchestrator.Complete applies it to every
// request, and the HTTP boundary passes unset fields through unchanged.
func (o RoutingOptions) WithDefaults() RoutingOptions {
	out := o
	if out.Strategy == "" {
		out.Strategy = strategy.BalancedStrategy
	}
	if out.Sensitivity == "" {
		out.Sensitivity = catalogue.SensitivityPublic
	}
	return out
}

// Usage is the token accounting reported for one completion.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// LlmResponse is the result of a successful Complete call.
type LlmResponse struct {
	Content          string
	Model            string
	Category         classifier.TaskCategory
	EstimatedCostUSD float64
	LatencyMs        int64
	Usage            Usage
	FallbackUsed     bool
}

// UnknownModelError is returned when opts.ForceModel does not resolve to any
// model in the active provider's catalogue.
type UnknownModelError struct {
	ModelID string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("orchestrator: unknown model %q", e.ModelID)
}

// NoModelsAvailableError is returned when catalogue filtering and breaker
// admission leave no candidate to try.
type NoModelsAvailableError struct {
	Category classifier.TaskCategory
}

func (e *NoModelsAvailableError) Error() string {
	return fmt.Sprintf("orchestrator: no models available for category %q", e.Category)
}

// AllModelsFailedError is returned when every candidate was tried and failed.
type AllModelsFailedError struct {
	Attempted []string
	LastErr   error
}

func (e *AllModelsFailedError) Error() string {
	return fmt.Sprintf("orchestrator: all %d candidate(s) failed, last error: %v", len(e.Attempted), e.LastErr)
}
func (e *AllModelsFailedError) Unwrap() error { return e.LastErr }

// ClassifierError wraps a failure from the classification step.
type ClassifierError struct {
	Err error
}

func (e *ClassifierError) Error() string { return fmt.Sprintf("orchestrator: classify: %v", e.Err) }
func (e *ClassifierError) Unwrap() error { return e.Err }

// InvalidCategoryError is returned by Feedback when the category is not in
// the closed set.
type InvalidCategoryError struct {
	Category classifier.TaskCategory
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("orchestrator: invalid category %q", e.Category)
}
