package orchestrator

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/jordanhubbard/llm-router/internal/audit"
	"github.com/jordanhubbard/llm-router/internal/catalogue"
	"github.com/jordanhubbard/llm-router/internal/circuitbreaker"
	"github.com/jordanhubbard/llm-router/internal/classifier"
	"github.com/jordanhubbard/llm-router/internal/metrics"
	"github.com/jordanhubbard/llm-router/internal/providers"
	"github.com/jordanhubbard/llm-router/internal/retry"
	"github.com/jordanhubbard/llm-router/internal/strategy"
)

// confidenceMin is the floor below which a classification is distrusted and
// escalated to the reasoning category rather than routed as classified.
const confidenceMin = 0.5

// ClassifierService is the capability the orchestrator needs from the
// semantic classifier.
type ClassifierService interface {
	Classify(ctx context.Context, prompt string) (classifier.ClassificationResult, error)
	AddExample(ctx context.Context, text string, category classifier.TaskCategory) error
	EnsureCollection(ctx context.Context) error
}

// ProviderClient is the capability the orchestrator needs from one
// provider's wire adapter plus its model catalogue.
type ProviderClient interface {
	Complete(ctx context.Context, prompt string, modelID string) (providers.Result, error)
	GetAll() []catalogue.ModelProfile
	GetCandidates(sensitivity catalogue.PrivacySensitivity, minContextWindow int, maxCostPer1M *float64) []catalogue.ModelProfile
}

// Orchestrator ties together classification, catalogue filtering, strategy
// ranking, per-model circuit breakers, the retry driver, and the audit
// sink into the end-to-end routing pipeline.
type Orchestrator struct {
	classifier ClassifierService
	provider   ProviderClient
	audit      audit.Sink
	retryCfg   retry.Config
	logger     *slog.Logger
	metrics    *metrics.Registry // nil when unset; every use is nil-checked

	breakersMu sync.Mutex
	breakers   map[string]*circuitbreaker.Breaker
}

// New builds an Orchestrator. The breaker map starts empty; breakers are
// created lazily the first time a model id is seen.
func New(classifierSvc ClassifierService, provider ProviderClient, auditSink audit.Sink, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		classifier: classifierSvc,
		provider:   provider,
		audit:      auditSink,
		retryCfg:   retry.DefaultConfig(),
		logger:     logger,
		breakers:   make(map[string]*circuitbreaker.Breaker),
	}
}

// SetMetrics attaches a Prometheus registry for request, cost, fallback, and
// circuit breaker observations. Optional; Complete works the same without it.
func (o *Orchestrator) SetMetrics(m *metrics.Registry) {
	o.metrics = m
}

// breakerFor returns the breaker for modelID, creating a fresh CLOSED
// breaker on first use.
func (o *Orchestrator) breakerFor(modelID string) *circuitbreaker.Breaker {
	o.breakersMu.Lock()
	defer o.breakersMu.Unlock()
	b, ok := o.breakers[modelID]
	if !ok {
		modelID := modelID
		b = circuitbreaker.New(circuitbreaker.WithOnStateChange(func(from, to circuitbreaker.State) {
			o.logger.Info("circuit breaker state change", slog.String("model", modelID), slog.String("from", from.String()), slog.String("to", to.String()))
			if o.metrics != nil {
				o.metrics.CircuitBreakerState.WithLabelValues(modelID).Set(float64(to))
			}
		}))
		o.breakers[modelID] = b
	}
	return b
}

// Complete classifies prompt, assembles ranked candidates, and drives the
// fallback loop over them until one succeeds or all have failed.
func (o *Orchestrator) Complete(ctx context.Context, prompt string, opts RoutingOptions) (LlmResponse, error) {
	opts = opts.WithDefaults()

	result, err := o.classify(ctx, prompt, opts)
	if err != nil {
		return LlmResponse{}, err
	}

	candidates, err := o.assembleCandidates(opts, result.Category)
	if err != nil {
		return LlmResponse{}, err
	}

	return o.runFallbackLoop(ctx, prompt, result, candidates)
}

func (o *Orchestrator) classify(ctx context.Context, prompt string, opts RoutingOptions) (classifier.ClassificationResult, error) {
	if opts.ForceCategory != "" {
		return classifier.ClassificationResult{
			Category:             opts.ForceCategory,
			Confidence:           1,
			EstimatedInputTokens: classifier.EstimateTokens(prompt),
			Source:               classifier.SourceSemantic,
		}, nil
	}

	result, err := o.classifier.Classify(ctx, prompt)
	if err != nil {
		return classifier.ClassificationResult{}, &ClassifierError{Err: err}
	}

	if result.Confidence < confidenceMin {
		o.logger.Warn("low-confidence classification, escalating to reasoning",
			slog.String("category", string(result.Category)), slog.Float64("confidence", result.Confidence))
		result.Category = classifier.CategoryReasoning
	}
	return result, nil
}

func (o *Orchestrator) assembleCandidates(opts RoutingOptions, category classifier.TaskCategory) ([]catalogue.ModelProfile, error) {
	var ranked []catalogue.ModelProfile

	if opts.ForceModel != "" {
		m, ok := findModel(o.provider.GetAll(), opts.ForceModel)
		if !ok {
			return nil, &UnknownModelError{ModelID: opts.ForceModel}
		}
		ranked = []catalogue.ModelProfile{m}
	} else {
		filtered := o.provider.GetCandidates(opts.Sensitivity, opts.RequireContextWindow, opts.MaxCostPer1MTokens)
		ranked = strategy.For(opts.Strategy).Select(category, filtered)
	}

	var admitted []catalogue.ModelProfile
	for _, m := range ranked {
		if o.breakerFor(m.ID).CanExecute() {
			admitted = append(admitted, m)
		}
	}
	if len(admitted) == 0 {
		return nil, &NoModelsAvailableError{Category: category}
	}
	return admitted, nil
}

func findModel(models []catalogue.ModelProfile, id string) (catalogue.ModelProfile, bool) {
	for _, m := range models {
		if m.ID == id {
			return m, true
		}
	}
	return catalogue.ModelProfile{}, false
}

func (o *Orchestrator) runFallbackLoop(ctx context.Context, prompt string, classification classifier.ClassificationResult, candidates []catalogue.ModelProfile) (LlmResponse, error) {
	var attempted []string
	var lastErr error

	for i, model := range candidates {
		attempted = append(attempted, model.ID)
		breaker := o.breakerFor(model.ID)

		result, err := retry.Do(ctx, o.retryCfg, func(ctx context.Context) (providers.Result, error) {
			return o.provider.Complete(ctx, prompt, model.ID)
		})
		if err != nil {
			breaker.RecordFailure()
			o.logger.Error("provider call failed", slog.String("model", model.ID), slog.String("error", err.Error()))
			lastErr = err
			continue
		}
		breaker.RecordSuccess()

		response := o.buildResponse(result, model, classification, i > 0)
		o.recordAudit(prompt, classification, response)
		if o.metrics != nil {
			o.metrics.RequestsTotal.WithLabelValues(string(classification.Category), model.ID, "ok").Inc()
			o.metrics.RequestLatency.WithLabelValues(string(classification.Category), model.ID).Observe(float64(response.LatencyMs))
			o.metrics.CostUSD.WithLabelValues(model.ID).Add(response.EstimatedCostUSD)
			if i > 0 {
				o.metrics.ModelFallbackTotal.WithLabelValues(string(classification.Category), candidates[0].ID).Inc()
			}
		}
		return response, nil
	}

	if o.metrics != nil {
		o.metrics.RequestsTotal.WithLabelValues(string(classification.Category), "", "error").Inc()
		o.metrics.AllModelsFailedTotal.WithLabelValues(string(classification.Category)).Inc()
	}
	return LlmResponse{}, &AllModelsFailedError{Attempted: attempted, LastErr: lastErr}
}

func (o *Orchestrator) buildResponse(result providers.Result, model catalogue.ModelProfile, classification classifier.ClassificationResult, fallbackUsed bool) LlmResponse {
	var parsed providers.ChatResponse
	_ = json.Unmarshal(result.Data, &parsed)

	inputTokens := parsed.Usage.PromptTokens
	if inputTokens == 0 {
		inputTokens = classification.EstimatedInputTokens
	}
	outputTokens := parsed.Usage.CompletionTokens

	cost := float64(inputTokens)/1e6*model.CostPer1MInput + float64(outputTokens)/1e6*model.CostPer1MOutput

	return LlmResponse{
		Content:          parsed.Content(),
		Model:            model.ID,
		Category:         classification.Category,
		EstimatedCostUSD: cost,
		LatencyMs:        result.LatencyMs,
		Usage:            Usage{InputTokens: inputTokens, OutputTokens: outputTokens},
		FallbackUsed:     fallbackUsed,
	}
}

func (o *Orchestrator) recordAudit(prompt string, classification classifier.ClassificationResult, resp LlmResponse) {
	entry := audit.NewEntry(prompt, resp.Category, classification.Confidence, classification.Source, resp.Model, resp.EstimatedCostUSD, resp.LatencyMs)
	if err := o.audit.Insert(context.Background(), entry); err != nil {
		o.logger.Error("audit insert failed", slog.String("error", err.Error()))
	}
}

// Feedback validates category against the closed set and forwards the
// correction to the classifier as a new labelled example.
func (o *Orchestrator) Feedback(ctx context.Context, prompt string, category classifier.TaskCategory) error {
	if !classifier.ValidCategory(category) {
		return &InvalidCategoryError{Category: category}
	}
	return o.classifier.AddExample(ctx, prompt, category)
}
