package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jordanhubbard/llm-router/internal/catalogue"
	"github.com/jordanhubbard/llm-router/internal/classifier"
	"github.com/jordanhubbard/llm-router/internal/orchestrator"
	"github.com/jordanhubbard/llm-router/internal/strategy"
)

// completeRequest is the body of POST /complete.
type completeRequest struct {
	Prompt  string          `json:"prompt"`
	Options *requestOptions `json:"options,omitempty"`
}

type requestOptions struct {
	Strategy             string   `json:"strategy,omitempty"`
	Sensitivity          string   `json:"sensitivity,omitempty"`
	RequireContextWindow int      `json:"requireContextWindow,omitempty"`
	MaxCostPer1MTokens   *float64 `json:"maxCostPer1MTokens,omitempty"`
	ForceCategory        string   `json:"forceCategory,omitempty"`
	ForceModel           string   `json:"forceModel,omitempty"`
}

func (o *requestOptions) toRoutingOptions() orchestrator.RoutingOptions {
	if o == nil {
		return orchestrator.RoutingOptions{}
	}
	return orchestrator.RoutingOptions{
		Strategy:             strategy.RoutingStrategy(o.Strategy),
		Sensitivity:          catalogue.PrivacySensitivity(o.Sensitivity),
		RequireContextWindow: o.RequireContextWindow,
		MaxCostPer1MTokens:   o.MaxCostPer1MTokens,
		ForceCategory:        classifier.TaskCategory(o.ForceCategory),
		ForceModel:           o.ForceModel,
	}
}

// completeResponseUsage mirrors orchestrator.Usage for the wire format.
type completeResponseUsage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

type completeResponse struct {
	Content          string                `json:"content"`
	Model            string                `json:"model"`
	Category         string                `json:"category"`
	EstimatedCostUSD float64               `json:"estimatedCostUsd"`
	LatencyMs        int64                 `json:"latencyMs"`
	Usage            completeResponseUsage `json:"usage"`
	FallbackUsed     bool                  `json:"fallbackUsed"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// CompleteHandler handles POST /complete: classify, route, and return a
// completion.
func CompleteHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req completeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid json body")
			return
		}
		if req.Prompt == "" {
			writeError(w, http.StatusBadRequest, "bad_request", "prompt is required")
			return
		}

		resp, err := d.Orchestrator.Complete(r.Context(), req.Prompt, req.Options.toRoutingOptions())
		if err != nil {
			d.Logger.Error("complete failed", slog.String("error", err.Error()))
			writeOrchestratorError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, completeResponse{
			Content:          resp.Content,
			Model:            resp.Model,
			Category:         string(resp.Category),
			EstimatedCostUSD: resp.EstimatedCostUSD,
			LatencyMs:        resp.LatencyMs,
			Usage:            completeResponseUsage{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens},
			FallbackUsed:     resp.FallbackUsed,
		})
	}
}

type feedbackRequest struct {
	Prompt          string `json:"prompt"`
	CorrectCategory string `json:"correctCategory"`
}

type feedbackResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// FeedbackHandler handles POST /feedback: records a human-corrected category
// as a new labelled example for the classifier.
func FeedbackHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req feedbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid json body")
			return
		}
		if req.Prompt == "" {
			writeError(w, http.StatusBadRequest, "bad_request", "prompt is required")
			return
		}

		if err := d.Orchestrator.Feedback(r.Context(), req.Prompt, classifier.TaskCategory(req.CorrectCategory)); err != nil {
			d.Logger.Error("feedback failed", slog.String("error", err.Error()))
			writeOrchestratorError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, feedbackResponse{OK: true, Message: "example recorded"})
	}
}

type healthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
	TS     string `json:"ts"`
}

// HealthHandler handles GET /health.
func HealthHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status: "ok",
			Model:  d.ModelName,
			TS:     time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// writeOrchestratorError maps a typed orchestrator error to a status code.
// An unresolvable forceModel is a server-side catalogue problem, not bad
// caller input, so it reports 500 with no breaker interaction. An invalid
// forceCategory is caller input and reports 400.
func writeOrchestratorError(w http.ResponseWriter, err error) {
	var unknownModel *orchestrator.UnknownModelError
	var invalidCategory *orchestrator.InvalidCategoryError
	switch {
	case errors.As(err, &unknownModel):
		writeError(w, http.StatusInternalServerError, "unknown_model", err.Error())
	case errors.As(err, &invalidCategory):
		writeError(w, http.StatusBadRequest, "invalid_category", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "orchestrator_error", err.Error())
	}
}
