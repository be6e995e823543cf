package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jordanhubbard/llm-router/internal/metrics"
	"github.com/jordanhubbard/llm-router/internal/orchestrator"
)

// Dependencies are the handlers' collaborators, assembled once at startup.
type Dependencies struct {
	Orchestrator *orchestrator.Orchestrator
	Metrics      *metrics.Registry
	Logger       *slog.Logger
	ModelName    string // reported by /health
}

// maxRequestBodySize bounds POST bodies to 1 MB; prompts are text, not files.
const maxRequestBodySize = 1 << 20

func bodySizeLimit(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MountRoutes wires the three external endpoints onto r.
func MountRoutes(r chi.Router, d Dependencies) {
	r.Use(bodySizeLimit(maxRequestBodySize))

	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}
	r.Get("/health", HealthHandler(d))
	r.Post("/complete", CompleteHandler(d))
	r.Post("/feedback", FeedbackHandler(d))
}
