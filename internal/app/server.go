package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jordanhubbard/llm-router/internal/audit"
	"github.com/jordanhubbard/llm-router/internal/catalogue"
	"github.com/jordanhubbard/llm-router/internal/classifier"
	"github.com/jordanhubbard/llm-router/internal/httpapi"
	"github.com/jordanhubbard/llm-router/internal/logging"
	"github.com/jordanhubbard/llm-router/internal/metrics"
	"github.com/jordanhubbard/llm-router/internal/orchestrator"
	"github.com/jordanhubbard/llm-router/internal/providers"
	"github.com/jordanhubbard/llm-router/internal/providers/anthropic"
	"github.com/jordanhubbard/llm-router/internal/providers/openai"
	"github.com/jordanhubbard/llm-router/internal/tracing"
	"github.com/jordanhubbard/llm-router/internal/vault"
)

// providerBaseURLs are the default OpenAI-compatible (or Anthropic-native)
// endpoints for each supported provider.
var providerBaseURLs = map[string]string{
	"openrouter": "https://openrouter.ai/api/v1/chat/completions",
	"openai":     "https://api.openai.com/v1/chat/completions",
	"google":     "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions",
	"deepseek":   "https://api.deepseek.com/chat/completions",
	"anthropic":  "https://api.anthropic.com/v1/messages",
}

// Server holds every long-lived collaborator assembled at startup: Router()
// mounts the HTTP surface, Close() releases every resource in reverse
// dependency order.
type Server struct {
	cfg Config

	r *chi.Mux

	vault        *vault.Vault
	store        classifier.VectorStore
	cache        classifier.Cache
	orchestrator *orchestrator.Orchestrator
	audit        audit.Sink
	logger       *slog.Logger
	otelShutdown func(context.Context) error // nil when OTel disabled

	httpServer *http.Server
}

// NewServer wires logging, tracing, metrics, the vault, the classifier's
// vector store and cache, the active provider's wire adapter and catalogue,
// the audit sink, the orchestrator, and finally the HTTP surface, in that
// order.
func NewServer(cfg Config) (*Server, error) {
	logger := logging.Setup(cfg.LogLevel)

	otelShutdown, err := tracing.Setup(tracing.Config{
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: cfg.OTelServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("otel setup: %w", err)
	}
	if cfg.OTelEnabled {
		logger.Info("opentelemetry tracing enabled",
			slog.String("endpoint", cfg.OTelEndpoint), slog.String("service", cfg.OTelServiceName))
	}

	m := metrics.New()

	v, err := vault.New(cfg.VaultEnabled)
	if err != nil {
		return nil, fmt.Errorf("vault init: %w", err)
	}
	if cfg.VaultPassword != "" && cfg.VaultEnabled {
		logger.Warn("VAULT_PASSWORD is set: the password is visible in the process environment — prefer a secrets manager in production")
		if err := v.Unlock([]byte(cfg.VaultPassword)); err != nil {
			logger.Error("failed to auto-unlock vault from VAULT_PASSWORD", slog.String("error", err.Error()))
		} else {
			logger.Info("vault auto-unlocked from VAULT_PASSWORD")
			if err := v.Set(cfg.LLMProvider, cfg.providerAPIKey()); err != nil {
				logger.Warn("failed to store provider API key in vault", slog.String("error", err.Error()))
			}
		}
	}

	embedder := classifier.NewHashEmbedder()

	var store classifier.VectorStore
	if cfg.QdrantURL != "" {
		store = classifier.NewQdrantStore(cfg.QdrantURL)
		logger.Info("vector store: qdrant", slog.String("url", cfg.QdrantURL))
	} else {
		store = classifier.NewMemoryStore()
		logger.Info("vector store: in-memory (QDRANT_URL unset)")
	}

	var cache classifier.Cache
	if cfg.RedisURL != "" {
		rc, err := classifier.NewRedisCache(context.Background(), cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis cache init: %w", err)
		}
		cache = rc
		logger.Info("classification cache: redis", slog.String("url", cfg.RedisURL))
	} else {
		cache = classifier.NewMemoryCache()
		logger.Info("classification cache: in-memory (REDIS_URL unset)")
	}

	cls := classifier.New(embedder, store, cache)
	cls.SetMetrics(m)
	if err := cls.EnsureCollection(context.Background()); err != nil {
		return nil, fmt.Errorf("ensure vector collection: %w", err)
	}

	completer, err := newCompleter(cfg, v)
	if err != nil {
		return nil, err
	}
	cat := catalogue.Seed(cfg.LLMProvider)
	providerClient := providers.NewClient(completer, cat)

	auditWriter, err := audit.NewSQLiteSink(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("audit sink init: %w", err)
	}
	auditWriter.SetMetrics(m)

	orch := orchestrator.New(cls, providerClient, auditWriter, logger)
	orch.SetMetrics(m)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if cfg.OTelEnabled {
		r.Use(tracing.Middleware())
	}
	corsOrigins := cfg.CORSOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
		logger.Warn("CORS_ORIGINS not set — CORS allows all origins")
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	httpapi.MountRoutes(r, httpapi.Dependencies{
		Orchestrator: orch,
		Metrics:      m,
		Logger:       logger,
		ModelName:    cfg.LLMProvider,
	})

	return &Server{
		cfg:          cfg,
		r:            r,
		vault:        v,
		store:        store,
		cache:        cache,
		orchestrator: orch,
		audit:        auditWriter,
		logger:       logger,
		otelShutdown: otelShutdown,
	}, nil
}

// newCompleter constructs the wire adapter for cfg.LLMProvider. Anthropic
// gets its own adapter (different wire format); every other supported
// provider speaks the shared OpenAI-compatible shape. When the vault holds
// an unlocked copy of the provider's key (see NewServer's auto-unlock step)
// that copy is used in preference to the plaintext environment value.
func newCompleter(cfg Config, v *vault.Vault) (providers.Completer, error) {
	baseURL, ok := providerBaseURLs[cfg.LLMProvider]
	if !ok {
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}

	apiKey := cfg.providerAPIKey()
	if !v.IsLocked() {
		if vaulted, err := v.Get(cfg.LLMProvider); err == nil {
			apiKey = vaulted
		}
	}

	if cfg.LLMProvider == "anthropic" {
		return anthropic.New(apiKey, baseURL), nil
	}
	return openai.New(apiKey, baseURL), nil
}

// Router returns the assembled HTTP handler.
func (s *Server) Router() http.Handler { return s.r }

// SetHTTPServer registers the HTTP server so Close() can drain in-flight
// requests before releasing other resources.
func (s *Server) SetHTTPServer(srv *http.Server) {
	s.httpServer = srv
}

// Close drains in-flight HTTP requests, flushes the audit sink, closes the
// classifier's store and cache clients, and shuts down tracing, in that
// order.
func (s *Server) Close() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Warn("HTTP drain error", slog.String("error", err.Error()))
		}
	}
	if s.audit != nil {
		if err := s.audit.Close(); err != nil {
			s.logger.Warn("audit sink close error", slog.String("error", err.Error()))
		}
	}
	if closer, ok := s.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn("classification cache close error", slog.String("error", err.Error()))
		}
	}
	if closer, ok := s.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn("vector store close error", slog.String("error", err.Error()))
		}
	}
	if s.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.otelShutdown(ctx); err != nil {
			s.logger.Warn("otel shutdown error", slog.String("error", err.Error()))
		}
	}
	return nil
}
