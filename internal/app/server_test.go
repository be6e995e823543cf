package app

import (
	"testing"

	"github.com/jordanhubbard/llm-router/internal/vault"
)

func newTestConfig() Config {
	return Config{
		ListenAddr:          ":0",
		LogLevel:            "error",
		LogFormat:           "json",
		LLMProvider:         "openrouter",
		OpenRouterAPIKey:    "test-key",
		DatabaseURL:         "file::memory:",
		ProviderTimeoutSecs: 30,
	}
}

func TestNewServer(t *testing.T) {
	srv, err := NewServer(newTestConfig())
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	defer func() { _ = srv.Close() }()

	if srv == nil {
		t.Fatal("expected non-nil server")
	}
}

func TestNewServerHasRouter(t *testing.T) {
	srv, err := NewServer(newTestConfig())
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	defer func() { _ = srv.Close() }()

	if srv.Router() == nil {
		t.Fatal("expected non-nil Router()")
	}
}

func TestNewServerUnsupportedProvider(t *testing.T) {
	cfg := newTestConfig()
	cfg.LLMProvider = "not-a-real-provider"

	v, err := vault.New(false)
	if err != nil {
		t.Fatalf("vault.New() error: %v", err)
	}
	if _, err := newCompleter(cfg, v); err == nil {
		t.Fatal("expected error for unsupported LLM_PROVIDER")
	}
}

func TestServerClose(t *testing.T) {
	srv, err := NewServer(newTestConfig())
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
}
