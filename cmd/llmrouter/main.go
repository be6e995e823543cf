package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jordanhubbard/llm-router/internal/app"
)

// version is set at build time via -ldflags.
var version = "dev"

func runHealthCheck(addr string) error {
	resp, err := http.Get(fmt.Sprintf("http://localhost%s/health", addr))
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

func main() {
	// Built-in health check mode for container HEALTHCHECK directives.
	if len(os.Args) > 1 && os.Args[1] == "-healthcheck" {
		addr := os.Getenv("PORT")
		if addr == "" {
			addr = "3000"
		}
		if err := runHealthCheck(":" + addr); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	}

	log.Printf("llm-router version %s", version)
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	srv, err := app.NewServer(cfg)
	if err != nil {
		log.Fatalf("server init error: %v", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		WriteTimeout:      time.Duration(cfg.ProviderTimeoutSecs+30) * time.Second,
	}
	srv.SetHTTPServer(httpServer)

	go func() {
		log.Printf("llm-router listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Printf("shutting down (draining in-flight requests)...")

	if err := srv.Close(); err != nil {
		log.Printf("server close error: %v", err)
	}
}
