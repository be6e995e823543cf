package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// NewSQLiteSink opens a SQLite-backed Sink at dsn and wraps it in an
// AsyncSink (single worker goroutine, default queue size).
func NewSQLiteSink(ctx context.Context, dsn string, logger *slog.Logger) (*AsyncSink, error) {
	w, err := NewSQLiteWriter(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return NewAsyncSink(w, logger, 0), nil
}

// SQLiteWriter persists audit entries to a single classification_logs table
// using modernc.org/sqlite (pure Go, no CGO), matching the teacher's
// pragma/pool tuning for a single-writer embedded database.
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLiteWriter opens (or creates) the SQLite database at dsn, applies WAL
// mode and a busy timeout, and migrates the audit table.
func NewSQLiteWriter(ctx context.Context, dsn string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: sqlite pragmas: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	w := &SQLiteWriter{db: db}
	if err := w.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func (w *SQLiteWriter) migrate(ctx context.Context) error {
	_, err := w.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS classification_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		prompt_hash TEXT NOT NULL,
		prompt_preview TEXT NOT NULL,
		category TEXT NOT NULL,
		confidence REAL NOT NULL,
		source TEXT NOT NULL,
		model_used TEXT NOT NULL,
		cost_usd REAL NOT NULL,
		latency_ms INTEGER NOT NULL,
		corrected_to TEXT
	)`)
	if err != nil {
		return fmt.Errorf("audit: migrate: %w", err)
	}
	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_classification_logs_prompt_hash ON classification_logs(prompt_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_classification_logs_created_at ON classification_logs(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_classification_logs_category ON classification_logs(category)`,
		`CREATE INDEX IF NOT EXISTS idx_classification_logs_model_used ON classification_logs(model_used)`,
	} {
		if _, err := w.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("audit: migrate index: %w", err)
		}
	}
	return nil
}

func (w *SQLiteWriter) insert(ctx context.Context, entry Entry) error {
	_, err := w.db.ExecContext(ctx, `INSERT INTO classification_logs
		(created_at, prompt_hash, prompt_preview, category, confidence, source, model_used, cost_usd, latency_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Timestamp, entry.PromptHash, entry.PromptPreview, string(entry.Category),
		entry.Confidence, string(entry.Source), entry.Model, entry.CostUSD, entry.LatencyMs,
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

func (w *SQLiteWriter) close() error {
	return w.db.Close()
}
