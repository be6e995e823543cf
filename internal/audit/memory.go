package audit

import (
	"context"
	"log/slog"
	"sync"
)

// memoryWriter is an in-process writer used in tests.
type memoryWriter struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemorySink returns an AsyncSink backed by an in-memory writer, for
// tests that need to observe recorded entries.
func NewMemorySink(logger *slog.Logger) (*AsyncSink, *memoryWriter) {
	w := &memoryWriter{}
	return NewAsyncSink(w, logger, 0), w
}

func (w *memoryWriter) insert(ctx context.Context, entry Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, entry)
	return nil
}

func (w *memoryWriter) close() error { return nil }

// Entries returns a snapshot of every entry recorded so far.
func (w *memoryWriter) Entries() []Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Entry, len(w.entries))
	copy(out, w.entries)
	return out
}
