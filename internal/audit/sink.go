package audit

import (
	"context"
	"log/slog"

	"github.com/jordanhubbard/llm-router/internal/metrics"
)

// Sink persists audit entries. Insert must never block the caller for
// longer than it takes to enqueue the entry.
type Sink interface {
	Insert(ctx context.Context, entry Entry) error
	Close() error
}

// writer is the subset of a Sink that actually performs the blocking write;
// AsyncSink wraps one and drives it from a single worker goroutine fed by a
// bounded queue, decoupling the write from the request's goroutine.
type writer interface {
	insert(ctx context.Context, entry Entry) error
	close() error
}

// AsyncSink queues audit inserts onto a buffered channel drained by a single
// worker goroutine. Insert returns immediately once the entry is queued (or
// is dropped, logged, if the queue is full); the request path never waits on
// the write.
type AsyncSink struct {
	queue   chan Entry
	done    chan struct{}
	writer  writer
	logger  *slog.Logger
	metrics *metrics.Registry // nil when unset; every use is nil-checked
}

// NewAsyncSink starts the worker goroutine and returns a Sink backed by w.
func NewAsyncSink(w writer, logger *slog.Logger, queueSize int) *AsyncSink {
	if queueSize <= 0 {
		queueSize = 4096
	}
	s := &AsyncSink{
		queue:  make(chan Entry, queueSize),
		done:   make(chan struct{}),
		writer: w,
		logger: logger,
	}
	go s.run()
	return s
}

// SetMetrics attaches a Prometheus registry for dropped-entry observations.
// Optional; Insert works the same without it.
func (s *AsyncSink) SetMetrics(m *metrics.Registry) {
	s.metrics = m
}

func (s *AsyncSink) run() {
	defer close(s.done)
	for entry := range s.queue {
		if err := s.writer.insert(context.Background(), entry); err != nil {
			s.logger.Error("audit insert failed", slog.String("error", err.Error()), slog.String("model", entry.Model))
		}
	}
}

// Insert enqueues entry for async persistence. A full queue drops the entry
// and logs a warning rather than blocking the request.
func (s *AsyncSink) Insert(ctx context.Context, entry Entry) error {
	select {
	case s.queue <- entry:
		return nil
	default:
		s.logger.Warn("audit queue full, dropping entry", slog.String("model", entry.Model))
		if s.metrics != nil {
			s.metrics.AuditQueueDroppedTotal.Inc()
		}
		return nil
	}
}

// Close drains the queue and closes the underlying writer.
func (s *AsyncSink) Close() error {
	close(s.queue)
	<-s.done
	return s.writer.close()
}
