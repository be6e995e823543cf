package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/jordanhubbard/llm-router/internal/metrics"
)

// firstPassK and secondPassK are the fixed neighbour counts for the two KNN
// passes.
const (
	firstPassK  = 7
	secondPassK = 20
)

// highConfidenceThreshold gates both the second KNN pass and cache writes.
const highConfidenceThreshold = 0.75

// Error wraps a failure from the classifier's cache or vector store
// dependency. The orchestrator surfaces it to the caller as a 500; no
// fallback classification is invented.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("classifier: %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Classifier composes an Embedder, VectorStore, and Cache into the two-pass
// nearest-neighbour classifier.
type Classifier struct {
	embed   Embedder
	store   VectorStore
	cache   Cache
	metrics *metrics.Registry // nil when unset; every use is nil-checked
}

// New builds a Classifier from its three collaborators.
func New(embed Embedder, store VectorStore, cache Cache) *Classifier {
	return &Classifier{embed: embed, store: store, cache: cache}
}

// SetMetrics attaches a Prometheus registry for cache hit/miss and per-pass
// latency observations. Optional; Classify works the same without it.
func (c *Classifier) SetMetrics(m *metrics.Registry) {
	c.metrics = m
}

// EnsureCollection creates the backing vector store collection if needed.
func (c *Classifier) EnsureCollection(ctx context.Context) error {
	if err := c.store.EnsureCollection(ctx); err != nil {
		return &Error{Op: "ensure_collection", Err: err}
	}
	return nil
}

// Classify returns the classification for prompt, consulting the cache
// first, then running one or two KNN passes against the vector store.
func (c *Classifier) Classify(ctx context.Context, prompt string) (ClassificationResult, error) {
	key := CacheKey(prompt)

	cached, hit, err := c.cache.Get(ctx, key)
	if err != nil {
		return ClassificationResult{}, &Error{Op: "cache_get", Err: err}
	}
	if hit {
		cached.Source = SourceCache
		if c.metrics != nil {
			c.metrics.ClassificationCacheHits.Inc()
		}
		return cached, nil
	}
	if c.metrics != nil {
		c.metrics.ClassificationCacheMisses.Inc()
	}

	vector, err := c.embed.Embed(ctx, prompt)
	if err != nil {
		return ClassificationResult{}, &Error{Op: "embed", Err: err}
	}

	estimatedTokens := EstimateTokens(prompt)

	firstPassStart := time.Now()
	firstPass, err := c.knnPass(ctx, vector, firstPassK, linearWeight)
	if err != nil {
		return ClassificationResult{}, &Error{Op: "search", Err: err}
	}
	if c.metrics != nil {
		c.metrics.ClassificationLatency.WithLabelValues("first").Observe(float64(time.Since(firstPassStart).Milliseconds()))
	}
	firstPass.EstimatedInputTokens = estimatedTokens
	firstPass.Source = SourceSemantic

	result := firstPass
	if result.Confidence < highConfidenceThreshold {
		secondPassStart := time.Now()
		secondPass, err := c.knnPass(ctx, vector, secondPassK, cubicWeight)
		if err != nil {
			return ClassificationResult{}, &Error{Op: "search", Err: err}
		}
		if c.metrics != nil {
			c.metrics.ClassificationLatency.WithLabelValues("second").Observe(float64(time.Since(secondPassStart).Milliseconds()))
		}
		secondPass.EstimatedInputTokens = estimatedTokens
		secondPass.Source = SourceSemantic
		if secondPass.Confidence > result.Confidence {
			result = secondPass
		}
	}

	if result.Confidence >= highConfidenceThreshold {
		// Best-effort: a cache write failure must not fail classification.
		_ = c.cache.Set(ctx, key, result, CacheTTL)
	}

	return result, nil
}

// AddExample embeds text and upserts a new labelled point tagged as operator
// feedback.
func (c *Classifier) AddExample(ctx context.Context, text string, category TaskCategory) error {
	vector, err := c.embed.Embed(ctx, text)
	if err != nil {
		return &Error{Op: "embed", Err: err}
	}
	if err := c.store.Upsert(ctx, vector, Payload{
		Category: category,
		Text:     text,
		Source:   PointSourceFeedback,
	}); err != nil {
		return &Error{Op: "upsert", Err: err}
	}
	return nil
}

type weightFunc func(similarity float64) float64

func linearWeight(similarity float64) float64 { return similarity }
func cubicWeight(similarity float64) float64  { return similarity * similarity * similarity }

// knnPass runs one KNN search and scores it per §4.1: accumulate weight per
// category, normalise by the sum (or 1 if the sum is 0), and pick the
// category with the maximum normalised score, iterating the closed category
// set in its fixed declaration order so ties are deterministic.
func (c *Classifier) knnPass(ctx context.Context, vector []float32, k int, weight weightFunc) (ClassificationResult, error) {
	matches, err := c.store.Search(ctx, vector, k)
	if err != nil {
		return ClassificationResult{}, err
	}

	scores := make(map[TaskCategory]float64, len(Categories))
	for _, cat := range Categories {
		scores[cat] = 0
	}

	signals := make([]string, 0, len(matches))
	var sum float64
	for _, m := range matches {
		w := weight(m.Similarity)
		scores[m.Category] += w
		sum += w
		signals = append(signals, formatSignal(m.Category, m.Similarity))
	}

	divisor := sum
	if divisor == 0 {
		divisor = 1
	}

	normalised := make(map[TaskCategory]float64, len(Categories))
	var winner TaskCategory
	var winnerScore float64 = -1
	for _, cat := range Categories {
		share := scores[cat] / divisor
		normalised[cat] = share
		if share > winnerScore {
			winnerScore = share
			winner = cat
		}
	}

	return ClassificationResult{
		Category:   winner,
		Confidence: winnerScore,
		Scores:     normalised,
		Signals:    signals,
	}, nil
}
