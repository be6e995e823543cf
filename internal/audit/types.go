package audit

import (
	"time"

	"github.com/jordanhubbard/llm-router/internal/classifier"
)

// previewLen is how much of the prompt is retained in an audit entry.
const previewLen = 200

// Entry is one routing decision recorded for after-the-fact inspection.
// Persisted best-effort; there is no read path in this service.
type Entry struct {
	Timestamp     time.Time
	PromptHash    string
	PromptPreview string
	Category      classifier.TaskCategory
	Confidence    float64
	Source        classifier.Source
	Model         string
	CostUSD       float64
	LatencyMs     int64
}

// NewEntry truncates prompt to its first 200 characters for the preview
// field and hashes it for PromptHash, matching the classifier's cache key
// hash so entries can be cross-referenced with cache behaviour.
func NewEntry(prompt string, category classifier.TaskCategory, confidence float64, source classifier.Source, model string, costUSD float64, latencyMs int64) Entry {
	preview := prompt
	runes := []rune(prompt)
	if len(runes) > previewLen {
		preview = string(runes[:previewLen])
	}
	return Entry{
		Timestamp:     time.Now(),
		PromptHash:    classifier.CacheKey(prompt),
		PromptPreview: preview,
		Category:      category,
		Confidence:    confidence,
		Source:        source,
		Model:         model,
		CostUSD:       costUSD,
		LatencyMs:     latencyMs,
	}
}
