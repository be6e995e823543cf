package classifier

import (
	"context"
	"time"
)

// CacheTTL is the classification cache entry lifetime: 24 hours.
const CacheTTL = 24 * time.Hour

// Cache stores classification results keyed by CacheKey, with a TTL. The
// write path is best-effort: a Set failure must not fail classification.
type Cache interface {
	Get(ctx context.Context, key string) (ClassificationResult, bool, error)
	Set(ctx context.Context, key string, result ClassificationResult, ttl time.Duration) error
}
