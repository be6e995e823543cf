package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns a fixed vector regardless of input, so tests can drive
// the KNN scoring logic without depending on HashEmbedder's bucket hashing.
type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

// fakeStore returns a fixed, ordered set of matches for every Search call,
// regardless of k or the query vector, so each KNN pass is fully scripted.
type fakeStore struct {
	firstPass  []Match
	secondPass []Match
	searches   int
	upserts    []Payload
	err        error
}

func (s *fakeStore) EnsureCollection(ctx context.Context) error { return s.err }

func (s *fakeStore) Search(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.searches++
	if topK == firstPassK {
		return s.firstPass, nil
	}
	return s.secondPass, nil
}

func (s *fakeStore) Upsert(ctx context.Context, vector []float32, payload Payload) error {
	if s.err != nil {
		return s.err
	}
	s.upserts = append(s.upserts, payload)
	return nil
}

func TestClassify_HighConfidenceFirstPass_NoSecondPass(t *testing.T) {
	store := &fakeStore{
		firstPass: []Match{
			{Category: CategoryCode, Similarity: 0.9},
			{Category: CategoryCode, Similarity: 0.85},
			{Category: CategorySimple, Similarity: 0.1},
		},
	}
	c := New(&fakeEmbedder{vector: []float32{1, 0}}, store, NewMemoryCache())

	result, err := c.Classify(context.Background(), "write a quicksort function")
	require.NoError(t, err)
	require.Equal(t, CategoryCode, result.Category)
	require.Greater(t, result.Confidence, highConfidenceThreshold)
	require.Equal(t, SourceSemantic, result.Source)
	require.Equal(t, 1, store.searches, "confident first pass must not trigger a second pass")
}

func TestClassify_LowConfidence_EscalatesToSecondPass(t *testing.T) {
	store := &fakeStore{
		firstPass: []Match{
			{Category: CategoryCode, Similarity: 0.4},
			{Category: CategoryReasoning, Similarity: 0.39},
		},
		secondPass: []Match{
			{Category: CategoryReasoning, Similarity: 0.8},
			{Category: CategoryReasoning, Similarity: 0.75},
			{Category: CategoryCode, Similarity: 0.2},
		},
	}
	c := New(&fakeEmbedder{vector: []float32{1, 0}}, store, NewMemoryCache())

	result, err := c.Classify(context.Background(), "why does this recursive proof terminate")
	require.NoError(t, err)
	require.Equal(t, 2, store.searches, "low confidence first pass must escalate")
	require.Equal(t, CategoryReasoning, result.Category)
}

func TestClassify_SecondPassKeptOnlyIfStrictlyBetter(t *testing.T) {
	// First pass picks Code with confidence 0.6/0.9 ≈ 0.67, below 0.75, so a
	// second pass runs; the second pass's best category scores only 1/3, so
	// the first pass's result must win.
	store := &fakeStore{
		firstPass: []Match{
			{Category: CategoryCode, Similarity: 0.6},
			{Category: CategorySimple, Similarity: 0.3},
		},
		secondPass: []Match{
			{Category: CategoryReasoning, Similarity: 0.3},
			{Category: CategoryCode, Similarity: 0.3},
			{Category: CategorySimple, Similarity: 0.3},
		},
	}
	c := New(&fakeEmbedder{vector: []float32{1, 0}}, store, NewMemoryCache())

	result, err := c.Classify(context.Background(), "ambiguous prompt")
	require.NoError(t, err)
	require.Equal(t, 2, store.searches, "first pass below 0.75 must escalate")
	require.Equal(t, CategoryCode, result.Category)
}

func TestClassify_TiesBreakInFixedCategoryOrder(t *testing.T) {
	// Simple precedes Code in declaration order; an exact score tie must
	// resolve to Simple.
	store := &fakeStore{
		firstPass: []Match{
			{Category: CategoryCode, Similarity: 0.5},
			{Category: CategorySimple, Similarity: 0.5},
		},
	}
	c := New(&fakeEmbedder{vector: []float32{1, 0}}, store, NewMemoryCache())

	result, err := c.Classify(context.Background(), "tie")
	require.NoError(t, err)
	require.Equal(t, CategorySimple, result.Category)
}

func TestClassify_EmptyNeighbourSet_NoDivideByZero(t *testing.T) {
	store := &fakeStore{}
	c := New(&fakeEmbedder{vector: []float32{1, 0}}, store, NewMemoryCache())

	result, err := c.Classify(context.Background(), "nothing in the store yet")
	require.NoError(t, err)
	require.Equal(t, CategorySimple, result.Category, "first declared category wins when every score is zero")
	require.Equal(t, 2, store.searches, "zero confidence must escalate to the second pass")
}

func TestClassify_CacheHit_SkipsEmbedAndSearch(t *testing.T) {
	cache := NewMemoryCache()
	prompt := "repeated prompt"
	seeded := ClassificationResult{Category: CategoryCreative, Confidence: 0.91}
	require.NoError(t, cache.Set(context.Background(), CacheKey(prompt), seeded, CacheTTL))

	store := &fakeStore{}
	embed := &fakeEmbedder{err: errors.New("embed must not be called on a cache hit")}
	c := New(embed, store, cache)

	result, err := c.Classify(context.Background(), prompt)
	require.NoError(t, err)
	require.Equal(t, CategoryCreative, result.Category)
	require.Equal(t, SourceCache, result.Source)
	require.Equal(t, 0, store.searches)
}

func TestClassify_HighConfidenceResult_IsCached(t *testing.T) {
	store := &fakeStore{
		firstPass: []Match{
			{Category: CategoryDataAnalysis, Similarity: 0.95},
		},
	}
	cache := NewMemoryCache()
	c := New(&fakeEmbedder{vector: []float32{1, 0}}, store, cache)

	prompt := "summarize this csv of quarterly revenue"
	_, err := c.Classify(context.Background(), prompt)
	require.NoError(t, err)

	cached, hit, err := cache.Get(context.Background(), CacheKey(prompt))
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, CategoryDataAnalysis, cached.Category)
}

func TestClassify_LowConfidenceResult_IsNeverCached(t *testing.T) {
	store := &fakeStore{
		firstPass: []Match{
			{Category: CategoryCode, Similarity: 0.3},
			{Category: CategorySimple, Similarity: 0.29},
		},
		secondPass: []Match{
			{Category: CategoryCode, Similarity: 0.3},
			{Category: CategorySimple, Similarity: 0.29},
		},
	}
	cache := NewMemoryCache()
	c := New(&fakeEmbedder{vector: []float32{1, 0}}, store, cache)

	prompt := "stays ambiguous through both passes"
	_, err := c.Classify(context.Background(), prompt)
	require.NoError(t, err)

	_, hit, err := cache.Get(context.Background(), CacheKey(prompt))
	require.NoError(t, err)
	require.False(t, hit, "a result below the confidence threshold must never be written to cache")
}

func TestClassify_CacheGetError_IsSurfacedAsClassifierError(t *testing.T) {
	c := New(&fakeEmbedder{vector: []float32{1, 0}}, &fakeStore{}, &erroringCache{})
	_, err := c.Classify(context.Background(), "anything")
	require.Error(t, err)
	var classifierErr *Error
	require.ErrorAs(t, err, &classifierErr)
	require.Equal(t, "cache_get", classifierErr.Op)
}

func TestClassify_EmbedError_IsSurfacedAsClassifierError(t *testing.T) {
	c := New(&fakeEmbedder{err: errors.New("model unavailable")}, &fakeStore{}, NewMemoryCache())
	_, err := c.Classify(context.Background(), "anything")
	require.Error(t, err)
	var classifierErr *Error
	require.ErrorAs(t, err, &classifierErr)
	require.Equal(t, "embed", classifierErr.Op)
}

func TestAddExample_UpsertsFeedbackPoint(t *testing.T) {
	store := &fakeStore{}
	c := New(&fakeEmbedder{vector: []float32{1, 0}}, store, NewMemoryCache())

	require.NoError(t, c.AddExample(context.Background(), "new labelled prompt", CategoryReasoning))
	require.Len(t, store.upserts, 1)
	require.Equal(t, CategoryReasoning, store.upserts[0].Category)
	require.Equal(t, PointSourceFeedback, store.upserts[0].Source)
}

func TestEnsureCollection_DelegatesToStore(t *testing.T) {
	store := &fakeStore{}
	c := New(&fakeEmbedder{vector: []float32{1, 0}}, store, NewMemoryCache())
	require.NoError(t, c.EnsureCollection(context.Background()))
}

type erroringCache struct{}

func (c *erroringCache) Get(ctx context.Context, key string) (ClassificationResult, bool, error) {
	return ClassificationResult{}, false, errors.New("cache unavailable")
}

func (c *erroringCache) Set(ctx context.Context, key string, result ClassificationResult, ttl time.Duration) error {
	return nil
}
