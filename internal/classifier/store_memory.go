package classifier

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// shardSize bounds how many points a single goroutine scans before the
// memory store fans out Search across shards via errgroup. Below this size a
// plain sequential scan is faster than the synchronization overhead.
const shardSize = 2000

// MemoryStore is an in-process VectorStore backed by a slice of labelled
// points, searched by linear scan plus cosine similarity. It is the default
// adapter when QDRANT_URL is unset, and the store used throughout tests.
type MemoryStore struct {
	mu     sync.RWMutex
	points []Point
	nextID int64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) EnsureCollection(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Upsert(ctx context.Context, vector []float32, payload Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	if payload.AddedAt.IsZero() {
		payload.AddedAt = time.Now()
	}
	s.points = append(s.points, Point{ID: s.nextID, Vector: vector, Payload: payload})
	return nil
}

type scored struct {
	category   TaskCategory
	similarity float64
}

func (s *MemoryStore) Search(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	s.mu.RLock()
	points := make([]Point, len(s.points))
	copy(points, s.points)
	s.mu.RUnlock()

	if len(points) == 0 {
		return nil, nil
	}

	var all []scored
	if len(points) <= shardSize {
		all = scanShard(points, vector)
	} else {
		shards := splitShards(points, shardSize)
		results := make([][]scored, len(shards))
		g, gctx := errgroup.WithContext(ctx)
		for i, shard := range shards {
			i, shard := i, shard
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = scanShard(shard, vector)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		for _, r := range results {
			all = append(all, r...)
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].similarity > all[j].similarity })
	if topK > len(all) {
		topK = len(all)
	}
	matches := make([]Match, topK)
	for i := 0; i < topK; i++ {
		matches[i] = Match{Category: all[i].category, Similarity: all[i].similarity}
	}
	return matches, nil
}

func scanShard(points []Point, query []float32) []scored {
	out := make([]scored, len(points))
	for i, p := range points {
		out[i] = scored{category: p.Payload.Category, similarity: CosineSimilarity(query, p.Vector)}
	}
	return out
}

func splitShards(points []Point, size int) [][]Point {
	var shards [][]Point
	for i := 0; i < len(points); i += size {
		end := i + size
		if end > len(points) {
			end = len(points)
		}
		shards = append(shards, points[i:end])
	}
	return shards
}
