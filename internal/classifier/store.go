package classifier

import (
	"context"
	"time"
)

// PointSource records how a vector store entry was added.
type PointSource string

const (
	PointSourceSeed     PointSource = "seed"
	PointSourceFeedback PointSource = "feedback"
)

// Point is one labelled example in the vector store collection.
type Point struct {
	ID      int64
	Vector  []float32
	Payload Payload
}

// Payload is the metadata carried alongside each vector.
type Payload struct {
	Category TaskCategory `json:"category"`
	Text     string       `json:"text"`
	Source   PointSource  `json:"source"`
	AddedAt  time.Time    `json:"addedAt"`
}

// Match is one KNN search hit, in the order returned by the store.
type Match struct {
	Category   TaskCategory
	Similarity float64
}

// VectorStore performs KNN search over a named collection of labelled
// vectors, plus upsert of new labelled examples. Collection name is fixed at
// "llm_router_examples"; dimension must match Embedder's output.
type VectorStore interface {
	// EnsureCollection creates the collection with the configured dimension
	// and cosine distance if it does not already exist. Idempotent.
	EnsureCollection(ctx context.Context) error
	// Search returns the topK nearest neighbours to vector, ordered by
	// descending similarity.
	Search(ctx context.Context, vector []float32, topK int) ([]Match, error)
	// Upsert stores a new labelled point with a fresh monotonic id.
	Upsert(ctx context.Context, vector []float32, payload Payload) error
}

// CollectionName is the fixed vector store collection the engine uses.
const CollectionName = "llm_router_examples"
