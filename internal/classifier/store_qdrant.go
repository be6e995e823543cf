package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// QdrantStore is a VectorStore backed by a Qdrant HTTP collection, used in
// production when QDRANT_URL is configured.
type QdrantStore struct {
	baseURL string
	client  *http.Client
	nextID  atomic.Int64
}

// NewQdrantStore returns a QdrantStore pointed at baseURL (e.g. the value of
// QDRANT_URL).
func NewQdrantStore(baseURL string) *QdrantStore {
	return &QdrantStore{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	// PUT is idempotent: Qdrant returns 200 whether or not the collection
	// already existed with compatible parameters.
	body := map[string]any{
		"vectors": map[string]any{
			"size":     EmbeddingDimension,
			"distance": "Cosine",
		},
	}
	_, err := s.doJSON(ctx, http.MethodPut, "/collections/"+CollectionName, body)
	return err
}

func (s *QdrantStore) Upsert(ctx context.Context, vector []float32, payload Payload) error {
	id := s.nextID.Add(1)
	body := map[string]any{
		"points": []map[string]any{
			{
				"id":     id,
				"vector": vector,
				"payload": map[string]any{
					"category": string(payload.Category),
					"text":     payload.Text,
					"source":   string(payload.Source),
					"addedAt":  payload.AddedAt.Format(time.RFC3339),
				},
			},
		},
	}
	_, err := s.doJSON(ctx, http.MethodPut, "/collections/"+CollectionName+"/points", body)
	return err
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	resp, err := s.doJSON(ctx, http.MethodPost, "/collections/"+CollectionName+"/points/search", body)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				Category string `json:"category"`
			} `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return nil, fmt.Errorf("qdrant: decode search response: %w", err)
	}

	matches := make([]Match, len(parsed.Result))
	for i, r := range parsed.Result {
		matches[i] = Match{Category: TaskCategory(r.Payload.Category), Similarity: r.Score}
	}
	return matches, nil
}

func (s *QdrantStore) doJSON(ctx context.Context, method, path string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("qdrant: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("qdrant: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("qdrant: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant: status %d: %s", resp.StatusCode, string(out))
	}
	return out, nil
}
