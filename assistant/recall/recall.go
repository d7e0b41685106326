// Package recall keeps a small per-user vector memory of things the user has
// said, and recalls the closest entries for prompt enrichment. Memory is
// in-process only and ring-capped, matching the session-scoped design of the
// rest of the assistant.
package recall

import (
	"context"
	"math"
	"sync"

	"github.com/pkg/errors"
)

// defaultCapacity bounds entries kept per user; oldest are dropped first.
const defaultCapacity = 50

// Embedder produces an embedding vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type entry struct {
	embedding []float32
	text      string
}

// Store is the per-user vector memory.
type Store struct {
	embedder Embedder
	capacity int

	mu     sync.RWMutex
	byUser map[string][]entry
}

// NewStore creates a vector memory backed by the given embedder.
func NewStore(embedder Embedder) *Store {
	return &Store{
		embedder: embedder,
		capacity: defaultCapacity,
		byUser:   make(map[string][]entry),
	}
}

// Remember embeds and stores a piece of text for the user.
func (s *Store) Remember(ctx context.Context, userID, text string) error {
	emb, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return errors.Wrap(err, "embed memory")
	}
	if len(emb) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entries := append(s.byUser[userID], entry{embedding: emb, text: text})
	if len(entries) > s.capacity {
		entries = entries[len(entries)-s.capacity:]
	}
	s.byUser[userID] = entries
	return nil
}

// Recall returns up to topK stored texts closest to the query, best first.
// An empty result is not an error.
func (s *Store) Recall(ctx context.Context, userID, query string, topK int) ([]string, error) {
	s.mu.RLock()
	entries := s.byUser[userID]
	s.mu.RUnlock()
	if len(entries) == 0 {
		return nil, nil
	}

	queryEmb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "embed query")
	}
	if len(queryEmb) == 0 {
		return nil, nil
	}

	type scored struct {
		score float64
		text  string
	}
	results := make([]scored, 0, len(entries))
	for _, e := range entries {
		results = append(results, scored{score: cosine(queryEmb, e.embedding), text: e.text})
	}

	// Partial selection sort; topK is tiny (3 in practice).
	if topK > len(results) {
		topK = len(results)
	}
	for i := 0; i < topK; i++ {
		best := i
		for j := i + 1; j < len(results); j++ {
			if results[j].score > results[best].score {
				best = j
			}
		}
		results[i], results[best] = results[best], results[i]
	}

	out := make([]string, 0, topK)
	for _, r := range results[:topK] {
		out = append(out, r.text)
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
