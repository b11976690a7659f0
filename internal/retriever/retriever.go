// Package retriever performs org-scoped passage retrieval: embed the
// query, search the org's slice of the vector index, keep the passages
// that clear the similarity floor.
package retriever

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/adarshp14/AgentInsights/pkg/contracts"
	"github.com/adarshp14/AgentInsights/pkg/models"
)

const (
	// DefaultTopK bounds how many passages a single retrieval returns.
	DefaultTopK = 3

	// DefaultSimilarityFloor drops weakly related passages.
	DefaultSimilarityFloor = 0.7

	// DefaultTimeout bounds one retrieval round trip (embed + search).
	DefaultTimeout = 10 * time.Second
)

// Retriever embeds queries and searches the vector store. Retrieval
// never fails a request: any backend error degrades to an empty result
// with a warning log.
type Retriever struct {
	embedder contracts.EmbeddingDriver
	store    contracts.VectorStoreDriver
	topK     int
	floor    float64
	timeout  time.Duration
}

// Option configures the retriever.
type Option func(*Retriever)

// WithTopK overrides the result cap.
func WithTopK(k int) Option {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithSimilarityFloor overrides the minimum score.
func WithSimilarityFloor(floor float64) Option {
	return func(r *Retriever) { r.floor = floor }
}

// WithTimeout overrides the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(r *Retriever) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// New creates a retriever over an embedding driver and a vector store.
func New(embedder contracts.EmbeddingDriver, store contracts.VectorStoreDriver, opts ...Option) *Retriever {
	r := &Retriever{
		embedder: embedder,
		store:    store,
		topK:     DefaultTopK,
		floor:    DefaultSimilarityFloor,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns up to topK passages from org's index scoring at or
// above the similarity floor, ordered by descending score. An empty or
// unavailable index yields an empty slice, never an error.
func (r *Retriever) Retrieve(ctx context.Context, org, query string) ([]models.Passage, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		log.Warn().Err(err).Str("org", org).Msg("Query embedding failed, returning no passages")
		return []models.Passage{}, nil
	}

	results, err := r.store.Search(ctx, org, vectors[0], r.topK)
	if err != nil {
		log.Warn().Err(err).Str("org", org).Msg("Vector search failed, returning no passages")
		return []models.Passage{}, nil
	}

	passages := make([]models.Passage, 0, len(results))
	for _, res := range results {
		if res.Score < r.floor {
			continue
		}
		passages = append(passages, models.Passage{
			SourceID: sourceID(res.Doc),
			Content:  res.Doc.Content,
			Score:    res.Score,
			Metadata: res.Doc.Metadata,
		})
	}
	return passages, nil
}

// Index embeds documents that arrive without vectors and upserts the
// batch into org's index. It returns how many documents were stored.
func (r *Retriever) Index(ctx context.Context, org string, docs []models.VectorDoc) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var pendingTexts []string
	var pendingIdx []int
	for i, d := range docs {
		if len(d.Vector) == 0 {
			pendingTexts = append(pendingTexts, d.Content)
			pendingIdx = append(pendingIdx, i)
		}
	}
	if len(pendingTexts) > 0 {
		vectors, err := r.embedder.Embed(ctx, pendingTexts)
		if err != nil {
			return 0, err
		}
		for j, i := range pendingIdx {
			docs[i].Vector = vectors[j]
		}
	}

	if err := r.store.Upsert(ctx, org, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Count reports how many documents org has indexed.
func (r *Retriever) Count(ctx context.Context, org string) (int, error) {
	return r.store.Count(ctx, org)
}

func sourceID(doc models.VectorDoc) string {
	if doc.SourceID != "" {
		return doc.SourceID
	}
	return doc.ID
}
