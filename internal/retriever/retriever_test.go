package retriever_test

import (
	"context"
	"errors"
	"testing"

	"github.com/adarshp14/AgentInsights/internal/embeddings"
	"github.com/adarshp14/AgentInsights/internal/retriever"
	"github.com/adarshp14/AgentInsights/internal/vectorstore"
	"github.com/adarshp14/AgentInsights/pkg/models"
)

func newRetriever(t *testing.T, opts ...retriever.Option) (*retriever.Retriever, *vectorstore.EmbeddedStore) {
	t.Helper()
	store := vectorstore.NewEmbeddedStore()
	r := retriever.New(embeddings.NewLocalDriver(256), store, opts...)
	return r, store
}

func TestRetrieveRanksAndFloors(t *testing.T) {
	r, _ := newRetriever(t, retriever.WithSimilarityFloor(0.3))
	ctx := context.Background()

	_, err := r.Index(ctx, "org1", []models.VectorDoc{
		{ID: "a", SourceID: "gst-guide", Content: "gst registration threshold for small business owners"},
		{ID: "b", SourceID: "recipes", Content: "banana bread recipe with walnuts"},
	})
	if err != nil {
		t.Fatalf("index: %v", err)
	}

	passages, err := r.Retrieve(ctx, "org1", "gst registration threshold")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(passages) == 0 {
		t.Fatal("expected at least one passage")
	}
	if passages[0].SourceID != "gst-guide" {
		t.Errorf("top passage = %s, want gst-guide", passages[0].SourceID)
	}
	for _, p := range passages {
		if p.Score < 0.3 {
			t.Errorf("passage %s below floor: %f", p.SourceID, p.Score)
		}
	}
}

func TestRetrieveEmptyIndex(t *testing.T) {
	r, _ := newRetriever(t)
	passages, err := r.Retrieve(context.Background(), "org1", "anything at all")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if passages == nil || len(passages) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", passages)
	}
}

func TestRetrieveTopK(t *testing.T) {
	r, _ := newRetriever(t, retriever.WithTopK(2), retriever.WithSimilarityFloor(0))
	ctx := context.Background()

	r.Index(ctx, "org1", []models.VectorDoc{
		{ID: "a", Content: "income tax rates for individuals"},
		{ID: "b", Content: "income tax rates for corporations"},
		{ID: "c", Content: "income tax rates for trusts"},
	})

	passages, _ := r.Retrieve(ctx, "org1", "income tax rates")
	if len(passages) > 2 {
		t.Errorf("expected at most 2 passages, got %d", len(passages))
	}
}

func TestRetrieveOrgScoped(t *testing.T) {
	r, _ := newRetriever(t, retriever.WithSimilarityFloor(0))
	ctx := context.Background()

	r.Index(ctx, "org2", []models.VectorDoc{
		{ID: "secret", Content: "quarterly gst filing instructions"},
	})

	passages, _ := r.Retrieve(ctx, "org1", "quarterly gst filing instructions")
	if len(passages) != 0 {
		t.Errorf("org1 retrieval returned org2 passages: %v", passages)
	}
}

type failingStore struct {
	vectorstore.EmbeddedStore
}

func (f *failingStore) Search(ctx context.Context, org string, vector []float64, topK int) ([]models.SearchResult, error) {
	return nil, errors.New("index unavailable")
}

func TestRetrieveDegradesOnSearchError(t *testing.T) {
	r := retriever.New(embeddings.NewLocalDriver(64), &failingStore{})
	passages, err := r.Retrieve(context.Background(), "org1", "gst")
	if err != nil {
		t.Fatalf("expected degraded empty result, got error %v", err)
	}
	if len(passages) != 0 {
		t.Errorf("expected no passages, got %d", len(passages))
	}
}

func TestIndexEmbedsMissingVectors(t *testing.T) {
	r, store := newRetriever(t)
	ctx := context.Background()

	stored, err := r.Index(ctx, "org1", []models.VectorDoc{
		{ID: "a", Content: "text without a vector"},
		{ID: "b", Content: "pre-embedded", Vector: make([]float64, 256)},
	})
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if stored != 2 {
		t.Errorf("stored = %d, want 2", stored)
	}
	n, _ := store.Count(ctx, "org1")
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}
