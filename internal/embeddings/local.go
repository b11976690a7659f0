package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// LocalDriver is a deterministic hashing embedder for development and
// tests. It projects word and bigram features into a fixed-size vector
// and L2-normalizes the result, so identical text always embeds to the
// same unit vector and overlapping text scores high under cosine
// similarity. It is not a semantic model.
type LocalDriver struct {
	dimensions int
}

// NewLocalDriver creates a local hashing driver. Dimensions below 8 are
// clamped to 64.
func NewLocalDriver(dimensions int) *LocalDriver {
	if dimensions < 8 {
		dimensions = 64
	}
	return &LocalDriver{dimensions: dimensions}
}

func (d *LocalDriver) Kind() string      { return "local" }
func (d *LocalDriver) Dimensions() int   { return d.dimensions }
func (d *LocalDriver) MaxBatchSize() int { return 4096 }

func (d *LocalDriver) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = d.embedOne(text)
	}
	return vectors, nil
}

func (d *LocalDriver) embedOne(text string) []float64 {
	vec := make([]float64, d.dimensions)
	words := tokenize(text)
	for i, word := range words {
		bump(vec, word, 1.0)
		if i > 0 {
			bump(vec, words[i-1]+" "+word, 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

func bump(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(len(vec)))
	// Low bit picks the sign so unrelated features cancel rather than
	// accumulate.
	if sum&(1<<32) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
}

// HealthCheck always succeeds; the driver has no external dependency.
func (d *LocalDriver) HealthCheck(ctx context.Context) error {
	return nil
}
