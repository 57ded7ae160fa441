package index

import (
	"context"
	"fmt"
	"math"

	"github.com/philippgille/chromem-go"
)

const vectorCollection = "chunks"

// VectorHit is one nearest-neighbor candidate. Similarity is cosine
// similarity (documents and queries are L2-normalized, so inner product
// and cosine coincide).
type VectorHit struct {
	ChunkID    string
	Similarity float64
}

// VectorIndex wraps a persisted chromem collection holding one embedding
// per chunk, keyed by chunk ID.
type VectorIndex struct {
	db   *chromem.DB
	coll *chromem.Collection
}

// OpenVectorIndex loads an existing persisted vector index.
func OpenVectorIndex(dir string, embedder chromem.EmbeddingFunc) (*VectorIndex, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	coll := db.GetCollection(vectorCollection, embedder)
	if coll == nil {
		return nil, fmt.Errorf("vector collection %q not found in %s", vectorCollection, dir)
	}
	return &VectorIndex{db: db, coll: coll}, nil
}

// BuildVectorIndex embeds every chunk's normalized text and persists the
// collection under dir. ids and texts must be parallel.
func BuildVectorIndex(ctx context.Context, dir string, embedder chromem.EmbeddingFunc, ids []string, texts []string) (*VectorIndex, error) {
	if len(ids) != len(texts) {
		return nil, fmt.Errorf("vector build: %d ids for %d texts", len(ids), len(texts))
	}

	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}
	coll, err := db.GetOrCreateCollection(vectorCollection, nil, embedder)
	if err != nil {
		return nil, fmt.Errorf("create vector collection: %w", err)
	}

	docs := make([]chromem.Document, 0, len(ids))
	for i := range ids {
		docs = append(docs, chromem.Document{
			ID:      ids[i],
			Content: texts[i],
		})
	}
	if err := coll.AddDocuments(ctx, docs, 4); err != nil {
		return nil, fmt.Errorf("embed and add chunks: %w", err)
	}
	return &VectorIndex{db: db, coll: coll}, nil
}

// Search returns up to k nearest chunks to the query embedding. Callers
// treat below-floor candidates as score zero rather than excluding them,
// so a weak semantic match can still surface on lexical evidence.
func (v *VectorIndex) Search(ctx context.Context, queryEmbedding []float32, k int) ([]VectorHit, error) {
	count := v.coll.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}
	results, err := v.coll.QueryEmbedding(ctx, queryEmbedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}
	hits := make([]VectorHit, 0, len(results))
	for _, res := range results {
		hits = append(hits, VectorHit{
			ChunkID:    res.ID,
			Similarity: float64(res.Similarity),
		})
	}
	return hits, nil
}

// Count returns the number of stored embeddings.
func (v *VectorIndex) Count() int {
	return v.coll.Count()
}

// NormalizedEmbedding wraps an embedding func so every returned vector is
// L2-normalized, making inner product equal cosine similarity.
func NormalizedEmbedding(f chromem.EmbeddingFunc) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vec, err := f(ctx, text)
		if err != nil {
			return nil, err
		}
		return L2Normalize(vec), nil
	}
}

// L2Normalize scales a vector to unit length. Zero vectors pass through
// unchanged.
func L2Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
