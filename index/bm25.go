// Package index holds the two retrieval structures built over one shared
// chunk collection: a BM25 lexical index and a dense vector index. Both
// key their scores by chunk ID rather than array position, so the pair
// can never silently misalign.
package index

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
)

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// BM25 is an Okapi BM25 index over per-chunk token sequences. It is a
// pure function of the corpus at build time; scoring has no side effects
// and the structure is read-only after Build or Load.
type BM25 struct {
	ChunkIDs  []string
	DocLens   []int
	AvgDocLen float64
	TermFreqs []map[string]int
	DocFreq   map[string]int
}

// BuildBM25 indexes one token sequence per chunk. ids and tokenLists must
// be parallel and in corpus order.
func BuildBM25(ids []string, tokenLists [][]string) (*BM25, error) {
	if len(ids) != len(tokenLists) {
		return nil, fmt.Errorf("bm25 build: %d ids for %d token lists", len(ids), len(tokenLists))
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("bm25 build: empty corpus")
	}

	idx := &BM25{
		ChunkIDs:  append([]string(nil), ids...),
		DocLens:   make([]int, len(ids)),
		TermFreqs: make([]map[string]int, len(ids)),
		DocFreq:   make(map[string]int),
	}

	totalLen := 0
	for i, tokens := range tokenLists {
		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}
		idx.TermFreqs[i] = freqs
		idx.DocLens[i] = len(tokens)
		totalLen += len(tokens)
		for term := range freqs {
			idx.DocFreq[term]++
		}
	}
	idx.AvgDocLen = float64(totalLen) / float64(len(ids))
	if idx.AvgDocLen == 0 {
		idx.AvgDocLen = 1
	}
	return idx, nil
}

// Scores returns one raw relevance score per indexed chunk, in corpus
// order (aligned with ChunkIDs).
func (idx *BM25) Scores(queryTokens []string) []float64 {
	scores := make([]float64, len(idx.ChunkIDs))
	n := float64(len(idx.ChunkIDs))

	for _, term := range queryTokens {
		df, ok := idx.DocFreq[term]
		if !ok {
			continue
		}
		idf := math.Log((n-float64(df)+0.5)/(float64(df)+0.5) + 1)
		for i := range idx.TermFreqs {
			tf := float64(idx.TermFreqs[i][term])
			if tf == 0 {
				continue
			}
			norm := 1 - bm25B + bm25B*float64(idx.DocLens[i])/idx.AvgDocLen
			scores[i] += idf * tf * (bm25K1 + 1) / (tf + bm25K1*norm)
		}
	}
	return scores
}

// Len returns the number of indexed chunks.
func (idx *BM25) Len() int {
	return len(idx.ChunkIDs)
}

// Save persists the index with gob.
func (idx *BM25) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create bm25 file: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(idx); err != nil {
		return fmt.Errorf("encode bm25 index: %w", err)
	}
	return nil
}

// LoadBM25 reads a gob-persisted index.
func LoadBM25(path string) (*BM25, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bm25 file: %w", err)
	}
	defer f.Close()
	var idx BM25
	if err := gob.NewDecoder(f).Decode(&idx); err != nil {
		return nil, fmt.Errorf("decode bm25 index: %w", err)
	}
	return &idx, nil
}
