// Package retriever implements hybrid lexical+semantic retrieval with
// role-based access filtering over a persisted index pair.
package retriever

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"article-finder/chunker"
	"article-finder/config"
	apperrors "article-finder/errors"
	"article-finder/index"
	"article-finder/llmclient"

	lru "github.com/hashicorp/golang-lru"
	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

// Persisted artifact names under the index directory.
const (
	bm25File   = "bm25.gob"
	metaFile   = "meta.json"
	vectorsDir = "vectors"
)

// NoMatchAnswer is the fixed sentinel returned when nothing relevant was
// found. It is a legitimate result, distinct from ErrIndexUnavailable.
const NoMatchAnswer = "No relevant content found."

// ResultItem is one surfaced passage with provenance and highlighting.
type ResultItem struct {
	DocID     string   `json:"doc_id"`
	ArticleNo string   `json:"article_no"`
	PageStart int      `json:"page_start"`
	PageEnd   int      `json:"page_end"`
	Score     float64  `json:"score"`
	Roles     []string `json:"roles"`
	Excerpt   string   `json:"excerpt"`
}

// Response is the search contract exposed to collaborators.
type Response struct {
	Answer  string       `json:"answer"`
	Results []ResultItem `json:"results"`
}

// snapshot is one immutable, fully aligned index generation. Searches
// read whichever snapshot was current when they started; rebuilds swap in
// a complete replacement and never mutate a live one.
type snapshot struct {
	chunks  []chunker.Chunk
	byID    map[string]int // chunk ID -> corpus position
	lexical *index.BM25
	vectors *index.VectorIndex
}

// Retriever is the hybrid retrieval engine. It has two durable states:
// unloaded (no snapshot; Search fails fast with ErrIndexUnavailable) and
// loaded. BuildIndex moves it to loaded by atomically swapping snapshots.
type Retriever struct {
	cfg        *config.Config
	logger     *zap.Logger
	embedder   chromem.EmbeddingFunc
	embedCache *lru.Cache
	segmenter  *chunker.Segmenter

	mu      sync.RWMutex // guards snap
	snap    *snapshot
	buildMu sync.Mutex // serializes rebuilds
}

// New constructs a retriever using the configured embedding endpoint and
// attempts to load existing index artifacts. A missing index is not an
// error: the retriever starts unloaded and BuildIndex can populate it.
func New(cfg *config.Config, logger *zap.Logger) *Retriever {
	client := llmclient.New(cfg, logger)
	embedder := func(ctx context.Context, doc string) ([]float32, error) {
		return client.Embed(ctx, cfg.EmbeddingLLMHost, doc)
	}
	return NewWithEmbedder(cfg, logger, embedder)
}

// NewWithEmbedder is New with an injectable embedding func.
func NewWithEmbedder(cfg *config.Config, logger *zap.Logger, embedder chromem.EmbeddingFunc) *Retriever {
	cache, err := lru.New(max(cfg.EmbedCacheSize, 16))
	if err != nil {
		cache = nil
	}
	r := &Retriever{
		cfg:        cfg,
		logger:     logger,
		embedder:   index.NormalizedEmbedding(embedder),
		embedCache: cache,
		segmenter:  chunker.NewSegmenter(cfg.MinChunkChars, cfg.ChunkTargetWords, logger),
	}

	if err := r.reload(); err != nil {
		logger.Warn("Retriever starting unloaded, index must be built before searching",
			zap.String("index_dir", cfg.IndexDir),
			zap.Error(err))
	}
	return r
}

// Loaded reports whether index artifacts are resident in memory.
func (r *Retriever) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap != nil
}

// ChunkCount returns the size of the loaded corpus, zero when unloaded.
func (r *Retriever) ChunkCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.snap == nil {
		return 0
	}
	return len(r.snap.chunks)
}

func (r *Retriever) currentSnapshot() *snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// reload reads the persisted artifacts and swaps them in as the active
// snapshot. The lexical index, vector index and metadata must describe
// the same chunk collection; misalignment demands a rebuild.
func (r *Retriever) reload() error {
	lex, err := index.LoadBM25(filepath.Join(r.cfg.IndexDir, bm25File))
	if err != nil {
		return apperrors.WrapError(err, "load lexical index")
	}

	chunks, err := readMeta(filepath.Join(r.cfg.IndexDir, metaFile))
	if err != nil {
		return apperrors.WrapError(err, "load chunk metadata")
	}

	vectors, err := index.OpenVectorIndex(filepath.Join(r.cfg.IndexDir, vectorsDir), r.embedder)
	if err != nil {
		return apperrors.WrapError(err, "load vector index")
	}

	snap, err := newSnapshot(chunks, lex, vectors)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()

	r.logger.Info("Index loaded",
		zap.String("index_dir", r.cfg.IndexDir),
		zap.Int("chunks", len(chunks)))
	return nil
}

func newSnapshot(chunks []chunker.Chunk, lex *index.BM25, vectors *index.VectorIndex) (*snapshot, error) {
	if lex.Len() != len(chunks) {
		return nil, fmt.Errorf("index artifacts misaligned: %d lexical entries for %d chunks, rebuild required",
			lex.Len(), len(chunks))
	}
	byID := make(map[string]int, len(chunks))
	for i, c := range chunks {
		id := c.ID.String()
		if lex.ChunkIDs[i] != id {
			return nil, fmt.Errorf("index artifacts misaligned at position %d: lexical %s vs metadata %s, rebuild required",
				i, lex.ChunkIDs[i], id)
		}
		byID[id] = i
	}
	if vectors.Count() != len(chunks) {
		return nil, fmt.Errorf("index artifacts misaligned: %d embeddings for %d chunks, rebuild required",
			vectors.Count(), len(chunks))
	}
	return &snapshot{chunks: chunks, byID: byID, lexical: lex, vectors: vectors}, nil
}

func readMeta(path string) ([]chunker.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var chunks []chunker.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("decode chunk metadata: %w", err)
	}
	return chunks, nil
}

// embed returns the (L2-normalized) embedding for text, consulting the
// LRU cache first so repeated queries and highlight words cost one call.
func (r *Retriever) embed(ctx context.Context, text string) ([]float32, error) {
	if r.embedCache != nil {
		if cached, ok := r.embedCache.Get(text); ok {
			return cached.([]float32), nil
		}
	}
	vec, err := r.embedder(ctx, text)
	if err != nil {
		return nil, err
	}
	if r.embedCache != nil {
		r.embedCache.Add(text, vec)
	}
	return vec, nil
}
