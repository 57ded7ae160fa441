package retriever

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"article-finder/chunker"
	apperrors "article-finder/errors"
	"article-finder/index"
	"article-finder/normalize"

	"go.uber.org/zap"
)

// BuildIndex runs the full segment→normalize→index pipeline over every
// supported document in sourceDir and atomically replaces the loaded
// index pair. Builds are all-or-nothing: any failure, including an empty
// corpus, leaves the prior artifacts and the loaded state untouched.
// Rebuilds serialize with each other; in-flight searches keep reading the
// old snapshot until the swap.
func (r *Retriever) BuildIndex(ctx context.Context, sourceDir string) error {
	if !r.buildMu.TryLock() {
		return apperrors.ErrBuildInProgress
	}
	defer r.buildMu.Unlock()

	r.logger.Info("Starting index build", zap.String("source_dir", sourceDir))

	chunks, err := r.segmenter.ProcessDirectory(sourceDir)
	if err != nil {
		return apperrors.WrapError(err, "scan corpus")
	}
	if len(chunks) == 0 {
		return apperrors.ErrEmptyCorpus
	}

	return r.buildArtifacts(ctx, chunks)
}

// IndexPDFs is a documented alias for BuildIndex kept for callers using
// the ingestion-oriented name. There is exactly one rebuild code path.
func (r *Retriever) IndexPDFs(ctx context.Context, sourceDir string) error {
	return r.BuildIndex(ctx, sourceDir)
}

// buildArtifacts persists both indices plus the metadata listing into a
// staging directory, renames it into place, and reloads.
func (r *Retriever) buildArtifacts(ctx context.Context, chunks []chunker.Chunk) error {
	ids := make([]string, len(chunks))
	vocabLists := make([][]string, len(chunks))
	normTexts := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID.String()
		vocabLists[i] = normalize.VocabTokens(normalize.Tokenize(c.NormText), r.cfg.MinTokenLength)
		normTexts[i] = c.NormText
	}

	staging := r.cfg.IndexDir + ".staging"
	if err := os.RemoveAll(staging); err != nil {
		return fmt.Errorf("clear staging dir: %w", err)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	lex, err := index.BuildBM25(ids, vocabLists)
	if err != nil {
		return apperrors.WrapError(err, "build lexical index")
	}
	if err := lex.Save(filepath.Join(staging, bm25File)); err != nil {
		return apperrors.WrapError(err, "persist lexical index")
	}

	if err := writeMeta(filepath.Join(staging, metaFile), chunks); err != nil {
		return apperrors.WrapError(err, "persist chunk metadata")
	}

	if _, err := index.BuildVectorIndex(ctx, filepath.Join(staging, vectorsDir), r.embedder, ids, normTexts); err != nil {
		return apperrors.WrapError(err, "build vector index")
	}

	if err := swapDirs(staging, r.cfg.IndexDir); err != nil {
		return apperrors.WrapError(err, "activate new index")
	}

	if err := r.reload(); err != nil {
		return apperrors.WrapError(err, "reload rebuilt index")
	}

	r.logger.Info("Index build completed",
		zap.String("index_dir", r.cfg.IndexDir),
		zap.Int("chunks", len(chunks)))
	return nil
}

// swapDirs renames the staged index into place, keeping the previous
// generation around until the rename has succeeded.
func swapDirs(staging, final string) error {
	old := final + ".old"
	if err := os.RemoveAll(old); err != nil {
		return fmt.Errorf("clear previous index backup: %w", err)
	}
	if _, err := os.Stat(final); err == nil {
		if err := os.Rename(final, old); err != nil {
			return fmt.Errorf("back up previous index: %w", err)
		}
	}
	if err := os.Rename(staging, final); err != nil {
		// Try to restore the previous generation before failing.
		if _, statErr := os.Stat(old); statErr == nil {
			os.Rename(old, final)
		}
		return fmt.Errorf("move staged index into place: %w", err)
	}
	os.RemoveAll(old)
	return nil
}

func writeMeta(path string, chunks []chunker.Chunk) error {
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chunk metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write chunk metadata: %w", err)
	}
	return nil
}
