package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"article-finder/config"
	"article-finder/retriever"

	"go.uber.org/zap"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Alpha:              0.45,
		ScoreNormalization: config.NormalizeMinMax,
		RelevanceFloor:     0.05,
		SemanticCandidates: 50,
		EmbedCacheSize:     16,
		MinChunkChars:      300,
		ChunkTargetWords:   400,
		MinTokenLength:     3,
		IndexDir:           filepath.Join(t.TempDir(), "idx"),
		CorpusDir:          t.TempDir(),
		WebPort:            0,
	}
	logger, _ := zap.NewDevelopment()
	embedder := func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}
	ret := retriever.NewWithEmbedder(cfg, logger, embedder)
	return NewServer(ret, logger, cfg)
}

func TestSearchBeforeBuild(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/search",
		strings.NewReader(`{"query":"penalty","roles":["staff"],"topk":5}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("search on unloaded index: status %d, want 503", w.Code)
	}
}

func TestSearchRequiresRoles(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/search",
		strings.NewReader(`{"query":"penalty","topk":5}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("search without roles: status %d, want 400", w.Code)
	}
}

func TestIndexEmptyCorpus(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/index", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("index over empty corpus: status %d, want 422", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("healthz: status %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"loaded":false`) {
		t.Errorf("healthz should report unloaded index, got %s", w.Body.String())
	}
}
