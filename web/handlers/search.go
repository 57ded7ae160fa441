package handlers

import (
	"net/http"

	"article-finder/config"
	apperrors "article-finder/errors"
	"article-finder/retriever"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SearchHandler struct {
	retriever *retriever.Retriever
	config    *config.Config
	logger    *zap.Logger
}

type SearchRequest struct {
	Query string   `json:"query"`
	Roles []string `json:"roles"`
	TopK  int      `json:"topk"`
}

type IndexRequest struct {
	SourceDir string `json:"source_dir"`
}

func NewSearchHandler(ret *retriever.Retriever, config *config.Config, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		retriever: ret,
		config:    config,
		logger:    logger,
	}
}

// Search runs a role-filtered hybrid query. An empty result set is a
// normal 200 response carrying the no-match sentinel answer.
func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TopK <= 0 {
		req.TopK = 5
	}
	if len(req.Roles) == 0 {
		respondWithClientError(c, http.StatusBadRequest, "At least one role is required")
		return
	}

	resp, err := h.retriever.Search(c.Request.Context(), req.Query, req.Roles, req.TopK)
	if err != nil {
		switch {
		case apperrors.IsInvalidInput(err):
			respondWithClientError(c, http.StatusBadRequest, err.Error())
		case apperrors.IsIndexUnavailable(err):
			respondWithError(c, http.StatusServiceUnavailable, err,
				"Index not built yet, trigger /index first", h.logger)
		default:
			respondWithError(c, http.StatusInternalServerError, err,
				"Search failed", h.logger, zap.String("query", req.Query))
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RebuildIndex runs the full ingestion pipeline synchronously and swaps
// the new index in on success.
func (h *SearchHandler) RebuildIndex(c *gin.Context) {
	var req IndexRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondWithClientError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	sourceDir := req.SourceDir
	if sourceDir == "" {
		sourceDir = h.config.CorpusDir
	}

	if err := h.retriever.BuildIndex(c.Request.Context(), sourceDir); err != nil {
		switch {
		case apperrors.IsBuildInProgress(err):
			respondWithClientError(c, http.StatusConflict, "A rebuild is already running")
		case apperrors.IsEmptyCorpus(err):
			respondWithClientError(c, http.StatusUnprocessableEntity,
				"No indexable documents found in "+sourceDir)
		default:
			respondWithError(c, http.StatusInternalServerError, err,
				"Index build failed", h.logger, zap.String("source_dir", sourceDir))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"chunks": h.retriever.ChunkCount(),
	})
}

// Health reports process liveness and whether an index is loaded.
func (h *SearchHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"loaded": h.retriever.Loaded(),
		"chunks": h.retriever.ChunkCount(),
	})
}
