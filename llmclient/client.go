// Package llmclient talks to a llama.cpp-compatible embeddings endpoint.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"article-finder/config"

	"go.uber.org/zap"
)

// Embedding request/response mirror llama.cpp's expected schema
type embeddingRequest struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
}

type embeddingResponse []struct {
	Embedding [][]float32 `json:"embedding"`
}

type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.EmbedRequestTimeout},
		logger:     logger,
	}
}

func (c *Client) backoffSleep(attempt int) {
	// Exponential backoff with a small jitter
	base := c.cfg.RetryDelaySeconds
	if base <= 0 {
		base = time.Second // config normalization should prevent this
	}
	d := base * time.Duration(1<<attempt)
	jitter := time.Duration(float64(d) * 0.1)
	time.Sleep(d - jitter + time.Duration(time.Now().UnixNano()%int64(2*jitter+1)))
}

// Embed generates an embedding vector for the provided document using the
// llama.cpp-compatible embeddings endpoint.
func (c *Client) Embed(ctx context.Context, host string, doc string) ([]float32, error) {
	reqBody := embeddingRequest{Content: doc, Model: c.cfg.EmbeddingModel}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/embeddings", strings.TrimRight(host, "/"))
	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("create embedding request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		r, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if r.StatusCode == http.StatusServiceUnavailable {
			// Model loading; retry with backoff
			io.Copy(io.Discard, r.Body)
			r.Body.Close()
			c.logger.Warn("Embedding model loading, retrying")
			c.backoffSleep(attempt)
			continue
		}

		resp = r
		break
	}
	if resp == nil {
		return nil, fmt.Errorf("no response from embedding server: %w", lastErr)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding server status %s: %s", resp.Status, string(bodyBytes))
	}

	var er embeddingResponse
	if err := json.Unmarshal(bodyBytes, &er); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(er) == 0 || len(er[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding response was empty")
	}
	return er[0].Embedding[0], nil
}
