package retriever

import (
	"context"
	"math"
	"sort"
	"strings"

	"article-finder/config"
	apperrors "article-finder/errors"
	"article-finder/normalize"

	"go.uber.org/zap"
)

// Search runs hybrid retrieval for a query on behalf of a caller holding
// the given roles. Fusion and ranking are role-agnostic; access control
// is applied while walking the ranked list. The computation is pure over
// the loaded snapshot, so concurrent callers need no locking.
func (r *Retriever) Search(ctx context.Context, query string, roles []string, topk int) (*Response, error) {
	qNorm := strings.TrimSpace(query)
	if qNorm == "" {
		return nil, apperrors.WrapError(apperrors.ErrInvalidInput, "empty query")
	}
	if topk <= 0 {
		return nil, apperrors.WrapError(apperrors.ErrInvalidInput, "topk must be positive")
	}

	snap := r.currentSnapshot()
	if snap == nil {
		return nil, apperrors.ErrIndexUnavailable
	}

	qNorm = normalize.Normalize(query)
	qTokens := strings.Split(qNorm, " ")

	lexRaw := snap.lexical.Scores(qTokens)
	semRaw, qEmb := r.semanticScores(ctx, snap, qNorm)

	lexNorm := normalizeScores(lexRaw, r.cfg.ScoreNormalization, r.cfg.TopMeanN)
	semNorm := normalizeScores(semRaw, r.cfg.ScoreNormalization, r.cfg.TopMeanN)

	fused := make([]float64, len(snap.chunks))
	for i := range snap.chunks {
		fused[i] = r.cfg.Alpha*semNorm[i] + (1-r.cfg.Alpha)*lexNorm[i]

		// Literal containment is strong evidence on its own, independent
		// of the statistical fusion.
		if strings.Contains(snap.chunks[i].NormText, qNorm) {
			fused[i] += r.cfg.LiteralMatchBoost
		} else if !sharesAnyToken(snap.chunks[i].NormText, qTokens) {
			// Push weak semantic-only matches below the relevance floor.
			fused[i] -= r.cfg.ZeroOverlapPenalty
		}
	}

	order := rankDescending(fused)

	results := make([]ResultItem, 0, topk)
	for _, i := range order {
		if len(results) >= topk {
			break
		}
		chunk := &snap.chunks[i]
		if !chunk.HasAnyRole(roles) {
			continue
		}
		if fused[i] < r.cfg.RelevanceFloor {
			continue
		}
		results = append(results, ResultItem{
			DocID:     chunk.DocID,
			ArticleNo: chunk.ArticleNo,
			PageStart: chunk.PageStart,
			PageEnd:   chunk.PageEnd,
			Score:     roundScore(fused[i]),
			Roles:     chunk.Roles,
			Excerpt:   r.buildExcerpt(ctx, chunk.Text, qTokens, qEmb),
		})
	}

	if len(results) == 0 {
		results = r.fallbackSearch(ctx, snap, qNorm, qTokens, lexRaw, roles, topk)
	}

	resp := &Response{Results: results}
	if len(results) > 0 {
		resp.Answer = results[0].Excerpt
	} else {
		resp.Answer = NoMatchAnswer
	}

	r.logger.Debug("Search completed",
		zap.String("query", query),
		zap.Strings("roles", roles),
		zap.Int("results", len(results)))
	return resp, nil
}

// semanticScores fills one similarity score per chunk from the top-K
// nearest-neighbor pass. Candidates below the similarity floor, and every
// chunk outside the candidate pool, score zero rather than being dropped,
// so lexical evidence alone can still surface them. Embedding failures
// degrade to lexical-only scoring instead of failing the query.
func (r *Retriever) semanticScores(ctx context.Context, snap *snapshot, qNorm string) ([]float64, []float32) {
	scores := make([]float64, len(snap.chunks))

	qEmb, err := r.embed(ctx, qNorm)
	if err != nil {
		r.logger.Warn("Query embedding failed, using lexical scores only", zap.Error(err))
		return scores, nil
	}

	hits, err := snap.vectors.Search(ctx, qEmb, r.cfg.SemanticCandidates)
	if err != nil {
		r.logger.Warn("Vector search failed, using lexical scores only", zap.Error(err))
		return scores, qEmb
	}

	for _, hit := range hits {
		if hit.Similarity < r.cfg.SemanticSimilarityFloor {
			continue
		}
		if pos, ok := snap.byID[hit.ChunkID]; ok {
			scores[pos] = hit.Similarity
		}
	}
	return scores, qEmb
}

// fallbackSearch is the looser second pass used only when the fused pass
// surfaced nothing: pure lexical ranking on raw scores (normalization
// degenerates to zero exactly when every score is equal, which is when
// this pass matters), a strong bonus for literal containment, no
// relevance floor, role filter still enforced.
func (r *Retriever) fallbackSearch(ctx context.Context, snap *snapshot, qNorm string, qTokens []string, lexRaw []float64, roles []string, topk int) []ResultItem {
	var maxRaw float64
	for _, s := range lexRaw {
		if s > maxRaw {
			maxRaw = s
		}
	}
	scores := make([]float64, len(lexRaw))
	copy(scores, lexRaw)
	for i := range snap.chunks {
		// Literal containment outranks any purely statistical score.
		if strings.Contains(snap.chunks[i].NormText, qNorm) {
			scores[i] += maxRaw + 1.0
		}
	}

	order := rankDescending(scores)
	var results []ResultItem
	for _, i := range order {
		if len(results) >= topk {
			break
		}
		if scores[i] <= 0 {
			break
		}
		chunk := &snap.chunks[i]
		if !chunk.HasAnyRole(roles) {
			continue
		}
		results = append(results, ResultItem{
			DocID:     chunk.DocID,
			ArticleNo: chunk.ArticleNo,
			PageStart: chunk.PageStart,
			PageEnd:   chunk.PageEnd,
			Score:     roundScore(scores[i]),
			Roles:     chunk.Roles,
			Excerpt:   r.buildExcerpt(ctx, chunk.Text, qTokens, nil),
		})
	}
	if len(results) > 0 {
		r.logger.Debug("Fused pass empty, lexical fallback surfaced results",
			zap.Int("results", len(results)))
	}
	return results
}

func sharesAnyToken(normText string, tokens []string) bool {
	for _, tok := range tokens {
		if tok != "" && strings.Contains(normText, tok) {
			return true
		}
	}
	return false
}

// rankDescending returns corpus positions ordered by score descending,
// ties broken by original corpus order.
func rankDescending(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	return order
}

// normalizeScores maps a raw score vector into [0,1] under the configured
// policy. Scores are compared at full precision internally; rounding only
// happens at the reporting edge.
func normalizeScores(scores []float64, policy string, topN int) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	switch policy {
	case config.NormalizeTopMean:
		// Divide by the mean of the top N raw scores, clip to [0,1].
		// More stable than min-max when one outlier would compress all
		// other signal.
		if topN <= 0 {
			topN = 5
		}
		top := append([]float64(nil), scores...)
		sort.Sort(sort.Reverse(sort.Float64Slice(top)))
		if topN > len(top) {
			topN = len(top)
		}
		var sum float64
		for _, s := range top[:topN] {
			sum += s
		}
		mean := sum / float64(topN)
		if mean <= 0 {
			return out
		}
		for i, s := range scores {
			v := s / mean
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			out[i] = v
		}
		return out

	default: // min-max
		minVal, maxVal := scores[0], scores[0]
		for _, s := range scores[1:] {
			if s < minVal {
				minVal = s
			}
			if s > maxVal {
				maxVal = s
			}
		}
		if maxVal == minVal {
			// Degenerate vector carries no ranking signal.
			return out
		}
		for i, s := range scores {
			out[i] = (s - minVal) / (maxVal - minVal)
		}
		return out
	}
}

// roundScore rounds to 3 decimals for external reporting.
func roundScore(s float64) float64 {
	return math.Round(s*1000) / 1000
}
