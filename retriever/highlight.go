package retriever

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"article-finder/normalize"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"
)

// buildExcerpt produces the displayed excerpt for a surfaced chunk: a
// fixed-length prefix of the original text, truncated at a sentence
// boundary when possible, with query-token occurrences wrapped in a
// lexical match marker and, optionally, semantically close words wrapped
// in a distinct marker.
func (r *Retriever) buildExcerpt(ctx context.Context, text string, qTokens []string, qEmb []float32) string {
	excerpt := truncateAtSentence(text, r.cfg.ExcerptLength)

	var semWords []string
	if r.cfg.SemanticHighlightEnabled && qEmb != nil {
		semWords = r.semanticWords(ctx, excerpt, qTokens, qEmb)
	}
	return markMatches(excerpt, qTokens, semWords)
}

// truncateAtSentence cuts text to at most maxLen runes, preferring to end
// on a sentence boundary so excerpts do not trail off mid-clause.
func truncateAtSentence(text string, maxLen int) string {
	if maxLen <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	prefix := string(runes[:maxLen])

	doc, err := prose.NewDocument(prefix,
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		return prefix
	}
	sentences := doc.Sentences()
	if len(sentences) < 2 {
		return prefix
	}
	// Drop the final, almost certainly truncated sentence.
	var b strings.Builder
	for _, s := range sentences[:len(sentences)-1] {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// markMatches wraps every occurrence of a query token in <mark> and every
// semantically matched word in <mark class="semantic">, in a single pass
// so markers never nest inside each other.
func markMatches(excerpt string, qTokens []string, semWords []string) string {
	lexSet := make(map[string]bool, len(qTokens))
	var words []string
	for _, tok := range qTokens {
		if tok == "" {
			continue
		}
		lexSet[strings.ToLower(tok)] = true
		words = append(words, tok)
	}
	for _, w := range semWords {
		if w != "" && !lexSet[strings.ToLower(w)] {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return excerpt
	}

	// Longer alternatives first so "penalties" wins over "penalty".
	sort.SliceStable(words, func(a, b int) bool { return len(words[a]) > len(words[b]) })
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	re, err := regexp.Compile(`(?i)(` + strings.Join(quoted, "|") + `)`)
	if err != nil {
		return excerpt
	}

	return re.ReplaceAllStringFunc(excerpt, func(m string) string {
		if lexSet[strings.ToLower(m)] {
			return "<mark>" + m + "</mark>"
		}
		return `<mark class="semantic">` + m + `</mark>`
	})
}

// semanticWords picks up to the configured number of excerpt words whose
// individual embeddings are closest to the query embedding, skipping
// literal query tokens. This distinguishes "matched your meaning" from
// "matched your words" in the rendered excerpt.
func (r *Retriever) semanticWords(ctx context.Context, excerpt string, qTokens []string, qEmb []float32) []string {
	lexSet := make(map[string]bool, len(qTokens))
	for _, tok := range qTokens {
		lexSet[tok] = true
	}

	type scored struct {
		word string
		sim  float64
	}
	var candidates []scored
	seen := make(map[string]bool)

	for _, word := range normalize.Tokenize(excerpt) {
		if len([]rune(word)) < r.cfg.MinTokenLength || lexSet[word] || seen[word] {
			continue
		}
		seen[word] = true

		wordEmb, err := r.embed(ctx, word)
		if err != nil {
			r.logger.Debug("Word embedding failed during semantic highlight",
				zap.String("word", word),
				zap.Error(err))
			continue
		}
		sim := dotProduct(qEmb, wordEmb)
		if sim >= r.cfg.SemanticHighlightFloor {
			candidates = append(candidates, scored{word: word, sim: sim})
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool { return candidates[a].sim > candidates[b].sim })
	maxWords := r.cfg.SemanticHighlightMaxWords
	if maxWords <= 0 {
		maxWords = 8
	}
	if len(candidates) > maxWords {
		candidates = candidates[:maxWords]
	}

	words := make([]string, len(candidates))
	for i, c := range candidates {
		words[i] = c.word
	}
	return words
}

// dotProduct of two L2-normalized vectors is their cosine similarity.
func dotProduct(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
