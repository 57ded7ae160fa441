// Package normalize canonicalizes document and query text so that lexical
// scoring and substring checks operate on a single, stable representation.
package normalize

import (
	"strings"
)

var quoteReplacer = strings.NewReplacer(
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"‘", "'", // left single quote
	"’", "'", // right single quote
)

// Normalize lowercases the input, converts typographic quotes to their
// ASCII equivalents, collapses whitespace runs to single spaces and trims.
// It is total over any string (empty in, empty out) and idempotent.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = quoteReplacer.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

// Tokenize normalizes the input and splits it on whitespace.
func Tokenize(text string) []string {
	norm := Normalize(text)
	if norm == "" {
		return nil
	}
	return strings.Split(norm, " ")
}

// VocabTokens filters out tokens shorter than minLen runes. Short tokens
// add vocabulary noise without carrying retrieval signal.
func VocabTokens(tokens []string, minLen int) []string {
	if minLen <= 0 {
		return tokens
	}
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if len([]rune(tok)) >= minLen {
			kept = append(kept, tok)
		}
	}
	return kept
}
