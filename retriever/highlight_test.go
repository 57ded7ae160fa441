package retriever

import (
	"strings"
	"testing"
)

func TestMarkMatchesLexical(t *testing.T) {
	got := markMatches("The Penalty for any violation applies.", []string{"penalty", "violation"}, nil)
	want := "The <mark>Penalty</mark> for any <mark>violation</mark> applies."
	if got != want {
		t.Errorf("markMatches = %q, want %q", got, want)
	}
}

func TestMarkMatchesSemantic(t *testing.T) {
	got := markMatches("A fine is due on breach.", []string{"penalty"}, []string{"fine"})
	if !strings.Contains(got, `<mark class="semantic">fine</mark>`) {
		t.Errorf("semantic word should carry the semantic marker, got %q", got)
	}
	if strings.Contains(got, "<mark>fine</mark>") {
		t.Errorf("semantic word must not use the lexical marker, got %q", got)
	}
}

func TestMarkMatchesNoTokens(t *testing.T) {
	const text = "Nothing to see here."
	if got := markMatches(text, nil, nil); got != text {
		t.Errorf("markMatches with no tokens = %q, want unchanged", got)
	}
}

func TestMarkMatchesLongestWins(t *testing.T) {
	// "penalties" must be matched whole rather than leaving a marked
	// "penalty" prefix with a dangling suffix.
	got := markMatches("Several penalties apply.", []string{"penalty"}, []string{"penalties"})
	if !strings.Contains(got, `<mark class="semantic">penalties</mark>`) {
		t.Errorf("longest alternative should win, got %q", got)
	}
}

func TestTruncateAtSentence(t *testing.T) {
	text := "First sentence here. Second sentence here. Third sentence tail that gets cut off midway."

	got := truncateAtSentence(text, 60)
	if strings.Contains(got, "Third") {
		t.Errorf("truncated sentence should be dropped, got %q", got)
	}
	if !strings.HasSuffix(got, "Second sentence here.") {
		t.Errorf("excerpt should end on a sentence boundary, got %q", got)
	}

	if got := truncateAtSentence(text, 1000); got != text {
		t.Errorf("text under the limit must pass through, got %q", got)
	}
	if got := truncateAtSentence(text, 0); got != text {
		t.Errorf("non-positive limit disables truncation, got %q", got)
	}
}
