package normalize

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercase_and_trim",
			input: "  Article 5 Penalty  ",
			want:  "article 5 penalty",
		},
		{
			name:  "typographic_quotes",
			input: "“Restricted” ‘terms’",
			want:  `"restricted" 'terms'`,
		},
		{
			name:  "whitespace_collapse",
			input: "line one\n\tline\r\ntwo   three",
			want:  "line one line two three",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "only_whitespace",
			input: " \n\t ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Article 5 “Penalty” for\nViolation",
		"   ",
		"already normalized text",
		"MIXED\tCase’s   Input",
	}
	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Article 5: Penalty,\nfor violation")
	want := []string{"article", "5:", "penalty,", "for", "violation"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}

	if toks := Tokenize("   "); toks != nil {
		t.Errorf("Tokenize(whitespace) = %v, want nil", toks)
	}
}

func TestVocabTokens(t *testing.T) {
	tokens := []string{"a", "of", "law", "penalty"}
	got := VocabTokens(tokens, 3)
	want := []string{"law", "penalty"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("VocabTokens() = %v, want %v", got, want)
	}

	if got := VocabTokens(tokens, 0); !reflect.DeepEqual(got, tokens) {
		t.Errorf("VocabTokens(minLen=0) = %v, want unchanged %v", got, tokens)
	}
}
