package retriever

import (
	"math"
	"reflect"
	"testing"

	"article-finder/config"
)

func almostEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestNormalizeScoresMinMax(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   []float64
	}{
		{
			name:   "spread maps to unit interval",
			scores: []float64{2, 6, 4},
			want:   []float64{0, 1, 0.5},
		},
		{
			name:   "all equal carries no signal",
			scores: []float64{3, 3, 3},
			want:   []float64{0, 0, 0},
		},
		{
			name:   "empty",
			scores: nil,
			want:   []float64{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeScores(tt.scores, config.NormalizeMinMax, 5)
			if !almostEqual(got, tt.want) {
				t.Errorf("normalizeScores(%v) = %v, want %v", tt.scores, got, tt.want)
			}
		})
	}
}

func TestNormalizeScoresTopMean(t *testing.T) {
	// Top-2 mean of {8, 4} is 6; values divide by 6 and clip at 1.
	got := normalizeScores([]float64{8, 4, 3, 0}, config.NormalizeTopMean, 2)
	want := []float64{1, 4.0 / 6.0, 0.5, 0}
	if !almostEqual(got, want) {
		t.Errorf("topmean normalization = %v, want %v", got, want)
	}

	// A zero vector must stay zero, not divide by zero.
	got = normalizeScores([]float64{0, 0}, config.NormalizeTopMean, 5)
	if !almostEqual(got, []float64{0, 0}) {
		t.Errorf("topmean over zeros = %v, want zeros", got)
	}
}

func TestRankDescending(t *testing.T) {
	order := rankDescending([]float64{0.2, 0.9, 0.2, 0.5})
	want := []int{1, 3, 0, 2}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("rankDescending = %v, want %v (ties keep corpus order)", order, want)
	}
}

func TestRoundScore(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.12349, 0.123},
		{0.1235, 0.124},
		{1.25, 1.25},
		{0, 0},
	}
	for _, tt := range tests {
		if got := roundScore(tt.in); got != tt.want {
			t.Errorf("roundScore(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
