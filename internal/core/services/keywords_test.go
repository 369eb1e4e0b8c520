package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"drops stopwords and short words", "The cat ran fast.", []string{"cat", "ran", "fast"}},
		{"lowercases and dedupes", "Cats, cats and CATS!", []string{"cats"}},
		{"splits on punctuation", "well-known re-entry", []string{"well", "known", "entry"}},
		{"keeps digits", "In 2024 the API grew", []string{"2024", "api", "grew"}},
		{"nothing significant", "It is on to a", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKeywords(tt.in))
		})
	}
}

func TestKeywordScore(t *testing.T) {
	keywords := []string{"cat", "ran", "fast"}

	tests := []struct {
		name      string
		candidate string
		want      float64
	}{
		{"identical", "The cat ran fast.", 1},
		{"keyword inside token", "The cats ran faster.", 1},
		{"short tokens are ignored", "The ca ran.", 1.0 / 3},
		{"synonyms do not match", "The feline sprinted quickly.", 0},
		{"partial", "A cat sat.", 1.0 / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KeywordScore(keywords, tt.candidate)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestKeywordScore_NoKeywords(t *testing.T) {
	assert.Zero(t, KeywordScore(nil, "anything at all"))
}

func TestKeywordScore_TokenInsideKeyword(t *testing.T) {
	assert.InDelta(t, 0.5, KeywordScore([]string{"running", "quietly"}, "They run home."), 1e-9)
}

func TestKeywordScore_IgnoresFilteredCandidateTokens(t *testing.T) {
	// "the" is a stopword and "at" is too short, so neither can match.
	assert.Zero(t, KeywordScore([]string{"theme", "atlas"}, "The cat sat at the mat."))
	assert.InDelta(t, 0.5, KeywordScore([]string{"theme", "catalog"}, "The cat sat at the mat."), 1e-9)
}
