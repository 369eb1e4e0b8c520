package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTextRange_SwapsReversedBounds(t *testing.T) {
	r := NewTextRange(10, 4, 3)

	assert.Equal(t, 4, r.From)
	assert.Equal(t, 10, r.To)
	assert.Equal(t, uint64(3), r.Version)
}

func TestTextRange_Len(t *testing.T) {
	tests := []struct {
		name string
		r    TextRange
		want int
	}{
		{"normal", TextRange{From: 13, To: 30}, 17},
		{"empty", TextRange{From: 5, To: 5}, 0},
		{"inverted", TextRange{From: 9, To: 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Len())
			assert.Equal(t, tt.want == 0, tt.r.IsEmpty())
		})
	}
}

func TestTextRange_ContainsAndOverlaps(t *testing.T) {
	sentence := TextRange{From: 13, To: 30}

	assert.True(t, sentence.Contains(TextRange{From: 17, To: 24}))
	assert.True(t, sentence.Contains(sentence))
	assert.False(t, sentence.Contains(TextRange{From: 10, To: 20}))

	assert.True(t, sentence.Overlaps(TextRange{From: 29, To: 40}))
	assert.False(t, sentence.Overlaps(TextRange{From: 30, To: 40}), "half-open ranges touching at 30 do not overlap")
	assert.False(t, sentence.Overlaps(TextRange{From: 0, To: 13}))
}

func TestTextRange_InBounds(t *testing.T) {
	assert.True(t, TextRange{From: 0, To: 30}.InBounds(30))
	assert.True(t, TextRange{From: 30, To: 30}.InBounds(30))
	assert.False(t, TextRange{From: 13, To: 31}.InBounds(30))
	assert.False(t, TextRange{From: -1, To: 3}.InBounds(30))
	assert.False(t, TextRange{From: 5, To: 3}.InBounds(30))
}

func TestTextRange_IsStale(t *testing.T) {
	r := TextRange{From: 1, To: 2, Version: 4}

	assert.False(t, r.IsStale(4))
	assert.True(t, r.IsStale(5))
	assert.False(t, r.WithVersion(5).IsStale(5))
	assert.Equal(t, uint64(4), r.Version, "WithVersion must not mutate the receiver")
}

func TestTextRange_String(t *testing.T) {
	assert.Equal(t, "[13, 30)@2", TextRange{From: 13, To: 30, Version: 2}.String())
}
