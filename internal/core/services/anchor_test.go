package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docmem "github.com/custodia-labs/draftline/internal/adapters/driven/document/memory"
	"github.com/custodia-labs/draftline/internal/core/domain"
)

const catText = "The cat sat. The cat ran fast."

func TestAnchorResolver_FindExact(t *testing.T) {
	doc := docmem.New(catText)
	resolver := NewAnchorResolver()

	r, err := resolver.FindExact(doc, "The cat ran fast.")

	require.NoError(t, err)
	assert.Equal(t, domain.NewTextRange(13, 30, doc.Version()), r)
	assert.Equal(t, "The cat ran fast.", doc.TextBetween(r.From, r.To))
}

func TestAnchorResolver_FindExact_FirstOccurrence(t *testing.T) {
	doc := docmem.New(catText)

	r, err := NewAnchorResolver().FindExact(doc, "The cat")

	require.NoError(t, err)
	assert.Equal(t, 0, r.From)
	assert.Equal(t, 7, r.To)
}

func TestAnchorResolver_FindExact_Deterministic(t *testing.T) {
	doc := docmem.New(catText)
	resolver := NewAnchorResolver()

	first, err := resolver.FindExact(doc, "cat")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := resolver.FindExact(doc, "cat")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAnchorResolver_FindExact_CrossBoundary(t *testing.T) {
	tests := []struct {
		name string
		doc  *docmem.Document
		text string
		want [2]int
	}{
		{
			name: "inline segments",
			doc:  docmem.FromSegments("The cat ", "ran ", "fast."),
			text: "cat ran fast",
			want: [2]int{4, 16},
		},
		{
			name: "paragraph break",
			doc:  docmem.FromParagraphs("One.", "Two."),
			text: "One.\n\nTwo",
			want: [2]int{0, 9},
		},
		{
			name: "multibyte runes",
			doc:  docmem.New("Café au lait. Très bien."),
			text: "Très",
			want: [2]int{14, 18},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewAnchorResolver().FindExact(tt.doc, tt.text)

			require.NoError(t, err)
			assert.Equal(t, tt.want, [2]int{r.From, r.To})
			assert.Equal(t, tt.text, tt.doc.TextBetween(r.From, r.To))
		})
	}
}

func TestAnchorResolver_FindExact_NotFound(t *testing.T) {
	doc := docmem.New(catText)
	resolver := NewAnchorResolver()

	_, err := resolver.FindExact(doc, "The dog")
	assert.ErrorIs(t, err, domain.ErrAnchorNotFound)

	_, err = resolver.FindExact(doc, "")
	assert.ErrorIs(t, err, domain.ErrAnchorNotFound)
}

func TestAnchorResolver_FindAll(t *testing.T) {
	doc := docmem.New(catText)

	all, err := NewAnchorResolver().FindAll(doc, "The cat")

	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 0, all[0].From)
	assert.Equal(t, 13, all[1].From)
}

func TestAnchorResolver_FindNear(t *testing.T) {
	doc := docmem.New(catText)
	resolver := NewAnchorResolver()

	r, err := resolver.FindNear(doc, "The cat", 20)
	require.NoError(t, err)
	assert.Equal(t, 13, r.From)

	r, err = resolver.FindNear(doc, "The cat", 2)
	require.NoError(t, err)
	assert.Equal(t, 0, r.From)
}

func TestAnchorResolver_FindNear_TieGoesToLowestOffset(t *testing.T) {
	doc := docmem.New("ab  ab")

	r, err := NewAnchorResolver().FindNear(doc, "ab", 2)

	require.NoError(t, err)
	assert.Equal(t, 0, r.From)
}
