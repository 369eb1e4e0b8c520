package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/ports/driven"
)

// AnchorResolver locates text fragments inside a document.
// It is a pure function of (document version, text).
type AnchorResolver struct{}

// NewAnchorResolver creates a new anchor resolver.
func NewAnchorResolver() *AnchorResolver {
	return &AnchorResolver{}
}

// flatText is the document text concatenated across structural nodes,
// with the document offset of every rune.
type flatText struct {
	text    string
	offsets []int
}

// flatten walks the document nodes in reading order. Gaps between nodes
// are filled from TextBetween so a fragment may span node boundaries.
func flatten(doc driven.Document) flatText {
	var b strings.Builder
	var offsets []int
	next := 0

	appendText := func(start int, s string) {
		i := 0
		for _, r := range s {
			b.WriteRune(r)
			offsets = append(offsets, start+i)
			i++
		}
	}

	doc.ForEachNode(func(n driven.Node) bool {
		if n.Offset > next {
			appendText(next, doc.TextBetween(next, n.Offset))
		}
		appendText(n.Offset, n.Text)
		next = n.Offset + utf8.RuneCountInString(n.Text)
		return true
	})

	return flatText{text: b.String(), offsets: offsets}
}

// occurrences returns the rune index of every non-overlapping match of needle.
func (f flatText) occurrences(needle string, limit int) []int {
	var out []int
	byteStart := 0
	runeStart := 0
	needleRunes := utf8.RuneCountInString(needle)
	for byteStart <= len(f.text) {
		idx := strings.Index(f.text[byteStart:], needle)
		if idx < 0 {
			break
		}
		runeIdx := runeStart + utf8.RuneCountInString(f.text[byteStart:byteStart+idx])
		out = append(out, runeIdx)
		if limit > 0 && len(out) >= limit {
			break
		}
		byteStart += idx + len(needle)
		runeStart = runeIdx + needleRunes
	}
	return out
}

// rangeAt maps a match at rune index i to document offsets.
func (f flatText) rangeAt(i, runeLen int, version uint64) domain.TextRange {
	from := f.offsets[i]
	to := f.offsets[i+runeLen-1] + 1
	return domain.NewTextRange(from, to, version)
}

// FindExact returns the first occurrence of text in reading order.
// Returns domain.ErrAnchorNotFound when text is absent or empty.
func (a *AnchorResolver) FindExact(doc driven.Document, text string) (domain.TextRange, error) {
	all, err := a.find(doc, text, 1)
	if err != nil {
		return domain.TextRange{}, err
	}
	return all[0], nil
}

// FindAll returns every non-overlapping occurrence of text in reading order.
func (a *AnchorResolver) FindAll(doc driven.Document, text string) ([]domain.TextRange, error) {
	return a.find(doc, text, 0)
}

// FindNear returns the occurrence of text whose start is closest to hint.
// Ties go to the lowest offset.
func (a *AnchorResolver) FindNear(doc driven.Document, text string, hint int) (domain.TextRange, error) {
	all, err := a.find(doc, text, 0)
	if err != nil {
		return domain.TextRange{}, err
	}
	best := all[0]
	for _, r := range all[1:] {
		if absInt(r.From-hint) < absInt(best.From-hint) {
			best = r
		}
	}
	return best, nil
}

func (a *AnchorResolver) find(doc driven.Document, text string, limit int) ([]domain.TextRange, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrAnchorNotFound)
	}

	flat := flatten(doc)
	hits := flat.occurrences(text, limit)
	if len(hits) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrAnchorNotFound, truncate(text, 40))
	}

	version := doc.Version()
	runeLen := utf8.RuneCountInString(text)
	out := make([]domain.TextRange, len(hits))
	for i, h := range hits {
		out[i] = flat.rangeAt(h, runeLen, version)
	}
	return out, nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// truncate shortens s to at most n runes for log and error messages.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
