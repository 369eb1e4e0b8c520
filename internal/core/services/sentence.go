package services

import (
	"unicode"

	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/ports/driven"
)

// Sentence is one sentence candidate found in a text.
type Sentence struct {
	// Text is the sentence with surrounding whitespace trimmed.
	Text string

	// Range locates Text in the scanned text.
	Range domain.TextRange

	// Paragraph is the 0-based index of the paragraph containing the sentence.
	Paragraph int

	// Index is the 0-based position of the sentence within its paragraph.
	Index int
}

// SentenceExpander grows ranges to the smallest enclosing sentence.
type SentenceExpander struct{}

// NewSentenceExpander creates a new sentence expander.
func NewSentenceExpander() *SentenceExpander {
	return &SentenceExpander{}
}

// Expand returns the sentence enclosing r. The result never shrinks:
// result.From <= r.From and result.To >= r.To. Expanding a full sentence
// returns it unchanged.
func (e *SentenceExpander) Expand(doc driven.Document, r domain.TextRange) domain.TextRange {
	text := []rune(doc.TextBetween(0, doc.TextLength()))
	return expandRunes(text, r).WithVersion(doc.Version())
}

// Sentences splits the document into sentence candidates.
func (e *SentenceExpander) Sentences(doc driven.Document) []Sentence {
	out := SplitSentences(doc.TextBetween(0, doc.TextLength()))
	version := doc.Version()
	for i := range out {
		out[i].Range.Version = version
	}
	return out
}

// expandRunes implements Expand over an in-memory text.
func expandRunes(text []rune, r domain.TextRange) domain.TextRange {
	n := len(text)
	from := clampInt(r.From, 0, n)
	to := clampInt(r.To, from, n)

	start := from
	for i := from - 1; i >= 0; i-- {
		if inParagraphBreak(text, i) || isSentenceEnd(text, i) {
			break
		}
		start = i
	}
	for start < from && unicode.IsSpace(text[start]) {
		start++
	}

	end := to
	if !(to > from && isSentenceEnd(text, to-1)) {
		for i := to; i < n; i++ {
			if inParagraphBreak(text, i) {
				break
			}
			end = i + 1
			if isSentenceEnd(text, i) {
				break
			}
		}
	}

	return domain.TextRange{From: start, To: end}
}

// SplitSentences splits text into trimmed sentences using the same
// boundary rules as Expand.
func SplitSentences(s string) []Sentence {
	text := []rune(s)
	n := len(text)

	var out []Sentence
	para, idx := 0, 0
	paraHasText := false
	start := 0

	emit := func(from, to int) {
		for from < to && unicode.IsSpace(text[from]) {
			from++
		}
		for to > from && unicode.IsSpace(text[to-1]) {
			to--
		}
		if from == to {
			return
		}
		out = append(out, Sentence{
			Text:      string(text[from:to]),
			Range:     domain.TextRange{From: from, To: to},
			Paragraph: para,
			Index:     idx,
		})
		idx++
		paraHasText = true
	}

	for i := 0; i < n; i++ {
		if isParagraphBreak(text, i) {
			emit(start, i)
			j := i
			for j < n && text[j] == '\n' {
				j++
			}
			if paraHasText {
				para++
			}
			idx, paraHasText = 0, false
			start = j
			i = j - 1
			continue
		}
		if isSentenceEnd(text, i) {
			emit(start, i+1)
			start = i + 1
		}
	}
	emit(start, n)

	return out
}

// sentenceAt returns the sentence containing offset, or the last one
// starting before it.
func sentenceAt(sentences []Sentence, offset int) (Sentence, bool) {
	var found Sentence
	ok := false
	for _, s := range sentences {
		if s.Range.From > offset {
			break
		}
		found, ok = s, true
		if offset < s.Range.To {
			break
		}
	}
	return found, ok
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// isSentenceEnd reports whether text[i] terminates a sentence: a terminator
// followed by whitespace or the end of the text.
func isSentenceEnd(text []rune, i int) bool {
	if !isTerminator(text[i]) {
		return false
	}
	return i+1 == len(text) || unicode.IsSpace(text[i+1])
}

// isParagraphBreak reports whether a paragraph break starts at i.
func isParagraphBreak(text []rune, i int) bool {
	return text[i] == '\n' && i+1 < len(text) && text[i+1] == '\n'
}

// inParagraphBreak reports whether text[i] is part of a paragraph break.
func inParagraphBreak(text []rune, i int) bool {
	return isParagraphBreak(text, i) || (text[i] == '\n' && i > 0 && text[i-1] == '\n')
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
