package driven

import "github.com/custodia-labs/draftline/internal/core/domain"

// Node is a run of text inside one structural node of the document.
// Offset is the rune offset of the first rune of Text.
type Node struct {
	Offset int
	Text   string
}

// Document is the editor collaborator the overlay reads and marks.
// The overlay never mutates document content.
//
// Offsets are rune offsets and are only valid for the Version that
// produced them. Structural breaks appear in the text as "\n\n".
type Document interface {
	// Version increases on every content edit.
	Version() uint64

	// TextLength returns the document length in runes.
	TextLength() int

	// TextBetween returns the text in [from, to). Out-of-range bounds are clamped.
	TextBetween(from, to int) string

	// ForEachNode visits text nodes in reading order until fn returns false.
	ForEachNode(fn func(node Node) bool)

	// ApplyMark tags a range with a renderable mark. Re-applying an existing
	// markID moves it.
	ApplyMark(r domain.TextRange, markID string, attrs map[string]string) error

	// RemoveMark removes a mark. Removing an unknown mark is not an error.
	RemoveMark(markID string)

	// MarkRange returns the current position of a mark. The editor keeps
	// mark positions up to date across edits.
	MarkRange(markID string) (domain.TextRange, bool)
}
