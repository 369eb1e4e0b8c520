package domain

import "fmt"

// TextRange is a half-open span [From, To) of rune offsets into a document.
// A range is only meaningful against the document version that produced it.
type TextRange struct {
	// From is the inclusive start offset.
	From int `json:"from" yaml:"from"`

	// To is the exclusive end offset.
	To int `json:"to" yaml:"to"`

	// Version is the document version the offsets were computed against.
	Version uint64 `json:"version" yaml:"version"`
}

// NewTextRange returns a range for [from, to) stamped with version.
// Reversed bounds are swapped.
func NewTextRange(from, to int, version uint64) TextRange {
	if to < from {
		from, to = to, from
	}
	return TextRange{From: from, To: to, Version: version}
}

// Len returns the number of runes covered by the range.
func (r TextRange) Len() int {
	if r.To < r.From {
		return 0
	}
	return r.To - r.From
}

// IsEmpty reports whether the range covers no text.
func (r TextRange) IsEmpty() bool {
	return r.Len() == 0
}

// Contains reports whether r fully covers other.
func (r TextRange) Contains(other TextRange) bool {
	return r.From <= other.From && r.To >= other.To
}

// Overlaps reports whether the two ranges share at least one rune.
func (r TextRange) Overlaps(other TextRange) bool {
	return r.From < other.To && other.From < r.To
}

// InBounds reports whether the range lies within a document of the given length.
func (r TextRange) InBounds(length int) bool {
	return r.From >= 0 && r.From <= r.To && r.To <= length
}

// IsStale reports whether the range was produced against a different version.
func (r TextRange) IsStale(version uint64) bool {
	return r.Version != version
}

// WithVersion returns a copy of the range stamped with version.
func (r TextRange) WithVersion(version uint64) TextRange {
	r.Version = version
	return r
}

// String returns the range in [from, to)@version form.
func (r TextRange) String() string {
	return fmt.Sprintf("[%d, %d)@%d", r.From, r.To, r.Version)
}
