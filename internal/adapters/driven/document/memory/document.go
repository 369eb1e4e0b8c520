// Package memory provides an in-memory rich-text document.
// It is the reference driven.Document used by the CLI and tests.
package memory

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.Document = (*Document)(nil)

// Mark is a mark applied to the document.
type Mark struct {
	ID    string
	Range domain.TextRange
	Attrs map[string]string
}

type mark struct {
	from, to int
	attrs    map[string]string
	seq      int
}

// Document is a thread-safe text document with structural nodes,
// a version counter and marks that follow edits.
//
// Nodes are the lines of the text further split at segment boundaries.
// Newlines belong to no node, so "\n\n" separates paragraphs.
type Document struct {
	mu      sync.RWMutex
	text    []rune
	bounds  []int
	version uint64
	marks   map[string]*mark
	seq     int
}

// New creates a document holding text. The first version is 1, so a
// zero-valued range is always stale.
func New(text string) *Document {
	return &Document{
		text:    []rune(normalise(text)),
		version: 1,
		marks:   make(map[string]*mark),
	}
}

// FromParagraphs joins paragraphs with blank lines.
func FromParagraphs(paragraphs ...string) *Document {
	return New(strings.Join(paragraphs, "\n\n"))
}

// FromSegments concatenates segments. Each segment boundary is also a node
// boundary, like inline formatting runs in a rich-text editor.
func FromSegments(segments ...string) *Document {
	d := New(strings.Join(segments, ""))
	offset := 0
	for _, s := range segments[:max(len(segments)-1, 0)] {
		offset += utf8.RuneCountInString(normalise(s))
		d.bounds = append(d.bounds, offset)
	}
	return d
}

// Load reads a UTF-8 text file into a document.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrInvalidInput, path)
	}
	return New(string(data)), nil
}

func normalise(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// Version returns the document version.
func (d *Document) Version() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// TextLength returns the length in runes.
func (d *Document) TextLength() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.text)
}

// Text returns the whole document.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return string(d.text)
}

// TextBetween returns the text in [from, to), clamped to the document.
func (d *Document) TextBetween(from, to int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	from, to = d.clamp(from, to)
	return string(d.text[from:to])
}

// ForEachNode visits text nodes in reading order.
func (d *Document) ForEachNode(fn func(node driven.Node) bool) {
	d.mu.RLock()
	nodes := d.nodes()
	d.mu.RUnlock()

	for _, n := range nodes {
		if !fn(n) {
			return
		}
	}
}

func (d *Document) nodes() []driven.Node {
	var out []driven.Node
	b := 0
	start := 0
	flush := func(end int) {
		if end > start {
			out = append(out, driven.Node{Offset: start, Text: string(d.text[start:end])})
		}
	}
	for i, r := range d.text {
		for b < len(d.bounds) && d.bounds[b] < i {
			b++
		}
		if b < len(d.bounds) && d.bounds[b] == i {
			flush(i)
			start = i
			b++
		}
		if r == '\n' {
			flush(i)
			start = i + 1
		}
	}
	flush(len(d.text))
	return out
}

// ApplyMark tags r with markID. Re-applying an existing id moves the mark.
func (d *Document) ApplyMark(r domain.TextRange, markID string, attrs map[string]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if markID == "" {
		return fmt.Errorf("%w: mark id is required", domain.ErrInvalidInput)
	}
	if r.IsStale(d.version) {
		return fmt.Errorf("%w: range %s, document at %d", domain.ErrStaleRange, r, d.version)
	}
	if r.IsEmpty() || !r.InBounds(len(d.text)) {
		return fmt.Errorf("%w: range %s outside document of length %d", domain.ErrInvalidInput, r, len(d.text))
	}

	copied := make(map[string]string, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	d.seq++
	d.marks[markID] = &mark{from: r.From, to: r.To, attrs: copied, seq: d.seq}
	return nil
}

// RemoveMark removes a mark.
func (d *Document) RemoveMark(markID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.marks, markID)
}

// MarkRange returns the current position of a mark.
func (d *Document) MarkRange(markID string) (domain.TextRange, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.marks[markID]
	if !ok {
		return domain.TextRange{}, false
	}
	return domain.TextRange{From: m.from, To: m.to, Version: d.version}, true
}

// Marks returns every mark ordered by start offset. Marks starting at the
// same offset are ordered by application, so later marks paint on top.
func (d *Document) Marks() []Mark {
	d.mu.RLock()
	defer d.mu.RUnlock()

	type entry struct {
		id string
		m  *mark
	}
	entries := make([]entry, 0, len(d.marks))
	for id, m := range d.marks {
		entries = append(entries, entry{id, m})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].m.from != entries[j].m.from {
			return entries[i].m.from < entries[j].m.from
		}
		return entries[i].m.seq < entries[j].m.seq
	})

	out := make([]Mark, len(entries))
	for i, e := range entries {
		attrs := make(map[string]string, len(e.m.attrs))
		for k, v := range e.m.attrs {
			attrs[k] = v
		}
		out[i] = Mark{
			ID:    e.id,
			Range: domain.TextRange{From: e.m.from, To: e.m.to, Version: d.version},
			Attrs: attrs,
		}
	}
	return out
}

// Insert inserts s at pos.
func (d *Document) Insert(pos int, s string) {
	d.Replace(pos, pos, s)
}

// Delete removes [from, to).
func (d *Document) Delete(from, to int) {
	d.Replace(from, to, "")
}

// Replace replaces [from, to) with s. Bounds are clamped. An edit that
// changes nothing does not bump the version. Marks shift with the text;
// a mark whose whole range is replaced is removed.
func (d *Document) Replace(from, to int, s string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	from, to = d.clamp(from, to)
	inserted := []rune(normalise(s))
	if from == to && len(inserted) == 0 {
		return
	}
	if string(d.text[from:to]) == string(inserted) {
		return
	}

	next := make([]rune, 0, len(d.text)-(to-from)+len(inserted))
	next = append(next, d.text[:from]...)
	next = append(next, inserted...)
	next = append(next, d.text[to:]...)
	d.text = next
	d.version++

	e := edit{from: from, to: to, inserted: len(inserted)}
	for id, m := range d.marks {
		m.from = e.mapPos(m.from, 1)
		m.to = e.mapPos(m.to, -1)
		if m.to <= m.from {
			delete(d.marks, id)
		}
	}

	bounds := d.bounds[:0]
	for _, b := range d.bounds {
		nb := e.mapPos(b, -1)
		if nb > 0 && nb < len(d.text) && (len(bounds) == 0 || bounds[len(bounds)-1] < nb) {
			bounds = append(bounds, nb)
		}
	}
	d.bounds = bounds
}

// SetText replaces the whole document, as when it is reloaded from disk.
// Marks and node boundaries are dropped.
func (d *Document) SetText(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	text := []rune(normalise(s))
	if string(text) == string(d.text) {
		return
	}
	d.text = text
	d.bounds = nil
	d.marks = make(map[string]*mark)
	d.version++
}

func (d *Document) clamp(from, to int) (int, int) {
	n := len(d.text)
	if from > to {
		from, to = to, from
	}
	from = min(max(from, 0), n)
	to = min(max(to, from), n)
	return from, to
}

// edit maps positions across a single replacement.
type edit struct {
	from, to, inserted int
}

// mapPos maps p across the edit. assoc decides which side of the
// replaced region p sticks to: > 0 after the inserted text, < 0 before it.
func (e edit) mapPos(p, assoc int) int {
	switch {
	case p < e.from:
		return p
	case p > e.to:
		return p + e.inserted - (e.to - e.from)
	case assoc > 0:
		return e.from + e.inserted
	default:
		return e.from
	}
}
