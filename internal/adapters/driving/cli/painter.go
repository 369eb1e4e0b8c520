package cli

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/ports/driven"
)

// Theme defines the highlight palette for painted documents.
type Theme struct {
	// Comment highlights AI feedback.
	Comment lipgloss.Color

	// Reference highlights referring text.
	Reference lipgloss.Color

	// Strong, Moderate and Limited colour flow and connection highlights by bucket.
	Strong   lipgloss.Color
	Moderate lipgloss.Color
	Limited  lipgloss.Color

	// Tracked underlines the sentence being analysed.
	Tracked lipgloss.Color

	// Muted is for the legend.
	Muted lipgloss.Color
}

// DefaultTheme returns the default highlight palette.
func DefaultTheme() *Theme {
	return &Theme{
		Comment:   lipgloss.Color("#F9E2AF"), // Yellow
		Reference: lipgloss.Color("#06B6D4"), // Cyan
		Strong:    lipgloss.Color("#A6E3A1"), // Green
		Moderate:  lipgloss.Color("#89B4FA"), // Blue
		Limited:   lipgloss.Color("#45475A"), // Border gray
		Tracked:   lipgloss.Color("#7C3AED"), // Purple
		Muted:     lipgloss.Color("#6C7086"), // Medium gray
	}
}

// painter draws a document with the marks of a render frame.
// Without colour, marks are bracketed inline.
type painter struct {
	color    bool
	renderer *lipgloss.Renderer
	theme    *Theme
}

// newPainter creates a painter for out. Colour is used only when out is a terminal.
func newPainter(out io.Writer) *painter {
	color := false
	if f, ok := out.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &painter{
		color:    color,
		renderer: lipgloss.NewRenderer(out),
		theme:    DefaultTheme(),
	}
}

// paintMark is a frame mark clamped to the text, with a draw priority.
type paintMark struct {
	domain.RenderMark
	from, to int
	priority int
}

// categoryPriority decides which mark wins where marks overlap.
var categoryPriority = map[domain.Category]int{
	domain.CategoryFlow:       1,
	domain.CategoryReference:  2,
	domain.CategoryComment:    3,
	domain.CategoryConnection: 3,
}

const trackedPriority = 4

// paint returns text with every mark of frame highlighted. tracked, when
// non-nil, is drawn above all other marks.
func (p *painter) paint(text string, frame domain.RenderFrame, tracked *domain.TextRange) string {
	runes := []rune(text)
	marks := clampMarks(frame.Marks, tracked, len(runes))
	if len(marks) == 0 {
		return text
	}
	if p.color {
		return p.paintColor(runes, marks)
	}
	return paintBrackets(runes, marks)
}

func clampMarks(in []domain.RenderMark, tracked *domain.TextRange, n int) []paintMark {
	var out []paintMark
	add := func(m domain.RenderMark, priority int) {
		from, to := max(m.Range.From, 0), min(m.Range.To, n)
		if from >= to {
			return
		}
		out = append(out, paintMark{RenderMark: m, from: from, to: to, priority: priority})
	}
	for _, m := range in {
		add(m, categoryPriority[m.Category])
	}
	if tracked != nil {
		add(domain.RenderMark{MarkID: "tracked", Range: *tracked}, trackedPriority)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].from < out[j].from })
	return out
}

// paintColor splits the text at every mark boundary and styles each piece
// with the highest priority mark covering it.
func (p *painter) paintColor(runes []rune, marks []paintMark) string {
	bounds := map[int]struct{}{0: {}, len(runes): {}}
	for _, m := range marks {
		bounds[m.from] = struct{}{}
		bounds[m.to] = struct{}{}
	}
	cuts := make([]int, 0, len(bounds))
	for b := range bounds {
		cuts = append(cuts, b)
	}
	sort.Ints(cuts)

	var b strings.Builder
	for i := 0; i+1 < len(cuts); i++ {
		from, to := cuts[i], cuts[i+1]
		piece := string(runes[from:to])

		var top *paintMark
		for j := range marks {
			m := &marks[j]
			if m.from <= from && m.to >= to && (top == nil || m.priority >= top.priority) {
				top = m
			}
		}
		if top == nil {
			b.WriteString(piece)
			continue
		}
		b.WriteString(p.style(*top).Render(piece))
	}
	return b.String()
}

func (p *painter) style(m paintMark) lipgloss.Style {
	s := p.renderer.NewStyle()
	if m.priority == trackedPriority {
		return s.Underline(true).Bold(true).Foreground(p.theme.Tracked)
	}
	switch m.Category {
	case domain.CategoryComment:
		return s.Background(p.theme.Comment).Foreground(lipgloss.Color("#1E1E2E"))
	case domain.CategoryReference:
		return s.Underline(true).Foreground(p.theme.Reference)
	default:
		return s.Foreground(p.bucketColor(domain.StrengthBucket(m.Attrs["bucket"])))
	}
}

func (p *painter) bucketColor(bucket domain.StrengthBucket) lipgloss.Color {
	switch bucket {
	case domain.BucketStrong:
		return p.theme.Strong
	case domain.BucketModerate:
		return p.theme.Moderate
	default:
		return p.theme.Limited
	}
}

// paintBrackets wraps each mark in [ and ].
func paintBrackets(runes []rune, marks []paintMark) string {
	opens := make(map[int]int)
	closes := make(map[int]int)
	for _, m := range marks {
		opens[m.from]++
		closes[m.to]++
	}

	var b strings.Builder
	for i := 0; i <= len(runes); i++ {
		b.WriteString(strings.Repeat("]", closes[i]))
		b.WriteString(strings.Repeat("[", opens[i]))
		if i < len(runes) {
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}

// legend lists every mark with its range and attributes.
func (p *painter) legend(doc driven.Document, frame domain.RenderFrame) string {
	var b strings.Builder
	muted := p.renderer.NewStyle()
	if p.color {
		muted = muted.Foreground(p.theme.Muted)
	}
	for _, m := range frame.Marks {
		b.WriteString("  ")
		b.WriteString(padRight(string(m.Category), 11))
		b.WriteString(padRight(m.Range.String(), 16))
		b.WriteString(doc.TextBetween(m.Range.From, m.Range.To))
		if detail := markDetail(m); detail != "" {
			b.WriteString(" ")
			b.WriteString(muted.Render(detail))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func markDetail(m domain.RenderMark) string {
	keys := make([]string, 0, len(m.Attrs))
	for k := range m.Attrs {
		if k != "category" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+m.Attrs[k])
	}
	return strings.Join(parts, " ")
}

func padRight(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s + " "
}
