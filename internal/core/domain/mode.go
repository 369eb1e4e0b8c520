package domain

import "fmt"

const unknownDescription = "Unknown"

// Mode selects which annotation collection is rendered.
// Exactly one mode is active at a time.
type Mode string

// Available highlight modes.
const (
	// ModeComments renders AI comments and reference highlights.
	ModeComments Mode = "comments"

	// ModeFlow renders flow connection highlights for the whole document.
	ModeFlow Mode = "flow"

	// ModeFlowSentence renders connections for a single tracked sentence.
	ModeFlowSentence Mode = "flow-sentence"
)

// Modes lists all modes in cycle order.
var Modes = []Mode{ModeComments, ModeFlow, ModeFlowSentence}

// IsValid returns true if the mode is recognised.
func (m Mode) IsValid() bool {
	switch m {
	case ModeComments, ModeFlow, ModeFlowSentence:
		return true
	default:
		return false
	}
}

// Next returns the mode that follows m in round-robin order.
// comments -> flow -> flow-sentence -> comments.
func (m Mode) Next() Mode {
	for i, mode := range Modes {
		if mode == m {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return ModeComments
}

// Categories returns the annotation categories rendered in this mode.
func (m Mode) Categories() []Category {
	switch m {
	case ModeComments:
		return []Category{CategoryComment, CategoryReference}
	case ModeFlow:
		return []Category{CategoryFlow}
	case ModeFlowSentence:
		return []Category{CategoryConnection}
	default:
		return nil
	}
}

// Renders reports whether annotations of category c are visible in this mode.
func (m Mode) Renders(c Category) bool {
	for _, cat := range m.Categories() {
		if cat == c {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (m Mode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m Mode) Description() string {
	switch m {
	case ModeComments:
		return "Comments (AI feedback and references)"
	case ModeFlow:
		return "Flow (document-wide connections)"
	case ModeFlowSentence:
		return "Flow Sentence (connections for one sentence)"
	default:
		return unknownDescription
	}
}

// ParseMode converts a string into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, s)
	}
	return m, nil
}
