package domain

// TrackedSelection is a resilient reference to one user-selected sentence.
// It is re-found across edits by the reanchorer and scoped to flow-sentence mode.
type TrackedSelection struct {
	// ID doubles as the mark identifier placed on the sentence.
	ID string `json:"id" yaml:"id"`

	// OriginalText is the sentence text when it was captured.
	OriginalText string `json:"originalText" yaml:"originalText"`

	// SemanticKeywords are the significant words of OriginalText.
	SemanticKeywords []string `json:"semanticKeywords" yaml:"semanticKeywords"`

	// ParagraphIndex is the 0-based paragraph the sentence was in.
	ParagraphIndex int `json:"paragraphIndex" yaml:"paragraphIndex"`

	// SentenceIndexInParagraph is the 0-based sentence position in its paragraph.
	SentenceIndexInParagraph int `json:"sentenceIndexInParagraph" yaml:"sentenceIndexInParagraph"`

	// CapturedAtVersion is the document version at capture time.
	CapturedAtVersion uint64 `json:"capturedAtVersion" yaml:"capturedAtVersion"`

	// Range is the last known location of the sentence.
	Range TextRange `json:"range" yaml:"range"`
}

// RelocationStrategy names the cascade step that re-found a tracked sentence.
type RelocationStrategy string

// Relocation strategies in cascade order.
const (
	RelocatedByMark        RelocationStrategy = "mark"
	RelocatedByStoredRange RelocationStrategy = "stored-range"
	RelocatedByKeywords    RelocationStrategy = "keywords"
	RelocatedFallback      RelocationStrategy = "fallback"
)

// Relocation is the outcome of re-finding a tracked sentence.
type Relocation struct {
	// Text is the current form of the sentence, or the original text on fallback.
	Text string

	// Range locates Text in the current document. Empty on fallback.
	Range TextRange

	// Strategy is the cascade step that succeeded.
	Strategy RelocationStrategy

	// Score is the keyword overlap of the winning candidate, in [0, 1].
	// It is 1 for mark and stored-range lookups.
	Score float64
}

// IsFallback reports whether no better match than the original text was found.
func (r Relocation) IsFallback() bool {
	return r.Strategy == RelocatedFallback
}

// TrackedMarkID returns the mark identifier used for a tracked sentence.
func TrackedMarkID(id string) string {
	return "tracked:" + id
}
