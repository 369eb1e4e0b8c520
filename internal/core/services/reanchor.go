package services

import (
	"strings"

	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/ports/driven"
	"github.com/custodia-labs/draftline/internal/logger"
)

// FuzzyReanchorer re-finds a tracked sentence after the document was edited.
//
// The cascade is tried in order and the first success wins:
//  1. the tracked mark, kept current by the editor
//  2. the stored range, when it is still valid for this document version
//  3. the sentence sharing the most keywords with the original text
//  4. the original text unchanged
type FuzzyReanchorer struct {
	threshold float64
}

// NewFuzzyReanchorer creates a reanchorer that accepts keyword matches
// scoring strictly above threshold. Values rejected by
// domain.ValidateReanchorThreshold fall back to the default; callers taking
// user input validate first.
func NewFuzzyReanchorer(threshold float64) *FuzzyReanchorer {
	if domain.ValidateReanchorThreshold(threshold) != nil {
		threshold = domain.DefaultReanchorThreshold
	}
	return &FuzzyReanchorer{threshold: threshold}
}

// Threshold returns the keyword acceptance threshold.
func (f *FuzzyReanchorer) Threshold() float64 {
	return f.threshold
}

// Relocate returns the current form of a tracked sentence.
func (f *FuzzyReanchorer) Relocate(doc driven.Document, tracked domain.TrackedSelection) domain.Relocation {
	length := doc.TextLength()
	version := doc.Version()

	if r, ok := doc.MarkRange(domain.TrackedMarkID(tracked.ID)); ok && !r.IsEmpty() && r.InBounds(length) {
		if text := doc.TextBetween(r.From, r.To); strings.TrimSpace(text) != "" {
			return domain.Relocation{
				Text:     text,
				Range:    r.WithVersion(version),
				Strategy: domain.RelocatedByMark,
				Score:    1,
			}
		}
	}

	if r := tracked.Range; !r.IsEmpty() && r.InBounds(length) && !r.IsStale(version) {
		if text := doc.TextBetween(r.From, r.To); strings.TrimSpace(text) != "" {
			return domain.Relocation{
				Text:     text,
				Range:    r,
				Strategy: domain.RelocatedByStoredRange,
				Score:    1,
			}
		}
	}

	keywords := tracked.SemanticKeywords
	if len(keywords) == 0 {
		keywords = ExtractKeywords(tracked.OriginalText)
	}

	best, score, found := f.bestCandidate(doc, keywords)
	if found && score > f.threshold {
		logger.Debug("reanchor: keyword match %.2f for %q", score, truncate(tracked.OriginalText, 40))
		return domain.Relocation{
			Text:     best.Text,
			Range:    best.Range,
			Strategy: domain.RelocatedByKeywords,
			Score:    score,
		}
	}

	logger.Debug("reanchor: fallback to original text (best %.2f)", score)
	return domain.Relocation{
		Text:     tracked.OriginalText,
		Strategy: domain.RelocatedFallback,
		Score:    score,
	}
}

// bestCandidate scores every sentence of the document. The first sentence
// with the highest score wins.
func (f *FuzzyReanchorer) bestCandidate(doc driven.Document, keywords []string) (Sentence, float64, bool) {
	var best Sentence
	bestScore := 0.0
	found := false
	for _, s := range NewSentenceExpander().Sentences(doc) {
		score := KeywordScore(keywords, s.Text)
		if !found || score > bestScore {
			best, bestScore, found = s, score, true
		}
	}
	return best, bestScore, found
}
