package domain

// EventType names an overlay event.
type EventType string

// Overlay events. Keep list sorted A-Z.
const (
	EventAnalysisCompleted EventType = "analysis.completed"
	EventAnalysisFailed    EventType = "analysis.failed"
	EventFocusChanged      EventType = "focus.changed"
	EventHighlightsChanged EventType = "highlights.changed"
	EventHoverExplained    EventType = "hover.explained"
	EventModeChanged       EventType = "mode.changed"
)

// Event is published by the overlay manager for the render layer and UI.
type Event struct {
	Type    EventType
	Payload any
}

// ModeChangedPayload is emitted when the active mode changes.
type ModeChangedPayload struct {
	From  Mode
	To    Mode
	Frame RenderFrame
}

// HighlightsChangedPayload is emitted when a collection is replaced or cleared.
type HighlightsChangedPayload struct {
	Category Category
	Count    int
	Frame    RenderFrame
}

// FocusChangedPayload is emitted when a sentence is tracked or tracking ends.
type FocusChangedPayload struct {
	Active  bool
	Tracked *TrackedSelection
}

// HoverExplainedPayload is emitted when a hover explanation becomes available.
type HoverExplainedPayload struct {
	Text        string
	Explanation string
	Fallback    bool
}

// AnalysisCompletedPayload is emitted after a successful redo analysis.
type AnalysisCompletedPayload struct {
	Analysis SentenceAnalysis
}

// AnalysisFailedPayload is emitted when redo analysis fails.
type AnalysisFailedPayload struct {
	Sentence string
	Err      error
}
