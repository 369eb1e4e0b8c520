package domain

// RenderMark is one highlight the document view should paint.
type RenderMark struct {
	MarkID   string
	Category Category
	Range    TextRange
	Attrs    map[string]string
}

// RenderFrame is everything the document view needs for the active mode.
type RenderFrame struct {
	Mode  Mode
	Marks []RenderMark
}
