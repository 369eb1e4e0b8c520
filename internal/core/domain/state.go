package domain

// OverlayStateVersion is the current snapshot schema version.
const OverlayStateVersion = 1

// OverlayState is a serialisable snapshot of every annotation collection
// and the active mode.
type OverlayState struct {
	SchemaVersion int                    `json:"schemaVersion" yaml:"schemaVersion"`
	Mode          Mode                   `json:"mode" yaml:"mode"`
	Comments      []CommentAnnotation    `json:"comments" yaml:"comments"`
	Flows         []FlowAnnotation       `json:"flows" yaml:"flows"`
	References    []ReferenceAnnotation  `json:"references" yaml:"references"`
	Connections   []ConnectionAnnotation `json:"connections,omitempty" yaml:"connections,omitempty"`
	Tracked       *TrackedSelection      `json:"tracked,omitempty" yaml:"tracked,omitempty"`
}

// Count returns the total number of annotations in the snapshot.
func (s OverlayState) Count() int {
	return len(s.Comments) + len(s.Flows) + len(s.References) + len(s.Connections)
}

// SkippedItem records an annotation that could not be anchored.
type SkippedItem struct {
	ID     string
	Reason string
}

// BatchResult reports the outcome of adding a batch of annotations.
type BatchResult struct {
	// Applied is the number of annotations that received a mark.
	Applied int

	// Skipped lists annotations that were dropped from the batch.
	Skipped []SkippedItem
}
