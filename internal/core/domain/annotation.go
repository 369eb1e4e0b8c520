package domain

import "strconv"

// Category identifies which collection an annotation belongs to.
type Category string

// Annotation categories. Each maps to exactly one mark namespace.
const (
	CategoryComment    Category = "comment"
	CategoryFlow       Category = "flow"
	CategoryConnection Category = "connection"
	CategoryReference  Category = "reference"
)

// Categories lists every category in render order.
var Categories = []Category{CategoryComment, CategoryReference, CategoryFlow, CategoryConnection}

// IsValid returns true if the category is recognised.
func (c Category) IsValid() bool {
	switch c {
	case CategoryComment, CategoryFlow, CategoryConnection, CategoryReference:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// MarkID returns the editor mark identifier for an annotation id in this category.
func (c Category) MarkID(id string) string {
	return string(c) + ":" + id
}

// Annotation is implemented by every annotation variant.
//
// AnchorText is the semantic source of truth. Anchor is a cache of where
// that text was last found and must not be trusted blindly after an edit.
type Annotation interface {
	AnnotationID() string
	Category() Category
	Anchor() TextRange
	AnchorText() string
	Attrs() map[string]string
}

// Severity grades how important a comment is.
type Severity string

// Comment severities.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// IsValid returns true if the severity is recognised.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	default:
		return false
	}
}

// IssueType classifies what a comment is about.
type IssueType string

// Common issue types produced by the analysis service.
const (
	IssueGrammar   IssueType = "grammar"
	IssueClarity   IssueType = "clarity"
	IssueStyle     IssueType = "style"
	IssueStructure IssueType = "structure"
	IssueEvidence  IssueType = "evidence"
)

// CommentAnnotation is an AI or user comment attached to a span of text.
type CommentAnnotation struct {
	// ID is the unique identifier for the comment.
	ID string `json:"id" yaml:"id"`

	// IssueType classifies the comment.
	IssueType IssueType `json:"issueType" yaml:"issueType"`

	// Severity grades the comment.
	Severity Severity `json:"severity" yaml:"severity"`

	// Range is the last known location of CachedText.
	Range TextRange `json:"range" yaml:"range"`

	// Content is the comment body shown to the writer.
	Content string `json:"content" yaml:"content"`

	// CachedText is the text the comment was anchored to.
	CachedText string `json:"cachedText" yaml:"cachedText"`
}

func (a CommentAnnotation) AnnotationID() string { return a.ID }
func (a CommentAnnotation) Category() Category   { return CategoryComment }
func (a CommentAnnotation) Anchor() TextRange    { return a.Range }
func (a CommentAnnotation) AnchorText() string   { return a.CachedText }

// Attrs returns the mark attributes for the comment.
func (a CommentAnnotation) Attrs() map[string]string {
	return map[string]string{
		"category":  string(CategoryComment),
		"issueType": string(a.IssueType),
		"severity":  string(a.Severity),
	}
}

// FlowAnnotation highlights a sentence and how strongly it connects to others.
type FlowAnnotation struct {
	// ID is the unique identifier for the highlight.
	ID string `json:"id" yaml:"id"`

	// ConnectionStrength is in [0, 1].
	ConnectionStrength float64 `json:"connectionStrength" yaml:"connectionStrength"`

	// ConnectedIDs lists the flow annotations this sentence relates to.
	ConnectedIDs []string `json:"connectedIds,omitempty" yaml:"connectedIds,omitempty"`

	// Range is the last known location of CachedText.
	Range TextRange `json:"range" yaml:"range"`

	// CachedText is the sentence the highlight was anchored to.
	CachedText string `json:"cachedText" yaml:"cachedText"`
}

func (a FlowAnnotation) AnnotationID() string { return a.ID }
func (a FlowAnnotation) Category() Category   { return CategoryFlow }
func (a FlowAnnotation) Anchor() TextRange    { return a.Range }
func (a FlowAnnotation) AnchorText() string   { return a.CachedText }

// Attrs returns the mark attributes for the flow highlight.
func (a FlowAnnotation) Attrs() map[string]string {
	return map[string]string{
		"category": string(CategoryFlow),
		"strength": formatStrength(a.ConnectionStrength),
		"bucket":   string(BucketFor(a.ConnectionStrength)),
	}
}

// ConnectionAnnotation links a sentence to the tracked sentence in flow-sentence mode.
type ConnectionAnnotation struct {
	// ID is the unique identifier for the connection.
	ID string `json:"id" yaml:"id"`

	// Strength is in [0, 1].
	Strength float64 `json:"strength" yaml:"strength"`

	// Reason explains the connection, when the analysis provided one.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	// Range is the last known location of CachedText.
	Range TextRange `json:"range" yaml:"range"`

	// CachedText is the sentence the connection was anchored to.
	CachedText string `json:"cachedText" yaml:"cachedText"`
}

func (a ConnectionAnnotation) AnnotationID() string { return a.ID }
func (a ConnectionAnnotation) Category() Category   { return CategoryConnection }
func (a ConnectionAnnotation) Anchor() TextRange    { return a.Range }
func (a ConnectionAnnotation) AnchorText() string   { return a.CachedText }

// Attrs returns the mark attributes for the connection.
func (a ConnectionAnnotation) Attrs() map[string]string {
	return map[string]string{
		"category": string(CategoryConnection),
		"strength": formatStrength(a.Strength),
		"bucket":   string(BucketFor(a.Strength)),
	}
}

// ReferenceAnnotation marks text that refers back to other text.
// SourceText is where the reference appears and is what gets anchored.
type ReferenceAnnotation struct {
	// ID is the unique identifier for the reference.
	ID string `json:"id" yaml:"id"`

	// Kind classifies the reference (e.g. "pronoun", "concept", "citation").
	Kind string `json:"kind" yaml:"kind"`

	// SourceText is the referring text.
	SourceText string `json:"sourceText" yaml:"sourceText"`

	// TargetText is the text being referred to.
	TargetText string `json:"targetText" yaml:"targetText"`

	// Range is the last known location of SourceText.
	Range TextRange `json:"range" yaml:"range"`
}

func (a ReferenceAnnotation) AnnotationID() string { return a.ID }
func (a ReferenceAnnotation) Category() Category   { return CategoryReference }
func (a ReferenceAnnotation) Anchor() TextRange    { return a.Range }
func (a ReferenceAnnotation) AnchorText() string   { return a.SourceText }

// Attrs returns the mark attributes for the reference.
func (a ReferenceAnnotation) Attrs() map[string]string {
	return map[string]string{
		"category": string(CategoryReference),
		"kind":     a.Kind,
	}
}

// StrengthBucket groups connection strengths for display and fallbacks.
type StrengthBucket string

// Strength buckets.
const (
	BucketStrong   StrengthBucket = "strong"
	BucketModerate StrengthBucket = "moderate"
	BucketLimited  StrengthBucket = "limited"
)

// Bucket thresholds.
const (
	StrongThreshold   = 0.8
	ModerateThreshold = 0.4
)

// BucketFor returns the bucket a strength falls into.
func BucketFor(strength float64) StrengthBucket {
	switch {
	case strength >= StrongThreshold:
		return BucketStrong
	case strength >= ModerateThreshold:
		return BucketModerate
	default:
		return BucketLimited
	}
}

// ClampStrength limits a strength to [0, 1].
func ClampStrength(s float64) float64 {
	if s < 0 || s != s {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

func formatStrength(s float64) string {
	return strconv.FormatFloat(ClampStrength(s), 'f', 2, 64)
}
