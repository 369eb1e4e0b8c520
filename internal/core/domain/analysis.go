package domain

// ExplainRequest asks why a sentence connects to the rest of the document.
type ExplainRequest struct {
	Sentence           string  `json:"sentence"`
	DocumentContext    string  `json:"documentContext"`
	ConnectionStrength float64 `json:"connectionStrength"`
	ParagraphTopic     string  `json:"paragraphTopic,omitempty"`
	EssayTopic         string  `json:"essayTopic,omitempty"`
}

// ExplainResponse carries the explanation text.
type ExplainResponse struct {
	Explanation string `json:"explanation"`
}

// FlowAnalysisRequest asks how one sentence connects to the others.
type FlowAnalysisRequest struct {
	Sentence       string `json:"sentence"`
	Document       string `json:"document"`
	Prompt         string `json:"prompt"`
	ParagraphTopic string `json:"paragraphTopic,omitempty"`
}

// SentenceConnection is one sentence related to the analysed sentence.
type SentenceConnection struct {
	Text               string    `json:"text"`
	Position           TextRange `json:"position"`
	ConnectionStrength float64   `json:"connectionStrength"`
	Reason             string    `json:"reason,omitempty"`
}

// Cohesion scores how well a paragraph or document hangs together.
type Cohesion struct {
	Score    float64 `json:"score"`
	Analysis string  `json:"analysis"`
}

// FlowAnalysisResult is the response to a FlowAnalysisRequest.
type FlowAnalysisResult struct {
	Result            []SentenceConnection `json:"result"`
	ParagraphCohesion Cohesion             `json:"paragraphCohesion"`
	DocumentCohesion  Cohesion             `json:"documentCohesion"`
}

// AnalysisStatus describes the last redo-analysis attempt.
type AnalysisStatus string

// Analysis statuses.
const (
	AnalysisIdle      AnalysisStatus = "idle"
	AnalysisRunning   AnalysisStatus = "running"
	AnalysisSucceeded AnalysisStatus = "succeeded"
	AnalysisFailed    AnalysisStatus = "failed"
)

// SentenceAnalysis is the action-panel payload for the tracked sentence.
type SentenceAnalysis struct {
	// Sentence is the analysed sentence as it reads now.
	Sentence string

	// Relocation records how the sentence was re-found.
	Relocation Relocation

	// Connections are the connection annotations that were applied.
	Connections []ConnectionAnnotation

	// ParagraphCohesion and DocumentCohesion come straight from the analysis.
	ParagraphCohesion Cohesion
	DocumentCohesion  Cohesion

	// Status is the outcome of the last attempt.
	Status AnalysisStatus

	// Error holds the failure message when Status is AnalysisFailed.
	Error string
}
