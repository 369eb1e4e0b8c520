package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used by the analysis adapter.
const (
	// PromptAnalysisSystem is the system prompt for every analysis call.
	// This prompt has no format placeholders.
	PromptAnalysisSystem = "analysis_system"

	// PromptExplainConnection asks why a sentence connects to the document.
	// The template expects %s (sentence), %.2f (strength), %s (topics), %s (document).
	PromptExplainConnection = "explain_connection"

	// PromptSentenceFlow asks which sentences connect to a sentence.
	// The template expects %s (instruction), %s (sentence), %s (topic), %s (document).
	PromptSentenceFlow = "sentence_flow"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
