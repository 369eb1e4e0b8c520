package driven

import "github.com/custodia-labs/draftline/internal/core/domain"

// AIConfigValidator validates LLM provider configurations by testing
// connectivity to the underlying AI service.
type AIConfigValidator interface {
	// ValidateLLM validates an LLM configuration by pinging the provider.
	// Returns nil if configuration is valid or not configured.
	ValidateLLM(config *domain.LLMSettings) error
}
