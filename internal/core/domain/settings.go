package domain

import (
	"fmt"
	"math"
)

// AIProvider identifies an AI service provider for the analysis LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// DefaultReanchorThreshold is the minimum keyword overlap a fuzzy match must
// exceed. It is a tunable, not a structural invariant.
const DefaultReanchorThreshold = 0.6

// ValidateReanchorThreshold rejects thresholds outside [0, 1].
// A threshold of 1 never accepts a keyword match.
func ValidateReanchorThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w: reanchor threshold %.2f not in [0, 1]", ErrInvalidInput, threshold)
	}
	return nil
}

// AnalysisSettings holds analysis and anchoring behaviour.
type AnalysisSettings struct {
	// RatePerSecond limits calls to the analysis service. Zero disables limiting.
	RatePerSecond float64

	// TimeoutSeconds bounds a single analysis call.
	TimeoutSeconds int

	// ReanchorThreshold is the fuzzy re-anchoring acceptance threshold.
	ReanchorThreshold float64
}

// AppSettings holds all application settings.
type AppSettings struct {
	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Analysis holds analysis and anchoring settings.
	Analysis AnalysisSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The LLM is left unconfigured; hover explanations use heuristics until it is set.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{},
		Analysis: AnalysisSettings{
			RatePerSecond:     2,
			TimeoutSeconds:    60,
			ReanchorThreshold: DefaultReanchorThreshold,
		},
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}
