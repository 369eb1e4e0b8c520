// Package ai wires LLM providers into the analysis service used by the overlay.
package ai

import (
	"context"
	"fmt"
	"time"

	anthropicllm "github.com/custodia-labs/draftline/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/draftline/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/draftline/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	LLMService driven.LLMService
	Analyzer   *Analyzer
	Warnings   []string // Non-fatal issues that caused fallback to heuristics.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// AnalysisService returns the analyzer as a port, or nil when no LLM is available.
// A typed nil must not leak into the overlay, which checks for nil.
func (r *InitResult) AnalysisService() driven.AnalysisService {
	if r == nil || r.Analyzer == nil {
		return nil
	}
	return r.Analyzer
}

// Init builds the analysis stack from settings. An unconfigured or unreachable
// LLM is not an error: the result carries a warning and no analyzer.
func Init(settings domain.AppSettings, prompts driven.PromptStore) *InitResult {
	result := &InitResult{}

	svc, err := CreateAndValidateLLMService(&settings.LLM)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		return result
	}
	if svc == nil {
		return result
	}

	result.LLMService = svc
	result.Analyzer = NewAnalyzer(svc, AnalyzerConfig{
		Prompts:       prompts,
		RatePerSecond: settings.Analysis.RatePerSecond,
		Timeout:       time.Duration(settings.Analysis.TimeoutSeconds) * time.Second,
	})
	return result
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'draftline settings set' to fix",
			domain.ErrLLMUnavailable, err)
	}

	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'draftline settings set' to fix",
			domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}
