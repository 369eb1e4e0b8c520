package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/ports/driven"
	"github.com/custodia-labs/draftline/internal/logger"
)

// Ensure Analyzer implements the interface.
var _ driven.AnalysisService = (*Analyzer)(nil)

// Default analyzer limits.
const (
	DefaultTimeout       = 60 * time.Second
	explainMaxTokens     = 300
	flowMaxTokens        = 1500
	analysisTemperature  = 0.2
	defaultTopicFallback = "(none)"
)

// defaultSystemPrompt is used when no PromptStore is configured.
const defaultSystemPrompt = `You are a writing assistant that studies how the sentences of an essay connect.
Answer only with a single JSON object. Do not wrap it in markdown.`

// defaultExplainPrompt is used when no PromptStore is configured.
const defaultExplainPrompt = `Explain in one or two sentences why this sentence connects to the rest of the document.

Sentence: %s
Connection strength (0 to 1): %.2f
Topics: %s

Document:
%s

Respond as {"explanation": "..."}.`

// defaultFlowPrompt is used when no PromptStore is configured.
const defaultFlowPrompt = `%s

Sentence: %s
Paragraph topic: %s

Document:
%s

Respond as {"result": [{"text": "<exact sentence from the document>", "connectionStrength": 0.0, "reason": "..."}],
"paragraphCohesion": {"score": 0.0, "analysis": "..."}, "documentCohesion": {"score": 0.0, "analysis": "..."}}.
Copy each connected sentence exactly as it appears in the document.`

// defaultFlowInstruction is the instruction used when a request carries no prompt.
const defaultFlowInstruction = "Find the sentences in the document that connect to the given sentence."

// AnalyzerConfig configures an Analyzer.
type AnalyzerConfig struct {
	// Prompts supplies user-editable templates. Nil uses the built-in defaults.
	Prompts driven.PromptStore

	// RatePerSecond limits outgoing calls. Zero or less disables limiting.
	RatePerSecond float64

	// Wait blocks until the limiter admits a call instead of failing
	// with domain.ErrRateLimited.
	Wait bool

	// Timeout bounds a single call (default: 60s).
	Timeout time.Duration
}

// Analyzer implements the analysis service on top of any LLM provider.
type Analyzer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	limiter *rate.Limiter
	wait    bool
	timeout time.Duration
}

// NewAnalyzer creates an analyzer backed by llm.
func NewAnalyzer(llm driven.LLMService, cfg AnalyzerConfig) *Analyzer {
	a := &Analyzer{
		llm:     llm,
		prompts: cfg.Prompts,
		wait:    cfg.Wait,
		timeout: cfg.Timeout,
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}
	if cfg.RatePerSecond > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return a
}

// ExplainConnection asks the LLM why a sentence connects to the document.
// A reply that is not JSON is used verbatim as the explanation.
func (a *Analyzer) ExplainConnection(ctx context.Context, req domain.ExplainRequest) (domain.ExplainResponse, error) {
	if strings.TrimSpace(req.Sentence) == "" {
		return domain.ExplainResponse{}, fmt.Errorf("%w: empty sentence", domain.ErrInvalidInput)
	}

	template := a.loadPrompt(driven.PromptExplainConnection, defaultExplainPrompt)
	prompt := fmt.Sprintf(template, req.Sentence, req.ConnectionStrength, topics(req), req.DocumentContext)

	reply, err := a.chat(ctx, prompt, explainMaxTokens)
	if err != nil {
		return domain.ExplainResponse{}, fmt.Errorf("explain connection: %w", err)
	}

	var resp domain.ExplainResponse
	if err := decodeJSON(reply, &resp); err != nil {
		resp.Explanation = reply
	}
	resp.Explanation = strings.TrimSpace(resp.Explanation)
	return resp, nil
}

// AnalyzeSentenceFlow asks the LLM which sentences connect to req.Sentence.
func (a *Analyzer) AnalyzeSentenceFlow(
	ctx context.Context,
	req domain.FlowAnalysisRequest,
) (domain.FlowAnalysisResult, error) {
	if strings.TrimSpace(req.Sentence) == "" {
		return domain.FlowAnalysisResult{}, fmt.Errorf("%w: empty sentence", domain.ErrInvalidInput)
	}

	instruction := req.Prompt
	if strings.TrimSpace(instruction) == "" {
		instruction = defaultFlowInstruction
	}
	topic := req.ParagraphTopic
	if topic == "" {
		topic = defaultTopicFallback
	}

	template := a.loadPrompt(driven.PromptSentenceFlow, defaultFlowPrompt)
	prompt := fmt.Sprintf(template, instruction, req.Sentence, topic, req.Document)

	reply, err := a.chat(ctx, prompt, flowMaxTokens)
	if err != nil {
		return domain.FlowAnalysisResult{}, fmt.Errorf("analyze sentence flow: %w", err)
	}

	var result domain.FlowAnalysisResult
	if err := decodeJSON(reply, &result); err != nil {
		return domain.FlowAnalysisResult{}, fmt.Errorf("analyze sentence flow: %w", err)
	}

	kept := result.Result[:0]
	for _, c := range result.Result {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		kept = append(kept, c)
	}
	result.Result = kept

	logger.Debug("analyzer: %d connections for %q", len(result.Result), truncate(req.Sentence, 40))
	return result, nil
}

// chat sends one system+user exchange, honouring the rate limit and timeout.
func (a *Analyzer) chat(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if err := a.admit(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	reply, err := a.llm.Chat(ctx, []driven.ChatMessage{
		{Role: "system", Content: a.loadPrompt(driven.PromptAnalysisSystem, defaultSystemPrompt)},
		{Role: "user", Content: prompt},
	}, driven.ChatOptions{
		MaxTokens:   maxTokens,
		Temperature: analysisTemperature,
		JSON:        true,
	})
	if err != nil {
		return "", err
	}
	logger.Debug("analyzer: %s replied in %s", a.llm.ModelName(), time.Since(start).Round(time.Millisecond))
	return reply, nil
}

// admit applies the rate limit.
func (a *Analyzer) admit(ctx context.Context) error {
	if a.limiter == nil {
		return nil
	}
	if !a.wait {
		if !a.limiter.Allow() {
			return domain.ErrRateLimited
		}
		return nil
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}
	return nil
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (a *Analyzer) loadPrompt(name, fallback string) string {
	if a.prompts == nil {
		return fallback
	}
	prompt, err := a.prompts.Load(name)
	if err != nil || prompt == "" {
		return fallback
	}
	return prompt
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (a *Analyzer) SetPromptStore(store driven.PromptStore) {
	a.prompts = store
}

var errNoJSON = errors.New("no JSON object in reply")

// decodeJSON decodes the outermost JSON object in reply.
// Models often wrap JSON in prose or code fences.
func decodeJSON(reply string, v any) error {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return errNoJSON
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), v); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}

func topics(req domain.ExplainRequest) string {
	var parts []string
	if req.EssayTopic != "" {
		parts = append(parts, "essay: "+req.EssayTopic)
	}
	if req.ParagraphTopic != "" {
		parts = append(parts, "paragraph: "+req.ParagraphTopic)
	}
	if len(parts) == 0 {
		return defaultTopicFallback
	}
	return strings.Join(parts, "; ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// DefaultPrompts returns the built-in templates keyed by prompt name.
// File-backed prompt stores seed user-editable copies from it.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptAnalysisSystem:    defaultSystemPrompt,
		driven.PromptExplainConnection: defaultExplainPrompt,
		driven.PromptSentenceFlow:      defaultFlowPrompt,
	}
}
