package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/draftline/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/services"
)

const catText = "The cat sat. The cat ran fast."

// fakeAnalysis is a canned AnalysisService.
type fakeAnalysis struct {
	explanation string
	result      domain.FlowAnalysisResult
	err         error
	flowReqs    []domain.FlowAnalysisRequest
}

func (f *fakeAnalysis) ExplainConnection(_ context.Context, _ domain.ExplainRequest) (domain.ExplainResponse, error) {
	if f.err != nil {
		return domain.ExplainResponse{}, f.err
	}
	return domain.ExplainResponse{Explanation: f.explanation}, nil
}

func (f *fakeAnalysis) AnalyzeSentenceFlow(_ context.Context, req domain.FlowAnalysisRequest) (domain.FlowAnalysisResult, error) {
	f.flowReqs = append(f.flowReqs, req)
	if f.err != nil {
		return domain.FlowAnalysisResult{}, f.err
	}
	return f.result, nil
}

// testServices are the in-memory services injected by setupTestServices.
type testServices struct {
	settings *services.SettingsService
	states   *memory.StateStore
}

// setupTestServices injects in-memory services and resets command flags.
// analysis may be nil.
func setupTestServices(t *testing.T, analysis *fakeAnalysis) *testServices {
	t.Helper()

	ts := &testServices{
		settings: services.NewSettingsService(memory.NewConfigStore(), nil),
		states:   memory.NewStateStore(),
	}
	s := Services{Settings: ts.settings, States: ts.states}
	if analysis != nil {
		s.Analysis = analysis
	}
	SetServices(s)
	resetFlags()

	t.Cleanup(func() {
		SetServices(Services{})
		resetFlags()
	})
	return ts
}

// resetFlags restores flag variables, which persist between Execute calls.
func resetFlags() {
	verbose = false
	findAll, findNear = false, -1
	threshold = domain.DefaultReanchorThreshold
	reanchorCmd.Flags().Lookup("threshold").Changed = false
	explainStrength, explainTopic = 0.5, ""
	analyzeSave = false
	renderMode, renderLegend = "", true
	stateFormat = formatJSON
	llmProvider, llmModel, llmAPIKey = "", "", ""
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetIn(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// writeDoc writes text to a file in a temp dir and returns its path.
func writeDoc(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "essay.md")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}
