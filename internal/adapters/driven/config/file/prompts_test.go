package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/draftline/internal/core/ports/driven"
)

var testDefaults = map[string]string{
	driven.PromptExplainConnection: "Explain %s (%.2f) in %s: %s",
	driven.PromptSentenceFlow:      "Flow %s %s %s %s",
}

func TestPromptStore_ImplementsInterface(t *testing.T) {
	var _ driven.PromptStore = (*PromptStore)(nil)
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewPromptStore("", testDefaults)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".draftline", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir, testDefaults)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptExplainConnection)
	require.NoError(t, err)
	assert.Equal(t, testDefaults[driven.PromptExplainConnection], prompt)

	for _, f := range []string{"explain_connection.txt", "sentence_flow.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}

	readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "sentence_flow.txt")
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "My flow prompt: %s %s %s %s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sentence_flow.txt"), []byte(custom+"\n\n"), 0600))

	store, err := NewPromptStore(dir, testDefaults)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptSentenceFlow)

	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir, testDefaults)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptSentenceFlow)
	require.NoError(t, os.Remove(filepath.Join(dir, "sentence_flow.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptSentenceFlow)
	require.NoError(t, err)
	assert.Equal(t, testDefaults[driven.PromptSentenceFlow], prompt)

	// A blanked file also falls back.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "explain_connection.txt"), []byte("  \n"), 0600))
	prompt, err = store.Load(driven.PromptExplainConnection)
	require.NoError(t, err)
	assert.Equal(t, testDefaults[driven.PromptExplainConnection], prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir(), testDefaults)
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_prompt")
}

func TestPromptStore_Reload_ClearsCache(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir, testDefaults)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptSentenceFlow)
	require.NoError(t, err)

	path := filepath.Join(dir, "sentence_flow.txt")
	require.NoError(t, os.WriteFile(path, []byte("edited"), 0600))

	cached, err := store.Load(driven.PromptSentenceFlow)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptSentenceFlow)
	require.NoError(t, err)
	assert.Equal(t, "edited", fresh)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "explain_connection.txt")
	require.NoError(t, os.WriteFile(path, []byte("mine"), 0600))

	store, err := NewPromptStore(dir, testDefaults)
	require.NoError(t, err)
	_, err = store.Load(driven.PromptExplainConnection)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}

func TestPromptStore_InitFailureUsesDefaults(t *testing.T) {
	store, err := NewPromptStore("/dev/null/prompts", testDefaults)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptSentenceFlow)
	require.NoError(t, err)
	assert.Equal(t, testDefaults[driven.PromptSentenceFlow], prompt)

	_, err = store.Load("other")
	assert.Error(t, err)
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir(), testDefaults)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prompt, err := store.Load(driven.PromptExplainConnection)
			assert.NoError(t, err)
			assert.NotEmpty(t, prompt)
		}()
	}
	wg.Wait()
}
