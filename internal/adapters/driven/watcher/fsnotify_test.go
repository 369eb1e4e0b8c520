package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 20 * time.Millisecond

func newTestWatcher(t *testing.T) *FSNotifyWatcher {
	t.Helper()
	w, err := New(testDebounce)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func expectSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case _, ok := <-ch:
		require.True(t, ok, "channel closed before signal")
	case <-time.After(2 * time.Second):
		t.Fatal("expected change signal")
	}
}

func expectNoSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
		t.Fatal("unexpected change signal")
	case <-time.After(10 * testDebounce):
	}
}

func TestWatch_SignalsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "essay.md")
	writeFile(t, path, "The cat sat.")

	w := newTestWatcher(t)
	ch, err := w.Watch(context.Background(), path)
	require.NoError(t, err)

	writeFile(t, path, "The cat sat. The cat ran fast.")
	expectSignal(t, ch)
}

func TestWatch_SignalsOnAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "essay.md")
	writeFile(t, path, "before")

	w := newTestWatcher(t)
	ch, err := w.Watch(context.Background(), path)
	require.NoError(t, err)

	tmp := filepath.Join(dir, ".essay.md.tmp")
	writeFile(t, tmp, "after")
	require.NoError(t, os.Rename(tmp, path))

	expectSignal(t, ch)
}

func TestWatch_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "essay.md")
	writeFile(t, path, "text")

	w := newTestWatcher(t)
	ch, err := w.Watch(context.Background(), path)
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "notes.md"), "other")
	expectNoSignal(t, ch)
}

func TestWatch_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "essay.md")
	writeFile(t, path, "0")

	w := newTestWatcher(t)
	ch, err := w.Watch(context.Background(), path)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		writeFile(t, path, string(rune('a'+i)))
	}

	expectSignal(t, ch)
	expectNoSignal(t, ch)
}

func TestWatch_ContextCancelClosesChannel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "essay.md")
	writeFile(t, path, "text")

	w := newTestWatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := w.Watch(ctx, path)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Empty(t, w.subs)
	assert.Empty(t, w.dirs)
}

func TestWatch_MissingDirectory(t *testing.T) {
	w := newTestWatcher(t)

	_, err := w.Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "essay.md"))

	assert.Error(t, err)
}

func TestClose_ClosesSubscribers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "essay.md")
	writeFile(t, path, "text")

	w, err := New(testDebounce)
	require.NoError(t, err)
	ch, err := w.Watch(context.Background(), path)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, ok := <-ch
	assert.False(t, ok)

	_, err = w.Watch(context.Background(), path)
	assert.ErrorIs(t, err, ErrClosed)
}
