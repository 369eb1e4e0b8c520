package driven

import "context"

// DocumentWatcher reports when a document file changes on disk.
type DocumentWatcher interface {
	// Watch emits a value each time path is written or replaced.
	// The channel closes when ctx is done or the watcher is closed.
	Watch(ctx context.Context, path string) (<-chan struct{}, error)

	// Close releases the underlying watcher.
	Close() error
}
