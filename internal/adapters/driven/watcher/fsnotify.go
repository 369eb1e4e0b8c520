// Package watcher reports on-disk changes to document files using fsnotify.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/draftline/internal/core/ports/driven"
	"github.com/custodia-labs/draftline/internal/logger"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 100 * time.Millisecond

// Ensure FSNotifyWatcher implements the interface.
var _ driven.DocumentWatcher = (*FSNotifyWatcher)(nil)

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("watcher closed")

// FSNotifyWatcher watches the parent directory of each document so that
// atomic saves (write to temp, rename over) are still seen.
type FSNotifyWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu       sync.Mutex
	subs     map[string][]chan struct{} // cleaned path -> subscribers
	dirs     map[string]int             // watched dir -> subscriber count
	timers   map[string]*time.Timer
	closed   bool
	wg       sync.WaitGroup
	shutdown chan struct{}
}

// New creates a watcher. A zero debounce uses DefaultDebounce.
func New(debounce time.Duration) (*FSNotifyWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	fw := &FSNotifyWatcher{
		watcher:  w,
		debounce: debounce,
		subs:     make(map[string][]chan struct{}),
		dirs:     make(map[string]int),
		timers:   make(map[string]*time.Timer),
		shutdown: make(chan struct{}),
	}

	fw.wg.Add(1)
	go fw.run()

	return fw, nil
}

// Watch implements driven.DocumentWatcher.
func (fw *FSNotifyWatcher) Watch(ctx context.Context, path string) (<-chan struct{}, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	abs = filepath.Clean(abs)
	dir := filepath.Dir(abs)

	fw.mu.Lock()
	if fw.closed {
		fw.mu.Unlock()
		return nil, ErrClosed
	}
	if fw.dirs[dir] == 0 {
		if err := fw.watcher.Add(dir); err != nil {
			fw.mu.Unlock()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	fw.dirs[dir]++

	// One slot is enough: a pending signal already means "reload".
	ch := make(chan struct{}, 1)
	fw.subs[abs] = append(fw.subs[abs], ch)
	fw.mu.Unlock()

	logger.Debug("watching %s", abs)

	go func() {
		select {
		case <-ctx.Done():
			fw.unsubscribe(abs, dir, ch)
		case <-fw.shutdown:
		}
	}()

	return ch, nil
}

// Close stops watching and closes every subscriber channel.
func (fw *FSNotifyWatcher) Close() error {
	fw.mu.Lock()
	if fw.closed {
		fw.mu.Unlock()
		return nil
	}
	fw.closed = true
	close(fw.shutdown)

	for _, t := range fw.timers {
		t.Stop()
	}
	fw.timers = make(map[string]*time.Timer)

	for _, subs := range fw.subs {
		for _, ch := range subs {
			close(ch)
		}
	}
	fw.subs = make(map[string][]chan struct{})
	fw.mu.Unlock()

	err := fw.watcher.Close()
	fw.wg.Wait()
	return err
}

func (fw *FSNotifyWatcher) unsubscribe(path, dir string, ch chan struct{}) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.closed {
		return
	}

	subs := fw.subs[path]
	for i, sub := range subs {
		if sub == ch {
			fw.subs[path] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(fw.subs[path]) == 0 {
		delete(fw.subs, path)
	}

	fw.dirs[dir]--
	if fw.dirs[dir] <= 0 {
		delete(fw.dirs, dir)
		_ = fw.watcher.Remove(dir)
	}
}

func (fw *FSNotifyWatcher) run() {
	defer fw.wg.Done()

	log := logger.Component("watcher")
	for {
		select {
		case <-fw.shutdown:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("fsnotify error")
		}
	}
}

func (fw *FSNotifyWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	path := filepath.Clean(event.Name)

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.closed || len(fw.subs[path]) == 0 {
		return
	}

	if t, ok := fw.timers[path]; ok {
		t.Stop()
	}
	fw.timers[path] = time.AfterFunc(fw.debounce, func() {
		fw.notify(path)
	})
}

func (fw *FSNotifyWatcher) notify(path string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.closed {
		return
	}
	delete(fw.timers, path)

	logger.Debug("document changed: %s", path)
	for _, ch := range fw.subs[path] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
