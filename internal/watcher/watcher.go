// Package watcher keeps the symbol index warm: filesystem events are
// debounced into batches and fed to the index worker, so drift between
// the codebase and symbol-index.md stays short-lived.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/kortex-labs/memory-enforce/internal/index"
	"github.com/kortex-labs/memory-enforce/internal/logger"
)

var log = logger.ForComponent("watcher")

type Watcher struct {
	config    WatcherConfig
	fsWatcher *fsnotify.Watcher
	fsMu      sync.Mutex
	debouncer *Debouncer
	indexer   *index.Worker
	store     *index.Store

	mu      sync.RWMutex
	roots   []string
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(config WatcherConfig, indexer *index.Worker, store *index.Store) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		config:    config,
		fsWatcher: fsWatcher,
		indexer:   indexer,
		store:     store,
	}
	w.debouncer = NewDebouncer(config.DebounceWindow, config.MaxBatchSize, w.onFlush)

	return w, nil
}

func (w *Watcher) addToWatcher(path string) error {
	w.fsMu.Lock()
	defer w.fsMu.Unlock()
	return w.fsWatcher.Add(path)
}

func (w *Watcher) removeFromWatcher(path string) {
	w.fsMu.Lock()
	defer w.fsMu.Unlock()
	w.fsWatcher.Remove(path)
}

// AddRoot watches a directory tree and enqueues its existing files at
// low priority for the initial index pass.
func (w *Watcher) AddRoot(path string) error {
	log.Info("watching root", "path", path)

	if err := w.addToWatcher(path); err != nil {
		return err
	}

	w.mu.Lock()
	w.roots = append(w.roots, path)
	w.mu.Unlock()

	return w.walkAndAdd(path)
}

func (w *Watcher) walkAndAdd(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		log.Debug("cannot read directory", "path", path, "error", err)
		return err
	}

	for _, entry := range entries {
		fullPath := filepath.Join(path, entry.Name())

		if w.shouldIgnore(fullPath) {
			continue
		}

		if entry.IsDir() {
			if err := w.addToWatcher(fullPath); err != nil {
				log.Debug("cannot watch directory", "path", fullPath, "error", err)
				continue
			}
			w.walkAndAdd(fullPath)
			continue
		}

		w.indexer.Enqueue(index.Job{Path: fullPath, Priority: index.PriorityLow})
	}

	return nil
}

func (w *Watcher) RemoveRoot(path string) {
	w.removeFromWatcher(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	for i, root := range w.roots {
		if root == path {
			w.roots = append(w.roots[:i], w.roots[i+1:]...)
			break
		}
	}
}

func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	log.Info("file watcher started")
	go w.handleEvents()

	return nil
}

func (w *Watcher) handleEvents() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			// new directories must be added to the watch set before
			// their contents produce events
			if event.Has(fsnotify.Create) && !w.shouldIgnore(event.Name) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addToWatcher(event.Name); err == nil {
						w.walkAndAdd(event.Name)
					}
				}
			}

			if fileEvent := w.convertEvent(event); fileEvent != nil {
				w.debouncer.Add(*fileEvent)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) convertEvent(event fsnotify.Event) *FileEvent {
	if w.shouldIgnore(event.Name) {
		return nil
	}

	var eventType EventType
	switch {
	case event.Has(fsnotify.Create):
		eventType = EventCreate
	case event.Has(fsnotify.Write):
		eventType = EventModify
	case event.Has(fsnotify.Remove):
		eventType = EventDelete
	case event.Has(fsnotify.Rename):
		eventType = EventRename
	default:
		return nil
	}

	return &FileEvent{
		Path:      event.Name,
		Type:      eventType,
		Timestamp: time.Now(),
	}
}

// onFlush turns a debounced batch into index jobs. Small batches are
// usually an active edit and jump the queue; bulk changes go in at low
// priority. Deletes drop the file from the index immediately.
func (w *Watcher) onFlush(events []FileEvent) {
	log.Debug("flushing events", "count", len(events))

	priority := batchPriority(events)

	for _, event := range events {
		// a rename reports the old path; the new path arrives as its
		// own create event
		if event.Type == EventDelete || event.Type == EventRename {
			if w.store != nil {
				if err := w.store.DeleteFile(event.Path); err != nil {
					log.Warn("cannot drop removed file from index", "path", event.Path, "error", err)
				}
			}
			continue
		}

		w.indexer.Enqueue(index.Job{Path: event.Path, Priority: priority})
	}
}

func batchPriority(events []FileEvent) index.JobPriority {
	switch {
	case len(events) > 10:
		return index.PriorityLow
	case len(events) >= 3:
		return index.PriorityNormal
	default:
		return index.PriorityHigh
	}
}

func (w *Watcher) shouldIgnore(path string) bool {
	basename := filepath.Base(path)

	if !w.config.WatchHidden && strings.HasPrefix(basename, ".") {
		return true
	}

	for _, pattern := range w.config.IgnorePatterns {
		if match, _ := doublestar.Match(pattern, path); match {
			return true
		}
	}

	return false
}

func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.cancel()
	w.mu.Unlock()

	w.debouncer.Stop()

	w.fsMu.Lock()
	defer w.fsMu.Unlock()

	log.Info("file watcher stopped")
	return w.fsWatcher.Close()
}
