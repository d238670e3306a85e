// Package watcher provides debounced filesystem watching for template and
// data directories during development.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Bishwas-py/fymo/internal/logging"
)

// EventType classifies a filesystem change.
type EventType int

const (
	// Created indicates a new file was created
	Created EventType = iota
	// Modified indicates a file was modified
	Modified
	// Deleted indicates a file was deleted
	Deleted
	// Renamed indicates a file was renamed
	Renamed
)

// String returns the string representation of the event type
func (e EventType) String() string {
	switch e {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Renamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ChangeEvent represents a single debounced filesystem change.
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
	Size    int64
}

// FileFilter decides whether a changed path is interesting.
type FileFilter func(path string) bool

// ChangeHandler receives a debounced batch of change events.
type ChangeHandler func(events []ChangeEvent) error

// FileWatcher watches project directories for template and data changes,
// debounces rapid event bursts, and delivers batches to registered handlers.
type FileWatcher struct {
	root      string
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	logger    logging.Logger

	mutex    sync.RWMutex
	filters  []FileFilter
	handlers []ChangeHandler
}

// NewFileWatcher creates a watcher scoped to projectRoot. Only paths inside
// the root may be added.
func NewFileWatcher(projectRoot string, debounceDelay time.Duration, logger logging.Logger) (*FileWatcher, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = logging.NewLogger(logging.DefaultConfig())
	}

	return &FileWatcher{
		root:      root,
		watcher:   fsWatcher,
		debouncer: NewDebouncer(debounceDelay),
		logger:    logger.WithComponent("watcher"),
	}, nil
}

// AddFilter registers a path filter. All filters must accept a path before
// an event for it is delivered.
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.filters = append(fw.filters, filter)
}

// AddHandler registers a change handler.
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddPath watches a single directory.
func (fw *FileWatcher) AddPath(path string) error {
	validated, err := fw.validatePath(path)
	if err != nil {
		return err
	}
	return fw.watcher.Add(validated)
}

// AddRecursive watches a directory tree. Hidden directories and node_modules
// are skipped.
func (fw *FileWatcher) AddRecursive(dir string) error {
	validated, err := fw.validatePath(dir)
	if err != nil {
		return err
	}
	return filepath.Walk(validated, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if skipDir(path, validated) {
			return filepath.SkipDir
		}
		return fw.watcher.Add(path)
	})
}

// validatePath cleans path and ensures it stays inside the project root.
func (fw *FileWatcher) validatePath(path string) (string, error) {
	cleaned := filepath.Clean(path)
	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", path, err)
	}
	if abs != fw.root && !strings.HasPrefix(abs, fw.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside project root %q", path, fw.root)
	}
	return abs, nil
}

// Start launches the watch loop. It returns immediately; events flow to
// handlers until ctx is cancelled or Stop is called.
func (fw *FileWatcher) Start(ctx context.Context) error {
	go fw.debouncer.start(ctx)
	go fw.processEvents(ctx)
	go fw.watchLoop(ctx)
	return nil
}

// Stop closes the underlying fsnotify watcher.
func (fw *FileWatcher) Stop() error {
	return fw.watcher.Close()
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsnotifyEvent(ctx, event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn(ctx, err, "Filesystem watch error")
		}
	}
}

func (fw *FileWatcher) handleFsnotifyEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}

	info, statErr := os.Stat(event.Name)
	if statErr == nil && info.IsDir() {
		// New directories under a watched tree are not watched automatically.
		if event.Op.Has(fsnotify.Create) && !skipDir(event.Name, fw.root) {
			if err := fw.watcher.Add(event.Name); err != nil {
				fw.logger.Warn(ctx, err, "Failed to watch new directory", "path", event.Name)
			}
		}
		return
	}

	fw.mutex.RLock()
	filters := fw.filters
	fw.mutex.RUnlock()
	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	change := ChangeEvent{Path: event.Name}
	switch {
	case event.Op.Has(fsnotify.Create):
		change.Type = Created
	case event.Op.Has(fsnotify.Write):
		change.Type = Modified
	case event.Op.Has(fsnotify.Remove):
		change.Type = Deleted
	case event.Op.Has(fsnotify.Rename):
		change.Type = Renamed
	default:
		return
	}
	if statErr == nil {
		change.ModTime = info.ModTime()
		change.Size = info.Size()
	}

	select {
	case fw.debouncer.events <- change:
	default:
		fw.logger.Debug(ctx, "Dropping change event, debouncer is full", "path", event.Name)
	}
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-fw.debouncer.output:
			fw.mutex.RLock()
			handlers := fw.handlers
			fw.mutex.RUnlock()
			for _, handler := range handlers {
				if err := handler(batch); err != nil {
					fw.logger.Error(ctx, err, "Change handler failed", "events", len(batch))
				}
			}
		}
	}
}

func skipDir(path, root string) bool {
	if path == root {
		return false
	}
	name := filepath.Base(path)
	return strings.HasPrefix(name, ".") || name == "node_modules"
}

// Debouncer coalesces bursts of change events into a single batch. Editors
// commonly emit several events per save; handlers see one delivery.
type Debouncer struct {
	delay  time.Duration
	events chan ChangeEvent
	output chan []ChangeEvent

	mutex   sync.Mutex
	timer   *time.Timer
	pending []ChangeEvent
}

// NewDebouncer creates a debouncer which delivers batches after delay of
// quiet time.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:  delay,
		events: make(chan ChangeEvent, 100),
		output: make(chan []ChangeEvent, 10),
	}
}

func (d *Debouncer) start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.events:
			d.addEvent(event)
		}
	}
}

func (d *Debouncer) addEvent(event ChangeEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending = append(d.pending, event)
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

// flush dedupes pending events by path, keeping the latest event per path in
// first-seen order, and delivers the batch.
func (d *Debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(d.pending) == 0 {
		return
	}
	seen := make(map[string]int, len(d.pending))
	batch := make([]ChangeEvent, 0, len(d.pending))
	for _, event := range d.pending {
		if i, ok := seen[event.Path]; ok {
			batch[i] = event
			continue
		}
		seen[event.Path] = len(batch)
		batch = append(batch, event)
	}
	d.pending = nil

	select {
	case d.output <- batch:
	default:
	}
}

// SvelteFilter accepts component sources.
func SvelteFilter(path string) bool {
	return filepath.Ext(path) == ".svelte"
}

// DataFilter accepts controller data files.
func DataFilter(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yml" || ext == ".yaml"
}

// NoHiddenFilter rejects dotfiles and anything inside hidden directories.
func NoHiddenFilter(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	return !strings.Contains(filepath.ToSlash(path), "/.")
}

// Any combines filters so a path passing any one of them is accepted.
func Any(filters ...FileFilter) FileFilter {
	return func(path string) bool {
		for _, filter := range filters {
			if filter(path) {
				return true
			}
		}
		return false
	}
}
