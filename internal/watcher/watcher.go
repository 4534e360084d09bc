// Package watcher watches the frontend tree for changes to templates,
// descriptors, and static assets, debouncing rapid bursts into single
// notifications so the dev server clears the engine caches once per save.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/weftdev/weft/internal/logging"
)

// EventType represents the type of file change.
type EventType int

const (
	EventCreated EventType = iota
	EventModified
	EventDeleted
	EventRenamed
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	case EventDeleted:
		return "deleted"
	case EventRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// Event is one debounced file change.
type Event struct {
	Type EventType
	Path string
	Time time.Time
}

// Filter decides whether a path is interesting.
type Filter func(path string) bool

// Handler receives batches of debounced events.
type Handler func(events []Event)

// ExtensionFilter accepts paths with any of the given extensions.
func ExtensionFilter(extensions ...string) Filter {
	return func(path string) bool {
		ext := strings.ToLower(filepath.Ext(path))
		for _, e := range extensions {
			if ext == strings.ToLower(e) {
				return true
			}
		}
		return false
	}
}

// Watcher wraps fsnotify with recursive registration and debouncing.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	logger   logging.Logger

	mutex    sync.Mutex
	filters  []Filter
	handlers []Handler
	pending  []Event
	timer    *time.Timer
}

// New creates a watcher with the given debounce window.
func New(debounce time.Duration, logger logging.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Watcher{
		fs:       fs,
		debounce: debounce,
		logger:   logger.WithComponent("watcher"),
	}, nil
}

// AddFilter adds a path filter; events pass when any filter accepts them.
func (w *Watcher) AddFilter(filter Filter) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.filters = append(w.filters, filter)
}

// AddHandler adds a change handler.
func (w *Watcher) AddHandler(handler Handler) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.handlers = append(w.handlers, handler)
}

// AddRecursive registers root and every directory below it. New directories
// created while watching are registered as their create events arrive.
func (w *Watcher) AddRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.fs.Add(path)
		}
		return nil
	})
}

// Start consumes fsnotify events until ctx is canceled.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.fs.Events:
				if !ok {
					return
				}
				w.handle(ev)
			case err, ok := <-w.fs.Errors:
				if !ok {
					return
				}
				w.logger.Warn(ctx, err, "watch error")
			}
		}
	}()
}

// Stop closes the underlying watcher.
func (w *Watcher) Stop() error {
	return w.fs.Close()
}

func (w *Watcher) handle(ev fsnotify.Event) {
	// Watch directories as they appear so nested scaffolding is picked up.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.fs.Add(ev.Name)
			return
		}
	}

	if !w.accepts(ev.Name) {
		return
	}

	event := Event{Type: eventType(ev.Op), Path: ev.Name, Time: time.Now()}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.pending = append(w.pending, event)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mutex.Lock()
	events := w.pending
	w.pending = nil
	handlers := make([]Handler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mutex.Unlock()

	if len(events) == 0 {
		return
	}
	for _, handler := range handlers {
		handler(events)
	}
}

func (w *Watcher) accepts(path string) bool {
	w.mutex.Lock()
	filters := w.filters
	w.mutex.Unlock()

	if len(filters) == 0 {
		return true
	}
	for _, filter := range filters {
		if filter(path) {
			return true
		}
	}

	return false
}

func eventType(op fsnotify.Op) EventType {
	switch {
	case op.Has(fsnotify.Create):
		return EventCreated
	case op.Has(fsnotify.Remove):
		return EventDeleted
	case op.Has(fsnotify.Rename):
		return EventRenamed
	default:
		return EventModified
	}
}
