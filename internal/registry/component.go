// Package registry tracks the svelte components a running fymo project has
// compiled and fans change events out to subscribers. The watcher feeds it
// filesystem changes; the dev server subscribes to drive live reload.
package registry

import (
	"sync"
	"time"
)

// ComponentRegistry manages all known components
type ComponentRegistry struct {
	components map[string]*ComponentInfo
	mutex      sync.RWMutex
	watchers   []chan ComponentEvent
}

// ComponentInfo holds metadata about a svelte component
type ComponentInfo struct {
	// Identity is the template-relative path, e.g. "home/index.svelte".
	Identity string
	// Name is the constructor name derived from the template file.
	Name       string
	Controller string
	Action     string
	// TemplatePath is the on-disk location of the source.
	TemplatePath string
	Fingerprint  string
	LastMod      time.Time
}

// ComponentEvent represents a change in the component registry
type ComponentEvent struct {
	Type      EventType
	Component *ComponentInfo
	Timestamp time.Time
}

// EventType represents the type of component event
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
	EventTypeRemoved
)

// String returns the string representation of the event type
func (e EventType) String() string {
	switch e {
	case EventTypeAdded:
		return "added"
	case EventTypeUpdated:
		return "updated"
	case EventTypeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// NewComponentRegistry creates a new component registry
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		components: make(map[string]*ComponentInfo),
		watchers:   make([]chan ComponentEvent, 0),
	}
}

// Register adds or updates a component, keyed by identity
func (r *ComponentRegistry) Register(component *ComponentInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := EventTypeAdded
	if _, exists := r.components[component.Identity]; exists {
		eventType = EventTypeUpdated
	}

	r.components[component.Identity] = component
	r.notify(eventType, component)
}

// Get retrieves a component by identity
func (r *ComponentRegistry) Get(identity string) (*ComponentInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	component, exists := r.components[identity]
	return component, exists
}

// GetAll returns a snapshot of all registered components
func (r *ComponentRegistry) GetAll() map[string]*ComponentInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make(map[string]*ComponentInfo, len(r.components))
	for identity, component := range r.components {
		result[identity] = component
	}
	return result
}

// Touch records that a component's source changed on disk and notifies
// subscribers. The fingerprint is cleared until the next compile. Identities
// that were never registered are ignored; a template that was never rendered
// has nothing to invalidate.
func (r *ComponentRegistry) Touch(identity string, lastMod time.Time) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	component, exists := r.components[identity]
	if !exists {
		return false
	}

	component.LastMod = lastMod
	component.Fingerprint = ""
	r.notify(EventTypeUpdated, component)
	return true
}

// Remove removes a component from the registry
func (r *ComponentRegistry) Remove(identity string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	component, exists := r.components[identity]
	if !exists {
		return
	}

	delete(r.components, identity)
	r.notify(EventTypeRemoved, component)
}

// Watch returns a channel that receives component events
func (r *ComponentRegistry) Watch() <-chan ComponentEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan ComponentEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *ComponentRegistry) UnWatch(ch <-chan ComponentEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered components
func (r *ComponentRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.components)
}

// notify fans an event out to every watcher. Callers hold the write lock.
func (r *ComponentRegistry) notify(eventType EventType, component *ComponentInfo) {
	event := ComponentEvent{
		Type:      eventType,
		Component: component,
		Timestamp: time.Now(),
	}

	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}
