package core

import (
	"sort"
	"sync"
	"time"
)

// Topic is a registered broadcast address. Topics are transient: they are
// never persisted and can always be re-derived from a conversation's
// participant pair.
type Topic struct {
	Name      string
	CreatedAt time.Time
}

// TopicRegistry manages the set of live broadcast topics. One generic
// topic value per name; registration is idempotent and safe under
// concurrent callers for the same name.
type TopicRegistry struct {
	mu     sync.RWMutex
	topics map[string]Topic
}

// NewTopicRegistry constructs an empty registry.
func NewTopicRegistry() *TopicRegistry {
	return &TopicRegistry{topics: make(map[string]Topic)}
}

// EnsureExists returns the topic for name, registering it first if
// needed. Concurrent callers all receive the same logical topic.
func (r *TopicRegistry) EnsureExists(name string) Topic {
	r.mu.RLock()
	t, ok := r.topics[name]
	r.mu.RUnlock()
	if ok {
		return t
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-check: a racing caller may have registered between the locks.
	if t, ok := r.topics[name]; ok {
		return t
	}
	t = Topic{Name: name, CreatedAt: time.Now()}
	r.topics[name] = t
	return t
}

// Exists reports whether a topic is registered.
func (r *TopicRegistry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.topics[name]
	return ok
}

// List returns all registered topic names, sorted.
func (r *TopicRegistry) List() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.topics))
	for name := range r.topics {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}
