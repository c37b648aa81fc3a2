package connection

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Listener receives the raw payload of a broadcast for one event type.
type Listener func(data json.RawMessage)

// listenerEntry pairs a listener with a removal handle.
type listenerEntry struct {
	id int
	fn Listener
}

// Registry tracks which broadcast topics the client asked the server to
// push, and fans incoming broadcasts out to local listeners.
//
// The topic set exists for diagnostics and (optionally) replay after a
// reconnect; subscribing to an already-tracked key is a local no-op.
type Registry struct {
	logger *slog.Logger

	mu        sync.Mutex
	topics    map[string]topicEntry
	listeners map[string][]listenerEntry
	nextID    int
}

// topicEntry remembers the original topic and scope so subscriptions can
// be replayed after a reconnect.
type topicEntry struct {
	topic string
	scope map[string]string
}

// NewRegistry creates an empty subscription registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:    logger,
		topics:    make(map[string]topicEntry),
		listeners: make(map[string][]listenerEntry),
	}
}

// TopicKey builds the composite key for a scoped topic, e.g.
// "market_analysis_BTCUSDT" or "trades_<sessionID>". Scope values are
// appended in sorted key order so the key is deterministic.
func TopicKey(topic string, scope map[string]string) string {
	if len(scope) == 0 {
		return topic
	}

	keys := make([]string, 0, len(scope))
	for k := range scope {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(scope)+1)
	parts = append(parts, topic)
	for _, k := range keys {
		parts = append(parts, scope[k])
	}
	return strings.Join(parts, "_")
}

// add tracks a topic key. Returns the key and whether it was newly added.
func (r *Registry) add(topic string, scope map[string]string) (string, bool) {
	key := TopicKey(topic, scope)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.topics[key]; exists {
		return key, false
	}
	r.topics[key] = topicEntry{topic: topic, scope: scope}
	return key, true
}

// remove untracks a topic key. Returns the key and whether it was present.
func (r *Registry) remove(topic string, scope map[string]string) (string, bool) {
	key := TopicKey(topic, scope)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.topics[key]; !exists {
		return key, false
	}
	delete(r.topics, key)
	return key, true
}

// snapshot returns the tracked topic entries, for replay after reconnect.
func (r *Registry) snapshot() []topicEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]topicEntry, 0, len(r.topics))
	for _, e := range r.topics {
		entries = append(entries, e)
	}
	return entries
}

// On registers a listener for an event type and returns its removal func.
// Listeners for one type run synchronously in registration order.
func (r *Registry) On(eventType string, fn Listener) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.listeners[eventType] = append(r.listeners[eventType], listenerEntry{id: id, fn: fn})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		entries := r.listeners[eventType]
		for i, e := range entries {
			if e.id == id {
				r.listeners[eventType] = append(entries[:i], entries[i+1:]...)
				break
			}
		}
		if len(r.listeners[eventType]) == 0 {
			delete(r.listeners, eventType)
		}
	}
}

// Dispatch fans a broadcast out to all listeners registered for its type.
// Delivery is synchronous; per-type order follows the channel's order.
func (r *Registry) Dispatch(eventType string, data json.RawMessage) {
	r.mu.Lock()
	entries := make([]listenerEntry, len(r.listeners[eventType]))
	copy(entries, r.listeners[eventType])
	r.mu.Unlock()

	if len(entries) == 0 {
		r.logger.Debug("broadcast with no listeners", "type", eventType)
		return
	}

	for _, e := range entries {
		e.fn(data)
	}
}

// Count returns the number of tracked topic keys.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.topics)
}

// Topics returns the tracked topic keys, sorted, for diagnostics.
func (r *Registry) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.topics))
	for k := range r.topics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
