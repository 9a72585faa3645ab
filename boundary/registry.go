package boundary

import (
	"fmt"
	"sort"
	"sync"

	factgraph "github.com/trueprep/fact-graph"
)

// Registry holds one Adapter per session key, guarded by a single
// RWMutex the way the teacher's DefaultLocker guards a rule map. A host
// service handling many concurrent fact graphs (one per in-progress
// return, application, or case) opens one here per key rather than
// wiring its own locking around a plain map.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]*Adapter

	dictionary *factgraph.Dictionary
	migrations *factgraph.MigrationRegistry
	logger     Logger
}

// NewRegistry returns an empty Registry. Every Adapter it opens shares
// dictionary and migrations, since those describe one Dictionary
// generation; each session gets its own independent Store.
func NewRegistry(dictionary *factgraph.Dictionary, migrations *factgraph.MigrationRegistry, logger Logger) *Registry {
	if logger == nil {
		logger = DefaultLogger
	}
	return &Registry{
		adapters:   map[string]*Adapter{},
		dictionary: dictionary,
		migrations: migrations,
		logger:     logger,
	}
}

// Open returns the Adapter for key, creating a fresh empty one if none
// exists yet.
func (r *Registry) Open(key string) (*Adapter, error) {
	r.mu.RLock()
	a, ok := r.adapters[key]
	r.mu.RUnlock()
	if ok {
		return a, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.adapters[key]; ok {
		return a, nil
	}
	a, err := NewAdapter(r.dictionary, r.migrations, r.logger)
	if err != nil {
		return nil, err
	}
	r.adapters[key] = a
	return a, nil
}

// Contains reports whether key has an open Adapter.
func (r *Registry) Contains(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.adapters[key]
	return ok
}

// Close discards the Adapter for key, if any.
func (r *Registry) Close(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.adapters, key)
}

// Replace atomically swaps the Adapter registered at key, failing if key
// was never opened. Used when a session's store is loaded from cold
// storage into a running registry under its established key.
func (r *Registry) Replace(key string, a *Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.adapters[key]; !ok {
		return fmt.Errorf("boundary: no open session %q to replace", key)
	}
	r.adapters[key] = a
	return nil
}

// Keys returns every open session key, sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.adapters))
	for k := range r.adapters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of open sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}
