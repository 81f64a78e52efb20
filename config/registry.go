// Package config provides a stage registry and human-readable pipeline configuration.
package config

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dcshock/runstate/pipeline"
)

// Registry maps stage names to stage functions. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	stages map[string]pipeline.StageFunc
}

// NewRegistry returns an empty stage registry.
func NewRegistry() *Registry {
	return &Registry{stages: make(map[string]pipeline.StageFunc)}
}

// Register adds a stage under the given name. Overwrites any existing registration.
func (r *Registry) Register(name string, stage pipeline.StageFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stages == nil {
		r.stages = make(map[string]pipeline.StageFunc)
	}
	r.stages[name] = stage
}

// Get returns the stage for name, or nil and false if not found.
func (r *Registry) Get(name string) (pipeline.StageFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stages[name]
	return s, ok
}

// MustGet returns the stage for name, or panics if not found.
func (r *Registry) MustGet(name string) pipeline.StageFunc {
	s, ok := r.Get(name)
	if !ok {
		panic(fmt.Sprintf("config: stage %q not registered", name))
	}
	return s
}

// Names returns all registered stage names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.stages))
	for n := range r.stages {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// ObserverRegistry maps observer names (as used in PipelineConfig.Observers) to observers.
type ObserverRegistry struct {
	mu        sync.RWMutex
	observers map[string]pipeline.Observer
}

// NewObserverRegistry returns an empty observer registry.
func NewObserverRegistry() *ObserverRegistry {
	return &ObserverRegistry{observers: make(map[string]pipeline.Observer)}
}

// Register adds an observer under the given name. Overwrites any existing registration.
func (r *ObserverRegistry) Register(name string, obs pipeline.Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.observers == nil {
		r.observers = make(map[string]pipeline.Observer)
	}
	r.observers[name] = obs
}

// Get returns the observer for name, or nil and false if not found.
func (r *ObserverRegistry) Get(name string) (pipeline.Observer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.observers[name]
	return o, ok
}
