package stat

import (
	"fmt"
	"sync"
)

// AccumulatorFactory is a function that creates a new Accumulator instance.
type AccumulatorFactory func() Accumulator

// Registry manages the registration and creation of accumulator factories
// so external estimators can plug in by name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]AccumulatorFactory
}

// Global registry instance
var defaultRegistry = NewRegistry()

// NewRegistry creates a new accumulator registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]AccumulatorFactory),
	}
}

// Register registers an accumulator factory with the given name.
// This function is thread-safe and can be called from init() functions.
func (r *Registry) Register(name string, factory AccumulatorFactory) error {
	if name == "" {
		return fmt.Errorf("stat: accumulator name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("stat: accumulator factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[norm(name)]; exists {
		return fmt.Errorf("stat: accumulator %q is already registered", name)
	}

	r.factories[norm(name)] = factory
	return nil
}

// MustRegister is like Register but panics if the registration fails.
// This is typically used in init() functions where registration failures
// should be fatal.
func (r *Registry) MustRegister(name string, factory AccumulatorFactory) {
	if err := r.Register(name, factory); err != nil {
		panic(fmt.Sprintf("failed to register accumulator %q: %v", name, err))
	}
}

// Create creates a new accumulator using the factory registered under the
// given name, falling back to the builtin Factory aliases.
func (r *Registry) Create(name string) (Accumulator, error) {
	r.mu.RLock()
	factory, exists := r.factories[norm(name)]
	r.mu.RUnlock()

	if !exists {
		return Factory(name)
	}

	acc := factory()
	if acc == nil {
		return nil, fmt.Errorf("stat: accumulator factory for %q returned nil", name)
	}

	return acc, nil
}

// List returns the names of all registered accumulator factories.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// Unregister removes an accumulator from the registry.
// This is primarily useful for testing.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.factories[norm(name)]
	if exists {
		delete(r.factories, norm(name))
	}
	return exists
}

// Package-level convenience functions that operate on the default registry

// Register registers an accumulator factory with the default registry.
func Register(name string, factory AccumulatorFactory) error {
	return defaultRegistry.Register(name, factory)
}

// MustRegister is like Register but panics on failure.
func MustRegister(name string, factory AccumulatorFactory) {
	defaultRegistry.MustRegister(name, factory)
}

// Create creates an accumulator using the default registry.
func Create(name string) (Accumulator, error) {
	return defaultRegistry.Create(name)
}

// List returns all registered accumulator names from the default registry.
func List() []string {
	return defaultRegistry.List()
}

// DefaultRegistry returns the default accumulator registry.
// This is useful for advanced use cases or testing.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
