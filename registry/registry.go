package registry

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/rishavSprinto/eigenflow/types"
)

// Registry is a process-wide mapping from a string key to a value of
// type T. It is append-only after startup wiring: Register is expected
// to run once per process during initialization, while Get and Keys are
// safe for concurrent use during execution.
//
// The engine uses two independent instances with the identical
// contract: one for step-type factories (consumed by the graph
// builder), one for compiled workflows (consumed by the invocation
// surface). Construct registries explicitly and inject them; tests get
// a fresh instance each.
type Registry[T any] struct {
	name    string
	mu      sync.RWMutex
	entries map[string]T
	logger  *zap.Logger
}

// Option configures a Registry.
type Option[T any] func(*Registry[T])

// WithLogger sets the logger used for registration events.
func WithLogger[T any](logger *zap.Logger) Option[T] {
	return func(r *Registry[T]) {
		r.logger = logger
	}
}

// New creates an empty registry. The name appears in error messages and
// log fields to tell the two instances apart.
func New[T any](name string, opts ...Option[T]) *Registry[T] {
	r := &Registry[T]{
		name:    name,
		entries: make(map[string]T),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("component", "registry"), zap.String("registry", name))
	return r
}

// Register adds a value under key. Re-registering an existing key fails
// with DUPLICATE_REGISTRATION and leaves the existing entry unchanged.
func (r *Registry[T]) Register(key string, value T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[key]; exists {
		return types.NewErrorf(types.ErrDuplicateRegistration,
			"%s registry: key %q already registered", r.name, key)
	}
	r.entries[key] = value

	r.logger.Debug("registered", zap.String("key", key))
	return nil
}

// Get returns the value for key and whether it exists. It never
// constructs or mutates anything.
func (r *Registry[T]) Get(key string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}

// Keys returns all registered keys, sorted for stable output.
func (r *Registry[T]) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of registered entries.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
