package jobs

import (
	"context"
	"fmt"
	"sync"
)

// JobFunc is the signature every registered entry point must satisfy. The
// positional and keyword arguments arrive exactly as they were submitted,
// deserialized from JSON. The return value of the underlying computation is
// discarded by the dispatch layer; a non-nil error consumes one of the
// record's tries.
type JobFunc func(ctx context.Context, args []any, kwargs map[string]any) error

// Registry maps entry-point strings of the form "pkg.subpkg.name" to
// functions compiled into this binary. Postings store the entry point; the
// worker that claims a job resolves it against its local registry.
// Submission refuses entry points absent from the local registry, and a
// worker fails a job terminally when the path is unknown on its side.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]JobFunc
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]JobFunc)}
}

// DefaultRegistry is the process-wide registry used when a Dispatcher is
// constructed without one.
var DefaultRegistry = NewRegistry()

// Register associates fn with the given entry point. Registering the same
// entry point twice is an error, to keep database records unambiguous about
// which code they will run.
func (r *Registry) Register(entryPoint string, fn JobFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[entryPoint]; exists {
		return fmt.Errorf("%w: %s", ErrEntryPointAlreadyRegistered, entryPoint)
	}
	r.jobs[entryPoint] = fn
	return nil
}

// Resolve returns the function registered for the entry point, if any.
func (r *Registry) Resolve(entryPoint string) (JobFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.jobs[entryPoint]
	return fn, ok
}

// Contains reports whether the entry point is registered.
func (r *Registry) Contains(entryPoint string) bool {
	_, ok := r.Resolve(entryPoint)
	return ok
}

// Clear empties the registry. Intended for tests.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = make(map[string]JobFunc)
}

// Register adds fn to the DefaultRegistry.
func Register(entryPoint string, fn JobFunc) error {
	return DefaultRegistry.Register(entryPoint, fn)
}
