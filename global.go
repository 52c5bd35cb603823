package cleanups

import (
	"context"
	"sync"

	"github.com/aretw0/cleanups/pkg/exit"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Cleanups

	globalMu        sync.Mutex
	globalListeners []Listener
)

// Default returns the process-wide registry, creating it on first use. Its
// pending entries run automatically when the program terminates through
// exit.Exit (or a signal handled by exit.Trap).
func Default() *Cleanups {
	defaultOnce.Do(func() {
		defaultRegistry = New(WithExitHook())
	})
	return defaultRegistry
}

// Add registers a cleanup on the Default registry.
func Add(fn Func, args ...any) *Cleanup {
	return Default().Add(fn, args...)
}

// AddCall registers a cleanup with keyword arguments on the Default registry.
func AddCall(fn Func, args []any, kwargs map[string]any) *Cleanup {
	return Default().AddCall(fn, args, kwargs)
}

// AddToFront prepends a cleanup on the Default registry.
func AddToFront(fn Func, args ...any) *Cleanup {
	return Default().AddToFront(fn, args...)
}

// Remove unregisters an entry from the Default registry.
func Remove(cl *Cleanup) bool {
	return Default().Remove(cl)
}

// Run executes all pending entries of the Default registry.
func Run(ctx context.Context) error {
	return Default().Run(ctx)
}

// Exit terminates the process through the exit hook, flushing the Default
// registry (and anything else registered with pkg/exit) on the way out.
func Exit(status int) {
	exit.Exit(status)
}

// AddGlobalListener registers a listener notified by every registry, ahead
// of the registry's own listeners.
func AddGlobalListener(l Listener) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalListeners = append(globalListeners, l)
}

// RemoveGlobalListener unregisters a listener added with AddGlobalListener.
func RemoveGlobalListener(l Listener) {
	globalMu.Lock()
	defer globalMu.Unlock()
	for i, reg := range globalListeners {
		if reg == l {
			globalListeners = append(globalListeners[:i], globalListeners[i+1:]...)
			return
		}
	}
}

func snapshotGlobalListeners() []Listener {
	globalMu.Lock()
	defer globalMu.Unlock()
	out := make([]Listener, len(globalListeners))
	copy(out, globalListeners)
	return out
}
