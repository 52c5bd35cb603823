package cleanups

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/aretw0/cleanups/internal/logging"
	"github.com/aretw0/cleanups/pkg/exit"
)

// Cleanups holds an ordered collection of pending cleanup operations.
// Entries run in registration order and are consumed by Run; a registry can
// be refilled and run again any number of times.
//
// All methods are safe for concurrent use. Run snapshots the pending entries
// before executing them, so a cleanup or listener may call Add on the same
// registry; such entries are deferred to the next Run.
type Cleanups struct {
	mu        sync.Mutex
	pending   []*Cleanup
	listeners []Listener
	nextID    uint64

	logger    *slog.Logger
	aggregate bool
	exitHook  bool
}

// Option defines a functional option for configuring a registry.
type Option func(*Cleanups)

// WithLogger sets a custom structured logger. By default failures and
// listener panics are logged to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cleanups) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAggregatedErrors makes Run (and Close/With) return the joined errors
// of all failed entries instead of swallowing them. Failure isolation is
// unaffected: every entry still runs.
func WithAggregatedErrors() Option {
	return func(c *Cleanups) {
		c.aggregate = true
	}
}

// WithExitHook registers the registry's Run with the process exit hook
// (pkg/exit), so its pending entries fire when exit.Exit terminates the
// program. The Default registry is created with this option.
func WithExitHook() Option {
	return func(c *Cleanups) {
		c.exitHook = true
	}
}

// New creates an empty registry.
func New(opts ...Option) *Cleanups {
	c := &Cleanups{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.exitHook {
		exit.AtExit(func() {
			if err := c.Run(context.Background()); err != nil {
				c.logger.Error("cleanups failed at exit", "err", err)
			}
		})
	}
	return c
}

// Add appends a cleanup invoking fn with the given positional arguments and
// returns its identity.
func (c *Cleanups) Add(fn Func, args ...any) *Cleanup {
	return c.AddCall(fn, args, nil)
}

// AddCall appends a cleanup with both positional and keyword arguments,
// replayed verbatim when the entry executes.
func (c *Cleanups) AddCall(fn Func, args []any, kwargs map[string]any) *Cleanup {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl := c.newCleanup(fn, args, kwargs)
	c.pending = append(c.pending, cl)
	return cl
}

// AddToFront prepends a cleanup, so it runs before everything already
// registered.
func (c *Cleanups) AddToFront(fn Func, args ...any) *Cleanup {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl := c.newCleanup(fn, args, nil)
	c.pending = append([]*Cleanup{cl}, c.pending...)
	return cl
}

// AddRemove registers a cleanup that deletes the file at path.
func (c *Cleanups) AddRemove(path string) *Cleanup {
	cl := c.Add(func(_ context.Context, args []any, _ map[string]any) error {
		return os.Remove(args[0].(string))
	}, path)
	cl.SetName("remove " + path)
	return cl
}

// AddRemoveAll registers a cleanup that deletes the directory tree at path.
func (c *Cleanups) AddRemoveAll(path string) *Cleanup {
	cl := c.Add(func(_ context.Context, args []any, _ map[string]any) error {
		return os.RemoveAll(args[0].(string))
	}, path)
	cl.SetName("remove all " + path)
	return cl
}

// Remove unregisters a pending entry and reports whether removal occurred.
// An unknown identity, or one that already ran or was removed, returns false
// rather than an error. Listeners are notified of the removal.
func (c *Cleanups) Remove(cl *Cleanup) bool {
	if cl == nil {
		return false
	}
	c.mu.Lock()
	idx := c.indexLocked(cl)
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	c.pending = append(c.pending[:idx], c.pending[idx+1:]...)
	cl.status = StatusRemoved
	n := c.notifierLocked()
	c.mu.Unlock()

	n.removed(cl)
	return true
}

// Run executes all pending entries in registration order, invoking each with
// its captured arguments. A failing entry never blocks the rest: its error
// is recorded, listeners are notified, and execution continues. After Run
// returns, every entry pending at the time of the call has left the
// registry.
//
// By default failures are only logged and reported to listeners; with
// WithAggregatedErrors, Run returns them joined.
func (c *Cleanups) Run(ctx context.Context) error {
	c.mu.Lock()
	cls := c.pending
	c.pending = nil
	n := c.notifierLocked()
	c.mu.Unlock()

	var errs []error
	for _, cl := range cls {
		if err := c.execute(ctx, cl, n); err != nil {
			errs = append(errs, err)
		}
	}
	if c.aggregate {
		return errors.Join(errs...)
	}
	return nil
}

// RunOne executes exactly one pending entry out of order, with the same
// failure isolation and listener notification as Run, and unregisters it.
// It reports whether the entry was found and executed.
func (c *Cleanups) RunOne(ctx context.Context, cl *Cleanup) bool {
	if cl == nil {
		return false
	}
	c.mu.Lock()
	idx := c.indexLocked(cl)
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	c.pending = append(c.pending[:idx], c.pending[idx+1:]...)
	n := c.notifierLocked()
	c.mu.Unlock()

	c.execute(ctx, cl, n)
	return true
}

// Clear unregisters all pending entries without running them. Listeners are
// notified of each removal.
func (c *Cleanups) Clear() {
	c.mu.Lock()
	cls := c.pending
	c.pending = nil
	for _, cl := range cls {
		cl.status = StatusRemoved
	}
	n := c.notifierLocked()
	c.mu.Unlock()

	for _, cl := range cls {
		n.removed(cl)
	}
}

// Len returns the number of pending entries.
func (c *Cleanups) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Contains reports whether cl is still pending in this registry.
func (c *Cleanups) Contains(cl *Cleanup) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexLocked(cl) >= 0
}

// AddListener registers a listener notified of this registry's events.
func (c *Cleanups) AddListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// RemoveListener unregisters a previously added listener. Listeners are
// matched by equality, so register comparable values (typically pointers).
func (c *Cleanups) RemoveListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, reg := range c.listeners {
		if reg == l {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

// Close runs all pending entries. It implements io.Closer so a registry can
// guard a scope:
//
//	c := cleanups.New()
//	defer c.Close()
func (c *Cleanups) Close() error {
	return c.Run(context.Background())
}

func (c *Cleanups) execute(ctx context.Context, cl *Cleanup, n *notifier) error {
	if n.starting(cl) {
		// A listener asked to skip this entry.
		cl.setStatus(StatusRemoved)
		return nil
	}
	if err := cl.invoke(ctx); err != nil {
		cl.setStatus(StatusFailed)
		c.logger.Error("cleanup failed", "cleanup", cl.String(), "err", err)
		n.failed(cl, err)
		return err
	}
	cl.setStatus(StatusExecuted)
	n.completed(cl)
	return nil
}

// newCleanup requires c.mu to be held.
func (c *Cleanups) newCleanup(fn Func, args []any, kwargs map[string]any) *Cleanup {
	c.nextID++
	cl := &Cleanup{
		id:     c.nextID,
		fn:     fn,
		owner:  c,
		status: StatusPending,
	}
	if len(args) > 0 {
		cl.args = make([]any, len(args))
		copy(cl.args, args)
	}
	if len(kwargs) > 0 {
		cl.kwargs = make(map[string]any, len(kwargs))
		for k, v := range kwargs {
			cl.kwargs[k] = v
		}
	}
	return cl
}

// indexLocked requires c.mu to be held.
func (c *Cleanups) indexLocked(cl *Cleanup) int {
	for i, p := range c.pending {
		if p == cl {
			return i
		}
	}
	return -1
}

// notifierLocked requires c.mu to be held.
func (c *Cleanups) notifierLocked() *notifier {
	local := make([]Listener, len(c.listeners))
	copy(local, c.listeners)
	return &notifier{
		owner:     c,
		listeners: append(snapshotGlobalListeners(), local...),
		logger:    c.logger,
	}
}
