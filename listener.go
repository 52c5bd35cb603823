package cleanups

import (
	"log/slog"

	"github.com/aretw0/cleanups/internal/logging"
)

// Listener observes the execution and removal of cleanups. Implementations
// are registered per registry via AddListener, or for every registry via
// AddGlobalListener.
//
// A panicking listener is recovered and logged; it never aborts other
// listeners or other entries.
type Listener interface {
	// Starting is invoked before an entry executes. Returning true skips
	// the entry: it is not executed and neither Completed nor Failed fires
	// for it.
	Starting(c *Cleanups, cl *Cleanup) bool

	// Completed is invoked after an entry ran successfully. Exactly one of
	// Completed or Failed fires per executed entry.
	Completed(c *Cleanups, cl *Cleanup)

	// Failed is invoked after an entry returned an error or panicked.
	Failed(c *Cleanups, cl *Cleanup, err error)

	// Removed is invoked when a pending entry is unregistered without
	// executing (Remove, Clear, or a Starting skip does not trigger it).
	Removed(c *Cleanups, cl *Cleanup)
}

// BaseListener is a no-op Listener meant for embedding, so implementations
// only override the events they care about.
type BaseListener struct{}

// Starting implements Listener.
func (BaseListener) Starting(*Cleanups, *Cleanup) bool { return false }

// Completed implements Listener.
func (BaseListener) Completed(*Cleanups, *Cleanup) {}

// Failed implements Listener.
func (BaseListener) Failed(*Cleanups, *Cleanup, error) {}

// Removed implements Listener.
func (BaseListener) Removed(*Cleanups, *Cleanup) {}

// DebugListener logs every cleanup event through a structured logger. It is
// the slog counterpart of attaching a debug tracer to a registry.
type DebugListener struct {
	logger *slog.Logger
}

// NewDebugListener creates a DebugListener. A nil logger falls back to a
// text logger on stderr with debug level enabled.
func NewDebugListener(logger *slog.Logger) *DebugListener {
	if logger == nil {
		logger = logging.New(slog.LevelDebug)
	}
	return &DebugListener{logger: logger}
}

// Starting implements Listener. It never skips the entry.
func (d *DebugListener) Starting(_ *Cleanups, cl *Cleanup) bool {
	d.logger.Debug("cleanup starting", "cleanup", cl.String())
	return false
}

// Completed implements Listener.
func (d *DebugListener) Completed(_ *Cleanups, cl *Cleanup) {
	d.logger.Info("cleanup completed", "cleanup", cl.String())
}

// Failed implements Listener.
func (d *DebugListener) Failed(_ *Cleanups, cl *Cleanup, err error) {
	d.logger.Error("cleanup failed", "cleanup", cl.String(), "err", err)
}

// Removed implements Listener.
func (d *DebugListener) Removed(_ *Cleanups, cl *Cleanup) {
	d.logger.Info("cleanup removed", "cleanup", cl.String())
}

// notifier is an immutable snapshot of the listeners in effect for one
// operation, taken under the registry lock and dispatched outside it.
type notifier struct {
	owner     *Cleanups
	listeners []Listener
	logger    *slog.Logger
}

func (n *notifier) starting(cl *Cleanup) bool {
	skip := false
	for _, l := range n.listeners {
		if n.safeStarting(l, cl) {
			skip = true
		}
	}
	return skip
}

func (n *notifier) completed(cl *Cleanup) {
	for _, l := range n.listeners {
		n.safeNotify(cl, func() { l.Completed(n.owner, cl) })
	}
}

func (n *notifier) failed(cl *Cleanup, err error) {
	for _, l := range n.listeners {
		n.safeNotify(cl, func() { l.Failed(n.owner, cl, err) })
	}
}

func (n *notifier) removed(cl *Cleanup) {
	for _, l := range n.listeners {
		n.safeNotify(cl, func() { l.Removed(n.owner, cl) })
	}
}

func (n *notifier) safeStarting(l Listener, cl *Cleanup) (skip bool) {
	defer n.recoverListener(cl)
	return l.Starting(n.owner, cl)
}

func (n *notifier) safeNotify(cl *Cleanup, notify func()) {
	defer n.recoverListener(cl)
	notify()
}

// recoverListener must be called via defer.
func (n *notifier) recoverListener(cl *Cleanup) {
	if r := recover(); r != nil {
		n.logger.Error("cleanup listener panicked", "cleanup", cl.String(), "panic", r)
	}
}
