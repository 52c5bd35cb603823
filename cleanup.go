package cleanups

import (
	"context"
	"fmt"
)

// Status describes the lifecycle state of a Cleanup.
type Status string

const (
	// StatusPending means the cleanup is queued and has not run yet.
	StatusPending Status = "pending"
	// StatusExecuted means the cleanup ran and returned no error.
	StatusExecuted Status = "executed"
	// StatusFailed means the cleanup ran and returned an error or panicked.
	StatusFailed Status = "failed"
	// StatusRemoved means the cleanup was unregistered (or skipped by a
	// listener) before it could run.
	StatusRemoved Status = "removed"
)

// Func is the signature cleanup operations implement. The args and kwargs
// captured at registration time are replayed verbatim on every invocation;
// the registry never validates them against what fn actually expects.
type Func func(ctx context.Context, args []any, kwargs map[string]any) error

// Cleanup stores one registered cleanup operation. Instances are created by
// a Cleanups registry and owned by it; callers keep the returned pointer
// only as an identity token for Remove, RunOne and Contains.
type Cleanup struct {
	id     uint64
	fn     Func
	args   []any
	kwargs map[string]any

	owner *Cleanups

	// name and status are guarded by owner.mu.
	name   string
	status Status
}

// ID returns the identity assigned by the owning registry.
func (c *Cleanup) ID() uint64 {
	return c.id
}

// Status reports the current lifecycle state.
func (c *Cleanup) Status() Status {
	c.owner.mu.Lock()
	defer c.owner.mu.Unlock()
	return c.status
}

// Name returns the debug name, or "" if none was set.
func (c *Cleanup) Name() string {
	c.owner.mu.Lock()
	defer c.owner.mu.Unlock()
	return c.name
}

// SetName assigns a debug name used by String and by listeners that log.
func (c *Cleanup) SetName(name string) {
	c.owner.mu.Lock()
	defer c.owner.mu.Unlock()
	c.name = name
}

// Args returns a copy of the captured positional arguments.
func (c *Cleanup) Args() []any {
	out := make([]any, len(c.args))
	copy(out, c.args)
	return out
}

// Kwargs returns a copy of the captured keyword arguments.
func (c *Cleanup) Kwargs() map[string]any {
	out := make(map[string]any, len(c.kwargs))
	for k, v := range c.kwargs {
		out[k] = v
	}
	return out
}

// String renders as "<id>" or "<id>: <name>" when a name is set.
func (c *Cleanup) String() string {
	if name := c.Name(); name != "" {
		return fmt.Sprintf("%d: %s", c.id, name)
	}
	return fmt.Sprintf("%d", c.id)
}

// invoke runs the cleanup function with its captured arguments, converting a
// panic into an error so one entry can never take down the whole run.
func (c *Cleanup) invoke(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cleanup %s panicked: %v", c, r)
		}
	}()
	return c.fn(ctx, c.args, c.kwargs)
}

func (c *Cleanup) setStatus(s Status) {
	c.owner.mu.Lock()
	c.status = s
	c.owner.mu.Unlock()
}
