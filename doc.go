/*
Package cleanups is a small registry for cleanup operations: register a
function together with the arguments it should be called with, and have it
invoked later: on demand, when a scope ends, or at process exit.

A registry keeps its entries in registration order, executes them with
per-entry failure isolation (one failing cleanup never blocks the rest), and
notifies listeners of every execution, failure and removal.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/cleanups"
	)

	func main() {
		c := cleanups.New()
		defer c.Close()

		c.Add(func(ctx context.Context, args []any, _ map[string]any) error {
			log.Println("releasing", args[0])
			return nil
		}, "resource-42")

		// ... work with the resource ...
	}

Arguments are captured at registration time and replayed verbatim, both
positional and keyword:

	c.AddCall(fn, []any{1, 2}, map[string]any{"id": 3})

Every entry returned by Add is an identity token; hand it back to Remove to
unregister the entry before it runs, or to RunOne to trigger it out of order.

# Process exit

A process-wide Default registry is created on first use and flushed by the
exit hook in pkg/exit. Programs that want exit-time cleanups terminate
through cleanups.Exit (or install exit.Trap for SIGINT/SIGTERM), because the
Go runtime offers no hook that intercepts os.Exit.

	cleanups.Add(releaseLock, "/var/run/app.lock")
	defer cleanups.Exit(0)

# Observability

Listeners observe a registry's events. DebugListener logs them through slog;
pkg/listeners exports a Prometheus variant.

	c.AddListener(cleanups.NewDebugListener(logger))
*/
package cleanups
