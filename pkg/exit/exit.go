// Package exit implements the process exit hook the cleanups library hangs
// off. The Go runtime has no atexit facility, so programs have to route
// termination through Exit (or Trap) for the hooks to fire; os.Exit bypasses
// them entirely.
package exit

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	mu    sync.Mutex
	hooks []func()
	once  sync.Once
)

// AtExit registers f to run when Exit is called. Hooks run at most once, in
// reverse order of registration.
func AtExit(f func()) {
	mu.Lock()
	hooks = append(hooks, f)
	mu.Unlock()
}

// Exit runs the registered hooks and terminates the process with status.
func Exit(status int) {
	runHooks()
	os.Exit(status)
}

// Trap arranges for Exit(1) to be called when one of the given signals is
// received. With no arguments it traps SIGINT and SIGTERM.
func Trap(signals ...os.Signal) {
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	go func() {
		<-ch
		Exit(1)
	}()
}

func runHooks() {
	once.Do(func() {
		mu.Lock()
		hs := make([]func(), len(hooks))
		copy(hs, hooks)
		mu.Unlock()

		for i := len(hs) - 1; i >= 0; i-- {
			hs[i]()
		}
	})
}
