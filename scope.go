package cleanups

import (
	"context"
	"errors"
)

// With creates a registry scoped to fn and guarantees that everything queued
// on it has run by the time With returns, on every exit path: normal return,
// early return, or panic (the panic is re-raised after the cleanups ran).
//
//	err := cleanups.With(ctx, func(c *cleanups.Cleanups) error {
//		c.AddRemoveAll(dir)
//		return doWork(dir)
//	})
//
// The error returned by fn and, under WithAggregatedErrors, the failures
// collected by the final Run are joined.
func With(ctx context.Context, fn func(c *Cleanups) error, opts ...Option) (err error) {
	c := New(opts...)
	defer func() {
		if runErr := c.Run(ctx); runErr != nil {
			err = errors.Join(err, runErr)
		}
	}()
	return fn(c)
}
