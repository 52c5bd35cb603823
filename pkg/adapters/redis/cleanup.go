// Package redis provides convenience cleanups for Redis resources: keys
// created during a test or a bounded piece of work, and the client itself.
package redis

import (
	"context"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/cleanups"
)

// AddDel registers a cleanup on c that deletes the given keys. The keys are
// captured as the entry's positional arguments and replayed at execution
// time.
func AddDel(c *cleanups.Cleanups, client *backend.Client, keys ...string) *cleanups.Cleanup {
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	cl := c.Add(func(ctx context.Context, args []any, _ map[string]any) error {
		ks := make([]string, len(args))
		for i, a := range args {
			ks[i] = a.(string)
		}
		if len(ks) == 0 {
			return nil
		}
		return client.Del(ctx, ks...).Err()
	}, args...)
	cl.SetName(fmt.Sprintf("redis del %d key(s)", len(keys)))
	return cl
}

// AddClose registers a cleanup on c that closes the client.
func AddClose(c *cleanups.Cleanups, client *backend.Client) *cleanups.Cleanup {
	cl := c.Add(func(context.Context, []any, map[string]any) error {
		return client.Close()
	})
	cl.SetName("redis close client")
	return cl
}
