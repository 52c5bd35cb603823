package cleanups_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/cleanups"
)

// logTo returns a Func that appends name to order when invoked.
func logTo(order *[]string, name string) cleanups.Func {
	return func(context.Context, []any, map[string]any) error {
		*order = append(*order, name)
		return nil
	}
}

func TestRun_RegistrationOrder(t *testing.T) {
	var order []string
	c := cleanups.New()
	c.Add(logTo(&order, "kitchener"))
	c.Add(logTo(&order, "waterloo"))
	c.Add(logTo(&order, "cambridge"))

	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, []string{"kitchener", "waterloo", "cambridge"}, order)
	assert.Equal(t, 0, c.Len(), "pending sequence must be empty after Run")
}

func TestAddToFront(t *testing.T) {
	var order []string
	c := cleanups.New()
	c.Add(logTo(&order, "second"))
	c.AddToFront(logTo(&order, "first"))

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestAddCall_ReplaysArguments(t *testing.T) {
	var (
		gotArgs   []any
		gotKwargs map[string]any
		calls     int
	)
	c := cleanups.New()
	c.AddCall(func(_ context.Context, args []any, kwargs map[string]any) error {
		calls++
		gotArgs = args
		gotKwargs = kwargs
		return nil
	}, []any{1, 2}, map[string]any{"id": 3})

	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, 1, calls)
	assert.Equal(t, []any{1, 2}, gotArgs)
	assert.Equal(t, map[string]any{"id": 3}, gotKwargs)
}

func TestAdd_PositionalOnly(t *testing.T) {
	var gotArgs []any
	c := cleanups.New()
	c.Add(func(_ context.Context, args []any, kwargs map[string]any) error {
		gotArgs = args
		assert.Nil(t, kwargs)
		return nil
	}, 9, 8, "7")

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, []any{9, 8, "7"}, gotArgs)
}

func TestRemove(t *testing.T) {
	var order []string
	c := cleanups.New()
	removed := c.Add(logTo(&order, "guelph"))
	kept := c.Add(logTo(&order, "hamilton"))

	assert.True(t, c.Remove(removed), "first Remove must report removal")
	assert.False(t, c.Remove(removed), "second Remove of the same entry must return false")
	assert.Equal(t, cleanups.StatusRemoved, removed.Status())

	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, []string{"hamilton"}, order)
	assert.Equal(t, cleanups.StatusExecuted, kept.Status())
	assert.False(t, c.Remove(kept), "Remove after execution must return false")
}

func TestRemove_UnknownIdentity(t *testing.T) {
	c := cleanups.New()
	other := cleanups.New()
	foreign := other.Add(func(context.Context, []any, map[string]any) error { return nil })

	assert.False(t, c.Remove(foreign))
	assert.False(t, c.Remove(nil))
}

func TestRun_FailureIsolation(t *testing.T) {
	var order []string
	c := cleanups.New()
	failing := c.Add(func(context.Context, []any, map[string]any) error {
		return errors.New("boom")
	})
	succeeding := c.Add(logTo(&order, "after-failure"))

	err := c.Run(context.Background())

	assert.NoError(t, err, "failures are swallowed by default")
	assert.Equal(t, []string{"after-failure"}, order)
	assert.Equal(t, cleanups.StatusFailed, failing.Status())
	assert.Equal(t, cleanups.StatusExecuted, succeeding.Status())
	assert.Equal(t, 0, c.Len())
}

func TestRun_PanicIsRecovered(t *testing.T) {
	var order []string
	c := cleanups.New()
	panicking := c.Add(func(context.Context, []any, map[string]any) error {
		panic("unreachable resource")
	})
	c.Add(logTo(&order, "survivor"))

	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, []string{"survivor"}, order)
	assert.Equal(t, cleanups.StatusFailed, panicking.Status())
}

func TestRun_AggregatedErrors(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	c := cleanups.New(cleanups.WithAggregatedErrors())
	c.Add(func(context.Context, []any, map[string]any) error { return errA })
	c.Add(func(context.Context, []any, map[string]any) error { return errB })
	c.Add(func(context.Context, []any, map[string]any) error { return nil })

	err := c.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, 0, c.Len())
}

func TestRunOne(t *testing.T) {
	var order []string
	c := cleanups.New()
	first := c.Add(logTo(&order, "first"))
	second := c.Add(logTo(&order, "second"))

	assert.True(t, c.RunOne(context.Background(), second))
	assert.Equal(t, []string{"second"}, order)
	assert.Equal(t, cleanups.StatusExecuted, second.Status())
	assert.Equal(t, 1, c.Len())

	assert.False(t, c.RunOne(context.Background(), second), "already executed")
	assert.True(t, c.Contains(first))

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestAddDuringRun_DeferredToNextRun(t *testing.T) {
	var order []string
	c := cleanups.New()
	c.Add(func(context.Context, []any, map[string]any) error {
		order = append(order, "outer")
		c.Add(logTo(&order, "inner"))
		return nil
	})

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, []string{"outer"}, order, "entry added during Run must not run in the same pass")
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestClear(t *testing.T) {
	var order []string
	c := cleanups.New()
	cl := c.Add(logTo(&order, "never"))
	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, cleanups.StatusRemoved, cl.Status())

	require.NoError(t, c.Run(context.Background()))
	assert.Empty(t, order)
}

func TestLenAndContains(t *testing.T) {
	c := cleanups.New()
	assert.Equal(t, 0, c.Len())

	cl := c.Add(func(context.Context, []any, map[string]any) error { return nil })
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Contains(cl))

	c.Remove(cl)
	assert.False(t, c.Contains(cl))
}

func TestCleanup_Identity(t *testing.T) {
	c := cleanups.New()
	a := c.Add(func(context.Context, []any, map[string]any) error { return nil })
	b := c.Add(func(context.Context, []any, map[string]any) error { return nil })

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, cleanups.StatusPending, a.Status())
}

func TestCleanup_String(t *testing.T) {
	c := cleanups.New()
	cl := c.Add(func(context.Context, []any, map[string]any) error { return nil })

	assert.Equal(t, "1", cl.String())
	cl.SetName("scarborough")
	assert.Equal(t, "1: scarborough", cl.String())
	assert.Equal(t, "scarborough", cl.Name())
}

func TestClose_RunsPending(t *testing.T) {
	var order []string
	c := cleanups.New()
	c.Add(logTo(&order, "closed"))

	require.NoError(t, c.Close())
	assert.Equal(t, []string{"closed"}, order)
}

func TestWith_NormalExit(t *testing.T) {
	var order []string
	err := cleanups.With(context.Background(), func(c *cleanups.Cleanups) error {
		c.Add(logTo(&order, "scoped"))
		assert.Empty(t, order, "cleanups must not run inside the scope")
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"scoped"}, order)
}

func TestWith_RunsOnPanic(t *testing.T) {
	var order []string
	assert.Panics(t, func() {
		_ = cleanups.With(context.Background(), func(c *cleanups.Cleanups) error {
			c.Add(logTo(&order, "scoped"))
			panic("abandoned scope")
		})
	})
	assert.Equal(t, []string{"scoped"}, order, "cleanups must run even when the scope panics")
}

func TestWith_JoinsErrors(t *testing.T) {
	errScope := errors.New("scope failed")
	errCleanup := errors.New("cleanup failed")

	err := cleanups.With(context.Background(), func(c *cleanups.Cleanups) error {
		c.Add(func(context.Context, []any, map[string]any) error { return errCleanup })
		return errScope
	}, cleanups.WithAggregatedErrors())

	require.Error(t, err)
	assert.ErrorIs(t, err, errScope)
	assert.ErrorIs(t, err, errCleanup)
}

func TestAddRemove_DeletesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scratch.txt")
	require.NoError(t, os.WriteFile(path, []byte("tmp"), 0644))

	c := cleanups.New()
	c.AddRemove(path)
	require.NoError(t, c.Run(context.Background()))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestAddRemoveAll_DeletesTree(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	c := cleanups.New()
	c.AddRemoveAll(filepath.Join(dir, "a"))
	require.NoError(t, c.Run(context.Background()))

	_, err := os.Stat(filepath.Join(dir, "a"))
	assert.True(t, os.IsNotExist(err))
}
