// Package kvtest holds the behaviour every kv.Store backend must share.
package kvtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncase/dashboard/internal/kv"
)

// Run exercises a fresh store returned by newStore.
func Run(t *testing.T, newStore func(t *testing.T) kv.Store) {
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, ok, err := s.Get(ctx, "uncase-seeds")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("SetGet", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "uncase-seeds", `[{"id":"a"}]`))

		v, ok, err := s.Get(ctx, "uncase-seeds")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, `[{"id":"a"}]`, v)
	})

	t.Run("Overwrite", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "uncase-sidebar-collapsed", "false"))
		require.NoError(t, s.Set(ctx, "uncase-sidebar-collapsed", "true"))

		v, _, err := s.Get(ctx, "uncase-sidebar-collapsed")
		require.NoError(t, err)
		assert.Equal(t, "true", v)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "uncase-demo-mode", "true"))
		require.NoError(t, s.Delete(ctx, "uncase-demo-mode"))
		require.NoError(t, s.Delete(ctx, "uncase-demo-mode"))

		_, ok, err := s.Get(ctx, "uncase-demo-mode")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Keys", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "b", "2"))
		require.NoError(t, s.Set(ctx, "a", "1"))

		keys, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, keys)
	})
}
