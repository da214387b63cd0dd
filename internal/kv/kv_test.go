package kv_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncase/dashboard/internal/kv"
	"github.com/uncase/dashboard/internal/kv/kvtest"
)

func TestMemory(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.Store { return kv.NewMemory() })
}

func TestFileStore(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.Store {
		s, err := kv.NewFileStore(t.TempDir())
		require.NoError(t, err)
		return s
	})
}

func TestFileStore_KeyEscaping(t *testing.T) {
	s, err := kv.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "odd/key name", "x"))
	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"odd/key name"}, keys)
}

func TestFileStore_WatchSeesOtherWriter(t *testing.T) {
	dir := t.TempDir()
	reader, err := kv.NewFileStore(dir)
	require.NoError(t, err)
	writer, err := kv.NewFileStore(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := make(chan string, 8)
	go reader.Watch(ctx, func(key string) { seen <- key })
	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, writer.Set(ctx, "uncase-pipeline-jobs", "[]"))

	select {
	case key := <-seen:
		assert.Equal(t, "uncase-pipeline-jobs", key)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report the write")
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("UNCASE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("UNCASE_TEST_REDIS_ADDR not set")
	}

	kvtest.Run(t, func(t *testing.T) kv.Store {
		s := kv.NewRedisStore(kv.RedisConfig{Addr: addr, Prefix: "uncase-test:" + t.Name() + ":"})
		require.NoError(t, s.Ping(context.Background()))
		t.Cleanup(func() {
			ctx := context.Background()
			keys, _ := s.Keys(ctx)
			for _, k := range keys {
				s.Delete(ctx, k)
			}
			s.Close()
		})
		return s
	})
}
