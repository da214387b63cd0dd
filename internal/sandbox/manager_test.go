package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncase/dashboard/internal/bus"
	"github.com/uncase/dashboard/internal/kv"
	"github.com/uncase/dashboard/internal/models"
	"github.com/uncase/dashboard/internal/snapshot"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(t *testing.T) (*Manager, *fakeClock, *snapshot.Store) {
	t.Helper()
	store := snapshot.New(kv.NewMemory(), bus.New())
	clock := &fakeClock{t: time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)}
	m := NewManager(store)
	m.now = clock.Now
	return m, clock, store
}

func sessionExpiringIn(clock *fakeClock, d time.Duration) models.SandboxSession {
	return models.SandboxSession{
		APIURL:    "https://sbx-1.example",
		ExpiresAt: clock.Now().Add(d).Format(time.RFC3339),
		Domain:    "automotive.sales",
	}
}

func TestManager_Lifecycle(t *testing.T) {
	m, clock, _ := newTestManager(t)
	ctx := context.Background()

	assert.Nil(t, m.Get(ctx))
	assert.False(t, m.IsActive(ctx))
	assert.Equal(t, time.Duration(0), m.TTL(ctx))

	require.NoError(t, m.Set(ctx, sessionExpiringIn(clock, 30*time.Minute)))
	assert.True(t, m.IsActive(ctx))
	assert.Equal(t, 30*time.Minute, m.TTL(ctx))

	got := m.Get(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "https://sbx-1.example", got.APIURL)
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, m.Clear(ctx))
	assert.Nil(t, m.Get(ctx))
}

func TestManager_TTLDecreasesThenExpires(t *testing.T) {
	m, clock, store := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, sessionExpiringIn(clock, 3*time.Second)))

	prev := m.TTL(ctx)
	for i := 0; i < 2; i++ {
		clock.Advance(time.Second)
		ttl := m.TTL(ctx)
		assert.Greater(t, ttl, time.Duration(0))
		assert.Less(t, ttl, prev)
		prev = ttl
	}

	clock.Advance(time.Second)
	assert.Equal(t, time.Duration(0), m.TTL(ctx))
	assert.False(t, store.Has(ctx, snapshot.KeySandboxSession), "zero TTL read clears the session")
	assert.False(t, m.IsActive(ctx))
	assert.Nil(t, m.Get(ctx))
}

func TestManager_GetDeletesExpired(t *testing.T) {
	m, clock, store := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, sessionExpiringIn(clock, time.Minute)))

	clock.Advance(2 * time.Minute)
	assert.Nil(t, m.Get(ctx))
	assert.False(t, store.Has(ctx, snapshot.KeySandboxSession))
}

func TestManager_SetOverwrites(t *testing.T) {
	m, clock, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, sessionExpiringIn(clock, time.Minute)))
	second := sessionExpiringIn(clock, time.Hour)
	second.APIURL = "https://sbx-2.example"
	require.NoError(t, m.Set(ctx, second))

	assert.Equal(t, "https://sbx-2.example", m.Get(ctx).APIURL)
	assert.Equal(t, time.Hour, m.TTL(ctx))
}

func TestManager_UnparseableExpiryIsExpired(t *testing.T) {
	m, _, store := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, models.SandboxSession{APIURL: "x", ExpiresAt: "tomorrow-ish"}))

	assert.False(t, m.IsActive(ctx))
	assert.False(t, store.Has(ctx, snapshot.KeySandboxSession))
}

func TestManager_NaiveTimestampIsUTC(t *testing.T) {
	m, clock, _ := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, models.SandboxSession{
		APIURL:    "x",
		ExpiresAt: clock.Now().Add(10 * time.Minute).Format("2006-01-02T15:04:05.000000"),
	}))
	assert.Equal(t, 10*time.Minute, m.TTL(ctx))
}

func TestManager_APIURL(t *testing.T) {
	m, clock, _ := newTestManager(t)
	ctx := context.Background()

	assert.Equal(t, "http://localhost:8000", m.APIURL(ctx, "http://localhost:8000"))
	require.NoError(t, m.Set(ctx, sessionExpiringIn(clock, time.Minute)))
	assert.Equal(t, "https://sbx-1.example", m.APIURL(ctx, "http://localhost:8000"))

	clock.Advance(time.Hour)
	assert.Equal(t, "http://localhost:8000", m.APIURL(ctx, "http://localhost:8000"))
}

func TestFormatCountdown(t *testing.T) {
	assert.Equal(t, "00:00", FormatCountdown(-time.Second))
	assert.Equal(t, "04:05", FormatCountdown(4*time.Minute+5*time.Second))
	assert.Equal(t, "1:02:03", FormatCountdown(time.Hour+2*time.Minute+3*time.Second))
}
