package tui

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncase/dashboard/internal/app"
	"github.com/uncase/dashboard/internal/config"
	"github.com/uncase/dashboard/internal/kv"
	"github.com/uncase/dashboard/internal/models"
	"github.com/uncase/dashboard/internal/sandbox"
)

func newTestApp(t *testing.T) (*App, *app.App) {
	t.Helper()
	dir := t.TempDir()
	core, err := app.New(&config.Config{
		DataDir:        dir,
		UserSeedDir:    filepath.Join(dir, "seeds"),
		ProjectSeedDir: filepath.Join(dir, "project"),
		Store:          config.StoreMemory,
		APIURL:         "http://backend.invalid",
	}, kv.NewMemory(), log.New(io.Discard, "", 0))
	require.NoError(t, err)
	return NewApp(core, nil, nil), core
}

// run applies msg and then every command result, the way the tea runtime would.
func run(t *testing.T, a *App, msg tea.Msg) {
	t.Helper()
	_, cmd := a.Update(msg)
	for cmd != nil {
		next := cmd()
		if next == nil {
			return
		}
		_, cmd = a.Update(next)
	}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestApp_ActivateDemoShowsJobsAndBanner(t *testing.T) {
	a, _ := newTestApp(t)
	run(t, a, a.loadState())
	assert.Contains(t, a.View(), "No pipeline jobs")

	run(t, a, key("a"))
	assert.True(t, a.demo)
	assert.NotEmpty(t, a.jobs)
	assert.NotEmpty(t, a.seeds)

	view := a.View()
	assert.Contains(t, view, "DEMO MODE")
	assert.Contains(t, view, "Seeds (")
}

func TestApp_SidebarToggleIsPersisted(t *testing.T) {
	a, core := newTestApp(t)
	run(t, a, a.loadState())
	require.False(t, a.collapsed)

	run(t, a, key("s"))
	assert.True(t, a.collapsed)
	assert.True(t, core.Store.SidebarCollapsed(context.Background()))
	assert.NotContains(t, a.View(), "Seeds (")
}

func TestApp_NewJobFlow(t *testing.T) {
	a, core := newTestApp(t)
	run(t, a, a.loadState())

	run(t, a, key("n"))
	assert.Equal(t, ViewNewJob, a.view)
	run(t, a, key("j"))
	run(t, a, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ViewJobs, a.view)
	list := core.Queue.Jobs(context.Background())
	require.Len(t, list, 1)
	assert.Equal(t, models.Stages[1], list[0].Stage)
	assert.Len(t, a.jobs, 1)
}

func TestApp_CancelAndClear(t *testing.T) {
	a, core := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, core.Demo.Activate(ctx))
	run(t, a, a.loadState())

	// demo jobs are newest first: the queued generate job is selected
	run(t, a, key("x"))
	assert.Equal(t, models.JobStatusCancelled, a.jobs[0].Status)

	run(t, a, key("c"))
	for _, job := range a.jobs {
		assert.NotEqual(t, models.JobStatusCompleted, job.Status)
	}

	run(t, a, key("r"))
	assert.False(t, a.demo)
	assert.Empty(t, a.jobs)
}

func TestApp_SandboxBannerAndExpiry(t *testing.T) {
	a, core := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, core.Sessions.Set(ctx, models.SandboxSession{
		APIURL:    "https://sbx.example",
		Domain:    "finance.advisory",
		ExpiresAt: time.Now().Add(5 * time.Minute).UTC().Format(time.RFC3339),
	}))
	run(t, a, a.loadState())
	assert.Contains(t, a.View(), "SANDBOX finance.advisory")

	_, _ = a.Update(expiredMsg{session: models.SandboxSession{Domain: "finance.advisory"}})
	assert.Nil(t, a.session)
	assert.Contains(t, a.View(), "expired")
}

func TestApp_ExpiryChannel(t *testing.T) {
	a, _ := newTestApp(t)
	ch := make(chan sandbox.Expired, 1)
	a.expired = ch
	ch <- sandbox.Expired{Session: models.SandboxSession{Domain: "legal.advisory"}}

	msg := a.waitForExpiry()()
	assert.Equal(t, expiredMsg{session: models.SandboxSession{Domain: "legal.advisory"}}, msg)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))

	got := truncate("Atención al cliente en concesionario", 10)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "Atenció...", got)

	got = truncate("ñññññññññññ", 6)
	assert.Equal(t, "ñññ...", got)
}
