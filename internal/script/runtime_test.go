package script

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncase/dashboard/internal/bus"
	"github.com/uncase/dashboard/internal/jobs"
	"github.com/uncase/dashboard/internal/kv"
	"github.com/uncase/dashboard/internal/models"
	"github.com/uncase/dashboard/internal/snapshot"
)

func newQueue() *jobs.Queue {
	return jobs.NewQueue(snapshot.New(kv.NewMemory(), bus.New()))
}

func TestRuntime_PipelineScript(t *testing.T) {
	q := newQueue()
	src := `
function pipeline(args)
  local job = add_job("generate", "Generate " .. args[1], {count = 25, domains = {"a", "b"}})
  log("added " .. job.id)
  update_job(job.id, {status = "running", progress = 40})
  local active = jobs("active")
  log("active=" .. #active)
  update_job(job.id, {status = "completed"})
end
`
	rt := NewRuntime(q)
	require.NoError(t, rt.ExecuteString(context.Background(), src, []string{"batch-1"}))

	list := q.Jobs(context.Background())
	require.Len(t, list, 1)
	job := list[0]
	assert.Equal(t, models.StageGenerate, job.Stage)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, "Generate batch-1", job.Label)
	assert.Equal(t, float64(25), job.Metadata["count"])
	assert.Equal(t, []any{"a", "b"}, job.Metadata["domains"])

	logs := rt.GetLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, "active=1", logs[1])
}

func TestRuntime_TopLevelScript(t *testing.T) {
	q := newQueue()
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.lua")
	src := `
local a = add_job("seed", "one")
local b = add_job("import", "two")
update_job(b.id, {status = "failed", error = "bad csv"})
cancel_job(a.id)
clear_completed()
local ctx = context()
log("left=" .. #jobs() .. " count=" .. ctx.job_count)
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	assert.True(t, IsScript(path))

	rt := NewRuntime(q)
	var streamed []string
	rt.LogFunc = func(s string) { streamed = append(streamed, s) }
	require.NoError(t, rt.Execute(context.Background(), path, nil))

	list := q.Jobs(context.Background())
	require.Len(t, list, 1)
	assert.Equal(t, models.JobStatusCancelled, list[0].Status)
	assert.Equal(t, []string{"left=1 count=1"}, streamed)
}

func TestRuntime_UpdateUnknownReturnsNil(t *testing.T) {
	rt := NewRuntime(newQueue())
	src := `
if update_job("missing", {progress = 10}) ~= nil then error("expected nil") end
log("ok")
`
	require.NoError(t, rt.ExecuteString(context.Background(), src, nil))
	assert.Equal(t, []string{"ok"}, rt.GetLogs())
}

func TestRuntime_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad stage", `add_job("deploy")`},
		{"bad status", `local j = add_job("seed"); update_job(j.id, {status = "paused"})`},
		{"cancel unknown", `cancel_job("nope")`},
		{"no io", `io.open("/etc/passwd")`},
		{"no dofile", `dofile("x.lua")`},
		{"no print", `print("hi")`},
		{"pipeline not function", `pipeline = 3`},
		{"pipeline raises", `function pipeline() error("stop") end`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRuntime(newQueue()).ExecuteString(context.Background(), tt.src, nil)
			assert.Error(t, err)
		})
	}
}

func TestRuntime_SleepHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := NewRuntime(newQueue()).ExecuteString(ctx, `sleep(30)`, nil)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
