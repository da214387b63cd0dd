// Package script runs sandboxed Lua pipeline scripts against the job queue.
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/uncase/dashboard/internal/jobs"
	"github.com/uncase/dashboard/internal/models"
)

// MaxSleep caps a single sleep() call.
const MaxSleep = time.Minute

// Runtime executes one pipeline script.
type Runtime struct {
	queue *jobs.Queue
	ctx   context.Context
	args  []string
	logs  []string
	// LogFunc receives log() lines as they happen, in addition to GetLogs.
	LogFunc func(string)
}

func NewRuntime(queue *jobs.Queue) *Runtime {
	return &Runtime{
		queue: queue,
		logs:  make([]string, 0),
	}
}

// Execute runs the script at scriptPath. If the script defines a global
// pipeline function it is called with the args table after loading.
func (r *Runtime) Execute(ctx context.Context, scriptPath string, args []string) error {
	script, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	return r.ExecuteString(ctx, string(script), args)
}

func (r *Runtime) ExecuteString(ctx context.Context, source string, args []string) error {
	r.ctx = ctx
	r.args = args

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	L.SetContext(ctx)

	r.openSafeLibs(L)
	r.registerAPI(L)

	if err := L.DoString(source); err != nil {
		return fmt.Errorf("failed to run script: %w", err)
	}

	fn := L.GetGlobal("pipeline")
	if fn == lua.LNil {
		return nil
	}
	if _, ok := fn.(*lua.LFunction); !ok {
		return fmt.Errorf("pipeline must be a function, got %s", fn.Type())
	}

	L.Push(fn)
	L.Push(r.argsTable(L))
	if err := L.PCall(1, 0, nil); err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}
	return nil
}

func (r *Runtime) openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)

	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("loadstring", lua.LNil)
	L.SetGlobal("require", lua.LNil)
	L.SetGlobal("print", lua.LNil) // log() instead

	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

func (r *Runtime) registerAPI(L *lua.LState) {
	L.SetGlobal("add_job", L.NewFunction(r.luaAddJob))
	L.SetGlobal("update_job", L.NewFunction(r.luaUpdateJob))
	L.SetGlobal("cancel_job", L.NewFunction(r.luaCancelJob))
	L.SetGlobal("remove_job", L.NewFunction(r.luaRemoveJob))
	L.SetGlobal("clear_completed", L.NewFunction(r.luaClearCompleted))
	L.SetGlobal("jobs", L.NewFunction(r.luaJobs))
	L.SetGlobal("sleep", L.NewFunction(r.luaSleep))
	L.SetGlobal("context", L.NewFunction(r.luaContext))
	L.SetGlobal("log", L.NewFunction(r.luaLog))
}

// add_job(stage, label?, metadata?) -> job
func (r *Runtime) luaAddJob(L *lua.LState) int {
	stage := models.JobStage(L.CheckString(1))
	if !stage.Valid() {
		L.ArgError(1, fmt.Sprintf("unknown stage %q", stage))
		return 0
	}
	in := jobs.JobInput{Stage: stage, Label: L.OptString(2, "")}
	if tbl := L.OptTable(3, nil); tbl != nil {
		in.Metadata = tableToMap(tbl)
	}

	job, err := r.queue.Add(r.ctx, in)
	if err != nil {
		L.RaiseError("failed to add job: %v", err)
		return 0
	}
	L.Push(r.jobToTable(L, job))
	return 1
}

// update_job(id, {status=, progress=, label=, error=, metadata=}) -> job | nil
func (r *Runtime) luaUpdateJob(L *lua.LState) int {
	id := L.CheckString(1)
	fields := L.CheckTable(2)

	var patch jobs.JobPatch
	if v := fields.RawGetString("status"); v != lua.LNil {
		status := models.JobStatus(v.String())
		if !status.Valid() {
			L.ArgError(2, fmt.Sprintf("unknown status %q", status))
			return 0
		}
		patch.Status = &status
	}
	if v, ok := fields.RawGetString("progress").(lua.LNumber); ok {
		p := int(v)
		patch.Progress = &p
	}
	if v, ok := fields.RawGetString("label").(lua.LString); ok {
		s := string(v)
		patch.Label = &s
	}
	if v, ok := fields.RawGetString("error").(lua.LString); ok {
		s := string(v)
		patch.Error = &s
	}
	if v, ok := fields.RawGetString("metadata").(*lua.LTable); ok {
		patch.Metadata = tableToMap(v)
	}

	job, found, err := r.queue.Update(r.ctx, id, patch)
	if err != nil {
		L.RaiseError("failed to update job: %v", err)
		return 0
	}
	if !found {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(r.jobToTable(L, job))
	return 1
}

// cancel_job(id) -> job
func (r *Runtime) luaCancelJob(L *lua.LState) int {
	job, err := r.queue.Cancel(r.ctx, L.CheckString(1))
	if err != nil {
		L.RaiseError("cancel_job: %v", err)
		return 0
	}
	L.Push(r.jobToTable(L, job))
	return 1
}

func (r *Runtime) luaRemoveJob(L *lua.LState) int {
	if err := r.queue.Remove(r.ctx, L.CheckString(1)); err != nil {
		L.RaiseError("remove_job: %v", err)
	}
	return 0
}

func (r *Runtime) luaClearCompleted(L *lua.LState) int {
	if err := r.queue.ClearCompleted(r.ctx); err != nil {
		L.RaiseError("clear_completed: %v", err)
	}
	return 0
}

// jobs(filter?) where filter is "all", "active" or "completed"
func (r *Runtime) luaJobs(L *lua.LState) int {
	var list []models.PipelineJob
	switch filter := L.OptString(1, "all"); filter {
	case "all":
		list = r.queue.Jobs(r.ctx)
	case "active":
		list = r.queue.Active(r.ctx)
	case "completed":
		list = r.queue.Completed(r.ctx)
	default:
		L.ArgError(1, fmt.Sprintf("unknown filter %q", filter))
		return 0
	}

	tbl := L.NewTable()
	for _, job := range list {
		tbl.Append(r.jobToTable(L, job))
	}
	L.Push(tbl)
	return 1
}

// sleep(seconds) returns early when the run is cancelled.
func (r *Runtime) luaSleep(L *lua.LState) int {
	d := time.Duration(float64(L.CheckNumber(1)) * float64(time.Second))
	if d > MaxSleep {
		d = MaxSleep
	}
	if d <= 0 {
		return 0
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-r.ctx.Done():
		L.RaiseError("interrupted: %v", r.ctx.Err())
	}
	return 0
}

func (r *Runtime) luaContext(L *lua.LState) int {
	tbl := L.NewTable()
	L.SetField(tbl, "args", r.argsTable(L))
	L.SetField(tbl, "job_count", lua.LNumber(len(r.queue.Jobs(r.ctx))))
	L.SetField(tbl, "now", lua.LNumber(time.Now().Unix()))
	L.Push(tbl)
	return 1
}

func (r *Runtime) luaLog(L *lua.LState) int {
	message := L.CheckString(1)
	r.logs = append(r.logs, message)
	if r.LogFunc != nil {
		r.LogFunc(message)
	}
	return 0
}

func (r *Runtime) argsTable(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()
	for _, a := range r.args {
		tbl.Append(lua.LString(a))
	}
	return tbl
}

// jobToTable exposes a job with the same field names as its JSON form.
func (r *Runtime) jobToTable(L *lua.LState, job models.PipelineJob) lua.LValue {
	data, err := json.Marshal(job)
	if err != nil {
		return lua.LNil
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return lua.LNil
	}
	return goToLua(L, fields)
}

func (r *Runtime) GetLogs() []string {
	return r.logs
}

// IsScript checks if a file is a Lua pipeline script.
func IsScript(path string) bool {
	return filepath.Ext(path) == ".lua"
}

func goToLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case float64:
		return lua.LNumber(val)
	case int:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		tbl := L.NewTable()
		for _, item := range val {
			tbl.Append(goToLua(L, item))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, item := range val {
			L.SetField(tbl, k, goToLua(L, item))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprintf("%v", val))
	}
}

func luaToGo(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		return float64(val)
	case lua.LString:
		return string(val)
	case *lua.LTable:
		if val.MaxN() > 0 {
			out := make([]any, 0, val.MaxN())
			for i := 1; i <= val.MaxN(); i++ {
				out = append(out, luaToGo(val.RawGetInt(i)))
			}
			return out
		}
		return tableToMap(val)
	default:
		return nil
	}
}

func tableToMap(tbl *lua.LTable) map[string]any {
	out := make(map[string]any)
	tbl.ForEach(func(k, v lua.LValue) {
		out[k.String()] = luaToGo(v)
	})
	return out
}
