package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncase/dashboard/internal/app"
	"github.com/uncase/dashboard/internal/config"
	"github.com/uncase/dashboard/internal/kv"
	"github.com/uncase/dashboard/internal/models"
	"github.com/uncase/dashboard/internal/snapshot"
)

func newTestServer(t *testing.T) (*app.App, *httptest.Server) {
	a, _, ts := newTestServerWithHub(t)
	return a, ts
}

func newTestServerWithHub(t *testing.T) (*app.App, *Server, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		DataDir:          dir,
		UserSeedDir:      filepath.Join(dir, "seeds"),
		ProjectSeedDir:   filepath.Join(dir, "project"),
		Store:            config.StoreMemory,
		APIURL:           "http://backend.invalid",
		SeedFetchTimeout: 200 * time.Millisecond,
		SandboxTimeout:   time.Second,
		SimInterval:      time.Hour,
	}
	a, err := app.New(cfg, kv.NewMemory(), log.New(io.Discard, "", 0))
	require.NoError(t, err)

	s := New(a)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.hub.Close()
	})
	return a, s, ts
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/healthz", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestJobsLifecycle(t *testing.T) {
	_, ts := newTestServer(t)
	base := ts.URL + "/api/state/jobs"

	var created models.PipelineJob
	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, base, map[string]any{"stage": "import", "label": "CSV"}, &created))
	assert.Equal(t, models.JobStatusQueued, created.Status)

	var updated models.PipelineJob
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPatch, base+"/"+created.ID, map[string]any{"status": "running", "progress": 30}, &updated))
	assert.Equal(t, 30, updated.Progress)
	assert.NotNil(t, updated.StartedAt)

	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodPatch, base+"/missing", map[string]any{"progress": 1}, nil))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPatch, base+"/"+created.ID, map[string]any{"status": "paused"}, nil))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, base, map[string]any{"stage": "deploy"}, nil))

	var active []models.PipelineJob
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base+"?view=active", nil, &active))
	assert.Len(t, active, 1)

	var cancelled models.PipelineJob
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, base+"/"+created.ID+"/cancel", nil, &cancelled))
	assert.Equal(t, models.JobStatusCancelled, cancelled.Status)
	assert.Equal(t, http.StatusConflict, doJSON(t, http.MethodPost, base+"/"+created.ID+"/cancel", nil, nil))

	assert.Equal(t, http.StatusNoContent, doJSON(t, http.MethodPost, base+"/clear", nil, nil))
	assert.Equal(t, http.StatusNoContent, doJSON(t, http.MethodDelete, base+"/"+created.ID, nil, nil))

	var all []models.PipelineJob
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base, nil, &all))
	assert.Empty(t, all)
}

func TestDemoEndpoints(t *testing.T) {
	_, ts := newTestServer(t)
	base := ts.URL + "/api/state"

	var status map[string]bool
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, base+"/demo", nil, &status))
	assert.True(t, status["active"])

	var seeds []models.Seed
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base+"/seeds", nil, &seeds))
	assert.NotEmpty(t, seeds)

	var keys []string
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base+"/keys", nil, &keys))
	assert.Contains(t, keys, snapshot.KeyDemoMode)

	assert.Equal(t, http.StatusNoContent, doJSON(t, http.MethodDelete, base+"/demo", nil, nil))
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base+"/demo", nil, &status))
	assert.False(t, status["active"])
}

func TestSandboxEndpoint(t *testing.T) {
	a, ts := newTestServer(t)
	ctx := context.Background()

	var st sandboxStatus
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/api/state/sandbox", nil, &st))
	assert.False(t, st.Active)
	assert.Nil(t, st.Session)

	require.NoError(t, a.Sessions.Set(ctx, models.SandboxSession{
		APIURL:    "https://sbx.example",
		Domain:    "legal.advisory",
		ExpiresAt: time.Now().Add(10 * time.Minute).UTC().Format(time.RFC3339),
	}))
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/api/state/sandbox", nil, &st))
	assert.True(t, st.Active)
	assert.Greater(t, st.TTLMillis, int64(0))
	require.NotNil(t, st.Session)
	assert.Equal(t, "legal.advisory", st.Session.Domain)

	assert.Equal(t, http.StatusNoContent, doJSON(t, http.MethodDelete, ts.URL+"/api/state/sandbox", nil, nil))
	assert.False(t, a.Sessions.IsActive(ctx))
}

func TestBootstrapRedirects(t *testing.T) {
	a, ts := newTestServer(t)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

	resp, err := client.Get(ts.URL + "/demo/sandbox?fallback=true")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
	assert.True(t, a.Demo.IsActive(context.Background()))
}

func TestWebsocketReceivesChanges(t *testing.T) {
	a, s, ts := newTestServerWithHub(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// a second client shows the fan-out
	conn2, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn2.Close()

	require.Eventually(t, func() bool { return s.hub.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Store.SetSidebarCollapsed(context.Background(), true))

	for _, c := range []*websocket.Conn{conn, conn2} {
		c.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg ChangeMessage
		require.NoError(t, c.ReadJSON(&msg))
		assert.Equal(t, "change", msg.Type)
		assert.Equal(t, snapshot.KeySidebarCollapsed, msg.Key)
	}
}
