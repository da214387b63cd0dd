package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncase/dashboard/internal/models"
)

func TestDecodeSeedList(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"BareArray", `[{"id":"s1"},{"id":"s2"}]`, []string{"s1", "s2"}},
		{"ItemsEnvelope", `{"items":[{"id":"s1"}],"total":1}`, []string{"s1"}},
		{"SeedsEnvelope", `{"seeds":[{"id":"s3"}]}`, []string{"s3"}},
		{"EmptyObject", `{}`, nil},
		{"EmptyBody", ``, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seeds, err := DecodeSeedList([]byte(tt.body))
			require.NoError(t, err)
			var ids []string
			for _, s := range seeds {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	_, err := DecodeSeedList([]byte(`"nope"`))
	assert.Error(t, err)
}

func TestClient_ListSeeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/seeds", r.URL.Path)
		assert.Equal(t, "automotive.sales", r.URL.Query().Get("domain"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"s1","domain":"automotive.sales","language":"es"}]`))
	}))
	defer srv.Close()

	seeds, err := New(srv.URL).ListSeeds(context.Background(), SeedFilter{Domain: "automotive.sales"})
	require.NoError(t, err)
	require.Len(t, seeds, 1)
	assert.Equal(t, "es", seeds[0].Language)
}

func TestClient_ErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Tool not found"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetTool(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Tool not found", apiErr.Detail)
	assert.Equal(t, "/api/v1/tools/missing", apiErr.Path)
}

func TestClient_ToolCRUD(t *testing.T) {
	var lastMethod, lastPath string
	var lastBody models.Tool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastMethod, lastPath = r.Method, r.URL.Path
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				json.Unmarshal(data, &lastBody)
			}
		}
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			if r.URL.Path == "/api/v1/tools" {
				json.NewEncoder(w).Encode([]models.Tool{{Name: "crm_lookup"}})
				return
			}
			json.NewEncoder(w).Encode(models.Tool{Name: "crm_lookup"})
		default:
			json.NewEncoder(w).Encode(lastBody)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	tools, err := c.ListTools(ctx, "")
	require.NoError(t, err)
	require.Len(t, tools, 1)

	created, err := c.CreateTool(ctx, models.Tool{Name: "crm_lookup", Description: "Look up a customer"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, lastMethod)
	assert.Equal(t, "Look up a customer", created.Description)

	_, err = c.UpdateTool(ctx, "crm_lookup", models.Tool{Name: "crm_lookup", Version: "2"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, lastMethod)
	assert.Equal(t, "/api/v1/tools/crm_lookup", lastPath)

	require.NoError(t, c.DeleteTool(ctx, "crm_lookup"))
	assert.Equal(t, http.MethodDelete, lastMethod)
}

func TestClient_BaseURLResolver(t *testing.T) {
	sandbox := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer sandbox.Close()

	active := false
	c := New("http://127.0.0.1:1", WithBaseURLResolver(func(context.Context) string {
		if active {
			return sandbox.URL + "/"
		}
		return "http://127.0.0.1:1"
	}))

	assert.Equal(t, "http://127.0.0.1:1", c.BaseURL(context.Background()))
	active = true
	assert.Equal(t, sandbox.URL, c.BaseURL(context.Background()))

	_, err := c.ListConversations(context.Background(), 10)
	require.NoError(t, err)
}

func TestClient_CreateSandbox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sandbox/demo", r.URL.Path)
		var req SandboxRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "medical.consultation", req.Domain)
		w.Write([]byte(`{"api_url":"https://sbx.example","docs_url":"https://sbx.example/docs",
			"expires_at":"2026-10-19T10:00:00Z","domain":"medical.consultation",
			"preloaded_seeds":5,"job":{"job_id":"j-1"},"fallback":false}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL).CreateSandbox(context.Background(), SandboxRequest{Domain: "medical.consultation"})
	require.NoError(t, err)
	assert.Equal(t, "https://sbx.example", resp.APIURL)
	assert.Equal(t, 5, resp.PreloadedSeeds)
	require.NotNil(t, resp.Job)
	assert.Equal(t, "j-1", resp.Job.JobID)
}

func TestClient_ContextTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(srv.URL).ListKnowledge(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_WithoutTimeout(t *testing.T) {
	c := New("http://localhost", WithTimeout(time.Second))
	clone := c.WithoutTimeout()

	assert.Equal(t, time.Second, c.http.Timeout)
	assert.Zero(t, clone.http.Timeout)
	assert.Equal(t, c.BaseURL(context.Background()), clone.BaseURL(context.Background()))
}

func TestClient_OversizedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, maxResponseBytes+1))
	}))
	defer srv.Close()

	_, err := New(srv.URL).ListSeeds(context.Background(), SeedFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}
