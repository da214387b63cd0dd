package sandbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncase/dashboard/internal/api"
)

func TestProvisioner_CreateStoresSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"api_url":"https://sbx.example","docs_url":"https://sbx.example/docs",
			"expires_at":"2026-10-19T10:30:00Z","domain":"legal.advisory",
			"preloaded_seeds":3,"job":{"job_id":"job-9"},"fallback":false}`))
	}))
	defer srv.Close()

	m, _, _ := newTestManager(t)
	p := NewProvisioner(api.New(srv.URL), m, time.Second)
	ctx := context.Background()

	session, err := p.Create(ctx, api.SandboxRequest{Domain: "legal.advisory"})
	require.NoError(t, err)
	assert.Equal(t, "job-9", session.JobID)
	assert.Equal(t, 3, session.PreloadedSeeds)

	stored := m.Get(ctx)
	require.NotNil(t, stored)
	assert.Equal(t, "https://sbx.example", stored.APIURL)
	assert.Equal(t, 30*time.Minute, m.TTL(ctx))
	assert.False(t, p.InFlight())
}

func TestProvisioner_Fallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"fallback":true,"message":"no capacity"}`))
	}))
	defer srv.Close()

	m, _, _ := newTestManager(t)
	_, err := NewProvisioner(api.New(srv.URL), m, time.Second).Create(context.Background(), api.SandboxRequest{})
	assert.ErrorIs(t, err, ErrFallback)
	assert.Nil(t, m.Get(context.Background()))
}

func TestProvisioner_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"boom"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	m, _, _ := newTestManager(t)
	_, err := NewProvisioner(api.New(srv.URL), m, time.Second).Create(context.Background(), api.SandboxRequest{})

	var perr *ProvisionError
	require.ErrorAs(t, err, &perr)
	assert.False(t, perr.Timeout)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestProvisioner_TimeoutAndInFlightGuard(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	m, _, _ := newTestManager(t)
	p := NewProvisioner(api.New(srv.URL), m, 200*time.Millisecond)

	errs := make(chan error, 1)
	go func() {
		_, err := p.Create(context.Background(), api.SandboxRequest{})
		errs <- err
	}()

	require.Eventually(t, p.InFlight, time.Second, time.Millisecond)
	_, err := p.Create(context.Background(), api.SandboxRequest{})
	assert.ErrorIs(t, err, ErrProvisionInFlight)

	err = <-errs
	var perr *ProvisionError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Timeout)
	assert.False(t, p.InFlight())
}

func TestProvisioner_OutlastsClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"api_url":"https://sbx.example","expires_at":"2026-10-19T10:30:00Z","domain":"legal.advisory"}`))
	}))
	defer srv.Close()

	m, _, _ := newTestManager(t)
	client := api.New(srv.URL, api.WithTimeout(100*time.Millisecond))
	p := NewProvisioner(client, m, 5*time.Second)

	session, err := p.Create(context.Background(), api.SandboxRequest{Domain: "legal.advisory"})
	require.NoError(t, err)
	assert.Equal(t, "https://sbx.example", session.APIURL)
}
