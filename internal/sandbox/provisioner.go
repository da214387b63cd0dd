package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/uncase/dashboard/internal/api"
	"github.com/uncase/dashboard/internal/models"
)

const DefaultProvisionTimeout = 120 * time.Second

var (
	// ErrProvisionInFlight is returned when a second Create starts before the first returns.
	ErrProvisionInFlight = errors.New("sandbox provisioning already in progress")
	// ErrFallback means the backend declined to provision; stay on local demo data.
	ErrFallback = errors.New("sandbox unavailable, use local demo")
)

// ProvisionError wraps a failed provisioning call. It is always safe to retry.
type ProvisionError struct {
	Err     error
	Timeout bool
}

func (e *ProvisionError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("sandbox provisioning timed out: %v", e.Err)
	}
	return fmt.Sprintf("sandbox provisioning failed: %v", e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

type Provisioner struct {
	client   *api.Client
	sessions *Manager
	timeout  time.Duration
	inFlight atomic.Bool
}

// NewProvisioner bounds each Create by timeout alone; any http.Client timeout
// on client is dropped so it cannot cut provisioning short.
func NewProvisioner(client *api.Client, sessions *Manager, timeout time.Duration) *Provisioner {
	if timeout <= 0 {
		timeout = DefaultProvisionTimeout
	}
	return &Provisioner{client: client.WithoutTimeout(), sessions: sessions, timeout: timeout}
}

// InFlight reports whether a Create call is pending.
func (p *Provisioner) InFlight() bool {
	return p.inFlight.Load()
}

// Create provisions a sandbox and records it as the current session.
func (p *Provisioner) Create(ctx context.Context, req api.SandboxRequest) (*models.SandboxSession, error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return nil, ErrProvisionInFlight
	}
	defer p.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateSandbox(ctx, req)
	if err != nil {
		return nil, &ProvisionError{Err: err, Timeout: errors.Is(err, context.DeadlineExceeded)}
	}
	if resp.Fallback {
		return nil, ErrFallback
	}
	if resp.APIURL == "" {
		return nil, &ProvisionError{Err: errors.New("response has no api_url")}
	}
	if _, err := models.ParseTimestamp(resp.ExpiresAt); err != nil {
		return nil, &ProvisionError{Err: err}
	}

	session := SessionFromResponse(resp)
	if err := p.sessions.Set(ctx, session); err != nil {
		return nil, err
	}
	return &session, nil
}

func SessionFromResponse(resp *api.SandboxResponse) models.SandboxSession {
	session := models.SandboxSession{
		APIURL:         resp.APIURL,
		DocsURL:        resp.DocsURL,
		ExpiresAt:      resp.ExpiresAt,
		Domain:         resp.Domain,
		PreloadedSeeds: resp.PreloadedSeeds,
	}
	if resp.Job != nil {
		session.JobID = resp.Job.JobID
	}
	return session
}
