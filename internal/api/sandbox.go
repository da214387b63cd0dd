package api

import (
	"context"
	"net/http"
)

type SandboxRequest struct {
	Domain     string `json:"domain"`
	NumSeeds   int    `json:"num_seeds,omitempty"`
	TTLMinutes int    `json:"ttl_minutes,omitempty"`
	Language   string `json:"language,omitempty"`
}

type SandboxJob struct {
	JobID string `json:"job_id"`
}

// SandboxResponse is the provisioning answer. Fallback means the backend
// could not provision and the caller should stay on local demo data.
type SandboxResponse struct {
	APIURL         string      `json:"api_url"`
	DocsURL        string      `json:"docs_url"`
	ExpiresAt      string      `json:"expires_at"`
	Domain         string      `json:"domain"`
	PreloadedSeeds int         `json:"preloaded_seeds"`
	Job            *SandboxJob `json:"job"`
	Fallback       bool        `json:"fallback"`
	Message        string      `json:"message,omitempty"`
}

func (c *Client) CreateSandbox(ctx context.Context, req SandboxRequest) (*SandboxResponse, error) {
	var resp SandboxResponse
	if err := c.do(ctx, http.MethodPost, "/sandbox/demo", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
