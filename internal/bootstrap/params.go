package bootstrap

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/uncase/dashboard/internal/models"
)

// DefaultSessionTTL is used when the bootstrap link carries no expiresAt.
const DefaultSessionTTL = 30 * time.Minute

// Params are the query parameters of a sandbox bootstrap link.
type Params struct {
	APIURL         string
	DocsURL        string
	Domain         string
	ExpiresAt      string
	PreloadedSeeds int
	JobID          string
	Fallback       bool
}

func ParseParams(q url.Values) Params {
	p := Params{
		APIURL:    strings.TrimSpace(q.Get("apiUrl")),
		DocsURL:   strings.TrimSpace(q.Get("docsUrl")),
		Domain:    q.Get("domain"),
		ExpiresAt: q.Get("expiresAt"),
		JobID:     q.Get("jobId"),
	}
	if n, err := strconv.Atoi(q.Get("preloadedSeeds")); err == nil && n > 0 {
		p.PreloadedSeeds = n
	}
	switch strings.ToLower(q.Get("fallback")) {
	case "1", "true", "yes":
		p.Fallback = true
	}
	return p
}

// ParseQuery accepts a raw query string, with or without the leading '?',
// or a full bootstrap URL.
func ParseQuery(raw string) (Params, error) {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return Params{}, err
	}
	return ParseParams(q), nil
}

// Session builds the session recorded for these params.
func (p Params) Session(now time.Time) models.SandboxSession {
	expires := p.ExpiresAt
	if expires == "" {
		expires = now.Add(DefaultSessionTTL).UTC().Format(time.RFC3339)
	}
	return models.SandboxSession{
		APIURL:         p.APIURL,
		DocsURL:        p.DocsURL,
		ExpiresAt:      expires,
		Domain:         p.Domain,
		PreloadedSeeds: p.PreloadedSeeds,
		JobID:          p.JobID,
		CreatedAt:      now.UTC(),
	}
}
