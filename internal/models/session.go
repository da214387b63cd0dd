package models

import (
	"fmt"
	"time"
)

// SandboxSession describes an externally provisioned demo backend with a limited lifetime.
type SandboxSession struct {
	APIURL         string    `json:"apiUrl"`
	DocsURL        string    `json:"docsUrl,omitempty"`
	ExpiresAt      string    `json:"expiresAt"`
	Domain         string    `json:"domain,omitempty"`
	PreloadedSeeds int       `json:"preloadedSeeds"`
	JobID          string    `json:"jobId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// sandbox backends emit both zoned and naive (UTC) ISO timestamps
var expiryLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Expiry parses ExpiresAt. Naive timestamps are read as UTC.
func (s *SandboxSession) Expiry() (time.Time, error) {
	return ParseTimestamp(s.ExpiresAt)
}

func ParseTimestamp(v string) (time.Time, error) {
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", v)
}
