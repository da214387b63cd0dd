// Package sandbox tracks the single remote sandbox session and provisions
// new ones.
package sandbox

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/uncase/dashboard/internal/models"
	"github.com/uncase/dashboard/internal/snapshot"
)

// Manager owns the one session slot. Expiry is lazy: any read that finds
// the session past its deadline deletes it.
type Manager struct {
	store  *snapshot.Store
	now    func() time.Time
	logger *log.Logger
}

func NewManager(store *snapshot.Store) *Manager {
	return &Manager{store: store, now: time.Now, logger: log.Default()}
}

// Set replaces the current session.
func (m *Manager) Set(ctx context.Context, session models.SandboxSession) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = m.now().UTC()
	}
	return m.store.Write(ctx, snapshot.KeySandboxSession, session)
}

// Get returns the active session, or nil when none is recorded or it expired.
func (m *Manager) Get(ctx context.Context) *models.SandboxSession {
	session := m.peek(ctx)
	if session == nil {
		return nil
	}
	if m.remaining(session) <= 0 {
		m.expire(ctx)
		return nil
	}
	return session
}

func (m *Manager) Clear(ctx context.Context) error {
	return m.store.Remove(ctx, snapshot.KeySandboxSession)
}

// expire drops an expired session. A failed delete leaves the record in
// place for the next read to retry.
func (m *Manager) expire(ctx context.Context) error {
	if err := m.Clear(ctx); err != nil {
		m.logger.Printf("failed to clear expired sandbox session: %v", err)
		return err
	}
	return nil
}

func (m *Manager) IsActive(ctx context.Context) bool {
	return m.TTL(ctx) > 0
}

// TTL is the time left before expiry, never negative. Reaching zero clears
// the recorded session.
func (m *Manager) TTL(ctx context.Context) time.Duration {
	session := m.peek(ctx)
	if session == nil {
		return 0
	}
	ttl := m.remaining(session)
	if ttl <= 0 {
		m.expire(ctx)
		return 0
	}
	return ttl
}

// APIURL returns the active session's API URL, or fallback when there is none.
func (m *Manager) APIURL(ctx context.Context, fallback string) string {
	if s := m.Get(ctx); s != nil && s.APIURL != "" {
		return s.APIURL
	}
	return fallback
}

func (m *Manager) peek(ctx context.Context) *models.SandboxSession {
	var session models.SandboxSession
	if !m.store.Read(ctx, snapshot.KeySandboxSession, &session) {
		return nil
	}
	return &session
}

// remaining treats an unparseable expiry as already expired.
func (m *Manager) remaining(session *models.SandboxSession) time.Duration {
	expiry, err := session.Expiry()
	if err != nil {
		return 0
	}
	ttl := expiry.Sub(m.now())
	if ttl < 0 {
		return 0
	}
	return ttl
}

// FormatCountdown renders a TTL as mm:ss, or h:mm:ss past an hour.
func FormatCountdown(ttl time.Duration) string {
	if ttl < 0 {
		ttl = 0
	}
	total := int(ttl.Round(time.Second) / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
