// Package snapshot stores typed JSON records in a kv.Store and announces
// every write on the change bus.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uncase/dashboard/internal/bus"
	"github.com/uncase/dashboard/internal/kv"
)

// Persisted record names.
const (
	KeySeeds            = "uncase-seeds"
	KeyPipelineJobs     = "uncase-pipeline-jobs"
	KeySidebarCollapsed = "uncase-sidebar-collapsed"
	KeySandboxSession   = "uncase-sandbox-session"
	KeyDemoMode         = "uncase-demo-mode"
)

type Store struct {
	kv  kv.Store
	bus *bus.Bus
}

func New(store kv.Store, b *bus.Bus) *Store {
	return &Store{kv: store, bus: b}
}

func (s *Store) Bus() *bus.Bus { return s.bus }

// Read decodes the record under key into dst. Missing keys, backend errors
// and malformed JSON all report false; dst is left untouched in that case.
func (s *Store) Read(ctx context.Context, key string, dst any) bool {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil || !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false
	}
	return true
}

// ReadString returns the raw stored value.
func (s *Store) ReadString(ctx context.Context, key string) (string, bool) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil || !ok {
		return "", false
	}
	return raw, true
}

// Has reports whether anything is stored under key.
func (s *Store) Has(ctx context.Context, key string) bool {
	_, ok := s.ReadString(ctx, key)
	return ok
}

// Write serializes v, persists it and publishes key.
func (s *Store) Write(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.WriteString(ctx, key, string(data))
}

// WriteString persists a raw value and publishes key.
func (s *Store) WriteString(ctx context.Context, key, value string) error {
	if err := s.kv.Set(ctx, key, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	s.bus.Publish(key)
	return nil
}

// Remove deletes key and publishes it.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	s.bus.Publish(key)
	return nil
}

// Keys lists every stored key.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	return s.kv.Keys(ctx)
}

// SidebarCollapsed reads the persisted sidebar flag; anything but "true" is expanded.
func (s *Store) SidebarCollapsed(ctx context.Context) bool {
	v, _ := s.ReadString(ctx, KeySidebarCollapsed)
	return v == "true"
}

func (s *Store) SetSidebarCollapsed(ctx context.Context, collapsed bool) error {
	v := "false"
	if collapsed {
		v = "true"
	}
	return s.WriteString(ctx, KeySidebarCollapsed, v)
}
