// Package demo switches the dashboard onto synthetic local data.
package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/uncase/dashboard/internal/catalog"
	"github.com/uncase/dashboard/internal/jobs"
	"github.com/uncase/dashboard/internal/models"
	"github.com/uncase/dashboard/internal/sandbox"
	"github.com/uncase/dashboard/internal/snapshot"
)

type Activator struct {
	store    *snapshot.Store
	queue    *jobs.Queue
	sessions *sandbox.Manager
	// extra seed templates merged over the built-ins, keyed by id
	extra map[string]models.Seed
	now   func() time.Time
}

func NewActivator(store *snapshot.Store, queue *jobs.Queue, sessions *sandbox.Manager, extra map[string]models.Seed) *Activator {
	return &Activator{
		store:    store,
		queue:    queue,
		sessions: sessions,
		extra:    extra,
		now:      time.Now,
	}
}

// SeedSet returns the seeds Activate writes: built-ins overlaid with extras.
func (a *Activator) SeedSet() []models.Seed {
	merged := make(map[string]models.Seed, len(Seeds)+len(a.extra))
	for _, s := range Seeds {
		merged[s.ID] = s
	}
	for id, s := range a.extra {
		merged[id] = s
	}
	return catalog.Sorted(merged)
}

// Activate writes demo seeds, demo jobs and the demo flag. The writes are
// independent; a reader seeing only some of them falls back to defaults.
func (a *Activator) Activate(ctx context.Context) error {
	if err := a.store.Write(ctx, snapshot.KeySeeds, a.SeedSet()); err != nil {
		return fmt.Errorf("failed to write demo seeds: %w", err)
	}
	if err := a.queue.Replace(ctx, a.demoJobs()); err != nil {
		return fmt.Errorf("failed to write demo jobs: %w", err)
	}
	if err := a.store.WriteString(ctx, snapshot.KeyDemoMode, "true"); err != nil {
		return fmt.Errorf("failed to set demo flag: %w", err)
	}
	return nil
}

func (a *Activator) IsActive(ctx context.Context) bool {
	return a.store.Has(ctx, snapshot.KeyDemoMode)
}

// Reset removes everything Activate wrote along with any sandbox session.
func (a *Activator) Reset(ctx context.Context) error {
	for _, key := range []string{snapshot.KeyDemoMode, snapshot.KeySeeds, snapshot.KeyPipelineJobs} {
		if err := a.store.Remove(ctx, key); err != nil {
			return err
		}
	}
	return a.sessions.Clear(ctx)
}

// Seeds returns the stored seed collection, empty when unset or unreadable.
func (a *Activator) Seeds(ctx context.Context) []models.Seed {
	var seeds []models.Seed
	if !a.store.Read(ctx, snapshot.KeySeeds, &seeds) {
		return []models.Seed{}
	}
	return seeds
}

func (a *Activator) demoJobs() []models.PipelineJob {
	now := a.now().UTC()
	at := func(ago time.Duration) *time.Time {
		t := now.Add(-ago)
		return &t
	}

	return []models.PipelineJob{
		{
			ID:        uuid.NewString(),
			Stage:     models.StageGenerate,
			Status:    models.JobStatusQueued,
			Label:     "Generate 50 conversations (automotive.sales)",
			CreatedAt: now.Add(-30 * time.Second),
			Metadata:  map[string]any{"count": 50, "domain": "automotive.sales"},
		},
		{
			ID:        uuid.NewString(),
			Stage:     models.StageEvaluate,
			Status:    models.JobStatusRunning,
			Progress:  45,
			Label:     "Evaluate medical.consultation batch",
			CreatedAt: now.Add(-3 * time.Minute),
			StartedAt: at(2 * time.Minute),
		},
		{
			ID:          uuid.NewString(),
			Stage:       models.StageImport,
			Status:      models.JobStatusCompleted,
			Progress:    100,
			Label:       "Import legal transcripts (CSV)",
			CreatedAt:   now.Add(-20 * time.Minute),
			StartedAt:   at(19 * time.Minute),
			CompletedAt: at(15 * time.Minute),
		},
		{
			ID:          uuid.NewString(),
			Stage:       models.StageSeed,
			Status:      models.JobStatusCompleted,
			Progress:    100,
			Label:       fmt.Sprintf("Create %d demo seeds", len(a.SeedSet())),
			CreatedAt:   now.Add(-time.Hour),
			StartedAt:   at(time.Hour),
			CompletedAt: at(59 * time.Minute),
		},
	}
}
