package jobs

import (
	"context"
	"log"
	"time"

	"github.com/uncase/dashboard/internal/models"
)

const (
	DefaultSimInterval = 2 * time.Second
	DefaultSimStep     = 15
)

// Simulator advances jobs in demo mode so the dashboard shows movement
// without a backend.
type Simulator struct {
	queue    *Queue
	interval time.Duration
	step     int
	logger   *log.Logger
	// Enabled, when set, skips ticks while it reports false.
	Enabled func(ctx context.Context) bool
}

func NewSimulator(queue *Queue, interval time.Duration, step int, logger *log.Logger) *Simulator {
	if interval <= 0 {
		interval = DefaultSimInterval
	}
	if step <= 0 {
		step = DefaultSimStep
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Simulator{queue: queue, interval: interval, step: step, logger: logger}
}

// Run ticks until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.Enabled != nil && !s.Enabled(ctx) {
				continue
			}
			if err := s.Tick(ctx); err != nil {
				s.logger.Printf("job simulator: %v", err)
			}
		}
	}
}

// Tick starts queued jobs and advances running ones by one step. A running
// job that reaches 100 completes.
func (s *Simulator) Tick(ctx context.Context) error {
	for _, job := range s.queue.Jobs(ctx) {
		var patch JobPatch
		switch job.Status {
		case models.JobStatusQueued:
			status := models.JobStatusRunning
			patch.Status = &status
		case models.JobStatusRunning:
			progress := job.Progress + s.step
			if progress >= 100 {
				progress = 100
				status := models.JobStatusCompleted
				patch.Status = &status
			}
			patch.Progress = &progress
		default:
			continue
		}

		if _, _, err := s.queue.Update(ctx, job.ID, patch); err != nil {
			return err
		}
	}
	return nil
}
