package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uncase/dashboard/internal/models"
	"github.com/uncase/dashboard/internal/snapshot"
)

var (
	// ErrNotFound is returned when no job has the requested id.
	ErrNotFound = errors.New("job not found")
	// ErrJobFinished is returned when cancelling a job that already ended.
	ErrJobFinished = errors.New("job already finished")
)

// JobInput holds the caller-chosen fields of a new job.
type JobInput struct {
	Stage    models.JobStage
	Label    string
	Metadata map[string]any
}

// JobPatch lists the fields to change; nil fields are left alone.
type JobPatch struct {
	Status   *models.JobStatus
	Progress *int
	Label    *string
	Error    *string
	Metadata map[string]any
}

// Queue is the ordered, newest-first list of pipeline jobs persisted under
// snapshot.KeyPipelineJobs. Writers in other processes win by last write.
type Queue struct {
	mu    sync.Mutex
	store *snapshot.Store
	now   func() time.Time
	newID func() string
}

func NewQueue(store *snapshot.Store) *Queue {
	return &Queue{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Jobs returns every job, newest first.
func (q *Queue) Jobs(ctx context.Context) []models.PipelineJob {
	var list []models.PipelineJob
	if !q.store.Read(ctx, snapshot.KeyPipelineJobs, &list) {
		return []models.PipelineJob{}
	}
	return list
}

// Active returns queued and running jobs.
func (q *Queue) Active(ctx context.Context) []models.PipelineJob {
	return filter(q.Jobs(ctx), func(j models.PipelineJob) bool { return j.Status.Active() })
}

// Completed returns completed and failed jobs.
func (q *Queue) Completed(ctx context.Context) []models.PipelineJob {
	return filter(q.Jobs(ctx), isCleared)
}

func (q *Queue) Get(ctx context.Context, id string) (models.PipelineJob, bool) {
	for _, j := range q.Jobs(ctx) {
		if j.ID == id {
			return j, true
		}
	}
	return models.PipelineJob{}, false
}

func (q *Queue) Add(ctx context.Context, in JobInput) (models.PipelineJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	stage := in.Stage
	if stage == "" {
		stage = models.StageSeed
	}
	job := models.PipelineJob{
		ID:        q.newID(),
		Stage:     stage,
		Status:    models.JobStatusQueued,
		Progress:  0,
		Label:     in.Label,
		CreatedAt: q.now().UTC(),
		Metadata:  in.Metadata,
	}

	list := append([]models.PipelineJob{job}, q.Jobs(ctx)...)
	if err := q.save(ctx, list); err != nil {
		return models.PipelineJob{}, err
	}
	return job, nil
}

// Update merges patch into the job with id. The bool is false, and nothing
// is written, when no such job exists.
func (q *Queue) Update(ctx context.Context, id string, patch JobPatch) (models.PipelineJob, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	list := q.Jobs(ctx)
	for i := range list {
		if list[i].ID != id {
			continue
		}
		apply(&list[i], patch, q.now().UTC())
		if err := q.save(ctx, list); err != nil {
			return models.PipelineJob{}, true, err
		}
		return list[i], true, nil
	}
	return models.PipelineJob{}, false, nil
}

// Cancel moves a queued or running job to cancelled.
func (q *Queue) Cancel(ctx context.Context, id string) (models.PipelineJob, error) {
	job, ok := q.Get(ctx, id)
	if !ok {
		return models.PipelineJob{}, ErrNotFound
	}
	if job.Status.Terminal() {
		return job, ErrJobFinished
	}

	status := models.JobStatusCancelled
	job, ok, err := q.Update(ctx, id, JobPatch{Status: &status})
	if err != nil {
		return models.PipelineJob{}, err
	}
	if !ok {
		return models.PipelineJob{}, ErrNotFound
	}
	return job, nil
}

// Remove drops the job with id; absent ids are not an error.
func (q *Queue) Remove(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	list := filter(q.Jobs(ctx), func(j models.PipelineJob) bool { return j.ID != id })
	return q.save(ctx, list)
}

// ClearCompleted drops completed and failed jobs and keeps the rest in order.
func (q *Queue) ClearCompleted(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	list := filter(q.Jobs(ctx), func(j models.PipelineJob) bool { return !isCleared(j) })
	return q.save(ctx, list)
}

// Replace overwrites the whole list.
func (q *Queue) Replace(ctx context.Context, list []models.PipelineJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.save(ctx, list)
}

func (q *Queue) save(ctx context.Context, list []models.PipelineJob) error {
	if list == nil {
		list = []models.PipelineJob{}
	}
	return q.store.Write(ctx, snapshot.KeyPipelineJobs, list)
}

func isCleared(j models.PipelineJob) bool {
	return j.Status == models.JobStatusCompleted || j.Status == models.JobStatusFailed
}

func filter(list []models.PipelineJob, keep func(models.PipelineJob) bool) []models.PipelineJob {
	out := make([]models.PipelineJob, 0, len(list))
	for _, j := range list {
		if keep(j) {
			out = append(out, j)
		}
	}
	return out
}

// apply merges patch into job. A terminal job keeps its status and progress;
// a running job's progress never moves backwards.
func apply(job *models.PipelineJob, patch JobPatch, now time.Time) {
	if patch.Label != nil {
		job.Label = *patch.Label
	}
	if patch.Error != nil {
		job.Error = *patch.Error
	}
	if patch.Metadata != nil {
		if job.Metadata == nil {
			job.Metadata = make(map[string]any, len(patch.Metadata))
		}
		for k, v := range patch.Metadata {
			job.Metadata[k] = v
		}
	}

	if job.Status.Terminal() {
		return
	}

	wasRunning := job.Status == models.JobStatusRunning
	if patch.Status != nil && patch.Status.Valid() {
		job.Status = *patch.Status
	}

	if patch.Progress != nil {
		p := clamp(*patch.Progress)
		if !(wasRunning || job.Status == models.JobStatusRunning) || p >= job.Progress {
			job.Progress = p
		}
	}

	switch {
	case job.Status == models.JobStatusRunning && job.StartedAt == nil:
		t := now
		job.StartedAt = &t
	case job.Status.Terminal():
		if job.Status == models.JobStatusCompleted && patch.Progress == nil {
			job.Progress = 100
		}
		if job.CompletedAt == nil {
			t := now
			job.CompletedAt = &t
		}
	}
}

func clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
