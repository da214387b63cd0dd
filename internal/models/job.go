package models

import "time"

type JobStage string

const (
	StageSeed     JobStage = "seed"
	StageImport   JobStage = "import"
	StageEvaluate JobStage = "evaluate"
	StageGenerate JobStage = "generate"
	StageExport   JobStage = "export"
)

var Stages = []JobStage{StageSeed, StageImport, StageEvaluate, StageGenerate, StageExport}

func (s JobStage) Valid() bool {
	for _, st := range Stages {
		if s == st {
			return true
		}
	}
	return false
}

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusQueued, JobStatusRunning, JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status freezes the job's progress.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// Active reports whether the job is waiting or in progress.
func (s JobStatus) Active() bool {
	return s == JobStatusQueued || s == JobStatusRunning
}

type PipelineJob struct {
	ID          string         `json:"id"`
	Stage       JobStage       `json:"stage"`
	Status      JobStatus      `json:"status"`
	Progress    int            `json:"progress"`
	Label       string         `json:"label"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}
