package domain

import (
	"fmt"
	"time"
)

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

type JobEvent string

const (
	EventStart    JobEvent = "start"
	EventComplete JobEvent = "complete"
	EventFail     JobEvent = "fail"
)

// Job is created by the external queue and mutated only by the processing
// use case. Once completed or failed it is terminal.
type Job struct {
	ID        string     `json:"id"`
	DatasetID string     `json:"dataset_id"`
	Status    JobStatus  `json:"status"`
	Progress  int        `json:"progress"`
	Phase     string     `json:"phase,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Transition applies a lifecycle event: pending -> processing -> {completed, failed}.
// Cancellation is an external-queue concern and has no transition here.
func (j *Job) Transition(event JobEvent) error {
	now := time.Now().UTC()
	switch event {
	case EventStart:
		if j.Status != JobPending {
			return fmt.Errorf("job %s: cannot start from status %q", j.ID, j.Status)
		}
		j.Status = JobProcessing
		j.StartedAt = &now
	case EventComplete:
		if j.Status != JobProcessing {
			return fmt.Errorf("job %s: cannot complete from status %q", j.ID, j.Status)
		}
		j.Status = JobCompleted
		j.Progress = 100
		j.EndedAt = &now
	case EventFail:
		if j.Status == JobCompleted || j.Status == JobFailed {
			return fmt.Errorf("job %s: already terminal in status %q", j.ID, j.Status)
		}
		j.Status = JobFailed
		j.EndedAt = &now
	default:
		return fmt.Errorf("job %s: unknown event %q", j.ID, event)
	}
	j.UpdatedAt = now
	return nil
}

// Advance moves progress forward. Progress is monotonic non-decreasing and
// never reaches 100 before the completion transition.
func (j *Job) Advance(progress int, phase string) error {
	if j.Status != JobProcessing {
		return fmt.Errorf("job %s: progress update in status %q", j.ID, j.Status)
	}
	if progress < j.Progress {
		return fmt.Errorf("job %s: progress %d below current %d", j.ID, progress, j.Progress)
	}
	if progress > 99 {
		progress = 99
	}
	j.Progress = progress
	j.Phase = phase
	j.UpdatedAt = time.Now().UTC()
	return nil
}

func (j *Job) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}
