// Package batch runs summary jobs over a set of Markdown files.
package batch

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrCanceled marks jobs that never started because the run was stopped.
var ErrCanceled = errors.New("canceled before processing")

// JobStatus represents the state of a summary job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusInProgress JobStatus = "in_progress"
	StatusSucceeded  JobStatus = "succeeded"
	StatusFailed     JobStatus = "failed"
)

// Job tracks one file through a run.
type Job struct {
	mu sync.Mutex

	ID            string
	Path          string
	RelPath       string
	SummaryLength int

	Attempts   int
	Status     JobStatus
	Summary    string
	Transient  bool
	Skipped    bool // summary unchanged, file not rewritten
	StartedAt  time.Time
	FinishedAt time.Time

	err error
}

// NewJob creates a pending job for path.
func NewJob(path, relPath string, summaryLength int) *Job {
	if relPath == "" {
		relPath = path
	}
	return &Job{
		ID:            uuid.NewString(),
		Path:          path,
		RelPath:       relPath,
		SummaryLength: summaryLength,
		Status:        StatusPending,
	}
}

func (j *Job) start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Attempts++
	j.Status = StatusInProgress
	j.StartedAt = time.Now()
	j.FinishedAt = time.Time{}
	j.err = nil
	j.Transient = false
	j.Skipped = false
}

func (j *Job) succeed(summary string, skipped bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusSucceeded
	j.Summary = summary
	j.Skipped = skipped
	j.FinishedAt = time.Now()
}

func (j *Job) fail(err error, transient bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusFailed
	j.err = err
	j.Transient = transient
	j.FinishedAt = time.Now()
}

// reset returns a failed job to pending for a retry pass.
func (j *Job) reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusPending
	j.err = nil
	j.Transient = false
}

// Err returns the failure cause, if any.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Failed reports whether the job ended in failure.
func (j *Job) Failed() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status == StatusFailed
}

// JobSnapshot is a read-only copy of job state.
type JobSnapshot struct {
	ID            string        `json:"job_id"`
	Path          string        `json:"path"`
	RelPath       string        `json:"rel_path"`
	SummaryLength int           `json:"summary_length"`
	Attempts      int           `json:"attempts"`
	Status        JobStatus     `json:"status"`
	Summary       string        `json:"summary,omitempty"`
	Error         string        `json:"error,omitempty"`
	Transient     bool          `json:"transient"`
	Skipped       bool          `json:"skipped"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
	Duration      time.Duration `json:"duration"`
}

// Snapshot returns a copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	s := JobSnapshot{
		ID:            j.ID,
		Path:          j.Path,
		RelPath:       j.RelPath,
		SummaryLength: j.SummaryLength,
		Attempts:      j.Attempts,
		Status:        j.Status,
		Summary:       j.Summary,
		Transient:     j.Transient,
		Skipped:       j.Skipped,
		StartedAt:     j.StartedAt,
		FinishedAt:    j.FinishedAt,
	}
	if j.err != nil {
		s.Error = j.err.Error()
	}
	if !j.StartedAt.IsZero() && !j.FinishedAt.IsZero() {
		s.Duration = j.FinishedAt.Sub(j.StartedAt)
	}
	return s
}

// RestoreJob rebuilds a job from a stored snapshot so a later process can
// retry it.
func RestoreJob(s JobSnapshot) *Job {
	j := &Job{
		ID:            s.ID,
		Path:          s.Path,
		RelPath:       s.RelPath,
		SummaryLength: s.SummaryLength,
		Attempts:      s.Attempts,
		Status:        s.Status,
		Summary:       s.Summary,
		Transient:     s.Transient,
		Skipped:       s.Skipped,
		StartedAt:     s.StartedAt,
		FinishedAt:    s.FinishedAt,
	}
	if s.Error != "" {
		j.err = errors.New(s.Error)
	}
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return j
}
