package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ishaan812/mdsum/internal/batch"
)

// ErrRunNotFound is returned when no run matches the requested id.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded invocation.
type Run struct {
	ID            string
	ParentID      string // set on retry passes
	Root          string
	Provider      string
	Model         string
	SummaryLength int
	GitHead       string

	// Frontmatter settings the run wrote with; retries reuse them.
	SummaryKey    string
	MarkShown     bool
	StripMarkdown bool
	MaxInputChars int

	DryRun        bool
	Total         int
	Succeeded     int
	Failed        int
	Unchanged     int
	Canceled      bool
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Finished reports whether the run recorded its final counts.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// CreateRun inserts r, assigning an id and start time when missing.
func (s *Store) CreateRun(r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	if r.SummaryKey == "" {
		r.SummaryKey = batch.DefaultSummaryKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO runs (id, parent_id, root, provider, model, summary_length, summary_key, mark_shown,
			strip_markdown, max_input_chars, git_head, dry_run, total, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, nullString(r.ParentID), r.Root, r.Provider, r.Model, r.SummaryLength,
		r.SummaryKey, r.MarkShown, r.StripMarkdown, r.MaxInputChars,
		nullString(r.GitHead), r.DryRun, r.Total, r.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// SaveJob records the latest state of a job.
func (s *Store) SaveJob(runID string, j batch.JobSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO jobs (id, run_id, path, rel_path, summary_length, attempts, status, summary, error, transient, skipped, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			run_id = excluded.run_id,
			attempts = excluded.attempts,
			status = excluded.status,
			summary = excluded.summary,
			error = excluded.error,
			transient = excluded.transient,
			skipped = excluded.skipped,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`, j.ID, runID, j.Path, j.RelPath, j.SummaryLength, j.Attempts, string(j.Status),
		nullString(j.Summary), nullString(j.Error), j.Transient, j.Skipped,
		nullTime(j.StartedAt), nullTime(j.FinishedAt))
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", j.RelPath, err)
	}
	return nil
}

// FinishRun writes the final counts of a run.
func (s *Store) FinishRun(runID string, rep *batch.Report) error {
	finished := rep.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`
		UPDATE runs SET total = ?, succeeded = ?, failed = ?, unchanged = ?, canceled = ?, finished_at = ?
		WHERE id = ?
	`, len(rep.Jobs), rep.Succeeded, rep.Failed, rep.Unchanged, rep.Canceled, finished, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

const runColumns = `id, parent_id, root, provider, model, summary_length, summary_key, mark_shown,
	strip_markdown, max_input_chars, git_head, dry_run, total, succeeded, failed, unchanged, canceled,
	started_at, finished_at`

// GetRun returns the run with the given id. A unique id prefix is accepted.
func (s *Store) GetRun(id string) (*Run, error) {
	runs, err := s.queryRuns(`WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		if runs, err = s.queryRuns(`WHERE id LIKE ? LIMIT 2`, id+"%"); err != nil {
			return nil, err
		}
	}
	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return &runs[0], nil
	default:
		return nil, fmt.Errorf("run id %q is ambiguous", id)
	}
}

// LatestRun returns the most recent run, or ErrRunNotFound.
func (s *Store) LatestRun() (*Run, error) {
	runs, err := s.ListRuns(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrRunNotFound
	}
	return &runs[0], nil
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryRuns(`ORDER BY started_at DESC LIMIT ?`, limit)
}

func (s *Store) queryRuns(where string, args ...any) ([]Run, error) {
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// JobsForRun returns all jobs of a run ordered by relative path.
func (s *Store) JobsForRun(runID string) ([]batch.JobSnapshot, error) {
	return s.queryJobs(`WHERE run_id = ? ORDER BY rel_path`, runID)
}

// FailedJobs returns the failed jobs of a run.
func (s *Store) FailedJobs(runID string) ([]batch.JobSnapshot, error) {
	return s.queryJobs(`WHERE run_id = ? AND status = ? ORDER BY rel_path`, runID, string(batch.StatusFailed))
}

func (s *Store) queryJobs(where string, args ...any) ([]batch.JobSnapshot, error) {
	rows, err := s.db.Query(`
		SELECT id, path, rel_path, summary_length, attempts, status, summary, error, transient, skipped, started_at, finished_at
		FROM jobs `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var out []batch.JobSnapshot
	for rows.Next() {
		var (
			j                 batch.JobSnapshot
			status            string
			summary, errText  sql.NullString
			started, finished sql.NullTime
		)
		if err := rows.Scan(&j.ID, &j.Path, &j.RelPath, &j.SummaryLength, &j.Attempts, &status,
			&summary, &errText, &j.Transient, &j.Skipped, &started, &finished); err != nil {
			return nil, err
		}
		j.Status = batch.JobStatus(status)
		j.Summary = summary.String
		j.Error = errText.String
		j.StartedAt = started.Time
		j.FinishedAt = finished.Time
		if started.Valid && finished.Valid {
			j.Duration = finished.Time.Sub(started.Time)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var out []Run
	for rows.Next() {
		var (
			r            Run
			parent, head sql.NullString
			finished     sql.NullTime
		)
		if err := rows.Scan(&r.ID, &parent, &r.Root, &r.Provider, &r.Model, &r.SummaryLength,
			&r.SummaryKey, &r.MarkShown, &r.StripMarkdown, &r.MaxInputChars, &head, &r.DryRun,
			&r.Total, &r.Succeeded, &r.Failed, &r.Unchanged, &r.Canceled, &r.StartedAt, &finished); err != nil {
			return nil, err
		}
		r.ParentID = parent.String
		r.GitHead = head.String
		r.FinishedAt = finished.Time
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
