package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ishaan812/mdsum/internal/document"
	"github.com/ishaan812/mdsum/internal/llm"
	"github.com/ishaan812/mdsum/internal/logging"
)

// DefaultSummaryKey is the frontmatter key summaries are written to.
const DefaultSummaryKey = "articleGPT"

// ShownKey is added with value true next to new summaries when MarkShown is set.
const ShownKey = "show"

// Summarizer produces a summary for document text.
type Summarizer interface {
	Summarize(ctx context.Context, content string, maxLength int) (string, error)
}

// Options configures a Runner.
type Options struct {
	// Workers > 1 processes jobs concurrently; the limiter is still shared.
	Workers int
	// Interval is the minimum spacing between provider requests.
	Interval time.Duration
	// Limiter overrides Interval with an existing limiter.
	Limiter *Limiter

	SummaryKey    string
	MarkShown     bool
	StripMarkdown bool
	MaxInputChars int
	// DryRun requests summaries but leaves files untouched.
	DryRun bool

	// OnEvent receives progress updates. Calls are serialized.
	OnEvent func(Event)

	// Abort, when it ends, cancels requests already in flight. Ending the
	// ctx passed to Run only stops new jobs from starting.
	Abort context.Context
}

// EventType identifies a progress event.
type EventType string

const (
	EventJobStarted  EventType = "job_started"
	EventJobFinished EventType = "job_finished"
)

// Event reports a job transition together with run totals.
type Event struct {
	Type     EventType
	Job      JobSnapshot
	Progress Progress
}

// Progress holds run totals.
type Progress struct {
	Total     int
	Completed int
	Succeeded int
	Failed    int
	InFlight  int
}

// Report summarizes a finished run. Every job passed in appears exactly once.
type Report struct {
	Jobs       []*Job
	Succeeded  int
	Failed     int
	Unchanged  int
	Canceled   bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// FailedJobs returns the jobs that ended in failure.
func (r *Report) FailedJobs() []*Job {
	var out []*Job
	for _, j := range r.Jobs {
		if j.Failed() {
			out = append(out, j)
		}
	}
	return out
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Runner processes jobs: load, request a summary, write it back.
type Runner struct {
	summarizer Summarizer
	opts       Options
	limiter    *Limiter

	mu       sync.Mutex
	progress Progress
}

// NewRunner creates a runner.
func NewRunner(s Summarizer, opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.SummaryKey == "" {
		opts.SummaryKey = DefaultSummaryKey
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewLimiter(opts.Interval)
	}
	return &Runner{summarizer: s, opts: opts, limiter: limiter}
}

// Run processes jobs in order. When ctx ends, jobs that have not started are
// marked failed with ErrCanceled so they stay eligible for retry. Jobs
// already requesting a summary run to completion unless Options.Abort ends.
func (r *Runner) Run(ctx context.Context, jobs []*Job) *Report {
	report := &Report{Jobs: jobs, StartedAt: time.Now()}

	r.mu.Lock()
	r.progress = Progress{Total: len(jobs)}
	r.mu.Unlock()

	if r.opts.Workers == 1 {
		for _, job := range jobs {
			if ctx.Err() != nil {
				r.cancel(job)
				continue
			}
			r.process(ctx, job)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(r.opts.Workers)
		for _, job := range jobs {
			if ctx.Err() != nil {
				r.cancel(job)
				continue
			}
			g.Go(func() error {
				if ctx.Err() != nil {
					r.cancel(job)
					return nil
				}
				r.process(ctx, job)
				return nil
			})
		}
		_ = g.Wait()
	}

	report.FinishedAt = time.Now()
	report.Canceled = ctx.Err() != nil
	for _, job := range jobs {
		s := job.Snapshot()
		switch s.Status {
		case StatusSucceeded:
			report.Succeeded++
			if s.Skipped {
				report.Unchanged++
			}
		default:
			report.Failed++
		}
	}
	return report
}

// Retry re-runs the failed jobs among jobs. keep, when non-nil, narrows the
// selection further. Succeeded jobs are left alone.
func (r *Runner) Retry(ctx context.Context, jobs []*Job, keep func(*Job) bool) *Report {
	var selected []*Job
	for _, job := range jobs {
		if !job.Failed() {
			continue
		}
		if keep != nil && !keep(job) {
			continue
		}
		job.reset()
		selected = append(selected, job)
	}
	return r.Run(ctx, selected)
}

// TransientOnly selects jobs whose last failure was transient.
func TransientOnly(j *Job) bool {
	return j.Snapshot().Transient
}

func (r *Runner) process(ctx context.Context, job *Job) {
	job.start()
	logging.DebugWithFields("summary started", logging.Fields{
		"job_id":  job.ID,
		"path":    job.Path,
		"attempt": job.Attempts,
	})
	r.emit(EventJobStarted, job, false)

	summary, unchanged, err := r.summarize(ctx, job)
	if err != nil {
		transient := llm.IsTransient(err) || errors.Is(err, context.Canceled) || errors.Is(err, ErrCanceled)
		job.fail(err, transient)
		logging.ErrorWithFields("summary failed", logging.Fields{
			"job_id":    job.ID,
			"path":      job.Path,
			"attempt":   job.Attempts,
			"transient": transient,
			"error":     err.Error(),
		})
	} else {
		job.succeed(summary, unchanged)
		logging.InfoWithFields("summary written", logging.Fields{
			"job_id":    job.ID,
			"path":      job.Path,
			"attempt":   job.Attempts,
			"unchanged": unchanged,
			"dry_run":   r.opts.DryRun,
			"chars":     len([]rune(summary)),
		})
	}
	r.emit(EventJobFinished, job, true)
}

func (r *Runner) summarize(ctx context.Context, job *Job) (string, bool, error) {
	doc, err := document.Load(job.Path)
	if err != nil {
		return "", false, err
	}
	logging.DebugWithFields("document loaded", logging.Fields{
		"job_id":      job.ID,
		"frontmatter": doc.HasFrontmatter(),
		"bom":         doc.BOM,
		"bytes":       len(doc.Raw),
	})
	text, err := doc.Text(r.opts.StripMarkdown, r.opts.MaxInputChars)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", job.RelPath, err)
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrCanceled, err)
	}

	reqCtx, cancel := r.requestContext(ctx)
	defer cancel()
	summary, err := r.summarizer.Summarize(reqCtx, text, job.SummaryLength)
	if err != nil {
		return "", false, err
	}

	var extras []document.Field
	if r.opts.MarkShown {
		extras = append(extras, document.Field{Key: ShownKey, Value: true})
	}
	if err := doc.SetSummary(r.opts.SummaryKey, summary, extras...); err != nil {
		return "", false, err
	}
	changed, err := doc.Changed()
	if err != nil {
		return "", false, err
	}
	if r.opts.DryRun || !changed {
		return summary, !changed, nil
	}
	if err := document.Save(doc); err != nil {
		return "", false, err
	}
	return summary, false, nil
}

// requestContext detaches a request from the stop signal in ctx so a stop
// never cuts off a summary mid-flight.
func (r *Runner) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	reqCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if r.opts.Abort == nil {
		return reqCtx, cancel
	}
	stopAfter := context.AfterFunc(r.opts.Abort, cancel)
	return reqCtx, func() {
		stopAfter()
		cancel()
	}
}

func (r *Runner) cancel(job *Job) {
	job.fail(ErrCanceled, true)
	r.emit(EventJobFinished, job, false)
}

func (r *Runner) emit(t EventType, job *Job, started bool) {
	snap := job.Snapshot()

	r.mu.Lock()
	defer r.mu.Unlock()
	switch t {
	case EventJobStarted:
		r.progress.InFlight++
	case EventJobFinished:
		if started {
			r.progress.InFlight--
		}
		r.progress.Completed++
		if snap.Status == StatusSucceeded {
			r.progress.Succeeded++
		} else {
			r.progress.Failed++
		}
	}
	if r.opts.OnEvent != nil {
		r.opts.OnEvent(Event{Type: t, Job: snap, Progress: r.progress})
	}
}
