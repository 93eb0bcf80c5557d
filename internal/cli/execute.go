package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"golang.org/x/term"

	"github.com/ishaan812/mdsum/internal/batch"
	"github.com/ishaan812/mdsum/internal/config"
	"github.com/ishaan812/mdsum/internal/constants"
	"github.com/ishaan812/mdsum/internal/llm"
	"github.com/ishaan812/mdsum/internal/logging"
	"github.com/ishaan812/mdsum/internal/store"
	"github.com/ishaan812/mdsum/internal/summarizer"
	"github.com/ishaan812/mdsum/internal/tui"
)

// clientOverrides holds provider flags that take precedence over config.
type clientOverrides struct {
	provider string
	model    string
	apiKey   string
	baseURL  string
}

// createLLMClient builds the client for the configured (or overridden)
// provider. Missing credentials are reported before any file is touched.
func createLLMClient(cfg *config.Config, o clientOverrides) (llm.Client, llm.Provider, string, error) {
	name := cfg.DefaultProvider
	if o.provider != "" {
		name = o.provider
	}
	provider, ok := parseProvider(name)
	if !ok {
		return nil, "", "", fmt.Errorf("unknown provider %q; run 'mdsum models list' to see the options", name)
	}

	model := cfg.GetModel(provider)
	if o.model != "" {
		model = o.model
	}

	llmCfg := llm.DefaultConfig(provider)
	opts := []llm.Option{
		llm.WithModel(model),
		llm.WithBaseURL(cfg.GetBaseURL(string(provider))),
		llm.WithAPIKey(cfg.GetAPIKey(string(provider))),
	}
	if provider == llm.ProviderBedrock {
		opts = append(opts, llm.WithAWSCredentials(cfg.GetAPIKey(string(provider)), cfg.GetAWSSecretAccessKey(), cfg.AWSRegion))
	}
	opts = append(opts, llm.WithAPIKey(o.apiKey), llm.WithBaseURL(o.baseURL))

	client, err := llm.NewClient(llmCfg, opts...)
	if err != nil {
		if errors.Is(err, llm.ErrMissingCredentials) {
			return nil, "", "", fmt.Errorf("%w\n\nSet it with 'mdsum models set', --api-key, or the provider's environment variable", err)
		}
		return nil, "", "", err
	}
	return client, provider, model, nil
}

func parseProvider(name string) (llm.Provider, bool) {
	if name == "" {
		name = config.Default().DefaultProvider
	}
	return constants.ParseProvider(name)
}

// openHistory opens the run history database. History is best effort: a
// locked or unwritable database only disables retry across invocations.
func openHistory() *store.Store {
	s, err := store.Open(config.GetDBPath())
	if err != nil {
		VerboseLog("Warning: run history disabled: %v", err)
		logging.WarnWithFields("run history disabled", logging.Fields{"error": err.Error()})
		return nil
	}
	return s
}

// batchSession runs one pass over a set of jobs and records it.
type batchSession struct {
	cfg        *config.Config
	summarizer *summarizer.Summarizer
	history    *store.Store
	run        *store.Run
	useTUI     bool
	title      string
}

func newBatchSession(cfg *config.Config, client llm.Client, history *store.Store, run *store.Run) *batchSession {
	return &batchSession{
		cfg: cfg,
		summarizer: summarizer.New(client,
			summarizer.WithTemplate(cfg.PromptTemplate),
			summarizer.WithTimeout(cfg.RequestTimeout()),
		),
		history: history,
		run:     run,
		title:   "Summarizing",
	}
}

func (s *batchSession) options(abort context.Context, onEvent func(batch.Event)) batch.Options {
	return batch.Options{
		Workers:       s.cfg.MaxWorkers,
		Interval:      s.cfg.RequestInterval(),
		SummaryKey:    s.cfg.SummaryKey,
		MarkShown:     s.cfg.MarkShown,
		StripMarkdown: s.cfg.StripMarkdown,
		MaxInputChars: s.cfg.MaxInputChars,
		DryRun:        s.run.DryRun,
		OnEvent:       onEvent,
		Abort:         abort,
	}
}

// handleInterrupts stops the run on the first signal and aborts in-flight
// requests on the second. It returns when done closes or after aborting.
func handleInterrupts(done <-chan struct{}, sigs <-chan os.Signal, stop, abort func()) {
	stopped := false
	for {
		select {
		case <-done:
			return
		case <-sigs:
			if !stopped {
				stopped = true
				stop()
				continue
			}
			abort()
			return
		}
	}
}

// execute runs fn (Run or Retry) with signal handling, a progress display and
// history recording. It returns the report of the pass.
func (s *batchSession) execute(total int, fn func(ctx context.Context, r *batch.Runner) *batch.Report) *batch.Report {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	abortCtx, abort := context.WithCancel(context.Background())
	defer abort()

	s.run.Total = total
	s.run.SummaryKey = s.cfg.SummaryKey
	s.run.MarkShown = s.cfg.MarkShown
	s.run.StripMarkdown = s.cfg.StripMarkdown
	s.run.MaxInputChars = s.cfg.MaxInputChars
	if s.history != nil {
		if err := s.history.CreateRun(s.run); err != nil {
			VerboseLog("Warning: failed to record run: %v", err)
			s.history = nil
		}
	}

	var view *tui.ProgressView
	var lines *lineProgress
	if s.useTUI {
		view = tui.StartProgressView(s.title, total, stop, abort)
	} else {
		lines = newLineProgress(total)
	}

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	done := make(chan struct{})
	defer close(done)
	go handleInterrupts(done, sigs, func() {
		if lines != nil {
			lines.done()
			color.New(color.FgHiYellow).Println("  Stopping after in-flight requests; interrupt again to abort them")
		}
		stop()
	}, abort)

	onEvent := func(ev batch.Event) {
		if view != nil {
			view.Handle(ev)
		} else {
			lines.handle(ev)
		}
		if ev.Type == batch.EventJobFinished && s.history != nil {
			if err := s.history.SaveJob(s.run.ID, ev.Job); err != nil {
				VerboseLog("Warning: %v", err)
			}
		}
	}

	runner := batch.NewRunner(s.summarizer, s.options(abortCtx, onEvent))
	logging.InfoWithFields("run started", logging.Fields{
		"run_id":   s.run.ID,
		"root":     s.run.Root,
		"provider": s.run.Provider,
		"model":    s.run.Model,
		"files":    total,
		"workers":  s.cfg.MaxWorkers,
		"dry_run":  s.run.DryRun,
	})
	rep := fn(ctx, runner)

	if view != nil {
		if aborted, err := view.Finish(); err != nil {
			VerboseLog("Warning: progress view: %v", err)
		} else if aborted {
			VerboseLog("Progress view closed before the run finished")
		}
	} else {
		lines.done()
	}

	if s.history != nil {
		if err := s.history.FinishRun(s.run.ID, rep); err != nil {
			VerboseLog("Warning: failed to record run: %v", err)
		}
	}
	logging.InfoWithFields("run finished", logging.Fields{
		"run_id":    s.run.ID,
		"succeeded": rep.Succeeded,
		"failed":    rep.Failed,
		"unchanged": rep.Unchanged,
		"canceled":  rep.Canceled,
		"duration":  rep.Duration().String(),
	})
	return rep
}

// lineProgress prints a single updating counter plus one line per failure.
type lineProgress struct {
	total int
	tty   bool
}

func newLineProgress(total int) *lineProgress {
	return &lineProgress{total: total, tty: term.IsTerminal(int(os.Stdout.Fd()))}
}

func (p *lineProgress) handle(ev batch.Event) {
	if ev.Type != batch.EventJobFinished {
		return
	}
	errorColor := color.New(color.FgHiRed)
	dimColor := color.New(color.FgHiBlack)

	if ev.Job.Status == batch.StatusFailed {
		if p.tty {
			fmt.Print("\r\033[K")
		}
		errorColor.Printf("  ✗ %s", ev.Job.RelPath)
		dimColor.Printf("  %s\n", ev.Job.Error)
	} else if !p.tty || IsVerbose() {
		if p.tty {
			fmt.Print("\r\033[K")
		}
		dimColor.Printf("  ✓ %s\n", ev.Job.RelPath)
	}
	if p.tty {
		fmt.Printf("\r  Processed %d/%d", ev.Progress.Completed, p.total)
	}
}

func (p *lineProgress) done() {
	if p.tty {
		fmt.Print("\r\033[K")
	}
}

// printReport prints the outcome of a pass.
func printReport(rep *batch.Report, runID string, dryRun bool) {
	titleColor := color.New(color.FgHiCyan, color.Bold)
	successColor := color.New(color.FgHiGreen)
	errorColor := color.New(color.FgHiRed)
	warnColor := color.New(color.FgHiYellow)
	dimColor := color.New(color.FgHiBlack)

	fmt.Println()
	titleColor.Println("  Results")
	successColor.Printf("  Succeeded: %d", rep.Succeeded)
	if rep.Unchanged > 0 {
		dimColor.Printf(" (%d unchanged)", rep.Unchanged)
	}
	fmt.Println()
	if rep.Failed > 0 {
		errorColor.Printf("  Failed:    %d\n", rep.Failed)
	} else {
		dimColor.Printf("  Failed:    0\n")
	}
	dimColor.Printf("  Duration:  %s\n", rep.Duration().Round(time.Millisecond))
	if dryRun {
		warnColor.Println("  Dry run: no files were written")
	}
	if rep.Canceled {
		warnColor.Println("  Run was interrupted; unstarted files are marked failed")
	}

	if failed := rep.FailedJobs(); len(failed) > 0 {
		fmt.Println()
		for _, j := range failed {
			snap := j.Snapshot()
			errorColor.Printf("  ✗ %s", filepath.ToSlash(snap.RelPath))
			dimColor.Printf("  %s\n", snap.Error)
		}
		if runID != "" {
			fmt.Println()
			dimColor.Printf("  Retry with 'mdsum retry %s'\n", shortID(runID))
		}
	}
	fmt.Println()
}

// confirmRetry asks whether failed jobs should be retried now. It only asks
// on an interactive terminal.
func confirmRetry(failed int) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}
	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("Retry %d failed file(s) now", failed),
		IsConfirm: true,
	}
	_, err := prompt.Run()
	return err == nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// errFailedFiles is returned when a run finishes with failed files so the
// process exits non-zero.
type errFailedFiles struct {
	failed, total int
}

func (e errFailedFiles) Error() string {
	return fmt.Sprintf("%d of %d file(s) failed", e.failed, e.total)
}
