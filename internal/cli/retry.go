package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ishaan812/mdsum/internal/batch"
	"github.com/ishaan812/mdsum/internal/config"
	"github.com/ishaan812/mdsum/internal/store"
)

var (
	retryTransientOnly bool
	retryDryRun        bool
	retryTUI           bool
	retryOverrides     clientOverrides
)

var retryCmd = &cobra.Command{
	Use:   "retry [run-id]",
	Short: "Retry the failed files of a previous run",
	Long: `Re-attempt every file that failed in the latest run, or in the run
given by id (a unique prefix is enough). Files that succeeded are not touched.

Examples:
  mdsum retry                     # Failed files of the latest run
  mdsum retry 3f2a9c1e            # A specific run
  mdsum retry --transient-only    # Only rate limits, timeouts and 5xx errors`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRetry,
}

func init() {
	rootCmd.AddCommand(retryCmd)

	retryCmd.Flags().BoolVar(&retryTransientOnly, "transient-only", false, "Only retry failures that may succeed on a second attempt")
	retryCmd.Flags().BoolVar(&retryDryRun, "dry-run", false, "Request summaries but do not write files")
	retryCmd.Flags().BoolVar(&retryTUI, "tui", false, "Show the full-screen progress view")
	addProviderFlags(retryCmd, &retryOverrides)
}

func runRetry(cmd *cobra.Command, args []string) error {
	titleColor := color.New(color.FgHiCyan, color.Bold)
	successColor := color.New(color.FgHiGreen)
	dimColor := color.New(color.FgHiBlack)

	history, err := store.Open(config.GetDBPath())
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer history.Close()

	var prev *store.Run
	if len(args) > 0 {
		prev, err = history.GetRun(args[0])
	} else {
		prev, err = history.LatestRun()
	}
	if errors.Is(err, store.ErrRunNotFound) && len(args) == 0 {
		dimColor.Println("  No runs recorded yet. Use 'mdsum run' first.")
		return nil
	}
	if err != nil {
		return err
	}

	snaps, err := history.FailedJobs(prev.ID)
	if err != nil {
		return err
	}
	jobs := make([]*batch.Job, 0, len(snaps))
	for _, s := range snaps {
		jobs = append(jobs, batch.RestoreJob(s))
	}

	var keep func(*batch.Job) bool
	if retryTransientOnly {
		keep = batch.TransientOnly
	}
	eligible := 0
	for _, j := range jobs {
		if keep == nil || keep(j) {
			eligible++
		}
	}

	fmt.Println()
	titleColor.Printf("  Retrying run %s\n", shortID(prev.ID))
	dimColor.Printf("  %s\n", prev.Root)
	if eligible == 0 {
		successColor.Println("  Nothing to retry")
		fmt.Println()
		return nil
	}
	dimColor.Printf("  %d failed file(s) to retry\n\n", eligible)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	// Stay on the run's provider and model unless told otherwise.
	if retryOverrides.provider == "" {
		retryOverrides.provider = prev.Provider
		if retryOverrides.model == "" {
			retryOverrides.model = prev.Model
		}
	}
	restoreRunSettings(cfg, prev)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	client, provider, model, err := createLLMClient(cfg, retryOverrides)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	session := newBatchSession(cfg, client, history, &store.Run{
		ParentID:      prev.ID,
		Root:          prev.Root,
		Provider:      string(provider),
		Model:         model,
		SummaryLength: prev.SummaryLength,
		GitHead:       prev.GitHead,
		DryRun:        retryDryRun,
	})
	session.title = "Retrying"
	session.useTUI = retryTUI && term.IsTerminal(int(os.Stdout.Fd()))

	rep := session.execute(eligible, func(ctx context.Context, r *batch.Runner) *batch.Report {
		return r.Retry(ctx, jobs, keep)
	})
	printReport(rep, session.run.ID, retryDryRun)

	if rep.Failed > 0 {
		return errFailedFiles{failed: rep.Failed, total: len(rep.Jobs)}
	}
	return nil
}

// restoreRunSettings makes a retry write summaries the way prev did.
func restoreRunSettings(cfg *config.Config, prev *store.Run) {
	if prev.SummaryKey != "" {
		cfg.SummaryKey = prev.SummaryKey
	}
	cfg.MarkShown = prev.MarkShown
	cfg.StripMarkdown = prev.StripMarkdown
	cfg.MaxInputChars = prev.MaxInputChars
}
