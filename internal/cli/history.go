package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ishaan812/mdsum/internal/batch"
	"github.com/ishaan812/mdsum/internal/config"
	"github.com/ishaan812/mdsum/internal/store"
)

var (
	historyLimit      int
	historyShowFailed bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs",
	Long: `List recent runs with their outcome counts.

Examples:
  mdsum history                  # Last 20 runs
  mdsum history -n 5
  mdsum history show 3f2a9c1e    # Per-file outcomes of a run`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the files of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list")
	historyShowCmd.Flags().BoolVar(&historyShowFailed, "failed", false, "Only show failed files")
}

func runHistory(cmd *cobra.Command, args []string) error {
	titleColor := color.New(color.FgHiCyan, color.Bold)
	successColor := color.New(color.FgHiGreen)
	errorColor := color.New(color.FgHiRed)
	warnColor := color.New(color.FgHiYellow)
	dimColor := color.New(color.FgHiBlack)
	infoColor := color.New(color.FgHiWhite)

	history, err := store.Open(config.GetDBPath())
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer history.Close()

	runs, err := history.ListRuns(historyLimit)
	if err != nil {
		return err
	}

	fmt.Println()
	titleColor.Println("  Recent Runs")
	fmt.Println()
	if len(runs) == 0 {
		dimColor.Println("  No runs recorded yet")
		fmt.Println()
		return nil
	}

	for _, r := range runs {
		infoColor.Printf("  %s", shortID(r.ID))
		dimColor.Printf("  %s  ", r.StartedAt.Local().Format("2006-01-02 15:04"))
		successColor.Printf("%3d ok", r.Succeeded)
		if r.Failed > 0 {
			errorColor.Printf("  %3d failed", r.Failed)
		} else {
			dimColor.Printf("  %3d failed", 0)
		}
		dimColor.Printf("  %s/%s", r.Provider, r.Model)
		switch {
		case !r.Finished():
			warnColor.Print("  (incomplete)")
		case r.Canceled:
			warnColor.Print("  (interrupted)")
		}
		if r.ParentID != "" {
			dimColor.Printf("  retry of %s", shortID(r.ParentID))
		}
		if r.DryRun {
			dimColor.Print("  dry run")
		}
		fmt.Println()
		dimColor.Printf("            %s\n", r.Root)
	}
	fmt.Println()
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	titleColor := color.New(color.FgHiCyan, color.Bold)
	successColor := color.New(color.FgHiGreen)
	errorColor := color.New(color.FgHiRed)
	dimColor := color.New(color.FgHiBlack)
	infoColor := color.New(color.FgHiWhite)

	history, err := store.Open(config.GetDBPath())
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer history.Close()

	run, err := history.GetRun(args[0])
	if err != nil {
		return err
	}
	var jobs []batch.JobSnapshot
	if historyShowFailed {
		jobs, err = history.FailedJobs(run.ID)
	} else {
		jobs, err = history.JobsForRun(run.ID)
	}
	if err != nil {
		return err
	}

	fmt.Println()
	titleColor.Printf("  Run %s\n", run.ID)
	dimColor.Printf("  %s\n", run.Root)
	dimColor.Printf("  %s / %s, length %d\n", run.Provider, run.Model, run.SummaryLength)
	if run.GitHead != "" {
		dimColor.Printf("  git %s\n", shortID(run.GitHead))
	}
	if run.Finished() {
		dimColor.Printf("  %s, took %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
	}
	fmt.Println()

	if len(jobs) == 0 {
		dimColor.Println("  No files recorded for this run")
		fmt.Println()
		return nil
	}
	for _, j := range jobs {
		if j.Status == batch.StatusSucceeded {
			successColor.Print("  ✓ ")
			infoColor.Println(j.RelPath)
			if j.Summary != "" {
				dimColor.Printf("    %s\n", j.Summary)
			}
			continue
		}
		errorColor.Print("  ✗ ")
		infoColor.Print(j.RelPath)
		if j.Transient {
			dimColor.Print("  (transient)")
		}
		fmt.Println()
		dimColor.Printf("    %s\n", j.Error)
	}
	fmt.Println()
	return nil
}
