package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ishaan812/mdsum/internal/batch"
	"github.com/ishaan812/mdsum/internal/config"
	"github.com/ishaan812/mdsum/internal/discovery"
	"github.com/ishaan812/mdsum/internal/git"
	"github.com/ishaan812/mdsum/internal/store"
	"github.com/ishaan812/mdsum/internal/tui"
)

var (
	runRecursive     bool
	runLength        int
	runInterval      float64
	runWorkers       int
	runKey           string
	runChanged       bool
	runStripMarkdown bool
	runDryRun        bool
	runTUI           bool
	runOverrides     clientOverrides
)

var runCmd = &cobra.Command{
	Use:   "run [path]",
	Short: "Summarize Markdown files into their frontmatter",
	Long: `Find Markdown files under path (default: current directory), request a
summary for each one, and write it into the file's YAML frontmatter.

Existing frontmatter keys are preserved. Files without frontmatter get a new
block. Requests are spaced by the configured interval.

Examples:
  mdsum run                          # Current directory, recursively
  mdsum run ~/notes --length 120     # Shorter summaries
  mdsum run post.md                  # A single file
  mdsum run --changed                # Only files changed in git
  mdsum run --provider openai --model gpt-4o-mini
  mdsum run --dry-run -v             # Request summaries without writing
  mdsum run --tui                    # Full-screen progress view`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVarP(&runRecursive, "recursive", "r", true, "Descend into subdirectories")
	runCmd.Flags().IntVar(&runLength, "length", 0, "Maximum summary length in characters (default from config)")
	runCmd.Flags().Float64Var(&runInterval, "interval", -1, "Seconds between API requests (default from config)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "Files processed concurrently (default from config)")
	runCmd.Flags().StringVar(&runKey, "key", "", "Frontmatter key for the summary (default from config)")
	runCmd.Flags().BoolVar(&runChanged, "changed", false, "Only files modified or untracked in git")
	runCmd.Flags().BoolVar(&runStripMarkdown, "strip-markdown", false, "Send plain text instead of Markdown")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Request summaries but do not write files")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Show the full-screen progress view")

	addProviderFlags(runCmd, &runOverrides)
}

func addProviderFlags(cmd *cobra.Command, o *clientOverrides) {
	cmd.Flags().StringVar(&o.provider, "provider", "", "LLM provider (overrides config)")
	cmd.Flags().StringVar(&o.model, "model", "", "Model name (overrides config)")
	cmd.Flags().StringVar(&o.apiKey, "api-key", "", "API key (overrides config and environment)")
	cmd.Flags().StringVar(&o.baseURL, "base-url", "", "API base URL (overrides config)")
}

// applyRunFlags copies explicitly set flags onto cfg and validates the result.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("length") {
		cfg.SummaryLength = runLength
	}
	if flags.Changed("interval") {
		cfg.RequestIntervalSeconds = runInterval
	}
	if flags.Changed("workers") {
		cfg.MaxWorkers = runWorkers
	}
	if flags.Changed("key") {
		cfg.SummaryKey = runKey
	}
	if flags.Changed("strip-markdown") {
		cfg.StripMarkdown = runStripMarkdown
	}
	if runOverrides.provider != "" {
		cfg.DefaultProvider = runOverrides.provider
		if runOverrides.model == "" {
			cfg.DefaultModel = ""
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func runSummarize(cmd *cobra.Command, args []string) error {
	titleColor := color.New(color.FgHiCyan, color.Bold)
	successColor := color.New(color.FgHiGreen)
	warnColor := color.New(color.FgHiYellow)
	dimColor := color.New(color.FgHiBlack)

	path := "."
	if len(args) > 0 {
		path = args[0]
	} else if runTUI && term.IsTerminal(int(os.Stdin.Fd())) {
		picked, err := tui.RunPathPrompt("Summarize which folder?", "enter: choose", ".")
		if errors.Is(err, tui.ErrPromptCanceled) {
			return nil
		}
		if err != nil {
			return err
		}
		path = picked
	}
	absPath, err := filepath.Abs(expandHome(path))
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}

	client, provider, model, err := createLLMClient(cfg, runOverrides)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	fmt.Println()
	titleColor.Printf("  Summarizing Markdown\n")
	dimColor.Printf("  %s\n", absPath)
	dimColor.Printf("  Provider: %s / %s\n\n", provider, model)

	opts := discovery.Options{
		Recursive:   runRecursive,
		Extensions:  cfg.GetExtensions(),
		MaxFileSize: cfg.MaxFileSize,
	}
	var gitHead string
	if repo, err := git.OpenRepo(absPath); err == nil {
		gitHead, _ = repo.HeadHash()
		if runChanged {
			filter, err := repo.ChangedFilter()
			if err != nil {
				return fmt.Errorf("failed to read git status: %w", err)
			}
			opts.Filter = filter
		}
	} else if runChanged {
		return fmt.Errorf("--changed needs a git repository: %w", err)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Finding Markdown files..."
	s.Color("cyan")
	s.Start()
	result, err := discovery.Scan(absPath, opts)
	s.Stop()
	if err != nil {
		if errors.Is(err, discovery.ErrPathNotFound) {
			return fmt.Errorf("%s does not exist", absPath)
		}
		return fmt.Errorf("failed to scan files: %w", err)
	}

	for _, sk := range result.Skipped {
		VerboseLog("Skipped %s: %s", sk.Path, sk.Reason)
	}
	if len(result.Files) == 0 {
		warnColor.Println("  No Markdown files found")
		fmt.Println()
		return nil
	}
	successColor.Printf("  Found %d Markdown file(s)", len(result.Files))
	if len(result.Skipped) > 0 {
		dimColor.Printf("  (%d skipped)", len(result.Skipped))
	}
	fmt.Println()
	fmt.Println()

	jobs := make([]*batch.Job, 0, len(result.Files))
	for _, c := range result.Files {
		jobs = append(jobs, batch.NewJob(c.Path, c.RelPath, cfg.SummaryLength))
	}

	history := openHistory()
	if history != nil {
		defer history.Close()
	}
	session := newBatchSession(cfg, client, history, &store.Run{
		Root:          absPath,
		Provider:      string(provider),
		Model:         model,
		SummaryLength: cfg.SummaryLength,
		GitHead:       gitHead,
		DryRun:        runDryRun,
	})
	session.useTUI = runTUI && term.IsTerminal(int(os.Stdout.Fd()))

	rep := session.execute(len(jobs), func(ctx context.Context, r *batch.Runner) *batch.Report {
		return r.Run(ctx, jobs)
	})
	printReport(rep, session.run.ID, runDryRun)

	for rep.Failed > 0 && !rep.Canceled && confirmRetry(rep.Failed) {
		session.run = &store.Run{
			ParentID:      session.run.ID,
			Root:          absPath,
			Provider:      string(provider),
			Model:         model,
			SummaryLength: cfg.SummaryLength,
			GitHead:       gitHead,
			DryRun:        runDryRun,
		}
		session.title = "Retrying"
		failed := rep.FailedJobs()
		rep = session.execute(len(failed), func(ctx context.Context, r *batch.Runner) *batch.Report {
			return r.Retry(ctx, failed, nil)
		})
		printReport(rep, session.run.ID, runDryRun)
	}

	if rep.Failed > 0 {
		return errFailedFiles{failed: rep.Failed, total: len(rep.Jobs)}
	}
	return nil
}

func expandHome(p string) string {
	if len(p) >= 2 && p[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
