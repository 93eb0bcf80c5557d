package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ishaan812/mdsum/internal/config"
	"github.com/ishaan812/mdsum/internal/logging"
)

var (
	configPath string
	logFile    string
	verbose    bool

	closeLog = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "mdsum",
	Short: "mdsum - Summarize Markdown files into their frontmatter",
	Long: `mdsum finds Markdown files, asks an LLM provider for a short summary of
each one, and writes the summary into the file's YAML frontmatter.

Use 'mdsum models set' to pick a provider, then 'mdsum run <folder>'.
Failed files can be retried later with 'mdsum retry'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			VerboseLog("Warning: failed to load .env: %v", err)
		}

		if configPath != "" {
			config.SetConfigPath(configPath)
		}

		cfg, err := config.Load()
		if err != nil {
			VerboseLog("Warning: failed to load config: %v", err)
			cfg = config.Default()
		}
		if logFile != "" {
			cfg.LogFile = logFile
		}

		level := "info"
		if verbose {
			level = "debug"
		}
		closer, err := logging.Init(logging.Options{
			Level:   level,
			File:    cfg.GetLogPath(),
			Console: verbose,
		})
		if err != nil {
			VerboseLog("Warning: file logging disabled: %v", err)
		}
		closeLog = closer
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLog()
		closeLog = func() {}
	},
}

func Execute() error {
	defer closeLog()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.mdsum/config.json)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file (default ~/.mdsum/mdsum.log)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

func IsVerbose() bool {
	return verbose
}

func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}
