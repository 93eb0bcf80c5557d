package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ishaan812/mdsum/internal/config"
	"github.com/ishaan812/mdsum/internal/prompts"
)

var configPromptReset bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and edit mdsum settings",
	Long: `Show and edit the settings stored in ~/.mdsum/config.json.

Examples:
  mdsum config show
  mdsum config path
  mdsum config set summary_length 150
  mdsum config set request_interval_seconds 1.5
  mdsum config prompt                  # Print the prompt template
  mdsum config prompt my-prompt.txt    # Use a custom template
  mdsum config prompt --reset          # Back to the built-in template`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.GetConfigPath())
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Change a batch setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPromptCmd = &cobra.Command{
	Use:   "prompt [file]",
	Short: "Print or replace the summary prompt template",
	Long: fmt.Sprintf(`Print the summary prompt template, or replace it with the contents of file.

The template must contain %s, which is replaced by the file body.
%s is replaced by the configured summary length.`, prompts.ContentPlaceholder, prompts.MaxLengthPlaceholder),
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigPrompt,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPromptCmd)

	configPromptCmd.Flags().BoolVar(&configPromptReset, "reset", false, "Restore the built-in template")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	titleColor := color.New(color.FgHiCyan, color.Bold)
	labelColor := color.New(color.FgHiGreen)
	infoColor := color.New(color.FgHiWhite)
	dimColor := color.New(color.FgHiBlack)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	provider := cfg.GetProvider()

	row := func(label string, value any) {
		labelColor.Printf("  %-22s", label)
		infoColor.Printf("%v\n", value)
	}

	fmt.Println()
	titleColor.Println("  mdsum Settings")
	dimColor.Printf("  %s\n\n", config.GetConfigPath())

	row("Provider", provider)
	row("Model", cfg.GetModel(provider))
	if key := cfg.GetAPIKey(string(provider)); key != "" {
		row("API key", maskAPIKey(key))
	}
	row("Base URL", cfg.GetBaseURL(string(provider)))
	fmt.Println()
	row("Summary key", cfg.SummaryKey)
	row("Summary length", cfg.SummaryLength)
	row("Mark shown", cfg.MarkShown)
	row("Strip Markdown", cfg.StripMarkdown)
	if cfg.MaxInputChars > 0 {
		row("Max input chars", cfg.MaxInputChars)
	}
	row("Request interval", cfg.RequestInterval())
	row("Request timeout", cfg.RequestTimeout())
	row("Workers", cfg.MaxWorkers)
	row("Max file size", formatBytes(cfg.MaxFileSize))
	row("Extensions", strings.Join(cfg.GetExtensions(), ", "))
	fmt.Println()
	row("History", config.GetDBPath())
	row("Log file", cfg.GetLogPath())
	if cfg.PromptTemplate != "" {
		row("Prompt template", "custom")
	} else {
		row("Prompt template", "built-in")
	}
	fmt.Println()
	return nil
}

// settable maps config set names to their setters.
var settable = map[string]func(*config.Config, string) error{
	"summary_length":           intSetter(func(c *config.Config, v int) { c.SummaryLength = v }),
	"max_workers":              intSetter(func(c *config.Config, v int) { c.MaxWorkers = v }),
	"max_input_chars":          intSetter(func(c *config.Config, v int) { c.MaxInputChars = v }),
	"request_timeout_seconds":  intSetter(func(c *config.Config, v int) { c.RequestTimeoutSeconds = v }),
	"request_interval_seconds": func(c *config.Config, s string) error {
		v, err := strconv.ParseFloat(s, 64)
		c.RequestIntervalSeconds = v
		return err
	},
	"max_file_size": func(c *config.Config, s string) error {
		v, err := strconv.ParseInt(s, 10, 64)
		c.MaxFileSize = v
		return err
	},
	"summary_key": func(c *config.Config, s string) error {
		c.SummaryKey = s
		return nil
	},
	"mark_shown":     boolSetter(func(c *config.Config, v bool) { c.MarkShown = v }),
	"strip_markdown": boolSetter(func(c *config.Config, v bool) { c.StripMarkdown = v }),
	"extensions": func(c *config.Config, s string) error {
		c.Extensions = nil
		for _, ext := range strings.Split(s, ",") {
			if ext = strings.TrimSpace(ext); ext != "" {
				c.Extensions = append(c.Extensions, ext)
			}
		}
		return nil
	},
	"log_file": func(c *config.Config, s string) error {
		c.LogFile = s
		return nil
	},
}

func intSetter(set func(*config.Config, int)) func(*config.Config, string) error {
	return func(c *config.Config, s string) error {
		v, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		set(c, v)
		return nil
	}
}

func boolSetter(set func(*config.Config, bool)) func(*config.Config, string) error {
	return func(c *config.Config, s string) error {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		set(c, v)
		return nil
	}
}

func settingNames() []string {
	names := make([]string, 0, len(settable))
	for k := range settable {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	set, ok := settable[args[0]]
	if !ok {
		return fmt.Errorf("unknown setting %q; one of: %s", args[0], strings.Join(settingNames(), ", "))
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := set(cfg, args[1]); err != nil {
		return fmt.Errorf("invalid value for %s: %w", args[0], err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	color.New(color.FgHiGreen).Printf("%s set to %s\n", args[0], args[1])
	return nil
}

func runConfigPrompt(cmd *cobra.Command, args []string) error {
	successColor := color.New(color.FgHiGreen)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch {
	case configPromptReset:
		cfg.PromptTemplate = ""
	case len(args) == 1:
		data, err := os.ReadFile(expandHome(args[0]))
		if err != nil {
			return fmt.Errorf("failed to read template: %w", err)
		}
		cfg.PromptTemplate = string(data)
	default:
		tmpl := cfg.PromptTemplate
		if tmpl == "" {
			tmpl = prompts.DefaultSummaryTemplate()
		}
		fmt.Println(tmpl)
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	if configPromptReset {
		successColor.Println("Prompt template reset to the built-in default")
	} else {
		successColor.Printf("Prompt template loaded from %s\n", args[0])
	}
	return nil
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
