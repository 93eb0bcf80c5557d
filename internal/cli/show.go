package cli

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ishaan812/mdsum/internal/config"
)

var (
	showKey         string
	showSummaryOnly bool
	showRaw         bool
)

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print a file's summary and rendered body",
	Long: `Print the summary stored in a Markdown file's frontmatter followed by the
body rendered for the terminal.

Examples:
  mdsum show post.md
  mdsum show post.md --summary-only
  mdsum show post.md --key description`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVar(&showKey, "key", "", "Frontmatter key holding the summary (default from config)")
	showCmd.Flags().BoolVar(&showSummaryOnly, "summary-only", false, "Print only the summary")
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print the body without terminal rendering")
}

// parseShowFile reads the frontmatter map and body of a Markdown file.
func parseShowFile(data []byte) (map[string]any, []byte, error) {
	meta := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return nil, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return meta, body, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	titleColor := color.New(color.FgHiCyan, color.Bold)
	dimColor := color.New(color.FgHiBlack)
	warnColor := color.New(color.FgHiYellow)
	infoColor := color.New(color.FgHiWhite)

	key := showKey
	if key == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		key = cfg.SummaryKey
	}

	data, err := os.ReadFile(expandHome(args[0]))
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	meta, body, err := parseShowFile(data)
	if err != nil {
		return err
	}

	fmt.Println()
	titleColor.Printf("  %s\n", args[0])
	if others := otherKeys(meta, key); len(others) > 0 {
		dimColor.Printf("  frontmatter: %s\n", strings.Join(others, ", "))
	}
	fmt.Println()

	summary, ok := meta[key].(string)
	if !ok || strings.TrimSpace(summary) == "" {
		warnColor.Printf("  No summary under %q. Run 'mdsum run %s' to create one.\n", key, args[0])
	} else {
		infoColor.Println(indent(summary, "  "))
	}
	fmt.Println()

	if showSummaryOnly || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if showRaw || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println(string(body))
		return nil
	}

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		width = min(w-4, 120)
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	var rendered string
	if err == nil {
		rendered, err = renderer.Render(string(body))
	}
	if err != nil {
		rendered = string(body)
	}
	fmt.Print(rendered)
	return nil
}

func otherKeys(meta map[string]any, skip string) []string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		if k != skip {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
