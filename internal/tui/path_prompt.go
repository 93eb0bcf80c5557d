package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrPromptCanceled is returned when the user leaves the path prompt.
var ErrPromptCanceled = errors.New("prompt canceled")

// pathPrompt asks for the file or folder to summarize. Tab completes
// directory names and the line under the input describes the current target.
type pathPrompt struct {
	heading string
	hint    string
	field   textinput.Model
	status  string
	problem string
	chosen  string
	quit    bool
}

func newPathPrompt(heading, hint, start string) pathPrompt {
	field := textinput.New()
	field.Prompt = "› "
	field.Placeholder = "~/notes"
	field.CharLimit = 1024
	field.Width = 64
	field.SetValue(start)
	field.CursorEnd()
	field.Focus()

	p := pathPrompt{heading: heading, hint: hint, field: field}
	p.status = describePath(start)
	return p
}

func (p pathPrompt) Init() tea.Cmd {
	return textinput.Blink
}

func (p pathPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			p.quit = true
			return p, tea.Quit
		case tea.KeyTab:
			p.field.SetValue(completeDir(p.field.Value()))
			p.field.CursorEnd()
			p.status, p.problem = describePath(p.field.Value()), ""
			return p, nil
		case tea.KeyEnter:
			value := strings.TrimSpace(p.field.Value())
			if value == "" {
				p.problem = "Enter a file or folder."
				return p, nil
			}
			if err := checkPath(value); err != nil {
				p.problem = err.Error()
				return p, nil
			}
			p.chosen = value
			return p, tea.Quit
		}
	}

	before := p.field.Value()
	var cmd tea.Cmd
	p.field, cmd = p.field.Update(msg)
	if p.field.Value() != before {
		p.status, p.problem = describePath(p.field.Value()), ""
	}
	return p, cmd
}

func (p pathPrompt) View() string {
	if p.quit || p.chosen != "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n" + titleStyle.Render(p.heading) + "\n")
	b.WriteString(inputStyle.Render(p.field.View()) + "\n")
	switch {
	case p.problem != "":
		b.WriteString(errorStyle.Render("  "+p.problem) + "\n")
	case p.status != "":
		b.WriteString(dimStyle.Render("  "+p.status) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render(p.hint+"  tab: complete  esc: cancel") + "\n")
	return b.String()
}

func expandTilde(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[1:])
		}
	}
	return p
}

func checkPath(p string) error {
	if _, err := os.Stat(expandTilde(p)); err != nil {
		return fmt.Errorf("%s does not exist", p)
	}
	return nil
}

// describePath summarizes what enter would select.
func describePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	info, err := os.Stat(expandTilde(p))
	switch {
	case err != nil:
		return "not found"
	case info.IsDir():
		return "folder"
	default:
		return "single file"
	}
}

// completeDir extends the last path element to the longest prefix shared by
// the matching subdirectories. A unique match gets a trailing separator.
func completeDir(input string) string {
	dir, partial := filepath.Split(input)
	entries, err := os.ReadDir(expandTilde(dirOrDot(dir)))
	if err != nil {
		return input
	}
	var matches []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), partial) && !strings.HasPrefix(e.Name(), ".") {
			matches = append(matches, e.Name())
		}
	}
	switch len(matches) {
	case 0:
		return input
	case 1:
		return dir + matches[0] + string(filepath.Separator)
	}
	sort.Strings(matches)
	return dir + commonPrefix(matches[0], matches[len(matches)-1])
}

func dirOrDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

func commonPrefix(a, b string) string {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return a[:n]
}

// RunPathPrompt asks for a file or folder and returns it once it exists.
func RunPathPrompt(heading, hint, start string) (string, error) {
	final, err := tea.NewProgram(newPathPrompt(heading, hint, start)).Run()
	if err != nil {
		return "", err
	}
	p := final.(pathPrompt)
	if p.quit {
		return "", ErrPromptCanceled
	}
	return p.chosen, nil
}
