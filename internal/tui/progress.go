package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ishaan812/mdsum/internal/batch"
)

const maxRecent = 8

// ── Messages ───────────────────────────────────────────────────────────────

type jobEventMsg batch.Event

type runDoneMsg struct{}

// ── Model ──────────────────────────────────────────────────────────────────

type finishedLine struct {
	path    string
	ok      bool
	skipped bool
	detail  string
}

// ProgressModel renders a live view of a batch run.
type ProgressModel struct {
	title    string
	bar      progress.Model
	spin     spinner.Model
	progress batch.Progress
	inFlight map[string]time.Time
	recent   []finishedLine
	width    int

	stop     context.CancelFunc
	abort    context.CancelFunc
	stopping bool
	aborted  bool
	done     bool
}

// NewProgressModel creates a view for total jobs. stop is called on the first
// quit key and abort on the second.
func NewProgressModel(title string, total int, stop, abort context.CancelFunc) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = labelStyle

	return ProgressModel{
		title:    title,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		spin:     s,
		progress: batch.Progress{Total: total},
		inFlight: make(map[string]time.Time),
		width:    80,
		stop:     stop,
		abort:    abort,
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-20, 10), 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.stopping {
				m.aborted = true
				if m.abort != nil {
					m.abort()
				}
				return m, tea.Quit
			}
			m.stopping = true
			if m.stop != nil {
				m.stop()
			}
		}
		return m, nil

	case jobEventMsg:
		m.apply(batch.Event(msg))
		return m, nil

	case runDoneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *ProgressModel) apply(ev batch.Event) {
	m.progress = ev.Progress
	switch ev.Type {
	case batch.EventJobStarted:
		m.inFlight[ev.Job.RelPath] = ev.Job.StartedAt
	case batch.EventJobFinished:
		delete(m.inFlight, ev.Job.RelPath)
		line := finishedLine{
			path:    ev.Job.RelPath,
			ok:      ev.Job.Status == batch.StatusSucceeded,
			skipped: ev.Job.Skipped,
			detail:  ev.Job.Error,
		}
		if line.ok {
			line.detail = ev.Job.Summary
		}
		m.recent = append(m.recent, line)
		if len(m.recent) > maxRecent {
			m.recent = m.recent[len(m.recent)-maxRecent:]
		}
	}
}

func (m ProgressModel) percent() float64 {
	if m.progress.Total == 0 {
		return 1
	}
	return float64(m.progress.Completed) / float64(m.progress.Total)
}

func (m ProgressModel) View() string {
	if m.done || m.aborted {
		return ""
	}
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(m.percent()))
	b.WriteString("  ")
	b.WriteString(normalStyle.Render(fmt.Sprintf("%d/%d", m.progress.Completed, m.progress.Total)))
	b.WriteString("\n\n")

	b.WriteString(successStyle.Render(fmt.Sprintf("  ✓ %d succeeded", m.progress.Succeeded)))
	b.WriteString("   ")
	if m.progress.Failed > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf("✗ %d failed", m.progress.Failed)))
	} else {
		b.WriteString(dimStyle.Render("✗ 0 failed"))
	}
	b.WriteString("\n\n")

	if len(m.inFlight) > 0 {
		paths := make([]string, 0, len(m.inFlight))
		for p := range m.inFlight {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			elapsed := time.Since(m.inFlight[p]).Round(time.Second)
			b.WriteString(fmt.Sprintf("  %s %s %s\n", m.spin.View(), normalStyle.Render(p), dimStyle.Render(elapsed.String())))
		}
		b.WriteString("\n")
	}

	if len(m.recent) > 0 {
		var lines []string
		for _, l := range m.recent {
			lines = append(lines, m.renderLine(l))
		}
		b.WriteString(panelStyle.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}

	if m.stopping {
		b.WriteString(warnStyle.Render("\n  Stopping after in-flight requests... press ctrl+c again to abort them"))
	} else {
		b.WriteString(dimStyle.Render("\n  q/ctrl+c: stop"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m ProgressModel) renderLine(l finishedLine) string {
	width := m.width - 12
	if width < 20 {
		width = 20
	}
	name := filepath.ToSlash(l.path)
	switch {
	case !l.ok:
		return errorStyle.Render("✗ ") + normalStyle.Render(name) + " " + dimStyle.Render(truncate(l.detail, width-len(name)))
	case l.skipped:
		return dimStyle.Render("= "+name+" (unchanged)")
	default:
		return successStyle.Render("✓ ") + normalStyle.Render(name) + " " + dimStyle.Render(truncate(l.detail, width-len(name)))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n < 4 {
		n = 4
	}
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// ── Program wrapper ────────────────────────────────────────────────────────

// ProgressView runs a ProgressModel on its own goroutine and feeds it batch
// events.
type ProgressView struct {
	program *tea.Program
	done    chan struct{}
	err     error
	aborted bool
}

// StartProgressView starts the view. Use Handle as the runner's OnEvent.
func StartProgressView(title string, total int, stop, abort context.CancelFunc, opts ...tea.ProgramOption) *ProgressView {
	v := &ProgressView{
		program: tea.NewProgram(NewProgressModel(title, total, stop, abort), opts...),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(v.done)
		final, err := v.program.Run()
		v.err = err
		if pm, ok := final.(ProgressModel); ok {
			v.aborted = pm.aborted
		}
	}()
	return v
}

// Handle forwards a batch event to the view.
func (v *ProgressView) Handle(ev batch.Event) {
	v.program.Send(jobEventMsg(ev))
}

// Finish tells the view the run is over and waits for it to exit. It
// reports whether the user quit before the run finished.
func (v *ProgressView) Finish() (aborted bool, err error) {
	v.program.Send(runDoneMsg{})
	<-v.done
	return v.aborted, v.err
}
