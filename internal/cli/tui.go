package cli

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"relnotes/pkg/batch"
)

// TUI styles
var (
	tuiBarDone    = lipgloss.NewStyle().Foreground(colorCyan)
	tuiBarPending = lipgloss.NewStyle().Foreground(colorDim)
	tuiLabel      = lipgloss.NewStyle().Foreground(colorGray)
)

const tuiBarWidth = 30

// progressMsg carries one completed unit into the model.
type progressMsg batch.Progress

// finishMsg tells the model the run is over.
type finishMsg struct{}

// progressModel is the bubbletea model for the live batch progress bar.
// Content goes to stdout; the bar renders on stderr so piped output stays
// clean.
type progressModel struct {
	total   int
	done    int
	failed  int
	current string
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.done = msg.Done
		m.current = msg.Name
		if msg.Err != nil {
			m.failed++
		}
		return m, nil
	case finishMsg:
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.total == 0 {
		return ""
	}
	filled := m.done * tuiBarWidth / m.total
	bar := tuiBarDone.Render(strings.Repeat("█", filled)) +
		tuiBarPending.Render(strings.Repeat("░", tuiBarWidth-filled))

	line := fmt.Sprintf("%s %d/%d", bar, m.done, m.total)
	if m.failed > 0 {
		line += " " + StyleWarning.Render(fmt.Sprintf("(%d failed)", m.failed))
	}
	if m.current != "" && m.done < m.total {
		line += " " + tuiLabel.Render(m.current)
	}
	return line + "\n"
}

// progressView runs the bubbletea program alongside a batch run and feeds it
// progress events. start and finish bracket the run; update is safe to call
// from worker goroutines.
type progressView struct {
	program *tea.Program
	ready   chan struct{}
}

func newProgressView(total int) *progressView {
	return &progressView{
		program: tea.NewProgram(progressModel{total: total}, tea.WithOutput(os.Stderr)),
		ready:   make(chan struct{}),
	}
}

func (v *progressView) start() {
	go func() {
		defer close(v.ready)
		_, _ = v.program.Run()
	}()
}

func (v *progressView) update(p batch.Progress) {
	v.program.Send(progressMsg(p))
}

func (v *progressView) finish() {
	v.program.Send(finishMsg{})
	<-v.ready
}
