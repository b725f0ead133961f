// Package render turns one package's changelog lookup outcome into the text
// block the scheduler flushes, plus the run summary.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"relnotes/pkg/resolve"
	"relnotes/pkg/upstream/brew"
	"relnotes/pkg/upstream/github"
)

// Outcome is everything known about one package after its unit of work ran.
type Outcome struct {
	Package    brew.Package
	Source     resolve.Source
	Notes      *github.Notes // nil when no notes were found
	ReleasedAt time.Time     // zero when unknown
	Err        error
}

// State classifies an outcome for the summary line.
type State int

const (
	StateUpToDate State = iota // no new version available
	StateNotes                 // new version with release notes
	StateNoNotes               // new version, nothing to show
	StateError                 // processing error
)

// Classify maps an outcome to its summary state.
func Classify(o Outcome) State {
	switch {
	case o.Err != nil:
		return StateError
	case !o.Package.HasUpgrade():
		return StateUpToDate
	case o.Notes != nil && o.Notes.Body != "":
		return StateNotes
	default:
		return StateNoNotes
	}
}

// Tally counts outcomes per state across a run.
type Tally struct {
	UpToDate int
	Notes    int
	NoNotes  int
	Failed   int
}

// Add records one outcome.
func (t *Tally) Add(o Outcome) {
	switch Classify(o) {
	case StateUpToDate:
		t.UpToDate++
	case StateNotes:
		t.Notes++
	case StateNoNotes:
		t.NoNotes++
	case StateError:
		t.Failed++
	}
}

// Total returns the number of recorded outcomes.
func (t Tally) Total() int {
	return t.UpToDate + t.Notes + t.NoNotes + t.Failed
}

var (
	colorCyan  = lipgloss.Color("36")
	colorBlue  = lipgloss.Color("75")
	colorRed   = lipgloss.Color("167")
	colorDim   = lipgloss.Color("240")
	colorWhite = lipgloss.Color("255")

	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleVersion = lipgloss.NewStyle().Foreground(colorWhite)
	styleLink    = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
)

// maxBodyLines bounds how much of a notes body one package contributes.
const maxBodyLines = 40

// Renderer produces the per-package text blocks. With styling disabled the
// output is plain text suitable for pipes and files.
type Renderer struct {
	styled bool
}

// New creates a Renderer. Pass styled=false when stdout is not a terminal.
func New(styled bool) *Renderer {
	return &Renderer{styled: styled}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

// Render produces the output block for one outcome. Up-to-date packages
// render nothing so they contribute no separator either.
func (r *Renderer) Render(o Outcome) string {
	switch Classify(o) {
	case StateUpToDate:
		return ""
	case StateError:
		return fmt.Sprintf("%s %s\n",
			r.style(styleError, "failed to process"),
			o.Package.Name)
	}

	var b strings.Builder
	b.WriteString(r.style(styleHeader, o.Package.Name))
	b.WriteString("  ")
	b.WriteString(r.style(styleVersion, fmt.Sprintf("%s → %s", o.Package.InstalledVersion, o.Package.CurrentVersion)))
	if !o.ReleasedAt.IsZero() {
		b.WriteString("  ")
		b.WriteString(r.style(styleDim, "released "+o.ReleasedAt.Format("2006-01-02")))
	}
	b.WriteString("\n")

	if o.Notes != nil {
		r.renderNotes(&b, o.Notes)
		return b.String()
	}

	// No notes found anywhere: point at whatever source we do know.
	switch o.Source.Kind {
	case resolve.KindGitHub:
		b.WriteString(r.style(styleDim, "no release notes found"))
		b.WriteString("\n")
		b.WriteString(r.style(styleLink, "https://github.com/"+o.Source.RepoSlug()+"/releases"))
		b.WriteString("\n")
	case resolve.KindGeneric:
		b.WriteString(r.style(styleDim, "learn more at"))
		b.WriteString(" ")
		b.WriteString(r.style(styleLink, "https://"+o.Source.Domain))
		b.WriteString("\n")
	default:
		b.WriteString(r.style(styleDim, "no release notes found"))
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Renderer) renderNotes(b *strings.Builder, n *github.Notes) {
	if n.Title != "" && n.Title != n.Tag {
		b.WriteString(r.style(styleVersion, n.Title))
		b.WriteString("\n")
	}
	if n.Body != "" {
		body := strings.TrimSpace(n.Body)
		lines := strings.Split(body, "\n")
		if len(lines) > maxBodyLines {
			lines = append(lines[:maxBodyLines], r.style(styleDim, "…"))
		}
		for _, line := range lines {
			b.WriteString("  ")
			b.WriteString(strings.TrimRight(line, " \t\r"))
			b.WriteString("\n")
		}
	}
	if n.URL != "" {
		b.WriteString(r.style(styleLink, n.URL))
		b.WriteString("\n")
	}
}

// Summary renders the end-of-run line distinguishing the four outcomes.
func (r *Renderer) Summary(t Tally) string {
	if t.Total() == 0 {
		return "everything up to date\n"
	}

	parts := make([]string, 0, 4)
	if t.Notes > 0 {
		parts = append(parts, fmt.Sprintf("%d with release notes", t.Notes))
	}
	if t.NoNotes > 0 {
		parts = append(parts, fmt.Sprintf("%d with a new version but no notes found", t.NoNotes))
	}
	if t.UpToDate > 0 {
		parts = append(parts, fmt.Sprintf("%d with no new version", t.UpToDate))
	}
	if t.Failed > 0 {
		parts = append(parts, r.style(styleError, fmt.Sprintf("%d failed", t.Failed)))
	}
	return fmt.Sprintf("%d packages: %s\n", t.Total(), strings.Join(parts, ", "))
}
