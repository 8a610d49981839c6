package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agentx-labs/groundwork/internal/discovery"
	"github.com/agentx-labs/groundwork/internal/facts"
	"github.com/agentx-labs/groundwork/internal/manifest"
	"github.com/agentx-labs/groundwork/internal/verify"
	"github.com/agentx-labs/groundwork/internal/workflow"
)

// Styles for status labels. lipgloss drops colour when stdout is not a terminal.
var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	})
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	})
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	})
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	})
	boldStyle = lipgloss.NewStyle().Bold(true)
)

func label(text string, style lipgloss.Style) string {
	return style.Render(fmt.Sprintf("%-9s", text))
}

func outcomeLabel(o workflow.Outcome) string {
	switch o {
	case workflow.OutcomeExecuted:
		return label("done", passStyle)
	case workflow.OutcomeFailed:
		return label("failed", failStyle)
	case workflow.OutcomeSkipped:
		return label("skipped", warnStyle)
	case workflow.OutcomeResumed:
		return label("resumed", mutedStyle)
	default:
		return label("pending", mutedStyle)
	}
}

func statusLabel(s manifest.Status) string {
	switch s {
	case manifest.StatusCompleted:
		return label("completed", passStyle)
	case manifest.StatusFailed:
		return label("failed", failStyle)
	case manifest.StatusSkipped:
		return label("skipped", warnStyle)
	default:
		return label("pending", mutedStyle)
	}
}

func levelLabel(l verify.Level) string {
	switch l {
	case verify.Passed:
		return label("passed", passStyle)
	case verify.Warning:
		return label("warning", warnStyle)
	default:
		return label("failed", failStyle)
	}
}

func printRunReport(w io.Writer, r *workflow.Report, v *verify.Report) {
	title := "Run " + r.RunID
	if r.Update {
		title += " (update)"
	}
	fmt.Fprintln(w, boldStyle.Render(title))
	if r.AlreadyFinished {
		fmt.Fprintln(w, mutedStyle.Render("  Already finished. Use --update to regenerate."))
	}
	for _, s := range r.Steps {
		line := fmt.Sprintf("  %s %-16s", outcomeLabel(s.Outcome), s.Name)
		if s.Outcome == workflow.OutcomeExecuted && s.Duration > 0 {
			line += mutedStyle.Render(s.Duration.Round(time.Millisecond).String())
		}
		if s.Error != "" {
			line += " " + s.Error
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
		for _, f := range s.Failed {
			fmt.Fprintf(w, "      %s %s: %s\n", label("untouched", warnStyle), f.Path, f.Error)
		}
	}
	if !r.AlreadyFinished {
		fmt.Fprintf(w, "Files: %d written, %d unchanged, %d regions preserved", r.Written, r.Unchanged, r.Preserved)
		if r.Failed > 0 {
			fmt.Fprintf(w, ", %d failed", r.Failed)
		}
		fmt.Fprintln(w)
	}
	if v != nil {
		printVerification(w, v)
	}
}

func printVerification(w io.Writer, v *verify.Report) {
	fmt.Fprintf(w, "Verification: %s %s\n", levelLabel(v.Outcome), mutedStyle.Render(fmt.Sprintf("(%d files checked)", v.Files)))
	for _, f := range v.Findings {
		fmt.Fprintf(w, "  %s %s\n", levelLabel(f.Level), f.String())
	}
}

func printStatus(w io.Writer, m *manifest.Manifest, v *verify.Report) {
	fmt.Fprintln(w, boldStyle.Render("Run "+m.RunID))
	if t, ok := m.Metadata["project.type"].(string); ok {
		fmt.Fprintf(w, "  project type: %s\n", t)
	}
	for _, s := range m.Steps {
		line := fmt.Sprintf("  %s %-16s", statusLabel(s.Status), s.Name)
		if n := len(s.Files); n > 0 {
			line += mutedStyle.Render(fmt.Sprintf("%d file(s)", n))
		}
		if s.Error != "" {
			line += " " + s.Error
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	printVerification(w, v)
}

func printFacts(w io.Writer, store *facts.Store, r *discovery.Report) {
	width := 0
	for _, k := range store.Keys() {
		width = max(width, len(k))
	}
	fmt.Fprintln(w, boldStyle.Render(fmt.Sprintf("Facts (%d)", store.Len())))
	for _, f := range store.Facts() {
		value, ok := f.Value.Render()
		if !ok {
			value = "(null)"
		}
		fmt.Fprintf(w, "  %-*s  %s  %s\n", width, f.Key, value,
			mutedStyle.Render(fmt.Sprintf("[%s, %s]", f.Confidence, f.Source)))
	}

	fmt.Fprintln(w, boldStyle.Render("Detectors"))
	for _, d := range r.Detectors {
		style := passStyle
		switch d.Status {
		case discovery.StatusFailed:
			style = failStyle
		case discovery.StatusSkipped, discovery.StatusInconclusive:
			style = mutedStyle
		}
		fmt.Fprintf(w, "  %s %-13s %s\n", label(string(d.Status), style), d.Name, mutedStyle.Render(fmt.Sprintf("wave %d", d.Wave)))
	}
	for _, f := range r.Findings {
		fmt.Fprintf(w, "  %s %s: %s\n", label(string(f.Kind), warnStyle), f.Detector, f.Message)
	}
}
