package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"vetrun/internal/checks"
)

// Renderer turns a finished report into output. It is injected into the CLI
// and tests rather than writing to ambient process state.
type Renderer interface {
	Render(w io.Writer, report checks.Report) error
}

type JSONRenderer struct{}

func (JSONRenderer) Render(w io.Writer, report checks.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// TextRenderer renders the human-readable tabular summary, grouped by
// category in execution order. With Color off every style call degrades to
// plain text.
type TextRenderer struct {
	Color bool
}

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	skipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	verdictPass = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	verdictFail = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func (r TextRenderer) Render(w io.Writer, report checks.Report) error {
	fmt.Fprintf(w, "Project: %s\n", report.ProjectPath)
	fmt.Fprintf(w, "Mode: %s\n", report.Mode)
	if report.URL != "" {
		fmt.Fprintf(w, "URL: %s\n", report.URL)
	}
	fmt.Fprintf(w, "Generated: %s\n\n", report.GeneratedAt)

	category := ""
	for _, result := range report.Results {
		if result.Category != category {
			category = result.Category
			fmt.Fprintf(w, "%s\n", r.style(headerStyle, category))
		}
		fmt.Fprintf(w, "  %s %s (%dms)\n",
			r.outcomeLabel(result.Outcome), result.Name, result.DurationMS)
	}
	if report.Aborted {
		fmt.Fprintf(w, "\n%s\n", r.style(detailStyle, "run aborted on required check failure"))
	}

	printedDetailHeader := false
	for _, result := range report.Results {
		if !result.Outcome.Blocking() {
			continue
		}
		if !printedDetailHeader {
			fmt.Fprintf(w, "\n%s\n", r.style(headerStyle, "Failures"))
			printedDetailHeader = true
		}
		detail := strings.TrimSpace(result.Detail)
		if detail == "" {
			detail = "(no detail captured)"
		}
		fmt.Fprintf(w, "  %s: %s\n", result.Name, r.style(detailStyle, truncateLine(detail)))
	}

	fmt.Fprintf(w, "\nTotals: passed=%d failed=%d timed_out=%d errored=%d skipped=%d (%dms)\n",
		report.Passed, report.Failed, report.TimedOut, report.Errored, report.Skipped,
		report.TotalDurationMS)
	if report.OverallPassed() {
		fmt.Fprintf(w, "Verdict: %s\n", r.style(verdictPass, "PASS"))
	} else {
		fmt.Fprintf(w, "Verdict: %s\n", r.style(verdictFail, "FAIL"))
	}
	return nil
}

func (r TextRenderer) outcomeLabel(outcome checks.Outcome) string {
	label := "[" + strings.ToUpper(string(outcome)) + "]"
	switch outcome {
	case checks.OutcomePassed:
		return r.style(passStyle, label)
	case checks.OutcomeSkipped:
		return r.style(skipStyle, label)
	default:
		return r.style(failStyle, label)
	}
}

func (r TextRenderer) style(style lipgloss.Style, text string) string {
	if !r.Color {
		return text
	}
	return style.Render(text)
}

func truncateLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " / ")
	runes := []rune(s)
	if len(runes) <= 200 {
		return s
	}
	return string(runes[:200]) + "..."
}
