// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/signal-outreach/internal/pipeline"
	"github.com/jonathan/signal-outreach/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, inner), inner))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad right-pads by rune count; %-*s pads by bytes.
func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// PrintSignal outputs the signal half of a stored record.
func (p *Printer) PrintSignal(stored *types.StoredSignal) {
	if stored == nil {
		return
	}

	var sb strings.Builder
	sig := stored.Signal
	sb.WriteString(fmt.Sprintf("ID:        %s\n", sig.ID))
	sb.WriteString(fmt.Sprintf("Company:   %s\n", sig.Company))
	sb.WriteString(fmt.Sprintf("Type:      %s\n", sig.Type.Label()))
	sb.WriteString(fmt.Sprintf("Strength:  %s\n", sig.Strength))
	if sig.Date != "" {
		sb.WriteString(fmt.Sprintf("Date:      %s\n", sig.Date))
	}
	sb.WriteString(fmt.Sprintf("Status:    %s\n", stored.Status))
	sb.WriteString(fmt.Sprintf("Generated: %s\n", stored.GeneratedAt))
	if stored.HasLandingPage() {
		sb.WriteString(fmt.Sprintf("Landing:   %d bytes\n", len(stored.LandingPageHTML)))
	} else {
		sb.WriteString("Landing:   none\n")
	}
	if stored.Error != "" {
		sb.WriteString(fmt.Sprintf("\n⚠ %s\n", stored.Error))
	}
	if sig.Summary != "" {
		sb.WriteString("\n" + sig.Summary + "\n")
	}

	p.printBox("SIGNAL", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintOutreach outputs the generated outreach copy.
func (p *Printer) PrintOutreach(outreach *types.Outreach) {
	if outreach == nil || (outreach.Email.Subject == "" && outreach.Summary == "" && len(outreach.CallPoints) == 0) {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Subject:  %s\n", outreach.Email.Subject))
	if outreach.Summary != "" {
		sb.WriteString(fmt.Sprintf("Summary:  %s\n", outreach.Summary))
	}
	if outreach.Twitter != "" {
		sb.WriteString(fmt.Sprintf("Tweet:    %s (%d chars)\n", outreach.Twitter, utf8.RuneCountInString(outreach.Twitter)))
	}

	if len(outreach.CallPoints) > 0 {
		sb.WriteString("\nCall Points:\n")
		count := min(len(outreach.CallPoints), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", outreach.CallPoints[i]))
		}
		if len(outreach.CallPoints) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(outreach.CallPoints)-maxItemsToShow))
		}
	}

	p.printBox("OUTREACH", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStoredSignal outputs a full stored record.
func (p *Printer) PrintStoredSignal(stored *types.StoredSignal) {
	if stored == nil {
		return
	}
	p.PrintSignal(stored)
	p.PrintOutreach(&stored.Outreach)
}

// PrintSignalList outputs one line per stored record.
func (p *Printer) PrintSignalList(signals []types.StoredSignal) {
	if len(signals) == 0 {
		p.printBox("SIGNALS", "No signals stored")
		return
	}

	var sb strings.Builder
	for i, s := range signals {
		mark := "✓"
		if s.Status == types.StatusError {
			mark = "✗"
		}
		page := ""
		if s.HasLandingPage() {
			page = " [page]"
		}
		sb.WriteString(fmt.Sprintf("%s %s  %s (%s)%s", mark, s.Signal.ID, s.Signal.Company, s.Signal.Type, page))
		if i < len(signals)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox(fmt.Sprintf("SIGNALS (%d)", len(signals)), sb.String())
}

// PrintResult outputs the outcome of a pipeline run.
func (p *Printer) PrintResult(result pipeline.Result) {
	title := "✅ RUN SUCCEEDED"
	if !result.Success {
		title = "❌ RUN FAILED"
	}
	content := result.Message
	if result.SignalID != "" {
		content += "\nFirst signal: " + result.SignalID
	}
	p.printBox(title, content)
}

// PrintProgress outputs a single progress line.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(event pipeline.ProgressEvent) {
	if event.SignalID != "" {
		fmt.Fprintf(p.out, "[%s] %s: %s\n", event.Step, event.SignalID, event.Message)
		return
	}
	fmt.Fprintf(p.out, "[%s] %s\n", event.Step, event.Message)
}
