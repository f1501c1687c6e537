// Package render prints classified logs, analytics and rules for a terminal.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"opslens/src/classify"
	"opslens/src/contracts"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 120

const (
	timeWidth     = 20
	sourceWidth   = 12
	severityWidth = 8
	categoryWidth = 11
	minMsgWidth   = 20
)

// Renderer writes styled output to one writer. Colors are only emitted when
// the writer is a terminal that supports them.
type Renderer struct {
	w      io.Writer
	width  int
	styles styles
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithWidth sets the line width.
func WithWidth(width int) Option {
	return func(r *Renderer) {
		if width > 0 {
			r.width = width
		}
	}
}

// WithPalette replaces the default colors.
func WithPalette(p Palette) Option {
	return func(r *Renderer) { r.styles = newStyles(r.styles.r, p) }
}

// New creates a Renderer writing to w.
func New(w io.Writer, opts ...Option) *Renderer {
	lr := lipgloss.NewRenderer(w)
	r := &Renderer{
		w:      w,
		width:  DefaultWidth,
		styles: newStyles(lr, DefaultPalette()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Logs prints one row per record: time, source, severity, category and the
// message truncated to the remaining width.
func (r *Renderer) Logs(logs []contracts.ClassifiedLog) {
	if len(logs) == 0 {
		fmt.Fprintln(r.w, r.styles.muted.Render("No logs."))
		return
	}

	msgWidth := r.width - timeWidth - sourceWidth - severityWidth - categoryWidth - 4
	if msgWidth < minMsgWidth {
		msgWidth = minMsgWidth
	}

	header := strings.Join([]string{
		TruncateAndPad("TIME", timeWidth, false),
		TruncateAndPad("SOURCE", sourceWidth, false),
		TruncateAndPad("SEVERITY", severityWidth, false),
		TruncateAndPad("CATEGORY", categoryWidth, false),
		"MESSAGE",
	}, " ")
	fmt.Fprintln(r.w, r.styles.header.Render(header))

	for _, log := range logs {
		row := strings.Join([]string{
			r.styles.muted.Render(TruncateAndPad(log.Timestamp.UTC().Format("2006-01-02 15:04:05"), timeWidth, false)),
			TruncateAndPad(string(log.Source), sourceWidth, true),
			r.styles.severity(log.Severity).Render(TruncateAndPad(string(log.Severity), severityWidth, false)),
			r.styles.category(log.Category).Render(TruncateAndPad(string(log.Category), categoryWidth, true)),
			Truncate(log.Message, msgWidth, true),
		}, " ")
		fmt.Fprintln(r.w, row)
	}
}

// Log prints every field of one record, wrapping the message and fix.
func (r *Renderer) Log(log contracts.ClassifiedLog) {
	s := r.styles
	inner := r.width - 4

	lines := []string{
		s.title.Render(log.ID),
		fmt.Sprintf("%s %s  %s %s",
			s.header.Render("source"), log.Source,
			s.header.Render("time"), log.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00")),
		fmt.Sprintf("%s %s  %s %s",
			s.header.Render("severity"), s.severity(log.Severity).Render(string(log.Severity)),
			s.header.Render("category"), s.category(log.Category).Render(string(log.Category))),
	}
	if log.ErrorType != "" {
		lines = append(lines, fmt.Sprintf("%s %s", s.header.Render("error type"), log.ErrorType))
	}
	if len(log.Tags) > 0 {
		lines = append(lines, fmt.Sprintf("%s %s", s.header.Render("tags"), strings.Join(log.Tags, ", ")))
	}
	if len(log.Metadata) > 0 {
		keys := make([]string, 0, len(log.Metadata))
		for k := range log.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+"="+log.Metadata[k])
		}
		lines = append(lines, fmt.Sprintf("%s %s", s.header.Render("metadata"), strings.Join(pairs, " ")))
	}

	lines = append(lines, "")
	lines = append(lines, Wrap(log.Message, inner)...)
	if log.SuggestedFix != "" {
		lines = append(lines, "", s.header.Render("suggested fix"))
		lines = append(lines, Wrap(log.SuggestedFix, inner)...)
	}

	fmt.Fprintln(r.w, s.box.Render(strings.Join(lines, "\n")))
}

// Summary prints the analytics overview.
func (r *Renderer) Summary(sum contracts.Summary) {
	s := r.styles

	fmt.Fprintln(r.w, s.title.Render("Log analytics"))
	fmt.Fprintf(r.w, "%s %d   %s %s   %s %s\n",
		s.header.Render("total"), sum.TotalLogs,
		s.header.Render("errors"), s.severity(contracts.SeverityError).Render(fmt.Sprint(sum.ErrorCount)),
		s.header.Render("warnings"), s.severity(contracts.SeverityWarning).Render(fmt.Sprint(sum.WarningCount)))
	if sum.TotalLogs == 0 {
		return
	}
	fmt.Fprintf(r.w, "%s %s .. %s\n", s.header.Render("range"),
		sum.TimeRange.Start.UTC().Format("2006-01-02 15:04:05"),
		sum.TimeRange.End.UTC().Format("2006-01-02 15:04:05"))

	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, s.header.Render("By severity"))
	for _, sev := range contracts.Severities() {
		if n := sum.SeveritySummary[sev]; n > 0 {
			fmt.Fprintf(r.w, "  %s %d\n", s.severity(sev).Render(TruncateAndPad(string(sev), categoryWidth, false)), n)
		}
	}

	fmt.Fprintln(r.w, s.header.Render("By category"))
	for _, cat := range contracts.Categories() {
		if n := sum.CategorySummary[cat]; n > 0 {
			fmt.Fprintf(r.w, "  %s %d\n", s.category(cat).Render(TruncateAndPad(string(cat), categoryWidth, false)), n)
		}
	}

	fmt.Fprintln(r.w, s.header.Render("By source"))
	for _, src := range contracts.Sources() {
		if n := sum.SourceSummary[src]; n > 0 {
			fmt.Fprintf(r.w, "  %s %d\n", TruncateAndPad(string(src), categoryWidth, false), n)
		}
	}

	if len(sum.TopErrorTypes) > 0 {
		fmt.Fprintln(r.w, s.header.Render("Top error types"))
		for _, et := range sum.TopErrorTypes {
			fmt.Fprintf(r.w, "  %s %d\n", TruncateAndPad(et.Type, 30, true), et.Count)
		}
	}

	if len(sum.ErrorsByHour) > 0 {
		hours := make([]string, 0, len(sum.ErrorsByHour))
		for h := range sum.ErrorsByHour {
			hours = append(hours, h)
		}
		sort.Strings(hours)
		fmt.Fprintln(r.w, s.header.Render("Errors by hour"))
		for _, h := range hours {
			fmt.Fprintf(r.w, "  %s %d\n", h, sum.ErrorsByHour[h])
		}
	}

	if len(sum.RecentErrors) > 0 {
		fmt.Fprintln(r.w)
		fmt.Fprintln(r.w, s.header.Render("Recent errors"))
		r.Logs(sum.RecentErrors)
	}
}

// Rules prints the classification rules in evaluation order.
func (r *Renderer) Rules(rules []classify.Rule) {
	s := r.styles
	for i, rule := range rules {
		fmt.Fprintf(r.w, "%2d. %s  %s  %s\n", i+1,
			s.title.Render(TruncateAndPad(rule.Name, 24, true)),
			s.severity(rule.Severity).Render(TruncateAndPad(string(rule.Severity), severityWidth, false)),
			s.category(rule.Category).Render(string(rule.Category)))
		if rule.SuggestedFix != "" {
			fmt.Fprintf(r.w, "    %s\n", s.muted.Render(Truncate(rule.SuggestedFix, r.width-4, true)))
		}
	}
}

// Collected prints the outcome of a collection followed by its records.
func (r *Renderer) Collected(source contracts.Source, logs []contracts.ClassifiedLog) {
	errors := 0
	for _, log := range logs {
		if log.Severity.IsError() {
			errors++
		}
	}
	fmt.Fprintf(r.w, "%s %d logs from %s, %d errors\n",
		r.styles.title.Render("Collected"), len(logs), source, errors)
	r.Logs(logs)
}
