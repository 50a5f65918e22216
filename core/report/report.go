// Package report renders breakages as text, JSON or YAML and decides whether
// they should fail a run.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"

	"github.com/emenda-labs/apicompat/core/breakage"
)

// ErrBreakingChanges is returned by Check when breakages reach the failure
// threshold.
var ErrBreakingChanges = errors.New("breaking changes found")

var severities = []breakage.Severity{
	breakage.SeverityVeryHigh,
	breakage.SeverityHigh,
	breakage.SeverityMedium,
	breakage.SeverityLow,
	breakage.SeverityVeryLow,
}

// Entry is the serialized form of a breakage.
type Entry struct {
	Kind       string            `json:"kind" yaml:"kind"`
	ObjectPath string            `json:"object_path" yaml:"object_path"`
	Location   string            `json:"location,omitempty" yaml:"location,omitempty"`
	Severity   breakage.Severity `json:"severity" yaml:"severity"`
	OldValue   any               `json:"old_value" yaml:"old_value"`
	NewValue   any               `json:"new_value" yaml:"new_value"`
	Details    string            `json:"details,omitempty" yaml:"details,omitempty"`
}

// Summary counts breakages per severity.
type Summary struct {
	Total      int            `json:"total" yaml:"total"`
	BySeverity map[string]int `json:"by_severity" yaml:"by_severity"`
}

// Document is the top-level JSON and YAML output.
type Document struct {
	Breakages []Entry `json:"breakages" yaml:"breakages"`
	Summary   Summary `json:"summary" yaml:"summary"`
}

// NewEntry converts a breakage for serialization.
func NewEntry(b breakage.Breakage) Entry {
	d := b.AsDict(false)
	e := Entry{
		Kind:       d["kind"].(string),
		ObjectPath: d["object_path"].(string),
		Severity:   b.Severity(),
		OldValue:   d["old_value"],
		NewValue:   d["new_value"],
		Details:    b.Details(),
	}
	if obj := b.Object(); obj != nil && obj.Filepath != "" {
		e.Location = obj.Location()
	}
	return e
}

// Summarize counts bs per severity.
func Summarize(bs []breakage.Breakage) Summary {
	s := Summary{Total: len(bs), BySeverity: make(map[string]int)}
	for _, b := range bs {
		s.BySeverity[b.Severity().String()]++
	}
	return s
}

// NewDocument builds the serialized report.
func NewDocument(bs []breakage.Breakage) Document {
	entries := make([]Entry, len(bs))
	for i, b := range bs {
		entries[i] = NewEntry(b)
	}
	return Document{Breakages: entries, Summary: Summarize(bs)}
}

// Options controls rendering.
type Options struct {
	Format string
	// Color enables ANSI colors in text output.
	Color bool
}

// Write renders bs to w in the requested format.
func Write(w io.Writer, bs []breakage.Breakage, opts Options) error {
	switch opts.Format {
	case "", "text":
		return writeText(w, bs, opts.Color)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(NewDocument(bs)); err != nil {
			return fmt.Errorf("encoding JSON report: %w", err)
		}
		return nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(bs)); err != nil {
			return fmt.Errorf("encoding YAML report: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format %q", opts.Format)
	}
}

// textStyles colors the headline of each breakage by severity. Styles are
// applied line by line so that multi-line blocks are not padded.
type textStyles struct {
	severity map[breakage.Severity]lipgloss.Style
	detail   lipgloss.Style
	summary  lipgloss.Style
}

func newTextStyles(w io.Writer, color bool) textStyles {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return textStyles{
		severity: map[breakage.Severity]lipgloss.Style{
			breakage.SeverityVeryHigh: r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
			breakage.SeverityHigh:     r.NewStyle().Foreground(lipgloss.Color("1")),
			breakage.SeverityMedium:   r.NewStyle().Foreground(lipgloss.Color("3")),
			breakage.SeverityLow:      r.NewStyle().Foreground(lipgloss.Color("6")),
			breakage.SeverityVeryLow:  r.NewStyle().Foreground(lipgloss.Color("8")),
		},
		detail:  r.NewStyle().Faint(true),
		summary: r.NewStyle().Bold(true),
	}
}

func writeText(w io.Writer, bs []breakage.Breakage, color bool) error {
	styles := newTextStyles(w, color)

	var sb strings.Builder
	for _, b := range bs {
		headline, rest, _ := strings.Cut(b.Explain(), "\n")
		sb.WriteString(styles.severity[b.Severity()].Render(headline))
		sb.WriteString("\n")
		for line := range strings.SplitSeq(rest, "\n") {
			if line != "" {
				sb.WriteString(styles.detail.Render(line))
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString(styles.summary.Render(SummaryLine(Summarize(bs))))
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// SummaryLine renders s as "Found 3 breaking changes: 1 very-high, 2 medium".
func SummaryLine(s Summary) string {
	if s.Total == 0 {
		return "No breaking changes found."
	}
	noun := "changes"
	if s.Total == 1 {
		noun = "change"
	}
	var parts []string
	for _, sev := range severities {
		if n := s.BySeverity[sev.String()]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, sev))
		}
	}
	return fmt.Sprintf("Found %d breaking %s: %s", s.Total, noun, strings.Join(parts, ", "))
}

// Qualifies reports whether b reaches threshold.
func Qualifies(b breakage.Breakage, threshold breakage.Severity) bool {
	return b.Severity() >= threshold
}

// Check returns ErrBreakingChanges when any breakage reaches threshold.
func Check(bs []breakage.Breakage, threshold breakage.Severity) error {
	n := 0
	for _, b := range bs {
		if Qualifies(b, threshold) {
			n++
		}
	}
	if n > 0 {
		return fmt.Errorf("%d at or above %s: %w", n, threshold, ErrBreakingChanges)
	}
	return nil
}
