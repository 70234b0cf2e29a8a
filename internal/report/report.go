// Package report renders run results for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/phobologic/jrewrite/internal/model"
)

// Diff returns a unified diff of one file, or "" when before equals after.
func Diff(path string, before, after []byte) (string, error) {
	if string(before) == string(after) {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
}

// Styles used when color output is on.
var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
)

// Colorize styles a unified diff line by line.
func Colorize(diff string) string {
	lines := strings.SplitAfter(diff, "\n")
	var b strings.Builder
	for _, line := range lines {
		body := strings.TrimSuffix(line, "\n")
		nl := line[len(body):]
		switch {
		case strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "---"):
			body = headerStyle.Render(body)
		case strings.HasPrefix(body, "@@"):
			body = hunkStyle.Render(body)
		case strings.HasPrefix(body, "+"):
			body = addedStyle.Render(body)
		case strings.HasPrefix(body, "-"):
			body = removedStyle.Render(body)
		}
		b.WriteString(body + nl)
	}
	return b.String()
}

// Summary writes one line per file that did not stay unchanged, then
// per-rule totals.
func Summary(w io.Writer, s *model.Summary, color bool) error {
	paint := func(st lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return st.Render(text)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i := range s.Files {
		f := &s.Files[i]
		switch f.Status {
		case model.Changed:
			fmt.Fprintf(tw, "%s\t%s\t%d change(s)\n", paint(addedStyle, "changed"), f.Path, f.Changes())
		case model.Skipped:
			fmt.Fprintf(tw, "%s\t%s\t%s\n", paint(mutedStyle, "skipped"), f.Path, f.Reason)
		case model.Failed:
			fmt.Fprintf(tw, "%s\t%s\t%s\n", paint(removedStyle, "failed"), f.Path, f.Reason)
		}
	}
	for _, rc := range s.Applied() {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", paint(headerStyle, "rule"), rc.Rule, rc.Count)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d changed, %d unchanged, %d cached, %d skipped, %d failed\n",
		s.Count(model.Changed), s.Count(model.Unchanged), s.Count(model.Cached),
		s.Count(model.Skipped), s.Count(model.Failed))
	return err
}

// Rules writes the rule listing of the rules command.
func Rules(w io.Writer, rules []model.RuleInfo, color bool) error {
	for i, r := range rules {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		name := r.Name
		if color {
			name = headerStyle.Render(name)
		}
		fmt.Fprintf(w, "%s\n", name)
		if r.DisplayName != "" && r.DisplayName != r.Name {
			fmt.Fprintf(w, "  %s\n", r.DisplayName)
		}
		if r.Description != "" {
			fmt.Fprintf(w, "  %s\n", r.Description)
		}
		fmt.Fprintf(w, "  pattern: %s\n", r.Pattern)
		fmt.Fprintf(w, "  gate:    %s\n", r.Gate)
		if _, err := fmt.Fprintf(w, "  effort:  %s\n", r.Effort); err != nil {
			return err
		}
	}
	return nil
}
