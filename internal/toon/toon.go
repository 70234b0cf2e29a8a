// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/jrewrite/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a run summary into TOON format.
func Encode(s *model.Summary) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(s.Root)))

	var ruleRows [][]string
	for _, rc := range s.Applied() {
		var gate string
		for _, r := range s.Rules {
			if r.Name == rc.Rule {
				gate = r.Gate
			}
		}
		ruleRows = append(ruleRows, []string{rc.Rule, gate, fmt.Sprintf("%d", rc.Count)})
	}
	parts = append(parts, formatTabular("rules", []string{"name", "gate", "applied"}, ruleRows))

	var fileRows [][]string
	for i := range s.Files {
		f := &s.Files[i]
		if f.Status == model.Unchanged || f.Status == model.Cached {
			continue
		}
		fileRows = append(fileRows, []string{
			f.Path,
			string(f.Status),
			fmt.Sprintf("%d", f.Changes()),
			f.Version,
			f.Reason,
		})
	}
	parts = append(parts, formatTabular("files", []string{"path", "status", "changes", "java", "reason"}, fileRows))

	parts = append(parts, fmt.Sprintf("totals{changed,unchanged,cached,skipped,failed}: %d,%d,%d,%d,%d",
		s.Count(model.Changed), s.Count(model.Unchanged), s.Count(model.Cached),
		s.Count(model.Skipped), s.Count(model.Failed)))

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
