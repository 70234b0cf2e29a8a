// Package model defines the results of a jrewrite run.
package model

import "sort"

// Status is the outcome for one file.
type Status string

const (
	Changed   Status = "changed"
	Unchanged Status = "unchanged"
	Cached    Status = "cached"  // known unchanged from the cache, not parsed
	Skipped   Status = "skipped" // too large, generated, or not parseable
	Failed    Status = "failed"  // I/O or formatting error
)

// FileResult is the outcome of running the rules over one file.
type FileResult struct {
	Path    string
	Status  Status
	Version string         // effective Java version, "" if unknown
	Applied map[string]int // substitutions per rule
	Reason  string         // why the file was skipped or failed
	Before  []byte
	After   []byte
}

// Changes returns the total number of substitutions.
func (f *FileResult) Changes() int {
	n := 0
	for _, c := range f.Applied {
		n += c
	}
	return n
}

// RuleInfo describes an enabled rule.
type RuleInfo struct {
	Name        string
	DisplayName string
	Description string
	Effort      string
	Pattern     string
	Gate        string
}

// Summary is the complete result of a run, ready for reporting.
type Summary struct {
	Root  string
	Rules []RuleInfo
	Files []FileResult
}

// Count returns the number of files with status s.
func (s *Summary) Count(st Status) int {
	n := 0
	for i := range s.Files {
		if s.Files[i].Status == st {
			n++
		}
	}
	return n
}

// Applied returns the substitutions per rule across all files, in rule
// order.
func (s *Summary) Applied() []RuleCount {
	totals := make(map[string]int)
	for i := range s.Files {
		for name, n := range s.Files[i].Applied {
			totals[name] += n
		}
	}
	out := make([]RuleCount, 0, len(s.Rules))
	seen := make(map[string]bool)
	for _, r := range s.Rules {
		out = append(out, RuleCount{Rule: r.Name, Count: totals[r.Name]})
		seen[r.Name] = true
	}
	var extra []string
	for name := range totals {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		out = append(out, RuleCount{Rule: name, Count: totals[name]})
	}
	return out
}

// RuleCount is a per-rule total.
type RuleCount struct {
	Rule  string
	Count int
}
