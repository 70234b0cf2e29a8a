package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/phobologic/jrewrite/internal/model"
)

func TestDiff(t *testing.T) {
	t.Parallel()
	before := []byte("import java.util.Locale;\n\nclass A {\n    Locale l = new Locale(\"en\");\n}\n")
	after := []byte("import java.util.Locale;\n\nclass A {\n    Locale l = Locale.of(\"en\");\n}\n")

	got, err := Diff("src/A.java", before, after)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"--- a/src/A.java",
		"+++ b/src/A.java",
		"-    Locale l = new Locale(\"en\");",
		"+    Locale l = Locale.of(\"en\");",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("diff lacks %q:\n%s", want, got)
		}
	}

	same, err := Diff("src/A.java", before, before)
	if err != nil || same != "" {
		t.Errorf("identical input diff = %q, %v", same, err)
	}
}

func TestColorizeKeepsText(t *testing.T) {
	t.Parallel()
	diff := "--- a/A.java\n+++ b/A.java\n@@ -1 +1 @@\n-old\n+new\n context\n"
	got := Colorize(diff)
	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		if !strings.Contains(got, line) {
			t.Errorf("colorized diff lost %q", line)
		}
	}
	if strings.Count(got, "\n") != strings.Count(diff, "\n") {
		t.Error("line count changed")
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()
	s := &model.Summary{
		Rules: []model.RuleInfo{{Name: "UseLocaleOf"}},
		Files: []model.FileResult{
			{Path: "A.java", Status: model.Changed, Applied: map[string]int{"UseLocaleOf": 2}},
			{Path: "B.java", Status: model.Unchanged},
			{Path: "C.java", Status: model.Skipped, Reason: "syntax error"},
			{Path: "D.java", Status: model.Failed, Reason: "permission denied"},
		},
	}
	var buf bytes.Buffer
	if err := Summary(&buf, s, false); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	tests := []struct {
		want    string
		present bool
	}{
		{"A.java", true},
		{"2 change(s)", true},
		{"B.java", false},
		{"syntax error", true},
		{"permission denied", true},
		{"1 changed, 1 unchanged, 0 cached, 1 skipped, 1 failed", true},
	}
	for _, tt := range tests {
		if strings.Contains(out, tt.want) != tt.present {
			t.Errorf("summary contains %q = %v, want %v:\n%s", tt.want, !tt.present, tt.present, out)
		}
	}
}

func TestRules(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := Rules(&buf, []model.RuleInfo{
		{Name: "UseLocaleOf", DisplayName: "Prefer Locale.of", Pattern: "java.util.Locale <constructor>(..)", Gate: "javaVersion>=19", Effort: "5m0s"},
		{Name: "Other", DisplayName: "Other", Pattern: "a.B c()", Gate: "always"},
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"UseLocaleOf\n  Prefer Locale.of\n", "pattern: java.util.Locale <constructor>(..)", "gate:    always", "effort:  5m0s"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Other\n  Other") {
		t.Error("display name equal to name was repeated")
	}
}
