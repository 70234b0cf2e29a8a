package toon

import (
	"strings"
	"testing"

	"github.com/phobologic/jrewrite/internal/model"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"version", "21.0.2", "21.0.2"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"paren gate", "and(javaVersion>=19, uses(x))", `"and(javaVersion>=19, uses(x))"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "src/main/java/A.java", "src/main/java/A.java"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	s := &model.Summary{
		Root: "shop",
		Rules: []model.RuleInfo{
			{Name: "UseLocaleOf", Gate: "javaVersion>=19"},
		},
		Files: []model.FileResult{
			{Path: "src/A.java", Status: model.Changed, Version: "21.0.0", Applied: map[string]int{"UseLocaleOf": 2}},
			{Path: "src/B.java", Status: model.Unchanged, Version: "21.0.0"},
			{Path: "src/C.java", Status: model.Cached},
			{Path: "src/D.java", Status: model.Skipped, Reason: "syntax error"},
			{Path: "src/E.java", Status: model.Changed, Version: "19.0.0", Applied: map[string]int{"UseLocaleOf": 1}},
		},
	}

	got := Encode(s)
	want := []string{
		"root: shop",
		"rules[1]{name,gate,applied}:",
		"  UseLocaleOf,javaVersion>=19,3",
		"files[3]{path,status,changes,java,reason}:",
		`  src/A.java,changed,2,21.0.0,""`,
		"  src/D.java,skipped,0,\"\",syntax error",
		`  src/E.java,changed,1,19.0.0,""`,
		"totals{changed,unchanged,cached,skipped,failed}: 2,1,1,1,0",
	}
	lines := strings.Split(got, "\n")
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), got)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	got := Encode(&model.Summary{Root: "empty"})
	if !strings.Contains(got, "files[0]{path,status,changes,java,reason}:") {
		t.Errorf("expected empty files section, got:\n%s", got)
	}
	if !strings.Contains(got, "rules[0]{name,gate,applied}:") {
		t.Errorf("expected empty rules section, got:\n%s", got)
	}
}
