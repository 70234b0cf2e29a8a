package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func newTestSession(t *testing.T, dir string) (*session, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	opts := &options{format: "text", color: "never"}
	cmd := newWatchCmd(opts)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	s, err := newSession(cmd, opts, []string{dir})
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	return s, &stdout
}

func TestWatchPass(t *testing.T) {
	t.Parallel()
	const excluded = "src/main/java/gen/Gen.java"
	tests := []struct {
		name    string
		changed []string
		want    string // empty when nothing is reported
	}{
		{"full pass", nil, "1 changed, 1 unchanged"},
		{"changed file", []string{greeterPath}, "1 changed, 0 unchanged"},
		{"excluded and missing ignored", []string{greeterPath, excluded, "src/main/java/Gone.java"}, "1 changed, 0 unchanged"},
		{"nothing relevant", []string{excluded, "src/main/java/Gone.java"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := createSampleRepo(t, "21")
			writeTestFile(t, dir, ".jrewrite.yaml", "exclude:\n  - \"**/gen/**\"\n")
			writeTestFile(t, dir, excluded, greeterSrc)
			writeTestFile(t, dir, "src/main/java/Other.java", "class Other {}\n")

			s, stdout := newTestSession(t, dir)
			if err := s.pass(context.Background(), tt.changed); err != nil {
				t.Fatalf("pass: %v", err)
			}
			out := stdout.String()
			if tt.want == "" {
				if out != "" {
					t.Errorf("pass reported:\n%s", out)
				}
				return
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("summary lacks %q:\n%s", tt.want, out)
			}
			if strings.Contains(out, "Gen.java") {
				t.Errorf("excluded file reported:\n%s", out)
			}
		})
	}
}

func TestWatchPassCancelled(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t, "21")
	s, stdout := newTestSession(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.pass(ctx, nil); err != nil {
		t.Fatalf("pass after cancel = %v, want nil", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("cancelled pass reported:\n%s", stdout.String())
	}
}
