package recipe

import (
	"bufio"
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/tools/txtar"

	"github.com/phobologic/jrewrite/internal/classpath"
	"github.com/phobologic/jrewrite/internal/format"
	"github.com/phobologic/jrewrite/internal/parse"
	"github.com/phobologic/jrewrite/internal/template"
)

// Each archive's comment holds "key: value" lines:
//
//	version: 21        effective Java version, omitted when unknown
//	rules: UseLocaleOf built-in rules to run, space separated
//	warnings: 1        expected number of logged warnings
//
// The archive holds in.java and, when the rules change it, out.java. An
// optional stubs.yaml is merged into the default classpath.
func TestGolden(t *testing.T) {
	t.Parallel()
	files, err := filepath.Glob("testdata/*.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no test cases")
	}
	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			t.Parallel()
			ar, err := txtar.ParseFile(file)
			if err != nil {
				t.Fatal(err)
			}
			opts := comment(ar.Comment)
			archived := make(map[string][]byte)
			for _, f := range ar.Files {
				archived[f.Name] = f.Data
			}
			in, ok := archived["in.java"]
			if !ok {
				t.Fatal("archive has no in.java")
			}

			cp := classpath.Default()
			if stubs, ok := archived["stubs.yaml"]; ok {
				f, err := classpath.Parse(stubs)
				if err != nil {
					t.Fatal(err)
				}
				cp.Merge(f)
			}
			var version *semver.Version
			if v := opts["version"]; v != "" {
				version = semver.MustParse(v)
			}
			p, err := parse.New(cp)
			if err != nil {
				t.Fatal(err)
			}
			u, err := p.ParseUnit(context.Background(), "in.java", in, version)
			if err != nil {
				t.Fatal(err)
			}

			b := template.NewBuilder(parse.NewFragments(cp))
			names := strings.Fields(opts["rules"])
			if len(names) == 0 {
				names = []string{"UseLocaleOf"}
			}
			var recipes []*Recipe
			for _, name := range names {
				d, ok := Lookup(name)
				if !ok {
					t.Fatalf("unknown rule %s", name)
				}
				r, err := New(d, b)
				if err != nil {
					t.Fatal(err)
				}
				recipes = append(recipes, r)
			}

			logger, hook := test.NewNullLogger()
			runner := &Runner{Recipes: recipes, Formatter: format.Printer{}, Logger: logger}
			res, err := runner.Run(context.Background(), u)
			if err != nil {
				t.Fatal(err)
			}

			want, changes := archived["out.java"]
			if !changes {
				want = in
			}
			if res.Changed != changes {
				t.Errorf("Changed = %v, want %v", res.Changed, changes)
			}
			if !changes && res.Root != u.Root {
				t.Error("unchanged unit got a new root")
			}
			if !bytes.Equal(res.After, want) {
				t.Errorf("have:\n%s\nwant:\n%s", res.After, want)
			}
			warnings := opts["warnings"]
			if warnings == "" {
				warnings = "0"
			}
			if got := len(hook.AllEntries()); warnings != strconv.Itoa(got) {
				t.Errorf("logged %d warnings, want %s", got, warnings)
			}

			// Rewriting the output again is a no-op.
			if changes {
				u2, err := p.ParseUnit(context.Background(), "out.java", res.After, version)
				if err != nil {
					t.Fatalf("output does not parse: %v", err)
				}
				res2, err := runner.Run(context.Background(), u2)
				if err != nil {
					t.Fatal(err)
				}
				if res2.Changed {
					t.Errorf("second run changed the output:\n%s", res2.After)
				}
			}
		})
	}
}

func comment(data []byte) map[string]string {
	opts := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		k, v, ok := strings.Cut(sc.Text(), ":")
		if ok {
			opts[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return opts
}
