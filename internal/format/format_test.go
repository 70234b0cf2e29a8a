package format

import (
	"context"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/phobologic/jrewrite/internal/classpath"
	"github.com/phobologic/jrewrite/internal/parse"
	"github.com/phobologic/jrewrite/internal/rewrite"
	"github.com/phobologic/jrewrite/internal/signature"
	"github.com/phobologic/jrewrite/internal/template"
	"github.com/phobologic/jrewrite/internal/tree"
)

type rule struct {
	pattern string
	source  template.Source
	imports []string
}

var localeOf = rule{
	pattern: "java.util.Locale <constructor>(..)",
	source:  template.Joined{Prefix: "Locale.of(", Slot: "#{any(String)}", Sep: ", ", Suffix: ")"},
	imports: []string{"java.util.Locale"},
}

func rewriteAndFormat(t *testing.T, r rule, src string) string {
	t.Helper()
	cp := classpath.Default()
	p, err := parse.New(cp)
	if err != nil {
		t.Fatal(err)
	}
	u, err := p.ParseUnit(context.Background(), "Test.java", []byte(src), semver.MustParse("21"))
	if err != nil {
		t.Fatal(err)
	}
	b := template.NewBuilder(parse.NewFragments(cp))
	logger, hook := test.NewNullLogger()
	v := &rewrite.Visitor{
		Rule:    "test",
		Pattern: signature.MustParse(r.pattern),
		Template: func(arity int) (*template.Template, error) {
			return b.Compile(r.source.Text(arity), r.imports...)
		},
		Builder: b,
		Logger:  logger,
	}
	root, touches := v.Visit(u.Root)
	if len(hook.AllEntries()) > 0 {
		t.Fatalf("rewrite warned: %v", hook.LastEntry().Message)
	}
	out, err := Printer{}.Format(u, root, touches)
	if err != nil {
		t.Fatal(err)
	}
	return string(out)
}

func TestFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		rule rule
		in   string
		want string
	}{
		{
			name: "already imported",
			rule: localeOf,
			in: `package com.acme;

import java.util.Locale;

class A {
    Locale l = new Locale("en",   "US");  // keep me
}
`,
			want: `package com.acme;

import java.util.Locale;

class A {
    Locale l = Locale.of("en", "US");  // keep me
}
`,
		},
		{
			name: "comment between arguments",
			rule: localeOf,
			in: `import java.util.Locale;

class A {
    Locale l = new Locale("en", /* country */ "US");
}
`,
			want: `import java.util.Locale;

class A {
    Locale l = Locale.of("en", /* country */ "US");
}
`,
		},
		{
			name: "import after package",
			rule: localeOf,
			in: `package com.acme;

class A {
    Object l = new java.util.Locale("en");
}
`,
			want: `package com.acme;

import java.util.Locale;

class A {
    Object l = Locale.of("en");
}
`,
		},
		{
			name: "import after last import",
			rule: localeOf,
			in: `package com.acme;

import java.util.List;
import java.util.Map;

class A {
    Object l = new java.util.Locale(
        "en",
        "US");
}
`,
			want: `package com.acme;

import java.util.List;
import java.util.Map;
import java.util.Locale;

class A {
    Object l = Locale.of("en", "US");
}
`,
		},
		{
			name: "wildcard import",
			rule: localeOf,
			in: `import java.util.*;

class A {
    Locale l = new Locale(System.getProperty("lang"));
}
`,
			want: `import java.util.*;

class A {
    Locale l = Locale.of(System.getProperty("lang"));
}
`,
		},
		{
			name: "no header",
			rule: localeOf,
			in: `class A {
    Object l = new java.util.Locale("en");
}
`,
			want: `import java.util.Locale;

class A {
    Object l = Locale.of("en");
}
`,
		},
		{
			name: "nested and argument order",
			rule: localeOf,
			in: `import java.util.Locale;

class A {
    String f(String c) {
        return new Locale(new Locale("en").getLanguage(), c, "v").toString();
    }
}
`,
			want: `import java.util.Locale;

class A {
    String f(String c) {
        return Locale.of(Locale.of("en").getLanguage(), c, "v").toString();
    }
}
`,
		},
		{
			name: "parenthesized operand",
			rule: rule{
				pattern: "java.lang.String valueOf(java.lang.Object)",
				source:  template.Fixed("#{any(String)}.toLowerCase()"),
			},
			in: `class A {
    String f(String a, String b) {
        return String.valueOf(a + b);
    }
}
`,
			want: `class A {
    String f(String a, String b) {
        return (a + b).toLowerCase();
    }
}
`,
		},
		{
			name: "lone slot",
			rule: rule{
				pattern: "java.lang.String valueOf(java.lang.Object)",
				source:  template.Fixed("#{}"),
			},
			in: `class A {
    void f(String s) {
        System.out.println(String.valueOf( s ));
    }
}
`,
			want: `class A {
    void f(String s) {
        System.out.println(s);
    }
}
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := rewriteAndFormat(t, tt.rule, tt.in); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestFormatUnchanged(t *testing.T) {
	t.Parallel()
	src := "package a;\n\nclass A {\n    int x = 1 +  2;\n}\n"
	p, err := parse.New(classpath.Default())
	if err != nil {
		t.Fatal(err)
	}
	u, err := p.ParseUnit(context.Background(), "A.java", []byte(src), nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Printer{}.Format(u, u.Root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != src {
		t.Errorf("round trip changed the source:\n%s", out)
	}
}

func TestMissingImports(t *testing.T) {
	t.Parallel()
	u := &tree.Unit{
		Package: "com.acme",
		Imports: []tree.Import{
			{Path: "java.util.List"},
			{Path: "java.time", Wildcard: true},
			{Path: "java.util.Objects.requireNonNull", Static: true},
		},
	}
	touches := []rewrite.Touch{
		{Imports: []string{"java.util.Locale", "java.util.List"}},
		{Imports: []string{"java.time.Duration", "java.lang.String", "com.acme.Wrapper"}},
		{Imports: []string{"java.util.Locale", "java.text.NumberFormat"}},
	}
	got := MissingImports(u, touches)
	want := []string{"java.text.NumberFormat", "java.util.Locale"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestIsSeparator(t *testing.T) {
	t.Parallel()
	tests := []struct {
		gap  string
		want bool
	}{
		{", ", true},
		{", /* country */ ", true},
		{" /* a, b */ , ", true},
		{", // language\n    ", true},
		{", // no newline", false},
		{", /* open", false},
		{"", false},
		{", , ", false},
		{") + (", false},
	}
	for _, tt := range tests {
		if got := isSeparator([]byte(tt.gap)); got != tt.want {
			t.Errorf("isSeparator(%q) = %v, want %v", tt.gap, got, tt.want)
		}
	}
}
