package signature

import (
	"testing"

	"github.com/phobologic/jrewrite/internal/tree"
)

var (
	str    = &tree.Type{Name: "java.lang.String", Supers: []string{"java.lang.CharSequence"}}
	object = &tree.Type{Name: tree.ObjectName}
	locale = &tree.Type{Name: "java.util.Locale"}
)

func args(types ...*tree.Type) []tree.Node {
	out := make([]tree.Node, len(types))
	for i, t := range types {
		out[i] = &tree.Ident{Name: "a", Type: t}
	}
	return out
}

func newLocale(n int) *tree.NewClass {
	params := make([]*tree.Type, n)
	types := make([]*tree.Type, n)
	for i := range params {
		params[i], types[i] = str, str
	}
	return &tree.NewClass{
		Class:  &tree.TypeRef{Name: "Locale", Type: locale},
		Args:   args(types...),
		Method: &tree.MethodType{Declaring: locale, Name: tree.ConstructorName, Params: params, Return: locale},
		Type:   locale,
	}
}

func TestParseString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"java.util.Locale <constructor>(..)", "java.util.Locale <constructor>(..)"},
		{"java.lang.String format(String, Object...)", "java.lang.String format(java.lang.String, java.lang.Object...)"},
		{"java.util.* get*(*, int[])", "java.util.* get*(*, int[])"},
		{"  a.B  c( )", "a.B c()"},
	}
	for _, tt := range tests {
		p, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.in, err)
			continue
		}
		if got := p.String(); got != tt.want {
			t.Errorf("Parse(%q).String() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	for _, in := range []string{
		"",
		"java.util.Locale",
		"java.util.Locale <constructor>",
		"Locale(..)",
		"a.B c(.., String)",
		"a.B c(String..., int)",
		"a.B c(,)",
		"a.B 1c()",
		"a.B c(Map<String>)",
		"a.B c d()",
	} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", in)
		}
	}
}

func TestMustParsePanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Error("MustParse did not panic")
		}
	}()
	MustParse("nonsense")
}

func TestArityBoundary(t *testing.T) {
	t.Parallel()
	fmtType := &tree.Type{Name: "com.acme.Fmt"}
	join := &tree.MethodType{
		Declaring: fmtType, Name: "join",
		Params:  []*tree.Type{str, str, tree.ArrayOf(str)},
		Varargs: true, Static: true, Return: str,
	}
	p := MustParse("com.acme.Fmt join(String, String, ..)")
	for _, tt := range []struct {
		arity int
		want  bool
	}{
		{1, false}, {2, true}, {3, true}, {10, true},
	} {
		types := make([]*tree.Type, tt.arity)
		for i := range types {
			types[i] = str
		}
		call := &tree.MethodInvocation{Name: "join", Args: args(types...), Method: join}
		if got := Matches(p, call); got != tt.want {
			t.Errorf("arity %d: Matches = %v, want %v", tt.arity, got, tt.want)
		}
	}
}

func TestConstructorSentinel(t *testing.T) {
	t.Parallel()
	p := MustParse("java.util.Locale <constructor>(..)")
	for n := 1; n <= 3; n++ {
		if !Matches(p, newLocale(n)) {
			t.Errorf("new Locale with %d args did not match", n)
		}
	}
	of := &tree.MethodInvocation{
		Name:   "of",
		Args:   args(str),
		Method: &tree.MethodType{Declaring: locale, Name: "of", Params: []*tree.Type{str}, Static: true, Return: locale},
	}
	if Matches(p, of) {
		t.Error("Locale.of matched the constructor pattern")
	}
	if Matches(MustParse("java.util.Locale of(..)"), newLocale(1)) {
		t.Error("constructor matched a method pattern")
	}
}

func TestOwnerMatching(t *testing.T) {
	t.Parallel()
	length := &tree.MethodType{Declaring: str, Name: "length", Return: tree.Primitive("int")}
	call := &tree.MethodInvocation{Name: "length", Method: length}

	tests := []struct {
		pattern   string
		overrides bool
		want      bool
	}{
		{"java.lang.String length()", false, true},
		{"java.lang.* length()", false, true},
		{"java..* length()", false, true},
		{"java.util.* length()", false, false},
		{"java.lang.CharSequence length()", false, false},
		{"java.lang.CharSequence length()", true, true},
		{"java.lang.String len*()", false, true},
		{"java.lang.String size()", false, false},
	}
	for _, tt := range tests {
		p := MustParse(tt.pattern)
		p.MatchOverrides = tt.overrides
		if got := Matches(p, call); got != tt.want {
			t.Errorf("%s (overrides=%v) = %v, want %v", tt.pattern, tt.overrides, got, tt.want)
		}
	}
}

func TestParameterTypes(t *testing.T) {
	t.Parallel()
	ctor := newLocale(2)
	tests := []struct {
		pattern string
		want    bool
	}{
		{"java.util.Locale <constructor>(String, String)", true},
		{"java.util.Locale <constructor>(String, *)", true},
		{"java.util.Locale <constructor>(String, String...)", true},
		{"java.util.Locale <constructor>(String, int)", false},
		{"java.util.Locale <constructor>(Object, Object)", false},
		{"java.util.Locale <constructor>(String)", false},
		{"java.util.Locale <constructor>(String, String, String)", false},
	}
	for _, tt := range tests {
		if got := Matches(MustParse(tt.pattern), ctor); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.pattern, got, tt.want)
		}
	}
}

func TestUnresolvedNeverMatches(t *testing.T) {
	t.Parallel()
	unresolved := newLocale(1)
	unresolved.Method = nil
	if Matches(MustParse("java.util.Locale <constructor>(..)"), unresolved) {
		t.Error("unresolved call matched")
	}

	// A method without declared parameters falls back to argument types.
	bare := &tree.MethodInvocation{
		Name:   "log",
		Args:   args(nil),
		Method: &tree.MethodType{Declaring: object, Name: "log"},
	}
	if Matches(MustParse("java.lang.Object log(String)"), bare) {
		t.Error("unknown argument type matched a concrete pattern")
	}
	if !Matches(MustParse("java.lang.Object log(*)"), bare) {
		t.Error("wildcard rejected an unknown argument type")
	}
}

func TestMatchesMethod(t *testing.T) {
	t.Parallel()
	p := MustParse("java.util.Locale <constructor>(String, ..)")
	m := newLocale(3).Method
	if !MatchesMethod(p, m, true, 3) {
		t.Error("constructor did not match")
	}
	if MatchesMethod(p, m, false, 3) {
		t.Error("matched as a method")
	}
	if MatchesMethod(p, nil, true, 1) {
		t.Error("nil method matched")
	}
}
