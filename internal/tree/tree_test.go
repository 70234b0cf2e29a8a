package tree

import (
	"testing"
)

func lit(text string, start int) *Literal {
	return &Literal{Meta: Meta{Span: Span{start, start + len(text)}}, Text: text}
}

func TestMapKeepsIdentityWhenUnchanged(t *testing.T) {
	t.Parallel()

	call := &MethodInvocation{Name: "f", Args: []Node{lit(`"a"`, 2), lit(`"b"`, 7)}}
	root := &Generic{Kind: "program", Kids: []Node{call}, Fields: []string{""}}

	got := Map(root, func(n Node) Node { return n })
	if got != Node(root) {
		t.Fatal("Map with identity function returned a new node")
	}
}

func TestMapRebuildsChangedPath(t *testing.T) {
	t.Parallel()

	a, b := lit(`"a"`, 2), lit(`"b"`, 7)
	call := &MethodInvocation{Name: "f", Args: []Node{a, b}}
	other := &Ident{Name: "x"}
	root := &Generic{Kind: "program", Kids: []Node{call, other}, Fields: []string{"", ""}}

	repl := lit(`"z"`, 0)
	var rewrite func(Node) Node
	rewrite = func(n Node) Node {
		if n == Node(b) {
			return repl
		}
		return Map(n, rewrite)
	}
	got := rewrite(root).(*Generic)

	if got == root {
		t.Fatal("root was not rebuilt")
	}
	if got.Kids[1] != Node(other) {
		t.Error("untouched sibling lost its identity")
	}
	newCall := got.Kids[0].(*MethodInvocation)
	if newCall == call {
		t.Fatal("call was not rebuilt")
	}
	if newCall.Args[0] != Node(a) || newCall.Args[1] != Node(repl) {
		t.Errorf("args = %v, want [a repl]", newCall.Args)
	}
	if call.Args[1] != Node(b) {
		t.Error("original call was mutated")
	}
}

func TestChildrenSourceOrder(t *testing.T) {
	t.Parallel()

	outer := &Ident{Name: "o"}
	class := &TypeRef{Name: "Inner"}
	arg := lit("1", 0)
	body := &Generic{Kind: "class_body"}
	nc := &NewClass{Outer: outer, Class: class, Args: []Node{arg}, Body: body}

	kids := Children(nc)
	want := []Node{outer, class, arg, body}
	if len(kids) != len(want) {
		t.Fatalf("got %d children, want %d", len(kids), len(want))
	}
	for i := range want {
		if kids[i] != want[i] {
			t.Errorf("child %d = %T, want %T", i, kids[i], want[i])
		}
	}
}

func TestCollectCalls(t *testing.T) {
	t.Parallel()

	inner := &NewClass{Class: &TypeRef{Name: "Locale"}}
	outer := &MethodInvocation{Name: "println", Args: []Node{inner}}
	root := &Generic{Kind: "program", Kids: []Node{outer}, Fields: []string{""}}

	calls := CollectCalls(root)
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if calls[0] != Call(outer) || calls[1] != Call(inner) {
		t.Error("calls not in source order")
	}
}

func TestAssignableTo(t *testing.T) {
	t.Parallel()

	str := &Type{Name: "java.lang.String", Supers: []string{"java.lang.CharSequence", "java.lang.Comparable"}}
	cs := &Type{Name: "java.lang.CharSequence"}
	obj := &Type{Name: ObjectName}
	integer := &Type{Name: "java.lang.Integer", Supers: []string{"java.lang.Number"}}

	tests := []struct {
		name string
		from *Type
		to   *Type
		want bool
	}{
		{"same", str, str, true},
		{"supertype", str, cs, true},
		{"object", str, obj, true},
		{"not subtype", cs, str, false},
		{"null to ref", Null, str, true},
		{"null to prim", Null, Primitive("int"), false},
		{"widening", Primitive("int"), Primitive("long"), true},
		{"narrowing", Primitive("long"), Primitive("int"), false},
		{"boxing", Primitive("int"), integer, true},
		{"unboxing", integer, Primitive("long"), true},
		{"unknown", nil, str, false},
		{"array to object", ArrayOf(str), obj, true},
		{"covariant array", ArrayOf(str), ArrayOf(cs), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := AssignableTo(tt.from, tt.to); got != tt.want {
				t.Errorf("AssignableTo(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestParamForVarargs(t *testing.T) {
	t.Parallel()

	str := &Type{Name: "java.lang.String"}
	obj := &Type{Name: ObjectName}
	m := &MethodType{Name: "format", Params: []*Type{str, ArrayOf(obj)}, Varargs: true}

	if got := m.ParamFor(0, 4); got != str {
		t.Errorf("ParamFor(0) = %v, want String", got)
	}
	for i := 1; i < 4; i++ {
		if got := m.ParamFor(i, 4); got != obj {
			t.Errorf("ParamFor(%d) = %v, want Object", i, got)
		}
	}
	if got := m.ParamFor(4, 4); got != nil {
		t.Errorf("ParamFor out of range = %v, want nil", got)
	}
	if got := m.String(); got != "<unknown> format(java.lang.String, java.lang.Object...)" {
		t.Errorf("String() = %q", got)
	}
}

func TestUnitImported(t *testing.T) {
	t.Parallel()

	u := &Unit{
		Package: "com.acme",
		Imports: []Import{
			{Path: "java.util", Wildcard: true},
			{Path: "org.other.Locale2"},
		},
	}
	tests := []struct {
		fqn  string
		want bool
	}{
		{"java.lang.String", true},
		{"com.acme.Widget", true},
		{"java.util.Locale", true},
		{"org.other.Locale2", true},
		{"java.text.Format", false},
	}
	for _, tt := range tests {
		if got := u.Imported(tt.fqn); got != tt.want {
			t.Errorf("Imported(%q) = %v, want %v", tt.fqn, got, tt.want)
		}
	}
}
