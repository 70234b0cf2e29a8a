package template

import (
	"context"
	"errors"
	"testing"

	"github.com/phobologic/jrewrite/internal/classpath"
	"github.com/phobologic/jrewrite/internal/parse"
	"github.com/phobologic/jrewrite/internal/tree"
)

func newBuilder() *Builder {
	return NewBuilder(parse.NewFragments(classpath.Default()))
}

var localeOf = Joined{Prefix: "Locale.of(", Slot: "#{any(String)}", Sep: ", ", Suffix: ")"}

func TestJoined(t *testing.T) {
	t.Parallel()
	tests := []struct {
		arity int
		want  string
	}{
		{0, "Locale.of()"},
		{1, "Locale.of(#{any(String)})"},
		{3, "Locale.of(#{any(String)}, #{any(String)}, #{any(String)})"},
	}
	for _, tt := range tests {
		if got := localeOf.Text(tt.arity); got != tt.want {
			t.Errorf("Text(%d) = %q, want %q", tt.arity, got, tt.want)
		}
	}
	if got := Fixed("x").Text(7); got != "x" {
		t.Errorf("Fixed = %q", got)
	}
}

func TestCompileSlots(t *testing.T) {
	t.Parallel()
	b := newBuilder()
	tests := []struct {
		text  string
		slots []Slot
	}{
		{localeOf.Text(2), []Slot{{0, "", "java.lang.String"}, {1, "", "java.lang.String"}}},
		{"#{} + #{any()}", []Slot{{0, "", ""}, {1, "", ""}}},
		{"#{a:any(java.util.Locale)}.getLanguage() + #{a}", []Slot{{0, "a", "java.util.Locale"}}},
		{"String.valueOf(#{n:any(int)})", []Slot{{0, "n", "int"}}},
		{`"\#{" + #{}`, []Slot{{0, "", ""}}},
	}
	for _, tt := range tests {
		tmpl, err := b.Compile(tt.text)
		if err != nil {
			t.Errorf("Compile(%q): %v", tt.text, err)
			continue
		}
		if len(tmpl.Slots) != len(tt.slots) {
			t.Errorf("Compile(%q): %d slots, want %d", tt.text, len(tmpl.Slots), len(tt.slots))
			continue
		}
		for i, s := range tmpl.Slots {
			if s != tt.slots[i] {
				t.Errorf("Compile(%q): slot %d = %+v, want %+v", tt.text, i, s, tt.slots[i])
			}
		}
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()
	b := newBuilder()
	tests := []struct {
		text    string
		imports []string
		offset  int
	}{
		{"Locale.of(#{", nil, 10},
		{"f(#{bogus(x)})", nil, 2},
		{"f(#{a:any(String)}, #{a:any(int)})", nil, 20},
		{"__slot0__", nil, 0},
		{"Locale.of(#{}", nil, -1},
		{"x -> #{}", nil, -1},
		{"new Object() {}", nil, -1},
		{"a.#{}()", nil, -1},
		{"Locale.of(#{})", []string{"Locale"}, -1},
	}
	for _, tt := range tests {
		_, err := b.Compile(tt.text, tt.imports...)
		var ce *CompileError
		if !errors.As(err, &ce) {
			t.Errorf("Compile(%q) err = %v, want *CompileError", tt.text, err)
			continue
		}
		if tt.offset >= 0 && ce.Offset != tt.offset {
			t.Errorf("Compile(%q) offset = %d, want %d", tt.text, ce.Offset, tt.offset)
		}
	}
}

const unitSrc = `package com.acme;

import java.util.Locale;

class Greeter {
    Locale make(String lang, int n) {
        return new Locale(lang, "US");
    }
}
`

func localeSite(t *testing.T) *tree.NewClass {
	t.Helper()
	p, err := parse.New(classpath.Default())
	if err != nil {
		t.Fatal(err)
	}
	u, err := p.ParseUnit(context.Background(), "Greeter.java", []byte(unitSrc), nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range u.Usages() {
		if nc, ok := c.(*tree.NewClass); ok {
			return nc
		}
	}
	t.Fatal("no object creation in unit")
	return nil
}

func bindingsOf(args []tree.Node) []Binding {
	out := make([]Binding, len(args))
	for i, a := range args {
		out[i] = Binding{Expr: a, Type: tree.TypeOf(a)}
	}
	return out
}

func TestInstantiate(t *testing.T) {
	t.Parallel()
	b := newBuilder()
	site := localeSite(t)
	tmpl, err := b.Compile(localeOf.Text(2), "java.util.Locale")
	if err != nil {
		t.Fatal(err)
	}

	got, err := b.Instantiate(tmpl, bindingsOf(site.Args), Insertion{Span: site.Pos(), Scope: site.Scope})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	call, ok := got.(*tree.MethodInvocation)
	if !ok {
		t.Fatalf("got %T, want method invocation", got)
	}
	if !call.Synthetic() || call.Pos() != site.Pos() {
		t.Errorf("root origin/span = %v/%v, want synthesized at %v", call.Synthetic(), call.Pos(), site.Pos())
	}
	for i := range site.Args {
		if call.Args[i] != site.Args[i] {
			t.Errorf("arg %d was copied, want the captured node", i)
		}
	}
	if call.Method == nil || call.Method.Name != "of" || len(call.Method.Params) != 2 {
		t.Errorf("method = %v", call.Method)
	}
	if call.Type == nil || call.Type.Name != "java.util.Locale" {
		t.Errorf("type = %v", call.Type)
	}

	// The skeleton is shared; a second instantiation starts clean.
	again, err := b.Instantiate(tmpl, bindingsOf(site.Args), Insertion{Span: site.Pos(), Scope: site.Scope})
	if err != nil {
		t.Fatal(err)
	}
	if again == got {
		t.Error("instantiations share nodes")
	}
}

func TestInstantiateErrors(t *testing.T) {
	t.Parallel()
	b := newBuilder()
	site := localeSite(t)
	tmpl, err := b.Compile(localeOf.Text(2), "java.util.Locale")
	if err != nil {
		t.Fatal(err)
	}
	at := Insertion{Span: site.Pos(), Scope: site.Scope}
	str := site.Method.Params[0]

	tests := []struct {
		name     string
		bindings []Binding
		slot     int
	}{
		{"too few", bindingsOf(site.Args[:1]), -1},
		{"wrong type", []Binding{{Expr: site.Args[0], Type: tree.Primitive("int")}, {Expr: site.Args[1], Type: str}}, 0},
		{"unresolved", []Binding{{Expr: site.Args[0], Type: str}, {Expr: site.Args[1]}}, 1},
	}
	for _, tt := range tests {
		_, err := b.Instantiate(tmpl, tt.bindings, at)
		var ie *InstantiateError
		if !errors.As(err, &ie) {
			t.Errorf("%s: err = %v, want *InstantiateError", tt.name, err)
			continue
		}
		if ie.Slot != tt.slot {
			t.Errorf("%s: slot = %d, want %d", tt.name, ie.Slot, tt.slot)
		}
	}
}

func TestInstantiateParens(t *testing.T) {
	t.Parallel()
	b := newBuilder()
	tmpl, err := b.Compile("#{} * 2")
	if err != nil {
		t.Fatal(err)
	}
	one := &tree.Literal{Text: "1", Type: tree.Primitive("int")}
	two := &tree.Literal{Text: "2", Type: tree.Primitive("int")}
	sum := &tree.Binary{Op: "+", X: one, Y: two, Type: tree.Primitive("int")}

	got, err := b.Instantiate(tmpl, []Binding{{Expr: sum, Type: sum.Type}}, Insertion{Span: tree.Span{Start: 4, End: 9}})
	if err != nil {
		t.Fatal(err)
	}
	outer, ok := got.(*tree.Parens)
	if !ok {
		t.Fatalf("root = %T, want parens around the operator expression", got)
	}
	if outer.Pos() != (tree.Span{Start: 4, End: 9}) {
		t.Errorf("root span = %v", outer.Pos())
	}
	mul := outer.X.(*tree.Binary)
	inner, ok := mul.X.(*tree.Parens)
	if !ok || inner.X != tree.Node(sum) {
		t.Errorf("captured sum not parenthesized: %#v", mul.X)
	}
	if mul.Type == nil || mul.Type.Name != "int" {
		t.Errorf("product type = %v", mul.Type)
	}
}

func TestInstantiateLoneSlot(t *testing.T) {
	t.Parallel()
	b := newBuilder()
	tmpl, err := b.Compile("#{}")
	if err != nil {
		t.Fatal(err)
	}
	x := &tree.Ident{Name: "x", Type: tree.Primitive("int")}
	got, err := b.Instantiate(tmpl, []Binding{{Expr: x, Type: x.Type}}, Insertion{})
	if err != nil {
		t.Fatal(err)
	}
	if got != tree.Node(x) {
		t.Error("lone slot did not return the bound expression")
	}
}

func TestNeedParen(t *testing.T) {
	t.Parallel()
	slot := &tree.Ident{Name: "__slot0__"}
	other := &tree.Ident{Name: "y"}
	sum := &tree.Binary{Op: "-", X: other, Y: other}
	product := &tree.Binary{Op: "*", X: other, Y: other}
	cond := &tree.Generic{Kind: "ternary_expression"}

	tests := []struct {
		name   string
		x      tree.Node
		parent tree.Node
		want   bool
	}{
		{"sum in product", sum, &tree.Binary{Op: "*", X: slot, Y: other}, true},
		{"product in sum", product, &tree.Binary{Op: "+", X: slot, Y: other}, false},
		{"sum on left of minus", sum, &tree.Binary{Op: "-", X: slot, Y: other}, false},
		{"sum on right of minus", sum, &tree.Binary{Op: "-", X: other, Y: slot}, true},
		{"sum as select", sum, &tree.MethodInvocation{Select: slot, Name: "f"}, true},
		{"sum as argument", sum, &tree.MethodInvocation{Name: "f", Args: []tree.Node{slot}}, false},
		{"call as select", &tree.MethodInvocation{Name: "g"}, &tree.FieldAccess{Target: slot, Name: "x"}, false},
		{"ternary as target", cond, &tree.FieldAccess{Target: slot, Name: "x"}, true},
		{"no parent", sum, nil, false},
	}
	for _, tt := range tests {
		if got := needParen(tt.x, slot, tt.parent); got != tt.want {
			t.Errorf("%s: needParen = %v, want %v", tt.name, got, tt.want)
		}
	}
}
