// Package template compiles Java expression templates with typed slots
// and instantiates them into synthesized syntax trees.
//
// Template text is a Java expression in which #{...} marks a slot:
//
//	#{}                    any expression
//	#{any()}               any expression
//	#{any(java.lang.String)} an expression assignable to String
//	#{lang:any(String)}    a named slot; a later #{lang} reuses it
//
// A literal #{ is written \#{.
package template

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/phobologic/jrewrite/internal/tree"
)

// Frontend parses and attributes template fragments.
type Frontend interface {
	// ParseExpr parses src as a single expression.
	ParseExpr(src string) (tree.Node, error)
	// Attribute types the synthesized nodes of n in scope sc, with the
	// classes in imports visible by simple name.
	Attribute(n tree.Node, sc tree.Scope, imports []string) (tree.Node, error)
}

// Slot is one distinct placeholder of a template.
type Slot struct {
	Index int
	Name  string // "" for anonymous slots
	Type  string // required type; "" accepts any expression
}

func (s Slot) String() string {
	kind := "any()"
	if s.Type != "" {
		kind = "any(" + s.Type + ")"
	}
	if s.Name != "" {
		return s.Name + ":" + kind
	}
	return kind
}

// Template is a compiled template. It is immutable and safe for concurrent
// use.
type Template struct {
	Text    string
	Slots   []Slot
	Imports []string

	skeleton tree.Node
}

func (t *Template) String() string { return t.Text }

// Binding is an expression captured for a slot.
type Binding struct {
	Expr tree.Node
	Type *tree.Type // static type, nil when unresolved
}

// Insertion describes where an instantiated template will be placed.
type Insertion struct {
	Span  tree.Span  // span of the node being replaced
	Scope tree.Scope // lexical scope at that point
}

// CompileError reports malformed template text.
type CompileError struct {
	Text   string
	Offset int
	Msg    string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("template %q: offset %d: %s", e.Text, e.Offset, e.Msg)
}

// InstantiateError reports that a template could not be filled in at a
// particular site.
type InstantiateError struct {
	Reason string
	Slot   int // offending slot index, -1 when not slot specific
}

func (e *InstantiateError) Error() string {
	if e.Slot >= 0 {
		return fmt.Sprintf("slot %d: %s", e.Slot, e.Reason)
	}
	return e.Reason
}

// Builder compiles and instantiates templates.
type Builder struct {
	fe Frontend
}

// NewBuilder returns a Builder backed by fe.
func NewBuilder(fe Frontend) *Builder {
	return &Builder{fe: fe}
}

const placeholderPrefix = "__slot"

func placeholder(i int) string { return placeholderPrefix + strconv.Itoa(i) + "__" }

func slotIndex(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, placeholderPrefix)
	if !ok {
		return 0, false
	}
	digits, ok := strings.CutSuffix(rest, "__")
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(digits)
	return i, err == nil
}

// offsetMap translates skeleton offsets back to template text offsets.
type offsetMap []struct{ skel, text int }

func (m offsetMap) text(off int) int {
	best := 0
	for i, e := range m {
		if e.skel <= off {
			best = i
		}
	}
	if len(m) == 0 {
		return off
	}
	return m[best].text + off - m[best].skel
}

// scan splits text into the skeleton source and its slots.
func scan(text string) (string, []Slot, offsetMap, error) {
	var (
		skel  strings.Builder
		slots []Slot
		m     offsetMap
	)
	named := map[string]int{}
	mark := func(textOff int) {
		m = append(m, struct{ skel, text int }{skel.Len(), textOff})
	}
	mark(0)
	for i := 0; i < len(text); {
		if strings.HasPrefix(text[i:], `\#{`) {
			skel.WriteString("#{")
			i += 3
			mark(i)
			continue
		}
		if !strings.HasPrefix(text[i:], "#{") {
			skel.WriteByte(text[i])
			i++
			continue
		}
		end := strings.IndexByte(text[i:], '}')
		if end < 0 {
			return "", nil, nil, &CompileError{Text: text, Offset: i, Msg: "unterminated slot"}
		}
		body := strings.TrimSpace(text[i+2 : i+end])
		idx, err := parseSlot(body, named, &slots)
		if err != nil {
			return "", nil, nil, &CompileError{Text: text, Offset: i, Msg: err.Error()}
		}
		mark(i)
		skel.WriteString(placeholder(idx))
		i += end + 1
		mark(i)
	}
	return skel.String(), slots, m, nil
}

func parseSlot(body string, named map[string]int, slots *[]Slot) (int, error) {
	name, kind, hasKind := strings.Cut(body, ":")
	if !hasKind {
		kind, name = body, ""
		if body != "" && !strings.HasPrefix(body, "any(") {
			// #{name} refers back to a named slot, or declares an
			// untyped one.
			name, kind = body, ""
		}
	}
	name = strings.TrimSpace(name)
	kind = strings.TrimSpace(kind)
	if name != "" && !isIdent(name) {
		return 0, fmt.Errorf("bad slot name %q", name)
	}

	var typ string
	switch {
	case kind == "":
	case strings.HasPrefix(kind, "any(") && strings.HasSuffix(kind, ")"):
		typ = strings.TrimSpace(kind[len("any(") : len(kind)-1])
		if typ != "" {
			q, err := qualify(typ)
			if err != nil {
				return 0, err
			}
			typ = q
		}
	default:
		return 0, fmt.Errorf("unknown slot kind %q", kind)
	}

	if name != "" {
		if idx, ok := named[name]; ok {
			prev := (*slots)[idx]
			if typ != "" && prev.Type != typ {
				return 0, fmt.Errorf("slot %s redeclared as any(%s), was %s", name, typ, prev)
			}
			return idx, nil
		}
	}
	idx := len(*slots)
	*slots = append(*slots, Slot{Index: idx, Name: name, Type: typ})
	if name != "" {
		named[name] = idx
	}
	return idx, nil
}

var primitiveNames = map[string]bool{
	"boolean": true, "byte": true, "short": true, "char": true,
	"int": true, "long": true, "float": true, "double": true,
}

// qualify resolves a slot type. Unqualified class names are taken from
// java.lang.
func qualify(typ string) (string, error) {
	base, dims := typ, ""
	for strings.HasSuffix(base, "[]") {
		base = strings.TrimSuffix(base, "[]")
		dims += "[]"
	}
	for _, seg := range strings.Split(base, ".") {
		if !isIdent(seg) {
			return "", fmt.Errorf("bad slot type %q", typ)
		}
	}
	if !strings.Contains(base, ".") && !primitiveNames[base] {
		base = "java.lang." + base
	}
	return base + dims, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || r == '$' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r > 0x7f || i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

// slotType builds the type a slot requires. Only the name matters: the
// binding's own type carries the supertypes AssignableTo consults.
func slotType(name string) *tree.Type {
	if elem, ok := strings.CutSuffix(name, "[]"); ok {
		return tree.ArrayOf(slotType(elem))
	}
	if p := tree.Primitive(name); p != nil {
		return p
	}
	return &tree.Type{Name: name, Kind: tree.ClassType}
}

// Compile parses text into a template whose replacement requires the given
// imports.
func (b *Builder) Compile(text string, imports ...string) (*Template, error) {
	if strings.Contains(text, placeholderPrefix) {
		return nil, &CompileError{Text: text, Offset: strings.Index(text, placeholderPrefix), Msg: "reserved identifier " + placeholderPrefix}
	}
	for _, imp := range imports {
		if _, err := qualify(imp); err != nil || !strings.Contains(imp, ".") {
			return nil, &CompileError{Text: text, Msg: fmt.Sprintf("bad import %q", imp)}
		}
	}
	src, slots, offsets, err := scan(text)
	if err != nil {
		return nil, err
	}
	skel, err := b.fe.ParseExpr(src)
	if err != nil {
		off := 0
		var pe interface{ SourceOffset() int }
		if errors.As(err, &pe) {
			off = offsets.text(pe.SourceOffset())
		}
		return nil, &CompileError{Text: text, Offset: off, Msg: err.Error()}
	}
	if bad, msg := validate(skel); bad != nil {
		return nil, &CompileError{Text: text, Offset: offsets.text(bad.Pos().Start), Msg: msg}
	}
	return &Template{
		Text:     text,
		Slots:    slots,
		Imports:  append([]string(nil), imports...),
		skeleton: skel,
	}, nil
}

// validate checks that the skeleton only uses constructs the printer can
// render canonically.
func validate(n tree.Node) (tree.Node, string) {
	var bad tree.Node
	var msg string
	tree.Inspect(n, func(n tree.Node) bool {
		if bad != nil {
			return false
		}
		switch n := n.(type) {
		case *tree.Generic:
			bad, msg = n, fmt.Sprintf("unsupported construct %s", n.Kind)
		case *tree.NewClass:
			if n.Body != nil {
				bad, msg = n, "anonymous classes are not supported"
			}
		case *tree.MethodInvocation:
			if _, ok := slotIndex(n.Name); ok {
				bad, msg = n, "slot used as a method name"
			}
		case *tree.FieldAccess:
			if _, ok := slotIndex(n.Name); ok {
				bad, msg = n, "slot used as a field name"
			}
		case *tree.TypeRef:
			if strings.Contains(n.Name, placeholderPrefix) {
				bad, msg = n, "slot used as a type"
			}
		}
		return bad == nil
	})
	return bad, msg
}

// Instantiate fills t's slots with bindings and attributes the result at
// the insertion point. The returned tree is synthesized, shares the bound
// expressions, and carries the insertion span on its root.
func (b *Builder) Instantiate(t *Template, bindings []Binding, at Insertion) (tree.Node, error) {
	if len(bindings) != len(t.Slots) {
		return nil, &InstantiateError{
			Reason: fmt.Sprintf("template has %d slots, got %d arguments", len(t.Slots), len(bindings)),
			Slot:   -1,
		}
	}
	for i, s := range t.Slots {
		if s.Type == "" {
			continue
		}
		bt := bindings[i].Type
		if bt == nil {
			return nil, &InstantiateError{Reason: "argument type is unresolved, want " + s.Type, Slot: i}
		}
		if !tree.AssignableTo(bt, slotType(s.Type)) {
			return nil, &InstantiateError{Reason: fmt.Sprintf("%s is not assignable to %s", bt, s.Type), Slot: i}
		}
	}

	root := fill(t.skeleton, nil, bindings)
	if !root.Synthetic() {
		// The template is a lone slot; the bound expression replaces the
		// call as it is.
		return root, nil
	}
	// The replaced node is a call, which binds tighter than any operator.
	if precedence(root) < postfixPrec {
		root = &tree.Parens{X: root, Meta: tree.Meta{Origin: tree.Synthesized}}
	}
	setSpan(root, at.Span)

	out, err := b.fe.Attribute(root, at.Scope, t.Imports)
	if err != nil {
		return nil, &InstantiateError{Reason: err.Error(), Slot: -1}
	}
	if tree.TypeOf(out) == nil {
		return nil, &InstantiateError{Reason: fmt.Sprintf("%s does not resolve to a type here", t.Text), Slot: -1}
	}
	return out, nil
}

func setSpan(n tree.Node, s tree.Span) {
	switch n := n.(type) {
	case *tree.Ident:
		n.Span = s
	case *tree.Literal:
		n.Span = s
	case *tree.FieldAccess:
		n.Span = s
	case *tree.MethodInvocation:
		n.Span = s
	case *tree.NewClass:
		n.Span = s
	case *tree.Parens:
		n.Span = s
	case *tree.Binary:
		n.Span = s
	}
}

var synthetic = tree.Meta{Origin: tree.Synthesized}

// fill clones the skeleton rooted at n, replacing placeholders with bound
// expressions. parent is the clone's parent in the skeleton.
func fill(n tree.Node, parent tree.Node, bindings []Binding) tree.Node {
	switch n := n.(type) {
	case *tree.Ident:
		if i, ok := slotIndex(n.Name); ok {
			x := bindings[i].Expr
			if needParen(x, n, parent) {
				return &tree.Parens{Meta: synthetic, X: x, Type: tree.TypeOf(x)}
			}
			return x
		}
		return &tree.Ident{Meta: synthetic, Name: n.Name}
	case *tree.Literal:
		return &tree.Literal{Meta: synthetic, Text: n.Text}
	case *tree.TypeRef:
		return &tree.TypeRef{Meta: synthetic, Name: n.Name}
	case *tree.FieldAccess:
		return &tree.FieldAccess{Meta: synthetic, Target: fill(n.Target, n, bindings), Name: n.Name}
	case *tree.MethodInvocation:
		c := &tree.MethodInvocation{Meta: synthetic, Name: n.Name}
		if n.Select != nil {
			c.Select = fill(n.Select, n, bindings)
		}
		for _, a := range n.Args {
			c.Args = append(c.Args, fill(a, n, bindings))
		}
		return c
	case *tree.NewClass:
		c := &tree.NewClass{Meta: synthetic}
		if n.Outer != nil {
			c.Outer = fill(n.Outer, n, bindings)
		}
		if n.Class != nil {
			c.Class = fill(n.Class, n, bindings)
		}
		for _, a := range n.Args {
			c.Args = append(c.Args, fill(a, n, bindings))
		}
		return c
	case *tree.Parens:
		return &tree.Parens{Meta: synthetic, X: fill(n.X, n, bindings)}
	case *tree.Binary:
		return &tree.Binary{Meta: synthetic, Op: n.Op, X: fill(n.X, n, bindings), Y: fill(n.Y, n, bindings)}
	}
	panic(fmt.Sprintf("template: unexpected skeleton node %T", n))
}
