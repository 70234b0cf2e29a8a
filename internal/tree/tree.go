// Package tree defines the syntax tree that rewrite rules operate on.
//
// The node set is closed: every node is one of the variants declared in this
// file. Nodes are never mutated once they are reachable from a published
// tree; a rewrite produces new nodes and shares untouched subtrees.
package tree

// Span is a half-open byte range [Start, End) in a unit's source text.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by s.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool { return s.Start <= o.Start && o.End <= s.End }

// Origin records where a node came from.
type Origin uint8

const (
	// Parsed nodes come from the unit's source text and print verbatim.
	Parsed Origin = iota
	// Synthesized nodes were produced by a template and print canonically.
	Synthesized
)

// Meta is embedded in every node.
type Meta struct {
	Span   Span
	Origin Origin
}

// Pos returns the source range of the node. For a synthesized replacement
// root it is the range of the node it replaced; for other synthesized nodes
// it is the zero Span.
func (m Meta) Pos() Span { return m.Span }

// Synthetic reports whether the node was produced by a template.
func (m Meta) Synthetic() bool { return m.Origin == Synthesized }

// Node is implemented by every syntax tree variant.
type Node interface {
	Pos() Span
	Synthetic() bool
	node()
}

// Generic is any construct the engine has no dedicated variant for. Its
// children are the construct's named children in source order; tokens that
// are not children (keywords, punctuation) live in the source gaps between
// them.
type Generic struct {
	Meta
	Kind   string
	Kids   []Node
	Fields []string // field name per kid, "" when the kid has none
}

// Field returns the first child recorded under the given field name.
func (g *Generic) Field(name string) Node {
	for i, f := range g.Fields {
		if f == name {
			return g.Kids[i]
		}
	}
	return nil
}

// FieldAll returns every child recorded under the given field name.
func (g *Generic) FieldAll(name string) []Node {
	var out []Node
	for i, f := range g.Fields {
		if f == name {
			out = append(out, g.Kids[i])
		}
	}
	return out
}

// Ident is a simple name in expression position.
type Ident struct {
	Meta
	Name string
	Type *Type
	// TypeName is set when the name denotes a type rather than a value,
	// as in the Locale of Locale.of(..).
	TypeName bool
}

// Literal is a literal constant.
type Literal struct {
	Meta
	Text string
	Type *Type
}

// TypeRef is a type name in type position, such as the class of an object
// creation expression.
type TypeRef struct {
	Meta
	Name string // as written, including any type arguments
	Type *Type
}

// FieldAccess is Target.Name.
type FieldAccess struct {
	Meta
	Target Node
	Name   string
	Type   *Type
	// TypeName is set when the whole access names a type, as in
	// java.util.Locale.
	TypeName bool
}

// MethodInvocation is [Select.]Name(Args...).
type MethodInvocation struct {
	Meta
	Select Node // nil for an unqualified call
	Name   string
	Args   []Node
	Method *MethodType
	Type   *Type
	Scope  Scope
}

// NewClass is [Outer.]new Class(Args...) [Body].
type NewClass struct {
	Meta
	Outer  Node // enclosing instance for inner class creation, usually nil
	Class  Node
	Args   []Node
	Body   Node // anonymous class body, usually nil
	Method *MethodType
	Type   *Type
	Scope  Scope
}

// Parens is (X).
type Parens struct {
	Meta
	X    Node
	Type *Type
}

// Binary is X Op Y.
type Binary struct {
	Meta
	Op   string
	X    Node
	Y    Node
	Type *Type
}

func (*Generic) node()          {}
func (*Ident) node()            {}
func (*Literal) node()          {}
func (*TypeRef) node()          {}
func (*FieldAccess) node()      {}
func (*MethodInvocation) node() {}
func (*NewClass) node()         {}
func (*Parens) node()           {}
func (*Binary) node()           {}

// Call is an invocation node: a method invocation or an object creation.
type Call interface {
	Node
	Arguments() []Node
	MethodType() *MethodType
	LexicalScope() Scope
}

func (n *MethodInvocation) Arguments() []Node       { return n.Args }
func (n *MethodInvocation) MethodType() *MethodType { return n.Method }
func (n *MethodInvocation) LexicalScope() Scope     { return n.Scope }

func (n *NewClass) Arguments() []Node       { return n.Args }
func (n *NewClass) MethodType() *MethodType { return n.Method }
func (n *NewClass) LexicalScope() Scope     { return n.Scope }

// TypeOf returns the static type of an expression node, or nil when it is
// unknown or the node is not an expression.
func TypeOf(n Node) *Type {
	switch n := n.(type) {
	case *Ident:
		if n.TypeName {
			return nil
		}
		return n.Type
	case *Literal:
		return n.Type
	case *FieldAccess:
		if n.TypeName {
			return nil
		}
		return n.Type
	case *MethodInvocation:
		return n.Type
	case *NewClass:
		return n.Type
	case *Parens:
		return n.Type
	case *Binary:
		return n.Type
	}
	return nil
}

// Scope resolves names visible at a point in a compilation unit.
type Scope interface {
	// LookupVar returns the type of a local variable, parameter or field.
	// The type may be nil when the variable is known but untyped.
	LookupVar(name string) (*Type, bool)
	// LookupType resolves a simple or qualified type name.
	LookupType(name string) (*Type, bool)
	// LookupMethods returns the methods an unqualified call by this name
	// may refer to.
	LookupMethods(name string) []*MethodType
	// Enclosing returns the innermost enclosing class, or nil.
	Enclosing() *Type
}

// NamedType returns the type a name node denotes when it is used as a type
// qualifier, as the Locale of Locale.of(..) is, or nil.
func NamedType(n Node) *Type {
	switch n := n.(type) {
	case *Ident:
		if n.TypeName {
			return n.Type
		}
	case *FieldAccess:
		if n.TypeName {
			return n.Type
		}
	case *TypeRef:
		return n.Type
	}
	return nil
}
