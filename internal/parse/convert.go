package parse

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/jrewrite/internal/tree"
)

var literalKinds = map[string]bool{
	"decimal_integer_literal":        true,
	"hex_integer_literal":            true,
	"octal_integer_literal":          true,
	"binary_integer_literal":         true,
	"decimal_floating_point_literal": true,
	"hex_floating_point_literal":     true,
	"true":                           true,
	"false":                          true,
	"character_literal":              true,
	"string_literal":                 true,
	"text_block":                     true,
	"null_literal":                   true,
}

var typeKinds = map[string]bool{
	"type_identifier":        true,
	"scoped_type_identifier": true,
	"generic_type":           true,
	"array_type":             true,
	"integral_type":          true,
	"floating_point_type":    true,
	"boolean_type":           true,
	"void_type":              true,
}

func isComment(n *sitter.Node) bool {
	switch n.Type() {
	case "line_comment", "block_comment", "comment":
		return true
	}
	return false
}

// converter turns a tree-sitter CST into tree nodes. Only named children are
// kept; keywords and punctuation stay in the source gaps.
type converter struct {
	src    []byte
	shift  int // subtracted from byte offsets
	origin tree.Origin
}

func (c *converter) meta(n *sitter.Node) tree.Meta {
	return tree.Meta{
		Span:   tree.Span{Start: int(n.StartByte()) - c.shift, End: int(n.EndByte()) - c.shift},
		Origin: c.origin,
	}
}

func (c *converter) text(n *sitter.Node) string {
	return string(c.src[n.StartByte():n.EndByte()])
}

func (c *converter) node(n *sitter.Node) tree.Node {
	kind := n.Type()
	switch {
	case kind == "identifier":
		return &tree.Ident{Meta: c.meta(n), Name: c.text(n)}
	case literalKinds[kind]:
		return &tree.Literal{Meta: c.meta(n), Text: c.text(n)}
	case typeKinds[kind]:
		return &tree.TypeRef{Meta: c.meta(n), Name: c.text(n)}
	}

	switch kind {
	case "field_access":
		obj, field := n.ChildByFieldName("object"), n.ChildByFieldName("field")
		if obj != nil && field != nil {
			return &tree.FieldAccess{Meta: c.meta(n), Target: c.node(obj), Name: c.text(field)}
		}
	case "method_invocation":
		name := n.ChildByFieldName("name")
		if name == nil {
			break
		}
		call := &tree.MethodInvocation{Meta: c.meta(n), Name: c.text(name)}
		if obj := n.ChildByFieldName("object"); obj != nil {
			call.Select = c.node(obj)
		}
		call.Args = c.arguments(n.ChildByFieldName("arguments"))
		return call
	case "object_creation_expression":
		return c.newClass(n)
	case "parenthesized_expression":
		if x := c.firstNamed(n); x != nil {
			return &tree.Parens{Meta: c.meta(n), X: c.node(x)}
		}
	case "binary_expression":
		left, op, right := n.ChildByFieldName("left"), n.ChildByFieldName("operator"), n.ChildByFieldName("right")
		if left != nil && op != nil && right != nil {
			return &tree.Binary{Meta: c.meta(n), Op: op.Type(), X: c.node(left), Y: c.node(right)}
		}
	}
	return c.generic(n)
}

func (c *converter) generic(n *sitter.Node) *tree.Generic {
	g := &tree.Generic{Meta: c.meta(n), Kind: n.Type()}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if !child.IsNamed() || isComment(child) {
			continue
		}
		g.Kids = append(g.Kids, c.node(child))
		g.Fields = append(g.Fields, n.FieldNameForChild(i))
	}
	return g
}

func (c *converter) newClass(n *sitter.Node) tree.Node {
	nc := &tree.NewClass{Meta: c.meta(n)}
	seenNew := false
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch {
		case !child.IsNamed():
			if child.Type() == "new" {
				seenNew = true
			}
		case isComment(child):
		case !seenNew:
			nc.Outer = c.node(child)
		case child.Type() == "class_body":
			nc.Body = c.node(child)
		}
	}
	if t := n.ChildByFieldName("type"); t != nil {
		nc.Class = c.node(t)
	}
	nc.Args = c.arguments(n.ChildByFieldName("arguments"))
	return nc
}

func (c *converter) arguments(list *sitter.Node) []tree.Node {
	if list == nil {
		return nil
	}
	var args []tree.Node
	for i := 0; i < int(list.NamedChildCount()); i++ {
		child := list.NamedChild(i)
		if isComment(child) {
			continue
		}
		args = append(args, c.node(child))
	}
	return args
}

func (c *converter) firstNamed(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); !isComment(child) {
			return child
		}
	}
	return nil
}
