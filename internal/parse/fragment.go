package parse

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/jrewrite/internal/classpath"
	"github.com/phobologic/jrewrite/internal/lang"
	"github.com/phobologic/jrewrite/internal/tree"
)

const (
	fragmentPrefix = "class __Fragment { Object __x = "
	fragmentSuffix = "; }"
)

// Fragments parses and attributes freestanding expressions, such as the
// skeleton of a rewrite template. It is safe for concurrent use.
type Fragments struct {
	mu sync.Mutex
	ts *sitter.Parser
	cp *classpath.Classpath
}

// NewFragments returns a fragment frontend that resolves library types
// through cp.
func NewFragments(cp *classpath.Classpath) *Fragments {
	return &Fragments{ts: lang.Java().NewParser(), cp: cp}
}

// ParseExpr parses src as a single Java expression. The returned nodes are
// synthesized and carry spans relative to src.
func (f *Fragments) ParseExpr(src string) (tree.Node, error) {
	lead := len(src) - len(strings.TrimLeft(src, " \t\r\n"))
	body := strings.TrimSpace(src)
	text := []byte(fragmentPrefix + body + fragmentSuffix)
	shift := len(fragmentPrefix) - lead

	f.mu.Lock()
	defer f.mu.Unlock()

	ts, err := f.ts.ParseCtx(context.Background(), nil, text)
	if err != nil {
		return nil, err
	}
	defer ts.Close()

	root := ts.RootNode()
	if root.HasError() || body == "" {
		return nil, syntaxError("", root, shift)
	}
	value := fragmentValue(root)
	if value == nil || int(value.StartByte()) != len(fragmentPrefix) || int(value.EndByte()) != len(fragmentPrefix)+len(body) {
		return nil, fmt.Errorf("%w: not a single expression", &SyntaxError{Offset: lead})
	}
	conv := converter{src: text, shift: shift, origin: tree.Synthesized}
	return conv.node(value), nil
}

func fragmentValue(root *sitter.Node) *sitter.Node {
	if root.NamedChildCount() != 1 {
		return nil
	}
	class := root.NamedChild(0)
	body := class.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() != 1 {
		return nil
	}
	field := body.NamedChild(0)
	if field.Type() != "field_declaration" {
		return nil
	}
	decl := field.ChildByFieldName("declarator")
	if decl == nil {
		return nil
	}
	return decl.ChildByFieldName("value")
}

// Attribute types the synthesized nodes of n as if n were written at a
// point with scope sc, with the classes in imports visible by simple name.
// Parsed nodes inside n are left as they are. It fails when an import is
// shadowed at that point by a different type or a variable of the same
// name.
func (f *Fragments) Attribute(n tree.Node, sc tree.Scope, imports []string) (tree.Node, error) {
	e := newEnv(f.cp, nil, "", nil)
	if s, ok := sc.(*Scope); ok {
		e = s.env
	}
	if sc == nil {
		sc = e.root()
	}
	visible := make(map[string]*tree.Type, len(imports))
	for _, fqn := range imports {
		simple := lastSegment(fqn)
		want := e.class(fqn)
		if want == nil {
			want = e.bareClass(fqn)
		}
		if _, ok := sc.LookupVar(simple); ok {
			return nil, fmt.Errorf("%s is shadowed by a variable named %s", fqn, simple)
		}
		if got, ok := sc.LookupType(simple); ok && got.Name != fqn {
			return nil, fmt.Errorf("%s conflicts with %s", fqn, got.Name)
		}
		visible[simple] = want
	}
	a := &attributer{env: e, synthOnly: true}
	a.expr(n, importScope{Scope: sc, imports: visible})
	return n, nil
}

// importScope makes extra classes visible by simple name.
type importScope struct {
	tree.Scope
	imports map[string]*tree.Type
}

func (s importScope) LookupType(name string) (*tree.Type, bool) {
	if t := s.imports[normalizeTypeName(name)]; t != nil {
		return t, true
	}
	return s.Scope.LookupType(name)
}
