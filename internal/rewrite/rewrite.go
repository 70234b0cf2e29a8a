// Package rewrite replaces calls matching a signature pattern with
// instantiated templates, bottom-up.
package rewrite

import (
	"bytes"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/phobologic/jrewrite/internal/signature"
	"github.com/phobologic/jrewrite/internal/template"
	"github.com/phobologic/jrewrite/internal/tree"
)

// Touch records one substitution for the formatter.
type Touch struct {
	Span    tree.Span // span of the replaced call in the original source
	Imports []string  // classes the replacement refers to by simple name
	Rule    string
}

// Visitor rewrites one tree. A Visitor is cheap to build and is used for a
// single traversal.
type Visitor struct {
	Rule    string
	Pattern *signature.Pattern
	// Template returns the compiled template for a call with the given
	// number of arguments.
	Template func(arity int) (*template.Template, error)
	Builder  *template.Builder
	Logger   logrus.FieldLogger
	// Source is the unit's text, used to report line numbers. Optional.
	Source []byte
}

// Visit rewrites every matching call under root. Children are rewritten
// before their parent, so a parent's bindings are its rewritten arguments.
// When nothing matches, the returned root is root itself.
func (v *Visitor) Visit(root tree.Node) (tree.Node, []Touch) {
	var touches []Touch
	var visit func(tree.Node) tree.Node
	visit = func(n tree.Node) tree.Node {
		n = tree.Map(n, visit)
		call, ok := n.(tree.Call)
		if !ok || !signature.Matches(v.Pattern, call) {
			return n
		}
		repl, imports, ok := v.replace(call)
		if !ok {
			return n
		}
		touches = append(touches, Touch{Span: n.Pos(), Imports: imports, Rule: v.Rule})
		return repl
	}
	return visit(root), touches
}

func (v *Visitor) replace(call tree.Call) (tree.Node, []string, bool) {
	n := call.(tree.Node)
	args := call.Arguments()
	log := v.logger().WithFields(logrus.Fields{"rule": v.Rule, "line": v.line(n.Pos().Start)})

	t, err := v.Template(len(args))
	if err != nil {
		log.WithError(err).Warn("no template for call")
		return nil, nil, false
	}

	m := call.MethodType()
	bindings := make([]template.Binding, len(args))
	for i, a := range args {
		typ := tree.TypeOf(a)
		if typ == nil {
			typ = m.ParamFor(i, len(args))
		}
		bindings[i] = template.Binding{Expr: a, Type: typ}
	}

	repl, err := v.Builder.Instantiate(t, bindings, template.Insertion{Span: n.Pos(), Scope: call.LexicalScope()})
	if err != nil {
		var ie *template.InstantiateError
		if errors.As(err, &ie) && ie.Slot >= 0 {
			log = log.WithField("slot", ie.Slot)
		}
		log.WithError(err).Warn("leaving call unchanged")
		return nil, nil, false
	}
	return repl, t.Imports, true
}

func (v *Visitor) logger() logrus.FieldLogger {
	if v.Logger == nil {
		return logrus.StandardLogger()
	}
	return v.Logger
}

func (v *Visitor) line(off int) int {
	if v.Source == nil || off > len(v.Source) {
		return 0
	}
	return bytes.Count(v.Source[:off], []byte{'\n'}) + 1
}
