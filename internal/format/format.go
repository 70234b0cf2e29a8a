// Package format prints rewritten trees back to Java source. Parsed nodes
// keep their original text; synthesized nodes print in canonical form.
package format

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/phobologic/jrewrite/internal/rewrite"
	"github.com/phobologic/jrewrite/internal/tree"
)

// Printer implements recipe.Formatter. It has no state and is safe for
// concurrent use.
type Printer struct{}

// Format prints root, which must be derived from u.Root, and adds the
// imports the touches require.
func (Printer) Format(u *tree.Unit, root tree.Node, touches []rewrite.Touch) ([]byte, error) {
	p := &printer{src: u.Source, touches: spans(touches)}
	whole := root.Pos()
	p.buf.Write(u.Source[:whole.Start])
	if err := p.node(root); err != nil {
		return nil, err
	}
	p.buf.Write(u.Source[whole.End:])
	out := p.buf.Bytes()

	imports := MissingImports(u, touches)
	if len(imports) == 0 {
		return out, nil
	}
	at, text := importInsertion(u, imports)
	if len(p.touches) > 0 && at > p.touches[0].Start {
		return nil, fmt.Errorf("%s: rewrite overlaps the import section", u.Path)
	}
	// Everything before the first touch was copied verbatim, so at is
	// still a valid offset into out.
	return append(out[:at:at], append([]byte(text), out[at:]...)...), nil
}

// MissingImports returns, sorted, the classes the touches refer to that u
// does not already make visible.
func MissingImports(u *tree.Unit, touches []rewrite.Touch) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range touches {
		for _, fqn := range t.Imports {
			if seen[fqn] || u.Imported(fqn) {
				continue
			}
			seen[fqn] = true
			out = append(out, fqn)
		}
	}
	sort.Strings(out)
	return out
}

func importInsertion(u *tree.Unit, imports []string) (int, string) {
	var b strings.Builder
	switch {
	case len(u.Imports) > 0:
		last := u.Imports[len(u.Imports)-1]
		for _, imp := range imports {
			b.WriteString("\nimport " + imp + ";")
		}
		return last.Span.End, b.String()
	case u.PackageSpan.Len() > 0:
		b.WriteString("\n")
		for _, imp := range imports {
			b.WriteString("\nimport " + imp + ";")
		}
		return u.PackageSpan.End, b.String()
	default:
		for _, imp := range imports {
			b.WriteString("import " + imp + ";\n")
		}
		b.WriteString("\n")
		return 0, b.String()
	}
}

func spans(touches []rewrite.Touch) []tree.Span {
	out := make([]tree.Span, len(touches))
	for i, t := range touches {
		out[i] = t.Span
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End > out[j].End
	})
	return out
}

type printer struct {
	src     []byte
	touches []tree.Span // sorted by start, widest first
	buf     bytes.Buffer
}

func (p *printer) node(n tree.Node) error {
	if n.Synthetic() {
		return p.synth(n)
	}
	return p.parsed(n)
}

// parsed copies n's source, reprinting the children that changed.
func (p *printer) parsed(n tree.Node) error {
	outer := n.Pos()
	pos := outer.Start
	for _, c := range tree.Children(n) {
		span := p.region(c, outer, pos)
		if span.Start < pos || span.End > outer.End {
			return fmt.Errorf("child %T at %v out of order in %v", c, span, outer)
		}
		p.buf.Write(p.src[pos:span.Start])
		if err := p.node(c); err != nil {
			return err
		}
		pos = span.End
	}
	p.buf.Write(p.src[pos:outer.End])
	return nil
}

// region returns the source range child c occupies in its parent. It is
// c's own span unless c is a parsed node that replaced a larger call, in
// which case it is the outermost replaced span around c.
func (p *printer) region(c tree.Node, parent tree.Span, pos int) tree.Span {
	span := c.Pos()
	if c.Synthetic() {
		return span
	}
	for _, t := range p.touches {
		if t.Start > span.Start {
			break
		}
		if t.Start >= pos && t != parent && parent.Contains(t) && t.Contains(span) && t != span {
			return t
		}
	}
	return span
}

// synth prints n canonically.
func (p *printer) synth(n tree.Node) error {
	switch n := n.(type) {
	case *tree.Ident:
		p.buf.WriteString(n.Name)
	case *tree.Literal:
		p.buf.WriteString(n.Text)
	case *tree.TypeRef:
		p.buf.WriteString(n.Name)
	case *tree.FieldAccess:
		if err := p.node(n.Target); err != nil {
			return err
		}
		p.buf.WriteString("." + n.Name)
	case *tree.MethodInvocation:
		if n.Select != nil {
			if err := p.node(n.Select); err != nil {
				return err
			}
			p.buf.WriteByte('.')
		}
		p.buf.WriteString(n.Name)
		return p.args(n.Args)
	case *tree.NewClass:
		if n.Outer != nil {
			if err := p.node(n.Outer); err != nil {
				return err
			}
			p.buf.WriteByte('.')
		}
		p.buf.WriteString("new ")
		if err := p.node(n.Class); err != nil {
			return err
		}
		return p.args(n.Args)
	case *tree.Parens:
		p.buf.WriteByte('(')
		if err := p.node(n.X); err != nil {
			return err
		}
		p.buf.WriteByte(')')
	case *tree.Binary:
		if err := p.node(n.X); err != nil {
			return err
		}
		p.buf.WriteString(" " + n.Op + " ")
		return p.node(n.Y)
	default:
		return fmt.Errorf("cannot print synthesized %T", n)
	}
	return nil
}

func (p *printer) args(args []tree.Node) error {
	p.buf.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			p.buf.WriteString(p.separator(args[i-1], a))
		}
		if err := p.node(a); err != nil {
			return err
		}
	}
	p.buf.WriteByte(')')
	return nil
}

// separator returns the text printed between two arguments. When both
// were parsed and sat next to each other in the source, and the original
// separator holds a comment, that separator is kept.
func (p *printer) separator(prev, next tree.Node) string {
	if prev.Synthetic() || next.Synthetic() {
		return ", "
	}
	start, end := prev.Pos().End, next.Pos().Start
	if start > end || start < 0 || end > len(p.src) {
		return ", "
	}
	gap := p.src[start:end]
	if !bytes.Contains(gap, []byte("//")) && !bytes.Contains(gap, []byte("/*")) {
		return ", "
	}
	if !isSeparator(gap) {
		return ", "
	}
	return string(gap)
}

// isSeparator reports whether gap is a single comma surrounded only by
// whitespace and comments.
func isSeparator(gap []byte) bool {
	commas := 0
	for i := 0; i < len(gap); {
		switch {
		case bytes.HasPrefix(gap[i:], []byte("//")):
			nl := bytes.IndexByte(gap[i:], '\n')
			if nl < 0 {
				// A line comment must end before the next argument.
				return false
			}
			i += nl + 1
		case bytes.HasPrefix(gap[i:], []byte("/*")):
			end := bytes.Index(gap[i+2:], []byte("*/"))
			if end < 0 {
				return false
			}
			i += 2 + end + 2
		case gap[i] == ',':
			commas++
			i++
		case gap[i] == ' ' || gap[i] == '\t' || gap[i] == '\n' || gap[i] == '\r' || gap[i] == '\f':
			i++
		default:
			return false
		}
	}
	return commas == 1
}
