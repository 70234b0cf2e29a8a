// Package parse turns Java source into attributed syntax trees using
// tree-sitter.
package parse

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/jrewrite/internal/classpath"
	"github.com/phobologic/jrewrite/internal/lang"
	"github.com/phobologic/jrewrite/internal/tree"
)

// ErrSyntax is wrapped by every error caused by malformed source.
var ErrSyntax = errors.New("syntax error")

// SyntaxError locates the first error node tree-sitter reported.
type SyntaxError struct {
	Path   string
	Line   int // 1-based
	Column int // 1-based
	Offset int // byte offset in the parsed text
}

func (e *SyntaxError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("syntax error at offset %d", e.Offset)
	}
	return fmt.Sprintf("%s:%d:%d: syntax error", e.Path, e.Line, e.Column)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// SourceOffset returns the byte offset of the error in the parsed text.
func (e *SyntaxError) SourceOffset() int { return e.Offset }

// Parser parses compilation units. It owns a tree-sitter parser and is not
// safe for concurrent use; create one per goroutine.
type Parser struct {
	ts     *sitter.Parser
	header *sitter.Query
	cp     *classpath.Classpath
}

// New creates a Parser that resolves library types through cp.
func New(cp *classpath.Classpath) (*Parser, error) {
	l := lang.Java()
	q, err := l.HeaderQuery()
	if err != nil {
		return nil, err
	}
	return &Parser{ts: l.NewParser(), header: q, cp: cp}, nil
}

// ParseUnit parses and attributes one source file. version is the unit's
// effective language level and may be nil.
func (p *Parser) ParseUnit(ctx context.Context, path string, src []byte, version *semver.Version) (*tree.Unit, error) {
	ts, err := p.ts.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer ts.Close()

	root := ts.RootNode()
	if root.HasError() {
		return nil, syntaxError(path, root, 0)
	}

	pkg, pkgSpan, imports := p.extractHeader(root, src)

	conv := converter{src: src}
	program := conv.node(root)

	e := newEnv(p.cp, src, pkg, imports)
	e.declareClasses(program, nil)
	e.completeClasses()
	(&attributer{env: e}).unit(program)

	u := tree.NewUnit(path, src, program)
	u.Package = pkg
	u.PackageSpan = pkgSpan
	u.Imports = imports
	u.Version = version
	return u, nil
}

// extractHeader reads the package and import declarations with the
// language's header query.
func (p *Parser) extractHeader(root *sitter.Node, src []byte) (string, tree.Span, []tree.Import) {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(p.header, root)

	var (
		pkg     string
		pkgSpan tree.Span
		imports []tree.Import
	)
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		var decl, name *sitter.Node
		var kind string
		for _, c := range match.Captures {
			switch cname := p.header.CaptureNameForId(c.Index); cname {
			case "package", "import":
				decl, kind = c.Node, cname
			case "package.name", "import.path":
				name = c.Node
			}
		}
		if decl == nil || name == nil {
			continue
		}
		span := tree.Span{Start: int(decl.StartByte()), End: int(decl.EndByte())}
		text := lang.CollapseWhitespace(lang.NodeText(name, src))
		switch kind {
		case "package":
			pkg, pkgSpan = text, span
		case "import":
			imports = append(imports, tree.Import{
				Path:     text,
				Static:   lang.HasKeyword(decl, "static"),
				Wildcard: lang.IsWildcard(decl),
				Span:     span,
			})
		}
	}
	return pkg, pkgSpan, imports
}

func syntaxError(path string, root *sitter.Node, shift int) *SyntaxError {
	n := firstError(root)
	if n == nil {
		n = root
	}
	pt := n.StartPoint()
	return &SyntaxError{
		Path:   path,
		Line:   int(pt.Row) + 1,
		Column: int(pt.Column) + 1,
		Offset: max(int(n.StartByte())-shift, 0),
	}
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsMissing() || n.Type() == "ERROR" {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if e := firstError(n.Child(i)); e != nil {
			return e
		}
	}
	return nil
}
