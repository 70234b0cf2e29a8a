// Package lang wraps the tree-sitter Java grammar and the embedded query
// for package and import declarations.
package lang

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

//go:embed queries/java.scm
var headerQuery []byte

// Extension is the file extension of Java sources.
const Extension = ".java"

var whitespaceRe = regexp.MustCompile(`\s+`)

// Language holds the tree-sitter grammar and its compiled header query.
type Language struct {
	lang      *sitter.Language
	queryOnce sync.Once
	query     *sitter.Query
	queryErr  error
}

var javaLang = &Language{lang: java.GetLanguage()}

// Java returns the Java language configuration.
func Java() *Language {
	return javaLang
}

// IsSource reports whether path names a Java source file.
func IsSource(path string) bool {
	return filepath.Ext(path) == Extension
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// HeaderQuery returns the compiled query for package and import
// declarations. It is safe to share across goroutines; cursors are not.
func (l *Language) HeaderQuery() (*sitter.Query, error) {
	l.queryOnce.Do(func() {
		q, err := sitter.NewQuery(headerQuery, l.lang)
		if err != nil {
			l.queryErr = fmt.Errorf("compiling query: %w", err)
			return
		}
		l.query = q
	})
	return l.query, l.queryErr
}

// HasKeyword scans the anonymous tokens of a declaration. The static of
// "import static a.B.c;" is an unnamed child of import_declaration.
func HasKeyword(node *sitter.Node, keyword string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if !child.IsNamed() && child.Type() == keyword {
			return true
		}
	}
	return false
}

// IsWildcard reports whether an import declaration ends in .*.
func IsWildcard(node *sitter.Node) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "asterisk" {
			return true
		}
	}
	return false
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
