// Package signature matches calls against method patterns such as
//
//	java.util.Locale <constructor>(String, ..)
//	java.lang.String format(String, Object...)
//	java.util.* get*(*)
//
// A pattern is an owner type, a member name and a parameter list. Owner,
// name and parameter types may contain * globs; a .. in a package matches
// any number of segments. The parameter list may end in .. (any number of
// arguments of any type) or T... (any number of arguments of type T).
package signature

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/jrewrite/internal/tree"
)

// TypePattern matches one parameter type.
type TypePattern struct {
	Text string // qualified pattern text
	Any  bool   // * or ..
	re   *regexp.Regexp
}

// Accepts reports whether t satisfies the pattern. Only a wildcard accepts
// an unresolved type.
func (tp TypePattern) Accepts(t *tree.Type) bool {
	if tp.Any {
		return true
	}
	if t == nil {
		return false
	}
	if tp.re != nil {
		return tp.re.MatchString(t.String())
	}
	return tp.Text == t.String()
}

// Pattern is a parsed method pattern. It is immutable.
type Pattern struct {
	Owner  TypePattern
	Name   string
	Params []TypePattern
	// Variadic is the tail pattern, nil when the parameter list is fixed.
	Variadic *TypePattern
	// MatchOverrides also accepts methods whose declaring type is a
	// subtype of the owner.
	MatchOverrides bool

	text   string
	nameRe *regexp.Regexp
}

// Parse reads a method pattern.
func Parse(text string) (*Pattern, error) {
	text = strings.TrimSpace(text)
	open := strings.IndexByte(text, '(')
	if open < 0 || !strings.HasSuffix(text, ")") {
		return nil, fmt.Errorf("pattern %q: missing parameter list", text)
	}
	head := strings.Fields(text[:open])
	if len(head) != 2 {
		return nil, fmt.Errorf("pattern %q: want \"<owner> <name>(<params>)\"", text)
	}
	owner, err := parseType(head[0])
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", text, err)
	}
	p := &Pattern{Owner: owner, Name: head[1]}
	switch {
	case p.Name == tree.ConstructorName:
	case strings.Contains(p.Name, "*"):
		p.nameRe = regexp.MustCompile("^" + strings.ReplaceAll(regexp.QuoteMeta(p.Name), `\*`, ".*") + "$")
	case !isIdent(p.Name):
		return nil, fmt.Errorf("pattern %q: bad method name %q", text, p.Name)
	}

	inner := strings.TrimSpace(text[open+1 : len(text)-1])
	if inner != "" {
		parts := strings.Split(inner, ",")
		for i, part := range parts {
			part = strings.TrimSpace(part)
			last := i == len(parts)-1
			switch {
			case part == "..":
				if !last {
					return nil, fmt.Errorf("pattern %q: .. must be the last parameter", text)
				}
				p.Variadic = &TypePattern{Text: "..", Any: true}
			case strings.HasSuffix(part, "..."):
				if !last {
					return nil, fmt.Errorf("pattern %q: varargs must be the last parameter", text)
				}
				elem, err := parseType(strings.TrimSuffix(part, "..."))
				if err != nil {
					return nil, fmt.Errorf("pattern %q: %w", text, err)
				}
				p.Variadic = &elem
			default:
				tp, err := parseType(part)
				if err != nil {
					return nil, fmt.Errorf("pattern %q: %w", text, err)
				}
				p.Params = append(p.Params, tp)
			}
		}
	}
	p.text = p.render()
	return p, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string) *Pattern {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return p
}

var primitiveNames = map[string]bool{
	"boolean": true, "byte": true, "short": true, "char": true,
	"int": true, "long": true, "float": true, "double": true, "void": true,
}

func parseType(s string) (TypePattern, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypePattern{}, fmt.Errorf("empty type")
	}
	if s == "*" {
		return TypePattern{Text: "*", Any: true}, nil
	}
	dims := ""
	for strings.HasSuffix(s, "[]") {
		s = strings.TrimSuffix(s, "[]")
		dims += "[]"
	}
	for _, r := range s {
		if !(r == '.' || r == '*' || r == '_' || r == '$' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r > 0x7f) {
			return TypePattern{}, fmt.Errorf("bad type %q", s+dims)
		}
	}
	if !strings.Contains(s, ".") && !strings.Contains(s, "*") && !primitiveNames[s] {
		s = "java.lang." + s
	}
	tp := TypePattern{Text: s + dims}
	if strings.Contains(s, "*") || strings.Contains(s, "..") {
		tp.re = regexp.MustCompile("^" + globToRegexp(s) + regexp.QuoteMeta(dims) + "$")
	}
	return tp, nil
}

// globToRegexp translates a type glob: * matches within one segment and
// a .. matches any run of whole segments.
func globToRegexp(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch {
		case strings.HasPrefix(s[i:], ".."):
			b.WriteString(`\.(?:[^.]+\.)*`)
			i++
		case s[i] == '*':
			b.WriteString(`[^.]*`)
		default:
			b.WriteString(regexp.QuoteMeta(s[i : i+1]))
		}
	}
	return b.String()
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

func (p *Pattern) render() string {
	var b strings.Builder
	b.WriteString(p.Owner.Text)
	b.WriteByte(' ')
	b.WriteString(p.Name)
	b.WriteByte('(')
	for i, tp := range p.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(tp.Text)
	}
	if p.Variadic != nil {
		if len(p.Params) > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Variadic.Text)
		if !p.Variadic.Any {
			b.WriteString("...")
		}
	}
	b.WriteByte(')')
	return b.String()
}

// String returns the canonical pattern text.
func (p *Pattern) String() string { return p.text }

// IsConstructor reports whether the pattern names constructors.
func (p *Pattern) IsConstructor() bool { return p.Name == tree.ConstructorName }

func (p *Pattern) nameMatches(name string) bool {
	if p.nameRe != nil {
		return p.nameRe.MatchString(name)
	}
	return p.Name == name
}

func (p *Pattern) ownerMatches(t *tree.Type) bool {
	if t == nil {
		return false
	}
	if p.Owner.Accepts(t) {
		return true
	}
	if !p.MatchOverrides {
		return false
	}
	for _, s := range t.Supers {
		if p.Owner.Accepts(&tree.Type{Name: s, Kind: tree.ClassType}) {
			return true
		}
	}
	return false
}

// Matches reports whether call invokes a method described by p. Unresolved
// calls never match.
func Matches(p *Pattern, call tree.Call) bool {
	m := call.MethodType()
	if m == nil {
		return false
	}
	_, isNew := call.(*tree.NewClass)
	args := call.Arguments()
	return p.match(m, isNew, len(args), func(i int) *tree.Type {
		if len(m.Params) == 0 {
			return tree.TypeOf(args[i])
		}
		if t := m.ParamFor(i, len(args)); t != nil {
			return t
		}
		return tree.TypeOf(args[i])
	})
}

// MatchesMethod reports whether a call of the given arity to m would match
// p, judging argument types by m's declared parameters.
func MatchesMethod(p *Pattern, m *tree.MethodType, isConstructor bool, arity int) bool {
	if m == nil {
		return false
	}
	return p.match(m, isConstructor, arity, func(i int) *tree.Type { return m.ParamFor(i, arity) })
}

func (p *Pattern) match(m *tree.MethodType, isConstructor bool, arity int, argType func(int) *tree.Type) bool {
	if p.IsConstructor() {
		if !isConstructor || !m.IsConstructor() {
			return false
		}
	} else if isConstructor || !p.nameMatches(m.Name) {
		return false
	}
	if !p.ownerMatches(m.Declaring) {
		return false
	}
	if p.Variadic == nil {
		if arity != len(p.Params) {
			return false
		}
	} else if arity < len(p.Params) {
		return false
	}
	for i := 0; i < arity; i++ {
		tp := p.Variadic
		if i < len(p.Params) {
			tp = &p.Params[i]
		}
		if !tp.Accepts(argType(i)) {
			return false
		}
	}
	return true
}
