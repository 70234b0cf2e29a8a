package parse

import (
	"strings"

	"github.com/phobologic/jrewrite/internal/classpath"
	"github.com/phobologic/jrewrite/internal/tree"
)

// classInfo is a class declared in the unit being attributed.
type classInfo struct {
	typ    *tree.Type
	simple string
	decl   *tree.Generic
	outer  *classInfo
	nested map[string]*classInfo

	direct  []*tree.Type
	fields  map[string]*tree.Type
	methods map[string][]*tree.MethodType
	ctors   []*tree.MethodType

	supersDone bool
}

func newClassInfo(fqn, simple string, decl *tree.Generic, outer *classInfo) *classInfo {
	return &classInfo{
		typ:     &tree.Type{Name: fqn, Kind: tree.ClassType},
		simple:  simple,
		decl:    decl,
		outer:   outer,
		nested:  make(map[string]*classInfo),
		fields:  make(map[string]*tree.Type),
		methods: make(map[string][]*tree.MethodType),
	}
}

// env is the unit-wide part of name resolution.
type env struct {
	cp      *classpath.Classpath
	src     []byte
	pkg     string
	imports []tree.Import

	top   map[string]*classInfo
	byFQN map[string]*classInfo
	decls map[*tree.Generic]*classInfo
	bare  map[string]*tree.Type
}

func newEnv(cp *classpath.Classpath, src []byte, pkg string, imports []tree.Import) *env {
	return &env{
		cp:      cp,
		src:     src,
		pkg:     pkg,
		imports: imports,
		top:     make(map[string]*classInfo),
		byFQN:   make(map[string]*classInfo),
		decls:   make(map[*tree.Generic]*classInfo),
		bare:    make(map[string]*tree.Type),
	}
}

func (e *env) text(n tree.Node) string {
	s := n.Pos()
	if s.Start < 0 || s.End > len(e.src) || s.Start > s.End {
		return ""
	}
	return string(e.src[s.Start:s.End])
}

// class returns the type for a fully qualified class name known to the unit
// or the classpath.
func (e *env) class(fqn string) *tree.Type {
	if ci := e.byFQN[fqn]; ci != nil {
		return ci.typ
	}
	return e.cp.Type(fqn)
}

// bareClass returns a memberless type for a class that is named by an import
// but has no stub.
func (e *env) bareClass(fqn string) *tree.Type {
	if t := e.bare[fqn]; t != nil {
		return t
	}
	t := &tree.Type{Name: fqn, Kind: tree.ClassType}
	e.bare[fqn] = t
	return t
}

func (e *env) resolveSimple(name string) *tree.Type {
	if ci := e.top[name]; ci != nil {
		return ci.typ
	}
	for _, imp := range e.imports {
		if imp.Static || imp.Wildcard || lastSegment(imp.Path) != name {
			continue
		}
		if t := e.class(imp.Path); t != nil {
			return t
		}
		return e.bareClass(imp.Path)
	}
	// Types of the same package shadow every on-demand import, java.lang
	// included.
	if e.pkg != "" {
		if t := e.class(e.pkg + "." + name); t != nil {
			return t
		}
	}
	if t := e.cp.Type("java.lang." + name); t != nil {
		return t
	}
	for _, imp := range e.imports {
		if imp.Static || !imp.Wildcard {
			continue
		}
		if t := e.class(imp.Path + "." + name); t != nil {
			return t
		}
	}
	return nil
}

func (e *env) methodsOf(t *tree.Type, name string) []*tree.MethodType {
	return e.collectMethods(t, name, map[string]bool{})
}

func (e *env) collectMethods(t *tree.Type, name string, seen map[string]bool) []*tree.MethodType {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case tree.ArrayType:
		return e.cp.Methods(tree.ObjectName, name)
	case tree.ClassType:
	default:
		return nil
	}
	if seen[t.Name] {
		return nil
	}
	seen[t.Name] = true
	ci := e.byFQN[t.Name]
	if ci == nil {
		if ms := e.cp.Methods(t.Name, name); len(ms) > 0 {
			return ms
		}
		return e.cp.Methods(tree.ObjectName, name)
	}
	out := append([]*tree.MethodType(nil), ci.methods[name]...)
	for _, d := range ci.direct {
		out = append(out, e.collectMethods(d, name, seen)...)
	}
	if len(ci.direct) == 0 && !seen[tree.ObjectName] {
		seen[tree.ObjectName] = true
		out = append(out, e.cp.Methods(tree.ObjectName, name)...)
	}
	return out
}

func (e *env) fieldOf(t *tree.Type, name string) (*tree.Type, bool) {
	return e.findField(t, name, map[string]bool{})
}

func (e *env) findField(t *tree.Type, name string, seen map[string]bool) (*tree.Type, bool) {
	if t == nil {
		return nil, false
	}
	if t.Kind == tree.ArrayType {
		if name == "length" {
			return tree.Primitive("int"), true
		}
		return nil, false
	}
	if t.Kind != tree.ClassType || seen[t.Name] {
		return nil, false
	}
	seen[t.Name] = true
	ci := e.byFQN[t.Name]
	if ci == nil {
		f, ok := e.cp.Field(t.Name, name)
		return f.Type, ok
	}
	if ft, ok := ci.fields[name]; ok {
		return ft, true
	}
	for _, d := range ci.direct {
		if ft, ok := e.findField(d, name, seen); ok {
			return ft, true
		}
	}
	return nil, false
}

func (e *env) ctorsOf(t *tree.Type) []*tree.MethodType {
	if t == nil || t.Kind != tree.ClassType {
		return nil
	}
	if ci := e.byFQN[t.Name]; ci != nil {
		if len(ci.ctors) == 0 {
			return []*tree.MethodType{{Declaring: t, Name: tree.ConstructorName, Return: t}}
		}
		return ci.ctors
	}
	if c := e.cp.Class(t.Name); c != nil {
		return c.Constructors
	}
	return nil
}

func (e *env) staticImportField(name string) (*tree.Type, bool) {
	for _, imp := range e.imports {
		if !imp.Static {
			continue
		}
		owner := imp.Path
		if !imp.Wildcard {
			if lastSegment(imp.Path) != name {
				continue
			}
			owner = packageOf(imp.Path)
		}
		if t, ok := e.fieldOf(e.class(owner), name); ok {
			return t, true
		}
	}
	return nil, false
}

func (e *env) staticImportMethods(name string) []*tree.MethodType {
	var out []*tree.MethodType
	for _, imp := range e.imports {
		if !imp.Static {
			continue
		}
		owner := imp.Path
		if !imp.Wildcard {
			if lastSegment(imp.Path) != name {
				continue
			}
			owner = packageOf(imp.Path)
		}
		for _, m := range e.methodsOf(e.class(owner), name) {
			if m.Static {
				out = append(out, m)
			}
		}
	}
	return out
}

// Scope is a persistent lexical scope. Declaring a name returns a new Scope
// that shares its parent, so a Scope captured by a call stays valid while
// attribution continues past it.
type Scope struct {
	parent *Scope
	env    *env

	name  string
	typ   *tree.Type
	isVar bool

	class *classInfo
}

func (s *Scope) declare(name string, t *tree.Type) *Scope {
	return &Scope{parent: s, env: s.env, name: name, typ: t, isVar: true}
}

func (s *Scope) enter(ci *classInfo) *Scope {
	return &Scope{parent: s, env: s.env, class: ci}
}

// LookupVar implements tree.Scope.
func (s *Scope) LookupVar(name string) (*tree.Type, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.isVar && cur.name == name {
			return cur.typ, true
		}
		if cur.class != nil {
			if t, ok := s.env.fieldOf(cur.class.typ, name); ok {
				return t, true
			}
		}
	}
	return s.env.staticImportField(name)
}

// LookupType implements tree.Scope.
func (s *Scope) LookupType(name string) (*tree.Type, bool) {
	name = normalizeTypeName(name)
	if name == "" {
		return nil, false
	}
	if elem, ok := strings.CutSuffix(name, "[]"); ok {
		t, ok := s.LookupType(elem)
		return tree.ArrayOf(t), ok
	}
	if elem, ok := strings.CutSuffix(name, "..."); ok {
		t, ok := s.LookupType(elem)
		return tree.ArrayOf(t), ok
	}
	if p := tree.Primitive(name); p != nil {
		return p, true
	}
	if strings.Contains(name, ".") {
		t := s.qualified(name)
		return t, t != nil
	}
	for cur := s; cur != nil; cur = cur.parent {
		if cur.class == nil {
			continue
		}
		if ci := cur.class.nested[name]; ci != nil {
			return ci.typ, true
		}
		if cur.class.simple == name {
			return cur.class.typ, true
		}
	}
	t := s.env.resolveSimple(name)
	return t, t != nil
}

// qualified resolves a dotted type name, either fully qualified or a nested
// type reached from a simple name.
func (s *Scope) qualified(name string) *tree.Type {
	if t := s.env.class(name); t != nil {
		return t
	}
	first, rest, _ := strings.Cut(name, ".")
	outer, ok := s.LookupType(first)
	if !ok || outer.Kind != tree.ClassType {
		return nil
	}
	for _, seg := range strings.Split(rest, ".") {
		fqn := outer.Name + "." + seg
		outer = s.env.class(fqn)
		if outer == nil {
			return nil
		}
	}
	return outer
}

// LookupMethods implements tree.Scope.
func (s *Scope) LookupMethods(name string) []*tree.MethodType {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.class == nil {
			continue
		}
		if ms := s.env.methodsOf(cur.class.typ, name); len(ms) > 0 {
			return ms
		}
	}
	return s.env.staticImportMethods(name)
}

// Enclosing implements tree.Scope.
func (s *Scope) Enclosing() *tree.Type {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.class != nil {
			return cur.class.typ
		}
	}
	return nil
}

// normalizeTypeName drops type arguments and whitespace from a type as
// written in source: Map<String, List<X>>[] becomes Map[].
func normalizeTypeName(name string) string {
	var b strings.Builder
	depth := 0
	for _, r := range name {
		switch {
		case r == '<':
			depth++
		case r == '>':
			depth--
		case depth > 0, r == ' ', r == '\t', r == '\n', r == '\r':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func packageOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return ""
}
