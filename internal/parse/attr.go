package parse

import (
	"strings"

	"github.com/phobologic/jrewrite/internal/tree"
)

var classDeclKinds = map[string]bool{
	"class_declaration":     true,
	"interface_declaration": true,
	"enum_declaration":      true,
	"record_declaration":    true,
}

// declareClasses registers every class declared under n. Classes nested in
// a class body, and local classes in its methods, are registered as members
// of the closest enclosing class.
func (e *env) declareClasses(n tree.Node, outer *classInfo) {
	g, ok := n.(*tree.Generic)
	if !ok {
		for _, c := range tree.Children(n) {
			e.declareClasses(c, outer)
		}
		return
	}
	if classDeclKinds[g.Kind] {
		if id, ok := g.Field("name").(*tree.Ident); ok {
			fqn := id.Name
			switch {
			case outer != nil:
				fqn = outer.typ.Name + "." + id.Name
			case e.pkg != "":
				fqn = e.pkg + "." + id.Name
			}
			ci := newClassInfo(fqn, id.Name, g, outer)
			if outer == nil {
				e.top[id.Name] = ci
			} else {
				outer.nested[id.Name] = ci
			}
			e.byFQN[fqn] = ci
			e.decls[g] = ci
			outer = ci
		}
	}
	for _, c := range g.Kids {
		e.declareClasses(c, outer)
	}
}

func (e *env) root() *Scope { return &Scope{env: e} }

// classScope returns the scope inside the body of ci.
func (e *env) classScope(ci *classInfo) *Scope {
	if ci.outer == nil {
		return e.root().enter(ci)
	}
	return e.classScope(ci.outer).enter(ci)
}

// completeClasses resolves supertypes and members of every unit class.
func (e *env) completeClasses() {
	for _, ci := range e.byFQN {
		e.completeSupers(ci, map[*classInfo]bool{})
	}
	for _, ci := range e.byFQN {
		e.collectMembers(ci)
	}
}

func (e *env) completeSupers(ci *classInfo, visiting map[*classInfo]bool) {
	if ci.supersDone || visiting[ci] {
		return
	}
	visiting[ci] = true
	sc := e.classScope(ci)
	var names []tree.Node
	for _, field := range []string{"superclass", "interfaces"} {
		if n := ci.decl.Field(field); n != nil {
			names = append(names, typeRefs(n)...)
		}
	}
	for _, k := range ci.decl.Kids {
		if g, ok := k.(*tree.Generic); ok && g.Kind == "extends_interfaces" {
			names = append(names, typeRefs(g)...)
		}
	}
	seen := map[string]bool{}
	var supers []string
	add := func(name string) {
		if !seen[name] && name != ci.typ.Name {
			seen[name] = true
			supers = append(supers, name)
		}
	}
	for _, n := range names {
		tr := n.(*tree.TypeRef)
		t, ok := sc.LookupType(tr.Name)
		if !ok || t.Kind != tree.ClassType {
			continue
		}
		tr.Type = t
		if sup := e.byFQN[t.Name]; sup != nil {
			e.completeSupers(sup, visiting)
		}
		ci.direct = append(ci.direct, t)
		add(t.Name)
		for _, s := range t.Supers {
			add(s)
		}
	}
	switch ci.decl.Kind {
	case "enum_declaration":
		add("java.lang.Enum")
		add("java.lang.Comparable")
		add("java.io.Serializable")
	case "record_declaration":
		add("java.lang.Record")
	}
	ci.typ.Supers = supers
	ci.supersDone = true
}

func typeRefs(n tree.Node) []tree.Node {
	var out []tree.Node
	tree.Inspect(n, func(n tree.Node) bool {
		if _, ok := n.(*tree.TypeRef); ok {
			out = append(out, n)
			return false
		}
		return true
	})
	return out
}

func (e *env) collectMembers(ci *classInfo) {
	sc := e.classScope(ci)
	if ci.decl.Kind == "record_declaration" {
		params := e.params(ci.decl.Field("parameters"), sc)
		ctor := &tree.MethodType{Declaring: ci.typ, Name: tree.ConstructorName, Return: ci.typ}
		for _, p := range params {
			ci.fields[p.name] = p.typ
			ci.methods[p.name] = append(ci.methods[p.name], &tree.MethodType{Declaring: ci.typ, Name: p.name, Return: p.typ})
			ctor.Params = append(ctor.Params, p.typ)
		}
		ci.ctors = append(ci.ctors, ctor)
	}
	body, _ := ci.decl.Field("body").(*tree.Generic)
	if body == nil {
		return
	}
	for _, m := range members(body) {
		g, ok := m.(*tree.Generic)
		if !ok {
			continue
		}
		switch g.Kind {
		case "field_declaration", "constant_declaration":
			t := e.typeOf(g.Field("type"), sc)
			for _, d := range g.FieldAll("declarator") {
				if name := declaratorName(d); name != "" {
					ci.fields[name] = t
				}
			}
		case "enum_constant":
			if id, ok := g.Field("name").(*tree.Ident); ok {
				ci.fields[id.Name] = ci.typ
			}
		case "method_declaration":
			id, ok := g.Field("name").(*tree.Ident)
			if !ok {
				continue
			}
			mt := &tree.MethodType{
				Declaring: ci.typ,
				Name:      id.Name,
				Return:    e.typeOf(g.Field("type"), sc),
				Static:    e.hasModifier(g, "static"),
			}
			e.signature(mt, g.Field("parameters"), sc)
			ci.methods[id.Name] = append(ci.methods[id.Name], mt)
		case "constructor_declaration", "compact_constructor_declaration":
			if g.Kind == "compact_constructor_declaration" {
				continue
			}
			mt := &tree.MethodType{Declaring: ci.typ, Name: tree.ConstructorName, Return: ci.typ}
			e.signature(mt, g.Field("parameters"), sc)
			ci.ctors = append(ci.ctors, mt)
		}
	}
}

// members flattens a class body, including the declarations section of an
// enum body.
func members(body *tree.Generic) []tree.Node {
	var out []tree.Node
	for _, k := range body.Kids {
		if g, ok := k.(*tree.Generic); ok && g.Kind == "enum_body_declarations" {
			out = append(out, g.Kids...)
			continue
		}
		out = append(out, k)
	}
	return out
}

type param struct {
	name    string
	typ     *tree.Type
	varargs bool
}

// params reads a formal_parameters node.
func (e *env) params(n tree.Node, sc *Scope) []param {
	g, ok := n.(*tree.Generic)
	if !ok {
		return nil
	}
	var out []param
	for _, k := range g.Kids {
		p, ok := k.(*tree.Generic)
		if !ok {
			continue
		}
		switch p.Kind {
		case "formal_parameter", "receiver_parameter":
			if p.Kind == "receiver_parameter" {
				continue
			}
			id, _ := p.Field("name").(*tree.Ident)
			if id == nil {
				continue
			}
			t := e.typeOf(p.Field("type"), sc)
			if p.Field("dimensions") != nil {
				t = tree.ArrayOf(t)
			}
			out = append(out, param{name: id.Name, typ: t})
		case "spread_parameter":
			var t *tree.Type
			var name string
			for _, pk := range p.Kids {
				switch pk := pk.(type) {
				case *tree.TypeRef:
					t = e.typeOf(pk, sc)
				case *tree.Generic:
					if pk.Kind == "variable_declarator" {
						name = declaratorName(pk)
					}
				}
			}
			out = append(out, param{name: name, typ: tree.ArrayOf(t), varargs: true})
		}
	}
	return out
}

func (e *env) signature(mt *tree.MethodType, params tree.Node, sc *Scope) {
	for _, p := range e.params(params, sc) {
		mt.Params = append(mt.Params, p.typ)
		mt.Varargs = p.varargs
	}
}

func (e *env) typeOf(n tree.Node, sc *Scope) *tree.Type {
	tr, ok := n.(*tree.TypeRef)
	if !ok {
		return nil
	}
	if tr.Type != nil {
		return tr.Type
	}
	t, _ := sc.LookupType(tr.Name)
	tr.Type = t
	return t
}

func (e *env) hasModifier(decl *tree.Generic, keyword string) bool {
	for _, k := range decl.Kids {
		if g, ok := k.(*tree.Generic); ok && g.Kind == "modifiers" {
			for _, word := range strings.Fields(e.text(g)) {
				if word == keyword {
					return true
				}
			}
		}
	}
	return false
}

func declaratorName(n tree.Node) string {
	g, ok := n.(*tree.Generic)
	if !ok {
		return ""
	}
	if id, ok := g.Field("name").(*tree.Ident); ok {
		return id.Name
	}
	return ""
}

// attributer attaches types, resolved methods and scopes to expressions.
type attributer struct {
	env *env
	// synthOnly restricts attribution to synthesized nodes; parsed nodes
	// keep the types they were given when their unit was parsed.
	synthOnly bool
}

func (a *attributer) unit(root tree.Node) {
	a.walk(root, a.env.root())
}

// walk attributes a statement-level or declaration node.
func (a *attributer) walk(n tree.Node, sc *Scope) {
	g, ok := n.(*tree.Generic)
	if !ok {
		a.expr(n, sc)
		return
	}
	switch g.Kind {
	case "package_declaration", "import_declaration", "modifiers", "marker_annotation", "annotation":
		return
	case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
		ci := a.env.decls[g]
		if ci == nil {
			return
		}
		a.classBody(g.Field("body"), sc.enter(ci))
	case "block", "constructor_body", "switch_block_statement_group", "program":
		cur := sc
		for _, k := range g.Kids {
			cur = a.stmt(k, cur)
		}
	case "method_declaration", "constructor_declaration", "compact_constructor_declaration":
		inner := sc
		for _, p := range a.env.params(g.Field("parameters"), sc) {
			inner = inner.declare(p.name, p.typ)
		}
		if body := g.Field("body"); body != nil {
			a.walk(body, inner)
		}
	case "lambda_expression":
		inner := sc
		switch p := g.Field("parameters").(type) {
		case *tree.Ident:
			inner = inner.declare(p.Name, nil)
		case *tree.Generic:
			if p.Kind == "formal_parameters" {
				for _, fp := range a.env.params(p, sc) {
					inner = inner.declare(fp.name, fp.typ)
				}
			} else {
				for _, k := range p.Kids {
					if id, ok := k.(*tree.Ident); ok {
						inner = inner.declare(id.Name, nil)
					}
				}
			}
		}
		if body := g.Field("body"); body != nil {
			a.walk(body, inner)
		}
	case "enhanced_for_statement":
		vt := a.expr(g.Field("value"), sc)
		t := a.env.typeOf(g.Field("type"), sc)
		if tr, ok := g.Field("type").(*tree.TypeRef); ok && tr.Name == "var" && vt != nil && vt.Kind == tree.ArrayType {
			t = vt.Elem
		}
		inner := sc
		if id, ok := g.Field("name").(*tree.Ident); ok {
			inner = sc.declare(id.Name, t)
		}
		if body := g.Field("body"); body != nil {
			a.walk(body, inner)
		}
	case "for_statement":
		inner := sc
		for _, init := range g.FieldAll("init") {
			inner = a.stmt(init, inner)
		}
		for i, k := range g.Kids {
			if g.Fields[i] != "init" {
				a.walk(k, inner)
			}
		}
	case "catch_clause":
		inner := sc
		for _, k := range g.Kids {
			p, ok := k.(*tree.Generic)
			if !ok || p.Kind != "catch_formal_parameter" {
				continue
			}
			var t *tree.Type
			if ct := firstKind(p, "catch_type"); ct != nil {
				if refs := typeRefs(ct); len(refs) == 1 {
					t = a.env.typeOf(refs[0], sc)
				}
			}
			if id, ok := p.Field("name").(*tree.Ident); ok {
				inner = sc.declare(id.Name, t)
			}
		}
		if body := g.Field("body"); body != nil {
			a.walk(body, inner)
		}
	case "try_with_resources_statement":
		inner := sc
		if spec := g.Field("resources"); spec != nil {
			for _, r := range tree.Children(spec) {
				inner = a.resource(r, inner)
			}
		}
		for i, k := range g.Kids {
			switch g.Fields[i] {
			case "resources":
			case "body":
				a.walk(k, inner)
			default:
				a.walk(k, sc)
			}
		}
	default:
		for _, k := range g.Kids {
			a.walk(k, sc)
		}
	}
}

func firstKind(g *tree.Generic, kind string) *tree.Generic {
	for _, k := range g.Kids {
		if c, ok := k.(*tree.Generic); ok && c.Kind == kind {
			return c
		}
	}
	return nil
}

func (a *attributer) resource(n tree.Node, sc *Scope) *Scope {
	g, ok := n.(*tree.Generic)
	if !ok || g.Kind != "resource" {
		a.walk(n, sc)
		return sc
	}
	id, ok := g.Field("name").(*tree.Ident)
	if !ok {
		for _, k := range g.Kids {
			a.walk(k, sc)
		}
		return sc
	}
	vt := a.expr(g.Field("value"), sc)
	t := a.env.typeOf(g.Field("type"), sc)
	if tr, ok := g.Field("type").(*tree.TypeRef); ok && tr.Name == "var" {
		t = vt
	}
	return sc.declare(id.Name, t)
}

// stmt attributes one statement of a block and returns the scope that
// follows it.
func (a *attributer) stmt(n tree.Node, sc *Scope) *Scope {
	g, ok := n.(*tree.Generic)
	if !ok || g.Kind != "local_variable_declaration" {
		a.walk(n, sc)
		return sc
	}
	typeNode, _ := g.Field("type").(*tree.TypeRef)
	inferred := typeNode != nil && typeNode.Name == "var"
	var declared *tree.Type
	if !inferred {
		declared = a.env.typeOf(typeNode, sc)
	}
	for _, d := range g.FieldAll("declarator") {
		dg, ok := d.(*tree.Generic)
		if !ok {
			continue
		}
		var vt *tree.Type
		if v := dg.Field("value"); v != nil {
			vt = a.expr(v, sc)
		}
		t := declared
		if inferred {
			t = vt
		} else if dg.Field("dimensions") != nil {
			t = tree.ArrayOf(t)
		}
		if name := declaratorName(dg); name != "" {
			sc = sc.declare(name, t)
		}
	}
	return sc
}

func (a *attributer) classBody(body tree.Node, sc *Scope) {
	g, ok := body.(*tree.Generic)
	if !ok {
		return
	}
	for _, m := range members(g) {
		mg, ok := m.(*tree.Generic)
		if !ok {
			a.walk(m, sc)
			continue
		}
		switch mg.Kind {
		case "field_declaration", "constant_declaration":
			for _, d := range mg.FieldAll("declarator") {
				if dg, ok := d.(*tree.Generic); ok {
					if v := dg.Field("value"); v != nil {
						a.expr(v, sc)
					}
				}
			}
		case "enum_constant":
			for i, k := range mg.Kids {
				switch mg.Fields[i] {
				case "arguments":
					for _, arg := range tree.Children(k) {
						a.expr(arg, sc)
					}
				case "body":
					a.classBody(k, sc)
				}
			}
		default:
			a.walk(mg, sc)
		}
	}
}

// expr attributes an expression and returns its static type.
func (a *attributer) expr(n tree.Node, sc tree.Scope) *tree.Type {
	if n == nil {
		return nil
	}
	if a.synthOnly && !n.Synthetic() {
		return tree.TypeOf(n)
	}
	switch n := n.(type) {
	case *tree.Literal:
		n.Type = a.literalType(n.Text)
		return n.Type
	case *tree.Ident:
		if t, ok := sc.LookupVar(n.Name); ok {
			n.Type = t
			return t
		}
		if t, ok := sc.LookupType(n.Name); ok {
			n.Type = t
			n.TypeName = true
		}
		return nil
	case *tree.TypeRef:
		n.Type, _ = sc.LookupType(n.Name)
		return nil
	case *tree.FieldAccess:
		return a.fieldAccess(n, sc)
	case *tree.MethodInvocation:
		return a.invocation(n, sc)
	case *tree.NewClass:
		return a.newClass(n, sc)
	case *tree.Parens:
		n.Type = a.expr(n.X, sc)
		return n.Type
	case *tree.Binary:
		n.Type = a.binary(n.Op, a.expr(n.X, sc), a.expr(n.Y, sc))
		return n.Type
	case *tree.Generic:
		if s, ok := sc.(*Scope); ok {
			a.walk(n, s)
		}
	}
	return nil
}

func (a *attributer) fieldAccess(n *tree.FieldAccess, sc tree.Scope) *tree.Type {
	if name, ok := dotted(n); ok {
		first, _, _ := strings.Cut(name, ".")
		if _, isVar := sc.LookupVar(first); !isVar {
			if t, ok := sc.LookupType(name); ok {
				n.Type = t
				n.TypeName = true
				a.markQualifier(n.Target, sc)
				return nil
			}
		}
	}
	targetType := a.expr(n.Target, sc)
	if owner := tree.NamedType(n.Target); owner != nil {
		if t, ok := a.env.fieldOf(owner, n.Name); ok {
			n.Type = t
			return t
		}
		if nested := a.env.class(owner.Name + "." + n.Name); nested != nil {
			n.Type = nested
			n.TypeName = true
		}
		return nil
	}
	if targetType == nil {
		if g, ok := n.Target.(*tree.Generic); ok && g.Kind == "this" {
			targetType = sc.Enclosing()
		}
	}
	if t, ok := a.env.fieldOf(targetType, n.Name); ok {
		n.Type = t
		return t
	}
	return nil
}

// markQualifier types the prefix of a qualified type name where it denotes
// a type itself, as Outer in Outer.Inner.
func (a *attributer) markQualifier(n tree.Node, sc tree.Scope) {
	if a.synthOnly && !n.Synthetic() {
		return
	}
	name, ok := dotted(n)
	if !ok {
		return
	}
	if t, ok := sc.LookupType(name); ok {
		switch n := n.(type) {
		case *tree.Ident:
			n.Type, n.TypeName = t, true
		case *tree.FieldAccess:
			n.Type, n.TypeName = t, true
		}
	}
	if fa, ok := n.(*tree.FieldAccess); ok {
		a.markQualifier(fa.Target, sc)
	}
}

func dotted(n tree.Node) (string, bool) {
	switch n := n.(type) {
	case *tree.Ident:
		return n.Name, true
	case *tree.FieldAccess:
		prefix, ok := dotted(n.Target)
		if !ok {
			return "", false
		}
		return prefix + "." + n.Name, true
	}
	return "", false
}

func (a *attributer) invocation(n *tree.MethodInvocation, sc tree.Scope) *tree.Type {
	var cands []*tree.MethodType
	if n.Select == nil {
		cands = sc.LookupMethods(n.Name)
	} else {
		st := a.expr(n.Select, sc)
		switch {
		case tree.NamedType(n.Select) != nil:
			cands = a.env.methodsOf(tree.NamedType(n.Select), n.Name)
		case st != nil:
			cands = a.env.methodsOf(st, n.Name)
		default:
			if g, ok := n.Select.(*tree.Generic); ok && (g.Kind == "this" || g.Kind == "super") {
				cands = a.env.methodsOf(sc.Enclosing(), n.Name)
			}
		}
	}
	args := a.args(n.Args, sc)
	n.Scope = sc
	n.Method = selectMethod(cands, args)
	n.Type = nil
	if n.Method != nil {
		n.Type = n.Method.Return
	}
	return n.Type
}

func (a *attributer) newClass(n *tree.NewClass, sc tree.Scope) *tree.Type {
	if n.Outer != nil {
		a.expr(n.Outer, sc)
	}
	var t *tree.Type
	if tr, ok := n.Class.(*tree.TypeRef); ok {
		if !a.synthOnly || tr.Synthetic() {
			tr.Type, _ = sc.LookupType(tr.Name)
		}
		t = tr.Type
	}
	args := a.args(n.Args, sc)
	n.Scope = sc
	n.Type = t
	n.Method = selectMethod(a.env.ctorsOf(t), args)
	if n.Body != nil {
		if s, ok := sc.(*Scope); ok {
			anon := newClassInfo("", "", nil, nil)
			if t != nil {
				anon.typ = t
			}
			a.classBody(n.Body, s.enter(anon))
		}
	}
	return t
}

func (a *attributer) args(args []tree.Node, sc tree.Scope) []*tree.Type {
	types := make([]*tree.Type, len(args))
	for i, arg := range args {
		types[i] = a.expr(arg, sc)
	}
	return types
}

// selectMethod picks the most specific applicable candidate. Arguments of
// unknown type are compatible with any parameter. Ties go to the candidate
// declared first.
func selectMethod(cands []*tree.MethodType, args []*tree.Type) *tree.MethodType {
	var best *tree.MethodType
	bestScore := -1
	for _, m := range cands {
		if score, ok := applicable(m, args); ok && score > bestScore {
			best, bestScore = m, score
		}
	}
	return best
}

func applicable(m *tree.MethodType, args []*tree.Type) (int, bool) {
	n := len(args)
	if m.Varargs {
		if n < len(m.Params)-1 {
			return 0, false
		}
	} else if n != len(m.Params) {
		return 0, false
	}
	score := 0
	if !m.Varargs {
		score++
	}
	for i, at := range args {
		p := m.ParamFor(i, n)
		if p == nil {
			return 0, false
		}
		switch {
		case at == nil:
		case tree.Same(at, p):
			score += 3
		case tree.AssignableTo(at, p):
			score++
		case m.Varargs && n == len(m.Params) && i == n-1 && tree.AssignableTo(at, m.Params[i]):
			score += 2
		default:
			return 0, false
		}
	}
	return score, true
}

func (a *attributer) literalType(text string) *tree.Type {
	switch {
	case strings.HasPrefix(text, `"`):
		return a.env.cp.Type("java.lang.String")
	case strings.HasPrefix(text, "'"):
		return tree.Primitive("char")
	case text == "true" || text == "false":
		return tree.Primitive("boolean")
	case text == "null":
		return tree.Null
	}
	s := strings.ToLower(strings.ReplaceAll(text, "_", ""))
	hex := strings.HasPrefix(s, "0x")
	switch {
	case strings.HasSuffix(s, "l"):
		return tree.Primitive("long")
	case hex && strings.Contains(s, "p"):
		if strings.HasSuffix(s, "f") {
			return tree.Primitive("float")
		}
		return tree.Primitive("double")
	case hex:
		return tree.Primitive("int")
	case strings.HasSuffix(s, "f"):
		return tree.Primitive("float")
	case strings.HasSuffix(s, "d"), strings.ContainsAny(s, ".e"):
		return tree.Primitive("double")
	}
	return tree.Primitive("int")
}

var numericRank = map[string]int{"byte": 1, "short": 1, "char": 1, "int": 1, "long": 2, "float": 3, "double": 4}

func promote(x, y *tree.Type) *tree.Type {
	px, py := unboxed(x), unboxed(y)
	rx, ry := numericRank[px], numericRank[py]
	if rx == 0 || ry == 0 {
		return nil
	}
	switch max(rx, ry) {
	case 4:
		return tree.Primitive("double")
	case 3:
		return tree.Primitive("float")
	case 2:
		return tree.Primitive("long")
	}
	return tree.Primitive("int")
}

func unboxed(t *tree.Type) string {
	if t == nil {
		return ""
	}
	if t.Kind == tree.PrimitiveType {
		return t.Name
	}
	return tree.Unbox(t.Name)
}

func (a *attributer) binary(op string, x, y *tree.Type) *tree.Type {
	switch op {
	case "+":
		if isString(x) || isString(y) {
			return a.env.cp.Type("java.lang.String")
		}
		return promote(x, y)
	case "-", "*", "/", "%":
		return promote(x, y)
	case "<<", ">>", ">>>":
		return promote(x, tree.Primitive("int"))
	case "&", "|", "^":
		if unboxed(x) == "boolean" && unboxed(y) == "boolean" {
			return tree.Primitive("boolean")
		}
		return promote(x, y)
	case "&&", "||", "==", "!=", "<", ">", "<=", ">=":
		return tree.Primitive("boolean")
	}
	return nil
}

func isString(t *tree.Type) bool {
	return t != nil && t.Kind == tree.ClassType && t.Name == "java.lang.String"
}
