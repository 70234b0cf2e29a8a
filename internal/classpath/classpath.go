// Package classpath supplies the type information the resolver cannot read
// from source: class hierarchies, constructors, methods and fields of library
// types, declared as YAML stubs.
package classpath

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/jrewrite/internal/tree"
)

//go:embed jdk.yaml
var jdkStubs []byte

// File is the on-disk stub format.
type File struct {
	Types []TypeStub `yaml:"types"`
}

// TypeStub declares one class or interface.
type TypeStub struct {
	Name         string       `yaml:"name"`
	Supertypes   []string     `yaml:"supertypes"`
	Constructors []MemberStub `yaml:"constructors"`
	Methods      []MemberStub `yaml:"methods"`
	Fields       []FieldStub  `yaml:"fields"`
}

// MemberStub declares a method or constructor. Parameter and return types
// are fully qualified names, primitive keywords, or either followed by [].
// A varargs member declares its last parameter as an array.
type MemberStub struct {
	Name    string   `yaml:"name"`
	Params  []string `yaml:"params"`
	Varargs bool     `yaml:"varargs"`
	Returns string   `yaml:"returns"`
	Static  bool     `yaml:"static"`
}

// FieldStub declares a field.
type FieldStub struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Static bool   `yaml:"static"`
}

// Field is a resolved field.
type Field struct {
	Type   *tree.Type
	Static bool
}

// Class is the resolved form of a stub.
type Class struct {
	Type         *tree.Type
	Constructors []*tree.MethodType
	Methods      map[string][]*tree.MethodType
	Fields       map[string]Field
}

// Classpath is a set of type stubs. Lookups intern their results and are
// safe for concurrent use.
type Classpath struct {
	mu       sync.Mutex
	stubs    map[string]*TypeStub
	packages map[string][]string
	types    map[string]*tree.Type
	classes  map[string]*Class
}

// Parse decodes stub YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	for i, t := range f.Types {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("type %d: missing name", i)
		}
		for _, m := range t.Methods {
			if m.Name == "" {
				return nil, fmt.Errorf("type %s: method without name", t.Name)
			}
		}
	}
	return &f, nil
}

// New builds a classpath from stub files. When a type is declared more than
// once the later declaration wins.
func New(files ...*File) *Classpath {
	cp := &Classpath{
		stubs:    make(map[string]*TypeStub),
		packages: make(map[string][]string),
		types:    make(map[string]*tree.Type),
		classes:  make(map[string]*Class),
	}
	for _, f := range files {
		cp.add(f)
	}
	return cp
}

// Default returns a classpath holding only the embedded JDK stubs.
func Default() *Classpath {
	f, err := Parse(jdkStubs)
	if err != nil {
		panic(fmt.Sprintf("embedded jdk stubs: %v", err))
	}
	return New(f)
}

// Load returns the JDK stubs merged with the stub files at paths.
func Load(paths ...string) (*Classpath, error) {
	cp := Default()
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading classpath %s: %w", p, err)
		}
		f, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parsing classpath %s: %w", p, err)
		}
		cp.Merge(f)
	}
	return cp, nil
}

// Merge adds the declarations of f, replacing earlier declarations of the
// same types. Interned results are discarded.
func (cp *Classpath) Merge(f *File) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.add(f)
	cp.types = make(map[string]*tree.Type)
	cp.classes = make(map[string]*Class)
}

func (cp *Classpath) add(f *File) {
	for i := range f.Types {
		st := f.Types[i]
		if _, dup := cp.stubs[st.Name]; !dup {
			pkg := packageOf(st.Name)
			cp.packages[pkg] = append(cp.packages[pkg], st.Name)
		}
		cp.stubs[st.Name] = &st
	}
}

// Has reports whether fqn is a declared class.
func (cp *Classpath) Has(fqn string) bool {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	_, ok := cp.stubs[fqn]
	return ok
}

// Package returns the declared classes of pkg, sorted.
func (cp *Classpath) Package(pkg string) []string {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	out := append([]string(nil), cp.packages[pkg]...)
	sort.Strings(out)
	return out
}

// Type resolves a declared class, a primitive keyword, or an array of
// either. It returns nil for anything else.
func (cp *Classpath) Type(name string) *tree.Type {
	if elem, ok := strings.CutSuffix(name, "[]"); ok {
		return tree.ArrayOf(cp.Type(elem))
	}
	if p := tree.Primitive(name); p != nil {
		return p
	}
	cp.mu.Lock()
	defer cp.mu.Unlock()
	if _, ok := cp.stubs[name]; !ok {
		return nil
	}
	return cp.intern(name)
}

// Class returns the resolved members of a declared class, or nil.
func (cp *Classpath) Class(fqn string) *Class {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	if c, ok := cp.classes[fqn]; ok {
		return c
	}
	st, ok := cp.stubs[fqn]
	if !ok {
		return nil
	}
	c := &Class{
		Type:    cp.intern(fqn),
		Methods: make(map[string][]*tree.MethodType),
		Fields:  make(map[string]Field),
	}
	for _, m := range st.Constructors {
		mt := cp.member(c.Type, m)
		mt.Name = tree.ConstructorName
		mt.Return = c.Type
		c.Constructors = append(c.Constructors, mt)
	}
	for _, m := range st.Methods {
		c.Methods[m.Name] = append(c.Methods[m.Name], cp.member(c.Type, m))
	}
	for _, f := range st.Fields {
		c.Fields[f.Name] = Field{Type: cp.ref(f.Type), Static: f.Static}
	}
	cp.classes[fqn] = c
	return c
}

// Methods returns the methods named name that are members of fqn, its
// own declarations first and then those inherited from its supertypes.
func (cp *Classpath) Methods(fqn, name string) []*tree.MethodType {
	c := cp.Class(fqn)
	if c == nil {
		return nil
	}
	out := append([]*tree.MethodType(nil), c.Methods[name]...)
	supers := append(append([]string(nil), c.Type.Supers...), tree.ObjectName)
	seen := map[string]bool{fqn: true}
	for _, s := range supers {
		if seen[s] {
			continue
		}
		seen[s] = true
		if sc := cp.Class(s); sc != nil {
			out = append(out, sc.Methods[name]...)
		}
	}
	return out
}

// Field looks up a field of fqn or one of its supertypes.
func (cp *Classpath) Field(fqn, name string) (Field, bool) {
	c := cp.Class(fqn)
	if c == nil {
		return Field{}, false
	}
	if f, ok := c.Fields[name]; ok {
		return f, true
	}
	for _, s := range c.Type.Supers {
		if sc := cp.Class(s); sc != nil {
			if f, ok := sc.Fields[name]; ok {
				return f, true
			}
		}
	}
	return Field{}, false
}

func (cp *Classpath) member(owner *tree.Type, m MemberStub) *tree.MethodType {
	mt := &tree.MethodType{
		Declaring: owner,
		Name:      m.Name,
		Varargs:   m.Varargs,
		Static:    m.Static,
		Return:    cp.ref(m.Returns),
	}
	for _, p := range m.Params {
		mt.Params = append(mt.Params, cp.ref(p))
	}
	return mt
}

// ref resolves a type name used inside a stub. Classes that have no stub
// of their own still get a type so signatures stay complete. Callers hold
// cp.mu.
func (cp *Classpath) ref(name string) *tree.Type {
	if name == "" {
		return tree.Primitive("void")
	}
	if elem, ok := strings.CutSuffix(name, "[]"); ok {
		return tree.ArrayOf(cp.ref(elem))
	}
	if p := tree.Primitive(name); p != nil {
		return p
	}
	return cp.intern(name)
}

// intern returns the shared type for a class name. Callers hold cp.mu.
func (cp *Classpath) intern(name string) *tree.Type {
	if t, ok := cp.types[name]; ok {
		return t
	}
	t := &tree.Type{Name: name, Kind: tree.ClassType, Supers: cp.supers(name)}
	cp.types[name] = t
	return t
}

// supers returns the transitive supertypes of name in breadth-first order.
func (cp *Classpath) supers(name string) []string {
	var out []string
	seen := map[string]bool{name: true}
	queue := []string{name}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		st, ok := cp.stubs[cur]
		if !ok {
			continue
		}
		for _, s := range st.Supertypes {
			if seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
			queue = append(queue, s)
		}
	}
	return out
}

func packageOf(fqn string) string {
	if i := strings.LastIndexByte(fqn, '.'); i >= 0 {
		return fqn[:i]
	}
	return ""
}
