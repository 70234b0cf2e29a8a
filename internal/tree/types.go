package tree

import (
	"strings"
)

// TypeKind distinguishes the shapes a Type can take.
type TypeKind uint8

const (
	ClassType TypeKind = iota
	PrimitiveType
	ArrayType
	NullType
)

// ObjectName is the root of the class hierarchy.
const ObjectName = "java.lang.Object"

// Type is a resolved static type. Types are immutable once constructed and
// may be shared freely between units.
type Type struct {
	Name   string // fully qualified class name, primitive keyword, or "null"
	Kind   TypeKind
	Elem   *Type    // element type of an array
	Supers []string // transitive supertypes of a class, fully qualified
}

// Null is the type of the null literal.
var Null = &Type{Name: "null", Kind: NullType}

var primitives = map[string]*Type{}

func init() {
	for _, name := range []string{"boolean", "byte", "short", "char", "int", "long", "float", "double", "void"} {
		primitives[name] = &Type{Name: name, Kind: PrimitiveType}
	}
}

// Primitive returns the primitive type with the given keyword, or nil.
func Primitive(name string) *Type { return primitives[name] }

// ArrayOf returns the array type with element type elem.
func ArrayOf(elem *Type) *Type {
	if elem == nil {
		return nil
	}
	return &Type{Name: elem.String() + "[]", Kind: ArrayType, Elem: elem}
}

func (t *Type) String() string {
	if t == nil {
		return "<unknown>"
	}
	if t.Kind == ArrayType {
		return t.Elem.String() + "[]"
	}
	return t.Name
}

// SimpleName returns the last segment of a class name.
func (t *Type) SimpleName() string {
	if t.Kind == ArrayType {
		return t.Elem.SimpleName() + "[]"
	}
	if i := strings.LastIndexByte(t.Name, '.'); i >= 0 {
		return t.Name[i+1:]
	}
	return t.Name
}

// Package returns the package part of a class name, or "".
func (t *Type) Package() string {
	if t.Kind != ClassType {
		return ""
	}
	if i := strings.LastIndexByte(t.Name, '.'); i >= 0 {
		return t.Name[:i]
	}
	return ""
}

// IsSubtypeOf reports whether t is the named class or one of its subtypes.
func (t *Type) IsSubtypeOf(name string) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case ClassType:
		if t.Name == name || name == ObjectName {
			return true
		}
		for _, s := range t.Supers {
			if s == name {
				return true
			}
		}
	case ArrayType:
		return name == ObjectName || name == "java.lang.Cloneable" || name == "java.io.Serializable"
	}
	return false
}

// Same reports whether a and b denote the same type.
func Same(a, b *Type) bool {
	if a == nil || b == nil {
		return false
	}
	return a == b || a.String() == b.String()
}

var boxes = map[string]string{
	"boolean": "java.lang.Boolean",
	"byte":    "java.lang.Byte",
	"short":   "java.lang.Short",
	"char":    "java.lang.Character",
	"int":     "java.lang.Integer",
	"long":    "java.lang.Long",
	"float":   "java.lang.Float",
	"double":  "java.lang.Double",
}

// BoxOf returns the wrapper class name for a primitive keyword.
func BoxOf(primitive string) string { return boxes[primitive] }

// Unbox returns the primitive keyword for a wrapper class name, or "".
func Unbox(class string) string {
	for p, c := range boxes {
		if c == class {
			return p
		}
	}
	return ""
}

var widening = map[string][]string{
	"byte":  {"short", "int", "long", "float", "double"},
	"short": {"int", "long", "float", "double"},
	"char":  {"int", "long", "float", "double"},
	"int":   {"long", "float", "double"},
	"long":  {"float", "double"},
	"float": {"double"},
}

// AssignableTo reports whether a value of type t may be assigned to a
// variable of type to, allowing widening, boxing and unboxing. Unknown types
// are never assignable.
func AssignableTo(t, to *Type) bool {
	if t == nil || to == nil {
		return false
	}
	if Same(t, to) {
		return true
	}
	switch t.Kind {
	case NullType:
		return to.Kind != PrimitiveType
	case PrimitiveType:
		if to.Kind == PrimitiveType {
			for _, w := range widening[t.Name] {
				if w == to.Name {
					return true
				}
			}
			return false
		}
		box := boxes[t.Name]
		if box == "" {
			return false
		}
		return to.Kind == ClassType && (to.Name == box || to.Name == ObjectName ||
			to.Name == "java.lang.Number" && t.Name != "boolean" && t.Name != "char" ||
			to.Name == "java.io.Serializable" || to.Name == "java.lang.Comparable")
	case ClassType:
		if to.Kind == PrimitiveType {
			p := Unbox(t.Name)
			return p != "" && (p == to.Name || AssignableTo(primitives[p], to))
		}
		return to.Kind == ClassType && t.IsSubtypeOf(to.Name)
	case ArrayType:
		if to.Kind == ArrayType {
			if t.Elem.Kind == PrimitiveType || to.Elem.Kind == PrimitiveType {
				return Same(t.Elem, to.Elem)
			}
			return AssignableTo(t.Elem, to.Elem)
		}
		return to.Kind == ClassType && t.IsSubtypeOf(to.Name)
	}
	return false
}

// ConstructorName is the member name recorded for constructors.
const ConstructorName = "<constructor>"

// MethodType describes a resolved method or constructor.
type MethodType struct {
	Declaring *Type
	Name      string // ConstructorName for constructors
	Params    []*Type
	Varargs   bool
	Return    *Type
	Static    bool
}

// IsConstructor reports whether m describes a constructor.
func (m *MethodType) IsConstructor() bool { return m.Name == ConstructorName }

// ParamFor returns the declared type for argument i of a call with the given
// arity, expanding a varargs parameter into its element type. It returns nil
// when there is no such parameter.
func (m *MethodType) ParamFor(i, arity int) *Type {
	if i < 0 || i >= arity {
		return nil
	}
	if !m.Varargs {
		if i < len(m.Params) {
			return m.Params[i]
		}
		return nil
	}
	last := len(m.Params) - 1
	if i < last {
		return m.Params[i]
	}
	if last < 0 || m.Params[last] == nil {
		return nil
	}
	if arity == len(m.Params) && m.Params[last].Elem == nil {
		return m.Params[last]
	}
	return m.Params[last].Elem
}

func (m *MethodType) String() string {
	var b strings.Builder
	b.WriteString(m.Declaring.String())
	b.WriteByte(' ')
	b.WriteString(m.Name)
	b.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if m.Varargs && i == len(m.Params)-1 && p != nil && p.Kind == ArrayType {
			b.WriteString(p.Elem.String())
			b.WriteString("...")
			continue
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	return b.String()
}
