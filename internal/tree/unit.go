package tree

import (
	"github.com/Masterminds/semver/v3"
)

// Import is one import declaration of a unit.
type Import struct {
	Path     string // dotted name without the trailing .*
	Static   bool
	Wildcard bool
	Span     Span
}

// Unit is one compilation unit: a parsed, attributed source file.
type Unit struct {
	Path        string
	Source      []byte
	Root        Node
	Package     string
	PackageSpan Span
	Imports     []Import
	Version     *semver.Version // effective Java language level, nil if unknown

	calls []Call
}

// NewUnit indexes the calls under root and returns the unit.
func NewUnit(path string, src []byte, root Node) *Unit {
	return &Unit{Path: path, Source: src, Root: root, calls: CollectCalls(root)}
}

// JavaVersion returns the unit's effective language level.
func (u *Unit) JavaVersion() *semver.Version { return u.Version }

// Usages returns every call in the unit, in source order.
func (u *Unit) Usages() []Call { return u.calls }

// WithRoot returns a view of u with a different root. The call index is
// rebuilt when the root changed.
func (u *Unit) WithRoot(root Node) *Unit {
	if root == u.Root {
		return u
	}
	c := *u
	c.Root = root
	c.calls = CollectCalls(root)
	return &c
}

// Imported reports whether the simple name of the class fqn is already
// visible in u without a new import declaration.
func (u *Unit) Imported(fqn string) bool {
	pkg, simple := splitName(fqn)
	if pkg == "java.lang" || pkg == u.Package {
		return true
	}
	for _, imp := range u.Imports {
		if imp.Static {
			continue
		}
		if imp.Wildcard && imp.Path == pkg {
			return true
		}
		if !imp.Wildcard && imp.Path == fqn {
			return true
		}
		if !imp.Wildcard && lastSegment(imp.Path) == simple {
			// A different class already owns the simple name.
			return false
		}
	}
	return false
}

func splitName(fqn string) (pkg, simple string) {
	for i := len(fqn) - 1; i >= 0; i-- {
		if fqn[i] == '.' {
			return fqn[:i], fqn[i+1:]
		}
	}
	return "", fqn
}

func lastSegment(name string) string {
	_, s := splitName(name)
	return s
}
