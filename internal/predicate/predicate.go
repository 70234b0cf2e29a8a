// Package predicate decides whether a rule applies to a compilation unit.
package predicate

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/phobologic/jrewrite/internal/signature"
	"github.com/phobologic/jrewrite/internal/tree"
)

// Context is what a predicate can observe about a unit.
type Context interface {
	JavaVersion() *semver.Version
	Usages() []tree.Call
}

// Predicate is a closed set of applicability tests: VersionAtLeast,
// UsesSignature, And, Or and Not.
type Predicate interface {
	predicate()
}

// VersionAtLeast holds when the unit's Java language level is at least the
// given major version. A unit of unknown version fails it.
type VersionAtLeast struct {
	Major int
}

// UsesSignature holds when the unit contains at least one call matching
// the pattern.
type UsesSignature struct {
	Pattern *signature.Pattern
}

// And holds when every child holds. An empty And holds.
type And struct {
	Preds []Predicate
}

// Or holds when any child holds. An empty Or does not.
type Or struct {
	Preds []Predicate
}

// Not negates its child.
type Not struct {
	Pred Predicate
}

func (VersionAtLeast) predicate() {}
func (UsesSignature) predicate()  {}
func (And) predicate()            {}
func (Or) predicate()             {}
func (Not) predicate()            {}

// AllOf returns And{preds}.
func AllOf(preds ...Predicate) Predicate { return And{Preds: preds} }

// AnyOf returns Or{preds}.
func AnyOf(preds ...Predicate) Predicate { return Or{Preds: preds} }

// Test evaluates p against c. And and Or stop at the first child that
// decides the result.
func Test(p Predicate, c Context) bool {
	switch p := p.(type) {
	case VersionAtLeast:
		v := c.JavaVersion()
		if v == nil {
			return false
		}
		return v.Major() >= uint64(p.Major)
	case UsesSignature:
		for _, call := range c.Usages() {
			if signature.Matches(p.Pattern, call) {
				return true
			}
		}
		return false
	case And:
		for _, child := range p.Preds {
			if !Test(child, c) {
				return false
			}
		}
		return true
	case Or:
		for _, child := range p.Preds {
			if Test(child, c) {
				return true
			}
		}
		return false
	case Not:
		return !Test(p.Pred, c)
	case nil:
		return true
	}
	panic(fmt.Sprintf("predicate: unknown variant %T", p))
}

// String renders p, e.g. and(javaVersion>=19, uses(java.util.Locale <constructor>(..))).
func String(p Predicate) string {
	var b strings.Builder
	write(&b, p)
	return b.String()
}

func write(b *strings.Builder, p Predicate) {
	list := func(name string, preds []Predicate) {
		b.WriteString(name)
		b.WriteByte('(')
		for i, child := range preds {
			if i > 0 {
				b.WriteString(", ")
			}
			write(b, child)
		}
		b.WriteByte(')')
	}
	switch p := p.(type) {
	case VersionAtLeast:
		fmt.Fprintf(b, "javaVersion>=%d", p.Major)
	case UsesSignature:
		fmt.Fprintf(b, "uses(%s)", p.Pattern)
	case And:
		list("and", p.Preds)
	case Or:
		list("or", p.Preds)
	case Not:
		b.WriteString("not(")
		write(b, p.Pred)
		b.WriteByte(')')
	case nil:
		b.WriteString("always")
	}
}

// MinVersion returns the highest VersionAtLeast bound that p requires on
// every path, or 0 when it requires none. p fails for every unit whose
// version is unknown or below the bound.
func MinVersion(p Predicate) int {
	switch p := p.(type) {
	case VersionAtLeast:
		return p.Major
	case And:
		m := 0
		for _, child := range p.Preds {
			m = max(m, MinVersion(child))
		}
		return m
	case Or:
		if len(p.Preds) == 0 {
			return 0
		}
		m := MinVersion(p.Preds[0])
		for _, child := range p.Preds[1:] {
			m = min(m, MinVersion(child))
		}
		return m
	}
	return 0
}
