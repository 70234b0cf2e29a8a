package recipe

import (
	"sort"
	"time"

	"github.com/phobologic/jrewrite/internal/predicate"
	"github.com/phobologic/jrewrite/internal/signature"
	"github.com/phobologic/jrewrite/internal/template"
)

var newLocale = signature.MustParse("java.util.Locale <constructor>(..)")

// UseLocaleOf replaces new Locale(..) with Locale.of(..), which Java 19
// added and which deprecates the constructors.
func UseLocaleOf() Descriptor {
	return Descriptor{
		Name:        "UseLocaleOf",
		DisplayName: "Prefer `Locale.of(..)` over `new Locale(..)`",
		Description: "Prefer `Locale.of(..)` over `new Locale(..)` in Java 19 or higher.",
		Effort:      5 * time.Minute,
		Pattern:     newLocale,
		Applicability: predicate.AllOf(
			predicate.VersionAtLeast{Major: 19},
			predicate.UsesSignature{Pattern: newLocale},
		),
		Template: template.Joined{
			Prefix: "Locale.of(",
			Slot:   "#{any(String)}",
			Sep:    ", ",
			Suffix: ")",
		},
		Imports: []string{"java.util.Locale"},
		Arities: []int{1, 2, 3},
	}
}

var builtins = map[string]func() Descriptor{
	"UseLocaleOf": UseLocaleOf,
}

// Builtins returns every built-in rule, sorted by name.
func Builtins() []Descriptor {
	out := make([]Descriptor, 0, len(builtins))
	for _, f := range builtins {
		out = append(out, f())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the built-in rule with the given name.
func Lookup(name string) (Descriptor, bool) {
	f, ok := builtins[name]
	if !ok {
		return Descriptor{}, false
	}
	return f(), true
}
