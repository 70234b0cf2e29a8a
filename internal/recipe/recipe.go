// Package recipe binds a signature pattern, an applicability gate and a
// replacement template into a rule, and runs rules over compilation units.
package recipe

import (
	"fmt"
	"sync"
	"time"

	"github.com/phobologic/jrewrite/internal/predicate"
	"github.com/phobologic/jrewrite/internal/signature"
	"github.com/phobologic/jrewrite/internal/template"
)

// Descriptor is the static configuration of a rule.
type Descriptor struct {
	Name        string
	DisplayName string
	Description string
	// Effort is the estimated manual effort per occurrence. It is reported,
	// never acted on.
	Effort time.Duration

	Pattern       *signature.Pattern
	Applicability predicate.Predicate // nil always applies
	Template      template.Source
	Imports       []string
	// Arities lists the call arities whose templates are compiled when the
	// recipe is built. Others compile on first use. Empty means the
	// pattern's shortest arity.
	Arities []int
}

// Recipe is a Descriptor with its templates compiled. It is safe for
// concurrent use.
type Recipe struct {
	Descriptor

	builder *template.Builder

	mu        sync.Mutex
	templates map[int]*template.Template
	errs      map[int]error
}

// New builds a recipe and compiles the templates for d.Arities. A malformed
// template fails here with its *template.CompileError.
func New(d Descriptor, b *template.Builder) (*Recipe, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("recipe has no name")
	}
	if d.Pattern == nil {
		return nil, fmt.Errorf("recipe %s: no signature pattern", d.Name)
	}
	if d.Template == nil {
		return nil, fmt.Errorf("recipe %s: no template", d.Name)
	}
	r := &Recipe{
		Descriptor: d,
		builder:    b,
		templates:  make(map[int]*template.Template),
		errs:       make(map[int]error),
	}
	arities := d.Arities
	if len(arities) == 0 {
		arities = []int{len(d.Pattern.Params)}
	}
	for _, n := range arities {
		if _, err := r.Template(n); err != nil {
			return nil, fmt.Errorf("recipe %s: %w", d.Name, err)
		}
	}
	return r, nil
}

// Builder returns the template builder the recipe compiles with.
func (r *Recipe) Builder() *template.Builder { return r.builder }

// Template returns the compiled template for calls with arity arguments.
// Results, including failures, are cached.
func (r *Recipe) Template(arity int) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.templates[arity]; ok {
		return t, nil
	}
	if err, ok := r.errs[arity]; ok {
		return nil, err
	}
	t, err := r.builder.Compile(r.Descriptor.Template.Text(arity), r.Imports...)
	if err != nil {
		r.errs[arity] = err
		return nil, err
	}
	r.templates[arity] = t
	return t, nil
}

// Applicable reports whether the recipe's gate holds for c.
func (r *Recipe) Applicable(c predicate.Context) bool {
	return predicate.Test(r.Applicability, c)
}

func (r *Recipe) String() string { return r.Name }
