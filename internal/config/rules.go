package config

import (
	"fmt"
	"time"

	"github.com/phobologic/jrewrite/internal/predicate"
	"github.com/phobologic/jrewrite/internal/recipe"
	"github.com/phobologic/jrewrite/internal/signature"
	"github.com/phobologic/jrewrite/internal/template"
)

// Descriptors returns the enabled rules: the built-ins and the custom
// rules, filtered by Rules when it is set.
func (c *Config) Descriptors() ([]recipe.Descriptor, error) {
	all := recipe.Builtins()
	byName := make(map[string]int, len(all))
	for i, d := range all {
		byName[d.Name] = i
	}
	for i := range c.CustomRules {
		d, err := c.CustomRules[i].Descriptor()
		if err != nil {
			return nil, err
		}
		if j, ok := byName[d.Name]; ok {
			all[j] = d
			continue
		}
		byName[d.Name] = len(all)
		all = append(all, d)
	}
	if len(c.Rules) == 0 {
		return all, nil
	}

	out := make([]recipe.Descriptor, 0, len(c.Rules))
	for _, name := range c.Rules {
		i, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown rule %q", name)
		}
		out = append(out, all[i])
	}
	return out, nil
}

// Descriptor converts the YAML rule into a recipe descriptor.
func (r *RuleConfig) Descriptor() (recipe.Descriptor, error) {
	d := recipe.Descriptor{
		Name:        r.Name,
		DisplayName: r.DisplayName,
		Description: r.Description,
		Imports:     r.Imports,
		Arities:     r.Arities,
	}
	if r.Name == "" {
		return d, fmt.Errorf("custom rule without a name")
	}
	if d.DisplayName == "" {
		d.DisplayName = r.Name
	}
	if r.Effort != "" {
		eff, err := time.ParseDuration(r.Effort)
		if err != nil {
			return d, fmt.Errorf("rule %s: effort: %w", r.Name, err)
		}
		d.Effort = eff
	}

	p, err := signature.Parse(r.Pattern)
	if err != nil {
		return d, fmt.Errorf("rule %s: %w", r.Name, err)
	}
	p.MatchOverrides = r.MatchOverrides
	d.Pattern = p

	switch {
	case r.Template != "" && r.TemplateArgs != nil:
		return d, fmt.Errorf("rule %s: template and template_args are exclusive", r.Name)
	case r.Template != "":
		d.Template = template.Fixed(r.Template)
	case r.TemplateArgs != nil:
		d.Template = template.Joined{
			Prefix: r.TemplateArgs.Prefix,
			Slot:   r.TemplateArgs.Slot,
			Sep:    r.TemplateArgs.Separator,
			Suffix: r.TemplateArgs.Suffix,
		}
	default:
		return d, fmt.Errorf("rule %s: no template", r.Name)
	}

	if r.Applicability != nil {
		gate, err := r.Applicability.Predicate()
		if err != nil {
			return d, fmt.Errorf("rule %s: applicability: %w", r.Name, err)
		}
		d.Applicability = gate
	}
	return d, nil
}

// Predicate builds the predicate tree p describes.
func (p *PredicateConfig) Predicate() (predicate.Predicate, error) {
	set := 0
	for _, ok := range []bool{p.JavaVersion != 0, p.Uses != "", p.All != nil, p.Any != nil, p.Not != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("want exactly one of java_version, uses, all, any, not; got %d", set)
	}

	switch {
	case p.JavaVersion != 0:
		return predicate.VersionAtLeast{Major: p.JavaVersion}, nil
	case p.Uses != "":
		pat, err := signature.Parse(p.Uses)
		if err != nil {
			return nil, err
		}
		return predicate.UsesSignature{Pattern: pat}, nil
	case p.Not != nil:
		inner, err := p.Not.Predicate()
		if err != nil {
			return nil, err
		}
		return predicate.Not{Pred: inner}, nil
	}

	list := p.All
	if p.Any != nil {
		list = p.Any
	}
	preds := make([]predicate.Predicate, len(list))
	for i := range list {
		q, err := list[i].Predicate()
		if err != nil {
			return nil, err
		}
		preds[i] = q
	}
	if p.Any != nil {
		return predicate.AnyOf(preds...), nil
	}
	return predicate.AllOf(preds...), nil
}
