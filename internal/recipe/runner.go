package recipe

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/phobologic/jrewrite/internal/rewrite"
	"github.com/phobologic/jrewrite/internal/tree"
)

// Formatter renders a rewritten tree back to source text, adding the
// imports the touches require.
type Formatter interface {
	Format(u *tree.Unit, root tree.Node, touches []rewrite.Touch) ([]byte, error)
}

// Result is the outcome of running recipes over one unit.
type Result struct {
	Path    string
	Before  []byte
	After   []byte
	Root    tree.Node
	Changed bool
	// Applied counts substitutions per recipe name. Recipes whose gate
	// failed are absent.
	Applied map[string]int
	// Gated lists the recipes whose gate held.
	Gated []string
}

// Runner applies recipes in order to compilation units. It is safe for
// concurrent use when its Formatter is.
type Runner struct {
	Recipes   []*Recipe
	Formatter Formatter
	Logger    logrus.FieldLogger
}

// Run applies every recipe to u. Each recipe sees the tree produced by the
// ones before it. When nothing matched, Result.Root is u.Root and After is
// Before.
func (r *Runner) Run(ctx context.Context, u *tree.Unit) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &Result{
		Path:    u.Path,
		Before:  u.Source,
		After:   u.Source,
		Root:    u.Root,
		Applied: make(map[string]int),
	}

	var touches []rewrite.Touch
	view := u
	for _, rec := range r.Recipes {
		if !rec.Applicable(view) {
			r.logger().WithFields(logrus.Fields{"file": u.Path, "rule": rec.Name}).Debug("gate closed")
			continue
		}
		res.Gated = append(res.Gated, rec.Name)
		v := rewrite.Visitor{
			Rule:     rec.Name,
			Pattern:  rec.Pattern,
			Template: rec.Template,
			Builder:  rec.builder,
			Logger:   r.logger().WithField("file", u.Path),
			Source:   u.Source,
		}
		root, ts := v.Visit(view.Root)
		res.Applied[rec.Name] = len(ts)
		touches = append(touches, ts...)
		view = view.WithRoot(root)
	}
	if len(touches) == 0 {
		return res, nil
	}

	out, err := r.Formatter.Format(u, view.Root, touches)
	if err != nil {
		return nil, fmt.Errorf("formatting %s: %w", u.Path, err)
	}
	res.Root = view.Root
	res.After = out
	res.Changed = string(out) != string(u.Source)
	return res, nil
}

func (r *Runner) logger() logrus.FieldLogger {
	if r.Logger == nil {
		return logrus.StandardLogger()
	}
	return r.Logger
}
