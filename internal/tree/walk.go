package tree

// Children returns the child nodes of n in source order.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Generic:
		return n.Kids
	case *FieldAccess:
		return []Node{n.Target}
	case *MethodInvocation:
		var kids []Node
		if n.Select != nil {
			kids = append(kids, n.Select)
		}
		return append(kids, n.Args...)
	case *NewClass:
		var kids []Node
		if n.Outer != nil {
			kids = append(kids, n.Outer)
		}
		if n.Class != nil {
			kids = append(kids, n.Class)
		}
		kids = append(kids, n.Args...)
		if n.Body != nil {
			kids = append(kids, n.Body)
		}
		return kids
	case *Parens:
		return []Node{n.X}
	case *Binary:
		return []Node{n.X, n.Y}
	}
	return nil
}

// Map applies f to every child of n in source order and returns n rebuilt
// with the results. When f returns every child unchanged, Map returns n
// itself, so untouched subtrees keep their identity.
func Map(n Node, f func(Node) Node) Node {
	switch n := n.(type) {
	case *Generic:
		kids, changed := mapList(n.Kids, f)
		if !changed {
			return n
		}
		c := *n
		c.Kids = kids
		return &c
	case *FieldAccess:
		target := f(n.Target)
		if target == n.Target {
			return n
		}
		c := *n
		c.Target = target
		return &c
	case *MethodInvocation:
		sel := mapOpt(n.Select, f)
		args, changed := mapList(n.Args, f)
		if !changed && sel == n.Select {
			return n
		}
		c := *n
		c.Select = sel
		c.Args = args
		return &c
	case *NewClass:
		outer := mapOpt(n.Outer, f)
		class := mapOpt(n.Class, f)
		args, changed := mapList(n.Args, f)
		body := mapOpt(n.Body, f)
		if !changed && outer == n.Outer && class == n.Class && body == n.Body {
			return n
		}
		c := *n
		c.Outer = outer
		c.Class = class
		c.Args = args
		c.Body = body
		return &c
	case *Parens:
		x := f(n.X)
		if x == n.X {
			return n
		}
		c := *n
		c.X = x
		return &c
	case *Binary:
		x := f(n.X)
		y := f(n.Y)
		if x == n.X && y == n.Y {
			return n
		}
		c := *n
		c.X = x
		c.Y = y
		return &c
	}
	// Ident, Literal and TypeRef are leaves.
	return n
}

func mapOpt(n Node, f func(Node) Node) Node {
	if n == nil {
		return nil
	}
	return f(n)
}

func mapList(list []Node, f func(Node) Node) ([]Node, bool) {
	var out []Node
	for i, n := range list {
		m := f(n)
		if m != n && out == nil {
			out = make([]Node, len(list))
			copy(out, list[:i])
		}
		if out != nil {
			out[i] = m
		}
	}
	if out == nil {
		return list, false
	}
	return out, true
}

// Inspect traverses the tree rooted at n in depth-first order. If f returns
// false, the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// CollectCalls returns every call node under root in source order.
func CollectCalls(root Node) []Call {
	var calls []Call
	Inspect(root, func(n Node) bool {
		if c, ok := n.(Call); ok {
			calls = append(calls, c)
		}
		return true
	})
	return calls
}
