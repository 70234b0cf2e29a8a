package template

import "github.com/phobologic/jrewrite/internal/tree"

// Java operator precedence, loosest first.
const (
	assignPrec  = 1
	ternaryPrec = 2
	unaryPrec   = 14
	postfixPrec = 15
	primaryPrec = 16
)

var binaryPrec = map[string]int{
	"||": 3,
	"&&": 4,
	"|":  5,
	"^":  6,
	"&":  7,
	"==": 8, "!=": 8,
	"<": 9, ">": 9, "<=": 9, ">=": 9,
	"<<": 10, ">>": 10, ">>>": 10,
	"+": 11, "-": 11,
	"*": 12, "/": 12, "%": 12,
}

var genericPrec = map[string]int{
	"assignment_expression": assignPrec,
	"lambda_expression":     assignPrec,
	"ternary_expression":    ternaryPrec,
	"instanceof_expression": binaryPrec["<"],
	"cast_expression":       unaryPrec,
	"unary_expression":      unaryPrec,
	"update_expression":     unaryPrec,
	"switch_expression":     primaryPrec,
}

func precedence(n tree.Node) int {
	switch n := n.(type) {
	case *tree.Binary:
		if p, ok := binaryPrec[n.Op]; ok {
			return p
		}
		return assignPrec
	case *tree.Generic:
		if p, ok := genericPrec[n.Kind]; ok {
			return p
		}
	}
	return primaryPrec
}

// needParen reports whether x must be parenthesized when it takes the
// place of slot, a child of parent in the skeleton.
func needParen(x, slot, parent tree.Node) bool {
	p := precedence(x)
	switch parent := parent.(type) {
	case *tree.Binary:
		op := binaryPrec[parent.Op]
		if p < op {
			return true
		}
		// Binary operators associate to the left.
		return p == op && parent.Y == slot
	case *tree.FieldAccess:
		return p < postfixPrec
	case *tree.MethodInvocation:
		return parent.Select == slot && p < postfixPrec
	case *tree.NewClass:
		return parent.Outer == slot && p < postfixPrec
	}
	return false
}
