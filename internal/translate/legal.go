package translate

import (
	"strings"

	"github.com/roach88/sieve/internal/expr"
)

// legalize returns the largest legal subset of the predicate n: an AND/OR
// tree whose leaves are Condition markers. A nil result means nothing
// restricts the query any more.
//
// Negations are pushed to the leaves first. An illegal leaf under AND is
// dropped and its sibling kept; under OR the whole OR goes, because keeping
// one side would narrow the remote result.
func (t *translation) legalize(n expr.Node) (expr.Node, error) {
	switch n := n.(type) {
	case *expr.Condition:
		return t.leaf(n.Comparison)
	case *expr.Binary:
		switch n.Op {
		case expr.OpAnd:
			l, err := t.legalize(n.Left)
			if err != nil {
				return nil, err
			}
			r, err := t.legalize(n.Right)
			if err != nil {
				return nil, err
			}
			return expr.Conjoin(l, r), nil
		case expr.OpOr:
			l, err := t.legalize(n.Left)
			if err != nil {
				return nil, err
			}
			r, err := t.legalize(n.Right)
			if err != nil {
				return nil, err
			}
			if l == nil || r == nil {
				return nil, nil
			}
			return &expr.Binary{Op: expr.OpOr, Left: l, Right: r}, nil
		}
	case *expr.Unary:
		if n.Op == expr.OpNot {
			if neg, ok := negate(n.Operand); ok {
				return t.legalize(neg)
			}
		}
	}
	return t.leaf(n)
}

// negate returns a tree equivalent to !n with the negation moved inwards,
// or false when n cannot absorb it.
func negate(n expr.Node) (expr.Node, bool) {
	switch n := n.(type) {
	case *expr.Binary:
		switch {
		case n.Op == expr.OpAnd:
			return &expr.Binary{Op: expr.OpOr, Left: not(n.Left), Right: not(n.Right)}, true
		case n.Op == expr.OpOr:
			return &expr.Binary{Op: expr.OpAnd, Left: not(n.Left), Right: not(n.Right)}, true
		case n.Op.IsComparison():
			// !(a < b) also holds when a or b is null, a >= b does not.
			if n.Op != expr.OpEq && n.Op != expr.OpNe && (n.Left.Type().Nullable || n.Right.Type().Nullable) {
				return nil, false
			}
			inv, _ := n.Op.Invert()
			return &expr.Binary{Op: inv, Left: n.Left, Right: n.Right}, true
		}
	case *expr.Unary:
		if n.Op == expr.OpNot {
			return n.Operand, true
		}
	case *expr.Constant:
		if v, ok := n.Value.(bool); ok {
			return expr.NewConstant(!v), true
		}
	case *expr.PropertyRef:
		if t := n.Type(); t.Kind == expr.KindBool && !t.Nullable {
			return &expr.Binary{Op: expr.OpEq, Left: n, Right: expr.NewConstant(false)}, true
		}
	case *expr.Condition:
		return negate(n.Comparison)
	}
	return nil, false
}

func not(n expr.Node) expr.Node {
	return &expr.Unary{Op: expr.OpNot, Operand: n}
}

// leaf checks one comparison and wraps it in a Condition when it is legal.
func (t *translation) leaf(n expr.Node) (expr.Node, error) {
	if c, ok := n.(*expr.Constant); ok && c.Value == true {
		return nil, nil
	}
	cmp := normalize(n)
	ok, err := t.checkComparison(cmp)
	if err != nil || !ok {
		return nil, err
	}
	return &expr.Condition{Comparison: cmp}, nil
}

// normalize rewrites a leaf into field-on-the-left form: a bare boolean
// field becomes field == true and 5 < x.A becomes x.A > 5.
func normalize(n expr.Node) expr.Node {
	switch n := n.(type) {
	case *expr.Binary:
		if n.Op.IsComparison() && !hasRef(n.Left) && hasRef(n.Right) {
			return &expr.Binary{Op: n.Op.Swap(), Left: n.Right, Right: n.Left}
		}
	case *expr.PropertyRef, *expr.Member, *expr.Convert:
		if n.Type().Kind == expr.KindBool && hasRef(n) {
			return &expr.Binary{Op: expr.OpEq, Left: n, Right: expr.NewConstant(true)}
		}
	}
	return n
}

func hasRef(n expr.Node) bool {
	return len(expr.PropertyRefs(n)) > 0
}

// checkComparison reports whether cmp can be expressed remotely. Comparisons
// without any field pass; the reducer decides about those.
func (t *translation) checkComparison(cmp expr.Node) (bool, error) {
	var fieldSide, valueSide expr.Node
	switch c := cmp.(type) {
	case *expr.Binary:
		if !c.Op.IsComparison() {
			return t.reject(CodeUnsupportedNode, cmp, "operator %s is not a comparison", c.Op)
		}
		fieldSide, valueSide = c.Left, c.Right
	case *expr.Call:
		if c.Method != expr.MethodContains || len(c.Args) != 1 {
			return t.reject(CodeUnsupportedNode, cmp, "method %s cannot be pushed", c.Method)
		}
		if hasRef(c.Args[0]) {
			return t.reject(CodeUnsupportedNode, cmp, "field inside the Contains argument")
		}
		fieldSide, valueSide = c.Target, c.Args[0]
	case *expr.Unary:
		if hasRef(c) {
			return t.reject(CodeUnsupportedParent, cmp, "operator %s above a field", c.Op)
		}
		return t.reject(CodeUnsupportedNode, cmp, "%s is not a comparison", describe(cmp))
	default:
		return t.reject(CodeUnsupportedNode, cmp, "%s is not a comparison", describe(cmp))
	}

	if refs := expr.PropertyRefs(cmp); len(refs) > 1 {
		names := make([]string, len(refs))
		for i, ref := range refs {
			names[i] = ref.Field
		}
		return t.reject(CodePropertyCount, cmp, "comparison references more than one field: %s", strings.Join(names, ", "))
	}

	if ok, err := t.checkOperand(cmp, fieldSide); !ok || err != nil {
		return ok, err
	}
	return t.checkOperand(cmp, valueSide)
}

// checkOperand walks one side of a comparison down to its field reference.
func (t *translation) checkOperand(cmp, n expr.Node) (bool, error) {
	switch n := n.(type) {
	case *expr.PropertyRef, *expr.Constant:
		return true, nil
	case *expr.Member:
		if !allowedMember(n) {
			return t.reject(CodeExtraneousMember, cmp, "member %s is not a known field", n.Name)
		}
		return t.checkOperand(cmp, n.Target)
	case *expr.Convert:
		if hasRef(n.Operand) && !legalCast(n.Operand.Type(), n.DataType) {
			return t.reject(CodeIllegalCast, cmp, "cannot convert %s to %s", n.Operand.Type(), n.DataType)
		}
		return t.checkOperand(cmp, n.Operand)
	case *expr.Unary:
		if n.Op == expr.OpArrayLength || n.Op == expr.OpThrow {
			return t.reject(CodeUnsupportedNode, cmp, "%s cannot be pushed", n.Op)
		}
		if hasRef(n.Operand) {
			return t.reject(CodeUnsupportedParent, cmp, "operator %s above a field", n.Op)
		}
		return t.checkOperand(cmp, n.Operand)
	case *expr.Binary:
		if hasRef(n) {
			return t.reject(CodeUnsupportedParent, cmp, "operator %s above a field", n.Op)
		}
		if ok, err := t.checkOperand(cmp, n.Left); !ok || err != nil {
			return ok, err
		}
		return t.checkOperand(cmp, n.Right)
	case *expr.Conditional:
		if hasRef(n) {
			return t.reject(CodeUnsupportedParent, cmp, "conditional above a field")
		}
		for _, child := range []expr.Node{n.Test, n.Then, n.Else} {
			if ok, err := t.checkOperand(cmp, child); !ok || err != nil {
				return ok, err
			}
		}
		return true, nil
	case *expr.TypeIs:
		if hasRef(n) {
			return t.reject(CodeUnsupportedParent, cmp, "type test above a field")
		}
		return t.checkOperand(cmp, n.Operand)
	}
	return t.reject(CodeUnsupportedNode, cmp, "%s cannot be pushed", describe(n))
}

// allowedMember is the whitelist of members that may sit on a field: the
// nullable unwrap and duration seconds.
func allowedMember(m *expr.Member) bool {
	t := m.Target.Type()
	switch m.Name {
	case "Value":
		return t.Nullable
	case "TotalSeconds":
		return t.Kind == expr.KindDuration
	}
	return false
}

// legalCast reports whether converting a field from one type to another
// keeps its remote meaning.
func legalCast(from, to expr.Type) bool {
	switch {
	case from.Underlying() == to.Underlying():
		return true
	case to.Kind == expr.KindObject:
		return true
	case from.Kind == expr.KindEnum && expr.IsNumeric(to):
		return true
	case from.Kind == expr.KindEnum && to.Kind == expr.KindEnum && to.Name == "":
		return true
	}
	return false
}

func describe(n expr.Node) string {
	switch n := n.(type) {
	case *expr.Parameter:
		return "parameter " + n.Name
	case *expr.Source:
		return "source " + n.Entity
	case *expr.Lambda:
		return "lambda"
	case *expr.Call:
		return "call " + n.Method
	case *expr.Debug:
		return "debug"
	case *expr.Conditional:
		return "conditional"
	case *expr.TypeIs:
		return "type test"
	case *expr.Paging:
		return "paging"
	case *expr.Member:
		return "member " + n.Name
	}
	return expr.String(n)
}

// reject handles an illegal fragment: an error in strict mode, otherwise a
// silent drop that marks the translation illegal.
func (t *translation) reject(code Code, n expr.Node, format string, args ...any) (bool, error) {
	return false, t.fail(code, n, format, args...)
}
