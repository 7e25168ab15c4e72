package translate

import (
	"github.com/roach88/sieve/internal/expr"
)

// reduction is the outcome of reducing one legal subtree.
//
// kept is a conjunction of units, where a unit is a Condition or an OR of
// Conditions on one field with one operator; nil means no restriction.
// overflow lists expressions that must become their own filter sets. The
// subtree always implies kept || overflow[0] || overflow[1] ...
type reduction struct {
	kept     expr.Node
	overflow []expr.Node
}

// reduce rewrites a legal AND/OR tree bottom-up into what one filter set can
// hold plus overflow expressions.
func (t *translation) reduce(n expr.Node) (reduction, error) {
	switch n := n.(type) {
	case *expr.Condition:
		if len(n.Refs()) != 1 {
			return reduction{}, t.fail(CodePropertyCount, n, "condition references no known field")
		}
		return reduction{kept: n}, nil
	case *expr.Binary:
		l, err := t.reduce(n.Left)
		if err != nil {
			return reduction{}, err
		}
		r, err := t.reduce(n.Right)
		if err != nil {
			return reduction{}, err
		}
		switch n.Op {
		case expr.OpAnd:
			return t.reduceAnd(n, l, r)
		case expr.OpOr:
			return t.reduceOr(n, l, r), nil
		}
	}
	return reduction{}, t.fail(CodeUnsupportedNode, n, "%s in a reduced predicate", describe(n))
}

// reduceAnd keeps every unit of both sides except right units on a field the
// left side already filters; those are ignored unless the field is kept.
func (t *translation) reduceAnd(n *expr.Binary, l, r reduction) (reduction, error) {
	kept := l.kept
	right := units(r.kept)
	dropped := 0
	for _, u := range right {
		if conflicts(kept, u) {
			dropped++
			if err := t.fail(CodeAmbiguousCondition, u, "field %s is already filtered in this set", refOf(u).Field); err != nil {
				return reduction{}, err
			}
			continue
		}
		kept = expr.Conjoin(kept, u)
	}

	out := reduction{kept: kept}
	for _, o := range l.overflow {
		out.overflow = append(out.overflow, expr.Conjoin(o, n.Right))
	}
	// When every right unit was ignored, kept already covers l.kept && r.
	if len(right) == 0 || dropped < len(right) {
		for _, o := range r.overflow {
			out.overflow = append(out.overflow, expr.Conjoin(l.kept, o))
		}
	}
	return out, nil
}

// reduceOr folds same-field same-operator ORs into one unit and splits every
// other OR: the left side stays, the right side becomes overflow.
func (t *translation) reduceOr(n *expr.Binary, l, r reduction) reduction {
	if l.kept == nil || r.kept == nil {
		return reduction{}
	}
	overflow := append([]expr.Node{}, l.overflow...)
	if mergeable(l.kept, r.kept) {
		overflow = append(overflow, r.overflow...)
		return reduction{kept: &expr.Binary{Op: expr.OpOr, Left: l.kept, Right: r.kept}, overflow: overflow}
	}
	t.flag(n, "or split into separate filter sets")
	overflow = append(overflow, r.kept)
	overflow = append(overflow, r.overflow...)
	return reduction{kept: l.kept, overflow: overflow}
}

func units(n expr.Node) []expr.Node {
	if n == nil {
		return nil
	}
	return expr.Flatten(n, expr.OpAnd)
}

// refOf returns the field reference of a unit.
func refOf(u expr.Node) *expr.PropertyRef {
	return expr.PropertyRefs(u)[0]
}

// conflicts reports whether adding u to kept puts two records on one field
// that is not kept.
func conflicts(kept, u expr.Node) bool {
	ref := refOf(u)
	if ref.Keep {
		return false
	}
	for _, k := range units(kept) {
		if refOf(k).Field == ref.Field {
			return true
		}
	}
	return false
}

// mergeable reports whether two units can share one record: both single
// units on one field with one operator, and the field allows OR.
func mergeable(a, b expr.Node) bool {
	fa, opa, ok := unitKey(a)
	if !ok {
		return false
	}
	fb, opb, ok := unitKey(b)
	if !ok {
		return false
	}
	return fa == fb && opa == opb && !refOf(a).ExclusiveOr && !refOf(b).ExclusiveOr
}

// unitKey returns the field and operator of a unit. ok is false for
// conjunctions.
func unitKey(u expr.Node) (field, op string, ok bool) {
	switch u := u.(type) {
	case *expr.Condition:
		return refOf(u).Field, comparisonOp(u.Comparison), true
	case *expr.Binary:
		if u.Op == expr.OpOr {
			return unitKey(u.Left)
		}
	}
	return "", "", false
}

func comparisonOp(cmp expr.Node) string {
	switch c := cmp.(type) {
	case *expr.Binary:
		return c.Op.String()
	case *expr.Call:
		return c.Method
	}
	return ""
}
