package expr

// IsNumeric reports whether t holds numbers, nullable or not.
func IsNumeric(t Type) bool {
	switch t.Kind {
	case KindInt, KindFloat:
		return true
	}
	return false
}

// StripConvert peels every Convert wrapped around n.
func StripConvert(n Node) Node {
	for {
		c, ok := n.(*Convert)
		if !ok {
			return n
		}
		n = c.Operand
	}
}

// NullSafe synthesises target == null ? null : target.Member so that the
// access yields null instead of failing when the target is missing.
func NullSafe(m *Member) Node {
	return &Conditional{
		Test: &Binary{Op: OpEq, Left: m.Target, Right: &Constant{Value: nil, DataType: m.Target.Type().AsNullable()}},
		Then: &Constant{Value: nil, DataType: m.DataType.AsNullable()},
		Else: m,
	}
}

// GuardNavigation wraps every member access whose target is itself a
// nullable or object-typed member access with NullSafe. Lambda parameters
// and sources are never null and stay unguarded.
func GuardNavigation(n Node) Node {
	return Rewrite(n, func(n Node) Node {
		m, ok := n.(*Member)
		if !ok {
			return n
		}
		switch target := m.Target.(type) {
		case *Member, *PropertyRef, *Conditional:
			t := target.Type()
			if t.Nullable || t.Kind == KindObject {
				return NullSafe(m)
			}
		}
		return n
	})
}

// Conjoin joins nodes with &&, skipping nils. It returns nil when every node
// is nil.
func Conjoin(nodes ...Node) Node {
	return join(OpAnd, nodes)
}

// Disjoin joins nodes with ||, skipping nils.
func Disjoin(nodes ...Node) Node {
	return join(OpOr, nodes)
}

func join(op BinaryOp, nodes []Node) Node {
	var out Node
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if out == nil {
			out = n
			continue
		}
		out = &Binary{Op: op, Left: out, Right: n}
	}
	return out
}

// Flatten returns the operands of a chain of op, left to right.
// (a && b) && c flattens to [a b c] under OpAnd.
func Flatten(n Node, op BinaryOp) []Node {
	b, ok := n.(*Binary)
	if !ok || b.Op != op {
		return []Node{n}
	}
	return append(Flatten(b.Left, op), Flatten(b.Right, op)...)
}

// ReplaceParameter substitutes every occurrence of from inside n with to.
func ReplaceParameter(n Node, from, to *Parameter) Node {
	return Rewrite(n, func(n Node) Node {
		if p, ok := n.(*Parameter); ok && p == from {
			return to
		}
		return n
	})
}

// Equal reports whether a and b print identically. Markers print as the node
// they wrap, so a marked tree equals its unmarked original.
func Equal(a, b Node) bool {
	return String(a) == String(b)
}
