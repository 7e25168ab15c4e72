package expr

// PropertyRef binds Member to the well-known field Field.
//
// Keep lets the field appear in more than one AND-ed comparison of a request
// (ranges). ExclusiveOr forbids OR-ing two comparisons on the field inside one
// request.
type PropertyRef struct {
	Field       string
	Member      Node
	Keep        bool
	ExclusiveOr bool
}

func (n *PropertyRef) Type() Type { return n.Member.Type() }
func (n *PropertyRef) Accept(v Visitor) { v.VisitPropertyRef(n) }
func (*PropertyRef) exprNode() {}

// Condition marks a comparison that survived legality checks and waits to be
// converted to a filter record. The comparison may reference zero, one or
// several properties.
type Condition struct {
	Comparison Node
}

func (n *Condition) Type() Type { return Bool }
func (n *Condition) Accept(v Visitor) { v.VisitCondition(n) }
func (*Condition) exprNode() {}

// Refs lists the property references inside the comparison.
func (n *Condition) Refs() []*PropertyRef {
	return PropertyRefs(n.Comparison)
}

// PagingKind distinguishes a count limit from an offset.
type PagingKind uint8

const (
	PagingLimit PagingKind = iota
	PagingOffset
)

// Paging marks a Take (limit) or Skip (offset) call whose count was read.
type Paging struct {
	Kind  PagingKind
	Count int
	Call  *Call
}

func (n *Paging) Type() Type { return n.Call.Type() }
func (n *Paging) Accept(v Visitor) { v.VisitPaging(n) }
func (*Paging) exprNode() {}

// Property describes how a member maps onto a well-known field.
type Property struct {
	Field       string
	Type        Type
	ExclusiveOr bool
}

// Resolver supplies the metadata the parser and MarkProperties need.
type Resolver interface {
	// Property maps a member of owner to a field. ok is false for members
	// the remote protocol does not know.
	Property(owner Type, member string) (p Property, ok bool)

	// EnumValue looks up a named member of an enum.
	EnumValue(enum, name string) (v EnumValue, ok bool)
}

// MarkProperties replaces every member access on an entity-typed lambda
// parameter that r maps to a field with a PropertyRef.
func MarkProperties(n Node, r Resolver) Node {
	return Rewrite(n, func(n Node) Node {
		m, ok := n.(*Member)
		if !ok {
			return n
		}
		param, ok := m.Target.(*Parameter)
		if !ok || param.DataType.Kind != KindEntity {
			return n
		}
		p, ok := r.Property(param.DataType, m.Name)
		if !ok {
			return n
		}
		return &PropertyRef{Field: p.Field, Member: m, ExclusiveOr: p.ExclusiveOr}
	})
}

// PropertyRefs returns every PropertyRef in n in pre-order.
func PropertyRefs(n Node) []*PropertyRef {
	var refs []*PropertyRef
	Walk(n, func(n Node) bool {
		if ref, ok := n.(*PropertyRef); ok {
			refs = append(refs, ref)
			return false
		}
		return true
	})
	return refs
}
