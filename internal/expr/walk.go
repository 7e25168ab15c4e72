package expr

// Children returns the direct children of n in evaluation order.
func Children(n Node) []Node {
	c := &childLister{}
	n.Accept(c)
	return c.out
}

// Walk visits n and its descendants in pre-order. When f returns false the
// children of that node are skipped.
func Walk(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, child := range Children(n) {
		Walk(child, f)
	}
}

// Rewrite rebuilds n bottom-up: children first, then f on the node carrying
// the rewritten children. Subtrees f leaves alone are shared, not copied.
func Rewrite(n Node, f func(Node) Node) Node {
	if n == nil {
		return nil
	}
	old := Children(n)
	if len(old) > 0 {
		changed := false
		updated := make([]Node, len(old))
		for i, child := range old {
			updated[i] = Rewrite(child, f)
			if updated[i] != child {
				changed = true
			}
		}
		if changed {
			n = WithChildren(n, updated)
		}
	}
	return f(n)
}

// WithChildren returns a copy of n with its children replaced. children must
// have the length and order Children(n) returns.
func WithChildren(n Node, children []Node) Node {
	r := &rebuilder{children: children}
	n.Accept(r)
	return r.out
}

type childLister struct {
	out []Node
}

func (c *childLister) VisitSource(*Source)       {}
func (c *childLister) VisitParameter(*Parameter) {}
func (c *childLister) VisitConstant(*Constant)   {}
func (c *childLister) VisitMember(n *Member) { c.out = []Node{n.Target} }
func (c *childLister) VisitConvert(n *Convert) { c.out = []Node{n.Operand} }
func (c *childLister) VisitUnary(n *Unary) { c.out = []Node{n.Operand} }
func (c *childLister) VisitBinary(n *Binary) { c.out = []Node{n.Left, n.Right} }
func (c *childLister) VisitConditional(n *Conditional) {
	c.out = []Node{n.Test, n.Then, n.Else}
}
func (c *childLister) VisitTypeIs(n *TypeIs) { c.out = []Node{n.Operand} }
func (c *childLister) VisitDebug(n *Debug) { c.out = []Node{n.Operand} }
func (c *childLister) VisitLambda(n *Lambda) { c.out = []Node{n.Param, n.Body} }
func (c *childLister) VisitCall(n *Call) { c.out = append([]Node{n.Target}, n.Args...) }
func (c *childLister) VisitPropertyRef(n *PropertyRef) {
	c.out = []Node{n.Member}
}
func (c *childLister) VisitCondition(n *Condition) { c.out = []Node{n.Comparison} }
func (c *childLister) VisitPaging(n *Paging) { c.out = []Node{n.Call} }

type rebuilder struct {
	children []Node
	out      Node
}

func (r *rebuilder) VisitSource(n *Source) { r.out = n }
func (r *rebuilder) VisitParameter(n *Parameter) { r.out = n }
func (r *rebuilder) VisitConstant(n *Constant) { r.out = n }

func (r *rebuilder) VisitMember(n *Member) {
	r.out = &Member{Target: r.children[0], Name: n.Name, DataType: n.DataType}
}

func (r *rebuilder) VisitConvert(n *Convert) {
	r.out = &Convert{Operand: r.children[0], DataType: n.DataType}
}

func (r *rebuilder) VisitUnary(n *Unary) {
	r.out = &Unary{Op: n.Op, Operand: r.children[0]}
}

func (r *rebuilder) VisitBinary(n *Binary) {
	r.out = &Binary{Op: n.Op, Left: r.children[0], Right: r.children[1]}
}

func (r *rebuilder) VisitConditional(*Conditional) {
	r.out = &Conditional{Test: r.children[0], Then: r.children[1], Else: r.children[2]}
}

func (r *rebuilder) VisitTypeIs(n *TypeIs) {
	r.out = &TypeIs{Operand: r.children[0], Target: n.Target}
}

func (r *rebuilder) VisitDebug(*Debug) {
	r.out = &Debug{Operand: r.children[0]}
}

func (r *rebuilder) VisitLambda(n *Lambda) {
	param, ok := r.children[0].(*Parameter)
	if !ok {
		param = n.Param
	}
	r.out = &Lambda{Param: param, Body: r.children[1]}
}

func (r *rebuilder) VisitCall(n *Call) {
	args := make([]Node, len(r.children)-1)
	copy(args, r.children[1:])
	r.out = &Call{Method: n.Method, Target: r.children[0], Args: args, DataType: n.DataType}
}

func (r *rebuilder) VisitPropertyRef(n *PropertyRef) {
	r.out = &PropertyRef{Field: n.Field, Member: r.children[0], Keep: n.Keep, ExclusiveOr: n.ExclusiveOr}
}

func (r *rebuilder) VisitCondition(*Condition) {
	r.out = &Condition{Comparison: r.children[0]}
}

func (r *rebuilder) VisitPaging(n *Paging) {
	call, ok := r.children[0].(*Call)
	if !ok {
		call = n.Call
	}
	r.out = &Paging{Kind: n.Kind, Count: n.Count, Call: call}
}
