package expr

// Node is a node of the query expression tree.
//
// Node is closed: only types in this package implement it. Accept dispatches
// to the Visitor method for the concrete kind.
type Node interface {
	Type() Type
	Accept(v Visitor)
	exprNode()
}

// Visitor has one method per node kind.
type Visitor interface {
	VisitSource(n *Source)
	VisitParameter(n *Parameter)
	VisitConstant(n *Constant)
	VisitMember(n *Member)
	VisitConvert(n *Convert)
	VisitUnary(n *Unary)
	VisitBinary(n *Binary)
	VisitConditional(n *Conditional)
	VisitTypeIs(n *TypeIs)
	VisitDebug(n *Debug)
	VisitLambda(n *Lambda)
	VisitCall(n *Call)
	VisitPropertyRef(n *PropertyRef)
	VisitCondition(n *Condition)
	VisitPaging(n *Paging)
}

// UnaryOp identifies a unary operator.
type UnaryOp uint8

const (
	OpNot UnaryOp = iota
	OpNegate
	OpOnesComplement
	OpIncrement
	OpDecrement
	OpArrayLength
	OpThrow
)

var unaryNames = [...]string{
	OpNot:            "!",
	OpNegate:         "-",
	OpOnesComplement: "~",
	OpIncrement:      "inc",
	OpDecrement:      "dec",
	OpArrayLength:    "Length",
	OpThrow:          "throw",
}

func (op UnaryOp) String() string {
	if int(op) < len(unaryNames) {
		return unaryNames[op]
	}
	return "?"
}

// BinaryOp identifies a binary operator.
type BinaryOp uint8

const (
	OpAnd BinaryOp = iota
	OpOr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpCoalesce
	OpIndex
)

var binarySymbols = map[BinaryOp]string{
	OpAnd:      "&&",
	OpOr:       "||",
	OpEq:       "==",
	OpNe:       "!=",
	OpLt:       "<",
	OpLe:       "<=",
	OpGt:       ">",
	OpGe:       ">=",
	OpAdd:      "+",
	OpSub:      "-",
	OpMul:      "*",
	OpDiv:      "/",
	OpCoalesce: "??",
	OpIndex:    "[]",
}

func (op BinaryOp) String() string {
	return binarySymbols[op]
}

// IsLogical reports whether op is && or ||.
func (op BinaryOp) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

// IsComparison reports whether op compares its operands.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// Swap returns the operator that yields the same result with operands
// exchanged (a < b is b > a).
func (op BinaryOp) Swap() BinaryOp {
	switch op {
	case OpLt:
		return OpGt
	case OpLe:
		return OpGe
	case OpGt:
		return OpLt
	case OpGe:
		return OpLe
	}
	return op
}

// Invert returns the comparison that is true exactly when op is false.
func (op BinaryOp) Invert() (BinaryOp, bool) {
	switch op {
	case OpEq:
		return OpNe, true
	case OpNe:
		return OpEq, true
	case OpLt:
		return OpGe, true
	case OpLe:
		return OpGt, true
	case OpGt:
		return OpLe, true
	case OpGe:
		return OpLt, true
	}
	return op, false
}

// Method names recognised on query chains and values.
const (
	MethodWhere             = "Where"
	MethodSelect            = "Select"
	MethodOrderBy           = "OrderBy"
	MethodOrderByDescending = "OrderByDescending"
	MethodTake              = "Take"
	MethodSkip              = "Skip"
	MethodContains          = "Contains"
)

// Source is the root of a query chain: the entity set being queried.
type Source struct {
	Entity string
}

func (n *Source) Type() Type { return Entity(n.Entity) }
func (n *Source) Accept(v Visitor) { v.VisitSource(n) }
func (*Source) exprNode() {}

// Parameter is a lambda parameter.
type Parameter struct {
	Name     string
	DataType Type
}

func (n *Parameter) Type() Type { return n.DataType }
func (n *Parameter) Accept(v Visitor) { v.VisitParameter(n) }
func (*Parameter) exprNode() {}

// Constant is a literal value: nil, bool, int64, float64, string,
// time.Duration, time.Time or EnumValue.
type Constant struct {
	Value    any
	DataType Type
}

// NewConstant returns a constant typed by its value.
func NewConstant(v any) *Constant {
	if i, ok := v.(int); ok {
		v = int64(i)
	}
	return &Constant{Value: v, DataType: TypeOf(v)}
}

func (n *Constant) Type() Type { return n.DataType }
func (n *Constant) Accept(v Visitor) { v.VisitConstant(n) }
func (*Constant) exprNode() {}

// Member is a member access on Target.
type Member struct {
	Target   Node
	Name     string
	DataType Type
}

func (n *Member) Type() Type { return n.DataType }
func (n *Member) Accept(v Visitor) { v.VisitMember(n) }
func (*Member) exprNode() {}

// Convert is a cast of Operand to DataType.
type Convert struct {
	Operand  Node
	DataType Type
}

func (n *Convert) Type() Type { return n.DataType }
func (n *Convert) Accept(v Visitor) { v.VisitConvert(n) }
func (*Convert) exprNode() {}

// Unary applies Op to Operand.
type Unary struct {
	Op      UnaryOp
	Operand Node
}

func (n *Unary) Type() Type {
	switch n.Op {
	case OpNot:
		return Bool
	case OpArrayLength:
		return Int
	case OpThrow:
		return Unknown
	}
	return n.Operand.Type()
}
func (n *Unary) Accept(v Visitor) { v.VisitUnary(n) }
func (*Unary) exprNode() {}

// Binary applies Op to Left and Right. OpIndex reads Left[Right].
type Binary struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

func (n *Binary) Type() Type {
	switch {
	case n.Op.IsLogical(), n.Op.IsComparison():
		return Bool
	case n.Op == OpCoalesce:
		return n.Left.Type().Underlying()
	case n.Op == OpIndex:
		return Unknown
	}
	return n.Left.Type()
}
func (n *Binary) Accept(v Visitor) { v.VisitBinary(n) }
func (*Binary) exprNode() {}

// Conditional is Test ? Then : Else.
type Conditional struct {
	Test Node
	Then Node
	Else Node
}

func (n *Conditional) Type() Type { return n.Then.Type() }
func (n *Conditional) Accept(v Visitor) { v.VisitConditional(n) }
func (*Conditional) exprNode() {}

// TypeIs tests whether Operand has type Target.
type TypeIs struct {
	Operand Node
	Target  Type
}

func (n *TypeIs) Type() Type { return Bool }
func (n *TypeIs) Accept(v Visitor) { v.VisitTypeIs(n) }
func (*TypeIs) exprNode() {}

// Debug wraps Operand with debugger information. It has no runtime effect.
type Debug struct {
	Operand Node
}

func (n *Debug) Type() Type { return n.Operand.Type() }
func (n *Debug) Accept(v Visitor) { v.VisitDebug(n) }
func (*Debug) exprNode() {}

// Lambda is a single-parameter function literal.
type Lambda struct {
	Param *Parameter
	Body  Node
}

func (n *Lambda) Type() Type { return n.Body.Type() }
func (n *Lambda) Accept(v Visitor) { v.VisitLambda(n) }
func (*Lambda) exprNode() {}

// Call invokes Method on Target. For query operators DataType is the element
// type of the resulting sequence.
type Call struct {
	Method   string
	Target   Node
	Args     []Node
	DataType Type
}

func (n *Call) Type() Type { return n.DataType }
func (n *Call) Accept(v Visitor) { v.VisitCall(n) }
func (*Call) exprNode() {}

// Lambda returns the first argument when it is a lambda.
func (n *Call) Lambda() (*Lambda, bool) {
	if len(n.Args) == 0 {
		return nil, false
	}
	l, ok := n.Args[0].(*Lambda)
	return l, ok
}
