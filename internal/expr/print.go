package expr

import (
	"strconv"
	"strings"
	"time"
)

// String renders n in the textual query form. Binary and conditional nodes
// are always parenthesised so the output is unambiguous and stable.
func String(n Node) string {
	if n == nil {
		return "<nil>"
	}
	p := &printer{}
	n.Accept(p)
	return p.b.String()
}

// FormatValue renders a constant value the way the parser reads it back.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		s := strconv.FormatFloat(val, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	case string:
		return strconv.Quote(val)
	case time.Duration:
		return val.String()
	case time.Time:
		return "@" + val.UTC().Format(time.RFC3339)
	case EnumValue:
		return val.String()
	default:
		return "<?>"
	}
}

type printer struct {
	b strings.Builder
}

func (p *printer) print(n Node) {
	n.Accept(p)
}

func (p *printer) VisitSource(n *Source) { p.b.WriteString(n.Entity) }
func (p *printer) VisitParameter(n *Parameter) { p.b.WriteString(n.Name) }
func (p *printer) VisitConstant(n *Constant) { p.b.WriteString(FormatValue(n.Value)) }

func (p *printer) VisitMember(n *Member) {
	p.print(n.Target)
	p.b.WriteString(".")
	p.b.WriteString(n.Name)
}

func (p *printer) VisitConvert(n *Convert) {
	name := n.DataType.String()
	if n.DataType.Kind == KindEnum && n.DataType.Name == "" {
		name = "enum"
	}
	p.b.WriteString(name)
	p.b.WriteString("(")
	p.print(n.Operand)
	p.b.WriteString(")")
}

func (p *printer) VisitUnary(n *Unary) {
	switch n.Op {
	case OpNot:
		p.b.WriteString("!")
		p.print(n.Operand)
	case OpNegate:
		p.b.WriteString("-")
		p.print(n.Operand)
	case OpOnesComplement:
		p.b.WriteString("~")
		p.print(n.Operand)
	case OpArrayLength:
		p.print(n.Operand)
		p.b.WriteString(".Length")
	case OpIncrement:
		p.call("inc", n.Operand)
	case OpDecrement:
		p.call("dec", n.Operand)
	case OpThrow:
		p.call("throw", n.Operand)
	}
}

func (p *printer) call(name string, arg Node) {
	p.b.WriteString(name)
	p.b.WriteString("(")
	p.print(arg)
	p.b.WriteString(")")
}

func (p *printer) VisitBinary(n *Binary) {
	if n.Op == OpIndex {
		p.print(n.Left)
		p.b.WriteString("[")
		p.print(n.Right)
		p.b.WriteString("]")
		return
	}
	p.b.WriteString("(")
	p.print(n.Left)
	p.b.WriteString(" ")
	p.b.WriteString(n.Op.String())
	p.b.WriteString(" ")
	p.print(n.Right)
	p.b.WriteString(")")
}

func (p *printer) VisitConditional(n *Conditional) {
	p.b.WriteString("(")
	p.print(n.Test)
	p.b.WriteString(" ? ")
	p.print(n.Then)
	p.b.WriteString(" : ")
	p.print(n.Else)
	p.b.WriteString(")")
}

func (p *printer) VisitTypeIs(n *TypeIs) {
	p.b.WriteString("(")
	p.print(n.Operand)
	p.b.WriteString(" is ")
	p.b.WriteString(n.Target.String())
	p.b.WriteString(")")
}

func (p *printer) VisitDebug(n *Debug) { p.call("debug", n.Operand) }

func (p *printer) VisitLambda(n *Lambda) {
	p.b.WriteString(n.Param.Name)
	p.b.WriteString(" => ")
	p.print(n.Body)
}

func (p *printer) VisitCall(n *Call) {
	p.print(n.Target)
	p.b.WriteString(".")
	p.b.WriteString(n.Method)
	p.b.WriteString("(")
	for i, arg := range n.Args {
		if i > 0 {
			p.b.WriteString(", ")
		}
		p.print(arg)
	}
	p.b.WriteString(")")
}

func (p *printer) VisitPropertyRef(n *PropertyRef) { p.print(n.Member) }
func (p *printer) VisitCondition(n *Condition) { p.print(n.Comparison) }
func (p *printer) VisitPaging(n *Paging) { p.print(n.Call) }
