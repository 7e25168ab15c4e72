package expr

import (
	"strconv"
	"time"
)

// Parse reads a query in textual form. Member types and enum literals are
// resolved through r; members r does not know parse with an unknown type.
func Parse(src string, r Resolver) (Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, r: r, scope: map[string]*Parameter{}}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, syntaxErrorf(tok.pos, "unexpected %q after expression", tok.text)
	}
	return n, nil
}

// MustParse is Parse for tests and fixed inputs; it panics on error.
func MustParse(src string, r Resolver) Node {
	n, err := Parse(src, r)
	if err != nil {
		panic(err)
	}
	return n
}

var queryMethods = map[string]bool{
	MethodWhere:             true,
	MethodSelect:            true,
	MethodOrderBy:           true,
	MethodOrderByDescending: true,
	MethodTake:              true,
	MethodSkip:              true,
}

var boolMethods = map[string]bool{
	MethodContains: true,
	"StartsWith":   true,
	"EndsWith":     true,
	"Equals":       true,
}

var builtinUnary = map[string]UnaryOp{
	"inc":   OpIncrement,
	"dec":   OpDecrement,
	"throw": OpThrow,
}

type parser struct {
	toks  []token
	pos   int
	r     Resolver
	scope map[string]*Parameter
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(offset int) token {
	if p.pos+offset >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+offset]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) accept(punct string) bool {
	if tok := p.peek(); tok.kind == tokPunct && tok.text == punct {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(punct string) error {
	if !p.accept(punct) {
		tok := p.peek()
		return syntaxErrorf(tok.pos, "expected %q, found %q", punct, tok.text)
	}
	return nil
}

func (p *parser) parseExpr() (Node, error) {
	test, err := p.parseCoalesce()
	if err != nil {
		return nil, err
	}
	if !p.accept("?") {
		return test, nil
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Conditional{Test: test, Then: then, Else: els}, nil
}

func (p *parser) parseCoalesce() (Node, error) {
	left, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if !p.accept("??") {
		return left, nil
	}
	right, err := p.parseCoalesce()
	if err != nil {
		return nil, err
	}
	return &Binary{Op: OpCoalesce, Left: left, Right: right}, nil
}

// binaryLevels lists left-associative operators from loosest to tightest.
var binaryLevels = []map[string]BinaryOp{
	{"||": OpOr},
	{"&&": OpAnd},
	{"==": OpEq, "!=": OpNe},
	{"<": OpLt, "<=": OpLe, ">": OpGt, ">=": OpGe},
	{"+": OpAdd, "-": OpSub},
	{"*": OpMul, "/": OpDiv},
}

func (p *parser) parseBinary(level int) (Node, error) {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind == tokIdent && tok.text == "is" && level == 3 {
			p.next()
			t, err := p.parseTypeName()
			if err != nil {
				return nil, err
			}
			left = &TypeIs{Operand: left, Target: t}
			continue
		}
		op, ok := binaryLevels[level][tok.text]
		if tok.kind != tokPunct || !ok {
			return left, nil
		}
		p.next()
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseTypeName() (Type, error) {
	tok := p.next()
	if tok.kind != tokIdent {
		return Type{}, syntaxErrorf(tok.pos, "expected type name, found %q", tok.text)
	}
	t, ok := ParseType(tok.text)
	if !ok {
		t = Enum(tok.text)
	}
	if p.accept("?") {
		t = t.AsNullable()
	}
	return t, nil
}

func (p *parser) parseUnary() (Node, error) {
	tok := p.peek()
	if tok.kind != tokPunct {
		return p.parsePostfix()
	}
	var op UnaryOp
	switch tok.text {
	case "!":
		op = OpNot
	case "-":
		op = OpNegate
	case "~":
		op = OpOnesComplement
	default:
		return p.parsePostfix()
	}
	p.next()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if op == OpNegate {
		if c, ok := operand.(*Constant); ok {
			switch v := c.Value.(type) {
			case int64:
				return &Constant{Value: -v, DataType: c.DataType}, nil
			case float64:
				return &Constant{Value: -v, DataType: c.DataType}, nil
			case time.Duration:
				return &Constant{Value: -v, DataType: c.DataType}, nil
			}
		}
	}
	return &Unary{Op: op, Operand: operand}, nil
}

func (p *parser) parsePostfix() (Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("."):
			name := p.next()
			if name.kind != tokIdent {
				return nil, syntaxErrorf(name.pos, "expected member name, found %q", name.text)
			}
			if p.accept("(") {
				n, err = p.parseCall(n, name.text)
			} else {
				n = p.member(n, name.text)
			}
			if err != nil {
				return nil, err
			}
		case p.accept("["):
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			n = &Binary{Op: OpIndex, Left: n, Right: index}
		default:
			return n, nil
		}
	}
}

// member types a member access from built-in rules and the resolver.
func (p *parser) member(target Node, name string) Node {
	t := target.Type()
	switch {
	case t.Nullable && name == "Value":
		return &Member{Target: target, Name: name, DataType: t.Underlying()}
	case t.Nullable && name == "HasValue":
		return &Member{Target: target, Name: name, DataType: Bool}
	case t.Kind == KindDuration && name == "TotalSeconds":
		return &Member{Target: target, Name: name, DataType: Float}
	case t.Kind == KindArray && name == "Length":
		return &Unary{Op: OpArrayLength, Operand: target}
	case t.Kind == KindString && name == "Length":
		return &Member{Target: target, Name: name, DataType: Int}
	case t.Kind == KindEntity && p.r != nil:
		if prop, ok := p.r.Property(t, name); ok {
			return &Member{Target: target, Name: name, DataType: prop.Type}
		}
	}
	return &Member{Target: target, Name: name, DataType: Unknown}
}

func isSequence(n Node) bool {
	switch n := n.(type) {
	case *Source:
		return true
	case *Call:
		return queryMethods[n.Method]
	}
	return false
}

// parseCall reads the arguments of target.method( after the opening paren.
func (p *parser) parseCall(target Node, method string) (Node, error) {
	call := &Call{Method: method, Target: target}
	seq := isSequence(target)
	for !p.accept(")") {
		if len(call.Args) > 0 {
			if err := p.expect(","); err != nil {
				return nil, err
			}
		}
		var arg Node
		var err error
		if seq && p.peek().kind == tokIdent && p.peekAt(1).text == "=>" {
			arg, err = p.parseLambda(target.Type())
		} else {
			arg, err = p.parseExpr()
		}
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
	}
	switch {
	case seq && method == MethodSelect:
		call.DataType = Unknown
		if l, ok := call.Lambda(); ok {
			call.DataType = l.Body.Type()
		}
	case seq:
		call.DataType = target.Type()
	case boolMethods[method]:
		call.DataType = Bool
	default:
		call.DataType = Unknown
	}
	return call, nil
}

func (p *parser) parseLambda(param Type) (Node, error) {
	name := p.next()
	p.next() // =>
	if _, taken := p.scope[name.text]; taken {
		return nil, syntaxErrorf(name.pos, "parameter %q shadows an outer parameter", name.text)
	}
	pr := &Parameter{Name: name.text, DataType: param}
	p.scope[name.text] = pr
	defer delete(p.scope, name.text)
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Lambda{Param: pr, Body: body}, nil
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.next()
	switch tok.kind {
	case tokInt:
		v, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return nil, syntaxErrorf(tok.pos, "invalid integer %q", tok.text)
		}
		return NewConstant(v), nil
	case tokFloat:
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, syntaxErrorf(tok.pos, "invalid float %q", tok.text)
		}
		return NewConstant(v), nil
	case tokString:
		v, err := strconv.Unquote(tok.text)
		if err != nil {
			return nil, syntaxErrorf(tok.pos, "invalid string %s", tok.text)
		}
		return NewConstant(v), nil
	case tokDuration:
		v, err := time.ParseDuration(tok.text)
		if err != nil {
			return nil, syntaxErrorf(tok.pos, "invalid duration %q", tok.text)
		}
		return NewConstant(v), nil
	case tokTime:
		v, err := time.Parse(time.RFC3339, tok.text)
		if err != nil {
			return nil, syntaxErrorf(tok.pos, "invalid time %q", tok.text)
		}
		return NewConstant(v.UTC()), nil
	case tokIdent:
		return p.parseIdent(tok)
	case tokPunct:
		if tok.text == "(" {
			n, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return n, nil
		}
	}
	return nil, syntaxErrorf(tok.pos, "unexpected %q", tok.text)
}

func (p *parser) parseIdent(tok token) (Node, error) {
	switch tok.text {
	case "true":
		return NewConstant(true), nil
	case "false":
		return NewConstant(false), nil
	case "null":
		return NewConstant(nil), nil
	}
	if param, ok := p.scope[tok.text]; ok {
		return param, nil
	}
	if op, ok := builtinUnary[tok.text]; ok && p.peek().text == "(" {
		operand, err := p.parseParenthesised()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: op, Operand: operand}, nil
	}
	if tok.text == "debug" && p.peek().text == "(" {
		operand, err := p.parseParenthesised()
		if err != nil {
			return nil, err
		}
		return &Debug{Operand: operand}, nil
	}
	if t, ok := ParseType(tok.text); ok && p.isCast() {
		if p.accept("?") {
			t = t.AsNullable()
		}
		operand, err := p.parseParenthesised()
		if err != nil {
			return nil, err
		}
		return &Convert{Operand: operand, DataType: t}, nil
	}
	if p.peek().text == "." && p.peekAt(1).kind == tokIdent && p.peekAt(2).text != "(" && p.r != nil {
		if v, ok := p.r.EnumValue(tok.text, p.peekAt(1).text); ok {
			p.next()
			p.next()
			return NewConstant(v), nil
		}
	}
	return &Source{Entity: tok.text}, nil
}

// isCast reports whether the tokens after a type name open a cast: "(" or
// "?" "(".
func (p *parser) isCast() bool {
	if p.peek().text == "(" {
		return true
	}
	return p.peek().text == "?" && p.peekAt(1).text == "("
}

func (p *parser) parseParenthesised() (Node, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return n, nil
}
