package translate

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/sieve/internal/catalog"
	"github.com/roach88/sieve/internal/expr"
	"github.com/roach88/sieve/internal/filter"
)

// toSet turns a kept conjunction into one filter set, one record per unit.
// Units that cannot become a record are dropped, which widens the set.
func (t *translation) toSet(kept expr.Node) (filter.Set, error) {
	var set filter.Set
	for _, u := range units(kept) {
		rec, ok, err := t.record(u)
		if err != nil {
			return filter.Set{}, err
		}
		if !ok {
			continue
		}
		if set.Has(rec.Field) && !refOf(u).Keep {
			if err := t.fail(CodeAmbiguousCondition, u, "more than one condition on field %s", rec.Field); err != nil {
				return filter.Set{}, err
			}
			continue
		}
		set.Add(rec)
	}
	return set, nil
}

// record folds one unit into a filter record. An OR group becomes a single
// record with several values; if any alternative fails the whole group is
// dropped.
func (t *translation) record(u expr.Node) (filter.Record, bool, error) {
	var out filter.Record
	for i, alt := range expr.Flatten(u, expr.OpOr) {
		c, ok := alt.(*expr.Condition)
		if !ok {
			return filter.Record{}, false, t.fail(CodeAmbiguousCondition, alt, "expected a single condition")
		}
		rec, ok, err := t.visitCondition(c)
		if err != nil || !ok {
			return filter.Record{}, false, err
		}
		if i == 0 {
			out = rec
			continue
		}
		if rec.Field != out.Field || rec.Operator != out.Operator {
			return filter.Record{}, false, t.fail(CodeAmbiguousCondition, u, "alternatives use different fields or operators")
		}
		for _, v := range rec.Values {
			if !slices.Contains(out.Values, v) {
				out.Values = append(out.Values, v)
			}
		}
	}
	return out, true, nil
}

var recordOperators = map[expr.BinaryOp]filter.Operator{
	expr.OpEq: filter.OpEquals,
	expr.OpNe: filter.OpNotEquals,
	expr.OpGt: filter.OpGreaterThan,
	expr.OpGe: filter.OpGreaterOrEqual,
	expr.OpLt: filter.OpLessThan,
	expr.OpLe: filter.OpLessOrEqual,
}

// fieldShape describes what sits between a field reference and the
// comparison.
type fieldShape struct {
	// ordinal: an enum field cast to a number, values are ordinals.
	ordinal bool
	// seconds: a duration field read through TotalSeconds.
	seconds bool
}

func shapeOf(n expr.Node) fieldShape {
	var s fieldShape
	for {
		switch m := n.(type) {
		case *expr.Convert:
			if expr.IsNumeric(m.DataType) && m.Operand.Type().Kind == expr.KindEnum {
				s.ordinal = true
			}
			n = m.Operand
		case *expr.Member:
			if m.Name == "TotalSeconds" {
				s.seconds = true
			}
			n = m.Target
		default:
			return s
		}
	}
}

// visitCondition converts one legal condition into a record with a single
// value.
func (t *translation) visitCondition(c *expr.Condition) (filter.Record, bool, error) {
	var fieldSide, valueSide expr.Node
	var op filter.Operator
	switch cmp := c.Comparison.(type) {
	case *expr.Binary:
		fieldSide, valueSide = cmp.Left, cmp.Right
		op = recordOperators[cmp.Op]
	case *expr.Call:
		fieldSide, valueSide = cmp.Target, cmp.Args[0]
		op = filter.OpContains
	default:
		return filter.Record{}, false, t.fail(CodeUnsupportedNode, c, "%s is not a comparison", describe(c.Comparison))
	}

	ref := c.Refs()[0]
	f, ok := t.b.cat.Field(ref.Field)
	if !ok {
		return filter.Record{}, false, t.fail(CodeInvalidFilter, c, "unknown field %s", ref.Field)
	}

	v, err := evalConstant(valueSide)
	if err != nil {
		return filter.Record{}, false, t.fail(CodeUnsupportedNode, c, "%v", err)
	}
	if v == nil {
		return filter.Record{}, false, t.fail(CodeInvalidFilter, c, "field %s cannot be compared with null", f.ID)
	}
	value, ok, err := t.formatValue(c, f, shapeOf(fieldSide), v)
	if err != nil || !ok {
		return filter.Record{}, false, err
	}

	op, value = adjustOperator(f, op, value)
	if !f.Accepts(op) {
		hint := "accepted operators: " + joinOperators(f.Operators)
		return filter.Record{}, false, t.failHint(CodeInvalidFilter, c, hint, "field %s does not accept operator %s", f.ID, op)
	}
	return filter.Record{Field: f.ID, Wire: f.Wire, Operator: op, Values: []string{value}}, true, nil
}

// adjustOperator rewrites >= and <= on integer fields that only accept the
// strict forms: x >= 5 is x > 4. Bounds that would wrap around int64 are
// left alone so validation rejects them.
func adjustOperator(f *catalog.Field, op filter.Operator, value string) (filter.Operator, string) {
	if f.Type.Kind != expr.KindInt || f.Accepts(op) {
		return op, value
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return op, value
	}
	switch {
	case op == filter.OpGreaterOrEqual && f.Accepts(filter.OpGreaterThan) && n != math.MinInt64:
		return filter.OpGreaterThan, strconv.FormatInt(n-1, 10)
	case op == filter.OpLessOrEqual && f.Accepts(filter.OpLessThan) && n != math.MaxInt64:
		return filter.OpLessThan, strconv.FormatInt(n+1, 10)
	}
	return op, value
}

// formatValue renders v in the wire syntax of field f.
func (t *translation) formatValue(c *expr.Condition, f *catalog.Field, shape fieldShape, v any) (string, bool, error) {
	mismatch := func() (string, bool, error) {
		return "", false, t.fail(CodeInvalidFilter, c, "value %s does not fit %s field %s", expr.FormatValue(v), f.Type, f.ID)
	}

	switch f.Type.Kind {
	case expr.KindEnum:
		e, _ := t.b.cat.Enum(f.Type.Name)
		var m catalog.EnumMember
		var found bool
		switch val := v.(type) {
		case expr.EnumValue:
			if val.Enum == e.Name {
				m, found = e.ByName(val.Name)
			}
		case int64:
			m, found = e.ByOrdinal(val)
		default:
			return mismatch()
		}
		if !found {
			wires := make([]string, len(e.Members))
			for i, em := range e.Members {
				wires[i] = em.Wire
			}
			hint := "accepted values: " + strings.Join(wires, ", ")
			return "", false, t.failHint(CodeInvalidFilter, c, hint, "%s is not a %s", expr.FormatValue(v), e.Name)
		}
		return m.Wire, true, nil

	case expr.KindDuration:
		if shape.seconds {
			if s, ok := formatNumber(v); ok {
				return s, true, nil
			}
			return mismatch()
		}
		if d, ok := v.(time.Duration); ok {
			return strconv.FormatFloat(d.Seconds(), 'f', -1, 64), true, nil
		}
		return mismatch()

	case expr.KindTime:
		if ts, ok := v.(time.Time); ok {
			return ts.UTC().Format(time.RFC3339), true, nil
		}
		return mismatch()

	case expr.KindString, expr.KindArray:
		if s, ok := v.(string); ok {
			return norm.NFC.String(s), true, nil
		}
		return mismatch()

	case expr.KindBool:
		if b, ok := v.(bool); ok {
			return strconv.FormatBool(b), true, nil
		}
		return mismatch()

	case expr.KindInt, expr.KindFloat:
		if s, ok := formatNumber(v); ok {
			return s, true, nil
		}
		return mismatch()
	}
	return mismatch()
}

func formatNumber(v any) (string, bool) {
	switch n := v.(type) {
	case int64:
		return strconv.FormatInt(n, 10), true
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	return "", false
}

func joinOperators(ops []filter.Operator) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = string(op)
	}
	return strings.Join(parts, ", ")
}

// evalConstant folds a field-free value expression into a Go value:
// nil, bool, int64, float64, string, time.Duration, time.Time or
// expr.EnumValue.
func evalConstant(n expr.Node) (any, error) {
	switch n := n.(type) {
	case *expr.Constant:
		if i, ok := n.Value.(int); ok {
			return int64(i), nil
		}
		return n.Value, nil
	case *expr.Convert:
		v, err := evalConstant(n.Operand)
		if err != nil {
			return nil, err
		}
		return convertConstant(v, n.DataType), nil
	case *expr.Unary:
		if n.Op != expr.OpNegate {
			break
		}
		v, err := evalConstant(n.Operand)
		if err != nil {
			return nil, err
		}
		switch val := v.(type) {
		case int64:
			return -val, nil
		case float64:
			return -val, nil
		case time.Duration:
			return -val, nil
		}
	case *expr.Binary:
		l, err := evalConstant(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := evalConstant(n.Right)
		if err != nil {
			return nil, err
		}
		if v, ok := arithmetic(n.Op, l, r); ok {
			return v, nil
		}
	}
	return nil, errors.Newf("%s is not a constant value", expr.String(n))
}

func convertConstant(v any, to expr.Type) any {
	switch to.Kind {
	case expr.KindInt:
		switch val := v.(type) {
		case expr.EnumValue:
			return val.Ordinal
		case float64:
			return int64(val)
		}
	case expr.KindFloat:
		switch val := v.(type) {
		case int64:
			return float64(val)
		case expr.EnumValue:
			return float64(val.Ordinal)
		}
	}
	return v
}

func arithmetic(op expr.BinaryOp, l, r any) (any, bool) {
	switch a := l.(type) {
	case int64:
		switch b := r.(type) {
		case int64:
			switch op {
			case expr.OpAdd:
				return a + b, true
			case expr.OpSub:
				return a - b, true
			case expr.OpMul:
				return a * b, true
			case expr.OpDiv:
				if b != 0 {
					return a / b, true
				}
			}
		case float64:
			return arithmetic(op, float64(a), b)
		}
	case float64:
		var b float64
		switch rv := r.(type) {
		case float64:
			b = rv
		case int64:
			b = float64(rv)
		default:
			return nil, false
		}
		switch op {
		case expr.OpAdd:
			return a + b, true
		case expr.OpSub:
			return a - b, true
		case expr.OpMul:
			return a * b, true
		case expr.OpDiv:
			if b != 0 {
				return a / b, true
			}
		}
	case time.Duration:
		if b, ok := r.(time.Duration); ok {
			switch op {
			case expr.OpAdd:
				return a + b, true
			case expr.OpSub:
				return a - b, true
			}
		}
	case time.Time:
		if b, ok := r.(time.Duration); ok {
			switch op {
			case expr.OpAdd:
				return a.Add(b), true
			case expr.OpSub:
				return a.Add(-b), true
			}
		}
	case string:
		if b, ok := r.(string); ok && op == expr.OpAdd {
			return a + b, true
		}
	}
	return nil, false
}
