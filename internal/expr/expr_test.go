package expr

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResolver knows a handful of sensor fields and one enum.
type fakeResolver struct{}

var fakeFields = map[string]Property{
	"Id":       {Field: "Id", Type: Int},
	"Name":     {Field: "Name", Type: StringType},
	"Status":   {Field: "Status", Type: Enum("Status")},
	"Priority": {Field: "Priority", Type: Int.AsNullable()},
	"LastUp":   {Field: "LastUp", Type: Time, ExclusiveOr: true},
	"Uptime":   {Field: "Uptime", Type: Duration},
	"Tags":     {Field: "Tags", Type: Array("string")},
	"Active":   {Field: "Active", Type: Bool},
}

func (fakeResolver) Property(owner Type, member string) (Property, bool) {
	if owner.Kind != KindEntity || owner.Name != "sensors" {
		return Property{}, false
	}
	p, ok := fakeFields[member]
	return p, ok
}

func (fakeResolver) EnumValue(enum, name string) (EnumValue, bool) {
	ordinals := map[string]int64{"Up": 3, "Down": 5, "Paused": 7}
	if enum != "Status" {
		return EnumValue{}, false
	}
	ord, ok := ordinals[name]
	return EnumValue{Enum: enum, Name: name, Ordinal: ord}, ok
}

func TestParse_RoundTrip(t *testing.T) {
	testCases := []string{
		`sensors.Where(s => (s.Name == "ping"))`,
		`sensors.Where(s => ((s.Name == "ping") || (s.Status == Status.Up))).Take(5)`,
		`sensors.OrderByDescending(s => s.Id).Skip(10).Take(20)`,
		`sensors.Where(s => (int(s.Status) == 3))`,
		`sensors.Where(s => (s.Priority.Value > 2))`,
		`sensors.Where(s => (s.Uptime > 1m30s))`,
		`sensors.Where(s => (s.LastUp < @2024-01-02T03:04:05Z))`,
		`sensors.Where(s => s.Tags.Contains("prod"))`,
		`sensors.Where(s => !s.Active)`,
		`sensors.Where(s => ((s.Priority ?? 0) == 1))`,
		`sensors.Where(s => ((s.Id > 0) ? true : false))`,
		`sensors.Where(s => (s.Tags.Length > 1))`,
		`sensors.Where(s => (-s.Id == -5))`,
		`sensors.Where(s => (s is sensors))`,
		`sensors.Where(s => (int?(s.Priority) == null))`,
		`sensors.Select(s => s.Name).Take(3)`,
	}
	for _, src := range testCases {
		t.Run(src, func(t *testing.T) {
			n, err := Parse(src, fakeResolver{})
			require.NoError(t, err)
			assert.Equal(t, src, String(n))
		})
	}
}

func TestParse_Types(t *testing.T) {
	n := MustParse(`sensors.Where(s => (s.Priority.Value > 2)).Select(s => s.Uptime.TotalSeconds)`, fakeResolver{})

	sel, ok := n.(*Call)
	require.True(t, ok)
	assert.Equal(t, MethodSelect, sel.Method)
	assert.Equal(t, Float, sel.Type())

	where, ok := sel.Target.(*Call)
	require.True(t, ok)
	assert.Equal(t, Entity("sensors"), where.Type())

	l, ok := where.Lambda()
	require.True(t, ok)
	cmp := l.Body.(*Binary)
	assert.Equal(t, Int, cmp.Left.Type(), "Value unwraps the nullable")
}

func TestParse_Literals(t *testing.T) {
	testCases := []struct {
		src  string
		want any
	}{
		{`42`, int64(42)},
		{`-7`, int64(-7)},
		{`2.5`, 2.5},
		{`"a\"b"`, `a"b`},
		{`5s`, 5 * time.Second},
		{`@2024-01-02T00:00:00Z`, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{`Status.Down`, EnumValue{Enum: "Status", Name: "Down", Ordinal: 5}},
		{`null`, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			n, err := Parse(tc.src, fakeResolver{})
			require.NoError(t, err)
			c, ok := n.(*Constant)
			require.True(t, ok, "got %T", n)
			assert.Equal(t, tc.want, c.Value)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []string{
		`sensors.Where(s => s.Name == "x"`,
		`sensors.Where(s => s.Name == "x)`,
		`sensors.Where(s => s.Name $ 1)`,
		`sensors.Where(s => s.Where(s => true))`,
		`1 +`,
		`(1 ? 2)`,
	}
	for _, src := range testCases {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src, fakeResolver{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSyntax), "error should be marked ErrSyntax: %v", err)
		})
	}
}

func TestMarkProperties(t *testing.T) {
	n := MustParse(`sensors.Where(s => ((s.Name == "a") && (s.Unknown == 1)))`, fakeResolver{})
	marked := MarkProperties(n, fakeResolver{})

	refs := PropertyRefs(marked)
	require.Len(t, refs, 1)
	assert.Equal(t, "Name", refs[0].Field)
	assert.True(t, Equal(n, marked), "markers print as the member they wrap")
	assert.Empty(t, PropertyRefs(n), "input tree is not modified")
}

func TestMarkProperties_ExclusiveOr(t *testing.T) {
	n := MarkProperties(MustParse(`sensors.Where(s => (s.LastUp > @2024-01-01T00:00:00Z))`, fakeResolver{}), fakeResolver{})
	refs := PropertyRefs(n)
	require.Len(t, refs, 1)
	assert.True(t, refs[0].ExclusiveOr)
	assert.False(t, refs[0].Keep)
}

func TestRewrite_SharesUnchangedSubtrees(t *testing.T) {
	left := &Binary{Op: OpEq, Left: NewConstant(1), Right: NewConstant(1)}
	right := &Binary{Op: OpEq, Left: NewConstant(2), Right: NewConstant(3)}
	root := &Binary{Op: OpAnd, Left: left, Right: right}

	out := Rewrite(root, func(n Node) Node {
		if c, ok := n.(*Constant); ok && c.Value == int64(3) {
			return NewConstant(4)
		}
		return n
	})

	b := out.(*Binary)
	assert.Same(t, left, b.Left)
	assert.NotSame(t, right, b.Right)
	assert.Equal(t, "((1 == 1) && (2 == 4))", String(out))
	assert.Equal(t, "((1 == 1) && (2 == 3))", String(root))
}

func TestStripConvert(t *testing.T) {
	inner := &Parameter{Name: "s", DataType: Entity("sensors")}
	n := &Convert{Operand: &Convert{Operand: inner, DataType: Object}, DataType: Int}
	assert.Same(t, inner, StripConvert(n))
	assert.Same(t, inner, StripConvert(inner))
}

func TestIsNumeric(t *testing.T) {
	assert.True(t, IsNumeric(Int))
	assert.True(t, IsNumeric(Float.AsNullable()))
	assert.False(t, IsNumeric(StringType))
	assert.False(t, IsNumeric(Enum("Status")))
}

func TestNullSafe(t *testing.T) {
	n := MustParse(`sensors.Where(s => (s.Priority.Value > 1))`, fakeResolver{})
	l, _ := n.(*Call).Lambda()
	member := l.Body.(*Binary).Left.(*Member)

	guarded := NullSafe(member)
	assert.Equal(t, "((s.Priority == null) ? null : s.Priority.Value)", String(guarded))
	assert.True(t, guarded.Type().Nullable)
}

func TestGuardNavigation(t *testing.T) {
	n := MustParse(`sensors.Where(s => ((s.Priority.Value > 1) && (s.Name == "x")))`, fakeResolver{})
	out := GuardNavigation(n)
	assert.Equal(t,
		`sensors.Where(s => ((((s.Priority == null) ? null : s.Priority.Value) > 1) && (s.Name == "x")))`,
		String(out))
}

func TestConjoinFlatten(t *testing.T) {
	a, b, c := NewConstant(1), NewConstant(2), NewConstant(3)
	assert.Nil(t, Conjoin(nil, nil))
	assert.Same(t, a, Conjoin(nil, a))

	n := Conjoin(a, nil, b, c)
	assert.Equal(t, "((1 && 2) && 3)", String(n))
	assert.Equal(t, []Node{a, b, c}, Flatten(n, OpAnd))
	assert.Equal(t, []Node{n}, Flatten(n, OpOr))
	assert.Equal(t, "(1 || 2)", String(Disjoin(a, b)))
}

func TestParseType(t *testing.T) {
	testCases := []struct {
		in   string
		want Type
		ok   bool
	}{
		{"int", Int, true},
		{"int?", Int.AsNullable(), true},
		{"enum:Status", Enum("Status"), true},
		{"enum", AnyEnum, true},
		{"string[]", Array("string"), true},
		{"duration", Duration, true},
		{"entity", Type{}, false},
		{"widget", Type{}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseType(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBinaryOp_Invert(t *testing.T) {
	op, ok := OpLt.Invert()
	assert.True(t, ok)
	assert.Equal(t, OpGe, op)

	_, ok = OpAnd.Invert()
	assert.False(t, ok)
	assert.Equal(t, OpGt, OpLt.Swap())
}
