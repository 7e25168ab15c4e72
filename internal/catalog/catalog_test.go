package catalog

import (
	"errors"
	"testing"

	crdberrors "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/expr"
	"github.com/roach88/sieve/internal/filter"
)

const sensorsPath = "../../testdata/catalogs/sensors.cue"

func loadSensors(t *testing.T) *Catalog {
	t.Helper()
	c, err := LoadFile(sensorsPath)
	require.NoError(t, err)
	return c
}

func TestLoadFile(t *testing.T) {
	c := loadSensors(t)
	assert.Equal(t, "sensors", c.Entity())

	fields := c.Fields()
	require.Len(t, fields, 10)
	assert.Equal(t, "Id", fields[0].ID, "fields keep document order")

	testCases := []struct {
		id          string
		wire        string
		typ         expr.Type
		ops         []filter.Operator
		keep        bool
		exclusiveOr bool
		unsortable  bool
	}{
		{"Id", "id", expr.Int, []filter.Operator{filter.OpEquals, filter.OpNotEquals, filter.OpGreaterThan, filter.OpLessThan}, false, false, false},
		{"Name", "name", expr.StringType, []filter.Operator{filter.OpEquals, filter.OpNotEquals, filter.OpContains}, false, false, false},
		{"Status", "status", expr.Enum("Status"), []filter.Operator{filter.OpEquals, filter.OpNotEquals}, false, false, false},
		{"LastUp", "last_up", expr.Time, []filter.Operator{filter.OpGreaterThan, filter.OpGreaterOrEqual, filter.OpLessThan, filter.OpLessOrEqual}, true, true, false},
		{"Uptime", "uptime_seconds", expr.Duration, []filter.Operator{filter.OpEquals, filter.OpNotEquals, filter.OpGreaterThan, filter.OpLessThan}, false, false, false},
		{"Tags", "tags", expr.Array("string"), []filter.Operator{filter.OpContains}, false, false, false},
		{"Loc", "location", expr.StringType, []filter.Operator{filter.OpEquals, filter.OpNotEquals, filter.OpContains}, false, false, true},
	}
	for _, tc := range testCases {
		t.Run(tc.id, func(t *testing.T) {
			f, ok := c.Field(tc.id)
			require.True(t, ok)
			assert.Equal(t, tc.wire, f.Wire)
			assert.Equal(t, tc.typ, f.Type)
			assert.Equal(t, tc.ops, f.Operators)
			assert.Equal(t, tc.keep, f.Keep)
			assert.Equal(t, tc.exclusiveOr, f.ExclusiveOr)
			assert.Equal(t, tc.unsortable, f.Unsortable)
		})
	}

	prio, _ := c.Field("Priority")
	require.NotNil(t, prio.Min)
	require.NotNil(t, prio.Max)
	assert.Equal(t, 0.0, *prio.Min)
	assert.Equal(t, 10.0, *prio.Max)
	assert.True(t, prio.Type.Nullable)
}

func TestResolver(t *testing.T) {
	c := loadSensors(t)

	p, ok := c.Property(expr.Entity("sensors"), "Location")
	require.True(t, ok)
	assert.Equal(t, "Loc", p.Field, "members resolve to the field identity")

	p, ok = c.Property(expr.Entity("sensors"), "LastUp")
	require.True(t, ok)
	assert.True(t, p.ExclusiveOr)

	_, ok = c.Property(expr.Entity("sensors"), "Notes")
	assert.False(t, ok)
	_, ok = c.Property(expr.Entity("alerts"), "Name")
	assert.False(t, ok, "other entities are not resolved")

	v, ok := c.EnumValue("Status", "Down")
	require.True(t, ok)
	assert.Equal(t, expr.EnumValue{Enum: "Status", Name: "Down", Ordinal: 5}, v)
	_, ok = c.EnumValue("Status", "Gone")
	assert.False(t, ok)

	e, ok := c.Enum("Status")
	require.True(t, ok)
	m, ok := e.ByOrdinal(7)
	require.True(t, ok)
	assert.Equal(t, "paused", m.Wire)
}

func TestValidate(t *testing.T) {
	c := loadSensors(t)

	testCases := []struct {
		name string
		rec  filter.Record
		hint string
	}{
		{"accepted", filter.Record{Field: "Id", Operator: filter.OpGreaterThan, Values: []string{"4"}}, ""},
		{"unknown field", filter.Record{Field: "Notes", Operator: filter.OpEquals, Values: []string{"x"}}, "-"},
		{"operator", filter.Record{Field: "Id", Operator: filter.OpGreaterOrEqual, Values: []string{"4"}}, "accepted operators: eq, ne, gt, lt"},
		{"enum value", filter.Record{Field: "Status", Operator: filter.OpEquals, Values: []string{"gone"}}, "accepted values: up, down, paused"},
		{"value list", filter.Record{Field: "Kind", Operator: filter.OpEquals, Values: []string{"ping", "smtp"}}, "accepted values: ping, http, dns"},
		{"range", filter.Record{Field: "Priority", Operator: filter.OpGreaterThan, Values: []string{"11"}}, "accepted range: [0, 10]"},
		{"in range", filter.Record{Field: "Priority", Operator: filter.OpLessOrEqual, Values: []string{"10"}}, ""},
		{"no values", filter.Record{Field: "Name", Operator: filter.OpEquals}, "-"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := c.Validate(tc.rec)
			if tc.hint == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, crdberrors.Is(err, ErrRejected))
			if tc.hint != "-" {
				assert.Contains(t, crdberrors.FlattenHints(err), tc.hint)
			}
		})
	}
}

func TestCompileString_Errors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want string
	}{
		{"missing entity", `fields: {Id: {type: "int"}}`, "entity is required"},
		{"missing fields", `entity: "x"`, "at least one field is required"},
		{"unknown type", `entity: "x", fields: {Id: {type: "widget"}}`, `unknown type "widget"`},
		{"unknown operator", `entity: "x", fields: {Id: {type: "int", ops: ["like"]}}`, `unknown operator "like"`},
		{"contains on int", `entity: "x", fields: {Id: {type: "int", ops: ["contains"]}}`, "contains needs a string or array field"},
		{"unknown enum", `entity: "x", fields: {S: {type: "enum:Status"}}`, `unknown enum "Status"`},
		{"missing ordinal", `entity: "x", enums: S: {A: {wire: "a"}}, fields: {Id: {type: "int"}}`, "ordinal is required"},
		{"shared ordinal", `entity: "x", enums: S: {A: {ordinal: 1}, B: {ordinal: 1}}, fields: {Id: {type: "int"}}`, "share ordinal 1"},
		{"min above max", `entity: "x", fields: {Id: {type: "int", min: 5, max: 1}}`, "min 5 above max 1"},
		{"bad cue", `entity: "x" fields: {`, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CompileString("test.cue", tc.src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCatalog))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestAddField_Defaults(t *testing.T) {
	c := New("sensors")
	require.NoError(t, c.AddField(Field{Member: "LastSeenAt", Type: expr.Time}))

	f, ok := c.Field("LastSeenAt")
	require.True(t, ok)
	assert.Equal(t, "last_seen_at", f.Wire)
	assert.Equal(t, DefaultOperators(expr.Time), f.Operators)

	err := c.AddField(Field{Member: "LastSeenAt", Type: expr.Int})
	require.Error(t, err)
	assert.True(t, crdberrors.Is(err, ErrInvalidCatalog))
}
