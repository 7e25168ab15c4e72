package translate

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/catalog"
	"github.com/roach88/sieve/internal/expr"
)

func sensorsCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.LoadFile("../../testdata/catalogs/sensors.cue")
	require.NoError(t, err)
	return cat
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTranslation returns fresh per-build state for exercising pipeline
// stages directly.
func newTranslation(t *testing.T, strict bool) *translation {
	t.Helper()
	b := NewBuilder(sensorsCatalog(t), WithStrict(strict), WithLogger(quietLogger()))
	return &translation{b: b, calls: NewCallManager()}
}

// markedPredicate parses "sensors.Where(s => <body>)" and returns the body
// with field references marked.
func markedPredicate(t *testing.T, tr *translation, body string) expr.Node {
	t.Helper()
	tree, err := expr.Parse("sensors.Where(s => "+body+")", tr.b.cat)
	require.NoError(t, err)
	call, ok := tree.(*expr.Call)
	require.True(t, ok)
	l, ok := call.Lambda()
	require.True(t, ok)
	return tr.retain(expr.MarkProperties(l.Body, tr.b.cat))
}

func TestLegalize(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		illegal bool
	}{
		{
			name: "comparison",
			body: `s.Id > 3`,
			want: `(s.Id > 3)`,
		},
		{
			name: "field moved left",
			body: `5 < s.Id`,
			want: `(s.Id > 5)`,
		},
		{
			name: "bare bool field",
			body: `s.Active`,
			want: `(s.Active == true)`,
		},
		{
			name: "negated bool field",
			body: `!s.Active`,
			want: `(s.Active == false)`,
		},
		{
			name: "de morgan",
			body: `!(s.Id == 3 && s.Name == "a")`,
			want: `((s.Id != 3) || (s.Name != "a"))`,
		},
		{
			name: "double negation",
			body: `!!(s.Id == 1)`,
			want: `(s.Id == 1)`,
		},
		{
			name: "negated ordering on non-nullable field",
			body: `!(s.Id < 4)`,
			want: `(s.Id >= 4)`,
		},
		{
			name: "constant true dropped",
			body: `true && s.Id == 1`,
			want: `(s.Id == 1)`,
		},
		{
			name: "nullable unwrap",
			body: `s.Priority.Value > 3`,
			want: `(s.Priority.Value > 3)`,
		},
		{
			name: "enum ordinal cast",
			body: `int(s.Status) == 5`,
			want: `(int(s.Status) == 5)`,
		},
		{
			name:    "illegal and operand dropped",
			body:    `s.Id > 1 && s.Id + 1 > 3`,
			want:    `(s.Id > 1)`,
			illegal: true,
		},
		{
			name:    "illegal or operand drops the or",
			body:    `s.Id > 1 || s.Id + 1 > 3`,
			want:    `<nil>`,
			illegal: true,
		},
		{
			name:    "negated ordering on nullable field",
			body:    `!(s.Priority > 3)`,
			want:    `<nil>`,
			illegal: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTranslation(t, false)
			got, err := tr.legalize(markedPredicate(t, tr, tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, expr.String(got))
			assert.Equal(t, tt.illegal, tr.illegal)
		})
	}
}

func TestLegalize_Idempotent(t *testing.T) {
	bodies := []string{
		`!(s.Id == 3 && s.Name == "a")`,
		`s.Active && (s.Name == "a" || s.Name == "b")`,
		`s.Id > 1 && s.Name.Length > 3`,
		`!s.Active || 2 >= s.Id`,
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			tr := newTranslation(t, false)
			once, err := tr.legalize(markedPredicate(t, tr, body))
			require.NoError(t, err)
			require.NotNil(t, once)

			twice, err := tr.legalize(once)
			require.NoError(t, err)
			assert.True(t, expr.Equal(once, twice), "%s != %s", expr.String(once), expr.String(twice))
		})
	}
}

func TestLegalize_StrictCodes(t *testing.T) {
	tests := []struct {
		body string
		code Code
	}{
		{`s.Name.Length > 3`, CodeExtraneousMember},
		{`s.Tags.Length > 1`, CodeUnsupportedNode},
		{`float(s.Id) > 1.5`, CodeIllegalCast},
		{`s.Id == s.Priority`, CodePropertyCount},
		{`s.Id + 1 > 3`, CodeUnsupportedParent},
		{`!(s.Priority > 3)`, CodeUnsupportedParent},
		{`s.Name.StartsWith("a")`, CodeUnsupportedNode},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			tr := newTranslation(t, true)
			_, err := tr.legalize(markedPredicate(t, tr, tt.body))
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err), "error: %v", err)
		})
	}
}

func TestLegalize_PropertyCountNamesFields(t *testing.T) {
	tr := newTranslation(t, true)
	_, err := tr.legalize(markedPredicate(t, tr, `s.Id == s.Priority`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Id, Priority")
}

func TestLegalCast(t *testing.T) {
	tests := []struct {
		name     string
		from, to expr.Type
		want     bool
	}{
		{"same type", expr.Int, expr.Int, true},
		{"to nullable", expr.Int, expr.Int.AsNullable(), true},
		{"to object", expr.StringType, expr.Object, true},
		{"enum to int", expr.Enum("Status"), expr.Int, true},
		{"enum to supertype", expr.Enum("Status"), expr.AnyEnum, true},
		{"int to float", expr.Int, expr.Float, false},
		{"string to int", expr.StringType, expr.Int, false},
		{"enum to other enum", expr.Enum("Status"), expr.Enum("Kind"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, legalCast(tt.from, tt.to))
		})
	}
}
