package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/expr"
)

func TestReduce(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		kept     string
		overflow []string
		illegal  bool
	}{
		{
			name: "conjunction",
			body: `s.Id > 3 && s.Name == "a"`,
			kept: `((s.Id > 3) && (s.Name == "a"))`,
		},
		{
			name: "same field same operator or merges",
			body: `s.Name == "a" || s.Name == "b"`,
			kept: `((s.Name == "a") || (s.Name == "b"))`,
		},
		{
			name:     "different fields split",
			body:     `s.Name == "a" || s.Id > 2`,
			kept:     `(s.Name == "a")`,
			overflow: []string{`(s.Id > 2)`},
			illegal:  true,
		},
		{
			name:     "different operators split",
			body:     `s.Id > 7 || s.Id < 2`,
			kept:     `(s.Id > 7)`,
			overflow: []string{`(s.Id < 2)`},
			illegal:  true,
		},
		{
			name:     "exclusive or field splits",
			body:     `s.LastUp > @2024-01-01T00:00:00Z || s.LastUp > @2024-06-01T00:00:00Z`,
			kept:     `(s.LastUp > @2024-01-01T00:00:00Z)`,
			overflow: []string{`(s.LastUp > @2024-06-01T00:00:00Z)`},
			illegal:  true,
		},
		{
			name:     "left overflow carries the right operand",
			body:     `(s.Name == "a" || s.Id > 2) && s.Active`,
			kept:     `((s.Name == "a") && (s.Active == true))`,
			overflow: []string{`((s.Id > 2) && (s.Active == true))`},
			illegal:  true,
		},
		{
			name:     "right overflow carries the left units",
			body:     `s.Active && (s.Name == "a" || s.Id > 2)`,
			kept:     `((s.Active == true) && (s.Name == "a"))`,
			overflow: []string{`((s.Active == true) && (s.Id > 2))`},
			illegal:  true,
		},
		{
			name:    "second condition on a field is ignored",
			body:    `s.Id > 3 && s.Id < 9`,
			kept:    `(s.Id > 3)`,
			illegal: true,
		},
		{
			name: "kept field takes a range",
			body: `s.LastUp > @2024-01-01T00:00:00Z && s.LastUp < @2024-02-01T00:00:00Z`,
			kept: `((s.LastUp > @2024-01-01T00:00:00Z) && (s.LastUp < @2024-02-01T00:00:00Z))`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTranslation(t, false)
			legal, err := tr.legalize(markedPredicate(t, tr, tt.body))
			require.NoError(t, err)

			red, err := tr.reduce(legal)
			require.NoError(t, err)
			assert.Equal(t, tt.kept, expr.String(red.kept))

			var overflow []string
			for _, o := range red.overflow {
				overflow = append(overflow, expr.String(o))
			}
			assert.Equal(t, tt.overflow, overflow)
			assert.Equal(t, tt.illegal, tr.illegal)
		})
	}
}

func TestReduce_StrictAmbiguous(t *testing.T) {
	tr := newTranslation(t, true)
	legal, err := tr.legalize(markedPredicate(t, tr, `s.Id > 3 && s.Id < 9`))
	require.NoError(t, err)

	_, err = tr.reduce(legal)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeAmbiguousCondition))
}

func TestReduce_SplitIsNotAnErrorInStrictMode(t *testing.T) {
	tr := newTranslation(t, true)
	legal, err := tr.legalize(markedPredicate(t, tr, `s.Name == "a" || s.Id > 2`))
	require.NoError(t, err)

	red, err := tr.reduce(legal)
	require.NoError(t, err)
	assert.Len(t, red.overflow, 1)
	assert.True(t, tr.illegal)
}

func TestExtract_OverflowBecomesSets(t *testing.T) {
	tr := newTranslation(t, false)
	sets, err := tr.extract(markedPredicate(t, tr, `(s.Name == "a" || s.Id > 2) && s.Active`))
	require.NoError(t, err)

	require.Len(t, sets, 2)
	assert.Equal(t, `Name eq "a" & Active eq "true"`, sets[0].String())
	assert.Equal(t, `Id gt "2" & Active eq "true"`, sets[1].String())
}

func TestExtract_NothingLegalMatchesAll(t *testing.T) {
	tr := newTranslation(t, false)
	sets, err := tr.extract(markedPredicate(t, tr, `s.Id + 1 > 3`))
	require.NoError(t, err)

	require.Len(t, sets, 1)
	assert.True(t, sets[0].MatchAll())
	assert.True(t, tr.illegal)
}
