package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_String(t *testing.T) {
	r := Record{Field: "Status", Wire: "status", Operator: OpEquals, Values: []string{"up", "down"}}
	assert.Equal(t, `Status eq "up"|"down"`, r.String())
}

func TestParseOperator(t *testing.T) {
	op, ok := ParseOperator("contains")
	require.True(t, ok)
	assert.Equal(t, OpContains, op)

	_, ok = ParseOperator("like")
	assert.False(t, ok)
}

func TestSet_Encode(t *testing.T) {
	testCases := []struct {
		name string
		set  Set
		want string
	}{
		{
			name: "equality is plain",
			set:  Set{Records: []Record{{Field: "Status", Wire: "status", Operator: OpEquals, Values: []string{"up"}}}},
			want: "filter_status=up",
		},
		{
			name: "operators wrap the value",
			set: Set{Records: []Record{
				{Field: "Name", Wire: "name", Operator: OpContains, Values: []string{"ping"}},
				{Field: "Id", Wire: "id", Operator: OpGreaterOrEqual, Values: []string{"4"}},
			}},
			want: "filter_id=%40gte%284%29&filter_name=%40sub%28ping%29",
		},
		{
			name: "multiple values repeat the key",
			set:  Set{Records: []Record{{Field: "Status", Wire: "status", Operator: OpNotEquals, Values: []string{"up", "down"}}}},
			want: "filter_status=%40neq%28up%29&filter_status=%40neq%28down%29",
		},
		{
			name: "empty set",
			set:  Set{},
			want: "",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.set.Encode())
		})
	}
}

func TestSet_HasAndFields(t *testing.T) {
	var s Set
	assert.True(t, s.MatchAll())
	assert.Equal(t, "*", s.String())

	s.Add(Record{Field: "Id", Operator: OpGreaterThan, Values: []string{"1"}})
	s.Add(Record{Field: "Id", Operator: OpLessThan, Values: []string{"9"}})
	s.Add(Record{Field: "Name", Operator: OpEquals, Values: []string{"a"}})

	assert.True(t, s.Has("Id"))
	assert.False(t, s.Has("Status"))
	assert.Equal(t, []string{"Id", "Name"}, s.Fields())
	assert.Equal(t, `Id gt "1" & Id lt "9" & Name eq "a"`, s.String())
}

func TestCollection_Normalize(t *testing.T) {
	a := Set{Records: []Record{{Field: "A", Operator: OpEquals, Values: []string{"x"}}}}
	b := Set{Records: []Record{{Field: "B", Operator: OpEquals, Values: []string{"y"}}}}

	t.Run("duplicates dropped", func(t *testing.T) {
		got := Collection{a, b, a}.Normalize()
		assert.Equal(t, Collection{a, b}, got)
	})

	t.Run("match-all subsumes", func(t *testing.T) {
		got := Collection{a, {}, b}.Normalize()
		require.Len(t, got, 1)
		assert.True(t, got[0].MatchAll())
	})

	t.Run("empty becomes match-all", func(t *testing.T) {
		got := Collection(nil).Normalize()
		require.Len(t, got, 1)
		assert.True(t, got.MatchAll())
	})

	t.Run("record order does not matter", func(t *testing.T) {
		ab := Set{Records: append(append([]Record{}, a.Records...), b.Records...)}
		ba := Set{Records: append(append([]Record{}, b.Records...), a.Records...)}
		assert.Len(t, Collection{ab, ba}.Normalize(), 1)
	})
}

func TestCollection_String(t *testing.T) {
	c := Collection{
		{Records: []Record{{Field: "A", Operator: OpEquals, Values: []string{"x"}}}},
		{},
	}
	assert.Equal(t, "A eq \"x\"\n*", c.String())
}
