package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/sieve/internal/expr"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		method string
		want   CallKind
	}{
		{expr.MethodWhere, CallWhere},
		{expr.MethodSelect, CallSelect},
		{expr.MethodOrderBy, CallSort},
		{expr.MethodOrderByDescending, CallSort},
		{expr.MethodTake, CallTake},
		{expr.MethodSkip, CallSkip},
		{"GroupBy", CallOther},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.method))
		})
	}
}

func TestCallManager_RepeatedRunFolds(t *testing.T) {
	m := NewCallManager()

	assert.True(t, m.Call(CallTake, &expr.Call{Method: expr.MethodTake}))
	assert.True(t, m.Call(CallTake, &expr.Call{Method: expr.MethodTake}))

	assert.Equal(t, 2, m.Count(CallTake))
	assert.False(t, m.Completed(CallTake))
	assert.False(t, m.HasUnresolved())
}

func TestCallManager_ClosedRunIsUnresolved(t *testing.T) {
	m := NewCallManager()
	late := &expr.Call{Method: expr.MethodOrderBy}

	assert.True(t, m.Call(CallSort, &expr.Call{Method: expr.MethodOrderBy}))
	assert.True(t, m.Call(CallWhere, &expr.Call{Method: expr.MethodWhere}))
	assert.False(t, m.Call(CallSort, late), "sort run was closed by where")

	assert.True(t, m.Completed(CallSort))
	assert.True(t, m.Completed(CallWhere))
	assert.Equal(t, 1, m.Count(CallSort))
	assert.True(t, m.HasUnresolved())
	assert.Equal(t, []*expr.Call{late}, m.Unresolved())
}

func TestCallManager_Empty(t *testing.T) {
	m := NewCallManager()

	assert.Zero(t, m.Count(CallWhere))
	assert.False(t, m.Completed(CallWhere))
	assert.Empty(t, m.Unresolved())
}

func TestCallKind_String(t *testing.T) {
	assert.Equal(t, "sort", CallSort.String())
	assert.Equal(t, "other", CallKind(42).String())
}
