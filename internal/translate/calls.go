package translate

import (
	"github.com/roach88/sieve/internal/expr"
)

// CallKind groups query methods that fold into one remote directive.
type CallKind uint8

const (
	CallOther CallKind = iota
	CallWhere
	CallSelect
	CallSort
	CallTake
	CallSkip
)

var callKindNames = [...]string{
	CallOther:  "other",
	CallWhere:  "where",
	CallSelect: "select",
	CallSort:   "sort",
	CallTake:   "take",
	CallSkip:   "skip",
}

func (k CallKind) String() string {
	if int(k) < len(callKindNames) {
		return callKindNames[k]
	}
	return "other"
}

// KindOf maps a query method name to its call kind.
func KindOf(method string) CallKind {
	switch method {
	case expr.MethodWhere:
		return CallWhere
	case expr.MethodSelect:
		return CallSelect
	case expr.MethodOrderBy, expr.MethodOrderByDescending:
		return CallSort
	case expr.MethodTake:
		return CallTake
	case expr.MethodSkip:
		return CallSkip
	}
	return CallOther
}

type callCounter struct {
	count     int
	completed bool
}

// CallManager tracks runs of same-kind calls along a chain.
//
// Call returns true while one kind repeats with no other kind in between, so
// the repeats can fold into one directive. Invoking a different kind closes
// the previous kind's run; later calls of a closed kind return false and are
// recorded as unresolved, telling the caller to evaluate them locally.
type CallManager struct {
	counters   map[CallKind]*callCounter
	last       CallKind
	started    bool
	unresolved []*expr.Call
}

// NewCallManager returns a manager with no calls seen.
func NewCallManager() *CallManager {
	return &CallManager{counters: map[CallKind]*callCounter{}}
}

func (m *CallManager) counter(kind CallKind) *callCounter {
	c, ok := m.counters[kind]
	if !ok {
		c = &callCounter{}
		m.counters[kind] = c
	}
	return c
}

// Call records a call of the given kind and reports whether it continues
// (or starts) an open run.
func (m *CallManager) Call(kind CallKind, call *expr.Call) bool {
	if m.started && m.last != kind {
		m.counter(m.last).completed = true
	}
	m.last, m.started = kind, true

	c := m.counter(kind)
	if c.completed {
		m.unresolved = append(m.unresolved, call)
		return false
	}
	c.count++
	return true
}

// Count returns how many calls of kind were accepted.
func (m *CallManager) Count(kind CallKind) int {
	if c, ok := m.counters[kind]; ok {
		return c.count
	}
	return 0
}

// Completed reports whether the run of kind was closed by another kind.
func (m *CallManager) Completed(kind CallKind) bool {
	if c, ok := m.counters[kind]; ok {
		return c.completed
	}
	return false
}

// Unresolved returns the calls that arrived after their run was closed.
func (m *CallManager) Unresolved() []*expr.Call {
	return m.unresolved
}

// HasUnresolved reports whether any call arrived after its run was closed.
func (m *CallManager) HasUnresolved() bool {
	return len(m.unresolved) > 0
}
