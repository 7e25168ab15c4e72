package translate

import (
	"slices"

	"github.com/roach88/sieve/internal/expr"
)

// columns extracts the fields the first pushed Select reads. nil means no
// column restriction: there is no such Select, or some lambda up to it
// needs the whole entity. Fields read by earlier Where and OrderBy calls
// are included so a local re-evaluation has them.
func (t *translation) columns(steps []*step) []string {
	at := -1
	for i, s := range steps {
		if s.kind == CallSelect {
			if s.pushed {
				at = i
			}
			break
		}
	}
	if at < 0 {
		return nil
	}

	cols, ok := t.projected(steps[at].call)
	if !ok {
		return nil
	}
	for _, s := range steps[:at] {
		if s.kind != CallWhere && s.kind != CallSort {
			continue
		}
		fields, ok := t.projected(s.call)
		if !ok {
			t.b.logger.Debug("column restriction dropped", "call", s.call.Method)
			return nil
		}
		for _, f := range fields {
			if !slices.Contains(cols, f) {
				cols = append(cols, f)
			}
		}
	}
	return cols
}

// projected lists the fields a call's lambda reads. ok is false when the
// lambda uses the parameter itself or a member the catalog does not map.
func (t *translation) projected(call *expr.Call) ([]string, bool) {
	l, ok := call.Lambda()
	if !ok {
		return nil, false
	}
	var fields []string
	whole := false
	expr.Walk(expr.MarkProperties(l.Body, t.b.cat), func(n expr.Node) bool {
		switch n := n.(type) {
		case *expr.PropertyRef:
			if !slices.Contains(fields, n.Field) {
				fields = append(fields, n.Field)
			}
			return false
		case *expr.Parameter:
			if n == l.Param {
				whole = true
			}
		}
		return true
	})
	if whole {
		return nil, false
	}
	return fields, true
}
