package translate

import (
	"github.com/roach88/sieve/internal/expr"
)

// paging marks the pushed Take and Skip calls with their counts. Paging is
// not pushed when the predicate stays partly local or the query splits into
// several sets; a count that is not a constant keeps that call and every
// later one local.
func (t *translation) paging(steps []*step, multi bool) ([]*expr.Paging, error) {
	if t.b.strict {
		for _, s := range steps {
			if s.kind != CallSkip {
				continue
			}
			if n, ok := pagingCount(s.call); ok && n < 0 {
				return nil, newError(CodeInvalidPaging, s.call, "negative skip %d", n)
			}
		}
	}

	var marks []*expr.Paging
	for i, s := range steps {
		if (s.kind != CallTake && s.kind != CallSkip) || !s.pushed {
			continue
		}
		if t.illegal || multi {
			t.b.logger.Debug("paging kept local", "illegal", t.illegal, "sets_split", multi)
			demote(steps[i:])
			break
		}
		n, ok := pagingCount(s.call)
		if !ok {
			t.b.logger.Debug("paging kept local", "call", expr.String(s.call))
			demote(steps[i:])
			break
		}
		kind := expr.PagingLimit
		if s.kind == CallSkip {
			kind = expr.PagingOffset
		}
		marks = append(marks, &expr.Paging{Kind: kind, Count: n, Call: s.call})
	}
	return marks, nil
}

// count folds paging marks into one skip and limit. Skips add up, takes
// narrow, and a skip after a take shortens the limit: Take(10).Skip(3) reads
// 7 items after the first 3.
func (t *translation) count(marks []*expr.Paging) (skip, limit *int) {
	for _, m := range marks {
		n := m.Count
		switch m.Kind {
		case expr.PagingOffset:
			if n < 0 {
				t.warn("skip %d clamped to 0", n)
				n = 0
			}
			total := n
			if skip != nil {
				total += *skip
			}
			skip = &total
			if limit != nil {
				rest := max(*limit-n, 0)
				limit = &rest
			}
		case expr.PagingLimit:
			if n <= 0 {
				t.warn("non-positive limit %d", n)
			}
			if limit == nil || n < *limit {
				v := n
				limit = &v
			}
		}
	}
	return skip, limit
}

func pagingCount(call *expr.Call) (int, bool) {
	if len(call.Args) != 1 {
		return 0, false
	}
	v, err := evalConstant(call.Args[0])
	if err != nil {
		return 0, false
	}
	n, ok := v.(int64)
	return int(n), ok
}
