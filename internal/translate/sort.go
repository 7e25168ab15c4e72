package translate

import (
	"github.com/roach88/sieve/internal/expr"
)

// Sort is the ordering pushed to the remote side.
type Sort struct {
	Field      string `json:"field" yaml:"field"`
	Wire       string `json:"wire" yaml:"wire"`
	Descending bool   `json:"descending,omitempty" yaml:"descending,omitempty"`
}

// sort picks the pushed ordering. Consecutive orderings overwrite each other.
// An ordering whose key is not a single sortable field stays local together
// with every later ordering and paging call; with several filter sets no
// ordering is pushed because the caller unions the results.
func (t *translation) sort(steps []*step, multi bool) *Sort {
	var out *Sort
	for i, s := range steps {
		if s.kind != CallSort || !s.pushed {
			continue
		}
		if multi {
			t.b.logger.Debug("ordering kept local", "reason", "several filter sets")
			demote(steps[i:])
			return nil
		}
		key, ok := t.sortKey(s.call)
		if !ok {
			t.b.logger.Debug("ordering kept local", "key", expr.String(s.call))
			demote(steps[i:])
			return out
		}
		out = key
	}
	return out
}

func (t *translation) sortKey(call *expr.Call) (*Sort, bool) {
	l, ok := call.Lambda()
	if !ok {
		return nil, false
	}
	ref, ok := expr.StripConvert(expr.MarkProperties(l.Body, t.b.cat)).(*expr.PropertyRef)
	if !ok {
		return nil, false
	}
	f, ok := t.b.cat.Field(ref.Field)
	if !ok || f.Unsortable {
		return nil, false
	}
	return &Sort{Field: f.ID, Wire: f.Wire, Descending: call.Method == expr.MethodOrderByDescending}, true
}

// demote keeps every ordering and paging call in steps local.
func demote(steps []*step) {
	for _, s := range steps {
		switch s.kind {
		case CallSort, CallTake, CallSkip:
			s.pushed = false
			s.keep = true
		}
	}
}
