package translate

import (
	"github.com/roach88/sieve/internal/expr"
	"github.com/roach88/sieve/internal/filter"
)

// predicate combines the bodies of the pushed Where calls into one predicate
// over the first call's parameter, marks field references and applies
// retention flags. It returns nil when no Where was pushed.
func (t *translation) predicate(steps []*step) expr.Node {
	var param *expr.Parameter
	var bodies []expr.Node
	for _, s := range steps {
		if s.kind != CallWhere || !s.pushed {
			continue
		}
		l, _ := s.call.Lambda()
		body := l.Body
		if param == nil {
			param = l.Param
		} else {
			body = expr.ReplaceParameter(body, l.Param, param)
		}
		bodies = append(bodies, body)
	}
	pred := expr.Conjoin(bodies...)
	if pred == nil {
		return nil
	}
	return t.retain(expr.MarkProperties(pred, t.b.cat))
}

// retain sets Keep on references to fields the catalog marks keep or the
// helper forces.
func (t *translation) retain(n expr.Node) expr.Node {
	return expr.Rewrite(n, func(n expr.Node) expr.Node {
		ref, ok := n.(*expr.PropertyRef)
		if !ok {
			return n
		}
		f, known := t.b.cat.Field(ref.Field)
		keep := (known && f.Keep) || t.b.helper.ForceKeep(ref)
		if keep == ref.Keep {
			return n
		}
		out := *ref
		out.Keep = keep
		return &out
	})
}

// extract turns a predicate into filter sets: the largest legal subset is
// reduced into one set, and every overflow expression recurses into sets of
// its own.
func (t *translation) extract(n expr.Node) ([]filter.Set, error) {
	legal, err := t.legalize(n)
	if err != nil {
		return nil, err
	}
	if legal == nil {
		return []filter.Set{{}}, nil
	}
	red, err := t.reduce(legal)
	if err != nil {
		return nil, err
	}
	set, err := t.toSet(red.kept)
	if err != nil {
		return nil, err
	}
	sets := []filter.Set{set}
	for _, o := range red.overflow {
		t.b.logger.Debug("overflow becomes its own filter set", "overflow", expr.String(o))
		more, err := t.extract(o)
		if err != nil {
			return nil, err
		}
		sets = append(sets, more...)
	}
	return sets, nil
}
