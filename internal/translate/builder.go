package translate

import (
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/roach88/sieve/internal/catalog"
	"github.com/roach88/sieve/internal/expr"
	"github.com/roach88/sieve/internal/filter"
)

// Result is everything one translation produces.
type Result struct {
	// Filters holds one set per remote request. The caller issues every set
	// and unions the results. A single empty set matches everything.
	Filters filter.Collection `json:"filters" yaml:"filters"`

	// Columns lists the fields to fetch. nil means every field.
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`

	// Sort is the pushed ordering, if any.
	Sort *Sort `json:"sort,omitempty" yaml:"sort,omitempty"`

	// Skip and Limit are the pushed paging directives, if any.
	Skip  *int `json:"skip,omitempty" yaml:"skip,omitempty"`
	Limit *int `json:"limit,omitempty" yaml:"limit,omitempty"`

	// Illegal reports that the predicate could not be pushed in full and
	// must be re-applied locally.
	Illegal bool `json:"illegal" yaml:"illegal"`

	// Residual is the query the caller evaluates over the fetched items.
	Residual expr.Node `json:"-" yaml:"-"`

	// Local names the calls left in Residual, in chain order.
	Local []string `json:"local,omitempty" yaml:"local,omitempty"`

	// Warnings collects non-fatal findings such as a clamped skip.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Builder translates query trees against one catalog.
//
// A Builder is immutable after NewBuilder and safe for concurrent use; each
// Build call runs on fresh state.
type Builder struct {
	cat    *catalog.Catalog
	strict bool
	helper Helper
	logger *slog.Logger
}

// NewBuilder returns a Builder for the given catalog.
func NewBuilder(cat *catalog.Catalog, opts ...Option) *Builder {
	b := &Builder{
		cat:    cat,
		helper: noHelper{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Catalog returns the catalog the builder resolves fields with.
func (b *Builder) Catalog() *catalog.Catalog {
	return b.cat
}

// Strict reports whether unsupported fragments raise errors.
func (b *Builder) Strict() bool {
	return b.strict
}

// BuildString parses src against the builder's catalog and translates it.
func (b *Builder) BuildString(src string) (*Result, error) {
	tree, err := expr.Parse(src, b.cat)
	if err != nil {
		return nil, err
	}
	return b.Build(tree)
}

// Build translates tree.
//
// The pipeline runs chain planning, the column parser, retention flagging,
// the legal filter parser, filter extraction with overflow recursion, the
// helper's set shaping, final field validation, the sort parser and the
// count parser, then assembles the residual query.
func (b *Builder) Build(tree expr.Node) (*Result, error) {
	t := &translation{b: b, calls: NewCallManager()}
	return t.run(tree)
}

// translation is the state of one Build call.
type translation struct {
	b        *Builder
	calls    *CallManager
	illegal  bool
	warnings []string
}

// step is one call of the linearised chain and the plan for it.
type step struct {
	call *expr.Call
	kind CallKind
	// pushed: folded into a remote directive.
	pushed bool
	// keep: stays in the residual query.
	keep bool
}

func (t *translation) run(tree expr.Node) (*Result, error) {
	src, steps, err := t.linearize(tree)
	if err != nil {
		return nil, err
	}
	t.plan(steps)

	res := &Result{}
	res.Columns = t.columns(steps)

	sets := []filter.Set{{}}
	if pred := t.predicate(steps); pred != nil {
		if sets, err = t.extract(pred); err != nil {
			return nil, err
		}
	}
	sets = t.b.helper.ShapeSets(sets)
	if sets, err = t.validate(sets); err != nil {
		return nil, err
	}
	res.Filters = filter.Collection(sets).Normalize()
	multi := len(res.Filters) > 1

	if t.illegal {
		for _, s := range steps {
			if s.kind == CallWhere && s.pushed {
				s.keep = true
			}
		}
	}

	res.Sort = t.sort(steps, multi)
	marks, err := t.paging(steps, multi)
	if err != nil {
		return nil, err
	}
	res.Skip, res.Limit = t.count(marks)

	res.Residual, res.Local = t.residual(src, steps)
	res.Illegal = t.illegal
	res.Warnings = t.warnings

	t.b.logger.Debug("translated query",
		"sets", len(res.Filters),
		"illegal", res.Illegal,
		"local", res.Local)
	return res, nil
}

// linearize unrolls the call chain from the source outwards.
func (t *translation) linearize(tree expr.Node) (*expr.Source, []*step, error) {
	var calls []*expr.Call
	n := tree
	for {
		switch c := n.(type) {
		case *expr.Call:
			calls = append(calls, c)
			n = c.Target
			continue
		case *expr.Source:
			if c.Entity != t.b.cat.Entity() {
				return nil, nil, newError(CodeNotAQuery, tree, "source %s is not %s", c.Entity, t.b.cat.Entity())
			}
			steps := make([]*step, len(calls))
			for i, call := range calls {
				steps[len(calls)-1-i] = &step{call: call, kind: callKind(call)}
			}
			return c, steps, nil
		}
		return nil, nil, newError(CodeNotAQuery, tree, "expected a call chain over %s", t.b.cat.Entity())
	}
}

// callKind is KindOf with a shape check: a query method without the argument
// it needs is treated as an unknown call.
func callKind(call *expr.Call) CallKind {
	kind := KindOf(call.Method)
	switch kind {
	case CallWhere, CallSelect, CallSort:
		if _, ok := call.Lambda(); !ok || len(call.Args) != 1 {
			return CallOther
		}
	case CallTake, CallSkip:
		if len(call.Args) != 1 {
			return CallOther
		}
	}
	return kind
}

// plan decides which calls may be pushed. Nothing but paging is pushed after
// a Select, no Where or ordering after paging, and every call after the
// first local one is local too.
func (t *translation) plan(steps []*step) {
	local, selected, paged := false, false, false
	for _, s := range steps {
		open := t.calls.Call(s.kind, s.call)
		switch {
		case local:
		case !open:
			// A repeated run stays local. Only a local Where widens the
			// predicate; that is flagged below.
			t.b.logger.Debug("call repeats a finished run", "call", s.call.Method)
		case s.kind == CallOther:
		case (s.kind == CallWhere || s.kind == CallSort) && (selected || paged):
		case s.kind == CallSelect:
			s.pushed, selected = true, true
		case s.kind == CallTake || s.kind == CallSkip:
			s.pushed, paged = true, true
		default:
			s.pushed = true
		}
		if !s.pushed {
			local = true
			if s.kind == CallWhere {
				t.flag(s.call, "predicate evaluated locally")
			}
		}
		s.keep = !s.pushed || s.kind == CallSelect
	}
}

// validate checks every record against its field metadata. Rejected records
// are removed, which widens their set, or raise in strict mode. A set that
// loses every record matches everything, which is reported as a warning.
func (t *translation) validate(sets []filter.Set) ([]filter.Set, error) {
	out := make([]filter.Set, len(sets))
	for i, set := range sets {
		for _, rec := range set.Records {
			err := t.b.cat.Validate(rec)
			if err == nil {
				out[i].Add(rec)
				continue
			}
			if t.b.strict {
				e := &Error{Code: CodeInvalidFilter, Message: err.Error(), Fragment: rec.String()}
				return nil, withHints(errors.WithStack(e), err)
			}
			t.flag(nil, "record rejected: "+err.Error())
		}
		if len(set.Records) > 0 && len(out[i].Records) == 0 {
			t.warn("filter set %d lost every record and matches everything", i+1)
		}
	}
	return out, nil
}

// residual rebuilds the chain with the calls the caller still has to run.
// Member navigation in their lambdas is made null-safe.
func (t *translation) residual(src *expr.Source, steps []*step) (expr.Node, []string) {
	var n expr.Node = src
	var local []string
	for _, s := range steps {
		if !s.keep {
			continue
		}
		args := make([]expr.Node, len(s.call.Args))
		for i, a := range s.call.Args {
			args[i] = expr.GuardNavigation(a)
		}
		n = &expr.Call{Method: s.call.Method, Target: n, Args: args, DataType: s.call.DataType}
		local = append(local, s.call.Method)
	}
	return n, local
}

// fail handles an unsupported fragment: in strict mode it returns the error,
// otherwise it marks the translation illegal and returns nil.
func (t *translation) fail(code Code, n expr.Node, format string, args ...any) error {
	if t.b.strict {
		return newError(code, n, format, args...)
	}
	t.flag(n, string(code)+": "+fmt.Sprintf(format, args...))
	return nil
}

// failHint is fail with the accepted domain attached as a hint.
func (t *translation) failHint(code Code, n expr.Node, hint string, format string, args ...any) error {
	if t.b.strict {
		return errors.WithHint(newError(code, n, format, args...), hint)
	}
	t.flag(n, string(code)+": "+fmt.Sprintf(format, args...)+" ("+hint+")")
	return nil
}

// flag sets the illegality flag. It never clears.
func (t *translation) flag(n expr.Node, reason string) {
	t.illegal = true
	if n != nil {
		t.b.logger.Debug("kept for local evaluation", "reason", reason, "fragment", expr.String(n))
		return
	}
	t.b.logger.Debug("kept for local evaluation", "reason", reason)
}

func (t *translation) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	t.warnings = append(t.warnings, msg)
	t.b.logger.Warn(msg)
}

// withHints copies the hints of src onto err.
func withHints(err, src error) error {
	if hint := errors.FlattenHints(src); hint != "" {
		return errors.WithHint(err, hint)
	}
	return err
}
