package harness

import (
	"io"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/roach88/sieve/internal/catalog"
	"github.com/roach88/sieve/internal/translate"
)

// Harness executes scenarios against one loaded catalog.
type Harness struct {
	cat    *catalog.Catalog
	logger *slog.Logger
}

// New returns a harness for cat. A nil logger discards output.
func New(cat *catalog.Catalog, logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{cat: cat, logger: logger}
}

// Run loads the scenario's catalog and executes every case.
//
// Execution flow:
// 1. Load and compile the catalog
// 2. Translate each case in its mode (scenario default or case override)
// 3. Record the outcome, including translation errors
// 4. Evaluate the case's assertions against the outcome
func Run(scenario *Scenario) (*Result, error) {
	cat, err := catalog.LoadFile(scenario.Catalog)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load catalog")
	}
	return New(cat, nil).Run(scenario), nil
}

// Run executes every case of scenario against the harness catalog.
func (h *Harness) Run(scenario *Scenario) *Result {
	result := NewResult()
	for _, c := range scenario.Cases {
		out := h.Translate(c, scenario.Strict)
		result.Outcomes = append(result.Outcomes, out)

		for _, msg := range EvaluateAssertions(out, c.Assertions) {
			result.AddError(c.Name + ": " + msg)
		}
		h.logger.Info("case translated",
			"scenario", scenario.Name,
			"case", c.Name,
			"sets", len(out.Sets),
			"illegal", out.Illegal,
			"error", out.Error,
		)
	}
	return result
}

// Translate runs one case. Translation errors become part of the outcome.
func (h *Harness) Translate(c Case, strict bool) Outcome {
	if c.Strict != nil {
		strict = *c.Strict
	}
	b := translate.NewBuilder(h.cat, translate.WithStrict(strict), translate.WithLogger(h.logger))
	res, err := b.BuildString(c.Query)
	if err != nil {
		return errorOutcome(c, strict, err)
	}
	return newOutcome(c, strict, res)
}

func errorOutcome(c Case, strict bool, err error) Outcome {
	o := Outcome{Case: c.Name, Query: c.Query, Strict: strict}
	if code := translate.CodeOf(err); code != "" {
		o.Error = string(code)
	} else {
		o.Error = err.Error()
	}
	o.Hint = errors.FlattenHints(err)
	return o
}
