package harness

import (
	"strings"

	"github.com/roach88/sieve/internal/expr"
	"github.com/roach88/sieve/internal/translate"
)

// Outcome is the observable result of translating one case.
// It is also the unit of golden snapshots, so every field renders
// deterministically.
type Outcome struct {
	Case     string   `json:"case"`
	Query    string   `json:"query"`
	Strict   bool     `json:"strict,omitempty"`
	Sets     []string `json:"sets,omitempty"`
	Encoded  []string `json:"encoded,omitempty"`
	Columns  []string `json:"columns,omitempty"`
	Sort     string   `json:"sort,omitempty"`
	Skip     *int     `json:"skip,omitempty"`
	Limit    *int     `json:"limit,omitempty"`
	Illegal  bool     `json:"illegal,omitempty"`
	Residual string   `json:"residual,omitempty"`
	Local    []string `json:"local,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
	Hint     string   `json:"hint,omitempty"`
}

// newOutcome records a successful translation.
func newOutcome(c Case, strict bool, res *translate.Result) Outcome {
	o := Outcome{
		Case:     c.Name,
		Query:    c.Query,
		Strict:   strict,
		Columns:  res.Columns,
		Skip:     res.Skip,
		Limit:    res.Limit,
		Illegal:  res.Illegal,
		Residual: expr.String(res.Residual),
		Local:    res.Local,
		Warnings: res.Warnings,
	}
	for _, s := range res.Filters {
		o.Sets = append(o.Sets, s.String())
		o.Encoded = append(o.Encoded, s.Encode())
	}
	o.Sort = sortString(res.Sort)
	return o
}

// sortString renders a pushed ordering as "Field" or "Field desc".
func sortString(s *translate.Sort) string {
	if s == nil {
		return ""
	}
	if s.Descending {
		return s.Field + " desc"
	}
	return s.Field
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every assertion of every case held.
	Pass bool `json:"pass"`

	// Outcomes holds one entry per case, in scenario order.
	Outcomes []Outcome `json:"outcomes"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Outcomes: []Outcome{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Summary renders the failures one per line.
func (r *Result) Summary() string {
	return strings.Join(r.Errors, "\n")
}
