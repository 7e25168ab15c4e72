package cli

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/catalog"
	"github.com/roach88/sieve/internal/expr"
	"github.com/roach88/sieve/internal/translate"
)

// TranslateOptions holds flags for the translate command.
type TranslateOptions struct {
	*RootOptions
	Strict bool
}

// TranslateOutput is the printable form of a translation.
type TranslateOutput struct {
	Query    string   `json:"query"`
	Sets     []string `json:"sets"`
	Encoded  []string `json:"encoded"`
	Columns  []string `json:"columns,omitempty"`
	Sort     string   `json:"sort,omitempty"`
	Skip     *int     `json:"skip,omitempty"`
	Limit    *int     `json:"limit,omitempty"`
	Illegal  bool     `json:"illegal"`
	Residual string   `json:"residual,omitempty"`
	Local    []string `json:"local,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (o TranslateOutput) String() string {
	var b strings.Builder
	b.WriteString("sets:\n")
	for i, s := range o.Sets {
		fmt.Fprintf(&b, "  [%d] %s\n", i+1, s)
		if o.Encoded[i] != "" {
			fmt.Fprintf(&b, "      ?%s\n", o.Encoded[i])
		}
	}
	if len(o.Columns) > 0 {
		fmt.Fprintf(&b, "columns: %s\n", strings.Join(o.Columns, ", "))
	}
	if o.Sort != "" {
		fmt.Fprintf(&b, "sort: %s\n", o.Sort)
	}
	if o.Skip != nil {
		fmt.Fprintf(&b, "skip: %d\n", *o.Skip)
	}
	if o.Limit != nil {
		fmt.Fprintf(&b, "limit: %d\n", *o.Limit)
	}
	if o.Illegal {
		b.WriteString("illegal: true\n")
	}
	fmt.Fprintf(&b, "residual: %s\n", o.Residual)
	if len(o.Local) > 0 {
		fmt.Fprintf(&b, "local: %s\n", strings.Join(o.Local, ", "))
	}
	for _, w := range o.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate <catalog> <query>",
		Short: "Translate a query into filter sets",
		Long: `Translate a query over the catalog's entity into filter sets.

Each set is one remote request; the union of their results is the answer.
Anything the endpoint cannot express is reported as the residual query
that must run locally over the fetched entities.

In lenient mode (the default) unsupported fragments degrade into local
evaluation. With --strict they fail the command instead.

Exit codes:
  0 - Query translated
  1 - Translation failed
  2 - Command error (catalog not found, invalid catalog, etc.)

Examples:
  sieve translate sensors.cue 'sensors.Where(s => s.Id > 3)'
  sieve translate sensors.cue 'sensors.Where(s => s.Priority > 20)' --strict
  sieve translate sensors.cue 'sensors.Take(10)' --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on fragments the endpoint cannot express")

	return cmd
}

func runTranslate(opts *TranslateOptions, catalogPath, query string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	formatter.TraceID = NewTraceID()

	cat, err := catalog.LoadFile(catalogPath)
	if err != nil {
		_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load catalog", err)
	}
	formatter.VerboseLog("Loaded catalog %s (%d fields)", cat.Entity(), len(cat.Fields()))

	logger := newLogger(opts.RootOptions, formatter.GetErrWriter()).With("trace_id", formatter.TraceID)
	b := translate.NewBuilder(cat, translate.WithStrict(opts.Strict), translate.WithLogger(logger))

	res, err := b.BuildString(query)
	if err != nil {
		code := string(translate.CodeOf(err))
		if code == "" {
			code = ErrCodeParse
		}
		hint := errors.FlattenHints(err)
		if opts.Format == "json" {
			var details any
			if hint != "" {
				details = map[string]string{"hint": hint}
			}
			_ = formatter.Error(code, err.Error(), details)
		} else {
			_ = formatter.Error(code, err.Error(), nil)
			if hint != "" {
				fmt.Fprintf(formatter.Writer, "Hint: %s\n", hint)
			}
		}
		return WrapExitError(ExitFailure, "translation failed", err)
	}

	return formatter.Success(newTranslateOutput(query, res))
}

func newTranslateOutput(query string, res *translate.Result) TranslateOutput {
	out := TranslateOutput{
		Query:    query,
		Sets:     make([]string, 0, len(res.Filters)),
		Encoded:  make([]string, 0, len(res.Filters)),
		Columns:  res.Columns,
		Skip:     res.Skip,
		Limit:    res.Limit,
		Illegal:  res.Illegal,
		Residual: expr.String(res.Residual),
		Local:    res.Local,
		Warnings: res.Warnings,
	}
	for _, s := range res.Filters {
		out.Sets = append(out.Sets, s.String())
		out.Encoded = append(out.Encoded, s.Encode())
	}
	if res.Sort != nil {
		out.Sort = res.Sort.Field
		if res.Sort.Descending {
			out.Sort += " desc"
		}
	}
	return out
}

// Error codes for failures that are not translation errors.
const (
	ErrCodeCatalog = "E_CATALOG"
	ErrCodeParse   = "E_PARSE"
)
