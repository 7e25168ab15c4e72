package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/catalog"
	"github.com/roach88/sieve/internal/expr"
)

// FieldInfo describes one catalog field for display.
type FieldInfo struct {
	ID        string   `json:"id"`
	Member    string   `json:"member"`
	Wire      string   `json:"wire"`
	Type      string   `json:"type"`
	Operators []string `json:"operators"`
	Values    []string `json:"values,omitempty"`
	Range     string   `json:"range,omitempty"`
	Keep      bool     `json:"keep,omitempty"`
	Exclusive bool     `json:"exclusive_or,omitempty"`
	Sortable  bool     `json:"sortable"`
}

// FieldList is the fields command payload.
type FieldList struct {
	Entity string      `json:"entity"`
	Fields []FieldInfo `json:"fields"`
}

func (l FieldList) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "entity %s\n", l.Entity)
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tMEMBER\tWIRE\tTYPE\tOPERATORS\tDOMAIN\tFLAGS")
	for _, f := range l.Fields {
		domain := f.Range
		if len(f.Values) > 0 {
			domain = strings.Join(f.Values, "|")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			f.ID, f.Member, f.Wire, f.Type, strings.Join(f.Operators, ","), domain, flags(f))
	}
	tw.Flush()
	return strings.TrimSuffix(b.String(), "\n")
}

func flags(f FieldInfo) string {
	var out []string
	if f.Keep {
		out = append(out, "keep")
	}
	if f.Exclusive {
		out = append(out, "exclusive-or")
	}
	if !f.Sortable {
		out = append(out, "unsortable")
	}
	return strings.Join(out, ",")
}

// NewFieldsCommand creates the fields command.
func NewFieldsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fields <catalog>",
		Short: "List the fields of a catalog",
		Long: `List the well-known fields of a catalog with their wire names,
accepted operators and value domains.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFields(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runFields(opts *RootOptions, catalogPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cat, err := catalog.LoadFile(catalogPath)
	if err != nil {
		_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load catalog", err)
	}
	return formatter.Success(listFields(cat))
}

func listFields(cat *catalog.Catalog) FieldList {
	list := FieldList{Entity: cat.Entity(), Fields: []FieldInfo{}}
	for _, f := range cat.Fields() {
		info := FieldInfo{
			ID:        f.ID,
			Member:    f.Member,
			Wire:      f.Wire,
			Type:      f.Type.String(),
			Values:    f.Values,
			Range:     formatRange(f.Min, f.Max),
			Keep:      f.Keep,
			Exclusive: f.ExclusiveOr,
			Sortable:  !f.Unsortable,
		}
		for _, op := range f.Operators {
			info.Operators = append(info.Operators, string(op))
		}
		if e, ok := cat.Enum(f.Type.Name); ok && f.Type.Kind == expr.KindEnum {
			for _, m := range e.Members {
				info.Values = append(info.Values, m.Wire)
			}
		}
		list.Fields = append(list.Fields, info)
	}
	return list
}

// formatRange renders a numeric bound pair, "" when unbounded.
func formatRange(lo, hi *float64) string {
	if lo == nil && hi == nil {
		return ""
	}
	bound := func(v *float64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'g', -1, 64)
	}
	return "[" + bound(lo) + ", " + bound(hi) + "]"
}
