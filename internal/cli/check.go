package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/catalog"
)

// CheckResult holds the outcome of a catalog check.
type CheckResult struct {
	Valid  bool   `json:"valid"`
	Entity string `json:"entity,omitempty"`
	Fields int    `json:"fields"`
	Enums  int    `json:"enums"`
}

func (r CheckResult) String() string {
	return fmt.Sprintf("✓ catalog valid: entity %s, %d field(s), %d enum(s)", r.Entity, r.Fields, r.Enums)
}

// CheckError locates a catalog problem.
type CheckError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <catalog>",
		Short: "Validate a field catalog",
		Long: `Validate a CUE field catalog without translating anything.

Reports the first problem with its position, such as an unknown type or
operator, an enum field naming a missing enum, or min above max.

Exit codes:
  0 - Catalog valid
  1 - Catalog invalid
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runCheck(opts *RootOptions, catalogPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	formatter.VerboseLog("Checking %s", catalogPath)

	cat, err := catalog.LoadFile(catalogPath)
	if err != nil {
		if !errors.Is(err, catalog.ErrInvalidCatalog) {
			_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read catalog", err)
		}
		_ = formatter.Error(ErrCodeInvalidCatalog, err.Error(), checkError(err))
		return WrapExitError(ExitFailure, "invalid catalog", err)
	}

	return formatter.Success(CheckResult{
		Valid:  true,
		Entity: cat.Entity(),
		Fields: len(cat.Fields()),
		Enums:  len(cat.Enums()),
	})
}

// ErrCodeInvalidCatalog reports a catalog that was read but does not compile.
const ErrCodeInvalidCatalog = "E_INVALID_CATALOG"

func checkError(err error) CheckError {
	var cErr *catalog.CompileError
	if errors.As(err, &cErr) {
		out := CheckError{Field: cErr.Field, Message: cErr.Message}
		if cErr.Pos.IsValid() {
			out.Line = cErr.Pos.Line()
			out.Column = cErr.Pos.Column()
		}
		return out
	}
	return CheckError{Message: err.Error()}
}
