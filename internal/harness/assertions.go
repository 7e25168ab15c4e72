package harness

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the full outcome to help debug the failure.
type AssertionError struct {
	Type     string  // Assertion type for categorization
	Expected string  // Human-readable expected outcome
	Actual   string  // Human-readable actual outcome
	Outcome  Outcome // Full outcome for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nQuery: %s\n", e.Outcome.Query)
	if e.Outcome.Error != "" {
		fmt.Fprintf(&buf, "  error: %s\n", e.Outcome.Error)
	}
	for i, s := range e.Outcome.Sets {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, s)
	}
	return buf.String()
}

func fail(kind string, o Outcome, expected, actual string) error {
	return &AssertionError{Type: kind, Expected: expected, Actual: actual, Outcome: o}
}

// requireTranslated reports an unexpected translation error.
func requireTranslated(kind string, o Outcome) error {
	if o.Error == "" {
		return nil
	}
	return fail(kind, o, "successful translation", "error "+o.Error)
}

func assertSets(o Outcome, a Assertion) error {
	if err := requireTranslated(AssertSets, o); err != nil {
		return err
	}
	if !slices.Equal(o.Sets, a.Sets) {
		return fail(AssertSets, o, strings.Join(a.Sets, " | "), strings.Join(o.Sets, " | "))
	}
	return nil
}

func assertSetCount(o Outcome, a Assertion) error {
	if err := requireTranslated(AssertSetCount, o); err != nil {
		return err
	}
	if len(o.Sets) != a.Count {
		return fail(AssertSetCount, o, fmt.Sprintf("%d sets", a.Count), fmt.Sprintf("%d sets", len(o.Sets)))
	}
	return nil
}

func assertIllegal(o Outcome, a Assertion) error {
	if err := requireTranslated(AssertIllegal, o); err != nil {
		return err
	}
	if o.Illegal != a.Value {
		return fail(AssertIllegal, o, strconv.FormatBool(a.Value), strconv.FormatBool(o.Illegal))
	}
	return nil
}

func assertResidual(o Outcome, a Assertion) error {
	if err := requireTranslated(AssertResidual, o); err != nil {
		return err
	}
	if o.Residual != a.Text {
		return fail(AssertResidual, o, a.Text, o.Residual)
	}
	return nil
}

func assertSort(o Outcome, a Assertion) error {
	if err := requireTranslated(AssertSort, o); err != nil {
		return err
	}
	if o.Sort != a.Text {
		return fail(AssertSort, o, orNone(a.Text), orNone(o.Sort))
	}
	return nil
}

func assertItems(kind string, o Outcome, want, got []string) error {
	if err := requireTranslated(kind, o); err != nil {
		return err
	}
	if !slices.Equal(want, got) {
		return fail(kind, o, fmt.Sprintf("%v", want), fmt.Sprintf("%v", got))
	}
	return nil
}

func assertPaging(o Outcome, a Assertion) error {
	if err := requireTranslated(AssertPaging, o); err != nil {
		return err
	}
	want := "skip " + intString(a.Skip) + ", limit " + intString(a.Limit)
	got := "skip " + intString(o.Skip) + ", limit " + intString(o.Limit)
	if want != got {
		return fail(AssertPaging, o, want, got)
	}
	return nil
}

func assertError(o Outcome, a Assertion) error {
	if o.Error != a.Code {
		return fail(AssertError, o, "error "+a.Code, "error "+orNone(o.Error))
	}
	if a.Hint != "" && o.Hint != a.Hint {
		return fail(AssertError, o, "hint "+a.Hint, "hint "+orNone(o.Hint))
	}
	return nil
}

func intString(n *int) string {
	if n == nil {
		return "none"
	}
	return strconv.Itoa(*n)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// EvaluateAssertions checks every assertion against o and returns the
// failure messages. An empty slice means all assertions passed.
func EvaluateAssertions(o Outcome, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertSets:
			err = assertSets(o, a)
		case AssertSetCount:
			err = assertSetCount(o, a)
		case AssertIllegal:
			err = assertIllegal(o, a)
		case AssertResidual:
			err = assertResidual(o, a)
		case AssertLocal:
			err = assertItems(AssertLocal, o, a.Items, o.Local)
		case AssertSort:
			err = assertSort(o, a)
		case AssertPaging:
			err = assertPaging(o, a)
		case AssertColumns:
			err = assertItems(AssertColumns, o, a.Items, o.Columns)
		case AssertError:
			err = assertError(o, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}
