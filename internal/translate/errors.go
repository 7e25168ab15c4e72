package translate

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/roach88/sieve/internal/expr"
)

// Error is a deterministic input-validation failure raised in strict mode
// (and, for NOT_A_QUERY, in every mode). It is never retryable.
//
// Accepted value domains travel as hints on the wrapping error; read them
// with errors.FlattenHints.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Fragment is the printed form of the offending tree fragment.
	Fragment string
}

// Code categorizes translation errors.
type Code string

const (
	// CodeAmbiguousCondition: more than one sub-condition survived for one
	// field of a filter set.
	CodeAmbiguousCondition Code = "AMBIGUOUS_CONDITION"

	// CodePropertyCount: a comparison references no known field, or more
	// than one.
	CodePropertyCount Code = "PROPERTY_COUNT"

	// CodeUnsupportedNode: a node kind the remote grammar cannot express.
	CodeUnsupportedNode Code = "UNSUPPORTED_NODE"

	// CodeExtraneousMember: a member access outside the nullable-unwrap and
	// duration-seconds whitelist.
	CodeExtraneousMember Code = "EXTRANEOUS_MEMBER"

	// CodeIllegalCast: a conversion applied to a field that changes its
	// meaning.
	CodeIllegalCast Code = "ILLEGAL_CAST"

	// CodeInvalidFilter: the field rejects the operator or value.
	CodeInvalidFilter Code = "INVALID_FILTER"

	// CodeUnsupportedParent: an operator above a field reference that the
	// remote grammar cannot express.
	CodeUnsupportedParent Code = "UNSUPPORTED_PARENT"

	// CodeInvalidPaging: a negative skip.
	CodeInvalidPaging Code = "INVALID_PAGING"

	// CodeNotAQuery: the input is not a call chain over the catalog's source.
	CodeNotAQuery Code = "NOT_A_QUERY"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Fragment != "" {
		return fmt.Sprintf("%s: %s in %s", e.Code, e.Message, e.Fragment)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code Code, fragment expr.Node, format string, args ...any) error {
	e := &Error{Code: code, Message: fmt.Sprintf(format, args...)}
	if fragment != nil {
		e.Fragment = expr.String(fragment)
	}
	return errors.WithStack(e)
}

// IsCode reports whether err is, or wraps, an *Error with the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the *Error inside err, or "" when there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
