package catalog

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/cockroachdb/errors"

	"github.com/roach88/sieve/internal/expr"
	"github.com/roach88/sieve/internal/filter"
)

// CompileError reports a malformed catalog document.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes every CompileError match ErrInvalidCatalog.
func (e *CompileError) Is(target error) bool {
	return target == ErrInvalidCatalog
}

// LoadFile reads and compiles a CUE catalog document.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading catalog %s", path)
	}
	return CompileString(path, string(data))
}

// CompileString compiles a catalog from CUE source. filename only shows up
// in error positions.
//
// The document looks like:
//
//	entity: "sensors"
//	enums: Status: {
//		Up:   {wire: "up", ordinal: 3}
//		Down: {wire: "down", ordinal: 5}
//	}
//	fields: {
//		Id:     {type: "int", ops: ["eq", "gt", "lt"]}
//		Status: {type: "enum:Status"}
//		LastUp: {type: "time", keep: true, exclusiveOr: true}
//	}
func CompileString(filename, src string) (*Catalog, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	return Compile(v)
}

// Compile builds a catalog from an already evaluated CUE value.
func Compile(v cue.Value) (*Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	entityVal := v.LookupPath(cue.ParsePath("entity"))
	if !entityVal.Exists() {
		return nil, &CompileError{Field: "entity", Message: "entity is required", Pos: v.Pos()}
	}
	entity, err := entityVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	c := New(entity)

	if enumsVal := v.LookupPath(cue.ParsePath("enums")); enumsVal.Exists() {
		iter, err := enumsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			e, err := compileEnum(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			if err := c.AddEnum(e); err != nil {
				return nil, &CompileError{Field: "enums." + iter.Label(), Message: err.Error(), Pos: iter.Value().Pos()}
			}
		}
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{Field: "fields", Message: "at least one field is required", Pos: v.Pos()}
	}
	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		f, err := compileField(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		if err := c.AddField(f); err != nil {
			return nil, &CompileError{Field: "fields." + iter.Label(), Message: err.Error(), Pos: iter.Value().Pos()}
		}
	}
	if len(c.fields) == 0 {
		return nil, &CompileError{Field: "fields", Message: "at least one field is required", Pos: fieldsVal.Pos()}
	}
	return c, nil
}

func compileEnum(name string, v cue.Value) (Enum, error) {
	e := Enum{Name: name}
	iter, err := v.Fields()
	if err != nil {
		return e, formatCUEError(err)
	}
	for iter.Next() {
		m := EnumMember{Name: iter.Label()}
		mv := iter.Value()
		if wv := mv.LookupPath(cue.ParsePath("wire")); wv.Exists() {
			if m.Wire, err = wv.String(); err != nil {
				return e, formatCUEError(err)
			}
		}
		ov := mv.LookupPath(cue.ParsePath("ordinal"))
		if !ov.Exists() {
			return e, &CompileError{
				Field:   "enums." + name + "." + m.Name,
				Message: "ordinal is required",
				Pos:     mv.Pos(),
			}
		}
		if m.Ordinal, err = ov.Int64(); err != nil {
			return e, formatCUEError(err)
		}
		e.Members = append(e.Members, m)
	}
	return e, nil
}

func compileField(member string, v cue.Value) (Field, error) {
	f := Field{Member: member}
	path := "fields." + member

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return f, &CompileError{Field: path + ".type", Message: "type is required", Pos: v.Pos()}
	}
	typeStr, err := typeVal.String()
	if err != nil {
		return f, formatCUEError(err)
	}
	t, ok := expr.ParseType(typeStr)
	if !ok {
		return f, &CompileError{Field: path + ".type", Message: fmt.Sprintf("unknown type %q", typeStr), Pos: typeVal.Pos()}
	}
	f.Type = t

	if f.ID, err = optionalString(v, "id"); err != nil {
		return f, err
	}
	if f.Wire, err = optionalString(v, "wire"); err != nil {
		return f, err
	}
	if f.Keep, err = optionalBool(v, "keep", false); err != nil {
		return f, err
	}
	if f.ExclusiveOr, err = optionalBool(v, "exclusiveOr", false); err != nil {
		return f, err
	}
	sortable, err := optionalBool(v, "sortable", true)
	if err != nil {
		return f, err
	}
	f.Unsortable = !sortable

	if opsVal := v.LookupPath(cue.ParsePath("ops")); opsVal.Exists() {
		list, err := opsVal.List()
		if err != nil {
			return f, formatCUEError(err)
		}
		for list.Next() {
			s, err := list.Value().String()
			if err != nil {
				return f, formatCUEError(err)
			}
			op, ok := filter.ParseOperator(s)
			if !ok {
				return f, &CompileError{Field: path + ".ops", Message: fmt.Sprintf("unknown operator %q", s), Pos: list.Value().Pos()}
			}
			f.Operators = append(f.Operators, op)
		}
	}

	if valuesVal := v.LookupPath(cue.ParsePath("values")); valuesVal.Exists() {
		list, err := valuesVal.List()
		if err != nil {
			return f, formatCUEError(err)
		}
		for list.Next() {
			s, err := list.Value().String()
			if err != nil {
				return f, formatCUEError(err)
			}
			f.Values = append(f.Values, s)
		}
	}

	if f.Min, err = optionalFloat(v, "min"); err != nil {
		return f, err
	}
	if f.Max, err = optionalFloat(v, "max"); err != nil {
		return f, err
	}
	return f, nil
}

func optionalString(v cue.Value, name string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalBool(v cue.Value, name string, def bool) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return def, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

func optionalFloat(v cue.Value, name string) (*float64, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return nil, nil
	}
	n, err := fv.Float64()
	if err != nil {
		return nil, formatCUEError(err)
	}
	return &n, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Field: "cue", Message: err.Error()}
	}
	first := errs[0]
	positions := cueerrors.Positions(first)
	var pos token.Pos
	if len(positions) > 0 {
		pos = positions[0]
	}
	return &CompileError{Field: "cue", Message: first.Error(), Pos: pos}
}
