// Package catalog is the field-metadata registry a translation runs against.
//
// A Catalog describes one entity: which members map to well-known fields,
// the wire name of each field, the operators the remote side accepts for it,
// and the values it accepts. It also carries the enums those fields use.
//
// A Catalog is built once (usually from a CUE document, see LoadFile) and is
// read-only afterwards, so one instance can serve concurrent translations.
package catalog

import (
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gobeam/stringy"

	"github.com/roach88/sieve/internal/expr"
	"github.com/roach88/sieve/internal/filter"
)

// ErrInvalidCatalog marks every error raised while building a catalog.
var ErrInvalidCatalog = errors.New("catalog: invalid catalog")

// ErrRejected marks records a field does not accept.
var ErrRejected = errors.New("catalog: record rejected")

// Field is the metadata of one well-known field.
type Field struct {
	// ID is the field identity used in records. Defaults to Member.
	ID string
	// Member is the entity member mapped to this field.
	Member string
	// Wire is the parameter name on the wire. Defaults to the snake case of
	// Member.
	Wire string
	Type expr.Type
	// Operators accepted by the remote side. Defaults depend on Type.
	Operators []filter.Operator
	// Values, when set, is the closed list of accepted wire values.
	Values []string
	// Min and Max bound numeric values, inclusive.
	Min, Max *float64
	// Keep allows the field in more than one AND-ed record of a set.
	Keep bool
	// ExclusiveOr forbids OR-ing two comparisons on the field in one set.
	ExclusiveOr bool
	// Unsortable fields cannot be pushed as a sort key.
	Unsortable bool
}

// Accepts reports whether op is in the field's operator list.
func (f *Field) Accepts(op filter.Operator) bool {
	return slices.Contains(f.Operators, op)
}

// EnumMember is one named value of an enum.
type EnumMember struct {
	Name    string
	Wire    string
	Ordinal int64
}

// Enum is a named set of values with wire names and ordinals.
type Enum struct {
	Name    string
	Members []EnumMember
}

// ByName finds a member by its declared name.
func (e *Enum) ByName(name string) (EnumMember, bool) {
	for _, m := range e.Members {
		if m.Name == name {
			return m, true
		}
	}
	return EnumMember{}, false
}

// ByOrdinal finds a member by its ordinal.
func (e *Enum) ByOrdinal(ord int64) (EnumMember, bool) {
	for _, m := range e.Members {
		if m.Ordinal == ord {
			return m, true
		}
	}
	return EnumMember{}, false
}

// Catalog holds the fields and enums of one entity.
type Catalog struct {
	entity   string
	fields   []*Field
	byMember map[string]*Field
	byID     map[string]*Field
	enums    map[string]*Enum
}

// New returns an empty catalog for the named entity source.
func New(entity string) *Catalog {
	return &Catalog{
		entity:   entity,
		byMember: map[string]*Field{},
		byID:     map[string]*Field{},
		enums:    map[string]*Enum{},
	}
}

// Entity returns the name of the entity source the catalog describes.
func (c *Catalog) Entity() string {
	return c.entity
}

// AddEnum registers e. Enums must be added before the fields that use them.
func (c *Catalog) AddEnum(e Enum) error {
	if e.Name == "" {
		return errors.Mark(errors.New("enum without a name"), ErrInvalidCatalog)
	}
	if _, dup := c.enums[e.Name]; dup {
		return errors.Mark(errors.Newf("duplicate enum %q", e.Name), ErrInvalidCatalog)
	}
	e.Members = slices.Clone(e.Members)
	seen := map[int64]string{}
	for i, m := range e.Members {
		if prev, dup := seen[m.Ordinal]; dup {
			return errors.Mark(errors.Newf("enum %s: %s and %s share ordinal %d", e.Name, prev, m.Name, m.Ordinal), ErrInvalidCatalog)
		}
		seen[m.Ordinal] = m.Name
		if m.Wire == "" {
			e.Members[i].Wire = wireName(m.Name)
		}
	}
	c.enums[e.Name] = &e
	return nil
}

// AddField registers f, filling in defaults for ID, Wire and Operators.
func (c *Catalog) AddField(f Field) error {
	if f.Member == "" {
		return errors.Mark(errors.New("field without a member"), ErrInvalidCatalog)
	}
	if f.ID == "" {
		f.ID = f.Member
	}
	if f.Wire == "" {
		f.Wire = wireName(f.Member)
	}
	if _, dup := c.byMember[f.Member]; dup {
		return errors.Mark(errors.Newf("duplicate member %q", f.Member), ErrInvalidCatalog)
	}
	if _, dup := c.byID[f.ID]; dup {
		return errors.Mark(errors.Newf("duplicate field %q", f.ID), ErrInvalidCatalog)
	}

	switch f.Type.Kind {
	case expr.KindUnknown, expr.KindObject, expr.KindEntity:
		return errors.Mark(errors.Newf("field %s: type %s cannot be filtered", f.ID, f.Type), ErrInvalidCatalog)
	case expr.KindEnum:
		if _, ok := c.enums[f.Type.Name]; !ok {
			return errors.Mark(errors.Newf("field %s: unknown enum %q", f.ID, f.Type.Name), ErrInvalidCatalog)
		}
	}

	if len(f.Operators) == 0 {
		f.Operators = DefaultOperators(f.Type)
	}
	for _, op := range f.Operators {
		if op == filter.OpContains && f.Type.Kind != expr.KindString && f.Type.Kind != expr.KindArray {
			return errors.Mark(errors.Newf("field %s: contains needs a string or array field", f.ID), ErrInvalidCatalog)
		}
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		return errors.Mark(errors.Newf("field %s: min %v above max %v", f.ID, *f.Min, *f.Max), ErrInvalidCatalog)
	}

	field := &f
	c.fields = append(c.fields, field)
	c.byMember[f.Member] = field
	c.byID[f.ID] = field
	return nil
}

// DefaultOperators returns the operators a field of type t accepts when the
// catalog does not list them.
func DefaultOperators(t expr.Type) []filter.Operator {
	switch t.Kind {
	case expr.KindString:
		return []filter.Operator{filter.OpEquals, filter.OpNotEquals, filter.OpContains}
	case expr.KindInt, expr.KindFloat, expr.KindDuration, expr.KindTime:
		return []filter.Operator{filter.OpEquals, filter.OpNotEquals, filter.OpGreaterThan, filter.OpLessThan}
	case expr.KindEnum:
		return []filter.Operator{filter.OpEquals, filter.OpNotEquals}
	case expr.KindBool:
		return []filter.Operator{filter.OpEquals}
	case expr.KindArray:
		return []filter.Operator{filter.OpContains}
	}
	return nil
}

func wireName(member string) string {
	return stringy.New(member).SnakeCase("?", "").ToLower()
}

// Field returns the field with the given identity.
func (c *Catalog) Field(id string) (*Field, bool) {
	f, ok := c.byID[id]
	return f, ok
}

// Fields returns every field in registration order.
func (c *Catalog) Fields() []*Field {
	return slices.Clone(c.fields)
}

// Enum returns the named enum.
func (c *Catalog) Enum(name string) (*Enum, bool) {
	e, ok := c.enums[name]
	return e, ok
}

// Enums returns every enum sorted by name.
func (c *Catalog) Enums() []*Enum {
	out := make([]*Enum, 0, len(c.enums))
	for _, e := range c.enums {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Enum) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Property implements expr.Resolver.
func (c *Catalog) Property(owner expr.Type, member string) (expr.Property, bool) {
	if owner.Kind != expr.KindEntity || owner.Name != c.entity {
		return expr.Property{}, false
	}
	f, ok := c.byMember[member]
	if !ok {
		return expr.Property{}, false
	}
	return expr.Property{Field: f.ID, Type: f.Type, ExclusiveOr: f.ExclusiveOr}, true
}

// EnumValue implements expr.Resolver.
func (c *Catalog) EnumValue(enum, name string) (expr.EnumValue, bool) {
	e, ok := c.enums[enum]
	if !ok {
		return expr.EnumValue{}, false
	}
	m, ok := e.ByName(name)
	if !ok {
		return expr.EnumValue{}, false
	}
	return expr.EnumValue{Enum: e.Name, Name: m.Name, Ordinal: m.Ordinal}, true
}

// Validate checks r against the metadata of its field: the field must
// exist, accept the operator and accept every value. Rejections are marked
// ErrRejected and carry the accepted domain as a hint.
func (c *Catalog) Validate(r filter.Record) error {
	f, ok := c.byID[r.Field]
	if !ok {
		return errors.Mark(errors.Newf("unknown field %q", r.Field), ErrRejected)
	}
	if !f.Accepts(r.Operator) {
		err := errors.Newf("field %s does not accept operator %s", f.ID, r.Operator)
		return errors.WithHintf(errors.Mark(err, ErrRejected), "accepted operators: %s", joinOperators(f.Operators))
	}
	if len(r.Values) == 0 {
		return errors.Mark(errors.Newf("field %s: record without values", f.ID), ErrRejected)
	}
	for _, v := range r.Values {
		if err := c.checkValue(f, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) checkValue(f *Field, v string) error {
	if f.Type.Kind == expr.KindEnum {
		e := c.enums[f.Type.Name]
		var wires []string
		for _, m := range e.Members {
			if m.Wire == v {
				return nil
			}
			wires = append(wires, m.Wire)
		}
		err := errors.Newf("field %s: %q is not a %s", f.ID, v, e.Name)
		return errors.WithHintf(errors.Mark(err, ErrRejected), "accepted values: %s", strings.Join(wires, ", "))
	}
	if len(f.Values) > 0 && !slices.Contains(f.Values, v) {
		err := errors.Newf("field %s: value %q not accepted", f.ID, v)
		return errors.WithHintf(errors.Mark(err, ErrRejected), "accepted values: %s", strings.Join(f.Values, ", "))
	}
	if f.Min == nil && f.Max == nil {
		return nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return errors.Mark(errors.Newf("field %s: %q is not a number", f.ID, v), ErrRejected)
	}
	if (f.Min != nil && n < *f.Min) || (f.Max != nil && n > *f.Max) {
		err := errors.Newf("field %s: %s out of range", f.ID, v)
		return errors.WithHintf(errors.Mark(err, ErrRejected), "accepted range: %s", f.rangeString())
	}
	return nil
}

func (f *Field) rangeString() string {
	lo, hi := "-inf", "+inf"
	if f.Min != nil {
		lo = strconv.FormatFloat(*f.Min, 'f', -1, 64)
	}
	if f.Max != nil {
		hi = strconv.FormatFloat(*f.Max, 'f', -1, 64)
	}
	return "[" + lo + ", " + hi + "]"
}

func joinOperators(ops []filter.Operator) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = string(op)
	}
	return strings.Join(parts, ", ")
}
