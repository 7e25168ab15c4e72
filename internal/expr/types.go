package expr

import (
	"strings"
	"time"
)

// Kind classifies the value a node produces.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindEnum
	KindDuration
	KindTime
	KindObject
	KindArray
	KindEntity
)

var kindNames = map[Kind]string{
	KindUnknown:  "unknown",
	KindBool:     "bool",
	KindInt:      "int",
	KindFloat:    "float",
	KindString:   "string",
	KindEnum:     "enum",
	KindDuration: "duration",
	KindTime:     "time",
	KindObject:   "object",
	KindArray:    "array",
	KindEntity:   "entity",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Type describes the static type of a node.
//
// Name carries the enum name for KindEnum, the entity name for KindEntity and
// the element type name for KindArray. An enum type with an empty Name is the
// enum supertype every enum converts to.
type Type struct {
	Kind     Kind
	Name     string
	Nullable bool
}

// Predeclared types.
var (
	Unknown    = Type{Kind: KindUnknown}
	Bool       = Type{Kind: KindBool}
	Int        = Type{Kind: KindInt}
	Float      = Type{Kind: KindFloat}
	StringType = Type{Kind: KindString}
	Duration   = Type{Kind: KindDuration}
	Time       = Type{Kind: KindTime}
	Object     = Type{Kind: KindObject}
	AnyEnum    = Type{Kind: KindEnum}
)

// Enum returns the type of the named enum.
func Enum(name string) Type {
	return Type{Kind: KindEnum, Name: name}
}

// Entity returns the element type of the named entity source.
func Entity(name string) Type {
	return Type{Kind: KindEntity, Name: name}
}

// Array returns an array type with the given element type name.
func Array(elem string) Type {
	return Type{Kind: KindArray, Name: elem}
}

// AsNullable returns t with the nullable bit set.
func (t Type) AsNullable() Type {
	t.Nullable = true
	return t
}

// Underlying returns t without the nullable bit.
func (t Type) Underlying() Type {
	t.Nullable = false
	return t
}

func (t Type) String() string {
	var b strings.Builder
	switch {
	case t.Kind == KindEnum && t.Name != "":
		b.WriteString(t.Name)
	case t.Kind == KindArray:
		b.WriteString(t.Name)
		b.WriteString("[]")
	case t.Kind == KindEntity:
		b.WriteString(t.Name)
	default:
		b.WriteString(t.Kind.String())
	}
	if t.Nullable {
		b.WriteString("?")
	}
	return b.String()
}

// ParseType reads the String form of a scalar, enum or array type.
// Enum types are written "enum:Name" so they cannot collide with scalars.
func ParseType(s string) (Type, bool) {
	s = strings.TrimSpace(s)
	var t Type
	if strings.HasSuffix(s, "?") {
		t.Nullable = true
		s = strings.TrimSuffix(s, "?")
	}
	if strings.HasSuffix(s, "[]") {
		t.Kind = KindArray
		t.Name = strings.TrimSuffix(s, "[]")
		return t, t.Name != ""
	}
	if name, ok := strings.CutPrefix(s, "enum:"); ok {
		t.Kind = KindEnum
		t.Name = name
		return t, true
	}
	for k, name := range kindNames {
		if name == s && k != KindUnknown && k != KindEntity && k != KindArray {
			t.Kind = k
			return t, true
		}
	}
	return Type{}, false
}

// EnumValue is a constant member of an enum.
type EnumValue struct {
	Enum    string
	Name    string
	Ordinal int64
}

func (v EnumValue) String() string {
	return v.Enum + "." + v.Name
}

// TypeOf returns the type a constant value naturally has.
func TypeOf(v any) Type {
	switch val := v.(type) {
	case nil:
		return Object.AsNullable()
	case bool:
		return Bool
	case int, int32, int64:
		return Int
	case float32, float64:
		return Float
	case string:
		return StringType
	case time.Duration:
		return Duration
	case time.Time:
		return Time
	case EnumValue:
		return Enum(val.Enum)
	default:
		return Unknown
	}
}
