// Package filter holds the wire-side result of a translation: filter records
// grouped into sets, one set per remote request.
package filter

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Operator is a comparison the remote search protocol understands.
type Operator string

const (
	OpEquals         Operator = "eq"
	OpNotEquals      Operator = "ne"
	OpGreaterThan    Operator = "gt"
	OpGreaterOrEqual Operator = "ge"
	OpLessThan       Operator = "lt"
	OpLessOrEqual    Operator = "le"
	OpContains       Operator = "contains"
)

// Operators lists every operator in a stable order.
var Operators = []Operator{
	OpEquals, OpNotEquals, OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual, OpContains,
}

// ParseOperator reads the string form of an operator.
func ParseOperator(s string) (Operator, bool) {
	for _, op := range Operators {
		if string(op) == s {
			return op, true
		}
	}
	return "", false
}

// Record is a validated (field, operator, values) triple accepted verbatim by
// the remote protocol. More than one value means "any of" (a same-field OR).
type Record struct {
	Field    string   `json:"field" yaml:"field"`
	Wire     string   `json:"wire" yaml:"wire"`
	Operator Operator `json:"operator" yaml:"operator"`
	Values   []string `json:"values" yaml:"values"`
}

// String renders the record as: Field op "v1"|"v2".
func (r Record) String() string {
	quoted := make([]string, len(r.Values))
	for i, v := range r.Values {
		quoted[i] = strconv.Quote(v)
	}
	return fmt.Sprintf("%s %s %s", r.Field, r.Operator, strings.Join(quoted, "|"))
}

// encodeValue renders one value in the search-parameter syntax:
// plain for equality, @op(value) otherwise.
func (r Record) encodeValue(v string) string {
	switch r.Operator {
	case OpEquals:
		return v
	case OpNotEquals:
		return "@neq(" + v + ")"
	case OpGreaterThan:
		return "@gt(" + v + ")"
	case OpGreaterOrEqual:
		return "@gte(" + v + ")"
	case OpLessThan:
		return "@lt(" + v + ")"
	case OpLessOrEqual:
		return "@lte(" + v + ")"
	case OpContains:
		return "@sub(" + v + ")"
	}
	return v
}

// Set is a group of records issued as one request. Records are implicitly
// AND-ed. An empty set matches everything.
type Set struct {
	Records []Record `json:"records" yaml:"records"`
}

// Add appends r.
func (s *Set) Add(r Record) {
	s.Records = append(s.Records, r)
}

// Has reports whether the set already filters on field.
func (s *Set) Has(field string) bool {
	for _, r := range s.Records {
		if r.Field == field {
			return true
		}
	}
	return false
}

// Fields returns the distinct fields of the set in record order.
func (s *Set) Fields() []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range s.Records {
		if !seen[r.Field] {
			seen[r.Field] = true
			out = append(out, r.Field)
		}
	}
	return out
}

// MatchAll reports whether the set places no restriction.
func (s *Set) MatchAll() bool {
	return len(s.Records) == 0
}

func (s Set) String() string {
	if len(s.Records) == 0 {
		return "*"
	}
	parts := make([]string, len(s.Records))
	for i, r := range s.Records {
		parts[i] = r.String()
	}
	return strings.Join(parts, " & ")
}

// Encode renders the set as search parameters, e.g.
// filter_name=@sub(ping)&filter_status=3. Parameters are sorted by key;
// repeated keys keep record order.
func (s Set) Encode() string {
	values := url.Values{}
	for _, r := range s.Records {
		key := "filter_" + r.Wire
		for _, v := range r.Values {
			values.Add(key, r.encodeValue(v))
		}
	}
	return values.Encode()
}

// Collection is every set produced for one logical query. The caller issues
// each set and unions the results.
type Collection []Set

// MatchAll reports whether some set places no restriction, which makes every
// other set redundant.
func (c Collection) MatchAll() bool {
	for i := range c {
		if c[i].MatchAll() {
			return true
		}
	}
	return false
}

// Normalize collapses the collection to a single empty set when any set
// matches everything, and drops sets that repeat an earlier one.
func (c Collection) Normalize() Collection {
	if len(c) == 0 || c.MatchAll() {
		return Collection{{}}
	}
	seen := map[string]bool{}
	out := make(Collection, 0, len(c))
	for _, s := range c {
		key := s.canonical()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// canonical is an order-insensitive identity of the set.
func (s Set) canonical() string {
	parts := make([]string, len(s.Records))
	for i, r := range s.Records {
		parts[i] = r.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, " & ")
}

func (c Collection) String() string {
	lines := make([]string, len(c))
	for i, s := range c {
		lines[i] = s.String()
	}
	return strings.Join(lines, "\n")
}
