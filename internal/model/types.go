// Copyright 2026 Canonical.

// Package model contains the schema and instance model shared by all
// parts of the system. The types in this package are pure values; once
// a commit view has been resolved they are treated as read-only.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// A DataType is the declared type of a property value.
type DataType string

const (
	TypeString     DataType = "string"
	TypeNumber     DataType = "number"
	TypeBoolean    DataType = "boolean"
	TypeDate       DataType = "date"
	TypeObject     DataType = "object"
	TypeArray      DataType = "array"
	TypeStringList DataType = "string_list"
)

// UnmarshalJSON implements json.Unmarshaler. Historical payloads spell
// data types in PascalCase, these are accepted and normalized. An empty
// string decodes to the unset data type.
func (t *DataType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "":
		*t = ""
	case "string":
		*t = TypeString
	case "number":
		*t = TypeNumber
	case "boolean", "bool":
		*t = TypeBoolean
	case "date":
		*t = TypeDate
	case "object":
		*t = TypeObject
	case "array":
		*t = TypeArray
	case "stringlist", "string_list", "string-list":
		*t = TypeStringList
	default:
		return fmt.Errorf("unknown data type %q", s)
	}
	return nil
}

// Matches reports whether the given decoded JSON value conforms to the
// data type. A nil value never matches.
func (t DataType) Matches(v interface{}) bool {
	if v == nil {
		return false
	}
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeNumber:
		switch v.(type) {
		case float64, json.Number:
			return true
		}
		return false
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeDate:
		s, ok := v.(string)
		if !ok {
			return false
		}
		if _, err := time.Parse(time.RFC3339, s); err == nil {
			return true
		}
		_, err := time.Parse("2006-01-02", s)
		return err == nil
	case TypeObject:
		_, ok := v.(map[string]interface{})
		return ok
	case TypeArray:
		_, ok := v.([]interface{})
		return ok
	case TypeStringList:
		a, ok := v.([]interface{})
		if !ok {
			return false
		}
		for _, e := range a {
			if _, ok := e.(string); !ok {
				return false
			}
		}
		return true
	}
	return false
}

// A QuantifierKind discriminates the arity constraint carried by a
// Quantifier.
type QuantifierKind string

const (
	QuantifierExactly QuantifierKind = "exactly"
	QuantifierAtLeast QuantifierKind = "at_least"
	QuantifierAtMost  QuantifierKind = "at_most"
	QuantifierBetween QuantifierKind = "between"
	QuantifierAny     QuantifierKind = "any"
)

// A Quantifier is an arity constraint on a relationship's resolved
// selection.
type Quantifier struct {
	Kind QuantifierKind
	// Min and Max bound the selection size. Their interpretation
	// depends on Kind: exactly uses Min only, between uses both.
	Min int
	Max int
}

// Exactly returns a quantifier requiring exactly n selected candidates.
func Exactly(n int) Quantifier {
	return Quantifier{Kind: QuantifierExactly, Min: n, Max: n}
}

// AtLeast returns a quantifier requiring at least n selected candidates.
func AtLeast(n int) Quantifier {
	return Quantifier{Kind: QuantifierAtLeast, Min: n}
}

// AtMost returns a quantifier requiring at most n selected candidates.
func AtMost(n int) Quantifier {
	return Quantifier{Kind: QuantifierAtMost, Max: n}
}

// Between returns a quantifier requiring between lo and hi selected
// candidates inclusive.
func Between(lo, hi int) Quantifier {
	return Quantifier{Kind: QuantifierBetween, Min: lo, Max: hi}
}

// AnyQuantifier returns the unconstrained quantifier.
func AnyQuantifier() Quantifier {
	return Quantifier{Kind: QuantifierAny}
}

// Satisfies reports whether a selection of size n satisfies the
// quantifier. The any quantifier is always satisfied.
func (q Quantifier) Satisfies(n int) bool {
	switch q.Kind {
	case QuantifierExactly:
		return n == q.Min
	case QuantifierAtLeast:
		return n >= q.Min
	case QuantifierAtMost:
		return n <= q.Max
	case QuantifierBetween:
		return n >= q.Min && n <= q.Max
	}
	return true
}

// String implements fmt.Stringer.
func (q Quantifier) String() string {
	switch q.Kind {
	case QuantifierExactly:
		return fmt.Sprintf("exactly %d", q.Min)
	case QuantifierAtLeast:
		return fmt.Sprintf("at least %d", q.Min)
	case QuantifierAtMost:
		return fmt.Sprintf("at most %d", q.Max)
	case QuantifierBetween:
		return fmt.Sprintf("between %d and %d", q.Min, q.Max)
	}
	return "any"
}

// MarshalJSON implements json.Marshaler. Bounded quantifiers are
// encoded as a single-key object, the any quantifier as a bare string.
func (q Quantifier) MarshalJSON() ([]byte, error) {
	switch q.Kind {
	case QuantifierExactly:
		return json.Marshal(map[string]int{"exactly": q.Min})
	case QuantifierAtLeast:
		return json.Marshal(map[string]int{"at_least": q.Min})
	case QuantifierAtMost:
		return json.Marshal(map[string]int{"at_most": q.Max})
	case QuantifierBetween:
		return json.Marshal(map[string][2]int{"between": {q.Min, q.Max}})
	}
	return json.Marshal("any")
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quantifier) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if strings.ToLower(s) != "any" {
			return fmt.Errorf("unknown quantifier %q", s)
		}
		*q = AnyQuantifier()
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("cannot unmarshal quantifier: %v", err)
	}
	for k, v := range obj {
		switch strings.ToLower(k) {
		case "exactly":
			var n int
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			*q = Exactly(n)
			return nil
		case "at_least":
			var n int
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			*q = AtLeast(n)
			return nil
		case "at_most":
			var n int
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			*q = AtMost(n)
			return nil
		case "between", "range":
			var r [2]int
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			*q = Between(r[0], r[1])
			return nil
		}
	}
	return fmt.Errorf("unknown quantifier %s", b)
}

// A SelectionMode declares how candidates of a relationship are chosen
// by instances.
type SelectionMode string

const (
	SelectionManual SelectionMode = "manual"
	SelectionAll    SelectionMode = "all"
	SelectionQuery  SelectionMode = "query"
)

// A Domain is an inclusive integer range attached to a class or an
// instance for combinatorial configuration.
type Domain struct {
	Lower int `json:"lower"`
	Upper int `json:"upper"`
}

// Binary returns the [0, 1] domain.
func Binary() Domain {
	return Domain{Lower: 0, Upper: 1}
}

// Constant returns the [v, v] domain.
func Constant(v int) Domain {
	return Domain{Lower: v, Upper: v}
}

// IsConstant reports whether the domain holds a single value.
func (d Domain) IsConstant() bool {
	return d.Lower == d.Upper
}

// IsBinary reports whether the domain is [0, 1].
func (d Domain) IsBinary() bool {
	return d.Lower == 0 && d.Upper == 1
}

// Contains reports whether v lies within the domain.
func (d Domain) Contains(v int) bool {
	return v >= d.Lower && v <= d.Upper
}

// String implements fmt.Stringer.
func (d Domain) String() string {
	return fmt.Sprintf("[%d, %d]", d.Lower, d.Upper)
}

// Intersect returns the intersection of two domains and whether it is
// non-empty.
func (d Domain) Intersect(o Domain) (Domain, bool) {
	r := Domain{Lower: d.Lower, Upper: d.Upper}
	if o.Lower > r.Lower {
		r.Lower = o.Lower
	}
	if o.Upper < r.Upper {
		r.Upper = o.Upper
	}
	return r, r.Lower <= r.Upper
}
