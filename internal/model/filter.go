// Copyright 2026 Canonical.

package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// A Filter selects a subset of instances. Types restricts candidates
// to the named classes, Where restricts them by property predicates,
// Sort and Limit constrain the ordering and size of the result.
type Filter struct {
	Types []string   `json:"type,omitempty"`
	Where *WhereExpr `json:"where,omitempty"`

	// Sort names the property to order by. A leading "-" reverses
	// the order.
	Sort  string `json:"sort,omitempty"`
	Limit *int   `json:"limit,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. The historical payload
// format spells the predicate key "filter", it is accepted as an alias
// for "where"; marshaling always emits "where".
func (f *Filter) UnmarshalJSON(b []byte) error {
	var raw struct {
		Types  []string   `json:"type"`
		Where  *WhereExpr `json:"where"`
		Filter *WhereExpr `json:"filter"`
		Sort   string     `json:"sort"`
		Limit  *int       `json:"limit"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	where := raw.Where
	if where == nil {
		where = raw.Filter
	}
	*f = Filter{Types: raw.Types, Where: where, Sort: raw.Sort, Limit: raw.Limit}
	return nil
}

// SortProperty returns the property named by the Sort field and
// whether the order is descending.
func (f *Filter) SortProperty() (prop string, descending bool) {
	if strings.HasPrefix(f.Sort, "-") {
		return f.Sort[1:], true
	}
	return f.Sort, false
}

// A WhereExpr is a boolean expression over instance property
// predicates. Exactly one of the fields is set.
type WhereExpr struct {
	All       []WhereExpr  `json:"all,omitempty"`
	Any       []WhereExpr  `json:"any,omitempty"`
	Not       *WhereExpr   `json:"not,omitempty"`
	Eq        *Comparison  `json:"eq,omitempty"`
	Ne        *Comparison  `json:"ne,omitempty"`
	Gt        *Comparison  `json:"gt,omitempty"`
	Gte       *Comparison  `json:"gte,omitempty"`
	Lt        *Comparison  `json:"lt,omitempty"`
	Lte       *Comparison  `json:"lte,omitempty"`
	In        *Membership  `json:"in,omitempty"`
	NotIn     *Membership  `json:"not_in,omitempty"`
	Contains  *Containment `json:"contains,omitempty"`
	Exists    *PropPath    `json:"exists,omitempty"`
	NotExists *PropPath    `json:"not_exists,omitempty"`
}

// A PropPath addresses a value on an instance. Paths are of the form
// "$.prop"; the pseudo-paths "$.id" and "$.class" address the instance
// id and class.
type PropPath string

// PropertyName returns the property name addressed by the path and
// whether the path is a plain property path.
func (p PropPath) PropertyName() (string, bool) {
	s := string(p)
	if !strings.HasPrefix(s, "$.") {
		return "", false
	}
	name := s[2:]
	switch name {
	case "id", "__id", "class", "class_id", "__type":
		return "", false
	}
	return name, true
}

// A Comparison is a predicate comparing the value at a path with a
// constant. It is encoded as a two element array [path, value].
type Comparison struct {
	Path  PropPath
	Value interface{}
}

// MarshalJSON implements json.Marshaler.
func (c Comparison) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{c.Path, c.Value})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Comparison) UnmarshalJSON(b []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("cannot unmarshal comparison: %v", err)
	}
	if err := json.Unmarshal(raw[0], &c.Path); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &c.Value)
}

// A Membership is a predicate testing whether the value at a path is
// one of a list of constants. It is encoded as a two element array
// [path, values].
type Membership struct {
	Path   PropPath
	Values []interface{}
}

// MarshalJSON implements json.Marshaler.
func (m Membership) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{m.Path, m.Values})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Membership) UnmarshalJSON(b []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("cannot unmarshal membership: %v", err)
	}
	if err := json.Unmarshal(raw[0], &m.Path); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &m.Values)
}

// A Containment is a predicate testing whether the string value at a
// path contains a substring. It is encoded as a two element array
// [path, substring].
type Containment struct {
	Path      PropPath
	Substring string
}

// MarshalJSON implements json.Marshaler.
func (c Containment) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{c.Path, c.Substring})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Containment) UnmarshalJSON(b []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("cannot unmarshal containment: %v", err)
	}
	if err := json.Unmarshal(raw[0], &c.Path); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &c.Substring)
}
