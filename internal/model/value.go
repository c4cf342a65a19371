// Copyright 2026 Canonical.

package model

import (
	"encoding/json"
	"fmt"
)

// A TypedValue is a JSON scalar or compound value together with its
// declared data type.
type TypedValue struct {
	Value    interface{} `json:"value"`
	DataType DataType    `json:"type"`
}

// StringValue returns a typed string value.
func StringValue(s string) TypedValue {
	return TypedValue{Value: s, DataType: TypeString}
}

// NumberValue returns a typed number value.
func NumberValue(f float64) TypedValue {
	return TypedValue{Value: f, DataType: TypeNumber}
}

// BoolValue returns a typed boolean value.
func BoolValue(b bool) TypedValue {
	return TypedValue{Value: b, DataType: TypeBoolean}
}

// A PropertyValueKind discriminates the variants of a PropertyValue.
type PropertyValueKind int

const (
	KindLiteral PropertyValueKind = iota
	KindConditional
	KindDerived
)

// A PropertyValue is the value stored for a property on an instance.
// It is a three-way sum: a literal typed value, a conditional rule set,
// or a derived placeholder whose real value is computed by the
// evaluator.
type PropertyValue struct {
	Literal     *TypedValue
	Conditional *RuleSet
	Derived     bool
}

// LiteralValue returns a literal property value.
func LiteralValue(v TypedValue) PropertyValue {
	return PropertyValue{Literal: &v}
}

// ConditionalValue returns a conditional property value.
func ConditionalValue(rs RuleSet) PropertyValue {
	return PropertyValue{Conditional: &rs}
}

// Kind returns the variant held by the property value.
func (v PropertyValue) Kind() PropertyValueKind {
	switch {
	case v.Literal != nil:
		return KindLiteral
	case v.Conditional != nil:
		return KindConditional
	}
	return KindDerived
}

// MarshalJSON implements json.Marshaler.
func (v PropertyValue) MarshalJSON() ([]byte, error) {
	switch {
	case v.Literal != nil:
		return json.Marshal(v.Literal)
	case v.Conditional != nil:
		return json.Marshal(v.Conditional)
	}
	return json.Marshal(map[string]bool{"derived": true})
}

// UnmarshalJSON implements json.Unmarshaler. The variant is detected
// from the keys present in the object.
func (v *PropertyValue) UnmarshalJSON(b []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(b, &probe); err != nil {
		return fmt.Errorf("cannot unmarshal property value: %v", err)
	}
	switch {
	case probe["rules"] != nil || probe["branches"] != nil:
		var rs RuleSet
		if err := json.Unmarshal(b, &rs); err != nil {
			return err
		}
		*v = PropertyValue{Conditional: &rs}
	case probe["derived"] != nil:
		*v = PropertyValue{Derived: true}
	default:
		var tv TypedValue
		if err := json.Unmarshal(b, &tv); err != nil {
			return err
		}
		if _, ok := probe["value"]; !ok {
			return fmt.Errorf("property value has no value field")
		}
		*v = PropertyValue{Literal: &tv}
	}
	return nil
}

// A RuleSet is an ordered list of conditional rules with an optional
// default used when no rule matches.
type RuleSet struct {
	Rules   []Rule      `json:"rules"`
	Default interface{} `json:"default,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. The historical payload
// format spells the rule list "branches", it is accepted and
// normalized to "rules".
func (rs *RuleSet) UnmarshalJSON(b []byte) error {
	var raw struct {
		Rules    []Rule      `json:"rules"`
		Branches []Rule      `json:"branches"`
		Default  interface{} `json:"default"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	rules := raw.Rules
	if rules == nil {
		rules = raw.Branches
	}
	*rs = RuleSet{Rules: rules, Default: raw.Default}
	return nil
}

// A Rule pairs a boolean condition with the value the property takes
// when the condition holds.
type Rule struct {
	When Condition   `json:"when"`
	Then interface{} `json:"then"`
}

// A Condition is a boolean tree over relationship presence. Exactly
// one of the fields is set.
type Condition struct {
	All []Condition
	Any []Condition
	Not *Condition
	Has *HasCondition
}

// A HasCondition is true when the resolved selection of the named
// relationship includes all the listed candidate ids, or is simply
// non-empty if no ids are listed.
type HasCondition struct {
	Rel string   `json:"rel"`
	IDs []string `json:"ids,omitempty"`
}

// HasRel returns a condition testing that the named relationship
// resolves to a non-empty selection.
func HasRel(rel string) Condition {
	return Condition{Has: &HasCondition{Rel: rel}}
}

// AllOf returns the conjunction of the given conditions.
func AllOf(conds ...Condition) Condition {
	return Condition{All: conds}
}

// MarshalJSON implements json.Marshaler.
func (c Condition) MarshalJSON() ([]byte, error) {
	switch {
	case c.All != nil:
		return json.Marshal(map[string][]Condition{"all": c.All})
	case c.Any != nil:
		return json.Marshal(map[string][]Condition{"any": c.Any})
	case c.Not != nil:
		return json.Marshal(map[string]*Condition{"not": c.Not})
	case c.Has != nil:
		return json.Marshal(map[string]*HasCondition{"has": c.Has})
	}
	return nil, fmt.Errorf("empty condition")
}

// UnmarshalJSON implements json.Unmarshaler. Elements of all and any
// lists may be bare relationship names, which are shorthand for a has
// condition on that relationship.
func (c *Condition) UnmarshalJSON(b []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("cannot unmarshal condition: %v", err)
	}
	if raw, ok := obj["all"]; ok {
		conds, err := unmarshalConditionList(raw)
		if err != nil {
			return err
		}
		*c = Condition{All: conds}
		return nil
	}
	if raw, ok := obj["any"]; ok {
		conds, err := unmarshalConditionList(raw)
		if err != nil {
			return err
		}
		*c = Condition{Any: conds}
		return nil
	}
	if raw, ok := obj["not"]; ok {
		var sub Condition
		if err := json.Unmarshal(raw, &sub); err != nil {
			return err
		}
		*c = Condition{Not: &sub}
		return nil
	}
	if raw, ok := obj["has"]; ok {
		var has HasCondition
		if err := json.Unmarshal(raw, &has); err != nil {
			return err
		}
		*c = Condition{Has: &has}
		return nil
	}
	// A bare {"rel": ..., "ids": ...} object is treated as a has
	// condition.
	if obj["rel"] != nil {
		var has HasCondition
		if err := json.Unmarshal(b, &has); err != nil {
			return err
		}
		*c = Condition{Has: &has}
		return nil
	}
	return fmt.Errorf("unknown condition %s", b)
}

func unmarshalConditionList(raw json.RawMessage) ([]Condition, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, err
	}
	conds := make([]Condition, 0, len(elems))
	for _, e := range elems {
		var rel string
		if err := json.Unmarshal(e, &rel); err == nil {
			conds = append(conds, HasRel(rel))
			continue
		}
		var sub Condition
		if err := json.Unmarshal(e, &sub); err != nil {
			return nil, err
		}
		conds = append(conds, sub)
	}
	return conds, nil
}
