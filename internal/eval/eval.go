// Copyright 2026 Canonical.

// Package eval computes conditional property values and derived fields
// over a resolved view of a commit. The evaluator is pure: it performs
// no storage access and consults a Resolver for the materialized
// selection of each relationship it encounters.
package eval

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/model"
)

// A Resolver supplies the materialized selections that condition and
// aggregate evaluation depend on.
type Resolver interface {
	// ResolvedSelection returns the resolved candidate ids for the
	// named relationship on the given instance.
	ResolvedSelection(inst *model.Instance, rel string) ([]string, error)

	// Instance returns the instance with the given id, or nil.
	Instance(id string) *model.Instance
}

// An Evaluator computes property and derived values for instances of
// one schema. It is not safe for concurrent use; each evaluation pass
// should create its own.
type Evaluator struct {
	schema   *model.Schema
	resolver Resolver

	// visiting tracks in-progress derived evaluations so that cycles
	// across instances and derived definitions are detected.
	visiting map[visitKey]bool
	chain    []string
}

type visitKey struct {
	instanceID string
	derived    string
}

// New returns an evaluator over the given schema and resolver.
func New(schema *model.Schema, resolver Resolver) *Evaluator {
	return &Evaluator{
		schema:   schema,
		resolver: resolver,
		visiting: make(map[visitKey]bool),
	}
}

func (e *Evaluator) classOf(inst *model.Instance) (*model.ClassDef, error) {
	if c := e.schema.Class(inst.Class); c != nil {
		return c, nil
	}
	if c := e.schema.ClassByID(inst.Class); c != nil {
		return c, nil
	}
	return nil, errors.E(errors.CodeClassNotFound, fmt.Sprintf("class %q not found", inst.Class))
}

// Property returns the effective value of the named property on the
// instance. Literal values are returned as-is, conditional values are
// evaluated against the instance's resolved selections, and derived
// placeholders are computed from their class definition. A property
// that is absent from the instance falls back to the class default, or
// to a derived definition of the same name.
func (e *Evaluator) Property(inst *model.Instance, name string) (interface{}, error) {
	const op = errors.Op("eval.Property")

	if pv, ok := inst.Properties[name]; ok {
		switch pv.Kind() {
		case model.KindLiteral:
			return pv.Literal.Value, nil
		case model.KindConditional:
			return e.Conditional(inst, pv.Conditional)
		}
		return e.derivedByName(inst, name)
	}
	class, err := e.classOf(inst)
	if err != nil {
		return nil, errors.E(op, err)
	}
	if def := class.DerivedByName(name); def != nil {
		return e.Derived(inst, def)
	}
	if def := class.Property(name); def != nil && def.Default != nil {
		return def.Default, nil
	}
	return nil, errors.E(op, errors.CodeUndefinedProperty, fmt.Sprintf("property %q not found on instance %q", name, inst.ID))
}

func (e *Evaluator) derivedByName(inst *model.Instance, name string) (interface{}, error) {
	class, err := e.classOf(inst)
	if err != nil {
		return nil, err
	}
	def := class.DerivedByName(name)
	if def == nil {
		return nil, errors.E(errors.CodeUndefinedProperty, fmt.Sprintf("no derived definition %q on class %q", name, class.Name))
	}
	return e.Derived(inst, def)
}

// Conditional evaluates a rule set on the instance: the first rule
// whose condition holds supplies the value, otherwise the default is
// returned.
func (e *Evaluator) Conditional(inst *model.Instance, rs *model.RuleSet) (interface{}, error) {
	for _, rule := range rs.Rules {
		ok, err := e.Condition(inst, rule.When)
		if err != nil {
			return nil, err
		}
		if ok {
			return rule.Then, nil
		}
	}
	return rs.Default, nil
}

// Condition evaluates a boolean condition tree on the instance.
func (e *Evaluator) Condition(inst *model.Instance, cond model.Condition) (bool, error) {
	switch {
	case cond.All != nil:
		for _, sub := range cond.All {
			ok, err := e.Condition(inst, sub)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case cond.Any != nil:
		for _, sub := range cond.Any {
			ok, err := e.Condition(inst, sub)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case cond.Not != nil:
		ok, err := e.Condition(inst, *cond.Not)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case cond.Has != nil:
		return e.has(inst, cond.Has)
	}
	return false, errors.E(errors.CodeBadRequest, "empty condition")
}

// has reports whether the resolved selection of the named relationship
// includes all the listed ids, or is simply non-empty when no ids are
// listed.
func (e *Evaluator) has(inst *model.Instance, h *model.HasCondition) (bool, error) {
	class, err := e.classOf(inst)
	if err != nil {
		return false, err
	}
	if class.Relationship(h.Rel) == nil {
		return false, errors.E(errors.CodeUndefinedRelationship, fmt.Sprintf("relationship %q not defined on class %q", h.Rel, class.Name))
	}
	ids, err := e.resolver.ResolvedSelection(inst, h.Rel)
	if err != nil {
		return false, err
	}
	if len(h.IDs) == 0 {
		return len(ids) > 0, nil
	}
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}
	for _, want := range h.IDs {
		if !selected[want] {
			return false, nil
		}
	}
	return true, nil
}

// Derived computes the value of a derived definition on the instance.
// A cycle through derived definitions fails the whole evaluation.
func (e *Evaluator) Derived(inst *model.Instance, def *model.DerivedDef) (interface{}, error) {
	const op = errors.Op("eval.Derived")

	key := visitKey{instanceID: inst.ID, derived: def.Name}
	if e.visiting[key] {
		chain := append(append([]string{}, e.chain...), def.Name)
		return nil, errors.E(op, errors.CodeDerivedCycle, fmt.Sprintf("derived cycle: %s", strings.Join(chain, " -> ")))
	}
	e.visiting[key] = true
	e.chain = append(e.chain, def.Name)
	defer func() {
		delete(e.visiting, key)
		e.chain = e.chain[:len(e.chain)-1]
	}()

	v, err := e.expr(inst, def.Expr)
	if err != nil {
		return nil, errors.E(op, err)
	}
	return v, nil
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
