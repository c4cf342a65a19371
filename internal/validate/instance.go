// Copyright 2026 Canonical.

package validate

import (
	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/model"
	"github.com/condb/condb/internal/resolve"
)

// validateInstance checks one instance against its class definition:
// property types and presence, relationship selections and their
// quantifiers, conditional rule references, and domain consistency.
func validateInstance(r *Result, v *resolve.View, inst *model.Instance) {
	schema := v.Schema()
	class := schema.Class(inst.Class)
	if class == nil {
		class = schema.ClassByID(inst.Class)
	}
	if class == nil {
		r.errorf(Problem{Code: errors.CodeClassNotFound, Instance: inst.ID},
			"instance %q has unknown class %q", inst.ID, inst.Class)
		return
	}
	validateProperties(r, class, inst)
	validateRelationships(r, v, class, inst)
	validateDomain(r, class, inst)
}

func validateProperties(r *Result, class *model.ClassDef, inst *model.Instance) {
	for name, pv := range inst.Properties {
		def := class.Property(name)
		if def == nil {
			r.errorf(Problem{Code: errors.CodeUndefinedProperty, Instance: inst.ID, Property: name},
				"property %q is not defined on class %q", name, class.Name)
			continue
		}
		switch pv.Kind() {
		case model.KindLiteral:
			if pv.Literal.DataType != "" && pv.Literal.DataType != def.DataType {
				r.errorf(Problem{Code: errors.CodeValueTypeInconsistency, Instance: inst.ID, Property: name},
					"property %q declares type %q but class %q declares %q", name, pv.Literal.DataType, class.Name, def.DataType)
			}
			if !def.DataType.Matches(pv.Literal.Value) {
				r.errorf(Problem{Code: errors.CodeTypeMismatch, Instance: inst.ID, Property: name},
					"property %q value does not match declared type %q", name, def.DataType)
			}
		case model.KindConditional:
			r.warnf(Problem{Code: errors.CodeConditionalPropertySkipped, Instance: inst.ID, Property: name},
				"conditional property %q is not type checked until evaluation", name)
			for i := range pv.Conditional.Rules {
				validateCondition(r, class, inst, name, pv.Conditional.Rules[i].When)
			}
		}
	}
	for i := range class.Properties {
		def := &class.Properties[i]
		if !def.Required {
			continue
		}
		if _, ok := inst.Properties[def.Name]; ok {
			continue
		}
		if def.Default != nil || class.DerivedByName(def.Name) != nil {
			continue
		}
		r.errorf(Problem{Code: errors.CodeMissingRequiredProperty, Instance: inst.ID, Property: def.Name},
			"required property %q is missing on instance %q", def.Name, inst.ID)
	}
}

// validateCondition walks a conditional rule's boolean tree and checks
// that every has clause names a relationship defined on the class.
func validateCondition(r *Result, class *model.ClassDef, inst *model.Instance, prop string, cond model.Condition) {
	switch {
	case cond.All != nil:
		for i := range cond.All {
			validateCondition(r, class, inst, prop, cond.All[i])
		}
	case cond.Any != nil:
		for i := range cond.Any {
			validateCondition(r, class, inst, prop, cond.Any[i])
		}
	case cond.Not != nil:
		validateCondition(r, class, inst, prop, *cond.Not)
	case cond.Has != nil:
		if class.Relationship(cond.Has.Rel) == nil {
			r.errorf(Problem{Code: errors.CodeUndefinedRelationship, Instance: inst.ID, Property: prop},
				"conditional property %q references unknown relationship %q", prop, cond.Has.Rel)
		}
	}
}

func validateRelationships(r *Result, v *resolve.View, class *model.ClassDef, inst *model.Instance) {
	for name := range inst.Relationships {
		if class.Relationship(name) == nil {
			r.errorf(Problem{Code: errors.CodeUndefinedRelationship, Instance: inst.ID, Property: name},
				"relationship %q is not defined on class %q", name, class.Name)
		}
	}
	for i := range class.Relationships {
		rel := &class.Relationships[i]
		sel, err := v.Relationship(inst, rel.Name)
		if err != nil {
			r.errorf(Problem{Code: errors.ErrorCode(err), Instance: inst.ID, Property: rel.Name},
				"relationship %q: %s", rel.Name, err)
			continue
		}
		validateCandidates(r, v, rel, inst, sel)
		if !sel.Resolved {
			r.warnf(Problem{Code: errors.CodeQuantifierUnchecked, Instance: inst.ID, Property: rel.Name},
				"relationship %q is unresolved so its quantifier is not checked", rel.Name)
			continue
		}
		if rel.Quantifier.Kind == model.QuantifierAny {
			r.warnf(Problem{Code: errors.CodeQuantifierUnchecked, Instance: inst.ID, Property: rel.Name},
				"relationship %q has quantifier any so its quantifier is not checked", rel.Name)
			continue
		}
		if !rel.Quantifier.Satisfies(len(sel.IDs)) {
			r.errorf(Problem{Code: errors.CodeQuantifierViolation, Instance: inst.ID, Property: rel.Name},
				"relationship %q resolves to %d instances, want %s", rel.Name, len(sel.IDs), rel.Quantifier)
		}
	}
}

// validateCandidates checks that every id a selection or its pool names
// exists in the view and belongs to one of the relationship's target
// classes.
func validateCandidates(r *Result, v *resolve.View, rel *model.RelationshipDef, inst *model.Instance, sel resolve.Selection) {
	seen := make(map[string]bool, len(sel.IDs)+len(sel.Pool))
	check := func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		target := v.Instance(id)
		if target == nil {
			r.errorf(Problem{Code: errors.CodeRelationshipError, Instance: inst.ID, Property: rel.Name},
				"relationship %q references unknown instance %q", rel.Name, id)
			return
		}
		if len(rel.Targets) > 0 && !targetsClass(rel.Targets, target.Class) {
			r.errorf(Problem{Code: errors.CodeRelationshipError, Instance: inst.ID, Property: rel.Name},
				"relationship %q selects instance %q of class %q, want one of %v", rel.Name, id, target.Class, rel.Targets)
		}
	}
	for _, id := range sel.IDs {
		check(id)
	}
	for _, id := range sel.Pool {
		check(id)
	}
}

func targetsClass(targets []string, class string) bool {
	for _, t := range targets {
		if t == class {
			return true
		}
	}
	return false
}

func validateDomain(r *Result, class *model.ClassDef, inst *model.Instance) {
	if inst.Domain == nil || class.DomainConstraint == nil {
		return
	}
	if _, ok := inst.Domain.Intersect(*class.DomainConstraint); !ok {
		r.errorf(Problem{Code: errors.CodeDomainConflict, Instance: inst.ID},
			"instance domain %s does not intersect class %q domain %s", inst.Domain, class.Name, class.DomainConstraint)
	}
}
