// Copyright 2026 Canonical.

// Package validate checks a view of a commit or working commit for
// schema and data consistency. The validator is pure: it collects
// problems over the view and never mutates state.
package validate

import (
	"fmt"

	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/model"
	"github.com/condb/condb/internal/resolve"
)

// A Problem is one validation finding, attached to the entity it was
// found on.
type Problem struct {
	Code     errors.Code `json:"code"`
	Message  string      `json:"message"`
	Class    string      `json:"class,omitempty"`
	Instance string      `json:"instance,omitempty"`
	Property string      `json:"property,omitempty"`
}

// A Result aggregates the findings of one validation pass.
type Result struct {
	Valid    bool      `json:"valid"`
	Errors   []Problem `json:"errors"`
	Warnings []Problem `json:"warnings"`
}

func (r *Result) errorf(p Problem, format string, args ...interface{}) {
	p.Message = fmt.Sprintf(format, args...)
	r.Errors = append(r.Errors, p)
}

func (r *Result) warnf(p Problem, format string, args ...interface{}) {
	p.Message = fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, p)
}

// View validates a whole view: the schema first, then every instance
// against it.
func View(v *resolve.View) Result {
	r := Result{}
	schema := v.Schema()
	for i := range schema.Classes {
		validateClass(&r, schema, &schema.Classes[i])
	}
	instances := v.Instances()
	for i := range instances {
		validateInstance(&r, v, &instances[i])
	}
	r.Valid = len(r.Errors) == 0
	if r.Errors == nil {
		r.Errors = []Problem{}
	}
	if r.Warnings == nil {
		r.Warnings = []Problem{}
	}
	return r
}

// Instance validates a single instance against the view's schema,
// skipping the schema-wide checks.
func Instance(v *resolve.View, inst *model.Instance) Result {
	r := Result{}
	validateInstance(&r, v, inst)
	r.Valid = len(r.Errors) == 0
	if r.Errors == nil {
		r.Errors = []Problem{}
	}
	if r.Warnings == nil {
		r.Warnings = []Problem{}
	}
	return r
}

// validateClass checks the internal consistency of one class
// definition: relationship targets name existing classes, derived
// expressions aggregate only over the class's own relationships, and
// the derived definitions form no reference cycle.
func validateClass(r *Result, schema *model.Schema, class *model.ClassDef) {
	at := Problem{Class: class.Name}
	for i := range class.Relationships {
		rel := &class.Relationships[i]
		for _, target := range rel.Targets {
			if schema.Class(target) == nil && schema.ClassByID(target) == nil {
				r.errorf(Problem{Code: errors.CodeClassNotFound, Class: class.Name, Property: rel.Name},
					"relationship %q targets unknown class %q", rel.Name, target)
			}
		}
	}
	for i := range class.Derived {
		def := &class.Derived[i]
		validateExpr(r, class, def, def.Expr)
	}
	if chain := derivedCycle(class); chain != nil {
		at.Code = errors.CodeDerivedCycle
		r.errorf(at, "derived definitions form a cycle: %s", joinChain(chain))
	}
}

func validateExpr(r *Result, class *model.ClassDef, def *model.DerivedDef, x model.Expr) {
	switch x.Type {
	case model.ExprSum, model.ExprCount, model.ExprMax, model.ExprMin:
		if class.Relationship(x.Over) == nil {
			r.errorf(Problem{Code: errors.CodeUndefinedRelationship, Class: class.Name, Property: def.Name},
				"derived %q aggregates over unknown relationship %q", def.Name, x.Over)
		}
	case model.ExprAdd, model.ExprSub, model.ExprMul, model.ExprDiv:
		if x.Left != nil {
			validateExpr(r, class, def, *x.Left)
		}
		if x.Right != nil {
			validateExpr(r, class, def, *x.Right)
		}
	}
}

// derivedCycle returns a reference cycle among the class's derived
// definitions, or nil. Derived definitions reference each other
// through prop nodes naming another derived field.
func derivedCycle(class *model.ClassDef) []string {
	deps := make(map[string][]string, len(class.Derived))
	for i := range class.Derived {
		def := &class.Derived[i]
		deps[def.Name] = exprPropRefs(def.Expr, nil)
	}
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(deps))
	var stack []string
	var walk func(name string) []string
	walk = func(name string) []string {
		if _, ok := deps[name]; !ok {
			return nil
		}
		switch state[name] {
		case visiting:
			return append(append([]string{}, stack...), name)
		case done:
			return nil
		}
		state[name] = visiting
		stack = append(stack, name)
		for _, ref := range deps[name] {
			if chain := walk(ref); chain != nil {
				return chain
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}
	for i := range class.Derived {
		if chain := walk(class.Derived[i].Name); chain != nil {
			return chain
		}
	}
	return nil
}

func exprPropRefs(x model.Expr, refs []string) []string {
	switch x.Type {
	case model.ExprProp:
		refs = append(refs, x.Prop)
	case model.ExprAdd, model.ExprSub, model.ExprMul, model.ExprDiv:
		if x.Left != nil {
			refs = exprPropRefs(*x.Left, refs)
		}
		if x.Right != nil {
			refs = exprPropRefs(*x.Right, refs)
		}
	}
	return refs
}

func joinChain(chain []string) string {
	out := ""
	for i, name := range chain {
		if i > 0 {
			out += " -> "
		}
		out += name
	}
	return out
}
