// Copyright 2026 Canonical.

package eval

import (
	"fmt"

	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/model"
)

// expr walks a derived expression tree bottom-up, returning the
// computed value.
func (e *Evaluator) expr(inst *model.Instance, x model.Expr) (interface{}, error) {
	switch x.Type {
	case model.ExprLiteral:
		return x.Value, nil
	case model.ExprProp:
		return e.Property(inst, x.Prop)
	case model.ExprAdd, model.ExprSub, model.ExprMul, model.ExprDiv:
		return e.arithmetic(inst, x)
	case model.ExprSum, model.ExprCount, model.ExprMax, model.ExprMin:
		return e.aggregate(inst, x)
	}
	return nil, errors.E(errors.CodeBadRequest, fmt.Sprintf("unknown expression type %q", x.Type))
}

func (e *Evaluator) arithmetic(inst *model.Instance, x model.Expr) (interface{}, error) {
	if x.Left == nil || x.Right == nil {
		return nil, errors.E(errors.CodeBadRequest, fmt.Sprintf("%s expression needs two operands", x.Type))
	}
	lv, err := e.expr(inst, *x.Left)
	if err != nil {
		return nil, err
	}
	rv, err := e.expr(inst, *x.Right)
	if err != nil {
		return nil, err
	}
	l, ok := toNumber(lv)
	if !ok {
		return nil, errors.E(errors.CodeTypeMismatch, fmt.Sprintf("cannot %s non-numeric value %v", x.Type, lv))
	}
	r, ok := toNumber(rv)
	if !ok {
		return nil, errors.E(errors.CodeTypeMismatch, fmt.Sprintf("cannot %s non-numeric value %v", x.Type, rv))
	}
	switch x.Type {
	case model.ExprAdd:
		return l + r, nil
	case model.ExprSub:
		return l - r, nil
	case model.ExprMul:
		return l * r, nil
	}
	if r == 0 {
		return nil, errors.E(errors.CodeTypeMismatch, "division by zero")
	}
	return l / r, nil
}

// aggregate evaluates sum, count, max and min nodes over the resolved
// selection of the named relationship. Targets that are missing from
// the view contribute nothing.
func (e *Evaluator) aggregate(inst *model.Instance, x model.Expr) (interface{}, error) {
	class, err := e.classOf(inst)
	if err != nil {
		return nil, err
	}
	if class.Relationship(x.Over) == nil {
		return nil, errors.E(errors.CodeUndefinedRelationship, fmt.Sprintf("relationship %q not defined on class %q", x.Over, class.Name))
	}
	ids, err := e.resolver.ResolvedSelection(inst, x.Over)
	if err != nil {
		return nil, err
	}
	if x.Type == model.ExprCount {
		return float64(len(ids)), nil
	}

	var acc float64
	n := 0
	for _, id := range ids {
		target := e.resolver.Instance(id)
		if target == nil {
			continue
		}
		v, err := e.Property(target, x.Prop)
		if err != nil {
			if errors.ErrorCode(err) == errors.CodeUndefinedProperty {
				continue
			}
			return nil, err
		}
		f, ok := toNumber(v)
		if !ok {
			return nil, errors.E(errors.CodeTypeMismatch, fmt.Sprintf("cannot aggregate non-numeric value %v of property %q on %q", v, x.Prop, id))
		}
		switch {
		case n == 0:
			acc = f
		case x.Type == model.ExprSum:
			acc += f
		case x.Type == model.ExprMax && f > acc:
			acc = f
		case x.Type == model.ExprMin && f < acc:
			acc = f
		}
		n++
	}
	if n == 0 {
		if x.Type == model.ExprSum {
			return 0.0, nil
		}
		return nil, nil
	}
	return acc, nil
}
