// Copyright 2026 Canonical.

package resolve

import (
	"reflect"
	"sort"
	"strings"

	"github.com/condb/condb/internal/model"
)

// ApplyFilter returns the instances that match the filter, sorted and
// truncated according to its sort and limit clauses. Only literal
// property values are visible to predicates; a missing property makes
// the predicate false.
func ApplyFilter(instances []*model.Instance, f *model.Filter) []*model.Instance {
	out := make([]*model.Instance, 0, len(instances))
	for _, inst := range instances {
		if len(f.Types) > 0 && !containsString(f.Types, inst.Class) {
			continue
		}
		if f.Where != nil && !MatchWhere(inst, f.Where) {
			continue
		}
		out = append(out, inst)
	}
	if f.Sort != "" {
		sortInstances(out, f)
	}
	if f.Limit != nil && len(out) > *f.Limit {
		out = out[:*f.Limit]
	}
	return out
}

// MatchWhere evaluates a predicate tree against one instance.
func MatchWhere(inst *model.Instance, w *model.WhereExpr) bool {
	switch {
	case w.All != nil:
		for i := range w.All {
			if !MatchWhere(inst, &w.All[i]) {
				return false
			}
		}
		return true
	case w.Any != nil:
		for i := range w.Any {
			if MatchWhere(inst, &w.Any[i]) {
				return true
			}
		}
		return false
	case w.Not != nil:
		return !MatchWhere(inst, w.Not)
	case w.Eq != nil:
		v, ok := inst.ValueAt(w.Eq.Path)
		return ok && valuesEqual(v, w.Eq.Value)
	case w.Ne != nil:
		v, ok := inst.ValueAt(w.Ne.Path)
		return ok && !valuesEqual(v, w.Ne.Value)
	case w.Gt != nil:
		return compareAt(inst, w.Gt) == 1
	case w.Gte != nil:
		cmp := compareAt(inst, w.Gte)
		return cmp == 1 || cmp == 0
	case w.Lt != nil:
		cmp := compareAt(inst, w.Lt)
		return cmp == -1
	case w.Lte != nil:
		cmp := compareAt(inst, w.Lte)
		return cmp == -1 || cmp == 0
	case w.In != nil:
		v, ok := inst.ValueAt(w.In.Path)
		if !ok {
			return false
		}
		for _, want := range w.In.Values {
			if valuesEqual(v, want) {
				return true
			}
		}
		return false
	case w.NotIn != nil:
		v, ok := inst.ValueAt(w.NotIn.Path)
		if !ok {
			return false
		}
		for _, want := range w.NotIn.Values {
			if valuesEqual(v, want) {
				return false
			}
		}
		return true
	case w.Contains != nil:
		v, ok := inst.ValueAt(w.Contains.Path)
		if !ok {
			return false
		}
		s, ok := v.(string)
		return ok && strings.Contains(s, w.Contains.Substring)
	case w.Exists != nil:
		_, ok := inst.ValueAt(*w.Exists)
		return ok
	case w.NotExists != nil:
		_, ok := inst.ValueAt(*w.NotExists)
		return !ok
	}
	return false
}

// compareAt orders the instance's value at the predicate path against
// the predicate constant. Numbers compare in double precision, strings
// by codepoint. The sentinel 2 means incomparable, which makes every
// ordering predicate false.
func compareAt(inst *model.Instance, cmp *model.Comparison) int {
	v, ok := inst.ValueAt(cmp.Path)
	if !ok {
		return 2
	}
	return compareValues(v, cmp.Value)
}

func compareValues(a, b interface{}) int {
	an, aok := asNumber(a)
	bn, bok := asNumber(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs)
	}
	return 2
}

func valuesEqual(a, b interface{}) bool {
	if an, ok := asNumber(a); ok {
		bn, ok := asNumber(b)
		return ok && an == bn
	}
	return reflect.DeepEqual(a, b)
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func containsString(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

// sortInstances stably orders instances by the filter's sort property.
// Instances without a value for the property sort first in ascending
// order and last in descending order.
func sortInstances(instances []*model.Instance, f *model.Filter) {
	prop, descending := f.SortProperty()
	path := model.PropPath("$." + prop)
	sort.SliceStable(instances, func(i, j int) bool {
		av, aok := instances[i].ValueAt(path)
		bv, bok := instances[j].ValueAt(path)
		var less bool
		switch {
		case !aok && !bok:
			return false
		case !aok:
			less = true
		case !bok:
			less = false
		default:
			cmp := compareValues(av, bv)
			if cmp == 2 || cmp == 0 {
				return false
			}
			less = cmp == -1
		}
		if descending {
			return !less
		}
		return less
	})
}
