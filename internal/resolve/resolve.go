// Copyright 2026 Canonical.

package resolve

import (
	"fmt"

	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/model"
)

// A Selection is the outcome of resolving one relationship on one
// instance. When Resolved is false the final choice is left to the
// solver or the user and Pool carries the candidates to choose from.
type Selection struct {
	IDs      []string
	Pool     []string
	Resolved bool
}

// Relationship resolves the named relationship on the instance. The
// instance's override, when present, is layered over the schema's
// default pool; explicit ids bypass the pool entirely.
func (v *View) Relationship(inst *model.Instance, name string) (Selection, error) {
	const op = errors.Op("resolve.Relationship")

	class, err := v.class(inst)
	if err != nil {
		return Selection{}, errors.E(op, err)
	}
	rel := class.Relationship(name)
	if rel == nil {
		return Selection{}, errors.E(op, errors.CodeUndefinedRelationship, fmt.Sprintf("relationship %q not defined on class %q", name, class.Name))
	}

	override, ok := inst.Relationships[name]
	if !ok {
		return v.defaultSelection(rel)
	}
	switch override.Kind {
	case model.SelectionKindIDs:
		ids := override.IDs
		if ids == nil {
			ids = []string{}
		}
		return Selection{IDs: ids, Pool: ids, Resolved: true}, nil
	case model.SelectionKindAll:
		pool, err := v.effectivePool(rel, nil)
		if err != nil {
			return Selection{}, errors.E(op, err)
		}
		return Selection{IDs: pool, Pool: pool, Resolved: true}, nil
	case model.SelectionKindFilter:
		f := withDefaultTypes(override.Filter, rel.Targets)
		ids := instanceIDs(ApplyFilter(v.OfClasses(f.Types), f))
		return Selection{IDs: ids, Pool: ids, Resolved: true}, nil
	case model.SelectionKindPool:
		pool, err := v.effectivePool(rel, override.Pool)
		if err != nil {
			return Selection{}, errors.E(op, err)
		}
		return v.narrow(rel, pool, override.Selection)
	}
	return Selection{}, errors.E(op, errors.CodeBadRequest, fmt.Sprintf("unknown selection kind %q", override.Kind))
}

// defaultSelection resolves a relationship for which the instance
// carries no override.
func (v *View) defaultSelection(rel *model.RelationshipDef) (Selection, error) {
	if rel.DefaultPool.Mode == model.PoolNone || rel.DefaultPool.Mode == "" {
		return Selection{IDs: []string{}, Resolved: true}, nil
	}
	pool, err := v.effectivePool(rel, nil)
	if err != nil {
		return Selection{}, err
	}
	return v.narrow(rel, pool, nil)
}

// narrow applies a selection spec to an effective pool.
func (v *View) narrow(rel *model.RelationshipDef, pool []string, spec *model.SelectionSpec) (Selection, error) {
	if spec == nil {
		spec = &model.SelectionSpec{Kind: model.SelectionKindUnresolved}
	}
	switch spec.Kind {
	case model.SelectionKindIDs:
		inPool := make(map[string]bool, len(pool))
		for _, id := range pool {
			inPool[id] = true
		}
		for _, id := range spec.IDs {
			if !inPool[id] {
				return Selection{}, errors.E(errors.CodeMissingCandidate, fmt.Sprintf("selected instance %q is not in the pool of relationship %q", id, rel.Name))
			}
		}
		return Selection{IDs: spec.IDs, Pool: pool, Resolved: true}, nil
	case model.SelectionKindFilter:
		members := make([]*model.Instance, 0, len(pool))
		for _, id := range pool {
			if inst := v.Instance(id); inst != nil {
				members = append(members, inst)
			}
		}
		ids := instanceIDs(ApplyFilter(members, spec.Filter))
		return Selection{IDs: ids, Pool: pool, Resolved: true}, nil
	case model.SelectionKindAll:
		return Selection{IDs: pool, Pool: pool, Resolved: true}, nil
	case model.SelectionKindUnresolved:
		if rel.Selection == model.SelectionAll {
			return Selection{IDs: pool, Pool: pool, Resolved: true}, nil
		}
		return Selection{Pool: pool, Resolved: false}, nil
	}
	return Selection{}, errors.E(errors.CodeBadRequest, fmt.Sprintf("unknown selection spec kind %q", spec.Kind))
}

// effectivePool computes the candidate pool for a relationship. An
// instance-level override replaces the default pool's predicate while
// inheriting its target classes when it names none.
func (v *View) effectivePool(rel *model.RelationshipDef, override *model.Filter) ([]string, error) {
	var f *model.Filter
	if override != nil {
		f = withDefaultTypes(override, rel.Targets)
	} else {
		switch rel.DefaultPool.Mode {
		case model.PoolNone, "":
			return []string{}, nil
		case model.PoolAll:
			f = &model.Filter{Types: rel.Targets}
		case model.PoolFilter:
			base := rel.DefaultPool.Filter
			if base == nil {
				base = &model.Filter{}
			}
			f = withDefaultTypes(base, rel.DefaultPool.Types)
			f = withDefaultTypes(f, rel.Targets)
		default:
			return nil, errors.E(errors.CodeBadRequest, fmt.Sprintf("unknown pool mode %q", rel.DefaultPool.Mode))
		}
	}
	return instanceIDs(ApplyFilter(v.OfClasses(f.Types), f)), nil
}

func withDefaultTypes(f *model.Filter, types []string) *model.Filter {
	if len(f.Types) > 0 || len(types) == 0 {
		return f
	}
	cp := *f
	cp.Types = types
	return &cp
}

func instanceIDs(instances []*model.Instance) []string {
	ids := make([]string, len(instances))
	for i, inst := range instances {
		ids[i] = inst.ID
	}
	return ids
}
