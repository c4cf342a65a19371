// Copyright 2026 Canonical.

// Package merge implements the three way merge primitive used by the
// branch merge and rebase operations. The merge works on commit
// payloads: each class and instance is classified against the common
// ancestor on both sides and the two classifications are combined
// entity by entity. Payloads passed in are treated as immutable.
package merge

import (
	"fmt"

	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/model"
)

// A Change classifies how one side of a merge altered an entity
// relative to the common ancestor.
type Change string

const (
	ChangeNone     Change = "none"
	ChangeAdded    Change = "added"
	ChangeModified Change = "modified"
	ChangeRemoved  Change = "removed"
)

// A Resource names the kind of entity a conflict was found on.
type Resource string

const (
	ResourceClass    Resource = "class"
	ResourceInstance Resource = "instance"
)

// A Kind classifies a merge conflict.
type Kind string

const (
	KindAddAdd       Kind = "add_add"
	KindDeleteModify Kind = "delete_modify"
	KindModifyModify Kind = "modify_modify"
)

// A Conflict is one entity that both sides of a merge changed in
// incompatible ways.
type Conflict struct {
	Kind        Kind     `json:"conflict_type"`
	Resource    Resource `json:"resource_type"`
	ID          string   `json:"resource_id"`
	Source      Change   `json:"source_change"`
	Target      Change   `json:"target_change"`
	Description string   `json:"description"`
}

// A Result holds the outcome of a three way merge. Payload is the
// merged state; when Conflicts is non-empty it reflects the forced
// resolution, which keeps the incoming source side for concurrent
// modifications and keeps the surviving entity when a removal races a
// modification.
type Result struct {
	Payload   model.Payload
	Conflicts []Conflict
}

// Clean reports whether the merge completed without conflicts.
func (r *Result) Clean() bool {
	return len(r.Conflicts) == 0
}

// ThreeWay merges the source and target payloads over their common
// ancestor. Schema metadata is taken from the target side; classes and
// instances are merged entity by entity.
func ThreeWay(base, source, target *model.Payload) Result {
	var res Result
	schema := target.Schema
	schema.Classes = mergeEntities(&res, ResourceClass,
		func(c model.ClassDef) string { return c.ID },
		model.ClassDef.ContentEqual,
		base.Schema.Classes, source.Schema.Classes, target.Schema.Classes)
	instances := mergeEntities(&res, ResourceInstance,
		func(i model.Instance) string { return i.ID },
		model.Instance.ContentEqual,
		base.Instances, source.Instances, target.Instances)
	res.Payload = model.Payload{Schema: schema, Instances: instances}
	return res
}

// mergeEntities merges one entity list. Entities surviving from the
// ancestor keep the ancestor's order; source additions follow in
// source order, then target additions in target order.
func mergeEntities[T any](res *Result, resource Resource, id func(T) string, equal func(T, T) bool, base, source, target []T) []T {
	baseBy := indexByID(base, id)
	sourceBy := indexByID(source, id)
	targetBy := indexByID(target, id)

	out := make([]T, 0, len(target)+len(source))
	for i := range base {
		b := &base[i]
		s := sourceBy[id(*b)]
		t := targetBy[id(*b)]
		sc := classify(*b, s, equal)
		tc := classify(*b, t, equal)
		switch {
		case sc == ChangeNone && tc == ChangeNone:
			out = append(out, *b)
		case sc == ChangeNone:
			if tc != ChangeRemoved {
				out = append(out, *t)
			}
		case tc == ChangeNone:
			if sc != ChangeRemoved {
				out = append(out, *s)
			}
		case sc == ChangeRemoved && tc == ChangeRemoved:
		case sc == ChangeRemoved:
			res.conflict(KindDeleteModify, resource, id(*b), sc, tc)
			out = append(out, *t)
		case tc == ChangeRemoved:
			res.conflict(KindDeleteModify, resource, id(*b), sc, tc)
			out = append(out, *s)
		case equal(*s, *t):
			out = append(out, *s)
		default:
			res.conflict(KindModifyModify, resource, id(*b), sc, tc)
			out = append(out, *s)
		}
	}
	for i := range source {
		s := &source[i]
		if _, ok := baseBy[id(*s)]; ok {
			continue
		}
		if t, ok := targetBy[id(*s)]; ok {
			if !equal(*s, *t) {
				res.conflict(KindAddAdd, resource, id(*s), ChangeAdded, ChangeAdded)
			}
			out = append(out, *s)
			continue
		}
		out = append(out, *s)
	}
	for i := range target {
		t := &target[i]
		if _, ok := baseBy[id(*t)]; ok {
			continue
		}
		if _, ok := sourceBy[id(*t)]; ok {
			continue
		}
		out = append(out, *t)
	}
	return out
}

func classify[T any](base T, side *T, equal func(T, T) bool) Change {
	if side == nil {
		return ChangeRemoved
	}
	if !equal(base, *side) {
		return ChangeModified
	}
	return ChangeNone
}

func indexByID[T any](entities []T, id func(T) string) map[string]*T {
	m := make(map[string]*T, len(entities))
	for i := range entities {
		m[id(entities[i])] = &entities[i]
	}
	return m
}

func (r *Result) conflict(kind Kind, resource Resource, id string, source, target Change) {
	r.Conflicts = append(r.Conflicts, Conflict{
		Kind:        kind,
		Resource:    resource,
		ID:          id,
		Source:      source,
		Target:      target,
		Description: fmt.Sprintf("%s conflict on %s %q", kind, resource, id),
	})
}

// AffectedInstances returns the ids of instances that either side
// changed relative to the ancestor, in ancestor order with additions
// appended.
func AffectedInstances(base, source, target *model.Payload) []string {
	id := func(i model.Instance) string { return i.ID }
	baseBy := indexByID(base.Instances, id)
	sourceBy := indexByID(source.Instances, id)
	targetBy := indexByID(target.Instances, id)

	var out []string
	for i := range base.Instances {
		b := &base.Instances[i]
		sc := classify(*b, sourceBy[b.ID], model.Instance.ContentEqual)
		tc := classify(*b, targetBy[b.ID], model.Instance.ContentEqual)
		if sc != ChangeNone || tc != ChangeNone {
			out = append(out, b.ID)
		}
	}
	seen := make(map[string]bool, len(out))
	for _, id := range out {
		seen[id] = true
	}
	for i := range source.Instances {
		inst := &source.Instances[i]
		if _, ok := baseBy[inst.ID]; !ok && !seen[inst.ID] {
			seen[inst.ID] = true
			out = append(out, inst.ID)
		}
	}
	for i := range target.Instances {
		inst := &target.Instances[i]
		if _, ok := baseBy[inst.ID]; !ok && !seen[inst.ID] {
			seen[inst.ID] = true
			out = append(out, inst.ID)
		}
	}
	return out
}

// A ParentFunc returns the parent hash of the given commit, or the
// empty string for a root commit.
type ParentFunc func(hash string) (string, error)

// CommonAncestor walks the parent chains of both commits and returns
// the nearest commit reachable from both.
func CommonAncestor(parent ParentFunc, left, right string) (string, error) {
	const op = errors.Op("merge.CommonAncestor")

	seen := make(map[string]bool)
	for h := left; h != ""; {
		if seen[h] {
			break
		}
		seen[h] = true
		p, err := parent(h)
		if err != nil {
			return "", errors.E(op, err)
		}
		h = p
	}
	visited := make(map[string]bool)
	for h := right; h != ""; {
		if seen[h] {
			return h, nil
		}
		if visited[h] {
			break
		}
		visited[h] = true
		p, err := parent(h)
		if err != nil {
			return "", errors.E(op, err)
		}
		h = p
	}
	return "", errors.E(op, errors.CodeNoCommonAncestor, fmt.Sprintf("commits %q and %q share no ancestor", left, right))
}
