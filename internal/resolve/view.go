// Copyright 2026 Canonical.

// Package resolve materializes relationship selections. Given a view
// of a commit or working commit it computes, for each instance and
// relationship, the candidate pool and the selected ids, layering
// instance-level overrides over the schema's default pools.
package resolve

import (
	"fmt"

	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/model"
)

// A View is the set of instances visible to one resolution pass,
// together with the schema they belong to. Views are read-only; a
// working commit and a committed snapshot are both presented the same
// way.
type View struct {
	schema    *model.Schema
	instances []model.Instance
	byID      map[string]*model.Instance
	byClass   map[string][]*model.Instance
}

// NewView returns a view over the given schema and instances.
func NewView(schema *model.Schema, instances []model.Instance) *View {
	v := &View{
		schema:    schema,
		instances: instances,
		byID:      make(map[string]*model.Instance, len(instances)),
		byClass:   make(map[string][]*model.Instance),
	}
	for i := range instances {
		inst := &instances[i]
		v.byID[inst.ID] = inst
		v.byClass[inst.Class] = append(v.byClass[inst.Class], inst)
	}
	return v
}

// NewPayloadView returns a view over a payload's schema and instances.
func NewPayloadView(p *model.Payload) *View {
	return NewView(&p.Schema, p.Instances)
}

// Schema returns the schema the view was built over.
func (v *View) Schema() *model.Schema {
	return v.schema
}

// Instance returns the instance with the given id, or nil.
func (v *View) Instance(id string) *model.Instance {
	return v.byID[id]
}

// Instances returns all instances in the view.
func (v *View) Instances() []model.Instance {
	return v.instances
}

// OfClasses returns the instances whose class is one of the given
// names, in view order.
func (v *View) OfClasses(names []string) []*model.Instance {
	var out []*model.Instance
	seen := make(map[string]bool)
	for _, name := range names {
		for _, inst := range v.byClass[name] {
			if !seen[inst.ID] {
				seen[inst.ID] = true
				out = append(out, inst)
			}
		}
	}
	return out
}

func (v *View) class(inst *model.Instance) (*model.ClassDef, error) {
	if c := v.schema.Class(inst.Class); c != nil {
		return c, nil
	}
	if c := v.schema.ClassByID(inst.Class); c != nil {
		return c, nil
	}
	return nil, errors.E(errors.CodeClassNotFound, fmt.Sprintf("class %q not found", inst.Class))
}

// ResolvedSelection implements the evaluator's resolver contract: it
// returns the selected ids of the named relationship, or nothing when
// the selection is still unresolved.
func (v *View) ResolvedSelection(inst *model.Instance, rel string) ([]string, error) {
	sel, err := v.Relationship(inst, rel)
	if err != nil {
		return nil, err
	}
	if !sel.Resolved {
		return nil, nil
	}
	return sel.IDs, nil
}
