// Copyright 2026 Canonical.

package condb

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/model"
	"github.com/condb/condb/internal/resolve"
)

// ListInstances returns the instances of the given ref. If class is not
// empty only instances of that class are returned.
func (c *ConDB) ListInstances(ctx context.Context, databaseID, ref, class string) ([]model.Instance, error) {
	const op = errors.Op("condb.ListInstances")

	view, err := c.ResolveView(ctx, databaseID, ref)
	if err != nil {
		return nil, errors.E(op, err)
	}
	if class == "" {
		return view.Payload.Instances, nil
	}
	var instances []model.Instance
	for i := range view.Payload.Instances {
		if view.Payload.Instances[i].Class == class {
			instances = append(instances, view.Payload.Instances[i])
		}
	}
	return instances, nil
}

// An InstanceView is one instance together with its relationships
// materialized through the resolver.
type InstanceView struct {
	Instance model.Instance `json:"instance"`

	// Relationships maps relationship name to the materialized
	// selection. Unresolved selections are materialized as their
	// candidate pool.
	Relationships map[string]MaterializedRelationship `json:"relationships,omitempty"`
}

// A MaterializedRelationship is one relationship selection expanded to
// concrete instance ids.
type MaterializedRelationship struct {
	IDs      []string `json:"materialized_ids"`
	Resolved bool     `json:"resolved"`
}

// GetInstance returns the instance with the given ID from the given
// ref. If expand is true the instance's relationships are materialized
// through the resolver.
func (c *ConDB) GetInstance(ctx context.Context, databaseID, ref, id string, expand bool) (*InstanceView, error) {
	const op = errors.Op("condb.GetInstance")

	view, err := c.ResolveView(ctx, databaseID, ref)
	if err != nil {
		return nil, errors.E(op, err)
	}
	pv := resolve.NewPayloadView(&view.Payload)
	inst := pv.Instance(id)
	if inst == nil {
		return nil, errors.E(op, errors.CodeNotFound, fmt.Sprintf("instance %q not found", id))
	}
	iv := InstanceView{Instance: *inst}
	if !expand {
		return &iv, nil
	}

	class := view.Payload.Schema.Class(inst.Class)
	if class == nil {
		class = view.Payload.Schema.ClassByID(inst.Class)
	}
	if class == nil {
		return nil, errors.E(op, errors.CodeClassNotFound, fmt.Sprintf("instance %q has unknown class %q", id, inst.Class))
	}
	iv.Relationships = make(map[string]MaterializedRelationship, len(class.Relationships))
	for i := range class.Relationships {
		rel := &class.Relationships[i]
		sel, err := pv.Relationship(inst, rel.Name)
		if err != nil {
			return nil, errors.E(op, err)
		}
		mr := MaterializedRelationship{IDs: sel.IDs, Resolved: sel.Resolved}
		if !sel.Resolved {
			mr.IDs = sel.Pool
		}
		if mr.IDs == nil {
			mr.IDs = []string{}
		}
		iv.Relationships[rel.Name] = mr
	}
	return &iv, nil
}

// MaterializeRelationships materializes the relationships of every
// instance in the payload. Instances with an unknown class and
// relationships that cannot be resolved are skipped, a draft mid-edit
// is allowed to be inconsistent.
func MaterializeRelationships(p *model.Payload) map[string]map[string]MaterializedRelationship {
	pv := resolve.NewPayloadView(p)
	out := make(map[string]map[string]MaterializedRelationship, len(p.Instances))
	for i := range p.Instances {
		inst := &p.Instances[i]
		class := p.Schema.Class(inst.Class)
		if class == nil {
			class = p.Schema.ClassByID(inst.Class)
		}
		if class == nil {
			continue
		}
		rels := make(map[string]MaterializedRelationship, len(class.Relationships))
		for j := range class.Relationships {
			rel := &class.Relationships[j]
			sel, err := pv.Relationship(inst, rel.Name)
			if err != nil {
				continue
			}
			mr := MaterializedRelationship{IDs: sel.IDs, Resolved: sel.Resolved}
			if !sel.Resolved {
				mr.IDs = sel.Pool
			}
			if mr.IDs == nil {
				mr.IDs = []string{}
			}
			rels[rel.Name] = mr
		}
		out[inst.ID] = rels
	}
	return out
}

// AddInstance stages a new instance on the branch's working commit,
// opening one if the branch has none.
func (c *ConDB) AddInstance(ctx context.Context, u Identity, databaseID, branchName string, inst model.Instance) (*model.Instance, error) {
	const op = errors.Op("condb.AddInstance")

	if inst.Class == "" {
		return nil, errors.E(op, errors.CodeBadRequest, "instance class not specified")
	}
	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}
	now := c.now()
	inst.CreatedBy = u.ID
	inst.CreatedAt = now
	inst.UpdatedBy = u.ID
	inst.UpdatedAt = now

	err := c.stage(ctx, u, databaseID, branchName, func(p *model.Payload) error {
		if p.Schema.Class(inst.Class) == nil && p.Schema.ClassByID(inst.Class) == nil {
			return errors.E(errors.CodeClassNotFound, fmt.Sprintf("class %q not found", inst.Class))
		}
		for i := range p.Instances {
			if p.Instances[i].ID == inst.ID {
				return errors.E(errors.CodeAlreadyExists, fmt.Sprintf("instance %q already exists", inst.ID))
			}
		}
		p.Instances = append(p.Instances, inst)
		return nil
	})
	if err != nil {
		return nil, errors.E(op, err)
	}
	return &inst, nil
}

// UpdateInstance stages a replacement of the instance with the same ID
// on the branch's working commit. The instance's audit creation fields
// are preserved.
func (c *ConDB) UpdateInstance(ctx context.Context, u Identity, databaseID, branchName string, inst model.Instance) (*model.Instance, error) {
	const op = errors.Op("condb.UpdateInstance")

	err := c.stage(ctx, u, databaseID, branchName, func(p *model.Payload) error {
		for i := range p.Instances {
			if p.Instances[i].ID != inst.ID {
				continue
			}
			inst.CreatedBy = p.Instances[i].CreatedBy
			inst.CreatedAt = p.Instances[i].CreatedAt
			inst.UpdatedBy = u.ID
			inst.UpdatedAt = c.now()
			p.Instances[i] = inst
			return nil
		}
		return errors.E(errors.CodeNotFound, fmt.Sprintf("instance %q not found", inst.ID))
	})
	if err != nil {
		return nil, errors.E(op, err)
	}
	return &inst, nil
}

// DeleteInstance stages the removal of an instance on the branch's
// working commit.
func (c *ConDB) DeleteInstance(ctx context.Context, u Identity, databaseID, branchName, id string) error {
	const op = errors.Op("condb.DeleteInstance")

	err := c.stage(ctx, u, databaseID, branchName, func(p *model.Payload) error {
		for i := range p.Instances {
			if p.Instances[i].ID == id {
				p.Instances = append(p.Instances[:i], p.Instances[i+1:]...)
				return nil
			}
		}
		return errors.E(errors.CodeNotFound, fmt.Sprintf("instance %q not found", id))
	})
	if err != nil {
		return errors.E(op, err)
	}
	return nil
}
