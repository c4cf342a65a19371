// Copyright 2026 Canonical.

package condb

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/model"
)

// Schema returns the schema of the given ref.
func (c *ConDB) Schema(ctx context.Context, databaseID, ref string) (*model.Schema, error) {
	const op = errors.Op("condb.Schema")

	view, err := c.ResolveView(ctx, databaseID, ref)
	if err != nil {
		return nil, errors.E(op, err)
	}
	return &view.Payload.Schema, nil
}

// GetClass returns the class with the given name or ID from the schema
// of the given ref.
func (c *ConDB) GetClass(ctx context.Context, databaseID, ref, name string) (*model.ClassDef, error) {
	const op = errors.Op("condb.GetClass")

	view, err := c.ResolveView(ctx, databaseID, ref)
	if err != nil {
		return nil, errors.E(op, err)
	}
	class := view.Payload.Schema.Class(name)
	if class == nil {
		class = view.Payload.Schema.ClassByID(name)
	}
	if class == nil {
		return nil, errors.E(op, errors.CodeClassNotFound, fmt.Sprintf("class %q not found", name))
	}
	return class, nil
}

// AddClass stages a new class on the branch's working commit, opening
// one if the branch has none.
func (c *ConDB) AddClass(ctx context.Context, u Identity, databaseID, branchName string, class model.ClassDef) (*model.ClassDef, error) {
	const op = errors.Op("condb.AddClass")

	if class.Name == "" {
		return nil, errors.E(op, errors.CodeBadRequest, "class name not specified")
	}
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := c.now()
	class.CreatedBy = u.ID
	class.CreatedAt = now
	class.UpdatedBy = u.ID
	class.UpdatedAt = now

	err := c.stage(ctx, u, databaseID, branchName, func(p *model.Payload) error {
		if p.Schema.Class(class.Name) != nil || p.Schema.ClassByID(class.ID) != nil {
			return errors.E(errors.CodeAlreadyExists, fmt.Sprintf("class %q already exists", class.Name))
		}
		p.Schema.Classes = append(p.Schema.Classes, class)
		return nil
	})
	if err != nil {
		return nil, errors.E(op, err)
	}
	return &class, nil
}

// UpdateClass stages a replacement of the class with the same ID on the
// branch's working commit. The class's audit creation fields are
// preserved.
func (c *ConDB) UpdateClass(ctx context.Context, u Identity, databaseID, branchName string, class model.ClassDef) (*model.ClassDef, error) {
	const op = errors.Op("condb.UpdateClass")

	err := c.stage(ctx, u, databaseID, branchName, func(p *model.Payload) error {
		for i := range p.Schema.Classes {
			if p.Schema.Classes[i].ID != class.ID {
				continue
			}
			class.CreatedBy = p.Schema.Classes[i].CreatedBy
			class.CreatedAt = p.Schema.Classes[i].CreatedAt
			class.UpdatedBy = u.ID
			class.UpdatedAt = c.now()
			p.Schema.Classes[i] = class
			return nil
		}
		return errors.E(errors.CodeClassNotFound, fmt.Sprintf("class %q not found", class.ID))
	})
	if err != nil {
		return nil, errors.E(op, err)
	}
	return &class, nil
}

// DeleteClass stages the removal of a class on the branch's working
// commit. A class that still has instances cannot be removed.
func (c *ConDB) DeleteClass(ctx context.Context, u Identity, databaseID, branchName, name string) error {
	const op = errors.Op("condb.DeleteClass")

	err := c.stage(ctx, u, databaseID, branchName, func(p *model.Payload) error {
		class := p.Schema.Class(name)
		if class == nil {
			class = p.Schema.ClassByID(name)
		}
		if class == nil {
			return errors.E(errors.CodeClassNotFound, fmt.Sprintf("class %q not found", name))
		}
		for i := range p.Instances {
			if p.Instances[i].Class == class.Name || p.Instances[i].Class == class.ID {
				return errors.E(errors.CodeConflict, fmt.Sprintf("class %q still has instances", class.Name))
			}
		}
		classes := p.Schema.Classes[:0]
		for i := range p.Schema.Classes {
			if p.Schema.Classes[i].ID != class.ID {
				classes = append(classes, p.Schema.Classes[i])
			}
		}
		p.Schema.Classes = classes
		return nil
	})
	if err != nil {
		return errors.E(op, err)
	}
	return nil
}

// stage applies a mutation to the branch's active working commit,
// opening one if the branch has none. Mutations on a branch whose
// working commit is merging or rebasing are rejected.
func (c *ConDB) stage(ctx context.Context, u Identity, databaseID, branchName string, f func(*model.Payload) error) error {
	lock := c.databaseLock(databaseID)
	lock.Lock()
	defer lock.Unlock()

	wc := dbmodel.WorkingCommit{DatabaseID: databaseID, BranchName: branchName}
	err := c.Store.LiveWorkingCommit(ctx, &wc)
	switch {
	case err == nil:
		if wc.Status != dbmodel.WorkingCommitStatusActive {
			return errors.E(errors.CodeConflict, "working commit is in status "+string(wc.Status))
		}
	case errors.ErrorCode(err) == errors.CodeWorkingCommitNotFound:
		branch := dbmodel.Branch{DatabaseID: databaseID, Name: branchName}
		if err := c.Store.GetBranch(ctx, &branch); err != nil {
			return err
		}
		nwc, err := c.newWorkingCommit(ctx, &branch, u.ID, dbmodel.WorkingCommitStatusActive)
		if err != nil {
			return err
		}
		wc = *nwc
	default:
		return err
	}

	payload := wc.Payload()
	if err := f(&payload); err != nil {
		return err
	}
	wc.SetPayload(payload)
	wc.UpdatedAt = c.now()
	return c.Store.UpdateWorkingCommit(ctx, &wc)
}
