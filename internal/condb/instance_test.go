// Copyright 2026 Canonical.

package condb_test

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/model"
)

func TestAddInstance(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	f.seed(c)

	inst, err := f.cdb.AddInstance(ctx, f.alice, f.db.ID, "main", wheel("w3", 150))
	c.Assert(err, qt.IsNil)
	c.Check(inst.CreatedBy, qt.Equals, "alice")

	_, err = f.cdb.AddInstance(ctx, f.alice, f.db.ID, "main", wheel("w3", 150))
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeAlreadyExists)

	_, err = f.cdb.AddInstance(ctx, f.alice, f.db.ID, "main", model.Instance{ID: "x1"})
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeBadRequest)

	_, err = f.cdb.AddInstance(ctx, f.alice, f.db.ID, "main", model.Instance{ID: "x1", Class: "no-such-class"})
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeClassNotFound)
}

func TestListInstances(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	f.seed(c)

	all, err := f.cdb.ListInstances(ctx, f.db.ID, "main", "")
	c.Assert(err, qt.IsNil)
	c.Check(all, qt.HasLen, 3)

	wheels, err := f.cdb.ListInstances(ctx, f.db.ID, "main", "wheel")
	c.Assert(err, qt.IsNil)
	c.Assert(wheels, qt.HasLen, 2)
	c.Check(wheels[0].ID, qt.Equals, "w1")
	c.Check(wheels[1].ID, qt.Equals, "w2")
}

func TestGetInstanceExpanded(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	f.seed(c)

	iv, err := f.cdb.GetInstance(ctx, f.db.ID, "main", "b1", true)
	c.Assert(err, qt.IsNil)
	c.Check(iv.Instance.ID, qt.Equals, "b1")
	c.Assert(iv.Relationships, qt.HasLen, 1)
	c.Check(iv.Relationships["wheels"].Resolved, qt.IsTrue)
	c.Check(iv.Relationships["wheels"].IDs, qt.DeepEquals, []string{"w1", "w2"})

	_, err = f.cdb.GetInstance(ctx, f.db.ID, "main", "no-such-instance", true)
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeNotFound)
}

func TestGetInstancePoolSelection(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	f.seed(c)

	b2 := bike("b2")
	b2.Relationships = map[string]model.RelationshipSelection{
		"wheels": model.SelectPool(&model.Filter{
			Where: &model.WhereExpr{
				Gt: &model.Comparison{Path: "$.price", Value: 400.0},
			},
		}),
	}
	_, err := f.cdb.AddInstance(ctx, f.alice, f.db.ID, "main", b2)
	c.Assert(err, qt.IsNil)

	wc, err := f.cdb.GetWorkingCommit(ctx, f.db.ID, "main")
	c.Assert(err, qt.IsNil)
	// A pool override without a selection narrows the candidates but
	// leaves the final choice open.
	iv, err := f.cdb.GetInstance(ctx, f.db.ID, wc.ID, "b2", true)
	c.Assert(err, qt.IsNil)
	c.Check(iv.Relationships["wheels"].Resolved, qt.IsFalse)
	c.Check(iv.Relationships["wheels"].IDs, qt.DeepEquals, []string{"w2"})
}

func TestGetInstanceUnresolvedMaterializesPool(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	f.seed(c)

	b3 := bike("b3")
	b3.Relationships = nil
	_, err := f.cdb.AddInstance(ctx, f.alice, f.db.ID, "main", b3)
	c.Assert(err, qt.IsNil)

	wc, err := f.cdb.GetWorkingCommit(ctx, f.db.ID, "main")
	c.Assert(err, qt.IsNil)
	iv, err := f.cdb.GetInstance(ctx, f.db.ID, wc.ID, "b3", true)
	c.Assert(err, qt.IsNil)
	c.Check(iv.Relationships["wheels"].Resolved, qt.IsFalse)
	c.Check(iv.Relationships["wheels"].IDs, qt.DeepEquals, []string{"w1", "w2"})
}

func TestUpdateAndDeleteInstance(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	f.seed(c)

	updated, err := f.cdb.UpdateInstance(ctx, f.alice, f.db.ID, "main", wheel("w1", 300))
	c.Assert(err, qt.IsNil)
	c.Check(updated.CreatedBy, qt.Equals, "alice")

	_, err = f.cdb.UpdateInstance(ctx, f.alice, f.db.ID, "main", wheel("w9", 300))
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeNotFound)

	err = f.cdb.DeleteInstance(ctx, f.alice, f.db.ID, "main", "b1")
	c.Assert(err, qt.IsNil)
	err = f.cdb.DeleteInstance(ctx, f.alice, f.db.ID, "main", "b1")
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeNotFound)

	wc, err := f.cdb.GetWorkingCommit(ctx, f.db.ID, "main")
	c.Assert(err, qt.IsNil)
	remaining, err := f.cdb.ListInstances(ctx, f.db.ID, wc.ID, "")
	c.Assert(err, qt.IsNil)
	c.Check(remaining, qt.HasLen, 2)
}
