// Copyright 2026 Canonical.

package condb_test

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/condb/condb/internal/condbtest"
	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/model"
)

func TestAddClass(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	class, err := f.cdb.AddClass(ctx, f.alice, f.db.ID, "main", model.ClassDef{Name: "frame"})
	c.Assert(err, qt.IsNil)
	c.Check(class.ID, qt.Not(qt.Equals), "")
	c.Check(class.CreatedBy, qt.Equals, "alice")

	// Staging a class opens a working commit on the branch.
	wc, err := f.cdb.GetWorkingCommit(ctx, f.db.ID, "main")
	c.Assert(err, qt.IsNil)
	got, err := f.cdb.GetClass(ctx, f.db.ID, wc.ID, "frame")
	c.Assert(err, qt.IsNil)
	c.Check(got.ID, qt.Equals, class.ID)

	_, err = f.cdb.AddClass(ctx, f.alice, f.db.ID, "main", model.ClassDef{Name: "frame"})
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeAlreadyExists)

	_, err = f.cdb.AddClass(ctx, f.alice, f.db.ID, "main", model.ClassDef{})
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeBadRequest)
}

func TestGetClass(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	f.seed(c)

	byName, err := f.cdb.GetClass(ctx, f.db.ID, "main", "wheel")
	c.Assert(err, qt.IsNil)
	byID, err := f.cdb.GetClass(ctx, f.db.ID, "main", "c-wheel")
	c.Assert(err, qt.IsNil)
	c.Check(byID.Name, qt.Equals, byName.Name)

	_, err = f.cdb.GetClass(ctx, f.db.ID, "main", "no-such-class")
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeClassNotFound)
}

func TestUpdateClassPreservesCreation(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	f.seed(c)

	class := wheelClass()
	class.Description = "wheels and rims"
	updated, err := f.cdb.UpdateClass(ctx, condbtest.Identity("bob"), f.db.ID, "main", class)
	c.Assert(err, qt.IsNil)
	c.Check(updated.CreatedBy, qt.Equals, "alice")
	c.Check(updated.UpdatedBy, qt.Equals, "bob")
	c.Check(updated.Description, qt.Equals, "wheels and rims")

	class.ID = "no-such-class"
	_, err = f.cdb.UpdateClass(ctx, f.alice, f.db.ID, "main", class)
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeClassNotFound)
}

func TestDeleteClass(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	f.seed(c)

	// A class with instances cannot be removed.
	err := f.cdb.DeleteClass(ctx, f.alice, f.db.ID, "main", "wheel")
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeConflict)

	_, err = f.cdb.AddClass(ctx, f.alice, f.db.ID, "main", model.ClassDef{Name: "frame"})
	c.Assert(err, qt.IsNil)
	err = f.cdb.DeleteClass(ctx, f.alice, f.db.ID, "main", "frame")
	c.Assert(err, qt.IsNil)

	wc, err := f.cdb.GetWorkingCommit(ctx, f.db.ID, "main")
	c.Assert(err, qt.IsNil)
	_, err = f.cdb.GetClass(ctx, f.db.ID, wc.ID, "frame")
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeClassNotFound)
}
