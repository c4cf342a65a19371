// Copyright 2026 Canonical.

package condb_test

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/condb/condb/internal/condb"
	"github.com/condb/condb/internal/condbtest"
	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/errors"
)

func TestAddDatabase(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	c.Check(f.db.ID, qt.Not(qt.Equals), "")
	c.Check(f.db.Name, qt.Equals, "bike-store")
	c.Check(f.db.DefaultBranchName, qt.Equals, condb.DefaultBranchName)
	c.Check(f.db.CreatedAt, qt.Equals, condbtest.Epoch)

	branch, err := f.cdb.GetBranch(ctx, f.db.ID, "main")
	c.Assert(err, qt.IsNil)
	c.Check(branch.Status, qt.Equals, dbmodel.BranchStatusActive)
	c.Check(branch.CurrentCommitHash.Valid, qt.IsFalse)
}

func TestAddDatabaseWithoutName(t *testing.T) {
	c := qt.New(t)

	cdb, _ := condbtest.NewConDB()
	_, err := cdb.AddDatabase(context.Background(), condbtest.Identity("alice"), "", "")
	c.Assert(err, qt.IsNotNil)
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeBadRequest)
}

func TestListDatabases(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	cdb, _ := condbtest.NewConDB()
	alice := condbtest.Identity("alice")
	for _, name := range []string{"surf-shop", "bike-store"} {
		_, err := cdb.AddDatabase(ctx, alice, name, "")
		c.Assert(err, qt.IsNil)
	}

	databases, err := cdb.ListDatabases(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(databases, qt.HasLen, 2)
	c.Check(databases[0].Name, qt.Equals, "bike-store")
	c.Check(databases[1].Name, qt.Equals, "surf-shop")
}

func TestDeleteDatabase(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	err := f.cdb.DeleteDatabase(ctx, f.alice, f.db.ID)
	c.Assert(err, qt.IsNil)

	_, err = f.cdb.GetDatabase(ctx, f.db.ID)
	c.Assert(err, qt.IsNotNil)
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeNotFound)
}

func TestDeleteDatabaseWithCommits(t *testing.T) {
	c := qt.New(t)

	f := newFixture(c)
	f.seed(c)

	err := f.cdb.DeleteDatabase(context.Background(), f.alice, f.db.ID)
	c.Assert(err, qt.IsNotNil)
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeBranchNotEmpty)
}

func TestDeleteDatabaseWithExtraBranch(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	_, err := f.cdb.AddBranch(ctx, f.alice, f.db.ID, "feature", "", "")
	c.Assert(err, qt.IsNil)

	err = f.cdb.DeleteDatabase(ctx, f.alice, f.db.ID)
	c.Assert(err, qt.IsNotNil)
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeConflict)
}

func TestDeleteDatabaseWithWorkingCommit(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	_, err := f.cdb.OpenWorkingCommit(ctx, f.alice, f.db.ID, "main")
	c.Assert(err, qt.IsNil)

	err = f.cdb.DeleteDatabase(ctx, f.alice, f.db.ID)
	c.Assert(err, qt.IsNotNil)
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeConflict)
}
