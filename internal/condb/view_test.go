// Copyright 2026 Canonical.

package condb_test

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/model"
)

func TestResolveView(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	seed := f.seed(c)

	// An empty ref names the default branch.
	view, err := f.cdb.ResolveView(ctx, f.db.ID, "")
	c.Assert(err, qt.IsNil)
	c.Check(view.BranchName, qt.Equals, "main")
	c.Check(view.CommitHash, qt.Equals, seed.Hash)

	byHash, err := f.cdb.ResolveView(ctx, f.db.ID, seed.Hash)
	c.Assert(err, qt.IsNil)
	c.Check(byHash.BranchName, qt.Equals, "")
	c.Check(byHash.Payload.Instances, qt.HasLen, 3)

	_, err = f.cdb.ResolveView(ctx, f.db.ID, "no-such-ref")
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeNotFound)
}

func TestResolveViewNewbornBranch(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	view, err := f.cdb.ResolveView(ctx, f.db.ID, "main")
	c.Assert(err, qt.IsNil)
	c.Check(view.CommitHash, qt.Equals, "")
	c.Check(view.Payload.Instances, qt.HasLen, 0)
	c.Check(view.Payload.Schema.Classes, qt.HasLen, 0)
}

func TestListCommits(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	seed := f.seed(c)
	_, err := f.cdb.AddInstance(ctx, f.alice, f.db.ID, "main", wheel("w3", 150))
	c.Assert(err, qt.IsNil)
	second := f.commit(c, "main", "add a budget wheel")

	commits, err := f.cdb.ListCommits(ctx, f.db.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(commits, qt.HasLen, 2)
	c.Check(commits[0].Hash, qt.Equals, second.Hash)
	c.Check(commits[1].Hash, qt.Equals, seed.Hash)
	// Listings omit the payload bytes.
	c.Check(commits[0].Data, qt.IsNil)
}

func TestValidateInstance(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	f.seed(c)

	result, err := f.cdb.ValidateInstance(ctx, f.db.ID, "main", "b1")
	c.Assert(err, qt.IsNil)
	c.Check(result.Valid, qt.IsTrue)

	_, err = f.cdb.AddInstance(ctx, f.alice, f.db.ID, "main", model.Instance{ID: "w9", Class: "wheel"})
	c.Assert(err, qt.IsNil)
	wc, err := f.cdb.GetWorkingCommit(ctx, f.db.ID, "main")
	c.Assert(err, qt.IsNil)

	result, err = f.cdb.ValidateInstance(ctx, f.db.ID, wc.ID, "w9")
	c.Assert(err, qt.IsNil)
	c.Check(result.Valid, qt.IsFalse)
	c.Assert(result.Errors, qt.HasLen, 1)
	c.Check(result.Errors[0].Code, qt.Equals, errors.CodeMissingRequiredProperty)

	// Other instances' problems do not leak into the report.
	result, err = f.cdb.ValidateInstance(ctx, f.db.ID, wc.ID, "w1")
	c.Assert(err, qt.IsNil)
	c.Check(result.Valid, qt.IsTrue)

	_, err = f.cdb.ValidateInstance(ctx, f.db.ID, "main", "no-such-instance")
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeNotFound)
}

func TestValidate(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	f.seed(c)

	result, err := f.cdb.Validate(ctx, f.db.ID, "main")
	c.Assert(err, qt.IsNil)
	c.Check(result.Valid, qt.IsTrue)

	// Stage a wheel without its required price and validate the
	// draft.
	_, err = f.cdb.AddInstance(ctx, f.alice, f.db.ID, "main", model.Instance{ID: "w9", Class: "wheel"})
	c.Assert(err, qt.IsNil)
	wc, err := f.cdb.GetWorkingCommit(ctx, f.db.ID, "main")
	c.Assert(err, qt.IsNil)

	result, err = f.cdb.Validate(ctx, f.db.ID, wc.ID)
	c.Assert(err, qt.IsNil)
	c.Check(result.Valid, qt.IsFalse)
	var found bool
	for _, p := range result.Errors {
		if p.Code == errors.CodeMissingRequiredProperty && p.Instance == "w9" {
			found = true
		}
	}
	c.Check(found, qt.IsTrue)
}
