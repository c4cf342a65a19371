// Copyright 2026 Canonical.

package condb_test

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/errors"
)

func TestTagCommit(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	seed := f.seed(c)

	tag, err := f.cdb.TagCommit(ctx, f.alice, f.db.ID, seed.Hash, "version", "v1.2.3", "first release")
	c.Assert(err, qt.IsNil)
	c.Check(tag.TagType, qt.Equals, dbmodel.TagTypeVersion)
	c.Check(tag.TagName, qt.Equals, "v1.2.3")
	c.Check(tag.CreatedBy, qt.Equals, "alice")
	c.Check(tag.Metadata, qt.DeepEquals, dbmodel.Map{
		"major": 1,
		"minor": 2,
		"patch": 3,
	})
}

func TestTagCommitErrors(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	seed := f.seed(c)

	_, err := f.cdb.TagCommit(ctx, f.alice, f.db.ID, seed.Hash, "version", "", "")
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeBadRequest)

	_, err = f.cdb.TagCommit(ctx, f.alice, f.db.ID, seed.Hash, "nonsense", "v1.0.0", "")
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeBadRequest)

	_, err = f.cdb.TagCommit(ctx, f.alice, f.db.ID, seed.Hash, "version", "not-a-version", "")
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeBadRequest)

	_, err = f.cdb.TagCommit(ctx, f.alice, f.db.ID, "0000000000000000000000000000000000000000000000000000000000000000", "custom", "lost", "")
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeCommitNotFound)

	_, err = f.cdb.TagCommit(ctx, f.alice, f.db.ID, seed.Hash, "custom", "twice", "")
	c.Assert(err, qt.IsNil)
	_, err = f.cdb.TagCommit(ctx, f.alice, f.db.ID, seed.Hash, "custom", "twice", "")
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeAlreadyExists)
}

func TestListCommitTags(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	seed := f.seed(c)

	_, err := f.cdb.TagCommit(ctx, f.alice, f.db.ID, seed.Hash, "version", "v1.0.0", "")
	c.Assert(err, qt.IsNil)
	f.clk.Advance(time.Minute)
	_, err = f.cdb.TagCommit(ctx, f.alice, f.db.ID, seed.Hash, "milestone", "beta", "")
	c.Assert(err, qt.IsNil)

	tags, err := f.cdb.ListCommitTags(ctx, f.db.ID, dbmodel.CommitTagQuery{})
	c.Assert(err, qt.IsNil)
	c.Assert(tags, qt.HasLen, 2)
	c.Check(tags[0].TagName, qt.Equals, "beta")
	c.Check(tags[1].TagName, qt.Equals, "v1.0.0")

	versions, err := f.cdb.ListCommitTags(ctx, f.db.ID, dbmodel.CommitTagQuery{TagType: dbmodel.TagTypeVersion})
	c.Assert(err, qt.IsNil)
	c.Assert(versions, qt.HasLen, 1)
	c.Check(versions[0].TagName, qt.Equals, "v1.0.0")
}

func TestDeleteCommitTag(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	seed := f.seed(c)

	_, err := f.cdb.TagCommit(ctx, f.alice, f.db.ID, seed.Hash, "custom", "checkpoint", "")
	c.Assert(err, qt.IsNil)
	err = f.cdb.DeleteCommitTag(ctx, f.alice, f.db.ID, seed.Hash, "checkpoint")
	c.Assert(err, qt.IsNil)

	tags, err := f.cdb.ListCommitTags(ctx, f.db.ID, dbmodel.CommitTagQuery{})
	c.Assert(err, qt.IsNil)
	c.Check(tags, qt.HasLen, 0)

	err = f.cdb.DeleteCommitTag(ctx, f.alice, f.db.ID, seed.Hash, "checkpoint")
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeNotFound)
}
