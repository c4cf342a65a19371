// Copyright 2026 Canonical.

package condb_test

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/model"
	"github.com/condb/condb/internal/solve"
)

func TestSolve(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	seed := f.seed(c)

	art, err := f.cdb.Solve(ctx, f.alice, f.db.ID, "main", solve.DefaultPolicies(), false)
	c.Assert(err, qt.IsNil)
	c.Check(art.Scope.DatabaseID, qt.Equals, f.db.ID)
	c.Check(art.Scope.BranchID, qt.Equals, "main")
	c.Check(art.Scope.CommitHash, qt.Equals, seed.Hash)
	c.Check(art.Validation.Valid, qt.IsTrue)
	c.Assert(art.Configuration, qt.HasLen, 3)

	bike := art.Configuration[2]
	c.Check(bike.ID, qt.Equals, "b1")
	c.Check(bike.Relationships["wheels"].IDs, qt.DeepEquals, []string{"w1", "w2"})
	c.Check(bike.Properties["assembly"], qt.Equals, 50.0)
	c.Check(bike.Properties["total_price"], qt.Equals, 800.0)

	// The artifact is persisted and can be fetched back.
	got, err := f.cdb.GetArtifact(ctx, f.db.ID, art.ID)
	c.Assert(err, qt.IsNil)
	c.Check(got.ID, qt.Equals, art.ID)
	c.Check(got.Configuration, qt.CmpEquals(cmpopts.EquateEmpty()), art.Configuration)
}

func TestSolveIsRepeatable(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	f.seed(c)

	first, err := f.cdb.Solve(ctx, f.alice, f.db.ID, "main", solve.DefaultPolicies(), false)
	c.Assert(err, qt.IsNil)
	second, err := f.cdb.Solve(ctx, f.alice, f.db.ID, "main", solve.DefaultPolicies(), false)
	c.Assert(err, qt.IsNil)

	// Two solves over the same ref produce distinct artifacts with
	// identical resolved configurations.
	c.Check(second.ID, qt.Not(qt.Equals), first.ID)
	c.Check(second.Configuration, qt.CmpEquals(cmpopts.EquateEmpty()), first.Configuration)
	c.Check(second.Derived, qt.DeepEquals, first.Derived)
}

func TestSolveCrossBranchReference(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	f.seed(c)

	// Another active branch carries the wheel the bike points at.
	_, err := f.cdb.AddBranch(ctx, f.alice, f.db.ID, "feature", "", "")
	c.Assert(err, qt.IsNil)
	_, err = f.cdb.AddInstance(ctx, f.alice, f.db.ID, "feature", wheel("w9", 150))
	c.Assert(err, qt.IsNil)
	f.commit(c, "feature", "add a budget wheel")

	_, err = f.cdb.UpdateInstance(ctx, f.alice, f.db.ID, "main", bike("b1", "w1", "w9"))
	c.Assert(err, qt.IsNil)
	f.commit(c, "main", "point the bike at the feature wheel")

	_, err = f.cdb.Solve(ctx, f.alice, f.db.ID, "main", solve.DefaultPolicies(), false)
	c.Assert(err, qt.IsNotNil)
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeCrossBranchReference)

	policies := solve.DefaultPolicies()
	policies.CrossBranch = solve.CrossBranchAllowWithWarnings
	art, err := f.cdb.Solve(ctx, f.alice, f.db.ID, "main", policies, false)
	c.Assert(err, qt.IsNil)
	c.Check(art.Configuration[2].Relationships["wheels"].IDs, qt.DeepEquals, []string{"w1", "w9"})
	c.Assert(art.Metadata.Issues, qt.Not(qt.HasLen), 0)
	c.Check(art.Metadata.Issues[0].Severity, qt.Equals, solve.SeverityWarning)
}

func TestSolveWorkingCommitRef(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	f.seed(c)

	_, err := f.cdb.AddInstance(ctx, f.alice, f.db.ID, "main", wheel("w3", 150))
	c.Assert(err, qt.IsNil)
	wc, err := f.cdb.GetWorkingCommit(ctx, f.db.ID, "main")
	c.Assert(err, qt.IsNil)

	art, err := f.cdb.Solve(ctx, f.alice, f.db.ID, wc.ID, solve.DefaultPolicies(), false)
	c.Assert(err, qt.IsNil)
	c.Check(art.Configuration, qt.HasLen, 4)
}

func TestSolveValidationAbort(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	f.seed(c)

	// Stage a wheel without its required price and solve the draft.
	_, err := f.cdb.AddInstance(ctx, f.alice, f.db.ID, "main", model.Instance{ID: "w9", Class: "wheel"})
	c.Assert(err, qt.IsNil)
	wc, err := f.cdb.GetWorkingCommit(ctx, f.db.ID, "main")
	c.Assert(err, qt.IsNil)

	_, err = f.cdb.Solve(ctx, f.alice, f.db.ID, wc.ID, solve.DefaultPolicies(), false)
	c.Assert(err, qt.IsNotNil)
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeValidationConflict)

	// The aborted solve left nothing behind.
	summaries, err := f.cdb.ListArtifacts(ctx, f.db.ID)
	c.Assert(err, qt.IsNil)
	c.Check(summaries, qt.HasLen, 0)

	// Forcing stores the artifact with its failing validation result.
	art, err := f.cdb.Solve(ctx, f.alice, f.db.ID, wc.ID, solve.DefaultPolicies(), true)
	c.Assert(err, qt.IsNil)
	c.Check(art.Validation.Valid, qt.IsFalse)

	summaries, err = f.cdb.ListArtifacts(ctx, f.db.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(summaries, qt.HasLen, 1)
	c.Check(summaries[0].ID, qt.Equals, art.ID)
	c.Check(summaries[0].Valid, qt.IsFalse)
}

func TestGetArtifactWrongDatabase(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	f.seed(c)
	art, err := f.cdb.Solve(ctx, f.alice, f.db.ID, "main", solve.DefaultPolicies(), false)
	c.Assert(err, qt.IsNil)

	other, err := f.cdb.AddDatabase(ctx, f.alice, "surf-shop", "")
	c.Assert(err, qt.IsNil)
	_, err = f.cdb.GetArtifact(ctx, other.ID, art.ID)
	c.Check(errors.ErrorCode(err), qt.Equals, errors.CodeNotFound)
}

func TestListArtifacts(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFixture(c)
	f.seed(c)

	first, err := f.cdb.Solve(ctx, f.alice, f.db.ID, "main", solve.DefaultPolicies(), false)
	c.Assert(err, qt.IsNil)
	f.clk.Advance(time.Minute)
	second, err := f.cdb.Solve(ctx, f.alice, f.db.ID, "main", solve.DefaultPolicies(), false)
	c.Assert(err, qt.IsNil)

	summaries, err := f.cdb.ListArtifacts(ctx, f.db.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(summaries, qt.HasLen, 2)
	c.Check(summaries[0].ID, qt.Equals, second.ID)
	c.Check(summaries[1].ID, qt.Equals, first.ID)
	c.Check(summaries[0].Valid, qt.IsTrue)
	c.Check(summaries[0].Statistics.TotalInstances, qt.Equals, 3)
	c.Check(summaries[0].IssueCount, qt.Equals, 0)
}
