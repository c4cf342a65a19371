// Copyright 2026 Canonical.

package condb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/juju/zaputil/zapctx"
	"go.uber.org/zap"

	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/merge"
	"github.com/condb/condb/internal/model"
	"github.com/condb/condb/internal/resolve"
	"github.com/condb/condb/internal/servermon"
	"github.com/condb/condb/internal/validate"
)

// A MergeResult reports the outcome of a merge or rebase. When the
// operation completed Completed is true and CommitHash names the new
// commit. When conflicts stopped the operation a working commit holding
// the partial merge is left on the target branch and WorkingCommitID
// names it.
type MergeResult struct {
	Completed       bool             `json:"completed"`
	CommitHash      string           `json:"commit_hash,omitempty"`
	WorkingCommitID string           `json:"working_commit_id,omitempty"`
	Conflicts       []merge.Conflict `json:"conflicts,omitempty"`
	Validation      *validate.Result `json:"validation,omitempty"`
}

// A MergeCheck is the result of a merge or rebase dry run.
type MergeCheck struct {
	CanMerge          bool             `json:"can_merge"`
	AncestorHash      string           `json:"ancestor_hash"`
	Conflicts         []merge.Conflict `json:"conflicts"`
	AffectedInstances []string         `json:"affected_instances"`
	Validation        validate.Result  `json:"validation"`
}

// mergeInputs holds the three payloads a merge or rebase runs over
// together with the commits they came from.
type mergeInputs struct {
	source       dbmodel.Branch
	target       dbmodel.Branch
	ancestorHash string
	sourceHash   string
	targetHash   string
	base         model.Payload
	sourcePay    model.Payload
	targetPay    model.Payload
}

// mergeInputs resolves the branches, finds the common ancestor of their
// tips and loads the three payloads. The caller must hold the database
// lock.
func (c *ConDB) mergeInputs(ctx context.Context, databaseID, sourceName, targetName string) (*mergeInputs, error) {
	if sourceName == targetName {
		return nil, errors.E(errors.CodeBadRequest, "cannot merge a branch into itself")
	}
	in := mergeInputs{
		source: dbmodel.Branch{DatabaseID: databaseID, Name: sourceName},
		target: dbmodel.Branch{DatabaseID: databaseID, Name: targetName},
	}
	if err := c.Store.GetBranch(ctx, &in.source); err != nil {
		return nil, err
	}
	if err := c.Store.GetBranch(ctx, &in.target); err != nil {
		return nil, err
	}
	if !in.source.CurrentCommitHash.Valid {
		return nil, errors.E(errors.CodeNoChanges, fmt.Sprintf("branch %q has no commits", sourceName))
	}
	in.sourceHash = in.source.CurrentCommitHash.String
	if in.target.CurrentCommitHash.Valid {
		in.targetHash = in.target.CurrentCommitHash.String
	}

	var err error
	if in.targetHash != "" {
		in.ancestorHash, err = merge.CommonAncestor(c.commitParent(ctx, databaseID), in.sourceHash, in.targetHash)
		if err != nil {
			return nil, err
		}
	}
	if in.ancestorHash != "" {
		if in.base, err = c.commitPayload(ctx, databaseID, in.ancestorHash); err != nil {
			return nil, err
		}
	}
	if in.sourcePay, err = c.commitPayload(ctx, databaseID, in.sourceHash); err != nil {
		return nil, err
	}
	if in.targetHash != "" {
		if in.targetPay, err = c.commitPayload(ctx, databaseID, in.targetHash); err != nil {
			return nil, err
		}
	}
	return &in, nil
}

// Merge merges the source branch into the target branch. A clean merge
// that validates becomes a new commit on the target branch and the
// source branch is marked merged. When the merge conflicts and force is
// false the partial merge is left on a working commit in merging status
// and the conflicts are reported; with force set the forced resolution
// is committed instead.
func (c *ConDB) Merge(ctx context.Context, u Identity, databaseID, sourceName, targetName string, force bool) (*MergeResult, error) {
	const op = errors.Op("condb.Merge")

	lock := c.databaseLock(databaseID)
	lock.Lock()
	defer lock.Unlock()

	wc := dbmodel.WorkingCommit{DatabaseID: databaseID, BranchName: targetName}
	err := c.Store.LiveWorkingCommit(ctx, &wc)
	switch {
	case err == nil:
		return nil, errors.E(op, errors.CodeConflict,
			"target branch has a live working commit in status "+string(wc.Status))
	case errors.ErrorCode(err) != errors.CodeWorkingCommitNotFound:
		return nil, errors.E(op, err)
	}

	in, err := c.mergeInputs(ctx, databaseID, sourceName, targetName)
	if err != nil {
		return nil, errors.E(op, err)
	}
	if in.ancestorHash == in.sourceHash {
		return nil, errors.E(op, errors.CodeNoChanges,
			fmt.Sprintf("branch %q has no commits that %q does not have", sourceName, targetName))
	}

	res := merge.ThreeWay(&in.base, &in.sourcePay, &in.targetPay)
	message := fmt.Sprintf("merge %s into %s", sourceName, targetName)
	state := dbmodel.MergeState{
		AncestorHash: in.ancestorHash,
		SourceBranch: sourceName,
		SourceHash:   in.sourceHash,
		TargetHash:   in.targetHash,
		Conflicts:    res.Conflicts,
	}

	if !res.Clean() && !force {
		nwc, err := c.stageMerge(ctx, &in.target, u.ID, dbmodel.WorkingCommitStatusMerging, res.Payload, state)
		if err != nil {
			return nil, errors.E(op, err)
		}
		servermon.MergeCount.WithLabelValues(databaseID, "merge", "conflicts").Inc()
		servermon.MergeConflictCount.WithLabelValues(databaseID).Add(float64(len(res.Conflicts)))
		zapctx.Info(ctx, "merge stopped on conflicts",
			zap.String("database", databaseID),
			zap.String("source", sourceName),
			zap.String("target", targetName),
			zap.Int("conflicts", len(res.Conflicts)),
			zap.String("working-commit", nwc.ID))
		return &MergeResult{WorkingCommitID: nwc.ID, Conflicts: res.Conflicts}, nil
	}

	validation := validate.View(resolve.NewPayloadView(&res.Payload))
	if !validation.Valid && !force {
		return nil, errors.E(op, errors.CodeValidationConflict,
			fmt.Sprintf("merged state has %d validation errors", len(validation.Errors)))
	}

	commit, err := c.commitMerge(ctx, &in.target, u.ID, dbmodel.WorkingCommitStatusMerging, res.Payload, state, message)
	if err != nil {
		return nil, errors.E(op, err)
	}
	in.source.Status = dbmodel.BranchStatusMerged
	in.source.UpdatedAt = c.now()
	if err := c.Store.UpdateBranch(ctx, &in.source); err != nil {
		return nil, errors.E(op, err)
	}
	servermon.MergeCount.WithLabelValues(databaseID, "merge", "completed").Inc()
	servermon.BranchCount.WithLabelValues(databaseID).Dec()
	zapctx.Info(ctx, "branch merged",
		zap.String("database", databaseID),
		zap.String("source", sourceName),
		zap.String("target", targetName),
		zap.String("commit", commit.Hash),
		zap.String("user", u.ID))
	return &MergeResult{
		Completed:  true,
		CommitHash: commit.Hash,
		Conflicts:  res.Conflicts,
		Validation: &validation,
	}, nil
}

// Rebase replays the source branch's changes since the common ancestor
// on top of the target branch and moves the source branch pointer to
// the resulting commit. The rebased commit records the target tip as
// its parent and the source branch is reparented onto the target.
func (c *ConDB) Rebase(ctx context.Context, u Identity, databaseID, sourceName, targetName string, force bool) (*MergeResult, error) {
	const op = errors.Op("condb.Rebase")

	lock := c.databaseLock(databaseID)
	lock.Lock()
	defer lock.Unlock()

	wc := dbmodel.WorkingCommit{DatabaseID: databaseID, BranchName: sourceName}
	err := c.Store.LiveWorkingCommit(ctx, &wc)
	switch {
	case err == nil:
		return nil, errors.E(op, errors.CodeConflict,
			"branch has a live working commit in status "+string(wc.Status))
	case errors.ErrorCode(err) != errors.CodeWorkingCommitNotFound:
		return nil, errors.E(op, err)
	}

	in, err := c.mergeInputs(ctx, databaseID, sourceName, targetName)
	if err != nil {
		return nil, errors.E(op, err)
	}
	if in.targetHash == "" || in.ancestorHash == in.targetHash {
		return nil, errors.E(op, errors.CodeNoChanges,
			fmt.Sprintf("branch %q is already up to date with %q", sourceName, targetName))
	}

	res := merge.ThreeWay(&in.base, &in.sourcePay, &in.targetPay)
	message := fmt.Sprintf("rebase %s onto %s", sourceName, targetName)
	state := dbmodel.MergeState{
		AncestorHash: in.ancestorHash,
		SourceBranch: targetName,
		SourceHash:   in.sourceHash,
		TargetHash:   in.targetHash,
		Rebase:       true,
		Conflicts:    res.Conflicts,
	}

	if !res.Clean() && !force {
		nwc, err := c.stageMerge(ctx, &in.source, u.ID, dbmodel.WorkingCommitStatusRebasing, res.Payload, state)
		if err != nil {
			return nil, errors.E(op, err)
		}
		servermon.MergeCount.WithLabelValues(databaseID, "rebase", "conflicts").Inc()
		servermon.MergeConflictCount.WithLabelValues(databaseID).Add(float64(len(res.Conflicts)))
		zapctx.Info(ctx, "rebase stopped on conflicts",
			zap.String("database", databaseID),
			zap.String("branch", sourceName),
			zap.String("onto", targetName),
			zap.Int("conflicts", len(res.Conflicts)),
			zap.String("working-commit", nwc.ID))
		return &MergeResult{WorkingCommitID: nwc.ID, Conflicts: res.Conflicts}, nil
	}

	validation := validate.View(resolve.NewPayloadView(&res.Payload))
	if !validation.Valid && !force {
		return nil, errors.E(op, errors.CodeValidationConflict,
			fmt.Sprintf("rebased state has %d validation errors", len(validation.Errors)))
	}

	commit, err := c.writeRebasedCommit(ctx, &in.source, &in.target, u.ID, res.Payload, message)
	if err != nil {
		return nil, errors.E(op, err)
	}
	servermon.MergeCount.WithLabelValues(databaseID, "rebase", "completed").Inc()
	zapctx.Info(ctx, "branch rebased",
		zap.String("database", databaseID),
		zap.String("branch", sourceName),
		zap.String("onto", targetName),
		zap.String("commit", commit.Hash),
		zap.String("user", u.ID))
	return &MergeResult{
		Completed:  true,
		CommitHash: commit.Hash,
		Conflicts:  res.Conflicts,
		Validation: &validation,
	}, nil
}

// ValidateMerge runs the merge of source into target without changing
// any state and reports whether it would complete.
func (c *ConDB) ValidateMerge(ctx context.Context, databaseID, sourceName, targetName string) (*MergeCheck, error) {
	const op = errors.Op("condb.ValidateMerge")

	check, err := c.mergeCheck(ctx, databaseID, sourceName, targetName)
	if err != nil {
		return nil, errors.E(op, err)
	}
	return check, nil
}

// ValidateRebase runs the rebase of source onto target without changing
// any state and reports whether it would complete.
func (c *ConDB) ValidateRebase(ctx context.Context, databaseID, sourceName, targetName string) (*MergeCheck, error) {
	const op = errors.Op("condb.ValidateRebase")

	check, err := c.mergeCheck(ctx, databaseID, sourceName, targetName)
	if err != nil {
		return nil, errors.E(op, err)
	}
	return check, nil
}

func (c *ConDB) mergeCheck(ctx context.Context, databaseID, sourceName, targetName string) (*MergeCheck, error) {
	in, err := c.mergeInputs(ctx, databaseID, sourceName, targetName)
	if err != nil {
		return nil, err
	}
	res := merge.ThreeWay(&in.base, &in.sourcePay, &in.targetPay)
	validation := validate.View(resolve.NewPayloadView(&res.Payload))
	check := MergeCheck{
		CanMerge:          res.Clean() && validation.Valid,
		AncestorHash:      in.ancestorHash,
		Conflicts:         res.Conflicts,
		AffectedInstances: merge.AffectedInstances(&in.base, &in.sourcePay, &in.targetPay),
		Validation:        validation,
	}
	if check.Conflicts == nil {
		check.Conflicts = []merge.Conflict{}
	}
	if check.AffectedInstances == nil {
		check.AffectedInstances = []string{}
	}
	return &check, nil
}

// ResolveMergeConflicts completes a merge or rebase that was stopped on
// conflicts. The working commit's draft, including any edits made to it
// through the working commit payload, becomes the new commit.
func (c *ConDB) ResolveMergeConflicts(ctx context.Context, u Identity, databaseID, branchName string) (*MergeResult, error) {
	const op = errors.Op("condb.ResolveMergeConflicts")

	lock := c.databaseLock(databaseID)
	lock.Lock()
	defer lock.Unlock()

	wc := dbmodel.WorkingCommit{DatabaseID: databaseID, BranchName: branchName}
	if err := c.Store.LiveWorkingCommit(ctx, &wc); err != nil {
		return nil, errors.E(op, err)
	}
	if wc.Status != dbmodel.WorkingCommitStatusMerging && wc.Status != dbmodel.WorkingCommitStatusRebasing {
		return nil, errors.E(op, errors.CodeConflict,
			"working commit is in status "+string(wc.Status))
	}
	if wc.MergeState == nil {
		return nil, errors.E(op, errors.CodeServerConfiguration, "working commit has no merge state")
	}
	state := *wc.MergeState

	payload := wc.Payload()
	validation := validate.View(resolve.NewPayloadView(&payload))
	if !validation.Valid {
		return nil, errors.E(op, errors.CodeValidationConflict,
			fmt.Sprintf("resolved state has %d validation errors", len(validation.Errors)))
	}

	if wc.Status == dbmodel.WorkingCommitStatusRebasing {
		source := dbmodel.Branch{DatabaseID: databaseID, Name: branchName}
		if err := c.Store.GetBranch(ctx, &source); err != nil {
			return nil, errors.E(op, err)
		}
		target := dbmodel.Branch{DatabaseID: databaseID, Name: state.SourceBranch}
		if err := c.Store.GetBranch(ctx, &target); err != nil {
			return nil, errors.E(op, err)
		}
		if !target.CurrentCommitHash.Valid || target.CurrentCommitHash.String != state.TargetHash {
			return nil, errors.E(op, errors.CodeConflict,
				fmt.Sprintf("branch %q has moved since the rebase started", target.Name))
		}
		message := fmt.Sprintf("rebase %s onto %s", branchName, target.Name)
		commit, err := c.writeRebasedCommit(ctx, &source, &target, u.ID, payload, message)
		if err != nil {
			return nil, errors.E(op, err)
		}
		if err := c.Store.DeleteWorkingCommit(ctx, &wc); err != nil {
			zapctx.Error(ctx, "cannot delete resolved working commit",
				zap.String("working-commit", wc.ID), zap.Error(err))
		}
		return &MergeResult{Completed: true, CommitHash: commit.Hash, Validation: &validation}, nil
	}

	message := fmt.Sprintf("merge %s into %s", state.SourceBranch, branchName)
	commit, err := c.finishWorkingCommit(ctx, &wc, message, u.ID)
	if err != nil {
		return nil, errors.E(op, err)
	}
	source := dbmodel.Branch{DatabaseID: databaseID, Name: state.SourceBranch}
	if err := c.Store.GetBranch(ctx, &source); err != nil {
		return nil, errors.E(op, err)
	}
	source.Status = dbmodel.BranchStatusMerged
	source.UpdatedAt = c.now()
	if err := c.Store.UpdateBranch(ctx, &source); err != nil {
		return nil, errors.E(op, err)
	}
	servermon.BranchCount.WithLabelValues(databaseID).Dec()
	zapctx.Info(ctx, "merge conflicts resolved",
		zap.String("database", databaseID),
		zap.String("source", state.SourceBranch),
		zap.String("target", branchName),
		zap.String("commit", commit.Hash),
		zap.String("user", u.ID))
	return &MergeResult{Completed: true, CommitHash: commit.Hash, Validation: &validation}, nil
}

// AbortMerge discards a merge or rebase that was stopped on conflicts,
// deleting the working commit that held it.
func (c *ConDB) AbortMerge(ctx context.Context, u Identity, databaseID, branchName string) error {
	const op = errors.Op("condb.AbortMerge")

	lock := c.databaseLock(databaseID)
	lock.Lock()
	defer lock.Unlock()

	wc := dbmodel.WorkingCommit{DatabaseID: databaseID, BranchName: branchName}
	if err := c.Store.LiveWorkingCommit(ctx, &wc); err != nil {
		return errors.E(op, err)
	}
	if wc.Status != dbmodel.WorkingCommitStatusMerging && wc.Status != dbmodel.WorkingCommitStatusRebasing {
		return errors.E(op, errors.CodeConflict,
			"working commit is in status "+string(wc.Status))
	}
	if err := c.Store.DeleteWorkingCommit(ctx, &wc); err != nil {
		return errors.E(op, err)
	}
	zapctx.Info(ctx, "merge aborted",
		zap.String("database", databaseID),
		zap.String("branch", branchName),
		zap.String("working-commit", wc.ID),
		zap.String("user", u.ID))
	return nil
}

// stageMerge opens a working commit on the branch holding the partial
// merge payload and the merge state. The caller must hold the database
// lock.
func (c *ConDB) stageMerge(ctx context.Context, branch *dbmodel.Branch, author string, status dbmodel.WorkingCommitStatus, payload model.Payload, state dbmodel.MergeState) (*dbmodel.WorkingCommit, error) {
	wc, err := c.newWorkingCommit(ctx, branch, author, status)
	if err != nil {
		return nil, err
	}
	wc.SetPayload(payload)
	wc.MergeState = &state
	wc.UpdatedAt = c.now()
	if err := c.Store.UpdateWorkingCommit(ctx, wc); err != nil {
		return nil, err
	}
	return wc, nil
}

// commitMerge stages the merged payload on a working commit and
// immediately turns it into a commit on the branch. The caller must
// hold the database lock.
func (c *ConDB) commitMerge(ctx context.Context, branch *dbmodel.Branch, author string, status dbmodel.WorkingCommitStatus, payload model.Payload, state dbmodel.MergeState, message string) (*dbmodel.Commit, error) {
	wc, err := c.stageMerge(ctx, branch, author, status, payload, state)
	if err != nil {
		return nil, err
	}
	commit, err := c.finishWorkingCommit(ctx, wc, message, author)
	if err != nil {
		if derr := c.Store.DeleteWorkingCommit(ctx, wc); derr != nil {
			zapctx.Error(ctx, "cannot delete staged merge working commit",
				zap.String("working-commit", wc.ID), zap.Error(derr))
		}
		return nil, err
	}
	return commit, nil
}

// writeRebasedCommit writes the rebased payload as a commit whose parent
// is the target branch's tip and moves the source branch onto it,
// recording the target as the source's parent branch. The caller must
// hold the database lock.
func (c *ConDB) writeRebasedCommit(ctx context.Context, source, target *dbmodel.Branch, author string, payload model.Payload, message string) (*dbmodel.Commit, error) {
	canonical, err := model.CanonicalPayload(payload)
	if err != nil {
		return nil, err
	}
	commit := dbmodel.Commit{
		DatabaseID: source.DatabaseID,
		ParentHash: target.CurrentCommitHash,
		Author:     author,
		Message:    message,
		CreatedAt:  c.now(),
	}
	if _, err := commit.SetPayload(payload); err != nil {
		return nil, err
	}
	parentHash := ""
	if target.CurrentCommitHash.Valid {
		parentHash = target.CurrentCommitHash.String
	}
	commit.Hash = model.CommitHash(source.DatabaseID, parentHash, author, message, canonical)
	if err := c.Store.AddCommit(ctx, &commit); err != nil {
		return nil, err
	}
	source.CurrentCommitHash = sql.NullString{String: commit.Hash, Valid: true}
	source.ParentBranchName = sql.NullString{String: target.Name, Valid: true}
	source.UpdatedAt = c.now()
	if err := c.Store.UpdateBranch(ctx, source); err != nil {
		return nil, err
	}
	return &commit, nil
}
