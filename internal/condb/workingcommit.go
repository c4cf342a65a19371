// Copyright 2026 Canonical.

package condb

import (
	"bytes"
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/juju/zaputil/zapctx"
	"go.uber.org/zap"

	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/model"
	"github.com/condb/condb/internal/servermon"
)

// OpenWorkingCommit returns the branch's active working commit,
// creating one based on the branch's current commit if the branch has
// none. An error with a code of errors.CodeWorkingCommitExists is
// returned if the branch has a working commit in any other live status.
func (c *ConDB) OpenWorkingCommit(ctx context.Context, u Identity, databaseID, branchName string) (*dbmodel.WorkingCommit, error) {
	const op = errors.Op("condb.OpenWorkingCommit")

	lock := c.databaseLock(databaseID)
	lock.Lock()
	defer lock.Unlock()

	branch := dbmodel.Branch{DatabaseID: databaseID, Name: branchName}
	if err := c.Store.GetBranch(ctx, &branch); err != nil {
		return nil, errors.E(op, err)
	}

	existing := dbmodel.WorkingCommit{DatabaseID: databaseID, BranchName: branchName}
	err := c.Store.LiveWorkingCommit(ctx, &existing)
	switch {
	case err == nil:
		if existing.Status == dbmodel.WorkingCommitStatusActive {
			return &existing, nil
		}
		return nil, errors.E(op, errors.CodeWorkingCommitExists,
			"branch already has a working commit in status "+string(existing.Status))
	case errors.ErrorCode(err) != errors.CodeWorkingCommitNotFound:
		return nil, errors.E(op, err)
	}

	wc, err := c.newWorkingCommit(ctx, &branch, u.ID, dbmodel.WorkingCommitStatusActive)
	if err != nil {
		return nil, errors.E(op, err)
	}
	zapctx.Info(ctx, "working commit opened",
		zap.String("database", databaseID),
		zap.String("branch", branchName),
		zap.String("working-commit", wc.ID),
		zap.String("user", u.ID))
	return wc, nil
}

// newWorkingCommit creates a working commit on the given branch seeded
// with a deep copy of the branch's current commit payload. The caller
// must hold the database lock.
func (c *ConDB) newWorkingCommit(ctx context.Context, branch *dbmodel.Branch, author string, status dbmodel.WorkingCommitStatus) (*dbmodel.WorkingCommit, error) {
	var payload model.Payload
	if branch.CurrentCommitHash.Valid {
		base, err := c.commitPayload(ctx, branch.DatabaseID, branch.CurrentCommitHash.String)
		if err != nil {
			return nil, err
		}
		if payload, err = base.Clone(); err != nil {
			return nil, err
		}
	}
	now := c.now()
	wc := dbmodel.WorkingCommit{
		ID:          uuid.NewString(),
		CreatedAt:   now,
		UpdatedAt:   now,
		DatabaseID:  branch.DatabaseID,
		BranchName:  branch.Name,
		BasedOnHash: branch.CurrentCommitHash,
		Author:      author,
		Status:      status,
	}
	wc.SetPayload(payload)
	if err := c.Store.AddWorkingCommit(ctx, &wc); err != nil {
		return nil, err
	}
	servermon.WorkingCommitsOpenedCount.WithLabelValues(branch.DatabaseID).Inc()
	return &wc, nil
}

// GetWorkingCommit returns the branch's live working commit.
func (c *ConDB) GetWorkingCommit(ctx context.Context, databaseID, branchName string) (*dbmodel.WorkingCommit, error) {
	const op = errors.Op("condb.GetWorkingCommit")

	wc := dbmodel.WorkingCommit{DatabaseID: databaseID, BranchName: branchName}
	if err := c.Store.LiveWorkingCommit(ctx, &wc); err != nil {
		return nil, errors.E(op, err)
	}
	return &wc, nil
}

// WorkingCommitChanges summarizes a draft against the commit it was
// based on.
type WorkingCommitChanges struct {
	AddedClasses    []string `json:"added_classes"`
	ModifiedClasses []string `json:"modified_classes"`
	DeletedClasses  []string `json:"deleted_classes"`

	AddedInstances    []string `json:"added_instances"`
	ModifiedInstances []string `json:"modified_instances"`
	DeletedInstances  []string `json:"deleted_instances"`
}

// Changes computes the difference between the working commit's draft
// and the commit it was based on.
func (c *ConDB) Changes(ctx context.Context, wc *dbmodel.WorkingCommit) (*WorkingCommitChanges, error) {
	const op = errors.Op("condb.Changes")

	var base model.Payload
	if wc.BasedOnHash.Valid {
		var err error
		if base, err = c.commitPayload(ctx, wc.DatabaseID, wc.BasedOnHash.String); err != nil {
			return nil, errors.E(op, err)
		}
	}
	draft := wc.Payload()

	changes := WorkingCommitChanges{
		AddedClasses:      []string{},
		ModifiedClasses:   []string{},
		DeletedClasses:    []string{},
		AddedInstances:    []string{},
		ModifiedInstances: []string{},
		DeletedInstances:  []string{},
	}
	diffEntities(base.Schema.Classes, draft.Schema.Classes,
		func(cd model.ClassDef) string { return cd.ID },
		model.ClassDef.ContentEqual,
		&changes.AddedClasses, &changes.ModifiedClasses, &changes.DeletedClasses)
	diffEntities(base.Instances, draft.Instances,
		func(i model.Instance) string { return i.ID },
		model.Instance.ContentEqual,
		&changes.AddedInstances, &changes.ModifiedInstances, &changes.DeletedInstances)
	return &changes, nil
}

func diffEntities[T any](base, draft []T, id func(T) string, equal func(T, T) bool, added, modified, deleted *[]string) {
	baseByID := make(map[string]*T, len(base))
	for i := range base {
		baseByID[id(base[i])] = &base[i]
	}
	seen := make(map[string]bool, len(draft))
	for i := range draft {
		eid := id(draft[i])
		seen[eid] = true
		b, ok := baseByID[eid]
		switch {
		case !ok:
			*added = append(*added, eid)
		case !equal(*b, draft[i]):
			*modified = append(*modified, eid)
		}
	}
	for i := range base {
		if eid := id(base[i]); !seen[eid] {
			*deleted = append(*deleted, eid)
		}
	}
}

// UpdateWorkingCommitPayload replaces the draft of the branch's active
// working commit with the given payload.
func (c *ConDB) UpdateWorkingCommitPayload(ctx context.Context, u Identity, databaseID, branchName string, payload model.Payload) (*dbmodel.WorkingCommit, error) {
	const op = errors.Op("condb.UpdateWorkingCommitPayload")

	lock := c.databaseLock(databaseID)
	lock.Lock()
	defer lock.Unlock()

	wc := dbmodel.WorkingCommit{DatabaseID: databaseID, BranchName: branchName}
	if err := c.Store.LiveWorkingCommit(ctx, &wc); err != nil {
		return nil, errors.E(op, err)
	}
	if wc.Status != dbmodel.WorkingCommitStatusActive {
		return nil, errors.E(op, errors.CodeConflict,
			"working commit is in status "+string(wc.Status))
	}
	wc.SetPayload(payload)
	wc.UpdatedAt = c.now()
	if err := c.Store.UpdateWorkingCommit(ctx, &wc); err != nil {
		return nil, errors.E(op, err)
	}
	return &wc, nil
}

// CommitWorkingCommit turns the branch's active working commit into a
// commit and moves the branch pointer to it. The working commit is
// deleted on success and returned to active status on failure. An error
// with a code of errors.CodeNoChanges is returned when the draft is
// identical to the commit it was based on.
func (c *ConDB) CommitWorkingCommit(ctx context.Context, u Identity, databaseID, branchName, message, author string) (*dbmodel.Commit, error) {
	const op = errors.Op("condb.CommitWorkingCommit")

	if message == "" {
		return nil, errors.E(op, errors.CodeBadRequest, "commit message not specified")
	}
	lock := c.databaseLock(databaseID)
	lock.Lock()
	defer lock.Unlock()

	wc := dbmodel.WorkingCommit{DatabaseID: databaseID, BranchName: branchName}
	if err := c.Store.LiveWorkingCommit(ctx, &wc); err != nil {
		return nil, errors.E(op, err)
	}
	if wc.Status != dbmodel.WorkingCommitStatusActive {
		return nil, errors.E(op, errors.CodeConflict,
			"working commit is in status "+string(wc.Status))
	}
	if author == "" {
		author = u.ID
	}
	commit, err := c.finishWorkingCommit(ctx, &wc, message, author)
	if err != nil {
		return nil, errors.E(op, err)
	}
	zapctx.Info(ctx, "working commit committed",
		zap.String("database", databaseID),
		zap.String("branch", branchName),
		zap.String("commit", commit.Hash),
		zap.String("user", u.ID))
	return commit, nil
}

// finishWorkingCommit performs the commit protocol for a working commit
// that has already been vetted: flip to committing, write the commit
// record, advance the branch pointer and delete the working commit. Any
// failure returns the working commit to its previous status with the
// branch pointer untouched. The caller must hold the database lock.
func (c *ConDB) finishWorkingCommit(ctx context.Context, wc *dbmodel.WorkingCommit, message, author string) (*dbmodel.Commit, error) {
	branch := dbmodel.Branch{DatabaseID: wc.DatabaseID, Name: wc.BranchName}
	if err := c.Store.GetBranch(ctx, &branch); err != nil {
		return nil, err
	}
	if branch.CurrentCommitHash != wc.BasedOnHash {
		return nil, errors.E(errors.CodeConflict, "branch has moved since the working commit was opened")
	}

	payload := wc.Payload()
	canonical, err := model.CanonicalPayload(payload)
	if err != nil {
		return nil, err
	}
	if wc.BasedOnHash.Valid {
		base, err := c.commitPayload(ctx, wc.DatabaseID, wc.BasedOnHash.String)
		if err != nil {
			return nil, err
		}
		baseCanonical, err := model.CanonicalPayload(base)
		if err != nil {
			return nil, err
		}
		if bytes.Equal(canonical, baseCanonical) {
			return nil, errors.E(errors.CodeNoChanges, "working commit has no changes")
		}
	}

	prevStatus := wc.Status
	wc.Status = dbmodel.WorkingCommitStatusCommitting
	wc.UpdatedAt = c.now()
	if err := c.Store.UpdateWorkingCommit(ctx, wc); err != nil {
		return nil, err
	}
	revert := func() {
		wc.Status = prevStatus
		wc.UpdatedAt = c.now()
		if err := c.Store.UpdateWorkingCommit(ctx, wc); err != nil {
			zapctx.Error(ctx, "cannot return working commit to its previous status",
				zap.String("working-commit", wc.ID), zap.Error(err))
		}
	}

	parentHash := ""
	if wc.BasedOnHash.Valid {
		parentHash = wc.BasedOnHash.String
	}
	commit := dbmodel.Commit{
		DatabaseID: wc.DatabaseID,
		ParentHash: wc.BasedOnHash,
		Author:     author,
		Message:    message,
		CreatedAt:  c.now(),
	}
	if _, err := commit.SetPayload(payload); err != nil {
		revert()
		return nil, err
	}
	commit.Hash = model.CommitHash(wc.DatabaseID, parentHash, author, message, canonical)
	if err := c.Store.AddCommit(ctx, &commit); err != nil {
		revert()
		return nil, err
	}

	branch.CurrentCommitHash = sql.NullString{String: commit.Hash, Valid: true}
	branch.UpdatedAt = c.now()
	if err := c.Store.UpdateBranch(ctx, &branch); err != nil {
		revert()
		return nil, err
	}
	if err := c.Store.DeleteWorkingCommit(ctx, wc); err != nil {
		zapctx.Error(ctx, "cannot delete committed working commit",
			zap.String("working-commit", wc.ID), zap.Error(err))
	}
	servermon.CommitsCreatedCount.WithLabelValues(wc.DatabaseID).Inc()
	return &commit, nil
}

// AbandonWorkingCommit deletes the branch's live working commit without
// touching the branch.
func (c *ConDB) AbandonWorkingCommit(ctx context.Context, u Identity, databaseID, branchName string) error {
	const op = errors.Op("condb.AbandonWorkingCommit")

	lock := c.databaseLock(databaseID)
	lock.Lock()
	defer lock.Unlock()

	wc := dbmodel.WorkingCommit{DatabaseID: databaseID, BranchName: branchName}
	if err := c.Store.LiveWorkingCommit(ctx, &wc); err != nil {
		return errors.E(op, err)
	}
	if wc.Status == dbmodel.WorkingCommitStatusCommitting {
		return errors.E(op, errors.CodeConflict, "working commit is being committed")
	}
	if err := c.Store.DeleteWorkingCommit(ctx, &wc); err != nil {
		return errors.E(op, err)
	}
	zapctx.Info(ctx, "working commit abandoned",
		zap.String("database", databaseID),
		zap.String("branch", branchName),
		zap.String("working-commit", wc.ID),
		zap.String("user", u.ID))
	return nil
}
