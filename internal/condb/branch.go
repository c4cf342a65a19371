// Copyright 2026 Canonical.

package condb

import (
	"context"
	"database/sql"

	"github.com/juju/zaputil/zapctx"
	"go.uber.org/zap"

	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/servermon"
)

// AddBranch forks a new branch from the given parent branch. The new
// branch shares the parent's current commit, no payload data is copied.
func (c *ConDB) AddBranch(ctx context.Context, u Identity, databaseID, name, parent, description string) (*dbmodel.Branch, error) {
	const op = errors.Op("condb.AddBranch")

	if name == "" {
		return nil, errors.E(op, errors.CodeBadRequest, "branch name not specified")
	}
	lock := c.databaseLock(databaseID)
	lock.Lock()
	defer lock.Unlock()

	database := dbmodel.Database{ID: databaseID}
	if err := c.Store.GetDatabase(ctx, &database); err != nil {
		return nil, errors.E(op, err)
	}
	if parent == "" {
		parent = database.DefaultBranchName
	}
	parentBranch := dbmodel.Branch{DatabaseID: databaseID, Name: parent}
	if err := c.Store.GetBranch(ctx, &parentBranch); err != nil {
		return nil, errors.E(op, err)
	}

	now := c.now()
	branch := dbmodel.Branch{
		DatabaseID:        databaseID,
		Name:              name,
		CreatedAt:         now,
		UpdatedAt:         now,
		Description:       description,
		CurrentCommitHash: parentBranch.CurrentCommitHash,
		ParentBranchName:  sql.NullString{String: parent, Valid: true},
		Status:            dbmodel.BranchStatusActive,
	}
	if err := c.Store.AddBranch(ctx, &branch); err != nil {
		return nil, errors.E(op, err)
	}
	servermon.BranchCount.WithLabelValues(databaseID).Inc()
	zapctx.Info(ctx, "branch created",
		zap.String("database", databaseID),
		zap.String("branch", name),
		zap.String("parent", parent),
		zap.String("user", u.ID))
	return &branch, nil
}

// GetBranch returns the named branch.
func (c *ConDB) GetBranch(ctx context.Context, databaseID, name string) (*dbmodel.Branch, error) {
	const op = errors.Op("condb.GetBranch")

	branch := dbmodel.Branch{DatabaseID: databaseID, Name: name}
	if err := c.Store.GetBranch(ctx, &branch); err != nil {
		return nil, errors.E(op, err)
	}
	return &branch, nil
}

// ListBranches returns the branches of a database in name order. If
// status is not empty only branches with that status are returned.
func (c *ConDB) ListBranches(ctx context.Context, databaseID string, status dbmodel.BranchStatus) ([]dbmodel.Branch, error) {
	const op = errors.Op("condb.ListBranches")

	database := dbmodel.Database{ID: databaseID}
	if err := c.Store.GetDatabase(ctx, &database); err != nil {
		return nil, errors.E(op, err)
	}
	var branches []dbmodel.Branch
	err := c.Store.ForEachBranch(ctx, databaseID, func(b *dbmodel.Branch) error {
		if status != "" && b.Status != status {
			return nil
		}
		branches = append(branches, *b)
		return nil
	})
	if err != nil {
		return nil, errors.E(op, err)
	}
	return branches, nil
}

// DeleteBranch archives a branch. The default branch cannot be
// archived, and a branch with a live working commit must have it
// committed or abandoned first.
func (c *ConDB) DeleteBranch(ctx context.Context, u Identity, databaseID, name string) error {
	const op = errors.Op("condb.DeleteBranch")

	lock := c.databaseLock(databaseID)
	lock.Lock()
	defer lock.Unlock()

	database := dbmodel.Database{ID: databaseID}
	if err := c.Store.GetDatabase(ctx, &database); err != nil {
		return errors.E(op, err)
	}
	if name == database.DefaultBranchName {
		return errors.E(op, errors.CodeBadRequest, "the default branch cannot be deleted")
	}
	branch := dbmodel.Branch{DatabaseID: databaseID, Name: name}
	if err := c.Store.GetBranch(ctx, &branch); err != nil {
		return errors.E(op, err)
	}
	wc := dbmodel.WorkingCommit{DatabaseID: databaseID, BranchName: name}
	if err := c.Store.LiveWorkingCommit(ctx, &wc); err == nil {
		return errors.E(op, errors.CodeConflict, "branch has a live working commit")
	} else if errors.ErrorCode(err) != errors.CodeWorkingCommitNotFound {
		return errors.E(op, err)
	}

	branch.Status = dbmodel.BranchStatusArchived
	branch.UpdatedAt = c.now()
	if err := c.Store.UpdateBranch(ctx, &branch); err != nil {
		return errors.E(op, err)
	}
	servermon.BranchCount.WithLabelValues(databaseID).Dec()
	zapctx.Info(ctx, "branch archived",
		zap.String("database", databaseID),
		zap.String("branch", name),
		zap.String("user", u.ID))
	return nil
}
