// Copyright 2026 Canonical.

package condb

import (
	"context"
	"fmt"

	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/model"
)

// A View is a point-in-time materialization of a database ref: the
// payload the ref points at together with how the ref was resolved.
type View struct {
	// DatabaseID is the database the view was resolved in.
	DatabaseID string

	// BranchName is set when the ref named a branch or a working
	// commit.
	BranchName string

	// CommitHash is set when the view is backed by a commit.
	CommitHash string

	// WorkingCommitID is set when the ref named a working commit.
	WorkingCommitID string

	// Payload is the materialized schema and instances.
	Payload model.Payload
}

// ResolveView materializes the given ref. A ref is either a branch
// name, a commit hash or a working commit id. A branch ref resolves to
// the branch's current commit, or to an empty payload for a newborn
// branch.
func (c *ConDB) ResolveView(ctx context.Context, databaseID, ref string) (*View, error) {
	const op = errors.Op("condb.ResolveView")

	if ref == "" {
		database := dbmodel.Database{ID: databaseID}
		if err := c.Store.GetDatabase(ctx, &database); err != nil {
			return nil, errors.E(op, err)
		}
		ref = database.DefaultBranchName
	}

	branch := dbmodel.Branch{DatabaseID: databaseID, Name: ref}
	err := c.Store.GetBranch(ctx, &branch)
	switch {
	case err == nil:
		view := View{DatabaseID: databaseID, BranchName: ref}
		if !branch.CurrentCommitHash.Valid {
			return &view, nil
		}
		view.CommitHash = branch.CurrentCommitHash.String
		view.Payload, err = c.commitPayload(ctx, databaseID, view.CommitHash)
		if err != nil {
			return nil, errors.E(op, err)
		}
		return &view, nil
	case errors.ErrorCode(err) != errors.CodeBranchNotFound:
		return nil, errors.E(op, err)
	}

	if isCommitHash(ref) {
		payload, err := c.commitPayload(ctx, databaseID, ref)
		if err == nil {
			return &View{DatabaseID: databaseID, CommitHash: ref, Payload: payload}, nil
		}
		if errors.ErrorCode(err) != errors.CodeCommitNotFound {
			return nil, errors.E(op, err)
		}
	}

	wc := dbmodel.WorkingCommit{ID: ref}
	if err := c.Store.GetWorkingCommit(ctx, &wc); err == nil {
		if wc.DatabaseID != databaseID {
			return nil, errors.E(op, errors.CodeWorkingCommitNotFound, "working commit not found")
		}
		return &View{
			DatabaseID:      databaseID,
			BranchName:      wc.BranchName,
			WorkingCommitID: wc.ID,
			Payload:         wc.Payload(),
		}, nil
	}
	return nil, errors.E(op, errors.CodeNotFound, fmt.Sprintf("cannot resolve ref %q", ref))
}

// commitPayload loads and decodes the payload of the given commit.
func (c *ConDB) commitPayload(ctx context.Context, databaseID, hash string) (model.Payload, error) {
	commit := dbmodel.Commit{Hash: hash, DatabaseID: databaseID}
	if err := c.Store.GetCommit(ctx, &commit); err != nil {
		return model.Payload{}, err
	}
	return commit.Payload()
}

// commitParent returns a function walking the parent chain of commits
// in the given database, suitable for ancestor searches. The function
// returns an empty hash for a root commit.
func (c *ConDB) commitParent(ctx context.Context, databaseID string) func(hash string) (string, error) {
	return func(hash string) (string, error) {
		commit := dbmodel.Commit{Hash: hash, DatabaseID: databaseID}
		if err := c.Store.GetCommit(ctx, &commit); err != nil {
			return "", err
		}
		if !commit.ParentHash.Valid {
			return "", nil
		}
		return commit.ParentHash.String, nil
	}
}

// ListCommits returns the commits of a database, newest first. The
// payload bytes are omitted from the returned records.
func (c *ConDB) ListCommits(ctx context.Context, databaseID string) ([]dbmodel.Commit, error) {
	const op = errors.Op("condb.ListCommits")

	database := dbmodel.Database{ID: databaseID}
	if err := c.Store.GetDatabase(ctx, &database); err != nil {
		return nil, errors.E(op, err)
	}
	var commits []dbmodel.Commit
	err := c.Store.ForEachCommit(ctx, databaseID, func(commit *dbmodel.Commit) error {
		commit.Data = nil
		commits = append(commits, *commit)
		return nil
	})
	if err != nil {
		return nil, errors.E(op, err)
	}
	return commits, nil
}

// GetCommit returns the commit with the given hash.
func (c *ConDB) GetCommit(ctx context.Context, databaseID, hash string) (*dbmodel.Commit, error) {
	const op = errors.Op("condb.GetCommit")

	commit := dbmodel.Commit{Hash: hash, DatabaseID: databaseID}
	if err := c.Store.GetCommit(ctx, &commit); err != nil {
		return nil, errors.E(op, err)
	}
	return &commit, nil
}

// CommitHistory walks the parent chain from the given commit, returning
// up to limit commits, the newest first. A limit of zero returns the
// whole chain.
func (c *ConDB) CommitHistory(ctx context.Context, databaseID, hash string, limit int) ([]dbmodel.Commit, error) {
	const op = errors.Op("condb.CommitHistory")

	var history []dbmodel.Commit
	for hash != "" {
		commit := dbmodel.Commit{Hash: hash, DatabaseID: databaseID}
		if err := c.Store.GetCommit(ctx, &commit); err != nil {
			return nil, errors.E(op, err)
		}
		commit.Data = nil
		history = append(history, commit)
		if limit > 0 && len(history) >= limit {
			break
		}
		if !commit.ParentHash.Valid {
			break
		}
		hash = commit.ParentHash.String
	}
	return history, nil
}

// isCommitHash reports whether the ref is shaped like a commit hash.
func isCommitHash(ref string) bool {
	if len(ref) != 64 {
		return false
	}
	for _, r := range ref {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
