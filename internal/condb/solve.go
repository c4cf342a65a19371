// Copyright 2026 Canonical.

package condb

import (
	"context"
	"database/sql"
	"time"

	"github.com/juju/zaputil/zapctx"
	"go.uber.org/zap"

	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/model"
	"github.com/condb/condb/internal/servermon"
	"github.com/condb/condb/internal/solve"
)

// Solve runs the solve pipeline over the given ref and persists the
// resulting artifact. Instances on the tips of the database's other
// active branches are offered to the solver as external candidates. A
// solve whose validate phase finds errors is aborted, and nothing is
// persisted, unless force is set.
func (c *ConDB) Solve(ctx context.Context, u Identity, databaseID, ref string, policies solve.Policies, force bool) (_ *solve.Artifact, err error) {
	const op = errors.Op("condb.Solve")
	durationObserver := servermon.DurationObserver(servermon.SolveDurationHistogram, databaseID)
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.SolveErrorCount, &err, databaseID)

	view, err := c.ResolveView(ctx, databaseID, ref)
	if err != nil {
		return nil, errors.E(op, err)
	}
	external, err := c.externalInstances(ctx, databaseID, view.BranchName)
	if err != nil {
		return nil, errors.E(op, err)
	}

	solver := solve.Solver{Clock: c.Clock}
	art, err := solver.Solve(ctx, solve.Request{
		Scope: solve.Scope{
			DatabaseID: databaseID,
			BranchID:   view.BranchName,
			CommitHash: view.CommitHash,
		},
		Policies: policies,
		Payload:  &view.Payload,
		External: external,
		Force:    force,
	})
	if err != nil {
		return nil, errors.E(op, err)
	}

	record := dbmodel.Artifact{
		ID:         art.ID,
		CreatedAt:  art.CreatedAt,
		DatabaseID: databaseID,
	}
	if view.BranchName != "" {
		record.BranchName = sql.NullString{String: view.BranchName, Valid: true}
	}
	if view.CommitHash != "" {
		record.CommitHash = sql.NullString{String: view.CommitHash, Valid: true}
	}
	if err := record.SetBody(art); err != nil {
		return nil, errors.E(op, err)
	}
	if err := c.Store.AddArtifact(ctx, &record); err != nil {
		return nil, errors.E(op, err)
	}
	zapctx.Info(ctx, "solve completed",
		zap.String("database", databaseID),
		zap.String("scope", art.Scope.String()),
		zap.String("artifact", art.ID),
		zap.Bool("valid", art.Validation.Valid),
		zap.String("user", u.ID))
	return art, nil
}

// externalInstances collects the instances on the tips of the
// database's active branches other than the given one, keyed by
// instance id. The first branch in name order wins a duplicated id.
func (c *ConDB) externalInstances(ctx context.Context, databaseID, branchName string) (map[string]*model.Instance, error) {
	external := make(map[string]*model.Instance)
	err := c.Store.ForEachBranch(ctx, databaseID, func(b *dbmodel.Branch) error {
		if b.Name == branchName || b.Status != dbmodel.BranchStatusActive || !b.CurrentCommitHash.Valid {
			return nil
		}
		payload, err := c.commitPayload(ctx, databaseID, b.CurrentCommitHash.String)
		if err != nil {
			return err
		}
		for i := range payload.Instances {
			inst := payload.Instances[i]
			if _, ok := external[inst.ID]; !ok {
				external[inst.ID] = &inst
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return external, nil
}

// GetArtifact returns a stored solve artifact.
func (c *ConDB) GetArtifact(ctx context.Context, databaseID, id string) (*solve.Artifact, error) {
	const op = errors.Op("condb.GetArtifact")

	record := dbmodel.Artifact{ID: id}
	if err := c.Store.GetArtifact(ctx, &record); err != nil {
		return nil, errors.E(op, err)
	}
	if record.DatabaseID != databaseID {
		return nil, errors.E(op, errors.CodeNotFound, "artifact not found")
	}
	art, err := record.DecodeBody()
	if err != nil {
		return nil, errors.E(op, err)
	}
	return art, nil
}

// An ArtifactSummary describes a stored artifact without its full
// configuration body.
type ArtifactSummary struct {
	ID         string           `json:"id"`
	CreatedAt  time.Time        `json:"created_at"`
	Scope      solve.Scope      `json:"scope"`
	Statistics solve.Statistics `json:"statistics"`
	IssueCount int              `json:"issue_count"`
	Valid      bool             `json:"valid"`
}

// ListArtifacts returns summaries of a database's stored artifacts,
// newest first.
func (c *ConDB) ListArtifacts(ctx context.Context, databaseID string) ([]ArtifactSummary, error) {
	const op = errors.Op("condb.ListArtifacts")

	database := dbmodel.Database{ID: databaseID}
	if err := c.Store.GetDatabase(ctx, &database); err != nil {
		return nil, errors.E(op, err)
	}
	var summaries []ArtifactSummary
	err := c.Store.ForEachArtifact(ctx, databaseID, func(record *dbmodel.Artifact) error {
		art, err := record.DecodeBody()
		if err != nil {
			return err
		}
		summaries = append(summaries, ArtifactSummary{
			ID:         art.ID,
			CreatedAt:  art.CreatedAt,
			Scope:      art.Scope,
			Statistics: art.Metadata.Statistics,
			IssueCount: len(art.Metadata.Issues),
			Valid:      art.Validation.Valid,
		})
		return nil
	})
	if err != nil {
		return nil, errors.E(op, err)
	}
	return summaries, nil
}
