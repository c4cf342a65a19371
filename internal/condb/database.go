// Copyright 2026 Canonical.

package condb

import (
	"context"

	"github.com/google/uuid"
	"github.com/juju/zaputil/zapctx"
	"go.uber.org/zap"

	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/servermon"
)

// DefaultBranchName is the name of the branch created with every
// database.
const DefaultBranchName = "main"

// AddDatabase creates a new database together with its default branch.
func (c *ConDB) AddDatabase(ctx context.Context, u Identity, name, description string) (*dbmodel.Database, error) {
	const op = errors.Op("condb.AddDatabase")

	if name == "" {
		return nil, errors.E(op, errors.CodeBadRequest, "database name not specified")
	}
	now := c.now()
	database := dbmodel.Database{
		ID:                uuid.NewString(),
		CreatedAt:         now,
		UpdatedAt:         now,
		Name:              name,
		Description:       description,
		DefaultBranchName: DefaultBranchName,
	}
	if err := c.Store.AddDatabase(ctx, &database); err != nil {
		return nil, errors.E(op, err)
	}
	branch := dbmodel.Branch{
		DatabaseID: database.ID,
		Name:       DefaultBranchName,
		CreatedAt:  now,
		UpdatedAt:  now,
		Status:     dbmodel.BranchStatusActive,
	}
	if err := c.Store.AddBranch(ctx, &branch); err != nil {
		return nil, errors.E(op, err)
	}
	servermon.DatabaseCount.Inc()
	servermon.BranchCount.WithLabelValues(database.ID).Inc()
	zapctx.Info(ctx, "database created",
		zap.String("database", database.ID),
		zap.String("name", name),
		zap.String("user", u.ID))
	return &database, nil
}

// GetDatabase returns the database with the given ID.
func (c *ConDB) GetDatabase(ctx context.Context, databaseID string) (*dbmodel.Database, error) {
	const op = errors.Op("condb.GetDatabase")

	database := dbmodel.Database{ID: databaseID}
	if err := c.Store.GetDatabase(ctx, &database); err != nil {
		return nil, errors.E(op, err)
	}
	return &database, nil
}

// ListDatabases returns every database in name order.
func (c *ConDB) ListDatabases(ctx context.Context) ([]dbmodel.Database, error) {
	const op = errors.Op("condb.ListDatabases")

	var databases []dbmodel.Database
	err := c.Store.ForEachDatabase(ctx, func(d *dbmodel.Database) error {
		databases = append(databases, *d)
		return nil
	})
	if err != nil {
		return nil, errors.E(op, err)
	}
	return databases, nil
}

// DeleteDatabase removes an empty database. A database that has any
// commits, any branch besides the default branch, or a live working
// commit cannot be deleted.
func (c *ConDB) DeleteDatabase(ctx context.Context, u Identity, databaseID string) error {
	const op = errors.Op("condb.DeleteDatabase")

	lock := c.databaseLock(databaseID)
	lock.Lock()
	defer lock.Unlock()

	database := dbmodel.Database{ID: databaseID}
	if err := c.Store.GetDatabase(ctx, &database); err != nil {
		return errors.E(op, err)
	}
	commits, err := c.Store.CountCommits(ctx, databaseID)
	if err != nil {
		return errors.E(op, err)
	}
	if commits > 0 {
		return errors.E(op, errors.CodeBranchNotEmpty, "database has commits")
	}
	branches, err := c.Store.CountBranches(ctx, databaseID)
	if err != nil {
		return errors.E(op, err)
	}
	if branches > 1 {
		return errors.E(op, errors.CodeConflict, "database has branches besides the default branch")
	}
	working, err := c.Store.CountLiveWorkingCommits(ctx, databaseID)
	if err != nil {
		return errors.E(op, err)
	}
	if working > 0 {
		return errors.E(op, errors.CodeConflict, "database has a live working commit")
	}

	branch := dbmodel.Branch{DatabaseID: databaseID, Name: database.DefaultBranchName}
	if err := c.Store.GetBranch(ctx, &branch); err == nil {
		if err := c.Store.DeleteBranch(ctx, &branch); err != nil {
			return errors.E(op, err)
		}
	}
	if err := c.Store.DeleteDatabase(ctx, &database); err != nil {
		return errors.E(op, err)
	}
	servermon.DatabaseCount.Dec()
	servermon.BranchCount.DeleteLabelValues(databaseID)
	zapctx.Info(ctx, "database deleted",
		zap.String("database", databaseID),
		zap.String("user", u.ID))
	return nil
}
