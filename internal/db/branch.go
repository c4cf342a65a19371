// Copyright 2026 Canonical.

package db

import (
	"context"

	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/servermon"
)

// AddBranch stores the branch record.
func (d *Database) AddBranch(ctx context.Context, branch *dbmodel.Branch) (err error) {
	const op = errors.Op("db.AddBranch")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	db := d.DB.WithContext(ctx)

	if err := db.Create(branch).Error; err != nil {
		return errors.E(op, dbError(err))
	}
	return nil
}

// GetBranch returns the branch record matching the database ID and
// branch name.
func (d *Database) GetBranch(ctx context.Context, branch *dbmodel.Branch) (err error) {
	const op = errors.Op("db.GetBranch")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	db := d.DB.WithContext(ctx)

	db = db.Where("database_id = ? AND name = ?", branch.DatabaseID, branch.Name)
	if err := db.First(&branch).Error; err != nil {
		err = dbError(err)
		if errors.ErrorCode(err) == errors.CodeNotFound {
			return errors.E(op, err, errors.CodeBranchNotFound, "branch not found")
		}
		return errors.E(op, err)
	}
	return nil
}

// UpdateBranch updates the given branch record.
func (d *Database) UpdateBranch(ctx context.Context, branch *dbmodel.Branch) (err error) {
	const op = errors.Op("db.UpdateBranch")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	if branch.DatabaseID == "" || branch.Name == "" {
		return errors.E(op, errors.CodeBranchNotFound, "branch not found")
	}

	db := d.DB.WithContext(ctx)
	if err := db.Save(branch).Error; err != nil {
		return errors.E(op, dbError(err))
	}
	return nil
}

// DeleteBranch removes the specified branch record.
func (d *Database) DeleteBranch(ctx context.Context, branch *dbmodel.Branch) (err error) {
	const op = errors.Op("db.DeleteBranch")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	if branch.DatabaseID == "" || branch.Name == "" {
		return errors.E(op, errors.CodeBranchNotFound, "branch not found")
	}

	db := d.DB.WithContext(ctx)
	if err := db.Delete(branch).Error; err != nil {
		return errors.E(op, dbError(err))
	}
	return nil
}

// ForEachBranch iterates through every branch of the given database in
// name order calling the given function for each one. If the given
// function returns an error the iteration will stop immediately and the
// error will be returned unmodified.
func (d *Database) ForEachBranch(ctx context.Context, databaseID string, f func(*dbmodel.Branch) error) (err error) {
	const op = errors.Op("db.ForEachBranch")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))

	db := d.DB.WithContext(ctx)
	rows, err := db.Model(&dbmodel.Branch{}).Where("database_id = ?", databaseID).Order("name asc").Rows()
	if err != nil {
		return errors.E(op, dbError(err))
	}
	defer rows.Close()
	for rows.Next() {
		var branch dbmodel.Branch
		if err := db.ScanRows(rows, &branch); err != nil {
			return errors.E(op, dbError(err))
		}
		if err := f(&branch); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return errors.E(op, dbError(err))
	}
	return nil
}

// CountBranches returns the number of branches of the given database.
func (d *Database) CountBranches(ctx context.Context, databaseID string) (count int, err error) {
	const op = errors.Op("db.CountBranches")
	if err := d.ready(); err != nil {
		return 0, errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))

	db := d.DB.WithContext(ctx)
	var n int64
	if err := db.Model(&dbmodel.Branch{}).Where("database_id = ?", databaseID).Count(&n).Error; err != nil {
		return 0, errors.E(op, dbError(err))
	}
	return int(n), nil
}
