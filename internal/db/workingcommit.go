// Copyright 2026 Canonical.

package db

import (
	"context"

	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/servermon"
)

// AddWorkingCommit stores the working commit record.
func (d *Database) AddWorkingCommit(ctx context.Context, wc *dbmodel.WorkingCommit) (err error) {
	const op = errors.Op("db.AddWorkingCommit")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	db := d.DB.WithContext(ctx)

	if err := db.Create(wc).Error; err != nil {
		err = dbError(err)
		if errors.ErrorCode(err) == errors.CodeAlreadyExists {
			return errors.E(op, err, errors.CodeWorkingCommitExists, "working commit already exists")
		}
		return errors.E(op, err)
	}
	return nil
}

// GetWorkingCommit returns the working commit record matching the ID.
func (d *Database) GetWorkingCommit(ctx context.Context, wc *dbmodel.WorkingCommit) (err error) {
	const op = errors.Op("db.GetWorkingCommit")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	db := d.DB.WithContext(ctx)

	db = db.Where("id = ?", wc.ID)
	if err := db.First(&wc).Error; err != nil {
		err = dbError(err)
		if errors.ErrorCode(err) == errors.CodeNotFound {
			return errors.E(op, err, errors.CodeWorkingCommitNotFound, "working commit not found")
		}
		return errors.E(op, err)
	}
	return nil
}

// LiveWorkingCommit fills wc with the live working commit of the branch
// named by wc.DatabaseID and wc.BranchName. An error with a code of
// errors.CodeWorkingCommitNotFound is returned if the branch has no
// working commit in a live status.
func (d *Database) LiveWorkingCommit(ctx context.Context, wc *dbmodel.WorkingCommit) (err error) {
	const op = errors.Op("db.LiveWorkingCommit")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	db := d.DB.WithContext(ctx)

	db = db.Where("database_id = ? AND branch_name = ?", wc.DatabaseID, wc.BranchName)
	db = db.Where("status IN ?", []dbmodel.WorkingCommitStatus{
		dbmodel.WorkingCommitStatusActive,
		dbmodel.WorkingCommitStatusCommitting,
		dbmodel.WorkingCommitStatusMerging,
		dbmodel.WorkingCommitStatusRebasing,
	})
	if err := db.First(&wc).Error; err != nil {
		err = dbError(err)
		if errors.ErrorCode(err) == errors.CodeNotFound {
			return errors.E(op, err, errors.CodeWorkingCommitNotFound, "working commit not found")
		}
		return errors.E(op, err)
	}
	return nil
}

// UpdateWorkingCommit updates the given working commit record.
func (d *Database) UpdateWorkingCommit(ctx context.Context, wc *dbmodel.WorkingCommit) (err error) {
	const op = errors.Op("db.UpdateWorkingCommit")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	if wc.ID == "" {
		return errors.E(op, errors.CodeWorkingCommitNotFound, "working commit not found")
	}

	db := d.DB.WithContext(ctx)
	if err := db.Save(wc).Error; err != nil {
		return errors.E(op, dbError(err))
	}
	return nil
}

// DeleteWorkingCommit removes the specified working commit record.
func (d *Database) DeleteWorkingCommit(ctx context.Context, wc *dbmodel.WorkingCommit) (err error) {
	const op = errors.Op("db.DeleteWorkingCommit")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	if wc.ID == "" {
		return errors.E(op, errors.CodeWorkingCommitNotFound, "working commit not found")
	}

	db := d.DB.WithContext(ctx)
	if err := db.Delete(wc).Error; err != nil {
		return errors.E(op, dbError(err))
	}
	return nil
}

// CountLiveWorkingCommits returns the number of live working commits
// across every branch of the given database.
func (d *Database) CountLiveWorkingCommits(ctx context.Context, databaseID string) (count int, err error) {
	const op = errors.Op("db.CountLiveWorkingCommits")
	if err := d.ready(); err != nil {
		return 0, errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))

	db := d.DB.WithContext(ctx)
	var n int64
	err = db.Model(&dbmodel.WorkingCommit{}).
		Where("database_id = ?", databaseID).
		Where("status IN ?", []dbmodel.WorkingCommitStatus{
			dbmodel.WorkingCommitStatusActive,
			dbmodel.WorkingCommitStatusCommitting,
			dbmodel.WorkingCommitStatusMerging,
			dbmodel.WorkingCommitStatusRebasing,
		}).
		Count(&n).Error
	if err != nil {
		return 0, errors.E(op, dbError(err))
	}
	return int(n), nil
}
