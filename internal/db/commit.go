// Copyright 2026 Canonical.

package db

import (
	"context"

	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/servermon"
)

// AddCommit stores the commit record. Commits are content addressed so
// storing an already stored commit is not an error.
func (d *Database) AddCommit(ctx context.Context, commit *dbmodel.Commit) (err error) {
	const op = errors.Op("db.AddCommit")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	db := d.DB.WithContext(ctx)

	if err := db.Create(commit).Error; err != nil {
		err = dbError(err)
		if errors.ErrorCode(err) == errors.CodeAlreadyExists {
			return nil
		}
		return errors.E(op, err)
	}
	return nil
}

// GetCommit returns the commit record matching the hash.
func (d *Database) GetCommit(ctx context.Context, commit *dbmodel.Commit) (err error) {
	const op = errors.Op("db.GetCommit")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	db := d.DB.WithContext(ctx)

	db = db.Where("hash = ?", commit.Hash)
	if commit.DatabaseID != "" {
		db = db.Where("database_id = ?", commit.DatabaseID)
	}
	if err := db.First(&commit).Error; err != nil {
		err = dbError(err)
		if errors.ErrorCode(err) == errors.CodeNotFound {
			return errors.E(op, err, errors.CodeCommitNotFound, "commit not found")
		}
		return errors.E(op, err)
	}
	return nil
}

// ForEachCommit iterates through every commit of the given database,
// newest first, calling the given function for each one. If the given
// function returns an error the iteration will stop immediately and the
// error will be returned unmodified.
func (d *Database) ForEachCommit(ctx context.Context, databaseID string, f func(*dbmodel.Commit) error) (err error) {
	const op = errors.Op("db.ForEachCommit")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))

	db := d.DB.WithContext(ctx)
	rows, err := db.Model(&dbmodel.Commit{}).Where("database_id = ?", databaseID).Order("created_at desc").Rows()
	if err != nil {
		return errors.E(op, dbError(err))
	}
	defer rows.Close()
	for rows.Next() {
		var commit dbmodel.Commit
		if err := db.ScanRows(rows, &commit); err != nil {
			return errors.E(op, dbError(err))
		}
		if err := f(&commit); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return errors.E(op, dbError(err))
	}
	return nil
}

// CountCommits returns the number of commits of the given database.
func (d *Database) CountCommits(ctx context.Context, databaseID string) (count int, err error) {
	const op = errors.Op("db.CountCommits")
	if err := d.ready(); err != nil {
		return 0, errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))

	db := d.DB.WithContext(ctx)
	var n int64
	if err := db.Model(&dbmodel.Commit{}).Where("database_id = ?", databaseID).Count(&n).Error; err != nil {
		return 0, errors.E(op, dbError(err))
	}
	return int(n), nil
}
