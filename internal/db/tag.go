// Copyright 2026 Canonical.

package db

import (
	"context"

	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/servermon"
)

// AddCommitTag stores the commit tag record.
func (d *Database) AddCommitTag(ctx context.Context, tag *dbmodel.CommitTag) (err error) {
	const op = errors.Op("db.AddCommitTag")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	db := d.DB.WithContext(ctx)

	if err := db.Create(tag).Error; err != nil {
		return errors.E(op, dbError(err))
	}
	return nil
}

// GetCommitTag returns the tag record matching the commit hash and tag
// name.
func (d *Database) GetCommitTag(ctx context.Context, tag *dbmodel.CommitTag) (err error) {
	const op = errors.Op("db.GetCommitTag")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	db := d.DB.WithContext(ctx)

	if tag.ID != 0 {
		db = db.Where("id = ?", tag.ID)
	} else {
		db = db.Where("commit_hash = ? AND tag_name = ?", tag.CommitHash, tag.TagName)
	}
	if err := db.First(&tag).Error; err != nil {
		err = dbError(err)
		if errors.ErrorCode(err) == errors.CodeNotFound {
			return errors.E(op, err, "tag not found")
		}
		return errors.E(op, err)
	}
	return nil
}

// DeleteCommitTag removes the specified tag record.
func (d *Database) DeleteCommitTag(ctx context.Context, tag *dbmodel.CommitTag) (err error) {
	const op = errors.Op("db.DeleteCommitTag")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	if tag.ID == 0 {
		return errors.E(op, errors.CodeNotFound, "tag not found")
	}

	db := d.DB.WithContext(ctx)
	if err := db.Delete(tag).Error; err != nil {
		return errors.E(op, dbError(err))
	}
	return nil
}

// ForEachCommitTag iterates through the tags of commits belonging to
// the given database, newest first, calling the given function for each
// one. If the given function returns an error the iteration will stop
// immediately and the error will be returned unmodified.
func (d *Database) ForEachCommitTag(ctx context.Context, databaseID string, filter dbmodel.CommitTagQuery, f func(*dbmodel.CommitTag) error) (err error) {
	const op = errors.Op("db.ForEachCommitTag")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))

	db := d.DB.WithContext(ctx)
	db = db.Model(&dbmodel.CommitTag{}).
		Joins("JOIN commits ON commits.hash = commit_tags.commit_hash").
		Where("commits.database_id = ?", databaseID)
	if filter.CommitHash != "" {
		db = db.Where("commit_tags.commit_hash = ?", filter.CommitHash)
	}
	if filter.TagType != "" {
		db = db.Where("commit_tags.tag_type = ?", filter.TagType)
	}
	if filter.TagName != "" {
		db = db.Where("commit_tags.tag_name LIKE ?", "%"+filter.TagName+"%")
	}
	if filter.Limit > 0 {
		db = db.Limit(filter.Limit)
	}
	rows, err := db.Order("commit_tags.created_at desc").Rows()
	if err != nil {
		return errors.E(op, dbError(err))
	}
	defer rows.Close()
	for rows.Next() {
		var tag dbmodel.CommitTag
		if err := db.ScanRows(rows, &tag); err != nil {
			return errors.E(op, dbError(err))
		}
		if err := f(&tag); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return errors.E(op, dbError(err))
	}
	return nil
}
