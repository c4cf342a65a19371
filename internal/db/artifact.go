// Copyright 2026 Canonical.

package db

import (
	"context"

	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/servermon"
)

// AddArtifact stores the artifact record.
func (d *Database) AddArtifact(ctx context.Context, artifact *dbmodel.Artifact) (err error) {
	const op = errors.Op("db.AddArtifact")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	db := d.DB.WithContext(ctx)

	if err := db.Create(artifact).Error; err != nil {
		return errors.E(op, dbError(err))
	}
	return nil
}

// GetArtifact returns the artifact record matching the ID.
func (d *Database) GetArtifact(ctx context.Context, artifact *dbmodel.Artifact) (err error) {
	const op = errors.Op("db.GetArtifact")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	db := d.DB.WithContext(ctx)

	db = db.Where("id = ?", artifact.ID)
	if err := db.First(&artifact).Error; err != nil {
		err = dbError(err)
		if errors.ErrorCode(err) == errors.CodeNotFound {
			return errors.E(op, err, "artifact not found")
		}
		return errors.E(op, err)
	}
	return nil
}

// ForEachArtifact iterates through every artifact of the given database,
// newest first, calling the given function for each one. If the given
// function returns an error the iteration will stop immediately and the
// error will be returned unmodified.
func (d *Database) ForEachArtifact(ctx context.Context, databaseID string, f func(*dbmodel.Artifact) error) (err error) {
	const op = errors.Op("db.ForEachArtifact")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))

	db := d.DB.WithContext(ctx)
	rows, err := db.Model(&dbmodel.Artifact{}).Where("database_id = ?", databaseID).Order("created_at desc").Rows()
	if err != nil {
		return errors.E(op, dbError(err))
	}
	defer rows.Close()
	for rows.Next() {
		var artifact dbmodel.Artifact
		if err := db.ScanRows(rows, &artifact); err != nil {
			return errors.E(op, dbError(err))
		}
		if err := f(&artifact); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return errors.E(op, dbError(err))
	}
	return nil
}
