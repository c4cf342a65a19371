// Copyright 2026 Canonical.

package db

import (
	"context"

	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/servermon"
)

// AddDatabase stores the database record.
func (d *Database) AddDatabase(ctx context.Context, database *dbmodel.Database) (err error) {
	const op = errors.Op("db.AddDatabase")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	db := d.DB.WithContext(ctx)

	if err := db.Create(database).Error; err != nil {
		return errors.E(op, dbError(err))
	}
	return nil
}

// GetDatabase returns the database record matching the ID, or the name
// if the ID is unset.
func (d *Database) GetDatabase(ctx context.Context, database *dbmodel.Database) (err error) {
	const op = errors.Op("db.GetDatabase")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	db := d.DB.WithContext(ctx)

	if database.ID != "" {
		db = db.Where("id = ?", database.ID)
	} else if database.Name != "" {
		db = db.Where("name = ?", database.Name)
	} else {
		return errors.E(op, errors.CodeNotFound, "database not found")
	}
	if err := db.First(&database).Error; err != nil {
		err = dbError(err)
		if errors.ErrorCode(err) == errors.CodeNotFound {
			return errors.E(op, err, "database not found")
		}
		return errors.E(op, err)
	}
	return nil
}

// UpdateDatabase updates the given database record.
func (d *Database) UpdateDatabase(ctx context.Context, database *dbmodel.Database) (err error) {
	const op = errors.Op("db.UpdateDatabase")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	if database.ID == "" {
		return errors.E(op, errors.CodeNotFound, "database not found")
	}

	db := d.DB.WithContext(ctx)
	if err := db.Save(database).Error; err != nil {
		return errors.E(op, dbError(err))
	}
	return nil
}

// DeleteDatabase removes the specified database record.
func (d *Database) DeleteDatabase(ctx context.Context, database *dbmodel.Database) (err error) {
	const op = errors.Op("db.DeleteDatabase")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))
	if database.ID == "" {
		return errors.E(op, errors.CodeNotFound, "database not found")
	}

	db := d.DB.WithContext(ctx)
	if err := db.Delete(database).Error; err != nil {
		return errors.E(op, dbError(err))
	}
	return nil
}

// ForEachDatabase iterates through every database record calling the
// given function for each one. If the given function returns an error
// the iteration will stop immediately and the error will be returned
// unmodified.
func (d *Database) ForEachDatabase(ctx context.Context, f func(*dbmodel.Database) error) (err error) {
	const op = errors.Op("db.ForEachDatabase")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	durationObserver := servermon.DurationObserver(servermon.DBQueryDurationHistogram, string(op))
	defer durationObserver()
	defer servermon.ErrorCounter(servermon.DBQueryErrorCount, &err, string(op))

	db := d.DB.WithContext(ctx)
	rows, err := db.Model(&dbmodel.Database{}).Order("name asc").Rows()
	if err != nil {
		return errors.E(op, dbError(err))
	}
	defer rows.Close()
	for rows.Next() {
		var database dbmodel.Database
		if err := db.ScanRows(rows, &database); err != nil {
			return errors.E(op, dbError(err))
		}
		if err := f(&database); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return errors.E(op, dbError(err))
	}
	return nil
}
