// Copyright 2026 Canonical.

// Package db implements the SQL store backing the engine. Databases,
// branches, commits, working commits, tags and artifacts live in
// gorm-managed tables whose schema is bootstrapped from the migration
// scripts embedded in dbmodel.
package db

import (
	"context"
	"fmt"
	"path"
	"sync/atomic"

	"gorm.io/gorm"

	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/errors"
)

// A Database provides access to the SQL store. It is safe for
// concurrent use once Migrate has succeeded; until then every store
// method fails with errors.CodeUpgradeInProgress.
type Database struct {
	// DB is the gorm connection holding the store's tables.
	DB *gorm.DB

	// migrated is set once Migrate has brought the schema up to the
	// version the dbmodel package describes.
	migrated atomic.Bool
}

// Migrate brings the schema up to the version described in dbmodel by
// applying the embedded migration scripts for the connection's dialect
// one minor step at a time. Each script records the version it
// establishes, so an interrupted migration resumes where it stopped. A
// store left behind by a different major version is refused unless
// force is set; force should only be passed when the migration is
// initiated by an operator.
func (d *Database) Migrate(ctx context.Context, force bool) error {
	const op = errors.Op("db.Migrate")
	if d == nil || d.DB == nil {
		return errors.E(op, errors.CodeServerConfiguration, "database not configured")
	}
	db := d.DB.WithContext(ctx)
	if err := d.runScript(db, "versions.sql"); err != nil {
		return errors.E(op, err)
	}
	for {
		v, err := d.schemaVersion(db)
		if err != nil {
			return errors.E(op, err)
		}
		if v.Major == dbmodel.Major && v.Minor >= dbmodel.Minor {
			d.migrated.Store(true)
			return nil
		}
		if v.Major != dbmodel.Major && !force {
			return errors.E(op, errors.CodeServerConfiguration,
				fmt.Sprintf("database has incompatible version %d.%d", v.Major, v.Minor))
		}
		if err := d.runScript(db, fmt.Sprintf("%d_%d.sql", v.Major, v.Minor+1)); err != nil {
			return errors.E(op, err)
		}
	}
}

// schemaVersion returns the version the store's schema is at, seeding
// a fresh store at major 1, minor 0.
func (d *Database) schemaVersion(db *gorm.DB) (*dbmodel.Version, error) {
	v := dbmodel.Version{Component: dbmodel.Component, Major: dbmodel.Major, Minor: 0}
	if err := db.FirstOrCreate(&v).Error; err != nil {
		return nil, dbError(err)
	}
	return &v, nil
}

// runScript executes one embedded migration script for the
// connection's dialect inside a transaction.
func (d *Database) runScript(db *gorm.DB, name string) error {
	script, err := dbmodel.SQL.ReadFile(path.Join("sql", db.Name(), name))
	if err != nil {
		return errors.E(err)
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.Exec(string(script)).Error
	})
	if err != nil {
		return dbError(err)
	}
	return nil
}

// ready reports whether the store can accept requests. Store methods
// call it before touching any table.
func (d *Database) ready() error {
	if d == nil || d.DB == nil {
		return errors.E(errors.CodeServerConfiguration, "database not configured")
	}
	if !d.migrated.Load() {
		return errors.E(errors.CodeUpgradeInProgress)
	}
	return nil
}

// Ping verifies that the underlying database backend is reachable.
func (d *Database) Ping(ctx context.Context) error {
	const op = errors.Op("db.Ping")
	if err := d.ready(); err != nil {
		return errors.E(op, err)
	}
	sqlDB, err := d.DB.DB()
	if err != nil {
		return errors.E(op, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.E(op, dbError(err))
	}
	return nil
}

// Close closes open connections to the underlying database backend.
func (d *Database) Close() error {
	const op = errors.Op("db.Close")
	sqlDB, err := d.DB.DB()
	if err != nil {
		return errors.E(op, err)
	}
	if err := sqlDB.Close(); err != nil {
		return errors.E(op, err)
	}
	return nil
}
