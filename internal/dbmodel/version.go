// Copyright 2026 Canonical.

// Package dbmodel contains the model objects for the relational storage
// database.
package dbmodel

const (
	// Component is the component name stored in the versions table for
	// the condb data model.
	Component = "condb"

	// Major is the major version of the data model. Increment it for
	// changes an older condb could not read, and reset Minor to 0.
	Major = 1

	// Minor is the minor version of the data model. Increment it for
	// every released schema change; the migration script establishing
	// minor version N of major version M is sql/<dialect>/M_N.sql.
	Minor = 1
)

// A Version records the schema version a store has been migrated to.
type Version struct {
	// Component is the component the stored version number belongs to.
	// There is only the "condb" component; the column exists to give
	// the versions table a primary key.
	Component string `gorm:"primaryKey"`

	// Major is the stored major version.
	Major int

	// Minor is the stored minor version.
	Minor int
}
