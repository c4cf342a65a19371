// Copyright 2026 Canonical.

package dbmodel

import (
	"time"
)

// A Database is a named container for branches and commits. Every
// database owns exactly one default branch.
type Database struct {
	// ID is the unique identifier allocated when the database is
	// created.
	ID string `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Name is the name given to this database.
	Name string `gorm:"not null;uniqueIndex"`

	// Description is a free-form description of the database.
	Description string

	// DefaultBranchName is the name of the branch created with the
	// database. The default branch cannot be deleted.
	DefaultBranchName string `gorm:"not null"`
}

// TableName overrides the table name used by gorm, "databases" reads
// better than the default pluralization.
func (Database) TableName() string {
	return "databases"
}
