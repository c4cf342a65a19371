// Copyright 2026 Canonical.

package dbmodel

import (
	"database/sql"
	"time"
)

// A BranchStatus is the lifecycle state of a branch.
type BranchStatus string

const (
	BranchStatusActive   BranchStatus = "active"
	BranchStatusMerged   BranchStatus = "merged"
	BranchStatusArchived BranchStatus = "archived"
)

// A Branch is a named line of development within a database. The branch
// points at the commit that is currently its tip, or at no commit at all
// for a newborn branch.
type Branch struct {
	// DatabaseID and Name together identify the branch.
	DatabaseID string `gorm:"primaryKey"`
	Name       string `gorm:"primaryKey"`

	// Database is the database that owns this branch.
	Database Database `gorm:"foreignKey:DatabaseID;references:ID"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Description is a free-form description of the branch.
	Description string

	// CurrentCommitHash is the hash of the commit at the tip of the
	// branch. It is unset until the first commit.
	CurrentCommitHash sql.NullString

	// ParentBranchName is the name of the branch this branch was forked
	// from. It is unset on the default branch.
	ParentBranchName sql.NullString

	// Status records the lifecycle state of the branch.
	Status BranchStatus `gorm:"not null;default:active"`
}
