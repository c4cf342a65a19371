// Copyright 2026 Canonical.

package dbmodel

import (
	"time"
)

// A TagType classifies a commit tag.
type TagType string

const (
	TagTypeVersion   TagType = "version"
	TagTypeRelease   TagType = "release"
	TagTypeMilestone TagType = "milestone"
	TagTypeCustom    TagType = "custom"
)

// ParseTagType converts a string to a TagType.
func ParseTagType(s string) (TagType, bool) {
	switch TagType(s) {
	case TagTypeVersion, TagTypeRelease, TagTypeMilestone, TagTypeCustom:
		return TagType(s), true
	}
	return "", false
}

// A CommitTag labels a commit. Tag names are unique per commit.
type CommitTag struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time

	// CommitHash is the commit the tag labels.
	CommitHash string `gorm:"not null;uniqueIndex:idx_commit_tag_name"`

	// Commit is the commit the tag labels.
	Commit Commit `gorm:"foreignKey:CommitHash;references:Hash"`

	// TagType classifies the tag.
	TagType TagType `gorm:"not null"`

	// TagName is the label itself.
	TagName string `gorm:"not null;uniqueIndex:idx_commit_tag_name"`

	// TagDescription is a free-form description of the tag.
	TagDescription string

	// CreatedBy identifies who created the tag.
	CreatedBy string

	// Metadata carries arbitrary tag metadata, version tags store their
	// semantic version parts here.
	Metadata Map
}

// A CommitTagQuery restricts a tag listing. The zero value matches every
// tag of a database.
type CommitTagQuery struct {
	// CommitHash restricts the listing to tags on one commit.
	CommitHash string

	// TagType restricts the listing to tags of one type.
	TagType TagType

	// TagName restricts the listing to tags whose name contains the
	// given substring.
	TagName string

	// Limit caps the number of tags listed. Zero means no limit.
	Limit int
}
