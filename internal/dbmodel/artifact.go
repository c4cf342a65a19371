// Copyright 2026 Canonical.

package dbmodel

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/solve"
)

// An Artifact is the stored form of a solve result. The artifact body is
// immutable once written.
type Artifact struct {
	// ID is the unique identifier of the artifact.
	ID string `gorm:"primaryKey"`

	CreatedAt time.Time

	// DatabaseID is the database the solve ran against.
	DatabaseID string `gorm:"not null;index"`

	// BranchName and CommitHash record the view the solve ran over.
	BranchName sql.NullString
	CommitHash sql.NullString

	// Body is the JSON encoded solve artifact.
	Body []byte `gorm:"not null"`
}

// SetBody encodes the given solve artifact into the row.
func (a *Artifact) SetBody(art *solve.Artifact) error {
	body, err := json.Marshal(art)
	if err != nil {
		return errors.E(err)
	}
	a.Body = body
	return nil
}

// DecodeBody decodes the stored solve artifact.
func (a *Artifact) DecodeBody() (*solve.Artifact, error) {
	var art solve.Artifact
	if err := json.Unmarshal(a.Body, &art); err != nil {
		return nil, errors.E(err)
	}
	return &art, nil
}
