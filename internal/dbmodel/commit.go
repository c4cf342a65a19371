// Copyright 2026 Canonical.

package dbmodel

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/model"
)

// A Commit is an immutable content-addressed snapshot of a database's
// schema and instances. Commits form a DAG through their parent hashes.
type Commit struct {
	// Hash is the SHA-256 content address of the commit.
	Hash string `gorm:"primaryKey"`

	// DatabaseID is the database the commit belongs to.
	DatabaseID string `gorm:"not null;index"`

	// Database is the database the commit belongs to.
	Database Database `gorm:"foreignKey:DatabaseID;references:ID"`

	// ParentHash is the hash of the parent commit. It is unset on a root
	// commit.
	ParentHash sql.NullString

	// Author identifies who created the commit.
	Author string

	// Message is the commit message.
	Message string

	CreatedAt time.Time

	// Data holds the canonical payload, gzip compressed.
	Data []byte `gorm:"not null"`

	// DataSize is the size of the canonical payload before compression.
	DataSize int64 `gorm:"not null"`

	// SchemaClassesCount and InstancesCount record the payload shape so
	// listings do not need to decompress the data.
	SchemaClassesCount int `gorm:"not null"`
	InstancesCount     int `gorm:"not null"`
}

// SetPayload encodes the given payload into the commit, recording the
// compressed bytes, the canonical size and the payload counts. The
// commit hash is not touched, callers compute it from the canonical
// bytes.
func (c *Commit) SetPayload(p model.Payload) (canonical []byte, err error) {
	compressed, canonical, err := model.EncodePayload(p)
	if err != nil {
		return nil, errors.E(err)
	}
	c.Data = compressed
	c.DataSize = int64(len(canonical))
	c.SchemaClassesCount = len(p.Schema.Classes)
	c.InstancesCount = len(p.Instances)
	return canonical, nil
}

// Payload decompresses and decodes the stored payload. An error with a
// code of errors.CodeServerConfiguration is returned if the stored
// bytes do not decompress to the recorded size.
func (c *Commit) Payload() (model.Payload, error) {
	p, size, err := model.DecodePayload(c.Data)
	if err != nil {
		return model.Payload{}, errors.E(err)
	}
	if size != c.DataSize {
		return model.Payload{}, errors.E(errors.CodeServerConfiguration,
			fmt.Sprintf("commit %s payload decompresses to %d bytes, recorded size is %d", c.Hash, size, c.DataSize))
	}
	return p, nil
}
