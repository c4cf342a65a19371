// Copyright 2026 Canonical.

package dbmodel

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/condb/condb/internal/merge"
	"github.com/condb/condb/internal/model"
)

// A WorkingCommitStatus is the lifecycle state of a working commit.
type WorkingCommitStatus string

const (
	WorkingCommitStatusActive     WorkingCommitStatus = "active"
	WorkingCommitStatusCommitting WorkingCommitStatus = "committing"
	WorkingCommitStatusAbandoned  WorkingCommitStatus = "abandoned"
	WorkingCommitStatusMerging    WorkingCommitStatus = "merging"
	WorkingCommitStatusRebasing   WorkingCommitStatus = "rebasing"
)

// Live reports whether the status blocks another working commit from
// being opened on the same branch.
func (s WorkingCommitStatus) Live() bool {
	switch s {
	case WorkingCommitStatusActive, WorkingCommitStatusCommitting,
		WorkingCommitStatusMerging, WorkingCommitStatusRebasing:
		return true
	}
	return false
}

// A WorkingCommit is the mutable staging area of one branch. At most one
// working commit per branch may be in a live status at a time.
type WorkingCommit struct {
	// ID is the unique identifier of the working commit.
	ID string `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// DatabaseID and BranchName identify the branch the working commit
	// stages changes for.
	DatabaseID string `gorm:"not null;index:idx_working_commit_branch"`
	BranchName string `gorm:"not null;index:idx_working_commit_branch"`

	// BasedOnHash is the commit the draft was copied from. It is unset
	// when the branch had no commits.
	BasedOnHash sql.NullString

	// Author identifies who opened the working commit.
	Author string

	// SchemaData and InstancesData hold the draft payload.
	SchemaData    SchemaData
	InstancesData Instances

	// Status records the lifecycle state of the working commit.
	Status WorkingCommitStatus `gorm:"not null;default:active"`

	// MergeState carries conflict bookkeeping while the working commit
	// is merging or rebasing.
	MergeState *MergeState
}

// Payload assembles the draft into a payload value.
func (w *WorkingCommit) Payload() model.Payload {
	return model.Payload{
		Schema:    model.Schema(w.SchemaData),
		Instances: []model.Instance(w.InstancesData),
	}
}

// SetPayload replaces the draft with the given payload.
func (w *WorkingCommit) SetPayload(p model.Payload) {
	w.SchemaData = SchemaData(p.Schema)
	w.InstancesData = Instances(p.Instances)
}

// A MergeState records the inputs and unresolved conflicts of a merge or
// rebase that is staged on a working commit.
type MergeState struct {
	// AncestorHash is the common ancestor the three-way merge ran
	// against.
	AncestorHash string `json:"ancestor_hash"`

	// SourceBranch is the branch being merged in, or the target branch
	// for a rebase.
	SourceBranch string `json:"source_branch"`

	// SourceHash and TargetHash are the commit tips the merge ran over.
	SourceHash string `json:"source_hash"`
	TargetHash string `json:"target_hash"`

	// Rebase is set when the working commit stages a rebase rather than
	// a merge.
	Rebase bool `json:"rebase,omitempty"`

	// Conflicts lists the conflicts detected by the merge.
	Conflicts []merge.Conflict `json:"conflicts,omitempty"`
}

// GormDataType implements schema.GormDataTypeInterface.
func (s MergeState) GormDataType() string {
	return "bytes"
}

// Value implements driver.Valuer.
func (s MergeState) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *MergeState) Scan(src interface{}) error {
	if src == nil {
		*s = MergeState{}
		return nil
	}
	buf, err := rawBytes(src)
	if err != nil {
		return fmt.Errorf("cannot unmarshal %T as MergeState", src)
	}
	return json.Unmarshal(buf, s)
}
