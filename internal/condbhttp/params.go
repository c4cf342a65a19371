// Copyright 2026 Canonical.

package condbhttp

import (
	"time"

	"github.com/condb/condb/internal/condb"
	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/merge"
	"github.com/condb/condb/internal/model"
	"github.com/condb/condb/internal/solve"
	"github.com/condb/condb/internal/validate"
)

// A Database is the API representation of a database.
type Database struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	DefaultBranchName string    `json:"default_branch_name"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func databaseResponse(d *dbmodel.Database) Database {
	return Database{
		ID:                d.ID,
		Name:              d.Name,
		Description:       d.Description,
		DefaultBranchName: d.DefaultBranchName,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// An AddDatabaseRequest is the body of a database creation request.
type AddDatabaseRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// A Branch is the API representation of a branch.
type Branch struct {
	DatabaseID        string    `json:"database_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	CurrentCommitHash string    `json:"current_commit_hash,omitempty"`
	ParentBranchName  string    `json:"parent_branch_name,omitempty"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func branchResponse(b *dbmodel.Branch) Branch {
	br := Branch{
		DatabaseID:  b.DatabaseID,
		Name:        b.Name,
		Description: b.Description,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if b.CurrentCommitHash.Valid {
		br.CurrentCommitHash = b.CurrentCommitHash.String
	}
	if b.ParentBranchName.Valid {
		br.ParentBranchName = b.ParentBranchName.String
	}
	return br
}

// An AddBranchRequest is the body of a branch creation request.
type AddBranchRequest struct {
	Name         string `json:"name"`
	ParentBranch string `json:"parent_branch,omitempty"`
	Description  string `json:"description,omitempty"`
}

// A Commit is the API representation of a commit. The payload bytes are
// never included.
type Commit struct {
	Hash               string    `json:"hash"`
	DatabaseID         string    `json:"database_id"`
	ParentHash         string    `json:"parent_hash,omitempty"`
	Author             string    `json:"author"`
	Message            string    `json:"message"`
	CreatedAt          time.Time `json:"created_at"`
	DataSize           int64     `json:"data_size"`
	SchemaClassesCount int       `json:"schema_classes_count"`
	InstancesCount     int       `json:"instances_count"`
}

func commitResponse(c *dbmodel.Commit) Commit {
	cr := Commit{
		Hash:               c.Hash,
		DatabaseID:         c.DatabaseID,
		Author:             c.Author,
		Message:            c.Message,
		CreatedAt:          c.CreatedAt,
		DataSize:           c.DataSize,
		SchemaClassesCount: c.SchemaClassesCount,
		InstancesCount:     c.InstancesCount,
	}
	if c.ParentHash.Valid {
		cr.ParentHash = c.ParentHash.String
	}
	return cr
}

// A WorkingCommit is the API representation of a working commit.
type WorkingCommit struct {
	ID          string                      `json:"id"`
	DatabaseID  string                      `json:"database_id"`
	BranchName  string                      `json:"branch_name"`
	BasedOnHash string                      `json:"based_on_hash,omitempty"`
	Author      string                      `json:"author"`
	Status      string                      `json:"status"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
	Payload     *model.Payload              `json:"payload,omitempty"`
	Changes     *condb.WorkingCommitChanges `json:"changes,omitempty"`
	Conflicts   []merge.Conflict            `json:"conflicts,omitempty"`

	// Resolved maps instance id to materialized relationship
	// selections. It is only populated on the resolved draft view.
	Resolved map[string]map[string]condb.MaterializedRelationship `json:"resolved_relationships,omitempty"`
}

func workingCommitResponse(wc *dbmodel.WorkingCommit) WorkingCommit {
	r := WorkingCommit{
		ID:         wc.ID,
		DatabaseID: wc.DatabaseID,
		BranchName: wc.BranchName,
		Author:     wc.Author,
		Status:     string(wc.Status),
		CreatedAt:  wc.CreatedAt,
		UpdatedAt:  wc.UpdatedAt,
	}
	if wc.BasedOnHash.Valid {
		r.BasedOnHash = wc.BasedOnHash.String
	}
	if wc.MergeState != nil {
		r.Conflicts = wc.MergeState.Conflicts
	}
	return r
}

// A CommitWorkingCommitRequest is the body of a commit request.
type CommitWorkingCommitRequest struct {
	Message string `json:"message"`
	Author  string `json:"author,omitempty"`
}

// A MergeRequest is the body of a merge or rebase request.
type MergeRequest struct {
	TargetBranch string `json:"target_branch"`
	Author       string `json:"author,omitempty"`
	Force        bool   `json:"force,omitempty"`
}

// A CommitTag is the API representation of a commit tag.
type CommitTag struct {
	ID          uint                   `json:"id"`
	CommitHash  string                 `json:"commit_hash"`
	TagType     string                 `json:"tag_type"`
	TagName     string                 `json:"tag_name"`
	Description string                 `json:"description,omitempty"`
	CreatedBy   string                 `json:"created_by,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

func commitTagResponse(t *dbmodel.CommitTag) CommitTag {
	return CommitTag{
		ID:          t.ID,
		CommitHash:  t.CommitHash,
		TagType:     string(t.TagType),
		TagName:     t.TagName,
		Description: t.TagDescription,
		CreatedBy:   t.CreatedBy,
		Metadata:    t.Metadata,
		CreatedAt:   t.CreatedAt,
	}
}

// An AddCommitTagRequest is the body of a tag creation request.
type AddCommitTagRequest struct {
	TagType     string `json:"tag_type"`
	TagName     string `json:"tag_name"`
	Description string `json:"description,omitempty"`
}

// A SolveRequest is the body of a solve request. Force lets the solve
// complete, and its artifact be stored, even when validation fails.
type SolveRequest struct {
	Ref      string          `json:"ref,omitempty"`
	Policies *solve.Policies `json:"policies,omitempty"`
	Force    bool            `json:"force,omitempty"`
}

// A ValidationResponse wraps a validation result with the ref it was
// computed over.
type ValidationResponse struct {
	Ref    string          `json:"ref,omitempty"`
	Result validate.Result `json:"result"`
}
