// Copyright 2026 Canonical.

// Package condbtest contains useful helpers for testing condb.
package condbtest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/errors"
)

// A Store is an in-memory implementation of the engine's store
// interface. It mirrors the error codes of the gorm backed store so
// engine tests exercise the same paths without a database server. The
// zero value is ready to use.
type Store struct {
	mu sync.Mutex

	databases      map[string]dbmodel.Database
	branches       map[string]dbmodel.Branch
	commits        map[string]dbmodel.Commit
	workingCommits map[string]dbmodel.WorkingCommit
	tags           []dbmodel.CommitTag
	nextTagID      uint
	artifacts      map[string]dbmodel.Artifact
}

func branchKey(databaseID, name string) string {
	return databaseID + "\x00" + name
}

func (s *Store) init() {
	if s.databases == nil {
		s.databases = make(map[string]dbmodel.Database)
		s.branches = make(map[string]dbmodel.Branch)
		s.commits = make(map[string]dbmodel.Commit)
		s.workingCommits = make(map[string]dbmodel.WorkingCommit)
		s.artifacts = make(map[string]dbmodel.Artifact)
	}
}

// AddDatabase implements the store interface.
func (s *Store) AddDatabase(_ context.Context, database *dbmodel.Database) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	if _, ok := s.databases[database.ID]; ok {
		return errors.E(errors.CodeAlreadyExists, "database already exists")
	}
	for _, d := range s.databases {
		if d.Name == database.Name {
			return errors.E(errors.CodeAlreadyExists, "database already exists")
		}
	}
	s.databases[database.ID] = *database
	return nil
}

// GetDatabase implements the store interface. The database is looked up
// by ID, or by name when the ID is not set.
func (s *Store) GetDatabase(_ context.Context, database *dbmodel.Database) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	if database.ID != "" {
		if d, ok := s.databases[database.ID]; ok {
			*database = d
			return nil
		}
	} else if database.Name != "" {
		for _, d := range s.databases {
			if d.Name == database.Name {
				*database = d
				return nil
			}
		}
	}
	return errors.E(errors.CodeNotFound, "database not found")
}

// UpdateDatabase implements the store interface.
func (s *Store) UpdateDatabase(_ context.Context, database *dbmodel.Database) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	s.databases[database.ID] = *database
	return nil
}

// DeleteDatabase implements the store interface.
func (s *Store) DeleteDatabase(_ context.Context, database *dbmodel.Database) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	delete(s.databases, database.ID)
	return nil
}

// ForEachDatabase implements the store interface, iterating databases
// in name order.
func (s *Store) ForEachDatabase(_ context.Context, f func(*dbmodel.Database) error) error {
	s.mu.Lock()
	databases := make([]dbmodel.Database, 0, len(s.databases))
	for _, d := range s.databases {
		databases = append(databases, d)
	}
	s.mu.Unlock()

	sort.Slice(databases, func(i, j int) bool { return databases[i].Name < databases[j].Name })
	for i := range databases {
		if err := f(&databases[i]); err != nil {
			return err
		}
	}
	return nil
}

// AddBranch implements the store interface.
func (s *Store) AddBranch(_ context.Context, branch *dbmodel.Branch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	key := branchKey(branch.DatabaseID, branch.Name)
	if _, ok := s.branches[key]; ok {
		return errors.E(errors.CodeAlreadyExists, "branch already exists")
	}
	s.branches[key] = *branch
	return nil
}

// GetBranch implements the store interface.
func (s *Store) GetBranch(_ context.Context, branch *dbmodel.Branch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	if b, ok := s.branches[branchKey(branch.DatabaseID, branch.Name)]; ok {
		*branch = b
		return nil
	}
	return errors.E(errors.CodeBranchNotFound, fmt.Sprintf("branch %q not found", branch.Name))
}

// UpdateBranch implements the store interface.
func (s *Store) UpdateBranch(_ context.Context, branch *dbmodel.Branch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	s.branches[branchKey(branch.DatabaseID, branch.Name)] = *branch
	return nil
}

// DeleteBranch implements the store interface.
func (s *Store) DeleteBranch(_ context.Context, branch *dbmodel.Branch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	delete(s.branches, branchKey(branch.DatabaseID, branch.Name))
	return nil
}

// ForEachBranch implements the store interface, iterating branches in
// name order.
func (s *Store) ForEachBranch(_ context.Context, databaseID string, f func(*dbmodel.Branch) error) error {
	s.mu.Lock()
	var branches []dbmodel.Branch
	for _, b := range s.branches {
		if b.DatabaseID == databaseID {
			branches = append(branches, b)
		}
	}
	s.mu.Unlock()

	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	for i := range branches {
		if err := f(&branches[i]); err != nil {
			return err
		}
	}
	return nil
}

// CountBranches implements the store interface.
func (s *Store) CountBranches(_ context.Context, databaseID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, b := range s.branches {
		if b.DatabaseID == databaseID {
			n++
		}
	}
	return n, nil
}

// AddCommit implements the store interface. Commits are content
// addressed so adding an already stored commit succeeds.
func (s *Store) AddCommit(_ context.Context, commit *dbmodel.Commit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	if _, ok := s.commits[commit.Hash]; ok {
		return nil
	}
	s.commits[commit.Hash] = *commit
	return nil
}

// GetCommit implements the store interface.
func (s *Store) GetCommit(_ context.Context, commit *dbmodel.Commit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	c, ok := s.commits[commit.Hash]
	if !ok || (commit.DatabaseID != "" && c.DatabaseID != commit.DatabaseID) {
		return errors.E(errors.CodeCommitNotFound, fmt.Sprintf("commit %q not found", commit.Hash))
	}
	*commit = c
	return nil
}

// ForEachCommit implements the store interface, iterating commits
// newest first.
func (s *Store) ForEachCommit(_ context.Context, databaseID string, f func(*dbmodel.Commit) error) error {
	s.mu.Lock()
	var commits []dbmodel.Commit
	for _, c := range s.commits {
		if c.DatabaseID == databaseID {
			commits = append(commits, c)
		}
	}
	s.mu.Unlock()

	sort.Slice(commits, func(i, j int) bool { return commits[i].CreatedAt.After(commits[j].CreatedAt) })
	for i := range commits {
		if err := f(&commits[i]); err != nil {
			return err
		}
	}
	return nil
}

// CountCommits implements the store interface.
func (s *Store) CountCommits(_ context.Context, databaseID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, c := range s.commits {
		if c.DatabaseID == databaseID {
			n++
		}
	}
	return n, nil
}

// AddWorkingCommit implements the store interface, enforcing at most
// one live working commit per branch.
func (s *Store) AddWorkingCommit(_ context.Context, wc *dbmodel.WorkingCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	if wc.Status.Live() {
		for _, w := range s.workingCommits {
			if w.DatabaseID == wc.DatabaseID && w.BranchName == wc.BranchName && w.Status.Live() {
				return errors.E(errors.CodeWorkingCommitExists, "working commit already exists")
			}
		}
	}
	s.workingCommits[wc.ID] = *wc
	return nil
}

// GetWorkingCommit implements the store interface.
func (s *Store) GetWorkingCommit(_ context.Context, wc *dbmodel.WorkingCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	if w, ok := s.workingCommits[wc.ID]; ok {
		*wc = w
		return nil
	}
	return errors.E(errors.CodeWorkingCommitNotFound, fmt.Sprintf("working commit %q not found", wc.ID))
}

// LiveWorkingCommit implements the store interface, finding the
// branch's working commit in a live status.
func (s *Store) LiveWorkingCommit(_ context.Context, wc *dbmodel.WorkingCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	for _, w := range s.workingCommits {
		if w.DatabaseID == wc.DatabaseID && w.BranchName == wc.BranchName && w.Status.Live() {
			*wc = w
			return nil
		}
	}
	return errors.E(errors.CodeWorkingCommitNotFound, "working commit not found")
}

// UpdateWorkingCommit implements the store interface.
func (s *Store) UpdateWorkingCommit(_ context.Context, wc *dbmodel.WorkingCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	s.workingCommits[wc.ID] = *wc
	return nil
}

// DeleteWorkingCommit implements the store interface.
func (s *Store) DeleteWorkingCommit(_ context.Context, wc *dbmodel.WorkingCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	delete(s.workingCommits, wc.ID)
	return nil
}

// CountLiveWorkingCommits implements the store interface.
func (s *Store) CountLiveWorkingCommits(_ context.Context, databaseID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, w := range s.workingCommits {
		if w.DatabaseID == databaseID && w.Status.Live() {
			n++
		}
	}
	return n, nil
}

// AddCommitTag implements the store interface.
func (s *Store) AddCommitTag(_ context.Context, tag *dbmodel.CommitTag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	for i := range s.tags {
		if s.tags[i].CommitHash == tag.CommitHash && s.tags[i].TagName == tag.TagName {
			return errors.E(errors.CodeAlreadyExists, "commit tag already exists")
		}
	}
	s.nextTagID++
	tag.ID = s.nextTagID
	s.tags = append(s.tags, *tag)
	return nil
}

// GetCommitTag implements the store interface. The tag is looked up by
// ID, or by commit hash and tag name when the ID is not set.
func (s *Store) GetCommitTag(_ context.Context, tag *dbmodel.CommitTag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	for i := range s.tags {
		t := &s.tags[i]
		if tag.ID != 0 && t.ID == tag.ID ||
			tag.ID == 0 && t.CommitHash == tag.CommitHash && t.TagName == tag.TagName {
			*tag = *t
			return nil
		}
	}
	return errors.E(errors.CodeNotFound, "commit tag not found")
}

// DeleteCommitTag implements the store interface.
func (s *Store) DeleteCommitTag(_ context.Context, tag *dbmodel.CommitTag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	for i := range s.tags {
		if s.tags[i].ID == tag.ID {
			s.tags = append(s.tags[:i], s.tags[i+1:]...)
			return nil
		}
	}
	return nil
}

// ForEachCommitTag implements the store interface, iterating a
// database's tags matching the query, newest first.
func (s *Store) ForEachCommitTag(_ context.Context, databaseID string, filter dbmodel.CommitTagQuery, f func(*dbmodel.CommitTag) error) error {
	s.mu.Lock()
	var tags []dbmodel.CommitTag
	for i := range s.tags {
		t := s.tags[i]
		c, ok := s.commits[t.CommitHash]
		if !ok || c.DatabaseID != databaseID {
			continue
		}
		if filter.CommitHash != "" && t.CommitHash != filter.CommitHash {
			continue
		}
		if filter.TagType != "" && t.TagType != filter.TagType {
			continue
		}
		if filter.TagName != "" && !strings.Contains(t.TagName, filter.TagName) {
			continue
		}
		tags = append(tags, t)
	}
	s.mu.Unlock()

	sort.Slice(tags, func(i, j int) bool { return tags[i].CreatedAt.After(tags[j].CreatedAt) })
	if filter.Limit > 0 && len(tags) > filter.Limit {
		tags = tags[:filter.Limit]
	}
	for i := range tags {
		if err := f(&tags[i]); err != nil {
			return err
		}
	}
	return nil
}

// AddArtifact implements the store interface.
func (s *Store) AddArtifact(_ context.Context, artifact *dbmodel.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	if _, ok := s.artifacts[artifact.ID]; ok {
		return errors.E(errors.CodeAlreadyExists, "artifact already exists")
	}
	s.artifacts[artifact.ID] = *artifact
	return nil
}

// GetArtifact implements the store interface.
func (s *Store) GetArtifact(_ context.Context, artifact *dbmodel.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	if a, ok := s.artifacts[artifact.ID]; ok {
		*artifact = a
		return nil
	}
	return errors.E(errors.CodeNotFound, "artifact not found")
}

// ForEachArtifact implements the store interface, iterating artifacts
// newest first.
func (s *Store) ForEachArtifact(_ context.Context, databaseID string, f func(*dbmodel.Artifact) error) error {
	s.mu.Lock()
	var artifacts []dbmodel.Artifact
	for _, a := range s.artifacts {
		if a.DatabaseID == databaseID {
			artifacts = append(artifacts, a)
		}
	}
	s.mu.Unlock()

	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].CreatedAt.After(artifacts[j].CreatedAt) })
	for i := range artifacts {
		if err := f(&artifacts[i]); err != nil {
			return err
		}
	}
	return nil
}
