// Copyright 2026 Canonical.

// Package condb contains the business logic used to manage databases,
// branches, commits, working commits and configuration solves.
package condb

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/condb/condb/internal/dbmodel"
)

// A ConDB provides the business logic for managing resources in the
// system. A single ConDB instance is shared by all concurrent API
// connections therefore the ConDB object itself does not contain any
// per-request state.
type ConDB struct {
	// Store is the persistent store used by the engine. Any client
	// accessing the store directly is responsible for maintaining the
	// invariants the engine enforces.
	Store Store

	// Clock supplies timestamps. If it is nil the wall clock is used.
	Clock clock.Clock

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// A Store is the persistent store used by the engine. The gorm backed
// db.Database implements this interface, as does the in-memory store
// used in tests.
type Store interface {
	AddDatabase(ctx context.Context, database *dbmodel.Database) error
	GetDatabase(ctx context.Context, database *dbmodel.Database) error
	UpdateDatabase(ctx context.Context, database *dbmodel.Database) error
	DeleteDatabase(ctx context.Context, database *dbmodel.Database) error
	ForEachDatabase(ctx context.Context, f func(*dbmodel.Database) error) error

	AddBranch(ctx context.Context, branch *dbmodel.Branch) error
	GetBranch(ctx context.Context, branch *dbmodel.Branch) error
	UpdateBranch(ctx context.Context, branch *dbmodel.Branch) error
	DeleteBranch(ctx context.Context, branch *dbmodel.Branch) error
	ForEachBranch(ctx context.Context, databaseID string, f func(*dbmodel.Branch) error) error
	CountBranches(ctx context.Context, databaseID string) (int, error)

	AddCommit(ctx context.Context, commit *dbmodel.Commit) error
	GetCommit(ctx context.Context, commit *dbmodel.Commit) error
	ForEachCommit(ctx context.Context, databaseID string, f func(*dbmodel.Commit) error) error
	CountCommits(ctx context.Context, databaseID string) (int, error)

	AddWorkingCommit(ctx context.Context, wc *dbmodel.WorkingCommit) error
	GetWorkingCommit(ctx context.Context, wc *dbmodel.WorkingCommit) error
	LiveWorkingCommit(ctx context.Context, wc *dbmodel.WorkingCommit) error
	UpdateWorkingCommit(ctx context.Context, wc *dbmodel.WorkingCommit) error
	DeleteWorkingCommit(ctx context.Context, wc *dbmodel.WorkingCommit) error
	CountLiveWorkingCommits(ctx context.Context, databaseID string) (int, error)

	AddCommitTag(ctx context.Context, tag *dbmodel.CommitTag) error
	GetCommitTag(ctx context.Context, tag *dbmodel.CommitTag) error
	DeleteCommitTag(ctx context.Context, tag *dbmodel.CommitTag) error
	ForEachCommitTag(ctx context.Context, databaseID string, filter dbmodel.CommitTagQuery, f func(*dbmodel.CommitTag) error) error

	AddArtifact(ctx context.Context, artifact *dbmodel.Artifact) error
	GetArtifact(ctx context.Context, artifact *dbmodel.Artifact) error
	ForEachArtifact(ctx context.Context, databaseID string, f func(*dbmodel.Artifact) error) error
}

// An Identity describes the caller of a mutating operation. It is
// populated from the request audit headers.
type Identity struct {
	// ID is the caller's identifier. It is required on mutations.
	ID string

	// Email and Name are optional descriptive fields.
	Email string
	Name  string
}

// now returns the current time truncated to millisecond resolution,
// which is the resolution supported on all databases.
func (c *ConDB) now() time.Time {
	clk := c.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	return clk.Now().UTC().Truncate(time.Millisecond)
}

// databaseLock returns the lock serializing writes for the given
// database. Branch pointer and working commit transitions for one
// database take this lock, operations on different databases proceed in
// parallel.
func (c *ConDB) databaseLock(databaseID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks == nil {
		c.locks = make(map[string]*sync.Mutex)
	}
	l, ok := c.locks[databaseID]
	if !ok {
		l = new(sync.Mutex)
		c.locks[databaseID] = l
	}
	return l
}
