// Copyright 2026 Canonical.

package condbtest

import (
	"time"

	"github.com/juju/clock/testclock"

	"github.com/condb/condb/internal/condb"
)

// Epoch is the instant test clocks start at.
var Epoch = time.Date(2026, time.January, 2, 15, 4, 5, 0, time.UTC)

// Identity returns a test identity with the given id.
func Identity(id string) condb.Identity {
	return condb.Identity{
		ID:    id,
		Email: id + "@example.com",
		Name:  id,
	}
}

// NewConDB returns an engine backed by an in-memory store and a test
// clock starting at Epoch. The clock is returned so tests can advance
// it between operations.
func NewConDB() (*condb.ConDB, *testclock.Clock) {
	clk := testclock.NewClock(Epoch)
	return &condb.ConDB{
		Store: new(Store),
		Clock: clk,
	}, clk
}
