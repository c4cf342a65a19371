// Copyright 2026 Canonical.

package solve

import (
	"fmt"
)

// A CrossBranchPolicy controls how selections referencing instances
// from another branch are handled.
type CrossBranchPolicy string

const (
	CrossBranchReject            CrossBranchPolicy = "reject"
	CrossBranchAllow             CrossBranchPolicy = "allow"
	CrossBranchAllowWithWarnings CrossBranchPolicy = "allow_with_warnings"
)

// A MissingInstancePolicy controls how selections referencing unknown
// instances are handled.
type MissingInstancePolicy string

const (
	MissingInstanceFail        MissingInstancePolicy = "fail"
	MissingInstanceSkip        MissingInstancePolicy = "skip"
	MissingInstancePlaceholder MissingInstancePolicy = "placeholder"
)

// An EmptySelectionPolicy controls how relationships that resolve to
// no instances are handled.
type EmptySelectionPolicy string

const (
	EmptySelectionFail     EmptySelectionPolicy = "fail"
	EmptySelectionAllow    EmptySelectionPolicy = "allow"
	EmptySelectionFallback EmptySelectionPolicy = "fallback"
)

// Policies control how relationship selections are resolved during a
// solve.
type Policies struct {
	CrossBranch      CrossBranchPolicy     `json:"cross_branch_policy"`
	MissingInstance  MissingInstancePolicy `json:"missing_instance_policy"`
	EmptySelection   EmptySelectionPolicy  `json:"empty_selection_policy"`
	MaxSelectionSize *int                  `json:"max_selection_size,omitempty"`
}

// DefaultPolicies returns the policy set used when a request names
// none.
func DefaultPolicies() Policies {
	max := 1000
	return Policies{
		CrossBranch:      CrossBranchReject,
		MissingInstance:  MissingInstanceSkip,
		EmptySelection:   EmptySelectionAllow,
		MaxSelectionSize: &max,
	}
}

// StrictPolicies returns a policy set that fails on anything
// unexpected.
func StrictPolicies() Policies {
	max := 1000
	return Policies{
		CrossBranch:      CrossBranchReject,
		MissingInstance:  MissingInstanceFail,
		EmptySelection:   EmptySelectionFail,
		MaxSelectionSize: &max,
	}
}

// withDefaults fills any unset policy field from the default set.
func (p Policies) withDefaults() Policies {
	d := DefaultPolicies()
	if p.CrossBranch == "" {
		p.CrossBranch = d.CrossBranch
	}
	if p.MissingInstance == "" {
		p.MissingInstance = d.MissingInstance
	}
	if p.EmptySelection == "" {
		p.EmptySelection = d.EmptySelection
	}
	if p.MaxSelectionSize == nil {
		p.MaxSelectionSize = d.MaxSelectionSize
	}
	return p
}

// A Scope names the database, branch and optional commit a solve ran
// against.
type Scope struct {
	DatabaseID string `json:"database_id"`
	BranchID   string `json:"branch_id"`
	CommitHash string `json:"commit_hash,omitempty"`
}

// String implements fmt.Stringer.
func (s Scope) String() string {
	if s.CommitHash != "" {
		hash := s.CommitHash
		if len(hash) > 8 {
			hash = hash[:8]
		}
		return fmt.Sprintf("%s@%s@%s", s.DatabaseID, s.BranchID, hash)
	}
	return fmt.Sprintf("%s@%s", s.DatabaseID, s.BranchID)
}
