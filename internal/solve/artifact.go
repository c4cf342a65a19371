// Copyright 2026 Canonical.

package solve

import (
	"time"

	"github.com/condb/condb/internal/model"
	"github.com/condb/condb/internal/validate"
)

// An Artifact is the immutable result of one solve. It carries the
// expanded configuration with materialized relationships, the computed
// property values, the validation result and metadata about the run.
type Artifact struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Scope    Scope    `json:"scope"`
	Policies Policies `json:"policies"`

	Configuration []ExpandedInstance `json:"configuration"`

	// Derived maps instance id to computed derived property values.
	Derived map[string]map[string]interface{} `json:"derived_properties,omitempty"`

	Validation validate.Result `json:"validation"`

	Metadata Metadata `json:"solve_metadata"`
}

// An ExpandedInstance is one instance of the configuration with every
// property evaluated to a concrete value and every relationship
// materialized to instance ids.
type ExpandedInstance struct {
	ID            string                          `json:"id"`
	Class         string                          `json:"class"`
	Domain        *model.Domain                   `json:"domain,omitempty"`
	Properties    map[string]interface{}          `json:"properties"`
	Relationships map[string]ResolvedRelationship `json:"relationships"`
}

// A ResolvedRelationship is the materialized selection of one
// relationship on one expanded instance.
type ResolvedRelationship struct {
	IDs      []string `json:"materialized_ids"`
	Method   Method   `json:"resolution_method"`
	Resolved bool     `json:"resolved"`
	Notes    []string `json:"notes,omitempty"`
}

// A Method names how a relationship selection was materialized.
type Method string

const (
	MethodExplicitIDs   Method = "explicit_ids"
	MethodPoolFilter    Method = "pool_filter"
	MethodSchemaDefault Method = "schema_default"
	MethodFallback      Method = "fallback"
	MethodEmpty         Method = "empty"
)

// Metadata describes one solve run.
type Metadata struct {
	TotalTimeMS int64      `json:"total_time_ms"`
	Phases      []Phase    `json:"pipeline_phases"`
	Statistics  Statistics `json:"statistics"`
	Issues      []Issue    `json:"issues,omitempty"`
}

// A Phase records the timing of one pipeline phase.
type Phase struct {
	Name       string `json:"name"`
	DurationMS int64  `json:"duration_ms"`
}

// Statistics aggregates counters over one solve run.
type Statistics struct {
	TotalInstances        int `json:"total_instances"`
	RelationshipsResolved int `json:"relationships_resolved"`
	ConditionalsEvaluated int `json:"conditional_properties_evaluated"`
	DerivedCalculated     int `json:"derived_properties_calculated"`
}

// An Issue is a problem encountered during a solve that did not abort
// the pipeline.
type Issue struct {
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	Component string   `json:"component,omitempty"`
}

// A Severity classifies a solve issue.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)
