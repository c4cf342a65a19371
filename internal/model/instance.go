// Copyright 2026 Canonical.

package model

import (
	"time"
)

// An Instance is a concrete object of one class, carrying typed
// property values and relationship selections.
type Instance struct {
	ID    string `json:"id"`
	Class string `json:"class"`

	// Domain, when set, overrides the class-level domain constraint.
	Domain *Domain `json:"domain,omitempty"`

	Properties    map[string]PropertyValue         `json:"properties"`
	Relationships map[string]RelationshipSelection `json:"relationships"`

	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// LiteralProperty returns the literal value of the named property.
// Conditional and derived properties are not statically known and
// report false.
func (i *Instance) LiteralProperty(name string) (interface{}, bool) {
	pv, ok := i.Properties[name]
	if !ok || pv.Literal == nil {
		return nil, false
	}
	return pv.Literal.Value, true
}

// ValueAt returns the value addressed by a filter path on this
// instance. Only literal property values are visible to filters;
// conditional properties report false because evaluating them here
// would require a resolution pass of their own.
func (i *Instance) ValueAt(p PropPath) (interface{}, bool) {
	switch p {
	case "$.id", "$.__id":
		return i.ID, true
	case "$.class", "$.class_id", "$.__type":
		return i.Class, true
	}
	name, ok := p.PropertyName()
	if !ok {
		return nil, false
	}
	return i.LiteralProperty(name)
}
