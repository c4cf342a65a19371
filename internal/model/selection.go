// Copyright 2026 Canonical.

package model

import (
	"encoding/json"
	"fmt"
)

// A PoolMode determines how the default pool of a relationship is
// populated.
type PoolMode string

const (
	// PoolNone includes no instances; candidates must come from an
	// instance-level override.
	PoolNone PoolMode = "none"
	// PoolAll includes every instance of the target classes.
	PoolAll PoolMode = "all"
	// PoolFilter includes the instances of the target classes that
	// match the pool filter.
	PoolFilter PoolMode = "filter"
)

// A DefaultPool is the schema-level specification of the candidate set
// for a relationship.
type DefaultPool struct {
	Mode   PoolMode
	Types  []string
	Filter *Filter
}

type defaultPoolJSON struct {
	Mode   PoolMode `json:"mode"`
	Types  []string `json:"type,omitempty"`
	Where  *Filter  `json:"where,omitempty"`
	Filter *Filter  `json:"filter,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (p DefaultPool) MarshalJSON() ([]byte, error) {
	mode := p.Mode
	if mode == "" {
		mode = PoolNone
	}
	return json.Marshal(defaultPoolJSON{Mode: mode, Types: p.Types, Where: p.Filter})
}

// UnmarshalJSON implements json.Unmarshaler. The historical payload
// format spells the pool filter key "filter", it is accepted as an
// alias for "where".
func (p *DefaultPool) UnmarshalJSON(b []byte) error {
	var raw defaultPoolJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Mode == "" {
		raw.Mode = PoolNone
	}
	f := raw.Where
	if f == nil {
		f = raw.Filter
	}
	*p = DefaultPool{Mode: raw.Mode, Types: raw.Types, Filter: f}
	return nil
}

// A SelectionKind discriminates the variants of a relationship
// selection.
type SelectionKind string

const (
	SelectionKindIDs        SelectionKind = "ids"
	SelectionKindFilter     SelectionKind = "filter"
	SelectionKindAll        SelectionKind = "all"
	SelectionKindPool       SelectionKind = "pool"
	SelectionKindUnresolved SelectionKind = "unresolved"
)

// A RelationshipSelection is an instance-level selection for one
// relationship. Explicit ids bypass the relationship's pool entirely;
// a filter or pool-based selection is layered over the default pool by
// the resolver.
type RelationshipSelection struct {
	Kind      SelectionKind
	IDs       []string
	Filter    *Filter
	Pool      *Filter
	Selection *SelectionSpec
}

// SelectIDs returns an explicit-id selection.
func SelectIDs(ids ...string) RelationshipSelection {
	return RelationshipSelection{Kind: SelectionKindIDs, IDs: ids}
}

// SelectPool returns a pool-based selection.
func SelectPool(pool *Filter) RelationshipSelection {
	return RelationshipSelection{Kind: SelectionKindPool, Pool: pool}
}

// MarshalJSON implements json.Marshaler. Explicit-id selections are
// encoded as a bare array, which is the most common payload form.
func (s RelationshipSelection) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SelectionKindIDs:
		ids := s.IDs
		if ids == nil {
			ids = []string{}
		}
		return json.Marshal(ids)
	case SelectionKindFilter:
		return json.Marshal(map[string]*Filter{"filter": s.Filter})
	case SelectionKindAll:
		return json.Marshal(map[string]bool{"all": true})
	case SelectionKindPool:
		out := make(map[string]interface{}, 2)
		out["pool"] = s.Pool
		if s.Selection != nil {
			out["selection"] = s.Selection
		}
		return json.Marshal(out)
	}
	return nil, fmt.Errorf("unknown selection kind %q", s.Kind)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *RelationshipSelection) UnmarshalJSON(b []byte) error {
	var ids []string
	if err := json.Unmarshal(b, &ids); err == nil {
		*s = RelationshipSelection{Kind: SelectionKindIDs, IDs: ids}
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("cannot unmarshal relationship selection: %v", err)
	}
	if raw, ok := obj["ids"]; ok {
		if err := json.Unmarshal(raw, &ids); err != nil {
			return err
		}
		*s = RelationshipSelection{Kind: SelectionKindIDs, IDs: ids}
		return nil
	}
	if raw, ok := obj["filter"]; ok {
		var f Filter
		if err := json.Unmarshal(raw, &f); err != nil {
			return err
		}
		*s = RelationshipSelection{Kind: SelectionKindFilter, Filter: &f}
		return nil
	}
	if _, ok := obj["all"]; ok {
		*s = RelationshipSelection{Kind: SelectionKindAll}
		return nil
	}
	if _, ok := obj["pool"]; ok {
		return s.unmarshalPool(obj)
	}
	if _, ok := obj["selection"]; ok {
		return s.unmarshalPool(obj)
	}
	return fmt.Errorf("unknown relationship selection %s", b)
}

func (s *RelationshipSelection) unmarshalPool(obj map[string]json.RawMessage) error {
	sel := RelationshipSelection{Kind: SelectionKindPool}
	if raw, ok := obj["pool"]; ok && string(raw) != "null" {
		var f Filter
		if err := json.Unmarshal(raw, &f); err != nil {
			return err
		}
		sel.Pool = &f
	}
	if raw, ok := obj["selection"]; ok && string(raw) != "null" {
		var spec SelectionSpec
		if err := json.Unmarshal(raw, &spec); err != nil {
			return err
		}
		sel.Selection = &spec
	}
	*s = sel
	return nil
}

// A SelectionSpec narrows a pool-based selection: explicit ids, a
// filter over the pool, the whole pool, or unresolved.
type SelectionSpec struct {
	Kind   SelectionKind
	IDs    []string
	Filter *Filter
}

// MarshalJSON implements json.Marshaler.
func (s SelectionSpec) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SelectionKindIDs:
		ids := s.IDs
		if ids == nil {
			ids = []string{}
		}
		return json.Marshal(ids)
	case SelectionKindFilter:
		return json.Marshal(s.Filter)
	case SelectionKindAll:
		return json.Marshal("all")
	case SelectionKindUnresolved:
		return json.Marshal("unresolved")
	}
	return nil, fmt.Errorf("unknown selection spec kind %q", s.Kind)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *SelectionSpec) UnmarshalJSON(b []byte) error {
	var ids []string
	if err := json.Unmarshal(b, &ids); err == nil {
		*s = SelectionSpec{Kind: SelectionKindIDs, IDs: ids}
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		switch str {
		case "all":
			*s = SelectionSpec{Kind: SelectionKindAll}
		case "unresolved":
			*s = SelectionSpec{Kind: SelectionKindUnresolved}
		default:
			return fmt.Errorf("unknown selection spec %q", str)
		}
		return nil
	}
	var f Filter
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("cannot unmarshal selection spec: %v", err)
	}
	*s = SelectionSpec{Kind: SelectionKindFilter, Filter: &f}
	return nil
}
