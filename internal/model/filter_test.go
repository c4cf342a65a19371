// Copyright 2026 Canonical.

package model_test

import (
	"encoding/json"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/condb/condb/internal/model"
)

func TestFilterJSON(t *testing.T) {
	c := qt.New(t)

	limit := 2
	f := model.Filter{
		Types: []string{"wheel"},
		Where: &model.WhereExpr{
			All: []model.WhereExpr{
				{Eq: &model.Comparison{Path: "$.color", Value: "red"}},
				{Gte: &model.Comparison{Path: "$.size", Value: 26.0}},
			},
		},
		Sort:  "-size",
		Limit: &limit,
	}
	b, err := json.Marshal(f)
	c.Assert(err, qt.IsNil)
	c.Check(string(b), qt.Equals, `{"type":["wheel"],"where":{"all":[{"eq":["$.color","red"]},{"gte":["$.size",26]}]},"sort":"-size","limit":2}`)

	var got model.Filter
	err = json.Unmarshal(b, &got)
	c.Assert(err, qt.IsNil)
	c.Check(got, qt.DeepEquals, f)
}

func TestFilterLegacyKey(t *testing.T) {
	c := qt.New(t)

	data := `{"type": ["wheel"], "filter": {"eq": ["$.color", "red"]}}`
	var f model.Filter
	err := json.Unmarshal([]byte(data), &f)
	c.Assert(err, qt.IsNil)
	c.Assert(f.Where, qt.IsNotNil)
	c.Check(f.Where.Eq, qt.DeepEquals, &model.Comparison{Path: "$.color", Value: "red"})

	// Marshaling always emits the current key.
	b, err := json.Marshal(f)
	c.Assert(err, qt.IsNil)
	c.Check(string(b), qt.Equals, `{"type":["wheel"],"where":{"eq":["$.color","red"]}}`)
}

func TestFilterSortProperty(t *testing.T) {
	c := qt.New(t)

	f := model.Filter{Sort: "-price"}
	prop, desc := f.SortProperty()
	c.Check(prop, qt.Equals, "price")
	c.Check(desc, qt.IsTrue)

	f = model.Filter{Sort: "price"}
	prop, desc = f.SortProperty()
	c.Check(prop, qt.Equals, "price")
	c.Check(desc, qt.IsFalse)
}

func TestWhereExprPredicates(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name string
		in   string
		want model.WhereExpr
	}{{
		name: "in",
		in:   `{"in": ["$.color", ["red", "blue"]]}`,
		want: model.WhereExpr{In: &model.Membership{Path: "$.color", Values: []interface{}{"red", "blue"}}},
	}, {
		name: "not_in",
		in:   `{"not_in": ["$.color", ["green"]]}`,
		want: model.WhereExpr{NotIn: &model.Membership{Path: "$.color", Values: []interface{}{"green"}}},
	}, {
		name: "contains",
		in:   `{"contains": ["$.name", "road"]}`,
		want: model.WhereExpr{Contains: &model.Containment{Path: "$.name", Substring: "road"}},
	}, {
		name: "exists",
		in:   `{"exists": "$.price"}`,
		want: model.WhereExpr{Exists: pathPtr("$.price")},
	}, {
		name: "not_exists",
		in:   `{"not_exists": "$.price"}`,
		want: model.WhereExpr{NotExists: pathPtr("$.price")},
	}, {
		name: "not",
		in:   `{"not": {"eq": ["$.color", "red"]}}`,
		want: model.WhereExpr{Not: &model.WhereExpr{Eq: &model.Comparison{Path: "$.color", Value: "red"}}},
	}}
	for _, test := range tests {
		c.Run(test.name, func(c *qt.C) {
			var got model.WhereExpr
			err := json.Unmarshal([]byte(test.in), &got)
			c.Assert(err, qt.IsNil)
			c.Check(got, qt.DeepEquals, test.want)
		})
	}
}

func pathPtr(s string) *model.PropPath {
	p := model.PropPath(s)
	return &p
}

func TestPropPathPropertyName(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		path string
		name string
		ok   bool
	}{
		{"$.color", "color", true},
		{"$.id", "", false},
		{"$.__id", "", false},
		{"$.class", "", false},
		{"$.class_id", "", false},
		{"$.__type", "", false},
		{"color", "", false},
	}
	for _, test := range tests {
		c.Run(test.path, func(c *qt.C) {
			name, ok := model.PropPath(test.path).PropertyName()
			c.Check(name, qt.Equals, test.name)
			c.Check(ok, qt.Equals, test.ok)
		})
	}
}

func TestDefaultPoolJSON(t *testing.T) {
	c := qt.New(t)

	c.Run("filter mode", func(c *qt.C) {
		p := model.DefaultPool{
			Mode:   model.PoolFilter,
			Types:  []string{"wheel"},
			Filter: &model.Filter{Where: &model.WhereExpr{Eq: &model.Comparison{Path: "$.color", Value: "red"}}},
		}
		b, err := json.Marshal(p)
		c.Assert(err, qt.IsNil)

		var got model.DefaultPool
		err = json.Unmarshal(b, &got)
		c.Assert(err, qt.IsNil)
		c.Check(got, qt.DeepEquals, p)
	})

	c.Run("legacy filter key", func(c *qt.C) {
		data := `{"mode": "filter", "type": ["wheel"], "filter": {"where": {"eq": ["$.color", "red"]}}}`
		var got model.DefaultPool
		err := json.Unmarshal([]byte(data), &got)
		c.Assert(err, qt.IsNil)
		c.Assert(got.Filter, qt.IsNotNil)
		c.Check(got.Filter.Where.Eq, qt.DeepEquals, &model.Comparison{Path: "$.color", Value: "red"})
	})

	c.Run("empty mode defaults to none", func(c *qt.C) {
		var got model.DefaultPool
		err := json.Unmarshal([]byte(`{}`), &got)
		c.Assert(err, qt.IsNil)
		c.Check(got.Mode, qt.Equals, model.PoolNone)
	})
}

func TestRelationshipSelectionJSON(t *testing.T) {
	c := qt.New(t)

	c.Run("bare id array", func(c *qt.C) {
		var got model.RelationshipSelection
		err := json.Unmarshal([]byte(`["w1", "w2"]`), &got)
		c.Assert(err, qt.IsNil)
		c.Check(got, qt.DeepEquals, model.SelectIDs("w1", "w2"))

		b, err := json.Marshal(got)
		c.Assert(err, qt.IsNil)
		c.Check(string(b), qt.Equals, `["w1","w2"]`)
	})

	c.Run("ids object", func(c *qt.C) {
		var got model.RelationshipSelection
		err := json.Unmarshal([]byte(`{"ids": ["w1"]}`), &got)
		c.Assert(err, qt.IsNil)
		c.Check(got, qt.DeepEquals, model.SelectIDs("w1"))
	})

	c.Run("filter", func(c *qt.C) {
		var got model.RelationshipSelection
		err := json.Unmarshal([]byte(`{"filter": {"where": {"eq": ["$.color", "red"]}}}`), &got)
		c.Assert(err, qt.IsNil)
		c.Check(got.Kind, qt.Equals, model.SelectionKindFilter)
		c.Check(got.Filter.Where.Eq, qt.DeepEquals, &model.Comparison{Path: "$.color", Value: "red"})
	})

	c.Run("all", func(c *qt.C) {
		var got model.RelationshipSelection
		err := json.Unmarshal([]byte(`{"all": true}`), &got)
		c.Assert(err, qt.IsNil)
		c.Check(got.Kind, qt.Equals, model.SelectionKindAll)
	})

	c.Run("pool with selection", func(c *qt.C) {
		data := `{"pool": {"type": ["wheel"]}, "selection": "unresolved"}`
		var got model.RelationshipSelection
		err := json.Unmarshal([]byte(data), &got)
		c.Assert(err, qt.IsNil)
		c.Check(got.Kind, qt.Equals, model.SelectionKindPool)
		c.Check(got.Pool.Types, qt.DeepEquals, []string{"wheel"})
		c.Check(got.Selection.Kind, qt.Equals, model.SelectionKindUnresolved)

		b, err := json.Marshal(got)
		c.Assert(err, qt.IsNil)
		var round model.RelationshipSelection
		err = json.Unmarshal(b, &round)
		c.Assert(err, qt.IsNil)
		c.Check(round, qt.DeepEquals, got)
	})

	c.Run("selection only", func(c *qt.C) {
		var got model.RelationshipSelection
		err := json.Unmarshal([]byte(`{"selection": ["w1"]}`), &got)
		c.Assert(err, qt.IsNil)
		c.Check(got.Kind, qt.Equals, model.SelectionKindPool)
		c.Check(got.Pool, qt.IsNil)
		c.Check(got.Selection, qt.DeepEquals, &model.SelectionSpec{Kind: model.SelectionKindIDs, IDs: []string{"w1"}})
	})

	c.Run("unknown", func(c *qt.C) {
		var got model.RelationshipSelection
		err := json.Unmarshal([]byte(`{"pick": true}`), &got)
		c.Check(err, qt.ErrorMatches, `unknown relationship selection .*`)
	})
}

func TestSelectionSpecJSON(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name string
		in   string
		want model.SelectionSpec
	}{{
		name: "ids",
		in:   `["w1", "w2"]`,
		want: model.SelectionSpec{Kind: model.SelectionKindIDs, IDs: []string{"w1", "w2"}},
	}, {
		name: "all",
		in:   `"all"`,
		want: model.SelectionSpec{Kind: model.SelectionKindAll},
	}, {
		name: "unresolved",
		in:   `"unresolved"`,
		want: model.SelectionSpec{Kind: model.SelectionKindUnresolved},
	}, {
		name: "filter",
		in:   `{"where": {"eq": ["$.color", "red"]}}`,
		want: model.SelectionSpec{
			Kind:   model.SelectionKindFilter,
			Filter: &model.Filter{Where: &model.WhereExpr{Eq: &model.Comparison{Path: "$.color", Value: "red"}}},
		},
	}}
	for _, test := range tests {
		c.Run(test.name, func(c *qt.C) {
			var got model.SelectionSpec
			err := json.Unmarshal([]byte(test.in), &got)
			c.Assert(err, qt.IsNil)
			c.Check(got, qt.DeepEquals, test.want)

			b, err := json.Marshal(got)
			c.Assert(err, qt.IsNil)
			var round model.SelectionSpec
			err = json.Unmarshal(b, &round)
			c.Assert(err, qt.IsNil)
			c.Check(round, qt.DeepEquals, got)
		})
	}

	var got model.SelectionSpec
	err := json.Unmarshal([]byte(`"some"`), &got)
	c.Check(err, qt.ErrorMatches, `unknown selection spec "some"`)
}
