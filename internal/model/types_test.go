// Copyright 2026 Canonical.

package model_test

import (
	"encoding/json"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/condb/condb/internal/model"
)

func TestDataTypeUnmarshal(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		in   string
		want model.DataType
	}{
		{`"string"`, model.TypeString},
		{`"String"`, model.TypeString},
		{`"number"`, model.TypeNumber},
		{`"Boolean"`, model.TypeBoolean},
		{`"bool"`, model.TypeBoolean},
		{`"date"`, model.TypeDate},
		{`"object"`, model.TypeObject},
		{`"array"`, model.TypeArray},
		{`"StringList"`, model.TypeStringList},
		{`"string_list"`, model.TypeStringList},
	}
	for _, test := range tests {
		c.Run(test.in, func(c *qt.C) {
			var dt model.DataType
			err := json.Unmarshal([]byte(test.in), &dt)
			c.Assert(err, qt.IsNil)
			c.Check(dt, qt.Equals, test.want)
		})
	}

	var dt model.DataType
	err := json.Unmarshal([]byte(`"complex"`), &dt)
	c.Check(err, qt.ErrorMatches, `unknown data type "complex"`)
}

func TestDataTypeMatches(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name string
		dt   model.DataType
		v    interface{}
		want bool
	}{
		{"string ok", model.TypeString, "red", true},
		{"string not number", model.TypeString, 4.0, false},
		{"number ok", model.TypeNumber, 4.0, true},
		{"number not string", model.TypeNumber, "4", false},
		{"boolean ok", model.TypeBoolean, true, true},
		{"date rfc3339", model.TypeDate, "2024-01-02T15:04:05Z", true},
		{"date plain", model.TypeDate, "2024-01-02", true},
		{"date invalid", model.TypeDate, "yesterday", false},
		{"object ok", model.TypeObject, map[string]interface{}{"a": 1.0}, true},
		{"array ok", model.TypeArray, []interface{}{1.0, "a"}, true},
		{"string list ok", model.TypeStringList, []interface{}{"a", "b"}, true},
		{"string list mixed", model.TypeStringList, []interface{}{"a", 1.0}, false},
		{"nil never matches", model.TypeString, nil, false},
	}
	for _, test := range tests {
		c.Run(test.name, func(c *qt.C) {
			c.Check(test.dt.Matches(test.v), qt.Equals, test.want)
		})
	}
}

func TestQuantifierJSON(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name      string
		q         model.Quantifier
		marshaled string
	}{
		{"exactly", model.Exactly(1), `{"exactly":1}`},
		{"at least", model.AtLeast(2), `{"at_least":2}`},
		{"at most", model.AtMost(3), `{"at_most":3}`},
		{"between", model.Between(1, 3), `{"between":[1,3]}`},
		{"any", model.AnyQuantifier(), `"any"`},
	}
	for _, test := range tests {
		c.Run(test.name, func(c *qt.C) {
			b, err := json.Marshal(test.q)
			c.Assert(err, qt.IsNil)
			c.Check(string(b), qt.Equals, test.marshaled)

			var got model.Quantifier
			err = json.Unmarshal(b, &got)
			c.Assert(err, qt.IsNil)
			c.Check(got, qt.DeepEquals, test.q)
		})
	}
}

func TestQuantifierUnmarshalLegacy(t *testing.T) {
	c := qt.New(t)

	var q model.Quantifier
	err := json.Unmarshal([]byte(`{"range":[2,4]}`), &q)
	c.Assert(err, qt.IsNil)
	c.Check(q, qt.DeepEquals, model.Between(2, 4))

	err = json.Unmarshal([]byte(`{"Exactly":1}`), &q)
	c.Assert(err, qt.IsNil)
	c.Check(q, qt.DeepEquals, model.Exactly(1))

	err = json.Unmarshal([]byte(`"ANY"`), &q)
	c.Assert(err, qt.IsNil)
	c.Check(q, qt.DeepEquals, model.AnyQuantifier())

	err = json.Unmarshal([]byte(`"some"`), &q)
	c.Check(err, qt.ErrorMatches, `unknown quantifier "some"`)
}

func TestQuantifierSatisfies(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name string
		q    model.Quantifier
		n    int
		want bool
	}{
		{"exactly met", model.Exactly(2), 2, true},
		{"exactly missed", model.Exactly(2), 1, false},
		{"at least met", model.AtLeast(1), 3, true},
		{"at least missed", model.AtLeast(1), 0, false},
		{"at most met", model.AtMost(2), 2, true},
		{"at most missed", model.AtMost(2), 3, false},
		{"between low", model.Between(1, 3), 1, true},
		{"between high", model.Between(1, 3), 3, true},
		{"between out", model.Between(1, 3), 4, false},
		{"any zero", model.AnyQuantifier(), 0, true},
	}
	for _, test := range tests {
		c.Run(test.name, func(c *qt.C) {
			c.Check(test.q.Satisfies(test.n), qt.Equals, test.want)
		})
	}
}

func TestDomain(t *testing.T) {
	c := qt.New(t)

	c.Check(model.Binary().IsBinary(), qt.IsTrue)
	c.Check(model.Constant(3).IsConstant(), qt.IsTrue)
	c.Check(model.Binary().Contains(1), qt.IsTrue)
	c.Check(model.Binary().Contains(2), qt.IsFalse)

	d, ok := model.Domain{Lower: 0, Upper: 5}.Intersect(model.Domain{Lower: 2, Upper: 9})
	c.Assert(ok, qt.IsTrue)
	c.Check(d, qt.Equals, model.Domain{Lower: 2, Upper: 5})

	_, ok = model.Domain{Lower: 0, Upper: 1}.Intersect(model.Domain{Lower: 3, Upper: 4})
	c.Check(ok, qt.IsFalse)
}
