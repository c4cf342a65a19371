// Copyright 2026 Canonical.

package validate_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/model"
	"github.com/condb/condb/internal/resolve"
	"github.com/condb/condb/internal/validate"
)

func storeSchema() *model.Schema {
	return &model.Schema{
		ID: "bike-store",
		Classes: []model.ClassDef{{
			ID:   "c-wheel",
			Name: "wheel",
			Properties: []model.PropertyDef{
				{ID: "p-size", Name: "size", DataType: model.TypeNumber, Required: true},
				{ID: "p-color", Name: "color", DataType: model.TypeString},
			},
		}, {
			ID:   "c-bike",
			Name: "bike",
			Properties: []model.PropertyDef{
				{ID: "p-name", Name: "name", DataType: model.TypeString},
				{ID: "p-price", Name: "price", DataType: model.TypeNumber},
			},
			Relationships: []model.RelationshipDef{{
				ID:          "r-wheels",
				Name:        "wheels",
				Targets:     []string{"wheel"},
				Quantifier:  model.Exactly(2),
				Selection:   model.SelectionManual,
				DefaultPool: model.DefaultPool{Mode: model.PoolAll},
			}},
			Derived: []model.DerivedDef{{
				ID:   "d-wheel-count",
				Name: "wheel_count",
				Expr: model.Count("wheels"),
			}},
		}},
	}
}

func wheel(id string, size float64) model.Instance {
	return model.Instance{
		ID:    id,
		Class: "wheel",
		Properties: map[string]model.PropertyValue{
			"size": model.LiteralValue(model.NumberValue(size)),
		},
	}
}

func viewOf(c *qt.C, schema *model.Schema, instances ...model.Instance) *resolve.View {
	c.Helper()
	return resolve.NewView(schema, instances)
}

func findProblem(problems []validate.Problem, code errors.Code) *validate.Problem {
	for i := range problems {
		if problems[i].Code == code {
			return &problems[i]
		}
	}
	return nil
}

func TestValidateCleanView(t *testing.T) {
	c := qt.New(t)

	bike := model.Instance{
		ID:    "b1",
		Class: "bike",
		Properties: map[string]model.PropertyValue{
			"name": model.LiteralValue(model.StringValue("roadster")),
		},
		Relationships: map[string]model.RelationshipSelection{
			"wheels": model.SelectIDs("w1", "w2"),
		},
	}
	v := viewOf(c, storeSchema(), wheel("w1", 26), wheel("w2", 28), bike)

	r := validate.View(v)
	c.Check(r.Valid, qt.IsTrue)
	c.Check(r.Errors, qt.HasLen, 0)
	c.Check(r.Warnings, qt.HasLen, 0)
}

func TestValidateUnknownClass(t *testing.T) {
	c := qt.New(t)

	v := viewOf(c, storeSchema(), model.Instance{ID: "x1", Class: "motor"})
	r := validate.View(v)
	c.Check(r.Valid, qt.IsFalse)
	p := findProblem(r.Errors, errors.CodeClassNotFound)
	c.Assert(p, qt.IsNotNil)
	c.Check(p.Instance, qt.Equals, "x1")
}

func TestValidateTypeMismatch(t *testing.T) {
	c := qt.New(t)

	w := model.Instance{
		ID:    "w1",
		Class: "wheel",
		Properties: map[string]model.PropertyValue{
			"size": model.LiteralValue(model.StringValue("big")),
		},
	}
	r := validate.View(viewOf(c, storeSchema(), w))
	c.Check(r.Valid, qt.IsFalse)
	p := findProblem(r.Errors, errors.CodeTypeMismatch)
	c.Assert(p, qt.IsNotNil)
	c.Check(p.Property, qt.Equals, "size")
	c.Check(findProblem(r.Errors, errors.CodeValueTypeInconsistency), qt.IsNotNil)
}

func TestValidateMissingRequiredProperty(t *testing.T) {
	c := qt.New(t)

	w := model.Instance{ID: "w1", Class: "wheel"}
	r := validate.View(viewOf(c, storeSchema(), w))
	c.Check(r.Valid, qt.IsFalse)
	p := findProblem(r.Errors, errors.CodeMissingRequiredProperty)
	c.Assert(p, qt.IsNotNil)
	c.Check(p.Property, qt.Equals, "size")
}

func TestValidateUndefinedProperty(t *testing.T) {
	c := qt.New(t)

	w := wheel("w1", 26)
	w.Properties["weight"] = model.LiteralValue(model.NumberValue(1.5))
	r := validate.View(viewOf(c, storeSchema(), w))
	c.Check(r.Valid, qt.IsFalse)
	p := findProblem(r.Errors, errors.CodeUndefinedProperty)
	c.Assert(p, qt.IsNotNil)
	c.Check(p.Property, qt.Equals, "weight")
}

func TestValidateQuantifierViolation(t *testing.T) {
	c := qt.New(t)

	bike := model.Instance{
		ID:    "b1",
		Class: "bike",
		Relationships: map[string]model.RelationshipSelection{
			"wheels": model.SelectIDs("w1"),
		},
	}
	r := validate.View(viewOf(c, storeSchema(), wheel("w1", 26), bike))
	c.Check(r.Valid, qt.IsFalse)
	p := findProblem(r.Errors, errors.CodeQuantifierViolation)
	c.Assert(p, qt.IsNotNil)
	c.Check(p.Property, qt.Equals, "wheels")
	c.Check(p.Message, qt.Matches, `relationship "wheels" resolves to 1 instances, want exactly 2`)
}

func TestValidateUnresolvedQuantifierWarning(t *testing.T) {
	c := qt.New(t)

	// A manual selection with no override stays unresolved, which is
	// reported as a warning rather than an error.
	bike := model.Instance{ID: "b1", Class: "bike"}
	r := validate.View(viewOf(c, storeSchema(), wheel("w1", 26), wheel("w2", 28), bike))
	c.Check(r.Valid, qt.IsTrue)
	p := findProblem(r.Warnings, errors.CodeQuantifierUnchecked)
	c.Assert(p, qt.IsNotNil)
	c.Check(p.Property, qt.Equals, "wheels")
}

func TestValidateUnknownCandidate(t *testing.T) {
	c := qt.New(t)

	bike := model.Instance{
		ID:    "b1",
		Class: "bike",
		Relationships: map[string]model.RelationshipSelection{
			"wheels": model.SelectIDs("w1", "w9"),
		},
	}
	r := validate.View(viewOf(c, storeSchema(), wheel("w1", 26), bike))
	c.Check(r.Valid, qt.IsFalse)
	p := findProblem(r.Errors, errors.CodeRelationshipError)
	c.Assert(p, qt.IsNotNil)
	c.Check(p.Message, qt.Contains, `"w9"`)
}

func TestValidateCandidateClassMismatch(t *testing.T) {
	c := qt.New(t)

	bike := model.Instance{
		ID:    "b1",
		Class: "bike",
		Relationships: map[string]model.RelationshipSelection{
			"wheels": model.SelectIDs("b2", "w1"),
		},
	}
	other := model.Instance{ID: "b2", Class: "bike"}
	r := validate.View(viewOf(c, storeSchema(), wheel("w1", 26), other, bike))
	c.Check(r.Valid, qt.IsFalse)
	p := findProblem(r.Errors, errors.CodeRelationshipError)
	c.Assert(p, qt.IsNotNil)
	c.Check(p.Message, qt.Contains, `"b2"`)
}

func TestValidateUndefinedRelationship(t *testing.T) {
	c := qt.New(t)

	bike := model.Instance{
		ID:    "b1",
		Class: "bike",
		Relationships: map[string]model.RelationshipSelection{
			"pedals": model.SelectIDs(),
		},
	}
	r := validate.View(viewOf(c, storeSchema(), bike))
	c.Check(r.Valid, qt.IsFalse)
	p := findProblem(r.Errors, errors.CodeUndefinedRelationship)
	c.Assert(p, qt.IsNotNil)
	c.Check(p.Property, qt.Equals, "pedals")
}

func TestValidateConditionalProperty(t *testing.T) {
	c := qt.New(t)

	bike := model.Instance{
		ID:    "b1",
		Class: "bike",
		Properties: map[string]model.PropertyValue{
			"price": model.ConditionalValue(model.RuleSet{
				Rules: []model.Rule{{
					When: model.HasRel("mudguards"),
					Then: 120.0,
				}},
				Default: 100.0,
			}),
		},
		Relationships: map[string]model.RelationshipSelection{
			"wheels": model.SelectIDs("w1", "w2"),
		},
	}
	r := validate.View(viewOf(c, storeSchema(), wheel("w1", 26), wheel("w2", 28), bike))
	c.Check(r.Valid, qt.IsFalse)
	p := findProblem(r.Errors, errors.CodeUndefinedRelationship)
	c.Assert(p, qt.IsNotNil)
	c.Check(p.Property, qt.Equals, "price")
	c.Check(findProblem(r.Warnings, errors.CodeConditionalPropertySkipped), qt.IsNotNil)
}

func TestValidateDomainConflict(t *testing.T) {
	c := qt.New(t)

	schema := storeSchema()
	constraint := model.Domain{Lower: 0, Upper: 3}
	schema.Classes[0].DomainConstraint = &constraint
	w := wheel("w1", 26)
	d := model.Domain{Lower: 5, Upper: 8}
	w.Domain = &d
	r := validate.View(viewOf(c, schema, w))
	c.Check(r.Valid, qt.IsFalse)
	p := findProblem(r.Errors, errors.CodeDomainConflict)
	c.Assert(p, qt.IsNotNil)
	c.Check(p.Instance, qt.Equals, "w1")
}

func TestValidateSchemaUnknownTarget(t *testing.T) {
	c := qt.New(t)

	schema := storeSchema()
	schema.Classes[1].Relationships[0].Targets = []string{"hovercraft"}
	r := validate.View(viewOf(c, schema))
	c.Check(r.Valid, qt.IsFalse)
	p := findProblem(r.Errors, errors.CodeClassNotFound)
	c.Assert(p, qt.IsNotNil)
	c.Check(p.Class, qt.Equals, "bike")
	c.Check(p.Property, qt.Equals, "wheels")
}

func TestValidateSchemaDerivedOverUnknownRelationship(t *testing.T) {
	c := qt.New(t)

	schema := storeSchema()
	schema.Classes[1].Derived[0].Expr = model.Count("gears")
	r := validate.View(viewOf(c, schema))
	c.Check(r.Valid, qt.IsFalse)
	p := findProblem(r.Errors, errors.CodeUndefinedRelationship)
	c.Assert(p, qt.IsNotNil)
	c.Check(p.Class, qt.Equals, "bike")
	c.Check(p.Property, qt.Equals, "wheel_count")
}

func TestValidateSchemaDerivedCycle(t *testing.T) {
	c := qt.New(t)

	schema := storeSchema()
	schema.Classes[1].Derived = []model.DerivedDef{{
		ID:   "d-a",
		Name: "a",
		Expr: model.Prop("b"),
	}, {
		ID:   "d-b",
		Name: "b",
		Expr: model.Prop("a"),
	}}
	r := validate.View(viewOf(c, schema))
	c.Check(r.Valid, qt.IsFalse)
	p := findProblem(r.Errors, errors.CodeDerivedCycle)
	c.Assert(p, qt.IsNotNil)
	c.Check(p.Message, qt.Matches, `derived definitions form a cycle: a -> b -> a`)
}
