// Copyright 2026 Canonical.

package condb_test

import (
	"context"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/juju/clock/testclock"

	"github.com/condb/condb/internal/condb"
	"github.com/condb/condb/internal/condbtest"
	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/model"
)

// A fixture is an engine backed by an in-memory store together with a
// freshly created database.
type fixture struct {
	cdb   *condb.ConDB
	clk   *testclock.Clock
	db    *dbmodel.Database
	alice condb.Identity
}

func newFixture(c *qt.C) *fixture {
	cdb, clk := condbtest.NewConDB()
	alice := condbtest.Identity("alice")
	db, err := cdb.AddDatabase(context.Background(), alice, "bike-store", "bicycle catalogue")
	c.Assert(err, qt.IsNil)
	return &fixture{
		cdb:   cdb,
		clk:   clk,
		db:    db,
		alice: alice,
	}
}

// seed stages the bike-store schema and instances on the default branch
// and commits them.
func (f *fixture) seed(c *qt.C) *dbmodel.Commit {
	ctx := context.Background()
	for _, class := range []model.ClassDef{wheelClass(), bikeClass()} {
		_, err := f.cdb.AddClass(ctx, f.alice, f.db.ID, "main", class)
		c.Assert(err, qt.IsNil)
	}
	for _, inst := range []model.Instance{wheel("w1", 320), wheel("w2", 480), bike("b1", "w1", "w2")} {
		_, err := f.cdb.AddInstance(ctx, f.alice, f.db.ID, "main", inst)
		c.Assert(err, qt.IsNil)
	}
	return f.commit(c, "main", "add the initial catalogue")
}

// commit advances the clock and commits the branch's working commit so
// consecutive commits get distinct creation times.
func (f *fixture) commit(c *qt.C, branch, message string) *dbmodel.Commit {
	f.clk.Advance(time.Minute)
	commit, err := f.cdb.CommitWorkingCommit(context.Background(), f.alice, f.db.ID, branch, message, "")
	c.Assert(err, qt.IsNil)
	return commit
}

func wheelClass() model.ClassDef {
	return model.ClassDef{
		ID:   "c-wheel",
		Name: "wheel",
		Properties: []model.PropertyDef{
			{ID: "p-price", Name: "price", DataType: model.TypeNumber, Required: true},
		},
	}
}

func bikeClass() model.ClassDef {
	return model.ClassDef{
		ID:   "c-bike",
		Name: "bike",
		Properties: []model.PropertyDef{
			{ID: "p-assembly", Name: "assembly", DataType: model.TypeNumber},
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
			ID:   "d-total",
			Name: "total_price",
			Expr: model.Sum("wheels", "price"),
		}},
	}
}

func wheel(id string, price float64) model.Instance {
	return model.Instance{
		ID:    id,
		Class: "wheel",
		Properties: map[string]model.PropertyValue{
			"price": model.LiteralValue(model.NumberValue(price)),
		},
	}
}

func bike(id string, wheels ...string) model.Instance {
	return model.Instance{
		ID:    id,
		Class: "bike",
		Properties: map[string]model.PropertyValue{
			"assembly": model.ConditionalValue(model.RuleSet{
				Rules: []model.Rule{{
					When: model.HasRel("wheels"),
					Then: 50.0,
				}},
				Default: 0.0,
			}),
		},
		Relationships: map[string]model.RelationshipSelection{
			"wheels": model.SelectIDs(wheels...),
		},
	}
}
